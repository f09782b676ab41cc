package duckdbadapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aird/internal/platform"
)

func TestParsePath_HandlesSchemedAndBareAndMemoryForms(t *testing.T) {
	assert.Equal(t, "", parsePath("duckdb://:memory:"))
	assert.Equal(t, "", parsePath("duckdb://"))
	assert.Equal(t, "/abs/path.db", parsePath("duckdb:///abs/path.db"))
	assert.Equal(t, "rel/path.db", parsePath("duckdb://rel/path.db"))
}

func TestRegister_BindsSchemeAndDefaultSuite(t *testing.T) {
	reg := platform.NewRegistry()
	Register(reg)

	suite, err := reg.DefaultSuite("duckdb://:memory:")
	require.NoError(t, err)
	assert.Equal(t, "common_duckdb", suite)

	name, err := reg.AdapterName("duckdb:///tmp/a.db")
	require.NoError(t, err)
	assert.Equal(t, "duckdb", name)
}
