package sqliteadapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aird/internal/platform"
)

func TestParsePath_HandlesSchemedAndBareAndMemoryForms(t *testing.T) {
	assert.Equal(t, ":memory:", parsePath("sqlite://:memory:"))
	assert.Equal(t, ":memory:", parsePath("sqlite://"))
	assert.Equal(t, "/abs/path.db", parsePath("sqlite:///abs/path.db"))
	assert.Equal(t, "rel/path.db", parsePath("sqlite://rel/path.db"))
	assert.Equal(t, "/abs/path.db", parsePath("/abs/path.db"))
}

func TestRegister_BindsSchemeAndDefaultSuite(t *testing.T) {
	reg := platform.NewRegistry()
	Register(reg)

	suite, err := reg.DefaultSuite("sqlite://:memory:")
	require.NoError(t, err)
	assert.Equal(t, "common_sqlite", suite)

	name, err := reg.AdapterName("sqlite:///tmp/a.db")
	require.NoError(t, err)
	assert.Equal(t, "sqlite", name)
}

func TestConnect_OpensInMemoryDatabaseAndExecutesQuery(t *testing.T) {
	conn, err := connect(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	defer conn.Close()

	rows, err := conn.Execute(context.Background(), "SELECT 1")
	require.NoError(t, err)
	require.True(t, rows.Next())
	var n any
	require.NoError(t, rows.Scan(&n))
	assert.Equal(t, int64(1), n)
	require.NoError(t, rows.Close())
}

func TestQuoteIdent_UsesANSIDoubleQuoteConvention(t *testing.T) {
	conn, err := connect(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, `"orders"`, conn.QuoteIdent("orders"))
}
