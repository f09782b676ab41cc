package thresholds

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aird/internal/requirements"
)

func float64Ptr(v float64) *float64 { return &v }

func TestPasses_LTEDirection(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	assert.True(t, r.Passes("null_rate", float64Ptr(0.01), "l1"))
	assert.False(t, r.Passes("null_rate", float64Ptr(99), "l1"))
}

func TestPasses_GTEDirection(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	assert.True(t, r.Passes("foreign_key_coverage", float64Ptr(100), "l1"))
	assert.False(t, r.Passes("foreign_key_coverage", float64Ptr(0), "l2"))
}

func TestPasses_NilMeasuredFails(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	assert.False(t, r.Passes("null_rate", nil, "l1"))
}

func TestPasses_InformationalAlwaysPasses(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	req, ok := requirements.NewRegistry().Lookup("table_discovery")
	require.True(t, ok)
	require.True(t, req.Informational)
	assert.True(t, r.Passes("table_discovery", nil, "l1"))
	assert.True(t, r.Passes("table_discovery", float64Ptr(0), "l3"))
}

func TestLoadOverrides_MissingFileIsNotAnError(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	out, err := r.LoadOverrides(filepath.Join(t.TempDir(), "does-not-exist.json"))
	require.NoError(t, err)
	assert.Equal(t, r.Threshold("null_rate", "l1"), out.Threshold("null_rate", "l1"))
}

func TestLoadOverrides_EmptyPathIsNoop(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	out, err := r.LoadOverrides("")
	require.NoError(t, err)
	assert.Equal(t, r, out)
}

func TestLoadOverrides_OverridesThresholdAndDirection(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())

	path := filepath.Join(t.TempDir(), "overrides.json")
	raw, err := json.Marshal(map[string]map[string]any{
		"null_rate": {"l1": 0.5, "direction": "gte"},
	})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, raw, 0o644))

	out, err := r.LoadOverrides(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, out.Threshold("null_rate", "l1"))
	assert.Equal(t, requirements.GTE, out.Direction("null_rate"))
	// original resolver is untouched
	assert.NotEqual(t, 0.5, r.Threshold("null_rate", "l1"))
	assert.Equal(t, requirements.LTE, r.Direction("null_rate"))
}

func TestLoadOverrides_MalformedFileIsError(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := r.LoadOverrides(path)
	assert.Error(t, err)
}

func TestThreshold_UnknownRequirementIsZero(t *testing.T) {
	r := NewResolver(requirements.NewRegistry())
	assert.Equal(t, 0.0, r.Threshold("nonexistent_key", "l1"))
}
