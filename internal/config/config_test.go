package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadContext_EmptyPathReturnsZeroValue(t *testing.T) {
	ctx, err := LoadContext("")
	require.NoError(t, err)
	assert.Empty(t, ctx.Schemas)
	assert.Empty(t, ctx.Tables)
}

func TestLoadContext_MissingFileIsConfigurationError(t *testing.T) {
	_, err := LoadContext(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadContext_ParsesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemas":["public"],"target_level":"rag"}`), 0o644))

	ctx, err := LoadContext(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"public"}, ctx.Schemas)
	assert.Equal(t, "rag", ctx.TargetLevel)
}

func TestLoadContext_ParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "context.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schemas:\n  - analytics\ntables:\n  - analytics.orders\n"), 0o644))

	ctx, err := LoadContext(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"analytics"}, ctx.Schemas)
	assert.Equal(t, []string{"analytics.orders"}, ctx.Tables)
}

func TestLoadContext_MalformedJSONIsConfigurationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := LoadContext(path)
	assert.Error(t, err)
}

func TestBindAndLoad_FlagsFlowThroughToConfig(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("connection", "", "")
	flags.String("context", "", "")
	flags.String("thresholds", "", "")
	flags.String("output", "stdout", "")
	flags.String("log-level", "info", "")
	flags.Bool("audit", false, "")
	flags.String("db-path", "", "")
	require.NoError(t, flags.Set("connection", "sqlite:///local.db"))
	require.NoError(t, flags.Set("output", "markdown"))

	v := Bind(flags)
	cfg := Load(v)

	assert.Equal(t, "sqlite:///local.db", cfg.ConnectionString)
	assert.Equal(t, "markdown", cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_ResolvesEnvPrefixedConnectionString(t *testing.T) {
	t.Setenv("AIRD_TEST_DSN", "postgres://localhost/app")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("connection", "env:AIRD_TEST_DSN", "")
	v := Bind(flags)
	cfg := Load(v)

	assert.Equal(t, "postgres://localhost/app", cfg.ConnectionString)
}

func TestLoad_DefaultsOutputAndLogLevel(t *testing.T) {
	v := Bind(nil)
	cfg := Load(v)
	assert.Equal(t, "stdout", cfg.Output)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.DBPath)
}
