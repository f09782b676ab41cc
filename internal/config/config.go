// Package config merges environment variables, cobra flags, and an
// optional on-disk config file into a single Config, via
// github.com/spf13/viper bound ahead of the teacher's env-var-first
// pattern in the original internal/config/config.go.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"aird/internal/cliutil"
)

// Config is the fully-resolved, ready-to-use process configuration.
type Config struct {
	ConnectionString string
	ContextPath      string
	ThresholdsPath   string
	Output           string
	LogLevel         string
	Audit            bool
	DBPath           string
}

// Bind registers every AIRD_* environment variable and the matching flag
// names on flags, and returns a *viper.Viper ready for Load.
func Bind(flags *pflag.FlagSet) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("aird")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("db_path", defaultDBPath())
	v.SetDefault("output", "stdout")
	v.SetDefault("log_level", "info")

	if flags != nil {
		_ = v.BindPFlag("connection_string", flags.Lookup("connection"))
		_ = v.BindPFlag("context", flags.Lookup("context"))
		_ = v.BindPFlag("thresholds", flags.Lookup("thresholds"))
		_ = v.BindPFlag("output", flags.Lookup("output"))
		_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
		_ = v.BindPFlag("audit", flags.Lookup("audit"))
		_ = v.BindPFlag("db_path", flags.Lookup("db-path"))
	}
	return v
}

// Load resolves v into a Config, substituting any "env:VAR" connection
// string literal with the named environment variable's value.
func Load(v *viper.Viper) Config {
	return Config{
		ConnectionString: cliutil.ResolveEnvRef(v.GetString("connection_string")),
		ContextPath:      v.GetString("context"),
		ThresholdsPath:   v.GetString("thresholds"),
		Output:           v.GetString("output"),
		LogLevel:         v.GetString("log_level"),
		Audit:            v.GetBool("audit"),
		DBPath:           v.GetString("db_path"),
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".aird/assessments.db"
	}
	return filepath.Join(home, ".aird", "assessments.db")
}
