package config

import (
	"encoding/json"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"aird/internal/cliutil"
	"aird/internal/report"
)

// Context is the optional structured document the assess pipeline loads to
// narrow discovery and scope the run (spec.md §4.8 step 2).
type Context struct {
	Schemas      []string             `json:"schemas,omitempty" yaml:"schemas,omitempty"`
	Tables       []string             `json:"tables,omitempty" yaml:"tables,omitempty"`
	TargetLevel  string               `json:"target_level,omitempty" yaml:"target_level,omitempty"`
	DataProducts []report.DataProduct `json:"data_products,omitempty" yaml:"data_products,omitempty"`
}

// LoadContext reads path as JSON or YAML (selected by extension; YAML is
// also attempted for unknown extensions, since it's a superset of JSON). An
// empty path returns a zero Context and no error.
func LoadContext(path string) (Context, error) {
	var ctx Context
	if path == "" {
		return ctx, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ctx, cliutil.NewConfigurationError("reading context file "+path, err)
	}

	if strings.HasSuffix(path, ".json") {
		if err := json.Unmarshal(data, &ctx); err != nil {
			return ctx, cliutil.NewConfigurationError("parsing context file "+path, err)
		}
		return ctx, nil
	}
	if err := yaml.Unmarshal(data, &ctx); err != nil {
		return ctx, cliutil.NewConfigurationError("parsing context file "+path, err)
	}
	return ctx, nil
}
