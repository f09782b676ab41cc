// Package suite loads declarative test-suite YAML documents and expands
// them into concrete, executable tests against a discovered inventory.
//
// Grounded on original_source/agent/suites/loader.py for the validation
// rules, generalized with the extends-resolution and scope-predicate
// expansion spec.md §4.3/§4.4 adds beyond the original loader.
package suite

import (
	"fmt"
)

// TargetType is where a templated test's placeholders are scoped.
type TargetType string

const (
	TargetPlatform TargetType = "platform"
	TargetTable    TargetType = "table"
	TargetColumn   TargetType = "column"
)

// TestDef is one raw test entry as it appears in a suite YAML document,
// before template expansion.
type TestDef struct {
	ID            string     `yaml:"id"`
	Factor        string     `yaml:"factor"`
	Requirement   string     `yaml:"requirement"`
	TargetType    TargetType `yaml:"target_type"`
	Query         string     `yaml:"query,omitempty"`
	QueryTemplate string     `yaml:"query_template,omitempty"`
}

// Document is the on-disk shape of one suite YAML file.
type Document struct {
	SuiteName string    `yaml:"suite_name"`
	Platform  string    `yaml:"platform,omitempty"`
	Extends   []string  `yaml:"extends,omitempty"`
	Tests     []TestDef `yaml:"tests,omitempty"`
}

// Suite is a registered, not-yet-resolved suite: its own tests plus the
// names of the suites it extends.
type Suite struct {
	Name    string
	Extends []string
	Tests   []TestDef
}

// ExpandedTest is one concrete, schema/table/column-bound test ready for
// the runner.
type ExpandedTest struct {
	ID          string
	Factor      string
	Requirement string
	TargetType  TargetType
	Query       string
	Schema      string
	Table       string
	Column      string
}

// validate enforces spec.md §4.3's rules on a single raw document, before
// any of its suites are registered. Registration is atomic: one invalid
// test invalidates the whole file.
func validate(doc Document, fileName string) error {
	if doc.SuiteName == "" {
		return fmt.Errorf("suite file %s: missing or invalid 'suite_name'", fileName)
	}
	if len(doc.Tests) == 0 && len(doc.Extends) == 0 {
		return fmt.Errorf("suite file %s: suite %q must have a non-empty 'tests' or a non-empty 'extends'", fileName, doc.SuiteName)
	}
	for i, t := range doc.Tests {
		if err := validateTest(t, i); err != nil {
			return fmt.Errorf("suite file %s: %w", fileName, err)
		}
	}
	return nil
}

func validateTest(t TestDef, index int) error {
	if t.ID == "" {
		return fmt.Errorf("test[%d]: missing required field 'id'", index)
	}
	if t.Factor == "" {
		return fmt.Errorf("test[%d]: missing required field 'factor'", index)
	}
	if t.Requirement == "" {
		return fmt.Errorf("test[%d]: missing required field 'requirement'", index)
	}
	switch t.TargetType {
	case TargetPlatform, TargetTable, TargetColumn:
	default:
		return fmt.Errorf("test[%d]: invalid target_type %q (expected one of platform, table, column)", index, t.TargetType)
	}
	hasQuery := t.Query != ""
	hasTemplate := t.QueryTemplate != ""
	if hasQuery == hasTemplate {
		return fmt.Errorf("test[%d]: must have exactly one of 'query' or 'query_template'", index)
	}
	return nil
}
