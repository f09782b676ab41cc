package cliutil

import (
	"os"
	"strings"
)

// WorkloadLevel is one of the three target workload levels, grounded on
// original_source/cli/constants.py's WorkloadLevel enum.
type WorkloadLevel string

const (
	WorkloadAnalytics WorkloadLevel = "analytics"
	WorkloadRAG       WorkloadLevel = "rag"
	WorkloadTraining  WorkloadLevel = "training"
)

// Short returns the level key used in thresholds/results ("l1", "l2", "l3").
func (w WorkloadLevel) Short() string {
	switch w {
	case WorkloadRAG:
		return "l2"
	case WorkloadTraining:
		return "l3"
	default:
		return "l1"
	}
}

// Label returns a human-readable display label.
func (w WorkloadLevel) Label() string {
	switch w {
	case WorkloadRAG:
		return "L2 (RAG)"
	case WorkloadTraining:
		return "L3 (Training)"
	default:
		return "L1 (Analytics)"
	}
}

// ResolveEnvRef substitutes an "env:VAR_NAME" literal value with the
// contents of the named environment variable. Values without the "env:"
// prefix pass through unchanged.
func ResolveEnvRef(value string) string {
	if rest, ok := strings.CutPrefix(value, "env:"); ok {
		return os.Getenv(rest)
	}
	return value
}

// IsJSONPath reports whether value is a "json:<path>" output specifier.
func IsJSONPath(value string) bool {
	return strings.HasPrefix(value, "json:")
}

// JSONPath extracts the path from a "json:<path>" specifier, and whether
// value matched that shape.
func JSONPath(value string) (string, bool) {
	rest, ok := strings.CutPrefix(value, "json:")
	return rest, ok
}
