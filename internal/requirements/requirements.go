// Package requirements holds the canonical registry of requirement keys:
// their quality factor, pass direction, and default tiered thresholds.
//
// Grounded on original_source/cli/thresholds.py's description of a
// requirements_registry.yaml (not present in the retrieval pack) combined
// with every requirement key spec.md names across its data model, scope
// rules, and remediation templates.
package requirements

// Direction indicates how a measured value is compared against a threshold.
type Direction string

const (
	// LTE: pass when measured <= threshold. Used for rate-of-bad metrics.
	LTE Direction = "lte"
	// GTE: pass when measured >= threshold. Used for coverage metrics.
	GTE Direction = "gte"
)

// Factor is one of the six canonical quality dimensions.
type Factor string

const (
	FactorClean      Factor = "clean"
	FactorContextual Factor = "contextual"
	FactorConsumable Factor = "consumable"
	FactorCurrent    Factor = "current"
	FactorCorrelated Factor = "correlated"
	FactorCompliant  Factor = "compliant"
)

// Thresholds is the set of targets for a requirement across the three
// workload levels.
type Thresholds struct {
	L1 float64
	L2 float64
	L3 float64
}

// Get returns the threshold for the given level key ("l1", "l2", "l3").
// Unknown level keys return 0.
func (t Thresholds) Get(level string) float64 {
	switch level {
	case "l1":
		return t.L1
	case "l2":
		return t.L2
	case "l3":
		return t.L3
	default:
		return 0
	}
}

// Requirement is a canonical, named, measurable property within a factor.
type Requirement struct {
	Key               string
	Factor            Factor
	Direction         Direction
	DefaultThresholds Thresholds
	// Informational requirements always pass, regardless of measured value.
	Informational bool
}

// Registry is the canonical list of requirement keys known to the engine.
// It is a read-mostly value populated once at startup; lookups never block.
type Registry struct {
	byKey map[string]Requirement
}

// NewRegistry returns the built-in requirement registry.
func NewRegistry() Registry {
	r := Registry{byKey: make(map[string]Requirement, len(defaults))}
	for _, req := range defaults {
		r.byKey[req.Key] = req
	}
	return r
}

// Lookup returns the requirement for key, and whether it was found. Unknown
// keys resolve to an empty Requirement with default thresholds {0,0,0} and
// direction lte, matching spec.md's "unknown requirements resolve to
// {l1:0,l2:0,l3:0} and fail" rule — callers should still treat found=false
// specially when surfacing diagnostics.
func (r Registry) Lookup(key string) (Requirement, bool) {
	req, ok := r.byKey[key]
	if !ok {
		return Requirement{Key: key, Direction: LTE}, false
	}
	return req, true
}

// Keys returns all registered requirement keys in registration order.
func (r Registry) Keys() []string {
	keys := make([]string, 0, len(defaults))
	for _, req := range defaults {
		keys = append(keys, req.Key)
	}
	return keys
}

// All returns every registered requirement in registration order.
func (r Registry) All() []Requirement {
	out := make([]Requirement, len(defaults))
	copy(out, defaults)
	return out
}

// defaults is the canonical requirement list. table_discovery is
// informational: it always passes regardless of measured value.
var defaults = []Requirement{
	{Key: "table_discovery", Factor: FactorClean, Direction: LTE, Informational: true,
		DefaultThresholds: Thresholds{L1: 1.0, L2: 1.0, L3: 1.0}},
	{Key: "null_rate", Factor: FactorClean, Direction: LTE,
		DefaultThresholds: Thresholds{L1: 0.2, L2: 0.05, L3: 0.01}},
	{Key: "duplicate_rate", Factor: FactorClean, Direction: LTE,
		DefaultThresholds: Thresholds{L1: 0.1, L2: 0.02, L3: 0.01}},
	{Key: "format_inconsistency_rate", Factor: FactorClean, Direction: LTE,
		DefaultThresholds: Thresholds{L1: 0.1, L2: 0.05, L3: 0.01}},
	{Key: "type_inconsistency_rate", Factor: FactorClean, Direction: LTE,
		DefaultThresholds: Thresholds{L1: 0.05, L2: 0.02, L3: 0.01}},
	{Key: "zero_negative_rate", Factor: FactorClean, Direction: LTE,
		DefaultThresholds: Thresholds{L1: 0.05, L2: 0.02, L3: 0.01}},
	{Key: "primary_key_defined", Factor: FactorClean, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.5, L2: 0.8, L3: 1.0}},
	{Key: "foreign_key_coverage", Factor: FactorCorrelated, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.3, L3: 0.6}},
	{Key: "constraint_coverage", Factor: FactorClean, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.3, L3: 0.6}},
	{Key: "temporal_scope_present", Factor: FactorCurrent, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.5, L3: 1.0}},
	{Key: "column_comment_coverage", Factor: FactorContextual, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.3, L3: 0.7}},
	{Key: "table_comment_coverage", Factor: FactorContextual, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.5, L3: 1.0}},
	{Key: "semantic_model_coverage", Factor: FactorConsumable, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.2, L3: 0.5}},
	{Key: "freshness_metadata", Factor: FactorCurrent, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.3, L3: 0.7}},
	{Key: "lineage_metadata", Factor: FactorCorrelated, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.2, L3: 0.5}},
	{Key: "access_control_metadata", Factor: FactorCompliant, Direction: GTE,
		DefaultThresholds: Thresholds{L1: 0.0, L2: 0.5, L3: 1.0}},
}
