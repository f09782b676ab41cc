// Package thresholds resolves per-requirement pass/fail targets, merging the
// built-in requirement registry with an optional user override file.
//
// Grounded on original_source/agent/thresholds.py (load_thresholds,
// get_threshold, passes) and original_source/cli/thresholds.py's addition of
// a per-requirement direction override.
package thresholds

import (
	"encoding/json"
	"fmt"
	"os"

	"aird/internal/requirements"
)

// override is one entry of a user-supplied threshold override file.
type override struct {
	L1        *float64 `json:"l1"`
	L2        *float64 `json:"l2"`
	L3        *float64 `json:"l3"`
	Direction string   `json:"direction"`
}

// entry is the fully-resolved, immutable threshold + direction for one
// requirement.
type entry struct {
	thresholds    requirements.Thresholds
	direction     requirements.Direction
	informational bool
}

// Resolver is the immutable merge of built-in defaults with user overrides.
// Overrides may flip direction as well as replace threshold values.
type Resolver struct {
	registry requirements.Registry
	entries  map[string]entry
}

// NewResolver builds a Resolver from the built-in registry with no
// overrides applied.
func NewResolver(reg requirements.Registry) Resolver {
	r := Resolver{registry: reg, entries: make(map[string]entry)}
	for _, req := range reg.All() {
		r.entries[req.Key] = entry{
			thresholds:    req.DefaultThresholds,
			direction:     req.Direction,
			informational: req.Informational,
		}
	}
	return r
}

// LoadOverrides reads a JSON override file (shape:
// {"<requirement_key>": {"l1": f, "l2": f, "l3": f, "direction"?: "lte"|"gte"}})
// and returns a new Resolver with those overrides merged on top. A missing
// path is not an error: the original Resolver's values are returned
// unchanged. A malformed file is a configuration error: the caller is
// expected to log it and fall back to defaults (see internal/config).
func (r Resolver) LoadOverrides(path string) (Resolver, error) {
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return r, fmt.Errorf("thresholds: reading override file %s: %w", path, err)
	}

	var raw map[string]override
	if err := json.Unmarshal(data, &raw); err != nil {
		return r, fmt.Errorf("thresholds: parsing override file %s: %w", path, err)
	}

	out := Resolver{registry: r.registry, entries: make(map[string]entry, len(r.entries))}
	for k, v := range r.entries {
		out.entries[k] = v
	}
	for key, ov := range raw {
		cur := out.entries[key]
		t := cur.thresholds
		if ov.L1 != nil {
			t.L1 = *ov.L1
		}
		if ov.L2 != nil {
			t.L2 = *ov.L2
		}
		if ov.L3 != nil {
			t.L3 = *ov.L3
		}
		dir := cur.direction
		if ov.Direction == string(requirements.LTE) || ov.Direction == string(requirements.GTE) {
			dir = requirements.Direction(ov.Direction)
		}
		out.entries[key] = entry{thresholds: t, direction: dir, informational: cur.informational}
	}
	return out, nil
}

// Threshold returns the target value for requirement at the given workload
// level ("l1", "l2", "l3"). Unknown requirements resolve to 0.
func (r Resolver) Threshold(requirement, level string) float64 {
	e, ok := r.entries[requirement]
	if !ok {
		return 0
	}
	return e.thresholds.Get(level)
}

// Direction returns the comparison direction for requirement. Unknown
// requirements default to lte.
func (r Resolver) Direction(requirement string) requirements.Direction {
	e, ok := r.entries[requirement]
	if !ok {
		return requirements.LTE
	}
	return e.direction
}

// Passes implements the scoring predicate from spec.md §4.5:
//
//	req is informational  -> true
//	req is unknown         -> false
//	v is null              -> false
//	direction = gte        -> v >= threshold
//	otherwise              -> v <= threshold
//
// measured is a pointer so nil represents "no measured value" (SQL NULL or a
// value that failed to project to float64).
func (r Resolver) Passes(requirement string, measured *float64, level string) bool {
	e, known := r.entries[requirement]
	if known && e.informational {
		return true
	}
	if !known {
		// table_discovery is informational even when absent from entries.
		return requirement == "table_discovery"
	}
	if measured == nil {
		return false
	}
	threshold := r.Threshold(requirement, level)
	if r.Direction(requirement) == requirements.GTE {
		return *measured >= threshold
	}
	return *measured <= threshold
}
