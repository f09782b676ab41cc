// Package report aggregates runner results into the summary/factor_summary
// shape the history store persists and the render package displays.
//
// Grounded on original_source/agent/report.py (build_report,
// report_to_markdown), generalized per spec.md §4.9 with factor-level
// roll-ups and data-product scoping the original leaves as pure pass-
// through fields.
package report

import (
	"math"
	"sort"
	"time"

	"aird/internal/discovery"
	"aird/internal/runner"
	"aird/internal/survey"
)

// Summary is the pass-count/percentage roll-up at one grouping level.
type Summary struct {
	TotalTests int     `json:"total_tests"`
	L1Pass     int     `json:"l1_pass"`
	L2Pass     int     `json:"l2_pass"`
	L3Pass     int     `json:"l3_pass"`
	L1Pct      float64 `json:"l1_pct"`
	L2Pct      float64 `json:"l2_pct"`
	L3Pct      float64 `json:"l3_pct"`
}

// FactorSummary is Summary scoped to one quality factor.
type FactorSummary struct {
	Factor  string  `json:"factor"`
	Summary Summary `json:"summary"`
}

// DataProduct names a named grouping of tables/schemas, as read from a
// context file (spec.md §4.8 step 2, §4.9).
type DataProduct struct {
	Name    string   `json:"name" yaml:"name"`
	Tables  []string `json:"tables,omitempty" yaml:"tables,omitempty"`
	Schemas []string `json:"schemas,omitempty" yaml:"schemas,omitempty"`
}

// DataProductReport is a DataProduct's own summary/factor_summary subset.
type DataProductReport struct {
	Name          string          `json:"name"`
	Summary       Summary         `json:"summary"`
	FactorSummary []FactorSummary `json:"factor_summary"`
}

// Report is the full, persistable assessment artifact.
type Report struct {
	CreatedAt             string               `json:"created_at"`
	ConnectionFingerprint string               `json:"connection_fingerprint"`
	TargetLevel           string               `json:"target_level,omitempty"`
	Summary               Summary              `json:"summary"`
	FactorSummary         []FactorSummary      `json:"factor_summary"`
	Results               []runner.Result      `json:"results"`
	Inventory             *discovery.Inventory `json:"inventory,omitempty"`
	DataProducts          []DataProductReport  `json:"data_products,omitempty"`
	PreviousAssessmentID  string               `json:"diff_previous_id,omitempty"`
	QuestionResults       []survey.Result      `json:"question_results,omitempty"`
	UserContext           any                  `json:"user_context,omitempty"`
	AssessmentID          string               `json:"assessment_id,omitempty"`
	BenchmarkLabel        string               `json:"benchmark_label,omitempty"`
}

// Options configures Build.
type Options struct {
	Inventory             *discovery.Inventory
	ConnectionFingerprint string
	TargetLevel           string
	DataProducts          []DataProduct
	QuestionResults       []survey.Result
	// Now, when non-nil, overrides the created_at timestamp (tests pass a
	// fixed clock; production callers leave it nil to use time.Now()).
	Now *time.Time
}

// Build aggregates results into a Report. The top-level summary always
// covers every result; per-product summaries (when DataProducts is given)
// are additional subsets, never a replacement.
func Build(results []runner.Result, opts Options) Report {
	created := time.Now().UTC()
	if opts.Now != nil {
		created = opts.Now.UTC()
	}

	rep := Report{
		CreatedAt:             created.Format("2006-01-02T15:04:05.000Z"),
		ConnectionFingerprint: opts.ConnectionFingerprint,
		TargetLevel:           opts.TargetLevel,
		Summary:               summarize(results),
		FactorSummary:         factorSummaries(results),
		Results:               results,
		Inventory:             opts.Inventory,
		QuestionResults:       opts.QuestionResults,
	}

	for _, dp := range opts.DataProducts {
		subset := filterByProduct(results, dp)
		rep.DataProducts = append(rep.DataProducts, DataProductReport{
			Name:          dp.Name,
			Summary:       summarize(subset),
			FactorSummary: factorSummaries(subset),
		})
	}

	return rep
}

func summarize(results []runner.Result) Summary {
	var l1, l2, l3 int
	for _, r := range results {
		if r.Verdict.L1Pass {
			l1++
		}
		if r.Verdict.L2Pass {
			l2++
		}
		if r.Verdict.L3Pass {
			l3++
		}
	}
	total := len(results)
	return Summary{
		TotalTests: total,
		L1Pass:     l1,
		L2Pass:     l2,
		L3Pass:     l3,
		L1Pct:      pct(l1, total),
		L2Pct:      pct(l2, total),
		L3Pct:      pct(l3, total),
	}
}

func factorSummaries(results []runner.Result) []FactorSummary {
	byFactor := map[string][]runner.Result{}
	for _, r := range results {
		byFactor[r.Factor] = append(byFactor[r.Factor], r)
	}
	factors := make([]string, 0, len(byFactor))
	for f := range byFactor {
		factors = append(factors, f)
	}
	sort.Strings(factors)

	out := make([]FactorSummary, 0, len(factors))
	for _, f := range factors {
		out = append(out, FactorSummary{Factor: f, Summary: summarize(byFactor[f])})
	}
	return out
}

// pct rounds 100*pass/total to one decimal place; an empty population
// reports 0%, matching spec.md §4.9's "total=0 reported as 0%" rule.
func pct(pass, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(1000*float64(pass)/float64(total)) / 10
}

// filterByProduct restricts results to those whose schema.table falls
// within dp's explicit table list or schema wildcard list.
func filterByProduct(results []runner.Result, dp DataProduct) []runner.Result {
	tableSet := make(map[string]bool, len(dp.Tables))
	for _, t := range dp.Tables {
		tableSet[t] = true
	}
	schemaSet := make(map[string]bool, len(dp.Schemas))
	for _, s := range dp.Schemas {
		schemaSet[s] = true
	}

	var out []runner.Result
	for _, r := range results {
		full := r.Schema + "." + r.Table
		if tableSet[full] || tableSet[r.Table] || schemaSet[r.Schema] {
			out = append(out, r)
		}
	}
	return out
}
