// Package pipeline orchestrates discovery, suite expansion, execution, and
// reporting into the four top-level operations cmd/aird exposes: assess,
// compare, rerun, and benchmark.
//
// Grounded on original_source/agent/pipeline.py (run_assess and its
// _fingerprint helper, now internal/fingerprint), original_source/cli/
// commands/compare.py, original_source/agent/commands/rerun.py, and
// original_source/cli/commands/benchmark.py, adapted from their Config-
// object-and-global-storage style into an explicit Deps/Options pair per
// test.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"aird/internal/audit"
	"aird/internal/cliutil"
	"aird/internal/config"
	"aird/internal/discovery"
	"aird/internal/executor"
	"aird/internal/fingerprint"
	"aird/internal/history"
	"aird/internal/platform"
	"aird/internal/report"
	"aird/internal/requirements"
	"aird/internal/runner"
	"aird/internal/suite"
	"aird/internal/survey"
	"aird/internal/thresholds"
)

// Deps bundles the process-wide, long-lived collaborators every pipeline
// operation shares. Built once in cmd/aird/main.go.
type Deps struct {
	Platforms    *platform.Registry
	Suites       *suite.Registry
	Requirements requirements.Registry
	// Store is the history database. Nil disables save/list/compare-against-
	// history behavior; callers that pass nil are expected to skip --save
	// and history-backed flags themselves (assess still runs and reports).
	Store *history.Store
}

func (d Deps) resolver(thresholdsPath string) (thresholds.Resolver, error) {
	base := thresholds.NewResolver(d.Requirements)
	resolved, err := base.LoadOverrides(thresholdsPath)
	if err != nil {
		return thresholds.Resolver{}, cliutil.NewConfigurationError("loading threshold overrides", err)
	}
	return resolved, nil
}

// AssessOptions configures one Assess call.
type AssessOptions struct {
	Connection     string
	ContextPath    string
	ThresholdsPath string
	SuiteName      string
	FactorFilter   string
	Schemas        []string
	Tables         []string
	TargetWorkload string
	Product        string
	DryRun         bool
	NoSave         bool
	Audit          bool
	SessionID      string
	Survey         bool
	SurveyAnswers  map[string]string
	// Compare, when true and the report was saved, looks up the most
	// recent prior assessment for the same connection fingerprint and
	// attaches its id as Report.PreviousAssessmentID.
	Compare  bool
	Progress runner.ProgressFunc
}

// AssessResult is Assess's return value: either a dry-run preview or a
// fully built (and possibly persisted) report.
type AssessResult struct {
	DryRun        bool
	DryRunPreview []runner.PreviewEntry
	TestCount     int
	Report        report.Report
}

// Assess runs the full discover -> expand -> run -> report -> (save)
// pipeline (spec.md §4.8).
func (d Deps) Assess(ctx context.Context, opts AssessOptions) (AssessResult, error) {
	if opts.Connection == "" {
		return AssessResult{}, cliutil.NewUsageError("connection required for assess (use -c or AIRD_CONNECTION_STRING)")
	}

	ctxDoc, err := config.LoadContext(opts.ContextPath)
	if err != nil {
		return AssessResult{}, err
	}

	resolver, err := d.resolver(opts.ThresholdsPath)
	if err != nil {
		return AssessResult{}, err
	}

	adapterName, conn, defaultSuite, err := d.Platforms.Connect(ctx, opts.Connection)
	if err != nil {
		return AssessResult{}, cliutil.NewRuntimeError("connecting", err)
	}
	defer conn.Close()

	schemas := ctxDoc.Schemas
	if len(schemas) == 0 {
		schemas = opts.Schemas
	}
	tables := ctxDoc.Tables
	if len(tables) == 0 {
		tables = opts.Tables
	}

	inv, err := discovery.Discover(ctx, adapterName, conn, discovery.Filter{Schemas: schemas, Tables: tables})
	if err != nil {
		return AssessResult{}, cliutil.NewRuntimeError("discovering inventory", err)
	}

	var sink *audit.Sink
	if opts.Audit {
		sink = audit.NewSink(d.Store, "", opts.SessionID)
	}

	runRep, err := runner.Run(ctx, adapterName, conn, d.Suites, defaultSuite, inv, &resolver, runner.Options{
		SuiteName:    opts.SuiteName,
		FactorFilter: opts.FactorFilter,
		DryRun:       opts.DryRun,
		Audit:        auditSinkOrNil(sink),
		Progress:     opts.Progress,
	})
	if err != nil {
		return AssessResult{}, cliutil.NewRuntimeError("running suite", err)
	}

	if runRep.DryRun {
		return AssessResult{DryRun: true, DryRunPreview: runRep.Preview, TestCount: runRep.TestCount}, nil
	}

	var questionResults []survey.Result
	if opts.Survey {
		questions, err := survey.LoadDefault()
		if err != nil {
			return AssessResult{}, cliutil.NewRuntimeError("loading survey questions", err)
		}
		questionResults = survey.Run(questions, opts.SurveyAnswers)
	}

	targetWorkload := opts.TargetWorkload
	if targetWorkload == "" {
		targetWorkload = ctxDoc.TargetLevel
	}

	dataProducts, productName, err := resolveDataProducts(ctxDoc.DataProducts, opts.Product)
	if err != nil {
		return AssessResult{}, err
	}

	rep := report.Build(runRep.Results, report.Options{
		Inventory:             &inv,
		ConnectionFingerprint: fingerprint.Of(opts.Connection),
		TargetLevel:           targetWorkload,
		DataProducts:          dataProducts,
		QuestionResults:       questionResults,
	})
	if ctxDoc.Schemas != nil || ctxDoc.Tables != nil || ctxDoc.TargetLevel != "" || ctxDoc.DataProducts != nil {
		rep.UserContext = ctxDoc
	}

	if !opts.NoSave && d.Store != nil {
		raw, err := json.Marshal(rep)
		if err != nil {
			return AssessResult{}, cliutil.NewRuntimeError("encoding report", err)
		}
		id, err := d.Store.SaveReport(ctx, rep.CreatedAt, rep.ConnectionFingerprint, productName, raw)
		if err != nil {
			return AssessResult{}, cliutil.NewRuntimeError("saving assessment", err)
		}
		rep.AssessmentID = id
		sink.SetAssessmentID(id)

		if opts.Compare {
			prevID, err := d.Store.LatestForFingerprint(ctx, rep.ConnectionFingerprint, id)
			if err == nil && prevID != "" {
				rep.PreviousAssessmentID = prevID
			}
		}
	}

	return AssessResult{Report: rep, TestCount: runRep.TestCount}, nil
}

// auditSinkOrNil returns nil when sink is nil so runner.Options.Audit holds
// a genuinely nil interface rather than a non-nil interface wrapping a nil
// *audit.Sink (the latter would make runner's `opts.Audit != nil` check
// pass and then call into a method that itself checks for nil receiver —
// harmless, but this keeps the interface value itself honest).
func auditSinkOrNil(sink *audit.Sink) runner.AuditSink {
	if sink == nil {
		return nil
	}
	return sink
}

func resolveDataProducts(all []report.DataProduct, want string) ([]report.DataProduct, string, error) {
	if len(all) == 0 {
		return nil, "", nil
	}
	if want == "" {
		return all, "", nil
	}
	for _, p := range all {
		if p.Name == want {
			return []report.DataProduct{p}, p.Name, nil
		}
	}
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	return nil, "", cliutil.NewUsageError("data product %q not found in context. Available: %s", want, strings.Join(names, ", "))
}

// CompareOptions configures Compare: one assessment per table, independent
// of each other (spec.md §4.8, original_source/cli/commands/compare.py).
type CompareOptions struct {
	Connection     string
	Tables         []string
	SuiteName      string
	ThresholdsPath string
}

// canonicalFactorOrder mirrors original_source/agent/ui/compare.py and
// ui/benchmark.py's six-factor display order; any requirement factor
// outside this list is appended sorted.
var canonicalFactorOrder = []string{"clean", "contextual", "consumable", "current", "correlated", "compliant"}

// FactorWinner names the table/label with the highest L1 pass percentage
// for one quality factor (original_source/agent/ui/compare.py's
// _colour_cell, ui/benchmark.py's _build_best_per_factor). Best is empty
// when two or more entries tie for the highest L1 percentage, matching the
// "tied-for-best produce neutral colour" rule one layer up in the render
// collaborator.
type FactorWinner struct {
	Factor string
	Best   string
	L1Pct  float64
}

// RankedEntry is one table/label's position in an overall ranking by the
// average L1% across its factor summaries (original_source/agent/ui/
// benchmark.py's _build_rankings).
type RankedEntry struct {
	Name  string
	L1Pct float64
}

// factorWinners computes the per-factor best-performing entry across
// names, in canonical factor order followed by any extra factors sorted.
func factorWinners(names []string, reports map[string]report.Report) []FactorWinner {
	seen := map[string]bool{}
	var factors []string
	for _, f := range canonicalFactorOrder {
		for _, n := range names {
			if factorHasSummary(reports[n], f) {
				factors = append(factors, f)
				seen[f] = true
				break
			}
		}
	}
	var extra []string
	for _, n := range names {
		for _, fs := range reports[n].FactorSummary {
			if !seen[fs.Factor] {
				extra = append(extra, fs.Factor)
				seen[fs.Factor] = true
			}
		}
	}
	sort.Strings(extra)
	factors = append(factors, extra...)

	out := make([]FactorWinner, 0, len(factors))
	for _, f := range factors {
		best := ""
		bestPct := -1.0
		ties := 0
		for _, n := range names {
			pct := factorL1(reports[n], f)
			switch {
			case pct > bestPct:
				bestPct, best, ties = pct, n, 1
			case pct == bestPct:
				ties++
			}
		}
		if ties > 1 {
			best = ""
		}
		out = append(out, FactorWinner{Factor: f, Best: best, L1Pct: bestPct})
	}
	return out
}

func factorHasSummary(rep report.Report, factor string) bool {
	for _, fs := range rep.FactorSummary {
		if fs.Factor == factor {
			return true
		}
	}
	return false
}

func factorL1(rep report.Report, factor string) float64 {
	for _, fs := range rep.FactorSummary {
		if fs.Factor == factor {
			return fs.Summary.L1Pct
		}
	}
	return 0
}

// avgL1 averages L1Pct across rep's factor summaries; a report with no
// results reports 0.
func avgL1(rep report.Report) float64 {
	if len(rep.FactorSummary) == 0 {
		return 0
	}
	var sum float64
	for _, fs := range rep.FactorSummary {
		sum += fs.Summary.L1Pct
	}
	return math.Round(sum/float64(len(rep.FactorSummary))*10) / 10
}

// rankByL1 orders names descending by average L1%, ties broken by the
// input order (original_source/agent/ui/benchmark.py's _build_rankings).
func rankByL1(names []string, reports map[string]report.Report) []RankedEntry {
	out := make([]RankedEntry, len(names))
	for i, n := range names {
		out[i] = RankedEntry{Name: n, L1Pct: avgL1(reports[n])}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].L1Pct > out[j].L1Pct })
	return out
}

// CompareResult is one table's independent report, in Tables order, plus
// the per-factor winner across all compared tables (spec.md §4.8's paired
// roll-up).
type CompareResult struct {
	Tables        []string
	Reports       map[string]report.Report
	FactorWinners []FactorWinner
}

// Compare runs an independent single-table assessment for each of
// opts.Tables and returns them keyed by table name, for side-by-side
// rendering.
func (d Deps) Compare(ctx context.Context, opts CompareOptions) (CompareResult, error) {
	if opts.Connection == "" {
		return CompareResult{}, cliutil.NewUsageError("connection required for compare")
	}
	if len(opts.Tables) < 2 {
		return CompareResult{}, cliutil.NewUsageError("compare requires at least two table names")
	}

	resolver, err := d.resolver(opts.ThresholdsPath)
	if err != nil {
		return CompareResult{}, err
	}

	out := CompareResult{Tables: opts.Tables, Reports: make(map[string]report.Report, len(opts.Tables))}
	for _, table := range opts.Tables {
		adapterName, conn, defaultSuite, err := d.Platforms.Connect(ctx, opts.Connection)
		if err != nil {
			return CompareResult{}, cliutil.NewRuntimeError("connecting", err)
		}

		inv, err := discovery.Discover(ctx, adapterName, conn, discovery.Filter{Tables: []string{table}})
		if err != nil {
			conn.Close()
			return CompareResult{}, cliutil.NewRuntimeError(fmt.Sprintf("discovering table %s", table), err)
		}

		runRep, err := runner.Run(ctx, adapterName, conn, d.Suites, defaultSuite, inv, &resolver, runner.Options{SuiteName: opts.SuiteName})
		conn.Close()
		if err != nil {
			return CompareResult{}, cliutil.NewRuntimeError(fmt.Sprintf("assessing table %s", table), err)
		}

		out.Reports[table] = report.Build(runRep.Results, report.Options{
			ConnectionFingerprint: fingerprint.Of(opts.Connection),
		})
	}
	out.FactorWinners = factorWinners(out.Tables, out.Reports)
	return out, nil
}

// RerunOptions configures Rerun.
type RerunOptions struct {
	Connection     string
	AssessmentID   string // empty selects the most recent assessment
	ThresholdsPath string
}

// RerunDelta is one previously-failed test's before/after pass record.
type RerunDelta struct {
	TestID              string
	Factor              string
	WasL1, WasL2, WasL3 bool
	NowL1, NowL2, NowL3 bool
	Error               string
}

// Rerun re-executes every test that failed at any level in the selected
// assessment and reports the delta, without re-running the full suite
// (original_source/agent/commands/rerun.py).
func (d Deps) Rerun(ctx context.Context, opts RerunOptions) ([]RerunDelta, error) {
	if opts.Connection == "" {
		return nil, cliutil.NewUsageError("connection required for rerun")
	}
	if d.Store == nil {
		return nil, cliutil.NewUsageError("rerun requires a history store")
	}

	id := opts.AssessmentID
	if id == "" {
		latest, err := d.Store.ListAssessments(ctx, "", "", 1)
		if err != nil {
			return nil, cliutil.NewRuntimeError("listing assessments", err)
		}
		if len(latest) == 0 {
			return nil, cliutil.NewUsageError("no saved assessments found. Run `aird assess` first")
		}
		id = latest[0].ID
	}

	raw, err := d.Store.GetReport(ctx, id)
	if err != nil {
		return nil, cliutil.NewRuntimeError("loading assessment "+id, err)
	}
	var rep report.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return nil, cliutil.NewRuntimeError("decoding assessment "+id, err)
	}

	failed := failedResults(rep.Results)
	if len(failed) == 0 {
		return nil, nil
	}

	resolver, err := d.resolver(opts.ThresholdsPath)
	if err != nil {
		return nil, err
	}

	_, conn, _, err := d.Platforms.Connect(ctx, opts.Connection)
	if err != nil {
		return nil, cliutil.NewRuntimeError("connecting", err)
	}
	defer conn.Close()

	deltas := make([]RerunDelta, 0, len(failed))
	for _, orig := range failed {
		delta := RerunDelta{
			TestID: orig.TestID, Factor: orig.Factor,
			WasL1: orig.Verdict.L1Pass, WasL2: orig.Verdict.L2Pass, WasL3: orig.Verdict.L3Pass,
		}
		if orig.Query == "" {
			delta.Error = "no query stored"
			deltas = append(deltas, delta)
			continue
		}
		rows, err := executor.Execute(ctx, conn, orig.Query)
		if err != nil {
			delta.Error = err.Error()
			deltas = append(deltas, delta)
			continue
		}
		var measured *float64
		if len(rows) > 0 && len(rows[0]) > 0 {
			if v, ok := platform.ProjectFloat(rows[0][0]); ok {
				measured = &v
			}
		}
		delta.NowL1 = resolver.Passes(orig.Requirement, measured, "l1")
		delta.NowL2 = resolver.Passes(orig.Requirement, measured, "l2")
		delta.NowL3 = resolver.Passes(orig.Requirement, measured, "l3")
		deltas = append(deltas, delta)
	}
	return deltas, nil
}

func failedResults(results []runner.Result) []runner.Result {
	var out []runner.Result
	for _, r := range results {
		if !r.Verdict.L1Pass || !r.Verdict.L2Pass || !r.Verdict.L3Pass {
			out = append(out, r)
		}
	}
	return out
}

// BenchmarkOptions configures Benchmark.
type BenchmarkOptions struct {
	Connections []string
	// Labels holds raw --label values (possibly comma-joined); Benchmark
	// expands and pads them to match Connections via ResolveLabels.
	Labels         []string
	SuiteName      string
	FactorFilter   string
	ThresholdsPath string
	Save           bool
	// Parallel bounds the number of connections assessed concurrently.
	// 0 or 1 runs sequentially.
	Parallel int
}

// BenchmarkResult is one labeled connection's report, keyed by label, the
// overall ranking and per-factor winners across all labels, plus the
// persisted benchmark group id when Save was requested.
type BenchmarkResult struct {
	Labels        []string
	Reports       map[string]report.Report
	Ranking       []RankedEntry
	FactorWinners []FactorWinner
	BenchmarkID   string
}

// Benchmark assesses each connection independently (optionally in
// parallel, one goroutine per connection bounded by opts.Parallel) and
// returns the labeled reports (spec.md §4.8, §5;
// original_source/cli/commands/benchmark.py).
func (d Deps) Benchmark(ctx context.Context, opts BenchmarkOptions) (BenchmarkResult, error) {
	if len(opts.Connections) < 2 {
		return BenchmarkResult{}, cliutil.NewUsageError("benchmark requires at least 2 connections (use repeatable -c)")
	}

	resolver, err := d.resolver(opts.ThresholdsPath)
	if err != nil {
		return BenchmarkResult{}, err
	}

	labels := ResolveLabels(opts.Labels, opts.Connections)

	reports := make([]report.Report, len(opts.Connections))
	limit := opts.Parallel
	if limit <= 0 {
		limit = 1
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)
	for i, connection := range opts.Connections {
		i, connection := i, connection
		label := labels[i]
		group.Go(func() error {
			adapterName, conn, defaultSuite, err := d.Platforms.Connect(gctx, connection)
			if err != nil {
				return cliutil.NewRuntimeError("connecting to "+label, err)
			}
			defer conn.Close()

			inv, err := discovery.Discover(gctx, adapterName, conn, discovery.Filter{})
			if err != nil {
				return cliutil.NewRuntimeError("discovering "+label, err)
			}

			runRep, err := runner.Run(gctx, adapterName, conn, d.Suites, defaultSuite, inv, &resolver, runner.Options{
				SuiteName:    opts.SuiteName,
				FactorFilter: opts.FactorFilter,
			})
			if err != nil {
				return cliutil.NewRuntimeError("assessing "+label, err)
			}

			rep := report.Build(runRep.Results, report.Options{
				ConnectionFingerprint: fingerprint.Of(connection),
			})
			rep.BenchmarkLabel = label
			reports[i] = rep
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return BenchmarkResult{}, err
	}

	out := BenchmarkResult{Labels: labels, Reports: make(map[string]report.Report, len(reports))}
	for i, rep := range reports {
		out.Reports[labels[i]] = rep
	}
	out.Ranking = rankByL1(labels, out.Reports)
	out.FactorWinners = factorWinners(labels, out.Reports)

	if opts.Save && d.Store != nil {
		ids := make([]string, 0, len(reports))
		for i, rep := range reports {
			raw, err := json.Marshal(rep)
			if err != nil {
				return out, cliutil.NewRuntimeError("encoding report for "+labels[i], err)
			}
			id, err := d.Store.SaveReport(ctx, rep.CreatedAt, rep.ConnectionFingerprint, "", raw)
			if err != nil {
				return out, cliutil.NewRuntimeError("saving report for "+labels[i], err)
			}
			ids = append(ids, id)
		}
		bid, err := d.Store.SaveBenchmark(ctx, labels, opts.Connections, ids)
		if err != nil {
			return out, cliutil.NewRuntimeError("saving benchmark group", err)
		}
		out.BenchmarkID = bid
	}

	return out, nil
}

// LabelFromConnection derives a short display label from a connection
// string (basename minus extension), used to auto-fill labels a caller
// didn't supply via --label (original_source/cli/commands/benchmark.py's
// _label_from_connection).
func LabelFromConnection(connection string) string {
	rest := connection
	if idx := strings.Index(connection, "://"); idx >= 0 {
		rest = connection[idx+3:]
	}
	rest = strings.TrimRight(rest, "/")
	base := rest
	if idx := strings.LastIndexByte(rest, '/'); idx >= 0 {
		base = rest[idx+1:]
	}
	if dot := strings.LastIndexByte(base, '.'); dot > 0 {
		base = base[:dot]
	}
	if base == "" {
		return connection
	}
	return base
}

// ResolveLabels expands comma-separated --label values and pads the
// result with auto-generated labels so len(out) == len(connections).
func ResolveLabels(raw []string, connections []string) []string {
	expanded := make([]string, 0, len(connections))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				expanded = append(expanded, part)
			}
		}
	}
	for i := len(expanded); i < len(connections); i++ {
		expanded = append(expanded, LabelFromConnection(connections[i]))
	}
	if len(expanded) > len(connections) {
		expanded = expanded[:len(connections)]
	}
	return expanded
}
