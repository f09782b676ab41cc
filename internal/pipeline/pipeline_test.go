package pipeline

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aird/internal/history"
	"aird/internal/platform"
	"aird/internal/platform/sqliteadapter"
	"aird/internal/requirements"
	"aird/internal/suite"
)

const literalSuiteYAML = `
suite_name: test_suite
tests:
  - id: null_check
    factor: clean
    requirement: null_rate
    target_type: platform
    query: "SELECT 0.0"
`

func newTestDeps(t *testing.T, store *history.Store) Deps {
	t.Helper()
	reg := platform.NewRegistry()
	sqliteadapter.Register(reg)

	suites := suite.NewRegistry()
	require.NoError(t, suites.LoadBytes([]byte(literalSuiteYAML), "t.yaml"))

	return Deps{Platforms: reg, Suites: suites, Requirements: requirements.NewRegistry(), Store: store}
}

// sqliteFile creates an empty sqlite database file at a temp path and
// returns its "sqlite://" connection string, so every Connect call made
// against it during a test sees the same persisted (empty) schema.
func sqliteFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	require.NoError(t, db.Close())
	return "sqlite://" + path
}

// sqliteFileWithNullRate builds a temp-file sqlite database containing a
// single table "t" with total rows, nullCount of which have a NULL v, so a
// suite probing "SELECT ... FROM t" measures a deterministic null_rate.
func sqliteFileWithNullRate(t *testing.T, nullCount, total int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	require.NoError(t, db.Ping())
	_, err = db.Exec(`CREATE TABLE t (v REAL)`)
	require.NoError(t, err)
	for i := 0; i < total; i++ {
		if i < nullCount {
			_, err = db.Exec(`INSERT INTO t (v) VALUES (NULL)`)
		} else {
			_, err = db.Exec(`INSERT INTO t (v) VALUES (1.0)`)
		}
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())
	return "sqlite://" + path
}

func TestAssess_RequiresConnection(t *testing.T) {
	deps := newTestDeps(t, nil)
	_, err := deps.Assess(context.Background(), AssessOptions{})
	assert.Error(t, err)
}

func TestAssess_RunsSuiteAndBuildsReportWithoutStore(t *testing.T) {
	deps := newTestDeps(t, nil)
	conn := sqliteFile(t)

	result, err := deps.Assess(context.Background(), AssessOptions{Connection: conn, SuiteName: "test_suite", NoSave: true})
	require.NoError(t, err)
	assert.False(t, result.DryRun)
	assert.Equal(t, 1, result.TestCount)
	assert.Len(t, result.Report.Results, 1)
	assert.True(t, result.Report.Results[0].Verdict.L1Pass)
	assert.NotEmpty(t, result.Report.ConnectionFingerprint)
	assert.Empty(t, result.Report.AssessmentID, "no store means nothing was persisted")
}

func TestAssess_DryRunReturnsPreviewWithoutReport(t *testing.T) {
	deps := newTestDeps(t, nil)
	conn := sqliteFile(t)

	result, err := deps.Assess(context.Background(), AssessOptions{Connection: conn, SuiteName: "test_suite", DryRun: true})
	require.NoError(t, err)
	assert.True(t, result.DryRun)
	assert.Len(t, result.DryRunPreview, 1)
}

func TestAssess_SavesAndReturnsAssessmentID(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	deps := newTestDeps(t, store)
	conn := sqliteFile(t)

	result, err := deps.Assess(context.Background(), AssessOptions{Connection: conn, SuiteName: "test_suite"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Report.AssessmentID)

	raw, err := store.GetReport(context.Background(), result.Report.AssessmentID)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestAssess_CompareAttachesPreviousAssessmentID(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	deps := newTestDeps(t, store)
	conn := sqliteFile(t)

	first, err := deps.Assess(context.Background(), AssessOptions{Connection: conn, SuiteName: "test_suite"})
	require.NoError(t, err)
	require.NotEmpty(t, first.Report.AssessmentID)

	second, err := deps.Assess(context.Background(), AssessOptions{Connection: conn, SuiteName: "test_suite", Compare: true})
	require.NoError(t, err)
	assert.Equal(t, first.Report.AssessmentID, second.Report.PreviousAssessmentID)
}

func TestAssess_UnknownSchemeIsRuntimeError(t *testing.T) {
	deps := newTestDeps(t, nil)
	_, err := deps.Assess(context.Background(), AssessOptions{Connection: "postgres://nope/db", SuiteName: "test_suite"})
	assert.Error(t, err)
}

func TestAssess_ProductNotFoundInContextIsUsageError(t *testing.T) {
	ctxPath := filepath.Join(t.TempDir(), "context.json")
	require.NoError(t, os.WriteFile(ctxPath, []byte(`{"data_products":[{"name":"orders","tables":["orders"]}]}`), 0o644))

	deps := newTestDeps(t, nil)
	conn := sqliteFile(t)

	_, err := deps.Assess(context.Background(), AssessOptions{
		Connection: conn, SuiteName: "test_suite", ContextPath: ctxPath, Product: "unknown", NoSave: true,
	})
	assert.Error(t, err)
}

func TestCompare_RequiresAtLeastTwoTables(t *testing.T) {
	deps := newTestDeps(t, nil)
	_, err := deps.Compare(context.Background(), CompareOptions{Connection: sqliteFile(t), Tables: []string{"only_one"}})
	assert.Error(t, err)
}

func TestCompare_ReturnsOneReportPerTable(t *testing.T) {
	deps := newTestDeps(t, nil)
	conn := sqliteFile(t)

	result, err := deps.Compare(context.Background(), CompareOptions{Connection: conn, Tables: []string{"orders", "customers"}, SuiteName: "test_suite"})
	require.NoError(t, err)
	assert.Len(t, result.Reports, 2)
	assert.Contains(t, result.Reports, "orders")
	assert.Contains(t, result.Reports, "customers")
}

func TestRerun_RequiresHistoryStore(t *testing.T) {
	deps := newTestDeps(t, nil)
	_, err := deps.Rerun(context.Background(), RerunOptions{Connection: sqliteFile(t)})
	assert.Error(t, err)
}

func TestRerun_NoFailedResultsReturnsNil(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	deps := newTestDeps(t, store)
	conn := sqliteFile(t)

	raw, _ := json.Marshal(map[string]any{
		"results": []map[string]any{
			{"test_id": "null_check", "factor": "clean", "requirement": "null_rate", "query": "SELECT 0.0",
				"verdict": map[string]any{"l1_pass": true, "l2_pass": true, "l3_pass": true}},
		},
	})
	id, err := store.SaveReport(context.Background(), "2026-01-01T00:00:00.000Z", "fp", "", raw)
	require.NoError(t, err)

	deltas, err := deps.Rerun(context.Background(), RerunOptions{Connection: conn, AssessmentID: id})
	require.NoError(t, err)
	assert.Nil(t, deltas)
}

func TestRerun_ReExecutesFailedQueryAndUpdatesVerdict(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	deps := newTestDeps(t, store)
	conn := sqliteFile(t)

	raw, _ := json.Marshal(map[string]any{
		"results": []map[string]any{
			{"test_id": "null_check", "factor": "clean", "requirement": "null_rate", "query": "SELECT 0.0",
				"verdict": map[string]any{"l1_pass": false, "l2_pass": false, "l3_pass": false}},
		},
	})
	id, err := store.SaveReport(context.Background(), "2026-01-01T00:00:00.000Z", "fp", "", raw)
	require.NoError(t, err)

	deltas, err := deps.Rerun(context.Background(), RerunOptions{Connection: conn, AssessmentID: id})
	require.NoError(t, err)
	require.Len(t, deltas, 1)
	assert.False(t, deltas[0].WasL1)
	assert.True(t, deltas[0].NowL1)
}

func TestRerun_EmptyIDSelectsMostRecentAssessment(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	deps := newTestDeps(t, store)
	conn := sqliteFile(t)

	raw, _ := json.Marshal(map[string]any{
		"results": []map[string]any{
			{"test_id": "null_check", "factor": "clean", "requirement": "null_rate", "query": "SELECT 0.0",
				"verdict": map[string]any{"l1_pass": false, "l2_pass": false, "l3_pass": false}},
		},
	})
	_, err = store.SaveReport(context.Background(), "2026-01-01T00:00:00.000Z", "fp", "", raw)
	require.NoError(t, err)

	deltas, err := deps.Rerun(context.Background(), RerunOptions{Connection: conn})
	require.NoError(t, err)
	require.Len(t, deltas, 1)
}

func TestRerun_NoSavedAssessmentsIsUsageError(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	deps := newTestDeps(t, store)

	_, err = deps.Rerun(context.Background(), RerunOptions{Connection: sqliteFile(t)})
	assert.Error(t, err)
}

func TestBenchmark_RequiresAtLeastTwoConnections(t *testing.T) {
	deps := newTestDeps(t, nil)
	_, err := deps.Benchmark(context.Background(), BenchmarkOptions{Connections: []string{sqliteFile(t)}})
	assert.Error(t, err)
}

func TestBenchmark_AssessesEachConnectionAndLabelsResults(t *testing.T) {
	deps := newTestDeps(t, nil)
	connA, connB := sqliteFile(t), sqliteFile(t)

	result, err := deps.Benchmark(context.Background(), BenchmarkOptions{
		Connections: []string{connA, connB},
		Labels:      []string{"prod", "staging"},
		SuiteName:   "test_suite",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"prod", "staging"}, result.Labels)
	assert.Contains(t, result.Reports, "prod")
	assert.Contains(t, result.Reports, "staging")
	assert.Equal(t, "prod", result.Reports["prod"].BenchmarkLabel)
}

func TestBenchmark_SavePersistsBenchmarkGroup(t *testing.T) {
	store, err := history.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	deps := newTestDeps(t, store)
	connA, connB := sqliteFile(t), sqliteFile(t)

	result, err := deps.Benchmark(context.Background(), BenchmarkOptions{
		Connections: []string{connA, connB}, SuiteName: "test_suite", Save: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.BenchmarkID)
}

// TestBenchmark_DBThatFailsEveryCleanProbeRanksBehindOneThatPasses exercises
// spec.md §8 S6: benchmarking [dbA, dbB] where dbA fails every clean probe
// and dbB passes all of them ranks dbB first overall, and names dbB as the
// per-factor best for clean.
func TestBenchmark_DBThatFailsEveryCleanProbeRanksBehindOneThatPasses(t *testing.T) {
	const nullRateProbe = `
suite_name: null_rate_suite
tests:
  - id: null_check
    factor: clean
    requirement: null_rate
    target_type: platform
    query: "SELECT CAST(SUM(CASE WHEN v IS NULL THEN 1 ELSE 0 END) AS REAL) / COUNT(*) FROM t"
`
	reg := platform.NewRegistry()
	sqliteadapter.Register(reg)
	suites := suite.NewRegistry()
	require.NoError(t, suites.LoadBytes([]byte(nullRateProbe), "t.yaml"))
	deps := Deps{Platforms: reg, Suites: suites, Requirements: requirements.NewRegistry()}

	dbA := sqliteFileWithNullRate(t, 10, 10) // null_rate 1.0: fails l1/l2/l3
	dbB := sqliteFileWithNullRate(t, 0, 10)  // null_rate 0.0: passes l1/l2/l3

	result, err := deps.Benchmark(context.Background(), BenchmarkOptions{
		Connections: []string{dbA, dbB},
		Labels:      []string{"dbA", "dbB"},
		SuiteName:   "null_rate_suite",
	})
	require.NoError(t, err)

	require.Len(t, result.Ranking, 2)
	assert.Equal(t, "dbB", result.Ranking[0].Name)
	assert.Equal(t, "dbA", result.Ranking[1].Name)
	assert.Greater(t, result.Ranking[0].L1Pct, result.Ranking[1].L1Pct)

	require.Len(t, result.FactorWinners, 1)
	assert.Equal(t, "clean", result.FactorWinners[0].Factor)
	assert.Equal(t, "dbB", result.FactorWinners[0].Best)
}

func TestCompare_IdenticalTablesTieWithNoFactorWinner(t *testing.T) {
	const nullRateProbe = `
suite_name: null_rate_suite
tests:
  - id: null_check
    factor: clean
    requirement: null_rate
    target_type: platform
    query: "SELECT CAST(SUM(CASE WHEN v IS NULL THEN 1 ELSE 0 END) AS REAL) / COUNT(*) FROM t"
`
	reg := platform.NewRegistry()
	sqliteadapter.Register(reg)
	suites := suite.NewRegistry()
	require.NoError(t, suites.LoadBytes([]byte(nullRateProbe), "t.yaml"))
	deps := Deps{Platforms: reg, Suites: suites, Requirements: requirements.NewRegistry()}

	connection := sqliteFileWithNullRate(t, 0, 10)

	result, err := deps.Compare(context.Background(), CompareOptions{
		Connection: connection, Tables: []string{"table1", "table2"}, SuiteName: "null_rate_suite",
	})
	require.NoError(t, err)
	require.Len(t, result.FactorWinners, 1)
	assert.Equal(t, "clean", result.FactorWinners[0].Factor)
	assert.Equal(t, "", result.FactorWinners[0].Best, "identical tables tie, so no strict winner")
}

func TestLabelFromConnection_DerivesBasenameWithoutExtension(t *testing.T) {
	assert.Equal(t, "prod", LabelFromConnection("sqlite:///var/data/prod.db"))
	assert.Equal(t, "mydb", LabelFromConnection("postgres://host/mydb"))
}

func TestResolveLabels_ExpandsCommaSeparatedAndPadsWithDerived(t *testing.T) {
	labels := ResolveLabels([]string{"a,b"}, []string{"sqlite:///x/a.db", "sqlite:///x/b.db", "sqlite:///x/c.db"})
	assert.Equal(t, []string{"a", "b", "c"}, labels)
}

func TestResolveLabels_TruncatesExcessLabels(t *testing.T) {
	labels := ResolveLabels([]string{"a,b,c"}, []string{"sqlite:///x/a.db"})
	assert.Equal(t, []string{"a"}, labels)
}
