package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aird/internal/runner"
)

func passResult(factor, schema, table string, l1, l2, l3 bool) runner.Result {
	return runner.Result{
		Factor: factor,
		Schema: schema,
		Table:  table,
		Verdict: runner.Verdict{
			L1Pass: l1, L2Pass: l2, L3Pass: l3,
		},
	}
}

func TestBuild_EmptyResultsReportsZeroPercent(t *testing.T) {
	rep := Build(nil, Options{})
	assert.Equal(t, 0, rep.Summary.TotalTests)
	assert.Equal(t, 0.0, rep.Summary.L1Pct)
	assert.Equal(t, 0.0, rep.Summary.L2Pct)
	assert.Equal(t, 0.0, rep.Summary.L3Pct)
	assert.Empty(t, rep.FactorSummary)
}

func TestBuild_SummaryCountsAcrossAllLevels(t *testing.T) {
	results := []runner.Result{
		passResult("clean", "public", "orders", true, true, false),
		passResult("clean", "public", "orders", true, false, false),
	}
	rep := Build(results, Options{})
	assert.Equal(t, 2, rep.Summary.TotalTests)
	assert.Equal(t, 2, rep.Summary.L1Pass)
	assert.Equal(t, 1, rep.Summary.L2Pass)
	assert.Equal(t, 0, rep.Summary.L3Pass)
	assert.Equal(t, 100.0, rep.Summary.L1Pct)
	assert.Equal(t, 50.0, rep.Summary.L2Pct)
	assert.Equal(t, 0.0, rep.Summary.L3Pct)
}

func TestBuild_FactorSummariesGroupedAndSorted(t *testing.T) {
	results := []runner.Result{
		passResult("contextual", "public", "orders", true, true, true),
		passResult("clean", "public", "orders", false, false, false),
	}
	rep := Build(results, Options{})
	require.Len(t, rep.FactorSummary, 2)
	assert.Equal(t, "clean", rep.FactorSummary[0].Factor)
	assert.Equal(t, "contextual", rep.FactorSummary[1].Factor)
}

func TestBuild_DataProductsAreAdditiveSubsets(t *testing.T) {
	results := []runner.Result{
		passResult("clean", "public", "orders", true, true, true),
		passResult("clean", "public", "customers", false, false, false),
	}
	rep := Build(results, Options{
		DataProducts: []DataProduct{
			{Name: "orders-product", Tables: []string{"public.orders"}},
		},
	})
	// top-level summary still covers every result
	assert.Equal(t, 2, rep.Summary.TotalTests)
	require.Len(t, rep.DataProducts, 1)
	assert.Equal(t, "orders-product", rep.DataProducts[0].Name)
	assert.Equal(t, 1, rep.DataProducts[0].Summary.TotalTests)
	assert.Equal(t, 1, rep.DataProducts[0].Summary.L1Pass)
}

func TestBuild_DataProductMatchesBySchemaWildcard(t *testing.T) {
	results := []runner.Result{
		passResult("clean", "reporting", "daily", true, true, true),
		passResult("clean", "staging", "raw", false, false, false),
	}
	rep := Build(results, Options{
		DataProducts: []DataProduct{
			{Name: "reporting-schema", Schemas: []string{"reporting"}},
		},
	})
	require.Len(t, rep.DataProducts, 1)
	assert.Equal(t, 1, rep.DataProducts[0].Summary.TotalTests)
}

func TestBuild_QuestionResultsPassThrough(t *testing.T) {
	rep := Build(nil, Options{})
	assert.Nil(t, rep.QuestionResults)
}
