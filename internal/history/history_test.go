package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveReport_ReturnsIDAndPersistsReport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.SaveReport(ctx, "2026-01-01T00:00:00.000Z", "sqlite:///mem", "", []byte(`{"summary":{"total_tests":5}}`))
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	raw, err := s.GetReport(ctx, id)
	require.NoError(t, err)
	assert.JSONEq(t, `{"summary":{"total_tests":5}}`, string(raw))
}

func TestGetReport_UnknownIDReturnsNilNotError(t *testing.T) {
	s := openTestStore(t)
	raw, err := s.GetReport(context.Background(), "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestListAssessments_OrdersMostRecentFirstAndHonorsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveReport(ctx, "2026-01-01T00:00:00.000Z", "fp1", "", []byte(`{"summary":{}}`))
	require.NoError(t, err)
	secondID, err := s.SaveReport(ctx, "2026-01-02T00:00:00.000Z", "fp1", "", []byte(`{"summary":{}}`))
	require.NoError(t, err)

	items, err := s.ListAssessments(ctx, "", "", 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, secondID, items[0].ID)
}

func TestListAssessments_FiltersByFingerprintAndProduct(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.SaveReport(ctx, "2026-01-01T00:00:00.000Z", "fp-a", "orders", []byte(`{"summary":{}}`))
	require.NoError(t, err)
	_, err = s.SaveReport(ctx, "2026-01-01T00:00:00.000Z", "fp-b", "customers", []byte(`{"summary":{}}`))
	require.NoError(t, err)

	items, err := s.ListAssessments(ctx, "fp-a", "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "fp-a", items[0].ConnectionFingerprint)

	items, err = s.ListAssessments(ctx, "", "customers", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "customers", items[0].DataProduct)
}

func TestLatestForFingerprint_ExcludesGivenID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	firstID, err := s.SaveReport(ctx, "2026-01-01T00:00:00.000Z", "fp1", "", []byte(`{"summary":{}}`))
	require.NoError(t, err)
	secondID, err := s.SaveReport(ctx, "2026-01-02T00:00:00.000Z", "fp1", "", []byte(`{"summary":{}}`))
	require.NoError(t, err)

	latest, err := s.LatestForFingerprint(ctx, "fp1", secondID)
	require.NoError(t, err)
	assert.Equal(t, firstID, latest)
}

func TestLatestForFingerprint_NoneFoundReturnsEmptyString(t *testing.T) {
	s := openTestStore(t)
	latest, err := s.LatestForFingerprint(context.Background(), "unseen-fp", "")
	require.NoError(t, err)
	assert.Empty(t, latest)
}

func TestSaveBenchmark_PersistsGroupAndReturnsID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, err := s.SaveBenchmark(ctx, []string{"prod", "staging"}, []string{"sqlite:///prod.db", "sqlite:///staging.db"}, []string{"a1", "a2"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestListBenchmarks_ReturnsSavedGroupsWithTheirLabelsAndIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id1, err := s.SaveBenchmark(ctx, []string{"prod"}, []string{"sqlite:///prod.db"}, []string{"a1"})
	require.NoError(t, err)
	id2, err := s.SaveBenchmark(ctx, []string{"staging"}, []string{"sqlite:///staging.db"}, []string{"a2"})
	require.NoError(t, err)

	items, err := s.ListBenchmarks(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)

	byID := map[string]BenchmarkSummary{items[0].ID: items[0], items[1].ID: items[1]}
	require.Contains(t, byID, id1)
	require.Contains(t, byID, id2)
	assert.Equal(t, []string{"prod"}, byID[id1].Labels)
	assert.Equal(t, []string{"sqlite:///prod.db"}, byID[id1].Connections)
	assert.Equal(t, []string{"a1"}, byID[id1].AssessmentIDs)
	assert.Equal(t, []string{"staging"}, byID[id2].Labels)
}

func TestListBenchmarks_HonorsLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := s.SaveBenchmark(ctx, []string{"a"}, []string{"sqlite:///a.db"}, []string{"a1"})
	require.NoError(t, err)
	_, err = s.SaveBenchmark(ctx, []string{"b"}, []string{"sqlite:///b.db"}, []string{"b1"})
	require.NoError(t, err)

	items, err := s.ListBenchmarks(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestWriteAuditQuery_DoesNotError(t *testing.T) {
	s := openTestStore(t)
	err := s.WriteAuditQuery(context.Background(), "assess-1", "session-1", "SELECT 1", "table", "clean", "null_rate")
	assert.NoError(t, err)
}

func TestWriteAuditConversation_DoesNotError(t *testing.T) {
	s := openTestStore(t)
	err := s.WriteAuditConversation(context.Background(), "assess-1", "session-1", "survey", "user", "answer text")
	assert.NoError(t, err)
}
