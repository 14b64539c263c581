package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/realitycheck/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testReport(id, topic string, at time.Time) *model.Report {
	return &model.Report{
		ID:           id,
		Topic:        topic,
		Country:      "Ghana",
		TopicCount:   120,
		CountryCount: 54000,
		CheckedAt:    at,
		Flagship:     model.PredictionResult{Rate: 0.52, RiskLevel: model.RiskVeryHigh, Margin: 0.05},
		Small:        model.PredictionResult{Rate: 0.68, RiskLevel: model.RiskVeryHigh},
		Model:        model.ModelInfo{SampleSize: 1435, RSquared: 0.302, Source: "builtin"},
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, testReport("a", "first", base)))
	require.NoError(t, s.Record(ctx, testReport("b", "second", base.Add(time.Minute))))
	require.NoError(t, s.Record(ctx, testReport("c", "third", base.Add(2*time.Minute))))

	entries, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "c", entries[0].ID)
	assert.Equal(t, "b", entries[1].ID)
	assert.Equal(t, "third", entries[0].Topic)
	assert.Equal(t, model.RiskVeryHigh, entries[0].FlagshipRisk)
	assert.InDelta(t, 0.68, entries[0].SmallRate, 1e-12)
	assert.Equal(t, int64(54000), entries[0].CountryCount)
	assert.True(t, entries[0].CheckedAt.Equal(base.Add(2*time.Minute)))
}

func TestRecent_DefaultLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		at := time.Date(2026, 5, 1, 0, i, 0, 0, time.UTC)
		require.NoError(t, s.Record(ctx, testReport(string(rune('a'+i)), "t", at)))
	}

	entries, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 20)
}

func TestRecord_ReplacesSameID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, testReport("same", "old", at)))
	require.NoError(t, s.Record(ctx, testReport("same", "new", at)))

	entries, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new", entries[0].Topic)
}

func TestReport(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	want := testReport("r1", "biometric voter registration", time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))

	require.NoError(t, s.Record(ctx, want))

	got, err := s.Report(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, want.Topic, got.Topic)
	assert.Equal(t, want.Flagship, got.Flagship)
	assert.Equal(t, want.Model, got.Model)

	_, err = s.Report(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, testReport("x", "t", time.Now())))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	entries, err := s.Recent(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
