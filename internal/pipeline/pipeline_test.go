package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/realitycheck/internal/llm"
	"github.com/ppiankov/realitycheck/internal/model"
)

type fakeCounter struct {
	mu      sync.Mutex
	counts  map[string]int64
	fail    map[string]error
	queries []string
}

func (f *fakeCounter) CountWorks(ctx context.Context, query string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if err := f.fail[query]; err != nil {
		return 0, err
	}
	return f.counts[query], nil
}

type fakeRecorder struct {
	reports []*model.Report
	err     error
}

func (r *fakeRecorder) Record(ctx context.Context, report *model.Report) error {
	r.reports = append(r.reports, report)
	return r.err
}

type stubProvider struct{}

func (stubProvider) Name() string                         { return "stub" }
func (stubProvider) IsAvailable(ctx context.Context) bool { return true }
func (stubProvider) Summarize(ctx context.Context, req llm.SummarizeRequest) (*llm.SummarizeResponse, error) {
	return &llm.SummarizeResponse{Summary: "Verify every reference.", Model: "stub-1"}, nil
}

func nigeriaCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{
		`malaria prevention "Nigeria"`: 1000,
		`"Nigeria"`:                    1000000,
	}}
}

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestCheck(t *testing.T) {
	counter := nigeriaCounter()
	p := NewPipeline(nil, counter, nil, WithClock(func() time.Time { return fixedTime }))

	report, err := p.Check(context.Background(), "  malaria prevention ", "Nigeria ")
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "malaria prevention", report.Topic)
	assert.Equal(t, "Nigeria", report.Country)
	assert.Equal(t, int64(1000), report.TopicCount)
	assert.Equal(t, int64(1000000), report.CountryCount)
	assert.Equal(t, fixedTime, report.CheckedAt)
	assert.ElementsMatch(t, []string{`malaria prevention "Nigeria"`, `"Nigeria"`}, counter.queries)

	assert.InDelta(t, 0.461, report.Flagship.Rate, 0.0005)
	assert.Equal(t, model.RiskHigh, report.Flagship.RiskLevel)
	assert.Greater(t, report.Small.Rate, report.Flagship.Rate)

	assert.Equal(t, 1435, report.Model.SampleSize)
	assert.Equal(t, "builtin", report.Model.Source)
	assert.Nil(t, report.LLM)
}

func TestCheck_InvalidInput(t *testing.T) {
	counter := nigeriaCounter()
	p := NewPipeline(nil, counter, nil)

	for _, tc := range [][2]string{{"", "Nigeria"}, {"malaria", "  "}} {
		_, err := p.Check(context.Background(), tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Empty(t, counter.queries, "no lookups for invalid input")
}

func TestCheck_DataSourceUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	counter := nigeriaCounter()
	counter.fail = map[string]error{`"Nigeria"`: cause}
	recorder := &fakeRecorder{}

	p := NewPipeline(nil, counter, nil, WithRecorder(recorder))
	report, err := p.Check(context.Background(), "malaria prevention", "Nigeria")

	require.Error(t, err)
	assert.Nil(t, report)
	assert.ErrorIs(t, err, ErrDataSourceUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Empty(t, recorder.reports)
}

func TestCheck_RecordsHistory(t *testing.T) {
	recorder := &fakeRecorder{}
	p := NewPipeline(nil, nigeriaCounter(), nil, WithRecorder(recorder))

	report, err := p.Check(context.Background(), "malaria prevention", "Nigeria")
	require.NoError(t, err)
	require.Len(t, recorder.reports, 1)
	assert.Same(t, report, recorder.reports[0])

	// A failing store only warns
	recorder.err = errors.New("disk full")
	_, err = p.Check(context.Background(), "malaria prevention", "Nigeria")
	assert.NoError(t, err)
}

func TestCheck_SummaryDoesNotChangeNumbers(t *testing.T) {
	plain := NewPipeline(nil, nigeriaCounter(), nil)
	withLLM := NewPipeline(nil, nigeriaCounter(), nil,
		WithSummarizer(llm.NewSummarizerWithProvider(stubProvider{}, llm.DefaultConfig())))

	a, err := plain.Check(context.Background(), "malaria prevention", "Nigeria")
	require.NoError(t, err)
	b, err := withLLM.Check(context.Background(), "malaria prevention", "Nigeria")
	require.NoError(t, err)

	require.NotNil(t, b.LLM)
	assert.True(t, b.LLM.Enabled)
	assert.Equal(t, "Verify every reference.", b.LLM.SummaryMD)
	assert.Equal(t, a.Flagship, b.Flagship)
	assert.Equal(t, a.Small, b.Small)
}

func TestRenderReport_WritesFiles(t *testing.T) {
	p := NewPipeline(nil, nigeriaCounter(), nil,
		WithSummarizer(llm.NewSummarizerWithProvider(stubProvider{}, llm.DefaultConfig())))
	report, err := p.Check(context.Background(), "malaria prevention", "Nigeria")
	require.NoError(t, err)

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "out", "report.json")
	mdPath := filepath.Join(dir, "report.md")
	htmlPath := filepath.Join(dir, "report.html")

	require.NoError(t, p.RenderReport(report, jsonPath, mdPath, htmlPath, false))

	for _, path := range []string{jsonPath, mdPath, htmlPath, filepath.Join(dir, "report.llm.md")} {
		info, err := os.Stat(path)
		require.NoError(t, err, path)
		assert.Positive(t, info.Size(), path)
	}

	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"risk_level": "High"`)
}

func TestRenderReport_SkipsEmptyPaths(t *testing.T) {
	p := NewPipeline(nil, nigeriaCounter(), nil)
	report, err := p.Check(context.Background(), "malaria prevention", "Nigeria")
	require.NoError(t, err)

	assert.NoError(t, p.RenderReport(report, "", "", "", false))
}
