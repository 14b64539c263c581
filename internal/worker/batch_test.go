package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/realitycheck/internal/model"
)

// mockChecker implements Checker
type mockChecker struct {
	failCountry string
	delay       time.Duration
}

func (m *mockChecker) Check(ctx context.Context, topic, country string) (*model.Report, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if country == m.failCountry {
		return nil, errors.New("data source unavailable")
	}
	rate := float64(len(topic)%10) / 10
	return &model.Report{
		Topic:    topic,
		Country:  country,
		Flagship: model.PredictionResult{Rate: rate, RiskLevel: model.RiskLow},
		Small:    model.PredictionResult{Rate: rate + 0.1, RiskLevel: model.RiskHigh},
	}, nil
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "queries.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBatchProcessor_ProcessQueries_KeepsOrder(t *testing.T) {
	processor := NewBatchProcessor(&mockChecker{}, 3)

	var queries []Query
	for i := range 25 {
		queries = append(queries, Query{Topic: fmt.Sprintf("topic %d", i), Country: "Ghana"})
	}

	results := processor.ProcessQueries(context.Background(), queries)

	require.Len(t, results, len(queries))
	for i, r := range results {
		assert.NoError(t, r.Error, "query %s", r.Query)
		assert.Equal(t, queries[i], r.Query, "result %d out of order", i)
		if assert.NotNil(t, r.Report) {
			assert.Equal(t, queries[i].Topic, r.Report.Topic)
		}
	}
}

func TestBatchProcessor_ProcessQueries_Error(t *testing.T) {
	processor := NewBatchProcessor(&mockChecker{failCountry: "Atlantis"}, 2)

	results := processor.ProcessQueries(context.Background(), []Query{
		{Topic: "malaria prevention", Country: "Nigeria"},
		{Topic: "tides", Country: "Atlantis"},
	})

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Error)
	assert.EqualError(t, results[1].Error, "data source unavailable")
	assert.Nil(t, results[1].Report)
}

func TestBatchProcessor_ProcessQueries_Empty(t *testing.T) {
	processor := NewBatchProcessor(&mockChecker{}, 2)

	assert.Empty(t, processor.ProcessQueries(context.Background(), nil))
}

func TestBatchProcessor_ProcessQueries_Timeout(t *testing.T) {
	processor := NewBatchProcessor(&mockChecker{delay: time.Second}, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	results := processor.ProcessQueries(ctx, []Query{
		{Topic: "a", Country: "Kenya"},
		{Topic: "b", Country: "Kenya"},
		{Topic: "c", Country: "Kenya"},
	})

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Error(t, r.Error, "query %s should fail after timeout", r.Query)
	}
}

func TestBatchProcessor_ProcessFile(t *testing.T) {
	path := writeTemp(t, "malaria prevention | Nigeria\n# comment\n\nmachine learning | United States\n")

	processor := NewBatchProcessor(&mockChecker{}, 2)
	results, err := processor.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestBatchProcessor_ProcessFile_NonExistent(t *testing.T) {
	processor := NewBatchProcessor(&mockChecker{}, 2)

	_, err := processor.ProcessFile(context.Background(), "no_such_file.txt")
	assert.Error(t, err)
}

func TestReadQueries(t *testing.T) {
	content := `# topic | country
malaria prevention | Nigeria
   quantum computing |Germany   

Malaria Prevention | nigeria
a | b | Rwanda
`
	queries, err := ReadQueries(strings.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, []Query{
		{Topic: "malaria prevention", Country: "Nigeria"},
		{Topic: "quantum computing", Country: "Germany"},
		{Topic: "a | b", Country: "Rwanda"},
	}, queries)
}

func TestReadQueries_Malformed(t *testing.T) {
	for _, content := range []string{"no separator here\n", " | Ghana\n", "topic | \n"} {
		_, err := ReadQueries(strings.NewReader(content))
		assert.Error(t, err, "content %q", content)
	}
}

func TestReadQueriesFromFile_NonExistent(t *testing.T) {
	_, err := ReadQueriesFromFile("non_existent_file.txt")
	assert.Error(t, err)
}

func TestCheckResult_GetError(t *testing.T) {
	assert.NoError(t, (&CheckResult{}).GetError())

	expected := errors.New("check failed")
	assert.Same(t, expected, (&CheckResult{Error: expected}).GetError())
}

func TestSummarize(t *testing.T) {
	results := []*CheckResult{
		{Report: &model.Report{
			Flagship: model.PredictionResult{Rate: 0.2, RiskLevel: model.RiskModerate},
			Small:    model.PredictionResult{Rate: 0.6, RiskLevel: model.RiskVeryHigh},
		}},
		{Report: &model.Report{
			Flagship: model.PredictionResult{Rate: 0.4, RiskLevel: model.RiskHigh},
			Small:    model.PredictionResult{Rate: 0.8, RiskLevel: model.RiskSevere},
		}},
		{Report: &model.Report{
			Flagship: model.PredictionResult{Rate: 0.6, RiskLevel: model.RiskVeryHigh},
			Small:    model.PredictionResult{Rate: 1.0, RiskLevel: model.RiskSevere},
		}},
		{Error: errors.New("data source unavailable")},
	}

	s := Summarize(results)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Succeeded)
	assert.Equal(t, 1, s.Failed)
	assert.InDelta(t, 0.4, s.Flagship.Mean, 1e-9)
	assert.InDelta(t, 0.4, s.Flagship.Median, 1e-9)
	assert.InDelta(t, 0.2, s.Flagship.Min, 1e-9)
	assert.InDelta(t, 0.6, s.Flagship.Max, 1e-9)
	assert.InDelta(t, 0.8, s.Small.Mean, 1e-9)
	assert.Equal(t, 2, s.SmallRisk[model.RiskSevere])
	assert.Equal(t, 1, s.FlagshipRisk[model.RiskHigh])
}

func TestSummarize_AllFailed(t *testing.T) {
	s := Summarize([]*CheckResult{{Error: errors.New("boom")}})

	assert.Zero(t, s.Succeeded)
	assert.Equal(t, RateStats{}, s.Flagship)
}
