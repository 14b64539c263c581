package worker

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ppiankov/realitycheck/internal/model"
)

func exportResults() []*CheckResult {
	return []*CheckResult{
		{
			Query: Query{Topic: "malaria prevention", Country: "Nigeria"},
			Report: &model.Report{
				TopicCount:   1000,
				CountryCount: 1000000,
				Flagship:     model.PredictionResult{Rate: 0.461, Margin: 0.0446, RiskLevel: model.RiskHigh},
				Small:        model.PredictionResult{Rate: 0.617, Margin: 0.0446, RiskLevel: model.RiskVeryHigh},
			},
		},
		{
			Query: Query{Topic: "tides", Country: "Atlantis"},
			Error: errors.New("data source unavailable"),
		},
	}
}

func TestRecords(t *testing.T) {
	records := Records(exportResults())

	require.Len(t, records, 2)
	assert.Equal(t, "High", records[0].FlagshipRisk)
	assert.Equal(t, 0.617, records[0].SmallRate)
	assert.Equal(t, "data source unavailable", records[1].Error)
	assert.Empty(t, records[1].FlagshipRisk)
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.json")
	require.NoError(t, WriteJSON(path, exportResults()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out BatchOutput
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 2, out.Summary.Total)
	assert.Equal(t, 1, out.Summary.Failed)
	require.Len(t, out.Results, 2)
	assert.Equal(t, "malaria prevention", out.Results[0].Topic)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batch.xlsx")
	require.NoError(t, WriteXLSX(path, exportResults()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3, "header + 2 rows")
	assert.Equal(t, "Topic", rows[0][0])
	assert.Equal(t, "malaria prevention", rows[1][0])
	assert.Equal(t, "High", rows[1][6])
	assert.Equal(t, "data source unavailable", rows[2][len(rows[2])-1])
}
