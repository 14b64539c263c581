package worker

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// BatchOutput is the JSON document written for a batch run
type BatchOutput struct {
	Summary Summary       `json:"summary"`
	Results []BatchRecord `json:"results"`
}

// BatchRecord is one row of batch output
type BatchRecord struct {
	Query
	TopicCount     int64   `json:"topic_count,omitempty"`
	CountryCount   int64   `json:"country_count,omitempty"`
	FlagshipRate   float64 `json:"flagship_rate"`
	FlagshipMargin float64 `json:"flagship_margin"`
	FlagshipRisk   string  `json:"flagship_risk,omitempty"`
	SmallRate      float64 `json:"small_rate"`
	SmallMargin    float64 `json:"small_margin"`
	SmallRisk      string  `json:"small_risk,omitempty"`
	Error          string  `json:"error,omitempty"`
}

// Records flattens results into rows
func Records(results []*CheckResult) []BatchRecord {
	records := make([]BatchRecord, 0, len(results))
	for _, r := range results {
		rec := BatchRecord{Query: r.Query}
		if r.Error != nil || r.Report == nil {
			if r.Error != nil {
				rec.Error = r.Error.Error()
			}
			records = append(records, rec)
			continue
		}
		rec.TopicCount = r.Report.TopicCount
		rec.CountryCount = r.Report.CountryCount
		rec.FlagshipRate = r.Report.Flagship.Rate
		rec.FlagshipMargin = r.Report.Flagship.Margin
		rec.FlagshipRisk = string(r.Report.Flagship.RiskLevel)
		rec.SmallRate = r.Report.Small.Rate
		rec.SmallMargin = r.Report.Small.Margin
		rec.SmallRisk = string(r.Report.Small.RiskLevel)
		records = append(records, rec)
	}
	return records
}

// WriteJSON writes results and their summary as indented JSON
func WriteJSON(path string, results []*CheckResult) error {
	out := BatchOutput{
		Summary: Summarize(results),
		Results: Records(results),
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal batch: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write batch JSON: %w", err)
	}
	return nil
}

var xlsxHeaders = []string{
	"Topic", "Country", "Topic works", "Country works",
	"Flagship rate", "Flagship margin", "Flagship risk",
	"Small rate", "Small margin", "Small risk", "Error",
}

// WriteXLSX writes one row per query to the first sheet of a workbook
func WriteXLSX(path string, results []*CheckResult) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close workbook: %w", closeErr)
		}
	}()

	sheet := f.GetSheetName(0)

	for i, h := range xlsxHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for r, rec := range Records(results) {
		row := []interface{}{rec.Topic, rec.Country}
		if rec.Error != "" {
			row = append(row, nil, nil, nil, nil, nil, nil, nil, nil, rec.Error)
		} else {
			row = append(row,
				rec.TopicCount, rec.CountryCount,
				rec.FlagshipRate, rec.FlagshipMargin, rec.FlagshipRisk,
				rec.SmallRate, rec.SmallMargin, rec.SmallRisk, "")
		}

		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
