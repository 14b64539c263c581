package worker

import (
	"github.com/montanaflynn/stats"

	"github.com/ppiankov/realitycheck/internal/model"
)

// RateStats describes the spread of predicted rates across a batch
type RateStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Summary aggregates a batch run
type Summary struct {
	Total        int                     `json:"total"`
	Succeeded    int                     `json:"succeeded"`
	Failed       int                     `json:"failed"`
	Flagship     RateStats               `json:"flagship"`
	Small        RateStats               `json:"small"`
	FlagshipRisk map[model.RiskLevel]int `json:"flagship_risk"`
	SmallRisk    map[model.RiskLevel]int `json:"small_risk"`
}

// Summarize computes rate statistics and risk histograms over successful checks
func Summarize(results []*CheckResult) Summary {
	s := Summary{
		Total:        len(results),
		FlagshipRisk: make(map[model.RiskLevel]int),
		SmallRisk:    make(map[model.RiskLevel]int),
	}

	var flagship, small []float64
	for _, r := range results {
		if r.Error != nil || r.Report == nil {
			s.Failed++
			continue
		}
		s.Succeeded++
		flagship = append(flagship, r.Report.Flagship.Rate)
		small = append(small, r.Report.Small.Rate)
		s.FlagshipRisk[r.Report.Flagship.RiskLevel]++
		s.SmallRisk[r.Report.Small.RiskLevel]++
	}

	s.Flagship = rateStats(flagship)
	s.Small = rateStats(small)
	return s
}

// rateStats returns zero values for an empty sample
func rateStats(rates []float64) RateStats {
	if len(rates) == 0 {
		return RateStats{}
	}

	var rs RateStats
	rs.Mean, _ = stats.Mean(rates)
	rs.Median, _ = stats.Median(rates)
	rs.P90, _ = stats.Percentile(rates, 90)
	rs.Min, _ = stats.Min(rates)
	rs.Max, _ = stats.Max(rates)
	return rs
}
