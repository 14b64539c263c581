package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ppiankov/realitycheck/internal/history"
	"github.com/ppiankov/realitycheck/internal/model"
	"github.com/ppiankov/realitycheck/internal/pipeline"
	"github.com/ppiankov/realitycheck/internal/score"
)

// PredictResponse is returned by /api/v1/predict. Only the requested
// class is set when the small parameter is given.
type PredictResponse struct {
	TopicCount   int64                   `json:"topic_count"`
	CountryCount int64                   `json:"country_count"`
	Flagship     *model.PredictionResult `json:"flagship,omitempty"`
	Small        *model.PredictionResult `json:"small,omitempty"`
}

// ModelResponse is returned by /api/v1/model
type ModelResponse struct {
	Coefficients *score.RegressionModel     `json:"coefficients"`
	Advisories   map[model.RiskLevel]string `json:"advisories"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	topic := strings.TrimSpace(q.Get("topic"))
	country := strings.TrimSpace(q.Get("country"))
	if topic == "" || country == "" {
		respondError(w, http.StatusBadRequest, "topic and country are required")
		return
	}

	report, err := s.checker.Check(r.Context(), topic, country)
	switch {
	case err == nil:
	case errors.Is(err, pipeline.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, pipeline.ErrDataSourceUnavailable):
		s.logger.Warn("lookup failed", "topic", topic, "country", country, "error", err)
		respondError(w, http.StatusServiceUnavailable, pipeline.ErrDataSourceUnavailable.Error())
		return
	default:
		s.logger.Error("check failed", "topic", topic, "country", country, "error", err)
		respondError(w, http.StatusInternalServerError, "check failed")
		return
	}

	s.logger.Info("check",
		"id", report.ID,
		"topic", report.Topic,
		"country", report.Country,
		"flagship_rate", report.Flagship.Rate,
		"small_rate", report.Small.Rate,
	)
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	topicCount, err := parseCount(q.Get("topic_count"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "topic_count: "+err.Error())
		return
	}
	countryCount, err := parseCount(q.Get("country_count"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "country_count: "+err.Error())
		return
	}

	resp := PredictResponse{TopicCount: topicCount, CountryCount: countryCount}
	in := model.PredictionInput{TopicVolume: topicCount, CountryVolume: countryCount}

	if raw := q.Get("small"); raw != "" {
		small, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "small: must be true or false")
			return
		}
		in.IsSmallModel = small
		result := s.scorer.Calculate(in)
		if small {
			resp.Small = &result
		} else {
			resp.Flagship = &result
		}
	} else {
		flagship := s.scorer.Calculate(in)
		in.IsSmallModel = true
		small := s.scorer.Calculate(in)
		resp.Flagship = &flagship
		resp.Small = &small
	}

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	advisories := make(map[model.RiskLevel]string)
	for _, level := range model.RiskLevels() {
		advisories[level] = s.scorer.Advisory(level)
	}
	respondJSON(w, http.StatusOK, ModelResponse{
		Coefficients: s.scorer.Model(),
		Advisories:   advisories,
	})
}

func (s *Server) handleExamples(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, model.Examples())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotFound, "history is disabled")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 500 {
			respondError(w, http.StatusBadRequest, "limit: must be between 1 and 500")
			return
		}
		limit = n
	}

	entries, err := s.history.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHistoryReport(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		respondError(w, http.StatusNotFound, "history is disabled")
		return
	}

	report, err := s.history.Report(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, history.ErrNotFound) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("history lookup failed", "error", err)
		respondError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// parseCount accepts a non-negative base-10 integer
func parseCount(raw string) (int64, error) {
	if raw == "" {
		return 0, errors.New("required")
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("must be an integer")
	}
	if n < 0 {
		return 0, errors.New("must be non-negative")
	}
	return n, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
