package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/finsightio/finsight/internal/analysis"
)

// Version reported by the health endpoints.
const Version = "2.0.0"

// Server exposes the analysis pipeline over HTTP. All responses are JSON and
// the handlers mirror the API the browser-extension family of clients
// expects: GET / and /health for liveness, POST /analyze for the pipeline.
type Server struct {
	Pipeline *Pipeline
	Model    string

	metrics *metrics
}

// Handler builds the full route table, with permissive CORS (the API is
// consumed cross-origin by extension popups) and Prometheus instrumentation.
func (s *Server) Handler() http.Handler {
	if s.metrics == nil {
		s.metrics = newMetrics()
	}
	mux := http.NewServeMux()
	mux.Handle("/", s.metrics.instrument("/", http.HandlerFunc(s.handleIndex)))
	mux.Handle("/health", s.metrics.instrument("/health", http.HandlerFunc(s.handleHealth)))
	mux.Handle("/analyze", s.metrics.instrument("/analyze", http.HandlerFunc(s.handleAnalyze)))
	mux.Handle("/metrics", s.metrics.handler())
	return withCORS(mux)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Endpoint not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "FinSight API - financial news analysis",
		"version": Version,
		"status":  "healthy",
		"features": map[string]string{
			"summarization":      "chat model",
			"company_extraction": "chat model",
			"sentiment_analysis": "chat model",
			"stock_data":         "chart endpoint",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":      "healthy",
		"api_version": Version,
		"model":       s.Model,
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "No JSON data provided"})
		return
	}
	if len(req.Text) < analysis.MinTextChars {
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Text must be at least 100 characters long for meaningful analysis",
		})
		return
	}

	start := time.Now()
	log.Info().Int("chars", len(req.Text)).Msg("analysis requested")
	result, err := s.Pipeline.AnalyzeArticle(r.Context(), req.Text)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   err.Error(),
			"message": "Analysis failed. Check server logs for details.",
		})
		return
	}
	log.Info().Dur("took", time.Since(start)).Int("companies", result.TotalCompanies).Msg("analysis served")
	writeJSON(w, http.StatusOK, result)
}
