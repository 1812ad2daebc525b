// Package httpapi exposes the governor over HTTP: a generation endpoint
// plus the admin surface for stats, budget, alerts, and cache control.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/governor"
	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// Server serves the admin and generation API.
type Server struct {
	gov *governor.Governor
}

// NewServer creates an API server over the governor.
func NewServer(gov *governor.Governor) *Server {
	return &Server{gov: gov}
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(2 * time.Minute))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)

		r.Get("/stats", s.handleStats)
		r.Get("/stats/{user}", s.handleUserStats)
		r.Get("/budget", s.handleBudget)

		r.Get("/alerts", s.handleAlerts)
		r.Post("/alerts/{id}/acknowledge", s.handleAcknowledgeAlert)
		r.Post("/alerts/{id}/resolve", s.handleResolveAlert)

		r.Get("/cache/stats", s.handleCacheStats)
		r.Post("/cache/invalidate", s.handleCacheInvalidate)
		r.Post("/cache/clear", s.handleCacheClear)
	})

	return r
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.ContentType == "" {
		req.ContentType = models.ContentText
	}
	if req.Tier == "" {
		req.Tier = models.TierAnonymous
	}

	res, err := s.gov.GovernGeneration(r.Context(), &req)
	if err != nil {
		var rle *governor.RateLimitError
		if errors.As(err, &rle) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rle.Decision.RetryAfter.Seconds())+1))
			writeJSON(w, http.StatusTooManyRequests, map[string]interface{}{
				"error":    rle.Error(),
				"decision": rle.Decision,
			})
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gov.UsageSnapshot("", windowHours(r)))
}

func (s *Server) handleUserStats(w http.ResponseWriter, r *http.Request) {
	user := chi.URLParam(r, "user")
	writeJSON(w, http.StatusOK, s.gov.UsageSnapshot(user, windowHours(r)))
}

func (s *Server) handleBudget(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gov.BudgetStatus())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	alerts := s.gov.ActiveAlerts()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(alerts),
		"alerts": alerts,
	})
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.gov.AcknowledgeAlert(id) {
		writeError(w, http.StatusNotFound, "alert not found or not firing")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.gov.ResolveAlert(id) {
		writeError(w, http.StatusNotFound, "alert not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.gov.CacheStats())
}

func (s *Server) handleCacheInvalidate(w http.ResponseWriter, r *http.Request) {
	var filter models.CacheFilter
	if err := json.NewDecoder(r.Body).Decode(&filter); err != nil {
		writeError(w, http.StatusBadRequest, "invalid filter body")
		return
	}
	n := s.gov.InvalidateCache(filter)
	writeJSON(w, http.StatusOK, map[string]int{"invalidated": n})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	s.gov.ClearCache()
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// windowHours parses the optional ?hours= query, defaulting to 24.
func windowHours(r *http.Request) int {
	if v := r.URL.Query().Get("hours"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 24
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
