// Package server exposes the assessment API over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/asifah/flashpoint/internal/assess"
	"github.com/asifah/flashpoint/internal/history"
	"github.com/asifah/flashpoint/internal/lexicon"
	"github.com/asifah/flashpoint/internal/logging"
)

const (
	defaultTrendDays = 30
	maxTrendDays     = 90
)

// Assessor serves assessments and accepts forced refreshes; satisfied by
// *cache.Coordinator.
type Assessor interface {
	GetOrRefresh(target string) assess.Assessment
	TriggerRefresh(target string) bool
}

// TrendSource serves snapshot series; satisfied by *history.Archive.
type TrendSource interface {
	Trends(target string, days int) (history.Trends, error)
}

// Server holds the API's dependencies and router.
type Server struct {
	lex     *lexicon.Lexicon
	coord   Assessor
	trends  TrendSource
	limiter *ipLimiter
	router  chi.Router
}

// New builds the API server. ratePerDay <= 0 disables rate limiting.
func New(lex *lexicon.Lexicon, coord Assessor, trends TrendSource, ratePerDay int) *Server {
	s := &Server{
		lex:    lex,
		coord:  coord,
		trends: trends,
	}
	if ratePerDay > 0 {
		s.limiter = newIPLimiter(ratePerDay)
	}
	s.routes()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)
	r.Use(cors)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Get("/targets", s.handleTargets)
		r.Get("/threat/{target}", s.handleThreat)
		r.Get("/threat/{target}/summary", s.handleSummary)
		r.Get("/threat/{target}/trends", s.handleTrends)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": assess.SchemaVersion,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTargets(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	var out []entry
	for _, t := range s.lex.Targets() {
		out = append(out, entry{ID: t.ID, Name: t.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"targets": out,
	})
}

// handleThreat serves the full assessment. ?refresh=true queues a background
// refresh but still answers from cache; the response never blocks on fetching.
func (s *Server) handleThreat(w http.ResponseWriter, r *http.Request) {
	target, ok := s.target(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("refresh") == "true" {
		s.coord.TriggerRefresh(target)
	}

	writeJSON(w, http.StatusOK, s.coord.GetOrRefresh(target))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	target, ok := s.target(w, r)
	if !ok {
		return
	}

	result := s.coord.GetOrRefresh(target)
	profile, _ := s.lex.Target(target)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      result.Success,
		"target":       target,
		"name":         profile.Name,
		"probability":  result.Probability,
		"timeline":     result.Timeline,
		"confidence":   result.Confidence,
		"momentum":     result.Momentum,
		"records":      result.Counts.Total,
		"generated_at": result.GeneratedAt,
		"stale":        result.Stale,
	})
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	target, ok := s.target(w, r)
	if !ok {
		return
	}

	days := defaultTrendDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = n
	}
	if days > maxTrendDays {
		days = maxTrendDays
	}

	trends, err := s.trends.Trends(target, days)
	if err != nil {
		logging.Error("load trends", "target", target, "error", err)
		writeError(w, http.StatusInternalServerError, "trend data unavailable")
		return
	}
	trends.Success = trends.DaysCollected > 0
	writeJSON(w, http.StatusOK, trends)
}

// target extracts and validates the {target} path parameter, writing a 404
// when it is unknown.
func (s *Server) target(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "target")
	if _, ok := s.lex.Target(id); !ok {
		writeError(w, http.StatusNotFound, "unknown target: "+id)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   msg,
	})
}

// requestLogger logs one line per request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"took", time.Since(start).Round(time.Microsecond))
	})
}

// cors allows browser dashboards on other origins to read the API.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
