// Package api exposes the archive over a read-only HTTP interface.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/adii83/steam-metadata-archive/internal/model"
	"github.com/adii83/steam-metadata-archive/internal/runlog"
	"github.com/adii83/steam-metadata-archive/internal/store"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

// Archive hands the server its data: the current catalog snapshot and
// the persisted crawl position.
type Archive interface {
	Snapshot() (*store.Catalog, error)
	CursorIndex() int
}

// RunLog provides read access to run history.
type RunLog interface {
	ListRuns(ctx context.Context, limit int) ([]runlog.Run, error)
	LatestRun(ctx context.Context) (*runlog.Run, error)
}

// Server wires HTTP handlers to the archive stores.
type Server struct {
	router  chi.Router
	archive Archive
	runs    RunLog
}

// NewServer constructs a Server with middleware and routes.
func NewServer(archive Archive, runs RunLog) *Server {
	s := &Server{archive: archive, runs: runs}

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.healthz)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/status", s.status)
		r.Get("/runs", s.listRuns)
		r.Route("/records", func(r chi.Router) {
			r.Get("/", s.listRecords)
			r.Get("/{appid}", s.getRecord)
		})
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	cat, err := s.archive.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	affirmative := 0
	for _, id := range cat.IDs() {
		if rec, ok := cat.Get(id); ok && rec.Protection.Affirmative() {
			affirmative++
		}
	}

	var latest *runlog.Run
	if s.runs != nil {
		latest, err = s.runs.LatestRun(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "run log unavailable")
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"archived":   cat.Len(),
		"protected":  affirmative,
		"cursor":     s.archive.CursorIndex(),
		"latest_run": latest,
	})
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeError(w, http.StatusNotFound, "run log not configured")
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	runs, err := s.runs.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "run log unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// recordSummary is the compact list-view shape of a record.
type recordSummary struct {
	AppID        int           `json:"appid"`
	Title        string        `json:"title"`
	PriceDisplay string        `json:"price_display"`
	Protection   model.Verdict `json:"protection"`
	LastUpdate   time.Time     `json:"last_update"`
}

func (s *Server) listRecords(w http.ResponseWriter, r *http.Request) {
	cat, err := s.archive.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	limit, err := queryInt(r, "limit", defaultListLimit)
	if err != nil || limit < 1 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	after, err := queryInt(r, "after", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid after")
		return
	}

	var filter func(model.Verdict) bool
	switch r.URL.Query().Get("protected") {
	case "":
	case "true":
		filter = func(v model.Verdict) bool { return v.Affirmative() }
	case "null":
		filter = func(v model.Verdict) bool { return !v.Affirmative() }
	default:
		writeError(w, http.StatusBadRequest, "protected must be true or null")
		return
	}

	ids := cat.IDs()
	start := sort.SearchInts(ids, after+1)

	summaries := make([]recordSummary, 0, limit)
	for _, id := range ids[start:] {
		if len(summaries) == limit {
			break
		}
		rec, ok := cat.Get(id)
		if !ok {
			continue
		}
		if filter != nil && !filter(rec.Protection) {
			continue
		}
		summaries = append(summaries, recordSummary{
			AppID:        rec.AppID,
			Title:        rec.Title,
			PriceDisplay: rec.PriceDisplay,
			Protection:   rec.Protection,
			LastUpdate:   rec.LastUpdate,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total":   cat.Len(),
		"count":   len(summaries),
		"records": summaries,
	})
}

func (s *Server) getRecord(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "appid"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid appid")
		return
	}

	cat, err := s.archive.Snapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog unavailable")
		return
	}

	rec, ok := cat.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		zap.L().Debug("request served",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.status),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("response write failed", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
