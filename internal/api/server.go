// Package api exposes stored fusion runs over HTTP as JSON and as
// downloadable .pos tables.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gnss-data/gnssfuse/internal/db"
	"github.com/gnss-data/gnssfuse/internal/pos"
)

// ANSI escape codes for request logging
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db *db.DB
}

func NewServer(database *db.DB) *Server {
	return &Server{db: database}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf("[%s] %s %s %vms",
			statusCodeColor(lrw.statusCode), r.Method, r.URL.Path,
			time.Since(start).Milliseconds())
	})
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /runs", s.handleListRuns)
	mux.HandleFunc("GET /runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /runs/{id}/fused", s.handleFused)
	mux.HandleFunc("GET /runs/{id}/fused.pos", s.handleFusedPos)
	mux.HandleFunc("GET /runs/{id}/rovers/{rover}", s.handleRover)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.db.ListRuns()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.writeJSON(w, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.db.GetRun(r.PathValue("id"))
	if errors.Is(err, db.ErrNoRows) {
		s.writeJSONError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, run)
}

func (s *Server) handleFused(w http.ResponseWriter, r *http.Request) {
	recs, err := s.db.FusedRecords(r.PathValue("id"))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(recs) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no fused records for run")
		return
	}
	s.writeJSON(w, recs)
}

func (s *Server) handleFusedPos(w http.ResponseWriter, r *http.Request) {
	runID := r.PathValue("id")
	recs, err := s.db.FusedRecords(runID)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(recs) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no fused records for run")
		return
	}

	positions := make([]pos.PositionRecord, len(recs))
	for i, rec := range recs {
		positions[i] = rec.PositionRecord
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", runID+".pos"))
	if err := pos.WriteRecords(w, positions); err != nil {
		log.Printf("failed to write .pos response: %v", err)
	}
}

func (s *Server) handleRover(w http.ResponseWriter, r *http.Request) {
	recs, err := s.db.RoverRecords(r.PathValue("id"), r.PathValue("rover"))
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(recs) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "no records for rover")
		return
	}
	s.writeJSON(w, recs)
}
