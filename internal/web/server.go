package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/noahxzhu/autotab/internal/alarm"
	"github.com/noahxzhu/autotab/internal/model"
	"github.com/noahxzhu/autotab/internal/store"
	"github.com/noahxzhu/autotab/internal/worker"
	"github.com/rs/zerolog/log"
)

// maxBodyBytes bounds request bodies, import files included.
const maxBodyBytes = 10 << 20

// Worker is the part of the scheduler the API drives.
type Worker interface {
	Check(ctx context.Context) (worker.Report, error)
	Alarm() (alarm.Alarm, bool)
	Refresh()
}

type Server struct {
	store  *store.Store
	router *http.ServeMux
	worker Worker // Inject Worker to trigger Refresh
	now    func() time.Time
}

func NewServer(st *store.Store, w Worker) *Server {
	s := &Server{
		store:  st,
		router: http.NewServeMux(),
		worker: w,
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("GET /api/schedules", s.handleListSchedules)
	s.router.HandleFunc("POST /api/schedules", s.handleCreateSchedule)
	s.router.HandleFunc("DELETE /api/schedules", s.handleDeleteSchedules)
	s.router.HandleFunc("PUT /api/schedules/{id}", s.handleEditSchedule)
	s.router.HandleFunc("DELETE /api/schedules/{id}", s.handleDeleteSchedule)
	s.router.HandleFunc("POST /api/schedules/{id}/toggle", s.handleToggleSchedule)
	s.router.HandleFunc("GET /api/upcoming", s.handleUpcoming)

	s.router.HandleFunc("GET /api/groups", s.handleListGroups)
	s.router.HandleFunc("POST /api/groups", s.handleAddGroup)
	s.router.HandleFunc("PUT /api/groups/{id}", s.handleUpdateGroup)
	s.router.HandleFunc("DELETE /api/groups/{id}", s.handleDeleteGroup)

	s.router.HandleFunc("GET /api/settings", s.handleGetSettings)
	s.router.HandleFunc("PUT /api/settings", s.handleUpdateSettings)
	s.router.HandleFunc("GET /api/stats", s.handleStats)

	s.router.HandleFunc("GET /api/export", s.handleExport)
	s.router.HandleFunc("POST /api/import", s.handleImport)

	s.router.HandleFunc("POST /api/check", s.handleCheck)
	s.router.HandleFunc("GET /api/alarm", s.handleAlarm)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	s.router.ServeHTTP(rec, r)
	log.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", rec.status).
		Dur("took", time.Since(start)).
		Msg("HTTP request")
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

type response struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to write response")
	}
}

func ok(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, response{Success: true, Data: data})
}

func fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
	}
	writeJSON(w, status, response{Success: false, Error: err.Error()})
}

func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case model.IsValidation(err), model.IsMalformedImport(err):
		return http.StatusBadRequest
	case model.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &model.ValidationError{Reason: "request body is not valid JSON: " + err.Error()}
	}
	return nil
}
