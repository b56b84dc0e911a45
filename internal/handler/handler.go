// Package handler exposes the HTTP surface: read and write preferences,
// suggest limits and run the schedule generator. Everything else lives in
// the services; handlers only decode, validate and encode.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/pzawadzki/grafik/internal/service"
	"github.com/pzawadzki/grafik/internal/store"
)

// Handler carries the dependencies of the HTTP surface.
type Handler struct {
	schedule *service.ScheduleService
	log      zerolog.Logger
}

// New creates the handler.
func New(schedule *service.ScheduleService, log zerolog.Logger) *Handler {
	return &Handler{schedule: schedule, log: log}
}

// Router builds the chi router with CORS and request logging.
func (h *Handler) Router(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "PUT", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/preferences", h.listPreferences)
		r.Put("/preferences/{doctor}", h.replacePreferences)
		r.Get("/limits", h.suggestedLimits)
		r.Post("/schedule", h.generateSchedule)
	})
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.log.Error().Err(err).Msg("response encoding failed")
	}
}

// respondError maps service errors onto status codes: invalid input is a
// 400, store failures a 500.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrEvenStartMonth),
		errors.Is(err, service.ErrYearOutOfRange),
		errors.Is(err, service.ErrUnknownDoctor),
		errors.Is(err, service.ErrDateOutOfPeriod),
		errors.Is(err, service.ErrEmptyPeriod),
		errors.Is(err, service.ErrNonContiguousDates):
		status = http.StatusBadRequest
	case errors.Is(err, store.ErrStoreUnavailable):
		status = http.StatusInternalServerError
	}
	h.respond(w, status, map[string]string{"error": err.Error()})
}

// periodQuery parses the optional ?year and ?start_month parameters.
func periodQuery(r *http.Request) (year, startMonth int, err error) {
	if v := r.URL.Query().Get("year"); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("year must be an integer")
		}
	}
	if v := r.URL.Query().Get("start_month"); v != "" {
		if startMonth, err = strconv.Atoi(v); err != nil {
			return 0, 0, errors.New("start_month must be an integer")
		}
	}
	return year, startMonth, nil
}
