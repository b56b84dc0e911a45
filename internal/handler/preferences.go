package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	apierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"

	"github.com/pzawadzki/grafik/internal/model"
)

// preferenceEntry is the wire form of one preference record.
type preferenceEntry struct {
	Date   strfmt.Date `json:"date"`
	Doctor string      `json:"doctor,omitempty"`
	Status string      `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

var (
	statusEnum = []any{
		string(model.StatusAvailable),
		string(model.StatusReluctant),
		string(model.StatusFixed),
		string(model.StatusUnavailable),
	}
	reasonEnum = []any{
		string(model.ReasonNone),
		string(model.ReasonVacation),
		string(model.ReasonCourse),
		string(model.ReasonOther),
	}
)

// validateEntry checks one submitted entry against the closed enums.
func validateEntry(idx string, e preferenceEntry) []error {
	var errs []error
	if time.Time(e.Date).IsZero() {
		errs = append(errs, apierrors.Required(idx+".date", "body", nil))
	}
	if e.Status == "" {
		errs = append(errs, apierrors.Required(idx+".status", "body", nil))
	} else if err := validate.Enum(idx+".status", "body", e.Status, statusEnum); err != nil {
		errs = append(errs, err)
	}
	if err := validate.Enum(idx+".reason", "body", e.Reason, reasonEnum); err != nil {
		errs = append(errs, err)
	}
	if e.Reason != "" && e.Status != string(model.StatusUnavailable) {
		errs = append(errs, apierrors.New(422, "%s.reason requires status UNAVAILABLE", idx))
	}
	return errs
}

// listPreferences returns the stored records, optionally filtered to one
// settlement period.
func (h *Handler) listPreferences(w http.ResponseWriter, r *http.Request) {
	year, startMonth, err := periodQuery(r)
	if err != nil {
		h.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	records, err := h.schedule.Preferences(r.Context(), year, startMonth)
	if err != nil {
		h.respondError(w, err)
		return
	}

	entries := make([]preferenceEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, preferenceEntry{
			Date:   strfmt.Date(rec.Date),
			Doctor: rec.Doctor,
			Status: string(rec.Status),
			Reason: string(rec.Reason),
		})
	}
	h.respond(w, http.StatusOK, map[string]any{"records": entries})
}

// replacePreferencesRequest replaces one doctor's records inside a period.
type replacePreferencesRequest struct {
	Year       int               `json:"year"`
	StartMonth int               `json:"start_month"`
	Entries    []preferenceEntry `json:"entries"`
}

func (h *Handler) replacePreferences(w http.ResponseWriter, r *http.Request) {
	doctor := chi.URLParam(r, "doctor")

	var body replacePreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}

	var errs []error
	for i, e := range body.Entries {
		errs = append(errs, validateEntry("entries["+strconv.Itoa(i)+"]", e)...)
	}
	if len(errs) > 0 {
		apierrors.ServeError(w, r, apierrors.CompositeValidationError(errs...))
		return
	}

	entries := make([]model.Preference, 0, len(body.Entries))
	for _, e := range body.Entries {
		entries = append(entries, model.Preference{
			Date:   time.Time(e.Date),
			Doctor: doctor,
			Status: model.PrefStatus(e.Status),
			Reason: model.AbsenceReason(e.Reason),
		})
	}

	if err := h.schedule.ReplaceDoctorPeriod(r.Context(), doctor, body.Year, body.StartMonth, entries); err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, map[string]string{"status": "saved"})
}

// suggestedLimits computes the target-limit table for a period.
func (h *Handler) suggestedLimits(w http.ResponseWriter, r *http.Request) {
	year, startMonth, err := periodQuery(r)
	if err != nil {
		h.respond(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	suggestion, err := h.schedule.SuggestedLimits(r.Context(), year, startMonth)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, suggestion)
}
