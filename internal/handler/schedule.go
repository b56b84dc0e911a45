package handler

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/go-openapi/errors"
	"github.com/go-openapi/swag"

	"github.com/pzawadzki/grafik/internal/service"
)

// scheduleRequest is the wire form of one generation request.
type scheduleRequest struct {
	Year         int            `json:"year"`
	StartMonth   int            `json:"start_month"`
	TargetLimits map[string]int `json:"target_limits"`
	PreviousTail string         `json:"previous_tail,omitempty"`
	Trials       *int64         `json:"trials,omitempty"`
	Seed         *int64         `json:"seed,omitempty"`
}

func (h *Handler) generateSchedule(w http.ResponseWriter, r *http.Request) {
	var body scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.respond(w, http.StatusBadRequest, map[string]string{"error": "malformed JSON body"})
		return
	}

	var errs []error
	if body.Year == 0 {
		errs = append(errs, apierrors.Required("year", "body", nil))
	}
	if body.StartMonth == 0 {
		errs = append(errs, apierrors.Required("start_month", "body", nil))
	}
	if len(body.TargetLimits) == 0 {
		errs = append(errs, apierrors.Required("target_limits", "body", nil))
	}
	for name, limit := range body.TargetLimits {
		if limit < 0 {
			errs = append(errs, apierrors.New(422, "target_limits[%s] must not be negative", name))
		}
	}
	if len(errs) > 0 {
		apierrors.ServeError(w, r, apierrors.CompositeValidationError(errs...))
		return
	}

	out, err := h.schedule.GenerateSchedule(r.Context(), service.ScheduleInput{
		Year:         body.Year,
		StartMonth:   body.StartMonth,
		TargetLimits: body.TargetLimits,
		PreviousTail: body.PreviousTail,
		Trials:       int(swag.Int64Value(body.Trials)),
		Seed:         body.Seed,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, out)
}
