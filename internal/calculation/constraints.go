// Package calculation holds the pure functions shared by both engines:
// the hard-filter evaluator for (date, doctor) pairs and the scoring of
// candidates and complete rosters. Nothing here performs I/O or owns
// mutable state.
package calculation

import (
	"time"

	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

// RejectTag is the short diagnostic code recorded when a hard filter
// rejects a doctor for a date.
type RejectTag string

const (
	// RejectLimit: the doctor already reached the period target limit.
	RejectLimit RejectTag = "LIM"
	// RejectUnavailable: the doctor declared the date UNAVAILABLE.
	RejectUnavailable RejectTag = "ND"
	// RejectRestPrev: on call the day before (or the previous-period tail).
	RejectRestPrev RejectTag = "REST_PREV"
	// RejectRestNext: already on call the day after.
	RejectRestNext RejectTag = "REST_NEXT"
	// RejectPreLeave: a vacation or course starts the next day.
	RejectPreLeave RejectTag = "PRE_LEAVE"
	// RejectWeekCap: two on-calls already held in this settlement week.
	RejectWeekCap RejectTag = "WEEK_CAP"
	// RejectSaturdayMonday: Monday blocked by the Saturday rule.
	RejectSaturdayMonday RejectTag = "SAT_MON"
)

// WeeklyCounts tracks per-doctor on-call counts per settlement-week index.
type WeeklyCounts map[int]map[string]int

// Bump counts one on-call for doctor in the week of date.
func (w WeeklyCounts) Bump(date, periodStart time.Time, doctor string) {
	wk := calendar.WeekKey(date, periodStart)
	if w[wk] == nil {
		w[wk] = make(map[string]int)
	}
	w[wk][doctor]++
}

// Count returns the doctor's on-call count in the week of date.
func (w WeeklyCounts) Count(date, periodStart time.Time, doctor string) int {
	return w[calendar.WeekKey(date, periodStart)][doctor]
}

// maxWeeklyOnCalls is the per-week on-call cap for no-optout doctors.
const maxWeeklyOnCalls = 2

// DayContext is the running generation state a hard-filter decision
// depends on. All referenced structures belong to a single trial.
type DayContext struct {
	Date         time.Time
	PeriodStart  time.Time
	Roster       model.Roster
	Stats        model.Stats
	Weekly       WeeklyCounts
	Prefs        model.PrefMap
	TargetLimits map[string]int
	// PreviousTail names whoever was on call the day before the period
	// started ("" when unknown).
	PreviousTail string
}

// Evaluate applies the hard filters to a rotation candidate. It returns
// ok=true when every rule holds, otherwise the tag of the first rule that
// rejected the doctor.
func Evaluate(ctx DayContext, doc model.Doctor) (RejectTag, bool) {
	d := calendar.Normalize(ctx.Date)
	prev := d.AddDate(0, 0, -1)
	next := d.AddDate(0, 0, 1)

	if ctx.Stats[doc.Name] != nil && ctx.Stats[doc.Name].Total >= ctx.TargetLimits[doc.Name] {
		return RejectLimit, false
	}

	if ctx.Prefs.IsUnavailable(d, doc.Name) {
		return RejectUnavailable, false
	}

	if ctx.Roster.DoctorOn(prev) == doc.Name {
		return RejectRestPrev, false
	}
	if prev.Before(calendar.Normalize(ctx.PeriodStart)) && ctx.PreviousTail == doc.Name {
		return RejectRestPrev, false
	}

	if ctx.Roster.DoctorOn(next) == doc.Name {
		return RejectRestNext, false
	}

	if ctx.Prefs.IsPreLeave(next, doc.Name) {
		return RejectPreLeave, false
	}

	if doc.NoOptout && ctx.Weekly.Count(d, ctx.PeriodStart, doc.Name) >= maxWeeklyOnCalls {
		return RejectWeekCap, false
	}

	if doc.SaturdayRule && d.Weekday() == time.Monday {
		if ctx.Roster.DoctorOn(d.AddDate(0, 0, -2)) == doc.Name {
			return RejectSaturdayMonday, false
		}
	}

	return "", true
}
