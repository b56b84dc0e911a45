package service

import (
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

// TimetableEngine expands a finalized on-call roster into per-doctor daily
// cells, week by week, enforcing the 48-hour weekly cap for no-optout
// doctors. The engine is deterministic: same roster and preferences, same
// output.
type TimetableEngine struct {
	team *model.Team
	log  zerolog.Logger
}

// NewTimetableEngine creates an engine for a team.
func NewTimetableEngine(team *model.Team, log zerolog.Logger) *TimetableEngine {
	return &TimetableEngine{team: team, log: log}
}

// TimetableRequest is the input of one expansion run.
type TimetableRequest struct {
	Dates        []time.Time
	Roster       model.Roster
	Prefs        model.PrefMap
	PreviousTail string
}

// TimetableResult is a dense (date, doctor) matrix of daily cells plus
// per-week hour totals for reporting.
type TimetableResult struct {
	// Doctors lists the covered doctors in canonical order. The senior
	// fixed doctor is excluded by policy.
	Doctors []string                                 `json:"doctors"`
	Cells   map[time.Time]map[string]model.DailyCell `json:"cells"`
	// WeeklyHours maps settlement-week index and doctor to committed
	// hours (fractional, the 7 h 35 min norm).
	WeeklyHours map[int]map[string]decimal.Decimal `json:"weekly_hours"`
}

// Build runs passes A (rule-driven labels), B (48-hour cap) and C
// (opt-out fill) over every settlement week of the period.
func (e *TimetableEngine) Build(req TimetableRequest) *TimetableResult {
	doctors := e.coveredDoctors()
	periodStart := calendar.Normalize(req.Dates[0])

	cells := make(map[time.Time]map[string]model.DailyCell, len(req.Dates))
	minutesByWeek := make(map[int]map[string]int)

	for _, week := range splitWeeks(req.Dates, periodStart) {
		docMinutes := make(map[string]int, len(doctors))
		staffCount := make(map[time.Time]int, len(week.dates))

		// Pass A: rule-driven labels.
		for _, d := range week.dates {
			cells[d] = make(map[string]model.DailyCell, len(doctors))
			for _, doc := range doctors {
				cell := e.ruleCell(d, doc, req, periodStart)
				cells[d][doc.Name] = cell
				docMinutes[doc.Name] += cell.Minutes()
				if cell == model.CellUnassigned {
					staffCount[d]++
				}
			}
		}

		// Pass B: 48-hour cap for no-optout doctors.
		for _, doc := range doctors {
			if !doc.NoOptout {
				continue
			}
			e.applyWeeklyCap(doc.Name, week.dates, cells, docMinutes, staffCount)
		}

		// Pass C: everything still unassigned becomes a standard day.
		for _, d := range week.dates {
			for _, doc := range doctors {
				if cells[d][doc.Name] == model.CellUnassigned {
					cells[d][doc.Name] = model.CellStandardDay
					docMinutes[doc.Name] += model.NormMinutes
				}
			}
		}

		minutesByWeek[week.index] = docMinutes
	}

	names := make([]string, len(doctors))
	for i, doc := range doctors {
		names[i] = doc.Name
	}

	return &TimetableResult{
		Doctors:     names,
		Cells:       cells,
		WeeklyHours: toHours(minutesByWeek),
	}
}

// ruleCell applies the Pass A rules in priority order.
func (e *TimetableEngine) ruleCell(d time.Time, doc model.Doctor, req TimetableRequest, periodStart time.Time) model.DailyCell {
	if entry, ok := req.Prefs.Get(d, doc.Name); ok && entry.Status == model.StatusUnavailable {
		switch entry.Reason {
		case model.ReasonVacation:
			return model.CellLeave
		case model.ReasonCourse:
			return model.CellCourse
		}
	}

	if req.Roster.DoctorOn(d) == doc.Name {
		return model.CellOnCall24h
	}

	prev := d.AddDate(0, 0, -1)
	if req.Roster.DoctorOn(prev) == doc.Name {
		return model.CellPostCallOff
	}
	if prev.Before(periodStart) && req.PreviousTail == doc.Name {
		return model.CellPostCallOff
	}

	if calendar.IsRedDay(d) {
		return model.CellWeekendOff
	}

	if doc.SaturdayRule && d.Weekday() == time.Monday &&
		req.Roster.DoctorOn(d.AddDate(0, 0, -2)) == doc.Name {
		return model.CellSatRuleOff
	}

	return model.CellUnassigned
}

// applyWeeklyCap converts a doctor's unassigned days into standard days as
// far as the 48-hour cap allows; the excess is forced off, thinnest-staffed
// days last.
func (e *TimetableEngine) applyWeeklyCap(
	doctor string,
	weekDates []time.Time,
	cells map[time.Time]map[string]model.DailyCell,
	docMinutes map[string]int,
	staffCount map[time.Time]int,
) {
	remaining := model.WeeklyCapMinutes - docMinutes[doctor]
	maxWorkDays := 0
	if remaining > 0 {
		maxWorkDays = remaining / model.NormMinutes
	}

	var unassigned []time.Time
	for _, d := range weekDates {
		if cells[d][doctor] == model.CellUnassigned {
			unassigned = append(unassigned, d)
		}
	}

	if len(unassigned) <= maxWorkDays {
		for _, d := range unassigned {
			cells[d][doctor] = model.CellStandardDay
			docMinutes[doctor] += model.NormMinutes
		}
		return
	}

	// Force off the excess days, dropping the best-staffed days first so
	// thin days keep their coverage. Stable sort keeps date order on ties.
	excess := len(unassigned) - maxWorkDays
	ordered := append([]time.Time(nil), unassigned...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return staffCount[ordered[i]] > staffCount[ordered[j]]
	})

	for i, d := range ordered {
		if i < excess {
			cells[d][doctor] = model.CellCapOff
			staffCount[d]--
		} else {
			cells[d][doctor] = model.CellStandardDay
			docMinutes[doctor] += model.NormMinutes
		}
	}
}

// coveredDoctors returns the timetable population: every doctor except the
// senior fixed one.
func (e *TimetableEngine) coveredDoctors() []model.Doctor {
	senior, hasSenior := e.team.SeniorFixed()
	var out []model.Doctor
	for _, doc := range e.team.Doctors {
		if hasSenior && doc.Name == senior.Name {
			continue
		}
		out = append(out, doc)
	}
	return out
}

type weekSlice struct {
	index int
	dates []time.Time
}

// splitWeeks groups the period dates into settlement weeks, in order.
func splitWeeks(dates []time.Time, periodStart time.Time) []weekSlice {
	var weeks []weekSlice
	for _, d := range dates {
		d = calendar.Normalize(d)
		wk := calendar.WeekKey(d, periodStart)
		if len(weeks) == 0 || weeks[len(weeks)-1].index != wk {
			weeks = append(weeks, weekSlice{index: wk})
		}
		last := &weeks[len(weeks)-1]
		last.dates = append(last.dates, d)
	}
	return weeks
}

// toHours converts per-week minute counters to fractional hours.
func toHours(minutesByWeek map[int]map[string]int) map[int]map[string]decimal.Decimal {
	sixty := decimal.NewFromInt(60)
	out := make(map[int]map[string]decimal.Decimal, len(minutesByWeek))
	for wk, byDoc := range minutesByWeek {
		out[wk] = make(map[string]decimal.Decimal, len(byDoc))
		for doc, minutes := range byDoc {
			out[wk][doc] = decimal.NewFromInt(int64(minutes)).Div(sixty).Round(2)
		}
	}
	return out
}
