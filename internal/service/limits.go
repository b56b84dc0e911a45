package service

import (
	"time"

	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

// LimitSuggestion is the suggested per-doctor target-limit table for a
// period, derived from declared fixed duties. The caller may edit it; the
// engine treats whatever it receives as authoritative.
type LimitSuggestion struct {
	TotalDays    int            `json:"total_days"`
	FixedTotal   int            `json:"fixed_total"`
	RotationPool int            `json:"rotation_pool"`
	FixedCounts  map[string]int `json:"fixed_counts"`
	TargetLimits map[string]int `json:"target_limits"`
}

// SuggestLimits computes target limits the way the planning sheet does:
// fixed doctors get their declared fixed-day count, and the remaining pool
// is split evenly across rotation doctors (remainder to the first doctors
// in canonical order) on top of any fixed days they declared themselves.
func SuggestLimits(team *model.Team, dates []time.Time, prefs model.PrefMap) LimitSuggestion {
	fixedCounts := make(map[string]int, len(team.Doctors))
	for _, doc := range team.Doctors {
		n := 0
		for _, d := range dates {
			if entry, ok := prefs.Get(calendar.Normalize(d), doc.Name); ok && entry.Status == model.StatusFixed {
				n++
			}
		}
		fixedCounts[doc.Name] = n
	}

	fixedTotal := 0
	for _, doc := range team.Fixed() {
		fixedTotal += fixedCounts[doc.Name]
	}

	pool := len(dates) - fixedTotal
	if pool < 0 {
		pool = 0
	}

	rotation := team.Rotation()
	rotationFixed := 0
	for _, doc := range rotation {
		rotationFixed += fixedCounts[doc.Name]
	}
	toRandomize := pool - rotationFixed
	if toRandomize < 0 {
		toRandomize = 0
	}

	targets := make(map[string]int, len(team.Doctors))
	for _, doc := range team.Fixed() {
		targets[doc.Name] = fixedCounts[doc.Name]
	}

	if n := len(rotation); n > 0 {
		base := toRandomize / n
		remainder := toRandomize % n
		for i, doc := range rotation {
			extra := base
			if i < remainder {
				extra++
			}
			targets[doc.Name] = fixedCounts[doc.Name] + extra
		}
	}

	return LimitSuggestion{
		TotalDays:    len(dates),
		FixedTotal:   fixedTotal,
		RotationPool: pool,
		FixedCounts:  fixedCounts,
		TargetLimits: targets,
	}
}
