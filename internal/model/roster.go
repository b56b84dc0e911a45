package model

import (
	"time"

	"github.com/pzawadzki/grafik/internal/calendar"
)

// Unfilled is the in-band sentinel for a date no eligible doctor could
// cover. Serialized as the legacy "BRAK" marker.
const Unfilled = "BRAK"

// Roster maps every date of a settlement period to exactly one doctor name
// or to Unfilled. Keys are normalized to midnight UTC.
type Roster map[time.Time]string

// DoctorOn returns the assigned doctor for a date ("" when the date is
// outside the roster, Unfilled when no one could cover it).
func (r Roster) DoctorOn(date time.Time) string {
	return r[calendar.Normalize(date)]
}

// Assign records a doctor on a date.
func (r Roster) Assign(date time.Time, doctor string) {
	r[calendar.Normalize(date)] = doctor
}

// Filled counts the dates covered by a real doctor.
func (r Roster) Filled() int {
	n := 0
	for _, doc := range r {
		if doc != "" && doc != Unfilled {
			n++
		}
	}
	return n
}

// DoctorStats holds per-doctor counters over a roster.
type DoctorStats struct {
	Total   int                       `json:"total"`
	ByGroup map[calendar.DayGroup]int `json:"by_group"`
}

// Stats maps doctor name to counters. Counters are kept consistent with
// the roster after every assignment during generation.
type Stats map[string]*DoctorStats

// NewStats initializes zeroed counters for every doctor of the team.
func NewStats(team *Team) Stats {
	s := make(Stats, len(team.Doctors))
	for _, d := range team.Doctors {
		byGroup := make(map[calendar.DayGroup]int, len(calendar.DayGroups))
		for _, g := range calendar.DayGroups {
			byGroup[g] = 0
		}
		s[d.Name] = &DoctorStats{ByGroup: byGroup}
	}
	return s
}

// Record counts one assignment of doctor on date.
func (s Stats) Record(doctor string, date time.Time) {
	ds := s[doctor]
	if ds == nil {
		return
	}
	ds.Total++
	ds.ByGroup[calendar.DayGroupOf(date)]++
}

// DeniedFixed describes a fixed request that lost against another doctor
// claiming the same day.
type DeniedFixed struct {
	Date   time.Time `json:"date"`
	Doctor string    `json:"doctor"`
	Reason string    `json:"reason"`
}
