package model

import (
	"fmt"
	"time"

	"github.com/pzawadzki/grafik/internal/calendar"
)

// PrefStatus is a doctor's declared stance on a single date.
type PrefStatus string

const (
	StatusAvailable   PrefStatus = "AVAILABLE"
	StatusReluctant   PrefStatus = "RELUCTANT"
	StatusFixed       PrefStatus = "FIXED"
	StatusUnavailable PrefStatus = "UNAVAILABLE"
)

// AbsenceReason qualifies an UNAVAILABLE record. Empty otherwise.
type AbsenceReason string

const (
	ReasonNone     AbsenceReason = ""
	ReasonVacation AbsenceReason = "URLOP"
	ReasonCourse   AbsenceReason = "KURS"
	ReasonOther    AbsenceReason = "INNE"
)

// Legacy wire values: the persisted table keeps the Polish status strings
// written by the legacy availability sheet.
const (
	wireAvailable   = "Chcę dyżur (Dostępny)"
	wireReluctant   = "Mogę (Niechętnie)"
	wireFixed       = "Sztywny Dyżur (Już ustalony)"
	wireUnavailable = "Niedostępny"
)

// WireStatus renders a status in the persisted (legacy) form.
func (s PrefStatus) WireStatus() string {
	switch s {
	case StatusAvailable:
		return wireAvailable
	case StatusReluctant:
		return wireReluctant
	case StatusFixed:
		return wireFixed
	case StatusUnavailable:
		return wireUnavailable
	}
	return string(s)
}

// ParseWireStatus parses a persisted status string. It accepts both the
// legacy Polish values and the enum names.
func ParseWireStatus(s string) (PrefStatus, error) {
	switch s {
	case wireAvailable, string(StatusAvailable):
		return StatusAvailable, nil
	case wireReluctant, string(StatusReluctant):
		return StatusReluctant, nil
	case wireFixed, string(StatusFixed):
		return StatusFixed, nil
	case wireUnavailable, string(StatusUnavailable):
		return StatusUnavailable, nil
	}
	return "", fmt.Errorf("unknown preference status %q", s)
}

// ParseReason parses a persisted reason string ("" means no reason).
func ParseReason(s string) (AbsenceReason, error) {
	switch AbsenceReason(s) {
	case ReasonNone, ReasonVacation, ReasonCourse, ReasonOther:
		return AbsenceReason(s), nil
	}
	return ReasonNone, fmt.Errorf("unknown absence reason %q", s)
}

// Preference is one declared (date, doctor) record.
type Preference struct {
	Date   time.Time
	Doctor string
	Status PrefStatus
	Reason AbsenceReason // meaningful only with StatusUnavailable
}

// PrefEntry is the projected per-(date, doctor) view consumed by the
// engines.
type PrefEntry struct {
	Status PrefStatus
	Reason AbsenceReason
}

// PrefMap is the fast lookup projection of the preference table, keyed by
// normalized date then doctor name. At most one entry per key pair; later
// records overwrite earlier ones, matching the full-overwrite store model.
type PrefMap map[time.Time]map[string]PrefEntry

// ProjectPreferences builds a PrefMap from raw records.
func ProjectPreferences(records []Preference) PrefMap {
	m := make(PrefMap)
	for _, r := range records {
		d := calendar.Normalize(r.Date)
		if m[d] == nil {
			m[d] = make(map[string]PrefEntry)
		}
		m[d][r.Doctor] = PrefEntry{Status: r.Status, Reason: r.Reason}
	}
	return m
}

// Get returns the entry for (date, doctor) and whether one exists.
func (m PrefMap) Get(date time.Time, doctor string) (PrefEntry, bool) {
	e, ok := m[calendar.Normalize(date)][doctor]
	return e, ok
}

// StatusOf returns the declared status, defaulting to AVAILABLE when no
// record exists (the pinned "would serve" default).
func (m PrefMap) StatusOf(date time.Time, doctor string) PrefStatus {
	if e, ok := m.Get(date, doctor); ok {
		return e.Status
	}
	return StatusAvailable
}

// IsUnavailable reports whether the doctor declared the date UNAVAILABLE.
func (m PrefMap) IsUnavailable(date time.Time, doctor string) bool {
	e, ok := m.Get(date, doctor)
	return ok && e.Status == StatusUnavailable
}

// IsPreLeave reports whether the doctor is about to start a vacation or a
// course on the given date. An on-call is never placed on the day before.
func (m PrefMap) IsPreLeave(date time.Time, doctor string) bool {
	e, ok := m.Get(date, doctor)
	if !ok || e.Status != StatusUnavailable {
		return false
	}
	return e.Reason == ReasonVacation || e.Reason == ReasonCourse
}
