package model

// DailyCell labels one (date, doctor) cell of the daily-duty timetable.
type DailyCell string

const (
	// CellOnCall24h is a 24-hour duty shift.
	CellOnCall24h DailyCell = "ON_CALL_24H"
	// CellPostCallOff is the mandated rest day after a 24-hour duty.
	CellPostCallOff DailyCell = "POST_CALL_OFF"
	// CellWeekendOff is a free red day (weekend or holiday).
	CellWeekendOff DailyCell = "WEEKEND_OFF"
	// CellSatRuleOff is the compensatory Monday off after a Saturday duty.
	CellSatRuleOff DailyCell = "SAT_RULE_OFF"
	// CellLeave is a vacation day; counts one daily norm toward hours.
	CellLeave DailyCell = "LEAVE"
	// CellCourse is a training day; counts one daily norm toward hours.
	CellCourse DailyCell = "COURSE"
	// CellCapOff is a day forced off to respect the 48-hour weekly cap.
	CellCapOff DailyCell = "CAP_OFF"
	// CellStandardDay is a regular 7:30-15:05 shift (7 h 35 min).
	CellStandardDay DailyCell = "STANDARD_DAY"
	// CellUnassigned is internal to the timetable engine and never
	// survives it.
	CellUnassigned DailyCell = "UNASSIGNED"
)

// Shift length constants, in minutes.
const (
	// NormMinutes is the standard-day norm of 7 h 35 min.
	NormMinutes = 7*60 + 35
	// OnCallMinutes is the full 24-hour duty.
	OnCallMinutes = 24 * 60
	// WeeklyCapMinutes is the labour-code 48-hour weekly limit applied to
	// no-optout doctors.
	WeeklyCapMinutes = 48 * 60
)

// CountsTowardHours reports whether a cell adds to the weekly hour total.
func (c DailyCell) CountsTowardHours() bool {
	switch c {
	case CellOnCall24h, CellLeave, CellCourse, CellStandardDay:
		return true
	}
	return false
}

// Minutes returns the cell's contribution to the weekly hour counter.
func (c DailyCell) Minutes() int {
	switch c {
	case CellOnCall24h:
		return OnCallMinutes
	case CellLeave, CellCourse, CellStandardDay:
		return NormMinutes
	}
	return 0
}
