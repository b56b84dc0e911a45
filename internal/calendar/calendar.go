// Package calendar is the only place that knows about the civil calendar:
// Polish public holidays, settlement periods, day groups and week keys.
// All functions are pure and total; callers pass explicit dates so tests
// can freeze time.
package calendar

import (
	"time"
)

// DayGroup classifies a date into one of six fairness buckets.
type DayGroup string

const (
	GroupMonday   DayGroup = "monday"
	GroupTueWed   DayGroup = "tue_wed"
	GroupThursday DayGroup = "thursday"
	GroupFriday   DayGroup = "friday"
	GroupSaturday DayGroup = "saturday"
	GroupSunday   DayGroup = "sunday"
)

// DayGroups lists all groups in canonical order.
var DayGroups = []DayGroup{
	GroupMonday, GroupTueWed, GroupThursday, GroupFriday, GroupSaturday, GroupSunday,
}

// EasterDate computes Easter Sunday for a year using the
// Meeus/Jones/Butcher Gregorian algorithm.
func EasterDate(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Holidays returns the Polish public holidays of a year, keyed by date.
func Holidays(year int) map[time.Time]string {
	easter := EasterDate(year)
	easterMonday := easter.AddDate(0, 0, 1)
	pentecost := easter.AddDate(0, 0, 49)
	corpusChristi := easter.AddDate(0, 0, 60)

	return map[time.Time]string{
		date(year, 1, 1):   "Nowy Rok",
		date(year, 1, 6):   "Trzech Króli",
		easter:             "Wielkanoc",
		easterMonday:       "Poniedziałek Wielkanocny",
		date(year, 5, 1):   "Święto Pracy",
		date(year, 5, 3):   "Święto Konstytucji 3 Maja",
		pentecost:          "Zielone Świątki",
		corpusChristi:      "Boże Ciało",
		date(year, 8, 15):  "Wniebowzięcie NMP",
		date(year, 11, 1):  "Wszystkich Świętych",
		date(year, 11, 11): "Święto Niepodległości",
		date(year, 12, 25): "Boże Narodzenie (1)",
		date(year, 12, 26): "Boże Narodzenie (2)",
	}
}

// IsRedDay reports whether a date is a Saturday, a Sunday or a public
// holiday. Red days never disable scheduling rules; they only drive the
// weekend/holiday cells of the daily timetable.
func IsRedDay(d time.Time) bool {
	wd := d.Weekday()
	if wd == time.Saturday || wd == time.Sunday {
		return true
	}
	_, ok := Holidays(d.Year())[Normalize(d)]
	return ok
}

// DayGroupOf maps a date to its fairness bucket. Holidays do not override
// the group.
func DayGroupOf(d time.Time) DayGroup {
	switch d.Weekday() {
	case time.Monday:
		return GroupMonday
	case time.Tuesday, time.Wednesday:
		return GroupTueWed
	case time.Thursday:
		return GroupThursday
	case time.Friday:
		return GroupFriday
	case time.Saturday:
		return GroupSaturday
	default:
		return GroupSunday
	}
}

// PeriodStart resolves the settlement-period start for any (year, month):
// the first day of the month itself when odd, otherwise of the month before.
func PeriodStart(year, month int) time.Time {
	start := month
	if month%2 == 0 {
		start = month - 1
	}
	return date(year, start, 1)
}

// PeriodDates expands a settlement period into its ordered dates. Periods
// span two calendar months; the November period ends with December.
func PeriodDates(year, startMonth int) []time.Time {
	var dates []time.Time
	for m := startMonth; m <= startMonth+1 && m <= 12; m++ {
		days := daysInMonth(year, m)
		for d := 1; d <= days; d++ {
			dates = append(dates, date(year, m, d))
		}
	}
	return dates
}

// WeekKey returns the zero-based settlement-week index of a date. Weeks are
// seven-day windows counted from the period start and may cross month
// boundaries.
func WeekKey(d, periodStart time.Time) int {
	days := int(Normalize(d).Sub(Normalize(periodStart)).Hours() / 24)
	return days / 7
}

// DayDescription renders a short label for a date: the Polish weekday
// abbreviation, plus the holiday name on holidays.
func DayDescription(d time.Time) string {
	names := []string{"Niedz", "Pon", "Wt", "Śr", "Czw", "Pt", "Sob"}
	label := names[int(d.Weekday())]
	if name, ok := Holidays(d.Year())[Normalize(d)]; ok {
		return label + " (" + name + ")"
	}
	return label
}

// Normalize strips time components, keeping only the date at midnight UTC.
func Normalize(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

func date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
