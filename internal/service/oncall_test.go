package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pzawadzki/grafik/internal/calculation"
	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

func testDate(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func testTeam() *model.Team {
	return &model.Team{Doctors: []model.Doctor{
		{Name: "Gerard", Role: model.RoleFixed},
		{Name: "Tomasz", Role: model.RoleFixed},
		{Name: "Jędrzej", Role: model.RoleRotation, NoOptout: true},
		{Name: "Filip", Role: model.RoleRotation, NoOptout: true},
		{Name: "Ihab", Role: model.RoleRotation, NoOptout: true},
		{Name: "Kacper", Role: model.RoleRotation, NoOptout: true, SaturdayRule: true},
		{Name: "Jakub", Role: model.RoleRotation, NoOptout: true},
		{Name: "Tymoteusz", Role: model.RoleRotation, NoOptout: true},
	}}
}

func rotationLimits(team *model.Team, n int) map[string]int {
	limits := make(map[string]int)
	for _, doc := range team.Rotation() {
		limits[doc.Name] = n
	}
	return limits
}

func TestGenerate_FullPeriodInvariants(t *testing.T) {
	team := testTeam()
	engine := NewOnCallEngine(team, zerolog.Nop())
	dates := calendar.PeriodDates(2026, 1) // 59 days

	prefs := model.ProjectPreferences([]model.Preference{
		{Date: testDate(2026, 1, 15), Doctor: "Gerard", Status: model.StatusFixed},
		{Date: testDate(2026, 1, 20), Doctor: "Filip", Status: model.StatusUnavailable, Reason: model.ReasonVacation},
		{Date: testDate(2026, 1, 21), Doctor: "Filip", Status: model.StatusUnavailable, Reason: model.ReasonVacation},
		{Date: testDate(2026, 1, 22), Doctor: "Filip", Status: model.StatusUnavailable, Reason: model.ReasonVacation},
		{Date: testDate(2026, 2, 14), Doctor: "Ihab", Status: model.StatusUnavailable, Reason: model.ReasonOther},
	})

	res, err := engine.Generate(OnCallRequest{
		Dates:        dates,
		Prefs:        prefs,
		TargetLimits: rotationLimits(team, 12),
		PreviousTail: "Filip",
		Trials:       50,
		Seed:         42,
	})
	require.NoError(t, err)
	require.Equal(t, 50, res.Trials)

	// Every day holds exactly one doctor; nothing left unfilled.
	require.Equal(t, len(dates), res.Roster.Filled())
	for _, d := range dates {
		assert.NotEqual(t, model.Unfilled, res.Roster.DoctorOn(d), "%s", d.Format("2006-01-02"))
	}

	// Fixed claim honored.
	assert.Equal(t, "Gerard", res.Roster.DoctorOn(testDate(2026, 1, 15)))

	// Rest rules: no back-to-back duty, and the previous-period tail blocks
	// the first day.
	assert.NotEqual(t, "Filip", res.Roster.DoctorOn(dates[0]))
	for i := 1; i < len(dates); i++ {
		assert.NotEqual(t, res.Roster.DoctorOn(dates[i-1]), res.Roster.DoctorOn(dates[i]),
			"back-to-back duty on %s", dates[i].Format("2006-01-02"))
	}

	// Unavailability and pre-leave: Filip is off 20-22 and also the 19th
	// (leave starts the next morning); INNE does not pre-block the 13th.
	for day := 19; day <= 22; day++ {
		assert.NotEqual(t, "Filip", res.Roster.DoctorOn(testDate(2026, 1, day)), "day %d", day)
	}
	assert.NotEqual(t, "Ihab", res.Roster.DoctorOn(testDate(2026, 2, 14)))

	// Target limits and the two-per-week cap.
	weekly := make(calculation.WeeklyCounts)
	totals := make(map[string]int)
	for _, d := range dates {
		doc := res.Roster.DoctorOn(d)
		totals[doc]++
		weekly.Bump(d, dates[0], doc)
	}
	for _, doc := range team.Rotation() {
		assert.LessOrEqual(t, totals[doc.Name], 12, "target limit for %s", doc.Name)
		assert.Equal(t, totals[doc.Name], res.Stats[doc.Name].Total, "stats drift for %s", doc.Name)
	}
	for _, d := range dates {
		doc := res.Roster.DoctorOn(d)
		if doc == "Gerard" {
			continue
		}
		assert.LessOrEqual(t, weekly.Count(d, dates[0], doc), 2, "weekly cap for %s", doc)
	}

	// Saturday rule: a flagged doctor never works the Monday after their
	// Saturday duty.
	for _, d := range dates {
		if d.Weekday() != time.Saturday || res.Roster.DoctorOn(d) != "Kacper" {
			continue
		}
		assert.NotEqual(t, "Kacper", res.Roster.DoctorOn(d.AddDate(0, 0, 2)),
			"Monday after Saturday %s", d.Format("2006-01-02"))
	}
}

func TestGenerate_Reproducible(t *testing.T) {
	team := testTeam()
	engine := NewOnCallEngine(team, zerolog.Nop())
	req := OnCallRequest{
		Dates:        calendar.PeriodDates(2026, 3),
		Prefs:        model.ProjectPreferences(nil),
		TargetLimits: rotationLimits(team, 12),
		Trials:       20,
		Seed:         7,
	}

	a, err := engine.Generate(req)
	require.NoError(t, err)
	b, err := engine.Generate(req)
	require.NoError(t, err)

	assert.Equal(t, a.Roster, b.Roster)
	assert.Equal(t, a.Score, b.Score)
	assert.Equal(t, a.Stats, b.Stats)
}

func TestGenerate_FixedConflicts(t *testing.T) {
	team := testTeam()
	engine := NewOnCallEngine(team, zerolog.Nop())
	d := testDate(2026, 1, 7)

	prefs := model.ProjectPreferences([]model.Preference{
		{Date: d, Doctor: "Gerard", Status: model.StatusFixed},
		{Date: d, Doctor: "Tomasz", Status: model.StatusFixed},
		{Date: d, Doctor: "Filip", Status: model.StatusFixed},
	})

	res, err := engine.Generate(OnCallRequest{
		Dates:        calendar.PeriodDates(2026, 1)[:14],
		Prefs:        prefs,
		TargetLimits: rotationLimits(team, 5),
		Trials:       5,
		Seed:         1,
	})
	require.NoError(t, err)

	// First fixed doctor in roster order wins; everyone else is denied.
	assert.Equal(t, "Gerard", res.Roster.DoctorOn(d))
	require.Len(t, res.DeniedFixed, 2)
	for _, den := range res.DeniedFixed {
		assert.True(t, den.Date.Equal(d))
		assert.Equal(t, "conflict with Gerard", den.Reason)
	}
}

func TestGenerate_RotationFixedClaimWins(t *testing.T) {
	team := testTeam()
	engine := NewOnCallEngine(team, zerolog.Nop())
	d := testDate(2026, 1, 7)

	prefs := model.ProjectPreferences([]model.Preference{
		{Date: d, Doctor: "Jakub", Status: model.StatusFixed},
	})

	res, err := engine.Generate(OnCallRequest{
		Dates:        calendar.PeriodDates(2026, 1)[:14],
		Prefs:        prefs,
		TargetLimits: rotationLimits(team, 5),
		Trials:       5,
		Seed:         1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jakub", res.Roster.DoctorOn(d))
	assert.Empty(t, res.DeniedFixed)
}

func TestGenerate_UnfillableDayReportsRejections(t *testing.T) {
	team := testTeam()
	engine := NewOnCallEngine(team, zerolog.Nop())
	dates := calendar.PeriodDates(2026, 1)[:7]
	blocked := testDate(2026, 1, 4)

	var records []model.Preference
	for _, doc := range team.Rotation() {
		records = append(records, model.Preference{
			Date: blocked, Doctor: doc.Name,
			Status: model.StatusUnavailable, Reason: model.ReasonOther,
		})
	}

	res, err := engine.Generate(OnCallRequest{
		Dates:        dates,
		Prefs:        model.ProjectPreferences(records),
		TargetLimits: rotationLimits(team, 5),
		Trials:       3,
		Seed:         1,
	})
	require.NoError(t, err)

	assert.Equal(t, model.Unfilled, res.Roster.DoctorOn(blocked))
	assert.Equal(t, len(dates)-1, res.Roster.Filled())

	rejects := res.Rejections[blocked]
	require.Len(t, rejects, len(team.Rotation()))
	for _, doc := range team.Rotation() {
		assert.Equal(t, calculation.RejectUnavailable, rejects[doc.Name])
	}
}

func TestGenerate_InputValidation(t *testing.T) {
	team := testTeam()
	engine := NewOnCallEngine(team, zerolog.Nop())

	_, err := engine.Generate(OnCallRequest{})
	assert.ErrorIs(t, err, ErrEmptyPeriod)

	_, err = engine.Generate(OnCallRequest{
		Dates: []time.Time{testDate(2026, 1, 1), testDate(2026, 1, 3)},
	})
	assert.ErrorIs(t, err, ErrNonContiguousDates)

	_, err = engine.Generate(OnCallRequest{
		Dates:        []time.Time{testDate(2026, 1, 1)},
		TargetLimits: map[string]int{"Nobody": 3},
	})
	assert.ErrorIs(t, err, ErrUnknownDoctor)
}
