package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pzawadzki/grafik/internal/model"
	"github.com/pzawadzki/grafik/internal/store"
)

type recorderMock struct {
	mock.Mock
}

func (m *recorderMock) SaveRun(ctx context.Context, run *store.ScheduleRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func newTestService(t *testing.T) (*ScheduleService, store.PreferenceStore) {
	t.Helper()
	s := store.NewCSVStore(filepath.Join(t.TempDir(), "data.csv"))
	return NewScheduleService(s, testTeam(), zerolog.Nop()), s
}

func TestValidatePeriod(t *testing.T) {
	assert.NoError(t, ValidatePeriod(2026, 1))
	assert.NoError(t, ValidatePeriod(2026, 11))
	assert.ErrorIs(t, ValidatePeriod(2026, 2), ErrEvenStartMonth)
	assert.ErrorIs(t, ValidatePeriod(2026, 12), ErrEvenStartMonth)
	assert.ErrorIs(t, ValidatePeriod(2026, 0), ErrEvenStartMonth)
	assert.ErrorIs(t, ValidatePeriod(1999, 1), ErrYearOutOfRange)
	assert.ErrorIs(t, ValidatePeriod(2101, 1), ErrYearOutOfRange)
}

func TestPreferences_PeriodFilter(t *testing.T) {
	ctx := context.Background()
	svc, prefStore := newTestService(t)

	require.NoError(t, prefStore.Save(ctx, []model.Preference{
		{Date: testDate(2026, 1, 5), Doctor: "Filip", Status: model.StatusAvailable},
		{Date: testDate(2026, 3, 5), Doctor: "Filip", Status: model.StatusReluctant},
	}))

	all, err := svc.Preferences(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	janFeb, err := svc.Preferences(ctx, 2026, 1)
	require.NoError(t, err)
	require.Len(t, janFeb, 1)
	assert.Equal(t, testDate(2026, 1, 5), janFeb[0].Date)

	_, err = svc.Preferences(ctx, 2026, 4)
	assert.ErrorIs(t, err, ErrEvenStartMonth)
}

func TestReplaceDoctorPeriod(t *testing.T) {
	ctx := context.Background()
	svc, prefStore := newTestService(t)

	require.NoError(t, prefStore.Save(ctx, []model.Preference{
		{Date: testDate(2026, 1, 5), Doctor: "Filip", Status: model.StatusAvailable},
		{Date: testDate(2026, 1, 6), Doctor: "Ihab", Status: model.StatusReluctant},
		{Date: testDate(2026, 3, 5), Doctor: "Filip", Status: model.StatusReluctant},
	}))

	err := svc.ReplaceDoctorPeriod(ctx, "Filip", 2026, 1, []model.Preference{
		{Date: testDate(2026, 2, 10), Status: model.StatusUnavailable, Reason: model.ReasonVacation},
	})
	require.NoError(t, err)

	records, err := prefStore.Load(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)

	prefs := model.ProjectPreferences(records)
	// Filip's old Jan-Feb record is gone, the new one is in, everything
	// else survived.
	_, ok := prefs.Get(testDate(2026, 1, 5), "Filip")
	assert.False(t, ok)
	assert.Equal(t, model.StatusUnavailable, prefs.StatusOf(testDate(2026, 2, 10), "Filip"))
	assert.Equal(t, model.StatusReluctant, prefs.StatusOf(testDate(2026, 1, 6), "Ihab"))
	assert.Equal(t, model.StatusReluctant, prefs.StatusOf(testDate(2026, 3, 5), "Filip"))
}

func TestReplaceDoctorPeriod_Rejections(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	err := svc.ReplaceDoctorPeriod(ctx, "Nobody", 2026, 1, nil)
	assert.ErrorIs(t, err, ErrUnknownDoctor)

	err = svc.ReplaceDoctorPeriod(ctx, "Filip", 2026, 1, []model.Preference{
		{Date: testDate(2026, 3, 1), Status: model.StatusAvailable},
	})
	assert.ErrorIs(t, err, ErrDateOutOfPeriod)
}

func TestGenerateSchedule_EndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	team := testTeam()

	seed := int64(99)
	out, err := svc.GenerateSchedule(ctx, ScheduleInput{
		Year:         2026,
		StartMonth:   1,
		TargetLimits: rotationLimits(team, 12),
		Trials:       20,
		Seed:         &seed,
	})
	require.NoError(t, err)

	assert.Equal(t, seed, out.Seed)
	require.Len(t, out.Days, 59)
	assert.Equal(t, "Czw (Nowy Rok)", out.Days[0].Description)
	assert.True(t, out.Days[0].RedDay)

	require.NotNil(t, out.OnCall)
	assert.Equal(t, 59, out.OnCall.Roster.Filled())
	require.NotNil(t, out.Timetable)
	assert.Len(t, out.Timetable.Cells, 59)
}

func TestGenerateSchedule_RecordsRun(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	team := testTeam()

	runs := &recorderMock{}
	runs.On("SaveRun", mock.Anything, mock.AnythingOfType("*store.ScheduleRun")).Return(nil)
	svc.SetRunRecorder(runs)

	seed := int64(5)
	out, err := svc.GenerateSchedule(ctx, ScheduleInput{
		Year:         2026,
		StartMonth:   3,
		TargetLimits: rotationLimits(team, 12),
		Trials:       10,
		Seed:         &seed,
	})
	require.NoError(t, err)

	runs.AssertNumberOfCalls(t, "SaveRun", 1)
	run := runs.Calls[0].Arguments.Get(1).(*store.ScheduleRun)
	assert.Equal(t, out.RunID, run.ID)
	assert.Equal(t, 2026, run.Year)
	assert.Equal(t, 3, run.StartMonth)
	assert.Equal(t, seed, run.Seed)
	assert.Equal(t, out.OnCall.Score, run.Score)
	assert.NotEmpty(t, run.Roster)
}

func TestGenerateSchedule_DefaultsApplied(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	team := testTeam()
	svc.SetEngineDefaults(4, time.Minute)

	seed := int64(1)
	out, err := svc.GenerateSchedule(ctx, ScheduleInput{
		Year:         2026,
		StartMonth:   5,
		TargetLimits: rotationLimits(team, 12),
		Seed:         &seed,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, out.OnCall.Trials)
}

func TestGenerateSchedule_BadPeriod(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.GenerateSchedule(context.Background(), ScheduleInput{Year: 2026, StartMonth: 6})
	assert.ErrorIs(t, err, ErrEvenStartMonth)
}
