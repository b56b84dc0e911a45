package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
	"github.com/pzawadzki/grafik/internal/store"
)

// Period and preference input errors.
var (
	ErrEvenStartMonth  = errors.New("settlement period must start on an odd month")
	ErrYearOutOfRange  = errors.New("year out of range")
	ErrDateOutOfPeriod = errors.New("date outside the settlement period")
)

// runRecorder persists accepted schedule runs. Optional.
type runRecorder interface {
	SaveRun(ctx context.Context, run *store.ScheduleRun) error
}

// ScheduleService wires the preference store, the calendar and the two
// engines together.
type ScheduleService struct {
	prefStore store.PreferenceStore
	runs      runRecorder
	oncall    *OnCallEngine
	timetable *TimetableEngine
	team      *model.Team
	log       zerolog.Logger

	defaultTrials int
	defaultBudget time.Duration
}

// NewScheduleService creates the orchestration service.
func NewScheduleService(prefStore store.PreferenceStore, team *model.Team, log zerolog.Logger) *ScheduleService {
	return &ScheduleService{
		prefStore: prefStore,
		oncall:    NewOnCallEngine(team, log),
		timetable: NewTimetableEngine(team, log),
		team:      team,
		log:       log,
	}
}

// SetRunRecorder enables schedule-run persistence.
func (s *ScheduleService) SetRunRecorder(runs runRecorder) {
	s.runs = runs
}

// SetEngineDefaults sets the trial count and wall-clock budget used when a
// request does not specify its own.
func (s *ScheduleService) SetEngineDefaults(trials int, budget time.Duration) {
	s.defaultTrials = trials
	s.defaultBudget = budget
}

// ValidatePeriod checks a (year, start month) pair.
func ValidatePeriod(year, startMonth int) error {
	if year < 2000 || year > 2100 {
		return fmt.Errorf("%w: %d", ErrYearOutOfRange, year)
	}
	if startMonth < 1 || startMonth > 11 || startMonth%2 == 0 {
		return fmt.Errorf("%w: month %d", ErrEvenStartMonth, startMonth)
	}
	return nil
}

// loadPreferences reads the table; a load failure degrades to an empty
// record set so scheduling still produces a valid, if sparse, result.
func (s *ScheduleService) loadPreferences(ctx context.Context) []model.Preference {
	records, err := s.prefStore.Load(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("preference load failed; continuing with empty table")
		return nil
	}
	return records
}

// Preferences returns the stored records, filtered to a settlement period
// when year and startMonth are non-zero.
func (s *ScheduleService) Preferences(ctx context.Context, year, startMonth int) ([]model.Preference, error) {
	if year == 0 && startMonth == 0 {
		return s.loadPreferences(ctx), nil
	}
	if err := ValidatePeriod(year, startMonth); err != nil {
		return nil, err
	}

	inPeriod := make(map[time.Time]bool)
	for _, d := range calendar.PeriodDates(year, startMonth) {
		inPeriod[d] = true
	}

	var out []model.Preference
	for _, r := range s.loadPreferences(ctx) {
		if inPeriod[calendar.Normalize(r.Date)] {
			out = append(out, r)
		}
	}
	return out, nil
}

// ReplaceDoctorPeriod swaps one doctor's records inside a settlement
// period for the given entries, leaving every other row untouched, then
// overwrites the whole table atomically.
func (s *ScheduleService) ReplaceDoctorPeriod(ctx context.Context, doctor string, year, startMonth int, entries []model.Preference) error {
	if err := ValidatePeriod(year, startMonth); err != nil {
		return err
	}
	if _, ok := s.team.ByName(doctor); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDoctor, doctor)
	}

	inPeriod := make(map[time.Time]bool)
	for _, d := range calendar.PeriodDates(year, startMonth) {
		inPeriod[d] = true
	}
	for _, e := range entries {
		if !inPeriod[calendar.Normalize(e.Date)] {
			return fmt.Errorf("%w: %s", ErrDateOutOfPeriod, e.Date.Format("2006-01-02"))
		}
	}

	var kept []model.Preference
	for _, r := range s.loadPreferences(ctx) {
		if r.Doctor == doctor && inPeriod[calendar.Normalize(r.Date)] {
			continue
		}
		kept = append(kept, r)
	}
	for _, e := range entries {
		e.Doctor = doctor
		e.Date = calendar.Normalize(e.Date)
		kept = append(kept, e)
	}

	return s.prefStore.Save(ctx, kept)
}

// SuggestedLimits computes the target-limit table for a period (§ limit
// calculator) from the stored fixed declarations.
func (s *ScheduleService) SuggestedLimits(ctx context.Context, year, startMonth int) (*LimitSuggestion, error) {
	if err := ValidatePeriod(year, startMonth); err != nil {
		return nil, err
	}
	dates := calendar.PeriodDates(year, startMonth)
	prefs := model.ProjectPreferences(s.loadPreferences(ctx))
	suggestion := SuggestLimits(s.team, dates, prefs)
	return &suggestion, nil
}

// ScheduleInput is one generation request as the shell hands it over.
type ScheduleInput struct {
	Year         int
	StartMonth   int
	TargetLimits map[string]int
	PreviousTail string
	Trials       int
	Seed         *int64 // nil: derive from wall clock
	Budget       time.Duration
}

// DayInfo annotates one period date for rendering.
type DayInfo struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	RedDay      bool      `json:"red_day"`
}

// ScheduleOutput bundles both engine results.
type ScheduleOutput struct {
	RunID     uuid.UUID        `json:"run_id"`
	Seed      int64            `json:"seed"`
	Days      []DayInfo        `json:"days"`
	OnCall    *OnCallResult    `json:"on_call"`
	Timetable *TimetableResult `json:"timetable"`
}

// GenerateSchedule validates the period, loads preferences, runs the
// on-call engine and expands the winning roster into the daily timetable.
// The run is recorded when a recorder is configured; recording failures
// only log, the schedule itself is still returned.
func (s *ScheduleService) GenerateSchedule(ctx context.Context, input ScheduleInput) (*ScheduleOutput, error) {
	if err := ValidatePeriod(input.Year, input.StartMonth); err != nil {
		return nil, err
	}

	seed := time.Now().UnixNano()
	if input.Seed != nil {
		seed = *input.Seed
	}

	trials := input.Trials
	if trials <= 0 {
		trials = s.defaultTrials
	}
	budget := input.Budget
	if budget == 0 {
		budget = s.defaultBudget
	}

	dates := calendar.PeriodDates(input.Year, input.StartMonth)
	prefs := model.ProjectPreferences(s.loadPreferences(ctx))

	oncall, err := s.oncall.Generate(OnCallRequest{
		Dates:        dates,
		Prefs:        prefs,
		TargetLimits: input.TargetLimits,
		PreviousTail: input.PreviousTail,
		Trials:       trials,
		Seed:         seed,
		Budget:       budget,
	})
	if err != nil {
		return nil, err
	}

	timetable := s.timetable.Build(TimetableRequest{
		Dates:        dates,
		Roster:       oncall.Roster,
		Prefs:        prefs,
		PreviousTail: input.PreviousTail,
	})

	days := make([]DayInfo, len(dates))
	for i, d := range dates {
		days[i] = DayInfo{
			Date:        d,
			Description: calendar.DayDescription(d),
			RedDay:      calendar.IsRedDay(d),
		}
	}

	out := &ScheduleOutput{
		RunID:     uuid.New(),
		Seed:      seed,
		Days:      days,
		OnCall:    oncall,
		Timetable: timetable,
	}

	s.recordRun(ctx, input, out)
	return out, nil
}

func (s *ScheduleService) recordRun(ctx context.Context, input ScheduleInput, out *ScheduleOutput) {
	if s.runs == nil {
		return
	}

	var unfilled pq.StringArray
	for d := range out.OnCall.Rejections {
		unfilled = append(unfilled, d.Format("2006-01-02"))
	}

	run := &store.ScheduleRun{
		ID:            out.RunID,
		Year:          input.Year,
		StartMonth:    input.StartMonth,
		Trials:        out.OnCall.Trials,
		Seed:          out.Seed,
		Score:         out.OnCall.Score,
		UnfilledDates: unfilled,
		Roster:        mustJSON(out.OnCall.Roster),
		Stats:         mustJSON(out.OnCall.Stats),
		DeniedFixed:   mustJSON(out.OnCall.DeniedFixed),
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		s.log.Warn().Err(err).Str("run_id", out.RunID.String()).Msg("schedule run not recorded")
	}
}

func mustJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}
