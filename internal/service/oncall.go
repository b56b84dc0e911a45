package service

import (
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pzawadzki/grafik/internal/calculation"
	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

// Engine input errors. Everything else the engine reports in-band: an
// empty candidate set produces an Unfilled slot, never an error.
var (
	ErrEmptyPeriod        = errors.New("period contains no dates")
	ErrNonContiguousDates = errors.New("period dates must be contiguous")
	ErrUnknownDoctor      = errors.New("target limits name a doctor outside the team")
)

// DefaultTrials is the number of randomized trials when the caller does
// not ask for a specific count. The trial count is the only user-visible
// quality knob.
const DefaultTrials = 500

// OnCallEngine assigns exactly one doctor to every day of a settlement
// period by running N independent randomized trials and keeping the
// best-scoring roster.
type OnCallEngine struct {
	team *model.Team
	log  zerolog.Logger
}

// NewOnCallEngine creates an engine for a team.
func NewOnCallEngine(team *model.Team, log zerolog.Logger) *OnCallEngine {
	return &OnCallEngine{team: team, log: log}
}

// OnCallRequest carries everything one generation run depends on. The
// engine reads no ambient state; the same request and seed always produce
// the same result.
type OnCallRequest struct {
	Dates        []time.Time
	Prefs        model.PrefMap
	TargetLimits map[string]int
	// PreviousTail is whoever was on call the day before Dates[0]
	// ("" when unknown).
	PreviousTail string
	Trials       int
	Seed         int64
	// Budget caps the wall-clock time of the trial loop; zero means no
	// cap. When it expires, the best roster found so far is returned.
	Budget time.Duration
}

// OnCallResult is the outcome of the best trial.
type OnCallResult struct {
	Roster model.Roster `json:"roster"`
	Stats  model.Stats  `json:"stats"`
	// Rejections explains every Unfilled date: doctor name to the tag of
	// the rule that rejected them.
	Rejections  map[time.Time]map[string]calculation.RejectTag `json:"rejections"`
	DeniedFixed []model.DeniedFixed                            `json:"denied_fixed"`
	Score       int                                            `json:"score"`
	Trials      int                                            `json:"trials"`
}

// Generate validates the request and runs the trials. Trials share no
// mutable state and are fanned out across workers; each derives its own
// PRNG from (Seed, trial index) so the whole run is reproducible.
func (e *OnCallEngine) Generate(req OnCallRequest) (*OnCallResult, error) {
	if err := e.validate(req); err != nil {
		return nil, err
	}

	trials := req.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}

	var deadline time.Time
	if req.Budget > 0 {
		deadline = time.Now().Add(req.Budget)
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > trials {
		workers = trials
	}

	type scored struct {
		trial  int
		result *OnCallResult
	}

	jobs := make(chan int)
	results := make(chan scored, trials)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for trial := range jobs {
				rng := rand.New(rand.NewSource(req.Seed + int64(trial)))
				results <- scored{trial: trial, result: e.runTrial(req, rng)}
			}
		}()
	}

	issued := 0
	for trial := 0; trial < trials; trial++ {
		if !deadline.IsZero() && time.Now().After(deadline) && issued > 0 {
			break
		}
		jobs <- trial
		issued++
	}
	close(jobs)
	wg.Wait()
	close(results)

	var best *OnCallResult
	bestTrial := -1
	for r := range results {
		if best == nil || r.result.Score > best.Score ||
			(r.result.Score == best.Score && r.trial < bestTrial) {
			best = r.result
			bestTrial = r.trial
		}
	}

	best.Trials = issued
	e.log.Debug().
		Int("trials", issued).
		Int("best_trial", bestTrial).
		Int("score", best.Score).
		Int("filled", best.Roster.Filled()).
		Msg("on-call generation finished")

	return best, nil
}

func (e *OnCallEngine) validate(req OnCallRequest) error {
	if len(req.Dates) == 0 {
		return ErrEmptyPeriod
	}
	for i := 1; i < len(req.Dates); i++ {
		prev := calendar.Normalize(req.Dates[i-1])
		if !calendar.Normalize(req.Dates[i]).Equal(prev.AddDate(0, 0, 1)) {
			return ErrNonContiguousDates
		}
	}
	for name := range req.TargetLimits {
		if _, ok := e.team.ByName(name); !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDoctor, name)
		}
	}
	return nil
}

// runTrial builds one complete roster: Phase I resolves fixed claims in
// calendar order, Phase II fills the rest hardest-day-first.
func (e *OnCallEngine) runTrial(req OnCallRequest, rng *rand.Rand) *OnCallResult {
	periodStart := calendar.Normalize(req.Dates[0])

	roster := make(model.Roster, len(req.Dates))
	stats := model.NewStats(e.team)
	weekly := make(calculation.WeeklyCounts)
	rejections := make(map[time.Time]map[string]calculation.RejectTag)
	var denied []model.DeniedFixed

	assign := func(d time.Time, doctor string) {
		roster.Assign(d, doctor)
		stats.Record(doctor, d)
		weekly.Bump(d, periodStart, doctor)
	}

	// Phase I: fixed resolution, calendar order. Fixed-role doctors win by
	// canonical order; rotation claimants draw uniformly at random.
	for _, d := range req.Dates {
		d = calendar.Normalize(d)
		winner, losers := e.resolveFixedClaims(d, req.Prefs, rng)
		if winner == "" {
			continue
		}
		assign(d, winner)
		for _, name := range losers {
			denied = append(denied, model.DeniedFixed{
				Date:   d,
				Doctor: name,
				Reason: fmt.Sprintf("conflict with %s", winner),
			})
		}
	}

	// Phase II: rotation filling, hardest days first (fewest non-unavailable
	// rotation doctors), ties broken randomly.
	unresolved := e.unresolvedByDifficulty(req, roster, rng)

	rotation := e.team.Rotation()
	for _, d := range unresolved {
		ctx := calculation.DayContext{
			Date:         d,
			PeriodStart:  periodStart,
			Roster:       roster,
			Stats:        stats,
			Weekly:       weekly,
			Prefs:        req.Prefs,
			TargetLimits: req.TargetLimits,
			PreviousTail: req.PreviousTail,
		}

		dayRejects := make(map[string]calculation.RejectTag, len(rotation))
		var candidates []calculation.Candidate
		for _, doc := range rotation {
			if tag, ok := calculation.Evaluate(ctx, doc); !ok {
				dayRejects[doc.Name] = tag
			} else {
				candidates = append(candidates, calculation.NewCandidate(d, doc.Name, req.Prefs, stats, rng))
			}
		}

		if len(candidates) == 0 {
			roster.Assign(d, model.Unfilled)
			rejections[d] = dayRejects
			continue
		}

		calculation.SortCandidates(candidates)
		assign(d, candidates[0].Name)
	}

	return &OnCallResult{
		Roster:      roster,
		Stats:       stats,
		Rejections:  rejections,
		DeniedFixed: denied,
		Score:       calculation.ScoreRoster(req.Dates, roster, stats, req.Prefs, rotation),
	}
}

// resolveFixedClaims picks the winning fixed claim for a day, if any, and
// returns the denied claimants.
func (e *OnCallEngine) resolveFixedClaims(d time.Time, prefs model.PrefMap, rng *rand.Rand) (winner string, losers []string) {
	var fixedClaims, rotationClaims []string
	for _, doc := range e.team.Fixed() {
		if entry, ok := prefs.Get(d, doc.Name); ok && entry.Status == model.StatusFixed {
			fixedClaims = append(fixedClaims, doc.Name)
		}
	}
	for _, doc := range e.team.Rotation() {
		if entry, ok := prefs.Get(d, doc.Name); ok && entry.Status == model.StatusFixed {
			rotationClaims = append(rotationClaims, doc.Name)
		}
	}

	switch {
	case len(fixedClaims) > 0:
		winner = fixedClaims[0]
		losers = append(fixedClaims[1:], rotationClaims...)
	case len(rotationClaims) > 0:
		idx := rng.Intn(len(rotationClaims))
		winner = rotationClaims[idx]
		losers = append(rotationClaims[:idx:idx], rotationClaims[idx+1:]...)
	}
	return winner, losers
}

// unresolvedByDifficulty lists the days Phase I left open, sorted by
// ascending availability count so the hardest days are filled first.
func (e *OnCallEngine) unresolvedByDifficulty(req OnCallRequest, roster model.Roster, rng *rand.Rand) []time.Time {
	type openDay struct {
		date      time.Time
		available int
		tie       float64
	}

	var open []openDay
	for _, d := range req.Dates {
		d = calendar.Normalize(d)
		if roster.DoctorOn(d) != "" {
			continue
		}
		n := 0
		for _, doc := range e.team.Rotation() {
			if !req.Prefs.IsUnavailable(d, doc.Name) {
				n++
			}
		}
		open = append(open, openDay{date: d, available: n, tie: rng.Float64()})
	}

	sort.Slice(open, func(i, j int) bool {
		if open[i].available != open[j].available {
			return open[i].available < open[j].available
		}
		return open[i].tie < open[j].tie
	})

	dates := make([]time.Time, len(open))
	for i, o := range open {
		dates[i] = o.date
	}
	return dates
}
