package calculation

import (
	"math/rand"
	"sort"
	"time"

	"github.com/pzawadzki/grafik/internal/calendar"
	"github.com/pzawadzki/grafik/internal/model"
)

// Candidate preference weights. A doctor with no record on a date is
// treated as available (weight 10), matching the availability sheet's
// default stance.
const (
	weightAvailable = 10
	weightReluctant = 1
)

// Roster scoring calibration: filled days dominate, fairness ranges cost
// 1000 per missing-vs-max duty, and declared preferences nudge by 50.
const (
	scoreFilledDay   = 1_000_000
	scoreRangeFactor = 1000
	bonusAvailable   = 50
	bonusReluctant   = -50
)

// Candidate is one eligible rotation doctor for a day, with the ordering
// tuple used to break ties.
type Candidate struct {
	Name       string
	Weight     int
	GroupCount int
	TotalCount int
	Epsilon    float64
}

// NewCandidate builds the ordering tuple for an eligible doctor. rng draws
// the fresh tie-breaking epsilon; it must be the trial-local source.
func NewCandidate(date time.Time, doctor string, prefs model.PrefMap, stats model.Stats, rng *rand.Rand) Candidate {
	weight := weightAvailable
	if prefs.StatusOf(date, doctor) == model.StatusReluctant {
		weight = weightReluctant
	}
	ds := stats[doctor]
	return Candidate{
		Name:       doctor,
		Weight:     weight,
		GroupCount: ds.ByGroup[calendar.DayGroupOf(date)],
		TotalCount: ds.Total,
		Epsilon:    rng.Float64(),
	}
}

// SortCandidates orders candidates by (-weight, group count, total count,
// epsilon): willing doctors first, then whoever holds the fewest duties in
// this day group, then the fewest overall.
func SortCandidates(cands []Candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.GroupCount != b.GroupCount {
			return a.GroupCount < b.GroupCount
		}
		if a.TotalCount != b.TotalCount {
			return a.TotalCount < b.TotalCount
		}
		return a.Epsilon < b.Epsilon
	})
}

// ScoreRoster rates a complete roster so the best of N trials can be kept.
// Filled days dominate; the per-group duty range across rotation doctors
// penalizes unfairness; declared preferences add a small bonus on
// rotation-held days.
func ScoreRoster(dates []time.Time, roster model.Roster, stats model.Stats, prefs model.PrefMap, rotation []model.Doctor) int {
	score := roster.Filled() * scoreFilledDay

	rotationSet := make(map[string]bool, len(rotation))
	for _, doc := range rotation {
		rotationSet[doc.Name] = true
	}

	for _, group := range calendar.DayGroups {
		min, max := -1, 0
		for _, doc := range rotation {
			n := stats[doc.Name].ByGroup[group]
			if min < 0 || n < min {
				min = n
			}
			if n > max {
				max = n
			}
		}
		if min >= 0 {
			score -= (max - min) * scoreRangeFactor
		}
	}

	for _, d := range dates {
		doc := roster.DoctorOn(d)
		if !rotationSet[doc] {
			continue
		}
		switch prefs.StatusOf(d, doc) {
		case model.StatusAvailable:
			score += bonusAvailable
		case model.StatusReluctant:
			score += bonusReluctant
		}
	}

	return score
}
