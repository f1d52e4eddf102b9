package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/lexibatch/pkg/models"
)

// Params configures the SM-2 engine. Ease values are scaled by 1000.
type Params struct {
	MinEase             int
	MaxEase             int
	FailPenalty         int
	HardPenalty         int
	EasyBonus           int
	PerfectBonus        int
	RelearnInterval     int
	FirstInterval       int
	SecondInterval      int
	MaxInterval         int
	HardMultiplier      float64
	EasyMultiplier      float64
	GraduateRepetitions int // repetitions at which a card leaves learning
}

// DefaultParams returns the classic SM-2 settings
func DefaultParams() Params {
	return Params{
		MinEase:             1300,
		MaxEase:             5000,
		FailPenalty:         200,
		HardPenalty:         150,
		EasyBonus:           100,
		PerfectBonus:        150,
		RelearnInterval:     1,
		FirstInterval:       1,
		SecondInterval:      6,
		MaxInterval:         365, // one year
		HardMultiplier:      1.2,
		EasyMultiplier:      1.3,
		GraduateRepetitions: 2,
	}
}

// SM2 implements the SuperMemo-2 algorithm for spaced repetition
type SM2 struct {
	params Params
}

// NewSM2 creates an engine with the given params
func NewSM2(params Params) *SM2 {
	if params.MinEase <= 0 {
		params.MinEase = DefaultParams().MinEase
	}
	if params.MaxEase < params.MinEase {
		params.MaxEase = params.MinEase
	}
	if params.MaxInterval <= 0 {
		params.MaxInterval = DefaultParams().MaxInterval
	}
	return &SM2{params: params}
}

// Params returns the engine configuration
func (sm *SM2) Params() Params {
	return sm.params
}

// Review applies a rating to a card and returns the card's next memory state.
// The input card is not modified. A rating outside the scale returns
// ErrInvalidRating together with the unchanged card.
func (sm *SM2) Review(card models.Card, rating int, scale Scale, now time.Time) (models.Card, Grade, error) {
	grade, err := scale.Grade(rating)
	if err != nil {
		return card, grade, err
	}
	return sm.Apply(card, grade, now), grade, nil
}

// Apply runs the SM-2 transition for an already mapped grade.
func (sm *SM2) Apply(card models.Card, grade Grade, now time.Time) models.Card {
	p := sm.params
	next := card

	ease := sm.clampEase(card.EaseFactor)
	interval := card.IntervalDays
	if interval < 0 {
		interval = 0
	}
	reps := card.Repetitions
	if reps < 0 {
		reps = 0
	}

	if !grade.Passed() {
		next.Repetitions = 0
		next.IntervalDays = p.RelearnInterval
		next.EaseFactor = sm.clampEase(ease - p.FailPenalty)
		next.Lapses = card.Lapses + 1
		next.State = models.CardStateLearning
	} else {
		switch grade {
		case GradeHard:
			ease -= p.HardPenalty
		case GradeEasy:
			ease += p.EasyBonus
		case GradePerfect:
			ease += p.PerfectBonus
		}
		ease = sm.clampEase(ease)

		reps++
		var nextInterval int
		switch reps {
		case 1:
			nextInterval = p.FirstInterval
		case 2:
			nextInterval = p.SecondInterval
		default:
			factor := float64(ease) / 1000
			switch grade {
			case GradeHard:
				factor = p.HardMultiplier
			case GradeEasy, GradePerfect:
				factor *= p.EasyMultiplier
			}
			nextInterval = int(math.Round(float64(interval) * factor))
			if nextInterval <= interval {
				nextInterval = interval + 1
			}
		}
		if nextInterval > p.MaxInterval {
			nextInterval = p.MaxInterval
		}

		next.Repetitions = reps
		next.IntervalDays = nextInterval
		next.EaseFactor = ease
		if reps < p.GraduateRepetitions {
			next.State = models.CardStateLearning
		} else {
			next.State = models.CardStateReview
		}
	}

	reviewed := now
	next.LastReviewedAt = &reviewed
	next.DueAt = now.AddDate(0, 0, next.IntervalDays)
	return next
}

func (sm *SM2) clampEase(ease int) int {
	if ease < sm.params.MinEase {
		return sm.params.MinEase
	}
	if ease > sm.params.MaxEase {
		return sm.params.MaxEase
	}
	return ease
}

// IsWordMastered determines if a card is considered mature
func IsWordMastered(card models.Card, matureDays int) bool {
	return card.State == models.CardStateReview && card.IntervalDays >= matureDays
}
