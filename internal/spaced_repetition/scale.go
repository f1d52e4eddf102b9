package spaced_repetition

import (
	"errors"
	"fmt"
)

// ErrInvalidRating is returned for a rating outside the scale in use
var ErrInvalidRating = errors.New("invalid rating")

// Grade is the scale-independent outcome of a review.
type Grade int

const (
	GradeFail Grade = iota
	GradeHard
	GradeGood
	GradeEasy
	GradePerfect
)

// Passed reports whether the grade keeps the repetition streak
func (g Grade) Passed() bool {
	return g >= GradeHard
}

func (g Grade) String() string {
	switch g {
	case GradeFail:
		return "fail"
	case GradeHard:
		return "hard"
	case GradeGood:
		return "good"
	case GradeEasy:
		return "easy"
	case GradePerfect:
		return "perfect"
	}
	return fmt.Sprintf("grade(%d)", int(g))
}

// Scale maps the ratings a user interface offers onto grades.
type Scale interface {
	Name() string
	Grade(rating int) (Grade, error)
}

// QualityResponse is a rating on the five-point scale used by the batch learner
type QualityResponse int

const (
	// Complete blackout, unable to recall
	QualityAgain QualityResponse = 0
	// Incorrect, but remembered upon seeing the answer
	QualityHard QualityResponse = 1
	// Incorrect, but the answer felt familiar. Only accepted when enabled.
	QualityFamiliar QualityResponse = 2
	// Correct response after some effort
	QualityGood QualityResponse = 3
	// Correct response after slight hesitation
	QualityEasy QualityResponse = 4
	// Perfect response with no hesitation
	QualityPerfect QualityResponse = 5
)

// PassThreshold is the lowest passing quality on the five-point scale
const PassThreshold = QualityGood

// FivePointScale accepts {0,1,3,4,5}; 2 is accepted only when AllowTwo is set.
type FivePointScale struct {
	AllowTwo bool
}

func (FivePointScale) Name() string { return "five_point" }

func (s FivePointScale) Grade(rating int) (Grade, error) {
	switch QualityResponse(rating) {
	case QualityAgain, QualityHard:
		return GradeFail, nil
	case QualityFamiliar:
		if s.AllowTwo {
			return GradeFail, nil
		}
	case QualityGood:
		return GradeGood, nil
	case QualityEasy:
		return GradeEasy, nil
	case QualityPerfect:
		return GradePerfect, nil
	}
	return GradeFail, fmt.Errorf("%w: %d on %s scale", ErrInvalidRating, rating, s.Name())
}

// Ratings on the four-point scale used by the Anki-style deck
const (
	RatingAgain = 1
	RatingHard  = 2
	RatingGood  = 3
	RatingEasy  = 4
)

// FourPointScale accepts 1=Again, 2=Hard, 3=Good, 4=Easy. Hard passes with
// reduced growth.
type FourPointScale struct{}

func (FourPointScale) Name() string { return "four_point" }

func (s FourPointScale) Grade(rating int) (Grade, error) {
	switch rating {
	case RatingAgain:
		return GradeFail, nil
	case RatingHard:
		return GradeHard, nil
	case RatingGood:
		return GradeGood, nil
	case RatingEasy:
		return GradeEasy, nil
	}
	return GradeFail, fmt.Errorf("%w: %d on %s scale", ErrInvalidRating, rating, s.Name())
}
