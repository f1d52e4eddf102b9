package models

import "time"

// CardState is the lifecycle stage of a card
type CardState string

const (
	CardStateNew      CardState = "new"
	CardStateLearning CardState = "learning"
	CardStateReview   CardState = "review"
)

// DefaultEaseFactor is the starting ease, scaled by 1000 (2500 = 2.5)
const DefaultEaseFactor = 2500

// Card tracks a user's memory state for one word sense.
type Card struct {
	ID             int64      `json:"id" db:"id"`
	UserID         int64      `json:"user_id" db:"user_id"`
	DatabaseID     int64      `json:"database_id" db:"database_id"`
	WordSenseID    int64      `json:"word_sense_id" db:"word_sense_id"`
	State          CardState  `json:"state" db:"state"`
	EaseFactor     int        `json:"ease_factor" db:"ease_factor"`     // scaled by 1000
	IntervalDays   int        `json:"interval_days" db:"interval_days"` // 0 = not scheduled beyond today
	Repetitions    int        `json:"repetitions" db:"repetitions"`     // consecutive passing reviews
	Lapses         int        `json:"lapses" db:"lapses"`               // failing reviews over the card's life
	DueAt          time.Time  `json:"due_at" db:"due_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at" db:"last_reviewed_at"`
	CountedLearned bool       `json:"counted_learned" db:"counted_learned"` // already counted toward batch progress
	Version        int        `json:"-" db:"version"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// NewCard returns a fresh card due immediately.
func NewCard(userID, databaseID, wordSenseID int64, now time.Time) Card {
	return Card{
		UserID:      userID,
		DatabaseID:  databaseID,
		WordSenseID: wordSenseID,
		State:       CardStateNew,
		EaseFactor:  DefaultEaseFactor,
		DueAt:       now,
	}
}

// IsDue reports whether the card should be reviewed at now
func (c Card) IsDue(now time.Time) bool {
	return !c.DueAt.After(now)
}

// StudyCard joins a card with the word sense it schedules. Word text is never
// copied into card storage; it is read through the join.
type StudyCard struct {
	Card
	Word         string `json:"word" db:"word"`
	PartOfSpeech string `json:"part_of_speech" db:"part_of_speech"`
	Position     int    `json:"position" db:"first_position"`
	Translation  string `json:"translation" db:"translation"`
}

// CardSummary is what a review returns to the caller
type CardSummary struct {
	CardID       int64     `json:"card_id"`
	State        CardState `json:"state"`
	IntervalDays int       `json:"interval"`
	Repetitions  int       `json:"repetitions"`
	EaseFactor   int       `json:"ease_factor"`
	DueAt        time.Time `json:"due_at"`
}

// Summary projects the scheduling fields of the card
func (c Card) Summary() CardSummary {
	return CardSummary{
		CardID:       c.ID,
		State:        c.State,
		IntervalDays: c.IntervalDays,
		Repetitions:  c.Repetitions,
		EaseFactor:   c.EaseFactor,
		DueAt:        c.DueAt,
	}
}
