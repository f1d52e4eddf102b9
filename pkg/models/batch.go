package models

import "time"

// Batch is a contiguous, ordered slice of vocabulary studied as a unit
type Batch struct {
	UserID            int64     `json:"-" db:"user_id"`
	DatabaseID        int64     `json:"database_id" db:"database_id"`
	BatchNumber       int       `json:"batch_number" db:"batch_number"`
	WordSenseIDs      []int64   `json:"word_sense_ids" db:"-"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	IsCompleted       bool      `json:"is_completed" db:"is_completed"`
	WordsLearnedCount int       `json:"words_learned_count" db:"words_learned_count"`
	TotalWords        int       `json:"total_words" db:"total_words"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// CompletionRatio is the share of words in the batch counted as learned
func (b Batch) CompletionRatio() float64 {
	if b.TotalWords == 0 {
		return 0
	}
	return float64(b.WordsLearnedCount) / float64(b.TotalWords)
}

// BatchOptions controls how vocabulary is filtered before partitioning
type BatchOptions struct {
	FirstInstancesOnly bool `json:"firstInstancesOnly"`
	ExcludeKnown       bool `json:"excludeKnown"`
}

// BatchCards holds the study material for one batch
type BatchCards struct {
	Batch    Batch       `json:"batch"`
	DueCards []StudyCard `json:"dueCards"`
	AllCards []StudyCard `json:"allCards"`
}
