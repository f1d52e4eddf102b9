package models

import "time"

// ReviewEvent is the atomic input that drives a card update and batch progress
type ReviewEvent struct {
	CardID     int64     `json:"card_id"`
	Rating     int       `json:"rating"`
	Scale      string    `json:"scale"`
	ReviewedAt time.Time `json:"reviewed_at"`
}

// ReviewResult reports the outcome of a review
type ReviewResult struct {
	Card        CardSummary `json:"card"`
	Passed      bool        `json:"passed"`
	LearnedNow  bool        `json:"learned_now"`
	BatchNumber int         `json:"batch_number,omitempty"`
}
