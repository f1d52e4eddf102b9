package models

import "time"

// VocabularyDatabase owns a set of word senses and everything scheduled from them
type VocabularyDatabase struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// KnownWord marks a word sense the user already knows
type KnownWord struct {
	UserID       int64  `json:"user_id" db:"user_id"`
	DatabaseID   int64  `json:"database_id" db:"database_id"`
	Word         string `json:"word" db:"word"`
	PartOfSpeech string `json:"part_of_speech" db:"part_of_speech"`
}
