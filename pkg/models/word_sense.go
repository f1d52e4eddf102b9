package models

import "strings"

// WordSense is one (word, part of speech) occurrence from an analyzed text.
// Position is the first-occurrence position assigned at analysis time and
// defines the canonical vocabulary order.
type WordSense struct {
	ID           int64  `json:"id" db:"id"`
	DatabaseID   int64  `json:"database_id" db:"database_id"`
	Word         string `json:"word" db:"word"`
	PartOfSpeech string `json:"part_of_speech" db:"part_of_speech"`
	Position     int    `json:"position" db:"first_position"`
	Translation  string `json:"translation" db:"translation"`
}

// Key identifies the sense independently of where it occurs in the text.
func (w WordSense) Key() string {
	return SenseKey(w.Word, w.PartOfSpeech)
}

// SenseKey normalizes a word and part of speech into a lookup key.
func SenseKey(word, partOfSpeech string) string {
	return strings.ToLower(strings.TrimSpace(word)) + "|" + strings.ToLower(strings.TrimSpace(partOfSpeech))
}
