// Package selector decides which cards a study session shows and in what order.
//
// Cards are always returned in reading order (ascending first-occurrence
// position), never by due-date urgency, so sessions follow the source text.
package selector

import (
	"sort"
	"time"

	"github.com/example/lexibatch/internal/spaced_repetition"
	"github.com/example/lexibatch/pkg/models"
)

// Ordered returns a copy of cards sorted by position
func Ordered(cards []models.StudyCard) []models.StudyCard {
	out := make([]models.StudyCard, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return out
}

// Due returns the cards with dueAt <= now in position order.
func Due(cards []models.StudyCard, now time.Time) []models.StudyCard {
	due := make([]models.StudyCard, 0, len(cards))
	for _, c := range Ordered(cards) {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	return due
}

// DeckDue applies the Anki-style policy: every due learning or review card plus
// at most newLimit new cards, all in position order. newLimit < 0 means no limit.
func DeckDue(cards []models.StudyCard, now time.Time, newLimit int) []models.StudyCard {
	due := make([]models.StudyCard, 0, len(cards))
	newTaken := 0
	for _, c := range Ordered(cards) {
		if !c.IsDue(now) {
			continue
		}
		if c.State == models.CardStateNew {
			if newLimit >= 0 && newTaken >= newLimit {
				continue
			}
			newTaken++
		}
		due = append(due, c)
	}
	return due
}

// Summarize counts cards by state. Mature cards are review cards whose
// interval reached matureDays.
func Summarize(cards []models.StudyCard, now time.Time, matureDays int) models.CardCounts {
	var counts models.CardCounts
	for _, c := range cards {
		counts.Total++
		if c.IsDue(now) {
			counts.Due++
		}
		switch c.State {
		case models.CardStateNew:
			counts.New++
		case models.CardStateLearning:
			counts.Learning++
		case models.CardStateReview:
			counts.Review++
			if spaced_repetition.IsWordMastered(c.Card, matureDays) {
				counts.Mature++
			}
		}
	}
	return counts
}
