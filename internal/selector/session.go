package selector

import (
	"errors"
	"fmt"

	"github.com/example/lexibatch/pkg/models"
)

var (
	ErrSessionFinished   = errors.New("session finished")
	ErrInvalidTransition = errors.New("invalid card transition")
)

// CardPhase is the position of the current card in the study flow
type CardPhase string

const (
	PhaseNotShown     CardPhase = "not_shown"
	PhaseAnswerHidden CardPhase = "answer_hidden"
	PhaseAnswerShown  CardPhase = "answer_shown"
	PhaseReviewed     CardPhase = "reviewed"
)

// ReviewFunc persists a rating for a card and returns its new summary
type ReviewFunc func(cardID int64, rating int) (models.ReviewResult, error)

// Session walks an ordered card list once. Failed cards are not re-queued;
// they simply come back in a later session once due.
type Session struct {
	cards  []models.StudyCard
	cursor int
	phase  CardPhase
	passed int
	failed int
}

// NewSession starts a session over cards in the order given
func NewSession(cards []models.StudyCard) *Session {
	return &Session{cards: cards, phase: PhaseNotShown}
}

// Progress is a snapshot of the session for the UI
type Progress struct {
	Index    int               `json:"index"`
	Total    int               `json:"total"`
	Phase    CardPhase         `json:"phase"`
	Finished bool              `json:"finished"`
	Passed   int               `json:"passed"`
	Failed   int               `json:"failed"`
	Card     *models.StudyCard `json:"card,omitempty"`
	Answer   string            `json:"answer,omitempty"`
}

// Finished reports whether every card has been reviewed
func (s *Session) Finished() bool {
	return s.cursor >= len(s.cards)
}

// Show presents the current card with its answer hidden.
func (s *Session) Show() (models.StudyCard, error) {
	if s.Finished() {
		return models.StudyCard{}, ErrSessionFinished
	}
	if s.phase == PhaseNotShown {
		s.phase = PhaseAnswerHidden
	}
	return s.cards[s.cursor], nil
}

// Reveal shows the answer. It has no scheduling effect.
func (s *Session) Reveal() error {
	if s.Finished() {
		return ErrSessionFinished
	}
	if s.phase != PhaseAnswerHidden {
		return fmt.Errorf("%w: reveal from %s", ErrInvalidTransition, s.phase)
	}
	s.phase = PhaseAnswerShown
	return nil
}

// Answer rates the current card through review and moves to the next card.
// On a review error the session stays on the current card.
func (s *Session) Answer(rating int, review ReviewFunc) (models.ReviewResult, error) {
	if s.Finished() {
		return models.ReviewResult{}, ErrSessionFinished
	}
	if s.phase != PhaseAnswerShown {
		return models.ReviewResult{}, fmt.Errorf("%w: answer from %s", ErrInvalidTransition, s.phase)
	}
	result, err := review(s.cards[s.cursor].ID, rating)
	if err != nil {
		return result, err
	}
	if result.Passed {
		s.passed++
	} else {
		s.failed++
	}
	s.cursor++
	s.phase = PhaseNotShown
	return result, nil
}

// Progress returns the current snapshot
func (s *Session) Progress() Progress {
	p := Progress{
		Index:    s.cursor,
		Total:    len(s.cards),
		Phase:    s.phase,
		Finished: s.Finished(),
		Passed:   s.passed,
		Failed:   s.failed,
	}
	if p.Finished {
		p.Phase = PhaseReviewed
		return p
	}
	card := s.cards[s.cursor]
	switch s.phase {
	case PhaseAnswerHidden:
		card.Translation = ""
		p.Card = &card
	case PhaseAnswerShown:
		p.Card = &card
		p.Answer = card.Translation
	}
	return p
}
