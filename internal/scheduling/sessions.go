package scheduling

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/internal/selector"
	"github.com/example/lexibatch/internal/spaced_repetition"
	"github.com/example/lexibatch/pkg/models"
)

const (
	SessionSourceBatch = "batch"
	SessionSourceDeck  = "deck"
)

// SessionView is what callers see of a study session
type SessionView struct {
	ID          string `json:"id"`
	DatabaseID  int64  `json:"databaseId"`
	Source      string `json:"source"`
	Scale       string `json:"scale"`
	BatchNumber int    `json:"batchNumber,omitempty"`
	selector.Progress
}

type studySession struct {
	mu          sync.Mutex
	id          string
	userID      int64
	databaseID  int64
	source      string
	batchNumber int
	scale       spaced_repetition.Scale
	session     *selector.Session
	lastUsed    time.Time
}

func (st *studySession) view() *SessionView {
	return &SessionView{
		ID:          st.id,
		DatabaseID:  st.databaseID,
		Source:      st.source,
		Scale:       st.scale.Name(),
		BatchNumber: st.batchNumber,
		Progress:    st.session.Progress(),
	}
}

// sessionRegistry holds study sessions in memory until they sit idle too long
type sessionRegistry struct {
	mu       sync.Mutex
	idle     time.Duration
	sessions map[string]*studySession
}

func newSessionRegistry(idle time.Duration) *sessionRegistry {
	return &sessionRegistry{idle: idle, sessions: make(map[string]*studySession)}
}

func (r *sessionRegistry) add(st *studySession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[st.id] = st
}

func (r *sessionRegistry) get(id string, now time.Time) (*studySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	if now.Sub(st.lastUsed) > r.idle {
		delete(r.sessions, id)
		return nil, false
	}
	st.lastUsed = now
	return st, true
}

func (r *sessionRegistry) sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, st := range r.sessions {
		if now.Sub(st.lastUsed) > r.idle {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

func (r *sessionRegistry) dropDatabase(databaseID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, st := range r.sessions {
		if st.databaseID == databaseID {
			delete(r.sessions, id)
		}
	}
}

// StartSession opens a study session over the due cards of a batch, or of the
// whole deck when deck is true.
func (s *Service) StartSession(ctx context.Context, userID, databaseID int64, batchNumber int, deck bool) (*SessionView, error) {
	st := &studySession{
		id:         uuid.NewString(),
		userID:     userID,
		databaseID: databaseID,
		lastUsed:   s.now(),
	}

	var cards []models.StudyCard
	if deck {
		d, err := s.GetDeck(ctx, userID, databaseID)
		if err != nil {
			return nil, err
		}
		cards = d.DueCards
		st.source = SessionSourceDeck
		st.scale = s.fourPoint
	} else {
		bc, err := s.GetBatchCards(ctx, userID, databaseID, batchNumber)
		if err != nil {
			return nil, err
		}
		cards = bc.DueCards
		st.source = SessionSourceBatch
		st.batchNumber = batchNumber
		st.scale = s.fivePoint
	}
	st.session = selector.NewSession(cards)
	s.sessions.add(st)

	s.logger.Debug("study session started", logging.Args(logging.UserID(userID), logging.DatabaseID(databaseID),
		logging.String("session_id", st.id), logging.Int("cards", len(cards)))...)
	return st.view(), nil
}

func (s *Service) session(userID int64, id string) (*studySession, error) {
	st, ok := s.sessions.get(id, s.now())
	if !ok {
		return nil, ErrSessionNotFound
	}
	if st.userID != userID {
		return nil, &AuthorizationError{UserID: userID, Resource: "session", ID: id}
	}
	return st, nil
}

// CurrentCard shows the current card with its answer hidden
func (s *Service) CurrentCard(ctx context.Context, userID int64, id string) (*SessionView, error) {
	st, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.session.Finished() {
		if _, err := st.session.Show(); err != nil {
			return nil, err
		}
	}
	return st.view(), nil
}

// RevealAnswer reveals the translation of the current card
func (s *Service) RevealAnswer(ctx context.Context, userID int64, id string) (*SessionView, error) {
	st, err := s.session(userID, id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := st.session.Reveal(); err != nil {
		return nil, err
	}
	return st.view(), nil
}

// AnswerCard rates the current card and moves the session forward
func (s *Service) AnswerCard(ctx context.Context, userID int64, id string, rating int) (models.ReviewResult, *SessionView, error) {
	st, err := s.session(userID, id)
	if err != nil {
		return models.ReviewResult{}, nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	result, err := st.session.Answer(rating, func(cardID int64, rating int) (models.ReviewResult, error) {
		return s.review(ctx, userID, cardID, rating, st.scale)
	})
	if err != nil {
		return models.ReviewResult{}, nil, err
	}
	return result, st.view(), nil
}

// SweepSessions drops idle sessions and returns how many were removed
func (s *Service) SweepSessions() int {
	return s.sessions.sweep(s.now())
}

// ActiveSessions returns the number of sessions held in memory
func (s *Service) ActiveSessions() int {
	s.sessions.mu.Lock()
	defer s.sessions.mu.Unlock()
	return len(s.sessions.sessions)
}
