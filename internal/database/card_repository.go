package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lexibatch/pkg/models"
)

const cardColumns = `c.id, c.user_id, c.database_id, c.word_sense_id, c.state, c.ease_factor,
	c.interval_days, c.repetitions, c.lapses, c.due_at, c.last_reviewed_at, c.counted_learned,
	c.version, c.created_at, c.updated_at`

const studyCardColumns = cardColumns + `, ws.word, ws.part_of_speech, ws.first_position, ws.translation`

// EnsureCards creates a new card for every word sense that has none yet.
// Existing cards keep their memory state.
func (s *Store) EnsureCards(ctx context.Context, userID, databaseID int64, wordSenseIDs []int64, now time.Time) error {
	for _, wsID := range wordSenseIDs {
		card := models.NewCard(userID, databaseID, wsID, now)
		_, err := s.exec(ctx,
			`INSERT INTO cards (user_id, database_id, word_sense_id, state, ease_factor, interval_days,
				repetitions, lapses, due_at, counted_learned, version, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, 0, 0, 0, ?, ?, 0, ?, ?)
			 ON CONFLICT (user_id, word_sense_id) DO NOTHING`,
			card.UserID, card.DatabaseID, card.WordSenseID, card.State, card.EaseFactor,
			card.DueAt, false, now, now)
		if err != nil {
			return fmt.Errorf("failed to create card for word sense %d: %w", wsID, err)
		}
	}
	return nil
}

// GetCard returns a card by ID
func (s *Store) GetCard(ctx context.Context, cardID int64) (*models.Card, error) {
	var card models.Card
	if err := s.get(ctx, &card, `SELECT `+cardColumns+` FROM cards c WHERE c.id = ?`, cardID); err != nil {
		return nil, fmt.Errorf("failed to get card %d: %w", cardID, err)
	}
	return &card, nil
}

// ListStudyCards returns every card of a user's database joined with its word sense
func (s *Store) ListStudyCards(ctx context.Context, userID, databaseID int64) ([]models.StudyCard, error) {
	var out []models.StudyCard
	err := s.selectRows(ctx, &out,
		`SELECT `+studyCardColumns+`
		 FROM cards c JOIN word_senses ws ON ws.id = c.word_sense_id
		 WHERE c.user_id = ? AND c.database_id = ?
		 ORDER BY ws.first_position`, userID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return out, nil
}

// ListBatchStudyCards returns the cards that belong to one batch
func (s *Store) ListBatchStudyCards(ctx context.Context, userID, databaseID int64, batchNumber int) ([]models.StudyCard, error) {
	var out []models.StudyCard
	err := s.selectRows(ctx, &out,
		`SELECT `+studyCardColumns+`
		 FROM batch_words bw
		 JOIN cards c ON c.word_sense_id = bw.word_sense_id AND c.user_id = bw.user_id
		 JOIN word_senses ws ON ws.id = c.word_sense_id
		 WHERE bw.user_id = ? AND bw.database_id = ? AND bw.batch_number = ?
		 ORDER BY ws.first_position`, userID, databaseID, batchNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards of batch %d: %w", batchNumber, err)
	}
	return out, nil
}

// ListCardsByUser returns all cards of a user across databases
func (s *Store) ListCardsByUser(ctx context.Context, userID int64) ([]models.Card, error) {
	var out []models.Card
	if err := s.selectRows(ctx, &out, `SELECT `+cardColumns+` FROM cards c WHERE c.user_id = ?`, userID); err != nil {
		return nil, fmt.Errorf("failed to list cards of user %d: %w", userID, err)
	}
	return out, nil
}

// UpdateCard writes the card's memory state if nobody changed it since it was
// read. On success card.Version is advanced.
func (s *Store) UpdateCard(ctx context.Context, card *models.Card) error {
	now := time.Now().UTC()
	res, err := s.exec(ctx,
		`UPDATE cards SET
			state = ?,
			ease_factor = ?,
			interval_days = ?,
			repetitions = ?,
			lapses = ?,
			due_at = ?,
			last_reviewed_at = ?,
			counted_learned = ?,
			version = version + 1,
			updated_at = ?
		 WHERE id = ? AND version = ?`,
		card.State,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.Lapses,
		card.DueAt,
		card.LastReviewedAt,
		card.CountedLearned,
		now,
		card.ID,
		card.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %d: %w", card.ID, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("card %d: %w", card.ID, ErrConflict)
	}
	card.Version++
	card.UpdatedAt = now
	return nil
}

// LearnedWordSenseIDs returns word senses whose cards already count as learned
func (s *Store) LearnedWordSenseIDs(ctx context.Context, userID, databaseID int64) (map[int64]bool, error) {
	var ids []int64
	err := s.selectRows(ctx, &ids,
		`SELECT word_sense_id FROM cards WHERE user_id = ? AND database_id = ? AND counted_learned = ?`,
		userID, databaseID, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list learned cards: %w", err)
	}
	learned := make(map[int64]bool, len(ids))
	for _, id := range ids {
		learned[id] = true
	}
	return learned, nil
}

// DeleteCards removes every card a user has for a database
func (s *Store) DeleteCards(ctx context.Context, userID, databaseID int64) error {
	if _, err := s.exec(ctx, `DELETE FROM cards WHERE user_id = ? AND database_id = ?`, userID, databaseID); err != nil {
		return fmt.Errorf("failed to delete cards: %w", err)
	}
	return nil
}
