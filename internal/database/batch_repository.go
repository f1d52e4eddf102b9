package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lexibatch/pkg/models"
)

type batchWordRow struct {
	BatchNumber int   `db:"batch_number"`
	WordSenseID int64 `db:"word_sense_id"`
}

// ListBatches returns a database's batches ordered by number, with members
func (s *Store) ListBatches(ctx context.Context, userID, databaseID int64) ([]models.Batch, error) {
	var batches []models.Batch
	err := s.selectRows(ctx, &batches,
		`SELECT user_id, database_id, batch_number, is_active, is_completed, words_learned_count,
			total_words, created_at
		 FROM batches WHERE user_id = ? AND database_id = ? ORDER BY batch_number`, userID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	if len(batches) == 0 {
		return batches, nil
	}

	var rows []batchWordRow
	err = s.selectRows(ctx, &rows,
		`SELECT batch_number, word_sense_id FROM batch_words
		 WHERE user_id = ? AND database_id = ? ORDER BY batch_number, ordinal`, userID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch words: %w", err)
	}
	index := make(map[int]int, len(batches))
	for i, b := range batches {
		index[b.BatchNumber] = i
	}
	for _, r := range rows {
		if i, ok := index[r.BatchNumber]; ok {
			batches[i].WordSenseIDs = append(batches[i].WordSenseIDs, r.WordSenseID)
		}
	}
	return batches, nil
}

// ReplaceBatches drops the existing batch structure and stores batches.
// Cards are not touched.
func (s *Store) ReplaceBatches(ctx context.Context, userID, databaseID int64, batches []models.Batch) error {
	return s.InTx(ctx, func(tx Repository) error {
		txs := tx.(*Store)
		if err := txs.DeleteBatches(ctx, userID, databaseID); err != nil {
			return err
		}
		now := time.Now().UTC()
		for _, b := range batches {
			_, err := txs.exec(ctx,
				`INSERT INTO batches (user_id, database_id, batch_number, is_active, is_completed,
					words_learned_count, total_words, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				userID, databaseID, b.BatchNumber, b.IsActive, b.IsCompleted,
				b.WordsLearnedCount, len(b.WordSenseIDs), now)
			if err != nil {
				return fmt.Errorf("failed to create batch %d: %w", b.BatchNumber, err)
			}
			for ordinal, wsID := range b.WordSenseIDs {
				_, err := txs.exec(ctx,
					`INSERT INTO batch_words (user_id, database_id, batch_number, ordinal, word_sense_id)
					 VALUES (?, ?, ?, ?, ?)`,
					userID, databaseID, b.BatchNumber, ordinal, wsID)
				if err != nil {
					return fmt.Errorf("failed to add word sense %d to batch %d: %w", wsID, b.BatchNumber, err)
				}
			}
		}
		return nil
	})
}

// SetBatchFlags moves a batch to the given active/completed flags. The update
// only applies if the stored flags still match b; otherwise ErrConflict.
func (s *Store) SetBatchFlags(ctx context.Context, b models.Batch, isActive, isCompleted bool) error {
	res, err := s.exec(ctx,
		`UPDATE batches SET is_active = ?, is_completed = ?
		 WHERE user_id = ? AND database_id = ? AND batch_number = ? AND is_active = ? AND is_completed = ?`,
		isActive, isCompleted, b.UserID, b.DatabaseID, b.BatchNumber, b.IsActive, b.IsCompleted)
	if err != nil {
		return fmt.Errorf("failed to update batch %d: %w", b.BatchNumber, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("batch %d: %w", b.BatchNumber, ErrConflict)
	}
	return nil
}

// IncrementBatchProgress bumps the learned counter of the batch holding the
// word sense. It returns the batch number, or 0 when the sense is in no batch.
func (s *Store) IncrementBatchProgress(ctx context.Context, userID, databaseID, wordSenseID int64) (int, error) {
	var numbers []int
	err := s.selectRows(ctx, &numbers,
		`SELECT batch_number FROM batch_words
		 WHERE user_id = ? AND database_id = ? AND word_sense_id = ? ORDER BY batch_number`,
		userID, databaseID, wordSenseID)
	if err != nil {
		return 0, fmt.Errorf("failed to find batch of word sense %d: %w", wordSenseID, err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	_, err = s.exec(ctx,
		`UPDATE batches SET words_learned_count = words_learned_count + 1
		 WHERE user_id = ? AND database_id = ? AND batch_number = ? AND words_learned_count < total_words`,
		userID, databaseID, numbers[0])
	if err != nil {
		return 0, fmt.Errorf("failed to record progress in batch %d: %w", numbers[0], err)
	}
	return numbers[0], nil
}

// DeleteBatches removes the batch structure of a database for a user
func (s *Store) DeleteBatches(ctx context.Context, userID, databaseID int64) error {
	if _, err := s.exec(ctx, `DELETE FROM batch_words WHERE user_id = ? AND database_id = ?`, userID, databaseID); err != nil {
		return fmt.Errorf("failed to delete batch words: %w", err)
	}
	if _, err := s.exec(ctx, `DELETE FROM batches WHERE user_id = ? AND database_id = ?`, userID, databaseID); err != nil {
		return fmt.Errorf("failed to delete batches: %w", err)
	}
	return nil
}
