package database

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lexibatch/pkg/models"
)

// CreateDatabase inserts a new vocabulary database owned by userID
func (s *Store) CreateDatabase(ctx context.Context, userID int64, name string) (*models.VocabularyDatabase, error) {
	vdb := &models.VocabularyDatabase{UserID: userID, Name: name, CreatedAt: time.Now().UTC()}
	id, err := s.insertReturningID(ctx,
		`INSERT INTO vocab_databases (user_id, name, created_at) VALUES (?, ?, ?) RETURNING id`,
		vdb.UserID, vdb.Name, vdb.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	vdb.ID = id
	return vdb, nil
}

// GetDatabase returns a vocabulary database by ID
func (s *Store) GetDatabase(ctx context.Context, databaseID int64) (*models.VocabularyDatabase, error) {
	var vdb models.VocabularyDatabase
	err := s.get(ctx, &vdb, `SELECT id, user_id, name, created_at FROM vocab_databases WHERE id = ?`, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get database %d: %w", databaseID, err)
	}
	return &vdb, nil
}

// ListDatabases returns all vocabulary databases of a user
func (s *Store) ListDatabases(ctx context.Context, userID int64) ([]models.VocabularyDatabase, error) {
	var out []models.VocabularyDatabase
	err := s.selectRows(ctx, &out,
		`SELECT id, user_id, name, created_at FROM vocab_databases WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list databases: %w", err)
	}
	return out, nil
}

// DeleteDatabase removes a database together with its senses, cards,
// batches and known words.
func (s *Store) DeleteDatabase(ctx context.Context, databaseID int64) error {
	return s.InTx(ctx, func(tx Repository) error {
		txs := tx.(*Store)
		statements := []string{
			`DELETE FROM batch_words WHERE database_id = ?`,
			`DELETE FROM batches WHERE database_id = ?`,
			`DELETE FROM cards WHERE database_id = ?`,
			`DELETE FROM known_words WHERE database_id = ?`,
			`DELETE FROM word_senses WHERE database_id = ?`,
		}
		for _, stmt := range statements {
			if _, err := txs.exec(ctx, stmt, databaseID); err != nil {
				return fmt.Errorf("failed to delete database %d: %w", databaseID, err)
			}
		}
		res, err := txs.exec(ctx, `DELETE FROM vocab_databases WHERE id = ?`, databaseID)
		if err != nil {
			return fmt.Errorf("failed to delete database %d: %w", databaseID, err)
		}
		if rows, err := res.RowsAffected(); err == nil && rows == 0 {
			return fmt.Errorf("database %d: %w", databaseID, ErrNotFound)
		}
		return nil
	})
}

// AddWordSenses inserts word senses and returns them with IDs assigned
func (s *Store) AddWordSenses(ctx context.Context, databaseID int64, senses []models.WordSense) ([]models.WordSense, error) {
	out := make([]models.WordSense, 0, len(senses))
	err := s.InTx(ctx, func(tx Repository) error {
		txs := tx.(*Store)
		for _, ws := range senses {
			ws.DatabaseID = databaseID
			id, err := txs.insertReturningID(ctx,
				`INSERT INTO word_senses (database_id, word, part_of_speech, first_position, translation)
				 VALUES (?, ?, ?, ?, ?) RETURNING id`,
				ws.DatabaseID, ws.Word, ws.PartOfSpeech, ws.Position, ws.Translation)
			if err != nil {
				return fmt.Errorf("failed to add word sense %q at %d: %w", ws.Word, ws.Position, err)
			}
			ws.ID = id
			out = append(out, ws)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListWordSenses returns the vocabulary of a database in canonical order
func (s *Store) ListWordSenses(ctx context.Context, databaseID int64) ([]models.WordSense, error) {
	var out []models.WordSense
	err := s.selectRows(ctx, &out,
		`SELECT id, database_id, word, part_of_speech, first_position, translation
		 FROM word_senses WHERE database_id = ? ORDER BY first_position`, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list word senses: %w", err)
	}
	return out, nil
}

// AddKnownWords marks words as known, ignoring ones already marked
func (s *Store) AddKnownWords(ctx context.Context, words []models.KnownWord) error {
	for _, w := range words {
		_, err := s.exec(ctx,
			`INSERT INTO known_words (user_id, database_id, word, part_of_speech) VALUES (?, ?, ?, ?)
			 ON CONFLICT (user_id, database_id, word, part_of_speech) DO NOTHING`,
			w.UserID, w.DatabaseID, w.Word, w.PartOfSpeech)
		if err != nil {
			return fmt.Errorf("failed to mark %q known: %w", w.Word, err)
		}
	}
	return nil
}

// ListKnownWords returns the words a user marked known in a database
func (s *Store) ListKnownWords(ctx context.Context, userID, databaseID int64) ([]models.KnownWord, error) {
	var out []models.KnownWord
	err := s.selectRows(ctx, &out,
		`SELECT user_id, database_id, word, part_of_speech FROM known_words
		 WHERE user_id = ? AND database_id = ?`, userID, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list known words: %w", err)
	}
	return out, nil
}
