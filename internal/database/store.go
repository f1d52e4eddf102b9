package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/lexibatch/pkg/models"
	"github.com/jmoiron/sqlx"
)

var (
	// ErrNotFound is returned when a row does not exist
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when an optimistic update lost a race
	ErrConflict = errors.New("record was modified concurrently")
)

// Repository is the persistence contract the scheduler depends on. Store
// implements it over SQLite or PostgreSQL.
type Repository interface {
	// InTx runs fn inside one transaction. fn must only use the repository it
	// is given.
	InTx(ctx context.Context, fn func(tx Repository) error) error

	CreateDatabase(ctx context.Context, userID int64, name string) (*models.VocabularyDatabase, error)
	GetDatabase(ctx context.Context, databaseID int64) (*models.VocabularyDatabase, error)
	ListDatabases(ctx context.Context, userID int64) ([]models.VocabularyDatabase, error)
	DeleteDatabase(ctx context.Context, databaseID int64) error

	AddWordSenses(ctx context.Context, databaseID int64, senses []models.WordSense) ([]models.WordSense, error)
	ListWordSenses(ctx context.Context, databaseID int64) ([]models.WordSense, error)
	AddKnownWords(ctx context.Context, words []models.KnownWord) error
	ListKnownWords(ctx context.Context, userID, databaseID int64) ([]models.KnownWord, error)

	EnsureCards(ctx context.Context, userID, databaseID int64, wordSenseIDs []int64, now time.Time) error
	GetCard(ctx context.Context, cardID int64) (*models.Card, error)
	ListStudyCards(ctx context.Context, userID, databaseID int64) ([]models.StudyCard, error)
	ListBatchStudyCards(ctx context.Context, userID, databaseID int64, batchNumber int) ([]models.StudyCard, error)
	ListCardsByUser(ctx context.Context, userID int64) ([]models.Card, error)
	UpdateCard(ctx context.Context, card *models.Card) error
	DeleteCards(ctx context.Context, userID, databaseID int64) error
	LearnedWordSenseIDs(ctx context.Context, userID, databaseID int64) (map[int64]bool, error)

	ListBatches(ctx context.Context, userID, databaseID int64) ([]models.Batch, error)
	ReplaceBatches(ctx context.Context, userID, databaseID int64, batches []models.Batch) error
	SetBatchFlags(ctx context.Context, b models.Batch, isActive, isCompleted bool) error
	IncrementBatchProgress(ctx context.Context, userID, databaseID, wordSenseID int64) (int, error)
	DeleteBatches(ctx context.Context, userID, databaseID int64) error

	GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error)
	UpsertSettings(ctx context.Context, settings *models.UserSettings) error
	ListUsersForNotification(ctx context.Context, hour int) ([]models.UserSettings, error)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Store manages scheduler persistence backed by sqlx.
type Store struct {
	db   *sqlx.DB
	q    queryer
	inTx bool
}

var _ Repository = (*Store)(nil)

func newStore(db *sqlx.DB) *Store {
	return &Store{db: db, q: db}
}

// InTx runs fn in a transaction, committing when fn returns nil. Nested calls
// reuse the outer transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx Repository) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&Store{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *Store) rebind(query string) string {
	return s.q.Rebind(query)
}

func (s *Store) get(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	err := s.q.GetContext(ctx, dest, s.rebind(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *Store) selectRows(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	return s.q.SelectContext(ctx, dest, s.rebind(query), args...)
}

func (s *Store) exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.rebind(query), args...)
}

// insertReturningID runs an INSERT ... RETURNING id, which both SQLite and
// PostgreSQL support.
func (s *Store) insertReturningID(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := s.q.QueryRowxContext(ctx, s.rebind(query), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
