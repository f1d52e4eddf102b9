// Package scheduling is the entry point for review, batch and deck
// operations. Every call is scoped to the caller's user ID and checks that the
// referenced database or card belongs to that user.
package scheduling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/lexibatch/internal/batch"
	"github.com/example/lexibatch/internal/database"
	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/internal/selector"
	"github.com/example/lexibatch/internal/spaced_repetition"
	"github.com/example/lexibatch/pkg/models"
)

// StatsCache stores dashboard stats between reviews. Implementations must
// treat every failure as a miss.
type StatsCache interface {
	GetStats(ctx context.Context, userID, databaseID int64) (*models.BatchStats, bool)
	SetStats(ctx context.Context, userID, databaseID int64, stats *models.BatchStats)
	InvalidateStats(ctx context.Context, userID, databaseID int64)
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Params             spaced_repetition.Params
	ReadyThreshold     float64
	LearnedRepetitions int
	FivePointAllowTwo  bool
	NewCardsPerDay     int
	MatureIntervalDays int
	SessionIdleTimeout time.Duration
	Cache              StatsCache
	Logger             *slog.Logger
	Clock              func() time.Time
}

// Service composes the review engine, batch manager and due-set selector
// over a repository.
type Service struct {
	repo       database.Repository
	engine     *spaced_repetition.SM2
	batches    *batch.Manager
	fivePoint  spaced_repetition.FivePointScale
	fourPoint  spaced_repetition.FourPointScale
	cache      StatsCache
	logger     *slog.Logger
	now        func() time.Time
	newPerDay  int
	matureDays int
	locks      keyedMutex
	sessions   *sessionRegistry
}

// NewService creates a scheduling service
func NewService(repo database.Repository, opts Options) *Service {
	if opts.Params == (spaced_repetition.Params{}) {
		opts.Params = spaced_repetition.DefaultParams()
	}
	if opts.MatureIntervalDays <= 0 {
		opts.MatureIntervalDays = 21
	}
	if opts.SessionIdleTimeout <= 0 {
		opts.SessionIdleTimeout = 30 * time.Minute
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:       repo,
		engine:     spaced_repetition.NewSM2(opts.Params),
		batches:    batch.NewManager(opts.ReadyThreshold, opts.LearnedRepetitions),
		fivePoint:  spaced_repetition.FivePointScale{AllowTwo: opts.FivePointAllowTwo},
		cache:      opts.Cache,
		logger:     logging.NewComponentLogger(opts.Logger, "scheduling"),
		now:        opts.Clock,
		newPerDay:  opts.NewCardsPerDay,
		matureDays: opts.MatureIntervalDays,
		sessions:   newSessionRegistry(opts.SessionIdleTimeout),
	}
}

// authorizeDatabase loads a database and checks ownership
func authorizeDatabase(ctx context.Context, repo database.Repository, userID, databaseID int64) (*models.VocabularyDatabase, error) {
	vdb, err := repo.GetDatabase(ctx, databaseID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrDatabaseNotFound, databaseID)
	}
	if err != nil {
		return nil, storageErr("get database", err)
	}
	if vdb.UserID != userID {
		return nil, &AuthorizationError{UserID: userID, Resource: "database", ID: strconv.FormatInt(databaseID, 10)}
	}
	return vdb, nil
}

func (s *Service) invalidate(ctx context.Context, userID, databaseID int64) {
	if s.cache != nil {
		s.cache.InvalidateStats(ctx, userID, databaseID)
	}
}

// ListDatabases returns the caller's vocabulary databases
func (s *Service) ListDatabases(ctx context.Context, userID int64) ([]models.VocabularyDatabase, error) {
	dbs, err := s.repo.ListDatabases(ctx, userID)
	if err != nil {
		return nil, storageErr("list databases", err)
	}
	return dbs, nil
}

// ImportVocabulary creates a database from an analyzed word list. Senses
// without a position are numbered in input order.
func (s *Service) ImportVocabulary(ctx context.Context, userID int64, name string, senses []models.WordSense) (*models.VocabularyDatabase, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: database name is required", ErrInvalidInput)
	}
	seen := make(map[int]bool, len(senses))
	prepared := make([]models.WordSense, 0, len(senses))
	for i, ws := range senses {
		if ws.Position == 0 {
			ws.Position = i + 1
		}
		if strings.TrimSpace(ws.Word) == "" {
			return nil, fmt.Errorf("%w: empty word at position %d", ErrInvalidInput, ws.Position)
		}
		if seen[ws.Position] {
			return nil, fmt.Errorf("%w: duplicate position %d", ErrInvalidInput, ws.Position)
		}
		seen[ws.Position] = true
		prepared = append(prepared, ws)
	}

	var vdb *models.VocabularyDatabase
	err := s.repo.InTx(ctx, func(tx database.Repository) error {
		var err error
		if vdb, err = tx.CreateDatabase(ctx, userID, name); err != nil {
			return err
		}
		_, err = tx.AddWordSenses(ctx, vdb.ID, prepared)
		return err
	})
	if err != nil {
		return nil, storageErr("import vocabulary", err)
	}
	s.logger.Info("vocabulary imported", logging.Args(logging.UserID(userID),
		logging.DatabaseID(vdb.ID), logging.Int("word_senses", len(prepared)))...)
	return vdb, nil
}

// Review applies a five-point rating from the batch learner
func (s *Service) Review(ctx context.Context, userID, cardID int64, quality int) (models.ReviewResult, error) {
	return s.review(ctx, userID, cardID, quality, s.fivePoint)
}

// ReviewDeck applies a four-point rating from the Anki-style deck
func (s *Service) ReviewDeck(ctx context.Context, userID, cardID int64, rating int) (models.ReviewResult, error) {
	return s.review(ctx, userID, cardID, rating, s.fourPoint)
}

// review updates the card and the owning batch's progress in one transaction
func (s *Service) review(ctx context.Context, userID, cardID int64, rating int, scale spaced_repetition.Scale) (models.ReviewResult, error) {
	var (
		result     models.ReviewResult
		databaseID int64
	)
	err := s.repo.InTx(ctx, func(tx database.Repository) error {
		card, err := tx.GetCard(ctx, cardID)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrCardNotFound, cardID)
		}
		if err != nil {
			return err
		}
		if card.UserID != userID {
			return &AuthorizationError{UserID: userID, Resource: "card", ID: strconv.FormatInt(cardID, 10)}
		}
		databaseID = card.DatabaseID

		updated, grade, err := s.engine.Review(*card, rating, scale, s.now())
		if err != nil {
			return err
		}
		learnedNow := s.batches.CountsAsLearned(updated)
		if learnedNow {
			updated.CountedLearned = true
		}
		if err := tx.UpdateCard(ctx, &updated); err != nil {
			return err
		}

		result = models.ReviewResult{Card: updated.Summary(), Passed: grade.Passed(), LearnedNow: learnedNow}
		if learnedNow {
			n, err := tx.IncrementBatchProgress(ctx, userID, card.DatabaseID, card.WordSenseID)
			if err != nil {
				return err
			}
			result.BatchNumber = n
		}
		return nil
	})
	if err != nil {
		return models.ReviewResult{}, storageErr("review", err)
	}

	s.invalidate(ctx, userID, databaseID)
	s.logger.Debug("card reviewed", logging.Args(
		logging.UserID(userID),
		logging.CardID(cardID),
		logging.String("scale", scale.Name()),
		logging.Int("rating", rating),
		logging.Bool("passed", result.Passed),
		logging.Int("interval", result.Card.IntervalDays),
	)...)
	return result, nil
}

// CreateBatches replaces the batch structure of a database. Cards survive;
// each new batch starts with the number of its cards already learned.
func (s *Service) CreateBatches(ctx context.Context, userID, databaseID int64, batchSize int, opts models.BatchOptions) ([]models.Batch, error) {
	unlock := s.locks.lock(userID, databaseID)
	defer unlock()

	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, batchSize)
	}

	var created []models.Batch
	err := s.repo.InTx(ctx, func(tx database.Repository) error {
		senses, err := tx.ListWordSenses(ctx, databaseID)
		if err != nil {
			return err
		}
		known := map[string]bool{}
		if opts.ExcludeKnown {
			words, err := tx.ListKnownWords(ctx, userID, databaseID)
			if err != nil {
				return err
			}
			for _, w := range words {
				known[models.SenseKey(w.Word, w.PartOfSpeech)] = true
			}
		}

		planned, err := batch.Plan(senses, batchSize, opts, known)
		if err != nil {
			return err
		}
		learned, err := tx.LearnedWordSenseIDs(ctx, userID, databaseID)
		if err != nil {
			return err
		}
		for i := range planned {
			planned[i].UserID = userID
			planned[i].DatabaseID = databaseID
			for _, id := range planned[i].WordSenseIDs {
				if learned[id] {
					planned[i].WordsLearnedCount++
				}
			}
		}

		if err := tx.ReplaceBatches(ctx, userID, databaseID, planned); err != nil {
			return err
		}
		if len(planned) > 0 {
			if err := tx.EnsureCards(ctx, userID, databaseID, planned[0].WordSenseIDs, s.now()); err != nil {
				return err
			}
		}
		created, err = tx.ListBatches(ctx, userID, databaseID)
		return err
	})
	if err != nil {
		return nil, storageErr("create batches", err)
	}

	s.invalidate(ctx, userID, databaseID)
	s.logger.Info("batches created", logging.Args(logging.UserID(userID), logging.DatabaseID(databaseID),
		logging.Int("batches", len(created)), logging.Int("batch_size", batchSize))...)
	return created, nil
}

// ActivateNext completes the active batch and activates the following one
func (s *Service) ActivateNext(ctx context.Context, userID, databaseID int64) (*models.Batch, error) {
	unlock := s.locks.lock(userID, databaseID)
	defer unlock()

	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return nil, err
	}

	var activated models.Batch
	err := s.repo.InTx(ctx, func(tx database.Repository) error {
		batches, err := tx.ListBatches(ctx, userID, databaseID)
		if err != nil {
			return err
		}
		current, next, err := s.batches.NextActivation(batches)
		if err != nil {
			return err
		}
		if current >= 0 {
			if err := tx.SetBatchFlags(ctx, batches[current], false, true); err != nil {
				return err
			}
		}
		if err := tx.SetBatchFlags(ctx, batches[next], true, false); err != nil {
			return err
		}
		if err := tx.EnsureCards(ctx, userID, databaseID, batches[next].WordSenseIDs, s.now()); err != nil {
			return err
		}
		activated = batches[next]
		activated.IsActive = true
		activated.IsCompleted = false
		return nil
	})
	if err != nil {
		return nil, storageErr("activate next batch", err)
	}

	s.invalidate(ctx, userID, databaseID)
	s.logger.Info("batch activated", logging.Args(logging.UserID(userID), logging.DatabaseID(databaseID),
		logging.Batch(activated.BatchNumber))...)
	return &activated, nil
}

// ListBatches returns the batches of a database in order
func (s *Service) ListBatches(ctx context.Context, userID, databaseID int64) ([]models.Batch, error) {
	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return nil, err
	}
	batches, err := s.repo.ListBatches(ctx, userID, databaseID)
	if err != nil {
		return nil, storageErr("list batches", err)
	}
	return batches, nil
}

// GetStats summarizes batches and cards of a database
func (s *Service) GetStats(ctx context.Context, userID, databaseID int64) (*models.BatchStats, error) {
	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if stats, ok := s.cache.GetStats(ctx, userID, databaseID); ok {
			return stats, nil
		}
	}

	batches, err := s.repo.ListBatches(ctx, userID, databaseID)
	if err != nil {
		return nil, storageErr("list batches", err)
	}
	cards, err := s.repo.ListStudyCards(ctx, userID, databaseID)
	if err != nil {
		return nil, storageErr("list cards", err)
	}

	stats := &models.BatchStats{
		DatabaseID:   databaseID,
		TotalBatches: len(batches),
		CardCounts:   selector.Summarize(cards, s.now(), s.matureDays),
	}
	for _, b := range batches {
		if b.IsCompleted {
			stats.CompletedBatches++
		}
	}
	if i := batch.Active(batches); i >= 0 {
		current := batches[i]
		stats.CurrentBatch = &current
		stats.ReadyForNext = s.batches.Ready(current) && i < len(batches)-1
	}

	if s.cache != nil {
		s.cache.SetStats(ctx, userID, databaseID, stats)
	}
	return stats, nil
}

// GetBatchCards returns the due and full card lists of one batch. Cards of a
// batch that was never activated do not exist yet, so both lists are empty.
func (s *Service) GetBatchCards(ctx context.Context, userID, databaseID int64, batchNumber int) (*models.BatchCards, error) {
	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return nil, err
	}
	batches, err := s.repo.ListBatches(ctx, userID, databaseID)
	if err != nil {
		return nil, storageErr("list batches", err)
	}
	b, err := batch.Find(batches, batchNumber)
	if err != nil {
		return nil, err
	}
	cards, err := s.repo.ListBatchStudyCards(ctx, userID, databaseID, batchNumber)
	if err != nil {
		return nil, storageErr("list batch cards", err)
	}
	return &models.BatchCards{
		Batch:    b,
		DueCards: selector.Due(cards, s.now()),
		AllCards: selector.Ordered(cards),
	}, nil
}

// DeleteBatches resets batch learning for a database: batches and the
// user's cards are removed, the vocabulary stays.
func (s *Service) DeleteBatches(ctx context.Context, userID, databaseID int64) error {
	unlock := s.locks.lock(userID, databaseID)
	defer unlock()

	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return err
	}
	err := s.repo.InTx(ctx, func(tx database.Repository) error {
		if err := tx.DeleteBatches(ctx, userID, databaseID); err != nil {
			return err
		}
		return tx.DeleteCards(ctx, userID, databaseID)
	})
	if err != nil {
		return storageErr("delete batches", err)
	}
	s.invalidate(ctx, userID, databaseID)
	s.sessions.dropDatabase(databaseID)
	s.logger.Info("batches deleted", logging.Args(logging.UserID(userID), logging.DatabaseID(databaseID))...)
	return nil
}

// DeleteDatabase removes a database and everything scheduled from it
func (s *Service) DeleteDatabase(ctx context.Context, userID, databaseID int64) error {
	unlock := s.locks.lock(userID, databaseID)
	defer unlock()

	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return err
	}
	if err := s.repo.DeleteDatabase(ctx, databaseID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("%w: %d", ErrDatabaseNotFound, databaseID)
		}
		return storageErr("delete database", err)
	}
	s.invalidate(ctx, userID, databaseID)
	s.sessions.dropDatabase(databaseID)
	s.logger.Info("database deleted", logging.Args(logging.UserID(userID), logging.DatabaseID(databaseID))...)
	return nil
}

// MarkKnown records word senses the user already knows. They are left out of
// batches created with ExcludeKnown. It returns how many senses were marked.
func (s *Service) MarkKnown(ctx context.Context, userID, databaseID int64, wordSenseIDs []int64) (int, error) {
	if len(wordSenseIDs) == 0 {
		return 0, fmt.Errorf("%w: no word senses given", ErrInvalidInput)
	}
	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return 0, err
	}
	senses, err := s.repo.ListWordSenses(ctx, databaseID)
	if err != nil {
		return 0, storageErr("list word senses", err)
	}
	byID := make(map[int64]models.WordSense, len(senses))
	for _, ws := range senses {
		byID[ws.ID] = ws
	}

	known := make([]models.KnownWord, 0, len(wordSenseIDs))
	for _, id := range wordSenseIDs {
		ws, ok := byID[id]
		if !ok {
			return 0, fmt.Errorf("%w: %d", ErrWordSenseNotFound, id)
		}
		known = append(known, models.KnownWord{
			UserID:       userID,
			DatabaseID:   databaseID,
			Word:         strings.ToLower(strings.TrimSpace(ws.Word)),
			PartOfSpeech: strings.ToLower(strings.TrimSpace(ws.PartOfSpeech)),
		})
	}
	if err := s.repo.AddKnownWords(ctx, known); err != nil {
		return 0, storageErr("mark known", err)
	}
	return len(known), nil
}

// GetDeck returns the Anki-style view of a whole database. Cards are created
// for every sense the first time the deck is opened.
func (s *Service) GetDeck(ctx context.Context, userID, databaseID int64) (*models.DeckCards, error) {
	if _, err := authorizeDatabase(ctx, s.repo, userID, databaseID); err != nil {
		return nil, err
	}
	cards, err := s.deckCards(ctx, userID, databaseID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &models.DeckCards{
		DueCards:   selector.DeckDue(cards, now, s.newPerDay),
		AllCards:   selector.Ordered(cards),
		CardCounts: selector.Summarize(cards, now, s.matureDays),
	}, nil
}

func (s *Service) deckCards(ctx context.Context, userID, databaseID int64) ([]models.StudyCard, error) {
	senses, err := s.repo.ListWordSenses(ctx, databaseID)
	if err != nil {
		return nil, storageErr("list word senses", err)
	}
	ids := make([]int64, len(senses))
	for i, ws := range senses {
		ids[i] = ws.ID
	}
	if err := s.repo.EnsureCards(ctx, userID, databaseID, ids, s.now()); err != nil {
		return nil, storageErr("create deck cards", err)
	}
	cards, err := s.repo.ListStudyCards(ctx, userID, databaseID)
	if err != nil {
		return nil, storageErr("list cards", err)
	}
	return cards, nil
}

// DueCount returns how many of the user's cards are due across databases
func (s *Service) DueCount(ctx context.Context, userID int64) (int, error) {
	cards, err := s.repo.ListCardsByUser(ctx, userID)
	if err != nil {
		return 0, storageErr("list cards", err)
	}
	now := s.now()
	due := 0
	for _, c := range cards {
		if c.IsDue(now) {
			due++
		}
	}
	return due, nil
}

// GetNotificationSettings returns the caller's reminder settings
func (s *Service) GetNotificationSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	settings, err := s.repo.GetSettings(ctx, userID)
	if err != nil {
		return nil, storageErr("get settings", err)
	}
	return settings, nil
}

// UpdateNotificationSettings stores the caller's reminder settings
func (s *Service) UpdateNotificationSettings(ctx context.Context, userID int64, enabled bool, hour int, telegramChatID int64) (*models.UserSettings, error) {
	if hour < 0 || hour > 23 {
		return nil, fmt.Errorf("%w: notification hour %d out of range", ErrInvalidInput, hour)
	}
	settings := &models.UserSettings{
		UserID:              userID,
		NotificationEnabled: enabled,
		NotificationHour:    hour,
		TelegramChatID:      telegramChatID,
	}
	if err := s.repo.UpsertSettings(ctx, settings); err != nil {
		return nil, storageErr("save settings", err)
	}
	return settings, nil
}

// UsersForNotification lists users whose reminder hour is hour
func (s *Service) UsersForNotification(ctx context.Context, hour int) ([]models.UserSettings, error) {
	users, err := s.repo.ListUsersForNotification(ctx, hour)
	if err != nil {
		return nil, storageErr("list users for notification", err)
	}
	return users, nil
}
