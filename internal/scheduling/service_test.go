package scheduling

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/lexibatch/internal/database"
	"github.com/example/lexibatch/internal/selector"
	"github.com/example/lexibatch/pkg/models"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc   *Service
	store *database.Store
	clock *testClock
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store, err := database.Connect(context.Background(), database.DriverSQLite, filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &testClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	opts.Clock = clock.Now
	return &fixture{svc: NewService(store, opts), store: store, clock: clock}
}

func (f *fixture) importWords(t *testing.T, userID int64, n int) int64 {
	t.Helper()
	senses := make([]models.WordSense, n)
	for i := range senses {
		senses[i] = models.WordSense{Word: fmt.Sprintf("word%02d", i+1), PartOfSpeech: "noun", Translation: fmt.Sprintf("t%d", i+1)}
	}
	vdb, err := f.svc.ImportVocabulary(context.Background(), userID, "book", senses)
	if err != nil {
		t.Fatalf("ImportVocabulary: %v", err)
	}
	return vdb.ID
}

func (f *fixture) batchCards(t *testing.T, userID, dbID int64, number int) []models.StudyCard {
	t.Helper()
	bc, err := f.svc.GetBatchCards(context.Background(), userID, dbID, number)
	if err != nil {
		t.Fatalf("GetBatchCards: %v", err)
	}
	return bc.AllCards
}

func TestReviewScenarioGoodGoodAgain(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 3)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 25, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	cardID := f.batchCards(t, 1, dbID, 1)[0].ID
	start := f.clock.Now()

	steps := []struct {
		quality  int
		reps     int
		interval int
		ease     int
	}{
		{3, 1, 1, 2500},
		{3, 2, 6, 2500},
		{0, 0, 1, 2300},
	}
	for i, step := range steps {
		res, err := f.svc.Review(ctx, 1, cardID, step.quality)
		if err != nil {
			t.Fatalf("step %d: Review: %v", i, err)
		}
		if res.Card.Repetitions != step.reps || res.Card.IntervalDays != step.interval || res.Card.EaseFactor != step.ease {
			t.Fatalf("step %d: got %+v, want reps=%d interval=%d ease=%d", i, res.Card, step.reps, step.interval, step.ease)
		}
		if want := start.AddDate(0, 0, step.interval); !res.Card.DueAt.Equal(want) {
			t.Fatalf("step %d: dueAt = %v, want %v", i, res.Card.DueAt, want)
		}
	}

	stored, err := f.store.GetCard(ctx, cardID)
	if err != nil {
		t.Fatalf("GetCard: %v", err)
	}
	if stored.Lapses != 1 || stored.State != models.CardStateLearning {
		t.Fatalf("unexpected stored card %+v", stored)
	}
}

func TestReviewRejectsForeignCard(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 2)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 2, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	cardID := f.batchCards(t, 1, dbID, 1)[0].ID

	_, err := f.svc.Review(ctx, 2, cardID, 4)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var authErr *AuthorizationError
	if !errors.As(err, &authErr) || authErr.Resource != "card" {
		t.Fatalf("expected AuthorizationError for card, got %#v", err)
	}

	if _, err := f.svc.GetStats(ctx, 2, dbID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("GetStats by other user: expected ErrUnauthorized, got %v", err)
	}
	if _, err := f.svc.ActivateNext(ctx, 2, dbID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("ActivateNext by other user: expected ErrUnauthorized, got %v", err)
	}
}

func TestReviewErrors(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 1)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 1, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	cardID := f.batchCards(t, 1, dbID, 1)[0].ID

	if _, err := f.svc.Review(ctx, 1, cardID, 2); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("rating 2 without AllowTwo: expected ErrInvalidRating, got %v", err)
	}
	if _, err := f.svc.ReviewDeck(ctx, 1, cardID, 0); !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("deck rating 0: expected ErrInvalidRating, got %v", err)
	}
	stored, _ := f.store.GetCard(ctx, cardID)
	if stored.Version != 0 || stored.Repetitions != 0 {
		t.Fatalf("invalid rating mutated the card: %+v", stored)
	}

	if _, err := f.svc.Review(ctx, 1, 9999, 3); !errors.Is(err, ErrCardNotFound) {
		t.Fatalf("expected ErrCardNotFound, got %v", err)
	}
}

func TestBatchProgressCountedOnce(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 4)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 4, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	cardID := f.batchCards(t, 1, dbID, 1)[0].ID

	first, err := f.svc.Review(ctx, 1, cardID, 4)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if !first.LearnedNow || first.BatchNumber != 1 {
		t.Fatalf("first pass should count as learned in batch 1: %+v", first)
	}
	for _, q := range []int{0, 3, 5} {
		res, err := f.svc.Review(ctx, 1, cardID, q)
		if err != nil {
			t.Fatalf("Review(%d): %v", q, err)
		}
		if res.LearnedNow {
			t.Fatalf("card counted twice on rating %d", q)
		}
	}

	stats, err := f.svc.GetStats(ctx, 1, dbID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.CurrentBatch == nil || stats.CurrentBatch.WordsLearnedCount != 1 {
		t.Fatalf("expected 1 learned word, got %+v", stats.CurrentBatch)
	}
}

func TestActivateNextNotReady(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 55)
	batches, err := f.svc.CreateBatches(ctx, 1, dbID, 25, models.BatchOptions{})
	if err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	if len(batches) != 3 || batches[0].TotalWords != 25 || batches[2].TotalWords != 5 {
		t.Fatalf("unexpected partition %+v", batches)
	}

	if _, err := f.svc.ActivateNext(ctx, 1, dbID); !errors.Is(err, ErrNoBatchReady) {
		t.Fatalf("expected ErrNoBatchReady, got %v", err)
	}
	after, _ := f.svc.ListBatches(ctx, 1, dbID)
	if !after[0].IsActive || after[0].IsCompleted || after[1].IsActive {
		t.Fatalf("failed activation changed state: %+v", after)
	}
}

func passBatch(t *testing.T, f *fixture, userID, dbID int64, number int) {
	t.Helper()
	for _, c := range f.batchCards(t, userID, dbID, number) {
		if _, err := f.svc.Review(context.Background(), userID, c.ID, 4); err != nil {
			t.Fatalf("Review: %v", err)
		}
	}
}

func TestActivateNextProgression(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 5)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 2, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	if got := f.batchCards(t, 1, dbID, 2); len(got) != 0 {
		t.Fatalf("inactive batch should have no cards yet, got %d", len(got))
	}

	passBatch(t, f, 1, dbID, 1)
	stats, _ := f.svc.GetStats(ctx, 1, dbID)
	if !stats.ReadyForNext {
		t.Fatalf("batch 1 should be ready: %+v", stats)
	}

	next, err := f.svc.ActivateNext(ctx, 1, dbID)
	if err != nil {
		t.Fatalf("ActivateNext: %v", err)
	}
	if next.BatchNumber != 2 || !next.IsActive {
		t.Fatalf("unexpected activated batch %+v", next)
	}
	if got := f.batchCards(t, 1, dbID, 2); len(got) != 2 {
		t.Fatalf("activated batch should have 2 cards, got %d", len(got))
	}

	passBatch(t, f, 1, dbID, 2)
	if _, err := f.svc.ActivateNext(ctx, 1, dbID); err != nil {
		t.Fatalf("ActivateNext to batch 3: %v", err)
	}
	passBatch(t, f, 1, dbID, 3)
	if _, err := f.svc.ActivateNext(ctx, 1, dbID); !errors.Is(err, ErrAllBatchesCompleted) {
		t.Fatalf("expected ErrAllBatchesCompleted, got %v", err)
	}

	batches, _ := f.svc.ListBatches(ctx, 1, dbID)
	if !batches[0].IsCompleted || !batches[1].IsCompleted || !batches[2].IsActive {
		t.Fatalf("unexpected final state %+v", batches)
	}
}

func TestActivateNextConcurrent(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 6)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 2, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	passBatch(t, f, 1, dbID, 1)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.ActivateNext(ctx, 1, dbID)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			if !errors.Is(err, ErrNoBatchReady) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly one activation, got %d", successes)
	}
	batches, _ := f.svc.ListBatches(ctx, 1, dbID)
	active := 0
	for _, b := range batches {
		if b.IsActive {
			active++
		}
	}
	if active != 1 || !batches[1].IsActive {
		t.Fatalf("expected batch 2 as the only active batch: %+v", batches)
	}
}

func TestCreateBatchesPreservesCards(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 4)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 4, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	cards := f.batchCards(t, 1, dbID, 1)
	if _, err := f.svc.Review(ctx, 1, cards[0].ID, 3); err != nil {
		t.Fatalf("Review: %v", err)
	}

	batches, err := f.svc.CreateBatches(ctx, 1, dbID, 2, models.BatchOptions{})
	if err != nil {
		t.Fatalf("CreateBatches again: %v", err)
	}
	if len(batches) != 2 || batches[0].WordsLearnedCount != 1 {
		t.Fatalf("expected learned count carried into batch 1: %+v", batches)
	}

	all, err := f.store.ListStudyCards(ctx, 1, dbID)
	if err != nil {
		t.Fatalf("ListStudyCards: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("cards duplicated or lost: %d", len(all))
	}
	if all[0].ID != cards[0].ID || all[0].Repetitions != 1 {
		t.Fatalf("card identity or state lost: %+v", all[0])
	}
}

func TestCreateBatchesInvalidSize(t *testing.T) {
	f := newFixture(t, Options{})
	dbID := f.importWords(t, 1, 3)
	if _, err := f.svc.CreateBatches(context.Background(), 1, dbID, 0, models.BatchOptions{}); !errors.Is(err, ErrInvalidBatchSize) {
		t.Fatalf("expected ErrInvalidBatchSize, got %v", err)
	}
}

func TestCreateBatchesExcludeKnownAndFirstInstances(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	vdb, err := f.svc.ImportVocabulary(ctx, 1, "story", []models.WordSense{
		{Word: "run", PartOfSpeech: "verb", Position: 1},
		{Word: "dog", PartOfSpeech: "noun", Position: 2},
		{Word: "Run", PartOfSpeech: "verb", Position: 3},
		{Word: "cat", PartOfSpeech: "noun", Position: 4},
	})
	if err != nil {
		t.Fatalf("ImportVocabulary: %v", err)
	}
	senses, _ := f.store.ListWordSenses(ctx, vdb.ID)
	if _, err := f.svc.MarkKnown(ctx, 1, vdb.ID, []int64{senses[1].ID}); err != nil {
		t.Fatalf("MarkKnown: %v", err)
	}

	batches, err := f.svc.CreateBatches(ctx, 1, vdb.ID, 10, models.BatchOptions{FirstInstancesOnly: true, ExcludeKnown: true})
	if err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	if len(batches) != 1 {
		t.Fatalf("expected one batch, got %d", len(batches))
	}
	want := []int64{senses[0].ID, senses[3].ID}
	got := batches[0].WordSenseIDs
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("WordSenseIDs = %v, want %v", got, want)
	}

	if _, err := f.svc.MarkKnown(ctx, 1, vdb.ID, []int64{424242}); !errors.Is(err, ErrWordSenseNotFound) {
		t.Fatalf("expected ErrWordSenseNotFound, got %v", err)
	}
}

func TestDeckLimitsNewCardsAndUsesFourPointScale(t *testing.T) {
	f := newFixture(t, Options{NewCardsPerDay: 3})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 10)

	deck, err := f.svc.GetDeck(ctx, 1, dbID)
	if err != nil {
		t.Fatalf("GetDeck: %v", err)
	}
	if len(deck.AllCards) != 10 || len(deck.DueCards) != 3 || deck.New != 10 {
		t.Fatalf("unexpected deck: all=%d due=%d new=%d", len(deck.AllCards), len(deck.DueCards), deck.New)
	}

	res, err := f.svc.ReviewDeck(ctx, 1, deck.DueCards[0].ID, 2)
	if err != nil {
		t.Fatalf("ReviewDeck: %v", err)
	}
	if !res.Passed || res.Card.EaseFactor != 2350 {
		t.Fatalf("Hard should pass with an ease penalty: %+v", res)
	}

	again, err := f.svc.GetDeck(ctx, 1, dbID)
	if err != nil {
		t.Fatalf("GetDeck: %v", err)
	}
	if len(again.AllCards) != 10 {
		t.Fatalf("deck cards duplicated: %d", len(again.AllCards))
	}
	if again.Learning != 1 || again.New != 9 {
		t.Fatalf("unexpected counts %+v", again.CardCounts)
	}
}

func TestStudySessionFlow(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 2)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 2, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}

	view, err := f.svc.StartSession(ctx, 1, dbID, 1, false)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if view.Total != 2 || view.Phase != selector.PhaseNotShown {
		t.Fatalf("unexpected start view %+v", view)
	}

	if _, _, err := f.svc.AnswerCard(ctx, 1, view.ID, 3); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("answer before reveal: expected ErrInvalidTransition, got %v", err)
	}

	for i := 0; i < 2; i++ {
		cur, err := f.svc.CurrentCard(ctx, 1, view.ID)
		if err != nil {
			t.Fatalf("CurrentCard: %v", err)
		}
		if cur.Card == nil || cur.Card.Translation != "" {
			t.Fatalf("answer must be hidden: %+v", cur.Card)
		}
		shown, err := f.svc.RevealAnswer(ctx, 1, view.ID)
		if err != nil {
			t.Fatalf("RevealAnswer: %v", err)
		}
		if shown.Answer == "" {
			t.Fatal("expected revealed answer")
		}
		quality := 4
		if i == 1 {
			quality = 1
		}
		if _, _, err := f.svc.AnswerCard(ctx, 1, view.ID, quality); err != nil {
			t.Fatalf("AnswerCard: %v", err)
		}
	}

	end, err := f.svc.CurrentCard(ctx, 1, view.ID)
	if err != nil {
		t.Fatalf("CurrentCard at end: %v", err)
	}
	if !end.Finished || end.Passed != 1 || end.Failed != 1 || end.Phase != selector.PhaseReviewed {
		t.Fatalf("unexpected end view %+v", end)
	}
	if _, err := f.svc.RevealAnswer(ctx, 1, view.ID); !errors.Is(err, ErrSessionFinished) {
		t.Fatalf("expected ErrSessionFinished, got %v", err)
	}
	if _, err := f.svc.CurrentCard(ctx, 2, view.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("other user: expected ErrUnauthorized, got %v", err)
	}
}

func TestStudySessionExpires(t *testing.T) {
	f := newFixture(t, Options{SessionIdleTimeout: time.Minute})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 1)

	view, err := f.svc.StartSession(ctx, 1, dbID, 0, true)
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	f.clock.Advance(2 * time.Minute)
	if removed := f.svc.SweepSessions(); removed != 1 {
		t.Fatalf("expected 1 swept session, got %d", removed)
	}
	if _, err := f.svc.CurrentCard(ctx, 1, view.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestDeleteBatchesResetsProgress(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 3)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 3, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	if err := f.svc.DeleteBatches(ctx, 1, dbID); err != nil {
		t.Fatalf("DeleteBatches: %v", err)
	}
	stats, err := f.svc.GetStats(ctx, 1, dbID)
	if err != nil {
		t.Fatalf("GetStats: %v", err)
	}
	if stats.TotalBatches != 0 || stats.Total != 0 || stats.CurrentBatch != nil {
		t.Fatalf("expected empty stats, got %+v", stats)
	}
}

func TestDeleteDatabase(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 3)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 3, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}
	if err := f.svc.DeleteDatabase(ctx, 2, dbID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := f.svc.DeleteDatabase(ctx, 1, dbID); err != nil {
		t.Fatalf("DeleteDatabase: %v", err)
	}
	if _, err := f.svc.GetStats(ctx, 1, dbID); !errors.Is(err, ErrDatabaseNotFound) {
		t.Fatalf("expected ErrDatabaseNotFound, got %v", err)
	}
	if n, _ := f.svc.DueCount(ctx, 1); n != 0 {
		t.Fatalf("expected no due cards, got %d", n)
	}
}

type memoryCache struct {
	mu          sync.Mutex
	stats       map[int64]*models.BatchStats
	invalidated int
}

func (m *memoryCache) GetStats(_ context.Context, _, dbID int64) (*models.BatchStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[dbID]
	return s, ok
}

func (m *memoryCache) SetStats(_ context.Context, _, dbID int64, stats *models.BatchStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[dbID] = stats
}

func (m *memoryCache) InvalidateStats(_ context.Context, _, dbID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stats, dbID)
	m.invalidated++
}

func TestStatsCacheInvalidatedByReview(t *testing.T) {
	cache := &memoryCache{stats: map[int64]*models.BatchStats{}}
	f := newFixture(t, Options{Cache: cache})
	ctx := context.Background()
	dbID := f.importWords(t, 1, 2)
	if _, err := f.svc.CreateBatches(ctx, 1, dbID, 2, models.BatchOptions{}); err != nil {
		t.Fatalf("CreateBatches: %v", err)
	}

	first, _ := f.svc.GetStats(ctx, 1, dbID)
	cached, _ := f.svc.GetStats(ctx, 1, dbID)
	if first != cached {
		t.Fatal("second GetStats should be served from cache")
	}

	cardID := f.batchCards(t, 1, dbID, 1)[0].ID
	if _, err := f.svc.Review(ctx, 1, cardID, 5); err != nil {
		t.Fatalf("Review: %v", err)
	}
	fresh, _ := f.svc.GetStats(ctx, 1, dbID)
	if fresh == first || fresh.Due != 1 {
		t.Fatalf("stats not refreshed after review: %+v", fresh)
	}
}

func TestNotificationSettingsValidation(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()
	if _, err := f.svc.UpdateNotificationSettings(ctx, 1, true, 24, 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.svc.UpdateNotificationSettings(ctx, 1, true, 7, 5); err != nil {
		t.Fatalf("UpdateNotificationSettings: %v", err)
	}
	users, err := f.svc.UsersForNotification(ctx, 7)
	if err != nil {
		t.Fatalf("UsersForNotification: %v", err)
	}
	if len(users) != 1 || users[0].UserID != 1 {
		t.Fatalf("unexpected users %+v", users)
	}
}
