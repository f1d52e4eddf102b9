// Package batch partitions vocabulary into ordered study batches and gates
// progression from one batch to the next.
package batch

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/lexibatch/pkg/models"
)

var (
	ErrInvalidBatchSize    = errors.New("batch size must be positive")
	ErrBatchNotFound       = errors.New("batch not found")
	ErrNoBatchReady        = errors.New("active batch has not reached the completion threshold")
	ErrAllBatchesCompleted = errors.New("all batches completed")
)

// Manager holds the progression rules for batches
type Manager struct {
	// Share of learned words required before the next batch can be activated
	ReadyThreshold float64
	// Repetitions a card needs before it counts as learned for batch progress
	LearnedRepetitions int
}

// NewManager returns a manager with sane bounds applied
func NewManager(readyThreshold float64, learnedRepetitions int) *Manager {
	if readyThreshold <= 0 || readyThreshold > 1 {
		readyThreshold = 0.8
	}
	if learnedRepetitions < 1 {
		learnedRepetitions = 1
	}
	return &Manager{ReadyThreshold: readyThreshold, LearnedRepetitions: learnedRepetitions}
}

// Filter returns the senses in canonical order with the requested options applied.
// known holds SenseKey values the user marked as known.
func Filter(senses []models.WordSense, opts models.BatchOptions, known map[string]bool) []models.WordSense {
	ordered := make([]models.WordSense, len(senses))
	copy(ordered, senses)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	seen := make(map[string]bool, len(ordered))
	filtered := ordered[:0]
	for _, s := range ordered {
		key := s.Key()
		if opts.FirstInstancesOnly {
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		if opts.ExcludeKnown && known[key] {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

// Plan partitions the filtered senses into contiguous batches of size. The
// first batch is active; the rest start inactive and not completed.
func Plan(senses []models.WordSense, size int, opts models.BatchOptions, known map[string]bool) ([]models.Batch, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBatchSize, size)
	}
	filtered := Filter(senses, opts, known)

	batches := make([]models.Batch, 0, (len(filtered)+size-1)/size)
	for start := 0; start < len(filtered); start += size {
		end := start + size
		if end > len(filtered) {
			end = len(filtered)
		}
		ids := make([]int64, 0, end-start)
		for _, s := range filtered[start:end] {
			ids = append(ids, s.ID)
		}
		batches = append(batches, models.Batch{
			BatchNumber:  len(batches) + 1,
			WordSenseIDs: ids,
			IsActive:     len(batches) == 0,
			TotalWords:   len(ids),
		})
	}
	return batches, nil
}

// Ready reports whether the batch has crossed the completion threshold
func (m *Manager) Ready(b models.Batch) bool {
	return b.TotalWords > 0 && b.CompletionRatio() >= m.ReadyThreshold
}

// NextActivation picks the batch transition ActivateNext should apply. It
// returns the index of the batch to complete (-1 when none is active) and the
// index of the batch to activate. batches must be ordered by batch number.
func (m *Manager) NextActivation(batches []models.Batch) (current, next int, err error) {
	if len(batches) == 0 {
		return -1, -1, ErrBatchNotFound
	}

	current = Active(batches)
	if current < 0 {
		// Nothing active: resume at the first batch that is not completed.
		for i, b := range batches {
			if !b.IsCompleted {
				return -1, i, nil
			}
		}
		return -1, -1, ErrAllBatchesCompleted
	}

	if !m.Ready(batches[current]) {
		return current, -1, fmt.Errorf("%w: batch %d at %.0f%%, need %.0f%%", ErrNoBatchReady,
			batches[current].BatchNumber, batches[current].CompletionRatio()*100, m.ReadyThreshold*100)
	}
	if current == len(batches)-1 {
		return current, -1, ErrAllBatchesCompleted
	}
	return current, current + 1, nil
}

// Active returns the index of the active batch or -1
func Active(batches []models.Batch) int {
	for i, b := range batches {
		if b.IsActive {
			return i
		}
	}
	return -1
}

// CountsAsLearned reports whether this review should increment batch progress.
// It is true exactly once per card: the first time it reaches the learned
// repetitions while not yet counted. Later failures never undo it.
func (m *Manager) CountsAsLearned(card models.Card) bool {
	return !card.CountedLearned && card.Repetitions >= m.LearnedRepetitions
}

// Find returns the batch with the given number
func Find(batches []models.Batch, number int) (models.Batch, error) {
	for _, b := range batches {
		if b.BatchNumber == number {
			return b, nil
		}
	}
	return models.Batch{}, fmt.Errorf("%w: %d", ErrBatchNotFound, number)
}
