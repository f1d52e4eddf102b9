package scheduling

import (
	"fmt"
	"sync"
)

// keyedMutex serializes work per (user, database)
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) lock(userID, databaseID int64) func() {
	key := fmt.Sprintf("%d:%d", userID, databaseID)

	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
