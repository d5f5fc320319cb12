package service

import (
	"strconv"
	"sync"
)

// keyedMutex serializes work per key. Policy mutations lock per chat,
// user state transitions lock per (user, chat), so concurrent messages
// from the same user cannot lose warning increments while traffic from
// other chats and users proceeds in parallel.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for key, creating it on first use.
// Callers unlock via the returned mutex:
//
//	defer m.lock(key).Unlock()
func (k *keyedMutex) lock(key string) *sync.Mutex {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func userKey(userID, chatID int64) string {
	return strconv.FormatInt(userID, 10) + ":" + strconv.FormatInt(chatID, 10)
}
