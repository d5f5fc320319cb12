package matcher

import "sync"

// Cache keeps compiled matchers keyed by chat and exact word list, so
// unchanged chat configurations reuse the compiled form across messages.
// The two-level layout (chat id -> word-list signature -> matcher) makes
// invalidation a direct map delete for one chat, not a key scan.
type Cache struct {
	mu     sync.Mutex
	byChat map[int64]map[string]*Matcher
}

// NewCache returns an empty matcher cache.
func NewCache() *Cache {
	return &Cache{byChat: make(map[int64]map[string]*Matcher)}
}

// Get returns the matcher for the chat's current word list, compiling
// and caching it on first use. Returns nil for an empty word list.
func (c *Cache) Get(chatID int64, words []string) *Matcher {
	if len(words) == 0 {
		return nil
	}

	sig := Signature(words)

	c.mu.Lock()
	defer c.mu.Unlock()

	chatEntries, ok := c.byChat[chatID]
	if !ok {
		chatEntries = make(map[string]*Matcher)
		c.byChat[chatID] = chatEntries
	}

	if m, ok := chatEntries[sig]; ok {
		return m
	}

	m := Compile(words)
	chatEntries[sig] = m
	return m
}

// Invalidate drops every cached matcher for one chat. Other chats'
// entries are untouched.
func (c *Cache) Invalidate(chatID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byChat, chatID)
}

// Len reports how many chats currently have cached matchers.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byChat)
}
