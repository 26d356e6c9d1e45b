package services

import (
	"strings"
	"sync"
	"time"

	"github.com/dokufrage/dokufrage/models"
)

// answerCache remembers generated answers for a limited time so that
// repeating the same question does not hit the embedding and generation
// backends again.
type answerCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	answer  string
	sources []models.Source
	expires time.Time
}

func newAnswerCache(ttl time.Duration) *answerCache {
	return &answerCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// cacheKey normalizes a question so trivially different phrasings of the
// same string share an entry.
func cacheKey(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

func (c *answerCache) get(question string) (string, []models.Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[cacheKey(question)]
	if !ok {
		return "", nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, cacheKey(question))
		return "", nil, false
	}
	return entry.answer, entry.sources, true
}

func (c *answerCache) put(question, answer string, sources []models.Source) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Opportunistically drop expired entries so the map does not grow
	// without bound.
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expires) {
			delete(c.entries, k)
		}
	}

	c.entries[cacheKey(question)] = cacheEntry{
		answer:  answer,
		sources: sources,
		expires: now.Add(c.ttl),
	}
}

// clear empties the cache. Called after a reindex, since cached answers may
// reference documents that no longer exist.
func (c *answerCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
