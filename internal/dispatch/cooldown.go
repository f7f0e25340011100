package dispatch

import (
	"sync"
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

// CooldownTracker rate-limits command invocations per (command, actor) pair.
// Each entry carries its own TTL equal to the cooldown window, so entries
// expire exactly at the deadline recorded for them; a later allowed attempt
// refreshes both the deadline and the TTL, keeping at most one live entry per
// pair. The cache locks per operation, so the judge-then-stamp sequence needs
// its own mutex to stay atomic under concurrent messages from one actor.
type CooldownTracker struct {
	mu      sync.Mutex
	entries cache.Cache[string, time.Time]
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		entries: cache.NewCache[string, time.Time](),
	}
}

// CheckAndRecord atomically judges one invocation attempt for the pair. An
// allowed attempt stamps a fresh window; a denied attempt leaves the existing
// deadline untouched and reports how long remains.
func (t *CooldownTracker) CheckAndRecord(commandName, actorID string, window time.Duration) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := cooldownKey(commandName, actorID)
	if deadline, ok := t.entries.Get(key); ok {
		if remaining := time.Until(deadline); remaining > 0 {
			return false, remaining
		}
	}
	t.entries.Set(key, time.Now().Add(window), window)
	return true, 0
}

func cooldownKey(commandName, actorID string) string {
	return commandName + "\x00" + actorID
}
