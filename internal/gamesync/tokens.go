package gamesync

import (
	"context"
	"log"
	"time"

	"craftwarden/internal/storage"
)

const syncChannel = "discord.sync"

type Publisher interface {
	PublishJSON(ctx context.Context, channel string, v any) error
}

// Syncer forwards bot DMs to the game server so in-game link codes can be
// verified there.
type Syncer struct {
	Pub Publisher
}

type syncMessage struct {
	DiscordID string `json:"discord_id"`
	Content   string `json:"content"`
}

func (s *Syncer) ForwardDM(ctx context.Context, authorID, content string) error {
	return s.Pub.PublishJSON(ctx, syncChannel, syncMessage{DiscordID: authorID, Content: content})
}

// TokenStore is the slice of storage the sweeper needs.
type TokenStore interface {
	ExpiredLinkCodes(ctx context.Context, now time.Time) (map[string]storage.LinkCode, error)
	DeleteLinkCode(ctx context.Context, key string) error
}

// Notifier delivers expiry notices; Directory satisfies it.
type Notifier interface {
	DirectMessage(ctx context.Context, userID, content string) error
}

// Sweeper deletes expired account-link codes and tells their owners to request
// a fresh one. Each sweep is self-contained; overlapping runs are harmless
// because deletion is idempotent.
type Sweeper struct {
	Store    TokenStore
	Notifier Notifier
}

func (s *Sweeper) Sweep(ctx context.Context) {
	expired, err := s.Store.ExpiredLinkCodes(ctx, time.Now())
	if err != nil {
		log.Printf("[ERR] Failed to scan link codes: %v", err)
		return
	}
	for key, code := range expired {
		if err := s.Store.DeleteLinkCode(ctx, key); err != nil {
			log.Printf("[WARN] Failed to delete expired link code %s: %v", key, err)
			continue
		}
		if code.DiscordID == "" {
			continue
		}
		notice := "Your account link code has expired. Run the link command in game to request a new one."
		if err := s.Notifier.DirectMessage(ctx, code.DiscordID, notice); err != nil {
			log.Printf("[WARN] Failed to notify %s about expired link code: %v", code.DiscordID, err)
		}
	}
}

// RunTokenSweeper sweeps on a fixed interval until ctx is done.
func RunTokenSweeper(ctx context.Context, sweeper *Sweeper, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweeper.Sweep(ctx)
		}
	}
}
