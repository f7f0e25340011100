// Package counting validates the counting channel: a strictly increasing
// integer sequence where the same author never counts twice in a row. The
// accepted state is shared with the game server, which awards the prizes.
package counting

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"

	"craftwarden/internal/config"
	"craftwarden/internal/storage"
)

const (
	survivalConsoleChannel = "minecraft.console.survival.in"
	hubConsoleChannel      = "minecraft.console.hub.in"
)

type StateStore interface {
	CountingState(ctx context.Context) (storage.CountingState, error)
	SetCountingState(ctx context.Context, state storage.CountingState) error
}

type Publisher interface {
	Publish(ctx context.Context, channel, payload string) error
}

// UUIDResolver maps a Discord account to its in-game UUID.
type UUIDResolver interface {
	UUID(ctx context.Context, discordID string) (string, error)
}

// Submission is one message posted in the counting channel.
type Submission struct {
	Content     string
	AuthorID    string
	DisplayName string
}

// Result of judging a submission. A rejected submission carries no announce
// text; the caller deletes the offending message silently.
type Result struct {
	Accepted bool
	Announce string
}

type Game struct {
	store   StateStore
	pub     Publisher
	players UUIDResolver
	cfg     *config.Config
	randF   func() float64

	// mu serializes Submit: message handlers run on separate goroutines, and
	// the shared counting record is a read-judge-write sequence that must see
	// each accepted number before the next submission is judged.
	mu sync.Mutex
}

func New(store StateStore, pub Publisher, players UUIDResolver, cfg *config.Config) *Game {
	return &Game{
		store:   store,
		pub:     pub,
		players: players,
		cfg:     cfg,
		randF:   rand.Float64,
	}
}

// Submit judges one submission against the persisted state, which is read
// fresh every time because the game server shares it. Submissions are judged
// one at a time; concurrent duplicates of the same number cannot both win.
func (g *Game) Submit(ctx context.Context, sub Submission) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	state, err := g.store.CountingState(ctx)
	if err != nil {
		return Result{}, err
	}

	value, ok := leadingInt(sub.Content)
	if !ok || value != state.LastNum+1 || sub.AuthorID == state.LastAuthor {
		return Result{}, nil
	}

	next := storage.CountingState{LastNum: value, LastAuthor: sub.AuthorID}
	if err := g.store.SetCountingState(ctx, next); err != nil {
		return Result{}, err
	}

	return Result{Accepted: true, Announce: g.drawPrize(ctx, sub, value)}, nil
}

// drawPrize runs two independent chance draws; the cash draw takes priority and
// at most one prize is awarded. Prize delivery is best-effort.
func (g *Game) drawPrize(ctx context.Context, sub Submission, value int) string {
	if g.randF() < g.cfg.CountingCashChance {
		g.grantCash(ctx, sub.AuthorID)
		return fmt.Sprintf("You just won $%d in game for counting %d", g.cfg.CountingCashAmount, value)
	}
	if g.randF() < g.cfg.CountingCrateChance {
		cmd := fmt.Sprintf("givecosmetic %s 1 0", sub.DisplayName)
		if err := g.pub.Publish(ctx, hubConsoleChannel, cmd); err != nil {
			log.Printf("[WARN] Failed to grant crate key: %v", err)
		}
		return fmt.Sprintf("You just won a normal crate key in game for counting %d", value)
	}
	return ""
}

func (g *Game) grantCash(ctx context.Context, discordID string) {
	uuid, err := g.players.UUID(ctx, discordID)
	if err != nil || uuid == "" {
		log.Printf("[WARN] No UUID for %s, cash prize skipped: %v", discordID, err)
		return
	}
	cmd := fmt.Sprintf("eco give %s %d", uuid, g.cfg.CountingCashAmount)
	if err := g.pub.Publish(ctx, survivalConsoleChannel, cmd); err != nil {
		log.Printf("[WARN] Failed to grant cash prize: %v", err)
	}
}

// leadingInt parses the first whitespace-separated token as a base-10 integer.
func leadingInt(content string) (int, bool) {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return 0, false
	}
	value, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, false
	}
	return value, true
}
