package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const commandHistoryLimit = 20

// Keys shared with the game-server process. The game server reads and writes
// the same records, so the layout must not change unilaterally.
const (
	keyCountingGame   = "minecraft.countinggame"
	keyOnlinePlayers  = "minecraft.players"
	keyCommandHistory = "discord.cmd_history"
	linkCodePattern   = "sync.code.*"
)

// Storage wraps the Redis store that the bot shares with the game server.
// All persisted bot state lives here; there is no separate local datastore.
type Storage struct {
	rdb *redis.Client
}

// CountingState is the persisted counting-game record.
type CountingState struct {
	LastNum    int    `json:"last_num"`
	LastAuthor string `json:"last_author"`
}

// OnlinePlayer is one entry of the roster the game server keeps at
// minecraft.players.
type OnlinePlayer struct {
	Username string `json:"username"`
	UUID     string `json:"uuid"`
}

// CommandHistoryRecord is one logged command invocation.
type CommandHistoryRecord struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

// LinkCode is a pending account-link token written by the game server.
type LinkCode struct {
	DiscordID string    `json:"discord_id"`
	UUID      string    `json:"uuid"`
	ExpiresAt time.Time `json:"expires_at"`
}

func New(addr, password string) (*Storage, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Storage{rdb: rdb}, nil
}

// NewWithClient wraps an existing client. The bridge shares the same connection
// options but owns its own subscriber connection.
func NewWithClient(rdb *redis.Client) *Storage {
	return &Storage{rdb: rdb}
}

func (s *Storage) Close() error {
	return s.rdb.Close()
}

// CountingState reads the shared counting-game record. A missing or malformed
// record is treated as the zero state, matching the game-server behaviour.
func (s *Storage) CountingState(ctx context.Context) (CountingState, error) {
	var state CountingState
	raw, err := s.rdb.Get(ctx, keyCountingGame).Result()
	if errors.Is(err, redis.Nil) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("failed to read counting state: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return CountingState{}, fmt.Errorf("failed to decode counting state: %w", err)
	}
	return state, nil
}

func (s *Storage) SetCountingState(ctx context.Context, state CountingState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode counting state: %w", err)
	}
	if err := s.rdb.Set(ctx, keyCountingGame, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write counting state: %w", err)
	}
	return nil
}

// OnlinePlayers returns the roster published by the game server.
func (s *Storage) OnlinePlayers(ctx context.Context) ([]OnlinePlayer, error) {
	raw, err := s.rdb.Get(ctx, keyOnlinePlayers).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read online players: %w", err)
	}
	var players []OnlinePlayer
	if err := json.Unmarshal([]byte(raw), &players); err != nil {
		return nil, fmt.Errorf("failed to decode online players: %w", err)
	}
	return players, nil
}

// AppendCommandToHistory logs a command invocation, keeping the newest
// commandHistoryLimit records.
func (s *Storage) AppendCommandToHistory(ctx context.Context, rec CommandHistoryRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, keyCommandHistory, raw)
	pipe.LTrim(ctx, keyCommandHistory, 0, commandHistoryLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history record: %w", err)
	}
	return nil
}

func (s *Storage) FetchCommandHistory(ctx context.Context) ([]CommandHistoryRecord, error) {
	raws, err := s.rdb.LRange(ctx, keyCommandHistory, 0, commandHistoryLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	records := make([]CommandHistoryRecord, 0, len(raws))
	for _, raw := range raws {
		var rec CommandHistoryRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ExpiredLinkCodes scans the pending link tokens and returns the keys of those
// past their expiry, together with the decoded records.
func (s *Storage) ExpiredLinkCodes(ctx context.Context, now time.Time) (map[string]LinkCode, error) {
	expired := make(map[string]LinkCode)
	iter := s.rdb.Scan(ctx, 0, linkCodePattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		raw, err := s.rdb.Get(ctx, key).Result()
		if err != nil {
			continue
		}
		var code LinkCode
		if err := json.Unmarshal([]byte(raw), &code); err != nil {
			continue
		}
		if now.After(code.ExpiresAt) {
			expired[key] = code
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan link codes: %w", err)
	}
	return expired, nil
}

func (s *Storage) DeleteLinkCode(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete link code %s: %w", key, err)
	}
	return nil
}
