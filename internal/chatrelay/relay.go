// Package chatrelay carries guild chat across the bridge: outbound Discord
// messages become minecraft.chat events, inbound game chat is posted back into
// the bridge channel through a webhook.
package chatrelay

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"craftwarden/internal/config"
	"craftwarden/internal/storage"
)

// MaxChatLength is the longest message the game-side chat accepts.
const MaxChatLength = 256

const chatChannel = "minecraft.chat"

// ErrTooLong marks a message rejected locally for length; it is never
// published.
var ErrTooLong = errors.New("chat message exceeds maximum length")

type Publisher interface {
	PublishJSON(ctx context.Context, channel string, v any) error
}

type Roster interface {
	OnlinePlayers(ctx context.Context) ([]storage.OnlinePlayer, error)
}

// ChatPayload is the wire format the game server consumes. Key names are part
// of the cross-process protocol.
type ChatPayload struct {
	Type        string       `json:"type"`
	Username    string       `json:"discord_username"`
	Timestamp   int64        `json:"timestamp"`
	Prefix      string       `json:"discord_prefix"`
	SenderID    string       `json:"discord_id"`
	Content     string       `json:"content"`
	Attachments []Attachment `json:"attachments"`
	Color       bool         `json:"color"`
	Format      bool         `json:"format"`
}

type Attachment struct {
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// Outbound is one Discord message headed for the game server.
type Outbound struct {
	AuthorTag   string
	AuthorID    string
	DisplayName string
	TopRole     string
	Content     string
	Attachments []Attachment
}

type Relay struct {
	pub    Publisher
	roster Roster
	cfg    *config.Config
}

func New(pub Publisher, roster Roster, cfg *config.Config) *Relay {
	return &Relay{pub: pub, roster: roster, cfg: cfg}
}

// Send sanitizes and publishes one outbound chat message. Messages longer than
// MaxChatLength are rejected with ErrTooLong before anything reaches the bridge.
func (r *Relay) Send(ctx context.Context, m Outbound) error {
	if len([]rune(m.Content)) > MaxChatLength {
		return ErrTooLong
	}

	content := Sanitize(m.Content)
	payload := ChatPayload{
		Type:        "discord_chat",
		Username:    m.AuthorTag,
		Timestamp:   time.Now().UnixMilli(),
		Prefix:      r.displayPrefix(m.TopRole, m.DisplayName),
		SenderID:    m.AuthorID,
		Content:     content,
		Attachments: m.Attachments,

		// TODO check whether the sender's rank permits colour and formatting
		// codes instead of always allowing them.
		Color:  true,
		Format: true,
	}
	if err := r.pub.PublishJSON(ctx, chatChannel, payload); err != nil {
		return err
	}
	log.Printf("[CHAT OUT] [%s] %s: %s", m.TopRole, m.DisplayName, content)
	return nil
}

// displayPrefix builds the in-game chat prefix with the sender's role colour.
func (r *Relay) displayPrefix(role, name string) string {
	colour := r.cfg.RankColors[strings.ToLower(role)]
	return fmt.Sprintf("&#7289DA[Discord%s%s&#7289DA]&r %s &#7289DA&l»&r ", colour, role, name)
}

// PlayerList formats the online roster for the `list` keyword in the bridge
// channel.
func (r *Relay) PlayerList(ctx context.Context) (string, error) {
	players, err := r.roster.OnlinePlayers(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch online players: %w", err)
	}
	if len(players) == 0 {
		return "No players online", nil
	}
	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Username
	}
	return fmt.Sprintf("Players online (%d): `%s`", len(players), strings.Join(names, ", ")), nil
}
