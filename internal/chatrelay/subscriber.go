package chatrelay

import (
	"context"
	"fmt"

	"craftwarden/internal/config"

	"github.com/bwmarrin/discordgo"
	json "github.com/goccy/go-json"
)

const gameChatChannel = "minecraft.chat.out"

// GameChat relays game-server chat into the bridge channel through the
// configured webhook, so each line shows under the in-game sender's name.
type GameChat struct {
	Session *discordgo.Session
	Cfg     *config.Config
}

type gameChatEvent struct {
	Username string `json:"username"`
	Content  string `json:"content"`
}

func (g *GameChat) Channels() []string {
	return []string{gameChatChannel}
}

func (g *GameChat) Handle(ctx context.Context, channel, payload string) error {
	var ev gameChatEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return fmt.Errorf("malformed game chat event: %w", err)
	}
	if ev.Content == "" {
		return nil
	}

	_, err := g.Session.WebhookExecute(g.Cfg.ChatWebhookID, g.Cfg.ChatWebhookToken, false, &discordgo.WebhookParams{
		Username: ev.Username,
		Content:  ev.Content,
	})
	if err != nil {
		return fmt.Errorf("failed to relay game chat: %w", err)
	}
	return nil
}
