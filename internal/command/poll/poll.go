package poll

import (
	"context"
	"fmt"
	"strings"
	"time"

	"craftwarden/internal/command"

	"github.com/bwmarrin/discordgo"
)

// Regional indicator emojis for up to 26 poll options.
var letters = strings.Split("🇦 🇧 🇨 🇩 🇪 🇫 🇬 🇭 🇮 🇯 🇰 🇱 🇲 🇳 🇴 🇵 🇶 🇷 🇸 🇹 🇺 🇻 🇼 🇽 🇾 🇿", " ")

type PollCommand struct{}

func (c *PollCommand) Name() string        { return "poll" }
func (c *PollCommand) Aliases() []string   { return []string{"newpoll", "createpoll", "ask"} }
func (c *PollCommand) Description() string { return "Create a poll" }
func (c *PollCommand) Usage() string {
	return "<question> |OR| <question>; <option1;option2;etc>"
}
func (c *PollCommand) Example() string     { return "poll Which colour? Blue; Orange; Red" }
func (c *PollCommand) ArgsRequired() bool  { return true }
func (c *PollCommand) GuildOnly() bool     { return true }
func (c *PollCommand) Policy() command.Policy {
	return command.Policy{AdminOnly: true}
}
func (c *PollCommand) Cooldown() time.Duration { return 0 }

func (c *PollCommand) Run(ctx context.Context, inv *command.Invocation) error {
	deps := inv.Deps
	cfg := deps.Config

	parts := strings.Split(strings.Join(inv.Args, " "), ";")
	var cleaned []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return nil
	}
	question, options := cleaned[0], cleaned[1:]

	if len(options) > len(letters) {
		_, err := deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, &discordgo.MessageEmbed{
			Title: "Error",
			Color: 0xE74C3C,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Too many options", Value: fmt.Sprintf("Polls are limited to a maximum of %d options", len(letters))},
				{Name: "Information", Value: fmt.Sprintf("`%shelp %s` for more information", cfg.Prefix, c.Name())},
			},
		})
		return err
	}

	channelID := cfg.PollChannelID
	if channelID == "" {
		channelID = inv.Message.ChannelID
	}

	embed := &discordgo.MessageEmbed{
		Title: question,
		Color: cfg.EmbedColour,
		Author: &discordgo.MessageEmbedAuthor{
			Name:    inv.Message.Author.Username,
			IconURL: inv.Message.Author.AvatarURL(""),
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	var reactions []string
	if len(options) == 0 {
		embed.Description = "Please react with your choice: \n\n:thumbsup: Yes\n\n:thumbsdown: No\n\nPlease only react once."
		reactions = []string{"👍", "👎"}
	} else {
		var lines []string
		for i, opt := range options {
			lines = append(lines, fmt.Sprintf("%s %s", letters[i], opt))
			reactions = append(reactions, letters[i])
		}
		embed.Description = "Please react with your choice:\n\n" + strings.Join(lines, "\n\n")
	}

	msg, err := deps.Session.ChannelMessageSendEmbed(channelID, embed)
	if err != nil {
		return fmt.Errorf("failed to post poll: %w", err)
	}
	for _, r := range reactions {
		if err := deps.Session.MessageReactionAdd(channelID, msg.ID, r); err != nil {
			return fmt.Errorf("failed to add poll reaction: %w", err)
		}
	}
	return nil
}

func init() {
	command.Register(&PollCommand{})
}
