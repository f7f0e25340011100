package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"craftwarden/internal/command"

	"github.com/bwmarrin/discordgo"
)

type StatusCommand struct{}

func (c *StatusCommand) Name() string            { return "status" }
func (c *StatusCommand) Aliases() []string       { return []string{"online", "list"} }
func (c *StatusCommand) Description() string     { return "Shows the server status and who is online" }
func (c *StatusCommand) Usage() string           { return "" }
func (c *StatusCommand) Example() string         { return "status" }
func (c *StatusCommand) ArgsRequired() bool      { return false }
func (c *StatusCommand) GuildOnly() bool         { return false }
func (c *StatusCommand) Policy() command.Policy  { return command.Policy{} }
func (c *StatusCommand) Cooldown() time.Duration { return 0 }

func (c *StatusCommand) Run(ctx context.Context, inv *command.Invocation) error {
	deps := inv.Deps

	players, err := deps.Store.OnlinePlayers(ctx)
	if err != nil {
		return fmt.Errorf("failed to read server status: %w", err)
	}

	if players == nil {
		_, err := deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, &discordgo.MessageEmbed{
			Title:       "Server Status",
			Color:       0xE74C3C,
			Description: ":red_circle: The server is currently **offline**.",
		})
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Server Status",
		Color:       deps.Config.EmbedColour,
		Description: fmt.Sprintf(":green_circle: The server is **online** with **%d player(s)**.", len(players)),
	}
	if len(players) > 0 {
		names := make([]string, len(players))
		for i, p := range players {
			names[i] = p.Username
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Online players",
			Value: fmt.Sprintf("`%s`", strings.Join(names, ", ")),
		})
	}
	_, err = deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, embed)
	return err
}

func init() {
	command.Register(&StatusCommand{})
}
