package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"craftwarden/internal/command"
	"craftwarden/internal/dispatch"

	"github.com/bwmarrin/discordgo"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string           { return "help" }
func (c *HelpCommand) Aliases() []string      { return []string{"command", "commands"} }
func (c *HelpCommand) Description() string    { return "Displays help menu" }
func (c *HelpCommand) Usage() string          { return "[command]" }
func (c *HelpCommand) Example() string        { return "help poll" }
func (c *HelpCommand) ArgsRequired() bool     { return false }
func (c *HelpCommand) GuildOnly() bool        { return true }
func (c *HelpCommand) Policy() command.Policy { return command.Policy{} }
func (c *HelpCommand) Cooldown() time.Duration {
	return 0
}

func (c *HelpCommand) Run(ctx context.Context, inv *command.Invocation) error {
	deps := inv.Deps
	cfg := deps.Config

	if len(inv.Args) == 0 {
		actor := actorFromMessage(inv)
		var lines []string
		for _, cmd := range command.All() {
			if !dispatch.Allowed(actor, cmd.Policy(), cfg.StaffRanks, cfg.AdminRoles) {
				continue
			}
			lines = append(lines, fmt.Sprintf("**%s%s** **·** %s", cfg.Prefix, cmd.Name(), cmd.Description()))
		}
		embed := &discordgo.MessageEmbed{
			Title: "Commands",
			Color: cfg.EmbedColour,
			Description: fmt.Sprintf("\nThe commands you have access to are listed below. Type `%shelp [command]` for more information about a specific command.\n\n%s\n\nPlease contact a member of staff if you require assistance.",
				cfg.Prefix, strings.Join(lines, "\n\n")),
		}
		_, err := deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, embed)
		return err
	}

	cmd, ok := command.Get(inv.Args[0])
	if !ok {
		_, err := deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, &discordgo.MessageEmbed{
			Color:       0xE74C3C,
			Description: fmt.Sprintf(":x: **Invalid command name** (`%shelp`)", cfg.Prefix),
		})
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title:       cmd.Name(),
		Color:       cfg.EmbedColour,
		Description: cmd.Description(),
	}
	if aliases := cmd.Aliases(); len(aliases) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Aliases", Value: fmt.Sprintf("`%s`", strings.Join(aliases, ", ")), Inline: true,
		})
	}
	if cmd.Usage() != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Usage", Value: fmt.Sprintf("`%s%s %s`", cfg.Prefix, cmd.Name(), cmd.Usage())},
			&discordgo.MessageEmbedField{Name: "Example", Value: fmt.Sprintf("`%s%s`", cfg.Prefix, cmd.Example())},
		)
	}
	_, err := deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, embed)
	return err
}

// actorFromMessage rebuilds the permission view of the invoking member so the
// help list only shows what the member can actually run.
func actorFromMessage(inv *command.Invocation) dispatch.Actor {
	actor := dispatch.Actor{}
	m := inv.Message
	if m == nil || m.Member == nil {
		return actor
	}
	if perms, err := inv.Deps.Session.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
		actor.Permissions = perms
	}
	guild, err := inv.Deps.Session.State.Guild(m.GuildID)
	if err != nil {
		return actor
	}
	byID := make(map[string]string, len(guild.Roles))
	for _, r := range guild.Roles {
		byID[r.ID] = r.Name
	}
	for _, id := range m.Member.Roles {
		if name, ok := byID[id]; ok {
			actor.RoleNames = append(actor.RoleNames, name)
		}
	}
	return actor
}

func init() {
	command.Register(&HelpCommand{})
}
