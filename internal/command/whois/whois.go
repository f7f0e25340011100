package whois

import (
	"context"
	"fmt"
	"strings"
	"time"

	"craftwarden/internal/command"

	"github.com/bwmarrin/discordgo"
)

const maxResults = 3

type WhoisCommand struct{}

func (c *WhoisCommand) Name() string      { return "realname" }
func (c *WhoisCommand) Aliases() []string { return []string{"whois"} }
func (c *WhoisCommand) Description() string {
	return "Identifies the possible real names of a given search query"
}
func (c *WhoisCommand) Usage() string {
	return "<nickname/username/Discord id/uuid>"
}
func (c *WhoisCommand) Example() string    { return "realname Captain_Sisko" }
func (c *WhoisCommand) ArgsRequired() bool { return true }
func (c *WhoisCommand) GuildOnly() bool    { return true }
func (c *WhoisCommand) Policy() command.Policy {
	return command.Policy{StaffOnly: true}
}
func (c *WhoisCommand) Cooldown() time.Duration { return 0 }

func (c *WhoisCommand) Run(ctx context.Context, inv *command.Invocation) error {
	deps := inv.Deps
	search := inv.Args[0]

	uuids, err := c.resolve(ctx, inv, search)
	if err != nil {
		return err
	}
	if len(uuids) == 0 {
		_, err := deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, &discordgo.MessageEmbed{
			Color: 0xE74C3C,
			Description: fmt.Sprintf("\n:x: **Could not find player by `%s`."+
				" Please use a nickname, Minecraft username, Minecraft UUID, or Discord user id**", search),
		})
		return err
	}
	if len(uuids) > maxResults {
		uuids = uuids[:maxResults]
	}

	online := map[string]bool{}
	if roster, err := deps.Store.OnlinePlayers(ctx); err == nil {
		for _, p := range roster {
			online[p.UUID] = true
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       "Nickname Search",
		Color:       deps.Config.EmbedColour,
		Description: fmt.Sprintf("Players matching %s", search),
	}
	for _, uuid := range uuids {
		info, err := deps.Players.PlayerInfo(ctx, uuid)
		if err != nil {
			return err
		}
		onlineText := "No"
		if online[uuid] {
			onlineText = "Yes"
		}
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: info.Username, Value: "Nickname: " + info.Nick},
			&discordgo.MessageEmbedField{Name: "Online (Minecraft)", Value: onlineText, Inline: true},
		)
	}
	_, err = deps.Session.ChannelMessageSendEmbed(inv.Message.ChannelID, embed)
	return err
}

// resolve tries the cheap exact lookups first and falls back to the nickname
// prefix search.
func (c *WhoisCommand) resolve(ctx context.Context, inv *command.Invocation, search string) ([]string, error) {
	deps := inv.Deps

	id := strings.Trim(search, "<@!>")
	if uuid, err := deps.Players.UUID(ctx, id); err == nil && uuid != "" {
		return []string{uuid}, nil
	}
	if uuid, err := deps.Players.UUIDByName(ctx, search); err == nil && uuid != "" {
		return []string{uuid}, nil
	}
	return deps.Players.SearchByNick(ctx, search)
}

func init() {
	command.Register(&WhoisCommand{})
}
