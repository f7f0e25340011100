// Package dispatch parses inbound chat messages into command invocations and
// enforces context, permission and cooldown policy, in that order, before a
// command body ever runs.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"craftwarden/internal/command"
	"craftwarden/internal/config"
	"craftwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
)

const denyColour = 0xE74C3C

// Responder delivers dispatcher replies back to the channel the command came
// from. Implemented by the Discord session adapter; faked in tests.
type Responder interface {
	Reply(channelID, content string) error
	ReplyEmbed(channelID string, embed *discordgo.MessageEmbed) error
}

// HistoryRecorder persists one record per allowed invocation. *storage.Storage
// satisfies this; nil disables recording.
type HistoryRecorder interface {
	AppendCommandToHistory(ctx context.Context, rec storage.CommandHistoryRecord) error
}

// Request is the dispatcher's view of one inbound message.
type Request struct {
	Content     string
	ChannelID   string
	AuthorID    string
	AuthorTag   string
	RoleNames   []string
	Permissions int64
	InGuild     bool
}

type Dispatcher struct {
	cfg       *config.Config
	cooldowns *CooldownTracker
	responder Responder
	history   HistoryRecorder
	prefix    *regexp.Regexp
	lookup    func(string) (command.Command, bool)
}

func New(cfg *config.Config, responder Responder, history HistoryRecorder) *Dispatcher {
	d := &Dispatcher{
		cfg:       cfg,
		cooldowns: NewCooldownTracker(),
		responder: responder,
		history:   history,
		lookup:    command.Get,
	}
	d.SetSelf("")
	return d
}

// SetSelf rebuilds the prefix matcher once the bot's own user id is known, so
// that mentioning the bot works as an alternative command prefix.
func (d *Dispatcher) SetSelf(botID string) {
	literal := regexp.QuoteMeta(d.cfg.Prefix)
	if botID == "" {
		d.prefix = regexp.MustCompile(`^(` + literal + `)\s*`)
		return
	}
	d.prefix = regexp.MustCompile(`^(<@!?` + regexp.QuoteMeta(botID) + `>|` + literal + `)\s*`)
}

// IsCommand reports whether the message starts with the command prefix or a
// mention of the bot.
func (d *Dispatcher) IsCommand(content string) bool {
	return d.prefix.MatchString(content)
}

// Dispatch runs the full command pipeline for one message. It returns true if
// the message carried the command prefix, whether or not a command ran. msg and
// deps are passed through to the command body untouched.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request, msg *discordgo.MessageCreate, deps *command.Deps) bool {
	loc := d.prefix.FindStringIndex(req.Content)
	if loc == nil {
		return false
	}

	fields := strings.Fields(req.Content[loc[1]:])
	if len(fields) == 0 {
		return true
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	cmd, ok := d.lookup(name)
	if !ok {
		// Unknown names are ignored, not errors.
		return true
	}

	if cmd.GuildOnly() && !req.InGuild {
		_ = d.responder.Reply(req.ChannelID, "Sorry, this command can only be used in a server.")
		return true
	}

	actor := Actor{RoleNames: req.RoleNames, Permissions: req.Permissions}
	if !Allowed(actor, cmd.Policy(), d.cfg.StaffRanks, d.cfg.AdminRoles) {
		log.Printf("[INFO] %s tried to use the '%s' command without permission", req.AuthorTag, cmd.Name())
		_ = d.responder.ReplyEmbed(req.ChannelID, &discordgo.MessageEmbed{
			Color:       denyColour,
			Description: fmt.Sprintf("\n:x: **You do not have permission to use the `%s` command.**", cmd.Name()),
		})
		return true
	}

	if cmd.ArgsRequired() && len(args) == 0 {
		_ = d.responder.ReplyEmbed(req.ChannelID, &discordgo.MessageEmbed{
			Color: denyColour,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Usage", Value: fmt.Sprintf("`%s%s %s`\n", d.cfg.Prefix, cmd.Name(), cmd.Usage())},
				{Name: "Help", Value: fmt.Sprintf("Type `%shelp %s` for more information", d.cfg.Prefix, cmd.Name())},
			},
		})
		return true
	}

	window := cmd.Cooldown()
	if window == 0 {
		window = d.cfg.Cooldown
	}
	if allowed, remaining := d.cooldowns.CheckAndRecord(cmd.Name(), req.AuthorID, window); !allowed {
		log.Printf("[INFO] %s attempted to use the '%s' command before the cooldown was over", req.AuthorTag, cmd.Name())
		_ = d.responder.ReplyEmbed(req.ChannelID, &discordgo.MessageEmbed{
			Color: denyColour,
			Description: fmt.Sprintf(":x: **Please do not spam commands.**\nWait %.1f second(s) before reusing the `%s` command.",
				remaining.Seconds(), cmd.Name()),
		})
		return true
	}

	if d.history != nil {
		rec := storage.CommandHistoryRecord{
			ChannelID: req.ChannelID,
			UserID:    req.AuthorID,
			Username:  req.AuthorTag,
			Command:   cmd.Name(),
			Param:     strings.Join(args, " "),
			Datetime:  time.Now(),
		}
		if err := d.history.AppendCommandToHistory(ctx, rec); err != nil {
			log.Printf("[WARN] Failed to record command history: %v", err)
		}
	}

	d.invoke(ctx, cmd, &command.Invocation{Args: args, Message: msg, Deps: deps}, req)
	return true
}

// invoke runs the command body, converting both error returns and panics into a
// generic reply so a broken command never takes the dispatcher down.
func (d *Dispatcher) invoke(ctx context.Context, cmd command.Command, inv *command.Invocation, req Request) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[ERR] Panic in the '%s' command: %v", cmd.Name(), r)
			d.reportFailure(req.ChannelID, cmd.Name())
		}
	}()

	if err := cmd.Run(ctx, inv); err != nil {
		log.Printf("[ERR] An error occurred whilst executing the '%s' command: %v", cmd.Name(), err)
		d.reportFailure(req.ChannelID, cmd.Name())
		return
	}
	log.Printf("[INFO] %s used the '%s' command", req.AuthorTag, cmd.Name())
}

func (d *Dispatcher) reportFailure(channelID, name string) {
	_ = d.responder.Reply(channelID, fmt.Sprintf(":x: An error occurred whilst executing the `%s` command.\nThe issue has been reported.", name))
}
