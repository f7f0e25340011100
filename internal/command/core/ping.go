package core

import (
	"context"
	"fmt"
	"time"

	"craftwarden/internal/command"
)

type PingCommand struct{}

func (c *PingCommand) Name() string            { return "ping" }
func (c *PingCommand) Aliases() []string       { return nil }
func (c *PingCommand) Description() string     { return "Checks the bot's response time" }
func (c *PingCommand) Usage() string           { return "" }
func (c *PingCommand) Example() string         { return "ping" }
func (c *PingCommand) ArgsRequired() bool      { return false }
func (c *PingCommand) GuildOnly() bool         { return false }
func (c *PingCommand) Policy() command.Policy  { return command.Policy{} }
func (c *PingCommand) Cooldown() time.Duration { return 0 }

func (c *PingCommand) Run(ctx context.Context, inv *command.Invocation) error {
	latency := inv.Deps.Session.HeartbeatLatency().Round(time.Millisecond)
	_, err := inv.Deps.Session.ChannelMessageSend(inv.Message.ChannelID,
		fmt.Sprintf(":ping_pong: Pong! Gateway latency is %s.", latency))
	return err
}

func init() {
	command.Register(&PingCommand{})
}
