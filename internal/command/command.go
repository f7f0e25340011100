// Package command defines the contract individual chat commands implement and
// the immutable registry they are loaded into at startup. Dispatch policy
// (prefix parsing, permissions, cooldowns) lives in internal/dispatch.
package command

import (
	"context"
	"time"

	"craftwarden/internal/bridge"
	"craftwarden/internal/config"
	"craftwarden/internal/players"
	"craftwarden/internal/storage"

	"github.com/bwmarrin/discordgo"
)

// Policy is the access policy of one command, evaluated against the invoking
// member before the cooldown is checked.
type Policy struct {
	// Permission is a discordgo permission bit the member must hold, 0 for none.
	Permission int64
	StaffOnly  bool
	AdminOnly  bool
}

// Command is what every chat command implements. Cooldown returns 0 to use the
// configured default window.
type Command interface {
	Name() string
	Aliases() []string
	Description() string
	Usage() string
	Example() string
	ArgsRequired() bool
	GuildOnly() bool
	Policy() Policy
	Cooldown() time.Duration
	Run(ctx context.Context, inv *Invocation) error
}

// Deps is the shared collaborator set, constructed once at startup and passed
// by reference to every command and subscriber.
type Deps struct {
	Session *discordgo.Session
	Config  *config.Config
	Store   *storage.Storage
	Bridge  *bridge.Bridge
	Players *players.Store
}

// Invocation carries one command execution: the remaining args, the triggering
// message and the shared collaborators.
type Invocation struct {
	Args    []string
	Message *discordgo.MessageCreate
	Deps    *Deps
}
