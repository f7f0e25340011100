// Package gamesync handles the cross-process command protocol: structured
// envelopes from the game server that keep Discord nicknames, rank roles and
// account links in step with in-game state.
package gamesync

import (
	"context"
	"fmt"
	"log"
	"strings"

	"craftwarden/internal/config"

	json "github.com/goccy/go-json"
)

const remoteChannel = "discord.botcommands"

// Envelope is one remote command from the game server. Command selects which
// of the remaining fields are meaningful.
type Envelope struct {
	Command string `json:"command"`
	ID      string `json:"id"`
	Nick    string `json:"nick"`
	Group   string `json:"group"`
	OldID   string `json:"oldId"`
	NewID   string `json:"newId"`
}

// Remote decodes remote-command envelopes off the bridge and applies them.
// Each envelope is handled in a single pass; there are no retries.
type Remote struct {
	dir Directory
	cfg *config.Config
}

func NewRemote(dir Directory, cfg *config.Config) *Remote {
	return &Remote{dir: dir, cfg: cfg}
}

func (r *Remote) Channels() []string {
	return []string{remoteChannel}
}

func (r *Remote) Handle(ctx context.Context, channel, payload string) error {
	log.Printf("[BOT CMD] %s", payload)

	var env Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return fmt.Errorf("malformed remote command: %w", err)
	}

	switch env.Command {
	case "setuser":
		return r.setUser(ctx, env)
	case "setgroup":
		return r.setGroup(ctx, env)
	case "unlink":
		return r.unlink(ctx, env)
	default:
		return fmt.Errorf("received invalid remote command %q", env.Command)
	}
}

// setUser syncs the member's nickname. Repeating the same nickname is a no-op.
func (r *Remote) setUser(ctx context.Context, env Envelope) error {
	member, err := r.dir.Member(ctx, r.cfg.GuildID, env.ID)
	if err != nil {
		return err
	}
	if member.DisplayName == env.Nick {
		return nil
	}
	return r.dir.SetNickname(ctx, r.cfg.GuildID, env.ID, env.Nick)
}

// setGroup moves the member onto exactly one rank role. Muted members are never
// promoted, and a member already holding the target rank is left untouched.
// Removals of the other rank roles are independent best-effort steps.
func (r *Remote) setGroup(ctx context.Context, env Envelope) error {
	targetRole, ok := r.cfg.InGameRanks[env.Group]
	if !ok {
		return fmt.Errorf("unknown rank group %q", env.Group)
	}

	member, err := r.dir.Member(ctx, r.cfg.GuildID, env.ID)
	if err != nil {
		return err
	}

	if member.HasRole(r.cfg.MutedRoleID) {
		log.Printf("[INFO] Not promoting muted member %s", env.ID)
		return nil
	}
	if member.HasRole(targetRole) {
		return nil
	}

	if err := r.dir.AddRole(ctx, r.cfg.GuildID, env.ID, targetRole); err != nil {
		return fmt.Errorf("failed to add rank role %s: %w", env.Group, err)
	}

	for group, roleID := range r.cfg.InGameRanks {
		if group == env.Group {
			continue
		}
		if err := r.dir.RemoveRole(ctx, r.cfg.GuildID, env.ID, roleID); err != nil {
			log.Printf("[WARN] Failed to remove rank role %s from %s: %v", group, env.ID, err)
		}
	}

	if r.isStaffRank(env.Group) {
		if err := r.dir.AddRole(ctx, r.cfg.GuildID, env.ID, r.cfg.StaffRoleID); err != nil {
			log.Printf("[WARN] Failed to add staff role to %s: %v", env.ID, err)
		}
	} else {
		if err := r.dir.RemoveRole(ctx, r.cfg.GuildID, env.ID, r.cfg.StaffRoleID); err != nil {
			log.Printf("[WARN] Failed to remove staff role from %s: %v", env.ID, err)
		}
	}
	return nil
}

// unlink demotes the old account after a relink, or just tells the account it
// is already linked when old and new ids match. Role clearing and notification
// are independent; neither rolls the other back.
func (r *Remote) unlink(ctx context.Context, env Envelope) error {
	if env.OldID == env.NewID {
		notice := "This Discord account has already been linked to your in-game account."
		if err := r.dir.DirectMessage(ctx, env.NewID, notice); err != nil {
			log.Printf("[WARN] Failed to DM user %s, falling back to support channel", env.NewID)
			return r.dir.ChannelMessage(ctx, r.cfg.SupportChannelID,
				fmt.Sprintf("<@%s>, %s", env.NewID, notice))
		}
		return nil
	}

	if err := r.dir.ClearRoles(ctx, r.cfg.GuildID, env.OldID); err != nil {
		log.Printf("[WARN] Failed to clear roles from %s: %v", env.OldID, err)
	}

	notice := "Your account has been demoted on Discord because you linked another account from in game.\n" +
		"If this was not you, your Minecraft account may have been compromised."
	if err := r.dir.DirectMessage(ctx, env.OldID, notice+"\nNew account id: `"+env.NewID+"`"); err != nil {
		log.Printf("[WARN] Failed to DM old account %s, they probably left the server", env.OldID)
		return r.dir.ChannelMessage(ctx, r.cfg.SupportChannelID,
			fmt.Sprintf("<@%s>, %s", env.OldID, notice))
	}
	return nil
}

func (r *Remote) isStaffRank(group string) bool {
	for _, rank := range r.cfg.StaffRanks {
		if strings.EqualFold(rank, group) {
			return true
		}
	}
	return false
}
