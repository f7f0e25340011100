package gamesync

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// Member is the directory view of one guild member.
type Member struct {
	UserID      string
	DisplayName string
	RoleIDs     []string
}

func (m *Member) HasRole(roleID string) bool {
	for _, id := range m.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// Directory is the slice of the chat platform the sync handlers mutate:
// member lookup, nickname and role assignment, and message delivery.
type Directory interface {
	Member(ctx context.Context, guildID, userID string) (*Member, error)
	SetNickname(ctx context.Context, guildID, userID, nick string) error
	AddRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID string) error
	ClearRoles(ctx context.Context, guildID, userID string) error
	DirectMessage(ctx context.Context, userID, content string) error
	ChannelMessage(ctx context.Context, channelID, content string) error
}

// SessionDirectory adapts a live discordgo session to Directory.
type SessionDirectory struct {
	Session *discordgo.Session
}

func (d *SessionDirectory) Member(ctx context.Context, guildID, userID string) (*Member, error) {
	m, err := d.Session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member %s: %w", userID, err)
	}
	name := m.Nick
	if name == "" && m.User != nil {
		name = m.User.Username
	}
	return &Member{UserID: userID, DisplayName: name, RoleIDs: m.Roles}, nil
}

func (d *SessionDirectory) SetNickname(ctx context.Context, guildID, userID, nick string) error {
	return d.Session.GuildMemberNickname(guildID, userID, nick, discordgo.WithContext(ctx))
}

func (d *SessionDirectory) AddRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.Session.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (d *SessionDirectory) RemoveRole(ctx context.Context, guildID, userID, roleID string) error {
	return d.Session.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (d *SessionDirectory) ClearRoles(ctx context.Context, guildID, userID string) error {
	none := []string{}
	_, err := d.Session.GuildMemberEdit(guildID, userID, &discordgo.GuildMemberParams{Roles: &none}, discordgo.WithContext(ctx))
	return err
}

func (d *SessionDirectory) DirectMessage(ctx context.Context, userID, content string) error {
	dm, err := d.Session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM with %s: %w", userID, err)
	}
	_, err = d.Session.ChannelMessageSend(dm.ID, content, discordgo.WithContext(ctx))
	return err
}

func (d *SessionDirectory) ChannelMessage(ctx context.Context, channelID, content string) error {
	_, err := d.Session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	return err
}
