package discord

import (
	"github.com/bwmarrin/discordgo"
)

// SessionResponder adapts a live session to the dispatcher's Responder.
type SessionResponder struct {
	S *discordgo.Session
}

func (r *SessionResponder) Reply(channelID, content string) error {
	_, err := r.S.ChannelMessageSend(channelID, content)
	return err
}

func (r *SessionResponder) ReplyEmbed(channelID string, embed *discordgo.MessageEmbed) error {
	_, err := r.S.ChannelMessageSendEmbed(channelID, embed)
	return err
}

// MessageEmbed sends an embed to a channel. Convenience for command bodies.
func MessageEmbed(s *discordgo.Session, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := s.ChannelMessageSendEmbed(channelID, embed)
	return err
}
