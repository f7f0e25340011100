package discord

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"craftwarden/internal/bridge"
	"craftwarden/internal/chatrelay"
	"craftwarden/internal/command"
	"craftwarden/internal/config"
	"craftwarden/internal/counting"
	"craftwarden/internal/dispatch"
	"craftwarden/internal/gamesync"
	"craftwarden/internal/players"
	"craftwarden/internal/storage"
	"craftwarden/internal/version"

	"github.com/bwmarrin/discordgo"
)

// Bot owns the Discord session and routes every inbound message to the right
// component: the chat relay, the counting game, or the command dispatcher.
type Bot struct {
	dg         *discordgo.Session
	cfg        *config.Config
	store      *storage.Storage
	bridge     *bridge.Bridge
	dispatcher *dispatch.Dispatcher
	relay      *chatrelay.Relay
	game       *counting.Game
	syncer     *gamesync.Syncer
	deps       *command.Deps

	runCtx context.Context

	// loops are the periodic background tasks. The gateway re-fires ready
	// after a failed resume, so they start through loopsOnce.
	loops     []func(context.Context)
	loopsOnce sync.Once
}

func NewBot(cfg *config.Config, store *storage.Storage, br *bridge.Bridge, pl *players.Store) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	b := &Bot{
		dg:     dg,
		cfg:    cfg,
		store:  store,
		bridge: br,
		relay:  chatrelay.New(br, store, cfg),
		game:   counting.New(store, br, pl, cfg),
		syncer: &gamesync.Syncer{Pub: br},
		deps: &command.Deps{
			Session: dg,
			Config:  cfg,
			Store:   store,
			Bridge:  br,
			Players: pl,
		},
	}
	b.dispatcher = dispatch.New(cfg, &SessionResponder{S: dg}, store)
	b.loops = []func(context.Context){b.runPresenceLoop, b.runStatusLoop, b.runPunishLoop}
	return b, nil
}

// Session exposes the underlying session so bridge subscribers that talk back
// to Discord can be wired up in main.
func (b *Bot) Session() *discordgo.Session {
	return b.dg
}

// Run opens the session and blocks until ctx is done. Periodic loops start
// once the gateway reports ready.
func (b *Bot) Run(ctx context.Context) error {
	b.runCtx = ctx

	b.dg.Identify.Intents = discordgo.IntentsAllWithoutPrivileged |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onGuildMemberAdd)
	b.dg.AddHandler(b.onRateLimit)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] Shutdown signal received, disconnecting from Discord")
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	log.Println("[INFO] Connected to Discord API")
	log.Printf("[INFO] Logged in as %s", r.User.String())

	b.dispatcher.SetSelf(r.User.ID)

	if b.cfg.LogGeneral && b.cfg.LogChannelID != "" {
		_ = MessageEmbed(s, b.cfg.LogChannelID, &discordgo.MessageEmbed{
			Color: b.cfg.EmbedColour,
			Title: "Started",
			Description: fmt.Sprintf(":white_check_mark: **»** Started successfully with **%d commands** and **%d subscribed channels**.",
				len(command.All()), len(b.bridge.SubscribedChannels())),
			Footer: &discordgo.MessageEmbedFooter{Text: version.AppName},
		})
	}

	b.loopsOnce.Do(func() {
		for _, loop := range b.loops {
			go loop(b.runCtx)
		}
	})
}

func (b *Bot) onRateLimit(s *discordgo.Session, rl *discordgo.RateLimit) {
	log.Printf("[WARN] Rate-limited: %s", rl.URL)
}

func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil {
		return
	}
	welcome := fmt.Sprintf("Welcome to %s. Please read the information in <#%s> *(scroll up!)*.",
		version.AppName, b.cfg.WelcomeChannelID)
	dm, err := s.UserChannelCreate(m.User.ID)
	if err != nil {
		log.Printf("[WARN] Could not open welcome DM for %s: %v", m.User.ID, err)
		return
	}
	if _, err := s.ChannelMessageSend(dm.ID, welcome); err != nil {
		log.Printf("[WARN] Could not send welcome DM to %s: %v", m.User.ID, err)
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	ctx := b.runCtx

	if m.GuildID == "" {
		b.handleDirectMessage(ctx, s, m)
		// DMs fall through: commands still work outside a guild.
	}

	switch {
	case m.ChannelID == b.cfg.ChatBridgeChannelID && !b.dispatcher.IsCommand(m.Content):
		b.handleBridgeChat(ctx, s, m)
		return
	case m.ChannelID == b.cfg.CountingChannelID:
		b.handleCounting(ctx, s, m)
		return
	}

	req := dispatch.Request{
		Content:   m.Content,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		AuthorTag: m.Author.String(),
		InGuild:   m.GuildID != "",
	}
	if m.Member != nil {
		req.RoleNames = b.roleNames(m.GuildID, m.Member.Roles)
		if perms, err := s.UserChannelPermissions(m.Author.ID, m.ChannelID); err == nil {
			req.Permissions = perms
		}
	}
	b.dispatcher.Dispatch(ctx, req, m, b.deps)
}

func (b *Bot) handleDirectMessage(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if b.cfg.LogDM && b.cfg.LogGeneral && b.cfg.LogChannelID != "" {
		_ = MessageEmbed(s, b.cfg.LogChannelID, &discordgo.MessageEmbed{
			Title: "DM Logger",
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Username", Value: m.Author.String(), Inline: true},
				{Name: "Message", Value: m.Content, Inline: true},
			},
			Footer: &discordgo.MessageEmbedFooter{Text: version.AppName},
		})
	}
	if err := b.syncer.ForwardDM(ctx, m.Author.ID, m.Content); err != nil {
		log.Printf("[WARN] Failed to forward DM for account sync: %v", err)
	}
}

// handleBridgeChat relays one non-command message from the bridge channel to
// the game server, or answers the `list` keyword locally.
func (b *Bot) handleBridgeChat(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	if strings.EqualFold(m.Content, "list") {
		text, err := b.relay.PlayerList(ctx)
		if err != nil {
			log.Printf("[ERR] Failed to list online players: %v", err)
			text = "Failed to fetch the player list"
		} else {
			log.Printf("[INFO] %s listed online players", m.Author.String())
		}
		_, _ = s.ChannelMessageSend(m.ChannelID, text)
		_ = s.ChannelMessageDelete(m.ChannelID, m.ID)
		return
	}

	out := chatrelay.Outbound{
		AuthorTag:   m.Author.String(),
		AuthorID:    m.Author.ID,
		DisplayName: b.displayName(m),
		TopRole:     b.topRoleName(m.GuildID, memberRoles(m)),
		Content:     m.ContentWithMentionsReplaced(),
	}
	for _, a := range m.Attachments {
		out.Attachments = append(out.Attachments, chatrelay.Attachment{Filename: a.Filename, URL: a.URL})
	}

	err := b.relay.Send(ctx, out)
	if errors.Is(err, chatrelay.ErrTooLong) {
		_, _ = s.ChannelMessageSend(m.ChannelID,
			fmt.Sprintf("%s Chat message not sent because the length is >%d", m.Author.Mention(), chatrelay.MaxChatLength))
		return
	}
	if err != nil {
		log.Printf("[ERR] Failed to relay chat message: %v", err)
	}
}

// handleCounting judges one counting-channel message; bad submissions are
// deleted without comment.
func (b *Bot) handleCounting(ctx context.Context, s *discordgo.Session, m *discordgo.MessageCreate) {
	res, err := b.game.Submit(ctx, counting.Submission{
		Content:     m.Content,
		AuthorID:    m.Author.ID,
		DisplayName: b.displayName(m),
	})
	if err != nil {
		log.Printf("[ERR] Counting game error: %v", err)
		return
	}
	if !res.Accepted {
		_ = s.ChannelMessageDelete(m.ChannelID, m.ID)
		return
	}
	if res.Announce != "" {
		_, _ = s.ChannelMessageSendReply(m.ChannelID, res.Announce, m.Reference())
	}
}

func (b *Bot) displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	return m.Author.Username
}

func memberRoles(m *discordgo.MessageCreate) []string {
	if m.Member == nil {
		return nil
	}
	return m.Member.Roles
}

// roleNames maps role ids to names through the state cache.
func (b *Bot) roleNames(guildID string, roleIDs []string) []string {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil
	}
	byID := make(map[string]string, len(guild.Roles))
	for _, r := range guild.Roles {
		byID[r.ID] = r.Name
	}
	var names []string
	for _, id := range roleIDs {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

// topRoleName returns the name of the member's highest-positioned role.
func (b *Bot) topRoleName(guildID string, roleIDs []string) string {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return ""
	}
	top := ""
	topPos := -1
	for _, r := range guild.Roles {
		for _, id := range roleIDs {
			if r.ID == id && r.Position > topPos {
				top, topPos = r.Name, r.Position
			}
		}
	}
	return top
}
