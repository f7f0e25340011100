package discord

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/bwmarrin/discordgo"
)

const punishChannel = "minecraft.punish"

// runPresenceLoop rotates the bot activity on a fixed interval. Each tick is
// self-contained; a slow gateway call never blocks the next tick.
func (b *Bot) runPresenceLoop(ctx context.Context) {
	b.updatePresence()
	ticker := time.NewTicker(b.cfg.PresenceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.updatePresence()
		}
	}
}

func (b *Bot) updatePresence() {
	if len(b.cfg.Activities) == 0 {
		return
	}
	activity := b.cfg.Activities[rand.Intn(len(b.cfg.Activities))]
	name := fmt.Sprintf("%s  |  %shelp", activity, b.cfg.Prefix)
	if err := b.dg.UpdateGameStatus(0, name); err != nil {
		log.Printf("[WARN] Failed to update presence: %v", err)
	}
}

// runStatusLoop refreshes the server-status category name and the bot status
// colour from the roster the game server publishes. A missing roster key means
// the game server is down.
func (b *Bot) runStatusLoop(ctx context.Context) {
	b.updateStatusInfo(ctx)
	ticker := time.NewTicker(b.cfg.StatusUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.updateStatusInfo(ctx)
		}
	}
}

func (b *Bot) updateStatusInfo(ctx context.Context) {
	players, err := b.store.OnlinePlayers(ctx)
	if err != nil || players == nil {
		if err != nil {
			log.Printf("[ERR] Failed to read server status: %v", err)
		}
		log.Println("[INFO] Server is offline")
		b.setStatusCategory(fmt.Sprintf("server is offline (%sstatus)", b.cfg.Prefix))
		_ = b.dg.UpdateStatusComplex(dndStatus())
		return
	}

	noun := "players"
	if len(players) == 1 {
		noun = "player"
	}
	status := fmt.Sprintf("online with %d %s", len(players), noun)
	log.Printf("[INFO] Server is %s", status)
	b.setStatusCategory(status)
	_ = b.dg.UpdateStatusComplex(onlineStatus())
}

// setStatusCategory renames the status category only when the name changed, to
// stay clear of the channel-rename rate limit.
func (b *Bot) setStatusCategory(name string) {
	if b.cfg.StatusCategoryID == "" {
		return
	}
	current, err := b.dg.State.Channel(b.cfg.StatusCategoryID)
	if err == nil && current.Name == name {
		return
	}
	if _, err := b.dg.ChannelEdit(b.cfg.StatusCategoryID, &discordgo.ChannelEdit{Name: name}); err != nil {
		log.Printf("[WARN] Failed to rename status category: %v", err)
	}
}

func onlineStatus() discordgo.UpdateStatusData {
	return discordgo.UpdateStatusData{Status: string(discordgo.StatusOnline)}
}

func dndStatus() discordgo.UpdateStatusData {
	return discordgo.UpdateStatusData{Status: string(discordgo.StatusDoNotDisturb)}
}

// runPunishLoop asks the game server to refresh punishment state on a fixed
// interval, starting immediately.
func (b *Bot) runPunishLoop(ctx context.Context) {
	publish := func() {
		if err := b.bridge.Publish(ctx, punishChannel, "update"); err != nil {
			log.Printf("[WARN] Failed to publish punishment refresh: %v", err)
		}
	}
	publish()
	ticker := time.NewTicker(b.cfg.PunishUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			publish()
		}
	}
}
