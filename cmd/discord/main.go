package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "craftwarden/internal/command/core"
	_ "craftwarden/internal/command/poll"
	_ "craftwarden/internal/command/whois"

	"craftwarden/internal/bridge"
	"craftwarden/internal/chatrelay"
	"craftwarden/internal/config"
	"craftwarden/internal/discord"
	"craftwarden/internal/gamesync"
	"craftwarden/internal/players"
	"craftwarden/internal/storage"
	v "craftwarden/internal/version"
)

func main() {
	log.Printf("[INFO] Starting %v bot...", v.AppName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.New()
	if err != nil {
		log.Fatal(err)
	}

	store, err := storage.New(cfg.RedisAddr(), cfg.RedisPass)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	pl, err := players.Open(cfg.PlayerDSN())
	if err != nil {
		log.Fatal(err)
	}
	defer pl.Close()

	br := bridge.New(cfg.RedisAddr(), cfg.RedisPass)
	defer br.Close()

	bot, err := discord.NewBot(cfg, store, br, pl)
	if err != nil {
		log.Fatal(err)
	}

	dir := &gamesync.SessionDirectory{Session: bot.Session()}
	br.Register(gamesync.NewRemote(dir, cfg))
	br.Register(&chatrelay.GameChat{Session: bot.Session(), Cfg: cfg})

	go func() {
		if err := br.Run(ctx); err != nil {
			log.Println("[ERR] Bridge error:", err)
		}
	}()

	sweeper := &gamesync.Sweeper{Store: store, Notifier: dir}
	go gamesync.RunTokenSweeper(ctx, sweeper, cfg.CodeExpireInterval)

	errCh := make(chan error, 1)
	go func() {
		if err := bot.Run(ctx); err != nil {
			errCh <- err
		}
		close(errCh)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[INFO] Received signal %s, shutting down...", s)
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Println("[ERR] Discord bot error:", err)
		}
		cancel()
	case <-ctx.Done():
	}

	log.Println("[INFO] Discord bot exited cleanly")
}
