package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/comigor/duochat/internal/config"
	"github.com/comigor/duochat/internal/history"
	"github.com/comigor/duochat/internal/logger"
	"github.com/comigor/duochat/internal/session"
	"github.com/comigor/duochat/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the conversation screen (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts)
		},
	}
}

// runChat owns the terminal, so everything it logs goes to the log file.
func runChat(ctx context.Context, opts *rootOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	log, logFile, err := logger.NewFile(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	store, err := openStore(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore(store, log)

	if cfg.Chat.Seed {
		if _, err := history.SeedIfEmpty(ctx, store, time.Now()); err != nil {
			return err
		}
	}

	sess, err := session.New(ctx, store, log, session.WithAnimationDelay(cfg.Chat.AnimationDelay))
	if err != nil {
		return err
	}
	defer sess.Close()

	log.Info("conversation opened", "peer", cfg.Chat.PeerName, "driver", cfg.Store.Driver)
	return tui.Run(ctx, sess, cfg.Chat.PeerName, log)
}
