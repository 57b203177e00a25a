package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/comigor/duochat/internal/config"
	"github.com/comigor/duochat/internal/history"
	"github.com/comigor/duochat/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "duochat:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

// rootOptions carries the persistent flags shared by every command.
type rootOptions struct {
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "duochat",
		Short:         "A one-on-one conversation in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")

	root.AddCommand(
		newChatCmd(opts),
		newListCmd(opts),
		newSendCmd(opts),
		newSeedCmd(opts),
	)
	return root
}

// loadConfig reads the configuration and builds a stderr logger for
// the non-interactive commands.
func (o *rootOptions) loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(os.Stderr, cfg.Log.Level), nil
}

func openStore(cfg *config.Config, log *slog.Logger) (history.Store, error) {
	store, err := history.Open(cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	return store, nil
}

func closeStore(store history.Store, log *slog.Logger) {
	if err := store.Close(); err != nil {
		log.Error("failed to close store", "error", err)
	}
}
