package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"PromptKeeper/internal/cli/bootstrap"
	"PromptKeeper/internal/config"

	"go.uber.org/zap"
)

type watchCmd struct{}

func (watchCmd) Name() string        { return "watch" }
func (watchCmd) Description() string { return "Sync on a timer until interrupted" }
func (watchCmd) Usage() string       { return "watch [--interval 5m]" }

func (watchCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	interval := fs.Duration("interval", cfg.SyncInterval, "time between sync runs")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if *interval <= 0 {
		return ErrUsage
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, done, err := bootstrap.OpenSyncService(cfg, logger.Sugar())
	if err != nil {
		return err
	}
	defer func() { _ = done() }()

	fmt.Fprintf(Out, "Watching: syncing every %s (Ctrl+C to stop)\n", *interval)
	svc.RunTimer(ctx, *interval)
	fmt.Fprintln(Out, "Stopped")
	return nil
}

func init() { RegisterCmd(watchCmd{}) }
