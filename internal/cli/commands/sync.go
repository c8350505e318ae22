package commands

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"PromptKeeper/internal/cli/bootstrap"
	"PromptKeeper/internal/config"
	"PromptKeeper/internal/syncer"

	"go.uber.org/zap"
)

type syncCmd struct{}

func (syncCmd) Name() string        { return "sync" }
func (syncCmd) Description() string { return "Run one sync cycle against the remote" }
func (syncCmd) Usage() string       { return "sync [--json]" }

func (syncCmd) Run(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	asJSON := fs.Bool("json", false, "print the run result as JSON")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	svc, done, err := bootstrap.OpenSyncService(cfg, zap.NewNop().Sugar())
	if err != nil {
		return err
	}
	defer func() { _ = done() }()

	res, err := svc.SyncNow(ctx)
	if *asJSON {
		b, mErr := json.MarshalIndent(struct {
			Success  bool   `json:"success"`
			Action   string `json:"action"`
			Strategy string `json:"strategy"`
			Reason   string `json:"reason"`
			Added    int    `json:"added"`
			Modified int    `json:"modified"`
			Deleted  int    `json:"deleted"`
			Conflict int    `json:"conflicts"`
			Message  string `json:"message"`
		}{res.Success, string(res.Action), string(res.Strategy), res.Reason,
			res.Counts.Added, res.Counts.Modified, res.Counts.Deleted,
			res.Counts.Conflicts, res.Message}, "", "  ")
		if mErr == nil {
			fmt.Fprintln(Out, string(b))
		}
		return err
	}

	if err != nil {
		if errors.Is(err, syncer.ErrUnresolvableConflict) {
			fmt.Fprintf(Out, "! Conflict detected, nothing was changed: %s\n", res.Reason)
			return nil
		}
		return err
	}
	printRunSummary(res)
	return nil
}

func printRunSummary(res syncer.Result) {
	fmt.Fprintf(Out, "✓ %s (%s)\n", res.Message, res.Reason)
	if res.Counts.Added > 0 {
		fmt.Fprintf(Out, "• Added locally: %d\n", res.Counts.Added)
	}
	if res.Counts.Modified > 0 {
		fmt.Fprintf(Out, "• Modified locally: %d\n", res.Counts.Modified)
	}
	if res.Counts.Deleted > 0 {
		fmt.Fprintf(Out, "• Deleted locally: %d\n", res.Counts.Deleted)
	}
	for _, c := range res.Conflicts {
		fmt.Fprintf(Out, "• Conflict on %s resolved (%s): %s\n", c.ItemID, c.Strategy, c.Reason)
	}
}

func init() { RegisterCmd(syncCmd{}) }
