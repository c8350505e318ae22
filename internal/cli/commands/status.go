package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"PromptKeeper/internal/config"
	"PromptKeeper/internal/journal"
	"PromptKeeper/internal/prefs"
)

type statusCmd struct{}

func (statusCmd) Name() string        { return "status" }
func (statusCmd) Description() string { return "Show sync state and recent runs" }
func (statusCmd) Usage() string       { return "status [--runs N]" }

func (statusCmd) Run(_ context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	limit := fs.Int("runs", 5, "number of recent runs to show")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	d, err := (prefs.FSStore{}).Get()
	if err != nil {
		return fmt.Errorf("read sync state: %w", err)
	}
	if d.DeviceID == "" {
		fmt.Fprintln(Out, "No sync state yet: run `pkcli sync` first")
	} else {
		fmt.Fprintf(Out, "Device:       %s\n", d.DeviceID)
		fmt.Fprintf(Out, "Sync count:   %d\n", d.SyncCount)
		fmt.Fprintf(Out, "Last sync:    %s\n", d.LastSyncTime.Local())
		fmt.Fprintf(Out, "Records:      %d\n", d.TotalRecords)
	}

	jr, err := journal.Open(cfg.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer func() { _ = jr.Close() }()

	runs, err := jr.RecentRuns(*limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}
	if len(runs) == 0 {
		return nil
	}
	fmt.Fprintln(Out, "\nRecent runs:")
	for _, r := range runs {
		mark := "✓"
		if !r.Success {
			mark = "×"
		}
		fmt.Fprintf(Out, "  %s %s  %s/%s  +%d ~%d -%d !%d  %s\n",
			mark, r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Action, r.Strategy, r.Added, r.Modified, r.Deleted, r.Conflicts, r.Reason)
	}
	return nil
}

func init() { RegisterCmd(statusCmd{}) }
