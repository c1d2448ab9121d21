package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/reduce"
	"github.com/roach88/rolo/internal/store"
)

// SnapshotOptions holds flags for the snapshot command.
type SnapshotOptions struct {
	*RootOptions
	Prune int
}

// SnapshotResult holds the snapshot outcome.
type SnapshotResult struct {
	SnapshotID string `json:"snapshot_id"`
	Through    string `json:"through"`
	Events     int    `json:"events"`
	Pruned     int64  `json:"pruned"`
}

// NewSnapshotCommand creates the snapshot command.
func NewSnapshotCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SnapshotOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Write a snapshot of the replayed document",
		Long: `Replay the full event log and persist the result as a snapshot,
so the next load folds only events newer than it. Optionally prune old
snapshots afterwards.

Examples:
  rolo snapshot --db ./rolo.db
  rolo snapshot --db ./rolo.db --prune 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnapshot(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Prune, "prune", 0, "keep only the newest N snapshots (0 = keep all)")

	return cmd
}

func runSnapshot(opts *SnapshotOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	events, err := st.ReadEvents(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	registry := reduce.NewRegistry()
	doc, err := registry.ApplyAll(document.New(), events)
	if err != nil {
		return WrapExitError(ExitFailure, "replay failed", err)
	}

	var through string
	for _, ev := range events {
		if ev.Timestamp > through {
			through = ev.Timestamp
		}
	}

	id, err := st.WriteSnapshot(ctx, doc, through)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to write snapshot", err)
	}

	result := SnapshotResult{
		SnapshotID: id,
		Through:    through,
		Events:     len(events),
	}

	if opts.Prune > 0 {
		pruned, err := st.PruneSnapshots(ctx, opts.Prune)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to prune snapshots", err)
		}
		result.Pruned = pruned
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Snapshot %s written through %s (%d event(s))\n", result.SnapshotID, result.Through, result.Events)
	if opts.Prune > 0 {
		fmt.Fprintf(w, "Pruned %d old snapshot(s)\n", result.Pruned)
	}
	return nil
}
