package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/reduce"
	"github.com/roach88/rolo/internal/store"
)

// VerifyOptions holds flags for the verify command.
type VerifyOptions struct {
	*RootOptions
}

// VerifyResult holds the verification outcome.
type VerifyResult struct {
	SnapshotID        string `json:"snapshot_id,omitempty"`
	Through           string `json:"through,omitempty"`
	TrailingEvents    int    `json:"trailing_events"`
	ReplayFingerprint string `json:"replay_fingerprint"`
	LoadedFingerprint string `json:"loaded_fingerprint"`
	Match             bool   `json:"match"`
}

// NewVerifyCommand creates the verify command.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &VerifyOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the latest snapshot against full replay",
		Long: `Rebuild the document two ways: a full fold of the event log from
scratch, and the latest snapshot plus its trailing events. The two must
produce the same fingerprint; a mismatch means the snapshot no longer
agrees with the log and should be discarded.

Exit codes:
  0 - Fingerprints match (or no snapshot exists)
  1 - Fingerprints differ
  2 - Command error (database not found, etc.)

Examples:
  rolo verify --db ./rolo.db
  rolo verify --db ./rolo.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(opts, cmd)
		},
	}

	return cmd
}

func runVerify(opts *VerifyOptions, cmd *cobra.Command) error {
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
	full, err := registry.ApplyAll(document.New(), events)
	if err != nil {
		return WrapExitError(ExitFailure, "full replay failed", err)
	}
	fullFP, err := full.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprint failed", err)
	}

	snap, err := st.LatestSnapshot(ctx)
	if err != nil {
		if !store.IsCorrupt(err) {
			return WrapExitError(ExitCommandError, "failed to read snapshot", err)
		}
		return WrapExitError(ExitFailure, "latest snapshot is unreadable", err)
	}

	if snap == nil {
		if opts.Format == "json" {
			return writeJSON(cmd.OutOrStdout(), VerifyResult{
				ReplayFingerprint: fullFP,
				LoadedFingerprint: fullFP,
				Match:             true,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No snapshot to verify; full replay fingerprint:", fullFP)
		return nil
	}

	trailing := event.After(events, snap.Through)
	loaded, err := registry.ApplyAll(snap.Doc, trailing)
	if err != nil {
		return WrapExitError(ExitFailure, "snapshot replay failed", err)
	}
	loadedFP, err := loaded.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprint failed", err)
	}

	result := VerifyResult{
		SnapshotID:        snap.ID,
		Through:           snap.Through,
		TrailingEvents:    len(trailing),
		ReplayFingerprint: fullFP,
		LoadedFingerprint: loadedFP,
		Match:             fullFP == loadedFP,
	}

	if opts.Format == "json" {
		if !result.Match {
			if err := writeJSONError(cmd.OutOrStdout(), "E_SNAPSHOT_DIVERGED", "snapshot plus trailing events diverges from full replay"); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "snapshot diverges from full replay")
		}
		return writeJSON(cmd.OutOrStdout(), result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Snapshot %s through %s, %d trailing event(s)\n", result.SnapshotID, result.Through, result.TrailingEvents)
	if opts.Verbose {
		fmt.Fprintf(w, "  full replay: %s\n", result.ReplayFingerprint)
		fmt.Fprintf(w, "  snapshot:    %s\n", result.LoadedFingerprint)
	}
	if !result.Match {
		fmt.Fprintln(w, "✗ Snapshot diverges from full replay")
		return NewExitError(ExitFailure, "snapshot diverges from full replay")
	}
	fmt.Fprintln(w, "✓ Snapshot agrees with full replay")
	return nil
}
