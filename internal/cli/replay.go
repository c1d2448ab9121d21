package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/rolo/internal/document"
	"github.com/roach88/rolo/internal/reduce"
	"github.com/roach88/rolo/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Check bool
}

// ReplayResult holds the replay outcome.
type ReplayResult struct {
	Events        int    `json:"events"`
	Organizations int    `json:"organizations"`
	Accounts      int    `json:"accounts"`
	Contacts      int    `json:"contacts"`
	Notes         int    `json:"notes"`
	Interactions  int    `json:"interactions"`
	Fingerprint   string `json:"fingerprint"`
	Deterministic *bool  `json:"deterministic,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the document from the event log",
		Long: `Fold the whole event log from an empty document and print the
resulting state fingerprint. Snapshots are ignored; this is the ground
truth the verify command compares against.

With --check the fold runs twice and the fingerprints are compared.

Exit codes:
  0 - Replay succeeded (and folds agreed, with --check)
  1 - Replay failed or folds disagreed
  2 - Command error (database not found, etc.)

Examples:
  rolo replay --db ./rolo.db
  rolo replay --db ./rolo.db --check --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "fold twice and compare fingerprints")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
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

	fingerprint, err := doc.Fingerprint()
	if err != nil {
		return WrapExitError(ExitFailure, "fingerprint failed", err)
	}

	result := ReplayResult{
		Events:        len(events),
		Organizations: len(doc.Organizations),
		Accounts:      len(doc.Accounts),
		Contacts:      len(doc.Contacts),
		Notes:         len(doc.Notes),
		Interactions:  len(doc.Interactions),
		Fingerprint:   fingerprint,
	}

	if opts.Check {
		second, err := registry.ApplyAll(document.New(), events)
		if err != nil {
			return WrapExitError(ExitFailure, "second replay failed", err)
		}
		secondFP, err := second.Fingerprint()
		if err != nil {
			return WrapExitError(ExitFailure, "second fingerprint failed", err)
		}
		ok := secondFP == fingerprint
		result.Deterministic = &ok
	}

	if opts.Format == "json" {
		if result.Deterministic != nil && !*result.Deterministic {
			if err := writeJSONError(cmd.OutOrStdout(), "E_REPLAY_DIVERGED", "repeat fold produced a different fingerprint"); err != nil {
				return err
			}
			return NewExitError(ExitFailure, "repeat fold produced a different fingerprint")
		}
		return writeJSON(cmd.OutOrStdout(), result)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Replayed %d event(s)\n", result.Events)
	fmt.Fprintf(w, "  organizations: %d\n", result.Organizations)
	fmt.Fprintf(w, "  accounts:      %d\n", result.Accounts)
	fmt.Fprintf(w, "  contacts:      %d\n", result.Contacts)
	fmt.Fprintf(w, "  notes:         %d\n", result.Notes)
	fmt.Fprintf(w, "  interactions:  %d\n", result.Interactions)
	fmt.Fprintf(w, "Fingerprint: %s\n", result.Fingerprint)

	if result.Deterministic != nil {
		if !*result.Deterministic {
			fmt.Fprintln(w, "✗ Repeat fold diverged")
			return NewExitError(ExitFailure, "repeat fold produced a different fingerprint")
		}
		fmt.Fprintln(w, "✓ Repeat fold agreed")
	}
	return nil
}
