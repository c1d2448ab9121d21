package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/rolo/internal/event"
	"github.com/roach88/rolo/internal/model"
	"github.com/roach88/rolo/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	EntityID string
	Limit    int
}

// logEntry is one event in the JSON dump.
type logEntry struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	EntityID  string `json:"entityId,omitempty"`
	Timestamp string `json:"timestamp"`
	DeviceID  string `json:"deviceId"`
	Payload   any    `json:"payload"`
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Dump the event log in canonical order",
		Long: `Dump the event log sorted by timestamp (event id as tie-break).

Examples:
  rolo log --db ./rolo.db
  rolo log --db ./rolo.db --entity acct-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.EntityID, "entity", "", "only events touching this entity")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "print at most N events (0 = all)")

	return cmd
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
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

	if opts.EntityID != "" {
		filtered := events[:0]
		for _, ev := range events {
			if ev.EntityID == opts.EntityID {
				filtered = append(filtered, ev)
			}
		}
		events = filtered
	}
	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[:opts.Limit]
	}

	if opts.Format == "json" {
		entries := make([]logEntry, 0, len(events))
		for _, ev := range events {
			entries = append(entries, logEntry{
				ID:        ev.ID,
				Type:      string(ev.Type),
				EntityID:  ev.EntityID,
				Timestamp: ev.Timestamp,
				DeviceID:  ev.DeviceID,
				Payload:   model.ToGo(ev.Payload),
			})
		}
		return writeJSON(cmd.OutOrStdout(), entries)
	}

	w := cmd.OutOrStdout()
	for _, ev := range events {
		fmt.Fprintf(w, "%s  %-32s  %s\n", ev.Timestamp, ev.Type, ev.ID)
		if opts.Verbose {
			printEventDetail(w, ev)
		}
	}
	fmt.Fprintf(w, "%d event(s)\n", len(events))
	return nil
}

func printEventDetail(w io.Writer, ev event.Event) {
	if ev.EntityID != "" {
		fmt.Fprintf(w, "  entity: %s\n", ev.EntityID)
	}
	fmt.Fprintf(w, "  device: %s\n", ev.DeviceID)
	if payload, err := model.MarshalCanonical(ev.Payload); err == nil {
		fmt.Fprintf(w, "  payload: %s\n", payload)
	}
}
