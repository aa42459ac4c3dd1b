package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/tracker"
)

// parseAt reads an --at flag value. An empty value means now.
func parseAt(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, journey.NewInvalidArgumentError("at", fmt.Sprintf("%q is not an RFC 3339 timestamp", value))
	}
	return at, nil
}

// SessionStartOptions holds flags for the session start command.
type SessionStartOptions struct {
	*RootOptions
	Device string
	LTV    float64
	At     string
}

// NewSessionCommand creates the session command group.
func NewSessionCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Record customer sessions",
	}
	cmd.AddCommand(newSessionStartCommand(rootOpts))
	return cmd
}

func newSessionStartCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SessionStartOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "start <customer-id> <channel>",
		Short: "Start a session and print its ID",
		Long: `Start a session for a customer arriving on a channel.

Example:
  journey session start cust-42 email --device mobile --ltv 129.50
  journey session start cust-42 email --at 2026-03-02T09:00:00Z`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseAt(opts.At)
			if err != nil {
				return opts.formatter(cmd).Fail(err)
			}
			sessOpts := tracker.SessionOptions{Device: opts.Device, StartedAt: at}
			if cmd.Flags().Changed("ltv") {
				ltv := opts.LTV
				sessOpts.LTV = &ltv
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				sess, err := a.tracker.StartSession(ctx, args[0], args[1], sessOpts)
				if err != nil {
					return nil, err
				}
				slog.Debug("session started", "session", sess.ID, "channel", sess.Channel)
				return sessionView(sess), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Device, "device", "", `device type (default "unknown")`)
	cmd.Flags().Float64Var(&opts.LTV, "ltv", 0, "customer lifetime value")
	cmd.Flags().StringVar(&opts.At, "at", "", "start time as RFC 3339 (default now)")

	return cmd
}

// TouchpointOptions holds flags for the touchpoint command.
type TouchpointOptions struct {
	*RootOptions
	Metadata map[string]string
	At       string
}

// NewTouchpointCommand creates the touchpoint command.
func NewTouchpointCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TouchpointOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "touchpoint <session-id> <event>",
		Short: "Record a touchpoint in a session",
		Long: `Record a touchpoint event in an existing session. The stage the event
enters, if any, is reported.

A "reason" metadata entry is read by dropoff analysis.

Example:
  journey touchpoint 0192f1c3-7a4e-7cc1-9f00-4be1d0a1c2d3 add_to_cart --meta reason=price
  journey touchpoint 0192f1c3-7a4e-7cc1-9f00-4be1d0a1c2d3 checkout --at 2026-03-02T09:15:00+01:00`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := parseAt(opts.At)
			if err != nil {
				return opts.formatter(cmd).Fail(err)
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				rec, err := a.tracker.RecordTouchpoint(ctx, args[0], args[1], tracker.TouchpointOptions{
					OccurredAt: at,
					Metadata:   opts.Metadata,
				})
				if err != nil {
					return nil, err
				}
				slog.Debug("touchpoint recorded", "touchpoint", rec.Touchpoint.ID, "event", rec.Touchpoint.Event)
				return recordedView(rec), nil
			})
		},
	}

	cmd.Flags().StringToStringVar(&opts.Metadata, "meta", nil, "metadata as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.At, "at", "", "occurrence time as RFC 3339 (default now)")

	return cmd
}
