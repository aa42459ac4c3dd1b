package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/journey/internal/analytics"
)

// FunnelOptions holds flags for the funnel command.
type FunnelOptions struct {
	*RootOptions
	Days    int
	Channel string
}

// NewFunnelCommand creates the funnel command.
func NewFunnelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FunnelOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "funnel",
		Short: "Per-stage entries, conversions and time in stage",
		Long: `Analyse the funnel over touchpoints from the last N days.

A stage converts when the next stage's first entry comes no earlier than
its own. The final stage always converts for the sessions that reach it.

Example:
  journey funnel --days 7 --channel email`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				metrics, err := a.engine.AnalyzeFunnel(ctx, opts.Days, opts.Channel)
				if err != nil {
					return nil, err
				}
				slog.Debug("funnel analysed", "days", opts.Days, "channel", opts.Channel, "stages", len(metrics))
				return funnelView(metrics), nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Days, "days", analytics.DefaultDays, "window size in days")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "only sessions on this channel")

	return cmd
}

// PathsOptions holds flags for the paths command.
type PathsOptions struct {
	*RootOptions
	Limit int
}

// NewPathsCommand creates the paths command.
func NewPathsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PathsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Most frequent stage sequences",
		Long: `List the most frequent stage sequences across all sessions, most
common first. Ties go to the higher conversion rate.

Example:
  journey paths --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit := opts.Limit
			if !cmd.Flags().Changed("limit") {
				limit = opts.Config.PathLimit
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				paths, err := a.engine.TopPaths(ctx, limit)
				if err != nil {
					return nil, err
				}
				slog.Debug("paths mined", "limit", limit, "paths", len(paths))
				return pathsView(paths), nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", analytics.DefaultPathLimit, "maximum number of paths (default from JOURNEY_PATH_LIMIT)")

	return cmd
}

// NewDropoffsCommand creates the dropoffs command.
func NewDropoffsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dropoffs <stage>",
		Short: "Why and when sessions left a stage",
		Long: `Report sessions that entered a stage but never reached the next one,
grouped by the "reason" metadata of their last touchpoint, by UTC hour
and by channel.

Example:
  journey dropoffs Intent`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				report, err := a.engine.AnalyzeDropoffs(ctx, args[0])
				if err != nil {
					return nil, err
				}
				slog.Debug("dropoffs analysed", "stage", report.Stage, "total", report.Total)
				return dropoffView(report), nil
			})
		},
	}
}

// ChannelsOptions holds flags for the channels command.
type ChannelsOptions struct {
	*RootOptions
	Days int
}

// NewChannelsCommand creates the channels command.
func NewChannelsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ChannelsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "channels",
		Short:         "Sessions, conversions and value per channel",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				rows, err := a.engine.ChannelAttribution(ctx, opts.Days)
				if err != nil {
					return nil, err
				}
				slog.Debug("channels attributed", "days", opts.Days, "channels", len(rows))
				return channelsView(rows), nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Days, "days", analytics.DefaultDays, "window size in days")

	return cmd
}

// SegmentsOptions holds flags for the segments command.
type SegmentsOptions struct {
	*RootOptions
	Buckets int
}

// NewSegmentsCommand creates the segments command.
func NewSegmentsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SegmentsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "segments",
		Short:         "Customers bucketed by lifetime value",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			buckets := opts.Buckets
			if !cmd.Flags().Changed("buckets") {
				buckets = opts.Config.LTVBuckets
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				segs, err := a.engine.LTVSegments(ctx, buckets)
				if err != nil {
					return nil, err
				}
				slog.Debug("segments computed", "buckets", buckets, "segments", len(segs))
				return segmentsView(segs), nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Buckets, "buckets", analytics.DefaultLTVBuckets, "number of equal-width buckets (default from JOURNEY_LTV_BUCKETS)")

	return cmd
}

// HeatmapOptions holds flags for the heatmap command.
type HeatmapOptions struct {
	*RootOptions
	Hours int
}

// NewHeatmapCommand creates the heatmap command.
func NewHeatmapCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HeatmapOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "heatmap",
		Short:         "Touchpoint counts by UTC weekday and hour",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				h, err := a.engine.Heatmap(ctx, opts.Hours)
				if err != nil {
					return nil, err
				}
				slog.Debug("heatmap computed", "hours", opts.Hours, "touchpoints", h.Total)
				return heatmapView(h), nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Hours, "hours", analytics.DefaultHeatmapHours, "window size in hours")

	return cmd
}
