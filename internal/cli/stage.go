package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/journey/internal/funneldef"
	"github.com/roach88/journey/internal/journey"
	"github.com/roach88/journey/internal/tracker"
)

// StageAddOptions holds flags for the stage add command.
type StageAddOptions struct {
	*RootOptions
	Order       int
	Entry       string
	Exit        string
	Description string
}

// NewStageCommand creates the stage command group.
func NewStageCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Manage funnel stages",
	}

	cmd.AddCommand(newStageAddCommand(rootOpts))
	cmd.AddCommand(newStageListCommand(rootOpts))
	cmd.AddCommand(newStageImportCommand(rootOpts))
	cmd.AddCommand(newStageReorderCommand(rootOpts))

	return cmd
}

func newStageAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StageAddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Register a funnel stage",
		Long: `Register a funnel stage. A touchpoint enters the stage when its event
equals the entry event or the optional exit event.

Example:
  journey stage add Awareness --order 1 --entry page_view --exit search`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec := tracker.StageSpec{
				Name:        args[0],
				Order:       opts.Order,
				EntryEvent:  opts.Entry,
				ExitEvent:   opts.Exit,
				Description: opts.Description,
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				stage, err := a.tracker.AddStage(ctx, spec)
				if err != nil {
					return nil, err
				}
				slog.Debug("stage added", "stage", stage.Name, "order", stage.Order)
				return stageView(stage), nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Order, "order", 0, "position in the funnel (required)")
	cmd.Flags().StringVar(&opts.Entry, "entry", "", "entry event (required)")
	cmd.Flags().StringVar(&opts.Exit, "exit", "", "exit event")
	cmd.Flags().StringVar(&opts.Description, "description", "", "stage description")
	_ = cmd.MarkFlagRequired("order")
	_ = cmd.MarkFlagRequired("entry")

	return cmd
}

func newStageListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List funnel stages in order",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				list, err := a.engine.Stages(ctx)
				if err != nil {
					return nil, err
				}
				return stageListView(list), nil
			})
		},
	}
}

func newStageImportCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Register stages from a YAML or CUE definition",
		Long: `Register every stage declared in a funnel definition file.

YAML files hold a "stages" list; CUE files (or directories) declare a
"stage" struct keyed by name. Imported stages must not collide with stages
already registered.

Example:
  journey stage import ./funnel.yaml
  journey stage import ./funnel.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			defs, err := funneldef.Load(args[0])
			if err != nil {
				return opts.formatter(cmd).Fail(journey.NewInvalidArgumentError("file", err.Error()))
			}
			slog.Debug("funnel definition loaded", "path", args[0], "stages", len(defs))

			specs := make([]tracker.StageSpec, len(defs))
			for i, d := range defs {
				specs[i] = tracker.StageSpec{
					Name:        d.Name,
					Order:       d.Order,
					EntryEvent:  d.EntryEvent,
					ExitEvent:   d.ExitEvent,
					Description: d.Description,
				}
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				added, err := a.tracker.AddStages(ctx, specs)
				if err != nil {
					return nil, err
				}
				return stageListView(added), nil
			})
		},
	}
}

func newStageReorderCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "reorder <name> <order>",
		Short:         "Move a stage to a new order",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := strconv.Atoi(args[1])
			if err != nil {
				return opts.formatter(cmd).Fail(journey.NewInvalidArgumentError("order", fmt.Sprintf("order %q is not an integer", args[1])))
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app) (any, error) {
				stage, err := a.tracker.ReorderStage(ctx, args[0], order)
				if err != nil {
					return nil, err
				}
				return stageView(stage), nil
			})
		},
	}
}
