package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/yungbote/sciencemap-backend/internal/modules/graphview"
)

type runFunc func(ctx context.Context, cmd *cobra.Command, s *session, args []string) (any, error)

// viewCmd opens a session, prints the view as JSON and closes the session
// on every path.
func viewCmd(out io.Writer, verbose *bool, use, short string, args cobra.PositionalArgs, run runFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, *verbose, out)
			if err != nil {
				return err
			}
			defer s.close(context.WithoutCancel(ctx))
			v, err := run(ctx, cmd, s, argv)
			if err != nil {
				return err
			}
			return s.print(v)
		},
	}
}

// optInt returns nil unless the flag was set, so the view applies its default.
func optInt(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, err := cmd.Flags().GetInt(name)
	if err != nil {
		return nil
	}
	return &v
}

func optArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func newRootCmd(out io.Writer) *cobra.Command {
	var verbose bool
	root := &cobra.Command{
		Use:           "graphctl",
		Short:         "Query the science map graph views from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")

	root.AddCommand(
		newEntityCmd(out, &verbose),
		newSearchCmd(out, &verbose),
		newNeighborsCmd(out, &verbose),
		newTreeCmd(out, &verbose),
		newViewportCmd(out, &verbose),
		newTimelineCmd(out, &verbose),
		newPathCmd(out, &verbose),
	)
	return root
}

func newEntityCmd(out io.Writer, verbose *bool) *cobra.Command {
	return viewCmd(out, verbose, "entity <id-or-name>", "Look up one entity", cobra.ExactArgs(1),
		func(ctx context.Context, _ *cobra.Command, s *session, args []string) (any, error) {
			return s.views.Entity(ctx, args[0])
		})
}

func newSearchCmd(out io.Writer, verbose *bool) *cobra.Command {
	var lang string
	cmd := viewCmd(out, verbose, "search <query>", "Search entities by name", cobra.ExactArgs(1),
		func(ctx context.Context, cmd *cobra.Command, s *session, args []string) (any, error) {
			return s.views.Search(ctx, graphview.SearchParams{Query: args[0], Lang: lang, Limit: optInt(cmd, "limit")})
		})
	cmd.Flags().StringVar(&lang, "lang", graphview.DefaultLang, "label language (en or zh-CN)")
	cmd.Flags().Int("limit", 0, "maximum results")
	return cmd
}

func newNeighborsCmd(out io.Writer, verbose *bool) *cobra.Command {
	var direction string
	var relTypes []string
	cmd := viewCmd(out, verbose, "neighbors <id-or-name>", "One-hop neighborhood of an entity", cobra.ExactArgs(1),
		func(ctx context.Context, cmd *cobra.Command, s *session, args []string) (any, error) {
			return s.views.Neighbors(ctx, graphview.NeighborsParams{
				ID:        args[0],
				Direction: direction,
				RelTypes:  relTypes,
				Limit:     optInt(cmd, "limit"),
			})
		})
	cmd.Flags().StringVar(&direction, "direction", "both", "in, out or both")
	cmd.Flags().StringSliceVar(&relTypes, "rel-types", nil, "relation types to follow")
	cmd.Flags().Int("limit", 0, "maximum edges")
	return cmd
}

func newTreeCmd(out io.Writer, verbose *bool) *cobra.Command {
	cmd := viewCmd(out, verbose, "tree [root]", "INCLUDES hierarchy under a root", cobra.MaximumNArgs(1),
		func(ctx context.Context, cmd *cobra.Command, s *session, args []string) (any, error) {
			return s.views.Tree(ctx, graphview.TreeParams{Root: optArg(args), Depth: optInt(cmd, "depth")})
		})
	cmd.Flags().Int("depth", 0, "maximum depth (0-6)")
	return cmd
}

func newViewportCmd(out io.Writer, verbose *bool) *cobra.Command {
	var view string
	cmd := viewCmd(out, verbose, "viewport [center]", "Entities and edges within a hop radius", cobra.MaximumNArgs(1),
		func(ctx context.Context, cmd *cobra.Command, s *session, args []string) (any, error) {
			return s.views.Viewport(ctx, graphview.ViewportParams{
				View:     view,
				CenterID: optArg(args),
				MaxHops:  optInt(cmd, "max-hops"),
				Limit:    optInt(cmd, "limit"),
			})
		})
	cmd.Flags().StringVar(&view, "view", graphview.ViewNetwork, "network or tree")
	cmd.Flags().Int("max-hops", 0, "hop radius (1-6)")
	cmd.Flags().Int("limit", 0, "maximum edges")
	return cmd
}

func newTimelineCmd(out io.Writer, verbose *bool) *cobra.Command {
	cmd := viewCmd(out, verbose, "timeline", "Dated entities in year order", cobra.NoArgs,
		func(ctx context.Context, cmd *cobra.Command, s *session, _ []string) (any, error) {
			return s.views.Timeline(ctx, graphview.TimelineParams{
				YearFrom: optInt(cmd, "from"),
				YearTo:   optInt(cmd, "to"),
				Limit:    optInt(cmd, "limit"),
			})
		})
	cmd.Flags().Int("from", 0, "first year")
	cmd.Flags().Int("to", 0, "last year")
	cmd.Flags().Int("limit", 0, "maximum entities")
	return cmd
}

func newPathCmd(out io.Writer, verbose *bool) *cobra.Command {
	var strategy string
	var relTypes []string
	cmd := viewCmd(out, verbose, "path <start> <end>", "Constrained shortest path between two entities", cobra.ExactArgs(2),
		func(ctx context.Context, cmd *cobra.Command, s *session, args []string) (any, error) {
			return s.views.PathQuery(ctx, graphview.PathParams{
				StartID:         args[0],
				EndID:           args[1],
				Strategy:        strategy,
				AllowedRelTypes: relTypes,
				YearFrom:        optInt(cmd, "from"),
				YearTo:          optInt(cmd, "to"),
				MaxHops:         optInt(cmd, "max-hops"),
			})
		})
	cmd.Flags().StringVar(&strategy, "strategy", "shortest", "shortest or time_constrained")
	cmd.Flags().StringSliceVar(&relTypes, "rel-types", nil, "allowed relation types")
	cmd.Flags().Int("from", 0, "earliest edge year (time_constrained)")
	cmd.Flags().Int("to", 0, "latest edge year (time_constrained)")
	cmd.Flags().Int("max-hops", 0, "hop ceiling (1-20)")
	return cmd
}
