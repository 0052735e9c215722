package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"avular-packages/internal/app"
)

type solveOptions struct {
	Index           string
	Specs           []string
	Installed       []string
	UpdateDeps      bool
	ReturnAll       bool
	ChannelPriority bool
	Subdir          string
}

func newSolveCommand() *cobra.Command {
	opts := solveOptions{}
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Resolve match-spec requests against a package index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSolve(cmd.Context(), cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Index, "index", "", "Package index file (JSON or YAML, fkey -> record)")
	cmd.Flags().StringSliceVar(&opts.Specs, "spec", nil, "Match spec to resolve (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Installed, "installed", nil, "Fkey already present in the environment (repeatable)")
	cmd.Flags().BoolVar(&opts.UpdateDeps, "update-deps", true, "Allow installed packages to move to satisfy new specs")
	cmd.Flags().BoolVar(&opts.ReturnAll, "return-all", false, "Report tied alternate solutions alongside the primary one")
	cmd.Flags().BoolVar(&opts.ChannelPriority, "channel-priority", false, "Prefer lower-priority-number channels over newer versions")
	cmd.Flags().StringVar(&opts.Subdir, "subdir", "linux-64", "Target platform subdir")

	_ = viper.BindPFlag("solve_index", cmd.Flags().Lookup("index"))
	_ = viper.BindPFlag("solve_specs", cmd.Flags().Lookup("spec"))
	_ = viper.BindPFlag("solve_installed", cmd.Flags().Lookup("installed"))
	_ = viper.BindPFlag("solve_update_deps", cmd.Flags().Lookup("update-deps"))
	_ = viper.BindPFlag("solve_return_all", cmd.Flags().Lookup("return-all"))
	_ = viper.BindPFlag("solve_channel_priority", cmd.Flags().Lookup("channel-priority"))
	_ = viper.BindPFlag("solve_subdir", cmd.Flags().Lookup("subdir"))

	return cmd
}

func runSolve(ctx context.Context, cmd *cobra.Command, opts solveOptions) error {
	service := newAppService()
	result, err := service.Solve(ctx, app.SolveRequest{
		IndexPath:       resolveString(cmd, opts.Index, "solve_index", "index"),
		Specs:           resolveStrings(cmd, opts.Specs, "solve_specs", "spec"),
		Installed:       resolveStrings(cmd, opts.Installed, "solve_installed", "installed"),
		UpdateDeps:      resolveBool(cmd, opts.UpdateDeps, "solve_update_deps", "update-deps"),
		ReturnAll:       resolveBool(cmd, opts.ReturnAll, "solve_return_all", "return-all"),
		ChannelPriority: resolveBool(cmd, opts.ChannelPriority, "solve_channel_priority", "channel-priority"),
		Subdir:          resolveString(cmd, opts.Subdir, "solve_subdir", "subdir"),
	})
	if err != nil {
		return err
	}
	for _, fkey := range result.FKeys {
		fmt.Println(fkey)
	}
	for i, alt := range result.Alternates {
		fmt.Printf("# alternate %d\n", i+1)
		for _, fkey := range alt {
			fmt.Println(fkey)
		}
	}
	return nil
}
