package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitializeCommand builds the "initialize" subcommand, which runs
// Initialize for every named resource (or all resources, if none named).
func NewInitializeCommand(env *Environment) *cobra.Command {
	var (
		names []string
		force bool
		dry   bool
	)

	cmd := &cobra.Command{
		Use:   "initialize",
		Short: "Initialize one or more not-yet-provisioned credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd.Context(), env, names, force, dry, dispatchModeInitialize)
		},
	}

	cmd.Flags().StringSliceVar(&names, "name", nil, "resource names to initialize (default: all)")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the already-initialized check")
	cmd.Flags().BoolVar(&dry, "dry-run", false, "simulate without mutating any resource")

	return cmd
}

type dispatchMode int

const (
	dispatchModeInitialize dispatchMode = iota
	dispatchModeRotate
)

func dispatch(ctx context.Context, env *Environment, names []string, force, dry bool, mode dispatchMode) error {
	def, opCtx, err := buildOperationContext(env)
	if err != nil {
		return err
	}
	opCtx.Force = force
	opCtx.IsWhatIf = dry

	resources := def.ToResourceConfigurations()
	if len(names) == 0 {
		for name := range resources {
			names = append(names, name)
		}
	}

	for _, name := range names {
		resource, ok := resources[name]
		if !ok {
			env.Logger.Warn("no resource named %q in %s", name, env.ConfigPath)
			continue
		}

		strategy, ok := opCtx.Rotators[resource.StrategyType]
		if !ok {
			env.Logger.Warn("no strategy registered for %q (resource %q)", resource.StrategyType, name)
			continue
		}

		invoke := strategy.Rotate
		if mode == dispatchModeInitialize {
			invoke = strategy.Initialize
		}

		result, err := invoke(ctx, resource, opCtx)
		if err != nil {
			env.Logger.Error("%s: %v", name, err)
			continue
		}
		fmt.Printf("%s [%s]: rotated=%t (%s) %s\n", result.Name, result.Strategy, result.WasRotated, result.Duration, result.Notes)
	}

	return nil
}
