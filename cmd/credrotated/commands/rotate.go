package commands

import (
	"github.com/spf13/cobra"
)

// NewRotateCommand builds the "rotate" subcommand, which runs Rotate for
// every named resource (or all resources, if none named) that is due.
func NewRotateCommand(env *Environment) *cobra.Command {
	var (
		names []string
		force bool
		dry   bool
	)

	cmd := &cobra.Command{
		Use:   "rotate",
		Short: "Rotate one or more due credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			return dispatch(cmd.Context(), env, names, force, dry, dispatchModeRotate)
		},
	}

	cmd.Flags().StringSliceVar(&names, "name", nil, "resource names to rotate (default: all)")
	cmd.Flags().BoolVar(&force, "force", false, "bypass the expiration eligibility check")
	cmd.Flags().BoolVar(&dry, "dry-run", false, "simulate without mutating any resource")

	return cmd
}
