package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pvcast/app"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Score the predictor on the local validation data and print its MAE",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			return svc.RunValidation(ctx, cmd.OutOrStdout())
		})
	},
}
