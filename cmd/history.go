package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/pvcast/app"
	"github.com/kilianp07/pvcast/core/stream"
	"github.com/kilianp07/pvcast/infra/runlog"
	"github.com/kilianp07/pvcast/pkg/export"
)

var (
	historyLimit  int
	historyMode   string
	historyFormat string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(ctx context.Context, svc *app.Service) error {
			recs, err := svc.History(ctx, runlog.Query{Mode: historyMode, Limit: historyLimit})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch historyFormat {
			case "table":
				return printHistory(cmd, recs)
			case "csv":
				return export.WriteCSV(out, recs)
			case "json":
				return export.WriteJSON(out, recs)
			case "html":
				return export.WriteChart(out, recs)
			default:
				return fmt.Errorf("unknown format %q", historyFormat)
			}
		})
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of runs to list (0 for all)")
	historyCmd.Flags().StringVar(&historyMode, "mode", "", "only list live or validation runs")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "table", "output format: table, csv, json or html (MAE chart)")
}

func printHistory(cmd *cobra.Command, recs []runlog.Record) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tMODE\tMODEL\tSAMPLES\tMAE\tDURATION\tSTATUS")
	for _, r := range recs {
		mae := "-"
		if r.MAE != nil {
			mae = stream.FormatValue(*r.MAE)
		}
		status := "ok"
		if r.Error != "" {
			status = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), r.Mode, r.Model, r.Samples, mae, r.Duration, status)
	}
	return tw.Flush()
}
