package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fitflow/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent conversion reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			reports, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if failedOnly {
				kept := reports[:0]
				for _, report := range reports {
					if !report.Success {
						kept = append(kept, report)
					}
				}
				reports = kept
			}

			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprintln(out, "No conversion reports recorded.")
				return nil
			}

			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(reports))
			for _, report := range reports {
				detail := report.OutputPath
				if !report.Success {
					detail = report.Message
				}
				rows = append(rows, []string{
					report.CreatedAt.Local().Format("2006-01-02 15:04"),
					filepath.Base(report.InputPath),
					statusLabel(report.Success, colorize),
					strconv.Itoa(report.Rows),
					strconv.Itoa(report.Attempts),
					report.Elapsed.Round(time.Millisecond).String(),
					detail,
				})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"When", "Input", "Status", "Rows", "Attempts", "Elapsed", "Output / Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
			))

			summary, err := store.Summarize(cmd.Context())
			if err != nil {
				return err
			}
			printer := message.NewPrinter(language.English)
			printer.Fprintf(out, "%d conversions recorded: %d succeeded, %d failed, %d rows written\n",
				summary.Total, summary.Succeeded, summary.Failed, summary.TotalRows)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of reports to show (0 for all)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Show only failed conversions")

	return cmd
}
