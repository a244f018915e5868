package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"fitflow/internal/config"
	"fitflow/internal/convert"
	"fitflow/internal/fileutil"
	"fitflow/internal/fit"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var transformFlag bool
	var noTransformFlag bool

	cmd := &cobra.Command{
		Use:   "convert <input> [output]",
		Short: "Convert one FIT file to CSV",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			input, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve input path: %w", err)
			}

			output := ""
			if len(args) == 2 {
				output, err = config.ExpandPath(args[1])
				if err != nil {
					return fmt.Errorf("resolve output path: %w", err)
				}
			} else {
				output = fileutil.OutputPath(cfg.Paths.OutboxDir, input, ".csv")
			}

			transform := cfg.Conversion.Transform
			if cmd.Flags().Changed("transform") {
				transform = transformFlag
			}
			if noTransformFlag {
				transform = false
			}

			started := time.Now()
			rows, err := convert.Convert(fit.GarminOpener{}, input, output, transform)
			if err != nil {
				return err
			}

			printer := message.NewPrinter(language.English)
			printer.Fprintf(cmd.OutOrStdout(), "Wrote %d rows to %s in %s\n",
				rows, output, time.Since(started).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().BoolVar(&transformFlag, "transform", false, "Apply readability transforms regardless of config")
	cmd.Flags().BoolVar(&noTransformFlag, "no-transform", false, "Emit raw columns regardless of config")
	cmd.MarkFlagsMutuallyExclusive("transform", "no-transform")

	return cmd
}
