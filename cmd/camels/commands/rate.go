package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"camelsrating/internal/camels"
	"camelsrating/internal/infrastructure"
	"camelsrating/internal/services"
)

const formatNone = "none"

type rateOptions struct {
	sheet        string
	outDir       string
	format       string
	backfillLags bool
	fromSheets   bool
	noSummary    bool
}

func newRateCmd(global *globalOptions) *cobra.Command {
	opts := &rateOptions{}

	cmd := &cobra.Command{
		Use:   "rate [files...]",
		Short: "Rate institutions and export the results",
		Long: `Rate every institution row and write the results.

The summary report is printed to stdout. Exports go to the reports
directory unless --out is given; --format takes a comma separated list of
csv, json, xlsx and summary, all, or none.

Example:
  camels rate banks_2022.xlsx banks_2023.xlsx --format csv,xlsx
  camels rate --from-sheets --backfill-lags`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRate(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from workbooks (default from config)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory (default data/reports)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", services.FormatAll, "export formats: csv,json,xlsx,summary, all or none")
	cmd.Flags().BoolVar(&opts.backfillLags, "backfill-lags", false, "fill missing lagged total assets from earlier rows of the same institution")
	cmd.Flags().BoolVar(&opts.fromSheets, "from-sheets", false, "read the configured spreadsheet instead of files")
	cmd.Flags().BoolVar(&opts.noSummary, "no-summary", false, "do not print the summary report")
	return cmd
}

func runRate(cmd *cobra.Command, global *globalOptions, opts *rateOptions, args []string) error {
	formats, err := exportFormats(opts.format)
	if err != nil {
		return err
	}

	rt, err := global.runtime(cmd, opts.fromSheets)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	outDir, err := rt.outputDir(opts.outDir)
	if err != nil {
		return err
	}

	obs, source, err := rt.observations(ctx, args, opts.sheet, opts.fromSheets)
	if err != nil {
		return err
	}

	var run *services.RatingRun
	if opts.backfillLags {
		run, err = rt.service.RateWithBackfill(ctx, obs, source)
	} else {
		run, err = rt.service.Rate(ctx, obs, source)
	}
	if err != nil {
		infrastructure.WithError(rt.logger, err).ErrorContext(ctx, "Rating failed",
			slog.String("code", services.ErrorCode(err)))
		return err
	}

	var files []string
	if len(formats) > 0 {
		files, err = rt.service.ExportRating(ctx, run, outDir, formats)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if !opts.noSummary {
		if err := camels.WriteSummary(out, run.Result, rt.service.Scheme()); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Run %s rated %d rows in %dms\n", run.RunID, len(run.Result.Ratings), run.DurationMS)
	for _, f := range files {
		fmt.Fprintf(out, "  wrote %s\n", f)
	}
	return nil
}

// exportFormats parses the --format flag; "none" disables exports
func exportFormats(format string) ([]string, error) {
	if format == formatNone {
		return nil, nil
	}
	return services.ParseFormats(format)
}
