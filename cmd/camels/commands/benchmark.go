package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"camelsrating/internal/camels"
)

type benchmarkOptions struct {
	date       string
	method     string
	sheet      string
	outDir     string
	format     string
	fromSheets bool
}

func newBenchmarkCmd(global *globalOptions) *cobra.Command {
	opts := &benchmarkOptions{}

	cmd := &cobra.Command{
		Use:   "benchmark [files...]",
		Short: "Compare institutions with the market benchmark",
		Long: `Build the market benchmark for one reporting date and print each
institution's relative deviation from it per ratio, with its share of
total assets and gross loans.

Example:
  camels benchmark banks.xlsx --date 2023-12-31
  camels benchmark banks.csv --method ratio_of_means --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.date, "date", "", "reporting date YYYY-MM-DD (default: latest date in the input)")
	cmd.Flags().StringVar(&opts.method, "method", "", "benchmark method: mean_of_ratios or ratio_of_means (default from config)")
	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from workbooks (default from config)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "output directory (default data/reports)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatNone, "export formats: csv,json,xlsx, all or none")
	cmd.Flags().BoolVar(&opts.fromSheets, "from-sheets", false, "read the configured spreadsheet instead of files")
	return cmd
}

func runBenchmark(cmd *cobra.Command, global *globalOptions, opts *benchmarkOptions, args []string) error {
	formats, err := exportFormats(opts.format)
	if err != nil {
		return err
	}

	var date time.Time
	if opts.date != "" {
		date, err = time.Parse(time.DateOnly, opts.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", opts.date)
		}
	}

	rt, err := global.runtime(cmd, opts.fromSheets)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	obs, source, err := rt.observations(ctx, args, opts.sheet, opts.fromSheets)
	if err != nil {
		return err
	}

	run, err := rt.service.Benchmark(ctx, obs, date, opts.method, source)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if err := writeBenchmark(out, run.Result); err != nil {
		return err
	}

	if len(formats) > 0 {
		outDir, err := rt.outputDir(opts.outDir)
		if err != nil {
			return err
		}
		files, err := rt.service.ExportBenchmark(ctx, run, outDir, formats)
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintf(out, "  wrote %s\n", f)
		}
	}
	return nil
}

// writeBenchmark prints the benchmark row and the deviation table
func writeBenchmark(w io.Writer, res *camels.BenchmarkResult) error {
	fmt.Fprintf(w, "Benchmark %s (%s, %d institutions)\n\n",
		res.Date.Format(time.DateOnly), res.Method, res.Benchmark.Institutions)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	header := []string{"INSTITUTION", "ASSETS SHARE", "LOANS SHARE"}
	for _, v := range camels.Variables() {
		header = append(header, strings.ToUpper(v.Key()))
	}
	fmt.Fprintln(tw, strings.Join(header, "\t")+"\t")

	bench := []string{"BENCHMARK", "", ""}
	for _, v := range camels.Variables() {
		bench = append(bench, formatCell(res.Benchmark.Ratios.Get(v)))
	}
	fmt.Fprintln(tw, strings.Join(bench, "\t")+"\t")

	for _, d := range res.Deviations {
		row := []string{d.Institution, formatCell(d.TotalAssetsShare), formatCell(d.GrossLoansShare)}
		for _, v := range camels.Variables() {
			row = append(row, formatCell(d.Deviations.Get(v)))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t")+"\t")
	}
	return tw.Flush()
}

// formatCell renders a value for the terminal; missing values show as "-"
func formatCell(v camels.Value) string {
	f, ok := v.Get()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.4f", f)
}
