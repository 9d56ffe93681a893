package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"camelsrating/internal/camels"
)

type describeOptions struct {
	sheet      string
	fromSheets bool
	asJSON     bool
}

func newDescribeCmd(global *globalOptions) *cobra.Command {
	opts := &describeOptions{}

	cmd := &cobra.Command{
		Use:   "describe [files...]",
		Short: "Print descriptive statistics of the input fields",
		Long: `Profile the raw input before rating: row and institution counts,
reporting dates, and count, missing, mean, standard deviation, minimum,
quartiles and maximum for every numeric field.

Example:
  camels describe banks.xlsx
  camels describe banks.csv --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(cmd, global, opts, args)
		},
	}

	cmd.Flags().StringVar(&opts.sheet, "sheet", "", "worksheet to read from workbooks (default from config)")
	cmd.Flags().BoolVar(&opts.fromSheets, "from-sheets", false, "read the configured spreadsheet instead of files")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the profile as JSON")
	return cmd
}

func runDescribe(cmd *cobra.Command, global *globalOptions, opts *describeOptions, args []string) error {
	rt, err := global.runtime(cmd, opts.fromSheets)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	obs, _, err := rt.observations(ctx, args, opts.sheet, opts.fromSheets)
	if err != nil {
		return err
	}

	profile, err := rt.service.Profile(ctx, obs)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(profile)
	}
	return writeProfile(out, profile)
}

// writeProfile prints the profile as an aligned table
func writeProfile(w io.Writer, p camels.InputProfile) error {
	fmt.Fprintf(w, "Rows: %d  Institutions: %d  Dates: %s\n\n",
		p.Rows, p.Institutions, strings.Join(p.Dates, ", "))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "FIELD\tCOUNT\tMISSING\tMEAN\tSTD\tMIN\tQ1\tMEDIAN\tQ3\tMAX\t")
	for _, f := range p.Fields {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			f.Field, f.Count, f.Missing,
			formatCell(f.Mean), formatCell(f.Std), formatCell(f.Min),
			formatCell(f.Q1), formatCell(f.Median), formatCell(f.Q3), formatCell(f.Max))
	}
	return tw.Flush()
}
