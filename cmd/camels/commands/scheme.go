package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"camelsrating/internal/camels"
)

type schemeOptions struct {
	format    string
	variables bool
	grades    bool
}

func newSchemeCmd(global *globalOptions) *cobra.Command {
	opts := &schemeOptions{}

	cmd := &cobra.Command{
		Use:   "scheme",
		Short: "Print the active rating scheme",
		Long: `Print the thresholds and weights the engine rates with, in a form that
can be edited and loaded again through engine.scheme_file.

Example:
  camels scheme --format toml > data/schemes/strict.toml
  camels scheme --variables
  camels scheme --grades`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScheme(cmd, global, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.format, "format", "f", "yaml", "output format: yaml, toml or json")
	cmd.Flags().BoolVar(&opts.variables, "variables", false, "describe the rated variables instead")
	cmd.Flags().BoolVar(&opts.grades, "grades", false, "print the grade scale instead")
	cmd.MarkFlagsMutuallyExclusive("variables", "grades")
	return cmd
}

func runScheme(cmd *cobra.Command, global *globalOptions, opts *schemeOptions) error {
	out := cmd.OutOrStdout()
	if opts.grades {
		return writeGrades(out)
	}

	rt, err := global.runtime(cmd, false)
	if err != nil {
		return err
	}
	scheme := rt.service.Scheme()

	if opts.variables {
		return writeVariables(out, camels.Catalogue(scheme))
	}

	data, err := camels.EncodeScheme(scheme, opts.format)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		return err
	}
	if len(data) > 0 && data[len(data)-1] != '\n' {
		fmt.Fprintln(out)
	}
	return nil
}

func writeVariables(w io.Writer, catalogue []camels.VariableInfo) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tCOMPONENT\tNAME\tFORMULA\tINTERPRETATION")
	for _, info := range catalogue {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			info.Variable.Key(), info.Component, info.Name, info.Formula, info.Interpretation)
	}
	return tw.Flush()
}

func writeGrades(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GRADE\tCOMPOSITE SCORE\tANALYSIS")
	for _, b := range camels.GradeScale() {
		fmt.Fprintf(tw, "%s\t%.2f - %.2f\t%s\n", b.Grade, b.Lower, b.Upper, b.Grade.Band().Analysis())
	}
	return tw.Flush()
}
