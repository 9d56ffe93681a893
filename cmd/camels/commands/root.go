package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"camelsrating/pkg/contracts"
)

// globalOptions holds the persistent flags shared by every command
type globalOptions struct {
	configFile string
	logLevel   string
	dataDir    string
	schemeFile string
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "camels",
		Short: "CAMELS bank rating engine",
		Long: `CAMELS rating engine

Derives Capital, Asset quality, Management, Earnings, Liquidity and
Sensitivity ratios from institution financials, bins them into
sub-ratings, and combines them into a composite score and a 1-5 grade.

Input files are workbooks (.xlsx) or CSV files with one row per
institution and reporting date. Without file arguments every input file
in the data/input directory is read.

Examples:
  camels rate data/input/banks.xlsx --format all
  camels benchmark banks.csv --date 2023-12-31 --method ratio_of_means
  camels describe banks.xlsx
  camels scheme --format yaml > data/schemes/custom.yaml
  camels serve`,
		Version:       contracts.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(contracts.GetFullVersionString() + "\n")

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: camels.yaml or config.yaml in the working directory)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory override")
	rootCmd.PersistentFlags().StringVar(&opts.schemeFile, "scheme", "", "rating scheme file (.yaml, .toml or .json); a bare name is looked up in data/schemes")

	rootCmd.AddCommand(
		newRateCmd(opts),
		newBenchmarkCmd(opts),
		newDescribeCmd(opts),
		newSchemeCmd(opts),
		newServeCmd(opts),
	)
	return rootCmd
}

// Execute runs the command line. Errors are printed to stderr and returned
// for the exit code.
func Execute() error {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
