package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"jobcorr/src/config"
	"jobcorr/src/internal/common"
	versionpkg "jobcorr/src/internal/version"
	"jobcorr/src/pipeline"
	"jobcorr/src/utils/configloader"
)

// CLI Constants
const (
	CmdVersion           = "version"
	CmdConfig            = "config"
	CmdConfigInit        = "init"
	FlagConfig           = "config"
	FlagBaseDir          = "base-dir"
	FlagLogsDir          = "logs-dir"
	FlagReportDir        = "report-dir"
	FlagDeltaRange       = "delta-range-ms"
	FlagAbsDeltaTop      = "abs-delta-top"
	FlagBucketMs         = "bucket-ms"
	FlagSamplesPerBucket = "samples-per-bucket"
	FlagLimit            = "limit"
	FlagColumns          = "columns"
	FlagHTMLRowCap       = "html-row-cap"
	FlagLegacyJoin       = "legacy-object-id-join"
	FlagVerbose          = "verbose"
)

// compareFlags holds the raw flag values of one invocation
type compareFlags struct {
	configPath       string
	baseDir          string
	logsDir          string
	reportDir        string
	deltaRange       []int64
	absDeltaTop      int
	bucketMs         int64
	samplesPerBucket int
	limit            int
	columns          []string
	htmlRowCap       int
	legacyJoin       bool
	verbose          bool
}

const rootLong = `jobcorr correlates the three telemetry streams of a load-test run and reports
the clock deltas between them:

  - the request lifecycle event log (STARTED events)
  - client-observed request metrics (requests*.csv)
  - server-side job records (jobs_from_responses*.csv or jobs.json)

Inputs are looked up under <base-dir>/<logs-dir>. Results are written to
--report-dir, or to a new <base-dir>/reports/<UTC timestamp> directory:

  comparison_report.html       summary line, |delta| distribution, row table
  comparison_table_full.csv    fixed 12-column export of the valid rows
  comparison_table.csv         filtered rows with the configured columns

Settings are merged from defaults, the YAML file given by --config (or
~/.jobcorr/config.yaml when present), the BASE_DIR and REPORT_DIR environment
variables, then command-line flags.

Examples:
  jobcorr --base-dir ./load
  jobcorr --delta-range-ms -200 200 --bucket-ms 20 --samples-per-bucket 3 --limit 500
  jobcorr --columns request_id,status,delta_started_at_vs_event_ms`

func newRootCmd(out io.Writer) *cobra.Command {
	var flags *compareFlags
	rootCmd := &cobra.Command{
		Use:           "jobcorr",
		Short:         "Correlate load-test events, request metrics and job records",
		Long:          rootLong,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompareCmd(cmd, flags)
		},
	}
	rootCmd.SetOut(out)
	flags = bindCompareFlags(rootCmd)

	rootCmd.AddCommand(newVersionCmd(), newConfigCmd())
	return rootCmd
}

// bindCompareFlags registers the comparison flags on cmd
func bindCompareFlags(cmd *cobra.Command) *compareFlags {
	flags := &compareFlags{}
	f := cmd.Flags()
	f.StringVarP(&flags.configPath, FlagConfig, "c", "", "Configuration file path (optional)")
	f.StringVar(&flags.baseDir, FlagBaseDir, "", "Directory holding the run inputs (default: $BASE_DIR or the working directory)")
	f.StringVar(&flags.logsDir, FlagLogsDir, config.DefaultLogsDir, "Log directory name under the base directory")
	f.StringVar(&flags.reportDir, FlagReportDir, "", "Report output directory (default: $REPORT_DIR or <base>/reports/<timestamp>)")
	f.Int64SliceVar(&flags.deltaRange, FlagDeltaRange, nil, "Keep rows whose delta lies in MIN MAX (inclusive)")
	f.IntVar(&flags.absDeltaTop, FlagAbsDeltaTop, 0, "Keep the N rows with the largest |delta|")
	f.Int64Var(&flags.bucketMs, FlagBucketMs, 0, "Bucket width in ms for the sampler")
	f.IntVar(&flags.samplesPerBucket, FlagSamplesPerBucket, config.DefaultSamplesPerBucket, "Rows kept per bucket")
	f.IntVar(&flags.limit, FlagLimit, 0, "Maximum number of filtered rows")
	f.StringSliceVar(&flags.columns, FlagColumns, nil, "Columns of the HTML table and filtered CSV")
	f.IntVar(&flags.htmlRowCap, FlagHTMLRowCap, 0, "Maximum rows rendered in the HTML table (default 500)")
	f.BoolVar(&flags.legacyJoin, FlagLegacyJoin, false, "Resolve missing response ends through the object_id label")
	f.BoolVarP(&flags.verbose, FlagVerbose, "v", false, "Enable debug logging")
	return flags
}

func newVersionCmd() *cobra.Command {
	var verbose bool
	versionCmd := &cobra.Command{
		Use:   CmdVersion,
		Short: "Show version information",
		Long: `Display version information for jobcorr.

By default, shows only the version number. Use --verbose for detailed build information
including commit hash, build date, and Go version.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stamp := versionpkg.Current()
			if verbose {
				fmt.Fprintln(cmd.OutOrStdout(), stamp.Long())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), stamp.Short())
			return nil
		},
	}
	versionCmd.Flags().BoolVarP(&verbose, FlagVerbose, "v", false, "Show detailed version information")
	return versionCmd
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   CmdConfig,
		Short: "Manage the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   CmdConfigInit + " [path]",
		Short: "Write a configuration file with the default settings",
		Long: `Write the default settings as YAML to path, or to ~/.jobcorr/config.yaml.

Examples:
  jobcorr config init
  jobcorr config init ./jobcorr.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.GetDefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	})
	return configCmd
}

func runCompareCmd(cmd *cobra.Command, flags *compareFlags) error {
	if flags.verbose || common.EnvBool("JOBCORR_DEBUG") {
		common.SetGlobalLevel(common.LogDebug)
	}

	cfg, err := resolveConfig(cmd, flags)
	if err != nil {
		return err
	}

	_, err = pipeline.Run(cfg, cmd.OutOrStdout())
	return err
}

// resolveConfig merges defaults, the config file, environment and explicitly set flags
func resolveConfig(cmd *cobra.Command, flags *compareFlags) (*config.Config, error) {
	cfg, err := configloader.LoadForCLI(flags.configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	changed := cmd.Flags().Changed
	if changed(FlagBaseDir) {
		cfg.BaseDir = flags.baseDir
	}
	if changed(FlagLogsDir) {
		cfg.LogsDir = flags.logsDir
	}
	if changed(FlagReportDir) {
		cfg.ReportDir = flags.reportDir
	}
	if changed(FlagDeltaRange) {
		cfg.Filters.DeltaRangeMs = flags.deltaRange
	}
	if changed(FlagAbsDeltaTop) {
		cfg.Filters.AbsDeltaTop = flags.absDeltaTop
	}
	if changed(FlagBucketMs) {
		cfg.Filters.BucketMs = flags.bucketMs
	}
	if changed(FlagSamplesPerBucket) {
		cfg.Filters.SamplesPerBucket = flags.samplesPerBucket
	}
	if changed(FlagLimit) {
		cfg.Filters.Limit = flags.limit
	}
	if changed(FlagColumns) {
		cfg.Columns = trimColumns(flags.columns)
	}
	if changed(FlagHTMLRowCap) {
		cfg.HTMLRowCap = flags.htmlRowCap
	}
	if changed(FlagLegacyJoin) {
		cfg.LegacyObjectIDJoin = flags.legacyJoin
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}

func trimColumns(columns []string) []string {
	out := make([]string, 0, len(columns))
	for _, c := range columns {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// normalizeArgs rewrites the two-token form "--delta-range-ms MIN MAX" into
// "--delta-range-ms=MIN,MAX" so negative bounds are not taken for flags.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		if args[i] == "--"+FlagDeltaRange && i+2 < len(args) && isInteger(args[i+1]) && isInteger(args[i+2]) {
			out = append(out, "--"+FlagDeltaRange+"="+args[i+1]+","+args[i+2])
			i += 2
			continue
		}
		out = append(out, args[i])
	}
	return out
}

func isInteger(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

// Execute runs the root command with args, writing the run summary to stdout
func Execute(args []string) error {
	return execute(args, os.Stdout)
}

func execute(args []string, out io.Writer) error {
	rootCmd := newRootCmd(out)
	rootCmd.SetArgs(normalizeArgs(args))
	return rootCmd.Execute()
}
