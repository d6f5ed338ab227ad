package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/config"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

const longDescription = `ingestor seeds a DynamoDB table with randomized copies of saved objects.

It reads template saved objects from a JSON file (one object) or an NDJSON
file (one object per line) and writes num_records copies of every template.
When more than one record is written, ids and reference ids get a random
suffix so every copy is distinct. Titles and updated_at timestamps can be
randomized as well.

Arguments (all optional):
  num_records              copies of each template to write (default 10)
  saved_objects_file_path  template file (default sample_saved_objects.ndjson)
  replace_timestamp        rewrite updated_at with the current time (default true)
  replace_title            rewrite attributes.title with a random phrase (default true)

Settings are resolved from flags, then environment variables (a .env file in
the working directory is loaded first), then ingestor.yaml, then defaults.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration
  11 - Saved objects file missing or malformed
  12 - DynamoDB write failed`

// rootFlags holds the flag values of the root command.
type rootFlags struct {
	table       string
	region      string
	endpoint    string
	createTable bool
	maxRetries  int
	timeout     time.Duration
	configPath  string
	verbose     bool
}

var rootCmd = newRootCmd()

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:     "ingestor [num_records] [saved_objects_file_path] [replace_timestamp] [replace_title]",
		Short:   "Seed DynamoDB with randomized saved objects",
		Long:    longDescription,
		Version: resolvedVersion(),
		Example: `  ingestor
  ingestor 100 dashboards.ndjson
  ingestor 1 dashboard.json false false --table kibana --endpoint localhost:8000 --create-table`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, flags, args)
		},
	}
	cmd.SetVersionTemplate("ingestor {{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&flags.table, "table", ingestor.DefaultTableName,
		"DynamoDB table to write to (env: "+envTable+")")
	f.StringVar(&flags.region, "region", "",
		"AWS region (env: "+envRegion+"; default: AWS SDK configuration chain)")
	f.StringVar(&flags.endpoint, "endpoint", "",
		"DynamoDB endpoint override, e.g. localhost:8000 for DynamoDB Local (env: "+envEndpoint+")")
	f.BoolVar(&flags.createTable, "create-table", false,
		"Create the table (hash key \"id\", on-demand billing) if it does not exist")
	f.IntVar(&flags.maxRetries, "max-retries", ingestor.DefaultRetryMaxAttempts,
		"Resubmission attempts for throttled or unprocessed batch items")
	f.DurationVar(&flags.timeout, "timeout", ingestor.DefaultTimeout,
		"Maximum duration of the whole run, 0 for none\n"+
			"Examples: 30s, 5m, 1h30m")
	f.StringVar(&flags.configPath, "config", config.ConfigFileName,
		"Path to the YAML config file")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose output")

	cmd.AddCommand(newVersionCmd())
	return cmd
}
