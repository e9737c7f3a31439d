// Package cli builds the equipment command line: the HTTP server plus
// offline ingest, trim, report and migrate commands sharing one wiring path.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/config"
	"github.com/CodeVoyager3/Chemical-Equipment-Parameter-Visualiser/internal/logging"
)

// rootOptions holds the persistent flags and the configuration loaded from them.
type rootOptions struct {
	configFile string
	envFile    string
	cfg        *config.Config
}

// NewRootCmd creates the root command and registers every subcommand.
func NewRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "equipment",
		Short:         "Chemical equipment CSV ingestion and reporting",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  # Run the HTTP API
  equipment serve

  # Ingest a file without the server
  equipment ingest plant.csv

  # Render a stored batch as PDF
  equipment report 12 --out batch_12.pdf`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file (default: $CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before configuration")

	cmd.AddCommand(
		newServeCmd(opts),
		newIngestCmd(opts),
		newTrimCmd(opts),
		newReportCmd(opts),
		newMigrateCmd(opts),
	)
	return cmd
}

// load reads the env file (overwriting existing variables), loads and
// validates configuration, then sets up logging.
func (o *rootOptions) load() error {
	if o.envFile != "" {
		if err := godotenv.Overload(o.envFile); err != nil {
			slog.Debug("no env file loaded", "path", o.envFile, "error", err)
		}
	}

	path := o.configFile
	if path == "" {
		path = os.Getenv(config.ConfigFileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	o.cfg = cfg
	return nil
}
