package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shadow-ledger/config"
	"shadow-ledger/logging"
)

var (
	// Global flags
	dbURL       string
	storeDriver string
	logLevel    string
	logFormat   string

	cfg    config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "shadow-ledger",
	Short: "Shadow ledger - pending/posted/reversed balance engine",
	Long: `Shadow ledger records one-sided credits and account-to-account transfers,
each moving through pending, posted and reversed, and derives every account's
total and available balance from the entry log.

Configuration is read from the environment (HTTP_ADDR, LOG_LEVEL, LOG_FORMAT,
STORE_DRIVER, DATABASE_URL, STRICT_TRANSFERS, CORS_ORIGINS, NIP_CLIENT_ID,
NIP_CLIENT_SECRET, SHUTDOWN_TIMEOUT). Flags override the environment.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if changed(cmd, "db") {
			cfg.DatabaseURL = dbURL
		}
		if changed(cmd, "store") {
			cfg.StoreDriver = storeDriver
		}
		if changed(cmd, "log-level") {
			cfg.LogLevel = logLevel
		}
		if changed(cmd, "log-format") {
			cfg.LogFormat = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// changed reports whether the named local or inherited flag was set
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL connection URL (overrides DATABASE_URL)")
	rootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Entry store: memory or postgres (overrides STORE_DRIVER)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or console")
}
