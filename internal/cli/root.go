// Package cli implements the csrc command tree. Commands are thin
// wrappers: they parse arguments into payloads and hand everything to the
// submitter.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/consensource/consensource-cli/internal/signing"
	"github.com/consensource/consensource-cli/internal/submitter"
	"github.com/consensource/consensource-cli/internal/transport"
	"github.com/consensource/consensource-cli/pkg/config"
	"github.com/consensource/consensource-cli/pkg/logging"
)

var (
	// Global flags
	cfgFile      string
	urlFlag      string
	keyFlag      string
	outputFormat string
	logLevel     string

	// Shared state set during PersistentPreRun
	cfg *config.Config
	log *logging.Logger
)

// rootCmd is the base command for csrc.
var rootCmd = &cobra.Command{
	Use:           "csrc",
	Short:         "ConsenSource CLI — build, sign and submit certificate registry transactions",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts := config.DefaultLoadOptions()
		if cfgFile != "" {
			opts.ConfigFile = cfgFile
		}

		var err error
		cfg, err = config.LoadWithOptions(opts)
		if err != nil {
			return err
		}
		cfg.BindFlags(cmd.Flags())

		logCfg := logging.DefaultConfig()
		logCfg.Level = logging.LogLevel(cfg.Log.Level)
		logCfg.Environment = cfg.Log.Environment
		log = logging.New(logCfg)
		return nil
	},
}

// Execute runs the root command with a context cancelled on SIGINT or
// SIGTERM, so an interrupted submission unwinds through the transport
// instead of being killed mid-write.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// RootCmd returns the root cobra.Command for testing purposes.
func RootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.consensource/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&urlFlag, "url", "", "validator endpoint (host:port)")
	rootCmd.PersistentFlags().StringVarP(&keyFlag, "key", "k", "", "signing key file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadSigner loads the configured signing key.
func loadSigner() (*signing.Signer, error) {
	signer, err := signing.LoadKeyFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key %s (run 'csrc keygen' to create one): %w",
			cfg.KeyFile, err)
	}
	return signer, nil
}

// dialValidator opens a connection to the configured validator endpoint.
// The caller owns the connection and must Close it.
func dialValidator(ctx context.Context) (*transport.Connection, error) {
	conn := transport.NewConnection(cfg.ValidatorEndpoint, cfg.Connect.DialTimeout, log)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to validator at %s: %w", cfg.ValidatorEndpoint, err)
	}
	return conn, nil
}

// submitterOptions maps the loaded configuration onto submitter options.
func submitterOptions() submitter.Options {
	return submitter.Options{
		Policy: submitter.RetryPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff,
			MaxBackoff:     cfg.Retry.MaxBackoff,
			Multiplier:     cfg.Retry.Multiplier,
		},
		RequestTimeout:  cfg.Connect.RequestTimeout,
		PollInterval:    cfg.Status.PollInterval,
		MaxPollInterval: cfg.Status.MaxPollInterval,
		StatusDeadline:  cfg.Status.Deadline,
		Logger:          log,
	}
}
