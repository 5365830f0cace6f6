package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
	"github.com/safetyline/hsg245-stack/cli/internal/config"
	"github.com/safetyline/hsg245-stack/cli/pkg/output"
	"github.com/safetyline/hsg245-stack/common/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "hsg245",
	Short: "HSG245 incident investigation CLI",
	Long: `hsg245 drives the four-part HSG245 incident investigation from your terminal.

Create incidents, run assessments and root-cause analysis, generate action
plans and download PDF reports, either through the proxy or straight
against the backend.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		output.Error("%v", err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.hsg245/config.yaml)")
	rootCmd.PersistentFlags().String("profile", "", "profile to use (default: current profile)")
	rootCmd.PersistentFlags().StringP("output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().String("mode", "", "transport: proxy or direct (overrides profile)")
	rootCmd.PersistentFlags().String("url", "", "endpoint URL (overrides profile)")
	rootCmd.PersistentFlags().Duration("timeout", client.DefaultTimeout, "request timeout")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log debug output to stderr")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load config: %v\n", err)
		cfg = config.Default()
	}
}

// activeProfile resolves the selected profile plus flag and env overrides.
func activeProfile(cmd *cobra.Command) (config.Profile, error) {
	name, _ := cmd.Flags().GetString("profile")
	p, err := cfg.GetProfile(name)
	if err != nil {
		return config.Profile{}, err
	}

	resolved := p.Resolve()
	if mode, _ := cmd.Flags().GetString("mode"); mode != "" {
		if mode != string(client.ModeProxy) && mode != string(client.ModeDirect) {
			return config.Profile{}, fmt.Errorf("invalid mode %q: must be proxy or direct", mode)
		}
		resolved.Mode = mode
	}
	if url, _ := cmd.Flags().GetString("url"); url != "" {
		if resolved.Mode == string(client.ModeDirect) {
			resolved.BackendURL = url
		} else {
			resolved.ProxyURL = url
		}
	}
	return resolved, nil
}

func newClient(cmd *cobra.Command) (*client.IncidentClient, config.Profile, error) {
	p, err := activeProfile(cmd)
	if err != nil {
		return nil, p, err
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	c := client.NewIncidentClient(p.Endpoint(),
		client.WithMode(client.Mode(p.Mode)),
		client.WithTimeout(timeout),
	)
	return c, p, nil
}

func outputFormat(cmd *cobra.Command) (output.Format, error) {
	f, _ := cmd.Flags().GetString("output")
	return output.ParseFormat(f)
}

// cliLogger writes text logs to stderr with --verbose, and nothing otherwise.
func cliLogger(cmd *cobra.Command) *logging.Logger {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		return logging.NewWithWriter(os.Stderr, slog.LevelDebug, "text")
	}
	return logging.Discard()
}

func ensureDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

