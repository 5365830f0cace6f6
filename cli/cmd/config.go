package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safetyline/hsg245-stack/cli/internal/config"
	"github.com/safetyline/hsg245-stack/cli/pkg/output"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI profiles",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved settings of the active profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := activeProfile(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}
		if handled, err := output.Structured(format, p); handled {
			return err
		}

		name, _ := cmd.Flags().GetString("profile")
		if name == "" {
			name = cfg.CurrentProfile
		}
		output.Field("Config file", cfg.Path())
		output.Field("Profile", name)
		output.Field("Mode", p.Mode)
		output.Field("Proxy URL", p.ProxyURL)
		output.Field("Backend URL", p.BackendURL)
		output.Field("Report dir", p.ReportDir)
		output.Field("NATS URL", p.NATSURL)
		return nil
	},
}

var configSetProfileCmd = &cobra.Command{
	Use:   "set-profile <name>",
	Short: "Create or update a profile and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := &config.Profile{}
		if existing, ok := cfg.Profiles[args[0]]; ok {
			*p = *existing
		}
		overrideString(cmd, "proxy-url", &p.ProxyURL)
		overrideString(cmd, "backend-url", &p.BackendURL)
		overrideString(cmd, "report-dir", &p.ReportDir)
		overrideString(cmd, "nats-url", &p.NATSURL)
		if cmd.Flags().Changed("mode") {
			p.Mode, _ = cmd.Flags().GetString("mode")
		}

		if err := cfg.SetProfile(args[0], p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		output.Success("Profile %q saved to %s", args[0], cfg.Path())
		return nil
	},
}

var configUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Switch the current profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.UseProfile(args[0]); err != nil {
			return err
		}
		output.Success("Now using profile %q", args[0])
		return nil
	},
}

var configRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Delete a profile",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.RemoveProfile(args[0]); err != nil {
			return err
		}
		output.Success("Removed profile %q", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configSetProfileCmd, configUseCmd, configRemoveCmd)

	configSetProfileCmd.Flags().String("proxy-url", "", "proxy endpoint, e.g. http://localhost:3000/api/hsg245")
	configSetProfileCmd.Flags().String("backend-url", "", "backend origin for direct mode")
	configSetProfileCmd.Flags().String("report-dir", "", "default directory for PDF reports")
	configSetProfileCmd.Flags().String("nats-url", "", "NATS URL for 'incident watch'")
}
