package cmd

import (
	"github.com/spf13/cobra"

	"github.com/safetyline/hsg245-stack/cli/pkg/output"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		report := c.CheckHealth(cmd.Context())
		if handled, err := output.Structured(format, report); handled {
			return err
		}

		output.Field("Endpoint", c.BaseURL())
		output.Field("Mode", string(c.Mode()))
		if report.Online() {
			output.Success("Online (%s)", report.Status)
		} else {
			output.Error("Offline: %s", report.Error)
		}
		output.Field("Backend", report.BackendURL)
		output.Field("Checked", report.Timestamp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
