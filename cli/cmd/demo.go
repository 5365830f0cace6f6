package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safetyline/hsg245-stack/cli/internal/seeder"
	"github.com/safetyline/hsg245-stack/cli/pkg/output"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run synthetic incidents through the full workflow",
	Long: `Generate realistic synthetic incidents and push each one through parts 1-4.

Configuration cascade: flags > ./demo.yaml > ~/.hsg245/demo.yaml > defaults`,
	Example: `  hsg245 demo --count 5
  hsg245 demo --count 10 --interval 30s --dir ./reports --seed 42`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("demo-config")
		dcfg, err := seeder.LoadConfig(configPath)
		if err != nil {
			return err
		}

		if cmd.Flags().Changed("count") {
			dcfg.Defaults.Count, _ = cmd.Flags().GetInt("count")
		}
		if cmd.Flags().Changed("interval") {
			dcfg.Defaults.Interval, _ = cmd.Flags().GetDuration("interval")
		}
		if cmd.Flags().Changed("dir") {
			dcfg.Defaults.ReportDir, _ = cmd.Flags().GetString("dir")
		}
		if cmd.Flags().Changed("seed") {
			dcfg.Defaults.Seed, _ = cmd.Flags().GetInt64("seed")
		}
		if err := dcfg.Validate(); err != nil {
			return err
		}

		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}

		logger := cliLogger(cmd)
		sum, err := seeder.NewRunner(dcfg, c, logger.Logger).Run(cmd.Context())
		if err != nil {
			return err
		}

		output.Success("%d of %d incidents completed", sum.Succeeded, dcfg.Defaults.Count)
		for _, id := range sum.IncidentIDs {
			output.Info("  %s", id)
		}
		for _, e := range sum.Errors {
			output.Error("%v", e)
		}
		if sum.Failed > 0 {
			return fmt.Errorf("%d incidents failed", sum.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().Int("count", 3, "number of incidents")
	demoCmd.Flags().Duration("interval", 0, "pause between incidents")
	demoCmd.Flags().String("dir", "", "save each PDF report here (default: no reports)")
	demoCmd.Flags().Int64("seed", 0, "random seed for reproducible data (0 = random)")
	demoCmd.Flags().String("demo-config", "", "demo config file (default: ./demo.yaml or ~/.hsg245/demo.yaml)")
}
