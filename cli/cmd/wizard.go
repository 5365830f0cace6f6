package cmd

import (
	"github.com/spf13/cobra"

	"github.com/safetyline/hsg245-stack/cli/internal/tui"
	"github.com/safetyline/hsg245-stack/cli/internal/wizard"
	"github.com/safetyline/hsg245-stack/cli/pkg/output"
)

var wizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive four-step investigation",
	Long: `Walk through Parts 1-4 interactively. Server health is checked on start
and every 10 seconds; submissions are refused while the server is offline.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, p, err := newClient(cmd)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = p.ReportDir
		}

		w := wizard.New(c, wizard.Options{})
		monitor := wizard.NewHealthMonitor(c, wizard.DefaultHealthInterval, w.SetServerStatus)
		monitor.Start(cmd.Context())
		defer monitor.Stop()

		if err := tui.NewRunner(w, ensureDir(dir), output.Out).Run(cmd.Context()); err != nil {
			return err
		}

		if s := w.Snapshot(); s.IncidentID != "" {
			output.Info("Incident %s (%s)", s.IncidentID, s.Step.Title())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(wizardCmd)
	wizardCmd.Flags().String("dir", "", "directory to save the PDF (default: profile report_dir)")
}
