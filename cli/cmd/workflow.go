package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
	"github.com/safetyline/hsg245-stack/cli/pkg/output"
)

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Run the complete investigation in one go",
}

var stepTitles = map[client.WorkflowStep]string{
	client.StepOverview:      "Part 1: classifying incident",
	client.StepAssessment:    "Part 2: assessing severity",
	client.StepInvestigation: "Part 3: running root cause analysis",
	client.StepActionPlan:    "Part 4: generating action plan",
	client.StepReport:        "Downloading PDF report",
}

var workflowRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run parts 1-4 and the PDF export from a YAML file",
	Long: `Run parts 1-4 and the PDF export from a YAML file with overview,
assessment and investigation sections. Stops at the first failing step.`,
	Example: `  hsg245 workflow run -f incident.yaml --dir ./reports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		var in client.WorkflowInput
		if err := readYAMLFile(file, &in); err != nil {
			return err
		}

		c, p, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		dir := p.ReportDir
		if cmd.Flags().Changed("dir") {
			dir, _ = cmd.Flags().GetString("dir")
		}
		if noReport, _ := cmd.Flags().GetBool("no-report"); noReport {
			dir = ""
		}

		res, err := c.RunCompleteWorkflow(cmd.Context(), in, dir, func(step client.WorkflowStep) {
			if format == output.FormatTable {
				output.Info("→ %s...", stepTitles[step])
			}
		})
		if err != nil {
			if res != nil && res.IncidentID != "" {
				output.Warn("Incident %s was created; resume with 'hsg245 incident' subcommands", res.IncidentID)
			}
			return fmt.Errorf("workflow failed at %w", err)
		}

		if handled, err := output.Structured(format, res); handled {
			return err
		}
		output.Success("Workflow complete: %s", res.IncidentID)
		printOverview(res.Part1)
		printAssessment(res.Part2)
		printInvestigation(res.Part3)
		printActionPlan(res.Part4)
		if res.ReportPath != "" {
			output.Success("Report saved to %s", res.ReportPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workflowCmd)
	workflowCmd.AddCommand(workflowRunCmd)

	workflowRunCmd.Flags().StringP("file", "f", "", "workflow YAML file")
	workflowRunCmd.Flags().String("dir", "", "directory to save the PDF (default: profile report_dir)")
	workflowRunCmd.Flags().Bool("no-report", false, "skip the PDF export")
	_ = workflowRunCmd.MarkFlagRequired("file")
}
