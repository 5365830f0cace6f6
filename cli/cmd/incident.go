package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/safetyline/hsg245-stack/cli/pkg/output"
	"github.com/safetyline/hsg245-stack/common/hsg245"
	"github.com/safetyline/hsg245-stack/common/messaging"
	natsclient "github.com/safetyline/hsg245-stack/common/messaging/nats"
)

var incidentCmd = &cobra.Command{
	Use:     "incident",
	Aliases: []string{"incidents", "inc"},
	Short:   "Incident investigation steps",
	Long:    "Run individual HSG245 parts against an incident, or inspect existing incidents",
}

// readYAMLFile decodes path into v when path is set.
func readYAMLFile(path string, v any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// overrideString replaces *dst with the flag value when the flag was set.
func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

var incidentCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Part 1: create an incident and classify it",
	Example: `  hsg245 incident create --reported-by "Jane Doe" --category Injury \
    --description "Slipped on a wet floor in the loading bay"
  hsg245 incident create -f overview.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var in hsg245.OverviewInput
		file, _ := cmd.Flags().GetString("file")
		if err := readYAMLFile(file, &in); err != nil {
			return err
		}
		overrideString(cmd, "reported-by", &in.ReportedBy)
		overrideString(cmd, "date-time", &in.DateTime)
		overrideString(cmd, "category", &in.EventCategory)
		overrideString(cmd, "description", &in.Description)
		overrideString(cmd, "injury", &in.InjuryDescription)
		overrideString(cmd, "forwarded-to", &in.ForwardedTo)

		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		res, err := c.CreateIncident(cmd.Context(), in)
		if err != nil {
			return fmt.Errorf("failed to create incident: %w", err)
		}
		if handled, err := output.Structured(format, res); handled {
			return err
		}
		output.Success("Incident created: %s", res.IncidentID)
		printOverview(res)
		return nil
	},
}

var incidentAssessCmd = &cobra.Command{
	Use:   "assess <incident-id>",
	Short: "Part 2: assess severity and investigation level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := hsg245.AssessmentInput{RiddorReportable: "Unsure"}
		file, _ := cmd.Flags().GetString("file")
		if err := readYAMLFile(file, &in); err != nil {
			return err
		}
		overrideString(cmd, "event-type", &in.EventType)
		overrideString(cmd, "harm", &in.ActualHarm)
		overrideString(cmd, "riddor", &in.RiddorReportable)

		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		res, err := c.AddAssessment(cmd.Context(), args[0], in)
		if err != nil {
			return fmt.Errorf("failed to add assessment: %w", err)
		}
		if handled, err := output.Structured(format, res); handled {
			return err
		}
		output.Success("Assessment recorded for %s", args[0])
		printAssessment(res)
		return nil
	},
}

var incidentInvestigateCmd = &cobra.Command{
	Use:   "investigate <incident-id>",
	Short: "Part 3: run the root cause analysis",
	Long:  "Run the root cause analysis. This usually takes 10-20 seconds.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var in hsg245.InvestigationInput
		file, _ := cmd.Flags().GetString("file")
		if err := readYAMLFile(file, &in); err != nil {
			return err
		}
		overrideString(cmd, "location", &in.Location)
		overrideString(cmd, "who", &in.WhoInvolved)
		overrideString(cmd, "how", &in.HowHappened)
		overrideString(cmd, "activities", &in.Activities)
		overrideString(cmd, "conditions", &in.WorkingConditions)
		overrideString(cmd, "procedures", &in.SafetyProcedures)
		overrideString(cmd, "injuries", &in.Injuries)

		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		res, err := c.InvestigateIncident(cmd.Context(), args[0], in)
		if err != nil {
			return fmt.Errorf("failed to investigate incident: %w", err)
		}
		if handled, err := output.Structured(format, res); handled {
			return err
		}
		output.Success("Root cause analysis complete for %s", args[0])
		printInvestigation(res)
		return nil
	},
}

var incidentActionPlanCmd = &cobra.Command{
	Use:     "action-plan <incident-id>",
	Aliases: []string{"actionplan", "plan"},
	Short:   "Part 4: generate the action plan",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		res, err := c.GenerateActionPlan(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to generate action plan: %w", err)
		}
		if handled, err := output.Structured(format, res); handled {
			return err
		}
		printActionPlan(res)
		return nil
	},
}

var incidentGetCmd = &cobra.Command{
	Use:   "get <incident-id>",
	Short: "Show an incident with every completed part",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		inc, err := c.GetIncident(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get incident: %w", err)
		}
		if handled, err := output.Structured(format, inc); handled {
			return err
		}
		printIncident(inc)
		return nil
	},
}

var incidentListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List incidents",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		incidents, err := c.ListIncidents(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list incidents: %w", err)
		}
		if handled, err := output.Structured(format, incidents); handled {
			return err
		}

		if len(incidents) == 0 {
			output.Info("No incidents found")
			return nil
		}

		table := output.NewTable([]string{"ID", "Status", "Type", "Priority", "Created"})
		table.ColorColumn(3, output.PriorityColor)
		for _, inc := range incidents {
			var kind, priority string
			if inc.Part1 != nil {
				kind = inc.Part1.IncidentType
			}
			if inc.Part2 != nil {
				priority = inc.Part2.Priority
			}
			table.AddRow([]string{inc.IncidentID, hsg245.StatusLabel(inc.Status), kind, priority, inc.CreatedAt})
		}
		table.Render()
		output.Info("\nTotal: %d", len(incidents))
		return nil
	},
}

var incidentReportCmd = &cobra.Command{
	Use:     "report <incident-id>",
	Aliases: []string{"pdf"},
	Short:   "Download the PDF report",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, p, err := newClient(cmd)
		if err != nil {
			return err
		}
		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = p.ReportDir
		}

		report, err := c.GeneratePDFReport(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to generate report: %w", err)
		}
		path, err := report.Save(ensureDir(dir))
		if err != nil {
			return err
		}
		output.Success("Saved %s (%d bytes)", path, len(report.Data))
		return nil
	},
}

var incidentLifecycleCmd = &cobra.Command{
	Use:   "lifecycle [incident-id]",
	Short: "Show stages recorded by the proxy",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newClient(cmd)
		if err != nil {
			return err
		}
		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		var items []hsg245.Lifecycle
		if len(args) == 1 {
			lc, err := c.Lifecycle(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get lifecycle: %w", err)
			}
			items = append(items, *lc)
		} else {
			limit, _ := cmd.Flags().GetInt("limit")
			if items, err = c.ListLifecycle(cmd.Context(), limit); err != nil {
				return fmt.Errorf("failed to list lifecycle: %w", err)
			}
		}
		if handled, err := output.Structured(format, items); handled {
			return err
		}

		if len(items) == 0 {
			output.Info("No incidents tracked")
			return nil
		}
		table := output.NewTable([]string{"ID", "Stage", "Updated", "Exports"})
		table.ColorColumn(1, func(label string) *color.Color {
			return output.StageColor(stageFromLabel(label))
		})
		for _, lc := range items {
			table.AddRow([]string{
				lc.IncidentID,
				hsg245.StatusLabel(lc.Stage),
				lc.UpdatedAt.Local().Format("2006-01-02 15:04"),
				fmt.Sprintf("%d", lc.Exports),
			})
		}
		table.Render()
		return nil
	},
}

func stageFromLabel(label string) hsg245.Stage {
	for s := hsg245.StageCreated; s <= hsg245.StageCompleted; s++ {
		if s.Label() == label {
			return s
		}
	}
	return hsg245.StageUnknown
}

var incidentWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream lifecycle events published by the proxy over NATS",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := activeProfile(cmd)
		if err != nil {
			return err
		}
		natsURL, _ := cmd.Flags().GetString("nats-url")
		if natsURL == "" {
			natsURL = p.NATSURL
		}
		if natsURL == "" {
			return fmt.Errorf("no NATS URL: pass --nats-url or set nats_url in the profile")
		}

		ncfg := natsclient.DefaultConfig()
		ncfg.URL = natsURL
		ncfg.Name = "hsg245-cli"
		ncfg.Logger = cliLogger(cmd).Logger
		nc, err := natsclient.NewClient(ncfg)
		if err != nil {
			return err
		}
		defer nc.Close()

		format, err := outputFormat(cmd)
		if err != nil {
			return err
		}

		_, err = nc.Subscribe(messaging.SubjectIncidentsAll, func(_ context.Context, msg *messaging.Message) error {
			var ev hsg245.LifecycleEvent
			if err := json.Unmarshal(msg.Data, &ev); err != nil {
				return fmt.Errorf("decode event: %w", err)
			}
			if format != output.FormatTable {
				_, err := output.Structured(format, ev)
				return err
			}
			stage := hsg245.ParseStage(ev.Stage)
			label := hsg245.StatusLabel(ev.Stage)
			if ev.Stage == "exported" {
				label = "PDF exported"
			}
			fmt.Fprintf(output.Out, "%s  %-24s %s\n",
				ev.Timestamp.Local().Format(time.TimeOnly),
				ev.IncidentID,
				output.StageColor(stage).Sprint(label))
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to subscribe: %w", err)
		}

		output.Info("Watching %s on %s (ctrl+c to stop)", messaging.SubjectIncidentsAll, natsURL)
		<-cmd.Context().Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(incidentCmd)
	incidentCmd.AddCommand(
		incidentCreateCmd,
		incidentAssessCmd,
		incidentInvestigateCmd,
		incidentActionPlanCmd,
		incidentGetCmd,
		incidentListCmd,
		incidentReportCmd,
		incidentLifecycleCmd,
		incidentWatchCmd,
	)

	for _, c := range []*cobra.Command{incidentCreateCmd, incidentAssessCmd, incidentInvestigateCmd} {
		c.Flags().StringP("file", "f", "", "read fields from a YAML file (flags override)")
	}

	incidentCreateCmd.Flags().String("reported-by", "", "name of the person reporting")
	incidentCreateCmd.Flags().String("date-time", "", "when it happened (default: now)")
	incidentCreateCmd.Flags().String("category", "", "event category, e.g. Injury")
	incidentCreateCmd.Flags().String("description", "", "what happened")
	incidentCreateCmd.Flags().String("injury", "", "injury description")
	incidentCreateCmd.Flags().String("forwarded-to", "", "who the report was forwarded to")

	incidentAssessCmd.Flags().String("event-type", "", "Accident, Incident, Near miss or Dangerous occurrence")
	incidentAssessCmd.Flags().String("harm", "", "Damage only, Minor, Serious, Major or Fatality")
	incidentAssessCmd.Flags().String("riddor", "Unsure", "RIDDOR reportable: Yes, No or Unsure")

	incidentInvestigateCmd.Flags().String("location", "", "where it happened")
	incidentInvestigateCmd.Flags().String("who", "", "who was involved")
	incidentInvestigateCmd.Flags().String("how", "", "how it happened")
	incidentInvestigateCmd.Flags().String("activities", "", "activities being carried out")
	incidentInvestigateCmd.Flags().String("conditions", "", "working conditions")
	incidentInvestigateCmd.Flags().String("procedures", "", "safety procedures in place")
	incidentInvestigateCmd.Flags().String("injuries", "", "injuries or damage")

	incidentReportCmd.Flags().String("dir", "", "directory to save the PDF (default: profile report_dir)")
	incidentLifecycleCmd.Flags().Int("limit", 50, "maximum incidents to list")
	incidentWatchCmd.Flags().String("nats-url", "", "NATS server URL (default: profile nats_url)")
}
