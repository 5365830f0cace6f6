package seeder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/safetyline/hsg245-stack/cli/internal/client"
)

// WorkflowRunner is satisfied by *client.IncidentClient.
type WorkflowRunner interface {
	RunCompleteWorkflow(ctx context.Context, in client.WorkflowInput, reportDir string, progress func(client.WorkflowStep)) (*client.WorkflowResult, error)
}

// Summary reports the outcome of a demo run.
type Summary struct {
	Succeeded   int
	Failed      int
	IncidentIDs []string
	Errors      []error
}

// Runner handles the demo execution.
type Runner struct {
	Config    *Config
	Client    WorkflowRunner
	Generator *Generator
	Logger    *slog.Logger
}

// NewRunner creates a runner seeded from the config.
func NewRunner(cfg *Config, c WorkflowRunner, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		Config:    cfg,
		Client:    c,
		Generator: NewGenerator(cfg.Defaults.Seed, cfg.Defaults.Categories),
		Logger:    logger,
	}
}

// Run pushes Count incidents through the workflow one at a time. A failed
// incident is recorded and the run continues; cancellation stops it.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	d := r.Config.Defaults
	r.Logger.Info("starting demo",
		slog.Int("count", d.Count),
		slog.Duration("interval", d.Interval),
		slog.String("report_dir", d.ReportDir))

	sum := &Summary{}
	for i := 0; i < d.Count; i++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		in := r.Generator.Incident()
		start := time.Now()
		res, err := r.Client.RunCompleteWorkflow(ctx, in, d.ReportDir, func(step client.WorkflowStep) {
			r.Logger.Debug("workflow step", slog.Int("incident", i+1), slog.String("step", string(step)))
		})
		if err != nil {
			var id string
			if res != nil {
				id = res.IncidentID
			}
			sum.Failed++
			sum.Errors = append(sum.Errors, fmt.Errorf("incident %d: %w", i+1, err))
			r.Logger.Error("workflow failed",
				slog.Int("incident", i+1),
				slog.String("incident_id", id),
				slog.String("error", err.Error()))
		} else {
			sum.Succeeded++
			sum.IncidentIDs = append(sum.IncidentIDs, res.IncidentID)
			r.Logger.Info("workflow complete",
				slog.Int("incident", i+1),
				slog.String("incident_id", res.IncidentID),
				slog.Int("control_measures", len(res.Part4.ControlMeasures)),
				slog.Duration("elapsed", time.Since(start)))
		}

		if d.Interval > 0 && i < d.Count-1 {
			select {
			case <-ctx.Done():
				return sum, ctx.Err()
			case <-time.After(d.Interval):
			}
		}
	}

	r.Logger.Info("demo complete", slog.Int("succeeded", sum.Succeeded), slog.Int("failed", sum.Failed))
	return sum, nil
}
