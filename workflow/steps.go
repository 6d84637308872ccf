package workflow

import (
	"context"

	"github.com/montazreklam/jobs_backend/config"
)

// step is one unit of a multi-step transition. Required steps stop the run on
// failure; optional ones are logged and skipped past.
type step struct {
	name     string
	optional bool
	run      func(ctx context.Context) error
}

type StepResult struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
	Ok   bool   `json:"ok"`
}

// StepReport records what each sub-step did, so a failure in a later step
// does not silently hide that earlier effects already happened.
type StepReport struct {
	Steps []StepResult `json:"steps"`
}

func (r *StepReport) FirstError() error {
	for _, s := range r.Steps {
		if !s.Ok && s.Err != nil {
			return s.Err
		}
	}
	return nil
}

func (w *Workflow) runSteps(ctx context.Context, op string, steps []step) *StepReport {
	report := &StepReport{}
	for _, s := range steps {
		err := s.run(ctx)
		report.Steps = append(report.Steps, StepResult{Name: s.name, Err: err, Ok: err == nil})
		if err != nil {
			config.LogError(w.logger, "workflow", op, "step "+s.name, nil, err)
			if !s.optional {
				return report
			}
		}
	}
	return report
}
