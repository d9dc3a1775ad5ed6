// Package pipeline runs the stages for one query id in order.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kamilpajak/bugsy/internal/stage"
)

// Step names. Each is the state reached once its stage completes.
const (
	ContextBuilt             = "ContextBuilt"
	AttributesGenerated      = "AttributesGenerated"
	AttributesValidated      = "AttributesValidated"
	AttributeCoverageChecked = "AttributeCoverageChecked"
	ScenariosGenerated       = "ScenariosGenerated"
	ScenariosValidated       = "ScenariosValidated"
	ScenarioCoverageChecked  = "ScenarioCoverageChecked"
)

type step struct {
	name  string
	stage string
}

var baseSteps = []step{
	{ContextBuilt, stage.ContextBuilder},
	{AttributesGenerated, stage.AttributeGenerator},
	{AttributesValidated, stage.AttributeValidator},
	{AttributeCoverageChecked, stage.AttributeCoverageChecker},
	{ScenariosGenerated, stage.ScenarioGenerator},
}

var scenarioCheckSteps = []step{
	{ScenariosValidated, stage.ScenarioValidator},
	{ScenarioCoverageChecked, stage.ScenarioCoverageChecker},
}

// StepResult is the outcome of one completed step.
type StepResult struct {
	Step    string         `json:"step"`
	Outcome *stage.Outcome `json:"outcome"`
}

// Report summarizes a pipeline run.
type Report struct {
	RunID     string       `json:"run_id"`
	QueryID   string       `json:"query_id"`
	Steps     []StepResult `json:"steps"`
	Completed bool         `json:"completed"`
	HaltedAt  string       `json:"halted_at,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithScenarioChecks appends scenario validation and scenario coverage to
// the default steps.
func WithScenarioChecks() Option {
	return func(p *Pipeline) {
		p.steps = append(p.steps, scenarioCheckSteps...)
	}
}

// WithRunIDs overrides the run id generator.
func WithRunIDs(fn func() string) Option {
	return func(p *Pipeline) {
		p.newRunID = fn
	}
}

// Pipeline runs the ordered stages for a query id.
type Pipeline struct {
	deps     stage.Deps
	steps    []step
	newRunID func() string
}

// New creates a pipeline running the five default steps.
func New(deps stage.Deps, opts ...Option) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	p := &Pipeline{
		deps:     deps,
		steps:    append([]step(nil), baseSteps...),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Steps returns the step names in execution order.
func (p *Pipeline) Steps() []string {
	names := make([]string, len(p.steps))
	for i, s := range p.steps {
		names[i] = s.name
	}
	return names
}

// Run executes every step for queryID. A stage error halts the run; the
// returned report then names the step and the error is returned as well.
// Fallbacks inside a stage never halt.
func (p *Pipeline) Run(ctx context.Context, queryID string) (*Report, error) {
	report := &Report{
		RunID:   p.newRunID(),
		QueryID: queryID,
		Steps:   []StepResult{},
	}
	deps := p.deps
	deps.Logger = p.deps.Logger.With(
		zap.String("run_id", report.RunID),
		zap.String("query_id", queryID))

	deps.Logger.Info("pipeline started", zap.Strings("steps", p.Steps()))

	for _, s := range p.steps {
		st, err := stage.New(s.stage, deps)
		if err != nil {
			return report, err
		}
		outcome, err := st.Run(ctx, queryID)
		if err != nil {
			report.HaltedAt = s.name
			report.Error = err.Error()
			deps.Logger.Error("pipeline halted",
				zap.String("step", s.name),
				zap.Error(err))
			return report, fmt.Errorf("step %s: %w", s.name, err)
		}
		report.Steps = append(report.Steps, StepResult{Step: s.name, Outcome: outcome})
		deps.Logger.Info("step completed",
			zap.String("step", s.name),
			zap.String("source", string(outcome.Source)),
			zap.String("summary", outcome.Summary))
	}

	report.Completed = true
	deps.Logger.Info("pipeline completed")
	return report, nil
}

// Step runs the single stage with the given stage name.
func (p *Pipeline) Step(ctx context.Context, name, queryID string) (*stage.Outcome, error) {
	st, err := stage.New(name, p.deps)
	if err != nil {
		return nil, err
	}
	return st.Run(ctx, queryID)
}
