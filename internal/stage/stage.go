// Package stage runs one step of the test-design pipeline for a query id:
// load the upstream artifact, ask the model (or compute locally), fall back
// to a heuristic when the model output is unusable, and save the result.
package stage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kamilpajak/bugsy/internal/llm"
	"github.com/kamilpajak/bugsy/internal/prompt"
	"github.com/kamilpajak/bugsy/internal/store"
)

// ErrMissingUpstream is returned when a stage's input artifact does not
// exist yet. It is the only failure that stops a pipeline run.
var ErrMissingUpstream = errors.New("missing upstream artifact")

// Source tells how a stage produced its output.
type Source string

const (
	SourceLLM      Source = "llm"
	SourceFallback Source = "fallback"
	SourceLocal    Source = "local"
)

// Outcome describes a completed stage run.
type Outcome struct {
	Stage         string `json:"stage"`
	QueryID       string `json:"query_id"`
	Source        Source `json:"source"`
	Path          string `json:"path"`
	Summary       string `json:"summary"`
	FallbackCause string `json:"fallback_cause,omitempty"`
}

// Stage is one runnable pipeline step.
type Stage interface {
	Name() string
	Run(ctx context.Context, queryID string) (*Outcome, error)
}

// Deps are the collaborators shared by every stage.
type Deps struct {
	Store   *store.Store
	LLM     llm.Generator
	Logger  *zap.Logger
	Emitter Emitter
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Emitter == nil {
		d.Emitter = discard{}
	}
	if d.LLM == nil {
		d.LLM = llm.Unavailable{}
	}
	return d
}

// Runner is a model-backed stage. In is the loaded upstream input and Out
// the artifact written under Kind.
type Runner[In, Out any] struct {
	StageName string
	Kind      store.Kind
	Deps      Deps

	// Load reads the upstream artifacts for a query id.
	Load func(st *store.Store, queryID string) (In, error)
	// QueryFallback gives the display query when the queries table has none.
	QueryFallback func(in In) string
	Prompt        func(in In, query string) string
	// Decode turns the extracted JSON into Out, wrapping
	// models.ErrSchemaMismatch when the shape is wrong.
	Decode    func(raw json.RawMessage) (Out, error)
	Fallback  func(in In) Out
	Summarize func(out Out) string
}

// Name implements Stage.
func (r *Runner[In, Out]) Name() string { return r.StageName }

// Run implements Stage. Any model, extraction or decoding failure is
// absorbed by the fallback; only missing input or a failed write is
// returned as an error.
func (r *Runner[In, Out]) Run(ctx context.Context, queryID string) (*Outcome, error) {
	d := r.Deps.withDefaults()
	d.Emitter.Emit(Event{Type: EventStart, Stage: r.StageName, QueryID: queryID})

	in, err := load(r.StageName, queryID, d.Store, r.Load)
	if err != nil {
		return nil, err
	}

	query := d.Store.Resolve(queryID, r.QueryFallback(in))

	d.Emitter.Emit(Event{Type: EventLLM, Stage: r.StageName, QueryID: queryID})
	out, cause := r.generate(ctx, d.LLM, in, query)

	source := SourceLLM
	if cause != nil {
		source = SourceFallback
		d.Logger.Warn("model output unusable, using fallback",
			zap.String("stage", r.StageName),
			zap.String("query_id", queryID),
			zap.Error(cause))
		d.Emitter.Emit(Event{Type: EventFallback, Stage: r.StageName, QueryID: queryID, Message: cause.Error()})
		out = r.Fallback(in)
	}

	outcome, err := finish(d, r.StageName, r.Kind, queryID, out, r.Summarize(out))
	if err != nil {
		return nil, err
	}
	outcome.Source = source
	if cause != nil {
		outcome.FallbackCause = cause.Error()
	}
	d.Emitter.Emit(Event{Type: EventDone, Stage: r.StageName, QueryID: queryID, Outcome: outcome})
	return outcome, nil
}

// Prompter is implemented by stages that call the model.
type Prompter interface {
	Render(queryID string) (string, error)
}

// Render returns the user prompt the stage would send for queryID without
// calling the model.
func (r *Runner[In, Out]) Render(queryID string) (string, error) {
	d := r.Deps.withDefaults()
	in, err := load(r.StageName, queryID, d.Store, r.Load)
	if err != nil {
		return "", err
	}
	return r.Prompt(in, d.Store.Resolve(queryID, r.QueryFallback(in))), nil
}

func (r *Runner[In, Out]) generate(ctx context.Context, gen llm.Generator, in In, query string) (Out, error) {
	var zero Out
	reply, err := gen.Generate(ctx, prompt.SystemPrompt(), r.Prompt(in, query))
	if err != nil {
		return zero, err
	}
	raw, err := llm.ExtractJSON(reply)
	if err != nil {
		return zero, err
	}
	return r.Decode(raw)
}

// Local is a stage computed from upstream artifacts without the model.
type Local[In, Out any] struct {
	StageName string
	Kind      store.Kind
	Deps      Deps

	Load      func(st *store.Store, queryID string) (In, error)
	Compute   func(in In) Out
	Summarize func(out Out) string
}

// Name implements Stage.
func (l *Local[In, Out]) Name() string { return l.StageName }

// Run implements Stage.
func (l *Local[In, Out]) Run(_ context.Context, queryID string) (*Outcome, error) {
	d := l.Deps.withDefaults()
	d.Emitter.Emit(Event{Type: EventStart, Stage: l.StageName, QueryID: queryID})

	in, err := load(l.StageName, queryID, d.Store, l.Load)
	if err != nil {
		return nil, err
	}

	out := l.Compute(in)
	outcome, err := finish(d, l.StageName, l.Kind, queryID, out, l.Summarize(out))
	if err != nil {
		return nil, err
	}
	outcome.Source = SourceLocal
	d.Emitter.Emit(Event{Type: EventDone, Stage: l.StageName, QueryID: queryID, Outcome: outcome})
	return outcome, nil
}

func load[In any](name, queryID string, st *store.Store, fn func(*store.Store, string) (In, error)) (In, error) {
	in, err := fn(st, queryID)
	if err == nil {
		return in, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return in, fmt.Errorf("%w: %s: %w", ErrMissingUpstream, name, err)
	}
	return in, fmt.Errorf("failed to load input for %s: %w", name, err)
}

func finish(d Deps, name string, kind store.Kind, queryID string, out any, summary string) (*Outcome, error) {
	path, err := d.Store.Save(kind, queryID, out)
	if err != nil {
		return nil, fmt.Errorf("failed to save %s output: %w", name, err)
	}
	d.Logger.Info("stage finished",
		zap.String("stage", name),
		zap.String("query_id", queryID),
		zap.String("path", path))
	return &Outcome{
		Stage:   name,
		QueryID: queryID,
		Path:    path,
		Summary: summary,
	}, nil
}
