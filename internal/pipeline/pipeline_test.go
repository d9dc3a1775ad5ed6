package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kamilpajak/bugsy/internal/llm"
	"github.com/kamilpajak/bugsy/internal/stage"
	"github.com/kamilpajak/bugsy/internal/store"
	"github.com/kamilpajak/bugsy/pkg/models"
)

const queryID = "edit-event"

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	return st
}

func seedRaw(t *testing.T, st *store.Store) {
	t.Helper()
	_, err := st.Save(store.KindRawContext, queryID, &models.RawContext{
		Query: "How is an event edited?",
		SectionCandidates: []models.SectionCandidate{
			{SectionID: "sec_1", Title: "Edit event", Score: 0.93, Text: "The event owner may change title and date."},
		},
	})
	require.NoError(t, err)
}

func fixedRunID() string { return "run-1" }

func TestRun_FailingModelStillCompletes(t *testing.T) {
	st := newStore(t)
	seedRaw(t, st)

	p := New(stage.Deps{Store: st, LLM: llm.Failing{}}, WithRunIDs(fixedRunID))
	report, err := p.Run(context.Background(), queryID)
	require.NoError(t, err)

	assert.True(t, report.Completed)
	assert.Empty(t, report.HaltedAt)
	assert.Equal(t, "run-1", report.RunID)
	require.Len(t, report.Steps, 5)
	wantSteps := []string{ContextBuilt, AttributesGenerated, AttributesValidated, AttributeCoverageChecked, ScenariosGenerated}
	for i, s := range report.Steps {
		assert.Equal(t, wantSteps[i], s.Step)
	}
	assert.Equal(t, stage.SourceFallback, report.Steps[0].Outcome.Source)
	assert.Equal(t, stage.SourceLocal, report.Steps[2].Outcome.Source)

	attrs, err := st.LoadAttributes(queryID)
	require.NoError(t, err)
	require.Len(t, attrs, 2)

	scenarios, err := st.LoadScenarios(queryID)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	for i, s := range scenarios {
		assert.Equal(t, "Verify requirement: "+attrs[i].Name, s.Title)
		assert.Equal(t, []string{attrs[i].ID}, s.AttributesCovered)
	}

	assert.Equal(t, "Valid: true. 2 attributes validated. No issues found.", report.Steps[2].Outcome.Summary)
	assert.Equal(t, "Core passages: 1. Covered: 1. Uncovered: 0.", report.Steps[3].Outcome.Summary)
	assert.False(t, st.Exists(store.KindScenarioValidation, queryID))
}

func TestRun_WithScenarioChecks(t *testing.T) {
	st := newStore(t)
	seedRaw(t, st)

	p := New(stage.Deps{Store: st, LLM: llm.Failing{}}, WithScenarioChecks())
	assert.Equal(t, []string{
		ContextBuilt, AttributesGenerated, AttributesValidated, AttributeCoverageChecked,
		ScenariosGenerated, ScenariosValidated, ScenarioCoverageChecked,
	}, p.Steps())

	report, err := p.Run(context.Background(), queryID)
	require.NoError(t, err)
	require.Len(t, report.Steps, 7)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, "Attributes: 2. Covered: 2. Uncovered: 0. Scenarios without attributes: 0.", report.Steps[6].Outcome.Summary)
	assert.True(t, st.Exists(store.KindScenarioCoverage, queryID))
}

func TestRun_HaltsOnMissingUpstream(t *testing.T) {
	st := newStore(t)
	core, logs := observer.New(zapcore.InfoLevel)

	p := New(stage.Deps{Store: st, LLM: llm.Failing{}, Logger: zap.New(core)}, WithRunIDs(fixedRunID))
	report, err := p.Run(context.Background(), queryID)

	require.Error(t, err)
	assert.ErrorIs(t, err, stage.ErrMissingUpstream)
	assert.False(t, report.Completed)
	assert.Equal(t, ContextBuilt, report.HaltedAt)
	assert.Contains(t, report.Error, "missing upstream artifact")
	assert.Empty(t, report.Steps)

	halted := logs.FilterMessage("pipeline halted").All()
	require.Len(t, halted, 1)
	assert.Equal(t, "run-1", halted[0].ContextMap()["run_id"])
	assert.Equal(t, ContextBuilt, halted[0].ContextMap()["step"])
}

func TestRun_IsRepeatable(t *testing.T) {
	st := newStore(t)
	seedRaw(t, st)
	p := New(stage.Deps{Store: st, LLM: llm.Failing{}})

	_, err := p.Run(context.Background(), queryID)
	require.NoError(t, err)
	first, err := st.Load(store.KindScenarios, queryID)
	require.NoError(t, err)

	_, err = p.Run(context.Background(), queryID)
	require.NoError(t, err)
	second, err := st.Load(store.KindScenarios, queryID)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestStep(t *testing.T) {
	st := newStore(t)
	seedRaw(t, st)
	p := New(stage.Deps{Store: st, LLM: llm.Failing{}})

	outcome, err := p.Step(context.Background(), stage.ContextBuilder, queryID)
	require.NoError(t, err)
	assert.Equal(t, stage.ContextBuilder, outcome.Stage)
	assert.True(t, st.Exists(store.KindTestingContext, queryID))

	_, err = p.Step(context.Background(), stage.ScenarioGenerator, queryID)
	assert.ErrorIs(t, err, stage.ErrMissingUpstream)

	_, err = p.Step(context.Background(), "unknown", queryID)
	assert.Error(t, err)
}
