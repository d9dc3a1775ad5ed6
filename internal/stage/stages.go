package stage

import (
	"encoding/json"
	"fmt"

	"github.com/kamilpajak/bugsy/internal/coverage"
	"github.com/kamilpajak/bugsy/internal/prompt"
	"github.com/kamilpajak/bugsy/internal/store"
	"github.com/kamilpajak/bugsy/internal/validate"
	"github.com/kamilpajak/bugsy/pkg/models"
)

// Stage names, as accepted on the command line.
const (
	ContextBuilder           = "context-builder"
	AttributeGenerator       = "attribute-generator"
	AttributeValidator       = "attribute-validator"
	AttributeCoverageChecker = "attribute-coverage"
	ScenarioGenerator        = "scenario-generator"
	ScenarioValidator        = "scenario-validator"
	ScenarioCoverageChecker  = "scenario-coverage"
)

// Names lists every stage name in pipeline order.
func Names() []string {
	return []string{
		ContextBuilder,
		AttributeGenerator,
		AttributeValidator,
		AttributeCoverageChecker,
		ScenarioGenerator,
		ScenarioValidator,
		ScenarioCoverageChecker,
	}
}

// New returns the stage with the given name.
func New(name string, d Deps) (Stage, error) {
	switch name {
	case ContextBuilder:
		return NewContextBuilder(d), nil
	case AttributeGenerator:
		return NewAttributeGenerator(d), nil
	case AttributeValidator:
		return NewAttributeValidator(d), nil
	case AttributeCoverageChecker:
		return NewAttributeCoverageChecker(d), nil
	case ScenarioGenerator:
		return NewScenarioGenerator(d), nil
	case ScenarioValidator:
		return NewScenarioValidator(d), nil
	case ScenarioCoverageChecker:
		return NewScenarioCoverageChecker(d), nil
	}
	return nil, fmt.Errorf("unknown stage %q", name)
}

// contextAttrs is the input of the stages reading the testing context and
// the attribute set.
type contextAttrs struct {
	tc    *models.TestingContext
	attrs []models.Attribute
}

type attrsScenarios struct {
	tc        *models.TestingContext
	attrs     []models.Attribute
	scenarios []models.Scenario
}

// NewContextBuilder turns the raw retrieved sections into a TestingContext.
func NewContextBuilder(d Deps) *Runner[*models.RawContext, *models.TestingContext] {
	return &Runner[*models.RawContext, *models.TestingContext]{
		StageName: ContextBuilder,
		Kind:      store.KindTestingContext,
		Deps:      d,
		Load:      (*store.Store).LoadRawContext,
		QueryFallback: func(raw *models.RawContext) string {
			return raw.Query
		},
		Prompt: prompt.BuildContext,
		Decode: func(raw json.RawMessage) (*models.TestingContext, error) {
			return models.DecodeTestingContext(raw)
		},
		Fallback: fallbackContext,
		Summarize: func(tc *models.TestingContext) string {
			return fmt.Sprintf("Core passages: %d, supporting: %d, discarded: %d.",
				len(tc.CorePassages), len(tc.SupportingPassages), len(tc.DiscardedSections))
		},
	}
}

// NewAttributeGenerator derives atomic test attributes from the testing
// context.
func NewAttributeGenerator(d Deps) *Runner[*models.TestingContext, []models.Attribute] {
	return &Runner[*models.TestingContext, []models.Attribute]{
		StageName: AttributeGenerator,
		Kind:      store.KindAttributes,
		Deps:      d,
		Load:      (*store.Store).LoadTestingContext,
		QueryFallback: func(tc *models.TestingContext) string {
			return tc.Query
		},
		Prompt: prompt.BuildAttributes,
		Decode: func(raw json.RawMessage) ([]models.Attribute, error) {
			attrs, err := models.DecodeAttributes(raw)
			if err != nil {
				return nil, err
			}
			if len(attrs) == 0 {
				return nil, fmt.Errorf("%w: empty attribute list", models.ErrSchemaMismatch)
			}
			return attrs, nil
		},
		Fallback: fallbackAttributes,
		Summarize: func(attrs []models.Attribute) string {
			return fmt.Sprintf("Generated %d attributes.", len(attrs))
		},
	}
}

// NewScenarioGenerator writes test scenarios covering the attributes.
func NewScenarioGenerator(d Deps) *Runner[contextAttrs, []models.Scenario] {
	return &Runner[contextAttrs, []models.Scenario]{
		StageName: ScenarioGenerator,
		Kind:      store.KindScenarios,
		Deps:      d,
		Load:      loadContextAttrs,
		QueryFallback: func(in contextAttrs) string {
			return in.tc.Query
		},
		Prompt: func(in contextAttrs, query string) string {
			return prompt.BuildScenarios(in.tc, in.attrs, query)
		},
		Decode: func(raw json.RawMessage) ([]models.Scenario, error) {
			scenarios, err := models.DecodeScenarios(raw)
			if err != nil {
				return nil, err
			}
			if len(scenarios) == 0 {
				return nil, fmt.Errorf("%w: empty scenario list", models.ErrSchemaMismatch)
			}
			return scenarios, nil
		},
		Fallback: func(in contextAttrs) []models.Scenario {
			return fallbackScenarios(in.attrs)
		},
		Summarize: func(scenarios []models.Scenario) string {
			return fmt.Sprintf("Generated %d scenarios.", len(scenarios))
		},
	}
}

// NewAttributeValidator checks the attribute set against the testing
// context.
func NewAttributeValidator(d Deps) *Local[contextAttrs, *models.ValidationReport] {
	return &Local[contextAttrs, *models.ValidationReport]{
		StageName: AttributeValidator,
		Kind:      store.KindAttributeValidation,
		Deps:      d,
		Load:      loadContextAttrs,
		Compute: func(in contextAttrs) *models.ValidationReport {
			return validate.Attributes(in.tc, in.attrs)
		},
		Summarize: validationSummary,
	}
}

// NewAttributeCoverageChecker reports which core passages the attributes
// cover.
func NewAttributeCoverageChecker(d Deps) *Local[contextAttrs, *models.AttributeCoverageReport] {
	return &Local[contextAttrs, *models.AttributeCoverageReport]{
		StageName: AttributeCoverageChecker,
		Kind:      store.KindAttributeCoverage,
		Deps:      d,
		Load:      loadContextAttrs,
		Compute: func(in contextAttrs) *models.AttributeCoverageReport {
			return coverage.Passages(in.tc.Query, in.tc.CorePassages, in.attrs)
		},
		Summarize: func(r *models.AttributeCoverageReport) string {
			return r.Summary
		},
	}
}

// NewScenarioValidator checks the scenario set against the attributes.
func NewScenarioValidator(d Deps) *Local[attrsScenarios, *models.ValidationReport] {
	return &Local[attrsScenarios, *models.ValidationReport]{
		StageName: ScenarioValidator,
		Kind:      store.KindScenarioValidation,
		Deps:      d,
		Load:      loadAttrsScenarios,
		Compute: func(in attrsScenarios) *models.ValidationReport {
			return validate.Scenarios(in.attrs, in.scenarios)
		},
		Summarize: validationSummary,
	}
}

// NewScenarioCoverageChecker reports which attributes the scenarios cover.
func NewScenarioCoverageChecker(d Deps) *Local[attrsScenarios, *models.ScenarioCoverageReport] {
	return &Local[attrsScenarios, *models.ScenarioCoverageReport]{
		StageName: ScenarioCoverageChecker,
		Kind:      store.KindScenarioCoverage,
		Deps:      d,
		Load:      loadAttrsScenarios,
		Compute: func(in attrsScenarios) *models.ScenarioCoverageReport {
			return coverage.Scenarios(in.tc.Query, in.attrs, in.scenarios)
		},
		Summarize: func(r *models.ScenarioCoverageReport) string {
			return r.Summary
		},
	}
}

func validationSummary(r *models.ValidationReport) string {
	return fmt.Sprintf("Valid: %t. %s", r.IsValid, r.Summary)
}

func loadContextAttrs(st *store.Store, queryID string) (contextAttrs, error) {
	tc, err := st.LoadTestingContext(queryID)
	if err != nil {
		return contextAttrs{}, err
	}
	attrs, err := st.LoadAttributes(queryID)
	if err != nil {
		return contextAttrs{}, err
	}
	return contextAttrs{tc: tc, attrs: attrs}, nil
}

func loadAttrsScenarios(st *store.Store, queryID string) (attrsScenarios, error) {
	in, err := loadContextAttrs(st, queryID)
	if err != nil {
		return attrsScenarios{}, err
	}
	scenarios, err := st.LoadScenarios(queryID)
	if err != nil {
		return attrsScenarios{}, err
	}
	return attrsScenarios{tc: in.tc, attrs: in.attrs, scenarios: scenarios}, nil
}
