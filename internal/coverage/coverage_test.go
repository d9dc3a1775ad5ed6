package coverage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpajak/bugsy/pkg/models"
)

func TestPassages_Partition(t *testing.T) {
	passages := []models.Passage{
		{SectionID: "p1", Title: "First"},
		{SectionID: "p2", Title: "Second"},
	}
	attrs := []models.Attribute{
		{ID: "A1", SourceSectionIDs: []string{"p1"}},
		{ID: "A2", SourceSectionIDs: []string{"p1", "elsewhere"}},
	}

	report := Passages("q", passages, attrs)

	require.Len(t, report.Covered, 1)
	require.Len(t, report.Uncovered, 1)
	assert.Equal(t, "q", report.Query)
	assert.Equal(t, models.CoverageEntry{
		EntityID:     "p1",
		EntityType:   models.EntityPassage,
		Description:  "First",
		AttributeIDs: []string{"A1", "A2"},
	}, report.Covered[0])
	assert.Equal(t, "p2", report.Uncovered[0].EntityID)
	assert.Empty(t, report.Uncovered[0].AttributeIDs)
	assert.Equal(t, "Core passages: 2. Covered: 1. Uncovered: 1.", report.Summary)
}

func TestPassages_DescriptionFallsBackToSummary(t *testing.T) {
	long := strings.Repeat("ж", 250)
	report := Passages("q", []models.Passage{{SectionID: "p1", Summary: long}}, nil)

	require.Len(t, report.Uncovered, 1)
	assert.Equal(t, strings.Repeat("ж", 200), report.Uncovered[0].Description)
}

func TestPassages_Empty(t *testing.T) {
	report := Passages("q", nil, nil)
	assert.NotNil(t, report.Covered)
	assert.NotNil(t, report.Uncovered)
	assert.Equal(t, "Core passages: 0. Covered: 0. Uncovered: 0.", report.Summary)
}

func TestScenarios(t *testing.T) {
	attrs := []models.Attribute{{ID: "A1"}, {ID: "A2"}, {ID: "A3"}}
	scenarios := []models.Scenario{
		{ID: "S1", AttributesCovered: []string{"A1", "A2"}},
		{ID: "S2", AttributesCovered: []string{"A1"}},
		{ID: "S3", AttributesCovered: []string{"ghost"}},
		{ID: "S4"},
	}

	report := Scenarios("q", attrs, scenarios)

	assert.Equal(t, []models.ScenarioCoverageEntry{
		{AttributeID: "A1", ScenarioIDs: []string{"S1", "S2"}},
		{AttributeID: "A2", ScenarioIDs: []string{"S1"}},
		{AttributeID: "A3", ScenarioIDs: []string{}},
	}, report.AttributeCoverage)
	assert.Equal(t, []string{"A3"}, report.AttributesWithoutScenarios)
	assert.Equal(t, []string{"S3", "S4"}, report.ScenariosWithoutAttributes)
	assert.Equal(t, "Attributes: 3. Covered: 2. Uncovered: 1. Scenarios without attributes: 2.", report.Summary)
}

func TestScenarios_Empty(t *testing.T) {
	report := Scenarios("q", nil, nil)
	assert.Empty(t, report.AttributeCoverage)
	assert.Equal(t, "Attributes: 0. Covered: 0. Uncovered: 0. Scenarios without attributes: 0.", report.Summary)
}
