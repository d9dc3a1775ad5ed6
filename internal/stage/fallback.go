package stage

import (
	"fmt"

	"github.com/kamilpajak/bugsy/pkg/models"
)

const (
	passageSummaryLimit = 500
	quoteLimit          = 300
	defaultCoreTitle    = "Core behaviour"
)

// fallbackContext makes the first candidate the only core passage and the
// rest supporting ones.
func fallbackContext(raw *models.RawContext) *models.TestingContext {
	tc := &models.TestingContext{
		Query:              raw.Query,
		CorePassages:       []models.Passage{},
		SupportingPassages: []models.Passage{},
		DiscardedSections:  []string{},
		DomainEntities:     []string{},
		HintsForTests:      []string{},
	}
	for i, sec := range raw.SectionCandidates {
		p := models.Passage{
			SectionID:  sec.SectionID,
			Title:      sec.Title,
			Role:       models.RoleSupporting,
			Importance: models.ImportanceMedium,
			Summary:    runePrefix(sec.Text, passageSummaryLimit),
		}
		if i == 0 {
			p.Role = models.RoleCore
			p.Importance = models.ImportanceHigh
			tc.CorePassages = append(tc.CorePassages, p)
			continue
		}
		tc.SupportingPassages = append(tc.SupportingPassages, p)
	}
	tc.FocusSummary = fmt.Sprintf("Auto-generated focus summary for query: %s. Core passages count: %d.",
		raw.Query, len(tc.CorePassages))
	return tc
}

// fallbackAttributes derives a basic-flow and an invalid-input attribute
// from the first core passage, or one generic attribute from the focus
// summary when there is none.
func fallbackAttributes(tc *models.TestingContext) []models.Attribute {
	if len(tc.CorePassages) == 0 {
		return []models.Attribute{{
			ID:               "EVT-001",
			Name:             "Basic behaviour – generic",
			Type:             models.AttributeFunctional,
			Priority:         models.PriorityP2,
			Description:      "General expected behaviour following from the query focus.",
			PositiveExample:  "The system behaves according to the main statement of the focus summary.",
			NegativeExample:  "The system violates the main requirement described in the focus summary.",
			SourceSectionIDs: []string{},
			SourceQuotes:     []string{runePrefix(tc.FocusSummary, quoteLimit)},
		}}
	}

	core := tc.CorePassages[0]
	title := core.Title
	if title == "" {
		title = defaultCoreTitle
	}
	quote := runePrefix(core.Summary, quoteLimit)

	return []models.Attribute{
		{
			ID:               "EVT-001",
			Name:             title + " – basic flow",
			Type:             models.AttributeFunctional,
			Priority:         models.PriorityP1,
			Description:      fmt.Sprintf("Main expected behaviour described in section %s: %s.", core.SectionID, core.Title),
			PositiveExample:  "The user performs the standard actions described in the section and gets the expected result.",
			NegativeExample:  "The user violates a mandatory condition from the section and the system correctly rejects the operation.",
			SourceSectionIDs: []string{core.SectionID},
			SourceQuotes:     []string{quote},
		},
		{
			ID:               "EVT-002",
			Name:             title + " – invalid input",
			Type:             models.AttributeNegative,
			Priority:         models.PriorityP2,
			Description:      fmt.Sprintf("Behaviour on invalid input for the scenario from section %s.", core.SectionID),
			PositiveExample:  "The user enters boundary-valid data and the system accepts it without errors.",
			NegativeExample:  "The user enters clearly invalid data (empty fields, wrong values) and the system returns a clear error message.",
			SourceSectionIDs: []string{core.SectionID},
			SourceQuotes:     []string{quote},
		},
	}
}

// fallbackScenarios writes one three-step scenario per attribute.
func fallbackScenarios(attrs []models.Attribute) []models.Scenario {
	scenarios := make([]models.Scenario, 0, len(attrs))
	for i, a := range attrs {
		scenarios = append(scenarios, models.Scenario{
			ID:    fmt.Sprintf("SCN-%03d", i+1),
			Title: "Verify requirement: " + a.Name,
			Steps: []string{
				"Prepare the system for testing according to the documentation.",
				"Set up input data and environment so that this requirement can be checked.",
				"Perform the actions described in the attribute and its positive example: " + a.PositiveExample,
			},
			ExpectedResult:    "The system behaves according to the requirement: " + a.Description,
			AttributesCovered: []string{a.ID},
		})
	}
	return scenarios
}

func runePrefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
