// Package coverage relates entities that need coverage to the items that
// cover them: core passages to attributes, and attributes to scenarios.
package coverage

import (
	"fmt"
	"slices"

	"github.com/kamilpajak/bugsy/pkg/models"
)

const descriptionLimit = 200

// Passages partitions passages into covered and uncovered by the
// attributes citing them in source_section_ids. Order follows passages.
func Passages(query string, passages []models.Passage, attrs []models.Attribute) *models.AttributeCoverageReport {
	report := &models.AttributeCoverageReport{
		Query:     query,
		Covered:   []models.CoverageEntry{},
		Uncovered: []models.CoverageEntry{},
	}

	for _, p := range passages {
		entry := models.CoverageEntry{
			EntityID:     p.SectionID,
			EntityType:   models.EntityPassage,
			Description:  describe(p),
			AttributeIDs: []string{},
		}
		for _, a := range attrs {
			if slices.Contains(a.SourceSectionIDs, p.SectionID) {
				entry.AttributeIDs = append(entry.AttributeIDs, a.ID)
			}
		}
		if len(entry.AttributeIDs) > 0 {
			report.Covered = append(report.Covered, entry)
		} else {
			report.Uncovered = append(report.Uncovered, entry)
		}
	}

	c, u := len(report.Covered), len(report.Uncovered)
	report.Summary = fmt.Sprintf("Core passages: %d. Covered: %d. Uncovered: %d.", c+u, c, u)
	return report
}

// Scenarios maps every attribute to the scenarios covering it and lists
// the attributes no scenario covers and the scenarios covering no known
// attribute.
func Scenarios(query string, attrs []models.Attribute, scenarios []models.Scenario) *models.ScenarioCoverageReport {
	report := &models.ScenarioCoverageReport{
		Query:                      query,
		AttributeCoverage:          make([]models.ScenarioCoverageEntry, 0, len(attrs)),
		AttributesWithoutScenarios: []string{},
		ScenariosWithoutAttributes: []string{},
	}

	covered := 0
	for _, a := range attrs {
		entry := models.ScenarioCoverageEntry{AttributeID: a.ID, ScenarioIDs: []string{}}
		for _, s := range scenarios {
			if slices.Contains(s.AttributesCovered, a.ID) {
				entry.ScenarioIDs = append(entry.ScenarioIDs, s.ID)
			}
		}
		if len(entry.ScenarioIDs) > 0 {
			covered++
		} else {
			report.AttributesWithoutScenarios = append(report.AttributesWithoutScenarios, a.ID)
		}
		report.AttributeCoverage = append(report.AttributeCoverage, entry)
	}

	known := models.AttributeIDs(attrs)
	for _, s := range scenarios {
		if !coversAny(s.AttributesCovered, known) {
			report.ScenariosWithoutAttributes = append(report.ScenariosWithoutAttributes, s.ID)
		}
	}

	report.Summary = fmt.Sprintf("Attributes: %d. Covered: %d. Uncovered: %d. Scenarios without attributes: %d.",
		len(attrs), covered, len(report.AttributesWithoutScenarios), len(report.ScenariosWithoutAttributes))
	return report
}

func describe(p models.Passage) string {
	if p.Title != "" {
		return p.Title
	}
	r := []rune(p.Summary)
	if len(r) > descriptionLimit {
		r = r[:descriptionLimit]
	}
	return string(r)
}

func coversAny(ids []string, known map[string]struct{}) bool {
	for _, id := range ids {
		if _, ok := known[id]; ok {
			return true
		}
	}
	return false
}
