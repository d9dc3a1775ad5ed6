// Package validate runs cross-artifact checks over generated attributes and
// scenarios. Findings are returned as data; nothing here fails.
package validate

import (
	"fmt"
	"strings"

	"github.com/kamilpajak/bugsy/pkg/models"
)

const (
	objectAttribute = "attribute"
	objectScenario  = "scenario"
)

// UniqueAttributeIDs reports every attribute id used more than once.
func UniqueAttributeIDs(attrs []models.Attribute) []models.ValidationIssue {
	ids := make([]string, len(attrs))
	for i, a := range attrs {
		ids[i] = a.ID
	}
	return duplicates(ids, objectAttribute, "Attribute")
}

// UniqueScenarioIDs reports every scenario id used more than once.
func UniqueScenarioIDs(scenarios []models.Scenario) []models.ValidationIssue {
	ids := make([]string, len(scenarios))
	for i, s := range scenarios {
		ids[i] = s.ID
	}
	return duplicates(ids, objectScenario, "Scenario")
}

// duplicates keeps first-occurrence order so reports are stable.
func duplicates(ids []string, objectType, label string) []models.ValidationIssue {
	counts := make(map[string]int, len(ids))
	var order []string
	for _, id := range ids {
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	}

	var issues []models.ValidationIssue
	for _, id := range order {
		if n := counts[id]; n > 1 {
			issues = append(issues, models.ValidationIssue{
				Severity:   models.SeverityError,
				Code:       models.CodeDuplicateID,
				Message:    fmt.Sprintf("%s id '%s' is not unique (%d times).", label, id, n),
				ObjectType: objectType,
				ObjectID:   id,
				Field:      "id",
			})
		}
	}
	return issues
}

// SectionRefs warns about attributes citing sections that are not part of
// the testing context.
func SectionRefs(attrs []models.Attribute, validIDs map[string]struct{}) []models.ValidationIssue {
	var issues []models.ValidationIssue
	for _, a := range attrs {
		for _, sid := range a.SourceSectionIDs {
			if _, ok := validIDs[sid]; ok {
				continue
			}
			issues = append(issues, models.ValidationIssue{
				Severity:   models.SeverityWarning,
				Code:       models.CodeInvalidSectionRef,
				Message:    fmt.Sprintf("Attribute '%s' references unknown section_id '%s'.", a.ID, sid),
				ObjectType: objectAttribute,
				ObjectID:   a.ID,
				Field:      "source_section_ids",
			})
		}
	}
	return issues
}

// RequiredFields reports attributes with a blank description or example.
func RequiredFields(attrs []models.Attribute) []models.ValidationIssue {
	var issues []models.ValidationIssue
	for _, a := range attrs {
		if blank(a.Description) {
			issues = append(issues, fieldError(objectAttribute, a.ID, models.CodeEmptyDescription,
				"description", "Attribute description must not be empty."))
		}
		if blank(a.PositiveExample) {
			issues = append(issues, fieldError(objectAttribute, a.ID, models.CodeEmptyPositiveExample,
				"positive_example", "Attribute must have a positive_example."))
		}
		if blank(a.NegativeExample) {
			issues = append(issues, fieldError(objectAttribute, a.ID, models.CodeEmptyNegativeExample,
				"negative_example", "Attribute must have a negative_example."))
		}
	}
	return issues
}

// AttributeRefs warns about scenarios covering attribute ids that do not
// exist.
func AttributeRefs(scenarios []models.Scenario, attrIDs map[string]struct{}) []models.ValidationIssue {
	var issues []models.ValidationIssue
	for _, s := range scenarios {
		for _, aid := range s.AttributesCovered {
			if _, ok := attrIDs[aid]; ok {
				continue
			}
			issues = append(issues, models.ValidationIssue{
				Severity:   models.SeverityWarning,
				Code:       models.CodeInvalidAttributeRef,
				Message:    fmt.Sprintf("Scenario '%s' references unknown attribute id '%s'.", s.ID, aid),
				ObjectType: objectScenario,
				ObjectID:   s.ID,
				Field:      "attributes_covered",
			})
		}
	}
	return issues
}

// ScenarioRequiredFields reports scenarios without usable steps or an
// expected result.
func ScenarioRequiredFields(scenarios []models.Scenario) []models.ValidationIssue {
	var issues []models.ValidationIssue
	for _, s := range scenarios {
		if !hasStep(s.Steps) {
			issues = append(issues, fieldError(objectScenario, s.ID, models.CodeEmptySteps,
				"steps", "Scenario must have at least one step."))
		}
		if blank(s.ExpectedResult) {
			issues = append(issues, fieldError(objectScenario, s.ID, models.CodeEmptyExpectedResult,
				"expected_result", "Scenario expected_result must not be empty."))
		}
	}
	return issues
}

// Attributes runs every attribute check against the testing context.
func Attributes(tc *models.TestingContext, attrs []models.Attribute) *models.ValidationReport {
	report := models.NewValidationReport()
	addAll(report, UniqueAttributeIDs(attrs))
	addAll(report, SectionRefs(attrs, tc.SectionIDs()))
	addAll(report, RequiredFields(attrs))
	report.Summary = summarize(report, len(attrs), "attributes")
	return report
}

// Scenarios runs every scenario check against the attribute set.
func Scenarios(attrs []models.Attribute, scenarios []models.Scenario) *models.ValidationReport {
	report := models.NewValidationReport()
	addAll(report, UniqueScenarioIDs(scenarios))
	addAll(report, AttributeRefs(scenarios, models.AttributeIDs(attrs)))
	addAll(report, ScenarioRequiredFields(scenarios))
	report.Summary = summarize(report, len(scenarios), "scenarios")
	return report
}

func addAll(report *models.ValidationReport, issues []models.ValidationIssue) {
	for _, issue := range issues {
		report.AddIssue(issue)
	}
}

func summarize(report *models.ValidationReport, n int, noun string) string {
	if len(report.Issues) == 0 {
		return fmt.Sprintf("%d %s validated. No issues found.", n, noun)
	}
	return fmt.Sprintf("%d %s validated. Errors: %d, warnings: %d.",
		n, noun, report.Count(models.SeverityError), report.Count(models.SeverityWarning))
}

func fieldError(objectType, id, code, field, msg string) models.ValidationIssue {
	return models.ValidationIssue{
		Severity:   models.SeverityError,
		Code:       code,
		Message:    msg,
		ObjectType: objectType,
		ObjectID:   id,
		Field:      field,
	}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func hasStep(steps []string) bool {
	for _, s := range steps {
		if !blank(s) {
			return true
		}
	}
	return false
}
