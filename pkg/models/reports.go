package models

// Severity of a validation issue. Only SeverityError affects validity.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Validation issue codes.
const (
	CodeDuplicateID          = "DUPLICATE_ID"
	CodeInvalidSectionRef    = "INVALID_SECTION_REF"
	CodeEmptyDescription     = "EMPTY_DESCRIPTION"
	CodeEmptyPositiveExample = "EMPTY_POSITIVE_EXAMPLE"
	CodeEmptyNegativeExample = "EMPTY_NEGATIVE_EXAMPLE"
	CodeInvalidAttributeRef  = "INVALID_ATTRIBUTE_REF"
	CodeEmptySteps           = "EMPTY_STEPS"
	CodeEmptyExpectedResult  = "EMPTY_EXPECTED_RESULT"
)

// ValidationIssue is a single finding: what is wrong, where, and how badly.
type ValidationIssue struct {
	Severity   Severity `json:"severity"`
	Code       string   `json:"code"`
	Message    string   `json:"message"`
	ObjectType string   `json:"object_type"` // "attribute", "scenario"
	ObjectID   string   `json:"object_id,omitempty"`
	Field      string   `json:"field,omitempty"`
}

// ValidationReport aggregates issues for one artifact set.
type ValidationReport struct {
	IsValid bool              `json:"is_valid"`
	Issues  []ValidationIssue `json:"issues"`
	Summary string            `json:"summary"`
}

// NewValidationReport returns an empty, valid report.
func NewValidationReport() *ValidationReport {
	return &ValidationReport{IsValid: true, Issues: []ValidationIssue{}}
}

// AddIssue appends issue and marks the report invalid on error severity.
func (r *ValidationReport) AddIssue(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
	if issue.Severity == SeverityError {
		r.IsValid = false
	}
}

// Count returns the number of issues with the given severity.
func (r *ValidationReport) Count(sev Severity) int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == sev {
			n++
		}
	}
	return n
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (r ValidationReport) MarshalJSON() ([]byte, error) {
	type alias ValidationReport
	out := alias(r)
	out.Issues = nonNil(out.Issues)
	return marshalPlain(out)
}

// Entity types used in coverage entries.
const (
	EntityPassage   = "passage"
	EntityAttribute = "attribute"
)

// CoverageEntry records which attributes cover one entity.
type CoverageEntry struct {
	EntityID     string   `json:"entity_id"`
	EntityType   string   `json:"entity_type"`
	Description  string   `json:"description"`
	AttributeIDs []string `json:"attribute_ids"`
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (e CoverageEntry) MarshalJSON() ([]byte, error) {
	type alias CoverageEntry
	out := alias(e)
	out.AttributeIDs = nonNil(out.AttributeIDs)
	return marshalPlain(out)
}

// AttributeCoverageReport partitions core passages into covered and
// uncovered by the generated attributes.
type AttributeCoverageReport struct {
	Query     string          `json:"query"`
	Covered   []CoverageEntry `json:"covered"`
	Uncovered []CoverageEntry `json:"uncovered"`
	Summary   string          `json:"summary"`
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (r AttributeCoverageReport) MarshalJSON() ([]byte, error) {
	type alias AttributeCoverageReport
	out := alias(r)
	out.Covered = nonNil(out.Covered)
	out.Uncovered = nonNil(out.Uncovered)
	return marshalPlain(out)
}

// ScenarioCoverageEntry lists the scenarios covering one attribute.
type ScenarioCoverageEntry struct {
	AttributeID string   `json:"attribute_id"`
	ScenarioIDs []string `json:"scenario_ids"`
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (e ScenarioCoverageEntry) MarshalJSON() ([]byte, error) {
	type alias ScenarioCoverageEntry
	out := alias(e)
	out.ScenarioIDs = nonNil(out.ScenarioIDs)
	return marshalPlain(out)
}

// ScenarioCoverageReport relates attributes to the scenarios covering them.
type ScenarioCoverageReport struct {
	Query                      string                  `json:"query"`
	AttributeCoverage          []ScenarioCoverageEntry `json:"attribute_coverage"`
	AttributesWithoutScenarios []string                `json:"attributes_without_scenarios"`
	ScenariosWithoutAttributes []string                `json:"scenarios_without_attributes"`
	Summary                    string                  `json:"summary"`
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (r ScenarioCoverageReport) MarshalJSON() ([]byte, error) {
	type alias ScenarioCoverageReport
	out := alias(r)
	out.AttributeCoverage = nonNil(out.AttributeCoverage)
	out.AttributesWithoutScenarios = nonNil(out.AttributesWithoutScenarios)
	out.ScenariosWithoutAttributes = nonNil(out.ScenariosWithoutAttributes)
	return marshalPlain(out)
}
