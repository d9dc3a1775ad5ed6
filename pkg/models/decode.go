package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrSchemaMismatch is returned when a document does not have the shape of
// the expected artifact: wrong top-level type, a non-object item, a missing
// required field or a value outside its enum.
var ErrSchemaMismatch = errors.New("schema mismatch")

func schemaErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchemaMismatch, fmt.Sprintf(format, args...))
}

var (
	passageRequired   = []string{"section_id", "title"}
	contextRequired   = []string{"query", "focus_summary"}
	attributeRequired = []string{"id", "name", "type", "priority", "description", "positive_example", "negative_example"}
	scenarioRequired  = []string{"id", "title", "expected_result"}
)

// DecodeTestingContext decodes a single TestingContext object.
func DecodeTestingContext(data []byte) (*TestingContext, error) {
	fields, err := objectFields(data, "testing context")
	if err != nil {
		return nil, err
	}
	if err := requireFields(fields, "testing context", contextRequired); err != nil {
		return nil, err
	}

	var wire struct {
		Query              string            `json:"query"`
		FocusSummary       string            `json:"focus_summary"`
		CorePassages       []json.RawMessage `json:"core_passages"`
		SupportingPassages []json.RawMessage `json:"supporting_passages"`
		DiscardedSections  []string          `json:"discarded_sections"`
		DomainEntities     []string          `json:"domain_entities"`
		HintsForTests      []string          `json:"hints_for_tests"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, schemaErr("testing context: %v", err)
	}

	core, err := decodePassages(wire.CorePassages, "core_passages")
	if err != nil {
		return nil, err
	}
	supporting, err := decodePassages(wire.SupportingPassages, "supporting_passages")
	if err != nil {
		return nil, err
	}

	return &TestingContext{
		Query:              wire.Query,
		FocusSummary:       wire.FocusSummary,
		CorePassages:       core,
		SupportingPassages: supporting,
		DiscardedSections:  nonNil(wire.DiscardedSections),
		DomainEntities:     nonNil(wire.DomainEntities),
		HintsForTests:      nonNil(wire.HintsForTests),
	}, nil
}

func decodePassages(items []json.RawMessage, label string) ([]Passage, error) {
	passages := make([]Passage, 0, len(items))
	for i, item := range items {
		what := fmt.Sprintf("%s[%d]", label, i)
		fields, err := objectFields(item, what)
		if err != nil {
			return nil, err
		}
		if err := requireFields(fields, what, passageRequired); err != nil {
			return nil, err
		}
		var p Passage
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, schemaErr("%s: %v", what, err)
		}
		if _, ok := fields["role"]; !ok {
			p.Role = RoleCore
		}
		if _, ok := fields["importance"]; !ok {
			p.Importance = ImportanceMedium
		}
		if !p.Role.Valid() {
			return nil, schemaErr("%s: unknown role %q", what, p.Role)
		}
		if !p.Importance.Valid() {
			return nil, schemaErr("%s: unknown importance %q", what, p.Importance)
		}
		passages = append(passages, p)
	}
	return passages, nil
}

// DecodeAttributes decodes a JSON array of Attribute objects.
func DecodeAttributes(data []byte) ([]Attribute, error) {
	items, err := arrayItems(data, "attributes")
	if err != nil {
		return nil, err
	}
	attrs := make([]Attribute, 0, len(items))
	for i, item := range items {
		what := fmt.Sprintf("attribute[%d]", i)
		fields, err := objectFields(item, what)
		if err != nil {
			return nil, err
		}
		if err := requireFields(fields, what, attributeRequired); err != nil {
			return nil, err
		}
		var a Attribute
		if err := json.Unmarshal(item, &a); err != nil {
			return nil, schemaErr("%s: %v", what, err)
		}
		if !a.Type.Valid() {
			return nil, schemaErr("%s: unknown type %q", what, a.Type)
		}
		if !a.Priority.Valid() {
			return nil, schemaErr("%s: unknown priority %q", what, a.Priority)
		}
		a.SourceSectionIDs = nonNil(a.SourceSectionIDs)
		a.SourceQuotes = nonNil(a.SourceQuotes)
		attrs = append(attrs, a)
	}
	return attrs, nil
}

// DecodeScenarios decodes a JSON array of Scenario objects.
func DecodeScenarios(data []byte) ([]Scenario, error) {
	items, err := arrayItems(data, "scenarios")
	if err != nil {
		return nil, err
	}
	scenarios := make([]Scenario, 0, len(items))
	for i, item := range items {
		what := fmt.Sprintf("scenario[%d]", i)
		fields, err := objectFields(item, what)
		if err != nil {
			return nil, err
		}
		if err := requireFields(fields, what, scenarioRequired); err != nil {
			return nil, err
		}
		var s Scenario
		if err := json.Unmarshal(item, &s); err != nil {
			return nil, schemaErr("%s: %v", what, err)
		}
		s.Steps = nonNil(s.Steps)
		s.AttributesCovered = nonNil(s.AttributesCovered)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// DecodeRawContext decodes the retrieval input for a query. Candidates
// without a section id get a 1-based positional one ("sec_1", "sec_2", ...)
// so the prompt and the fallback agree on it.
func DecodeRawContext(data []byte) (*RawContext, error) {
	if _, err := objectFields(data, "raw context"); err != nil {
		return nil, err
	}
	var raw RawContext
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, schemaErr("raw context: %v", err)
	}
	for i := range raw.SectionCandidates {
		if raw.SectionCandidates[i].SectionID == "" {
			raw.SectionCandidates[i].SectionID = fmt.Sprintf("sec_%d", i+1)
		}
	}
	raw.SectionCandidates = nonNil(raw.SectionCandidates)
	return &raw, nil
}

// DecodeQueryTable decodes the queries table ({query_id: {title, user_query}}).
func DecodeQueryTable(data []byte) (map[string]QueryInfo, error) {
	if _, err := objectFields(data, "queries table"); err != nil {
		return nil, err
	}
	var table map[string]QueryInfo
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, schemaErr("queries table: %v", err)
	}
	return table, nil
}

// DecodeValidationReport decodes a stored ValidationReport.
func DecodeValidationReport(data []byte) (*ValidationReport, error) {
	if _, err := objectFields(data, "validation report"); err != nil {
		return nil, err
	}
	var r ValidationReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, schemaErr("validation report: %v", err)
	}
	r.Issues = nonNil(r.Issues)
	return &r, nil
}

func firstByte(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func objectFields(data []byte, what string) (map[string]json.RawMessage, error) {
	if firstByte(data) != '{' {
		return nil, schemaErr("%s must be a JSON object", what)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, schemaErr("%s: %v", what, err)
	}
	return fields, nil
}

func arrayItems(data []byte, what string) ([]json.RawMessage, error) {
	if firstByte(data) != '[' {
		return nil, schemaErr("%s must be a JSON array", what)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, schemaErr("%s: %v", what, err)
	}
	return items, nil
}

func requireFields(fields map[string]json.RawMessage, what string, required []string) error {
	for _, key := range required {
		raw, ok := fields[key]
		if !ok || string(raw) == "null" {
			return schemaErr("%s: missing required field %q", what, key)
		}
	}
	return nil
}
