package models

// AttributeType categorizes a testable requirement.
type AttributeType string

const (
	AttributeBusinessRule AttributeType = "business_rule"
	AttributeFunctional   AttributeType = "functional"
	AttributeUI           AttributeType = "ui"
	AttributeNegative     AttributeType = "negative"
)

// Valid reports whether t is one of the known attribute types.
func (t AttributeType) Valid() bool {
	switch t {
	case AttributeBusinessRule, AttributeFunctional, AttributeUI, AttributeNegative:
		return true
	}
	return false
}

// Priority of an attribute, P1 being the most important.
type Priority string

const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
)

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityP1, PriorityP2, PriorityP3:
		return true
	}
	return false
}

// Attribute is one atomic testable requirement derived from documentation.
type Attribute struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Type             AttributeType `json:"type"`
	Priority         Priority      `json:"priority"`
	Description      string        `json:"description"`
	PositiveExample  string        `json:"positive_example"`
	NegativeExample  string        `json:"negative_example"`
	SourceSectionIDs []string      `json:"source_section_ids"`
	SourceQuotes     []string      `json:"source_quotes"`
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (a Attribute) MarshalJSON() ([]byte, error) {
	type alias Attribute
	out := alias(a)
	out.SourceSectionIDs = nonNil(out.SourceSectionIDs)
	out.SourceQuotes = nonNil(out.SourceQuotes)
	return marshalPlain(out)
}

// AttributeIDs returns the set of ids in attrs.
func AttributeIDs(attrs []Attribute) map[string]struct{} {
	ids := make(map[string]struct{}, len(attrs))
	for _, a := range attrs {
		ids[a.ID] = struct{}{}
	}
	return ids
}
