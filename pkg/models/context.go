package models

// Role classifies how a passage contributes to the testing context.
type Role string

const (
	RoleCore       Role = "core"
	RoleSupporting Role = "supporting"
	RoleEdgeCase   Role = "edge_case"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCore, RoleSupporting, RoleEdgeCase:
		return true
	}
	return false
}

// Importance ranks a passage within its role.
type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

// Valid reports whether i is one of the known importance levels.
func (i Importance) Valid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}
	return false
}

// Passage is a documentation section selected for test design.
type Passage struct {
	SectionID  string     `json:"section_id"`
	Title      string     `json:"title"`
	Role       Role       `json:"role"`
	Importance Importance `json:"importance"`
	Summary    string     `json:"summary"`
}

// TestingContext is the normalized view of the documentation for one query.
// It is written once by the context builder and read by every later stage.
type TestingContext struct {
	Query              string    `json:"query"`
	FocusSummary       string    `json:"focus_summary"`
	CorePassages       []Passage `json:"core_passages"`
	SupportingPassages []Passage `json:"supporting_passages"`
	DiscardedSections  []string  `json:"discarded_sections"`
	DomainEntities     []string  `json:"domain_entities"`
	HintsForTests      []string  `json:"hints_for_tests"`
}

// SectionIDs returns the ids of all core and supporting passages.
func (tc *TestingContext) SectionIDs() map[string]struct{} {
	ids := make(map[string]struct{}, len(tc.CorePassages)+len(tc.SupportingPassages))
	for _, p := range tc.CorePassages {
		ids[p.SectionID] = struct{}{}
	}
	for _, p := range tc.SupportingPassages {
		ids[p.SectionID] = struct{}{}
	}
	return ids
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (tc TestingContext) MarshalJSON() ([]byte, error) {
	type alias TestingContext
	out := alias(tc)
	out.CorePassages = nonNil(out.CorePassages)
	out.SupportingPassages = nonNil(out.SupportingPassages)
	out.DiscardedSections = nonNil(out.DiscardedSections)
	out.DomainEntities = nonNil(out.DomainEntities)
	out.HintsForTests = nonNil(out.HintsForTests)
	return marshalPlain(out)
}

// SectionCandidate is one retrieved documentation section, as produced by
// the upstream retrieval step.
type SectionCandidate struct {
	SectionID string  `json:"section_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

// RawContext is the input artifact for a query: the user query plus the
// retrieved section candidates.
type RawContext struct {
	Query             string             `json:"query"`
	SectionCandidates []SectionCandidate `json:"section_candidates"`
}

// QueryInfo is one entry of the queries table used for display text.
type QueryInfo struct {
	Title     string `json:"title,omitempty"`
	UserQuery string `json:"user_query,omitempty"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
