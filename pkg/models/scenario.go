package models

// Scenario is one test procedure covering one or more attributes.
type Scenario struct {
	ID                string   `json:"id"`
	Title             string   `json:"title"`
	Steps             []string `json:"steps"`
	ExpectedResult    string   `json:"expected_result"`
	AttributesCovered []string `json:"attributes_covered"`
}

// MarshalJSON keeps empty lists as [] in stored artifacts.
func (s Scenario) MarshalJSON() ([]byte, error) {
	type alias Scenario
	out := alias(s)
	out.Steps = nonNil(out.Steps)
	out.AttributesCovered = nonNil(out.AttributesCovered)
	return marshalPlain(out)
}
