// Package prompt renders the model prompts for the three generating stages.
// Rendering is pure: the same inputs always give the same text.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kamilpajak/bugsy/pkg/models"
)

const systemPrompt = `You are a backend JSON generator for a test-design system. You must respond with STRICT JSON only, matching the user's schema description. No explanations, no comments, no markdown.`

const (
	noSections    = "NO SECTION CANDIDATES PROVIDED."
	noEntities    = "none"
	noHints       = "none, rely on the section texts"
	noAttributes  = "ATTRIBUTES: []"
	replyObject   = "Reminder: reply with exactly one JSON object (TestingContext) and no text before or after it."
	replyAttrs    = "Reminder: reply with exactly one JSON array of Attribute objects and no text before or after it."
	replyScenario = "Reminder: reply with exactly one JSON array of Scenario objects and no text before or after it."
)

const contextSchema = `{
  "query": "string (the user's original request)",
  "focus_summary": "string (2-3 sentences: what exactly must be tested)",
  "core_passages": [
    {
      "section_id": "string",
      "title": "string",
      "role": "core",
      "importance": "high | medium | low",
      "summary": "string (3-5 sentences for the test designer)"
    }
  ],
  "supporting_passages": [
    {
      "section_id": "string",
      "title": "string",
      "role": "supporting",
      "importance": "high | medium | low",
      "summary": "string"
    }
  ],
  "discarded_sections": ["section_id", "..."],
  "domain_entities": ["EntityName", "..."],
  "hints_for_tests": ["short hint for tests, grounded in the documentation"]
}`

const attributeSchema = `{
  "id": "EVT-001",
  "name": "string",
  "type": "business_rule | functional | ui | negative",
  "priority": "P1 | P2 | P3",
  "description": "string",
  "positive_example": "string",
  "negative_example": "string",
  "source_section_ids": ["sec_1", "sec_2"],
  "source_quotes": ["quote from the documentation", "..."]
}`

const scenarioSchema = `{
  "id": "SCN-001",
  "title": "string",
  "steps": ["step 1", "step 2", "..."],
  "expected_result": "string",
  "attributes_covered": ["EVT-001", "EVT-002"]
}`

// SystemPrompt returns the instruction sent as the system message with
// every prompt.
func SystemPrompt() string {
	return systemPrompt
}

// BuildContext renders the context-builder prompt. query is the resolved
// display text; when blank the raw context's own query is used.
func BuildContext(raw *models.RawContext, query string) string {
	var sb strings.Builder

	sb.WriteString("You act as the context builder of a test-design system.\n\n")
	sb.WriteString("You are given the user's request (query) and documentation sections (section_candidates) with relevance scores.\n\n")
	sb.WriteString(`Your task:
- understand what exactly has to be tested for this request;
- keep only the sections that really explain requirements of the system;
- split them into:
  - core_passages: key sections the tests must be based on;
  - supporting_passages: clarifying details, examples, edge cases;
  - discarded_sections: noise (audit, marketing, unrelated descriptions);
- write a short summary of every core and supporting passage for the test designer;
- extract domain_entities: important domain objects, roles and statuses;
- write hints_for_tests: which rules and constraints the tests must cover.

Pay attention:
- Drop marketing text, company descriptions, audit and SLA text unrelated to system behaviour.
- Sections describing behaviour, conditions, constraints, scenarios, statuses or roles are most likely core or supporting.
- Do not invent section content; use only the text given below.

Output format:
- Exactly one JSON object, no explanations or comments.
- It must follow this TestingContext structure:

`)
	sb.WriteString(contextSchema)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "User request (query):\n\"\"\"%s\"\"\"\n\n", pick(query, raw.Query))
	sb.WriteString("Documentation sections (section_candidates) to analyse:\n\n")
	sb.WriteString(formatSections(raw.SectionCandidates))
	sb.WriteString("\n\n")
	sb.WriteString(replyObject)
	return sb.String()
}

// BuildAttributes renders the attribute-generator prompt.
func BuildAttributes(tc *models.TestingContext, query string) string {
	var sb strings.Builder

	sb.WriteString("You act as the attribute generator of a test-design system.\n\n")
	sb.WriteString("You are given the TestingContext for a user request.\n\n")
	writeContext(&sb, tc, query)

	sb.WriteString("domain_entities:\n")
	sb.WriteString(bulletList(tc.DomainEntities, noEntities))
	sb.WriteString("\n\nhints_for_tests:\n")
	sb.WriteString(bulletList(tc.HintsForTests, noHints))
	sb.WriteString("\n\n")

	sb.WriteString(`Your task:
- from core_passages, supporting_passages, domain_entities and hints_for_tests, produce a set of atomic test attributes (requirements).

Attribute rules:
- every attribute describes exactly one rule, requirement or constraint;
- every attribute has:
  - id: unique string identifier in the form "EVT-001", "EVT-002", ...
  - name: short human-readable name of the requirement;
  - type: one of "business_rule", "functional", "ui", "negative";
  - priority: one of "P1", "P2", "P3";
  - description: clear description of the requirement;
  - positive_example: an example of correct behaviour or input;
  - negative_example: an example of incorrect behaviour, input or a rule violation;
  - source_section_ids: section_id values of the sections this attribute explicitly follows from;
  - source_quotes: short quotes from the documentation supporting this attribute.

Output format:
- exactly one JSON array of Attribute objects;
- no wrapper such as { "attributes": [...] }, only the list: [{...}, {...}, ...]

Schema of one array element:
`)
	sb.WriteString(attributeSchema)
	sb.WriteString(`

Important:
- Do not fabricate requirements that are not in the documentation.
- When something is not obvious, phrase the attribute so that it stays honest and grounded in the text.
- Avoid duplicate attributes with the same meaning.

`)
	sb.WriteString(replyAttrs)
	return sb.String()
}

// BuildScenarios renders the scenario-generator prompt.
func BuildScenarios(tc *models.TestingContext, attrs []models.Attribute, query string) string {
	var sb strings.Builder

	sb.WriteString("You act as the scenario generator of a test-design system.\n\n")
	sb.WriteString("You are given the TestingContext for a user request and the atomic attributes (requirements) that scenarios must cover.\n\n")
	writeContext(&sb, tc, query)

	sb.WriteString("Attributes:\n\n")
	sb.WriteString(formatAttributes(attrs))
	sb.WriteString("\n\n")

	sb.WriteString(`Your task:
- produce test scenarios that cover the attributes strategically;
- one scenario may cover several attributes;
- avoid a mechanical one-scenario-per-attribute mapping and group logically related attributes.

Scenario rules:
- id: unique string identifier in the form "SCN-001", "SCN-002", ...
- title: short meaningful scenario name;
- steps: ordered list of steps a tester can follow;
- expected_result: a precisely stated expected outcome;
- attributes_covered: ids of the attributes this scenario covers.

Output format:
- exactly one JSON array of Scenario objects;
- no wrapper such as { "scenarios": [...] }, only the list: [{...}, {...}, ...]

Schema of one array element:
`)
	sb.WriteString(scenarioSchema)
	sb.WriteString(`

Important:
- Steps must be realistic and match the documentation.
- expected_result must check that the system behaves according to the attributes in attributes_covered.
- Do not invent behaviour that is not in the documentation.

`)
	sb.WriteString(replyScenario)
	return sb.String()
}

func writeContext(sb *strings.Builder, tc *models.TestingContext, query string) {
	fmt.Fprintf(sb, "User request (query):\n\"\"\"%s\"\"\"\n\n", pick(query, tc.Query))
	fmt.Fprintf(sb, "Focus summary (focus_summary):\n\"\"\"%s\"\"\"\n\n", tc.FocusSummary)
	sb.WriteString("CORE PASSAGES and SUPPORTING PASSAGES describe the key requirements and behaviour of the system:\n\n")
	sb.WriteString(formatPassages(tc.CorePassages, "CORE PASSAGES"))
	sb.WriteString("\n\n")
	sb.WriteString(formatPassages(tc.SupportingPassages, "SUPPORTING PASSAGES"))
	sb.WriteString("\n\n")
}

func pick(preferred, fallback string) string {
	if s := strings.TrimSpace(preferred); s != "" {
		return s
	}
	return strings.TrimSpace(fallback)
}

func formatSections(sections []models.SectionCandidate) string {
	if len(sections) == 0 {
		return noSections
	}
	blocks := make([]string, 0, len(sections))
	for i, sec := range sections {
		n := i + 1
		blocks = append(blocks, fmt.Sprintf("[#%d] section_id=%s score=%s\nTITLE: %s\nTEXT:\n%s\n--- END SECTION #%d ---",
			n, sec.SectionID, strconv.FormatFloat(sec.Score, 'f', -1, 64), sec.Title, sec.Text, n))
	}
	return strings.Join(blocks, "\n\n")
}

func formatPassages(passages []models.Passage, label string) string {
	if len(passages) == 0 {
		return label + ": []"
	}
	lines := []string{label + ":"}
	for i, p := range passages {
		lines = append(lines, fmt.Sprintf("[%d] section_id=%s\nTITLE: %s\nSUMMARY: %s\n", i+1, p.SectionID, p.Title, p.Summary))
	}
	return strings.Join(lines, "\n")
}

func formatAttributes(attrs []models.Attribute) string {
	if len(attrs) == 0 {
		return noAttributes
	}
	lines := []string{"ATTRIBUTES:"}
	for i, a := range attrs {
		lines = append(lines, fmt.Sprintf("[%d] id=%s\nNAME: %s\nTYPE: %s, PRIORITY: %s\nDESCRIPTION: %s\nPOSITIVE: %s\nNEGATIVE: %s\nSOURCE SECTIONS: %s\n",
			i+1, a.ID, a.Name, a.Type, a.Priority, a.Description, a.PositiveExample, a.NegativeExample,
			strings.Join(a.SourceSectionIDs, ", ")))
	}
	return strings.Join(lines, "\n")
}

func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
