// Package dossier holds the Analyst's research findings and their canonical
// text form. The text form is what reviewers edit and what later stages read.
package dossier

import (
	"fmt"
	"strings"
)

// Section headers are part of the text contract: reviewers and downstream
// prompts rely on them. Do not reword.
const (
	HeaderSmokingGun     = "/// SMOKING GUN (THE EVIDENCE)"
	HeaderVisualEvidence = "/// VISUAL EVIDENCE (WHAT TO SHOW ON SCREEN)"
	HeaderContextPoints  = "/// CONTEXT POINTS (MYTH vs REALITY)"
)

// SmokingGun is the single primary source backing the investigation.
type SmokingGun struct {
	Source      string `json:"source"`
	URL         string `json:"url"`
	QuoteOrFact string `json:"quote_or_fact"`
}

// ContextPoint is a labelled fact.
type ContextPoint struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Dossier is the structured research payload produced by the Analyst.
type Dossier struct {
	Topic          string         `json:"topic"`
	VisualEvidence []string       `json:"visualEvidence"`
	SmokingGun     SmokingGun     `json:"smokingGun"`
	ContextPoints  []ContextPoint `json:"contextPoints"`
}

// ToText renders d in the canonical review format.
func ToText(d Dossier) string {
	var b strings.Builder
	fmt.Fprintf(&b, "TOPIC: %s\n\n", d.Topic)

	b.WriteString(HeaderVisualEvidence + "\n")
	for _, v := range d.VisualEvidence {
		fmt.Fprintf(&b, "- %s\n", v)
	}

	b.WriteString("\n" + HeaderSmokingGun + "\n")
	fmt.Fprintf(&b, "- **%s**\n", d.SmokingGun.Source)
	fmt.Fprintf(&b, "  URL: %s\n", d.SmokingGun.URL)
	fmt.Fprintf(&b, "  PROOF: \"%s\"\n\n", d.SmokingGun.QuoteOrFact)

	b.WriteString(HeaderContextPoints + "\n")
	for _, cp := range d.ContextPoints {
		fmt.Fprintf(&b, "- **%s**: %s\n", cp.Label, cp.Value)
	}
	return b.String()
}

// Schema is the JSON schema the Analyst response must satisfy.
const Schema = `{
  "type": "object",
  "properties": {
    "topic": {"type": "string"},
    "visualEvidence": {"type": "array", "items": {"type": "string"}},
    "smokingGun": {
      "type": "object",
      "properties": {
        "source": {"type": "string"},
        "url": {"type": "string"},
        "quote_or_fact": {"type": "string"}
      },
      "required": ["source", "url", "quote_or_fact"]
    },
    "contextPoints": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "value": {"type": "string"}
        },
        "required": ["label", "value"]
      }
    }
  },
  "required": ["topic", "visualEvidence", "smokingGun", "contextPoints"]
}`
