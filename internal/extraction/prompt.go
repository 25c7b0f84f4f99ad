// Package extraction composes the deterministic entity/relationship
// extraction prompt and validates the LLM's JSON response against the
// label/type grammar.
package extraction

import (
	"fmt"
	"strings"
)

// MaxTemperature is the sampling temperature ceiling for extraction
// calls: extraction must be close to deterministic.
const MaxTemperature = 0.3

// Prompt is the composed system+user pair ready to send to the LLM.
type Prompt struct {
	System string
	User   string
}

// BuildPrompt composes the system prompt from tmpl and pairs it with a
// user message containing only the text to analyze.
func BuildPrompt(tmpl Template, text string) Prompt {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", tmpl.Role)
	fmt.Fprintf(&b, "Task: %s\n\n", tmpl.Task)

	if len(tmpl.FormatRules) > 0 {
		b.WriteString("Format rules:\n")
		for _, r := range tmpl.FormatRules {
			fmt.Fprintf(&b, "- %s\n", r)
		}
		b.WriteString("\n")
	}

	if len(tmpl.ExtractionConstraints) > 0 {
		b.WriteString("Extraction constraints:\n")
		for _, c := range tmpl.ExtractionConstraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	if len(tmpl.SemanticConstraints) > 0 {
		b.WriteString("Semantic constraints:\n")
		for _, c := range tmpl.SemanticConstraints {
			fmt.Fprintf(&b, "- %s\n", c)
		}
		b.WriteString("\n")
	}

	if tmpl.Ontology != nil {
		writeOntology(&b, *tmpl.Ontology)
	}

	if tmpl.OutputFormatExample != "" {
		fmt.Fprintf(&b, "Output format example:\n%s\n", tmpl.OutputFormatExample)
	}

	return Prompt{System: b.String(), User: text}
}

func writeOntology(b *strings.Builder, o Ontology) {
	if len(o.EntityTypes) > 0 {
		b.WriteString("Allowed entity types:\n")
		for _, et := range o.EntityTypes {
			fmt.Fprintf(b, "- %s", et.Label)
			if len(et.RequiredProperties) > 0 {
				fmt.Fprintf(b, " (required properties: %s)", strings.Join(et.RequiredProperties, ", "))
			}
			if et.Description != "" {
				fmt.Fprintf(b, " — %s", et.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if len(o.RelationshipTypes) > 0 {
		b.WriteString("Allowed relationship types:\n")
		for _, rt := range o.RelationshipTypes {
			fmt.Fprintf(b, "- %s", rt.Type)
			if len(rt.FromLabels) > 0 {
				fmt.Fprintf(b, " (from: %s)", strings.Join(rt.FromLabels, "|"))
			}
			if len(rt.ToLabels) > 0 {
				fmt.Fprintf(b, " (to: %s)", strings.Join(rt.ToLabels, "|"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
}
