// Package contextpack serializes retrieval evidence (documents, entities,
// relationships) into a deterministic, budget-bounded text block suitable
// as an LLM user message.
package contextpack

import (
	"fmt"
	"sort"
	"strings"

	"github.com/madeindigio/graphrag/internal/storage"
)

// MaxContextChars bounds the total length of a packed context.
const MaxContextChars = 200_000

const (
	maxDocuments            = 10
	maxEntities             = 100
	maxRelationships        = 200
	maxPropertiesPerEntity  = 10
	maxPropertyValueChars   = 200
	documentsBudgetFraction = 0.6
)

var omittedEntityKeys = map[string]bool{
	storage.PropEmbedding:  true,
	storage.PropSimilarity: true,
	storage.PropScopeID:    true,
}

// Input bundles the retrieval evidence to pack.
type Input struct {
	Documents     []storage.Document
	Entities      []storage.Entity
	Relationships []storage.Relationship
}

// Summary reports, per section, how many items were emitted versus how
// many were available.
type Summary struct {
	DocumentsEmitted     int
	DocumentsTotal       int
	EntitiesEmitted      int
	EntitiesTotal        int
	RelationshipsEmitted int
	RelationshipsTotal   int
	// EstimatedTokens is the approximate cl100k_base token count of Text,
	// useful for callers deciding whether the packed context still fits
	// their model's context window alongside the system prompt.
	EstimatedTokens int
}

// Packed is the serialized context and its accompanying summary.
type Packed struct {
	Text    string
	Summary Summary
}

// Pack renders in into a budget-bounded text block: documents first,
// entities second, relationships third. Emission for a section stops as
// soon as the next line would exceed that section's remaining budget.
func Pack(in Input) Packed {
	var b strings.Builder
	summary := Summary{
		DocumentsTotal:       len(in.Documents),
		EntitiesTotal:        len(in.Entities),
		RelationshipsTotal:   len(in.Relationships),
	}

	remaining := MaxContextChars

	if len(in.Documents) > 0 {
		docBudget := remaining
		if int(float64(MaxContextChars)*documentsBudgetFraction) < docBudget {
			docBudget = int(float64(MaxContextChars) * documentsBudgetFraction)
		}
		written := writeDocuments(&b, in.Documents, docBudget, &summary)
		remaining -= written
	}

	written := writeEntities(&b, in.Entities, remaining, &summary)
	remaining -= written

	writeRelationships(&b, in.Relationships, displayNames(in.Entities), remaining, &summary)

	text := b.String()
	summary.EstimatedTokens = EstimateTokens(text)

	return Packed{Text: text, Summary: summary}
}

// displayNames maps entity id to the best human-readable label: name,
// falling back to title, falling back to label, falling back to id.
func displayNames(entities []storage.Entity) map[string]string {
	out := make(map[string]string, len(entities))
	for _, e := range entities {
		if name := storage.NameOf(e.Properties); name != "" {
			out[e.ID] = name
			continue
		}
		if e.Label != "" {
			out[e.ID] = e.Label
			continue
		}
		out[e.ID] = e.ID
	}
	return out
}

func writeDocuments(b *strings.Builder, docs []storage.Document, budget int, summary *Summary) int {
	written := 0
	count := 0
	for _, doc := range docs {
		if count >= maxDocuments {
			break
		}
		header := fmt.Sprintf("Document %s:\n", doc.ID)
		body := doc.Text + "\n\n"
		line := header + body

		if written+len(line) > budget {
			remainingBudget := budget - written - len(header)
			if remainingBudget <= 5 {
				break
			}
			truncated := body[:remainingBudget-5] + "...\n\n"
			b.WriteString(header)
			b.WriteString(truncated)
			written += len(header) + len(truncated)
			count++
			summary.DocumentsEmitted = count
			break
		}

		b.WriteString(line)
		written += len(line)
		count++
		summary.DocumentsEmitted = count
	}
	return written
}

func writeEntities(b *strings.Builder, entities []storage.Entity, budget int, summary *Summary) int {
	written := 0
	count := 0
	for _, ent := range entities {
		if count >= maxEntities {
			break
		}
		line := formatEntity(ent) + "\n"
		if written+len(line) > budget {
			break
		}
		b.WriteString(line)
		written += len(line)
		count++
		summary.EntitiesEmitted = count
	}
	return written
}

func writeRelationships(b *strings.Builder, rels []storage.Relationship, names map[string]string, budget int, summary *Summary) int {
	written := 0
	count := 0
	for _, r := range rels {
		if count >= maxRelationships {
			break
		}
		line := formatRelationship(r, names) + "\n"
		if written+len(line) > budget {
			break
		}
		b.WriteString(line)
		written += len(line)
		count++
		summary.RelationshipsEmitted = count
	}
	return written
}

func formatEntity(e storage.Entity) string {
	keys := make([]string, 0, len(e.Properties))
	for k := range e.Properties {
		if omittedEntityKeys[k] {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxPropertiesPerEntity {
		keys = keys[:maxPropertiesPerEntity]
	}

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		v := truncateValue(fmt.Sprint(e.Properties[k]))
		pairs = append(pairs, fmt.Sprintf("%s: %s", k, v))
	}
	return fmt.Sprintf("%s (%s): %s", e.Label, e.ID, strings.Join(pairs, ", "))
}

func formatRelationship(r storage.Relationship, names map[string]string) string {
	from, to := r.From, r.To
	if n, ok := names[r.From]; ok {
		from = n
	}
	if n, ok := names[r.To]; ok {
		to = n
	}
	return fmt.Sprintf("%s --[%s]--> %s", from, r.Type, to)
}

func truncateValue(v string) string {
	if len(v) <= maxPropertyValueChars {
		return v
	}
	return v[:maxPropertyValueChars-3] + "..."
}
