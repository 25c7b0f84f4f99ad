package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/madeindigio/graphrag/internal/extraction"
	"github.com/madeindigio/graphrag/internal/metadata"
	"github.com/madeindigio/graphrag/internal/storage"
	"github.com/madeindigio/graphrag/pkg/fuzzy"
)

const maxCanonicalProperties = 5

// Learn ingests text into the knowledge graph: document dedup, extraction,
// entity dedup, relationship creation, and document→entity linking.
func (e *Engine) Learn(ctx context.Context, text string, opts LearnOptions) (*LearnResult, error) {
	started := time.Now()
	status := "error"
	defer func() {
		e.metrics.RecordLearn(ctx, time.Since(started).Seconds(), e.scopeID, status)
	}()

	if !metadata.ValidateWindow(opts.ValidFrom, opts.ValidTo) {
		return nil, fmt.Errorf("engine: validFrom must not be after validTo")
	}

	stampOpts := metadata.Options{ContextID: opts.ContextID, ValidFrom: opts.ValidFrom, ValidTo: opts.ValidTo}
	if stampOpts.ContextID == "" {
		stampOpts.ContextID = metadata.NewContextID()
	}
	stamp := e.stamper.Stamp(stampOpts)
	contextID := stampOpts.ContextID

	result := &LearnResult{ContextID: contextID}

	doc, docCreated, err := e.dedupDocument(ctx, text, stamp, contextID, opts.ContextName)
	if err != nil {
		return nil, fmt.Errorf("engine: document dedup/create: %w", err)
	}
	if docCreated {
		result.Created.Document = 1
	}

	tmpl := e.template
	if opts.Template != nil {
		tmpl = tmpl.Merge(*opts.Template)
	}
	prompt := extraction.BuildPrompt(tmpl, text)

	temperature := extraction.MaxTemperature
	reply, err := e.model.Generate(ctx, prompt.System, prompt.User, temperature)
	if err != nil {
		return nil, fmt.Errorf("engine: extraction call: %w", err)
	}

	extracted, err := extraction.Parse(reply)
	if err != nil {
		e.metrics.RecordExtractionError(ctx, e.scopeID)
		return nil, err
	}
	result.Warnings = append(result.Warnings, extracted.Warnings...)

	nameToID := make(map[string]string, len(extracted.Entities))
	entities := make([]storage.Entity, 0, len(extracted.Entities))
	for _, re := range extracted.Entities {
		ent, created, err := e.dedupEntity(ctx, re, stamp, contextID)
		if err != nil {
			return nil, fmt.Errorf("engine: entity dedup/create for %q: %w", storage.NameOf(re.Properties), err)
		}
		if created {
			result.Created.Entities++
		}
		nameToID[storage.NameOf(re.Properties)] = ent.ID
		entities = append(entities, *ent)

		if _, err := e.store.LinkEntityToDocument(ctx, doc.ID, ent.ID, e.scopeID); err != nil {
			slog.Warn("engine: link entity to document failed, treating as pre-existing", "documentId", doc.ID, "entityId", ent.ID, "error", err)
		}
	}

	relationships, err := e.materializeRelationships(ctx, extracted.Relationships, nameToID, stamp, result)
	if err != nil {
		return nil, err
	}
	result.Created.Relationships = len(relationships)

	if !opts.IncludeEmbeddings {
		doc.Properties = storage.ScrubEmbedding(doc.Properties)
		for i := range entities {
			entities[i].Properties = storage.ScrubEmbedding(entities[i].Properties)
		}
	}

	result.Document = *doc
	result.Entities = entities
	result.Relationships = relationships

	documentsReused := 0
	if !docCreated {
		documentsReused = 1
	}
	e.metrics.RecordLearnCounts(ctx, e.scopeID, result.Created.Document, documentsReused, result.Created.Entities, result.Created.Relationships)

	status = "ok"
	return result, nil
}

func (e *Engine) dedupDocument(ctx context.Context, text string, stamp metadata.Stamp, contextID, contextName string) (*storage.Document, bool, error) {
	existing, err := e.store.FindDocumentByText(ctx, text, e.scopeID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		updated, err := e.store.UpdateDocumentContextIDs(ctx, existing.ID, contextID)
		if err != nil {
			return nil, false, err
		}
		return updated, false, nil
	}

	embeddings, err := e.embed.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, false, fmt.Errorf("embed document: %w", err)
	}
	if len(embeddings) != 1 {
		return nil, false, fmt.Errorf("embed document: expected 1 embedding, got %d", len(embeddings))
	}

	props := stamp.Properties()
	props["text"] = text
	if contextName != "" {
		props["contextName"] = contextName
	}

	created, err := e.store.CreateDocument(ctx, props, embeddings[0])
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

func (e *Engine) dedupEntity(ctx context.Context, re extraction.RawEntity, stamp metadata.Stamp, contextID string) (*storage.Entity, bool, error) {
	name := storage.NameOf(re.Properties)
	existing, err := e.store.FindEntityByName(ctx, name, e.scopeID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		existing, err = e.findEntityByFuzzyName(ctx, re.Label, name)
		if err != nil {
			return nil, false, err
		}
	}
	if existing != nil {
		updated, err := e.store.UpdateEntityContextIDs(ctx, existing.ID, contextID)
		if err != nil {
			return nil, false, err
		}
		return updated, false, nil
	}

	canonical := canonicalEntityText(re)
	embeddings, err := e.embed.EmbedDocuments(ctx, []string{canonical})
	if err != nil {
		return nil, false, fmt.Errorf("embed entity %q: %w", name, err)
	}
	if len(embeddings) != 1 {
		return nil, false, fmt.Errorf("embed entity %q: expected 1 embedding, got %d", name, len(embeddings))
	}

	props := stamp.Properties()
	for k, v := range re.Properties {
		props[k] = v
	}

	created, err := e.store.CreateEntities(ctx, []storage.Entity{{Label: re.Label, Properties: props}}, [][]float32{embeddings[0]}, e.scopeID)
	if err != nil {
		return nil, false, err
	}
	if len(created) != 1 {
		return nil, false, fmt.Errorf("create entity %q: expected 1 result, got %d", name, len(created))
	}
	return &created[0], true, nil
}

// findEntityByFuzzyName catches near-duplicate names an exact lookup
// misses (casing, punctuation, a stray typo across extraction calls) by
// scanning same-label entities in scope and picking the closest name
// within a length-scaled edit-distance tolerance.
func (e *Engine) findEntityByFuzzyName(ctx context.Context, label, name string) (*storage.Entity, error) {
	candidates, err := e.store.ListEntities(ctx, storage.ListFilter{ScopeID: e.scopeID, Labels: []string{label}})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	byName := make(map[string]storage.Entity, len(candidates))
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		n := storage.NameOf(c.Properties)
		if n == "" {
			continue
		}
		byName[n] = c
		names = append(names, n)
	}

	matches := fuzzy.Nearest(name, names, fuzzy.MaxDistanceFor(name))
	if len(matches) == 0 {
		return nil, nil
	}
	best := byName[matches[0].Value]
	return &best, nil
}

// canonicalEntityText builds the text an entity's embedding is computed
// from: label, identity, and up to maxCanonicalProperties short scalar
// properties, so similar entities land near each other in vector space.
func canonicalEntityText(re extraction.RawEntity) string {
	var b strings.Builder
	b.WriteString(re.Label)
	b.WriteString(": ")
	b.WriteString(storage.NameOf(re.Properties))

	if desc, ok := re.Properties["description"].(string); ok && desc != "" {
		b.WriteString(". ")
		b.WriteString(desc)
	}

	count := 0
	for k, v := range re.Properties {
		if count >= maxCanonicalProperties {
			break
		}
		if k == "name" || k == "title" || k == "description" {
			continue
		}
		switch val := v.(type) {
		case string, bool, float64, int:
			fmt.Fprintf(&b, ". %s: %v", k, val)
			count++
		}
	}
	return b.String()
}

func (e *Engine) materializeRelationships(ctx context.Context, raw []extraction.RawRelationship, nameToID map[string]string, stamp metadata.Stamp, result *LearnResult) ([]storage.Relationship, error) {
	seen := make(map[string]bool, len(raw))
	pending := make([]storage.Relationship, 0, len(raw))

	for _, rr := range raw {
		fromID, ok := nameToID[rr.From]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped relationship %s-[%s]->%s: unresolved endpoint %q", rr.From, rr.Type, rr.To, rr.From))
			continue
		}
		toID, ok := nameToID[rr.To]
		if !ok {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped relationship %s-[%s]->%s: unresolved endpoint %q", rr.From, rr.Type, rr.To, rr.To))
			continue
		}
		if fromID == toID {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped relationship %s-[%s]->%s: self-loop after resolution", rr.From, rr.Type, rr.To))
			continue
		}
		key := fromID + "\x00" + toID + "\x00" + rr.Type
		if seen[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("dropped duplicate relationship %s-[%s]->%s", rr.From, rr.Type, rr.To))
			continue
		}
		seen[key] = true

		props := stamp.Properties()
		for k, v := range rr.Properties {
			props[k] = v
		}
		pending = append(pending, storage.Relationship{Type: rr.Type, From: fromID, To: toID, Properties: props})
	}

	if len(pending) == 0 {
		return nil, nil
	}
	return e.store.CreateRelationships(ctx, pending, e.scopeID)
}
