package engine

import (
	"context"
	"testing"
	"time"
)

func newTestEngine(t *testing.T, store *fakeStore, model *fakeModel) *Engine {
	t.Helper()
	eng, err := New(Dependencies{
		Store:   store,
		Embed:   newFakeEmbedder(),
		Model:   model,
		ScopeID: "tenant-1",
		Now:     func() time.Time { return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return eng
}

const aliceWorksForAcme = `{"entities":[{"label":"Person","properties":{"name":"Alice"}},{"label":"Company","properties":{"name":"Acme"}}],"relationships":[{"from":"Alice","to":"Acme","type":"WORKS_FOR","properties":{}}]}`

func TestLearnCreatesDocumentEntitiesAndRelationship(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{replies: []string{aliceWorksForAcme}}
	eng := newTestEngine(t, store, model)

	result, err := eng.Learn(context.Background(), "Alice works for Acme.", LearnOptions{})
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}

	if result.Created.Document != 1 {
		t.Errorf("expected document created, got Created=%+v", result.Created)
	}
	if result.Created.Entities != 2 {
		t.Errorf("expected 2 entities created, got %d", result.Created.Entities)
	}
	if result.Created.Relationships != 1 {
		t.Errorf("expected 1 relationship created, got %d", result.Created.Relationships)
	}
	if len(store.documents) != 1 || len(store.entities) != 2 {
		t.Errorf("unexpected store state: %d documents, %d entities", len(store.documents), len(store.entities))
	}
	// document→entity bridge edges plus the WORKS_FOR edge.
	if len(store.relationships) != 3 {
		t.Errorf("expected 3 relationships (2 CONTAINS_ENTITY + 1 WORKS_FOR), got %d", len(store.relationships))
	}
}

func TestLearnDedupsDocumentByText(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{replies: []string{aliceWorksForAcme, aliceWorksForAcme}}
	eng := newTestEngine(t, store, model)

	text := "Alice works for Acme."
	first, err := eng.Learn(context.Background(), text, LearnOptions{ContextID: "ctx-a"})
	if err != nil {
		t.Fatalf("first Learn: %v", err)
	}
	second, err := eng.Learn(context.Background(), text, LearnOptions{ContextID: "ctx-b"})
	if err != nil {
		t.Fatalf("second Learn: %v", err)
	}

	if len(store.documents) != 1 {
		t.Fatalf("expected document dedup, got %d documents", len(store.documents))
	}
	if first.Document.ID != second.Document.ID {
		t.Errorf("expected same document id across dedup calls, got %q and %q", first.Document.ID, second.Document.ID)
	}
	if second.Created.Document != 0 {
		t.Errorf("expected second call to reuse the document, got Created.Document=%d", second.Created.Document)
	}

	doc := store.documents[second.Document.ID]
	contexts, _ := doc.Properties["contextIds"].([]string)
	if len(contexts) != 2 {
		t.Errorf("expected both context ids accumulated, got %v", contexts)
	}
}

func TestLearnDedupsEntityByName(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{replies: []string{aliceWorksForAcme, `{"entities":[{"label":"Person","properties":{"name":"Alice"}}],"relationships":[]}`}}
	eng := newTestEngine(t, store, model)

	if _, err := eng.Learn(context.Background(), "Alice works for Acme.", LearnOptions{}); err != nil {
		t.Fatalf("first Learn: %v", err)
	}
	if _, err := eng.Learn(context.Background(), "Alice gave a talk.", LearnOptions{}); err != nil {
		t.Fatalf("second Learn: %v", err)
	}

	aliceCount := 0
	for _, e := range store.entities {
		if e.Label == "Person" {
			aliceCount++
		}
	}
	if aliceCount != 1 {
		t.Errorf("expected Alice entity to be deduped across Learn calls, found %d Person entities", aliceCount)
	}
}

func TestLearnDedupsEntityByFuzzyName(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{replies: []string{
		`{"entities":[{"label":"Company","properties":{"name":"Acme Corporation"}}],"relationships":[]}`,
		`{"entities":[{"label":"Company","properties":{"name":"Acme Corporaton"}}],"relationships":[]}`,
	}}
	eng := newTestEngine(t, store, model)

	if _, err := eng.Learn(context.Background(), "Acme Corporation was founded in 1990.", LearnOptions{}); err != nil {
		t.Fatalf("first Learn: %v", err)
	}
	if _, err := eng.Learn(context.Background(), "Acme Corporaton posted earnings.", LearnOptions{}); err != nil {
		t.Fatalf("second Learn: %v", err)
	}

	companyCount := 0
	for _, e := range store.entities {
		if e.Label == "Company" {
			companyCount++
		}
	}
	if companyCount != 1 {
		t.Errorf("expected 'Acme Corporation' and 'Acme Corporaton' to fuzzy-dedup to one entity, found %d Company entities", companyCount)
	}
}

func TestLearnRejectsInvalidValidityWindow(t *testing.T) {
	store := newFakeStore()
	eng := newTestEngine(t, store, &fakeModel{})

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := eng.Learn(context.Background(), "whatever", LearnOptions{ValidFrom: &from, ValidTo: &to})
	if err == nil {
		t.Fatal("expected an error for validFrom after validTo")
	}
}

func TestLearnDropsUnresolvedRelationshipEndpoint(t *testing.T) {
	store := newFakeStore()
	reply := `{"entities":[{"label":"Person","properties":{"name":"Alice"}}],"relationships":[{"from":"Alice","to":"Ghost","type":"KNOWS","properties":{}}]}`
	model := &fakeModel{replies: []string{reply}}
	eng := newTestEngine(t, store, model)

	result, err := eng.Learn(context.Background(), "Alice knows someone.", LearnOptions{})
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if result.Created.Relationships != 0 {
		t.Errorf("expected no relationship created for an unresolved endpoint, got %d", result.Created.Relationships)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected a warning about the dropped relationship")
	}
}

func TestLearnScrubsEmbeddingsByDefault(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{replies: []string{aliceWorksForAcme}}
	eng := newTestEngine(t, store, model)

	result, err := eng.Learn(context.Background(), "Alice works for Acme.", LearnOptions{})
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if result.Document.Properties["embedding"] != nil {
		t.Error("expected embedding to be scrubbed from the returned document")
	}
	for _, e := range result.Entities {
		if e.Properties["embedding"] != nil {
			t.Error("expected embedding to be scrubbed from returned entities")
		}
	}
}

func TestLearnKeepsEmbeddingsWhenRequested(t *testing.T) {
	store := newFakeStore()
	model := &fakeModel{replies: []string{aliceWorksForAcme}}
	eng := newTestEngine(t, store, model)

	result, err := eng.Learn(context.Background(), "Alice works for Acme.", LearnOptions{IncludeEmbeddings: true})
	if err != nil {
		t.Fatalf("Learn: %v", err)
	}
	if result.Document.Properties["embedding"] == nil {
		t.Error("expected embedding to be retained when IncludeEmbeddings is set")
	}
}
