package contextpack

import (
	"strings"
	"testing"

	"github.com/madeindigio/graphrag/internal/storage"
)

func TestPackOrdersDocumentsEntitiesRelationships(t *testing.T) {
	in := Input{
		Documents: []storage.Document{
			{ID: "d1", Text: "Alice works for Acme."},
		},
		Entities: []storage.Entity{
			{ID: "e1", Label: "Person", Properties: map[string]interface{}{"name": "Alice"}},
			{ID: "e2", Label: "Company", Properties: map[string]interface{}{"name": "Acme"}},
		},
		Relationships: []storage.Relationship{
			{ID: "r1", Type: "WORKS_FOR", From: "e1", To: "e2"},
		},
	}

	packed := Pack(in)

	docIdx := strings.Index(packed.Text, "Document d1")
	entIdx := strings.Index(packed.Text, "Person (e1)")
	relIdx := strings.Index(packed.Text, "Alice --[WORKS_FOR]--> Acme")

	if docIdx == -1 || entIdx == -1 || relIdx == -1 {
		t.Fatalf("packed context missing a section: %q", packed.Text)
	}
	if !(docIdx < entIdx && entIdx < relIdx) {
		t.Errorf("sections out of order: doc=%d entity=%d rel=%d", docIdx, entIdx, relIdx)
	}
	if packed.Summary.DocumentsEmitted != 1 || packed.Summary.EntitiesEmitted != 2 || packed.Summary.RelationshipsEmitted != 1 {
		t.Errorf("unexpected summary: %+v", packed.Summary)
	}
}

func TestPackStaysUnderBudget(t *testing.T) {
	longText := strings.Repeat("a", MaxContextChars)
	in := Input{Documents: []storage.Document{{ID: "d1", Text: longText}}}

	packed := Pack(in)

	if len(packed.Text) > MaxContextChars {
		t.Errorf("packed text length %d exceeds budget %d", len(packed.Text), MaxContextChars)
	}
	if !strings.Contains(packed.Text, "...") {
		t.Error("expected truncated document to end with an ellipsis marker")
	}
}

func TestPackOmitsSensitiveEntityKeys(t *testing.T) {
	in := Input{
		Entities: []storage.Entity{
			{ID: "e1", Label: "Person", Properties: map[string]interface{}{
				"name":              "Alice",
				storage.PropEmbedding:  []float32{0.1, 0.2},
				storage.PropSimilarity: 0.91,
				storage.PropScopeID:    "tenant-1",
			}},
		},
	}

	packed := Pack(in)

	for _, forbidden := range []string{storage.PropEmbedding, storage.PropSimilarity, storage.PropScopeID} {
		if strings.Contains(packed.Text, forbidden+":") {
			t.Errorf("packed text leaked protected key %q: %q", forbidden, packed.Text)
		}
	}
}

func TestPackCapsPropertiesPerEntity(t *testing.T) {
	props := map[string]interface{}{"name": "Alice"}
	for i := 0; i < 20; i++ {
		props[strings.Repeat("k", i+1)] = i
	}
	in := Input{Entities: []storage.Entity{{ID: "e1", Label: "Person", Properties: props}}}

	packed := Pack(in)

	line := strings.SplitN(packed.Text, "\n", 2)[0]
	if got := strings.Count(line, ": ") - 1; got > maxPropertiesPerEntity {
		t.Errorf("entity line has %d properties, want <= %d: %q", got, maxPropertiesPerEntity, line)
	}
}

func TestPackUsesEntityNamesInRelationships(t *testing.T) {
	in := Input{
		Entities: []storage.Entity{
			{ID: "e1", Label: "Person", Properties: map[string]interface{}{"name": "Alice"}},
			{ID: "e2", Label: "Company", Properties: map[string]interface{}{"title": "Acme Corp"}},
		},
		Relationships: []storage.Relationship{
			{ID: "r1", Type: "WORKS_FOR", From: "e1", To: "e2"},
		},
	}

	packed := Pack(in)

	if !strings.Contains(packed.Text, "Alice --[WORKS_FOR]--> Acme Corp") {
		t.Errorf("expected relationship line to use entity names, got: %q", packed.Text)
	}
}
