package extraction

import (
	"errors"
	"strings"
	"testing"
)

func TestParseExtractsEntitiesAndRelationships(t *testing.T) {
	raw := `{"entities":[{"label":"Person","properties":{"name":"Alice"}},{"label":"Company","properties":{"name":"Acme"}}],"relationships":[{"from":"Alice","to":"Acme","type":"WORKS_FOR","properties":{}}]}`

	ex, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ex.Entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(ex.Entities))
	}
	if len(ex.Relationships) != 1 {
		t.Fatalf("expected 1 relationship, got %d", len(ex.Relationships))
	}
}

func TestParseStripsMarkdownFencing(t *testing.T) {
	raw := "Here is the graph:\n```json\n{\"entities\":[{\"label\":\"Person\",\"properties\":{\"name\":\"Alice\"}}],\"relationships\":[]}\n```\nThanks."

	ex, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ex.Entities) != 1 {
		t.Fatalf("expected 1 entity, got %d", len(ex.Entities))
	}
}

func TestParseIsolatesLargestObjectAmidProse(t *testing.T) {
	raw := `Sure, {"ignored": true} but actually here it is: {"entities":[{"label":"Person","properties":{"name":"Bob"}}],"relationships":[]} -- done`

	ex, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ex.Entities) != 1 || ex.Entities[0].Properties["name"] != "Bob" {
		t.Fatalf("expected to isolate the larger object, got %+v", ex.Entities)
	}
}

func TestParseRejectsNoJSONObject(t *testing.T) {
	_, err := Parse("not json at all")
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected a *SchemaError, got %v", err)
	}
}

func TestParseRejectsNonPascalCaseLabel(t *testing.T) {
	raw := `{"entities":[{"label":"person","properties":{"name":"Alice"}}],"relationships":[]}`
	_, err := Parse(raw)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected a *SchemaError for lowercase label, got %v", err)
	}
}

func TestParseRejectsEntityMissingNameAndTitle(t *testing.T) {
	raw := `{"entities":[{"label":"Person","properties":{"age":30}}],"relationships":[]}`
	_, err := Parse(raw)
	if err == nil {
		t.Fatal("expected an error for an entity with neither name nor title")
	}
}

func TestParseRejectsNonUppercaseRelationshipType(t *testing.T) {
	raw := `{"entities":[{"label":"Person","properties":{"name":"Alice"}},{"label":"Company","properties":{"name":"Acme"}}],"relationships":[{"from":"Alice","to":"Acme","type":"works_for"}]}`
	_, err := Parse(raw)
	if err == nil {
		t.Fatal("expected an error for a lowercase relationship type")
	}
}

func TestParseDropsSelfLoopWithWarning(t *testing.T) {
	raw := `{"entities":[{"label":"Person","properties":{"name":"Alice"}}],"relationships":[{"from":"Alice","to":"Alice","type":"KNOWS"}]}`
	ex, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ex.Relationships) != 0 {
		t.Errorf("expected the self-loop to be dropped, got %+v", ex.Relationships)
	}
	if len(ex.Warnings) != 1 || !strings.Contains(ex.Warnings[0], "self-loop") {
		t.Errorf("expected a self-loop warning, got %+v", ex.Warnings)
	}
}

func TestParseDropsIntraCallDuplicateRelationship(t *testing.T) {
	raw := `{"entities":[{"label":"Person","properties":{"name":"Alice"}},{"label":"Company","properties":{"name":"Acme"}}],"relationships":[{"from":"Alice","to":"Acme","type":"WORKS_FOR"},{"from":"Alice","to":"Acme","type":"WORKS_FOR"}]}`
	ex, err := Parse(raw)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(ex.Relationships) != 1 {
		t.Errorf("expected the duplicate to be dropped, got %d relationships", len(ex.Relationships))
	}
	if len(ex.Warnings) != 1 || !strings.Contains(ex.Warnings[0], "duplicate") {
		t.Errorf("expected a duplicate warning, got %+v", ex.Warnings)
	}
}

func TestParseRejectsMissingRelationshipEndpoint(t *testing.T) {
	raw := `{"entities":[{"label":"Person","properties":{"name":"Alice"}}],"relationships":[{"from":"","to":"Acme","type":"WORKS_FOR"}]}`
	_, err := Parse(raw)
	if err == nil {
		t.Fatal("expected an error for a relationship missing its from endpoint")
	}
}
