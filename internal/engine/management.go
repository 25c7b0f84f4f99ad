package engine

import (
	"context"

	"github.com/madeindigio/graphrag/internal/storage"
)

// FindEntity looks up one entity by id within this engine's scope.
func (e *Engine) FindEntity(ctx context.Context, id string) (*storage.Entity, error) {
	return e.store.FindEntityByID(ctx, id, e.scopeID)
}

// FindDocument looks up one document by id within this engine's scope.
func (e *Engine) FindDocument(ctx context.Context, id string) (*storage.Document, error) {
	return e.store.FindDocumentByID(ctx, id, e.scopeID)
}

// FindRelationship looks up one relationship by id within this engine's
// scope.
func (e *Engine) FindRelationship(ctx context.Context, id string) (*storage.Relationship, error) {
	return e.store.FindRelationshipByID(ctx, id, e.scopeID)
}

// ListEntities returns entities matching f, scoped to this engine.
func (e *Engine) ListEntities(ctx context.Context, f storage.ListFilter) ([]storage.Entity, error) {
	f.ScopeID = e.scopeID
	return e.store.ListEntities(ctx, f)
}

// ListDocuments returns documents matching f, scoped to this engine.
func (e *Engine) ListDocuments(ctx context.Context, f storage.ListFilter) ([]storage.Document, error) {
	f.ScopeID = e.scopeID
	return e.store.ListDocuments(ctx, f)
}

// ListRelationships returns relationships matching f, scoped to this
// engine.
func (e *Engine) ListRelationships(ctx context.Context, f storage.ListFilter) ([]storage.Relationship, error) {
	f.ScopeID = e.scopeID
	return e.store.ListRelationships(ctx, f)
}

// UpdateEntity applies patch to an entity after stripping protected
// fields.
func (e *Engine) UpdateEntity(ctx context.Context, id string, patch map[string]interface{}) (*storage.Entity, error) {
	return e.store.UpdateEntity(ctx, id, e.scopeID, storage.FilterProtectedEntityFields(patch))
}

// UpdateDocument applies patch to a document after stripping protected
// fields.
func (e *Engine) UpdateDocument(ctx context.Context, id string, patch map[string]interface{}) (*storage.Document, error) {
	return e.store.UpdateDocument(ctx, id, e.scopeID, storage.FilterProtectedDocumentFields(patch))
}

// UpdateRelationship applies patch to a relationship after stripping
// protected fields.
func (e *Engine) UpdateRelationship(ctx context.Context, id string, patch map[string]interface{}) (*storage.Relationship, error) {
	return e.store.UpdateRelationship(ctx, id, e.scopeID, storage.FilterProtectedRelationshipFields(patch))
}

// DeleteResult mirrors the spec's never-throw delete contract.
type DeleteResult struct {
	Deleted bool
	Message string
}

// DeleteEntity removes an entity, cascading its incident relationships.
func (e *Engine) DeleteEntity(ctx context.Context, id string) DeleteResult {
	if err := e.store.DeleteEntity(ctx, id, e.scopeID); err != nil {
		return DeleteResult{Deleted: false, Message: err.Error()}
	}
	return DeleteResult{Deleted: true}
}

// DeleteDocument removes a document, cascading its CONTAINS_ENTITY edges.
func (e *Engine) DeleteDocument(ctx context.Context, id string) DeleteResult {
	if err := e.store.DeleteDocument(ctx, id, e.scopeID); err != nil {
		return DeleteResult{Deleted: false, Message: err.Error()}
	}
	return DeleteResult{Deleted: true}
}

// DeleteRelationship removes a single relationship.
func (e *Engine) DeleteRelationship(ctx context.Context, id string) DeleteResult {
	if err := e.store.DeleteRelationship(ctx, id, e.scopeID); err != nil {
		return DeleteResult{Deleted: false, Message: err.Error()}
	}
	return DeleteResult{Deleted: true}
}
