package engine

import (
	"context"
	"fmt"

	"github.com/madeindigio/graphrag/internal/storage"
	"github.com/madeindigio/graphrag/pkg/idgen"
)

// fakeStore is an in-memory storage.Provider used to exercise the engine
// orchestration without a real database.
type fakeStore struct {
	documents     map[string]storage.Document
	entities      map[string]storage.Entity
	relationships map[string]storage.Relationship
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		documents:     make(map[string]storage.Document),
		entities:      make(map[string]storage.Entity),
		relationships: make(map[string]storage.Relationship),
	}
}

func (s *fakeStore) Connect(ctx context.Context) error              { return nil }
func (s *fakeStore) Disconnect(ctx context.Context) error           { return nil }
func (s *fakeStore) EnsureVectorIndex(ctx context.Context, d int) error { return nil }
func (s *fakeStore) Ping(ctx context.Context) error                 { return nil }

func (s *fakeStore) CreateDocument(ctx context.Context, properties map[string]interface{}, embedding []float32) (*storage.Document, error) {
	id := idgen.New()
	props := cloneProps(properties)
	props[storage.PropEmbedding] = embedding
	doc := storage.Document{ID: id, Text: fmt.Sprint(props["text"]), Properties: props}
	s.documents[id] = doc
	return &doc, nil
}

func (s *fakeStore) FindDocumentByText(ctx context.Context, text, scopeID string) (*storage.Document, error) {
	for _, d := range s.documents {
		if d.Text == text && storage.ScopeIDOf(d.Properties) == scopeID {
			out := d
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateDocumentContextIDs(ctx context.Context, id, contextID string) (*storage.Document, error) {
	d, ok := s.documents[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	d.Properties[storage.PropContextIDs] = storage.AddContextID(storage.ContextIDsOf(d.Properties), contextID)
	s.documents[id] = d
	out := d
	return &out, nil
}

func (s *fakeStore) FindDocumentsByVector(ctx context.Context, q storage.VectorQuery) ([]storage.Document, error) {
	var candidates []storage.Document
	for _, d := range s.documents {
		candidates = append(candidates, d)
	}
	ranked := storage.RankByCosine(candidates, q.Embedding, q.Threshold, q.Limit, func(d storage.Document) []float32 {
		return storage.ToFloat32(d.Properties[storage.PropEmbedding])
	})
	out := make([]storage.Document, 0, len(ranked))
	for _, sr := range ranked {
		d := sr.Row
		if q.ScopeID != "" && storage.ScopeIDOf(d.Properties) != q.ScopeID {
			continue
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(d.Properties), q.Contexts) {
			continue
		}
		d.Properties[storage.PropSimilarity] = sr.Similarity
		out = append(out, d)
	}
	return out, nil
}

func (s *fakeStore) FindDocumentByID(ctx context.Context, id, scopeID string) (*storage.Document, error) {
	d, ok := s.documents[id]
	if !ok || (scopeID != "" && storage.ScopeIDOf(d.Properties) != scopeID) {
		return nil, storage.ErrNotFound
	}
	out := d
	return &out, nil
}

func (s *fakeStore) UpdateDocument(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Document, error) {
	d, ok := s.documents[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	for k, v := range patch {
		d.Properties[k] = v
	}
	s.documents[id] = d
	out := d
	return &out, nil
}

func (s *fakeStore) DeleteDocument(ctx context.Context, id, scopeID string) error {
	if _, ok := s.documents[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.documents, id)
	for rid, r := range s.relationships {
		if r.Type == storage.ContainsEntityType && r.From == id {
			delete(s.relationships, rid)
		}
	}
	return nil
}

func (s *fakeStore) ListDocuments(ctx context.Context, f storage.ListFilter) ([]storage.Document, error) {
	var out []storage.Document
	for _, d := range s.documents {
		if storage.ScopeIDOf(d.Properties) == f.ScopeID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *fakeStore) CreateEntities(ctx context.Context, entities []storage.Entity, embeddings [][]float32, scopeID string) ([]storage.Entity, error) {
	out := make([]storage.Entity, 0, len(entities))
	for i, e := range entities {
		id := idgen.New()
		props := cloneProps(e.Properties)
		props[storage.PropEmbedding] = embeddings[i]
		ent := storage.Entity{ID: id, Label: e.Label, Properties: props}
		s.entities[id] = ent
		out = append(out, ent)
	}
	return out, nil
}

func (s *fakeStore) FindEntityByName(ctx context.Context, name, scopeID string) (*storage.Entity, error) {
	for _, e := range s.entities {
		if storage.NameOf(e.Properties) == name && storage.ScopeIDOf(e.Properties) == scopeID {
			out := e
			return &out, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) UpdateEntityContextIDs(ctx context.Context, id, contextID string) (*storage.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	e.Properties[storage.PropContextIDs] = storage.AddContextID(storage.ContextIDsOf(e.Properties), contextID)
	s.entities[id] = e
	out := e
	return &out, nil
}

func (s *fakeStore) FindEntitiesByVector(ctx context.Context, q storage.VectorQuery) ([]storage.Entity, error) {
	var candidates []storage.Entity
	for _, e := range s.entities {
		candidates = append(candidates, e)
	}
	ranked := storage.RankByCosine(candidates, q.Embedding, q.Threshold, q.Limit, func(e storage.Entity) []float32 {
		return storage.ToFloat32(e.Properties[storage.PropEmbedding])
	})
	out := make([]storage.Entity, 0, len(ranked))
	for _, sr := range ranked {
		e := sr.Row
		if q.ScopeID != "" && storage.ScopeIDOf(e.Properties) != q.ScopeID {
			continue
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(e.Properties), q.Contexts) {
			continue
		}
		e.Properties[storage.PropSimilarity] = sr.Similarity
		out = append(out, e)
	}
	return out, nil
}

func (s *fakeStore) FindEntityByID(ctx context.Context, id, scopeID string) (*storage.Entity, error) {
	e, ok := s.entities[id]
	if !ok || (scopeID != "" && storage.ScopeIDOf(e.Properties) != scopeID) {
		return nil, storage.ErrNotFound
	}
	out := e
	return &out, nil
}

func (s *fakeStore) UpdateEntity(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Entity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	for k, v := range patch {
		e.Properties[k] = v
	}
	s.entities[id] = e
	out := e
	return &out, nil
}

func (s *fakeStore) DeleteEntity(ctx context.Context, id, scopeID string) error {
	if _, ok := s.entities[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.entities, id)
	for rid, r := range s.relationships {
		if r.From == id || r.To == id {
			delete(s.relationships, rid)
		}
	}
	return nil
}

func (s *fakeStore) ListEntities(ctx context.Context, f storage.ListFilter) ([]storage.Entity, error) {
	var out []storage.Entity
	for _, e := range s.entities {
		if storage.ScopeIDOf(e.Properties) != f.ScopeID {
			continue
		}
		if len(f.Labels) > 0 && !containsStr(f.Labels, e.Label) {
			continue
		}
		if !storage.ContextsMatch(storage.ContextIDsOf(e.Properties), f.Contexts) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func (s *fakeStore) CreateRelationships(ctx context.Context, rels []storage.Relationship, scopeID string) ([]storage.Relationship, error) {
	out := make([]storage.Relationship, 0, len(rels))
	for _, r := range rels {
		id := idgen.New()
		rel := storage.Relationship{ID: id, Type: r.Type, From: r.From, To: r.To, Properties: cloneProps(r.Properties)}
		s.relationships[id] = rel
		out = append(out, rel)
	}
	return out, nil
}

func (s *fakeStore) LinkEntityToDocument(ctx context.Context, docID, entityID, scopeID string) (*storage.Relationship, error) {
	for _, r := range s.relationships {
		if r.Type == storage.ContainsEntityType && r.From == docID && r.To == entityID {
			out := r
			return &out, nil
		}
	}
	id := idgen.New()
	rel := storage.Relationship{ID: id, Type: storage.ContainsEntityType, From: docID, To: entityID, Properties: map[string]interface{}{storage.PropScopeID: scopeID}}
	s.relationships[id] = rel
	return &rel, nil
}

func (s *fakeStore) EntitiesForDocument(ctx context.Context, docID, scopeID string) ([]storage.Entity, error) {
	var out []storage.Entity
	for _, r := range s.relationships {
		if r.Type == storage.ContainsEntityType && r.From == docID {
			if e, ok := s.entities[r.To]; ok {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (s *fakeStore) FindRelationshipByID(ctx context.Context, id, scopeID string) (*storage.Relationship, error) {
	r, ok := s.relationships[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := r
	return &out, nil
}

func (s *fakeStore) UpdateRelationship(ctx context.Context, id, scopeID string, patch map[string]interface{}) (*storage.Relationship, error) {
	r, ok := s.relationships[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	for k, v := range patch {
		r.Properties[k] = v
	}
	s.relationships[id] = r
	out := r
	return &out, nil
}

func (s *fakeStore) DeleteRelationship(ctx context.Context, id, scopeID string) error {
	if _, ok := s.relationships[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.relationships, id)
	return nil
}

func (s *fakeStore) ListRelationships(ctx context.Context, f storage.ListFilter) ([]storage.Relationship, error) {
	var out []storage.Relationship
	for _, r := range s.relationships {
		if storage.ScopeIDOf(r.Properties) == f.ScopeID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) RetrieveSubgraph(ctx context.Context, q storage.SubgraphQuery) (*storage.Subgraph, error) {
	if err := storage.ValidateMaxDepth(q.MaxDepth); err != nil {
		return nil, err
	}
	visitedEntities := make(map[string]storage.Entity)
	visitedRels := make(map[string]storage.Relationship)
	frontier := append([]string{}, q.StartIDs...)
	seen := make(map[string]bool)
	for _, id := range frontier {
		seen[id] = true
	}

	for depth := 0; depth < q.MaxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, r := range s.relationships {
			if r.Type == storage.ContainsEntityType {
				continue
			}
			if q.ScopeID != "" && storage.ScopeIDOf(r.Properties) != q.ScopeID {
				continue
			}
			touches := false
			for _, id := range frontier {
				if r.From == id || r.To == id {
					touches = true
					break
				}
			}
			if !touches {
				continue
			}
			visitedRels[r.ID] = r
			for _, candidate := range []string{r.From, r.To} {
				if !seen[candidate] {
					seen[candidate] = true
					next = append(next, candidate)
				}
			}
		}
		frontier = next
	}

	for _, r := range visitedRels {
		for _, id := range []string{r.From, r.To} {
			if e, ok := s.entities[id]; ok {
				visitedEntities[id] = e
			}
		}
	}

	out := &storage.Subgraph{}
	for _, e := range visitedEntities {
		out.Entities = append(out.Entities, e)
	}
	for _, r := range visitedRels {
		out.Relationships = append(out.Relationships, r)
	}
	return out, nil
}

func cloneProps(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
