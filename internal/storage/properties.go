package storage

import "github.com/spf13/cast"

// Well-known property keys shared by Entity and Document.
const (
	PropScopeID     = "scopeId"
	PropContextIDs  = "contextIds"
	PropRecordedAt  = "_recordedAt"
	PropValidFrom   = "_validFrom"
	PropValidTo     = "_validTo"
	PropEmbedding   = "embedding"
	PropSimilarity  = "_similarity"
	PropName        = "name"
	PropTitle       = "title"
)

// ScopeIDOf reads the scopeId well-known property.
func ScopeIDOf(props map[string]interface{}) string {
	return cast.ToString(props[PropScopeID])
}

// ContextIDsOf reads the contextIds well-known property as a string set.
func ContextIDsOf(props map[string]interface{}) []string {
	return cast.ToStringSlice(props[PropContextIDs])
}

// NameOf resolves an entity's identity property: name, falling back to
// title.
func NameOf(props map[string]interface{}) string {
	if n := cast.ToString(props[PropName]); n != "" {
		return n
	}
	return cast.ToString(props[PropTitle])
}

// AddContextID returns contextIds with contextID added exactly once
// (set-add semantics, no reordering guarantee for existing entries).
func AddContextID(existing []string, contextID string) []string {
	for _, c := range existing {
		if c == contextID {
			return existing
		}
	}
	return append(existing, contextID)
}

// ScrubEmbedding returns a shallow copy of props with the embedding key
// removed, as required of default Learn/Ask responses.
func ScrubEmbedding(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		if k == PropEmbedding {
			continue
		}
		out[k] = v
	}
	return out
}

// StampedScopeID extracts scopeId from an Entity/Document properties
// map, defaulting to an explicit scope when the property is absent.
func StampedScopeID(props map[string]interface{}, fallback string) string {
	if s := ScopeIDOf(props); s != "" {
		return s
	}
	return fallback
}
