// Package metadata produces the system-managed fields that every stored
// node and edge carries: scopeId, contextIds, and the temporal trio
// (_recordedAt, _validFrom, _validTo).
package metadata

import (
	"time"

	"github.com/google/uuid"
)

// Stamp is the system metadata attached to every Entity, Document, and
// Relationship at creation/update time.
type Stamp struct {
	ScopeID     string
	ContextIDs  []string
	RecordedAt  time.Time
	ValidFrom   *time.Time
	ValidTo     *time.Time
}

// Options carries the caller-supplied temporal window and context tag
// for a single learn call.
type Options struct {
	ContextID   string
	ValidFrom   *time.Time
	ValidTo     *time.Time
}

// NewContextID generates a fresh context identifier when the caller
// does not supply one.
func NewContextID() string {
	return uuid.NewString()
}

// Stamper produces Stamp values for a fixed scope.
type Stamper struct {
	ScopeID string
	Now     func() time.Time
}

// New builds a Stamper bound to scopeID. now defaults to time.Now.
func New(scopeID string, now func() time.Time) *Stamper {
	if now == nil {
		now = time.Now
	}
	return &Stamper{ScopeID: scopeID, Now: now}
}

// Stamp produces the system metadata for a new node/edge, resolving a
// missing contextID to a freshly generated one.
func (s *Stamper) Stamp(opts Options) Stamp {
	contextID := opts.ContextID
	if contextID == "" {
		contextID = NewContextID()
	}
	return Stamp{
		ScopeID:    s.ScopeID,
		ContextIDs: []string{contextID},
		RecordedAt: s.Now(),
		ValidFrom:  opts.ValidFrom,
		ValidTo:    opts.ValidTo,
	}
}

// Properties renders the stamp into a property map ready to merge into
// an Entity/Document/Relationship's properties.
func (s Stamp) Properties() map[string]interface{} {
	props := map[string]interface{}{
		"scopeId":     s.ScopeID,
		"contextIds":  s.ContextIDs,
		"_recordedAt": s.RecordedAt.UTC().Format(time.RFC3339),
	}
	if s.ValidFrom != nil {
		props["_validFrom"] = s.ValidFrom.UTC().Format(time.RFC3339)
	}
	if s.ValidTo != nil {
		props["_validTo"] = s.ValidTo.UTC().Format(time.RFC3339)
	}
	return props
}

// ValidateWindow enforces _validFrom <= _validTo when both are set.
func ValidateWindow(validFrom, validTo *time.Time) bool {
	if validFrom == nil || validTo == nil {
		return true
	}
	return !validFrom.After(*validTo)
}
