// Package idgen generates identifiers for newly created documents,
// entities, and relationships.
package idgen

import "github.com/google/uuid"

// New generates a fresh store-agnostic identifier.
func New() string {
	return uuid.NewString()
}
