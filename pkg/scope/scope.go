// Package scope validates tenant scope identifiers used to isolate data
// between callers of the graph engine.
package scope

import (
	"fmt"
	"regexp"
)

var idRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// Validate reports whether id is a well-formed scope identifier:
// non-empty, ASCII alphanumeric plus '_'/'-', bounded length.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("scope: scopeId is required")
	}
	if !idRe.MatchString(id) {
		return fmt.Errorf("scope: scopeId %q contains invalid characters", id)
	}
	return nil
}
