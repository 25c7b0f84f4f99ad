package idgen

import "testing"

func TestNewProducesNonEmptyID(t *testing.T) {
	if New() == "" {
		t.Error("expected a non-empty id")
	}
}

func TestNewProducesDistinctIDs(t *testing.T) {
	if New() == New() {
		t.Error("expected two calls to New to differ")
	}
}
