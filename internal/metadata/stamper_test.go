package metadata

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 30, 12, 0, 0, 0, time.UTC)
}

func TestStampGeneratesContextIDWhenUnset(t *testing.T) {
	s := New("tenant-1", fixedNow)
	stamp := s.Stamp(Options{})
	if len(stamp.ContextIDs) != 1 || stamp.ContextIDs[0] == "" {
		t.Fatalf("expected a generated context id, got %+v", stamp.ContextIDs)
	}
}

func TestStampUsesSuppliedContextID(t *testing.T) {
	s := New("tenant-1", fixedNow)
	stamp := s.Stamp(Options{ContextID: "c1"})
	if len(stamp.ContextIDs) != 1 || stamp.ContextIDs[0] != "c1" {
		t.Fatalf("expected contextIds to be [c1], got %+v", stamp.ContextIDs)
	}
	if stamp.ScopeID != "tenant-1" {
		t.Errorf("expected scopeId tenant-1, got %q", stamp.ScopeID)
	}
	if !stamp.RecordedAt.Equal(fixedNow()) {
		t.Errorf("expected recordedAt to use the injected clock, got %v", stamp.RecordedAt)
	}
}

func TestNewContextIDProducesDistinctValues(t *testing.T) {
	a := NewContextID()
	b := NewContextID()
	if a == b {
		t.Error("expected two calls to NewContextID to differ")
	}
}

func TestPropertiesOmitsUnsetTemporalFields(t *testing.T) {
	stamp := New("tenant-1", fixedNow).Stamp(Options{ContextID: "c1"})
	props := stamp.Properties()

	if _, ok := props["_validFrom"]; ok {
		t.Error("expected _validFrom to be absent when unset")
	}
	if _, ok := props["_validTo"]; ok {
		t.Error("expected _validTo to be absent when unset")
	}
	if props["scopeId"] != "tenant-1" {
		t.Errorf("expected scopeId tenant-1, got %v", props["scopeId"])
	}
}

func TestPropertiesIncludesSetTemporalFields(t *testing.T) {
	from := fixedNow().Add(-24 * time.Hour)
	to := fixedNow().Add(24 * time.Hour)
	stamp := New("tenant-1", fixedNow).Stamp(Options{ContextID: "c1", ValidFrom: &from, ValidTo: &to})
	props := stamp.Properties()

	if v, ok := props["_validFrom"]; !ok || v == "" {
		t.Error("expected _validFrom to be present")
	}
	if v, ok := props["_validTo"]; !ok || v == "" {
		t.Error("expected _validTo to be present")
	}
}

func TestValidateWindowAllowsUnsetBounds(t *testing.T) {
	if !ValidateWindow(nil, nil) {
		t.Error("expected nil/nil to be valid")
	}
	now := fixedNow()
	if !ValidateWindow(&now, nil) {
		t.Error("expected only validFrom set to be valid")
	}
	if !ValidateWindow(nil, &now) {
		t.Error("expected only validTo set to be valid")
	}
}

func TestValidateWindowRejectsFromAfterTo(t *testing.T) {
	from := fixedNow()
	to := fixedNow().Add(-time.Hour)
	if ValidateWindow(&from, &to) {
		t.Error("expected validFrom after validTo to be invalid")
	}
}

func TestValidateWindowAllowsEqualBounds(t *testing.T) {
	from := fixedNow()
	to := fixedNow()
	if !ValidateWindow(&from, &to) {
		t.Error("expected equal validFrom/validTo to be valid")
	}
}
