package ulid

import (
	"encoding/json"
	"testing"
	"time"
)

func TestNew_ProducesParsableUniqueIDs(t *testing.T) {
	a := New()
	b := New()
	if a.String() == b.String() {
		t.Error("two calls to New must not collide")
	}
	if _, err := Parse(a.String()); err != nil {
		t.Errorf("New()'s output must round-trip through Parse: %v", err)
	}
}

func TestNewFromTime_PreservesTimestampComponent(t *testing.T) {
	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	u := NewFromTime(ts)
	if !u.Time().Equal(ts) {
		t.Errorf("expected timestamp %v, got %v", ts, u.Time())
	}
}

func TestIsZero(t *testing.T) {
	var u ULID
	if !u.IsZero() {
		t.Error("zero-valued ULID must report IsZero")
	}
	if New().IsZero() {
		t.Error("a freshly generated ULID must not report IsZero")
	}
}

func TestScanAndValue_RoundTrip(t *testing.T) {
	orig := New()
	v, err := orig.Value()
	if err != nil {
		t.Fatalf("Value() failed: %v", err)
	}

	var scanned ULID
	if err := scanned.Scan(v); err != nil {
		t.Fatalf("Scan() failed: %v", err)
	}
	if scanned.String() != orig.String() {
		t.Errorf("expected %s, got %s", orig.String(), scanned.String())
	}
}

func TestScan_NilValueProducesZero(t *testing.T) {
	var u ULID
	if err := u.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !u.IsZero() {
		t.Error("Scan(nil) must produce a zero-valued ULID")
	}
}

func TestMarshalJSON_RoundTrips(t *testing.T) {
	orig := New()
	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded ULID
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.String() != orig.String() {
		t.Errorf("expected %s, got %s", orig.String(), decoded.String())
	}
}

func TestMustParse_PanicsOnInvalidInput(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected MustParse to panic on an invalid ULID string")
		}
	}()
	MustParse("not-a-ulid")
}
