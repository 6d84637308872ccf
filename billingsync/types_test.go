package billingsync

import (
	"testing"
)

func TestCursorStateRoundTrip(t *testing.T) {
	state := CursorState{
		Invoices: CursorEntry{
			UpdatedSince: "2026-02-01T00:00:00Z",
			Cursor:       "page-7",
		},
	}
	decoded := DecodeCursorState(EncodeCursorState(state))
	if decoded != state {
		t.Fatalf("round trip changed state: %+v", decoded)
	}
}

func TestDecodeCursorStateTolerant(t *testing.T) {
	if got := DecodeCursorState(nil); got != (CursorState{}) {
		t.Fatalf("nil input: %+v", got)
	}
	if got := DecodeCursorState([]byte("not json")); got != (CursorState{}) {
		t.Fatalf("corrupt input must decode to zero state: %+v", got)
	}
}

func TestEnvBoolDefault(t *testing.T) {
	t.Setenv("BILLING_TEST_FLAG", "")
	if !envBoolDefault("BILLING_TEST_FLAG", true) {
		t.Fatal("empty env must fall back to default")
	}
	t.Setenv("BILLING_TEST_FLAG", "YES")
	if !envBoolDefault("BILLING_TEST_FLAG", false) {
		t.Fatal("yes must parse true")
	}
	t.Setenv("BILLING_TEST_FLAG", "0")
	if envBoolDefault("BILLING_TEST_FLAG", true) {
		t.Fatal("0 must parse false")
	}
	t.Setenv("BILLING_TEST_FLAG", "whatever")
	if envBoolDefault("BILLING_TEST_FLAG", false) {
		t.Fatal("unparseable env must fall back to default")
	}
}
