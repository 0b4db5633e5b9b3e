package types

import (
	"testing"
	"time"
)

func TestBaseEvent(t *testing.T) {
	evt := NewBaseEvent(EventTypeHostReset)

	if evt.Type() != EventTypeHostReset {
		t.Errorf("Type() = %q, want %q", evt.Type(), EventTypeHostReset)
	}
	if evt.Timestamp().IsZero() {
		t.Error("Timestamp() is zero")
	}
	if time.Since(evt.Timestamp()) > time.Second {
		t.Error("Timestamp() is too old")
	}
}

func TestDisconnectReason_String(t *testing.T) {
	tests := []struct {
		reason DisconnectReason
		want   string
	}{
		{DisconnectReasonGraceful, "graceful"},
		{DisconnectReasonTimeout, "timeout"},
		{DisconnectReasonError, "error"},
		{DisconnectReasonLocal, "local"},
		{DisconnectReasonUnknown, "unknown"},
		{DisconnectReason(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.reason.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.reason, got, tt.want)
		}
	}
}

func TestConnID(t *testing.T) {
	a, b := NewConnID(), NewConnID()
	if a == b {
		t.Fatal("NewConnID() returned duplicate ids")
	}
	if len(a.ShortString()) != 8 {
		t.Errorf("ShortString() = %q, want 8 chars", a.ShortString())
	}
	if ConnID("abc").ShortString() != "abc" {
		t.Error("ShortString() should keep short ids")
	}
}
