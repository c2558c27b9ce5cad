package match

import (
	"testing"
	"time"

	"battleship/internal/registry"
)

func newClient(h uint64) *registry.Client {
	return &registry.Client{Handle: h, Username: "u"}
}

func TestAddSetsBothPointersAndDeleteClears(t *testing.T) {
	tbl := New()
	p1, p2 := newClient(1), newClient(2)

	m := tbl.Add(p1, p2, time.Now())
	if p1.MatchID != m.ID || p2.MatchID != m.ID {
		t.Fatalf("expected both clients to reference match %d", m.ID)
	}
	if !m.AwaitingReply {
		t.Fatalf("new match should be awaiting reply")
	}

	tbl.Delete(m)
	if p1.MatchID != 0 || p2.MatchID != 0 {
		t.Fatalf("expected match references cleared after delete")
	}
	if tbl.Get(m.ID) != nil {
		t.Fatalf("expected match gone from table")
	}
}

func TestOtherAndIsInviter(t *testing.T) {
	tbl := New()
	p1, p2 := newClient(1), newClient(2)
	m := tbl.Add(p1, p2, time.Now())

	if m.Other(p1) != p2 || m.Other(p2) != p1 {
		t.Fatalf("Other() mismatch")
	}
	if !m.IsInviter(p1) || m.IsInviter(p2) {
		t.Fatalf("IsInviter mismatch")
	}
}

func TestExpiredAtExactBoundary(t *testing.T) {
	tbl := New()
	p1, p2 := newClient(1), newClient(2)
	start := time.Now().Add(-60 * time.Second)
	m := tbl.Add(p1, p2, start)

	// age == timeout exactly: must be expired (">= PLAY_REQUEST_TIMEOUT").
	expired := tbl.Expired(start.Add(60*time.Second), 60*time.Second)
	if len(expired) != 1 || expired[0] != m {
		t.Fatalf("expected match to be expired at exact boundary, got %v", expired)
	}

	// one second short of the timeout: must not be expired yet.
	stillOpen := tbl.Expired(start.Add(59*time.Second), 60*time.Second)
	if len(stillOpen) != 0 {
		t.Fatalf("expected no expired matches before boundary, got %v", stillOpen)
	}
}

func TestMarkLive(t *testing.T) {
	tbl := New()
	m := tbl.Add(newClient(1), newClient(2), time.Now())
	m.MarkLive()
	if m.AwaitingReply {
		t.Fatalf("expected match to be live after MarkLive")
	}
	// a live match is not subject to request-timeout expiry
	if expired := tbl.Expired(time.Now().Add(time.Hour), time.Second); len(expired) != 0 {
		t.Fatalf("live match should never expire via request timeout")
	}
}
