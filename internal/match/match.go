// Package match implements the pair-of-clients match table (§4.3): a match
// is identified implicitly by its two participants, carries a
// request-creation timestamp and an awaiting-reply flag, and is destroyed
// by deletion rather than reference counting — per spec.md §9's guidance,
// ownership runs through the table (Match is data, Client.MatchID is a weak
// id reference back to it), avoiding a client/match ownership cycle.
package match

import (
	"time"

	"battleship/internal/registry"
)

// Match is a pair-of-clients record. Player1 is the inviter (issued
// REQ_PLAY), Player2 the invitee.
type Match struct {
	ID            uint64
	Player1       *registry.Client
	Player2       *registry.Client
	AwaitingReply bool
	RequestTime   time.Time
}

// Other returns the participant that is not c, or nil if c is not in m.
func (m *Match) Other(c *registry.Client) *registry.Client {
	switch c.Handle {
	case m.Player1.Handle:
		return m.Player2
	case m.Player2.Handle:
		return m.Player1
	default:
		return nil
	}
}

// IsInviter reports whether c is the match's inviter (player1).
func (m *Match) IsInviter(c *registry.Client) bool { return c.Handle == m.Player1.Handle }

// Table owns every match, live or awaiting reply, indexed by id.
type Table struct {
	byID   map[uint64]*Match
	nextID uint64
}

// New returns an empty match table.
func New() *Table {
	return &Table{byID: make(map[uint64]*Match)}
}

// Add creates a new awaiting-reply match between p1 (inviter) and p2
// (invitee), stamped with now, and records the weak reference on both
// clients. Callers must already have checked that neither client is in a
// match (§4.4's REQ_PLAY validity rules).
func (t *Table) Add(p1, p2 *registry.Client, now time.Time) *Match {
	t.nextID++
	m := &Match{ID: t.nextID, Player1: p1, Player2: p2, AwaitingReply: true, RequestTime: now}
	t.byID[m.ID] = m
	p1.MatchID = m.ID
	p2.MatchID = m.ID
	return m
}

// Get returns the match with the given id, or nil if none.
func (t *Table) Get(id uint64) *Match {
	if id == 0 {
		return nil
	}
	return t.byID[id]
}

// Delete clears the match reference on both players and releases the
// record. Safe to call with nil.
func (t *Table) Delete(m *Match) {
	if m == nil {
		return
	}
	m.Player1.MatchID = 0
	m.Player2.MatchID = 0
	delete(t.byID, m.ID)
}

// MarkLive flips a match from awaiting-reply to live (on an accepting
// REQ_PLAY_ANS).
func (m *Match) MarkLive() { m.AwaitingReply = false }

// Expired returns every still-awaiting-reply match whose age is >= timeout
// as of now. Callers are responsible for notifying both players and then
// calling Delete for each returned match.
func (t *Table) Expired(now time.Time, timeout time.Duration) []*Match {
	var out []*Match
	for _, m := range t.byID {
		if m.AwaitingReply && now.Sub(m.RequestTime) >= timeout {
			out = append(out, m)
		}
	}
	return out
}

// Count returns the number of live or awaiting-reply matches.
func (t *Table) Count() int { return len(t.byID) }
