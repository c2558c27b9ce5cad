// Package registry owns the authoritative set of connected Battleship
// clients and provides lookup by connection handle and by username.
//
// A Registry is not internally synchronized: like the teacher's Room, it
// holds shared lobby state, but here that state is owned exclusively by
// the single dispatch goroutine in internal/lobby (see that package's
// doc comment), so no mutex is needed — mirroring spec.md §9's guidance
// to encapsulate registry state in an explicit context rather than reach
// for global, lock-protected state.
package registry

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"battleship/internal/wire"
)

// Conn is the minimal control-channel handle a Client needs: something to
// write frames to and close on eviction. net.Conn satisfies it.
type Conn interface {
	Write(p []byte) (int, error)
	Close() error
}

// Client is one connected player. Username == "" means "connected but not
// yet logged in" (§3). MatchID is a weak reference (an id, not a pointer)
// into the match table, per spec.md §9's guidance to avoid shared
// ownership between the client/match cycle.
type Client struct {
	Handle   uint64
	Username string
	Conn     Conn
	Addr     net.IP
	UDPPort  uint16
	MatchID  uint64 // 0 == not in a match
}

// LoggedIn reports whether the client has completed REQ_LOGIN.
func (c *Client) LoggedIn() bool { return c.Username != "" }

// InMatch reports whether the client currently references a match.
func (c *Client) InMatch() bool { return c.MatchID != 0 }

var errDuplicateName = errors.New("registry: username already in use")
var errInvalidName = errors.New("registry: invalid username")

// Registry indexes connected clients by handle and, once logged in, by
// case-insensitive username.
type Registry struct {
	byHandle   map[uint64]*Client
	byName     map[string]*Client // key: strings.ToLower(username)
	nextHandle uint64
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byHandle: make(map[uint64]*Client),
		byName:   make(map[string]*Client),
	}
}

// Add registers a newly accepted connection and returns its record. The
// record starts logged out (Username == "").
func (r *Registry) Add(conn Conn, addr net.IP) *Client {
	r.nextHandle++
	c := &Client{Handle: r.nextHandle, Conn: conn, Addr: addr}
	r.byHandle[c.Handle] = c
	return c
}

// ValidUsername reports whether name satisfies the length and character-set
// constraints of §4.2: length in [MinUsernameLength, MaxUsernameLength],
// every character alphanumeric or underscore.
func ValidUsername(name string) bool {
	if len(name) < wire.MinUsernameLength || len(name) > wire.MaxUsernameLength {
		return false
	}
	for _, c := range name {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}

// Login attempts to log c in as name with the given declared UDP port. It
// fails if the name is invalid or already taken by a different client
// (case-insensitive comparison, matching the source's strcasecmp rule).
func (r *Registry) Login(c *Client, name string, udpPort uint16) error {
	if !ValidUsername(name) {
		return errInvalidName
	}
	key := strings.ToLower(name)
	if existing, ok := r.byName[key]; ok && existing != c {
		return errDuplicateName
	}
	c.Username = name
	c.UDPPort = udpPort
	r.byName[key] = c
	return nil
}

// IsInvalidName reports whether err is the invalid-username failure from Login.
func IsInvalidName(err error) bool { return errors.Is(err, errInvalidName) }

// IsDuplicateName reports whether err is the name-in-use failure from Login.
func IsDuplicateName(err error) bool { return errors.Is(err, errDuplicateName) }

// Remove unregisters c from both indices. Callers must have already torn
// down any match the client was in (internal/lobby does this via the match
// table before calling Remove), per the invariant that a match's lifetime
// never outlives either referenced client record.
func (r *Registry) Remove(c *Client) {
	delete(r.byHandle, c.Handle)
	if c.LoggedIn() {
		delete(r.byName, strings.ToLower(c.Username))
	}
}

// ByHandle looks up a client by connection handle.
func (r *Registry) ByHandle(handle uint64) (*Client, bool) {
	c, ok := r.byHandle[handle]
	return c, ok
}

// ByName looks up a logged-in client by case-insensitive username.
func (r *Registry) ByName(name string) (*Client, bool) {
	c, ok := r.byName[strings.ToLower(name)]
	return c, ok
}

// IterLogged returns every logged-in client, ordered by case-insensitive
// username, so that REQ_WHO output is stable across calls.
func (r *Registry) IterLogged() []*Client {
	out := make([]*Client, 0, len(r.byName))
	for _, c := range r.byName {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Username) < strings.ToLower(out[j].Username)
	})
	return out
}

// CountLogged returns the number of logged-in clients, which must always
// equal the cardinality of the name index (§8).
func (r *Registry) CountLogged() int { return len(r.byName) }

// MaxHandle returns the highest handle ever assigned (0 if none).
func (r *Registry) MaxHandle() uint64 { return r.nextHandle }

// All returns every connected client, logged in or not. Order is
// unspecified; callers that need determinism should sort.
func (r *Registry) All() []*Client {
	out := make([]*Client, 0, len(r.byHandle))
	for _, c := range r.byHandle {
		out = append(out, c)
	}
	return out
}

// String aids debugging/logging.
func (c *Client) String() string {
	if c == nil {
		return "<nil>"
	}
	if !c.LoggedIn() {
		return fmt.Sprintf("client#%d(not logged in)", c.Handle)
	}
	return fmt.Sprintf("client#%d(%s)", c.Handle, c.Username)
}
