// Package player implements the client-side multiplexed event loop and
// game state machine (spec.md §4.5/§4.6): the reactor that merges standard
// input, the control channel to the server, and the peer datagram channel,
// and the state machine that sequences login → idle → invitation →
// ship-placement → alternating turns → end.
package player

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"time"

	"battleship/internal/board"
	"battleship/internal/render"
	"battleship/internal/wire"
)

// Defaults per spec.md §5.
const (
	DefaultSelectTimeout = 3 * time.Second
	DefaultInGameTimeout = 60 * time.Second
)

// Peer is the other player's reachable address, learned from ANS_PLAY.
type Peer struct {
	IP   net.IP
	Port uint16
}

func (p Peer) valid() bool { return p.IP != nil }

func (p Peer) matches(addr *net.UDPAddr) bool {
	return addr != nil && p.valid() && addr.IP.Equal(p.IP) && addr.Port == int(p.Port)
}

type pendingInvite struct {
	from string
}

type evKind int

const (
	evStdin evKind = iota
	evFrame
	evControlClosed
	evDatagram
	evTick
)

type revent struct {
	kind evKind
	line string
	frame wire.Frame
	err   error
	data  []byte
	from  *net.UDPAddr
}

// Config carries tunables; zero values fall back to spec.md defaults.
type Config struct {
	SelectTimeout time.Duration
	InGameTimeout time.Duration
	Rows, Cols    int
	ShipCount     int
}

func (c Config) withDefaults() Config {
	if c.SelectTimeout <= 0 {
		c.SelectTimeout = DefaultSelectTimeout
	}
	if c.InGameTimeout <= 0 {
		c.InGameTimeout = DefaultInGameTimeout
	}
	if c.Rows <= 0 {
		c.Rows = board.DefaultRows
	}
	if c.Cols <= 0 {
		c.Cols = board.DefaultCols
	}
	if c.ShipCount <= 0 {
		c.ShipCount = board.DefaultShipCount
	}
	return c
}

// Reactor is one running client session: the control connection, the
// bound gameplay UDP socket, and the game state machine. Not safe for
// concurrent use from outside Run's dispatch goroutine.
type Reactor struct {
	cfg      Config
	conn     net.Conn
	udp      *net.UDPConn
	renderer render.Renderer
	username string

	events chan revent

	state         State
	isInvitee     bool
	peer          Peer
	ownBoard      *board.Board
	oppBoard      *board.Board
	shipsPlaced   int
	readyReceived bool
	lastShot      [2]int
	lastActivity  time.Time
	pendingInvite *pendingInvite
	quitRequested bool
}

// New returns a Reactor for an already-logged-in connection. Input lines
// are supplied later, through Run's stdin argument.
func New(conn net.Conn, udp *net.UDPConn, username string, renderer render.Renderer, cfg Config) *Reactor {
	return &Reactor{
		cfg:      cfg.withDefaults(),
		conn:     conn,
		udp:      udp,
		renderer: renderer,
		username: username,
		events:   make(chan revent, 32),
		state:    GameDisconnected,
	}
}

// Run drives the reactor until ctx is canceled, the user quits, or the
// control connection closes. stdin supplies interactive input lines.
func (r *Reactor) Run(ctx context.Context, stdin io.Reader) error {
	go r.stdinLoop(ctx, stdin)
	go r.controlLoop(ctx)
	go r.datagramLoop(ctx)

	ticker := time.NewTicker(r.cfg.SelectTimeout)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case r.events <- revent{kind: evTick}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	r.touch()
	r.maybePrompt()

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case ev := <-r.events:
			switch ev.kind {
			case evStdin:
				r.touch()
				r.handleStdin(ev.line)
			case evFrame:
				r.touch()
				r.handleControlFrame(ev.frame)
			case evControlClosed:
				runErr = ev.err
				break loop
			case evDatagram:
				r.touch()
				r.handleDatagram(ev.data, ev.from)
			case evTick:
				r.handleTick()
			}
			if r.quitRequested {
				break loop
			}
			r.maybePrompt()
		}
	}

	r.conn.Close()
	return runErr
}

func (r *Reactor) stdinLoop(ctx context.Context, stdin io.Reader) {
	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		select {
		case r.events <- revent{kind: evStdin, line: sc.Text()}:
		case <-ctx.Done():
			return
		}
	}
	// stdin closed: treat as a request to quit, matching the original's
	// behavior of exiting cleanly on EOF at the prompt.
	select {
	case r.events <- revent{kind: evStdin, line: "!quit"}:
	case <-ctx.Done():
	}
}

func (r *Reactor) controlLoop(ctx context.Context) {
	for {
		f, err := wire.ReadFrame(r.conn)
		if err != nil {
			select {
			case r.events <- revent{kind: evControlClosed, err: err}:
			case <-ctx.Done():
			}
			return
		}
		select {
		case r.events <- revent{kind: evFrame, frame: f}:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reactor) datagramLoop(ctx context.Context) {
	buf := make([]byte, 65536)
	for {
		n, addr, err := r.udp.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			log.Printf("[player] datagram read error: %v", err)
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		select {
		case r.events <- revent{kind: evDatagram, data: data, from: addr}:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Reactor) sendControl(f wire.Frame) {
	if err := wire.WriteFrame(r.conn, f); err != nil {
		log.Printf("[player] control write error: %v", err)
	}
}

func (r *Reactor) sendPeer(f wire.Frame) {
	if !r.peer.valid() {
		return
	}
	addr := &net.UDPAddr{IP: r.peer.IP, Port: int(r.peer.Port)}
	if _, err := r.udp.WriteToUDP(f.Encode(), addr); err != nil {
		log.Printf("[player] peer datagram write error: %v", err)
	}
}

func decodeDatagram(data []byte) (wire.Frame, error) {
	return wire.ReadFrame(bytes.NewReader(data))
}

func (r *Reactor) touch() { r.lastActivity = time.Now() }

func (r *Reactor) maybePrompt() {
	prefix, show := r.state.prompt()
	if show {
		r.renderer.Prompt(prefix)
	}
}

func (r *Reactor) resetToDisconnected() {
	r.state = GameDisconnected
	r.isInvitee = false
	r.peer = Peer{}
	r.ownBoard = nil
	r.oppBoard = nil
	r.shipsPlaced = 0
	r.readyReceived = false
}

func (r *Reactor) resetBoards() {
	r.ownBoard = board.New(r.cfg.Rows, r.cfg.Cols)
	r.oppBoard = board.New(r.cfg.Rows, r.cfg.Cols)
	r.shipsPlaced = 0
	r.readyReceived = false
}

func (r *Reactor) abortMatch(reason string) {
	r.renderer.Error(errAbort(reason))
	r.sendControl(wire.EncodeMsgEndgame(false))
	r.resetToDisconnected()
}
