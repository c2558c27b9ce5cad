package player

import (
	"net"
	"testing"

	"battleship/internal/board"
	"battleship/internal/wire"
)

type fakeRenderer struct {
	lines   []string
	errors  []string
	infos   []string
	prompts []string
}

func (f *fakeRenderer) Board(b *board.Board, title string) { f.lines = append(f.lines, title) }
func (f *fakeRenderer) Prompt(prefix string)                { f.prompts = append(f.prompts, prefix) }
func (f *fakeRenderer) Help(lines []string)                 { f.lines = append(f.lines, lines...) }
func (f *fakeRenderer) Error(err error)                     { f.errors = append(f.errors, err.Error()) }
func (f *fakeRenderer) Info(line string)                    { f.infos = append(f.infos, line) }
func (f *fakeRenderer) Line(line string)                    { f.lines = append(f.lines, line) }

func newTestReactor(t *testing.T) (*Reactor, net.Conn, *fakeRenderer) {
	t.Helper()
	serverSide, clientSide := net.Pipe()
	udp, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { udp.Close(); clientSide.Close(); serverSide.Close() })
	fr := &fakeRenderer{}
	r := New(clientSide, udp, "alice", fr, Config{Rows: 2, Cols: 2, ShipCount: 1})
	return r, serverSide, fr
}

func TestPlaceShipLastOneEntersWaitingAndReportsCompletion(t *testing.T) {
	r, _, fr := newTestReactor(t)
	r.state = GameSetup
	r.ownBoard = board.New(2, 2)
	r.oppBoard = board.New(2, 2)

	r.placeShip("A1")

	if r.state != GameWaiting {
		t.Fatalf("expected GAME_WAITING, got %v", r.state)
	}
	if r.shipsPlaced != 1 {
		t.Fatalf("expected 1 ship placed, got %d", r.shipsPlaced)
	}
	if len(fr.infos) == 0 {
		t.Fatalf("expected an info message on completing placement")
	}
}

func TestHandleAnsPlayAcceptEntersSetup(t *testing.T) {
	r, _, _ := newTestReactor(t)
	f, err := wire.EncodeAnsPlay(wire.PlayAccept, net.ParseIP("127.0.0.1"), 5555)
	if err != nil {
		t.Fatalf("EncodeAnsPlay: %v", err)
	}
	r.handleAnsPlay(f.Body)

	if r.state != GameSetup {
		t.Fatalf("expected GAME_SETUP, got %v", r.state)
	}
	if r.ownBoard == nil || r.oppBoard == nil {
		t.Fatalf("expected boards to be initialized")
	}
	if r.peer.Port != 5555 || !r.peer.IP.Equal(net.ParseIP("127.0.0.1")) {
		t.Fatalf("expected peer address recorded, got %+v", r.peer)
	}
}

func TestIncomingInviteSetsPendingAndIsInvitee(t *testing.T) {
	r, _, fr := newTestReactor(t)
	r.handleIncomingInvite(wire.EncodeReqPlay("bob").Body)

	if r.pendingInvite == nil || r.pendingInvite.from != "bob" {
		t.Fatalf("expected pending invite from bob, got %+v", r.pendingInvite)
	}
	if !r.isInvitee {
		t.Fatalf("expected isInvitee true")
	}
	if len(fr.infos) == 0 {
		t.Fatalf("expected an accept/decline prompt info line")
	}
}

func TestAnswerPendingInviteSendsAcceptOverControl(t *testing.T) {
	r, serverSide, _ := newTestReactor(t)
	r.pendingInvite = &pendingInvite{from: "bob"}

	done := make(chan wire.Frame, 1)
	go func() {
		f, _ := wire.ReadFrame(serverSide)
		done <- f
	}()

	r.answerPendingInvite("y")

	f := <-done
	if f.Type != wire.ReqPlayAns {
		t.Fatalf("expected REQ_PLAY_ANS, got %v", f.Type)
	}
	accept, err := wire.DecodeReqPlayAns(f.Body)
	if err != nil || !accept {
		t.Fatalf("expected accept=true, got %v err=%v", accept, err)
	}
	if r.pendingInvite != nil {
		t.Fatalf("expected pending invite cleared")
	}
}

func TestMsgReadyTransitionsByInviteeRole(t *testing.T) {
	r, _, _ := newTestReactor(t)
	r.state = GameWaiting
	r.peer = Peer{IP: net.IPv4(127, 0, 0, 1), Port: 1}
	r.isInvitee = true
	from := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 1}

	r.handleDatagram(wire.EncodeMsgReady().Encode(), from)
	if r.state != GameMyTurn {
		t.Fatalf("invitee expected GAME_MY_TURN, got %v", r.state)
	}

	r.state = GameWaiting
	r.isInvitee = false
	r.handleDatagram(wire.EncodeMsgReady().Encode(), from)
	if r.state != GameOpponentTurn {
		t.Fatalf("inviter expected GAME_OPPONENT_TURN, got %v", r.state)
	}
}

func TestPeerShotAllSunkEndsMatchAsLoss(t *testing.T) {
	r, serverSide, fr := newTestReactor(t)
	r.state = GameOpponentTurn
	r.ownBoard = board.New(2, 2)
	_ = r.ownBoard.PlaceShip(0, 0)
	r.oppBoard = board.New(2, 2)

	done := make(chan wire.Frame, 1)
	go func() {
		f, _ := wire.ReadFrame(serverSide)
		done <- f
	}()

	r.handlePeerShot(wire.EncodeMsgShot(0, 0).Body)

	f := <-done
	if f.Type != wire.MsgEndgame {
		t.Fatalf("expected MSG_ENDGAME to server, got %v", f.Type)
	}
	if disc, _ := wire.DecodeMsgEndgame(f.Body); disc {
		t.Fatalf("expected disconnected=false on a clean loss")
	}
	if r.state != GameDisconnected {
		t.Fatalf("expected GAME_DISCONNECTED after losing, got %v", r.state)
	}
	found := false
	for _, l := range fr.infos {
		if l == "YOU LOST" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a YOU LOST info line, got %v", fr.infos)
	}
}

func TestShotOutOfTurnAbortsMatch(t *testing.T) {
	r, serverSide, _ := newTestReactor(t)
	r.state = GameMyTurn // wrong state to receive MSG_SHOT
	r.ownBoard = board.New(2, 2)
	r.oppBoard = board.New(2, 2)

	done := make(chan wire.Frame, 1)
	go func() {
		f, _ := wire.ReadFrame(serverSide)
		done <- f
	}()

	r.handlePeerShot(wire.EncodeMsgShot(0, 0).Body)

	f := <-done
	if f.Type != wire.MsgEndgame {
		t.Fatalf("expected MSG_ENDGAME on abort, got %v", f.Type)
	}
	if r.state != GameDisconnected {
		t.Fatalf("expected GAME_DISCONNECTED after abort, got %v", r.state)
	}
}

func TestDatagramFromWrongAddressIsIgnored(t *testing.T) {
	r, _, _ := newTestReactor(t)
	r.state = GameWaiting
	r.peer = Peer{IP: net.IPv4(127, 0, 0, 1), Port: 1}
	wrong := &net.UDPAddr{IP: net.IPv4(8, 8, 8, 8), Port: 9999}

	r.handleDatagram(wire.EncodeMsgReady().Encode(), wrong)

	if r.state != GameWaiting {
		t.Fatalf("expected state unchanged on spoofed datagram, got %v", r.state)
	}
}
