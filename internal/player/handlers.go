package player

import (
	"fmt"
	"net"
	"strings"
	"time"

	"battleship/internal/board"
	"battleship/internal/command"
	"battleship/internal/wire"
)

func errAbort(reason string) error { return fmt.Errorf("match aborted: %s", reason) }

// handleStdin processes one line of interactive input. A pending invite
// answer (a plain y/n line, not a `!`-command, matching the original
// client's synchronous "Accept? [Y/n]" prompt) takes priority over normal
// command dispatch.
func (r *Reactor) handleStdin(line string) {
	if r.pendingInvite != nil {
		r.answerPendingInvite(line)
		return
	}

	cmd, ok := command.Parse(line)
	if !ok {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			return
		}
		switch r.state {
		case GameSetup:
			r.placeShip(trimmed)
		case GameMyTurn:
			r.fireShot(trimmed)
		default:
			// Input outside any state expecting a bare token is silently
			// discarded, per §4.5 "in-game input ... when not the
			// player's turn is silently discarded."
		}
		return
	}

	switch cmd.Verb {
	case command.Help:
		r.renderer.Help(helpLines(r.state))
	case command.Who:
		if r.state.InGame() {
			return
		}
		r.sendControl(wire.EncodeReqWho())
	case command.Connect:
		if r.state.InGame() {
			return
		}
		if cmd.Arg == "" {
			r.renderer.Error(fmt.Errorf("usage: !connect <name>"))
			return
		}
		r.sendControl(wire.EncodeReqPlay(cmd.Arg))
	case command.Quit:
		if r.state.InGame() {
			r.sendControl(wire.EncodeMsgEndgame(true))
		}
		r.quitRequested = true
	case command.Disconnect:
		if !r.state.InGame() {
			return
		}
		r.sendControl(wire.EncodeMsgEndgame(true))
		r.resetToDisconnected()
	case command.Show:
		if !r.state.InGame() || r.ownBoard == nil {
			return
		}
		r.renderer.Board(r.ownBoard, "own board")
		r.renderer.Board(r.oppBoard, "opponent board (shadow)")
	case command.Shot:
		if r.state != GameMyTurn {
			r.renderer.Error(fmt.Errorf("not your turn"))
			return
		}
		r.fireShot(cmd.Arg)
	default:
		r.renderer.Error(fmt.Errorf("unknown command %q", cmd.Verb))
	}
}

func (r *Reactor) answerPendingInvite(line string) {
	from := r.pendingInvite.from
	r.pendingInvite = nil
	accept := isYesAnswer(line)
	r.sendControl(wire.EncodeReqPlayAns(accept))
	if !accept {
		r.renderer.Info(fmt.Sprintf("declined %s's invite", from))
	}
}

// isYesAnswer matches the "[Y/n]" convention: empty or leading 'y' is yes.
func isYesAnswer(line string) bool {
	t := strings.ToLower(strings.TrimSpace(line))
	return t == "" || strings.HasPrefix(t, "y")
}

func (r *Reactor) placeShip(token string) {
	row, col, err := board.ParseShot(token, r.cfg.Rows, r.cfg.Cols)
	if err != nil {
		r.renderer.Error(err)
		return
	}
	if err := r.ownBoard.PlaceShip(row, col); err != nil {
		r.renderer.Error(err)
		return
	}
	r.shipsPlaced++
	remaining := r.cfg.ShipCount - r.shipsPlaced
	if remaining > 0 {
		r.renderer.Info(fmt.Sprintf("ship placed, %d remaining", remaining))
		return
	}
	r.sendPeer(wire.EncodeMsgReady())
	r.renderer.Info("all ships placed, waiting for opponent")
	if r.readyReceived {
		r.readyReceived = false
		r.advanceFromWaiting()
		return
	}
	r.state = GameWaiting
}

// advanceFromWaiting leaves GAME_WAITING once both sides have sent
// MSG_READY, handing the first move to the invitee per spec.md §9.
func (r *Reactor) advanceFromWaiting() {
	if r.isInvitee {
		r.state = GameMyTurn
	} else {
		r.state = GameOpponentTurn
	}
	r.renderer.Info("opponent is ready")
}

func (r *Reactor) fireShot(token string) {
	row, col, err := board.ParseShot(token, r.cfg.Rows, r.cfg.Cols)
	if err != nil {
		r.renderer.Error(err)
		return
	}
	if !r.oppBoard.CanFireAt(row, col) {
		r.renderer.Error(fmt.Errorf("you have already fired here"))
		return
	}
	r.lastShot = [2]int{row, col}
	r.sendPeer(wire.EncodeMsgShot(uint32(row), uint32(col)))
	r.state = GameWaitResult
}

func (r *Reactor) handleControlFrame(f wire.Frame) {
	switch f.Type {
	case wire.AnsLogin:
		// Login is handled synchronously before the reactor starts; a
		// stray ANS_LOGIN here is ignored.
	case wire.AnsWho:
		players, err := wire.DecodeAnsWho(f.Body)
		if err != nil {
			r.renderer.Error(err)
			return
		}
		r.renderer.Line(formatWho(players))
	case wire.ReqPlay:
		r.handleIncomingInvite(f.Body)
	case wire.AnsPlay:
		r.handleAnsPlay(f.Body)
	case wire.MsgEndgame:
		disconnected, err := wire.DecodeMsgEndgame(f.Body)
		if err != nil {
			r.renderer.Error(err)
			return
		}
		if disconnected {
			r.renderer.Info("opponent has disconnected")
		} else {
			r.renderer.Info("match ended")
		}
		r.resetToDisconnected()
	case wire.AnsBadReq:
		r.renderer.Error(fmt.Errorf("server rejected the last message"))
		r.quitRequested = true
	}
}

func (r *Reactor) handleIncomingInvite(body []byte) {
	opponent, err := wire.DecodeReqPlay(body)
	if err != nil {
		r.renderer.Error(err)
		return
	}
	if r.state.InGame() || r.pendingInvite != nil {
		return // already occupied; the server should not send this
	}
	r.pendingInvite = &pendingInvite{from: opponent}
	r.isInvitee = true
	r.renderer.Info(fmt.Sprintf("%s invited you to play a match. Accept? [Y/n]", opponent))
}

func (r *Reactor) handleAnsPlay(body []byte) {
	resp, addr, port, err := wire.DecodeAnsPlay(body)
	if err != nil {
		r.renderer.Error(err)
		return
	}
	switch resp {
	case wire.PlayAccept:
		r.peer = Peer{IP: addr, Port: port}
		r.resetBoards()
		r.state = GameSetup
		r.renderer.Info(fmt.Sprintf("match accepted; place your %d ships (e.g. \"A1\")", r.cfg.ShipCount))
	case wire.PlayDecline:
		r.renderer.Info("invite declined")
		r.isInvitee = false
	case wire.PlayTimedOut:
		r.renderer.Info("invite timed out")
		r.isInvitee = false
	case wire.PlayInvalidOpponent:
		r.renderer.Error(fmt.Errorf("no such opponent, or opponent is yourself"))
	case wire.PlayOpponentInGame:
		r.renderer.Error(fmt.Errorf("opponent is already in a match"))
	}
}

// handleDatagram processes one received peer gameplay datagram. Per the
// resolution of spec.md §9 open question 3, a datagram whose source
// address does not match the match's declared peer is rejected.
func (r *Reactor) handleDatagram(data []byte, from *net.UDPAddr) {
	if !r.state.InGame() {
		return
	}
	if !r.peer.matches(from) {
		return
	}
	f, err := decodeDatagram(data)
	if err != nil {
		return // malformed datagram: drop, no retransmission per §5
	}
	switch f.Type {
	case wire.MsgReady:
		// Ship placement is interactive on both ends, so the opponent's
		// MSG_READY routinely beats our own: hold it instead of aborting,
		// and apply it once we reach GAME_WAITING ourselves (placeShip).
		if r.state == GameSetup {
			r.readyReceived = true
			r.renderer.Info("opponent is ready, waiting for you to finish placing ships")
			return
		}
		if r.state != GameWaiting {
			r.abortMatch("MSG_READY received out of state")
			return
		}
		r.advanceFromWaiting()
	case wire.MsgShot:
		r.handlePeerShot(f.Body)
	case wire.MsgResult:
		r.handlePeerResult(f.Body)
	}
}

func (r *Reactor) handlePeerShot(body []byte) {
	if r.state != GameOpponentTurn {
		r.abortMatch("MSG_SHOT received out of turn")
		return
	}
	row, col, err := wire.DecodeMsgShot(body)
	if err != nil || int(row) >= r.cfg.Rows || int(col) >= r.cfg.Cols {
		r.abortMatch("invalid shot coordinates")
		return
	}
	hit, _ := r.ownBoard.ReceiveShot(int(row), int(col))
	if hit && r.ownBoard.AllSunk() {
		r.sendControl(wire.EncodeMsgEndgame(false))
		r.renderer.Info("YOU LOST")
		r.resetToDisconnected()
		return
	}
	r.sendPeer(wire.EncodeMsgResult(hit))
	r.state = GameMyTurn
}

func (r *Reactor) handlePeerResult(body []byte) {
	if r.state != GameWaitResult {
		r.abortMatch("MSG_RESULT received out of turn")
		return
	}
	hit, err := wire.DecodeMsgResult(body)
	if err != nil {
		r.abortMatch("malformed MSG_RESULT")
		return
	}
	_ = r.oppBoard.RecordResult(r.lastShot[0], r.lastShot[1], hit)
	if hit {
		r.renderer.Info("HIT")
	} else {
		r.renderer.Info("miss")
	}
	r.state = GameOpponentTurn
}

func (r *Reactor) handleTick() {
	if r.state.InGame() && time.Since(r.lastActivity) >= r.cfg.InGameTimeout {
		r.sendControl(wire.EncodeMsgEndgame(true))
		r.renderer.Info("inactivity timeout, disconnecting")
		r.resetToDisconnected()
		return
	}
}

func helpLines(s State) []string {
	if s.InGame() {
		return []string{
			"!help              show this text",
			"!show              print your board and the opponent's shadow board",
			"!shot <coord>      fire at a coordinate, e.g. !shot A1 (only on your turn)",
			"!disconnect        forfeit and leave the match",
		}
	}
	return []string{
		"!help              show this text",
		"!who               list other connected players",
		"!connect <name>    invite a player to a match",
		"!quit              exit",
	}
}

func formatWho(players []wire.WhoPlayer) string {
	if len(players) == 0 {
		return "no other players connected"
	}
	var b strings.Builder
	for i, p := range players {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch p.Status {
		case wire.PlayerIdle:
			fmt.Fprintf(&b, "%-20s idle", p.Username)
		case wire.PlayerAwaitingReply:
			fmt.Fprintf(&b, "%-20s awaiting reply (vs %s)", p.Username, p.Opponent)
		case wire.PlayerInGame:
			fmt.Fprintf(&b, "%-20s in game (vs %s)", p.Username, p.Opponent)
		}
	}
	return b.String()
}
