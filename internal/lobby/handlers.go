package lobby

import (
	"log"
	"net"
	"time"

	"battleship/internal/registry"
	"battleship/internal/wire"
)

// dispatch routes one decoded control frame from a logged-in-or-logging-in
// client, per spec.md §4.4. Any message from a not-yet-logged-in client
// other than REQ_LOGIN, and any unrecognized type, is answered with
// ANS_BADREQ and the connection is closed.
func (l *Lobby) dispatch(c *registry.Client, f wire.Frame) {
	if f.Type != wire.ReqLogin && !c.LoggedIn() {
		l.sendRaw(c, wire.EncodeAnsBadReq())
		l.evictClient(c)
		return
	}
	switch f.Type {
	case wire.ReqLogin:
		l.handleReqLogin(c, f.Body)
	case wire.ReqWho:
		l.handleReqWho(c)
	case wire.ReqPlay:
		l.handleReqPlay(c, f.Body)
	case wire.ReqPlayAns:
		l.handleReqPlayAns(c, f.Body)
	case wire.MsgEndgame:
		l.handleMsgEndgame(c, f.Body)
	default:
		l.sendRaw(c, wire.EncodeAnsBadReq())
		l.evictClient(c)
	}
}

func (l *Lobby) handleReqLogin(c *registry.Client, body []byte) {
	name, udpPort, err := wire.DecodeReqLogin(body)
	if err != nil {
		l.sendRaw(c, wire.EncodeAnsBadReq())
		l.evictClient(c)
		return
	}
	if err := l.reg.Login(c, name, udpPort); err != nil {
		resp := wire.LoginInvalidName
		if registry.IsDuplicateName(err) {
			resp = wire.LoginNameInUse
		}
		l.sendAnsLogin(c, resp)
		return
	}
	l.sendAnsLogin(c, wire.LoginOK)
	log.Printf("[lobby] handle=%d logged in as %q", c.Handle, c.Username)
}

func (l *Lobby) handleReqWho(c *registry.Client) {
	var players []wire.WhoPlayer
	for _, other := range l.reg.IterLogged() {
		if other.Handle == c.Handle {
			continue
		}
		status, opponent := l.clientStatus(other)
		players = append(players, wire.WhoPlayer{
			Username: other.Username,
			Status:   status,
			Opponent: opponent,
		})
	}
	l.sendRaw(c, wire.EncodeAnsWho(players))
}

// clientStatus reports c's current lobby status and, if relevant, the name
// of the opponent it is paired with.
func (l *Lobby) clientStatus(c *registry.Client) (wire.PlayerStatus, string) {
	if !c.InMatch() {
		return wire.PlayerIdle, ""
	}
	m := l.matches.Get(c.MatchID)
	if m == nil {
		return wire.PlayerIdle, ""
	}
	other := m.Other(c)
	if m.AwaitingReply {
		return wire.PlayerAwaitingReply, other.Username
	}
	return wire.PlayerInGame, other.Username
}

func (l *Lobby) handleReqPlay(c *registry.Client, body []byte) {
	opponentName, err := wire.DecodeReqPlay(body)
	if err != nil {
		l.sendRaw(c, wire.EncodeAnsBadReq())
		l.evictClient(c)
		return
	}
	if c.InMatch() {
		// Already paired; a second invitation attempt is treated as
		// targeting an unavailable opponent.
		l.sendAnsPlay(c, wire.PlayOpponentInGame, nil, 0)
		return
	}
	opponent, ok := l.reg.ByName(opponentName)
	if !ok || opponent.Handle == c.Handle {
		l.sendAnsPlay(c, wire.PlayInvalidOpponent, nil, 0)
		return
	}
	if opponent.InMatch() {
		l.sendAnsPlay(c, wire.PlayOpponentInGame, nil, 0)
		return
	}
	l.matches.Add(c, opponent, time.Now())
	l.sendRaw(opponent, wire.EncodeReqPlay(c.Username))
}

func (l *Lobby) handleReqPlayAns(c *registry.Client, body []byte) {
	accept, err := wire.DecodeReqPlayAns(body)
	if err != nil {
		l.sendRaw(c, wire.EncodeAnsBadReq())
		l.evictClient(c)
		return
	}
	m := l.matches.Get(c.MatchID)
	if m == nil || !m.AwaitingReply || m.IsInviter(c) {
		// Stale, already-resolved, or from the inviter (only the invitee
		// answers a REQ_PLAY): silently ignored.
		return
	}
	inviter := m.Other(c)
	if !accept {
		l.sendAnsPlay(inviter, wire.PlayDecline, nil, 0)
		l.sendAnsPlay(c, wire.PlayDecline, nil, 0)
		l.matches.Delete(m)
		return
	}
	m.MarkLive()
	l.sendAnsPlay(inviter, wire.PlayAccept, c.Addr, c.UDPPort)
	l.sendAnsPlay(c, wire.PlayAccept, inviter.Addr, inviter.UDPPort)
}

func (l *Lobby) handleMsgEndgame(c *registry.Client, body []byte) {
	disconnected, err := wire.DecodeMsgEndgame(body)
	if err != nil {
		l.sendRaw(c, wire.EncodeAnsBadReq())
		l.evictClient(c)
		return
	}
	m := l.matches.Get(c.MatchID)
	if m == nil {
		return // already torn down; idempotent per spec.md §4.4
	}
	peer := m.Other(c)
	if m.AwaitingReply {
		// A pending invitation ended before any REQ_PLAY_ANS: whichever
		// side sent MSG_ENDGAME, the remaining side is told the invite was
		// declined (resolves the inviter-cancels-pending-invite open
		// question symmetrically for either party).
		l.sendAnsPlay(peer, wire.PlayDecline, nil, 0)
	} else {
		l.sendMsgEndgame(peer, disconnected)
	}
	l.matches.Delete(m)
}

// expireRequests tears down every awaiting-reply match whose age has
// reached PLAY_REQUEST_TIMEOUT, notifying both participants.
func (l *Lobby) expireRequests(now time.Time) {
	for _, m := range l.matches.Expired(now, l.cfg.PlayRequestTimeout) {
		l.sendAnsPlay(m.Player1, wire.PlayTimedOut, nil, 0)
		l.sendAnsPlay(m.Player2, wire.PlayTimedOut, nil, 0)
		l.matches.Delete(m)
		log.Printf("[lobby] match %d timed out waiting for a reply", m.ID)
	}
}

// evictClient tears down c's match (if any), notifying its peer, then
// removes c from the registry and closes its connection. Safe to call more
// than once is not guaranteed; callers must check reg.ByHandle first.
func (l *Lobby) evictClient(c *registry.Client) {
	if m := l.matches.Get(c.MatchID); m != nil {
		peer := m.Other(c)
		if m.AwaitingReply {
			l.sendAnsPlay(peer, wire.PlayDecline, nil, 0)
		} else {
			l.sendMsgEndgame(peer, true)
		}
		l.matches.Delete(m)
	}
	l.reg.Remove(c)
	delete(l.limiters, c.Handle)
	c.Conn.Close()
	log.Printf("[lobby] handle=%d evicted", c.Handle)
}

func (l *Lobby) sendRaw(c *registry.Client, f wire.Frame) {
	if err := wire.WriteFrame(c.Conn, f); err != nil {
		log.Printf("[lobby] handle=%d write error: %v", c.Handle, err)
	}
}

func (l *Lobby) sendAnsLogin(c *registry.Client, resp wire.LoginResponse) {
	f, err := wire.EncodeAnsLogin(resp)
	if err != nil {
		log.Printf("[lobby] encode ANS_LOGIN: %v", err)
		return
	}
	l.sendRaw(c, f)
}

func (l *Lobby) sendAnsPlay(c *registry.Client, resp wire.PlayResponse, addr net.IP, udpPort uint16) {
	f, err := wire.EncodeAnsPlay(resp, addr, udpPort)
	if err != nil {
		log.Printf("[lobby] encode ANS_PLAY: %v", err)
		return
	}
	l.sendRaw(c, f)
}

func (l *Lobby) sendMsgEndgame(c *registry.Client, disconnected bool) {
	l.sendRaw(c, wire.EncodeMsgEndgame(disconnected))
}
