package player

import (
	"fmt"
	"net"

	"battleship/internal/wire"
)

// Login performs the synchronous REQ_LOGIN/ANS_LOGIN handshake over conn,
// the one request/response round trip in the protocol that happens before
// the reactor's event loop starts (every other control message is either
// pushed by the server asynchronously or answered asynchronously).
func Login(conn net.Conn, username string, udpPort uint16) error {
	if err := wire.WriteFrame(conn, wire.EncodeReqLogin(username, udpPort)); err != nil {
		return fmt.Errorf("player: send REQ_LOGIN: %w", err)
	}
	f, err := wire.ReadFrame(conn)
	if err != nil {
		return fmt.Errorf("player: read ANS_LOGIN: %w", err)
	}
	if f.Type != wire.AnsLogin {
		return fmt.Errorf("player: expected ANS_LOGIN, got %s", f.Type)
	}
	resp, err := wire.DecodeAnsLogin(f.Body)
	if err != nil {
		return fmt.Errorf("player: decode ANS_LOGIN: %w", err)
	}
	switch resp {
	case wire.LoginOK:
		return nil
	case wire.LoginInvalidName:
		return fmt.Errorf("player: invalid username %q", username)
	case wire.LoginNameInUse:
		return fmt.Errorf("player: username %q already in use", username)
	default:
		return fmt.Errorf("player: unexpected login response %s", resp)
	}
}
