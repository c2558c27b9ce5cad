package wire

import (
	"bytes"
	"errors"
	"net"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frames := []Frame{
		EncodeReqLogin("alice", 9001),
		mustEncodeAnsLogin(t, LoginOK),
		EncodeReqWho(),
		EncodeAnsWho([]WhoPlayer{
			{Username: "bob", Status: PlayerIdle, Opponent: ""},
			{Username: "carl", Status: PlayerInGame, Opponent: "dave"},
		}),
		EncodeReqPlay("bob"),
		EncodeReqPlayAns(true),
		mustEncodeAnsPlay(t, PlayAccept, net.ParseIP("127.0.0.1"), 9001),
		EncodeMsgReady(),
		EncodeMsgShot(3, 4),
		EncodeMsgResult(true),
		EncodeMsgEndgame(false),
		EncodeAnsBadReq(),
	}

	for _, f := range frames {
		encoded := f.Encode()
		decoded, err := ReadFrame(bytes.NewReader(encoded))
		if err != nil {
			if f.Type == AnsBadReq && errors.Is(err, ErrBadRequest) {
				// expected: ANS_BADREQ reads back as an error for the receiver
			} else {
				t.Fatalf("ReadFrame(%s): %v", f.Type, err)
			}
		}
		if decoded.Type != f.Type {
			t.Fatalf("type mismatch: got %s want %s", decoded.Type, f.Type)
		}
		reEncoded := decoded.Encode()
		if !bytes.Equal(reEncoded, encoded) {
			t.Fatalf("encode(decode(bytes)) != bytes for %s", f.Type)
		}
	}
}

func mustEncodeAnsLogin(t *testing.T, r LoginResponse) Frame {
	t.Helper()
	f, err := EncodeAnsLogin(r)
	if err != nil {
		t.Fatalf("EncodeAnsLogin: %v", err)
	}
	return f
}

func mustEncodeAnsPlay(t *testing.T, r PlayResponse, ip net.IP, port uint16) Frame {
	t.Helper()
	f, err := EncodeAnsPlay(r, ip, port)
	if err != nil {
		t.Fatalf("EncodeAnsPlay: %v", err)
	}
	return f
}

func TestDecodeReqLoginTruncatesLongUsername(t *testing.T) {
	long := "this_username_is_way_too_long_for_the_wire"
	f := EncodeReqLogin(long, 1)
	name, _, err := DecodeReqLogin(f.Body)
	if err != nil {
		t.Fatalf("DecodeReqLogin: %v", err)
	}
	if len(name) != MaxUsernameSize-1 {
		t.Fatalf("expected truncation to %d bytes, got %q (%d)", MaxUsernameSize-1, name, len(name))
	}
	if name != long[:MaxUsernameSize-1] {
		t.Fatalf("truncated name mismatch: got %q", name)
	}
}

func TestBadMagic(t *testing.T) {
	b := EncodeReqWho().Encode()
	b[0] = 'X'
	_, err := ReadFrame(bytes.NewReader(b))
	if !errors.Is(err, ErrBadFrame) {
		t.Fatalf("expected ErrBadFrame, got %v", err)
	}
}

func TestUnknownType(t *testing.T) {
	b := EncodeReqWho().Encode()
	b[2] = 0x77
	_, err := ReadFrame(bytes.NewReader(b))
	if !errors.Is(err, ErrBadFrame) {
		t.Fatalf("expected ErrBadFrame, got %v", err)
	}
}

func TestWrongBodyLength(t *testing.T) {
	b := EncodeReqLogin("alice", 1).Encode()
	// Claim one extra body byte than actually present.
	b[7] = b[7] + 1
	_, err := ReadFrame(bytes.NewReader(b))
	if !errors.Is(err, ErrShortRead) && !errors.Is(err, ErrBadFrame) {
		t.Fatalf("expected a protocol error, got %v", err)
	}
}

func TestAnsWhoModularLength(t *testing.T) {
	f := EncodeAnsWho(nil)
	if len(f.Body) != 0 {
		t.Fatalf("expected empty body for zero entries")
	}
	if !validateBodyLength(AnsWho, whoPlayerSize*3) {
		t.Fatalf("expected 3 records to validate")
	}
	if validateBodyLength(AnsWho, whoPlayerSize+1) {
		t.Fatalf("expected non-multiple length to be rejected")
	}
}

func TestShortRead(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader(nil))
	if !errors.Is(err, ErrShortRead) {
		t.Fatalf("expected ErrShortRead, got %v", err)
	}
}

func TestAnsPlayIPv6(t *testing.T) {
	f, err := EncodeAnsPlay(PlayAccept, net.ParseIP("::1"), 7777)
	if err != nil {
		t.Fatalf("EncodeAnsPlay: %v", err)
	}
	resp, addr, port, err := DecodeAnsPlay(f.Body)
	if err != nil {
		t.Fatalf("DecodeAnsPlay: %v", err)
	}
	if resp != PlayAccept || port != 7777 || !addr.Equal(net.ParseIP("::1")) {
		t.Fatalf("round trip mismatch: %v %v %v", resp, addr, port)
	}
}

func TestEncodeAnsLoginOutOfRange(t *testing.T) {
	_, err := EncodeAnsLogin(LoginResponse(200))
	if !errors.Is(err, ErrEncode) {
		t.Fatalf("expected ErrEncode, got %v", err)
	}
}
