package wire

import "errors"

// ErrBadFrame is returned when a frame's header or type-specific body size
// fails validation: bad magic, unknown type, or wrong body length.
var ErrBadFrame = errors.New("wire: bad frame")

// ErrShortRead is returned when the underlying source closes or is empty
// before a full frame (header or body) can be read.
var ErrShortRead = errors.New("wire: short read")

// ErrEncode is returned by an encoder when asked to serialize an
// out-of-range enum value.
var ErrEncode = errors.New("wire: encode error")

// ErrBadRequest wraps a received ANS_BADREQ, which the protocol treats as a
// bad-frame equivalent from the receiving peer's point of view.
var ErrBadRequest = errors.New("wire: received ANS_BADREQ")
