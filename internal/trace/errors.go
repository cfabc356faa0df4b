package trace

import "github.com/pkg/errors"

var (
	// ErrInvalidOp is returned for an op the coder cannot represent.
	ErrInvalidOp = errors.New("trace: invalid op")
	// ErrOverflow is returned when a vector does not fit its packet buffer.
	ErrOverflow = errors.New("trace: packet buffer overflow")
	// ErrMismatch is returned when a replayed vector decodes differently.
	ErrMismatch = errors.New("trace: replay mismatch")
	// ErrMalformed is returned for undecodable vector bytes.
	ErrMalformed = errors.New("trace: malformed vector")
)
