// Package trace records op streams through the range encoder, replays them
// through the decoder and serializes the resulting vectors.
package trace

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/thesyncim/entdec/rangecoding"
)

// OpKind selects the coder call an Op maps to.
type OpKind uint8

const (
	OpSymbol   OpKind = iota + 1 // Encode / Decode+Update with total Ft
	OpBin                        // EncodeBin / DecodeBin+Update with total 1<<Ftb
	OpBitLogp                    // EncodeBitLogp / DecodeBitLogp
	OpICDF                       // 8-bit table, total 1<<Ftb
	OpICDF16                     // 16-bit table, total 1<<Ftb
	OpICDFFt                     // 8-bit table, total Ft
	OpICDF16Ft                   // 16-bit table, total Ft
	OpUint                       // EncodeUint / DecodeUint
	OpBits                       // EncodeBits / DecodeBits
)

var opKindNames = [...]string{
	OpSymbol:   "symbol",
	OpBin:      "bin",
	OpBitLogp:  "bit_logp",
	OpICDF:     "icdf",
	OpICDF16:   "icdf16",
	OpICDFFt:   "icdf_ft",
	OpICDF16Ft: "icdf16_ft",
	OpUint:     "uint",
	OpBits:     "bits",
}

func (k OpKind) String() string {
	if k > 0 && int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", uint8(k))
}

// Op is a single coded value.
//
// Symbol and Bin ops carry the symbol as [Fl, Fh); Value is unused.
// ICDF ops carry the symbol index in Value and the table in Table, whose
// entries must fit in a byte for the 8-bit kinds. BitLogp, Uint and Bits ops
// carry the coded value in Value.
type Op struct {
	Kind  OpKind
	Value uint32
	Fl    uint32
	Fh    uint32
	Ft    uint32
	Ftb   uint
	Logp  uint
	Table []uint16
}

// Validate reports whether the op can be coded.
func (o *Op) Validate() error {
	switch o.Kind {
	case OpSymbol:
		if o.Ft < 1 || o.Ft > rangecoding.EC_MAX_FT {
			return errors.Wrapf(ErrInvalidOp, "symbol total %d out of range", o.Ft)
		}
		if o.Fl >= o.Fh || o.Fh > o.Ft {
			return errors.Wrapf(ErrInvalidOp, "symbol [%d,%d) of %d", o.Fl, o.Fh, o.Ft)
		}
	case OpBin:
		if o.Ftb > 15 {
			return errors.Wrapf(ErrInvalidOp, "bin ftb %d > 15", o.Ftb)
		}
		if o.Fl >= o.Fh || o.Fh > 1<<o.Ftb {
			return errors.Wrapf(ErrInvalidOp, "bin symbol [%d,%d) of 1<<%d", o.Fl, o.Fh, o.Ftb)
		}
	case OpBitLogp:
		if o.Logp < 1 || o.Logp > 15 {
			return errors.Wrapf(ErrInvalidOp, "logp %d out of range", o.Logp)
		}
		if o.Value > 1 {
			return errors.Wrapf(ErrInvalidOp, "bit value %d", o.Value)
		}
	case OpICDF, OpICDF16:
		if o.Ftb > 15 {
			return errors.Wrapf(ErrInvalidOp, "icdf ftb %d > 15", o.Ftb)
		}
		return o.validateTable(uint32(1) << o.Ftb)
	case OpICDFFt, OpICDF16Ft:
		if o.Ft < 1 || o.Ft > rangecoding.EC_MAX_FT {
			return errors.Wrapf(ErrInvalidOp, "icdf total %d out of range", o.Ft)
		}
		return o.validateTable(o.Ft)
	case OpUint:
		if o.Ft < 1 || o.Value >= o.Ft {
			return errors.Wrapf(ErrInvalidOp, "uint %d of %d", o.Value, o.Ft)
		}
	case OpBits:
		if o.Ftb > rangecoding.EC_MAX_RAW_BITS {
			return errors.Wrapf(ErrInvalidOp, "raw field of %d bits", o.Ftb)
		}
		if uint64(o.Value) >= 1<<o.Ftb {
			return errors.Wrapf(ErrInvalidOp, "raw value %#x wider than %d bits", o.Value, o.Ftb)
		}
	default:
		return errors.Wrapf(ErrInvalidOp, "unknown kind %d", uint8(o.Kind))
	}
	return nil
}

// validateTable checks the table against total ft and the coded index.
func (o *Op) validateTable(ft uint32) error {
	t := o.Table
	if len(t) == 0 || t[len(t)-1] != 0 {
		return errors.Wrapf(ErrInvalidOp, "%s table must end in 0", o.Kind)
	}
	if uint32(t[0]) > ft {
		return errors.Wrapf(ErrInvalidOp, "%s table starts above total %d", o.Kind, ft)
	}
	for i := 1; i < len(t); i++ {
		if t[i] > t[i-1] {
			return errors.Wrapf(ErrInvalidOp, "%s table increases at %d", o.Kind, i)
		}
	}
	if o.Kind == OpICDF || o.Kind == OpICDFFt {
		if t[0] > 0xFF {
			return errors.Wrapf(ErrInvalidOp, "%s table entry %d exceeds a byte", o.Kind, t[0])
		}
	}
	if o.Value >= uint32(len(t)) {
		return errors.Wrapf(ErrInvalidOp, "%s index %d of %d symbols", o.Kind, o.Value, len(t))
	}
	hi := ft
	if o.Value > 0 {
		hi = uint32(t[o.Value-1])
	}
	if hi == uint32(t[o.Value]) {
		return errors.Wrapf(ErrInvalidOp, "%s symbol %d has zero probability", o.Kind, o.Value)
	}
	return nil
}

// table8 narrows the table of an 8-bit ICDF op.
func (o *Op) table8() []uint8 {
	t := make([]uint8, len(o.Table))
	for i, v := range o.Table {
		t[i] = uint8(v)
	}
	return t
}
