package trace

import (
	"github.com/pkg/errors"

	"github.com/thesyncim/entdec/rangecoding"
)

// Vector is a recorded packet together with the ops that produced it.
type Vector struct {
	Name    string
	Variant string
	Seed    int64
	Packet  []byte
	Ops     []Op
	// Tells holds the TellFrac value after each op.
	Tells []int
}

// Record encodes ops into a packet of at most bufSize bytes.
func Record(name string, ops []Op, bufSize int) (*Vector, error) {
	for i := range ops {
		if err := ops[i].Validate(); err != nil {
			return nil, errors.Wrapf(err, "op %d", i)
		}
	}

	var enc rangecoding.Encoder
	enc.Init(make([]byte, bufSize))
	tells := make([]int, len(ops))
	for i := range ops {
		encodeOp(&enc, &ops[i])
		tells[i] = enc.TellFrac()
	}
	packet := enc.Done()
	if packet == nil {
		return nil, errors.Wrapf(ErrOverflow, "%d ops in %d bytes", len(ops), bufSize)
	}

	return &Vector{
		Name:   name,
		Packet: append([]byte(nil), packet...),
		Ops:    append([]Op(nil), ops...),
		Tells:  tells,
	}, nil
}

func encodeOp(enc *rangecoding.Encoder, o *Op) {
	switch o.Kind {
	case OpSymbol:
		enc.Encode(o.Fl, o.Fh, o.Ft)
	case OpBin:
		enc.EncodeBin(o.Fl, o.Fh, o.Ftb)
	case OpBitLogp:
		enc.EncodeBitLogp(int(o.Value), o.Logp)
	case OpICDF:
		enc.EncodeICDF(int(o.Value), o.table8(), o.Ftb)
	case OpICDF16:
		enc.EncodeICDF16(int(o.Value), o.Table, o.Ftb)
	case OpICDFFt:
		enc.EncodeICDFFt(int(o.Value), o.table8(), o.Ft)
	case OpICDF16Ft:
		enc.EncodeICDF16Ft(int(o.Value), o.Table, o.Ft)
	case OpUint:
		enc.EncodeUint(o.Value, o.Ft)
	case OpBits:
		enc.EncodeBits(o.Value, o.Ftb)
	}
}

// Replay decodes v.Packet op by op and reports the first op whose value or
// tell differs from the recording.
func Replay(v *Vector) error {
	if len(v.Tells) != len(v.Ops) {
		return errors.Wrapf(ErrMalformed, "%d tells for %d ops", len(v.Tells), len(v.Ops))
	}
	for i := range v.Ops {
		if err := v.Ops[i].Validate(); err != nil {
			return errors.Wrapf(err, "op %d", i)
		}
	}

	var dec rangecoding.Decoder
	dec.Init(v.Packet)
	for i := range v.Ops {
		o := &v.Ops[i]
		if err := decodeOp(&dec, o); err != nil {
			return errors.Wrapf(err, "op %d (%s)", i, o.Kind)
		}
		if got := dec.TellFrac(); got != v.Tells[i] {
			return errors.Wrapf(ErrMismatch, "op %d (%s): tell %d, want %d", i, o.Kind, got, v.Tells[i])
		}
		if r := dec.Range(); r < rangecoding.EC_MIN_RANGE || r >= 2*rangecoding.EC_MIN_RANGE {
			return errors.Wrapf(ErrMismatch, "op %d (%s): range %#x not normalized", i, o.Kind, r)
		}
		if dec.Error() != 0 {
			return errors.Wrapf(ErrMismatch, "op %d (%s): decoder error flag set", i, o.Kind)
		}
	}
	return nil
}

func decodeOp(dec *rangecoding.Decoder, o *Op) error {
	var got uint32
	switch o.Kind {
	case OpSymbol, OpBin:
		var lk rangecoding.Lookup
		switch {
		case o.Kind == OpBin && o.Ftb == 15:
			lk = dec.DecodeBinNormalized()
		case o.Kind == OpBin:
			lk = dec.DecodeBin(o.Ftb)
		case o.Ft >= 1<<14:
			lk = dec.DecodeNormalized(o.Ft)
		default:
			lk = dec.Decode(o.Ft)
		}
		if lk.Fs < o.Fl || lk.Fs >= o.Fh {
			return errors.Wrapf(ErrMismatch, "frequency %d outside [%d,%d)", lk.Fs, o.Fl, o.Fh)
		}
		dec.Update(lk, o.Fl, o.Fh)
		return nil
	case OpBitLogp:
		got = uint32(dec.DecodeBitLogp(o.Logp))
	case OpICDF:
		got = uint32(dec.DecodeICDF(o.table8(), o.Ftb))
	case OpICDF16:
		got = uint32(dec.DecodeICDF16(o.Table, o.Ftb))
	case OpICDFFt:
		got = uint32(dec.DecodeICDFFt(o.table8(), o.Ft))
	case OpICDF16Ft:
		got = uint32(dec.DecodeICDF16Ft(o.Table, o.Ft))
	case OpUint:
		got = dec.DecodeUint(o.Ft)
	case OpBits:
		got = dec.DecodeBits(o.Ftb)
	}
	if got != o.Value {
		return errors.Wrapf(ErrMismatch, "decoded %d, want %d", got, o.Value)
	}
	return nil
}
