package trace

import (
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"
)

// Vectors are stored in protobuf wire format:
//
//	message Vector {
//	  string name = 1;
//	  string variant = 2;
//	  int64 seed = 3;
//	  bytes packet = 4;
//	  repeated Op ops = 5;
//	  repeated int64 tells = 6; // packed
//	}
//
//	message Op {
//	  uint32 kind = 1;
//	  uint32 value = 2;
//	  uint32 fl = 3;
//	  uint32 fh = 4;
//	  uint32 ft = 5;
//	  uint32 ftb = 6;
//	  uint32 logp = 7;
//	  repeated uint32 table = 8; // packed
//	}
const (
	vectorName    protowire.Number = 1
	vectorVariant protowire.Number = 2
	vectorSeed    protowire.Number = 3
	vectorPacket  protowire.Number = 4
	vectorOps     protowire.Number = 5
	vectorTells   protowire.Number = 6

	opKind  protowire.Number = 1
	opValue protowire.Number = 2
	opFl    protowire.Number = 3
	opFh    protowire.Number = 4
	opFt    protowire.Number = 5
	opFtb   protowire.Number = 6
	opLogp  protowire.Number = 7
	opTable protowire.Number = 8
)

// Marshal encodes v. Zero-valued scalar fields are omitted.
func Marshal(v *Vector) []byte {
	var b []byte
	b = appendString(b, vectorName, v.Name)
	b = appendString(b, vectorVariant, v.Variant)
	b = appendVarint(b, vectorSeed, uint64(v.Seed))
	if len(v.Packet) > 0 {
		b = protowire.AppendTag(b, vectorPacket, protowire.BytesType)
		b = protowire.AppendBytes(b, v.Packet)
	}
	var msg []byte
	for i := range v.Ops {
		msg = marshalOp(msg[:0], &v.Ops[i])
		b = protowire.AppendTag(b, vectorOps, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}
	if len(v.Tells) > 0 {
		var packed []byte
		for _, t := range v.Tells {
			packed = protowire.AppendVarint(packed, uint64(t))
		}
		b = protowire.AppendTag(b, vectorTells, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

func marshalOp(b []byte, o *Op) []byte {
	b = appendVarint(b, opKind, uint64(o.Kind))
	b = appendVarint(b, opValue, uint64(o.Value))
	b = appendVarint(b, opFl, uint64(o.Fl))
	b = appendVarint(b, opFh, uint64(o.Fh))
	b = appendVarint(b, opFt, uint64(o.Ft))
	b = appendVarint(b, opFtb, uint64(o.Ftb))
	b = appendVarint(b, opLogp, uint64(o.Logp))
	if len(o.Table) > 0 {
		var packed []byte
		for _, t := range o.Table {
			packed = protowire.AppendVarint(packed, uint64(t))
		}
		b = protowire.AppendTag(b, opTable, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

func appendVarint(b []byte, num protowire.Number, x uint64) []byte {
	if x == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, x)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

// Unmarshal decodes a vector written by Marshal. Unknown fields are skipped.
func Unmarshal(b []byte) (*Vector, error) {
	v := &Vector{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(n, "vector tag")
		}
		b = b[n:]

		switch {
		case num == vectorName && typ == protowire.BytesType:
			v.Name, n = protowire.ConsumeString(b)
		case num == vectorVariant && typ == protowire.BytesType:
			v.Variant, n = protowire.ConsumeString(b)
		case num == vectorSeed && typ == protowire.VarintType:
			var x uint64
			x, n = protowire.ConsumeVarint(b)
			v.Seed = int64(x)
		case num == vectorPacket && typ == protowire.BytesType:
			var p []byte
			p, n = protowire.ConsumeBytes(b)
			v.Packet = append(v.Packet[:0], p...)
		case num == vectorOps && typ == protowire.BytesType:
			var msg []byte
			msg, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				o, err := unmarshalOp(msg)
				if err != nil {
					return nil, errors.Wrapf(err, "op %d", len(v.Ops))
				}
				v.Ops = append(v.Ops, o)
			}
		case num == vectorTells && isRepeatedVarint(typ):
			n = consumeRepeated(b, typ, func(x uint64) { v.Tells = append(v.Tells, int(int64(x))) })
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, malformed(n, "vector field")
		}
		b = b[n:]
	}
	return v, nil
}

func unmarshalOp(b []byte) (Op, error) {
	var o Op
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Op{}, malformed(n, "op tag")
		}
		b = b[n:]

		if num == opTable && isRepeatedVarint(typ) {
			n = consumeRepeated(b, typ, func(x uint64) { o.Table = append(o.Table, uint16(x)) })
		} else if typ == protowire.VarintType && num >= opKind && num <= opLogp {
			var x uint64
			x, n = protowire.ConsumeVarint(b)
			switch num {
			case opKind:
				o.Kind = OpKind(x)
			case opValue:
				o.Value = uint32(x)
			case opFl:
				o.Fl = uint32(x)
			case opFh:
				o.Fh = uint32(x)
			case opFt:
				o.Ft = uint32(x)
			case opFtb:
				o.Ftb = uint(x)
			case opLogp:
				o.Logp = uint(x)
			}
		} else {
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return Op{}, malformed(n, "op field")
		}
		b = b[n:]
	}
	return o, nil
}

func isRepeatedVarint(typ protowire.Type) bool {
	return typ == protowire.VarintType || typ == protowire.BytesType
}

// consumeRepeated reads one occurrence of a repeated varint field, packed or
// not, and returns the number of bytes consumed.
func consumeRepeated(b []byte, typ protowire.Type, fn func(uint64)) int {
	if typ == protowire.VarintType {
		x, n := protowire.ConsumeVarint(b)
		if n >= 0 {
			fn(x)
		}
		return n
	}
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n
	}
	for len(packed) > 0 {
		x, m := protowire.ConsumeVarint(packed)
		if m < 0 {
			return m
		}
		fn(x)
		packed = packed[m:]
	}
	return n
}

func malformed(n int, what string) error {
	return errors.Wrapf(ErrMalformed, "%s: %v", what, protowire.ParseError(n))
}
