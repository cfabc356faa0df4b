// Package testsignal generates deterministic op streams for exercising the
// range coder.
package testsignal

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"

	"github.com/thesyncim/entdec/internal/trace"
	"github.com/thesyncim/entdec/rangecoding"
)

const (
	VariantUniformV1    = "uniform_v1"
	VariantSkewedICDFV1 = "skewed_icdf_v1"
	VariantBinaryV1     = "binary_v1"
	VariantRawHeavyV1   = "raw_heavy_v1"
	VariantMixedV1      = "mixed_v1"
)

var variants = []string{
	VariantUniformV1,
	VariantSkewedICDFV1,
	VariantBinaryV1,
	VariantRawHeavyV1,
	VariantMixedV1,
}

func Variants() []string {
	out := make([]string, len(variants))
	copy(out, variants)
	return out
}

type opGen func(g *noise, i int) trace.Op

// GenerateVariant returns n ops of the named variant. The same variant, seed
// and n always yield the same ops.
func GenerateVariant(variant string, seed int64, n int) ([]trace.Op, error) {
	if n <= 0 {
		return nil, errors.Errorf("invalid op count: %d", n)
	}

	var gens []opGen
	switch variant {
	case VariantUniformV1:
		gens = []opGen{uniformOp}
	case VariantSkewedICDFV1:
		gens = []opGen{skewedICDFOp}
	case VariantBinaryV1:
		gens = []opGen{binaryOp}
	case VariantRawHeavyV1:
		gens = []opGen{rawOp}
	case VariantMixedV1:
		gens = []opGen{uniformOp, skewedICDFOp, binaryOp, rawOp}
	default:
		return nil, errors.Errorf("unknown signal variant %q", variant)
	}

	g := newNoise(seed)
	ops := make([]trace.Op, n)
	for i := range ops {
		gen := gens[0]
		if len(gens) > 1 {
			gen = gens[g.intn(uint32(len(gens)))]
		}
		ops[i] = gen(g, i)
	}
	return ops, nil
}

// HashBytes returns the hex SHA-256 of b.
func HashBytes(b []byte) string {
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:])
}

func uniformOp(g *noise, _ int) trace.Op {
	ft := 1 + g.intn(rangecoding.EC_MAX_FT)
	fl := g.intn(ft)
	// Mostly single values, sometimes wide symbols.
	width := uint32(1)
	if g.intn(4) == 0 {
		width = 1 + g.intn(ft-fl)
	}
	return trace.Op{Kind: trace.OpSymbol, Fl: fl, Fh: fl + width, Ft: ft}
}

func skewedICDFOp(g *noise, i int) trace.Op {
	nsyms := 2 + int(g.intn(15))
	op := trace.Op{}
	var ft uint32
	switch i % 4 {
	case 0:
		op.Kind = trace.OpICDF
		op.Ftb = uint(5 + g.intn(4))
		ft = 1 << op.Ftb
	case 1:
		op.Kind = trace.OpICDF16
		op.Ftb = uint(8 + g.intn(8))
		ft = 1 << op.Ftb
	case 2:
		op.Kind = trace.OpICDFFt
		ft = uint32(nsyms) + g.intn(256-uint32(nsyms))
		op.Ft = ft
	default:
		op.Kind = trace.OpICDF16Ft
		ft = uint32(nsyms) + g.intn(rangecoding.EC_MAX_FT+1-uint32(nsyms))
		op.Ft = ft
	}
	op.Table = skewedTable(nsyms, ft)

	// Draw the symbol from the table's own distribution.
	r := g.intn(ft)
	for ft-uint32(op.Table[op.Value]) <= r {
		op.Value++
	}
	return op
}

// skewedTable builds an inverse CDF over nsyms symbols (nsyms <= ft) whose
// frequencies halve from one symbol to the next, each at least 1.
func skewedTable(nsyms int, ft uint32) []uint16 {
	spare := uint64(ft) - uint64(nsyms)
	var wsum uint64
	for i := 0; i < nsyms; i++ {
		wsum += 1 << uint(nsyms-1-i)
	}
	freqs := make([]uint64, nsyms)
	var used uint64
	for i := range freqs {
		freqs[i] = 1 + spare*(1<<uint(nsyms-1-i))/wsum
		used += freqs[i]
	}
	freqs[0] += uint64(ft) - used

	icdf := make([]uint16, nsyms)
	rem := uint64(ft)
	for i, f := range freqs {
		rem -= f
		icdf[i] = uint16(rem)
	}
	return icdf
}

func binaryOp(g *noise, i int) trace.Op {
	if i%3 == 2 {
		ftb := uint(g.intn(16))
		ft := uint32(1) << ftb
		fl := g.intn(ft)
		return trace.Op{Kind: trace.OpBin, Fl: fl, Fh: fl + 1, Ftb: ftb}
	}
	logp := uint(1 + g.intn(15))
	var bit uint32
	if g.intn(1<<logp) == 0 {
		bit = 1
	}
	return trace.Op{Kind: trace.OpBitLogp, Value: bit, Logp: logp}
}

func rawOp(g *noise, i int) trace.Op {
	switch i % 3 {
	case 0:
		// Totals on both sides of the split threshold.
		ft := 1 + g.intn(40)
		return trace.Op{Kind: trace.OpUint, Value: g.intn(ft), Ft: ft}
	case 1:
		ft := g.next()
		if ft == 0 {
			ft = 1
		}
		return trace.Op{Kind: trace.OpUint, Value: g.intn(ft), Ft: ft}
	default:
		nbits := uint(g.intn(rangecoding.EC_MAX_RAW_BITS + 1))
		return trace.Op{Kind: trace.OpBits, Value: g.next() & (1<<nbits - 1), Ftb: nbits}
	}
}

// noise is a xorshift32 generator.
type noise struct {
	x uint32
}

func newNoise(seed int64) *noise {
	x := uint32(seed*1664525+1013904223) ^ uint32(seed>>32)
	if x == 0 {
		x = 2246822519
	}
	return &noise{x: x}
}

func (g *noise) next() uint32 {
	x := g.x
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	g.x = x
	return x
}

// intn returns a value in [0, n).
func (g *noise) intn(n uint32) uint32 {
	return g.next() % n
}
