package trace_test

import (
	"testing"

	"github.com/kr/pretty"
	"github.com/pkg/errors"

	"github.com/thesyncim/entdec/internal/testsignal"
	"github.com/thesyncim/entdec/internal/trace"
)

func recordVariant(t *testing.T, variant string, seed int64, n int) *trace.Vector {
	t.Helper()
	ops, err := testsignal.GenerateVariant(variant, seed, n)
	if err != nil {
		t.Fatalf("GenerateVariant(%s): %v", variant, err)
	}
	v, err := trace.Record(variant, ops, 64*n+64)
	if err != nil {
		t.Fatalf("Record(%s): %+v", variant, err)
	}
	v.Variant = variant
	v.Seed = seed
	return v
}

func TestRecordReplayVariants(t *testing.T) {
	for _, variant := range testsignal.Variants() {
		t.Run(variant, func(t *testing.T) {
			for seed := int64(1); seed <= 4; seed++ {
				v := recordVariant(t, variant, seed, 400)
				if err := trace.Replay(v); err != nil {
					t.Fatalf("seed %d: Replay: %+v", seed, err)
				}
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, variant := range testsignal.Variants() {
		t.Run(variant, func(t *testing.T) {
			v := recordVariant(t, variant, 7, 200)
			got, err := trace.Unmarshal(trace.Marshal(v))
			if err != nil {
				t.Fatalf("Unmarshal: %+v", err)
			}
			if diff := pretty.Diff(v, got); len(diff) > 0 {
				t.Fatalf("vector changed across Marshal/Unmarshal:\n%s", diff)
			}
			if err := trace.Replay(got); err != nil {
				t.Fatalf("Replay after Unmarshal: %+v", err)
			}
		})
	}
}

func TestReplayDetectsCorruption(t *testing.T) {
	v := recordVariant(t, testsignal.VariantMixedV1, 3, 300)
	v.Packet[len(v.Packet)/2] ^= 0x10
	err := trace.Replay(v)
	if errors.Cause(err) != trace.ErrMismatch {
		t.Fatalf("Replay(corrupted) = %v, want ErrMismatch", err)
	}
}

func TestReplayDetectsTellDrift(t *testing.T) {
	v := recordVariant(t, testsignal.VariantBinaryV1, 5, 50)
	v.Tells[10]++
	if err := trace.Replay(v); errors.Cause(err) != trace.ErrMismatch {
		t.Fatalf("Replay = %v, want ErrMismatch", err)
	}

	v.Tells = v.Tells[:len(v.Tells)-1]
	if err := trace.Replay(v); errors.Cause(err) != trace.ErrMalformed {
		t.Fatalf("Replay(short tells) = %v, want ErrMalformed", err)
	}
}

func TestRecordOverflow(t *testing.T) {
	ops, err := testsignal.GenerateVariant(testsignal.VariantRawHeavyV1, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := trace.Record("small", ops, 8); errors.Cause(err) != trace.ErrOverflow {
		t.Fatalf("Record = %v, want ErrOverflow", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		op   trace.Op
		ok   bool
	}{
		{"symbol", trace.Op{Kind: trace.OpSymbol, Fl: 2, Fh: 3, Ft: 10}, true},
		{"symbol empty", trace.Op{Kind: trace.OpSymbol, Fl: 3, Fh: 3, Ft: 10}, false},
		{"symbol past total", trace.Op{Kind: trace.OpSymbol, Fl: 9, Fh: 11, Ft: 10}, false},
		{"symbol total too large", trace.Op{Kind: trace.OpSymbol, Fl: 0, Fh: 1, Ft: 1 << 15}, false},
		{"bin", trace.Op{Kind: trace.OpBin, Fl: 0, Fh: 1 << 15, Ftb: 15}, true},
		{"bin ftb", trace.Op{Kind: trace.OpBin, Fl: 0, Fh: 1, Ftb: 16}, false},
		{"bit", trace.Op{Kind: trace.OpBitLogp, Value: 1, Logp: 15}, true},
		{"bit logp 0", trace.Op{Kind: trace.OpBitLogp, Logp: 0}, false},
		{"bit value", trace.Op{Kind: trace.OpBitLogp, Value: 2, Logp: 1}, false},
		{"icdf", trace.Op{Kind: trace.OpICDF, Value: 1, Ftb: 8, Table: []uint16{200, 100, 0}}, true},
		{"icdf wide entry", trace.Op{Kind: trace.OpICDFFt, Ft: 1000, Table: []uint16{300, 0}}, false},
		{"icdf16 wide entry", trace.Op{Kind: trace.OpICDF16Ft, Ft: 1000, Table: []uint16{300, 0}}, true},
		{"icdf unterminated", trace.Op{Kind: trace.OpICDF16, Ftb: 8, Table: []uint16{200, 1}}, false},
		{"icdf increasing", trace.Op{Kind: trace.OpICDF16, Ftb: 8, Table: []uint16{100, 200, 0}}, false},
		{"icdf above total", trace.Op{Kind: trace.OpICDF16, Ftb: 4, Table: []uint16{17, 0}}, false},
		{"icdf zero probability", trace.Op{Kind: trace.OpICDF16, Value: 1, Ftb: 8, Table: []uint16{100, 100, 0}}, false},
		{"icdf index", trace.Op{Kind: trace.OpICDF16, Value: 2, Ftb: 8, Table: []uint16{100, 0}}, false},
		{"uint", trace.Op{Kind: trace.OpUint, Value: 0xFFFFFFFE, Ft: 0xFFFFFFFF}, true},
		{"uint value", trace.Op{Kind: trace.OpUint, Value: 5, Ft: 5}, false},
		{"bits", trace.Op{Kind: trace.OpBits, Value: 1<<25 - 1, Ftb: 25}, true},
		{"bits value", trace.Op{Kind: trace.OpBits, Value: 4, Ftb: 2}, false},
		{"bits width", trace.Op{Kind: trace.OpBits, Ftb: 26}, false},
		{"unknown kind", trace.Op{Kind: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
			if !tt.ok && errors.Cause(err) != trace.ErrInvalidOp {
				t.Fatalf("Validate() = %v, want ErrInvalidOp", err)
			}
		})
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	v := recordVariant(t, testsignal.VariantUniformV1, 9, 20)
	b := trace.Marshal(v)

	// 30 bytes ends inside the packet field.
	for _, n := range []int{1, 30, len(b) - 1} {
		if _, err := trace.Unmarshal(b[:n]); errors.Cause(err) != trace.ErrMalformed {
			t.Errorf("Unmarshal(b[:%d]) = %v, want ErrMalformed", n, err)
		}
	}
	if _, err := trace.Unmarshal([]byte{0x00}); errors.Cause(err) != trace.ErrMalformed {
		t.Errorf("Unmarshal(field 0) = %v, want ErrMalformed", err)
	}
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	v := recordVariant(t, testsignal.VariantBinaryV1, 2, 10)
	// Field 15, varint 1, then field 16, bytes "xy".
	b := append([]byte{0x78, 0x01, 0x82, 0x01, 0x02, 'x', 'y'}, trace.Marshal(v)...)
	got, err := trace.Unmarshal(b)
	if err != nil {
		t.Fatalf("Unmarshal: %+v", err)
	}
	if diff := pretty.Diff(v, got); len(diff) > 0 {
		t.Fatalf("unknown fields changed the vector:\n%s", diff)
	}
}

func TestTellsMonotonic(t *testing.T) {
	v := recordVariant(t, testsignal.VariantMixedV1, 11, 300)
	prev := 0
	for i, tell := range v.Tells {
		if tell < prev {
			t.Fatalf("tell decreased at op %d: %d -> %d", i, prev, tell)
		}
		prev = tell
	}
	if bits := 8*len(v.Packet) + 1; v.Tells[len(v.Tells)-1] > bits<<3 {
		t.Fatalf("final tell %d exceeds %d packet bits", v.Tells[len(v.Tells)-1]>>3, bits)
	}
}
