package testsignal

import (
	"reflect"
	"testing"

	"github.com/thesyncim/entdec/internal/trace"
)

func TestGenerateVariantDeterministic(t *testing.T) {
	for _, variant := range Variants() {
		a, err := GenerateVariant(variant, 42, 256)
		if err != nil {
			t.Fatalf("%s: %v", variant, err)
		}
		b, err := GenerateVariant(variant, 42, 256)
		if err != nil {
			t.Fatalf("%s: %v", variant, err)
		}
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("%s: same seed produced different ops", variant)
		}
		c, err := GenerateVariant(variant, 43, 256)
		if err != nil {
			t.Fatalf("%s: %v", variant, err)
		}
		if reflect.DeepEqual(a, c) {
			t.Fatalf("%s: different seeds produced identical ops", variant)
		}
	}
}

func TestGenerateVariantValid(t *testing.T) {
	for _, variant := range Variants() {
		for seed := int64(0); seed < 8; seed++ {
			ops, err := GenerateVariant(variant, seed, 500)
			if err != nil {
				t.Fatalf("%s: %v", variant, err)
			}
			for i := range ops {
				if err := ops[i].Validate(); err != nil {
					t.Fatalf("%s seed %d op %d: %v", variant, seed, i, err)
				}
			}
		}
	}
}

func TestGenerateVariantKinds(t *testing.T) {
	want := map[string][]trace.OpKind{
		VariantUniformV1:    {trace.OpSymbol},
		VariantSkewedICDFV1: {trace.OpICDF, trace.OpICDF16, trace.OpICDFFt, trace.OpICDF16Ft},
		VariantBinaryV1:     {trace.OpBitLogp, trace.OpBin},
		VariantRawHeavyV1:   {trace.OpUint, trace.OpBits},
		VariantMixedV1: {
			trace.OpSymbol, trace.OpBin, trace.OpBitLogp, trace.OpICDF, trace.OpICDF16,
			trace.OpICDFFt, trace.OpICDF16Ft, trace.OpUint, trace.OpBits,
		},
	}
	for variant, kinds := range want {
		ops, err := GenerateVariant(variant, 1, 1000)
		if err != nil {
			t.Fatalf("%s: %v", variant, err)
		}
		seen := make(map[trace.OpKind]bool)
		for _, op := range ops {
			seen[op.Kind] = true
		}
		for _, k := range kinds {
			if !seen[k] {
				t.Errorf("%s: no %s ops", variant, k)
			}
		}
		if len(seen) != len(kinds) {
			t.Errorf("%s: %d op kinds, want %d", variant, len(seen), len(kinds))
		}
	}
}

func TestGenerateVariantErrors(t *testing.T) {
	if _, err := GenerateVariant("nope", 1, 10); err == nil {
		t.Error("unknown variant accepted")
	}
	if _, err := GenerateVariant(VariantUniformV1, 1, 0); err == nil {
		t.Error("zero op count accepted")
	}
}

func TestSkewedTable(t *testing.T) {
	for _, tc := range []struct {
		nsyms int
		ft    uint32
	}{
		{2, 2}, {2, 256}, {16, 16}, {16, 32767}, {5, 100},
	} {
		icdf := skewedTable(tc.nsyms, tc.ft)
		if len(icdf) != tc.nsyms || icdf[tc.nsyms-1] != 0 {
			t.Fatalf("skewedTable(%d, %d) = %v", tc.nsyms, tc.ft, icdf)
		}
		prev := tc.ft
		for i, v := range icdf {
			if uint32(v) >= prev {
				t.Fatalf("skewedTable(%d, %d)[%d] = %d, not below %d", tc.nsyms, tc.ft, i, v, prev)
			}
			prev = uint32(v)
		}
	}
}

func TestHashBytes(t *testing.T) {
	const emptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := HashBytes(nil); got != emptySHA256 {
		t.Fatalf("HashBytes(nil) = %s", got)
	}
	if HashBytes([]byte{1}) == HashBytes([]byte{2}) {
		t.Fatal("distinct inputs hash equal")
	}
}

func TestVariantsCopy(t *testing.T) {
	v := Variants()
	v[0] = "changed"
	if Variants()[0] != VariantUniformV1 {
		t.Fatal("Variants exposes its backing slice")
	}
}
