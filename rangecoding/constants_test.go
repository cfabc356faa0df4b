package rangecoding

import "testing"

// TestConstants pins the coder constants that the bitstream depends on.
func TestConstants(t *testing.T) {
	tests := []struct {
		name     string
		got      int
		expected int
	}{
		{"EC_WINDOW_SIZE", EC_WINDOW_SIZE, 32},
		{"EC_LOTS_OF_BITS", EC_LOTS_OF_BITS, 0x4000},
		{"EC_UINT_BITS", EC_UINT_BITS, 4},
		{"EC_BITRES", EC_BITRES, 3},
		{"EC_MIN_RANGE", EC_MIN_RANGE, 0x8000},
		{"EC_MAX_FT", EC_MAX_FT, 1<<15 - 1},
		{"EC_MAX_RAW_BITS", EC_MAX_RAW_BITS, EC_WINDOW_SIZE - 7},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.expected {
				t.Errorf("%s = 0x%X, want 0x%X", tc.name, tc.got, tc.expected)
			}
		})
	}
}

func TestIlog(t *testing.T) {
	tests := []struct {
		in   uint32
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{0x7FFF, 15},
		{0x8000, 16},
		{0xFFFFFFFF, 32},
	}
	for _, tc := range tests {
		if got := ilog(tc.in); got != tc.want {
			t.Errorf("ilog(%#x) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
