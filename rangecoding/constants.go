// Package rangecoding implements the carryless range coder used by the
// Xiph/Daala family of codecs: a 15-bit precision decoder whose range register
// is kept in [32768, 65536) and whose value register is a left-aligned window
// fed from the front of the packet, plus a second bit reservoir fed from the
// back of the packet for raw bits.
package rangecoding

const (
	EC_WINDOW_SIZE  = 32     // Bits in the decoder value register
	EC_LOTS_OF_BITS = 0x4000 // Bit count sentinel once a cursor runs off the buffer
	EC_UINT_BITS    = 4      // Range-coded high bits of DecodeUint values
	EC_BITRES       = 3      // Fractional bits returned by TellFrac
	EC_MIN_RANGE    = 0x8000 // rng lower bound after normalization (and initial rng)
	EC_MAX_FT       = 32767  // Largest total accepted by Decode
	EC_MAX_RAW_BITS = 25     // Largest field accepted by DecodeBits

	// ecUintShift is the scale applied to the high part of a split DecodeUint.
	ecUintShift = 15 - EC_UINT_BITS
)
