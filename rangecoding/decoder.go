package rangecoding

import "math/bits"

// Decoder is a carryless range decoder.
//
// Symbol data is read from the front of the buffer, most significant bit
// first. Raw bits (DecodeBits, and the low part of large DecodeUint values)
// are read from the back of the buffer, least significant bit first.
// The buffer is never written to and may be shared between decoders.
type Decoder struct {
	buf        []byte // Input buffer (not owned)
	storage    uint32 // Buffer size
	offs       uint32 // Next byte read from the front
	endOffs    uint32 // Bytes consumed from the back
	endWindow  uint32 // Raw bit reservoir, LSB first
	nendBits   int    // Valid bits in endWindow
	nbitsTotal int    // Bits consumed so far (for tell functions)
	rng        uint32 // Range size, in [EC_MIN_RANGE, 2*EC_MIN_RANGE) after normalize
	val        uint32 // Left-aligned window of the undecoded stream, minus the range base
	cnt        int    // Bits buffered in val beyond the top 16
	pending    bool   // A Lookup has been issued and not yet consumed by Update
	err        int    // Sticky error flag
}

// Init initializes the decoder with the given byte buffer.
func (d *Decoder) Init(buf []byte) {
	storage := uint32(len(buf))
	var dif uint32
	offs := uint32(0)
	c := -15
	for s := EC_WINDOW_SIZE - 9; s >= 0; s -= 8 {
		if offs >= storage {
			c = EC_LOTS_OF_BITS
			break
		}
		c += 8
		dif |= uint32(buf[offs]) << uint(s)
		offs++
	}

	d.buf = buf
	d.storage = storage
	d.offs = offs
	d.endOffs = 0
	d.endWindow = 0
	d.nendBits = 0
	// One bit is reserved for stream termination.
	d.nbitsTotal = 1
	d.rng = EC_MIN_RANGE
	d.val = dif
	d.cnt = c
	d.pending = false
	d.err = 0
}

// normalize takes updated dif and rng values, shifts them back so that
// EC_MIN_RANGE <= rng < 2*EC_MIN_RANGE (reading more bytes into dif when the
// buffered bits run out), stores them and returns ret.
func (d *Decoder) normalize(dif, rng uint32, ret int) int {
	sh := 16 - ilog(rng)
	c := d.cnt - sh
	dif <<= uint(sh)
	if c < 0 {
		offs := d.offs
		for s := EC_WINDOW_SIZE - 9 - (c + 15); s >= 0; s -= 8 {
			if offs >= d.storage {
				c = EC_LOTS_OF_BITS
				break
			}
			dif |= uint32(d.buf[offs]) << uint(s)
			offs++
			c += 8
		}
		d.offs = offs
	}
	d.nbitsTotal += sh
	d.val = dif
	d.rng = rng << uint(sh)
	d.cnt = c
	return ret
}

// dif16 returns the top 16 bits of the value window.
func (d *Decoder) dif16() uint32 {
	return d.val >> (EC_WINDOW_SIZE - 16)
}

// lookup finishes a frequency lookup given the scaled total ft<<s.
func (d *Decoder) lookup(ft, scaled uint32, s uint) Lookup {
	if debugChecks {
		assertf(!d.pending, "frequency lookup issued before Update of the previous one")
	}
	d.pending = true
	dif := d.dif16()
	dd := d.rng - scaled
	q := max(int32(dif>>1), int32(dif-dd))
	return Lookup{Fs: uint32(q) >> s, ft: ft, ext: s}
}

// Decode calculates the cumulative frequency of the next symbol given the
// total frequency ft of its alphabet (1 <= ft <= EC_MAX_FT).
// The result must be passed to Update before the next lookup.
func (d *Decoder) Decode(ft uint32) Lookup {
	s := uint(15 - ilog(ft-1))
	scaled := ft << s
	if d.rng >= scaled<<1 {
		scaled <<= 1
		s++
	}
	return d.lookup(ft, scaled, s)
}

// DecodeNormalized is Decode for 16384 <= ft <= 32768.
// It needs at most one extra doubling of ft and no logarithm.
func (d *Decoder) DecodeNormalized(ft uint32) Lookup {
	s := uint(0)
	if d.rng >= ft<<1 {
		s = 1
	}
	return d.lookup(ft, ft<<s, s)
}

// DecodeBinNormalized is DecodeNormalized with ft == 32768.
func (d *Decoder) DecodeBinNormalized() Lookup {
	return d.lookup(EC_MIN_RANGE, EC_MIN_RANGE, 0)
}

// DecodeBin is Decode with ft == 1<<ftb, for ftb <= 15.
func (d *Decoder) DecodeBin(ftb uint) Lookup {
	return d.lookup(uint32(1)<<ftb, EC_MIN_RANGE, 15-ftb)
}

// Update advances the decoder past the symbol identified from lk.
// fl and fh are the cumulative frequencies of all symbols before the decoded
// one and up to and including it, so that fl <= lk.Fs < fh.
func (d *Decoder) Update(lk Lookup, fl, fh uint32) {
	if debugChecks {
		assertf(d.pending, "Update without a pending frequency lookup")
		assertf(fl <= lk.Fs && lk.Fs < fh && fh <= lk.ft, "symbol bounds do not contain the lookup")
	}
	d.pending = false
	s := lk.ext
	fl <<= s
	fh <<= s
	dd := d.rng - lk.ft<<s
	// Range beyond the scaled total is donated to the low symbols.
	u := fl + min(fl, dd)
	v := fh + min(fh, dd)
	d.normalize(d.val-u<<(EC_WINDOW_SIZE-16), v-u, 0)
}

// DecodeBitLogp decodes a bit that has a 1/(1<<logp) probability of being a
// one (logp <= 15). No Update call follows.
func (d *Decoder) DecodeBitLogp(logp uint) int {
	if debugChecks {
		assertf(!d.pending, "bit decode issued before Update of a pending lookup")
	}
	dif := d.val
	r := d.rng
	v := EC_MIN_RANGE - uint32(1)<<(15-logp)
	v += min(v, r-EC_MIN_RANGE)
	vw := v << (EC_WINDOW_SIZE - 16)
	ret := 0
	if dif >= vw {
		ret = 1
		dif -= vw
		r -= v
	} else {
		r = v
	}
	return d.normalize(dif, r, ret)
}

// Tell returns the number of bits consumed so far, including the bit
// reserved for stream termination.
func (d *Decoder) Tell() int {
	return d.nbitsTotal
}

// TellFrac returns the number of bits consumed in 1/8 bit units.
// It is never smaller than the exact value.
func (d *Decoder) TellFrac() int {
	return tellFrac(d.nbitsTotal, d.rng)
}

// tellFrac computes nbits minus the fractional bits still available in rng,
// at EC_BITRES precision.
func tellFrac(nbitsTotal int, rng uint32) int {
	nbits := nbitsTotal << EC_BITRES
	l := 0
	for i := 0; i < EC_BITRES; i++ {
		rng = rng * rng >> 15
		b := int(rng >> 16)
		l = l<<1 | b
		rng >>= uint(b)
	}
	return nbits - l
}

// State returns the internal range decoder state (rng, val).
func (d *Decoder) State() (uint32, uint32) {
	return d.rng, d.val
}

// ilog computes the integer log base 2 (position of highest set bit + 1).
// Returns 0 for input 0.
func ilog(x uint32) int {
	return bits.Len32(x)
}

// Error returns the error flag. Non-zero indicates that DecodeUint produced
// an out of range value at some point.
func (d *Decoder) Error() int {
	return d.err
}

// BytesUsed returns the number of bytes consumed from the front of the buffer.
func (d *Decoder) BytesUsed() int {
	return int(d.offs)
}

// StorageBits returns the total number of bits in the input buffer.
func (d *Decoder) StorageBits() int {
	return int(d.storage * 8)
}

// Range returns the current range value (for testing/debugging).
func (d *Decoder) Range() uint32 {
	return d.rng
}

// Val returns the current value window (for testing/debugging).
func (d *Decoder) Val() uint32 {
	return d.val
}
