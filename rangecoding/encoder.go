package rangecoding

// Encoder is the carryless range encoder matching Decoder.
//
// Entropy-coded output is buffered as 9-bit words (8 bits plus a carry) and
// carry-propagated by Done. Raw bits are written from the end of the output
// buffer towards the front.
type Encoder struct {
	buf        []byte   // Output buffer (pre-allocated)
	storage    uint32   // Buffer capacity
	precarry   []uint16 // Entropy-coded bytes before carry propagation
	endOffs    uint32   // Raw bytes written at the end of buf
	endWindow  uint32   // Raw bits not yet flushed, LSB first
	nendBits   int      // Bits in endWindow
	nbitsTotal int      // Total bits written (for tell functions)
	low        uint32   // Low end of the range, with pending output bits above it
	rng        uint32   // Range size
	cnt        int      // Pending output bits minus 9
	err        int      // Error flag (non-zero when buf was too small)
}

// Init initializes the encoder with the given output buffer.
// The buffer must be pre-allocated to the maximum expected output size.
func (e *Encoder) Init(buf []byte) {
	e.buf = buf
	e.storage = uint32(len(buf))
	e.precarry = e.precarry[:0]
	e.endOffs = 0
	e.endWindow = 0
	e.nendBits = 0
	e.nbitsTotal = 1
	e.low = 0
	e.rng = EC_MIN_RANGE
	// -9 so that it crosses zero after one byte plus one carry bit.
	e.cnt = -9
	e.err = 0
}

// normalize stores low and rng after shifting rng back into
// [EC_MIN_RANGE, 2*EC_MIN_RANGE), emitting every complete byte of low.
func (e *Encoder) normalize(low, rng uint32) {
	c := e.cnt
	d := 16 - ilog(rng)
	s := c + d
	if s >= 0 {
		c += 16
		m := uint32(1)<<uint(c) - 1
		if s >= 8 {
			e.precarry = append(e.precarry, uint16(low>>uint(c)))
			low &= m
			c -= 8
			m >>= 8
		}
		e.precarry = append(e.precarry, uint16(low>>uint(c)))
		s = c + d - 24
		low &= m
		if uint32(len(e.precarry))+e.endOffs > e.storage {
			e.err = -1
		}
	}
	e.low = low << uint(d)
	e.rng = rng << uint(d)
	e.cnt = s
	e.nbitsTotal += d
}

// Encode encodes a symbol occupying [fl, fh) of a total ft (1 <= ft <= 32768).
func (e *Encoder) Encode(fl, fh, ft uint32) {
	r := e.rng
	s := uint(15 - ilog(ft-1))
	ft <<= s
	if r >= ft<<1 {
		ft <<= 1
		s++
	}
	fl <<= s
	fh <<= s
	d := r - ft
	u := fl + min(fl, d)
	v := fh + min(fh, d)
	e.normalize(e.low+u, v-u)
}

// EncodeBin encodes a symbol occupying [fl, fh) of a total 1<<ftb.
func (e *Encoder) EncodeBin(fl, fh uint32, ftb uint) {
	e.Encode(fl, fh, uint32(1)<<ftb)
}

// EncodeBitLogp encodes a bit that has a 1/(1<<logp) probability of being a one.
func (e *Encoder) EncodeBitLogp(val int, logp uint) {
	l := e.low
	r := e.rng
	v := EC_MIN_RANGE - uint32(1)<<(15-logp)
	v += min(v, r-EC_MIN_RANGE)
	if val != 0 {
		l += v
		r -= v
	} else {
		r = v
	}
	e.normalize(l, r)
}

// EncodeICDF encodes symbol s using an inverse CDF table with total 1<<ftb.
func (e *Encoder) EncodeICDF(s int, icdf []uint8, ftb uint) {
	encodeICDF(e, s, icdf, uint32(1)<<ftb)
}

// EncodeICDF16 is EncodeICDF for tables with 16-bit entries.
func (e *Encoder) EncodeICDF16(s int, icdf []uint16, ftb uint) {
	encodeICDF(e, s, icdf, uint32(1)<<ftb)
}

// EncodeICDFFt encodes symbol s using an inverse CDF table with total ft.
func (e *Encoder) EncodeICDFFt(s int, icdf []uint8, ft uint32) {
	encodeICDF(e, s, icdf, ft)
}

// EncodeICDF16Ft is EncodeICDFFt for tables with 16-bit entries.
func (e *Encoder) EncodeICDF16Ft(s int, icdf []uint16, ft uint32) {
	encodeICDF(e, s, icdf, ft)
}

func encodeICDF[T uint8 | uint16](e *Encoder, s int, icdf []T, ft uint32) {
	fl := uint32(0)
	if s > 0 {
		fl = ft - uint32(icdf[s-1])
	}
	e.Encode(fl, ft-uint32(icdf[s]), ft)
}

// EncodeUint encodes fl uniformly distributed in [0, ft).
func (e *Encoder) EncodeUint(fl, ft uint32) {
	if ft > 1<<EC_UINT_BITS {
		ft--
		ftb := uint(ilog(ft) - EC_UINT_BITS)
		ft1 := ft>>ftb + 1
		fl1 := fl >> ftb
		e.Encode(fl1<<ecUintShift, (fl1+1)<<ecUintShift, ft1<<ecUintShift)
		low := fl & (uint32(1)<<ftb - 1)
		if ftb > EC_MAX_RAW_BITS {
			e.EncodeBits(low&0xFFFF, 16)
			e.EncodeBits(low>>16, ftb-16)
			return
		}
		e.EncodeBits(low, ftb)
		return
	}
	e.Encode(fl, fl+1, ft)
}

// EncodeBits writes ftb (<= EC_MAX_RAW_BITS) raw bits of fl.
func (e *Encoder) EncodeBits(fl uint32, ftb uint) {
	window := e.endWindow
	used := e.nendBits
	if used+int(ftb) > EC_WINDOW_SIZE {
		for used >= 8 {
			e.writeEndByte(byte(window))
			window >>= 8
			used -= 8
		}
	}
	window |= fl << uint(used)
	used += int(ftb)
	e.endWindow = window
	e.nendBits = used
	e.nbitsTotal += int(ftb)
}

// writeEndByte writes a byte at the end of the output buffer.
func (e *Encoder) writeEndByte(b byte) {
	if uint32(len(e.precarry))+e.endOffs >= e.storage {
		e.err = -1
		return
	}
	e.endOffs++
	e.buf[e.storage-e.endOffs] = b
}

// Done finalizes the encoding and returns the encoded bytes, entropy-coded
// bytes first and raw bytes after. It returns nil when the output buffer was
// too small. The encoder must be re-initialized before reuse.
func (e *Encoder) Done() []byte {
	if e.err != 0 {
		return nil
	}
	// Emit the fewest bits that decode correctly whatever bits follow.
	l := e.low
	r := e.rng
	c := e.cnt
	s := 9
	m := uint32(0x7FFF)
	end := (l + m) &^ m
	for (end | m) >= l+r {
		s++
		m >>= 1
		end = (l + m) &^ m
	}
	s += c
	if s > 0 {
		n := uint32(1)<<uint(c+16) - 1
		for {
			e.precarry = append(e.precarry, uint16(end>>uint(c+16)))
			end &= n
			s -= 8
			c -= 8
			n >>= 8
			if s <= 0 {
				break
			}
		}
	}

	offs := uint32(len(e.precarry))
	// -s bits of the last entropy byte are unused and can hold raw bits.
	s = -s
	window := e.endWindow
	used := e.nendBits
	extra := max((used-s+7)>>3, 0)
	if offs+e.endOffs+uint32(extra) > e.storage {
		e.err = -1
		return nil
	}
	for used > s {
		e.writeEndByte(byte(window))
		window >>= 8
		used -= 8
	}

	carry := 0
	for i := int(offs) - 1; i >= 0; i-- {
		carry += int(e.precarry[i])
		e.buf[i] = byte(carry)
		carry >>= 8
	}
	if e.endOffs > 0 {
		copy(e.buf[offs:], e.buf[e.storage-e.endOffs:e.storage])
	}
	if used > 0 {
		e.buf[offs-1] |= byte(window)
	}
	return e.buf[:offs+e.endOffs]
}

// Tell returns the number of bits written so far.
func (e *Encoder) Tell() int {
	return e.nbitsTotal
}

// TellFrac returns the number of bits written in 1/8 bit units.
func (e *Encoder) TellFrac() int {
	return tellFrac(e.nbitsTotal, e.rng)
}

// Range returns the current range value (for testing/debugging).
func (e *Encoder) Range() uint32 {
	return e.rng
}

// Error returns the error flag. Non-zero indicates the buffer was too small.
func (e *Encoder) Error() int {
	return e.err
}
