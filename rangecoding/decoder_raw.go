package rangecoding

// DecodeUint decodes an integer uniformly distributed in [0, ft), as written
// by EncodeUint. ft must be at least 1.
//
// Totals above 1<<EC_UINT_BITS are coded as EC_UINT_BITS range-coded high
// bits followed by raw low bits. A reconstructed value >= ft sets the sticky
// error flag and is clamped to ft-1.
func (d *Decoder) DecodeUint(ft uint32) uint32 {
	if ft > 1<<EC_UINT_BITS {
		ft--
		ftb := uint(ilog(ft) - EC_UINT_BITS)
		ft1 := (ft>>ftb + 1) << ecUintShift
		lk := d.DecodeNormalized(ft1)
		fs := lk.Fs &^ (1<<ecUintShift - 1)
		d.Update(lk, fs, fs+1<<ecUintShift)
		t := fs>>ecUintShift<<ftb | d.decodeBitsWide(ftb)
		if t <= ft {
			return t
		}
		d.err = 1
		return ft
	}
	lk := d.Decode(ft)
	d.Update(lk, lk.Fs, lk.Fs+1)
	return lk.Fs
}

// decodeBitsWide is DecodeBits without the EC_MAX_RAW_BITS limit.
// Wide fields are read as two raw fields, low 16 bits first, which leaves
// the bit order on the wire unchanged.
func (d *Decoder) decodeBitsWide(nbits uint) uint32 {
	if nbits <= EC_MAX_RAW_BITS {
		return d.DecodeBits(nbits)
	}
	lo := d.DecodeBits(16)
	return d.DecodeBits(nbits-16)<<16 | lo
}

// DecodeBits extracts nbits (0 <= nbits <= EC_MAX_RAW_BITS) raw bits that
// were written with EncodeBits. Raw bits are read from the end of the buffer
// and become zero once it is exhausted.
func (d *Decoder) DecodeBits(nbits uint) uint32 {
	window := d.endWindow
	available := d.nendBits
	if available < int(nbits) {
		endOffs := d.endOffs
		for {
			if endOffs >= d.storage {
				available = EC_LOTS_OF_BITS
				break
			}
			endOffs++
			window |= uint32(d.buf[d.storage-endOffs]) << uint(available)
			available += 8
			if available > EC_WINDOW_SIZE-8 {
				break
			}
		}
		d.endOffs = endOffs
	}
	ret := window & (uint32(1)<<nbits - 1)
	window >>= nbits
	available -= int(nbits)
	d.endWindow = window
	d.nendBits = available
	d.nbitsTotal += int(nbits)
	return ret
}
