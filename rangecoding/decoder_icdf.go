package rangecoding

// DecodeICDF decodes a symbol using an "inverse" CDF table, such that symbol
// s falls in [s>0 ? ft-icdf[s-1] : 0, ft-icdf[s]) with ft = 1<<ftb.
// The table must be non-increasing and end in 0; ftb must be at most 15.
// No Update call follows.
func (d *Decoder) DecodeICDF(icdf []uint8, ftb uint) int {
	return decodeICDFBin(d, icdf, ftb)
}

// DecodeICDF16 is DecodeICDF for tables with 16-bit entries.
func (d *Decoder) DecodeICDF16(icdf []uint16, ftb uint) int {
	return decodeICDFBin(d, icdf, ftb)
}

// DecodeICDFFt is DecodeICDF with an arbitrary total 1 <= ft <= EC_MAX_FT.
func (d *Decoder) DecodeICDFFt(icdf []uint8, ft uint32) int {
	return decodeICDFFt(d, icdf, ft)
}

// DecodeICDF16Ft is DecodeICDFFt for tables with 16-bit entries.
func (d *Decoder) DecodeICDF16Ft(icdf []uint16, ft uint32) int {
	return decodeICDFFt(d, icdf, ft)
}

func decodeICDFFt[T uint8 | uint16](d *Decoder, icdf []T, ft uint32) int {
	s := uint(15 - ilog(ft-1))
	scaled := ft << s
	if d.rng >= scaled<<1 {
		scaled <<= 1
		s++
	}
	return decodeICDFScaled(d, icdf, ft, scaled, s)
}

func decodeICDFBin[T uint8 | uint16](d *Decoder, icdf []T, ftb uint) int {
	return decodeICDFScaled(d, icdf, uint32(1)<<ftb, EC_MIN_RANGE, 15-ftb)
}

// decodeICDFScaled performs the lookup, the table scan and the update in one
// pass. scaled is ft<<s as chosen by the caller.
func decodeICDFScaled[T uint8 | uint16](d *Decoder, icdf []T, ft, scaled uint32, s uint) int {
	if debugChecks {
		assertf(!d.pending, "icdf decode issued before Update of a pending lookup")
		checkICDF(icdf)
	}
	dif := d.val
	dd := d.rng - scaled
	q := uint32(max(int32(dif>>(EC_WINDOW_SIZE-15)), int32(dif>>(EC_WINDOW_SIZE-16)-dd))) >> s
	q = ft - q

	fl := ft
	ret := 0
	for ; uint32(icdf[ret]) >= q; ret++ {
		fl = uint32(icdf[ret])
	}
	fl = (ft - fl) << s
	fh := (ft - uint32(icdf[ret])) << s

	u := fl + min(fl, dd)
	v := fh + min(fh, dd)
	return d.normalize(dif-u<<(EC_WINDOW_SIZE-16), v-u, ret)
}
