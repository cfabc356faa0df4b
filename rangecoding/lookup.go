package rangecoding

// Lookup is the result of a frequency lookup (Decode, DecodeNormalized,
// DecodeBin, DecodeBinNormalized). The caller maps Fs to a symbol and then
// hands the Lookup back to exactly one Update call together with the
// symbol's [fl, fh) bounds.
type Lookup struct {
	// Fs is the cumulative frequency of the coded symbol. If the symbol
	// occupies [fl, fh) of the total, then fl <= Fs < fh.
	Fs uint32

	ft  uint32 // Total passed to the lookup
	ext uint   // Scale shift applied to ft
}

// Total returns the total frequency the lookup was made with.
func (l Lookup) Total() uint32 {
	return l.ft
}
