package rangecoding_test

import (
	"fmt"

	"github.com/thesyncim/entdec/rangecoding"
)

func Example() {
	// A four-symbol alphabet with probabilities 1/2, 1/4, 3/16 and 1/16.
	icdf := []uint8{8, 4, 1, 0}

	var enc rangecoding.Encoder
	enc.Init(make([]byte, 64))
	for _, s := range []int{0, 0, 1, 3, 2, 0} {
		enc.EncodeICDF(s, icdf, 4)
	}
	enc.EncodeUint(1234, 5000)
	enc.EncodeBits(0x2A, 6)
	packet := enc.Done()

	var dec rangecoding.Decoder
	dec.Init(packet)
	syms := make([]int, 6)
	for i := range syms {
		syms[i] = dec.DecodeICDF(icdf, 4)
	}
	fmt.Println(syms)
	fmt.Println(dec.DecodeUint(5000))
	fmt.Printf("%#x\n", dec.DecodeBits(6))
	fmt.Println(dec.Error())
	// Output:
	// [0 0 1 3 2 0]
	// 1234
	// 0x2a
	// 0
}

func ExampleDecoder_Update() {
	var enc rangecoding.Encoder
	enc.Init(make([]byte, 16))
	// Symbol 7 of 10 equally likely symbols.
	enc.Encode(7, 8, 10)
	packet := enc.Done()

	var dec rangecoding.Decoder
	dec.Init(packet)
	lk := dec.Decode(10)
	fmt.Println(lk.Fs, lk.Total())
	dec.Update(lk, lk.Fs, lk.Fs+1)
	// Output:
	// 7 10
}
