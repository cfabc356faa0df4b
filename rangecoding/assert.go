//go:build ecdebug

package rangecoding

// debugChecks enables protocol and table assertions. Build with -tags ecdebug.
const debugChecks = true

func assertf(cond bool, msg string) {
	if !cond {
		panic("rangecoding: " + msg)
	}
}

func checkICDF[T uint8 | uint16](icdf []T) {
	assertf(len(icdf) > 0, "empty icdf table")
	for i := 1; i < len(icdf); i++ {
		assertf(icdf[i] <= icdf[i-1], "icdf table is not non-increasing")
	}
	assertf(icdf[len(icdf)-1] == 0, "icdf table does not end in 0")
}
