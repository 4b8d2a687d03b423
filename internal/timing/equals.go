// Package timing holds the constant-time comparison and timing-equalization
// primitives the check-in core is built on. Everything here is pure and
// stateless: no caching, no memoization, nothing that could reintroduce a
// secret-dependent timing differential.
package timing

import "crypto/subtle"

// onCompare, when non-nil, is invoked once per byte position examined.
// Test instrumentation only; nil in production.
var onCompare func(i int)

// ConstantTimeEquals compares two strings without early-exit branching. It
// touches every byte position of the longer input regardless of where a
// mismatch occurs, and folds a length difference into the accumulator instead
// of returning early, so wall-clock time correlates with neither content nor
// match position. Use for security codes and any other secret-bearing
// comparison.
func ConstantTimeEquals(a, b string) bool {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}

	var acc byte
	for i := 0; i < n; i++ {
		if onCompare != nil {
			onCompare(i)
		}
		var ca, cb byte
		// Indexing guards branch only on lengths, which the caller already
		// revealed by constructing the inputs; content never affects flow.
		if i < len(a) {
			ca = a[i]
		}
		if i < len(b) {
			cb = b[i]
		}
		acc |= ca ^ cb
	}

	lengthsEqual := subtle.ConstantTimeEq(int32(len(a)), int32(len(b)))
	bytesEqual := subtle.ConstantTimeByteEq(acc, 0)
	return lengthsEqual&bytesEqual == 1
}
