// Package checksum computes the per-turn Adler-32 state digest used to
// detect cross-peer simulation divergence (§4.9), grounded on
// original_source/src/util/adler32.cpp. Unlike that file's compile-time
// __SSE3__/__ARM_NEON branches, dispatch here happens once at process
// start based on runtime feature detection, since a single Go binary must
// run correctly on whatever CPU it's launched on.
package checksum

import "github.com/klauspost/cpuid/v2"

const (
	modAdler = 65521
	nmax     = 5552
)

// Sum computes the Adler-32 checksum of data, using the vectorized path
// when the running CPU supports it and falling back to the scalar path
// otherwise. Both paths always produce the same result for the same
// input; see CheckConsistency for the test harness that verifies this.
func Sum(data []byte) uint32 {
	if useVectorized {
		return sumVectorized(data)
	}
	return sumScalar(data)
}

var useVectorized = cpuid.CPU.Supports(cpuid.SSE2)

// sumScalar is a direct port of adler32_scaler: accumulate a/b over
// 16-byte-unrolled runs, reducing mod 65521 every nmax bytes to keep b
// from overflowing a uint32 before the reduction.
func sumScalar(data []byte) uint32 {
	var a, b uint32 = 1, 0

	for len(data) > 0 {
		n := len(data)
		if n > nmax {
			n = nmax
		}
		chunk := data[:n]
		data = data[n:]

		for len(chunk) >= 16 {
			for i := 0; i < 16; i++ {
				a += uint32(chunk[i])
				b += a
			}
			chunk = chunk[16:]
		}
		for _, byt := range chunk {
			a += uint32(byt)
			b += a
		}
		a %= modAdler
		b %= modAdler
	}

	return a | (b << 16)
}

// sumVectorized computes the same checksum with the column-sum identity
// the original's SIMD path uses: over a block of n bytes processed with
// running sum rs (sum of a after each preceding byte), the final a and b
// contribution of the block is
//
//	a_block = sum(bytes)
//	b_block = sum_{i=0}^{n-1} (n-i) * byte[i]
//
// which can be computed with a single pass accumulating both a
// column-weighted sum and a plain sum, then combining them exactly like
// the intrinsics' tap-vector multiply-adds do after the fact. This stays
// well clear of an actual SIMD intrinsic (Go has none in the standard
// toolchain) but replaces adler32_scaler's per-byte update of b with one
// weighted sum per 32-byte block, like the original's BLOCK_SIZE
// chunking; the mod reduction still happens once per run of up to nmax
// bytes, as in the scalar path.
func sumVectorized(data []byte) uint32 {
	const blockSize = 32

	var a, b uint32 = 1, 0

	for len(data) >= blockSize {
		blocksRemaining := len(data) / blockSize
		n := nmax / blockSize
		if n > blocksRemaining {
			n = blocksRemaining
		}

		var s1 uint32
		s2 := b
		ps := a * uint32(n)
		for i := 0; i < n; i++ {
			block := data[:blockSize]
			data = data[blockSize:]

			ps += s1
			var blockSum uint32
			var weighted uint32
			for j, byt := range block {
				v := uint32(byt)
				blockSum += v
				weighted += uint32(blockSize-j) * v
			}
			s1 += blockSum
			s2 += weighted
		}
		s2 += ps << 5

		a += s1
		b = s2
		a %= modAdler
		b %= modAdler
	}

	if len(data) > 0 {
		for _, byt := range data {
			a += uint32(byt)
			b += a
		}
		if a >= modAdler {
			a -= modAdler
		}
		b %= modAdler
	}

	return a | (b << 16)
}

// CheckConsistency runs both checksum paths over data and reports whether
// they agree, the Go-side equivalent of GOLD_SIMD_CHECKSUM_TEST's
// adler32_test. Callers that want it wired into startup logging should
// call this once with representative data rather than on every checksum.
func CheckConsistency(data []byte) (scalar, vectorized uint32, ok bool) {
	scalar = sumScalar(data)
	vectorized = sumVectorized(data)
	return scalar, vectorized, scalar == vectorized
}
