package akm

import (
	"crypto/sha256"
	"encoding/binary"
)

// firstThirtyTwoPrimes backs both Modulo64K's churn and ProcessRandomDataSet's
// subset selection. The exact table, and the exact arithmetic below, must be
// preserved byte-for-byte: any deviation breaks cross-node convergence, since
// every peer in a relationship must derive the same key from the same seed.
var firstThirtyTwoPrimes = [32]uint32{
	2, 3, 5, 7, 11, 13, 17, 19, 23, 29,
	31, 37, 41, 43, 47, 53, 59, 61, 67, 71,
	73, 79, 83, 89, 97, 101, 103, 107, 109, 113,
	127, 131,
}

const (
	twoTo31st              uint32 = 1 << 31
	twoTo32ndPowerMinusOne  uint32 = 0xFFFFFFFF
	twoTo16th              uint32 = 1 << 16
	minimumAllowedPDVSubset uint32 = 32
)

// modulo64K is a deterministic, non-cryptographic churn function returning a
// value strictly less than 2^16. It is a pure function of seed.
func modulo64K(seed uint32) uint32 {
	random := seed
	for random < twoTo31st {
		random <<= 1
		prime := firstThirtyTwoPrimes[random%32]
		if (twoTo32ndPowerMinusOne - random) > 2*prime {
			random += prime
			random += random % prime
		}
	}
	return random % twoTo16th
}

// processRandomDataSet deterministically selects a pseudo-random subset of
// pdv seeded by seed, hashes the subset with SHA-256, and fills out with the
// digest (truncated or zero-padded to len(out)). It returns the next seed to
// use for this key-slot family, derived from the digest.
//
// This is not a secure RNG on its own: security rests on the secrecy of pdv
// and on SHA-256 compressing the selected subset, not on the selection
// process itself.
func processRandomDataSet(pdv [PDVSize]byte, seed uint32, out []byte) uint32 {
	sz := modulo64K(seed) % PDVSize
	for sz < minimumAllowedPDVSubset || sz == PDVSize {
		r1 := firstThirtyTwoPrimes[sz%32]
		r2 := (sz << 1) + r1
		r3 := r2 % r1
		if r3 == 0 {
			sz = (r1 + r2) % PDVSize
		} else {
			sz = r3 % PDVSize
		}
	}

	var flags [PDVSize]bool
	selected := make([]byte, 0, sz)
	selSeed := seed
	var numSelected uint32
	for numSelected < sz {
		idx := modulo64K(selSeed) % PDVSize
		if !flags[idx] {
			selected = append(selected, pdv[idx])
			flags[idx] = true
			numSelected++
		}

		primeIdx := (selSeed % firstThirtyTwoPrimes[idx%32]) % 32
		prime := firstThirtyTwoPrimes[primeIdx]
		diff := twoTo32ndPowerMinusOne - selSeed
		if diff > prime {
			selSeed += prime
		} else {
			selSeed -= diff
		}
	}

	digest := sha256.Sum256(selected)

	for i := range out {
		out[i] = 0
	}
	copyLen := len(digest)
	if copyLen > len(out) {
		copyLen = len(out)
	}
	copy(out[:copyLen], digest[:copyLen])

	newSeedBytes := [4]byte{digest[0], digest[5], digest[10], digest[15]}
	return binary.LittleEndian.Uint32(newSeedBytes[:])
}
