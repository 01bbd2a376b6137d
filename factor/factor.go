// Package factor counts prime factors by trial division.
package factor

// Base is the value every count starts from. Counts are reported as
// "factors found + Base", so 1 has count Base.
const Base uint64 = 2

// Count returns the factor count of n under the Base offset.
//
// All factors of 2 are divided out first, then odd candidates starting at 3
// while candidate*candidate <= remaining. Each successful division adds one
// to the count. The cofactor left when the loop ends is not counted, so an
// odd prime reports Base and 12 (2*2*3) reports Base+2.
//
// Count is pure and safe for concurrent use. n == 0 returns Base.
func Count(n uint64) uint64 {
	count := Base
	if n == 0 {
		return count
	}

	for n%2 == 0 {
		count++
		n /= 2
	}

	// candidate <= n/candidate is candidate*candidate <= n without overflow.
	for candidate := uint64(3); candidate <= n/candidate; {
		if n%candidate == 0 {
			count++
			n /= candidate
			continue
		}
		candidate += 2
	}

	return count
}
