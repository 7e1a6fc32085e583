package geometry

import "math"

// Segments splits an edge of arc length total into n segment lengths, listed
// from the left end of the edge.
//
// When the two vertical edges differ in length the segments follow a
// geometric progression: longest next to the longer vertical edge (the side
// nearer the camera), shortest next to the shorter one, with the ratio between
// the outer segments equal to (longer*discount)/shorter. discount outside
// (0, 1] is treated as 1. A ratio at or below 1 gives equal spacing.
func Segments(total float64, n int, leftLen, rightLen, discount float64) []float64 {
	if n <= 0 {
		return nil
	}
	segs := make([]float64, n)
	if discount <= 0 || discount > 1 {
		discount = 1
	}
	longer, shorter := math.Max(leftLen, rightLen), math.Min(leftLen, rightLen)

	r := 1.0
	if shorter > 0 && !nearlyEqual(leftLen, rightLen) {
		r = longer * discount / shorter
	}
	if n == 1 || r <= 1 {
		for i := range segs {
			segs[i] = total / float64(n)
		}
		return segs
	}

	k := math.Pow(r, 1/float64(1-n))
	l := total * (1 - k) / (1 - math.Pow(k, float64(n)))
	for i := range segs {
		segs[i] = l
		l *= k
	}
	if rightLen > leftLen {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			segs[i], segs[j] = segs[j], segs[i]
		}
	}
	return segs
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}
