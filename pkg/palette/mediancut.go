package palette

import (
	"cmp"
	"math"
	"math/bits"
	"slices"
)

// MedianCut partitions pixels into at most 2^depth buckets and returns the
// rounded mean of each non-empty bucket in split order. Each split sorts the
// bucket stably on the channel with the widest range (ties go to red, then
// green) and cuts it at len/2. pixels is not modified.
func MedianCut(pixels []Pixel, depth int) []Pixel {
	if len(pixels) == 0 {
		return nil
	}
	if depth < 0 {
		depth = 0
	}

	work := slices.Clone(pixels)
	out := make([]Pixel, 0, 1<<min(depth, MaxDepth))

	var split func(bucket []Pixel, depth int)
	split = func(bucket []Pixel, depth int) {
		if len(bucket) == 0 {
			return
		}
		if depth == 0 {
			out = append(out, mean(bucket))
			return
		}

		ch := widestChannel(bucket)
		slices.SortStableFunc(bucket, func(a, b Pixel) int {
			return cmp.Compare(a[ch], b[ch])
		})

		mid := len(bucket) / 2
		split(bucket[:mid], depth-1)
		split(bucket[mid:], depth-1)
	}
	split(work, depth)

	return out
}

// DepthForCount returns ceil(log2(n)), the smallest depth that can yield n
// colours.
func DepthForCount(n int) int {
	if n <= 1 {
		return 0
	}
	return min(bits.Len(uint(n-1)), MaxDepth)
}

func widestChannel(bucket []Pixel) int {
	lo := bucket[0]
	hi := bucket[0]
	for _, p := range bucket[1:] {
		for c := 0; c < 3; c++ {
			lo[c] = min(lo[c], p[c])
			hi[c] = max(hi[c], p[c])
		}
	}

	best := 0
	for c := 1; c < 3; c++ {
		if hi[c]-lo[c] > hi[best]-lo[best] {
			best = c
		}
	}
	return best
}

func mean(bucket []Pixel) Pixel {
	var sum [3]int
	for _, p := range bucket {
		sum[0] += int(p[0])
		sum[1] += int(p[1])
		sum[2] += int(p[2])
	}

	n := float64(len(bucket))
	var avg Pixel
	for c := range sum {
		avg[c] = uint8(math.Round(float64(sum[c]) / n))
	}
	return avg
}
