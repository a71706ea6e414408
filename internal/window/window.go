// Package window computes symmetric, boundary-clamped index windows over a
// frame sequence. All functions are pure.
package window

// Region is a closed interval [Start, End] of frame indices.
type Region struct {
	Start int
	End   int
}

// Empty is the region containing no frames.
var Empty = Region{Start: 0, End: -1}

// IsEmpty reports whether r contains no frames.
func (r Region) IsEmpty() bool {
	return r.End < r.Start
}

// Width returns the number of frames in r.
func (r Region) Width() int {
	if r.IsEmpty() {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether frame lies inside r.
func (r Region) Contains(frame int) bool {
	return frame >= r.Start && frame <= r.End
}

// Compute returns the window of half-width extent centered on frame,
// clamped to a sequence of n frames. Near a boundary the window is shifted
// inward rather than truncated, so its width is always min(2*extent+1, n).
func Compute(frame, extent, n int) Region {
	if n <= 0 {
		return Empty
	}

	start := frame - extent
	end := frame + extent

	if start < 0 {
		start = 0
		end = min(n-1, 2*extent)
	} else if end >= n {
		end = n - 1
		start = max(0, n-1-2*extent)
	}

	return Region{Start: start, End: end}
}
