// Package sequence builds and serves the ordered catalog of frames in an
// image sequence. An Index is immutable once built and may be read
// concurrently without synchronization.
package sequence

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"seqcache/internal/base"
)

var (
	// ErrDuplicatePath is returned by Build when the same path appears twice.
	ErrDuplicatePath = errors.New("duplicate path in sequence")

	// ErrProbe is returned by Build when a metadata probe fails. The decoder's
	// error is attached to it; a sequence with unreadable entries is rejected
	// outright rather than built with degenerate descriptors.
	ErrProbe = errors.New("metadata probe failed")
)

// Descriptor describes one frame of the sequence. Index is the frame's
// 0-based position in path-sorted order, not anything parsed from the
// filename.
type Descriptor struct {
	Index int
	Path  string
	Dim   base.Dimensions
	Meta  base.Metadata
}

// Index is the ordered frame catalog. The zero value is an empty index.
type Index struct {
	frames []Descriptor
}

// Build probes every path through dec, sorts the entries ascending by path
// and assigns dense indices 0..N-1. Any probe failure fails the whole build.
func Build(dec base.Decoder, paths []string) (*Index, error) {
	sorted := slices.Clone(paths)
	slices.Sort(sorted)

	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicatePath, sorted[i])
		}
	}

	frames := make([]Descriptor, 0, len(sorted))
	for i, path := range sorted {
		dim, meta, err := dec.ProbeMetadata(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrProbe, path, err)
		}
		frames = append(frames, Descriptor{
			Index: i,
			Path:  path,
			Dim:   dim,
			Meta:  meta,
		})
	}

	return &Index{frames: frames}, nil
}

// Len returns the number of frames in the sequence.
func (ix *Index) Len() int {
	return len(ix.frames)
}

// FrameOf returns the index of the frame with the given path,
// or false if the path is not part of the sequence.
func (ix *Index) FrameOf(path string) (int, bool) {
	i, found := slices.BinarySearchFunc(ix.frames, path, func(d Descriptor, p string) int {
		return strings.Compare(d.Path, p)
	})
	if !found {
		return 0, false
	}
	return i, true
}

// At returns the descriptor at the given frame index,
// or false if the index is out of bounds.
func (ix *Index) At(index int) (Descriptor, bool) {
	if index < 0 || index >= len(ix.frames) {
		return Descriptor{}, false
	}
	return ix.frames[index], true
}

// Slice returns a copy of the descriptors covering the closed interval
// [start, end], clamped to the sequence bounds.
func (ix *Index) Slice(start, end int) []Descriptor {
	start = max(start, 0)
	end = min(end, len(ix.frames)-1)
	if end < start {
		return nil
	}
	return slices.Clone(ix.frames[start : end+1])
}
