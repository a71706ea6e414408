package seqcache

import (
	"seqcache/internal/sequence"
)

var (
	// ErrDuplicatePath is returned by SetSequence when two entries share a path.
	ErrDuplicatePath = sequence.ErrDuplicatePath

	// ErrProbe is returned by SetSequence when a metadata probe fails. The
	// whole sequence is rejected; no degenerate entries are built.
	ErrProbe = sequence.ErrProbe
)
