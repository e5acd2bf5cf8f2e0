package otkern

import (
	"fmt"

	"github.com/npillmayer/otcompact/ot"
)

// InputError reports a malformed or contradictory entry in the input pair
// set. Compaction never starts on an invalid input.
type InputError struct {
	Left  ot.GlyphIndex
	Right ot.GlyphIndex
	Issue string
}

func (e InputError) Error() string {
	return fmt.Sprintf("invalid kerning input, pair (%d,%d): %s", e.Left, e.Right, e.Issue)
}

// OverflowError reports data that cannot be represented within the 16-bit
// offset arithmetic of the target format, no matter how the engine splits or
// encodes it.
type OverflowError struct {
	Glyph ot.GlyphIndex // left glyph whose pairs alone overflow, if applicable
	Size  int           // byte size of the offending structure
	Issue string
}

func (e OverflowError) Error() string {
	if e.Issue != "" {
		return fmt.Sprintf("16-bit offset overflow: %s (%d bytes)", e.Issue, e.Size)
	}
	return fmt.Sprintf("16-bit offset overflow: pairs of glyph %d need %d bytes in a single subtable",
		e.Glyph, e.Size)
}

// ConsistencyError reports an internal pipeline defect: a proposed encoding
// that would not reproduce the input mapping. It signals a bug in the engine,
// never a property of the input, and aborts compaction rather than emitting
// silently wrong bytes.
type ConsistencyError struct {
	Stage string // pipeline stage that detected the defect
	Issue string
}

func (e ConsistencyError) Error() string {
	return fmt.Sprintf("compaction defect in %s: %s", e.Stage, e.Issue)
}
