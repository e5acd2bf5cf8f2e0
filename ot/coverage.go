package ot

import "sort"

// --- Coverage table module -------------------------------------------------

// Coverage denotes an indexed set of glyphs.
// Each lookup subtable references a Coverage table, which specifies all the
// glyphs affected by the positioning operation described in the subtable.
// If a glyph does not appear in a Coverage table, a client skips the subtable
// and moves immediately to the next one.
type Coverage struct {
	format uint16
	glyphs []GlyphIndex // sorted ascending; position = Coverage Index
}

// Match returns the Coverage Index for a glyph, and true if present.
func (c Coverage) Match(g GlyphIndex) (int, bool) {
	i := sort.Search(len(c.glyphs), func(i int) bool { return c.glyphs[i] >= g })
	if i < len(c.glyphs) && c.glyphs[i] == g {
		return i, true
	}
	return 0, false
}

// Contains reports whether a glyph is present in the coverage.
func (c Coverage) Contains(g GlyphIndex) bool {
	_, ok := c.Match(g)
	return ok
}

// Glyphs returns the covered glyphs in coverage-index order.
func (c Coverage) Glyphs() []GlyphIndex {
	return c.glyphs
}

// Len returns the number of covered glyphs.
func (c Coverage) Len() int {
	return len(c.glyphs)
}

// parseCoverage reads a coverage table, which comes in two formats (1 and 2).
// A Coverage table defines a unique index value, the Coverage Index, for each
// covered glyph.
func parseCoverage(b binarySegm) (Coverage, error) {
	if len(b) < 4 {
		return Coverage{}, errBufferBounds
	}
	format := b.U16(0)
	count := int(b.U16(2))
	tracer().Debugf("coverage format = %d, count = %d", format, count)
	switch format {
	case 1:
		// Format 1: array of glyph IDs (2 bytes each)
		if len(b) < 4+count*2 {
			return Coverage{}, errFontFormat("coverage format 1 extends beyond bounds")
		}
		glyphs := make([]GlyphIndex, count)
		for i := 0; i < count; i++ {
			glyphs[i] = GlyphIndex(b.U16(4 + i*2))
		}
		return Coverage{format: 1, glyphs: glyphs}, nil
	case 2:
		// Format 2: array of range records (start, end, startCoverageIndex)
		if len(b) < 4+count*6 {
			return Coverage{}, errFontFormat("coverage format 2 extends beyond bounds")
		}
		var glyphs []GlyphIndex
		for i := 0; i < count; i++ {
			from := GlyphIndex(b.U16(4 + i*6))
			to := GlyphIndex(b.U16(4 + i*6 + 2))
			if to < from {
				return Coverage{}, errFontFormat("corrupt coverage range record")
			}
			for g := from; ; g++ {
				glyphs = append(glyphs, g)
				if g == to {
					break
				}
			}
		}
		return Coverage{format: 2, glyphs: glyphs}, nil
	}
	return Coverage{}, errFontFormat("unknown coverage format")
}

// coverageRanges collapses a sorted glyph list into maximal consecutive runs.
func coverageRanges(glyphs []GlyphIndex) [][2]GlyphIndex {
	var ranges [][2]GlyphIndex
	for i := 0; i < len(glyphs); {
		j := i
		for j+1 < len(glyphs) && glyphs[j+1] == glyphs[j]+1 {
			j++
		}
		ranges = append(ranges, [2]GlyphIndex{glyphs[i], glyphs[j]})
		i = j + 1
	}
	return ranges
}

// CoverageSize returns the byte size of the serialized coverage table for a
// sorted glyph list, picking the cheaper of the two on-disk formats.
func CoverageSize(glyphs []GlyphIndex) int {
	flat := 4 + 2*len(glyphs)
	ranged := 4 + 6*len(coverageRanges(glyphs))
	if ranged < flat {
		return ranged
	}
	return flat
}

// SerializeCoverage emits a coverage table for a sorted glyph list. The
// range-compressed form (format 2) is chosen when it is byte-cheaper than a
// flat glyph list (format 1).
func SerializeCoverage(glyphs []GlyphIndex) []byte {
	ranges := coverageRanges(glyphs)
	flat := 4 + 2*len(glyphs)
	ranged := 4 + 6*len(ranges)
	if ranged < flat {
		b := make([]byte, ranged)
		putU16(b, 0, 2)
		putU16(b, 2, uint16(len(ranges)))
		index := 0
		for i, r := range ranges {
			putU16(b, 4+i*6, uint16(r[0]))
			putU16(b, 4+i*6+2, uint16(r[1]))
			putU16(b, 4+i*6+4, uint16(index))
			index += int(r[1]-r[0]) + 1
		}
		return b
	}
	b := make([]byte, flat)
	putU16(b, 0, 1)
	putU16(b, 2, uint16(len(glyphs)))
	for i, g := range glyphs {
		putU16(b, 4+i*2, uint16(g))
	}
	return b
}
