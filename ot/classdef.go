package ot

import "sort"

// --- Class definition tables -----------------------------------------------

// ClassDefinitions groups glyphs into classes, denoted as integer values.
//
// From the OpenType spec:
// For efficiency and ease of representation, a font developer can group glyph
// indices to form glyph classes. Class assignments vary in meaning from one
// lookup subtable to another.
// (see https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#class-definition-table)
//
// Glyphs not listed belong to class 0, the implicit default class.
type ClassDefinitions struct {
	format  uint16
	classes map[GlyphIndex]uint16 // nonzero class assignments only
}

// Class returns the class defined for a glyph, or 0 (= default class).
func (cdef ClassDefinitions) Class(g GlyphIndex) int {
	return int(cdef.classes[g])
}

// Glyphs returns all glyphs with an explicit (nonzero) class, ascending.
func (cdef ClassDefinitions) Glyphs() []GlyphIndex {
	glyphs := make([]GlyphIndex, 0, len(cdef.classes))
	for g := range cdef.classes {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })
	return glyphs
}

// ClassCount returns 1 + the highest class value assigned, i.e. the number of
// classes including implicit class 0.
func (cdef ClassDefinitions) ClassCount() int {
	max := uint16(0)
	for _, c := range cdef.classes {
		if c > max {
			max = c
		}
	}
	return int(max) + 1
}

// parseClassDefinitions reads a class definition table, formats 1 and 2.
// Class 0 assignments are not stored; they are the implicit default.
func parseClassDefinitions(b binarySegm) (ClassDefinitions, error) {
	if len(b) < 4 {
		return ClassDefinitions{}, errBufferBounds
	}
	format := b.U16(0)
	cdef := ClassDefinitions{format: format, classes: make(map[GlyphIndex]uint16)}
	switch format {
	case 1:
		if len(b) < 6 {
			return ClassDefinitions{}, errBufferBounds
		}
		start := GlyphIndex(b.U16(2))
		count := int(b.U16(4))
		if len(b) < 6+count*2 {
			return ClassDefinitions{}, errFontFormat("ClassDef format 1 array extends beyond bounds")
		}
		for i := 0; i < count; i++ {
			if clz := b.U16(6 + i*2); clz != 0 {
				cdef.classes[start+GlyphIndex(i)] = clz
			}
		}
	case 2:
		count := int(b.U16(2))
		if len(b) < 4+count*6 {
			return ClassDefinitions{}, errFontFormat("ClassDef format 2 array extends beyond bounds")
		}
		for i := 0; i < count; i++ {
			from := GlyphIndex(b.U16(4 + i*6))
			to := GlyphIndex(b.U16(4 + i*6 + 2))
			clz := b.U16(4 + i*6 + 4)
			if to < from {
				return ClassDefinitions{}, errFontFormat("corrupt ClassDef range record")
			}
			if clz == 0 {
				continue
			}
			for g := from; ; g++ {
				cdef.classes[g] = clz
				if g == to {
					break
				}
			}
		}
	default:
		return ClassDefinitions{}, errFontFormat("unknown ClassDef format")
	}
	return cdef, nil
}

type classRange struct {
	from, to GlyphIndex
	class    uint16
}

// classRangesFor collapses explicit class assignments into maximal runs of
// consecutive glyphs sharing one class. Input glyphs must be sorted.
func classRangesFor(glyphs []GlyphIndex, classes map[GlyphIndex]uint16) []classRange {
	var ranges []classRange
	for i := 0; i < len(glyphs); {
		j := i
		for j+1 < len(glyphs) && glyphs[j+1] == glyphs[j]+1 &&
			classes[glyphs[j+1]] == classes[glyphs[i]] {
			j++
		}
		ranges = append(ranges, classRange{from: glyphs[i], to: glyphs[j], class: classes[glyphs[i]]})
		i = j + 1
	}
	return ranges
}

// ClassDefSize returns the byte size of the serialized class definition for
// the given explicit (nonzero) class assignments, picking the cheaper format.
func ClassDefSize(classes map[GlyphIndex]uint16) int {
	if len(classes) == 0 {
		return 4 // empty format-2 table
	}
	glyphs := sortedClassGlyphs(classes)
	span := int(glyphs[len(glyphs)-1]-glyphs[0]) + 1
	flat := 6 + 2*span
	ranged := 4 + 6*len(classRangesFor(glyphs, classes))
	if ranged < flat {
		return ranged
	}
	return flat
}

// SerializeClassDef emits a class definition table for the given explicit
// class assignments. Format 1 (per-glyph value array over the covered span)
// and format 2 (class ranges) are compared by byte size and the cheaper one
// is chosen.
func SerializeClassDef(classes map[GlyphIndex]uint16) []byte {
	if len(classes) == 0 {
		b := make([]byte, 4)
		putU16(b, 0, 2)
		return b
	}
	glyphs := sortedClassGlyphs(classes)
	start := glyphs[0]
	span := int(glyphs[len(glyphs)-1]-start) + 1
	ranges := classRangesFor(glyphs, classes)
	flat := 6 + 2*span
	ranged := 4 + 6*len(ranges)
	if ranged < flat {
		b := make([]byte, ranged)
		putU16(b, 0, 2)
		putU16(b, 2, uint16(len(ranges)))
		for i, r := range ranges {
			putU16(b, 4+i*6, uint16(r.from))
			putU16(b, 4+i*6+2, uint16(r.to))
			putU16(b, 4+i*6+4, r.class)
		}
		return b
	}
	b := make([]byte, flat)
	putU16(b, 0, 1)
	putU16(b, 2, uint16(start))
	putU16(b, 4, uint16(span))
	for g, clz := range classes {
		putU16(b, 6+int(g-start)*2, clz)
	}
	return b
}

func sortedClassGlyphs(classes map[GlyphIndex]uint16) []GlyphIndex {
	glyphs := make([]GlyphIndex, 0, len(classes))
	for g := range classes {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })
	return glyphs
}
