package ot

// GPOS Lookup Type 2, Pair Adjustment Positioning.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#lookup-type-2-pair-adjustment-positioning-subtable

// GlyphIndex is a glyph ID within a font.
type GlyphIndex uint16

// LayoutTableLookupType is a type identifier for layout lookup records.
type LayoutTableLookupType uint16

// GPOS lookup types this module deals with. Pair adjustment is the only type
// the compaction engine emits; the others appear solely in the type
// enumeration of lookup headers.
const (
	GPosLookupTypeSingle       LayoutTableLookupType = 1 // Adjust position of a single glyph
	GPosLookupTypePair         LayoutTableLookupType = 2 // Adjust position of a pair of glyphs
	GPosLookupTypeExtensionPos LayoutTableLookupType = 9 // Extension mechanism for other positionings
)

// ValueFormat is a bitmask that describes which fields are present in a ValueRecord.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#value-record
type ValueFormat uint16

const (
	ValueFormatXPlacement ValueFormat = 0x0001 // Includes horizontal adjustment for placement
	ValueFormatYPlacement ValueFormat = 0x0002 // Includes vertical adjustment for placement
	ValueFormatXAdvance   ValueFormat = 0x0004 // Includes horizontal adjustment for advance
	ValueFormatYAdvance   ValueFormat = 0x0008 // Includes vertical adjustment for advance
	ValueFormatXPlaDevice ValueFormat = 0x0010 // Includes Device table for horizontal placement
	ValueFormatYPlaDevice ValueFormat = 0x0020 // Includes Device table for vertical placement
	ValueFormatXAdvDevice ValueFormat = 0x0040 // Includes Device table for horizontal advance
	ValueFormatYAdvDevice ValueFormat = 0x0080 // Includes Device table for vertical advance
	// Bits 0x0F00 are reserved for future use
)

// ValueRecord represents a positioning adjustment for a glyph.
// The actual fields present depend on the ValueFormat bitmask.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#value-record
type ValueRecord struct {
	XPlacement int16  // Horizontal adjustment for placement, in design units
	YPlacement int16  // Vertical adjustment for placement, in design units
	XAdvance   int16  // Horizontal adjustment for advance, in design units
	YAdvance   int16  // Vertical adjustment for advance, in design units
	XPlaDevice uint16 // Offset to Device table for horizontal placement (may be NULL)
	YPlaDevice uint16 // Offset to Device table for vertical placement (may be NULL)
	XAdvDevice uint16 // Offset to Device table for horizontal advance (may be NULL)
	YAdvDevice uint16 // Offset to Device table for vertical advance (may be NULL)
}

// IsZero reports whether no field of vr carries an adjustment or device link.
func (vr ValueRecord) IsZero() bool {
	return vr == ValueRecord{}
}

// PairValueRecord represents a kerning pair with positioning adjustments.
type PairValueRecord struct {
	SecondGlyph GlyphIndex  // Glyph ID of second glyph in pair
	Value1      ValueRecord // Positioning for first glyph
	Value2      ValueRecord // Positioning for second glyph
}

// Class2ValueRecord is one cell of a format-2 class pair value matrix.
type Class2ValueRecord struct {
	Value1 ValueRecord // Positioning for first glyph
	Value2 ValueRecord // Positioning for second glyph
}
