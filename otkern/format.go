package otkern

import (
	"github.com/npillmayer/otcompact/ot"
)

// Per-subtable encoding choice. Both wire formats are costed in bytes and
// the cheaper one wins; a tie goes to the class matrix (format 2), which
// tends to age better when pairs are added later.

const deviceBits = ot.ValueFormatXPlaDevice | ot.ValueFormatYPlaDevice |
	ot.ValueFormatXAdvDevice | ot.ValueFormatYAdvDevice

// encodingPlan fixes format, field mask and (for format 2) the class
// assignment for one subtable, together with its estimated byte size. The
// estimate ignores substructure sharing, so the assembler may come in below
// it, never above.
type encodingPlan struct {
	format  uint16
	pairs   cluster
	lefts   []ot.GlyphIndex // covered left glyphs, ascending
	vf1     ot.ValueFormat  // first-glyph field mask for the whole subtable
	classes *classAssignment
	size    int
}

// subtableValueFormat is the union of the minimal masks of all adjustments
// in a cluster. A field needed by one record is carried by all records of
// the subtable; records without it store zero.
func subtableValueFormat(c cluster) ot.ValueFormat {
	var vf ot.ValueFormat
	for _, row := range c {
		for _, adj := range row {
			vf |= adj.valueFormat()
		}
	}
	return vf
}

// format1Size estimates the glyph-pair encoding: subtable header, pair-set
// offset array, one pair set per covered left glyph, device tables, and the
// coverage table.
func format1Size(c cluster, lefts []ot.GlyphIndex, vf ot.ValueFormat) int {
	recSize := 2 + ot.ValueRecordSize(vf) // secondGlyph + value record
	size := 10 + 2*len(lefts)
	for _, l := range lefts {
		row := c[l]
		size += 2 + len(row)*recSize
		for _, adj := range row {
			size += len(adj.XPlaDevice) + len(adj.YPlaDevice) +
				len(adj.XAdvDevice) + len(adj.YAdvDevice)
		}
	}
	return size + ot.CoverageSize(lefts)
}

// format2Size estimates the class-matrix encoding: subtable header, the
// class1Count x class2Count value matrix, both class definition tables, and
// the coverage table.
func format2Size(lefts []ot.GlyphIndex, vf ot.ValueFormat, ca *classAssignment) int {
	return 16 + ca.class1Count*ca.class2Count*ot.ValueRecordSize(vf) +
		ot.ClassDefSize(ca.left) + ot.ClassDefSize(ca.right) +
		ot.CoverageSize(lefts)
}

// planSubtable selects the wire format for a cluster. Device tables pin the
// pair-list encoding, since the class matrix has no place to anchor their
// per-pair offsets.
func planSubtable(c cluster) (*encodingPlan, error) {
	lefts := c.lefts()
	vf := subtableValueFormat(c)
	plan := &encodingPlan{
		format: 1,
		pairs:  c,
		lefts:  lefts,
		vf1:    vf,
		size:   format1Size(c, lefts, vf),
	}
	if vf&deviceBits != 0 {
		tracer().Debugf("device tables present, format 1 forced (%d bytes)", plan.size)
		return plan, nil
	}
	ca, err := partitionClasses(c)
	if err != nil {
		return nil, err
	}
	if f2 := format2Size(lefts, vf, ca); f2 <= plan.size {
		plan.format = 2
		plan.classes = ca
		plan.size = f2
	}
	tracer().Debugf("subtable with %d left glyphs: format %d, ~%d bytes",
		len(lefts), plan.format, plan.size)
	return plan, nil
}
