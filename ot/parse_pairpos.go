package ot

import "fmt"

// Decoding of serialized pair-adjustment lookups. This is the inverse of what
// the compaction engine emits and exists chiefly for lossless round-trip
// verification: parse the lookup bytes, re-derive every (left, right) pair
// mapping, compare with the input.

// PairSubtable is the decoded view of one pair-adjustment subtable,
// format 1 (glyph pairs) or format 2 (class pairs).
type PairSubtable struct {
	Format       uint16
	Coverage     Coverage
	ValueFormat1 ValueFormat
	ValueFormat2 ValueFormat
	// Format 1 payload
	PairSets       [][]PairValueRecord
	PairSetOffsets []uint16 // from subtable start, base for pair-set device offsets
	// Format 2 payload
	ClassDef1    ClassDefinitions
	ClassDef2    ClassDefinitions
	Class1Count  uint16
	Class2Count  uint16
	ClassRecords [][]Class2ValueRecord

	raw binarySegm // subtable bytes, base for device-table offsets
}

// PairLookup is a decoded pair-adjustment (GPOS type 2) lookup.
type PairLookup struct {
	LookupType LayoutTableLookupType
	Flag       uint16
	Subtables  []*PairSubtable
}

// GlyphPair addresses one kerning pair.
type GlyphPair struct {
	Left  GlyphIndex
	Right GlyphIndex
}

// ParsePairLookup decodes a serialized lookup of GPOS type 2.
//
// Expected layout: lookupType, lookupFlag, subTableCount, subtable offsets
// (16 bit, from lookup start), followed by the subtables themselves.
func ParsePairLookup(b []byte) (*PairLookup, error) {
	seg := binarySegm(b)
	if len(seg) < 6 {
		return nil, errBufferBounds
	}
	lookupType := LayoutTableLookupType(seg.U16(0))
	if lookupType != GPosLookupTypePair {
		return nil, errFontFormat(fmt.Sprintf("lookup type %d is not pair adjustment", lookupType))
	}
	lookup := &PairLookup{
		LookupType: lookupType,
		Flag:       seg.U16(2),
	}
	subtableCount := int(seg.U16(4))
	if len(seg) < 6+subtableCount*2 {
		return nil, errBufferBounds
	}
	tracer().Debugf("pair lookup with %d subtables", subtableCount)
	for i := 0; i < subtableCount; i++ {
		off := seg.U16(6 + i*2)
		if off == 0 || int(off) >= len(seg) {
			return nil, errFontFormat(fmt.Sprintf("subtable #%d offset out of bounds: %d (size %d)", i, off, len(seg)))
		}
		sub, err := parsePairSubtable(seg[off:])
		if err != nil {
			return nil, err
		}
		lookup.Subtables = append(lookup.Subtables, sub)
	}
	return lookup, nil
}

func parsePairSubtable(b binarySegm) (*PairSubtable, error) {
	if len(b) < 4 {
		return nil, errBufferBounds
	}
	sub := &PairSubtable{Format: b.U16(0), raw: b}
	covOffset := b.U16(2)
	if int(covOffset) >= len(b) {
		return nil, errFontFormat("coverage offset out of bounds")
	}
	cov, err := parseCoverage(b[covOffset:])
	if err != nil {
		return nil, err
	}
	sub.Coverage = cov
	switch sub.Format {
	case 1:
		return sub, parsePairSubtableFormat1(b, sub)
	case 2:
		return sub, parsePairSubtableFormat2(b, sub)
	}
	return nil, errFontFormat(fmt.Sprintf("unknown pair adjustment format %d", sub.Format))
}

func parsePairSubtableFormat1(b binarySegm, sub *PairSubtable) error {
	if len(b) < 10 {
		return errBufferBounds
	}
	sub.ValueFormat1 = ValueFormat(b.U16(4))
	sub.ValueFormat2 = ValueFormat(b.U16(6))
	pairSetCount := int(b.U16(8))
	if len(b) < 10+pairSetCount*2 {
		return errBufferBounds
	}
	if pairSetCount != sub.Coverage.Len() {
		return errFontFormat(fmt.Sprintf("pair set count %d does not match coverage size %d",
			pairSetCount, sub.Coverage.Len()))
	}
	sub.PairSets = make([][]PairValueRecord, pairSetCount)
	sub.PairSetOffsets = make([]uint16, pairSetCount)
	for i := 0; i < pairSetCount; i++ {
		off := b.U16(10 + i*2)
		if off == 0 || int(off) >= len(b) {
			return errFontFormat(fmt.Sprintf("pair-set offset out of bounds: %d (size %d)", off, len(b)))
		}
		records, err := parseGPosPairSet(b[off:], sub.ValueFormat1, sub.ValueFormat2)
		if err != nil {
			return err
		}
		sub.PairSets[i] = records
		sub.PairSetOffsets[i] = off
	}
	return nil
}

func parsePairSubtableFormat2(b binarySegm, sub *PairSubtable) error {
	if len(b) < 16 {
		return errBufferBounds
	}
	sub.ValueFormat1 = ValueFormat(b.U16(4))
	sub.ValueFormat2 = ValueFormat(b.U16(6))
	cdefOffset1 := b.U16(8)
	cdefOffset2 := b.U16(10)
	if int(cdefOffset1) >= len(b) || int(cdefOffset2) >= len(b) {
		return errFontFormat("class definition offset out of bounds")
	}
	cdef1, err := parseClassDefinitions(b[cdefOffset1:])
	if err != nil {
		return err
	}
	cdef2, err := parseClassDefinitions(b[cdefOffset2:])
	if err != nil {
		return err
	}
	class1Count := int(b.U16(12))
	class2Count := int(b.U16(14))
	recSize := valueRecordSize(sub.ValueFormat1) + valueRecordSize(sub.ValueFormat2)
	if 16+class1Count*class2Count*recSize > len(b) {
		return errBufferBounds
	}
	records := make([][]Class2ValueRecord, class1Count)
	offset := 16
	for i := 0; i < class1Count; i++ {
		row := make([]Class2ValueRecord, class2Count)
		for j := 0; j < class2Count; j++ {
			v1, n1 := parseValueRecord(b, offset, sub.ValueFormat1)
			offset += n1
			v2, n2 := parseValueRecord(b, offset, sub.ValueFormat2)
			offset += n2
			row[j] = Class2ValueRecord{Value1: v1, Value2: v2}
		}
		records[i] = row
	}
	sub.ClassDef1 = cdef1
	sub.ClassDef2 = cdef2
	sub.Class1Count = uint16(class1Count)
	sub.Class2Count = uint16(class2Count)
	sub.ClassRecords = records
	return nil
}

func parseGPosPairSet(b binarySegm, format1, format2 ValueFormat) ([]PairValueRecord, error) {
	if len(b) < 2 {
		return nil, errBufferBounds
	}
	pairValueCount := int(b.U16(0))
	recordSize := 2 + valueRecordSize(format1) + valueRecordSize(format2)
	if 2+pairValueCount*recordSize > len(b) {
		return nil, errBufferBounds
	}
	records := make([]PairValueRecord, pairValueCount)
	offset := 2
	for i := 0; i < pairValueCount; i++ {
		second := b.U16(offset)
		offset += 2
		v1, n1 := parseValueRecord(b, offset, format1)
		offset += n1
		v2, n2 := parseValueRecord(b, offset, format2)
		offset += n2
		records[i] = PairValueRecord{
			SecondGlyph: GlyphIndex(second),
			Value1:      v1,
			Value2:      v2,
		}
	}
	return records, nil
}

// PairAdjustments flattens a decoded lookup into the mapping from glyph
// pairs to first-glyph adjustments. First-match lookup semantics apply: the
// first subtable whose coverage includes a left glyph is authoritative for
// that glyph, shadowing all later subtables.
//
// Zero-valued records are omitted, matching the implicit zero adjustment of
// absent pairs. An error is returned when the lookup cannot be represented
// as a finite pair mapping (a nonzero matrix cell in right class 0) or when
// second-glyph adjustments are present.
func (l *PairLookup) PairAdjustments() (map[GlyphPair]ValueRecord, error) {
	pairs := make(map[GlyphPair]ValueRecord)
	claimed := make(map[GlyphIndex]int) // left glyph -> subtable index
	for i, sub := range l.Subtables {
		for _, g := range sub.Coverage.Glyphs() {
			if _, ok := claimed[g]; !ok {
				claimed[g] = i
			}
		}
	}
	for i, sub := range l.Subtables {
		switch sub.Format {
		case 1:
			for ci, g := range sub.Coverage.Glyphs() {
				if claimed[g] != i {
					continue
				}
				for _, rec := range sub.PairSets[ci] {
					if !rec.Value2.IsZero() {
						return nil, errFontFormat("second-glyph adjustment in pair set")
					}
					if rec.Value1.IsZero() {
						continue
					}
					pairs[GlyphPair{Left: g, Right: rec.SecondGlyph}] = rec.Value1
				}
			}
		case 2:
			rights := sub.ClassDef2.Glyphs()
			for _, g := range sub.Coverage.Glyphs() {
				if claimed[g] != i {
					continue
				}
				c1 := sub.ClassDef1.Class(g)
				if c1 >= int(sub.Class1Count) {
					return nil, errFontFormat(fmt.Sprintf("left class %d out of matrix bounds", c1))
				}
				row := sub.ClassRecords[c1]
				if !row[0].Value1.IsZero() || !row[0].Value2.IsZero() {
					return nil, errFontFormat("nonzero adjustment for implicit right class 0")
				}
				for _, r := range rights {
					c2 := sub.ClassDef2.Class(r)
					if c2 >= int(sub.Class2Count) {
						return nil, errFontFormat(fmt.Sprintf("right class %d out of matrix bounds", c2))
					}
					cell := row[c2]
					if !cell.Value2.IsZero() {
						return nil, errFontFormat("second-glyph adjustment in class matrix")
					}
					if cell.Value1.IsZero() {
						continue
					}
					pairs[GlyphPair{Left: g, Right: r}] = cell.Value1
				}
			}
		}
	}
	return pairs, nil
}

// DeviceBlob resolves a device-table offset relative to the subtable start,
// which is where format-2 value records anchor their device links, and
// returns the device table bytes. Device table length is derived from its
// header (startSize, endSize, deltaFormat).
// https://docs.microsoft.com/en-us/typography/opentype/spec/chapter2#device-and-variationindex-tables
func (s *PairSubtable) DeviceBlob(offset uint16) ([]byte, error) {
	return s.deviceBlobAt(int(offset))
}

// PairSetDeviceBlob resolves a device-table offset of a format-1 value
// record. Those offsets are relative to the record's pair set, addressed
// here by its coverage index.
func (s *PairSubtable) PairSetDeviceBlob(coverageIndex int, offset uint16) ([]byte, error) {
	if s.Format != 1 || coverageIndex < 0 || coverageIndex >= len(s.PairSetOffsets) {
		return nil, errBufferBounds
	}
	return s.deviceBlobAt(int(s.PairSetOffsets[coverageIndex]) + int(offset))
}

func (s *PairSubtable) deviceBlobAt(pos int) ([]byte, error) {
	if pos == 0 || pos+6 > len(s.raw) {
		return nil, errBufferBounds
	}
	b := s.raw[pos:]
	startSize := int(b.U16(0))
	endSize := int(b.U16(2))
	deltaFormat := int(b.U16(4))
	if endSize < startSize || deltaFormat < 1 || deltaFormat > 3 {
		return nil, FontError{
			Section:  "Device",
			Issue:    "corrupt device table header",
			Severity: SeverityCritical,
			Offset:   uint32(pos),
		}
	}
	count := endSize - startSize + 1
	bitsPer := 1 << deltaFormat // 2, 4 or 8 bits per delta value
	words := (count*bitsPer + 15) / 16
	size := 6 + 2*words
	if size > len(b) {
		return nil, errBufferBounds
	}
	return b[:size], nil
}
