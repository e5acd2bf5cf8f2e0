package ot

import (
	"bytes"
	"testing"
)

func coverageFmt1(glyphs ...GlyphIndex) []byte {
	b := make([]byte, 4+2*len(glyphs))
	putU16(b, 0, 1)
	putU16(b, 2, uint16(len(glyphs)))
	for i, g := range glyphs {
		putU16(b, 4+i*2, uint16(g))
	}
	return b
}

func classDefFmt1(start GlyphIndex, classes ...uint16) []byte {
	b := make([]byte, 6+2*len(classes))
	putU16(b, 0, 1)
	putU16(b, 2, uint16(start))
	putU16(b, 4, uint16(len(classes)))
	for i, c := range classes {
		putU16(b, 6+i*2, c)
	}
	return b
}

func TestCoverageSerializeAndParse(t *testing.T) {
	sparse := []GlyphIndex{10, 40, 90, 200}
	cov, err := parseCoverage(SerializeCoverage(sparse))
	if err != nil {
		t.Fatalf("cannot parse serialized coverage: %v", err)
	}
	if cov.format != 1 {
		t.Fatalf("expected flat coverage for sparse glyphs, have format %d", cov.format)
	}
	for i, g := range sparse {
		inx, ok := cov.Match(g)
		if !ok || inx != i {
			t.Fatalf("expected coverage index %d for glyph %d, have %d (%v)", i, g, inx, ok)
		}
	}
	if cov.Contains(11) {
		t.Fatalf("glyph 11 should not be covered")
	}

	run := make([]GlyphIndex, 20)
	for i := range run {
		run[i] = GlyphIndex(100 + i)
	}
	blob := SerializeCoverage(run)
	if len(blob) != 10 {
		t.Fatalf("expected a single range record for a consecutive run, have %d bytes", len(blob))
	}
	cov, err = parseCoverage(blob)
	if err != nil {
		t.Fatalf("cannot parse serialized coverage: %v", err)
	}
	if cov.format != 2 || cov.Len() != 20 {
		t.Fatalf("unexpected range coverage: format=%d len=%d", cov.format, cov.Len())
	}
	if inx, _ := cov.Match(110); inx != 10 {
		t.Fatalf("expected coverage index 10 for glyph 110, have %d", inx)
	}
}

func TestCoverageSizeMatchesSerialization(t *testing.T) {
	cases := [][]GlyphIndex{
		{5},
		{5, 6, 7, 8},
		{5, 9, 13},
		{1, 2, 3, 10, 11, 12, 30},
	}
	for _, glyphs := range cases {
		if size := CoverageSize(glyphs); size != len(SerializeCoverage(glyphs)) {
			t.Errorf("CoverageSize(%v) = %d, serialized length is %d",
				glyphs, size, len(SerializeCoverage(glyphs)))
		}
	}
}

func TestClassDefSerializeAndParse(t *testing.T) {
	classes := map[GlyphIndex]uint16{
		20: 1, 21: 1, 22: 1,
		30: 2,
		31: 2,
	}
	cdef, err := parseClassDefinitions(SerializeClassDef(classes))
	if err != nil {
		t.Fatalf("cannot parse serialized class definitions: %v", err)
	}
	for g, want := range classes {
		if cdef.Class(g) != int(want) {
			t.Errorf("expected class %d for glyph %d, have %d", want, g, cdef.Class(g))
		}
	}
	if cdef.Class(25) != 0 {
		t.Errorf("glyph 25 should fall into default class 0")
	}
	if cdef.ClassCount() != 3 {
		t.Errorf("expected 3 classes including class 0, have %d", cdef.ClassCount())
	}
	if size := ClassDefSize(classes); size != len(SerializeClassDef(classes)) {
		t.Errorf("ClassDefSize = %d, serialized length is %d", size, len(SerializeClassDef(classes)))
	}
}

func TestClassDefEmpty(t *testing.T) {
	blob := SerializeClassDef(nil)
	if len(blob) != 4 {
		t.Fatalf("expected 4-byte empty class definition, have %d bytes", len(blob))
	}
	cdef, err := parseClassDefinitions(blob)
	if err != nil {
		t.Fatalf("cannot parse empty class definitions: %v", err)
	}
	if cdef.Class(1) != 0 || cdef.ClassCount() != 1 {
		t.Fatalf("empty class definition should map everything to class 0")
	}
}

func TestValueRecordRoundTrip(t *testing.T) {
	vr := ValueRecord{XPlacement: -3, XAdvance: 120, YAdvance: -7, XAdvDevice: 44}
	format := ValueFormatFor([]ValueRecord{vr})
	want := ValueFormatXPlacement | ValueFormatXAdvance | ValueFormatYAdvance | ValueFormatXAdvDevice
	if format != want {
		t.Fatalf("unexpected minimal value format 0x%x, want 0x%x", format, want)
	}
	b := make([]byte, valueRecordSize(format))
	if n := putValueRecord(b, 0, format, vr); n != len(b) {
		t.Fatalf("putValueRecord wrote %d bytes, expected %d", n, len(b))
	}
	parsed, n := parseValueRecord(binarySegm(b), 0, format)
	if n != len(b) || parsed != vr {
		t.Fatalf("value record did not round-trip: %+v", parsed)
	}
}

func TestValueFormatForMergesFields(t *testing.T) {
	records := []ValueRecord{
		{XAdvance: 5},
		{YPlacement: -2},
		{},
	}
	format := ValueFormatFor(records)
	if format != ValueFormatXAdvance|ValueFormatYPlacement {
		t.Fatalf("unexpected merged format 0x%x", format)
	}
	if valueRecordSize(format) != 4 {
		t.Fatalf("expected 4-byte records under merged format")
	}
}

func TestParsePairLookupFormat1(t *testing.T) {
	b := make([]byte, 32)
	putU16(b, 0, uint16(GPosLookupTypePair))
	putU16(b, 2, 0)
	putU16(b, 4, 1)
	putU16(b, 6, 8) // subtable offset
	// subtable at 8
	putU16(b, 8, 1)   // format 1
	putU16(b, 10, 18) // coverage offset
	putU16(b, 12, uint16(ValueFormatXAdvance))
	putU16(b, 14, 0)
	putU16(b, 16, 1)  // pairSetCount
	putU16(b, 18, 12) // pair set offset
	// pair set at 20
	putU16(b, 20, 1)
	putU16(b, 22, 40)
	putS16(b, 24, -11)
	copy(b[26:], coverageFmt1(25))

	lookup, err := ParsePairLookup(b)
	if err != nil {
		t.Fatalf("cannot parse pair lookup: %v", err)
	}
	if len(lookup.Subtables) != 1 || lookup.Subtables[0].Format != 1 {
		t.Fatalf("expected one format-1 subtable")
	}
	pairs, err := lookup.PairAdjustments()
	if err != nil {
		t.Fatalf("cannot flatten lookup: %v", err)
	}
	vr, ok := pairs[GlyphPair{Left: 25, Right: 40}]
	if !ok || vr.XAdvance != -11 {
		t.Fatalf("expected pair (25,40) -> -11, have %+v (%v)", vr, ok)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected exactly one pair, have %d", len(pairs))
	}
}

func TestParsePairLookupFormat2(t *testing.T) {
	b := make([]byte, 54)
	putU16(b, 0, uint16(GPosLookupTypePair))
	putU16(b, 4, 1)
	putU16(b, 6, 8)
	// subtable at 8, class matrix 2x2
	putU16(b, 8, 2)
	putU16(b, 10, 40) // coverage offset
	putU16(b, 12, uint16(ValueFormatXAdvance))
	putU16(b, 14, 0)
	putU16(b, 16, 24) // classDef1 offset
	putU16(b, 18, 32) // classDef2 offset
	putU16(b, 20, 2)  // class1Count
	putU16(b, 22, 2)  // class2Count
	// matrix at 24: [0][0]=0, [0][1]=0, [1][0]=0, [1][1]=-30
	putS16(b, 30, -30)
	copy(b[32:], classDefFmt1(60, 1)) // left glyph 60 -> class 1
	copy(b[40:], classDefFmt1(70, 1)) // right glyph 70 -> class 1
	copy(b[48:], coverageFmt1(60))

	lookup, err := ParsePairLookup(b)
	if err != nil {
		t.Fatalf("cannot parse pair lookup: %v", err)
	}
	sub := lookup.Subtables[0]
	if sub.Format != 2 || sub.Class1Count != 2 || sub.Class2Count != 2 {
		t.Fatalf("unexpected format-2 subtable: %+v", sub)
	}
	pairs, err := lookup.PairAdjustments()
	if err != nil {
		t.Fatalf("cannot flatten lookup: %v", err)
	}
	vr, ok := pairs[GlyphPair{Left: 60, Right: 70}]
	if !ok || vr.XAdvance != -30 {
		t.Fatalf("expected pair (60,70) -> -30, have %+v (%v)", vr, ok)
	}
}

func TestPairAdjustmentsFirstMatchWins(t *testing.T) {
	// two format-1 subtables covering the same left glyph with different
	// values; the first subtable shadows the second
	sub := func(value int16) []byte {
		s := make([]byte, 24)
		putU16(s, 0, 1)
		putU16(s, 2, 18)
		putU16(s, 4, uint16(ValueFormatXAdvance))
		putU16(s, 6, 0)
		putU16(s, 8, 1)
		putU16(s, 10, 12)
		putU16(s, 12, 1)
		putU16(s, 14, 40)
		putS16(s, 16, value)
		copy(s[18:], coverageFmt1(25))
		return s
	}
	b := make([]byte, 10)
	putU16(b, 0, uint16(GPosLookupTypePair))
	putU16(b, 4, 2)
	putU16(b, 6, 10)
	putU16(b, 8, 10+24)
	b = append(b, sub(-5)...)
	b = append(b, sub(99)...)

	lookup, err := ParsePairLookup(b)
	if err != nil {
		t.Fatalf("cannot parse pair lookup: %v", err)
	}
	pairs, err := lookup.PairAdjustments()
	if err != nil {
		t.Fatalf("cannot flatten lookup: %v", err)
	}
	if vr := pairs[GlyphPair{Left: 25, Right: 40}]; vr.XAdvance != -5 {
		t.Fatalf("expected first subtable to win with -5, have %d", vr.XAdvance)
	}
}

func TestDeviceBlobLength(t *testing.T) {
	// device table: sizes 12..17, deltaFormat 2 (4 bits per delta)
	// 6 deltas x 4 bits = 24 bits -> 2 words -> 10 bytes total
	dev := make([]byte, 10)
	putU16(dev, 0, 12)
	putU16(dev, 2, 17)
	putU16(dev, 4, 2)
	raw := make([]byte, 16)
	copy(raw[4:], dev)
	sub := &PairSubtable{raw: binarySegm(raw)}
	blob, err := sub.DeviceBlob(4)
	if err != nil {
		t.Fatalf("cannot resolve device blob: %v", err)
	}
	if !bytes.Equal(blob, dev) {
		t.Fatalf("device blob does not match: %v", blob)
	}
	if _, err := sub.DeviceBlob(0); err == nil {
		t.Fatalf("expected error for NULL device offset")
	}
}
