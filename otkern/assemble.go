package otkern

import (
	"fmt"
	"sort"

	"github.com/npillmayer/otcompact/ot"
)

// Binary layout assembly. Works in two passes per subtable: first every
// substructure is serialized into an image with placeholder offset slots,
// then images and shared tables are placed in the output stream and the
// slots patched with verified 16-bit offsets.
//
// Substructures are interned by content: identical pair sets share one blob
// within a subtable, identical coverage and class-definition tables are
// shared across subtables as long as the referring offset stays legal.

// subtableImage is a serialized subtable whose shared tables (coverage,
// class definitions) are not yet placed. Slot fields give the byte positions
// of the offset fields to patch; shared holds the table bytes in slot order.
type subtableImage struct {
	bytes  []byte
	slots  []int
	shared [][]byte
}

func serializeSubtable(plan *encodingPlan) (*subtableImage, error) {
	if plan.format == 2 {
		return serializeFormat2(plan)
	}
	return serializeFormat1(plan)
}

// serializeFormat1 lays out header, pair-set offset array and the pair sets.
// Device tables live inside their pair set, since value-record device
// offsets are relative to the pair set start. Identical pair sets are
// interned and share one offset.
func serializeFormat1(plan *encodingPlan) (*subtableImage, error) {
	vf := plan.vf1
	n := len(plan.lefts)
	img := make([]byte, 10+2*n)
	ot.PutU16(img, 0, 1)
	ot.PutU16(img, 4, uint16(vf))
	ot.PutU16(img, 6, 0) // no second-glyph adjustments
	ot.PutU16(img, 8, uint16(n))

	interned := make(map[string]int)
	for i, l := range plan.lefts {
		blob := serializePairSet(plan.pairs[l], vf)
		off, ok := interned[string(blob)]
		if !ok {
			off = len(img)
			if off > maxSubtableSize {
				return nil, ConsistencyError{Stage: "layout assembly",
					Issue: fmt.Sprintf("pair-set offset %d exceeds estimate-backed bound", off)}
			}
			img = append(img, blob...)
			interned[string(blob)] = off
		}
		ot.PutU16(img, 10+2*i, uint16(off))
	}
	return &subtableImage{
		bytes:  img,
		slots:  []int{2},
		shared: [][]byte{ot.SerializeCoverage(plan.lefts)},
	}, nil
}

// serializePairSet emits one pair set: record count, the records sorted by
// second glyph, then the device tables the records link to. Identical device
// blobs within the set share one placement.
func serializePairSet(row map[ot.GlyphIndex]Adjustment, vf ot.ValueFormat) []byte {
	rights := make([]ot.GlyphIndex, 0, len(row))
	for r := range row {
		rights = append(rights, r)
	}
	sort.Slice(rights, func(i, j int) bool { return rights[i] < rights[j] })

	recSize := 2 + ot.ValueRecordSize(vf)
	blob := make([]byte, 2+len(rights)*recSize)
	ot.PutU16(blob, 0, uint16(len(rights)))

	interned := make(map[string]int)
	place := func(d Device) uint16 {
		if len(d) == 0 {
			return 0
		}
		off, ok := interned[string(d)]
		if !ok {
			off = len(blob)
			blob = append(blob, d...)
			interned[string(d)] = off
		}
		return uint16(off)
	}
	pos := 2
	for _, r := range rights {
		adj := row[r]
		ot.PutU16(blob, pos, uint16(r))
		vr := ot.ValueRecord{
			XPlacement: adj.XPlacement,
			YPlacement: adj.YPlacement,
			XAdvance:   adj.XAdvance,
			YAdvance:   adj.YAdvance,
			XPlaDevice: place(adj.XPlaDevice),
			YPlaDevice: place(adj.YPlaDevice),
			XAdvDevice: place(adj.XAdvDevice),
			YAdvDevice: place(adj.YAdvDevice),
		}
		ot.PutValueRecord(blob, pos+2, vf, vr)
		pos += recSize
	}
	return blob
}

// serializeFormat2 lays out header and the class value matrix inline;
// coverage and both class definitions go to the shared pool.
func serializeFormat2(plan *encodingPlan) (*subtableImage, error) {
	vf := plan.vf1
	ca := plan.classes
	recSize := ot.ValueRecordSize(vf)
	img := make([]byte, 16+ca.class1Count*ca.class2Count*recSize)
	ot.PutU16(img, 0, 2)
	ot.PutU16(img, 4, uint16(vf))
	ot.PutU16(img, 6, 0)
	ot.PutU16(img, 12, uint16(ca.class1Count))
	ot.PutU16(img, 14, uint16(ca.class2Count))
	pos := 16
	for _, row := range ca.matrix {
		for _, adj := range row {
			pos += ot.PutValueRecord(img, pos, vf, ot.ValueRecord{
				XPlacement: adj.XPlacement,
				YPlacement: adj.YPlacement,
				XAdvance:   adj.XAdvance,
				YAdvance:   adj.YAdvance,
			})
		}
	}
	return &subtableImage{
		bytes: img,
		slots: []int{2, 8, 10},
		shared: [][]byte{
			ot.SerializeCoverage(plan.lefts),
			ot.SerializeClassDef(ca.left),
			ot.SerializeClassDef(ca.right),
		},
	}, nil
}

// assembleLookup places all subtable images behind the lookup header and
// patches every offset slot with a verified 16-bit offset.
//
// Shared tables go to a common pool behind the last subtable when every
// subtable can still reach that pool, which maximizes sharing. Otherwise
// each subtable gets its tables placed right behind its own image; that
// forgoes cross-subtable sharing but keeps every offset within the bound the
// splitter guaranteed per subtable.
func assembleLookup(plans []*encodingPlan, flag uint16) ([]byte, error) {
	images := make([]*subtableImage, len(plans))
	total := 6 + 2*len(plans)
	poolSize := 0
	unique := make(map[string]bool)
	for i, plan := range plans {
		img, err := serializeSubtable(plan)
		if err != nil {
			return nil, err
		}
		images[i] = img
		total += len(img.bytes)
		for _, t := range img.shared {
			if !unique[string(t)] {
				unique[string(t)] = true
				poolSize += len(t)
			}
		}
	}
	if total+poolSize <= maxSubtableSize {
		return assemblePooled(images, flag)
	}
	return assembleLocal(images, flag)
}

func lookupHeader(n int, flag uint16) []byte {
	out := make([]byte, 6+2*n)
	ot.PutU16(out, 0, uint16(ot.GPosLookupTypePair))
	ot.PutU16(out, 2, flag)
	ot.PutU16(out, 4, uint16(n))
	return out
}

// assemblePooled shares identical coverage and class-definition tables
// across all subtables in one pool behind the images. Only called when the
// whole lookup fits within one 16-bit offset span.
func assemblePooled(images []*subtableImage, flag uint16) ([]byte, error) {
	out := lookupHeader(len(images), flag)
	subPos := make([]int, len(images))
	for i, img := range images {
		subPos[i] = len(out)
		ot.PutU16(out, 6+2*i, uint16(subPos[i]))
		out = append(out, img.bytes...)
	}
	interned := make(map[string]int)
	for i, img := range images {
		for k, slot := range img.slots {
			pos, ok := interned[string(img.shared[k])]
			if !ok {
				pos = len(out)
				out = append(out, img.shared[k]...)
				interned[string(img.shared[k])] = pos
			}
			ot.PutU16(out, subPos[i]+slot, uint16(pos-subPos[i]))
		}
	}
	tracer().Debugf("assembled lookup: %d subtables, %d bytes, shared table pool", len(images), len(out))
	return out, nil
}

// assembleLocal places every subtable's tables directly behind its image.
// Offsets stay subtable-local, so the only remaining bound is the subtable
// offset itself, measured from the lookup start.
func assembleLocal(images []*subtableImage, flag uint16) ([]byte, error) {
	out := lookupHeader(len(images), flag)
	for i, img := range images {
		subPos := len(out)
		if subPos > maxSubtableSize {
			return nil, OverflowError{Size: subPos,
				Issue: fmt.Sprintf("offset of subtable #%d from lookup start", i)}
		}
		ot.PutU16(out, 6+2*i, uint16(subPos))
		out = append(out, img.bytes...)
		interned := make(map[string]int)
		for k, slot := range img.slots {
			pos, ok := interned[string(img.shared[k])]
			if !ok {
				pos = len(out)
				out = append(out, img.shared[k]...)
				interned[string(img.shared[k])] = pos
			}
			rel := pos - subPos
			if rel > maxSubtableSize {
				return nil, ConsistencyError{Stage: "layout assembly",
					Issue: fmt.Sprintf("illegal table offset %d in subtable #%d", rel, i)}
			}
			ot.PutU16(out, subPos+slot, uint16(rel))
		}
	}
	tracer().Debugf("assembled lookup: %d subtables, %d bytes, subtable-local tables", len(images), len(out))
	return out, nil
}
