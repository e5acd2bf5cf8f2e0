package otkern

import (
	"testing"

	"github.com/npillmayer/otcompact/ot"
)

func TestPlanPrefersClassMatrixForUniformRows(t *testing.T) {
	var pairs []Pair
	for l := ot.GlyphIndex(100); l < 110; l++ {
		pairs = append(pairs,
			Pair{Left: l, Right: 200, Adjust: Kern(-40)},
			Pair{Left: l, Right: 201, Adjust: Kern(-55)})
	}
	plan, err := planSubtable(mkCluster(pairs))
	if err != nil {
		t.Fatalf("planning failed: %v", err)
	}
	if plan.format != 2 {
		t.Fatalf("expected format 2 for uniform rows, have format %d", plan.format)
	}
	if plan.classes == nil || plan.classes.class1Count != 2 {
		t.Fatalf("expected a single explicit left class")
	}
	if f1 := format1Size(plan.pairs, plan.lefts, plan.vf1); plan.size > f1 {
		t.Fatalf("format 2 chosen although %d > format-1 size %d", plan.size, f1)
	}
}

func TestPlanPrefersPairListForIrregularPairs(t *testing.T) {
	plan, err := planSubtable(mkCluster([]Pair{
		{Left: 10, Right: 20, Adjust: Kern(-1)},
		{Left: 11, Right: 21, Adjust: Kern(-2)},
		{Left: 12, Right: 22, Adjust: Kern(-3)},
	}))
	if err != nil {
		t.Fatalf("planning failed: %v", err)
	}
	if plan.format != 1 {
		t.Fatalf("expected format 1 for irregular pairs, have format %d", plan.format)
	}
}

func TestPlanForcesPairListForDevices(t *testing.T) {
	dev := deviceTable(12, 12, 1, 0x4000)
	var pairs []Pair
	for l := ot.GlyphIndex(100); l < 120; l++ {
		pairs = append(pairs, Pair{Left: l, Right: 200,
			Adjust: Adjustment{XAdvance: -40, XAdvDevice: dev}})
	}
	plan, err := planSubtable(mkCluster(pairs))
	if err != nil {
		t.Fatalf("planning failed: %v", err)
	}
	if plan.format != 1 {
		t.Fatalf("device tables must force format 1, have format %d", plan.format)
	}
	if plan.vf1&ot.ValueFormatXAdvDevice == 0 {
		t.Fatalf("subtable value format misses the device bit")
	}
}

func TestSubtableValueFormatIsUnion(t *testing.T) {
	c := mkCluster([]Pair{
		{Left: 1, Right: 2, Adjust: Kern(-1)},
		{Left: 1, Right: 3, Adjust: Adjustment{YPlacement: 4}},
	})
	vf := subtableValueFormat(c)
	if vf != ot.ValueFormatXAdvance|ot.ValueFormatYPlacement {
		t.Fatalf("unexpected union format 0x%x", vf)
	}
}

func TestFormat1SizeIsUpperBound(t *testing.T) {
	c := mkCluster([]Pair{
		{Left: 10, Right: 20, Adjust: Kern(-1)},
		{Left: 10, Right: 21, Adjust: Kern(-2)},
		{Left: 11, Right: 20, Adjust: Kern(-1)},
		{Left: 11, Right: 21, Adjust: Kern(-2)}, // same pair set as glyph 10, interned
	})
	lefts := c.lefts()
	vf := subtableValueFormat(c)
	img, err := serializeFormat1(&encodingPlan{format: 1, pairs: c, lefts: lefts, vf1: vf})
	if err != nil {
		t.Fatalf("serialization failed: %v", err)
	}
	actual := len(img.bytes)
	for _, tbl := range img.shared {
		actual += len(tbl)
	}
	if estimate := format1Size(c, lefts, vf); actual > estimate {
		t.Fatalf("serialized %d bytes, estimate promised at most %d", actual, estimate)
	}
}
