package otkern

import (
	"errors"
	"testing"

	"github.com/npillmayer/otcompact/ot"
)

func TestSplitSmallInputStaysWhole(t *testing.T) {
	pairs := map[ot.GlyphPair]Adjustment{
		{Left: 1, Right: 2}: Kern(-5),
		{Left: 3, Right: 2}: Kern(-6),
		{Left: 3, Right: 4}: Kern(-7),
	}
	bins, err := splitClusters(pairs)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(bins) != 1 {
		t.Fatalf("expected one bin, have %d", len(bins))
	}
	if bins[0].pairCount() != 3 {
		t.Fatalf("bin lost pairs: %d", bins[0].pairCount())
	}
}

func TestSplitSeparatesUnrelatedGroups(t *testing.T) {
	// two groups without a single shared right glyph; far below the size
	// bound, the split happens on occupancy alone
	pairs := make(map[ot.GlyphPair]Adjustment)
	for l := ot.GlyphIndex(10); l < 30; l++ {
		for r := ot.GlyphIndex(100); r < 120; r++ {
			pairs[ot.GlyphPair{Left: l, Right: r}] = Kern(int16(l + r))
		}
	}
	for l := ot.GlyphIndex(500); l < 520; l++ {
		for r := ot.GlyphIndex(900); r < 920; r++ {
			pairs[ot.GlyphPair{Left: l, Right: r}] = Kern(-int16(l % 90))
		}
	}
	bins, err := splitClusters(pairs)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(bins) != 2 {
		t.Fatalf("expected one bin per group, have %d", len(bins))
	}
	if lefts := bins[0].lefts(); lefts[0] != 10 || lefts[len(lefts)-1] != 29 {
		t.Fatalf("first bin carries lefts %v", lefts)
	}
	if lefts := bins[1].lefts(); lefts[0] != 500 || lefts[len(lefts)-1] != 519 {
		t.Fatalf("second bin carries lefts %v", lefts)
	}
}

func TestSplitKeepsLeftGlyphsAscendingAndDisjoint(t *testing.T) {
	pairs := make(map[ot.GlyphPair]Adjustment)
	for l := ot.GlyphIndex(1); l <= 300; l++ {
		for r := ot.GlyphIndex(1); r <= 80; r++ {
			pairs[ot.GlyphPair{Left: l, Right: r}] = Kern(int16(l + r))
		}
	}
	bins, err := splitClusters(pairs)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	if len(bins) < 2 {
		t.Fatalf("expected input to split, have %d bin(s)", len(bins))
	}
	total := 0
	var prevMax ot.GlyphIndex
	for i, bin := range bins {
		lefts := bin.lefts()
		if len(lefts) == 0 {
			t.Fatalf("bin #%d is empty", i)
		}
		if i > 0 && lefts[0] <= prevMax {
			t.Fatalf("bin #%d starts at %d, overlaps previous max %d", i, lefts[0], prevMax)
		}
		prevMax = lefts[len(lefts)-1]
		total += bin.pairCount()
	}
	if total != len(pairs) {
		t.Fatalf("bins carry %d pairs, input has %d", total, len(pairs))
	}
}

func TestSplitBinsRespectSizeBound(t *testing.T) {
	pairs := make(map[ot.GlyphPair]Adjustment)
	for l := ot.GlyphIndex(1); l <= 300; l++ {
		for r := ot.GlyphIndex(1); r <= 80; r++ {
			pairs[ot.GlyphPair{Left: l, Right: r}] = Kern(int16(l + r))
		}
	}
	bins, err := splitClusters(pairs)
	if err != nil {
		t.Fatalf("split failed: %v", err)
	}
	for i, bin := range bins {
		lefts := bin.lefts()
		if size := format1Size(bin, lefts, subtableValueFormat(bin)); size > maxSubtableSize {
			t.Errorf("bin #%d estimates %d bytes, beyond the 16-bit bound", i, size)
		}
	}
}

func TestSplitReportsUnsplittableGlyph(t *testing.T) {
	pairs := make(map[ot.GlyphPair]Adjustment)
	for r := ot.GlyphIndex(1); r <= 17000; r++ {
		pairs[ot.GlyphPair{Left: 42, Right: r}] = Kern(int16(r%50) + 1)
	}
	_, err := splitClusters(pairs)
	var overflow OverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("expected OverflowError, have %v", err)
	}
	if overflow.Glyph != 42 {
		t.Fatalf("expected glyph 42 in overflow report, have %d", overflow.Glyph)
	}
}

func TestPlanClustersKeepsOrder(t *testing.T) {
	bins := []cluster{
		mkCluster([]Pair{{Left: 1, Right: 2, Adjust: Kern(-1)}}),
		mkCluster([]Pair{{Left: 10, Right: 2, Adjust: Kern(-2)}}),
		mkCluster([]Pair{{Left: 20, Right: 2, Adjust: Kern(-3)}}),
	}
	plans, err := planClusters(bins, 2)
	if err != nil {
		t.Fatalf("planning failed: %v", err)
	}
	for i, plan := range plans {
		if plan.lefts[0] != bins[i].lefts()[0] {
			t.Fatalf("plan #%d does not match bin #%d", i, i)
		}
	}
}

func TestSortPairsIsStable(t *testing.T) {
	pairs := map[ot.GlyphPair]Adjustment{
		{Left: 2, Right: 9}: Kern(1),
		{Left: 1, Right: 5}: Kern(2),
		{Left: 1, Right: 3}: Kern(3),
	}
	keys := sortPairs(pairs)
	want := []ot.GlyphPair{{Left: 1, Right: 3}, {Left: 1, Right: 5}, {Left: 2, Right: 9}}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("unexpected order at %d: %v", i, keys)
		}
	}
}
