package otkern

import (
	"testing"

	"github.com/npillmayer/otcompact/ot"
)

func mkCluster(pairs []Pair) cluster {
	c := make(cluster)
	for _, p := range pairs {
		row := c[p.Left]
		if row == nil {
			row = make(map[ot.GlyphIndex]Adjustment)
			c[p.Left] = row
		}
		row[p.Right] = p.Adjust
	}
	return c
}

func TestPartitionMergesIdenticalRows(t *testing.T) {
	c := mkCluster([]Pair{
		{Left: 10, Right: 50, Adjust: Kern(-20)},
		{Left: 10, Right: 51, Adjust: Kern(-30)},
		{Left: 11, Right: 50, Adjust: Kern(-20)},
		{Left: 11, Right: 51, Adjust: Kern(-30)},
		{Left: 12, Right: 50, Adjust: Kern(99)},
	})
	ca, err := partitionClasses(c)
	if err != nil {
		t.Fatalf("partitioning failed: %v", err)
	}
	if ca.left[10] != ca.left[11] {
		t.Errorf("glyphs 10 and 11 have identical rows, expected one class")
	}
	if ca.left[12] == ca.left[10] {
		t.Errorf("glyph 12 differs from 10, expected separate classes")
	}
	if ca.class1Count != 3 { // classes 1, 2 plus implicit 0
		t.Errorf("expected class1Count 3, have %d", ca.class1Count)
	}
	if got := ca.matrix[ca.left[10]][ca.right[51]]; got.XAdvance != -30 {
		t.Errorf("expected matrix cell -30, have %+v", got)
	}
}

func TestPartitionRespectsImplicitZero(t *testing.T) {
	// rows of 10 and 11 agree on glyph 50 but 11 also kerns 51: the
	// absent (10,51) pair means zero, so the rows must not merge
	c := mkCluster([]Pair{
		{Left: 10, Right: 50, Adjust: Kern(-20)},
		{Left: 11, Right: 50, Adjust: Kern(-20)},
		{Left: 11, Right: 51, Adjust: Kern(-30)},
	})
	ca, err := partitionClasses(c)
	if err != nil {
		t.Fatalf("partitioning failed: %v", err)
	}
	if ca.left[10] == ca.left[11] {
		t.Fatalf("rows differing on an implicit zero must not share a class")
	}
	if got := ca.matrix[ca.left[10]][ca.right[51]]; !got.IsZero() {
		t.Errorf("expected zero cell for the absent pair, have %+v", got)
	}
}

func TestPartitionZeroRowAndColumn(t *testing.T) {
	c := mkCluster([]Pair{
		{Left: 10, Right: 50, Adjust: Kern(-20)},
	})
	ca, err := partitionClasses(c)
	if err != nil {
		t.Fatalf("partitioning failed: %v", err)
	}
	for c2 := 0; c2 < ca.class2Count; c2++ {
		if !ca.matrix[0][c2].IsZero() {
			t.Errorf("row of implicit class 0 must stay zero")
		}
	}
	for c1 := 0; c1 < ca.class1Count; c1++ {
		if !ca.matrix[c1][0].IsZero() {
			t.Errorf("column of implicit class 0 must stay zero")
		}
	}
}

func TestPartitionMergesIdenticalColumns(t *testing.T) {
	c := mkCluster([]Pair{
		{Left: 10, Right: 50, Adjust: Kern(-20)},
		{Left: 10, Right: 51, Adjust: Kern(-20)},
		{Left: 10, Right: 52, Adjust: Kern(7)},
	})
	ca, err := partitionClasses(c)
	if err != nil {
		t.Fatalf("partitioning failed: %v", err)
	}
	if ca.right[50] != ca.right[51] {
		t.Errorf("rights 50 and 51 have identical columns, expected one class")
	}
	if ca.right[52] == ca.right[50] {
		t.Errorf("right 52 differs, expected a separate class")
	}
	if ca.class2Count != 3 {
		t.Errorf("expected class2Count 3, have %d", ca.class2Count)
	}
}

func TestUnionFind(t *testing.T) {
	uf := newUnionFind(6)
	uf.union(0, 3)
	uf.union(3, 5)
	uf.union(1, 2)
	if uf.find(0) != uf.find(5) {
		t.Errorf("0 and 5 should share a root")
	}
	if uf.find(1) != uf.find(2) {
		t.Errorf("1 and 2 should share a root")
	}
	if uf.find(0) == uf.find(1) || uf.find(4) == uf.find(0) {
		t.Errorf("disjoint sets must keep distinct roots")
	}
}
