package otkern

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/otcompact/ot"
)

// Class partitioning for the format-2 class matrix encoding: left glyphs
// whose kerning rows are identical share a left class, right glyphs whose
// columns (over the left classes) are identical share a right class. An
// absent pair counts as the zero adjustment, so two rows only merge when
// they agree on every right glyph, explicitly or implicitly.

// cluster holds the pairs of one subtable, keyed left glyph -> right glyph.
type cluster map[ot.GlyphIndex]map[ot.GlyphIndex]Adjustment

func (c cluster) lefts() []ot.GlyphIndex {
	lefts := make([]ot.GlyphIndex, 0, len(c))
	for l := range c {
		lefts = append(lefts, l)
	}
	sort.Slice(lefts, func(i, j int) bool { return lefts[i] < lefts[j] })
	return lefts
}

func (c cluster) rights() []ot.GlyphIndex {
	seen := make(map[ot.GlyphIndex]bool)
	for _, row := range c {
		for r := range row {
			seen[r] = true
		}
	}
	rights := make([]ot.GlyphIndex, 0, len(seen))
	for r := range seen {
		rights = append(rights, r)
	}
	sort.Slice(rights, func(i, j int) bool { return rights[i] < rights[j] })
	return rights
}

func (c cluster) pairCount() int {
	n := 0
	for _, row := range c {
		n += len(row)
	}
	return n
}

// classAssignment is a proposed format-2 encoding of a cluster: explicit
// class numbers for left and right glyphs (starting at 1; class 0 stays the
// implicit default and its matrix row and column are all-zero) and the value
// matrix indexed by class pair.
type classAssignment struct {
	left        map[ot.GlyphIndex]uint16
	right       map[ot.GlyphIndex]uint16
	class1Count int
	class2Count int
	matrix      [][]Adjustment // class1Count rows of class2Count cells
}

// unionFind is a disjoint-set forest over glyph list indices.
type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]] // path halving
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
}

// partitionClasses proposes left and right glyph classes for a cluster and
// verifies the resulting matrix against every input pair before returning.
// Merging is conflict-checked: two glyphs only end up in one class when their
// kerning signatures are equal, so the verification failing indicates an
// engine defect, not an input property.
func partitionClasses(c cluster) (*classAssignment, error) {
	lefts := c.lefts()
	rights := c.rights()

	// merge left glyphs with identical rows
	uf := newUnionFind(len(lefts))
	rowSig := make(map[string]int, len(lefts))
	for i, l := range lefts {
		var sb strings.Builder
		row := c[l]
		for _, r := range rights {
			if adj, ok := row[r]; ok {
				fmt.Fprintf(&sb, "%d=%s;", r, adj.signature())
			}
		}
		sig := sb.String()
		if first, ok := rowSig[sig]; ok {
			uf.union(first, i)
		} else {
			rowSig[sig] = i
		}
	}

	ca := &classAssignment{
		left:  make(map[ot.GlyphIndex]uint16, len(lefts)),
		right: make(map[ot.GlyphIndex]uint16, len(rights)),
	}
	var leftReps []ot.GlyphIndex // representative left glyph per class, index = class-1
	rootClass := make(map[int]uint16)
	for i, l := range lefts {
		root := uf.find(i)
		clz, ok := rootClass[root]
		if !ok {
			leftReps = append(leftReps, lefts[root])
			clz = uint16(len(leftReps))
			rootClass[root] = clz
		}
		ca.left[l] = clz
	}
	ca.class1Count = len(leftReps) + 1

	// merge right glyphs with identical columns over the left classes
	var rightReps []ot.GlyphIndex
	colSig := make(map[string]uint16, len(rights))
	for _, r := range rights {
		var sb strings.Builder
		for _, rep := range leftReps {
			if adj, ok := c[rep][r]; ok {
				fmt.Fprintf(&sb, "%s;", adj.signature())
			} else {
				sb.WriteString("0;")
			}
		}
		sig := sb.String()
		clz, ok := colSig[sig]
		if !ok {
			rightReps = append(rightReps, r)
			clz = uint16(len(rightReps))
			colSig[sig] = clz
		}
		ca.right[r] = clz
	}
	ca.class2Count = len(rightReps) + 1

	ca.matrix = make([][]Adjustment, ca.class1Count)
	for c1 := range ca.matrix {
		ca.matrix[c1] = make([]Adjustment, ca.class2Count)
		if c1 == 0 {
			continue
		}
		for c2 := 1; c2 < ca.class2Count; c2++ {
			if adj, ok := c[leftReps[c1-1]][rightReps[c2-1]]; ok {
				ca.matrix[c1][c2] = adj
			}
		}
	}

	// the matrix must reproduce every pair, and invent none
	for _, l := range lefts {
		row := c[l]
		for _, r := range rights {
			want := row[r] // zero for absent pairs
			got := ca.matrix[ca.left[l]][ca.right[r]]
			if !got.equal(want) {
				return nil, ConsistencyError{
					Stage: "class partitioning",
					Issue: fmt.Sprintf("matrix cell [%d][%d] disagrees with pair (%d,%d)",
						ca.left[l], ca.right[r], l, r),
				}
			}
		}
	}
	tracer().Debugf("partitioned %d left glyphs into %d classes, %d right glyphs into %d",
		len(lefts), ca.class1Count-1, len(rights), ca.class2Count-1)
	return ca, nil
}
