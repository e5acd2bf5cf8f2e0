package otkern

import (
	"runtime"
	"sort"
	"sync"

	"github.com/npillmayer/otcompact/ot"
)

// maxSubtableSize is the hard ceiling for one subtable: every substructure
// is linked by an unsigned 16-bit offset from the subtable start, so nothing
// a subtable references may lie beyond this many bytes.
const maxSubtableSize = 0xffff

// splitClusters partitions the pair map into per-subtable clusters. Left
// glyphs are taken in ascending ID order and packed greedily; a bin closes
// on either of two conditions:
//
//   - the next glyph's right-hand set shares no glyph with the bin's.
//     Unrelated pair groups gain nothing from one another's class columns,
//     they only widen the matrix with zero cells, so each group gets its
//     own subtable with a dense matrix;
//   - adding the glyph's pairs would push a conservative format-1 size
//     estimate past the 16-bit bound. The format selector never picks an
//     encoding larger than that estimate, so every bin is guaranteed to fit.
func splitClusters(pairs map[ot.GlyphPair]Adjustment) ([]cluster, error) {
	all := make(cluster)
	for gp, adj := range pairs {
		row := all[gp.Left]
		if row == nil {
			row = make(map[ot.GlyphIndex]Adjustment)
			all[gp.Left] = row
		}
		row[gp.Right] = adj
	}
	lefts := all.lefts()

	// conservative format-1 estimate: header, pair-set offsets, flat
	// coverage, pair sets, device tables
	estimate := func(nLefts, nPairs, devBytes int, mask ot.ValueFormat) int {
		return 14 + 6*nLefts + nPairs*(2+ot.ValueRecordSize(mask)) + devBytes
	}

	var bins []cluster
	cur := make(cluster)
	curRights := make(map[ot.GlyphIndex]bool)
	var vf ot.ValueFormat // running field-mask union of cur
	var deviceBytes, nPairs int

	closeBin := func() {
		bins = append(bins, cur)
		cur = make(cluster)
		curRights = make(map[ot.GlyphIndex]bool)
		vf, deviceBytes, nPairs = 0, 0, 0
	}

	for _, l := range lefts {
		row := all[l]
		var rowVF ot.ValueFormat
		rowDev := 0
		for _, adj := range row {
			rowVF |= adj.valueFormat()
			rowDev += len(adj.XPlaDevice) + len(adj.YPlaDevice) +
				len(adj.XAdvDevice) + len(adj.YAdvDevice)
		}
		if estimate(1, len(row), rowDev, rowVF) > maxSubtableSize {
			return nil, OverflowError{Glyph: l,
				Size: estimate(1, len(row), rowDev, rowVF)}
		}
		if len(cur) > 0 && (!sharesRight(curRights, row) ||
			estimate(len(cur)+1, nPairs+len(row), deviceBytes+rowDev, vf|rowVF) > maxSubtableSize) {
			closeBin()
		}
		cur[l] = row
		vf |= rowVF
		deviceBytes += rowDev
		nPairs += len(row)
		for r := range row {
			curRights[r] = true
		}
	}
	if len(cur) > 0 {
		bins = append(bins, cur)
	}
	tracer().Debugf("split %d pairs over %d subtables", len(pairs), len(bins))
	return bins, nil
}

// sharesRight reports whether a kerning row touches any right glyph already
// present in the bin.
func sharesRight(rights map[ot.GlyphIndex]bool, row map[ot.GlyphIndex]Adjustment) bool {
	for r := range row {
		if rights[r] {
			return true
		}
	}
	return false
}

// planClusters runs the format selector over all bins concurrently. Results
// land in index-keyed slots, so subtable order stays the split order
// regardless of scheduling.
func planClusters(bins []cluster, jobs int) ([]*encodingPlan, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	plans := make([]*encodingPlan, len(bins))
	errs := make([]error, len(bins))
	sem := make(chan struct{}, jobs)
	var wg sync.WaitGroup
	for i, bin := range bins {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, bin cluster) {
			defer wg.Done()
			defer func() { <-sem }()
			plans[i], errs[i] = planSubtable(bin)
		}(i, bin)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// sortPairs returns the pairs of a map in (left, right) order. Deterministic
// iteration keeps reports and traces stable between runs.
func sortPairs(pairs map[ot.GlyphPair]Adjustment) []ot.GlyphPair {
	keys := make([]ot.GlyphPair, 0, len(pairs))
	for gp := range pairs {
		keys = append(keys, gp)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Left != keys[j].Left {
			return keys[i].Left < keys[j].Left
		}
		return keys[i].Right < keys[j].Right
	})
	return keys
}
