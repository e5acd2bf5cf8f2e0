package otkern

import (
	"fmt"

	"github.com/npillmayer/otcompact/ot"
)

// Options tunes a compaction run. The zero value is a usable default.
type Options struct {
	LookupFlag uint16 // lookupFlag word copied verbatim into the lookup header
	GlyphCount int    // number of glyphs in the font; 0 disables glyph ID validation
	Jobs       int    // max concurrent subtable evaluations; 0 means GOMAXPROCS
}

// Report summarizes what a compaction run did to the data.
type Report struct {
	Pairs       int // kerning pairs after normalization
	Subtables   int // emitted subtables
	Format2     int // how many of them use the class-matrix encoding
	BytesBefore int // size of the naive single-subtable format-1 encoding
	BytesAfter  int // size of the emitted lookup
}

// Saved returns the size reduction as a fraction of the naive encoding.
func (r Report) Saved() float64 {
	if r.BytesBefore == 0 {
		return 0
	}
	return 1 - float64(r.BytesAfter)/float64(r.BytesBefore)
}

// Result carries the serialized lookup and the run report.
type Result struct {
	Bytes  []byte
	Report Report
}

// Compact turns a list of kerning pairs into a serialized GPOS pair
// adjustment lookup: validate and normalize the input, split it into
// subtable-sized clusters, pick the cheaper wire format per cluster, and
// assemble the byte stream. Before returning, the emitted bytes are decoded
// again and checked against the input mapping; compaction aborts rather than
// hand out bytes that would kern differently.
func Compact(pairs []Pair, opts Options) (*Result, error) {
	m, err := buildPairMap(pairs, opts.GlyphCount)
	if err != nil {
		return nil, err
	}
	bins, err := splitClusters(m)
	if err != nil {
		return nil, err
	}
	plans, err := planClusters(bins, opts.Jobs)
	if err != nil {
		return nil, err
	}
	lookup, err := assembleLookup(plans, opts.LookupFlag)
	if err != nil {
		return nil, err
	}
	if err := verifyLookup(lookup, m); err != nil {
		return nil, err
	}
	report := Report{
		Pairs:       len(m),
		Subtables:   len(plans),
		BytesBefore: naiveSize(m),
		BytesAfter:  len(lookup),
	}
	for _, plan := range plans {
		if plan.format == 2 {
			report.Format2++
		}
	}
	tracer().Infof("compacted %d pairs into %d subtables: %d -> %d bytes",
		report.Pairs, report.Subtables, report.BytesBefore, report.BytesAfter)
	return &Result{Bytes: lookup, Report: report}, nil
}

// naiveSize is the baseline for the report: everything in one format-1
// subtable behind a minimal lookup header, no substructure sharing.
func naiveSize(pairs map[ot.GlyphPair]Adjustment) int {
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
	return 8 + format1Size(all, lefts, subtableValueFormat(all))
}

// verifyLookup re-decodes an assembled lookup and compares the pair mapping
// it produces, device blobs included, with the input mapping. First-match
// subtable semantics apply on the decoding side, exactly as a layout engine
// would read the lookup.
func verifyLookup(b []byte, want map[ot.GlyphPair]Adjustment) error {
	lookup, err := ot.ParsePairLookup(b)
	if err != nil {
		return ConsistencyError{Stage: "verification", Issue: err.Error()}
	}
	got := make(map[ot.GlyphPair]Adjustment, len(want))
	claimed := make(map[ot.GlyphIndex]int)
	for i, sub := range lookup.Subtables {
		for _, g := range sub.Coverage.Glyphs() {
			if _, ok := claimed[g]; !ok {
				claimed[g] = i
			}
		}
	}
	for i, sub := range lookup.Subtables {
		switch sub.Format {
		case 1:
			for ci, g := range sub.Coverage.Glyphs() {
				if claimed[g] != i {
					continue
				}
				for _, rec := range sub.PairSets[ci] {
					adj, err := decodeAdjustment(sub, ci, rec.Value1)
					if err != nil {
						return err
					}
					if adj.IsZero() {
						continue
					}
					got[ot.GlyphPair{Left: g, Right: rec.SecondGlyph}] = adj
				}
			}
		case 2:
			rights := sub.ClassDef2.Glyphs()
			for _, g := range sub.Coverage.Glyphs() {
				if claimed[g] != i {
					continue
				}
				c1 := sub.ClassDef1.Class(g)
				if c1 >= len(sub.ClassRecords) {
					return ConsistencyError{Stage: "verification",
						Issue: fmt.Sprintf("left class %d outside the %d-row matrix", c1, len(sub.ClassRecords))}
				}
				row := sub.ClassRecords[c1]
				for _, r := range rights {
					c2 := sub.ClassDef2.Class(r)
					if c2 >= len(row) {
						return ConsistencyError{Stage: "verification",
							Issue: fmt.Sprintf("right class %d outside the %d-column matrix", c2, len(row))}
					}
					cell := row[c2].Value1
					adj := Adjustment{
						XPlacement: cell.XPlacement,
						YPlacement: cell.YPlacement,
						XAdvance:   cell.XAdvance,
						YAdvance:   cell.YAdvance,
					}
					if adj.IsZero() {
						continue
					}
					got[ot.GlyphPair{Left: g, Right: r}] = adj
				}
			}
		}
	}
	if len(got) != len(want) {
		return ConsistencyError{Stage: "verification",
			Issue: fmt.Sprintf("decoded %d pairs, input has %d", len(got), len(want))}
	}
	for gp, wantAdj := range want {
		if !got[gp].equal(wantAdj) {
			return ConsistencyError{Stage: "verification",
				Issue: fmt.Sprintf("pair (%d,%d) decodes differently", gp.Left, gp.Right)}
		}
	}
	return nil
}

// decodeAdjustment rebuilds an Adjustment from a decoded format-1 value
// record, fetching the device blobs its offsets point to.
func decodeAdjustment(sub *ot.PairSubtable, coverageIndex int, vr ot.ValueRecord) (Adjustment, error) {
	adj := Adjustment{
		XPlacement: vr.XPlacement,
		YPlacement: vr.YPlacement,
		XAdvance:   vr.XAdvance,
		YAdvance:   vr.YAdvance,
	}
	fetch := func(off uint16) (Device, error) {
		if off == 0 {
			return nil, nil
		}
		blob, err := sub.PairSetDeviceBlob(coverageIndex, off)
		if err != nil {
			return nil, ConsistencyError{Stage: "verification",
				Issue: fmt.Sprintf("unresolvable device offset %d: %v", off, err)}
		}
		return Device(blob), nil
	}
	var err error
	if adj.XPlaDevice, err = fetch(vr.XPlaDevice); err != nil {
		return adj, err
	}
	if adj.YPlaDevice, err = fetch(vr.YPlaDevice); err != nil {
		return adj, err
	}
	if adj.XAdvDevice, err = fetch(vr.XAdvDevice); err != nil {
		return adj, err
	}
	if adj.YAdvDevice, err = fetch(vr.YAdvDevice); err != nil {
		return adj, err
	}
	return adj, nil
}
