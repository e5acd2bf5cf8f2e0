package otkern

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/npillmayer/otcompact/ot"
)

// Device is an opaque device table, carried as raw bytes. The engine never
// interprets device deltas; it only places the blob and links it with a
// 16-bit offset.
type Device []byte

// Adjustment is the positioning correction applied to the first glyph of a
// kerning pair: placement and advance deltas in design units, plus optional
// device tables for size-specific tweaks.
type Adjustment struct {
	XPlacement int16
	YPlacement int16
	XAdvance   int16
	YAdvance   int16
	XPlaDevice Device
	YPlaDevice Device
	XAdvDevice Device
	YAdvDevice Device
}

// Kern builds the common case, a horizontal advance adjustment.
func Kern(xAdvance int16) Adjustment {
	return Adjustment{XAdvance: xAdvance}
}

// IsZero reports whether a carries neither a value nor a device table.
func (a Adjustment) IsZero() bool {
	return a.XPlacement == 0 && a.YPlacement == 0 &&
		a.XAdvance == 0 && a.YAdvance == 0 && !a.hasDevice()
}

func (a Adjustment) hasDevice() bool {
	return len(a.XPlaDevice) > 0 || len(a.YPlaDevice) > 0 ||
		len(a.XAdvDevice) > 0 || len(a.YAdvDevice) > 0
}

// equal is deep equality, device blobs compared byte-wise.
func (a Adjustment) equal(b Adjustment) bool {
	return a.XPlacement == b.XPlacement && a.YPlacement == b.YPlacement &&
		a.XAdvance == b.XAdvance && a.YAdvance == b.YAdvance &&
		bytes.Equal(a.XPlaDevice, b.XPlaDevice) &&
		bytes.Equal(a.YPlaDevice, b.YPlaDevice) &&
		bytes.Equal(a.XAdvDevice, b.XAdvDevice) &&
		bytes.Equal(a.YAdvDevice, b.YAdvDevice)
}

// valueFormat returns the minimal field mask able to carry a.
func (a Adjustment) valueFormat() ot.ValueFormat {
	var f ot.ValueFormat
	if a.XPlacement != 0 {
		f |= ot.ValueFormatXPlacement
	}
	if a.YPlacement != 0 {
		f |= ot.ValueFormatYPlacement
	}
	if a.XAdvance != 0 {
		f |= ot.ValueFormatXAdvance
	}
	if a.YAdvance != 0 {
		f |= ot.ValueFormatYAdvance
	}
	if len(a.XPlaDevice) > 0 {
		f |= ot.ValueFormatXPlaDevice
	}
	if len(a.YPlaDevice) > 0 {
		f |= ot.ValueFormatYPlaDevice
	}
	if len(a.XAdvDevice) > 0 {
		f |= ot.ValueFormatXAdvDevice
	}
	if len(a.YAdvDevice) > 0 {
		f |= ot.ValueFormatYAdvDevice
	}
	return f
}

// signature serializes a into a comparable key. Used to group identical
// adjustments during class partitioning.
func (a Adjustment) signature() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%d|%d|%d|%d", a.XPlacement, a.YPlacement, a.XAdvance, a.YAdvance)
	for _, d := range []Device{a.XPlaDevice, a.YPlaDevice, a.XAdvDevice, a.YAdvDevice} {
		buf.WriteByte('|')
		buf.Write(d)
	}
	return buf.String()
}

// checkDevices validates the device blobs of an adjustment. The engine
// treats device tables as opaque, but their length must be derivable from
// the header (startSize, endSize, deltaFormat), or a decoder reading the
// emitted lookup would see a different blob than the one handed in.
func checkDevices(a Adjustment) string {
	for _, d := range []Device{a.XPlaDevice, a.YPlaDevice, a.XAdvDevice, a.YAdvDevice} {
		if len(d) == 0 {
			continue
		}
		if len(d) < 6 {
			return "device table shorter than its header"
		}
		startSize := int(binary.BigEndian.Uint16(d[0:]))
		endSize := int(binary.BigEndian.Uint16(d[2:]))
		deltaFormat := int(binary.BigEndian.Uint16(d[4:]))
		if endSize < startSize || deltaFormat < 1 || deltaFormat > 3 {
			return "corrupt device table header"
		}
		bitsPer := 1 << deltaFormat
		words := ((endSize-startSize+1)*bitsPer + 15) / 16
		if len(d) != 6+2*words {
			return fmt.Sprintf("device table size %d does not match its header (%d expected)",
				len(d), 6+2*words)
		}
	}
	return ""
}

// Pair is one entry of the input kerning mapping: when Left is followed by
// Right, the position of Left changes by Adjust.
type Pair struct {
	Left   ot.GlyphIndex
	Right  ot.GlyphIndex
	Adjust Adjustment
}

// buildPairMap validates the input pair list and normalizes it into a map.
// Exact duplicates collapse to one entry; contradictory duplicates and glyph
// IDs outside the font's glyph count are rejected with an InputError.
// Zero-valued adjustments are dropped: an absent pair means zero adjustment,
// so storing them would only cost bytes.
func buildPairMap(pairs []Pair, glyphCount int) (map[ot.GlyphPair]Adjustment, error) {
	m := make(map[ot.GlyphPair]Adjustment, len(pairs))
	for _, p := range pairs {
		if glyphCount > 0 {
			if int(p.Left) >= glyphCount {
				return nil, InputError{Left: p.Left, Right: p.Right,
					Issue: fmt.Sprintf("left glyph ID exceeds glyph count %d", glyphCount)}
			}
			if int(p.Right) >= glyphCount {
				return nil, InputError{Left: p.Left, Right: p.Right,
					Issue: fmt.Sprintf("right glyph ID exceeds glyph count %d", glyphCount)}
			}
		}
		if issue := checkDevices(p.Adjust); issue != "" {
			return nil, InputError{Left: p.Left, Right: p.Right, Issue: issue}
		}
		key := ot.GlyphPair{Left: p.Left, Right: p.Right}
		if prev, ok := m[key]; ok {
			if !prev.equal(p.Adjust) {
				return nil, InputError{Left: p.Left, Right: p.Right,
					Issue: "contradictory duplicate pair"}
			}
			continue
		}
		m[key] = p.Adjust
	}
	for key, adj := range m {
		if adj.IsZero() {
			delete(m, key)
		}
	}
	tracer().Debugf("kerning input: %d pairs, %d after normalization", len(pairs), len(m))
	return m, nil
}
