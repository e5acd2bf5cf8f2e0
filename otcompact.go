/*
Package otcompact shrinks OpenType pair-kerning data.

It takes a flat list of kerning pairs and emits a GPOS Lookup Type 2 byte
stream, choosing per subtable between the glyph-pair and the class-matrix
wire format, whichever costs fewer bytes. The heavy lifting happens in
package otkern; this package is a convenience facade.

# Status

This module is a companion to package styled of the Typesetting Engine
Environment (TySE) and handles the kerning side of font preparation.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otcompact

import (
	"github.com/npillmayer/otcompact/otkern"
)

// CompactPairs compacts kerning pairs into a serialized GPOS pair adjustment
// lookup, using default options. The returned report tells how the emitted
// size compares to a naive single-subtable encoding.
func CompactPairs(pairs []otkern.Pair) ([]byte, otkern.Report, error) {
	result, err := otkern.Compact(pairs, otkern.Options{})
	if err != nil {
		return nil, otkern.Report{}, err
	}
	return result.Bytes, result.Report, nil
}

// CompactKerning is like CompactPairs for callers that know the font's glyph
// count and want glyph IDs validated against it.
func CompactKerning(pairs []otkern.Pair, glyphCount int) ([]byte, otkern.Report, error) {
	result, err := otkern.Compact(pairs, otkern.Options{GlyphCount: glyphCount})
	if err != nil {
		return nil, otkern.Report{}, err
	}
	return result.Bytes, result.Report, nil
}
