/*
Package otkern compacts pair-kerning data into OpenType GPOS Lookup Type 2
byte streams.

The pipeline is a pure, single-pass batch transform over an immutable input
pair set:

  - the subtable splitter partitions left glyphs into bins that respect the
    16-bit intra-table offset bound,
  - the class partitioner proposes left/right glyph classes that share
    identical adjustment values,
  - the format selector compares byte costs of glyph-pair (format 1) and
    class-matrix (format 2) encodings per subtable,
  - the layout assembler places coverage, class-definition and value-record
    structures into one contiguous byte stream with deduplicated
    substructures and resolved relative offsets.

Compaction is lossless: decoding the emitted bytes re-derives the input
mapping exactly, and [Compact] verifies this before returning.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otkern

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otcompact.kern'
func tracer() tracing.Trace {
	return tracing.Select("otcompact.kern")
}
