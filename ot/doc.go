/*
Package ot provides the binary vocabulary for OpenType glyph-positioning
lookups of type 2 (pair adjustment): value records, coverage tables and
class-definition tables, together with their serialized forms.

Both directions are covered. The compaction engine (package otkern) uses the
serialization half to emit lookup bytes; the parsing half decodes emitted
lookups back into glyph-pair adjustments, which is what makes lossless
round-trip verification possible.

Package `ot` knows nothing about compaction strategy. It is a low-level
package: clients interpret coverage, class assignments and value matrices
themselves.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'otcompact.ot'
func tracer() tracing.Trace {
	return tracing.Select("otcompact.ot")
}
