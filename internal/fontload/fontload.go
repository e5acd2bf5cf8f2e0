package fontload

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/npillmayer/otcompact/ot"
	"github.com/npillmayer/otcompact/otkern"
	"golang.org/x/image/font/sfnt"
)

// ScalableFont is a parsed scalable font with original bytes and SFNT view.
type ScalableFont struct {
	Fontname string
	Binary   []byte
	SFNT     *sfnt.Font
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	return ParseOpenTypeFont(bytez)
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	f.SFNT, err = sfnt.Parse(f.Binary)
	if err != nil {
		return nil, err
	}
	f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull)
	return f, nil
}

// GlyphCount returns the number of glyphs in the font.
func (f *ScalableFont) GlyphCount() int {
	return f.SFNT.NumGlyphs()
}

// Table returns the raw bytes of a top-level SFNT table, located via the
// font's table directory, or nil if the font has no such table.
func (f *ScalableFont) Table(tag string) []byte {
	if len(f.Binary) < 12 || len(tag) != 4 {
		return nil
	}
	numTables := int(binary.BigEndian.Uint16(f.Binary[4:]))
	for i := 0; i < numTables; i++ {
		rec := 12 + i*16
		if rec+16 > len(f.Binary) {
			return nil
		}
		if string(f.Binary[rec:rec+4]) != tag {
			continue
		}
		offset := binary.BigEndian.Uint32(f.Binary[rec+8:])
		length := binary.BigEndian.Uint32(f.Binary[rec+12:])
		if int(offset)+int(length) > len(f.Binary) {
			return nil
		}
		return f.Binary[offset : offset+length]
	}
	return nil
}

// KernPairs extracts kerning pairs from the font's legacy 'kern' table.
// Only format-0 subtables with horizontal kerning are read; other subtable
// formats are skipped. The values become XAdvance adjustments, which is how
// a GPOS pair adjustment lookup expresses classic kerning.
func (f *ScalableFont) KernPairs() ([]otkern.Pair, error) {
	kern := f.Table("kern")
	if kern == nil {
		return nil, errors.New("font has no kern table")
	}
	if len(kern) < 4 {
		return nil, errors.New("corrupt kern table")
	}
	nTables := int(binary.BigEndian.Uint16(kern[2:]))
	var pairs []otkern.Pair
	pos := 4
	for t := 0; t < nTables; t++ {
		if pos+6 > len(kern) {
			return nil, fmt.Errorf("kern subtable #%d extends beyond table", t)
		}
		length := int(binary.BigEndian.Uint16(kern[pos+2:]))
		coverage := binary.BigEndian.Uint16(kern[pos+4:])
		format := coverage >> 8
		horizontal := coverage&0x0001 != 0
		if length < 6 || pos+length > len(kern) {
			return nil, fmt.Errorf("kern subtable #%d has illegal length %d", t, length)
		}
		if format == 0 && horizontal {
			sub := kern[pos+6 : pos+length]
			if len(sub) < 8 {
				return nil, fmt.Errorf("kern subtable #%d header truncated", t)
			}
			nPairs := int(binary.BigEndian.Uint16(sub))
			if 8+nPairs*6 > len(sub) {
				return nil, fmt.Errorf("kern subtable #%d pair array truncated", t)
			}
			for i := 0; i < nPairs; i++ {
				rec := sub[8+i*6:]
				pairs = append(pairs, otkern.Pair{
					Left:   ot.GlyphIndex(binary.BigEndian.Uint16(rec)),
					Right:  ot.GlyphIndex(binary.BigEndian.Uint16(rec[2:])),
					Adjust: otkern.Kern(int16(binary.BigEndian.Uint16(rec[4:]))),
				})
			}
		}
		pos += length
	}
	return pairs, nil
}
