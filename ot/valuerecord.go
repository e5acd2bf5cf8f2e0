package ot

// parseValueRecord reads a ValueRecord from binary data based on the ValueFormat bitmask.
// Returns the parsed ValueRecord and the number of bytes consumed.
// https://docs.microsoft.com/en-us/typography/opentype/spec/gpos#value-record
func parseValueRecord(b binarySegm, offset int, format ValueFormat) (ValueRecord, int) {
	vr := ValueRecord{}
	pos := offset

	if format&ValueFormatXPlacement != 0 {
		vr.XPlacement = int16(b.U16(pos))
		pos += 2
	}
	if format&ValueFormatYPlacement != 0 {
		vr.YPlacement = int16(b.U16(pos))
		pos += 2
	}
	if format&ValueFormatXAdvance != 0 {
		vr.XAdvance = int16(b.U16(pos))
		pos += 2
	}
	if format&ValueFormatYAdvance != 0 {
		vr.YAdvance = int16(b.U16(pos))
		pos += 2
	}
	if format&ValueFormatXPlaDevice != 0 {
		vr.XPlaDevice = b.U16(pos)
		pos += 2
	}
	if format&ValueFormatYPlaDevice != 0 {
		vr.YPlaDevice = b.U16(pos)
		pos += 2
	}
	if format&ValueFormatXAdvDevice != 0 {
		vr.XAdvDevice = b.U16(pos)
		pos += 2
	}
	if format&ValueFormatYAdvDevice != 0 {
		vr.YAdvDevice = b.U16(pos)
		pos += 2
	}

	return vr, pos - offset
}

// putValueRecord writes the fields of vr selected by format to b, starting at
// byte index offset. It is the exact inverse of parseValueRecord: fields not
// present in the mask are not written and will decode to zero.
// Returns the number of bytes written.
func putValueRecord(b []byte, offset int, format ValueFormat, vr ValueRecord) int {
	pos := offset

	if format&ValueFormatXPlacement != 0 {
		putS16(b, pos, vr.XPlacement)
		pos += 2
	}
	if format&ValueFormatYPlacement != 0 {
		putS16(b, pos, vr.YPlacement)
		pos += 2
	}
	if format&ValueFormatXAdvance != 0 {
		putS16(b, pos, vr.XAdvance)
		pos += 2
	}
	if format&ValueFormatYAdvance != 0 {
		putS16(b, pos, vr.YAdvance)
		pos += 2
	}
	if format&ValueFormatXPlaDevice != 0 {
		putU16(b, pos, vr.XPlaDevice)
		pos += 2
	}
	if format&ValueFormatYPlaDevice != 0 {
		putU16(b, pos, vr.YPlaDevice)
		pos += 2
	}
	if format&ValueFormatXAdvDevice != 0 {
		putU16(b, pos, vr.XAdvDevice)
		pos += 2
	}
	if format&ValueFormatYAdvDevice != 0 {
		putU16(b, pos, vr.YAdvDevice)
		pos += 2
	}

	return pos - offset
}

// valueRecordSize returns the size in bytes of a ValueRecord based on its format.
func valueRecordSize(format ValueFormat) int {
	size := 0
	if format&ValueFormatXPlacement != 0 {
		size += 2
	}
	if format&ValueFormatYPlacement != 0 {
		size += 2
	}
	if format&ValueFormatXAdvance != 0 {
		size += 2
	}
	if format&ValueFormatYAdvance != 0 {
		size += 2
	}
	if format&ValueFormatXPlaDevice != 0 {
		size += 2
	}
	if format&ValueFormatYPlaDevice != 0 {
		size += 2
	}
	if format&ValueFormatXAdvDevice != 0 {
		size += 2
	}
	if format&ValueFormatYAdvDevice != 0 {
		size += 2
	}
	return size
}

// ValueRecordSize returns the byte size of one value record under format.
func ValueRecordSize(format ValueFormat) int {
	return valueRecordSize(format)
}

// PutValueRecord writes the fields of vr selected by format to b at byte
// index offset and returns the number of bytes written.
func PutValueRecord(b []byte, offset int, format ValueFormat, vr ValueRecord) int {
	return putValueRecord(b, offset, format, vr)
}

// formatBits lists mask bits in field order, together with a probe for the
// corresponding record field.
var formatBits = []struct {
	bit     ValueFormat
	nonzero func(ValueRecord) bool
}{
	{ValueFormatXPlacement, func(vr ValueRecord) bool { return vr.XPlacement != 0 }},
	{ValueFormatYPlacement, func(vr ValueRecord) bool { return vr.YPlacement != 0 }},
	{ValueFormatXAdvance, func(vr ValueRecord) bool { return vr.XAdvance != 0 }},
	{ValueFormatYAdvance, func(vr ValueRecord) bool { return vr.YAdvance != 0 }},
	{ValueFormatXPlaDevice, func(vr ValueRecord) bool { return vr.XPlaDevice != 0 }},
	{ValueFormatYPlaDevice, func(vr ValueRecord) bool { return vr.YPlaDevice != 0 }},
	{ValueFormatXAdvDevice, func(vr ValueRecord) bool { return vr.XAdvDevice != 0 }},
	{ValueFormatYAdvDevice, func(vr ValueRecord) bool { return vr.YAdvDevice != 0 }},
}

// ValueFormatFor computes the minimal ValueFormat mask such that every
// record's nonzero fields are representable. A field enters the mask only if
// at least one record needs it, which is what makes per-subtable mask
// selection a size lever.
func ValueFormatFor(records []ValueRecord) ValueFormat {
	var format ValueFormat
	for _, vr := range records {
		for _, fb := range formatBits {
			if fb.nonzero(vr) {
				format |= fb.bit
			}
		}
	}
	return format
}
