package tables

// Alphanumeric is the 1-byte ARIB STD-B24 Alphanumeric code table. It is
// JIS-Roman: identical to ASCII across 0x21-0x7E except for two positions
// that carry Japanese-specific glyphs instead of their ASCII counterparts.
var Alphanumeric = NewCodeTable(1, buildAlphanumeric())

// jisRomanOverrides holds the two ASCII code points JIS-Roman replaces.
var jisRomanOverrides = map[int]string{
	0x5C: "¥", // yen sign, not backslash
	0x7E: "‾", // overline, not tilde
}

func buildAlphanumeric() map[int]string {
	m := make(map[int]string, 0x7E-0x21+1)
	for code := 0x21; code <= 0x7E; code++ {
		if s, ok := jisRomanOverrides[code]; ok {
			m[code] = s
			continue
		}
		m[code] = string(rune(code))
	}
	return m
}
