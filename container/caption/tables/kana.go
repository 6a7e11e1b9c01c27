package tables

// Hiragana is the 1-byte ARIB STD-B24 Hiragana code table. Codes 0x21-0x73
// map sequentially onto the Unicode Hiragana block starting at U+3041 (ぁ),
// matching the gojuon-with-small-kana ordering of both the JIS table and the
// Unicode block, so the mapping is a straight offset. The handful of trailing
// codes (ゔ and the two corner brackets) are carried as explicit entries
// since they fall outside that run.
var Hiragana = NewCodeTable(1, buildHiragana())

func buildHiragana() map[int]string {
	m := make(map[int]string, 0x73-0x21+1+3)
	for code := 0x21; code <= 0x73; code++ {
		m[code] = string(rune(0x3041 + (code - 0x21)))
	}
	m[0x74] = "ゔ" // ゔ
	m[0x75] = "「" // 「
	m[0x76] = "」" // 」
	return m
}

// Katakana is the 1-byte ARIB STD-B24 Katakana code table, built the same way
// as Hiragana but offset into the Unicode Katakana block starting at U+30A1
// (ァ).
var Katakana = NewCodeTable(1, buildKatakana())

func buildKatakana() map[int]string {
	m := make(map[int]string, 0x73-0x21+1+3)
	for code := 0x21; code <= 0x73; code++ {
		m[code] = string(rune(0x30A1 + (code - 0x21)))
	}
	m[0x74] = "ヴ" // ヴ
	m[0x75] = "「" // 「
	m[0x76] = "」" // 」
	return m
}
