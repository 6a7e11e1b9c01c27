package tables

// Kanji is the 2-byte ARIB STD-B24 Kanji code table (JIS X 0208 kuten
// addressing, big-endian ku/ten packed into one 16-bit key). The full table
// defines several thousand ideographs; this module implements only a subset
// of the row-1 symbol plane: the entries the decoder itself depends on (in
// particular 0x2121, the full-width space that SP renders via
// container/caption's 0xA1A1 lookup — see spec.md section 4.4), and a small
// set of common punctuation. See DESIGN.md for why the full kanji plane is
// out of scope here.
var Kanji = NewCodeTable(2, buildKanji())

func buildKanji() map[int]string {
	return map[int]string{
		0x2121: "　", // ideographic space (required: SP renders this)
		0x2122: "、",
		0x2123: "。",
		0x2124: "，",
		0x2125: "．",
		0x2126: "・",
		0x2127: "：",
		0x2128: "；",
		0x2129: "？",
		0x212A: "！",
		0x212B: "゛",
		0x212C: "゜",
		0x2146: "‘",
		0x2147: "’",
		0x2148: "“",
		0x2149: "”",
		0x214A: "（",
		0x214B: "）",
		0x2156: "「",
		0x2157: "」",
		0x215C: "＋",
		0x215D: "－",
		0x2161: "＝",
	}
}
