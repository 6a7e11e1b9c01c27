// Package tables provides the static ARIB STD-B24 code tables (Kanji,
// Alphanumeric, Hiragana, Katakana, Macro) that graphic-set slots G0..G3 are
// bound to. Every table here is immutable and safe for concurrent use across
// decoder instances, unlike the per-statement DRCS registry in the caption
// package.
package tables

// Kind names the kinds of result a table lookup in this package can produce
// (a string or a macro expansion; DRCS slots, which yield raw bitmap bytes,
// live in the caption package rather than here). No lookup returns a Kind:
// the caption decoder dispatches on the concrete type of the bound Ref.
type Kind int

const (
	KindText Kind = iota
	KindMacro
)

// Ref is a tagged handle onto something a graphic-set slot (G0..G3) can be
// bound to: a CodeTable, a MacroTable, or (in the caption package) a DRCS
// slot. Size is the number of bytes a code point occupies (1 or 2).
type Ref interface {
	Size() int
}

// CodeTable is an immutable 1- or 2-byte-indexed mapping from code point to
// the Unicode string it renders as.
type CodeTable struct {
	size  int
	glyph map[int]string
}

// NewCodeTable builds a CodeTable of the given code-point size from a glyph
// map keyed by the 7-bit-masked big-endian code point.
func NewCodeTable(size int, glyph map[int]string) *CodeTable {
	return &CodeTable{size: size, glyph: glyph}
}

// Size implements Ref.
func (t *CodeTable) Size() int { return t.size }

// Lookup returns the Unicode string for code, and whether it was defined.
func (t *CodeTable) Lookup(code int) (string, bool) {
	s, ok := t.glyph[code]
	return s, ok
}

// MacroTable is an immutable 1-byte-indexed mapping from code point to an
// ordered sequence of set selectors. Each selector is the raw byte that would
// have designated the corresponding code table or DRCS slot via ESC (e.g.
// 0x42 for Kanji, 0x70 for the Macro table); the caption package resolves these
// against its own graphic-set/DRCS bindings when a macro expands.
type MacroTable struct {
	entries map[int][]byte
}

// NewMacroTable builds a MacroTable from a map of code point to its ordered
// selector sequence for G0..G3.
func NewMacroTable(entries map[int][]byte) *MacroTable {
	return &MacroTable{entries: entries}
}

// Size implements Ref. Macro designation is always single-byte.
func (t *MacroTable) Size() int { return 1 }

// Lookup returns the selector sequence for code, and whether it was defined.
func (t *MacroTable) Lookup(code int) ([]byte, bool) {
	seq, ok := t.entries[code]
	return seq, ok
}

// Mask returns the 7-bit lookup key for a code point of the given byte size,
// matching spec.md section 4.4: the GR lookup key for byte b equals the GL
// lookup key for b&0x7F within the same table.
func Mask(raw, size int) int {
	switch size {
	case 1:
		return raw & 0x7F
	case 2:
		return raw & 0x7F7F
	default:
		return raw
	}
}
