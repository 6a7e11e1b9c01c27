package caption

import (
	"testing"

	"github.com/ausocean/aribvtt/container/caption/tables"
)

// buildPES assembles a minimal caption PES packet wrapping one text data
// unit carrying text, following the offsets in spec.md section 4.1: no
// PTS/DTS, no ARIB sub-header languages beyond the fixed 4-byte TMD/language
// prefix, and a single data unit of parameter 0x20.
func buildPES(t *testing.T, text []byte) []byte {
	t.Helper()
	buf := []byte{
		0x00, 0x00, 0x01, // start code
		0xE0,       // stream id
		0x00, 0x00, // PES packet length (unchecked by the decoder)
		0x80, // flags1
		0x00, // flags2: PDI=0, no PTS
		0x00, // PES header length = 0
		// synchronized PES data header: data_identifier, stream_id,
		// synchronized_PES_data_header_length (low nibble, here 0)
		0x80, 0x00, 0x00,
	}
	subHeader := []byte{0x00, 0x6A, 0x70, 0x6E} // TMD, ISO-639 lang (unused)
	unitHeader := []byte{
		0x1F, 0x20,
		byte(len(text) >> 16), byte(len(text) >> 8), byte(len(text)),
	}
	dataGroupSize := len(subHeader) + len(unitHeader) + len(text)
	dataGroup := []byte{
		0x04, // data_group_id=1, version=0
		0x00, // data_group_number
		0x00, // last_data_group_number
		byte(dataGroupSize >> 8), byte(dataGroupSize),
	}
	dataGroup = append(dataGroup, subHeader...)
	dataGroup = append(dataGroup, unitHeader...)
	dataGroup = append(dataGroup, text...)
	// CRC16 trailer, unused by the decoder.
	dataGroup = append(dataGroup, 0x00, 0x00)

	buf = append(buf, dataGroup...)
	return buf
}

func TestGenerateEmptyStatement(t *testing.T) {
	buf := buildPES(t, []byte{0x41})
	// Force a non-first-language data group id (id&0x0F == 2).
	buf[12] = 0x08 // (2<<2)|0
	d := NewDecoder()
	if err := d.Generate(buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := d.Text(); got != "" {
		t.Fatalf("Text() = %q, want empty", got)
	}
}

func TestGeneratePlainAlphanumeric(t *testing.T) {
	text := []byte{bLS1, 0x41, 0x42} // LS1 then "AB"
	buf := buildPES(t, text)
	d := NewDecoder()
	if err := d.Generate(buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := d.Text(), "AB"; got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
}

func TestGenerateHiraganaViaGR(t *testing.T) {
	text := []byte{0xA2, 0xA4} // あい via default GR=2 (Hiragana)
	buf := buildPES(t, text)
	d := NewDecoder()
	if err := d.Generate(buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got, want := d.Text(), "あい"; got != want {
		t.Fatalf("Text() = %q, want %q", got, want)
	}
}

func TestGenerateCursorAbsoluteAndNewline(t *testing.T) {
	text := []byte{bAPS, 0x02, 0x03, bAPR}
	buf := buildPES(t, text)
	d := NewDecoder()
	if err := d.Generate(buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.layout.Pos == nil {
		t.Fatalf("Pos not set")
	}
	w, h := d.layout.kukaku()
	// APS row 2, col 3 puts the cursor at (sdp.x+3w, sdp.y+3h); APR then
	// returns to the left edge of the display area one row down.
	wantX := d.layout.SDP.X
	wantY := d.layout.SDP.Y + (2+1)*h + h
	if d.layout.Pos.X != wantX || d.layout.Pos.Y != wantY {
		t.Fatalf("Pos = %+v, want (%d,%d) [cell %dx%d]", d.layout.Pos, wantX, wantY, w, h)
	}
}

func TestGeneratePaletteAndForeground(t *testing.T) {
	text := []byte{bCOL, 0x20, 0x03, bCOL, 0x42} // palette=3, fg=palette[3][2]
	buf := buildPES(t, text)
	d := NewDecoder()
	if err := d.Generate(buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.layout.Palette != 3 {
		t.Fatalf("Palette = %d, want 3", d.layout.Palette)
	}
	want := d.palette(3, 2)
	if d.layout.FG != want {
		t.Fatalf("FG = %+v, want %+v", d.layout.FG, want)
	}
}

func TestGenerateTimeAndClearScreen(t *testing.T) {
	text := []byte{bTIM, 0x20, 0x05, bCS}
	buf := buildPES(t, text)
	d := NewDecoder()
	if err := d.Generate(buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	end, ok := d.EndTime()
	if !ok {
		t.Fatalf("EndTime() not set")
	}
	if want := 0.5; end != want {
		t.Fatalf("EndTime() = %v, want %v", end, want)
	}
}

func TestGenerateSWFviaCSI(t *testing.T) {
	// CSI, digit '9' (P1=9), space, SWF opcode.
	text := []byte{bCSI, 0x39, 0x20, csiSWF}
	buf := buildPES(t, text)
	d := NewDecoder()
	if err := d.Generate(buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.layout.SWF != (Size{720, 480}) {
		t.Fatalf("SWF = %+v, want {720 480}", d.layout.SWF)
	}
}

func TestDRCSIngestionAndLookup(t *testing.T) {
	d := NewDecoder()
	// One 1-byte DRCS code, slot 0, ch 0x21, one font: mode=0, depth=0
	// (1 bit/pixel), width=8, height=1 -> 8 bits, packed into 1 byte.
	payload := []byte{
		0x01,       // NumberOfCode
		0x40, 0x21, // CharacterCode: slot 0, ch 0x21
		0x01,             // NumberOfFont
		0x00,             // fontId=0, mode=0
		0x00, 0x08, 0x01, // depth, width, height
		0x80, // 1 byte of bitmap data
	}
	if err := d.ingestDRCS(1, payload, 0, len(payload)); err != nil {
		t.Fatalf("ingestDRCS: %v", err)
	}
	slot := d.drcs.oneByteSlot(0)
	g, ok := slot.Lookup(0x21)
	if !ok {
		t.Fatalf("glyph not registered")
	}
	if g.Width != 8 || g.Height != 1 || g.Depth != 1 {
		t.Fatalf("glyph = %+v, want 8x1 depth 1", g)
	}
}

func TestMacroExpansionRebindsGraphicSets(t *testing.T) {
	d := NewDecoder()
	// Bind GL to the Macro table directly to exercise the macro-expansion
	// branch of renderCharacter; code 0x60 selects Kanji/Alnum/Hiragana/Macro.
	d.g[0] = tables.Macro
	d.gl, d.gr = 0, 3
	text := []byte{0x60}
	if err := d.parseText(text, 0, len(text)); err != nil {
		t.Fatalf("parseText: %v", err)
	}
	if d.gl != 0 || d.gr != 2 {
		t.Fatalf("GL/GR = %d/%d, want 0/2 after macro expansion", d.gl, d.gr)
	}
	if _, ok := d.g[0].(*tables.CodeTable); !ok {
		t.Fatalf("G0 not rebound to a CodeTable: %T", d.g[0])
	}
}
