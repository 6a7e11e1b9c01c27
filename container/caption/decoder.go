// Package caption decodes ARIB STD-B24 caption statements carried in MPEG-2
// PES payloads into plain text and a byte-annotated styled representation.
package caption

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/ausocean/aribvtt/container/caption/palette"
	"github.com/ausocean/aribvtt/container/caption/tables"
	"github.com/ausocean/aribvtt/container/mts/pes"
)

// JIS8 control byte constants, spec.md section 4.6.
const (
	bNUL  = 0x00
	bBEL  = 0x07
	bAPB  = 0x08
	bAPF  = 0x09
	bAPD  = 0x0A
	bAPU  = 0x0B
	bCS   = 0x0C
	bAPR  = 0x0D
	bLS1  = 0x0E
	bLS0  = 0x0F
	bPAPF = 0x16
	bCAN  = 0x18
	bSS2  = 0x19
	bESC  = 0x1B
	bAPS  = 0x1C
	bSS3  = 0x1D
	bRS   = 0x1E
	bUS   = 0x1F
	bSP   = 0x20
	bDEL  = 0x7F

	bBKF = 0x80
	bWHF = 0x87
	bSSZ = 0x88
	bMSZ = 0x89
	bNSZ = 0x8A
	bSZX = 0x8B
	bCOL = 0x90
	bFLC = 0x91
	bCDC = 0x92
	bPOL = 0x93
	bWMM = 0x94
	bMAC = 0x95
	bHLC = 0x97
	bRPC = 0x98
	bSPL = 0x99
	bSTL = 0x9A
	bCSI = 0x9B
	bTIM = 0x9D
)

// ESC second bytes, spec.md section 4.3.
const (
	escLS2  = 0x6E
	escLS3  = 0x6F
	escLS1R = 0x7E
	escLS2R = 0x7D
	escLS3R = 0x7C
)

// Decoder holds the mutable state of one caption statement decode, per
// spec.md section 3: graphic-set bindings, shift state, cursor/layout, the
// per-statement DRCS registry, and the accumulated output buffers. A Decoder
// is used exactly once, for one call to Generate — statements never share
// state (spec.md section 5).
type Decoder struct {
	g      [4]tables.Ref
	gl, gr int

	drcs   *drcsRegistry
	layout *LayoutState

	text   strings.Builder
	styled strings.Builder

	pts uint64
}

// NewDecoder returns a Decoder initialized to the default graphic-set
// bindings (spec.md section 3): G0=Kanji, G1=Alphanumeric, G2=Hiragana,
// G3=Macro, GL=0, GR=2.
func NewDecoder() *Decoder {
	d := &Decoder{
		drcs:   newDrcsRegistry(),
		layout: newLayoutState(),
	}
	d.g[0] = tables.Kanji
	d.g[1] = tables.Alphanumeric
	d.g[2] = tables.Hiragana
	d.g[3] = tables.Macro
	d.gl, d.gr = 0, 2
	return d
}

func (d *Decoder) palette(p, c int) color.RGBA {
	return palette.At(p, c)
}

// SetPalette overrides the palette index active before any COL control code
// is seen. Callers that know a broadcaster's default palette (e.g. via a
// config file) use this instead of relying on the spec.md default of 0.
func (d *Decoder) SetPalette(p int) {
	d.layout.Palette = p
	d.layout.FG = palette.At(p, 7)
}

// Text returns the plain-text transcript accumulated so far.
func (d *Decoder) Text() string { return d.text.String() }

// Styled returns the styled output: plain text interleaved with synthetic
// <c.0xNN></c> spans, one per raw byte consumed, per spec.md section 4.6.
func (d *Decoder) Styled() string { return d.styled.String() }

// PTS returns the presentation timestamp extracted from the most recently
// decoded PES packet.
func (d *Decoder) PTS() uint64 { return d.pts }

// EndTime returns the statement's clear-screen timestamp, if a CS control
// byte was seen with a nonzero TimeElapsed (spec.md section 4.6), and
// whether one was recorded.
func (d *Decoder) EndTime() (float64, bool) {
	if d.layout.EndTime == nil {
		return 0, false
	}
	return *d.layout.EndTime, true
}

// Generate decodes one caption PES packet, implementing spec.md section 4.1.
// It returns nil without appending any output when the data group is not a
// first-language caption statement — that is a deliberate filter, not an
// error.
func (d *Decoder) Generate(payload []byte) error {
	p, err := pes.ParsePacket(payload)
	if err != nil {
		return err
	}
	d.pts = p.PTS

	if len(payload) < pes.HeaderSize+3 {
		return &TruncatedError{Index: 0}
	}
	headerDataLength := int(payload[pes.HeaderSize+2])
	pktHeaderIdx := pes.HeaderSize + 3 + headerDataLength + 2
	if pktHeaderIdx >= len(payload) {
		return &TruncatedError{Index: pktHeaderIdx}
	}
	pesDataPacketHeaderLength := int(payload[pktHeaderIdx] & 0x0F)

	dataGroupBase := pes.HeaderSize + 3 + headerDataLength + 3 + pesDataPacketHeaderLength
	if dataGroupBase+5 > len(payload) {
		return &TruncatedError{Index: dataGroupBase}
	}
	dataGroupID := (payload[dataGroupBase] >> 2) & 0x3F
	dataGroupSize := int(payload[dataGroupBase+3])<<8 | int(payload[dataGroupBase+4])

	if dataGroupID&0x0F != 1 {
		return nil
	}

	unitsEnd := dataGroupBase + 5 + dataGroupSize
	if unitsEnd > len(payload) {
		return &TruncatedError{Index: unitsEnd}
	}

	dataUnit := dataGroupBase + 9
	for dataUnit < unitsEnd {
		if dataUnit+5 > unitsEnd {
			return &TruncatedError{Index: dataUnit}
		}
		parameter := payload[dataUnit+1]
		size := int(payload[dataUnit+2])<<16 | int(payload[dataUnit+3])<<8 | int(payload[dataUnit+4])
		begin := dataUnit + 5
		end := begin + size
		if end > unitsEnd {
			return &TruncatedError{Index: end}
		}

		switch parameter {
		case 0x20:
			if err := d.parseText(payload, begin, end); err != nil {
				return err
			}
		case 0x30:
			if err := d.ingestDRCS(1, payload, begin, end); err != nil {
				return err
			}
		case 0x31:
			if err := d.ingestDRCS(2, payload, begin, end); err != nil {
				return err
			}
		case 0x35:
			return unsupported(KindBitmap, "")
		default:
			return unsupported(KindDataUnit, fmt.Sprintf("%#02x", parameter))
		}

		dataUnit = end
	}
	return nil
}

// parseText implements spec.md section 4.6's control-byte state machine over
// payload[begin:end].
func (d *Decoder) parseText(payload []byte, begin, end int) error {
	for begin < end {
		start := begin
		b := payload[begin]

		var err error
		switch {
		case b > 0x20 && b < 0x7F:
			size := d.g[d.gl].Size()
			if begin+size > end {
				return &TruncatedError{Index: begin}
			}
			err = d.renderCharacter(payload[begin:begin+size], d.g[d.gl])
			begin += size
		case b > 0xA0 && b < 0xFF:
			size := d.g[d.gr].Size()
			if begin+size > end {
				return &TruncatedError{Index: begin}
			}
			err = d.renderCharacter(payload[begin:begin+size], d.g[d.gr])
			begin += size
		default:
			begin, err = d.dispatchControl(payload, begin, end)
		}
		if err != nil {
			return err
		}
		d.appendSpan(payload[start:begin])
	}
	return nil
}

func (d *Decoder) appendSpan(raw []byte) {
	for _, b := range raw {
		fmt.Fprintf(&d.styled, "<c.0x%02x></c>", b)
	}
}

// dispatchControl handles one control byte beginning at begin, returning the
// index just past what it consumed.
func (d *Decoder) dispatchControl(payload []byte, begin, end int) (int, error) {
	b := payload[begin]
	switch b {
	case bNUL, bBEL, bCAN, bRS, bUS, bDEL:
		return begin + 1, nil
	case bAPB:
		d.layout.moveRelativePos(-1, 0)
		return begin + 1, nil
	case bAPF:
		d.layout.moveRelativePos(1, 0)
		return begin + 1, nil
	case bAPD:
		d.layout.moveRelativePos(0, 1)
		return begin + 1, nil
	case bAPU:
		d.layout.moveRelativePos(0, -1)
		return begin + 1, nil
	case bCS:
		if d.layout.TimeElapsed != 0 {
			t := d.layout.TimeElapsed
			d.layout.EndTime = &t
		}
		return begin + 1, nil
	case bAPR:
		d.layout.moveNewline()
		return begin + 1, nil
	case bLS1:
		d.gl = 1
		return begin + 1, nil
	case bLS0:
		d.gl = 0
		return begin + 1, nil
	case bPAPF:
		if begin+1 >= end {
			return 0, &TruncatedError{Index: begin + 1}
		}
		p1 := int(payload[begin+1] & 0x3F)
		d.layout.moveRelativePos(p1, 0)
		return begin + 2, nil
	case bSS2:
		size := d.g[2].Size()
		if begin+1+size > end {
			return 0, &TruncatedError{Index: begin + 1}
		}
		if err := d.renderCharacter(payload[begin+1:begin+1+size], d.g[2]); err != nil {
			return 0, err
		}
		return begin + 1 + size, nil
	case bESC:
		return d.dispatchEsc(payload, begin, end)
	case bAPS:
		if begin+2 >= end {
			return 0, &TruncatedError{Index: begin + 2}
		}
		p1 := int(payload[begin+1] & 0x3F)
		p2 := int(payload[begin+2] & 0x3F)
		d.layout.moveAbsolutePos(p2, p1)
		return begin + 3, nil
	case bSS3:
		size := d.g[3].Size()
		if begin+1+size > end {
			return 0, &TruncatedError{Index: begin + 1}
		}
		if err := d.renderCharacter(payload[begin+1:begin+1+size], d.g[3]); err != nil {
			return 0, err
		}
		return begin + 1 + size, nil
	case bSP:
		if err := d.renderFullWidthSpace(); err != nil {
			return 0, err
		}
		return begin + 1, nil
	case bSZX:
		return 0, unsupported(KindSZX, "")
	case bCOL:
		return d.dispatchCOL(payload, begin, end)
	case bFLC:
		if begin+1 >= end {
			return 0, &TruncatedError{Index: begin + 1}
		}
		return begin + 2, nil
	case bCDC:
		return 0, unsupported(KindCDC, "")
	case bPOL:
		return 0, unsupported(KindPOL, "")
	case bWMM:
		return 0, unsupported(KindWMM, "")
	case bMAC:
		return 0, unsupported(KindMACRO, "")
	case bHLC:
		if begin+1 >= end {
			return 0, &TruncatedError{Index: begin + 1}
		}
		d.layout.HLC = int(payload[begin+1] & 0x0F)
		return begin + 2, nil
	case bRPC:
		return 0, unsupported(KindRPC, "")
	case bSPL:
		d.layout.STL = false
		return begin + 1, nil
	case bSTL:
		d.layout.STL = true
		return begin + 1, nil
	case bCSI:
		return d.parseCSI(payload, begin, end)
	case bTIM:
		if begin+2 >= end {
			return 0, &TruncatedError{Index: begin + 2}
		}
		if payload[begin+1] != 0x20 {
			return 0, unsupported(KindByte, "TIME sub-opcode")
		}
		d.layout.TimeElapsed += float64(payload[begin+2]&0x3F) / 10
		return begin + 3, nil
	}

	switch {
	case b >= bBKF && b <= bWHF:
		c := d.palette(d.layout.Palette, int(b-bBKF))
		d.layout.FG = c
		return begin + 1, nil
	case b == bSSZ:
		d.layout.TextSize = TextSizeSmall
		return begin + 1, nil
	case b == bMSZ:
		d.layout.TextSize = TextSizeMiddle
		return begin + 1, nil
	case b == bNSZ:
		d.layout.TextSize = TextSizeNormal
		return begin + 1, nil
	}
	return 0, unsupportedByte(b)
}

func (d *Decoder) dispatchCOL(payload []byte, begin, end int) (int, error) {
	if begin+1 >= end {
		return 0, &TruncatedError{Index: begin + 1}
	}
	p1 := payload[begin+1]
	if p1 == 0x20 {
		if begin+2 >= end {
			return 0, &TruncatedError{Index: begin + 2}
		}
		d.layout.Palette = int(payload[begin+2] & 0x0F)
		return begin + 3, nil
	}
	color := int(p1 & 0x0F)
	switch p1 & 0x70 {
	case 0x40:
		d.layout.FG = d.palette(d.layout.Palette, color)
	case 0x50:
		d.layout.BG = d.palette(d.layout.Palette, color)
	}
	return begin + 2, nil
}

// dispatchEsc implements spec.md section 4.3's graphic-set designation and
// locking-shift forms.
func (d *Decoder) dispatchEsc(payload []byte, begin, end int) (int, error) {
	if begin+1 >= end {
		return 0, &TruncatedError{Index: begin + 1}
	}
	switch payload[begin+1] {
	case escLS2:
		d.gl = 2
		return begin + 2, nil
	case escLS3:
		d.gl = 3
		return begin + 2, nil
	case escLS1R:
		d.gr = 1
		return begin + 2, nil
	case escLS2R:
		d.gr = 2
		return begin + 2, nil
	case escLS3R:
		d.gr = 3
		return begin + 2, nil
	}

	b1 := payload[begin+1]
	switch {
	case b1 >= 0x28 && b1 <= 0x2B:
		gx := int(b1 - 0x28)
		if begin+2 >= end {
			return 0, &TruncatedError{Index: begin + 2}
		}
		if payload[begin+2] == 0x20 {
			if begin+3 >= end {
				return 0, &TruncatedError{Index: begin + 3}
			}
			ref, err := d.resolveOther(payload[begin+3])
			if err != nil {
				return 0, err
			}
			d.g[gx] = ref
			return begin + 4, nil
		}
		ref, err := d.resolveText(payload[begin+2])
		if err != nil {
			return 0, err
		}
		d.g[gx] = ref
		return begin + 3, nil
	case b1 == 0x24:
		if begin+2 >= end {
			return 0, &TruncatedError{Index: begin + 2}
		}
		b2 := payload[begin+2]
		if b2 >= 0x28 && b2 <= 0x2B {
			gx := int(b2 - 0x28)
			if begin+3 >= end {
				return 0, &TruncatedError{Index: begin + 3}
			}
			if payload[begin+3] == 0x20 {
				if begin+4 >= end {
					return 0, &TruncatedError{Index: begin + 4}
				}
				ref, err := d.resolveOther(payload[begin+4])
				if err != nil {
					return 0, err
				}
				d.g[gx] = ref
				return begin + 5, nil
			}
			ref, err := d.resolveText(payload[begin+3])
			if err != nil {
				return 0, err
			}
			d.g[gx] = ref
			return begin + 4, nil
		}
		ref, err := d.resolveText(b2)
		if err != nil {
			return 0, err
		}
		d.g[0] = ref
		return begin + 3, nil
	}
	return 0, unsupported(KindEscForm, fmt.Sprintf("ESC %#02x", b1))
}

// resolveText maps a G_TEXT designation byte to its code table.
func (d *Decoder) resolveText(b byte) (tables.Ref, error) {
	switch b {
	case tables.SelKanji:
		return tables.Kanji, nil
	case tables.SelAlphanumeric:
		return tables.Alphanumeric, nil
	case tables.SelHiragana:
		return tables.Hiragana, nil
	case tables.SelKatakana:
		return tables.Katakana, nil
	default:
		return nil, unsupported(KindEscForm, fmt.Sprintf("text designator %#02x", b))
	}
}

// resolveOther maps a G_OTHER designation byte to either a DRCS slot or, for
// the Macro selector, the Macro table — spec.md section 4.3's "Macro handled
// via DRCS range".
func (d *Decoder) resolveOther(b byte) (tables.Ref, error) {
	if b == tables.SelMacro {
		return tables.Macro, nil
	}
	return d.drcs.slotByDesignator(b)
}

// renderCharacter implements spec.md section 4.4's three-variant lookup
// dispatch, replacing the source's runtime type check with a Go type switch
// over the bound Ref.
func (d *Decoder) renderCharacter(raw []byte, ref tables.Ref) error {
	if d.layout.Pos == nil {
		d.layout.moveAbsolutePos(0, 0)
	}

	key := 0
	for _, b := range raw {
		key = key<<8 | int(b)
	}
	key = tables.Mask(key, ref.Size())

	switch t := ref.(type) {
	case *tables.CodeTable:
		s, ok := t.Lookup(key)
		if !ok {
			return unsupported(KindByte, fmt.Sprintf("undefined code point %#x", key))
		}
		d.text.WriteString(s)
		d.styled.WriteString(s)
		d.layout.moveRelativePos(1, 0)
	case *tables.MacroTable:
		seq, ok := t.Lookup(key)
		if !ok {
			return unsupported(KindMACRO, fmt.Sprintf("undefined macro %#x", key))
		}
		for gx, sel := range seq {
			ref, err := d.resolveMacroSelector(sel)
			if err != nil {
				return err
			}
			d.g[gx] = ref
		}
		d.gl, d.gr = 0, 2
	case *Slot:
		g, ok := t.Lookup(key)
		if !ok {
			return unsupported(KindDrcsGeometry, fmt.Sprintf("undefined DRCS glyph %#x", key))
		}
		w, h := int(float64(d.layout.SSM.W)*d.layout.TextSize.W), int(float64(d.layout.SSM.H)*d.layout.TextSize.H)
		fmt.Fprintf(&d.styled, "<c.DRCS-%d-%d-%d-%x></c>", w, h, g.Depth, g.Bitmap)
		d.layout.moveRelativePos(1, 0)
	default:
		return unsupported(KindByte, "unknown graphic-set ref")
	}
	return nil
}

// resolveMacroSelector maps one byte of a macro's selector sequence to the
// Ref it designates — a text table, the Macro table itself, or a DRCS slot.
func (d *Decoder) resolveMacroSelector(sel byte) (tables.Ref, error) {
	switch sel {
	case tables.SelKanji, tables.SelAlphanumeric, tables.SelHiragana, tables.SelKatakana:
		return d.resolveText(sel)
	default:
		return d.resolveOther(sel)
	}
}

// renderFullWidthSpace implements spec.md section 4.4's SP handling: look up
// 0xA1A1 in the Kanji table, masked to 0x2121, regardless of the current
// GL/GR bindings.
func (d *Decoder) renderFullWidthSpace() error {
	if d.layout.Pos == nil {
		d.layout.moveAbsolutePos(0, 0)
	}
	s, ok := tables.Kanji.Lookup(0x2121)
	if !ok {
		return unsupported(KindByte, "full-width space")
	}
	d.text.WriteString(s)
	d.styled.WriteString(s)
	d.layout.moveRelativePos(1, 0)
	return nil
}
