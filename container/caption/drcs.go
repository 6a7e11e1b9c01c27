package caption

import "fmt"

// Glyph is one ingested DRCS bitmap: raw bitmap bytes plus the geometric
// metadata the CSI/SSM state needs to size it when rendering (spec.md
// section 4.2). Depth is bits-per-pixel.
type Glyph struct {
	Width, Height, Depth int
	Bitmap               []byte
}

// Slot is a mutable DRCS registry slot: a code-point-keyed dictionary of
// Glyphs, all sharing one code-point size (1 or 2 bytes). A fresh Decoder
// starts with empty, unbound slots — DRCS registrations never persist across
// statements (spec.md section 5).
type Slot struct {
	size  int
	glyph map[int]Glyph
}

func newSlot(size int) *Slot {
	return &Slot{size: size, glyph: make(map[int]Glyph)}
}

// Size implements tables.Ref.
func (s *Slot) Size() int { return s.size }

// Lookup returns the Glyph registered at code, and whether one exists.
func (s *Slot) Lookup(code int) (Glyph, bool) {
	g, ok := s.glyph[code]
	return g, ok
}

// drcsRegistry holds the sixteen one-byte-indexed slots (0x40-0x4F) and the
// one two-byte slot (spec.md section 3). Per spec.md section 4.2, a 2-byte
// DRCS ingestion targets the same slot as 1-byte slot index 0 (key 0x40);
// this mirrors the source decoder's addressing exactly rather than giving
// the two-byte slot a disjoint key, since the spec's framing ("G_OTHER[0x40]")
// is explicit about the shared address. In practice a caption statement uses
// one DRCS size or the other, not both, so the slots never actually collide.
type drcsRegistry struct {
	slots map[int]*Slot
}

func newDrcsRegistry() *drcsRegistry {
	r := &drcsRegistry{slots: make(map[int]*Slot, 16)}
	for i := 0; i < 16; i++ {
		r.slots[0x40+i] = newSlot(1)
	}
	return r
}

func (r *drcsRegistry) oneByteSlot(index int) *Slot {
	return r.slots[0x40+index]
}

func (r *drcsRegistry) twoByteSlot() *Slot {
	return r.slots[0x40]
}

// slotByDesignator resolves the DRCS-slot byte that follows "ESC Gx 0x20"
// (spec.md section 4.3) to a Slot. Codes 0x40-0x4F select one-byte slots
// 0-15; 0x70 selects the shared two-byte slot.
func (r *drcsRegistry) slotByDesignator(b byte) (*Slot, error) {
	switch {
	case b >= 0x40 && b <= 0x4F:
		return r.slots[int(b)], nil
	case b == 0x70:
		return r.twoByteSlot(), nil
	default:
		return nil, unsupported(KindEscForm, fmt.Sprintf("DRCS designator %#02x", b))
	}
}

// bitsPerPixel implements spec.md section 9's resolution of the
// depth_bits_per_pixel ambiguity: ceil(log2(depth+2)), computed without
// floating point. The source's bit-length trick (len(bin(depth+2)) -
// len(bin(depth+2).rstrip('0'))) instead counts trailing zero bits of
// depth+2, which only agrees with ceil(log2(depth+2)) when depth+2 is a
// power of two; spec.md explicitly asks for the ceil(log2) formula and flags
// the source behavior as a bug, not a contract, so it is not replicated here.
func bitsPerPixel(depth int) int {
	n := depth + 2
	bits := 0
	for v := 1; v < n; v <<= 1 {
		bits++
	}
	return bits
}

// ingestDRCS implements spec.md section 4.2 over payload[begin:end], which
// must be one caption-text data unit's DRCS payload (parameter 0x30 or 0x31).
func (d *Decoder) ingestDRCS(size int, payload []byte, begin, end int) error {
	if begin >= len(payload) {
		return &TruncatedError{Index: begin}
	}
	numberOfCode := int(payload[begin])
	begin++
	for i := 0; i < numberOfCode; i++ {
		if begin+3 > end {
			return &TruncatedError{Index: begin}
		}
		characterCode := int(payload[begin])<<8 | int(payload[begin+1])
		numberOfFont := int(payload[begin+2])

		var slot *Slot
		var ch int
		switch size {
		case 1:
			slotIndex := (characterCode & 0x0F00) >> 8
			ch = (characterCode & 0x00FF) & 0x7F
			slot = d.drcs.oneByteSlot(slotIndex)
		case 2:
			ch = characterCode & 0x7F7F
			slot = d.drcs.twoByteSlot()
		default:
			return unsupported(KindDrcsGeometry, "DRCS size")
		}
		begin += 3

		for f := 0; f < numberOfFont; f++ {
			if begin >= end {
				return &TruncatedError{Index: begin}
			}
			mode := payload[begin] & 0x0F
			if mode != 0b0000 && mode != 0b0001 {
				return unsupported(KindDrcsGeometry, fmt.Sprintf("mode %#01x", mode))
			}
			if begin+4 > end {
				return &TruncatedError{Index: begin}
			}
			depth := int(payload[begin+1])
			width := int(payload[begin+2])
			height := int(payload[begin+3])
			bpp := bitsPerPixel(depth)
			length := (width * height * bpp) / 8
			if begin+4+length > end {
				return &TruncatedError{Index: begin + 4}
			}
			bitmap := make([]byte, length)
			copy(bitmap, payload[begin+4:begin+4+length])
			slot.glyph[ch] = Glyph{Width: width, Height: height, Depth: bpp, Bitmap: bitmap}
			begin += 4 + length
		}
	}
	return nil
}
