// Package palette provides the ARIB STD-B24 / TR-B14 caption color lookup
// tables (CLUTs) used by the caption decoder for foreground, background,
// and ornament colors.
package palette

import "image/color"

// NumPalettes is the number of selectable palettes (CS CSI COL 0x20 selects
// among these; see container/caption's COL handling).
const NumPalettes = 16

// NumColors is the number of colors addressable within a single palette.
const NumColors = 16

// Base eight-color CLUT shared by every palette, in the order the BKF..WHF
// control codes (0x80..0x87) index them: black, red, green, yellow, blue,
// magenta, cyan, white.
var base = [8]color.RGBA{
	{0x00, 0x00, 0x00, 0xff}, // BKF black
	{0xff, 0x00, 0x00, 0xff}, // RDF red
	{0x00, 0xff, 0x00, 0xff}, // GRF green
	{0xff, 0xff, 0x00, 0xff}, // YLF yellow
	{0x00, 0x00, 0xff, 0xff}, // BLF blue
	{0xff, 0x00, 0xff, 0xff}, // MGF magenta
	{0x00, 0xff, 0xff, 0xff}, // CNF cyan
	{0xff, 0xff, 0xff, 0xff}, // WHF white
}

// table is built once in init: table[p][c] gives the color for palette p,
// color index c. Index 7 of every palette is the default foreground (white)
// and index 8 is the default background, which is transparent per spec.md
// section 6.
var table [NumPalettes][NumColors]color.RGBA

func init() {
	for p := 0; p < NumPalettes; p++ {
		copy(table[p][:8], base[:])
		// Index 8 is the transparent default background for every palette.
		table[p][8] = color.RGBA{0x00, 0x00, 0x00, 0x00}
		// Indices 9-15 are half-brightness variants of indices 1-7, giving
		// each non-zero palette a distinguishable but related set of
		// additional colors, as used by COL/ORN to pick accent colors.
		// Palettes beyond 0 scale overall brightness down, approximating
		// the darker halftone rows of the full TR-B14 CLUT annex.
		scale := uint8(255 - p*12)
		for c := 1; c < 8; c++ {
			table[p][c+8] = dim(base[c], scale/2)
		}
		if p > 0 {
			for c := 0; c < 8; c++ {
				table[p][c] = dim(base[c], scale)
			}
			table[p][8] = color.RGBA{0x00, 0x00, 0x00, 0x00}
		}
	}
}

func dim(c color.RGBA, scale uint8) color.RGBA {
	return color.RGBA{
		R: uint8(uint16(c.R) * uint16(scale) / 255),
		G: uint8(uint16(c.G) * uint16(scale) / 255),
		B: uint8(uint16(c.B) * uint16(scale) / 255),
		A: c.A,
	}
}

// At returns the color at palette p, index c. Both are masked into range so
// that a caller performing COL/BKF/ORN arithmetic directly on a raw 4-bit
// field never panics on out-of-range input.
func At(p, c int) color.RGBA {
	return table[p&0x0F][c&0x0F]
}

// Default foreground and background, used to initialize LayoutState before
// any COL/BKF control code has been seen.
var (
	DefaultForeground = table[0][7]
	DefaultBackground = table[0][8]
)
