package caption

import "image/color"

// Point is a cursor or display-area position in dots.
type Point struct{ X, Y int }

// Size is a width/height pair in dots.
type Size struct{ W, H int }

// TextSize is the character composition size multiplier: normal (1,1),
// middle (0.5,1), or small (0.5,0.5) — spec.md section 3.
type TextSize struct{ W, H float64 }

var (
	TextSizeNormal = TextSize{1, 1}
	TextSizeMiddle = TextSize{0.5, 1}
	TextSizeSmall  = TextSize{0.5, 0.5}
)

// LayoutState holds the display geometry, cursor, and styling state that
// persists across control codes within one statement (spec.md section 3).
type LayoutState struct {
	SWF, SDF Size
	SDP      Point
	SSM      Size
	SHS, SVS int
	TextSize TextSize

	Pos *Point

	Palette int
	FG, BG  color.RGBA
	Orn     *color.RGBA
	STL     bool
	HLC     int

	TimeElapsed float64
	EndTime     *float64
}

func newLayoutState() *LayoutState {
	return &LayoutState{
		SWF:      Size{960, 540},
		SDF:      Size{960, 540},
		SDP:      Point{0, 0},
		SSM:      Size{36, 36},
		SHS:      4,
		SVS:      24,
		TextSize: TextSizeNormal,
		Palette:  0,
		FG:       defaultForeground(),
		BG:       defaultBackground(),
	}
}

// kukaku returns the outer dimensions of one character cell, per spec.md
// section 3: ((shs+ssm.w)*text_size.w, (svs+ssm.h)*text_size.h).
func (l *LayoutState) kukaku() (w, h int) {
	w = int(float64(l.SHS+l.SSM.W) * l.TextSize.W)
	h = int(float64(l.SVS+l.SSM.H) * l.TextSize.H)
	return w, h
}

func (l *LayoutState) moveAbsoluteDot(x, y int) {
	l.Pos = &Point{X: x, Y: y}
}

// moveAbsolutePos implements spec.md section 4.5: pos = (sdp.x + col*w,
// sdp.y + (row+1)*h). Note the +1 row offset — the cursor sits on the
// baseline row below the addressed cell.
func (l *LayoutState) moveAbsolutePos(col, row int) {
	w, h := l.kukaku()
	l.Pos = &Point{X: l.SDP.X + col*w, Y: l.SDP.Y + (row+1)*h}
}

// moveRelativePos implements spec.md section 4.5's cell-at-a-time stepping,
// including horizontal wraparound onto the next/previous row. Vertical
// motion never wraps.
func (l *LayoutState) moveRelativePos(dx, dy int) {
	if l.Pos == nil {
		l.moveAbsolutePos(0, 0)
	}
	w, h := l.kukaku()
	x, y := l.Pos.X, l.Pos.Y
	for dx < 0 {
		dx++
		x -= w
		if x < l.SDP.X {
			x = l.SDP.X + l.SDF.W - w
			y -= h
		}
	}
	for dx > 0 {
		dx--
		x += w
		if x >= l.SDP.X+l.SDF.W {
			x = l.SDP.X
			y += h
		}
	}
	for dy < 0 {
		dy++
		y -= h
	}
	for dy > 0 {
		dy--
		y += h
	}
	l.Pos = &Point{X: x, Y: y}
}

// moveNewline implements spec.md section 4.5's APR handling.
func (l *LayoutState) moveNewline() {
	if l.Pos == nil {
		l.moveAbsolutePos(0, 0)
	}
	_, h := l.kukaku()
	l.Pos = &Point{X: l.SDP.X, Y: l.Pos.Y + h}
}
