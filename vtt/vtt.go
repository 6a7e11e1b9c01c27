// Package vtt assembles decoded ARIB caption statements into a WebVTT track.
//
// It is the cue-timing collaborator spec.md places out of scope for the
// caption decoder itself: converting a PES PTS into a cue offset relative to
// the stream's first PCR, and pairing each statement's start with either its
// own declared duration or the next statement's start.
package vtt

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// mpegClockRate is the 90kHz clock MPEG-2 PTS/PCR/DTS values are counted in.
const mpegClockRate = 90000

// ptsBits is the width of the PTS/PCR wraparound counter.
const ptsBits = 33

// Clock converts PES presentation timestamps into durations elapsed since a
// stream's first program_clock_reference, handling the 33-bit PCR/PTS
// wraparound the same way to-text-vtt.py's elapsed_seconds expression does.
type Clock struct {
	firstPCR uint64
	set      bool
}

// NewClock returns a Clock with no reference point set. The first call to
// SetReference (or the first Elapsed call, which self-initializes) fixes the
// epoch every subsequent Elapsed call is measured against.
func NewClock() *Clock { return &Clock{} }

// SetReference fixes pcr as the epoch for Elapsed. Calls after the first are
// ignored, mirroring to-text-vtt.py's "if not FIRST_PCR" guard.
func (c *Clock) SetReference(pcr uint64) {
	if c.set {
		return
	}
	c.firstPCR = pcr
	c.set = true
}

// HasReference reports whether a reference PCR has been set.
func (c *Clock) HasReference() bool { return c.set }

// Elapsed returns the duration of pts relative to the clock's reference PCR,
// accounting for 33-bit counter wraparound. If no reference has been set yet,
// pts itself becomes the reference and Elapsed returns zero.
func (c *Clock) Elapsed(pts uint64) time.Duration {
	if !c.set {
		c.SetReference(pts)
	}
	const mod = uint64(1) << ptsBits
	delta := ((mod + (pts - c.firstPCR)) % mod)
	seconds := float64(delta) / mpegClockRate
	return time.Duration(seconds * float64(time.Second))
}

// Cue is one WebVTT cue: a time span and its payload text.
type Cue struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// openEnd marks a Cue whose End has not yet been fixed by a following
// statement or an explicit duration.
const openEnd = -1 * time.Second

// Track accumulates cues in arrival order and renders them as a WebVTT file.
type Track struct {
	cues []Cue
}

// NewTrack returns an empty Track.
func NewTrack() *Track { return &Track{} }

// Add appends a cue starting at start. If dur is non-nil the cue's end time
// is start+*dur (the decoder's own end_time, §spec.md's TIME/CS pairing).
// Otherwise the cue is left open-ended: the next call to Add backfills its end
// time from that statement's start, as to-text-vtt.py's SUBTITLES[-1][1] is
// None back-patch does, and Close ends a cue still open at the end of the
// track.
func (tr *Track) Add(start time.Duration, text string, dur *time.Duration) {
	if len(tr.cues) > 0 && tr.cues[len(tr.cues)-1].End == openEnd {
		tr.cues[len(tr.cues)-1].End = start
	}
	end := openEnd
	if dur != nil {
		end = start + *dur
	}
	tr.cues = append(tr.cues, Cue{Start: start, End: end, Text: text})
}

// Close finalizes the track, giving any still-open final cue a duration of
// zero (there is no following statement to backfill it from). It returns the
// accumulated cues.
func (tr *Track) Close() []Cue {
	if n := len(tr.cues); n > 0 && tr.cues[n-1].End == openEnd {
		tr.cues[n-1].End = tr.cues[n-1].Start
	}
	return tr.cues
}

// timestamp formats d as WebVTT's H:MM:SS.mmm.
func timestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, ms)
}

// header is the WebVTT preamble mapping cue time 0 onto the MPEG-TS PTS
// origin, the same X-TIMESTAMP-MAP line to-text-vtt.py emits so players can
// align cues against the original transport stream's clock.
const header = "WEBVTT\nX-TIMESTAMP-MAP=MPEGTS:0,LOCAL:00:00:00.000\n\n"

// WriteTo renders the track's cues as a complete WebVTT document.
func (tr *Track) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString(header)
	for _, c := range tr.Close() {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", timestamp(c.Start), timestamp(c.End), c.Text)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Bytes renders the track as a complete WebVTT document.
func (tr *Track) Bytes() []byte {
	var b strings.Builder
	b.WriteString(header)
	for _, c := range tr.Close() {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", timestamp(c.Start), timestamp(c.End), c.Text)
	}
	return []byte(b.String())
}
