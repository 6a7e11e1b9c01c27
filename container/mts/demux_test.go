package mts

import (
	"testing"

	"github.com/ausocean/aribvtt/container/mts/psi"
)

// tsPacket builds one 188-byte MPEG-TS packet with the given PID, PUSI flag,
// optional PCR (in the adaptation field), and payload bytes.
func tsPacket(pid uint16, pusi bool, pcr uint64, hasPCR bool, payload []byte) []byte {
	p := make([]byte, PacketSize)
	p[0] = 0x47
	p[1] = byte(pid >> 8)
	if pusi {
		p[1] |= 0x40
	}
	p[2] = byte(pid)

	if hasPCR {
		p[3] = 0x20 // adaptation field only flag bit, payload flag added below
		afLen := 7  // flags byte + 6 PCR bytes
		p[4] = byte(afLen)
		p[5] = 0x10 // PCR_flag
		base := pcr
		p[6] = byte(base >> 25)
		p[7] = byte(base >> 17)
		p[8] = byte(base >> 9)
		p[9] = byte(base >> 1)
		p[10] = byte(base<<7) | 0x7E // low PCR bit + reserved
		p[11] = 0x00
		p[3] |= 0x10 // payload present too
		off := 4 + 1 + afLen
		copy(p[off:], payload)
		return p
	}

	p[3] = 0x10 // payload only, no adaptation field
	copy(p[4:], payload)
	return p
}

func TestPIDAndPUSI(t *testing.T) {
	p := tsPacket(0x101, true, 0, false, []byte{1, 2, 3})
	pid, err := PID(p)
	if err != nil {
		t.Fatalf("PID: %v", err)
	}
	if pid != 0x101 {
		t.Fatalf("PID = %#x, want 0x101", pid)
	}
	if !PUSI(p) {
		t.Fatalf("PUSI = false, want true")
	}
}

func TestPayloadWithoutAdaptationField(t *testing.T) {
	want := []byte{0xAA, 0xBB, 0xCC}
	p := tsPacket(0x200, false, 0, false, want)
	got, err := Payload(p)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	if len(got) < len(want) {
		t.Fatalf("Payload too short: %d", len(got))
	}
	for i, b := range want {
		if got[i] != b {
			t.Fatalf("Payload[%d] = %#x, want %#x", i, got[i], b)
		}
	}
}

func TestPCRExtraction(t *testing.T) {
	const want = uint64(123456789)
	p := tsPacket(0x300, true, want, true, []byte{0x00})
	got, ok := PCR(p)
	if !ok {
		t.Fatalf("PCR not present")
	}
	if got != want {
		t.Fatalf("PCR = %d, want %d", got, want)
	}
}

func TestFindPid(t *testing.T) {
	stream := append(tsPacket(0x10, false, 0, false, []byte{1}), tsPacket(0x20, false, 0, false, []byte{2})...)
	stream = append(stream, tsPacket(0x30, false, 0, false, []byte{3})...)

	pkt, i, err := FindPid(stream, 0x20)
	if err != nil {
		t.Fatalf("FindPid: %v", err)
	}
	if i != PacketSize {
		t.Fatalf("offset = %d, want %d", i, PacketSize)
	}
	got, err := Payload(pkt)
	if err != nil || len(got) == 0 || got[0] != 2 {
		t.Fatalf("Payload = %v, err %v", got, err)
	}
}

func TestFindPidNotFound(t *testing.T) {
	stream := tsPacket(0x10, false, 0, false, []byte{1})
	if _, _, err := FindPid(stream, 0x99); err == nil {
		t.Fatalf("expected error for missing PID")
	}
}

// buildPMTPayload assembles a minimal PMT section payload (no pointer field)
// with one elementary stream carrying a component-tag descriptor, following
// the raw byte layout ParsePMT expects.
func buildPMTPayload(pcrPID, esPID uint16, streamType, componentTag byte) []byte {
	// Elementary stream loop entry: stream_type(1), PID(2, top 3 bits
	// reserved), ES_info_length(2), descriptor tag(1) len(1) data(1).
	desc := []byte{componentTagDescriptor, 0x01, componentTag}
	es := []byte{
		streamType,
		byte(esPID>>8) | 0xE0, byte(esPID),
		byte(len(desc) >> 8), byte(len(desc)),
	}
	es = append(es, desc...)

	programInfoLen := 0
	sectionLength := 9 + programInfoLen + len(es) + 4 // + CRC32 placeholder
	payload := []byte{
		0x02,                                         // table_id
		0xB0 | byte(sectionLength>>8), byte(sectionLength), // section_syntax_indicator + length
		0x00, 0x01, // program_number
		0xC1, // version/current_next
		0x00, // section_number
		0x00, // last_section_number
		byte(pcrPID>>8) | 0xE0, byte(pcrPID),
		byte(programInfoLen >> 8), byte(programInfoLen),
	}
	payload = append(payload, es...)
	payload = append(payload, 0, 0, 0, 0) // CRC32 placeholder, filled in below
	psi.UpdateCrc(payload)
	return payload
}

func TestParsePMTFindsSubtitleStream(t *testing.T) {
	payload := buildPMTPayload(0x100, 0x201, subtitleStreamType, 0x30)
	pkt := tsPacket(0x1000, false, 0, false, payload)

	info, err := ParsePMT(pkt)
	if err != nil {
		t.Fatalf("ParsePMT: %v", err)
	}
	if info.PCRPID != 0x100 {
		t.Fatalf("PCRPID = %#x, want 0x100", info.PCRPID)
	}
	if info.SubtitlePID != 0x201 {
		t.Fatalf("SubtitlePID = %#x, want 0x201", info.SubtitlePID)
	}
	if info.ComponentTag != 0x30 {
		t.Fatalf("ComponentTag = %#x, want 0x30", info.ComponentTag)
	}
}

func TestParsePMTWithoutCompanionStream(t *testing.T) {
	payload := buildPMTPayload(0x100, 0x201, subtitleStreamType, 0x30)
	pkt := tsPacket(0x1000, false, 0, false, payload)

	info, err := ParsePMT(pkt)
	if err != nil {
		t.Fatalf("ParsePMT: %v", err)
	}
	// The only elementary stream in this fixture is the subtitle stream, so
	// there's no separate companion stream to find.
	if info.CompanionPID != 0 {
		t.Fatalf("CompanionPID = %#x, want 0 (no non-subtitle stream present)", info.CompanionPID)
	}
}

func TestParsePMTRejectsBadCRC(t *testing.T) {
	payload := buildPMTPayload(0x100, 0x201, subtitleStreamType, 0x30)
	payload[len(payload)-1] ^= 0xFF // corrupt the CRC32 trailer
	pkt := tsPacket(0x1000, false, 0, false, payload)

	if _, err := ParsePMT(pkt); err != ErrBadCRC {
		t.Fatalf("ParsePMT err = %v, want ErrBadCRC", err)
	}
}

func TestParsePMTNoSubtitleStream(t *testing.T) {
	// A video stream with no component-tag descriptor should not match.
	payload := buildPMTPayload(0x100, 0x201, 0x02, 0x30)
	// Overwrite the descriptor tag so it no longer looks like a
	// component-tag descriptor, then recompute the CRC32 trailer to match.
	payload[len(payload)-4-3] = 0x09
	psi.UpdateCrc(payload)
	pkt := tsPacket(0x1000, false, 0, false, payload)

	if _, err := ParsePMT(pkt); err != ErrNoSubtitles {
		t.Fatalf("ParsePMT err = %v, want ErrNoSubtitles", err)
	}
}

func TestDemuxerReassemblesAcrossPackets(t *testing.T) {
	const pid = 0x201
	first := []byte{0x00, 0x00, 0x01, 0xBD, 0x00, 0x00, 0x80, 0x00, 0x00, 1, 2, 3}
	second := []byte{4, 5, 6}

	d := NewDemuxer(pid, 0x100)

	_, ok, err := d.Push(tsPacket(pid, true, 0, false, first))
	if err != nil {
		t.Fatalf("Push 1: %v", err)
	}
	if ok {
		t.Fatalf("Push 1: unexpected complete PES")
	}

	_, ok, err = d.Push(tsPacket(pid, false, 0, false, second))
	if err != nil {
		t.Fatalf("Push 2: %v", err)
	}
	if ok {
		t.Fatalf("Push 2: unexpected complete PES")
	}

	// A third PUSI packet closes out the accumulated PES.
	pes, ok, err := d.Push(tsPacket(pid, true, 0, false, []byte{9}))
	if err != nil {
		t.Fatalf("Push 3: %v", err)
	}
	if !ok {
		t.Fatalf("Push 3: expected a completed PES")
	}
	// Payload() returns the full remaining packet buffer (188 bytes minus
	// the 4-byte TS header, since no adaptation field is present), not
	// just the meaningful prefix bytes copied into it: two packets'
	// worth of payload are accumulated before the flush.
	wantLen := 2 * (PacketSize - 4)
	if len(pes) != wantLen {
		t.Fatalf("completed PES length = %d, want %d", len(pes), wantLen)
	}
	if pes[3] != 0xBD {
		t.Fatalf("completed PES stream id = %#x, want 0xBD", pes[3])
	}

	last, ok := d.Flush()
	if !ok {
		t.Fatalf("Flush: expected pending PES")
	}
	if len(last) != PacketSize-4 {
		t.Fatalf("Flush length = %d, want %d", len(last), PacketSize-4)
	}
}

func TestDemuxerCapturesFirstPCR(t *testing.T) {
	const pcrPID = 0x100
	const want = uint64(9000)
	d := NewDemuxer(0x201, pcrPID)

	if _, _, err := d.Push(tsPacket(pcrPID, false, want, true, nil)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	got, ok := d.FirstPCR()
	if !ok {
		t.Fatalf("FirstPCR: not set")
	}
	if got != want {
		t.Fatalf("FirstPCR = %d, want %d", got, want)
	}
}
