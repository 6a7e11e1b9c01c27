// Package mts provides MPEG-TS demultiplexing for extracting caption PES
// packets: PAT/PMT scanning, subtitle elementary-stream discovery via the
// component-tag descriptor, PCR extraction, and PID-scoped PES reassembly.
package mts

import (
	"fmt"

	"github.com/Comcast/gots/v2/packet"
	gotspsi "github.com/Comcast/gots/v2/psi"
	"github.com/pkg/errors"

	"github.com/ausocean/aribvtt/container/mts/psi"
)

// PacketSize is the fixed size of one MPEG-TS packet.
const PacketSize = 188

// Standard program IDs for program specific information packets.
const PatPid = 0

// subtitleStreamType is the MPEG-2 stream_type value ARIB uses for private
// (ARIB caption) elementary streams carried over PES.
const subtitleStreamType = 0x06

// componentTagDescriptor is the PMT descriptor tag carrying a stream's
// component_tag, used to disambiguate multiple private streams within one
// program (ARIB STD-B10).
const componentTagDescriptor = 0x52

var (
	ErrInvalidLen  = errors.New("mts: packet data not a multiple of packet size")
	ErrNoPrograms  = errors.New("mts: no programs in PAT")
	ErrNoSubtitles = errors.New("mts: no subtitle elementary stream in PMT")
	ErrNoPayload   = errors.New("mts: no payload")
	ErrBadCRC      = errors.New("mts: PMT section failed CRC32 check")
)

// asPacket copies p into a gots packet.Packet, the fixed-size array type the
// rest of this package uses for PID/PUSI/payload extraction.
func asPacket(p []byte) (packet.Packet, error) {
	var pkt packet.Packet
	if len(p) < PacketSize {
		return pkt, ErrInvalidLen
	}
	copy(pkt[:], p[:PacketSize])
	return pkt, nil
}

// PID returns the packet identifier of one 188-byte MPEG-TS packet.
func PID(p []byte) (uint16, error) {
	pkt, err := asPacket(p)
	if err != nil {
		return 0, err
	}
	return pkt.PID(), nil
}

// PUSI reports a packet's payload_unit_start_indicator.
func PUSI(p []byte) bool {
	pkt, err := asPacket(p)
	if err != nil {
		return false
	}
	return pkt.PayloadUnitStartIndicator()
}

// Payload returns the payload of an MPEG-TS packet, after skipping any
// adaptation field.
func Payload(p []byte) ([]byte, error) {
	pkt, err := asPacket(p)
	if err != nil {
		return nil, err
	}
	payload, err := pkt.Payload()
	if err != nil {
		return nil, errors.Wrap(err, "cannot get packet payload")
	}
	return payload, nil
}

// PCR extracts the 33-bit program_clock_reference base from a packet's
// adaptation field, and whether one was present.
func PCR(p []byte) (uint64, bool) {
	if len(p) < PacketSize || p[3]&0x20 == 0 {
		return 0, false
	}
	afl := int(p[4])
	if afl < 1 || p[5]&0x10 == 0 {
		return 0, false
	}
	base := uint64(p[6])<<25 | uint64(p[7])<<17 | uint64(p[8])<<9 | uint64(p[9])<<1 | uint64(p[10]>>7)
	return base, true
}

// FindPid scans d, a sequence of packed MPEG-TS packets, for the first one
// carrying pid. It returns the packet and its byte offset.
func FindPid(d []byte, pid uint16) (pkt []byte, i int, err error) {
	if len(d) < PacketSize {
		return nil, -1, ErrInvalidLen
	}
	for i = 0; i+PacketSize <= len(d); i += PacketSize {
		got, err := PID(d[i : i+PacketSize])
		if err != nil {
			return nil, -1, err
		}
		if got == pid {
			return d[i : i+PacketSize], i, nil
		}
	}
	return nil, -1, fmt.Errorf("mts: no packet with PID %d", pid)
}

// Programs returns the program-number -> PMT-PID map of a PAT packet.
func Programs(patPkt []byte) (map[uint16]uint16, error) {
	pat, err := gotspsi.NewPAT(patPkt)
	if err != nil {
		return nil, err
	}
	m := make(map[uint16]uint16)
	for k, v := range pat.ProgramMap() {
		m[uint16(k)] = uint16(v)
	}
	return m, nil
}

// firstPmtPID returns an arbitrary PMT PID from a PAT program map, preferring
// the program matching sid when sid is non-negative.
func firstPmtPID(m map[uint16]uint16, sid int) (uint16, error) {
	if len(m) == 0 {
		return 0, ErrNoPrograms
	}
	if sid >= 0 {
		if pid, ok := m[uint16(sid)]; ok {
			return pid, nil
		}
	}
	for _, pid := range m {
		return pid, nil
	}
	return 0, ErrNoPrograms
}

// PmtInfo is what the demuxer needs out of a program map table: the PCR PID,
// the subtitle elementary stream's PID, discovered via its component-tag
// descriptor, and the first companion (non-subtitle) elementary stream,
// typically the program's video or audio track (spec.md's timing and
// transport collaborators).
type PmtInfo struct {
	PCRPID              uint16
	SubtitlePID         uint16
	ComponentTag        byte
	CompanionPID        uint16
	CompanionStreamType byte
}

// ParsePMT scans a PMT packet's payload for the PCR PID, the first
// elementary stream whose stream_type is a private (subtitle) stream and
// which carries a component-tag descriptor, and the first companion
// elementary stream — the same raw section walk to-text-vtt.py performs,
// since the gots PMT model doesn't expose per-descriptor component tags.
// It rejects a section whose CRC32 trailer doesn't match its contents.
func ParsePMT(pmtPkt []byte) (PmtInfo, error) {
	payload, err := Payload(pmtPkt)
	if err != nil {
		return PmtInfo{}, errors.Wrap(err, "cannot get PMT payload")
	}
	// Skip the pointer field if present (payload_unit_start_indicator packets
	// begin with one).
	if PUSI(pmtPkt) && len(payload) > 0 {
		payload = payload[1+int(payload[0]):]
	}
	if len(payload) < 12 {
		return PmtInfo{}, errors.New("mts: PMT payload too short")
	}

	sectionLength := int(payload[1]&0x0F)<<8 | int(payload[2])
	pcrPID := uint16(payload[8]&0x1F)<<8 | uint16(payload[9])
	programInfoLen := int(payload[10]&0x0F)<<8 | int(payload[11])

	sectionTotalLen := 3 + sectionLength // includes the trailing CRC32
	if sectionTotalLen > len(payload) {
		return PmtInfo{}, errors.New("mts: PMT section truncated")
	}
	if !psi.Verify(payload[:sectionTotalLen]) {
		return PmtInfo{}, ErrBadCRC
	}
	sectionEnd := sectionTotalLen - 4 // exclude trailing CRC32

	begin := 12 + programInfoLen
	info := PmtInfo{PCRPID: pcrPID}
	for begin+5 <= sectionEnd {
		streamType := payload[begin]
		elementaryPID := uint16(payload[begin+1]&0x1F)<<8 | uint16(payload[begin+2])
		esInfoLen := int(payload[begin+3]&0x0F)<<8 | int(payload[begin+4])

		if streamType != subtitleStreamType && info.CompanionPID == 0 {
			info.CompanionPID = elementaryPID
			info.CompanionStreamType = streamType
		}

		desc := begin + 5
		descEnd := desc + esInfoLen
		for desc+2 <= descEnd && desc+2 <= sectionEnd {
			tag := payload[desc]
			length := int(payload[desc+1])
			if tag == componentTagDescriptor && streamType == subtitleStreamType && desc+2 < sectionEnd {
				if info.SubtitlePID == 0 {
					info.SubtitlePID = elementaryPID
					info.ComponentTag = payload[desc+2]
				}
			}
			desc += 2 + length
		}
		begin += 5 + esInfoLen
	}

	if info.SubtitlePID == 0 {
		return info, ErrNoSubtitles
	}
	return info, nil
}

// FindSubtitleStream locates the PAT, the program's PMT, and the subtitle
// elementary stream's PMT info within a byte span of packed MPEG-TS packets.
// sid selects a specific program number; with -1, or a number the PAT does
// not list, an arbitrary program is taken (the PAT's order is not kept).
func FindSubtitleStream(d []byte, sid int) (PmtInfo, error) {
	patPkt, _, err := FindPid(d, PatPid)
	if err != nil {
		return PmtInfo{}, errors.Wrap(err, "could not find PAT")
	}
	progs, err := Programs(patPkt)
	if err != nil {
		return PmtInfo{}, errors.Wrap(err, "could not read PAT")
	}
	pmtPID, err := firstPmtPID(progs, sid)
	if err != nil {
		return PmtInfo{}, err
	}
	pmtPkt, _, err := FindPid(d, pmtPID)
	if err != nil {
		return PmtInfo{}, errors.Wrap(err, "could not find PMT")
	}
	return ParsePMT(pmtPkt)
}

// Demuxer reassembles PES packets for one PID out of a stream of MPEG-TS
// packets fed one at a time, following the boundary rule exp/mts-unwrapper
// uses: a payload whose packet has PUSI set starts a new PES packet, and
// every subsequent payload until the next PUSI is appended to it.
type Demuxer struct {
	pid     uint16
	current []byte
	pcr     uint64
	gotPCR  bool
	pcrPID  uint16
}

// NewDemuxer returns a Demuxer that reassembles PES packets for pid, and
// additionally tracks the first PCR value seen on pcrPID.
func NewDemuxer(pid, pcrPID uint16) *Demuxer {
	return &Demuxer{pid: pid, pcrPID: pcrPID}
}

// FirstPCR returns the first PCR value observed, and whether one has been.
func (d *Demuxer) FirstPCR() (uint64, bool) {
	return d.pcr, d.gotPCR
}

// Push feeds one 188-byte MPEG-TS packet to the demuxer. It returns a
// complete PES packet whenever one has just finished reassembling (i.e. a
// new PUSI packet for the tracked PID arrives after a prior payload was
// accumulated), and ok is true in that case.
func (d *Demuxer) Push(pkt []byte) (pes []byte, ok bool, err error) {
	pid, err := PID(pkt)
	if err != nil {
		return nil, false, err
	}

	if !d.gotPCR && pid == d.pcrPID {
		if v, present := PCR(pkt); present {
			d.pcr = v
			d.gotPCR = true
		}
	}

	if pid != d.pid {
		return nil, false, nil
	}

	payload, err := Payload(pkt)
	if err != nil {
		return nil, false, nil
	}

	if PUSI(pkt) {
		var out []byte
		if len(d.current) > 0 {
			out = d.current
			ok = true
		}
		d.current = append([]byte(nil), payload...)
		return out, ok, nil
	}

	d.current = append(d.current, payload...)
	return nil, false, nil
}

// Flush returns the last in-progress PES packet, if any.
func (d *Demuxer) Flush() ([]byte, bool) {
	if len(d.current) == 0 {
		return nil, false
	}
	out := d.current
	d.current = nil
	return out, true
}
