// Package pes provides decoding of PES packets.
package pes

import "errors"

// errTruncated is returned by ParsePacket when the supplied buffer ends
// before the fixed header or declared optional fields are fully present.
var errTruncated = errors.New("pes: truncated packet")

// HeaderSize is the fixed prefix of a PES packet before the optional header
// fields: the 3-byte start code, 1-byte stream ID, and 2-byte packet length
// (spec.md section 4.1 calls this H).
const HeaderSize = 6

/*
The below data struct encapsulates the fields of an PES packet. Below is
the formatting of a PES packet for reference!

												PES Packet Formatting
============================================================================
| octet no | bit 0 | bit 1 | bit 2 | bit 3 | bit 4 | bit 5 | bit 6 | bit 7 |
============================================================================
| octet 0  | 0x00                                                          |
----------------------------------------------------------------------------
| octet 1  | 0x00                                                          |
----------------------------------------------------------------------------
| octet 2  | 0x01                                                          |
----------------------------------------------------------------------------
| octet 3  | Stream ID (0xE0 for video)                                    |
----------------------------------------------------------------------------
| octet 4  | PES Packet Length (no of bytes in packet after this field)    |
----------------------------------------------------------------------------
| octet 5  | PES Length cont.                                              |
----------------------------------------------------------------------------
| octet 6  | 0x2           |  SC           | Prior | DAI   | Copyr | Copy  |
----------------------------------------------------------------------------
| octet 7  | PDI           | ESCRF | ESRF  | DSMTMF| ACIF  | CRCF  | EF    |
----------------------------------------------------------------------------
| octet 8  | PES Header Length                                             |
----------------------------------------------------------------------------
| optional | optional fields (determined by flags above) (variable Length) |
----------------------------------------------------------------------------
| -        | ...                                                           |
----------------------------------------------------------------------------
| Optional | Data (variable length)                                        |
----------------------------------------------------------------------------
| -        | ...                                                           |
----------------------------------------------------------------------------
*/

// TODO: add DSMTM, ACI, CRC, Ext fields
type Packet struct {
	StreamID     byte   // Type of stream
	Length       uint16 // Pes packet length in bytes after this field
	SC           byte   // Scrambling control
	Priority     bool   // Priority Indicator
	DAI          bool   // Data alginment indicator
	Copyright    bool   // Copyright indicator
	Original     bool   // Original data indicator
	PDI          byte   // PTS DTS indicator
	ESCRF        bool   // Elementary stream clock reference flag
	ESRF         bool   // Elementary stream rate reference flag
	DSMTMF       bool   // Dsm trick mode flag
	ACIF         bool   // Additional copy info flag
	CRCF         bool   // Not sure
	EF           bool   // Extension flag
	HeaderLength byte   // Pes header length
	PTS          uint64 // Presentation time stamp
	Data         []byte // Pes packet data
}

// ExtractPTS reconstructs a 33-bit PTS/DTS value from its standard 5-byte
// MPEG-2 PES encoding: marker bits interleaved between a 3-bit, 15-bit, and
// 15-bit chunk of the timestamp.
func ExtractPTS(d []byte) uint64 {
	pts := uint64(0)
	pts <<= 3
	pts |= uint64((d[0] & 0x0E) >> 1)
	pts <<= 8
	pts |= uint64(d[1])
	pts <<= 7
	pts |= uint64((d[2] & 0xFE) >> 1)
	pts <<= 8
	pts |= uint64(d[3])
	pts <<= 7
	pts |= uint64((d[4] & 0xFE) >> 1)
	return pts
}

// ParsePacket decodes the fixed PES header and, when present, the PTS field
// from a raw PES packet starting at its start code. It does not interpret
// the packet's Data payload — callers such as container/caption's Decoder
// index into the original buffer themselves, per spec.md section 4.1.
func ParsePacket(d []byte) (*Packet, error) {
	if len(d) < HeaderSize+3 {
		return nil, errTruncated
	}
	p := &Packet{
		StreamID: d[3],
		Length:   uint16(d[4])<<8 | uint16(d[5]),
	}
	flags1 := d[6]
	p.SC = (flags1 >> 4) & 0x03
	p.Priority = flags1&0x08 != 0
	p.DAI = flags1&0x04 != 0
	p.Copyright = flags1&0x02 != 0
	p.Original = flags1&0x01 != 0

	flags2 := d[7]
	p.PDI = flags2 >> 6
	p.ESCRF = flags2&0x20 != 0
	p.ESRF = flags2&0x10 != 0
	p.DSMTMF = flags2&0x08 != 0
	p.ACIF = flags2&0x04 != 0
	p.CRCF = flags2&0x02 != 0
	p.EF = flags2&0x01 != 0

	p.HeaderLength = d[8]
	optional := d[HeaderSize+3:]
	if len(optional) < int(p.HeaderLength) {
		return nil, errTruncated
	}

	if p.PDI == 2 || p.PDI == 3 {
		if len(optional) < 5 {
			return nil, errTruncated
		}
		p.PTS = ExtractPTS(optional[:5])
	}

	dataStart := HeaderSize + 3 + int(p.HeaderLength)
	if dataStart > len(d) {
		return nil, errTruncated
	}
	p.Data = d[dataStart:]
	return p, nil
}
