package caption

import "fmt"

// CSI terminator bytes, spec.md section 4.7.
const (
	csiGSM  = 0x42
	csiSWF  = 0x53
	csiCCC  = 0x54
	csiSDF  = 0x56
	csiSSM  = 0x57
	csiSHS  = 0x58
	csiSVS  = 0x59
	csiPLD  = 0x5B
	csiPLU  = 0x5C
	csiGAA  = 0x5E
	csiSRC  = 0x5D
	csiSDP  = 0x5F
	csiACPS = 0x61
	csiTCC  = 0x62
	csiORN  = 0x44
	csiMDF  = 0x65
	csiCFS  = 0x6F
	csiXCS  = 0x66
	csiSCR  = 0x67
	csiPRA  = 0x68
	csiACS  = 0x69
	csiUED  = 0x6A
	csiRCS  = 0x6E
	csiSCS  = 0x6B
)

// parseCSI implements spec.md section 4.7. begin indexes the 0x9B byte
// itself; it returns the index one past the consumed sequence.
func (d *Decoder) parseCSI(payload []byte, begin, end int) (int, error) {
	last := begin + 1
	for {
		if last >= end {
			return 0, &TruncatedError{Index: last}
		}
		switch payload[last] {
		case csiGSM:
			return 0, unsupported(KindCsiOpcode, "GSM")
		case csiSWF:
			p1, err := d.scanCSIParam(payload, begin+1, end)
			if err != nil {
				return 0, err
			}
			switch p1 {
			case 5:
				d.layout.SWF = Size{1920, 1080}
			case 7:
				d.layout.SWF = Size{960, 540}
			case 9:
				d.layout.SWF = Size{720, 480}
			default:
				return 0, unsupported(KindSwfValue, fmt.Sprintf("%d", p1))
			}
			return last + 1, nil
		case csiCCC:
			return 0, unsupported(KindCsiOpcode, "CCC")
		case csiSDF:
			p1, p2, err := d.scanCSIParamPair(payload, begin+1, end)
			if err != nil {
				return 0, err
			}
			d.layout.SDF = Size{p1, p2}
			return last + 1, nil
		case csiSSM:
			p1, p2, err := d.scanCSIParamPair(payload, begin+1, end)
			if err != nil {
				return 0, err
			}
			d.layout.SSM = Size{p1, p2}
			return last + 1, nil
		case csiSHS:
			p1, err := d.scanCSIParam(payload, begin+1, end)
			if err != nil {
				return 0, err
			}
			d.layout.SHS = p1
			return last + 1, nil
		case csiSVS:
			p1, err := d.scanCSIParam(payload, begin+1, end)
			if err != nil {
				return 0, err
			}
			d.layout.SVS = p1
			return last + 1, nil
		case csiPLD:
			return 0, unsupported(KindCsiOpcode, "PLD")
		case csiPLU:
			return 0, unsupported(KindCsiOpcode, "PLU")
		case csiGAA:
			return 0, unsupported(KindCsiOpcode, "GAA")
		case csiSRC:
			return 0, unsupported(KindCsiOpcode, "SRC")
		case csiSDP:
			p1, p2, err := d.scanCSIParamPair(payload, begin+1, end)
			if err != nil {
				return 0, err
			}
			d.layout.SDP = Point{p1, p2}
			return last + 1, nil
		case csiACPS:
			p1, p2, err := d.scanCSIParamPair(payload, begin+1, end)
			if err != nil {
				return 0, err
			}
			d.layout.moveAbsoluteDot(p1, p2)
			return last + 1, nil
		case csiTCC:
			return 0, unsupported(KindCsiOpcode, "TCC")
		case csiORN:
			if begin+1 >= end {
				return 0, &TruncatedError{Index: begin + 1}
			}
			p1 := payload[begin+1]
			switch p1 {
			case 0x30:
				d.layout.Orn = nil
			case 0x31:
				if begin+6 >= end {
					return 0, &TruncatedError{Index: begin + 6}
				}
				p2 := int(payload[begin+3]&0x0F)*10 + int(payload[begin+4]&0x0F)
				p3 := int(payload[begin+5]&0x0F)*10 + int(payload[begin+6]&0x0F)
				c := d.palette(p2, p3)
				d.layout.Orn = &c
			default:
				return 0, unsupported(KindCsiOpcode, "ORN")
			}
			return last + 1, nil
		case csiMDF:
			return 0, unsupported(KindCsiOpcode, "MDF")
		case csiCFS:
			return 0, unsupported(KindCsiOpcode, "CFS")
		case csiXCS:
			return 0, unsupported(KindCsiOpcode, "XCS")
		case csiSCR:
			return 0, unsupported(KindCsiOpcode, "SCR")
		case csiPRA:
			return 0, unsupported(KindCsiOpcode, "PRA")
		case csiACS:
			return 0, unsupported(KindCsiOpcode, "ACS")
		case csiUED:
			return 0, unsupported(KindCsiOpcode, "UED")
		case csiRCS:
			return last + 1, nil
		case csiSCS:
			return 0, unsupported(KindCsiOpcode, "SCS")
		default:
			last++
		}
	}
}

// scanCSIParam reads one decimal parameter terminated by 0x20, per
// spec.md section 4.7.
func (d *Decoder) scanCSIParam(payload []byte, index, end int) (int, error) {
	p1 := 0
	for {
		if index >= end {
			return 0, &TruncatedError{Index: index}
		}
		if payload[index] == 0x20 {
			return p1, nil
		}
		p1 = p1*10 + int(payload[index]&0x0F)
		index++
	}
}

// scanCSIParamPair reads two decimal parameters separated by 0x3B and
// terminated by 0x20.
func (d *Decoder) scanCSIParamPair(payload []byte, index, end int) (int, int, error) {
	p1 := 0
	for {
		if index >= end {
			return 0, 0, &TruncatedError{Index: index}
		}
		if payload[index] == 0x3B {
			index++
			break
		}
		p1 = p1*10 + int(payload[index]&0x0F)
		index++
	}
	p2 := 0
	for {
		if index >= end {
			return 0, 0, &TruncatedError{Index: index}
		}
		if payload[index] == 0x20 {
			return p1, p2, nil
		}
		p2 = p2*10 + int(payload[index]&0x0F)
		index++
	}
}
