package caption

import "fmt"

// Kind enumerates the categories of syntactically-valid-but-unimplemented
// constructs the decoder recognizes but refuses to interpret, per spec.md
// section 7. A Kind value never indicates malformed input; Truncated (see
// TruncatedError) covers that.
type Kind int

const (
	KindBitmap Kind = iota
	KindDataUnit
	KindDrcsGeometry
	KindSZX
	KindCDC
	KindPOL
	KindWMM
	KindMACRO
	KindRPC
	KindCsiOpcode
	KindSwfValue
	KindEscForm
	KindByte
)

func (k Kind) String() string {
	switch k {
	case KindBitmap:
		return "bitmap data unit"
	case KindDataUnit:
		return "data unit"
	case KindDrcsGeometry:
		return "geometric DRCS"
	case KindSZX:
		return "SZX"
	case KindCDC:
		return "CDC"
	case KindPOL:
		return "POL"
	case KindWMM:
		return "WMM"
	case KindMACRO:
		return "MACRO control code"
	case KindRPC:
		return "RPC"
	case KindCsiOpcode:
		return "CSI opcode"
	case KindSwfValue:
		return "SWF value"
	case KindEscForm:
		return "ESC form"
	case KindByte:
		return "control byte"
	default:
		return "unknown"
	}
}

// UnsupportedError reports that the decoder recognized a syntactically valid
// construct it does not implement (spec.md section 7). It is fatal to the
// current statement.
type UnsupportedError struct {
	Kind Kind
	// Detail carries the offending byte or opcode value, for diagnostics.
	Detail string
}

func (e *UnsupportedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("arib: unsupported %s", e.Kind)
	}
	return fmt.Sprintf("arib: unsupported %s: %s", e.Kind, e.Detail)
}

func unsupported(k Kind, detail string) error {
	return &UnsupportedError{Kind: k, Detail: detail}
}

func unsupportedByte(b byte) error {
	return unsupported(KindByte, fmt.Sprintf("%#02x", b))
}

// TruncatedError reports that decoding indexed past the end of the supplied
// PES payload.
type TruncatedError struct {
	// Index is the offset the decoder attempted to read.
	Index int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("arib: truncated payload at offset %d", e.Index)
}
