package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the closed set of XBDM parameter value types. A hex byte
// payload is not a distinct wire type; it travels as a STRING and is
// decoded by the handler that expects it.
type Kind int

const (
	Integer Kind = iota
	Dword
	Qword
	String
	QuotedString
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "INTEGER"
	case Dword:
		return "DWORD"
	case Qword:
		return "QWORD"
	case String:
		return "STRING"
	case QuotedString:
		return "QUOTED_STRING"
	default:
		return "UNKNOWN"
	}
}

// Value is a typed XBDM parameter value.
type Value struct {
	Kind Kind
	i    int64
	u64  uint64
	s    string
}

// NewInteger builds an INTEGER value.
func NewInteger(v int64) Value { return Value{Kind: Integer, i: v} }

// NewDword builds a DWORD value.
func NewDword(v uint32) Value { return Value{Kind: Dword, u64: uint64(v)} }

// NewQword builds a QWORD value.
func NewQword(v uint64) Value { return Value{Kind: Qword, u64: v} }

// NewString builds a bareword STRING value.
func NewString(s string) Value { return Value{Kind: String, s: s} }

// NewQuotedString builds a QUOTED_STRING value from its unquoted contents.
func NewQuotedString(s string) Value { return Value{Kind: QuotedString, s: s} }

// Int returns the value as an int64. Valid for Integer, Dword and Qword.
func (v Value) Int() int64 {
	switch v.Kind {
	case Integer:
		return v.i
	case Dword, Qword:
		return int64(v.u64)
	default:
		n, _ := strconv.ParseInt(strings.TrimSpace(v.s), 10, 64)
		return n
	}
}

// Uint64 returns the value as a uint64. Valid for Dword and Qword.
func (v Value) Uint64() uint64 {
	switch v.Kind {
	case Dword, Qword:
		return v.u64
	case Integer:
		return uint64(v.i)
	default:
		n, _ := strconv.ParseUint(strings.TrimSpace(v.s), 10, 64)
		return n
	}
}

// Uint32 returns the low 32 bits of the value.
func (v Value) Uint32() uint32 { return uint32(v.Uint64()) }

// String returns the textual content of a STRING or QUOTED_STRING value,
// or the decimal/hex rendering of numeric kinds.
func (v Value) String() string {
	switch v.Kind {
	case String, QuotedString:
		return v.s
	default:
		return v.Encode()
	}
}

// Encode renders the value in canonical wire form (the inverse of
// ParseValue).
func (v Value) Encode() string {
	switch v.Kind {
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Dword:
		return "0x" + formatHexStripped(v.u64, 8)
	case Qword:
		return "0q" + formatHexStripped(v.u64, 16)
	case QuotedString:
		return `"` + v.s + `"`
	default: // String
		return v.s
	}
}

// formatHexStripped renders n as uppercase hex with leading zeros
// stripped, except that an all-zero value renders as a single "0"
// (so DWORD 0 becomes "0x0" and QWORD 0 becomes "0q0"), never exceeding
// maxDigits hex digits.
func formatHexStripped(n uint64, maxDigits int) string {
	s := strings.ToUpper(strconv.FormatUint(n, 16))
	if len(s) > maxDigits {
		s = s[len(s)-maxDigits:]
	}
	return s
}

// ParseValue infers a parameter's type from its raw wire token and
// decodes it:
//
//	prefix "0x" -> DWORD (hex)
//	prefix "0q" -> QWORD (hex)
//	leading '"' -> QUOTED_STRING
//	all-digit/signed-decimal -> INTEGER
//	otherwise -> STRING
func ParseValue(tok string) (Value, error) {
	switch {
	case strings.HasPrefix(tok, "0x"):
		n, err := strconv.ParseUint(tok[2:], 16, 32)
		if err != nil {
			return Value{}, fmt.Errorf("xbdm: bad DWORD %q: %w", tok, err)
		}
		return NewDword(uint32(n)), nil
	case strings.HasPrefix(tok, "0q"):
		n, err := strconv.ParseUint(tok[2:], 16, 64)
		if err != nil {
			return Value{}, fmt.Errorf("xbdm: bad QWORD %q: %w", tok, err)
		}
		return NewQword(n), nil
	case strings.HasPrefix(tok, `"`):
		if len(tok) < 2 || tok[len(tok)-1] != '"' {
			return Value{}, ErrBadLine
		}
		return NewQuotedString(tok[1 : len(tok)-1]), nil
	case isDecimal(tok):
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("xbdm: bad INTEGER %q: %w", tok, err)
		}
		return NewInteger(n), nil
	default:
		return NewString(tok), nil
	}
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	start := 0
	if s[0] == '+' || s[0] == '-' {
		start = 1
	}
	if start == len(s) {
		return false
	}
	return isAllDigits(s[start:])
}
