package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Message is either a command (non-empty verb) or a response (three-digit
// status code), carrying an ordered mapping from lowercase key to typed
// value and an ordered, deduplicated set of flag tokens.
type Message struct {
	verb       string
	isResponse bool
	code       int

	paramKeys []string
	paramVals map[string]Value

	flagOrder []string
	flagIndex map[string]int // lowercase flag -> index into flagOrder
}

// NewCommand constructs a command message for the given verb (e.g.
// "dirlist" or "xbupdate!sysfileupd").
func NewCommand(verb string) *Message {
	return &Message{
		verb:      verb,
		paramVals: make(map[string]Value),
		flagIndex: make(map[string]int),
	}
}

// NewResponse constructs a response message for the given three-digit
// status code.
func NewResponse(code int) *Message {
	return &Message{
		isResponse: true,
		code:       code,
		paramVals:  make(map[string]Value),
		flagIndex:  make(map[string]int),
	}
}

// IsResponse reports whether m carries a status code rather than a verb.
func (m *Message) IsResponse() bool { return m.isResponse }

// Verb returns the command verb, or "" for a response message.
func (m *Message) Verb() string { return m.verb }

// Code returns the status code, or 0 for a command message.
func (m *Message) Code() int { return m.code }

// SetParam sets (or replaces) a parameter. The key is canonicalized to
// lowercase on storage.
func (m *Message) SetParam(key string, v Value) {
	lk := strings.ToLower(key)
	if _, exists := m.paramVals[lk]; !exists {
		m.paramKeys = append(m.paramKeys, lk)
	}
	m.paramVals[lk] = v
}

// Param looks up a parameter by key (case-insensitive).
func (m *Message) Param(key string) (Value, bool) {
	v, ok := m.paramVals[strings.ToLower(key)]
	return v, ok
}

// MustParam returns the parameter value or a zero Value if absent.
func (m *Message) MustParam(key string) Value {
	v, _ := m.Param(key)
	return v
}

// Params returns the parameters in insertion order.
func (m *Message) Params() []struct {
	Key   string
	Value Value
} {
	out := make([]struct {
		Key   string
		Value Value
	}, 0, len(m.paramKeys))
	for _, k := range m.paramKeys {
		out = append(out, struct {
			Key   string
			Value Value
		}{k, m.paramVals[k]})
	}
	return out
}

// SetFlag adds a flag token if not already present (case-insensitively);
// the casing of the first insertion is retained.
func (m *Message) SetFlag(name string) {
	lf := strings.ToLower(name)
	if _, ok := m.flagIndex[lf]; ok {
		return
	}
	m.flagIndex[lf] = len(m.flagOrder)
	m.flagOrder = append(m.flagOrder, name)
}

// HasFlag reports whether the named flag is present (case-insensitive).
func (m *Message) HasFlag(name string) bool {
	_, ok := m.flagIndex[strings.ToLower(name)]
	return ok
}

// Flags returns the flags in insertion order, original casing preserved.
func (m *Message) Flags() []string {
	out := make([]string, len(m.flagOrder))
	copy(out, m.flagOrder)
	return out
}

// ParseMessage parses one terminator-stripped line into a Message.
func ParseMessage(line string) (*Message, error) {
	if len(line)+2 > MaxLineLength {
		return nil, ErrLineTooLong
	}
	toks, err := Tokenize(line)
	if err != nil {
		return nil, err
	}
	if len(toks) == 0 {
		return nil, ErrBadLine
	}

	head := toks[0]
	m := &Message{
		paramVals: make(map[string]Value),
		flagIndex: make(map[string]int),
	}
	if strings.HasSuffix(head, "-") && isAllDigits(head[:len(head)-1]) {
		code, err := strconv.Atoi(head[:len(head)-1])
		if err != nil {
			return nil, ErrBadLine
		}
		m.isResponse = true
		m.code = code
	} else {
		if head == "" {
			return nil, ErrBadLine
		}
		m.verb = head
	}

	for _, tok := range toks[1:] {
		if key, raw, ok := splitKeyValue(tok); ok {
			val, err := ParseValue(raw)
			if err != nil {
				return nil, err
			}
			m.SetParam(key, val)
			continue
		}
		m.SetFlag(tok)
	}
	return m, nil
}

// Encode renders m in canonical wire form, without the trailing "\r\n"
// (the Framer is responsible for line termination). Keys are emitted
// lowercase; verbs and flags retain their original casing.
func (m *Message) Encode() string {
	var b strings.Builder
	if m.isResponse {
		fmt.Fprintf(&b, "%03d-", m.code)
	} else {
		b.WriteString(m.verb)
	}
	for _, k := range m.paramKeys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m.paramVals[k].Encode())
	}
	for _, f := range m.flagOrder {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return b.String()
}

// EncodeWithText renders a response line with free-form trailing text
// inserted immediately after the status code, before any parameters,
// the shape used by single-line OK replies (e.g. "200- bye").
func (m *Message) EncodeWithText(text string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%03d-", m.code)
	if text != "" {
		b.WriteByte(' ')
		b.WriteString(text)
	}
	for _, k := range m.paramKeys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(m.paramVals[k].Encode())
	}
	for _, f := range m.flagOrder {
		b.WriteByte(' ')
		b.WriteString(f)
	}
	return b.String()
}
