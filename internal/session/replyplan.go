// Package session implements the per-connection XBDM state machine and
// command dispatcher: each accepted connection is driven through
// Command, ReceivingSingle and ReceivingMulti modes, with handlers
// returning reply plans that the session frames onto the wire.
package session

import "github.com/GoobyCorp/xbdm-go/protocol"

// Kind is the tagged-variant discriminant for a handler's reply plan.
type Kind int

const (
	// OK emits a single status line, optionally with parameters and
	// free-form text, and stays in Command mode (unless Close is set).
	OK Kind = iota
	// MultiLine emits a 202 header, one line per entry, then ".".
	MultiLine
	// Binary emits a 203 header (with optional parameters) followed by
	// a raw byte blob.
	Binary
	// StartReceiveSingle switches the session into ReceivingSingle mode
	// after emitting 204.
	StartReceiveSingle
	// StartReceiveMulti switches the session into ReceivingMulti-Header
	// mode after emitting 204 then 203 plus the placeholder table.
	StartReceiveMulti
)

// ReceiveKind distinguishes a plain SENDFILE transfer from an
// xbupdate!sysfileupd transfer, which additionally carries an expected
// CRC-32 to verify on completion.
type ReceiveKind int

const (
	ReceivePlain ReceiveKind = iota
	ReceiveXBUpdate
)

// Plan is the value a Handler returns describing how the session should
// frame its response.
type Plan struct {
	Kind Kind

	// OK
	Code   int
	Text   string
	Params []Param
	Close  bool // close the connection after emitting this reply

	// MultiLine
	Lines []string

	// Binary
	Blob []byte

	// StartReceiveSingle
	Path        string
	Length      int64
	ReceiveKind ReceiveKind
	ExpectedCRC uint32

	// StartReceiveMulti
	FileCount int
}

// Param is an ordered key/value pair attached to an OK or Binary plan's
// header line.
type Param struct {
	Key   string
	Value protocol.Value
}

// Ok builds a single-line OK-shaped reply plan.
func Ok(code int, text string, params ...Param) Plan {
	return Plan{Kind: OK, Code: code, Text: text, Params: params}
}

// OkClose builds an OK-shaped reply plan that closes the connection
// after being sent (e.g. BYE, magicboot).
func OkClose(code int, text string, params ...Param) Plan {
	return Plan{Kind: OK, Code: code, Text: text, Params: params, Close: true}
}

// Err is a convenience for single-line error replies (402, 405, 430,
// ...); it is just Ok under a clearer name at call sites.
func Err(code int, text string) Plan {
	return Plan{Kind: OK, Code: code, Text: text}
}

// MultiLineReply builds a 202 multi-line reply plan.
func MultiLineReply(lines []string) Plan {
	return Plan{Kind: MultiLine, Lines: lines}
}

// BinaryReply builds a 203 binary reply plan with optional header
// parameters.
func BinaryReply(blob []byte, params ...Param) Plan {
	return Plan{Kind: Binary, Blob: blob, Params: params}
}

// ReceiveSingle builds a plan that switches the session into
// ReceivingSingle mode for a plain SENDFILE transfer.
func ReceiveSingle(path string, length int64) Plan {
	return Plan{Kind: StartReceiveSingle, Path: path, Length: length, ReceiveKind: ReceivePlain}
}

// ReceiveSingleXBUpdate builds a plan that switches the session into
// ReceivingSingle mode for a CRC-tagged xbupdate!sysfileupd transfer.
func ReceiveSingleXBUpdate(path string, length int64, expectedCRC uint32) Plan {
	return Plan{Kind: StartReceiveSingle, Path: path, Length: length, ReceiveKind: ReceiveXBUpdate, ExpectedCRC: expectedCRC}
}

// ReceiveMulti builds a plan that switches the session into
// ReceivingMulti-Header mode for a SENDVFILE transfer of count files.
func ReceiveMulti(count int) Plan {
	return Plan{Kind: StartReceiveMulti, FileCount: count}
}
