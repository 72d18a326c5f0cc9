package session

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/GoobyCorp/xbdm-go/internal/config"
	"github.com/GoobyCorp/xbdm-go/internal/logging"
	"github.com/GoobyCorp/xbdm-go/internal/sandbox"
	"github.com/GoobyCorp/xbdm-go/internal/stats"
	"github.com/GoobyCorp/xbdm-go/protocol"
)

// Mode is the session's current place in the state machine.
type Mode int

const (
	Command Mode = iota
	ReceivingSingle
	ReceivingMultiHeader
	ReceivingMultiBody
)

func (m Mode) String() string {
	switch m {
	case Command:
		return "command"
	case ReceivingSingle:
		return "receiving-single"
	case ReceivingMultiHeader:
		return "receiving-multi-header"
	case ReceivingMultiBody:
		return "receiving-multi-body"
	default:
		return "unknown"
	}
}

// handshakeArtefact is the byte sequence a connecting debugger toolchain
// occasionally sends that must be echoed verbatim with no state change.
var handshakeArtefact = []byte{0x02, 0x04, 0x05, 0xB4, 0x01, 0x03, 0x03, 0x08, 0x01, 0x01, 0x04, 0x02}

// sink is the active file being written to during a Receiving* mode.
type sink struct {
	w           io.WriteCloser
	path        string
	remaining   int64
	receiveKind ReceiveKind
	expectedCRC uint32
	crc         protocol.CRC32
}

// Session owns one accepted connection's framer and state, and drives it
// through the XBDM state machine until the connection closes. Sessions
// are independent of each other; all I/O within one session is serial.
type Session struct {
	conn     net.Conn
	framer   *protocol.Framer
	registry *Registry
	fs       sandbox.Resolver
	cfg      config.Provider
	log      logging.Logger
	stats    *stats.Hub

	mode Mode
	cur  *sink

	// ReceivingMulti state
	filesRemaining int
	totalFiles     int
}

// New constructs a Session for an accepted connection. registry supplies
// the verb-to-handler mapping; fs and cfg are the injected sandbox and
// configuration collaborators the handlers consult.
func New(conn net.Conn, registry *Registry, fs sandbox.Resolver, cfg config.Provider, log logging.Logger) *Session {
	if log == nil {
		log = logging.Default()
	}
	return &Session{
		conn:     conn,
		framer:   protocol.NewFramer(conn),
		registry: registry,
		fs:       fs,
		cfg:      cfg,
		log:      log,
		mode:     Command,
	}
}

// SetStats attaches an optional counters hub; updates to it are
// best-effort and never affect protocol behavior.
func (s *Session) SetStats(h *stats.Hub) { s.stats = h }

// Conn returns the underlying network connection, for handlers that need
// the remote address. None of the DefaultRegistry handlers use it.
func (s *Session) Conn() net.Conn { return s.conn }

// Filesystem returns the sandbox resolver handlers use to satisfy
// dirlist, getfile, sendfile and friends.
func (s *Session) Filesystem() sandbox.Resolver { return s.fs }

// Config returns the configuration provider handlers consult for
// systeminfo, drivelist, and similar read-only state.
func (s *Session) Config() config.Provider { return s.cfg }

// Serve drives the session to completion: it sends the connect greeting,
// then loops reading commands and routing binary transfers until the
// peer disconnects or a handler closes the connection.
func (s *Session) Serve() {
	defer s.conn.Close()
	defer s.closeSink()

	if err := s.framer.WriteLine(fmt.Sprintf("%d- connected", protocol.CodeConnected)); err != nil {
		return
	}

	for {
		var err error
		switch s.mode {
		case Command:
			err = s.stepCommand()
		case ReceivingSingle:
			err = s.stepReceiveSingle()
		case ReceivingMultiHeader:
			err = s.stepReceiveMultiHeader()
		case ReceivingMultiBody:
			err = s.stepReceiveMultiBody()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Debug("session ended", logging.Field{Key: "error", Value: err})
			}
			return
		}
	}
}

// stepCommand handles one iteration of the Command state: detect and
// echo the handshake artefact, or read, parse and dispatch one command
// line.
func (s *Session) stepCommand() error {
	first, err := s.framer.Peek(1)
	if err != nil {
		return err
	}
	if first[0] == handshakeArtefact[0] {
		if matched, err := s.tryConsumeArtefact(); err != nil {
			return err
		} else if matched {
			return nil
		}
	}

	line, err := s.framer.ReadLine()
	if err != nil {
		if errors.Is(err, protocol.ErrLineTooLong) {
			return s.emit(Err(protocol.CodeGenericError, "line too long"))
		}
		return err
	}

	msg, err := protocol.ParseMessage(line)
	if err != nil {
		return s.emit(Err(protocol.CodeGenericError, "bad command line"))
	}

	if s.stats != nil {
		s.stats.CommandDispatched()
	}
	plan := s.registry.Dispatch(s, msg)
	return s.apply(plan)
}

// tryConsumeArtefact consumes the already-peeked first byte and checks
// whether the following bytes complete the handshake artefact. It never
// blocks on more than one byte at a time, so a short line beginning
// with 0x02 cannot deadlock the session waiting for bytes that will
// never arrive.
func (s *Session) tryConsumeArtefact() (bool, error) {
	consumed := make([]byte, 0, len(handshakeArtefact))
	for i := 0; i < len(handshakeArtefact); i++ {
		b, err := s.framer.ReadByte()
		if err != nil {
			return false, err
		}
		consumed = append(consumed, b)
		if b != handshakeArtefact[i] {
			// Not the artefact after all. We cannot unread more than one
			// byte, so treat the consumed prefix plus a re-read of the
			// remaining line as a malformed command.
			return false, s.recoverFromPartialArtefact(consumed)
		}
	}
	return true, s.framer.WriteBinary(handshakeArtefact)
}

// recoverFromPartialArtefact handles the (unexpected) case where a line
// begins with the artefact's first byte but diverges partway through.
// There is no valid XBDM command starting with 0x02, so this always
// reports a protocol error.
func (s *Session) recoverFromPartialArtefact(consumed []byte) error {
	if consumed[len(consumed)-1] != '\n' {
		if _, err := s.framer.ReadLine(); err != nil && !errors.Is(err, protocol.ErrLineTooLong) {
			return err
		}
	}
	return s.emit(Err(protocol.CodeGenericError, "bad command line"))
}

// apply executes a handler's reply plan against the framer and updates
// session mode accordingly.
func (s *Session) apply(p Plan) error {
	switch p.Kind {
	case OK:
		if err := s.emit(p); err != nil {
			return err
		}
		if p.Close {
			return io.EOF
		}
		return nil

	case MultiLine:
		if err := s.framer.WriteLine(fmt.Sprintf("%d- multiline response follows", protocol.CodeMultiLine)); err != nil {
			return err
		}
		for _, line := range p.Lines {
			if err := s.framer.WriteLine(line); err != nil {
				return err
			}
		}
		return s.framer.WriteLine(".")

	case Binary:
		if err := s.framer.WriteLine(encodeHeader(protocol.CodeBinary, "binary response follows", p.Params)); err != nil {
			return err
		}
		return s.framer.WriteBinary(p.Blob)

	case StartReceiveSingle:
		// The sink must be open before 204 goes out: once the client sees
		// 204 it starts sending raw bytes. An unopenable path is reported
		// as 430 and the session stays in Command mode.
		w, err := s.fs.OpenWrite(p.Path)
		if err != nil {
			return s.emit(Err(protocol.CodePathNotFound, "path not found"))
		}
		if err := s.framer.WriteLine(fmt.Sprintf("%d- send binary data", protocol.CodeSendBinary)); err != nil {
			w.Close()
			return err
		}
		s.cur = &sink{w: w, path: p.Path, remaining: p.Length, receiveKind: p.ReceiveKind, expectedCRC: p.ExpectedCRC}
		if p.ReceiveKind == ReceiveXBUpdate {
			s.cur.crc = *protocol.NewCRC32()
		}
		s.mode = ReceivingSingle
		return nil

	case StartReceiveMulti:
		if err := s.framer.WriteLine(fmt.Sprintf("%d- send binary data", protocol.CodeSendBinary)); err != nil {
			return err
		}
		if err := s.framer.WriteLine(fmt.Sprintf("%d- binary response follows", protocol.CodeBinary)); err != nil {
			return err
		}
		if err := s.framer.WriteBinary(make([]byte, 4*p.FileCount)); err != nil {
			return err
		}
		s.totalFiles = p.FileCount
		s.filesRemaining = p.FileCount
		s.mode = ReceivingMultiHeader
		return nil
	}
	return fmt.Errorf("xbdm: unhandled plan kind %d", p.Kind)
}

// emit writes a single NNN- status line, including any parameters and
// free-form text.
func (s *Session) emit(p Plan) error {
	return s.framer.WriteLine(encodeHeader(p.Code, p.Text, p.Params))
}

func encodeHeader(code int, text string, params []Param) string {
	line := fmt.Sprintf("%d-", code)
	for _, p := range params {
		line += fmt.Sprintf(" %s=%s", p.Key, p.Value.Encode())
	}
	if text != "" {
		line += " " + text
	}
	return line
}

// stepReceiveSingle routes a plain or xbupdate single-file transfer's
// body into the open sink, then emits the terminator reply and returns
// the session to Command mode.
func (s *Session) stepReceiveSingle() error {
	cur := s.cur
	chunk, err := s.framer.ReadExact(int(cur.remaining))
	if err != nil {
		cur.w.Close()
		return err
	}
	if cur.receiveKind == ReceiveXBUpdate {
		cur.crc.Write(chunk)
	}
	if _, err := cur.w.Write(chunk); err != nil {
		cur.w.Close()
		return err
	}
	cur.remaining = 0
	if err := cur.w.Close(); err != nil {
		return err
	}
	s.cur = nil
	s.mode = Command

	if cur.receiveKind == ReceiveXBUpdate {
		if cur.crc.Sum32() != cur.expectedCRC {
			_ = s.fs.Remove(cur.path)
			return s.emit(Err(protocol.CodeGenericError, "crc mismatch"))
		}
		return s.emit(Ok(protocol.CodeOK, "OK"))
	}

	if err := s.framer.WriteLine(fmt.Sprintf("%d- binary response follows", protocol.CodeBinary)); err != nil {
		return err
	}
	return s.framer.WriteBinary(make([]byte, 4))
}

// multiHeaderFixedSize is the byte length of the six big-endian 32-bit
// timestamp/size halves plus the 32-bit attributes field that precede
// the NUL-terminated path in a SENDVFILE per-file header.
const multiHeaderFixedSize = 28

// stepReceiveMultiHeader reads one per-file header block of a SENDVFILE
// transfer: a 4-byte length prefix, the fixed timestamp/attrs fields,
// and a NUL-terminated virtual path, then opens the sink for that file's
// body.
func (s *Session) stepReceiveMultiHeader() error {
	lenBytes, err := s.framer.ReadExact(4)
	if err != nil {
		return err
	}
	headerSize := beUint32(lenBytes)
	if headerSize < 4+multiHeaderFixedSize+1 {
		return errors.New("xbdm: sendvfile header too short")
	}
	rest, err := s.framer.ReadExact(int(headerSize - 4))
	if err != nil {
		return err
	}

	sizeHi := beUint32(rest[16:20])
	sizeLo := beUint32(rest[20:24])
	fileSize := int64(uint64(sizeHi)<<32 | uint64(sizeLo))

	pathBytes := rest[multiHeaderFixedSize:]
	if nul := indexByte(pathBytes, 0); nul >= 0 {
		pathBytes = pathBytes[:nul]
	}

	w, err := s.fs.OpenWrite(string(pathBytes))
	if err != nil {
		return err
	}
	s.cur = &sink{w: w, remaining: fileSize}
	s.mode = ReceivingMultiBody
	return nil
}

// stepReceiveMultiBody reads exactly the current file's remaining bytes
// in one shot. Because Framer.ReadExact is built on io.ReadFull over a
// buffered reader, any bytes belonging to the next file's header that
// arrive in the same TCP segment are left buffered rather than consumed
// here, so a body/header split across one read needs no re-delivery
// handling.
func (s *Session) stepReceiveMultiBody() error {
	cur := s.cur
	chunk, err := s.framer.ReadExact(int(cur.remaining))
	if err != nil {
		cur.w.Close()
		return err
	}
	if _, err := cur.w.Write(chunk); err != nil {
		cur.w.Close()
		return err
	}
	if err := cur.w.Close(); err != nil {
		return err
	}
	s.cur = nil
	s.filesRemaining--

	if s.filesRemaining > 0 {
		s.mode = ReceivingMultiHeader
		return nil
	}

	s.mode = Command
	if err := s.framer.WriteLine(fmt.Sprintf("%d- binary response follows", protocol.CodeBinary)); err != nil {
		return err
	}
	return s.framer.WriteBinary(make([]byte, 4*s.totalFiles))
}

func (s *Session) closeSink() {
	if s.cur != nil {
		s.cur.w.Close()
		s.cur = nil
	}
}

func beUint32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
