package session

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/GoobyCorp/xbdm-go/internal/sandbox"
	"github.com/GoobyCorp/xbdm-go/protocol"
)

// DefaultRegistry returns a Registry with the standard verb set bound
// to their handlers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("systime", handleSystime)
	r.Register("systeminfo", handleSystemInfo)
	r.Register("drivelist", handleDriveList)
	r.Register("dirlist", handleDirList)
	r.Register("getfileattributes", handleGetFileAttributes)
	r.Register("getfile", handleGetFile)
	r.Register("sendfile", handleSendFile)
	r.Register("sendvfile", handleSendVFile)
	r.Register("delete", handleDelete)
	r.Register("mkdir", handleMkdir)
	r.Register("rename", handleRename)
	r.Register("getmem", handleGetMem)
	r.Register("setmem", handleSetMem)
	r.Register("magicboot", handleMagicBoot)
	r.Register("notify", handleNotify)
	r.Register("xbupdate!sysfileupd", handleXBUpdate)
	r.Register("bye", handleBye)
	return r
}

func handleSystime(s *Session, msg *protocol.Message) Plan {
	hi, lo := protocol.SplitFileTime(protocol.Now())
	return Ok(protocol.CodeOK, "",
		Param{"high", protocol.NewDword(hi)},
		Param{"low", protocol.NewDword(lo)},
	)
}

func handleSystemInfo(s *Session, msg *protocol.Message) Plan {
	cfg := s.Config()
	lines := []string{
		fmt.Sprintf("HDD=%d", cfg.HDDSizeBytes()),
		fmt.Sprintf("Type=%s", cfg.Platform()),
		fmt.Sprintf("Platform=%s System=%s", cfg.Platform(), cfg.System()),
		fmt.Sprintf("BaseKrnl=%s Krnl=%s XDK=%s", cfg.BaseKernelVersion(), cfg.KernelVersion(), cfg.XDKVersion()),
	}
	return MultiLineReply(lines)
}

func handleDriveList(s *Session, msg *protocol.Message) Plan {
	drives := s.Config().Drives()
	lines := make([]string, 0, len(drives))
	for _, d := range drives {
		lines = append(lines, fmt.Sprintf(`drivename="%s"`, d))
	}
	return MultiLineReply(lines)
}

func fileInfoLine(fi sandbox.FileInfo) string {
	createHi, createLo := protocol.SplitFileTime(protocol.ToFileTime(fi.CreatedAt))
	changeHi, changeLo := protocol.SplitFileTime(protocol.ToFileTime(fi.ModifiedAt))
	sizeHi := uint32(fi.Size >> 32)
	sizeLo := uint32(fi.Size)
	line := fmt.Sprintf(`name="%s" sizehi=0x%X sizelo=0x%X createhi=0x%X createlo=0x%X changehi=0x%X changelo=0x%X`,
		fi.Name, sizeHi, sizeLo, createHi, createLo, changeHi, changeLo)
	if fi.IsDir {
		line += " directory"
	}
	return line
}

func handleDirList(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	entries, err := s.Filesystem().List(name.String())
	if err != nil {
		return Err(protocol.CodeFileNotFound, "directory not found")
	}
	lines := make([]string, 0, len(entries))
	for _, fi := range entries {
		lines = append(lines, fileInfoLine(fi))
	}
	return MultiLineReply(lines)
}

func handleGetFileAttributes(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	fi, err := s.Filesystem().Stat(name.String())
	if err != nil {
		return Err(protocol.CodeFileNotFound, "file not found")
	}
	return MultiLineReply([]string{fileInfoLine(fi)})
}

func handleGetFile(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	r, err := s.Filesystem().OpenRead(name.String())
	if err != nil {
		return Err(protocol.CodeFileNotFound, "file not found")
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return Err(protocol.CodeFileNotFound, "file not found")
	}
	blob := make([]byte, 4+len(data))
	leFromUint32(blob[:4], uint32(len(data)))
	copy(blob[4:], data)
	return BinaryReply(blob)
}

func handleSendFile(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	length, ok := msg.Param("length")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing length")
	}
	return ReceiveSingle(name.String(), int64(length.Uint64()))
}

func handleSendVFile(s *Session, msg *protocol.Message) Plan {
	count, ok := msg.Param("count")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing count")
	}
	return ReceiveMulti(int(count.Int()))
}

func handleDelete(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	fs := s.Filesystem()
	var err error
	if msg.HasFlag("dir") {
		err = fs.RemoveTree(name.String())
	} else {
		err = fs.Remove(name.String())
	}
	if err != nil {
		return Err(protocol.CodeFileNotFound, "file not found")
	}
	return Ok(protocol.CodeOK, "OK")
}

func handleMkdir(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	if err := s.Filesystem().Mkdir(name.String()); err != nil {
		return Err(protocol.CodePathNotFound, "path not found")
	}
	return Ok(protocol.CodeOK, "OK")
}

func handleRename(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	newName, ok := msg.Param("newname")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing newname")
	}
	if err := s.Filesystem().Rename(name.String(), newName.String()); err != nil {
		return Err(protocol.CodeFileNotFound, "file not found")
	}
	return Ok(protocol.CodeOK, "OK")
}

// getmemChunkSize is the number of raw bytes hex-encoded onto each line
// of a getmem reply.
const getmemChunkSize = 16

func handleGetMem(s *Session, msg *protocol.Message) Plan {
	length, ok := msg.Param("length")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing length")
	}
	if _, ok := msg.Param("addr"); !ok {
		return Err(protocol.CodeInvalidArgument, "missing addr")
	}

	remaining := int(length.Uint64())
	var lines []string
	for remaining > 0 {
		n := remaining
		if n > getmemChunkSize {
			n = getmemChunkSize
		}
		lines = append(lines, hex.EncodeToString(make([]byte, n)))
		remaining -= n
	}
	return MultiLineReply(lines)
}

func handleSetMem(s *Session, msg *protocol.Message) Plan {
	data, ok := msg.Param("data")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing data")
	}
	raw, err := hex.DecodeString(data.String())
	if err != nil {
		return Err(protocol.CodeInvalidArgument, "bad data")
	}
	return Ok(protocol.CodeOK, fmt.Sprintf("set %d bytes", len(raw)))
}

func handleMagicBoot(s *Session, msg *protocol.Message) Plan {
	return OkClose(protocol.CodeOK, "OK")
}

func handleNotify(s *Session, msg *protocol.Message) Plan {
	return Ok(protocol.CodeNotificationChannel, "now a notification channel")
}

func handleBye(s *Session, msg *protocol.Message) Plan {
	return OkClose(protocol.CodeOK, "bye")
}

// handleXBUpdate implements the xbupdate!sysfileupd verb family used by
// flash/recovery-image uploads.
func handleXBUpdate(s *Session, msg *protocol.Message) Plan {
	name, ok := msg.Param("name")
	if !ok {
		return Err(protocol.CodeInvalidArgument, "missing name")
	}
	path := name.String()
	fs := s.Filesystem()

	if truthyParam(msg, "remove") {
		if err := fs.Remove(path); err != nil {
			return Err(protocol.CodeFileNotFound, "file not found")
		}
		return Ok(protocol.CodeOK, "OK")
	}
	if truthyParam(msg, "removedir") {
		if err := fs.RemoveTree(path); err != nil {
			return Err(protocol.CodeFileNotFound, "file not found")
		}
		return Ok(protocol.CodeOK, "OK")
	}
	if localSrc, ok := msg.Param("localsrc"); ok {
		if err := fs.Rename(localSrc.String(), path); err != nil {
			return Err(protocol.CodeFileNotFound, "file not found")
		}
		return Ok(protocol.CodeOK, "OK")
	}

	size, hasSize := msg.Param("size")
	crc, hasCRC := msg.Param("crc")
	if hasSize && hasCRC {
		return ReceiveSingleXBUpdate(path, int64(size.Uint64()), crc.Uint32())
	}

	return Err(protocol.CodeInvalidArgument, "unsupported xbupdate variant")
}

// truthyParam reports whether key is present either as a non-zero
// key=value parameter (the usual wire form, e.g. remove=1) or as a bare
// flag token.
func truthyParam(msg *protocol.Message, key string) bool {
	if v, ok := msg.Param(key); ok {
		return v.Int() != 0
	}
	return msg.HasFlag(key)
}

func leFromUint32(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
}
