package client

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/GoobyCorp/xbdm-go/protocol"
)

// parseStatusLine splits a wire status line ("200- OK" or "405- generic
// error") into its numeric code and trailing free-form text.
func parseStatusLine(line string) (code int, text string, err error) {
	dash := strings.IndexByte(line, '-')
	if dash < 0 {
		return 0, "", fmt.Errorf("xbdm: malformed status line %q", line)
	}
	code, err = strconv.Atoi(line[:dash])
	if err != nil {
		return 0, "", fmt.Errorf("xbdm: malformed status line %q: %w", line, err)
	}
	return code, strings.TrimSpace(line[dash+1:]), nil
}

func readMultiLine(fr *protocol.Framer) ([]string, error) {
	var lines []string
	for {
		line, err := fr.ReadLine()
		if err != nil {
			return nil, err
		}
		if line == "." {
			return lines, nil
		}
		lines = append(lines, line)
	}
}

// simpleOK exchanges a command that only ever replies with a single OK
// or error status line (e.g. delete, mkdir, rename, setmem).
func (c *Client) simpleOK(ctx context.Context, verb string) error {
	_, err := c.exchange(ctx, verb, func(fr *protocol.Framer, first string) (Reply, error) {
		code, text, err := parseStatusLine(first)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Code: code, Text: text}, nil
	})
	return err
}

// SysTime reports the console clock as a split FILETIME.
func (c *Client) SysTime(ctx context.Context) (high, low uint32, err error) {
	r, err := c.exchange(ctx, "systime", func(fr *protocol.Framer, first string) (Reply, error) {
		code, text, err := parseStatusLine(first)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Code: code, Text: text, Params: parseHeaderParams(text)}, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return r.Params["high"].Uint32(), r.Params["low"].Uint32(), nil
}

// SystemInfo returns the console's identification block.
func (c *Client) SystemInfo(ctx context.Context) ([]string, error) {
	return c.multiLineCommand(ctx, "systeminfo")
}

// DriveList returns the list of mounted drive names.
func (c *Client) DriveList(ctx context.Context) ([]string, error) {
	return c.multiLineCommand(ctx, "drivelist")
}

// DirList lists the entries of a directory on the console.
func (c *Client) DirList(ctx context.Context, name string) ([]string, error) {
	return c.multiLineCommand(ctx, fmt.Sprintf(`dirlist name="%s"`, name))
}

// GetFileAttributes returns the single-line file-info record for name.
func (c *Client) GetFileAttributes(ctx context.Context, name string) (string, error) {
	lines, err := c.multiLineCommand(ctx, fmt.Sprintf(`getfileattributes name="%s"`, name))
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("xbdm: empty getfileattributes reply")
	}
	return lines[0], nil
}

func (c *Client) multiLineCommand(ctx context.Context, verb string) ([]string, error) {
	r, err := c.exchange(ctx, verb, func(fr *protocol.Framer, first string) (Reply, error) {
		code, text, err := parseStatusLine(first)
		if err != nil {
			return Reply{}, err
		}
		if code != protocol.CodeMultiLine {
			return Reply{Code: code, Text: text}, nil
		}
		lines, err := readMultiLine(fr)
		if err != nil {
			return Reply{}, err
		}
		return Reply{Code: code, Text: text, Lines: lines}, nil
	})
	if err != nil {
		return nil, err
	}
	return r.Lines, nil
}

// GetFile downloads name's contents in one binary reply.
func (c *Client) GetFile(ctx context.Context, name string) ([]byte, error) {
	r, err := c.exchange(ctx, fmt.Sprintf(`getfile name="%s"`, name), func(fr *protocol.Framer, first string) (Reply, error) {
		code, text, err := parseStatusLine(first)
		if err != nil {
			return Reply{}, err
		}
		if code != protocol.CodeBinary {
			return Reply{Code: code, Text: text}, nil
		}
		lenBytes, err := fr.ReadExact(4)
		if err != nil {
			return Reply{}, err
		}
		size := leUint32(lenBytes)
		data, err := fr.ReadExact(int(size))
		if err != nil {
			return Reply{}, err
		}
		return Reply{Code: code, Text: text, Binary: data}, nil
	})
	if err != nil {
		return nil, err
	}
	return r.Binary, nil
}

// SendFile uploads data to name as a single ReceivingSingle transfer.
func (c *Client) SendFile(ctx context.Context, name string, data []byte) error {
	_, err := c.exchange(ctx, fmt.Sprintf(`sendfile name="%s" length=%d`, name, len(data)), func(fr *protocol.Framer, first string) (Reply, error) {
		code, text, err := parseStatusLine(first)
		if err != nil {
			return Reply{}, err
		}
		if code != protocol.CodeSendBinary {
			return Reply{Code: code, Text: text}, nil
		}
		if err := fr.WriteBinary(data); err != nil {
			return Reply{}, err
		}
		ackLine, err := fr.ReadLine()
		if err != nil {
			return Reply{}, err
		}
		ackCode, ackText, err := parseStatusLine(ackLine)
		if err != nil {
			return Reply{}, err
		}
		if ackCode == protocol.CodeBinary {
			if _, err := fr.ReadExact(4); err != nil {
				return Reply{}, err
			}
		}
		return Reply{Code: ackCode, Text: ackText}, nil
	})
	return err
}

// Delete removes a file, or a directory tree when recursive is true.
func (c *Client) Delete(ctx context.Context, name string, recursive bool) error {
	verb := fmt.Sprintf(`delete name="%s"`, name)
	if recursive {
		verb += " dir"
	}
	return c.simpleOK(ctx, verb)
}

// Mkdir creates a directory on the console.
func (c *Client) Mkdir(ctx context.Context, name string) error {
	return c.simpleOK(ctx, fmt.Sprintf(`mkdir name="%s"`, name))
}

// Rename moves name to newName.
func (c *Client) Rename(ctx context.Context, name, newName string) error {
	return c.simpleOK(ctx, fmt.Sprintf(`rename name="%s" newname="%s"`, name, newName))
}

// GetMem reads length bytes of console memory starting at addr,
// decoding the multi-line hex reply.
func (c *Client) GetMem(ctx context.Context, addr uint32, length uint32) ([]byte, error) {
	lines, err := c.multiLineCommand(ctx, fmt.Sprintf("getmem addr=0x%X length=%d", addr, length))
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, length)
	for _, line := range lines {
		chunk, err := hex.DecodeString(line)
		if err != nil {
			return nil, fmt.Errorf("xbdm: bad getmem hex line %q: %w", line, err)
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// SetMem writes data to console memory starting at addr. The hex
// payload is quoted so the lexer's bareword-vs-integer heuristic never
// misreads an all-digit hex string as an INTEGER.
func (c *Client) SetMem(ctx context.Context, addr uint32, data []byte) error {
	return c.simpleOK(ctx, fmt.Sprintf(`setmem addr=0x%X data="%s"`, addr, hex.EncodeToString(data)))
}

// MagicBoot triggers a console reboot. The connection closes without
// the BYE handshake.
func (c *Client) MagicBoot(ctx context.Context, title string) error {
	verb := "magicboot"
	if title != "" {
		verb += fmt.Sprintf(` title="%s"`, title)
	}
	return c.simpleOK(ctx, verb)
}

// Notify sends the notify command and checks its reply. Through the
// per-operation façade the connection is closed with the usual BYE right
// after the reply, so callers that need the push stream must manage the
// connection directly.
func (c *Client) Notify(ctx context.Context) error {
	return c.simpleOK(ctx, "notify")
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

// parseHeaderParams extracts key=value tokens from a status line's
// trailing text (used by systime's high/low DWORD params).
func parseHeaderParams(text string) map[string]protocol.Value {
	out := make(map[string]protocol.Value)
	for _, tok := range strings.Fields(text) {
		eq := strings.IndexByte(tok, '=')
		if eq < 0 {
			continue
		}
		v, err := protocol.ParseValue(tok[eq+1:])
		if err != nil {
			continue
		}
		out[strings.ToLower(tok[:eq])] = v
	}
	return out
}
