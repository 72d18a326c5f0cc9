package client

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/GoobyCorp/xbdm-go/protocol"
)

// Step is one command of a client-driven multi-step sequence. The
// sequencer is generic: it does not hardcode any specific
// recovery/flash step order, only the plumbing to run an arbitrary one.
type Step struct {
	Verb   string
	Params map[string]protocol.Value
	Flags  []string
}

// encode renders a Step as a wire command line.
func (st Step) encode() string {
	var b strings.Builder
	b.WriteString(st.Verb)
	for k, v := range st.Params {
		fmt.Fprintf(&b, " %s=%s", k, v.Encode())
	}
	for _, f := range st.Flags {
		b.WriteString(" ")
		b.WriteString(f)
	}
	return b.String()
}

// RunSequence executes steps in order, each over its own connection
// (the default per-operation policy). A step whose verb is recovery or
// magicboot closes its connection without the BYE handshake, exactly
// like any other call through exchange. Retries on a per-step basis use
// the Client's configured backoff policy, so a console that is
// mid-reboot between steps gets a bounded number of reconnect attempts
// rather than failing the whole sequence on the first transient error.
func (c *Client) RunSequence(ctx context.Context, steps []Step) ([]Reply, error) {
	replies := make([]Reply, 0, len(steps))
	for _, st := range steps {
		r, err := c.exchange(ctx, st.encode(), func(fr *protocol.Framer, first string) (Reply, error) {
			code, text, err := parseStatusLine(first)
			if err != nil {
				return Reply{}, err
			}
			switch code {
			case protocol.CodeMultiLine:
				lines, err := readMultiLine(fr)
				if err != nil {
					return Reply{}, err
				}
				return Reply{Code: code, Text: text, Lines: lines}, nil
			default:
				return Reply{Code: code, Text: text}, nil
			}
		})
		if err != nil {
			return replies, fmt.Errorf("xbdm: step %q: %w", st.Verb, err)
		}
		replies = append(replies, r)
	}
	return replies, nil
}

// SendFileWithCRC uploads localPath to virtualPath via
// xbupdate!sysfileupd, computing the xbupdate CRC-32 over the local
// file contents and attaching it as the crc parameter so the server can
// verify the transfer.
func (c *Client) SendFileWithCRC(ctx context.Context, localPath, virtualPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("xbdm: read %s: %w", localPath, err)
	}
	crc := protocol.ChecksumXBUpdate(data)
	verb := fmt.Sprintf(`xbupdate!sysfileupd name="%s" size=%d crc=0x%X`, virtualPath, len(data), crc)

	_, err = c.exchange(ctx, verb, func(fr *protocol.Framer, first string) (Reply, error) {
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
		return Reply{Code: ackCode, Text: ackText}, nil
	})
	return err
}
