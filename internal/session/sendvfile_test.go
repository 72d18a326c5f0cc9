package session

import (
	"encoding/binary"
	"testing"

	"github.com/GoobyCorp/xbdm-go/internal/sandbox"
)

// buildMultiHeader encodes one sendvfile per-file header block: a
// 4-byte total length prefix, six big-endian 32-bit timestamp/size
// halves, a big-endian 32-bit attributes field, and a NUL-terminated
// virtual path.
func buildMultiHeader(virtualPath string, fileSize int64) []byte {
	body := make([]byte, 28+len(virtualPath)+1)
	binary.BigEndian.PutUint32(body[16:20], uint32(fileSize>>32))
	binary.BigEndian.PutUint32(body[20:24], uint32(fileSize))
	copy(body[28:], virtualPath)

	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(4+len(body)))
	copy(out[4:], body)
	return out
}

func TestSendVFileTwoFiles(t *testing.T) {
	client, r := harness(t, sandbox.NewMock())
	defer client.Close()
	readLine(t, r) // greeting

	if _, err := client.Write([]byte("sendvfile count=2\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "204- send binary data" {
		t.Fatalf("sendvfile ack = %q", got)
	}
	if got := readLine(t, r); got != "203- binary response follows" {
		t.Fatalf("sendvfile placeholder header = %q", got)
	}
	placeholder := make([]byte, 8)
	if _, err := readFull(r, placeholder); err != nil {
		t.Fatal(err)
	}

	firstPayload := []byte("abc")
	secondPayload := []byte("de")

	frame := append(buildMultiHeader(`E:\one.bin`, int64(len(firstPayload))), firstPayload...)
	frame = append(frame, buildMultiHeader(`E:\two.bin`, int64(len(secondPayload)))...)
	frame = append(frame, secondPayload...)
	if _, err := client.Write(frame); err != nil {
		t.Fatal(err)
	}

	if got := readLine(t, r); got != "203- binary response follows" {
		t.Fatalf("sendvfile terminator = %q", got)
	}
	ack := make([]byte, 8)
	if _, err := readFull(r, ack); err != nil {
		t.Fatal(err)
	}

	if _, err := client.Write([]byte(`dirlist name="E:"` + "\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "202- multiline response follows" {
		t.Fatalf("dirlist header = %q", got)
	}
}
