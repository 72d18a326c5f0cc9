package session

import (
	"bufio"
	"net"
	"strings"
	"testing"

	"github.com/GoobyCorp/xbdm-go/internal/config"
	"github.com/GoobyCorp/xbdm-go/internal/sandbox"
)

// harness spins up a Session over an in-memory net.Pipe and hands the
// test the client-side half plus a buffered reader for its replies.
func harness(t *testing.T, fs sandbox.Resolver) (net.Conn, *bufio.Reader) {
	t.Helper()
	client, server := net.Pipe()
	s := New(server, DefaultRegistry(), fs, config.Default(), nil)
	go s.Serve()
	t.Cleanup(func() { client.Close() })
	return client, bufio.NewReader(client)
}

func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimRight(line, "\r\n")
}

func TestGreetingAndBye(t *testing.T) {
	client, r := harness(t, sandbox.NewMock())
	defer client.Close()

	if got := readLine(t, r); got != "201- connected" {
		t.Fatalf("greeting = %q", got)
	}

	if _, err := client.Write([]byte("BYE\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "200- bye" {
		t.Fatalf("bye reply = %q", got)
	}
}

func TestSystime(t *testing.T) {
	client, r := harness(t, sandbox.NewMock())
	defer client.Close()
	readLine(t, r) // greeting

	if _, err := client.Write([]byte("systime\r\n")); err != nil {
		t.Fatal(err)
	}
	got := readLine(t, r)
	if !strings.HasPrefix(got, "200- high=0x") || !strings.Contains(got, "low=0x") {
		t.Fatalf("systime reply = %q", got)
	}
}

func TestDirListMissingDirectory(t *testing.T) {
	client, r := harness(t, sandbox.NewMock())
	defer client.Close()
	readLine(t, r)

	if _, err := client.Write([]byte(`dirlist name="\Nope"` + "\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "402- directory not found" {
		t.Fatalf("dirlist reply = %q", got)
	}
}

func TestSendFileThenGetFile(t *testing.T) {
	client, r := harness(t, sandbox.NewMock())
	defer client.Close()
	readLine(t, r) // greeting

	payload := []byte("hello xbdm")
	if _, err := client.Write([]byte(`sendfile name="E:\a.bin" length=0xA` + "\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "204- send binary data" {
		t.Fatalf("sendfile ack = %q", got)
	}
	if _, err := client.Write(payload); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "203- binary response follows" {
		t.Fatalf("upload terminator = %q", got)
	}
	ack := make([]byte, 4)
	if _, err := readFull(r, ack); err != nil {
		t.Fatal(err)
	}

	if _, err := client.Write([]byte(`getfile name="E:\a.bin"` + "\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "203- binary response follows" {
		t.Fatalf("getfile header = %q", got)
	}
	lenBytes := make([]byte, 4)
	if _, err := readFull(r, lenBytes); err != nil {
		t.Fatal(err)
	}
	n := int(lenBytes[0]) | int(lenBytes[1])<<8 | int(lenBytes[2])<<16 | int(lenBytes[3])<<24
	if n != len(payload) {
		t.Fatalf("length prefix = %d, want %d", n, len(payload))
	}
	body := make([]byte, n)
	if _, err := readFull(r, body); err != nil {
		t.Fatal(err)
	}
	if string(body) != string(payload) {
		t.Fatalf("body = %q", body)
	}
}

func TestUnknownVerb(t *testing.T) {
	client, r := harness(t, sandbox.NewMock())
	defer client.Close()
	readLine(t, r)

	if _, err := client.Write([]byte("bogusverb\r\n")); err != nil {
		t.Fatal(err)
	}
	if got := readLine(t, r); got != "405- unknown command" {
		t.Fatalf("unknown verb reply = %q", got)
	}
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
