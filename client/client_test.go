package client

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/GoobyCorp/xbdm-go/internal/config"
	"github.com/GoobyCorp/xbdm-go/internal/sandbox"
	"github.com/GoobyCorp/xbdm-go/server"
)

// newTestServer starts a Server on an ephemeral loopback port and
// returns a Client already pointed at it, plus a cleanup func.
func newTestServer(t *testing.T) (*Client, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New("", sandbox.NewMock(), config.Default())
	go srv.Serve(ln)

	c := New(ln.Addr().String())
	c.DialTimeout = 2 * time.Second
	c.MaxAttempts = 1

	return c, func() { srv.Close() }
}

func TestSysTime(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	ctx := context.Background()
	high, low, err := c.SysTime(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if high == 0 && low == 0 {
		t.Fatalf("SysTime returned zero FILETIME")
	}
}

func TestSystemInfoAndDriveList(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	ctx := context.Background()
	info, err := c.SystemInfo(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(info) == 0 {
		t.Fatalf("SystemInfo returned no lines")
	}

	drives, err := c.DriveList(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(drives) == 0 {
		t.Fatalf("DriveList returned no lines")
	}
}

func TestSendFileThenGetFile(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	ctx := context.Background()
	want := []byte("hello from the client package")
	if err := c.SendFile(ctx, `\Device\Harddisk0\Partition1\test.bin`, want); err != nil {
		t.Fatal(err)
	}

	got, err := c.GetFile(ctx, `\Device\Harddisk0\Partition1\test.bin`)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("GetFile = %q, want %q", got, want)
	}
}

func TestMkdirDirListDelete(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	ctx := context.Background()
	if err := c.Mkdir(ctx, `\Device\Harddisk0\Partition1\sub`); err != nil {
		t.Fatal(err)
	}
	if err := c.SendFile(ctx, `\Device\Harddisk0\Partition1\sub\a.txt`, []byte("x")); err != nil {
		t.Fatal(err)
	}

	entries, err := c.DirList(ctx, `\Device\Harddisk0\Partition1\sub`)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("DirList returned %d entries, want 1", len(entries))
	}

	if err := c.Delete(ctx, `\Device\Harddisk0\Partition1\sub`, true); err != nil {
		t.Fatal(err)
	}
}

func TestGetMemSetMem(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	ctx := context.Background()
	if err := c.SetMem(ctx, 0x82000000, []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	mem, err := c.GetMem(ctx, 0x82000000, 32)
	if err != nil {
		t.Fatal(err)
	}
	if len(mem) != 32 {
		t.Fatalf("GetMem returned %d bytes, want 32", len(mem))
	}
}

func TestMagicBootClosesWithoutBye(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	if err := c.MagicBoot(context.Background(), ""); err != nil {
		t.Fatal(err)
	}
}

func TestGetFileNotFound(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	_, err := c.GetFile(context.Background(), `\Device\Harddisk0\Partition1\missing.bin`)
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
	xerr, ok := err.(*Error)
	if !ok {
		t.Fatalf("error = %T, want *client.Error", err)
	}
	if xerr.Code != 402 {
		t.Fatalf("Code = %d, want 402", xerr.Code)
	}
}
