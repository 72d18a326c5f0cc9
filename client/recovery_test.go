package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/GoobyCorp/xbdm-go/protocol"
)

func TestRunSequenceMultipleSteps(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	ctx := context.Background()
	steps := []Step{
		{Verb: "mkdir", Params: map[string]protocol.Value{"name": protocol.NewQuotedString(`\Device\Harddisk0\Partition1\seq`)}},
		{Verb: "dirlist", Params: map[string]protocol.Value{"name": protocol.NewQuotedString(`\Device\Harddisk0\Partition1\seq`)}},
	}

	replies, err := c.RunSequence(ctx, steps)
	if err != nil {
		t.Fatal(err)
	}
	if len(replies) != 2 {
		t.Fatalf("got %d replies, want 2", len(replies))
	}
	if replies[1].Code != protocol.CodeMultiLine {
		t.Fatalf("dirlist reply code = %d, want %d", replies[1].Code, protocol.CodeMultiLine)
	}
}

func TestSendFileWithCRC(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	dir := t.TempDir()
	local := filepath.Join(dir, "xbupdate.xex")
	if err := os.WriteFile(local, []byte("fake recovery image bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.SendFileWithCRC(context.Background(), local, `\Device\Harddisk0\Partition1\xbupdate.xex`); err != nil {
		t.Fatal(err)
	}
}

func TestSendFileWithCRCMissingLocalFile(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	err := c.SendFileWithCRC(context.Background(), filepath.Join(t.TempDir(), "missing.xex"), `\Device\Harddisk0\Partition1\x.xex`)
	if err == nil {
		t.Fatal("expected error for missing local file")
	}
}
