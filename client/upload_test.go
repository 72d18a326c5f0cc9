package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestUploadTree(t *testing.T) {
	c, cleanup := newTestServer(t)
	defer cleanup()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "root.txt"), []byte("root"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "nested.txt"), []byte("nested"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	if err := c.UploadTree(ctx, dir, `\Device\Harddisk0\Partition1\game`); err != nil {
		t.Fatal(err)
	}

	entries, err := c.DirList(ctx, `\Device\Harddisk0\Partition1\game`)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d top-level entries, want 2", len(entries))
	}

	nested, err := c.GetFile(ctx, `\Device\Harddisk0\Partition1\game\sub\nested.txt`)
	if err != nil {
		t.Fatal(err)
	}
	if string(nested) != "nested" {
		t.Fatalf("nested file contents = %q", nested)
	}
}
