package client

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// UploadTree walks localDir and reproduces it under virtualRoot on the
// console: every subdirectory is created first, then every regular file
// is sent. Virtual paths use the console's backslash separators
// regardless of the host platform.
func (c *Client) UploadTree(ctx context.Context, localDir, virtualRoot string) error {
	type entry struct {
		local   string
		virtual string
	}
	var dirs []entry
	var files []entry

	err := filepath.WalkDir(localDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == localDir {
			return nil
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		virtual := strings.TrimSuffix(virtualRoot, `\`) + `\` + strings.ReplaceAll(filepath.ToSlash(rel), "/", `\`)
		if d.IsDir() {
			dirs = append(dirs, entry{local: p, virtual: virtual})
		} else {
			files = append(files, entry{local: p, virtual: virtual})
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("xbdm: walk %s: %w", localDir, err)
	}

	for _, d := range dirs {
		if err := c.Mkdir(ctx, d.virtual); err != nil {
			return fmt.Errorf("xbdm: mkdir %s: %w", d.virtual, err)
		}
	}

	for _, f := range files {
		data, err := os.ReadFile(f.local)
		if err != nil {
			return fmt.Errorf("xbdm: read %s: %w", f.local, err)
		}
		if err := c.SendFile(ctx, f.virtual, data); err != nil {
			return fmt.Errorf("xbdm: sendfile %s: %w", f.virtual, err)
		}
	}
	return nil
}
