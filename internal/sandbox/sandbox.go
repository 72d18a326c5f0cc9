// Package sandbox defines the virtual-path-to-local-path contract the
// session core consumes, plus one disk-backed and one in-memory
// implementation of it.
package sandbox

import (
	"errors"
	"io"
	"time"
)

// ErrNotExist is returned by Stat/Open/Remove/Rename when the resolved
// path does not exist.
var ErrNotExist = errors.New("sandbox: path does not exist")

// ErrTraversal is returned by Resolve when a virtual path would escape
// the sandbox root.
var ErrTraversal = errors.New("sandbox: path escapes sandbox root")

// FileInfo describes one sandbox entry the way the dirlist/
// getfileattributes handlers need it.
type FileInfo struct {
	Name       string
	IsDir      bool
	Size       uint64
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// Resolver maps XBDM virtual paths onto a local directory tree acting as
// the emulated console storage, and performs the file operations the
// dispatcher's handlers need. Implementations must reject traversal
// outside the sandbox root and must serialize directory creation.
type Resolver interface {
	// Resolve validates and normalizes a virtual path without touching
	// the filesystem.
	Resolve(virtual string) (local string, err error)

	Stat(virtual string) (FileInfo, error)
	List(virtualDir string) ([]FileInfo, error)

	OpenRead(virtual string) (io.ReadCloser, error)
	OpenWrite(virtual string) (io.WriteCloser, error)

	Mkdir(virtual string) error
	Remove(virtual string) error
	RemoveTree(virtual string) error
	Rename(oldVirtual, newVirtual string) error
}
