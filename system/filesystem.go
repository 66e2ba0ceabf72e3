// Package system abstracts the file system catalog documents are read from.
package system

import (
	"io/fs"
	"os"
	"path/filepath"
)

// VirtualFS is any file system catalog documents can be opened from, such as an embed.FS or fstest.MapFS.
type VirtualFS interface {
	fs.FS
}

// FileSystem opens files on the host file system. Unlike os.DirFS it accepts absolute and relative paths.
type FileSystem struct{}

var _ VirtualFS = (*FileSystem)(nil)

func (fs *FileSystem) Open(name string) (fs.File, error) {
	return os.Open(filepath.Clean(name))
}
