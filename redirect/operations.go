package redirect

import (
	"io/fs"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/manifest"
)

func (rfs *FileSystem) Exists(name string, followSymlink bool) bool {
	realPath, ok := rfs.Resolve(name)
	return ok && rfs.backing.Exists(realPath, followSymlink)
}

func (rfs *FileSystem) IsDirectory(name string) bool {
	entry, ok := rfs.Lookup(name)
	return ok && entry.Type() == manifest.DirectoryType
}

func (rfs *FileSystem) IsFile(name string) bool {
	entry, ok := rfs.Lookup(name)
	return ok && entry.Type() == manifest.FileType
}

func (rfs *FileSystem) IsExecutableFile(name string) bool {
	realPath, ok := rfs.Resolve(name)
	return ok && rfs.backing.IsExecutableFile(realPath)
}

func (rfs *FileSystem) IsSymlink(name string) bool {
	realPath, ok := rfs.Resolve(name)
	return ok && rfs.backing.IsSymlink(realPath)
}

// ReadDir lists the backing path of a matched file entry. Unmatched paths
// and virtual directories list as empty.
func (rfs *FileSystem) ReadDir(name string) ([]string, error) {
	realPath, ok := rfs.Resolve(name)
	if !ok {
		return []string{}, nil
	}
	return rfs.backing.ReadDir(realPath)
}

func (rfs *FileSystem) ReadFile(name string) ([]byte, error) {
	realPath, ok := rfs.Resolve(name)
	if !ok {
		return nil, vfsoverlay.NoEntry(vfsoverlay.OpRead, vfsoverlay.Clean(name))
	}
	return rfs.backing.ReadFile(realPath)
}

// Mutations are never supported: the manifest view is read-only.

func (rfs *FileSystem) WriteFile(name string, _ []byte) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpWrite, name)
}

func (rfs *FileSystem) Chmod(_ fs.FileMode, name string, _ bool) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpChmod, name)
}

func (rfs *FileSystem) RemoveAll(name string) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpRemove, name)
}

func (rfs *FileSystem) Mkdir(name string, _ bool) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpMkdir, name)
}

func (rfs *FileSystem) Symlink(name, _ string, _ bool) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpSymlink, name)
}

func (rfs *FileSystem) Copy(src, _ string) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpCopy, src)
}

func (rfs *FileSystem) Move(src, _ string) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpMove, src)
}

// Getwd reports no working directory
func (rfs *FileSystem) Getwd() (string, bool) {
	return "", false
}

func (rfs *FileSystem) Chdir(name string) error {
	return vfsoverlay.Unsupported(vfsoverlay.OpChdir, name)
}

func (rfs *FileSystem) HomeDir() string {
	return vfsoverlay.Root
}

func (rfs *FileSystem) CachesDir() (string, bool) {
	return "", false
}
