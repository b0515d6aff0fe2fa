package providers

import (
	"io"
	"io/fs"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	billyutil "github.com/go-git/go-billy/v5/util"

	"github.com/brettbedarf/vfsoverlay"
)

// billyBackend adapts a go-billy filesystem
type billyBackend struct {
	bfs billy.Filesystem
}

// NewMemory creates a go-billy-backed in-memory provider.
// The filesystem is initially empty.
func NewMemory(opts ...Option) *Provider {
	return NewBilly(memfs.New(), KindMemory, opts...)
}

// NewLocal creates a go-billy-backed provider over the host directory root,
// which becomes the virtual "/". root must be an existing directory. The host's home, caches and working
// directories are exposed when they live under root.
func NewLocal(root string, opts ...Option) (*Provider, error) {
	abs, err := hostRoot(root)
	if err != nil {
		return nil, err
	}
	opts = append(hostDirsOptions(abs), opts...)
	return NewBilly(osfs.New(abs), KindLocal, opts...), nil
}

// NewBilly wraps an existing billy.Filesystem
func NewBilly(bfs billy.Filesystem, kind Kind, opts ...Option) *Provider {
	return newProvider(&billyBackend{bfs: bfs}, kind, "billy/"+string(kind), opts)
}

func (b *billyBackend) Stat(name string) (fs.FileInfo, error) {
	return b.bfs.Stat(name)
}

func (b *billyBackend) Lstat(name string) (fs.FileInfo, error) {
	return b.bfs.Lstat(name)
}

func (b *billyBackend) ReadDir(name string) ([]fs.FileInfo, error) {
	return b.bfs.ReadDir(name)
}

func (b *billyBackend) ReadFile(name string) ([]byte, error) {
	f, err := b.bfs.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

func (b *billyBackend) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return billyutil.WriteFile(b.bfs, name, data, perm)
}

func (b *billyBackend) MkdirAll(name string, perm fs.FileMode) error {
	return b.bfs.MkdirAll(name, perm)
}

func (b *billyBackend) RemoveAll(name string) error {
	return billyutil.RemoveAll(b.bfs, name)
}

func (b *billyBackend) Rename(from, to string) error {
	return b.bfs.Rename(from, to)
}

// Chmod needs the optional billy.Change capability
func (b *billyBackend) Chmod(name string, mode fs.FileMode) error {
	c, ok := b.bfs.(billy.Change)
	if !ok {
		return vfsoverlay.Unsupported(vfsoverlay.OpChmod, name)
	}
	return c.Chmod(name, mode)
}

func (b *billyBackend) Symlink(target, link string) error {
	return b.bfs.Symlink(target, link)
}
