package providers

import (
	"io/fs"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/brettbedarf/vfsoverlay"
)

// aferoBackend adapts an afero filesystem
type aferoBackend struct {
	afs afero.Fs
	// source is the host filesystem under afs when afs is a BasePathFs. It
	// lets relative link targets bypass BasePathFs path translation.
	source afero.Fs
}

// NewAferoMemory creates an afero MemMapFs-backed provider. Symlinks are
// not supported by this backend.
func NewAferoMemory(opts ...Option) *Provider {
	return NewAfero(afero.NewMemMapFs(), KindMemory, opts...)
}

// NewAferoLocal creates an afero provider over the host directory root,
// which must exist. See [NewLocal] for how host directories are exposed.
func NewAferoLocal(root string, opts ...Option) (*Provider, error) {
	abs, err := hostRoot(root)
	if err != nil {
		return nil, err
	}
	opts = append(hostDirsOptions(abs), opts...)
	osFs := afero.NewOsFs()
	b := &aferoBackend{afs: afero.NewBasePathFs(osFs, abs), source: osFs}
	return newProvider(b, KindLocal, "afero/"+string(KindLocal), opts), nil
}

// NewAfero wraps an existing afero.Fs
func NewAfero(afs afero.Fs, kind Kind, opts ...Option) *Provider {
	return newProvider(&aferoBackend{afs: afs}, kind, "afero/"+string(kind), opts)
}

func (a *aferoBackend) Stat(name string) (fs.FileInfo, error) {
	return a.afs.Stat(name)
}

// Lstat falls back to Stat when the filesystem cannot report links
func (a *aferoBackend) Lstat(name string) (fs.FileInfo, error) {
	if l, ok := a.afs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(name)
		return info, err
	}
	return a.afs.Stat(name)
}

func (a *aferoBackend) ReadDir(name string) ([]fs.FileInfo, error) {
	return afero.ReadDir(a.afs, name)
}

func (a *aferoBackend) ReadFile(name string) ([]byte, error) {
	return afero.ReadFile(a.afs, name)
}

func (a *aferoBackend) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return afero.WriteFile(a.afs, name, data, perm)
}

func (a *aferoBackend) MkdirAll(name string, perm fs.FileMode) error {
	return a.afs.MkdirAll(name, perm)
}

func (a *aferoBackend) RemoveAll(name string) error {
	return a.afs.RemoveAll(name)
}

func (a *aferoBackend) Rename(from, to string) error {
	return a.afs.Rename(from, to)
}

func (a *aferoBackend) Chmod(name string, mode fs.FileMode) error {
	return a.afs.Chmod(name, mode)
}

// Symlink needs the optional afero.Linker capability. BasePathFs rewrites
// both arguments into host paths, so relative targets go straight to the
// source filesystem with only the link translated.
func (a *aferoBackend) Symlink(target, link string) error {
	if bp, ok := a.afs.(*afero.BasePathFs); ok && a.source != nil && !path.IsAbs(target) {
		l, ok := a.source.(afero.Linker)
		if !ok {
			return vfsoverlay.Unsupported(vfsoverlay.OpSymlink, link)
		}
		hostLink, err := bp.RealPath(link)
		if err != nil {
			return err
		}
		return l.SymlinkIfPossible(filepath.FromSlash(target), hostLink)
	}

	l, ok := a.afs.(afero.Linker)
	if !ok {
		return vfsoverlay.Unsupported(vfsoverlay.OpSymlink, link)
	}
	return l.SymlinkIfPossible(target, link)
}
