// Package providers contains the concrete backing filesystems (in-memory and
// on-disk) that redirecting and composite filesystems delegate to.
package providers

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"syscall"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/internal/util"
)

// Kind identifies what a provider is backed by
type Kind string

const (
	KindMemory Kind = "memory"
	KindLocal  Kind = "local"
)

const (
	defaultFilePerm = 0o644
	defaultDirPerm  = 0o755
)

// backend is the primitive surface shared by the billy and afero libraries.
// Names passed in are always cleaned absolute virtual paths.
type backend interface {
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	MkdirAll(name string, perm fs.FileMode) error
	RemoveAll(name string) error
	Rename(from, to string) error
	Chmod(name string, mode fs.FileMode) error
	Symlink(target, link string) error
}

// Provider is a writable [vfsoverlay.FileSystem] over a billy or afero
// filesystem. It is safe for concurrent use as far as the wrapped library is.
type Provider struct {
	b    backend
	kind Kind
	name string // Library and backend, for logs

	home      string
	caches    string
	hasCaches bool

	mu  sync.RWMutex
	cwd string // Protected by mu
}

// Option configures provider creation
type Option func(*options)

type options struct {
	home   *string
	caches *string
	cwd    *string
}

// WithHomeDir sets the directory reported by HomeDir (default "/")
func WithHomeDir(dir string) Option {
	return func(o *options) { o.home = &dir }
}

// WithCachesDir sets the directory reported by CachesDir (default none)
func WithCachesDir(dir string) Option {
	return func(o *options) { o.caches = &dir }
}

// WithWorkingDir sets the initial working directory (default "/")
func WithWorkingDir(dir string) Option {
	return func(o *options) { o.cwd = &dir }
}

func newProvider(b backend, kind Kind, name string, opts []Option) *Provider {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := &Provider{
		b:    b,
		kind: kind,
		name: name,
		home: vfsoverlay.Clean(util.ValueOrDefault(o.home, vfsoverlay.Root)),
		cwd:  vfsoverlay.Clean(util.ValueOrDefault(o.cwd, vfsoverlay.Root)),
	}
	if o.caches != nil {
		p.caches = vfsoverlay.Clean(*o.caches)
		p.hasCaches = true
	}
	return p
}

// Kind reports whether the provider is in-memory or on-disk
func (p *Provider) Kind() Kind {
	return p.kind
}

func (p *Provider) String() string {
	return p.name
}

func (p *Provider) Exists(name string, followSymlink bool) bool {
	name = vfsoverlay.Clean(name)
	if name == vfsoverlay.Root {
		return true
	}
	var err error
	if followSymlink {
		_, err = p.b.Stat(name)
	} else {
		_, err = p.b.Lstat(name)
	}
	return err == nil
}

// IsDirectory reports true for "/" even before an in-memory backend has
// materialized it.
func (p *Provider) IsDirectory(name string) bool {
	name = vfsoverlay.Clean(name)
	if name == vfsoverlay.Root {
		return true
	}
	info, err := p.b.Stat(name)
	return err == nil && info.IsDir()
}

func (p *Provider) IsFile(name string) bool {
	info, err := p.b.Stat(vfsoverlay.Clean(name))
	return err == nil && info.Mode().IsRegular()
}

func (p *Provider) IsExecutableFile(name string) bool {
	info, err := p.b.Stat(vfsoverlay.Clean(name))
	return err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}

func (p *Provider) IsSymlink(name string) bool {
	info, err := p.b.Lstat(vfsoverlay.Clean(name))
	return err == nil && info.Mode()&fs.ModeSymlink != 0
}

// ReadDir returns entry names sorted lexically
func (p *Provider) ReadDir(name string) ([]string, error) {
	infos, err := p.b.ReadDir(vfsoverlay.Clean(name))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}
	slices.Sort(names)
	return names, nil
}

func (p *Provider) ReadFile(name string) ([]byte, error) {
	name = vfsoverlay.Clean(name)
	if p.IsDirectory(name) {
		return nil, &vfsoverlay.PathError{Op: vfsoverlay.OpRead, Path: name, Err: syscall.EISDIR}
	}
	return p.b.ReadFile(name)
}

// WriteFile creates missing parent directories, then replaces the file
func (p *Provider) WriteFile(name string, data []byte) error {
	name = vfsoverlay.Clean(name)
	if p.IsDirectory(name) {
		return &vfsoverlay.PathError{Op: vfsoverlay.OpWrite, Path: name, Err: syscall.EISDIR}
	}
	if err := p.b.MkdirAll(path.Dir(name), defaultDirPerm); err != nil {
		return err
	}
	perm := fs.FileMode(defaultFilePerm)
	if info, err := p.b.Stat(name); err == nil {
		perm = info.Mode().Perm()
	}
	return p.b.WriteFile(name, data, perm)
}

// Chmod changes the mode of name. A recursive chmod never descends through
// symbolic links and leaves the links themselves untouched.
func (p *Provider) Chmod(mode fs.FileMode, name string, recursive bool) error {
	name = vfsoverlay.Clean(name)
	if err := p.b.Chmod(name, mode); err != nil {
		return err
	}
	if !recursive {
		return nil
	}
	return p.chmodTree(mode, name)
}

func (p *Provider) chmodTree(mode fs.FileMode, dir string) error {
	if info, err := p.b.Lstat(dir); err != nil || !info.IsDir() {
		return nil
	}
	children, err := p.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, child := range children {
		name := path.Join(dir, child)
		info, err := p.b.Lstat(name)
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			continue
		}
		if err := p.b.Chmod(name, mode); err != nil {
			return err
		}
		if err := p.chmodTree(mode, name); err != nil {
			return err
		}
	}
	return nil
}

// RemoveAll removes name and any children. Removing a missing path succeeds.
func (p *Provider) RemoveAll(name string) error {
	if err := p.b.RemoveAll(vfsoverlay.Clean(name)); err != nil && !isNotExist(err) {
		return err
	}
	return nil
}

func (p *Provider) Mkdir(name string, recursive bool) error {
	name = vfsoverlay.Clean(name)
	if recursive {
		return p.b.MkdirAll(name, defaultDirPerm)
	}
	if p.Exists(name, false) {
		return &vfsoverlay.PathError{Op: vfsoverlay.OpMkdir, Path: name, Err: fs.ErrExist}
	}
	if !p.IsDirectory(path.Dir(name)) {
		return vfsoverlay.NoEntry(vfsoverlay.OpMkdir, path.Dir(name))
	}
	return p.b.MkdirAll(name, defaultDirPerm)
}

func (p *Provider) Symlink(name, target string, relative bool) error {
	name = vfsoverlay.Clean(name)
	dest := vfsoverlay.Clean(target)
	if relative {
		rel, err := filepath.Rel(path.Dir(name), dest)
		if err != nil {
			return &vfsoverlay.PathError{Op: vfsoverlay.OpSymlink, Path: name, Err: err}
		}
		dest = filepath.ToSlash(rel)
	}
	return p.b.Symlink(dest, name)
}

// Copy copies a file, or a directory tree, to dst. dst must not exist.
func (p *Provider) Copy(src, dst string) error {
	src, dst = vfsoverlay.Clean(src), vfsoverlay.Clean(dst)
	if !p.Exists(src, true) {
		return vfsoverlay.NoEntry(vfsoverlay.OpCopy, src)
	}
	if p.Exists(dst, false) {
		return &vfsoverlay.PathError{Op: vfsoverlay.OpCopy, Path: dst, Err: fs.ErrExist}
	}
	if vfsoverlay.IsAncestorOrEqual(src, dst) {
		return &vfsoverlay.PathError{Op: vfsoverlay.OpCopy, Path: dst, Err: syscall.EINVAL}
	}
	return p.copyTree(src, dst)
}

func (p *Provider) copyTree(src, dst string) error {
	info, err := p.b.Stat(src)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		data, err := p.b.ReadFile(src)
		if err != nil {
			return err
		}
		if err := p.b.MkdirAll(path.Dir(dst), defaultDirPerm); err != nil {
			return err
		}
		return p.b.WriteFile(dst, data, info.Mode().Perm())
	}

	if err := p.b.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}
	children, err := p.ReadDir(src)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := p.copyTree(path.Join(src, child), path.Join(dst, child)); err != nil {
			return err
		}
	}
	return nil
}

// Move renames src to dst. dst must not exist.
func (p *Provider) Move(src, dst string) error {
	src, dst = vfsoverlay.Clean(src), vfsoverlay.Clean(dst)
	if !p.Exists(src, false) {
		return vfsoverlay.NoEntry(vfsoverlay.OpMove, src)
	}
	if p.Exists(dst, false) {
		return &vfsoverlay.PathError{Op: vfsoverlay.OpMove, Path: dst, Err: fs.ErrExist}
	}
	if err := p.b.MkdirAll(path.Dir(dst), defaultDirPerm); err != nil {
		return err
	}
	return p.b.Rename(src, dst)
}

func (p *Provider) Getwd() (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.cwd, true
}

// Chdir changes the working directory. Relative paths resolve against the
// current one.
func (p *Provider) Chdir(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	dir := name
	if !vfsoverlay.IsAbs(dir) {
		dir = vfsoverlay.Join(p.cwd, dir)
	}
	dir = vfsoverlay.Clean(dir)
	if !p.IsDirectory(dir) {
		return vfsoverlay.NoEntry(vfsoverlay.OpChdir, dir)
	}
	p.cwd = dir
	return nil
}

func (p *Provider) HomeDir() string {
	return p.home
}

func (p *Provider) CachesDir() (string, bool) {
	return p.caches, p.hasCaches
}

// hostRoot resolves root to an absolute host directory that must exist
func hostRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", &vfsoverlay.PathError{Op: vfsoverlay.OpConfigure, Path: abs, Err: syscall.ENOTDIR}
	}
	return abs, nil
}

// hostDirsOptions maps the host's home, caches and working directories into
// the virtual namespace of a provider rooted at root. Directories outside
// root are left at their defaults.
func hostDirsOptions(root string) []Option {
	logger := util.GetLogger("Providers.hostDirs")

	var opts []Option
	if dir, ok := underRoot(root, os.UserHomeDir); ok {
		opts = append(opts, WithHomeDir(dir))
	}
	if dir, ok := underRoot(root, os.UserCacheDir); ok {
		opts = append(opts, WithCachesDir(dir))
	}
	if dir, ok := underRoot(root, os.Getwd); ok {
		opts = append(opts, WithWorkingDir(dir))
	}
	logger.Trace().Str("root", root).Int("mapped", len(opts)).Msg("Mapped host directories")
	return opts
}

func underRoot(root string, lookup func() (string, error)) (string, bool) {
	dir, err := lookup()
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return vfsoverlay.Clean(filepath.ToSlash(rel)), true
}

// isNotExist reports whether err means a missing path in either library
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

var _ vfsoverlay.FileSystem = (*Provider)(nil)
