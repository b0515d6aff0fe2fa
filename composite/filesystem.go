// Package composite stacks filesystems into one view. Reads are answered by
// the most recently added layer that has the path; every mutation goes to
// the base layer.
package composite

import (
	"fmt"
	"io/fs"
	"slices"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/internal/util"
)

// FileSystem is an ordered stack of providers. Index 0 is the base.
//
// Layers may be added with AddOverlay at any time, but adding concurrently
// with reads is not synchronized: finish registration before sharing the
// filesystem between goroutines. Provider errors are returned unwrapped.
type FileSystem struct {
	providers []vfsoverlay.FileSystem
}

// New creates a composite over base with overlays stacked above it in order
func New(base vfsoverlay.FileSystem, overlays ...vfsoverlay.FileSystem) *FileSystem {
	c := &FileSystem{providers: make([]vfsoverlay.FileSystem, 0, 1+len(overlays))}
	c.providers = append(c.providers, base)
	for _, o := range overlays {
		c.AddOverlay(o)
	}
	return c
}

// AddOverlay stacks fsys above every existing layer
func (c *FileSystem) AddOverlay(fsys vfsoverlay.FileSystem) {
	c.providers = append(c.providers, fsys)
	logger := util.GetLogger("Composite.AddOverlay")
	logger.Debug().
		Int("index", len(c.providers)-1).
		Str("provider", Describe(fsys)).
		Msg("Added overlay")
}

// Providers returns the layers bottom-up; index 0 is the base
func (c *FileSystem) Providers() []vfsoverlay.FileSystem {
	return slices.Clone(c.providers)
}

func (c *FileSystem) String() string {
	return fmt.Sprintf("composite(%d layers)", len(c.providers))
}

// Describe names a provider for logs and listings
func Describe(fsys vfsoverlay.FileSystem) string {
	if s, ok := fsys.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", fsys)
}

// Base returns the layer that receives all mutations
func (c *FileSystem) Base() vfsoverlay.FileSystem {
	return c.providers[0]
}

// Owner returns the layer that answers reads for name along with its index
func (c *FileSystem) Owner(name string) (vfsoverlay.FileSystem, int, bool) {
	for i := len(c.providers) - 1; i >= 0; i-- {
		if c.providers[i].Exists(name, true) {
			return c.providers[i], i, true
		}
	}
	return nil, -1, false
}

func (c *FileSystem) owner(name string) (vfsoverlay.FileSystem, bool) {
	p, _, ok := c.Owner(name)
	return p, ok
}

func (c *FileSystem) Exists(name string, followSymlink bool) bool {
	for i := len(c.providers) - 1; i >= 0; i-- {
		if c.providers[i].Exists(name, followSymlink) {
			return true
		}
	}
	return false
}

func (c *FileSystem) IsDirectory(name string) bool {
	p, ok := c.owner(name)
	return ok && p.IsDirectory(name)
}

func (c *FileSystem) IsFile(name string) bool {
	p, ok := c.owner(name)
	return ok && p.IsFile(name)
}

func (c *FileSystem) IsExecutableFile(name string) bool {
	p, ok := c.owner(name)
	return ok && p.IsExecutableFile(name)
}

func (c *FileSystem) IsSymlink(name string) bool {
	p, ok := c.owner(name)
	return ok && p.IsSymlink(name)
}

// ReadDir lists name from its owning layer only; listings are not merged
// across layers. A path no layer has lists as empty.
func (c *FileSystem) ReadDir(name string) ([]string, error) {
	p, ok := c.owner(name)
	if !ok {
		return []string{}, nil
	}
	return p.ReadDir(name)
}

func (c *FileSystem) ReadFile(name string) ([]byte, error) {
	p, ok := c.owner(name)
	if !ok {
		return nil, vfsoverlay.NoEntry(vfsoverlay.OpRead, vfsoverlay.Clean(name))
	}
	return p.ReadFile(name)
}

func (c *FileSystem) WriteFile(name string, data []byte) error {
	return c.Base().WriteFile(name, data)
}

func (c *FileSystem) Chmod(mode fs.FileMode, name string, recursive bool) error {
	return c.Base().Chmod(mode, name, recursive)
}

func (c *FileSystem) RemoveAll(name string) error {
	return c.Base().RemoveAll(name)
}

func (c *FileSystem) Mkdir(name string, recursive bool) error {
	return c.Base().Mkdir(name, recursive)
}

func (c *FileSystem) Symlink(name, target string, relative bool) error {
	return c.Base().Symlink(name, target, relative)
}

func (c *FileSystem) Copy(src, dst string) error {
	return c.Base().Copy(src, dst)
}

func (c *FileSystem) Move(src, dst string) error {
	return c.Base().Move(src, dst)
}

func (c *FileSystem) Getwd() (string, bool) {
	return c.Base().Getwd()
}

func (c *FileSystem) Chdir(name string) error {
	return c.Base().Chdir(name)
}

func (c *FileSystem) HomeDir() string {
	return c.Base().HomeDir()
}

func (c *FileSystem) CachesDir() (string, bool) {
	return c.Base().CachesDir()
}

var _ vfsoverlay.FileSystem = (*FileSystem)(nil)
