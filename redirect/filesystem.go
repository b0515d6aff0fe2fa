// Package redirect implements a read-only filesystem that serves virtual
// paths declared in an overlay manifest from real files on a backing
// provider.
package redirect

import (
	"iter"
	"path"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/internal/util"
	"github.com/brettbedarf/vfsoverlay/manifest"
)

// FileSystem resolves queries through one manifest's entry tree and
// delegates content access to its backing provider. Its state never changes
// after construction, so it is safe for concurrent use.
type FileSystem struct {
	manifest *manifest.Manifest
	backing  vfsoverlay.FileSystem

	prefixDir string // Directory containing the manifest; empty if unknown

	useExternalNames bool
	overlayRelative  bool
}

// New reads the manifest at manifestPath through fsys and builds a
// redirecting filesystem over fsys. A relative manifestPath is resolved
// against the working directory of fsys; if fsys has none, the manifest's
// directory is unknown and overlay-relative contents are treated as absolute.
func New(manifestPath string, fsys vfsoverlay.FileSystem) (*FileSystem, error) {
	logger := util.GetLogger("Redirect.New")

	readPath := manifestPath
	prefixDir := ""
	if vfsoverlay.IsAbs(manifestPath) {
		readPath = vfsoverlay.Clean(manifestPath)
		prefixDir = path.Dir(readPath)
	} else if cwd, ok := fsys.Getwd(); ok {
		readPath = vfsoverlay.Join(cwd, manifestPath)
		prefixDir = path.Dir(readPath)
	} else {
		logger.Debug().Str("manifest", manifestPath).Msg("No working directory, manifest directory unknown")
	}

	m, err := manifest.ParseFile(fsys, readPath)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("manifest", readPath).Msg("Loaded manifest")
	return NewFromManifest(m, prefixDir, fsys), nil
}

// NewFromBytes parses data as a manifest. prefixDir is the directory
// overlay-relative contents resolve against; pass "" when unknown.
func NewFromBytes(data []byte, prefixDir string, fsys vfsoverlay.FileSystem) (*FileSystem, error) {
	m, err := manifest.Parse(data)
	if err != nil {
		return nil, err
	}
	return NewFromManifest(m, prefixDir, fsys), nil
}

// NewFromManifest wraps an already parsed manifest
func NewFromManifest(m *manifest.Manifest, prefixDir string, fsys vfsoverlay.FileSystem) *FileSystem {
	logger := util.GetLogger("Redirect.NewFromManifest")

	opts := m.Options()
	rfs := &FileSystem{
		manifest:         m,
		backing:          fsys,
		useExternalNames: opts.EffectiveUseExternalNames(),
		overlayRelative:  opts.EffectiveOverlayRelative(),
	}
	if prefixDir != "" {
		rfs.prefixDir = vfsoverlay.Clean(prefixDir)
	}

	logger.Debug().
		Int("version", opts.Version).
		Bool("useExternalNames", rfs.useExternalNames).
		Bool("overlayRelative", rfs.overlayRelative).
		Str("prefixDir", rfs.prefixDir).
		Msg("Created redirecting filesystem")

	if opts.CaseSensitive != nil && !*opts.CaseSensitive {
		logger.Warn().Msg("Manifest requests case-insensitive matching, paths are matched case-sensitively")
	}
	if opts.Fallthrough != nil && !*opts.Fallthrough {
		logger.Warn().Msg("Manifest disables fallthrough, lower layers still answer unmatched paths")
	}
	return rfs
}

// Manifest returns the parsed manifest
func (rfs *FileSystem) Manifest() *manifest.Manifest {
	return rfs.manifest
}

func (rfs *FileSystem) String() string {
	return "redirect"
}

// PrefixDir returns the directory overlay-relative contents resolve against
func (rfs *FileSystem) PrefixDir() (string, bool) {
	return rfs.prefixDir, rfs.prefixDir != ""
}

// Lookup finds the first entry, depth-first in declared order, whose virtual
// path equals name. Root names that are absolute paths mount at that path;
// every other name is a segment under its parent ("/" for roots).
func (rfs *FileSystem) Lookup(name string) (manifest.Entry, bool) {
	query := vfsoverlay.Clean(name)
	entry := lookup(rfs.manifest.AllRoots(), vfsoverlay.Root, query)
	logger := util.GetLogger("Redirect.Lookup")
	logger.Trace().
		Str("path", query).
		Bool("found", entry != nil).
		Msg("Looked up virtual path")
	return entry, entry != nil
}

func lookup(entries iter.Seq[manifest.Entry], parent, query string) manifest.Entry {
	for entry := range entries {
		virtual := virtualPath(parent, entry.Name())
		if virtual == query {
			return entry
		}
		dir, ok := entry.(*manifest.Directory)
		if !ok || !vfsoverlay.IsAncestorOrEqual(virtual, query) {
			continue
		}
		if match := lookup(dir.All(), virtual, query); match != nil {
			return match
		}
	}
	return nil
}

func virtualPath(parent, name string) string {
	if vfsoverlay.IsAbs(name) {
		return vfsoverlay.Clean(name)
	}
	return vfsoverlay.Join(parent, name)
}

// RealPath returns the backing path of a file entry. Directories are routing
// nodes only and never have one.
func (rfs *FileSystem) RealPath(entry manifest.Entry) (string, bool) {
	file, ok := entry.(*manifest.File)
	if !ok {
		return "", false
	}

	useExternal := rfs.useExternalNames
	if v, set := file.UseExternalName(); set {
		useExternal = v
	}
	target := file.Name()
	if useExternal {
		target = file.ExternalContents()
	}

	if rfs.overlayRelative && rfs.prefixDir != "" {
		return vfsoverlay.Join(rfs.prefixDir, target), true
	}
	return vfsoverlay.Clean(target), true
}

// Resolve maps a virtual path straight to its backing path
func (rfs *FileSystem) Resolve(name string) (string, bool) {
	entry, ok := rfs.Lookup(name)
	if !ok {
		return "", false
	}
	return rfs.RealPath(entry)
}

var _ vfsoverlay.FileSystem = (*FileSystem)(nil)
