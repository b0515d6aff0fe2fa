// Package manifest decodes the declarative overlay manifest: global options
// plus an immutable tree of file and directory entries mapping virtual paths
// to real ones.
//
// The document is YAML (JSON is accepted as a subset):
//
//	version: 0
//	use-external-names: true
//	overlay-relative: false
//	roots:
//	  - name: /a/
//	    type: directory
//	    contents:
//	      - name: a.x
//	        type: file
//	        external-contents: /a/b.x
package manifest

import (
	"iter"
	"slices"
)

// Defaults for optional manifest options
const (
	DefaultUseExternalNames = true
	DefaultOverlayRelative  = false
)

// Options are the global manifest flags. Unset flags are nil.
//
// CaseSensitive, Fallthrough and RedirectingWith are decoded for manifest
// compatibility but no lookup rule consults them.
type Options struct {
	CaseSensitive    *bool
	UseExternalNames *bool
	OverlayRelative  *bool
	Fallthrough      *bool
	RedirectingWith  *bool
	Version          int
}

// EffectiveUseExternalNames resolves use-external-names against its default
func (o Options) EffectiveUseExternalNames() bool {
	if o.UseExternalNames == nil {
		return DefaultUseExternalNames
	}
	return *o.UseExternalNames
}

// EffectiveOverlayRelative resolves overlay-relative against its default
func (o Options) EffectiveOverlayRelative() bool {
	if o.OverlayRelative == nil {
		return DefaultOverlayRelative
	}
	return *o.OverlayRelative
}

// Manifest is a parsed overlay manifest. It is never mutated after
// construction and is safe for concurrent reads.
type Manifest struct {
	options Options
	roots   []Entry
}

// New builds a manifest from already constructed entries
func New(opts Options, roots ...Entry) *Manifest {
	return &Manifest{options: cloneOptions(opts), roots: append(make([]Entry, 0, len(roots)), roots...)}
}

// Options returns a copy of the manifest's global options
func (m *Manifest) Options() Options {
	return cloneOptions(m.options)
}

// Roots returns a copy of the top-level entries in declared order
func (m *Manifest) Roots() []Entry {
	return slices.Clone(m.roots)
}

// AllRoots iterates the top-level entries in declared order without copying
func (m *Manifest) AllRoots() iter.Seq[Entry] {
	return slices.Values(m.roots)
}

func cloneOptions(o Options) Options {
	return Options{
		CaseSensitive:    clonePtr(o.CaseSensitive),
		UseExternalNames: clonePtr(o.UseExternalNames),
		OverlayRelative:  clonePtr(o.OverlayRelative),
		Fallthrough:      clonePtr(o.Fallthrough),
		RedirectingWith:  clonePtr(o.RedirectingWith),
		Version:          o.Version,
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
