package manifest

import (
	"iter"
	"slices"
)

// EntryType is the "type" discriminator of a manifest entry
type EntryType string

const (
	FileType      EntryType = "file"
	DirectoryType EntryType = "directory"
)

// Entry is one node of the manifest's mapping tree: either a [*File] or a
// [*Directory]. The set of implementations is closed.
type Entry interface {
	// Name is a literal path segment or, typically for roots, a full absolute
	// virtual path
	Name() string
	Type() EntryType
	isEntry()
}

// File maps a virtual name to real content named by its external-contents
type File struct {
	name             string
	externalContents string
	useExternalName  *bool
}

// NewFile returns a file entry. useExternalName may be nil to inherit the
// manifest-wide use-external-names option.
func NewFile(name, externalContents string, useExternalName *bool) *File {
	f := &File{name: name, externalContents: externalContents}
	if useExternalName != nil {
		v := *useExternalName
		f.useExternalName = &v
	}
	return f
}

func (f *File) Name() string    { return f.name }
func (f *File) Type() EntryType { return FileType }
func (*File) isEntry()          {}

// ExternalContents returns the locator of the real file backing this entry
func (f *File) ExternalContents() string {
	return f.externalContents
}

// UseExternalName returns the per-entry override and whether one was set
func (f *File) UseExternalName() (value, ok bool) {
	if f.useExternalName == nil {
		return false, false
	}
	return *f.useExternalName, true
}

// Directory is a routing node holding an ordered list of child entries.
// Order matters: sibling entries resolving to the same path are matched
// first-declared-first.
type Directory struct {
	name     string
	contents []Entry
}

// NewDirectory returns a directory entry owning a copy of contents
func NewDirectory(name string, contents ...Entry) *Directory {
	return &Directory{name: name, contents: append(make([]Entry, 0, len(contents)), contents...)}
}

func (d *Directory) Name() string    { return d.name }
func (d *Directory) Type() EntryType { return DirectoryType }
func (*Directory) isEntry()          {}

// Contents returns a copy of the directory's children in declared order
func (d *Directory) Contents() []Entry {
	return slices.Clone(d.contents)
}

// All iterates the directory's children in declared order without copying
func (d *Directory) All() iter.Seq[Entry] {
	return slices.Values(d.contents)
}

// Len returns the number of children
func (d *Directory) Len() int {
	return len(d.contents)
}
