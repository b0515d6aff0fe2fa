package manifest

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/internal/util"
)

// document is the wire representation of the manifest header. Entries are
// kept as raw nodes so each one can be decoded after its type is known.
type document struct {
	CaseSensitive    *bool      `yaml:"case-sensitive"`
	UseExternalNames *bool      `yaml:"use-external-names"`
	OverlayRelative  *bool      `yaml:"overlay-relative"`
	Fallthrough      *bool      `yaml:"fallthrough"`
	RedirectingWith  *bool      `yaml:"redirecting-with"`
	Version          *int       `yaml:"version"`
	Roots            *yaml.Node `yaml:"roots"`
}

type entryHeader struct {
	Name *string    `yaml:"name"`
	Type *EntryType `yaml:"type"`
}

type filePayload struct {
	ExternalContents *string `yaml:"external-contents"`
	UseExternalName  *bool   `yaml:"use-external-name"`
}

type directoryPayload struct {
	Contents *yaml.Node `yaml:"contents"`
}

// Parse decodes manifest bytes. It either returns a complete manifest or a
// [*ParseError]; no partially built tree is ever returned.
func Parse(data []byte) (*Manifest, error) {
	logger := util.GetLogger("Manifest.Parse")

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{Msg: "malformed manifest document", Err: err}
	}
	if doc.Version == nil {
		return nil, missingField("", 0, "version")
	}
	if doc.Roots == nil {
		return nil, missingField("", 0, "roots")
	}

	roots, err := decodeEntries(doc.Roots, "roots")
	if err != nil {
		return nil, err
	}

	m := &Manifest{
		options: Options{
			CaseSensitive:    doc.CaseSensitive,
			UseExternalNames: doc.UseExternalNames,
			OverlayRelative:  doc.OverlayRelative,
			Fallthrough:      doc.Fallthrough,
			RedirectingWith:  doc.RedirectingWith,
			Version:          *doc.Version,
		},
		roots: roots,
	}
	logger.Trace().Int("version", *doc.Version).Int("roots", len(roots)).Msg("Parsed manifest")
	return m, nil
}

// ParseFile reads the manifest at path through fsys and parses it. Read
// errors are returned as-is.
func ParseFile(fsys vfsoverlay.FileSystem, path string) (*Manifest, error) {
	data, err := fsys.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func decodeEntries(node *yaml.Node, field string) ([]Entry, error) {
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Field: field, Line: node.Line, Msg: "expected a sequence of entries"}
	}
	entries := make([]Entry, 0, len(node.Content))
	for i, child := range node.Content {
		entry, err := decodeEntry(child, fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// decodeEntry reads the name and type discriminator first, then decodes the
// payload that belongs to that variant only.
func decodeEntry(node *yaml.Node, field string) (Entry, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Field: field, Line: node.Line, Msg: "expected an entry mapping"}
	}

	var hdr entryHeader
	if err := node.Decode(&hdr); err != nil {
		return nil, &ParseError{Field: field, Line: node.Line, Msg: "malformed entry", Err: err}
	}
	if hdr.Name == nil {
		return nil, missingField(field, node.Line, "name")
	}
	if *hdr.Name == "" {
		return nil, &ParseError{Field: field + ".name", Line: node.Line, Msg: "name must not be empty"}
	}
	if hdr.Type == nil {
		return nil, missingField(field, node.Line, "type")
	}

	switch *hdr.Type {
	case FileType:
		var p filePayload
		if err := node.Decode(&p); err != nil {
			return nil, &ParseError{Field: field, Line: node.Line, Msg: "malformed file entry", Err: err}
		}
		if p.ExternalContents == nil {
			return nil, missingField(field, node.Line, "external-contents")
		}
		return &File{name: *hdr.Name, externalContents: *p.ExternalContents, useExternalName: p.UseExternalName}, nil

	case DirectoryType:
		var p directoryPayload
		if err := node.Decode(&p); err != nil {
			return nil, &ParseError{Field: field, Line: node.Line, Msg: "malformed directory entry", Err: err}
		}
		if p.Contents == nil {
			return nil, missingField(field, node.Line, "contents")
		}
		children, err := decodeEntries(p.Contents, field+".contents")
		if err != nil {
			return nil, err
		}
		return &Directory{name: *hdr.Name, contents: children}, nil

	default:
		return nil, &ParseError{
			Field: field + ".type",
			Line:  node.Line,
			Msg:   fmt.Sprintf("unknown entry type %q (want %q or %q)", *hdr.Type, FileType, DirectoryType),
		}
	}
}

func missingField(parent string, line int, name string) *ParseError {
	field := name
	if parent != "" {
		field = parent + "." + name
	}
	return &ParseError{Field: field, Line: line, Msg: "missing required field"}
}
