package manifest

import "gopkg.in/yaml.v3"

type documentOut struct {
	Version          int        `yaml:"version"`
	CaseSensitive    *bool      `yaml:"case-sensitive,omitempty"`
	UseExternalNames *bool      `yaml:"use-external-names,omitempty"`
	OverlayRelative  *bool      `yaml:"overlay-relative,omitempty"`
	Fallthrough      *bool      `yaml:"fallthrough,omitempty"`
	RedirectingWith  *bool      `yaml:"redirecting-with,omitempty"`
	Roots            []entryOut `yaml:"roots"`
}

type entryOut struct {
	Name             string      `yaml:"name"`
	Type             EntryType   `yaml:"type"`
	UseExternalName  *bool       `yaml:"use-external-name,omitempty"`
	ExternalContents *string     `yaml:"external-contents,omitempty"`
	Contents         *[]entryOut `yaml:"contents,omitempty"`
}

// Marshal encodes m as a YAML manifest that [Parse] accepts. Options left
// unset in m stay unset in the output.
func Marshal(m *Manifest) ([]byte, error) {
	doc := documentOut{
		Version:          m.options.Version,
		CaseSensitive:    m.options.CaseSensitive,
		UseExternalNames: m.options.UseExternalNames,
		OverlayRelative:  m.options.OverlayRelative,
		Fallthrough:      m.options.Fallthrough,
		RedirectingWith:  m.options.RedirectingWith,
		Roots:            encodeEntries(m.roots),
	}
	return yaml.Marshal(&doc)
}

func encodeEntries(entries []Entry) []entryOut {
	out := make([]entryOut, 0, len(entries))
	for _, e := range entries {
		switch e := e.(type) {
		case *File:
			contents := e.externalContents
			out = append(out, entryOut{
				Name:             e.name,
				Type:             FileType,
				UseExternalName:  e.useExternalName,
				ExternalContents: &contents,
			})
		case *Directory:
			children := encodeEntries(e.contents)
			out = append(out, entryOut{
				Name:     e.name,
				Type:     DirectoryType,
				Contents: &children,
			})
		}
	}
	return out
}
