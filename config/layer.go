package config

import (
	"errors"
	"fmt"

	"github.com/brettbedarf/vfsoverlay/providers"
)

// LayerType selects what a layer of the stack is built from
type LayerType string

const (
	LayerLocal    LayerType = "local"    // host directory
	LayerMemory   LayerType = "memory"   // empty in-memory filesystem
	LayerRedirect LayerType = "redirect" // overlay manifest read through the base layer
)

// LayerConfig describes one layer of the composite stack
type LayerConfig struct {
	Name     string            `yaml:"name,omitempty" json:"name,omitempty"`         // Display name; generated when empty
	Type     LayerType         `yaml:"type" json:"type"`                             // local, memory or redirect
	Backend  providers.Backend `yaml:"backend,omitempty" json:"backend,omitempty"`   // billy (default) or afero
	Root     string            `yaml:"root,omitempty" json:"root,omitempty"`         // Host directory for local layers (Default "/")
	Manifest string            `yaml:"manifest,omitempty" json:"manifest,omitempty"` // Manifest path for redirect layers
}

// Validate checks a layer. base reports whether it is the bottom layer,
// which cannot be a redirect layer since manifests are read through it.
func (l LayerConfig) Validate(base bool) error {
	switch l.Type {
	case LayerLocal, LayerMemory:
		if l.Manifest != "" {
			return fmt.Errorf("layer %q: manifest is only valid for redirect layers", l.Name)
		}
	case LayerRedirect:
		if base {
			return errors.New("base layer cannot be a redirect layer")
		}
		if l.Manifest == "" {
			return fmt.Errorf("layer %q: redirect layer requires a manifest", l.Name)
		}
	default:
		return fmt.Errorf("layer %q: unknown layer type: %q", l.Name, l.Type)
	}

	switch l.Backend {
	case "", providers.BackendBilly, providers.BackendAfero:
	default:
		return fmt.Errorf("layer %q: unknown backend: %q", l.Name, l.Backend)
	}
	return nil
}
