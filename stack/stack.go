// Package stack builds a composite overlay from configuration.
package stack

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/brettbedarf/vfsoverlay"
	"github.com/brettbedarf/vfsoverlay/composite"
	"github.com/brettbedarf/vfsoverlay/config"
	"github.com/brettbedarf/vfsoverlay/internal/util"
	"github.com/brettbedarf/vfsoverlay/providers"
	"github.com/brettbedarf/vfsoverlay/redirect"
)

// Layer is one configured provider of a stack
type Layer struct {
	Name string
	Type config.LayerType
	FS   vfsoverlay.FileSystem
}

// Stack is a composite filesystem together with the layers it was built from.
// Layers are bottom-up and index-aligned with FS.Providers().
type Stack struct {
	FS     *composite.FileSystem
	Layers []Layer
}

// Resolution describes which layer answers reads for a path
type Resolution struct {
	Layer Layer
	Index int

	// Backing path inside the base, for paths answered by a redirect layer
	RealPath   string
	Redirected bool
}

// Build validates cfg and creates its layers. Redirect layers read their
// manifest, and their redirected contents, through the base layer.
func Build(cfg *config.Config) (*Stack, error) {
	logger := util.GetLogger("Stack.Build")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layer configuration: %w", err)
	}

	base, err := newProvider(cfg.Base)
	if err != nil {
		return nil, fmt.Errorf("failed to create base layer: %w", err)
	}
	s := &Stack{
		FS:     composite.New(base),
		Layers: []Layer{{Name: layerName(cfg.Base), Type: cfg.Base.Type, FS: base}},
	}
	logger.Debug().Str("name", s.Layers[0].Name).Str("type", string(cfg.Base.Type)).Msg("Created base layer")

	for i, lc := range cfg.Overlays {
		var fsys vfsoverlay.FileSystem
		if lc.Type == config.LayerRedirect {
			fsys, err = redirect.New(lc.Manifest, base)
		} else {
			fsys, err = newProvider(lc)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create overlay %d: %w", i, err)
		}

		layer := Layer{Name: layerName(lc), Type: lc.Type, FS: fsys}
		s.FS.AddOverlay(fsys)
		s.Layers = append(s.Layers, layer)
		logger.Debug().Str("name", layer.Name).Str("type", string(lc.Type)).Int("index", i+1).Msg("Created overlay layer")
	}

	logger.Info().Int("layers", len(s.Layers)).Msg("Built overlay stack")
	return s, nil
}

// Resolve reports the layer answering reads for name
func (s *Stack) Resolve(name string) (Resolution, bool) {
	_, idx, ok := s.FS.Owner(name)
	if !ok {
		return Resolution{Index: -1}, false
	}
	res := Resolution{Layer: s.Layers[idx], Index: idx}
	if rfs, ok := res.Layer.FS.(*redirect.FileSystem); ok {
		res.RealPath, res.Redirected = rfs.Resolve(name)
	}
	return res, true
}

func newProvider(lc config.LayerConfig) (*providers.Provider, error) {
	kind := providers.KindMemory
	if lc.Type == config.LayerLocal {
		kind = providers.KindLocal
	}
	return providers.New(kind, providers.Spec{Backend: lc.Backend, Root: lc.Root})
}

func layerName(lc config.LayerConfig) string {
	if lc.Name != "" {
		return lc.Name
	}
	return string(lc.Type) + "-" + uuid.NewString()[:8]
}
