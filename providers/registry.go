package providers

import (
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"

	"github.com/brettbedarf/vfsoverlay/internal/util"
)

// Backend selects the filesystem library behind a provider
type Backend string

const (
	BackendBilly Backend = "billy"
	BackendAfero Backend = "afero"
)

// DefaultBackend is used when a Spec leaves Backend empty
const DefaultBackend = BackendBilly

// Spec describes a provider to create through the registry
type Spec struct {
	Backend Backend
	Root    string // Host directory for on-disk kinds
	Options []Option
}

// Factory creates a provider from a Spec
type Factory func(spec Spec) (*Provider, error)

var factories = xsync.NewMap[Kind, Factory]()

// Register adds a factory for kind. The first registration wins; it reports
// false when kind was already registered.
func Register(kind Kind, factory Factory) bool {
	_, loaded := factories.LoadOrStore(kind, factory)
	if !loaded {
		logger := util.GetLogger("Providers.Register")
		logger.Debug().Str("kind", string(kind)).Msg("Registered provider kind")
	}
	return !loaded
}

// New creates a provider of a registered kind
func New(kind Kind, spec Spec) (*Provider, error) {
	factory, ok := factories.Load(kind)
	if !ok {
		return nil, fmt.Errorf("unknown provider kind: %s", kind)
	}
	if spec.Backend == "" {
		spec.Backend = DefaultBackend
	}
	return factory(spec)
}

// Kinds lists registered provider kinds, sorted
func Kinds() []Kind {
	kinds := make([]Kind, 0, factories.Size())
	factories.Range(func(k Kind, _ Factory) bool {
		kinds = append(kinds, k)
		return true
	})
	slices.Sort(kinds)
	return kinds
}
