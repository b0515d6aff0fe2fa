package providers

import "fmt"

func init() {
	Register(KindMemory, newMemoryFromSpec)
	Register(KindLocal, newLocalFromSpec)
}

func newMemoryFromSpec(spec Spec) (*Provider, error) {
	switch spec.Backend {
	case BackendBilly:
		return NewMemory(spec.Options...), nil
	case BackendAfero:
		return NewAferoMemory(spec.Options...), nil
	default:
		return nil, fmt.Errorf("unknown backend: %s", spec.Backend)
	}
}

func newLocalFromSpec(spec Spec) (*Provider, error) {
	root := spec.Root
	if root == "" {
		root = "/"
	}
	switch spec.Backend {
	case BackendBilly:
		return NewLocal(root, spec.Options...)
	case BackendAfero:
		return NewAferoLocal(root, spec.Options...)
	default:
		return nil, fmt.Errorf("unknown backend: %s", spec.Backend)
	}
}
