package serial

import (
	"fmt"
	"sort"
)

// TypeInfo describes one serializable type.
type TypeInfo struct {
	Name string
	// Parent contributes its attributes ahead of Attrs.
	Parent *TypeInfo
	// Attrs lists the type's own persisted attributes.
	Attrs []string
	// New allocates a blank instance without running constructor logic.
	// Nil marks an abstract type.
	New func() Object
	// FromDescriptor rebuilds an instance from its inline descriptor,
	// typically through a cache keyed by the same descriptor.
	FromDescriptor func(fields map[string]any) (Object, error)
}

// Attributes returns the full attribute list, ancestors first.
func (t *TypeInfo) Attributes() []string {
	if t.Parent == nil {
		return append([]string(nil), t.Attrs...)
	}
	return append(t.Parent.Attributes(), t.Attrs...)
}

// Registry is the closed allow-list of types that may be built from
// external data. Single-goroutine, like the World that owns it.
type Registry struct {
	types map[string]*TypeInfo
}

func NewRegistry() *Registry {
	return &Registry{types: make(map[string]*TypeInfo, 32)}
}

// Register adds t and, first, any of its ancestors that are missing.
// Registering the same TypeInfo twice is a no-op.
func (r *Registry) Register(t *TypeInfo) error {
	if t == nil || t.Name == "" {
		return fmt.Errorf("register: type has no name")
	}
	if t.Parent != nil {
		if err := r.Register(t.Parent); err != nil {
			return err
		}
	}
	if prev, ok := r.types[t.Name]; ok {
		if prev == t {
			return nil
		}
		return fmt.Errorf("%w: %s", ErrDuplicateType, t.Name)
	}
	r.types[t.Name] = t
	return nil
}

// MustRegister panics on registration conflicts. Meant for wiring code.
func (r *Registry) MustRegister(types ...*TypeInfo) {
	for _, t := range types {
		if err := r.Register(t); err != nil {
			panic(err)
		}
	}
}

func (r *Registry) Allowed(name string) bool {
	_, ok := r.types[name]
	return ok
}

func (r *Registry) Lookup(name string) (*TypeInfo, bool) {
	t, ok := r.types[name]
	return t, ok
}

// Attributes returns the declared attributes of a registered type.
func (r *Registry) Attributes(name string) ([]string, error) {
	t, ok := r.types[name]
	if !ok {
		return nil, &UnauthorizedTypeError{Type: name}
	}
	return t.Attributes(), nil
}

// Names returns the registered type names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for n := range r.types {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Count() int {
	return len(r.types)
}
