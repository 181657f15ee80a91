package params

import (
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/goliatone/go-params/internal/clone"
	"github.com/google/uuid"
)

// AnyParameter is the type-erased view of a Parameter held by catalogs.
type AnyParameter interface {
	// Name returns the catalog name, empty for anonymous parameters.
	Name() string
	// ID returns the parameter's process-unique identity.
	ID() uuid.UUID
	// Describe returns the introspectable summary.
	Describe() Descriptor
	// Peek reports the calling context's effective value without
	// materializing a stack.
	Peek() (any, error)
	// Released reports whether the parameter has been torn down.
	Released() bool
}

// Descriptor summarises a parameter for listings and tooling.
type Descriptor struct {
	Name         string `json:"name,omitempty"`
	ID           string `json:"id"`
	Type         string `json:"type"`
	Default      any    `json:"default,omitempty"`
	HasConverter bool   `json:"has_converter"`
	Contexts     int    `json:"contexts"`
}

// Describe returns the parameter's descriptor. The default is deep-cloned;
// Contexts counts execution contexts currently holding a stack.
func (p *Parameter[T]) Describe() Descriptor {
	var zero T
	contexts := 0
	p.cells.Range(func(_, _ any) bool {
		contexts++
		return true
	})
	return Descriptor{
		Name:         p.name,
		ID:           p.id.String(),
		Type:         reflect.TypeOf(&zero).Elem().String(),
		Default:      clone.Value(any(p.def)),
		HasConverter: p.convert != nil,
		Contexts:     contexts,
	}
}

// Catalog is a directory of named parameters. Registration happens through
// New with WithName; entries disappear when their parameter is released.
type Catalog struct {
	mu     sync.RWMutex
	params map[string]AnyParameter
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		params: make(map[string]AnyParameter),
	}
}

var defaultCatalog = NewCatalog()

// DefaultCatalog returns the catalog New registers named parameters in when
// no WithCatalog option is given.
func DefaultCatalog() *Catalog {
	return defaultCatalog
}

func (c *Catalog) register(p AnyParameter) error {
	name := p.Name()
	if name == "" {
		return fmt.Errorf("params: catalog name must not be empty")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.params == nil {
		c.params = make(map[string]AnyParameter)
	}
	if _, exists := c.params[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	c.params[name] = p
	return nil
}

func (c *Catalog) unregister(name string, id uuid.UUID) {
	if name == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.params[name]; ok && existing.ID() == id {
		delete(c.params, name)
	}
}

// Lookup returns the parameter registered under name.
func (c *Catalog) Lookup(name string) (AnyParameter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.params[name]
	return p, ok
}

// List returns descriptors for every registered parameter sorted by name.
func (c *Catalog) List() []Descriptor {
	c.mu.RLock()
	names := make([]string, 0, len(c.params))
	for name := range c.params {
		names = append(names, name)
	}
	entries := make(map[string]AnyParameter, len(c.params))
	for name, p := range c.params {
		entries[name] = p
	}
	c.mu.RUnlock()

	sort.Strings(names)
	descriptors := make([]Descriptor, 0, len(names))
	for _, name := range names {
		descriptors = append(descriptors, entries[name].Describe())
	}
	return descriptors
}

// Len reports the number of registered parameters.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.params)
}

// Lookup finds a named parameter in the default catalog.
func Lookup(name string) (AnyParameter, bool) {
	return defaultCatalog.Lookup(name)
}

// List returns descriptors from the default catalog sorted by name.
func List() []Descriptor {
	return defaultCatalog.List()
}
