package message

import (
	"sync"

	"github.com/madbomber/smart-message-sub002/pkg/errors"
)

// Registry maps class-name strings to their descriptors. It is the
// central lookup used when decoding an envelope whose wire header names
// a class by string. A process normally uses the package-level default
// registry via Register/Describe, but tests may construct their own.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]*ClassDescriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*ClassDescriptor)}
}

// Register adds or replaces the descriptor for desc.Name.
func (r *Registry) Register(desc *ClassDescriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[desc.Name] = desc
}

// Describe looks up a class descriptor by name.
func (r *Registry) Describe(class string) (*ClassDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[class]
	if !ok {
		return nil, errors.NotFound("unknown message class: "+class, nil)
	}
	return d, nil
}

// defaultRegistry is the process-wide registry used by Register/Describe.
var defaultRegistry = NewRegistry()

// Register adds desc to the default registry.
func Register(desc *ClassDescriptor) {
	defaultRegistry.Register(desc)
}

// Describe looks up a class descriptor in the default registry.
func Describe(class string) (*ClassDescriptor, error) {
	return defaultRegistry.Describe(class)
}

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}
