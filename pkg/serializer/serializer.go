// Package serializer defines the symmetric encode/decode contract between
// a wire envelope and bytes, plus a registry so a transport can choose a
// codec by the stable string identifier carried in the envelope header.
package serializer

import (
	"sync"

	"github.com/madbomber/smart-message-sub002/pkg/errors"
	"github.com/madbomber/smart-message-sub002/pkg/message"
)

// Serializer converts between a message.Envelope and bytes. Encode and
// Decode must be mutual inverses: encode ∘ decode = identity on any
// valid envelope. Implementations MUST be safe for concurrent use — the
// dispatcher and transports call a single instance from many goroutines.
type Serializer interface {
	Name() string
	Encode(env message.Envelope) ([]byte, error)
	Decode(data []byte) (message.Envelope, error)
}

// Registry maps a serializer's Name() to its instance, so a transport or
// decode path can pick the codec named by an envelope header or a
// transport's configured default.
type Registry struct {
	mu    sync.RWMutex
	byName map[string]Serializer
}

// NewRegistry creates an empty serializer registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Serializer)}
}

// Register adds s under s.Name(), replacing any existing entry.
func (r *Registry) Register(s Serializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[s.Name()] = s
}

// Get looks up a serializer by name.
func (r *Registry) Get(name string) (Serializer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[name]
	if !ok {
		return nil, errors.New("SERIALIZER_NOT_FOUND", "no serializer registered for: "+name, nil)
	}
	return s, nil
}

var defaultRegistry = NewRegistry()

// Register adds s to the default registry.
func Register(s Serializer) { defaultRegistry.Register(s) }

// Get looks up a serializer in the default registry.
func Get(name string) (Serializer, error) { return defaultRegistry.Get(name) }

// DefaultRegistry returns the process-wide serializer registry.
func DefaultRegistry() *Registry { return defaultRegistry }
