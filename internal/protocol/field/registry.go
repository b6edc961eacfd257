package field

import (
	"fmt"
	"strings"
	"sync"
)

// MaxFields is the number of distinct one-byte tags.
const MaxFields = 256

// Registry assigns tags sequentially from 0 in declaration order.
// Tags are dense, never reused and never renumbered.
type Registry struct {
	mu     sync.RWMutex
	fields []Field
	names  map[string]uint8
}

func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]uint8),
	}
}

// Declare adds an unnamed field with the given payload width.
func (r *Registry) Declare(width int) (Field, error) {
	return r.DeclareNamed("", width)
}

// DeclareNamed adds a field; a non-empty name must be unique within the registry.
func (r *Registry) DeclareNamed(name string, width int) (Field, error) {
	name = strings.TrimSpace(name)
	if width < 0 {
		return Field{}, fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	if width > MaxWidth {
		return Field{}, fmt.Errorf("%w: %d > %d", ErrWidthTooLarge, width, MaxWidth)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.fields) >= MaxFields {
		return Field{}, ErrRegistryFull
	}
	if name != "" {
		if _, exists := r.names[name]; exists {
			return Field{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
	}
	f := Field{tag: uint8(len(r.fields)), width: width, name: name}
	r.fields = append(r.fields, f)
	if name != "" {
		r.names[name] = f.tag
	}
	return f, nil
}

// MustDeclare is Declare for static initialization; it panics on error.
func (r *Registry) MustDeclare(width int) Field {
	f, err := r.Declare(width)
	if err != nil {
		panic(err)
	}
	return f
}

func (r *Registry) Lookup(tag uint8) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(tag) >= len(r.fields) {
		return Field{}, false
	}
	return r.fields[tag], true
}

func (r *Registry) ByName(name string) (Field, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tag, ok := r.names[strings.TrimSpace(name)]
	if !ok {
		return Field{}, false
	}
	return r.fields[tag], true
}

// Fields returns a copy of all declared fields in tag order.
func (r *Registry) Fields() []Field {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.fields)
}
