package dispatch

import (
	"fmt"
	"sort"
	"strings"
)

// Handler transforms a decoded request value into a result value.
// Implementations must be safe for concurrent use.
type Handler interface {
	Handle(value uint64) uint64
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(value uint64) uint64

func (f HandlerFunc) Handle(value uint64) uint64 { return f(value) }

// Named is a Handler with a stable catalogue name.
type Named struct {
	name string
	fn   HandlerFunc
}

func NewNamed(name string, fn HandlerFunc) Named {
	return Named{name: name, fn: fn}
}

func (n Named) Handle(value uint64) uint64 { return n.fn(value) }

func (n Named) Name() string { return n.name }

// Builtin handlers.
var (
	Identity  = NewNamed("identity", func(v uint64) uint64 { return v })
	Double    = NewNamed("double", func(v uint64) uint64 { return 2 * v })
	Triple    = NewNamed("triple", func(v uint64) uint64 { return 3 * v })
	Increment = NewNamed("increment", func(v uint64) uint64 { return v + 1 })
	Zero      = NewNamed("zero", func(uint64) uint64 { return 0 })
)

var catalogue = map[string]Named{
	Identity.name:  Identity,
	Double.name:    Double,
	Triple.name:    Triple,
	Increment.name: Increment,
	Zero.name:      Zero,
}

// Lookup returns the builtin handler registered under name.
func Lookup(name string) (Handler, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	h, ok := catalogue[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
	return h, nil
}

// HandlerNames lists the builtin catalogue in sorted order.
func HandlerNames() []string {
	out := make([]string, 0, len(catalogue))
	for name := range catalogue {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HandlerName reports a handler's catalogue name, or "custom".
func HandlerName(h Handler) string {
	if n, ok := h.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}
