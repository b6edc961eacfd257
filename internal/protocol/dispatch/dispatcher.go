package dispatch

import (
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/danmuck/tagwire/internal/observability"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/rs/zerolog/log"
)

// Bindings maps tags to the handlers installed at construction.
type Bindings map[uint8]Handler

type binding struct {
	handler Handler
}

type slot struct {
	field   field.Field
	current atomic.Pointer[binding]
}

// Dispatcher owns a tag -> handler table. The field set is fixed when the
// dispatcher is built; fields declared on the registry afterwards are
// unknown to it.
type Dispatcher struct {
	reg   *field.Registry
	slots []*slot
}

// New binds every registry field to its handler in defaults. A field with
// no default is a configuration error.
func New(reg *field.Registry, defaults Bindings) (*Dispatcher, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	fields := reg.Fields()
	for tag := range defaults {
		if int(tag) >= len(fields) {
			return nil, UnknownTagError{Tag: tag}
		}
	}
	d := &Dispatcher{
		reg:   reg,
		slots: make([]*slot, len(fields)),
	}
	for i, f := range fields {
		h := defaults[f.Tag()]
		if h == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnboundTag, f)
		}
		s := &slot{field: f}
		s.current.Store(&binding{handler: h})
		d.slots[i] = s
	}
	return d, nil
}

// NewWithDefault binds h to every declared field.
func NewWithDefault(reg *field.Registry, h Handler) (*Dispatcher, error) {
	if reg == nil {
		return nil, ErrNilRegistry
	}
	if h == nil {
		return nil, ErrNilHandler
	}
	defaults := make(Bindings, reg.Len())
	for _, f := range reg.Fields() {
		defaults[f.Tag()] = h
	}
	return New(reg, defaults)
}

func (d *Dispatcher) Registry() *field.Registry { return d.reg }

// Fields returns the fields this dispatcher routes, in tag order.
func (d *Dispatcher) Fields() []field.Field {
	out := make([]field.Field, len(d.slots))
	for i, s := range d.slots {
		out[i] = s.field
	}
	return out
}

func (d *Dispatcher) lookup(tag uint8) (*slot, error) {
	if int(tag) >= len(d.slots) {
		return nil, UnknownTagError{Tag: tag}
	}
	return d.slots[tag], nil
}

// Field returns the field routed under tag.
func (d *Dispatcher) Field(tag uint8) (field.Field, bool) {
	s, err := d.lookup(tag)
	if err != nil {
		return field.Field{}, false
	}
	return s.field, true
}

// Handler returns the handler currently bound to tag.
func (d *Dispatcher) Handler(tag uint8) (Handler, bool) {
	s, err := d.lookup(tag)
	if err != nil {
		return nil, false
	}
	return s.current.Load().handler, true
}

// Resolve decodes input as tag ++ payload, runs the bound handler and
// returns tag ++ encoded result. An absent payload is handled as value 0.
func (d *Dispatcher) Resolve(input []byte) ([]byte, error) {
	if len(input) == 0 {
		observability.RecordResolve("none", observability.ResolveEmpty)
		return nil, ErrEmptyRequest
	}
	s, err := d.lookup(input[0])
	if err != nil {
		observability.RecordResolve(tagLabel(input[0]), observability.ResolveUnknownTag)
		return nil, err
	}
	return d.resolve(s, input[1:])
}

func (d *Dispatcher) resolve(s *slot, payload []byte) ([]byte, error) {
	b := s.current.Load()
	value, _ := s.field.Decode(payload)
	result := b.handler.Handle(value)
	out, err := s.field.Encode(result)
	if err != nil {
		observability.RecordResolve(tagLabel(s.field.Tag()), observability.ResolveEncodeError)
		return nil, err
	}
	observability.RecordResolve(tagLabel(s.field.Tag()), observability.ResolveOK)
	return out, nil
}

// Replace atomically swaps the handler bound to tag. Resolves already
// holding the previous handler finish with it.
func (d *Dispatcher) Replace(tag uint8, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	s, err := d.lookup(tag)
	if err != nil {
		return err
	}
	prev := s.current.Swap(&binding{handler: h})
	observability.RecordHandlerReplace(tagLabel(tag))
	log.Trace().Msgf("dispatch.Replace tag=%d from=%s to=%s", tag, HandlerName(prev.handler), HandlerName(h))
	return nil
}

// ReplaceField is Replace keyed by field identity. The field must be the
// one this dispatcher routes under its tag.
func (d *Dispatcher) ReplaceField(f field.Field, h Handler) error {
	s, err := d.lookup(f.Tag())
	if err != nil {
		return err
	}
	if s.field != f {
		return UnknownTagError{Tag: f.Tag()}
	}
	return d.Replace(f.Tag(), h)
}

func tagLabel(tag uint8) string {
	return strconv.Itoa(int(tag))
}
