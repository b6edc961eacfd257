package config

import (
	"github.com/danmuck/tagwire/internal/protocol/dispatch"
	"github.com/danmuck/tagwire/internal/protocol/field"
)

// BuildRegistry declares fields in table order, so fields[i] gets tag i.
func BuildRegistry(fields []FieldConfig) (*field.Registry, error) {
	if err := ValidateFields(fields); err != nil {
		return nil, err
	}
	reg := field.NewRegistry()
	for _, f := range fields {
		if _, err := reg.DeclareNamed(f.Name, f.Width); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// BuildDispatcher builds the registry and binds each field's configured
// handler.
func BuildDispatcher(cfg NodeConfig) (*dispatch.Dispatcher, error) {
	reg, err := BuildRegistry(cfg.Fields)
	if err != nil {
		return nil, err
	}
	bindings := make(dispatch.Bindings, len(cfg.Fields))
	for i, f := range cfg.Fields {
		name := f.Handler
		if name == "" {
			name = DefaultHandler
		}
		h, err := dispatch.Lookup(name)
		if err != nil {
			return nil, err
		}
		bindings[uint8(i)] = h
	}
	return dispatch.New(reg, bindings)
}
