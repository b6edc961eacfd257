package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/tagwire/internal/protocol/dispatch"
	"github.com/danmuck/tagwire/internal/protocol/field"
	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultName       = "tagwire"
	DefaultListenAddr = ":9400"
	DefaultAdminAddr  = ":9401"
	DefaultHandler    = "identity"
)

// NodeConfig describes one tagwire node: its listeners and the ordered field
// table. Field order defines tag assignment, so clients and servers must load
// the same table.
type NodeConfig struct {
	Name        string        `toml:"name"`
	ListenAddr  string        `toml:"listen_addr"`
	AdminAddr   string        `toml:"admin_addr"`
	IdleTimeout string        `toml:"idle_timeout,omitempty"`
	CorsOrigins []string      `toml:"cors_origins"`
	Fields      []FieldConfig `toml:"fields"`
}

// FieldConfig declares one field and its default handler.
type FieldConfig struct {
	Name    string `toml:"name"`
	Width   int    `toml:"width"`
	Handler string `toml:"handler,omitempty"`
}

func LoadNodeConfig(path string) (NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg, err := ParseNodeConfig(data)
	if err != nil {
		return NodeConfig{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// ParseNodeConfig decodes, defaults and validates a node config document.
func ParseNodeConfig(data []byte) (NodeConfig, error) {
	var cfg NodeConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return NodeConfig{}, err
	}
	cfg = cfg.WithDefaults()
	if err := ValidateNodeConfig(cfg); err != nil {
		return NodeConfig{}, err
	}
	return cfg, nil
}

func (c NodeConfig) WithDefaults() NodeConfig {
	if strings.TrimSpace(c.Name) == "" {
		c.Name = DefaultName
	}
	if strings.TrimSpace(c.ListenAddr) == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if strings.TrimSpace(c.AdminAddr) == "" {
		c.AdminAddr = DefaultAdminAddr
	}
	fields := make([]FieldConfig, len(c.Fields))
	for i, f := range c.Fields {
		f.Name = strings.TrimSpace(f.Name)
		f.Handler = strings.ToLower(strings.TrimSpace(f.Handler))
		if f.Handler == "" {
			f.Handler = DefaultHandler
		}
		fields[i] = f
	}
	c.Fields = fields
	return c
}

// IdleTimeoutDuration parses idle_timeout; empty means no timeout.
func (c NodeConfig) IdleTimeoutDuration() (time.Duration, error) {
	raw := strings.TrimSpace(c.IdleTimeout)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse idle_timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("idle_timeout must not be negative")
	}
	return d, nil
}

func ValidateNodeConfig(cfg NodeConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("node config missing name")
	}
	if strings.TrimSpace(cfg.ListenAddr) == "" {
		return fmt.Errorf("node config missing listen_addr")
	}
	if _, err := cfg.IdleTimeoutDuration(); err != nil {
		return err
	}
	return ValidateFields(cfg.Fields)
}

// ValidateFields checks a field table without building it.
func ValidateFields(fields []FieldConfig) error {
	if len(fields) == 0 {
		return fmt.Errorf("node config declares no fields")
	}
	if len(fields) > field.MaxFields {
		return fmt.Errorf("node config declares %d fields, max %d", len(fields), field.MaxFields)
	}
	seen := make(map[string]int, len(fields))
	for i, f := range fields {
		if err := ValidateFieldEntry(f); err != nil {
			return fmt.Errorf("fields[%d] invalid: %w", i, err)
		}
		if prev, dup := seen[f.Name]; dup {
			return fmt.Errorf("fields[%d] invalid: name %q already used by fields[%d]", i, f.Name, prev)
		}
		seen[f.Name] = i
	}
	return nil
}

func ValidateFieldEntry(f FieldConfig) error {
	if strings.TrimSpace(f.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if f.Width < 0 || f.Width > field.MaxWidth {
		return fmt.Errorf("width %d outside 0..%d", f.Width, field.MaxWidth)
	}
	if strings.TrimSpace(f.Handler) == "" {
		return nil
	}
	if _, err := dispatch.Lookup(f.Handler); err != nil {
		return err
	}
	return nil
}

// Encode renders cfg as a TOML document.
func Encode(cfg NodeConfig) ([]byte, error) {
	return toml.Marshal(cfg)
}
