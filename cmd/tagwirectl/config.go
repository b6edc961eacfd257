package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tagwire/internal/protocol/transport"
)

// tagwirectl config.toml key mapping to client runtime settings.
type fileConfig struct {
	Address        string `toml:"address"`
	NodeConfig     string `toml:"node_config"`
	ConnectTimeout string `toml:"connect_timeout"`
	WriteTimeout   string `toml:"write_timeout"`
	CallTimeout    string `toml:"call_timeout"`
	MaxAttempts    int    `toml:"max_attempts"`
}

type clientConfig struct {
	Dial        transport.DialConfig
	NodeConfig  string
	CallTimeout time.Duration
}

func defaultClientConfig() clientConfig {
	dial := transport.DefaultDialConfig()
	dial.Address = "localhost:9400"
	return clientConfig{
		Dial:        dial,
		NodeConfig:  "cmd/tagwired/config.toml",
		CallTimeout: 10 * time.Second,
	}
}

func loadClientConfig(path string) (clientConfig, error) {
	cfg := defaultClientConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return clientConfig{}, fmt.Errorf("load tagwirectl config: %w", err)
	}

	if meta.IsDefined("address") {
		if addr := strings.TrimSpace(raw.Address); addr != "" {
			cfg.Dial.Address = addr
		}
	}

	if meta.IsDefined("node_config") {
		if nodePath := strings.TrimSpace(raw.NodeConfig); nodePath != "" {
			cfg.NodeConfig = nodePath
		}
	}

	if meta.IsDefined("connect_timeout") {
		d, err := parseDuration("connect_timeout", raw.ConnectTimeout)
		if err != nil {
			return clientConfig{}, err
		}
		cfg.Dial.ConnectTimeout = d
	}

	if meta.IsDefined("write_timeout") {
		d, err := parseDuration("write_timeout", raw.WriteTimeout)
		if err != nil {
			return clientConfig{}, err
		}
		cfg.Dial.WriteTimeout = d
	}

	if meta.IsDefined("call_timeout") {
		d, err := parseDuration("call_timeout", raw.CallTimeout)
		if err != nil {
			return clientConfig{}, err
		}
		if d <= 0 {
			return clientConfig{}, fmt.Errorf("call_timeout must be positive, got %s", d)
		}
		cfg.CallTimeout = d
	}

	if meta.IsDefined("max_attempts") {
		cfg.Dial.MaxAttempts = raw.MaxAttempts
	}

	return cfg, nil
}

func parseDuration(key, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return d, nil
}
