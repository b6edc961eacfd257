package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "node":
		return nodeTemplate, nil
	case "client":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const nodeTemplate = `name = "tagwire"
listen_addr = ":9400"
admin_addr = ":9401"
idle_timeout = "5m"
cors_origins = ["http://localhost:3000"]

# Tags are assigned in declaration order starting at 0.
[[fields]]
name = "ping"
width = 0
handler = "identity"

[[fields]]
name = "speed"
width = 2
handler = "double"

[[fields]]
name = "level"
width = 1
handler = "identity"

[[fields]]
name = "counter"
width = 4
handler = "increment"
`

const clientTemplate = `address = "localhost:9400"
node_config = "cmd/tagwired/config.toml"
connect_timeout = "5s"
call_timeout = "10s"
max_attempts = 5
`
