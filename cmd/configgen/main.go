package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tagwire/internal/config"
)

func main() {
	kind := flag.String("kind", "node", "config kind: node|client")
	output := flag.String("output", "", "output path for config template")
	validate := flag.Bool("validate", false, "validate an existing config file")
	input := flag.String("input", "", "config path for validation (defaults to per-kind cmd path)")
	force := flag.Bool("force", false, "overwrite existing config file")
	flag.Parse()

	if *validate {
		path := *input
		if path == "" {
			path = defaultPath(*kind)
		}
		if err := validateFile(*kind, path); err != nil {
			log.Fatal(err)
		}
		log.Printf("Validated %s config at %s", *kind, path)
		return
	}

	target := *output
	if target == "" {
		target = defaultPath(*kind)
	}
	if err := config.WriteTemplate(target, *kind, *force); err != nil {
		log.Fatal(err)
	}
	log.Printf("Wrote %s config template to %s", *kind, target)
}

func defaultPath(kind string) string {
	switch kind {
	case "node":
		return "cmd/tagwired/config.toml"
	case "client":
		return "cmd/tagwirectl/config.toml"
	default:
		log.Fatalf("unknown kind: %s", kind)
		return ""
	}
}

func validateFile(kind, path string) error {
	switch kind {
	case "node":
		_, err := config.LoadNodeConfig(path)
		return err
	case "client":
		var raw map[string]any
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return fmt.Errorf("client config parse failed (%s): %w", path, err)
		}
		if !meta.IsDefined("address") {
			return fmt.Errorf("client config missing address (%s)", path)
		}
		return nil
	default:
		return fmt.Errorf("unknown kind: %s", kind)
	}
}
