package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danmuck/tagwire/internal/logging"
)

const defaultConfigPath = "cmd/tagwired/config.toml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "node config path")
	flag.Parse()

	logging.ConfigureRuntime()
	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "tagwired: %v\n", err)
		os.Exit(1)
	}
}
