package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/tagwire/internal/config"
)

func TestValidateGeneratedTemplates(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"node", "client"} {
		path := filepath.Join(dir, kind+".toml")
		if err := config.WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s: %v", kind, err)
		}
		if err := validateFile(kind, path); err != nil {
			t.Fatalf("validate %s: %v", kind, err)
		}
	}
}

func TestValidateClientRequiresAddress(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.toml")
	if err := os.WriteFile(path, []byte("call_timeout = \"1s\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := validateFile("client", path); err == nil {
		t.Fatalf("expected missing address error")
	}
	if err := validateFile("mirror", path); err == nil {
		t.Fatalf("expected unknown kind error")
	}
}
