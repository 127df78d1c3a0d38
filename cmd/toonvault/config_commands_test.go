package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	out, err := runCommand(t, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, target) {
		t.Fatalf("expected output to name %q, got %q", target, out)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected sample config at %s: %v", target, err)
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	if _, err := runCommand(t, "config", "init", "--path", target); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := runCommand(t, "config", "init", "--path", target); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}
	if _, err := runCommand(t, "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestConfigShowPrintsEffectiveConfig(t *testing.T) {
	out, err := runCommand(t, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	for _, want := range []string{"[paths]", "[segmenter]", "segment_seconds"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got %q", want, out)
		}
	}
}

func TestConfigShowNamesSourceFile(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCommand(t, "--config", configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "# "+configPath) {
		t.Fatalf("expected header naming %q, got %q", configPath, out)
	}
	if !strings.Contains(out, "s3.test.local") {
		t.Fatalf("expected file values in output, got %q", out)
	}
}

func TestConfigValidate(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCommand(t, "--config", configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	if !strings.Contains(out, "Configuration valid") {
		t.Fatalf("expected valid confirmation, got %q", out)
	}
}

func TestConfigValidateRejectsIncompleteFile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(target, []byte("[storage]\nbucket = \"anime-media\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, err := runCommand(t, "--config", target, "config", "validate")
	if err == nil {
		t.Fatal("expected validation to fail without storage.url")
	}
	if !strings.Contains(err.Error(), "storage.url") {
		t.Fatalf("expected storage.url error, got %v", err)
	}
}

func TestConfigPathPrintsLocation(t *testing.T) {
	out, err := runCommand(t, "config", "path")
	if err != nil {
		t.Fatalf("config path: %v", err)
	}
	if !strings.Contains(out, "config.toml") {
		t.Fatalf("expected a config path, got %q", out)
	}
}

func TestTestNotifyWithoutTopic(t *testing.T) {
	configPath := writeCLIConfig(t)

	out, err := runCommand(t, "--config", configPath, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	if !strings.Contains(out, "ntfy topic not configured") {
		t.Fatalf("expected unconfigured message, got %q", out)
	}
}
