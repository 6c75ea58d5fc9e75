package config

import (
	"os"
	"path/filepath"
	"testing"

	"greeter/internal/shared/types"
)

func TestLoadIni_MissingFileKeepsDefaults(t *testing.T) {
	cfg := types.DefaultConfig()
	if err := LoadIni(cfg, filepath.Join(t.TempDir(), "absent.ini")); err != nil {
		t.Fatalf("LoadIni() returned an error for a missing file: %v", err)
	}
	if cfg.Port != types.DefaultPort || cfg.Backlog != types.DefaultBacklog {
		t.Errorf("Expected defaults port=%d backlog=%d, got port=%d backlog=%d",
			types.DefaultPort, types.DefaultBacklog, cfg.Port, cfg.Backlog)
	}
	if cfg.Payload != "Hello, world!" || len(cfg.Payload) != 13 {
		t.Errorf("Expected default 13-byte payload, got %q", cfg.Payload)
	}
}

func TestLoadIni_OverridesOnlyGivenKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeter.ini")
	content := "[server]\nport = 8081\nnetwork = TCP4\n\n[log]\nlevel = debug\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := types.DefaultConfig()
	if err := LoadIni(cfg, path); err != nil {
		t.Fatalf("LoadIni() returned an error: %v", err)
	}
	if cfg.Port != 8081 {
		t.Errorf("Expected port 8081, got %d", cfg.Port)
	}
	if cfg.Network != "tcp4" {
		t.Errorf("Expected network to be normalized to 'tcp4', got '%s'", cfg.Network)
	}
	if cfg.Backlog != types.DefaultBacklog {
		t.Errorf("Expected backlog to keep default %d, got %d", types.DefaultBacklog, cfg.Backlog)
	}
	if cfg.Level != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", cfg.Level)
	}
}

func TestParse_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad network":  "[server]\nnetwork = udp\n",
		"bad port":     "[server]\nport = 70000\n",
		"zero backlog": "[server]\nbacklog = 0\n",
		"neg timeout":  "[server]\nwrite_timeout = -1\n",
		"no payload":   "[server]\npayload =\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := types.DefaultConfig()
			if err := Parse(cfg, []byte(content)); err == nil {
				t.Errorf("Parse(%q) expected an error, got nil", content)
			}
		})
	}
}
