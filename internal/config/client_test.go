package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadClientMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadClient(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("LoadClient err: %v", err)
	}
	if cfg.RelayURL != "http://localhost:8080" {
		t.Fatalf("unexpected relay url: %s", cfg.RelayURL)
	}
	if cfg.ShareDir != "." || cfg.Style != "dark" || cfg.Width != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadClientFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatcli.toml")
	content := "relay_url = \"https://chat.example.com\"\nshare_dir = \"/tmp/shares\"\nstyle = \"light\"\nwidth = 72\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadClient(path)
	if err != nil {
		t.Fatalf("LoadClient err: %v", err)
	}
	if cfg.RelayURL != "https://chat.example.com" || cfg.ShareDir != "/tmp/shares" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.Style != "light" || cfg.Width != 72 {
		t.Fatalf("unexpected render settings: %+v", cfg)
	}
}

func TestLoadClientRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"syntax": "relay_url = ",
		"scheme": "relay_url = \"ftp://chat.example.com\"",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".toml")
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadClient(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
