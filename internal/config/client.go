package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	defaultRelayURL     = "http://localhost:8080"
	defaultGlamourTheme = "dark"
	clientConfigDir     = "deepseek-chat"
	clientConfigFile    = "chatcli.toml"
)

// ClientConfig 终端客户端配置，字段均可被命令行参数覆盖
type ClientConfig struct {
	RelayURL    string `toml:"relay_url"`
	ShareDir    string `toml:"share_dir"`
	Style       string `toml:"style"`
	HistoryFile string `toml:"history_file"`
	Width       int    `toml:"width"`
}

// DefaultClientConfigPath returns $XDG_CONFIG_HOME/deepseek-chat/chatcli.toml.
func DefaultClientConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, clientConfigDir, clientConfigFile), nil
}

// LoadClient reads the TOML file at path. A missing file yields defaults.
func LoadClient(path string) (*ClientConfig, error) {
	cfg := &ClientConfig{}

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *ClientConfig) fillDefaults() error {
	if strings.TrimSpace(c.RelayURL) == "" {
		c.RelayURL = defaultRelayURL
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ShareDir == "" {
		c.ShareDir = "."
	}
	if c.Style == "" {
		c.Style = defaultGlamourTheme
	}
	if c.HistoryFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.HistoryFile = filepath.Join(dir, clientConfigDir, "history")
		}
	}
	if c.Width <= 0 {
		c.Width = 100
	}
	return nil
}

// Validate checks the relay URL.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.RelayURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid relay_url %q", c.RelayURL)
	}
	return nil
}
