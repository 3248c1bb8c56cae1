package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	defaultBaseURL      = "https://api.deepseek.com/v1"
	defaultModel        = "deepseek-chat"
	defaultMaxBodyBytes = 1 << 20
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	upstream, err := loadUpstreamConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Upstream: upstream}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	MaxBodyBytes   int64
}

// loadServerConfig 解析服务器监听地址、跨域来源与请求体上限。
func loadServerConfig() (ServerConfig, error) {
	addr, err := parseAddr(os.Getenv("PORT"))
	if err != nil {
		return ServerConfig{}, err
	}

	maxBody := int64(defaultMaxBodyBytes)
	if override, err := parseOptionalIntEnv("RELAY_MAX_BODY_BYTES"); err != nil {
		return ServerConfig{}, err
	} else if override != nil {
		if *override <= 0 {
			return ServerConfig{}, fmt.Errorf("invalid RELAY_MAX_BODY_BYTES value %d: must be positive", *override)
		}
		maxBody = int64(*override)
	}

	return ServerConfig{
		Addr:           addr,
		AllowedOrigins: parseListEnv("CORS_ALLOWED_ORIGINS", []string{"*"}),
		MaxBodyBytes:   maxBody,
	}, nil
}

func parseAddr(raw string) (string, error) {
	port := strings.TrimSpace(raw)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// UpstreamConfig 描述上游补全服务的连接配置。采样参数是固定常量，不在此配置。
type UpstreamConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Enabled 表示是否提供了上游凭证。
func (c UpstreamConfig) Enabled() bool {
	return c.APIKey != ""
}

// CompletionsURL returns the absolute chat completions endpoint.
func (c UpstreamConfig) CompletionsURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
}

func loadUpstreamConfig() (UpstreamConfig, error) {
	baseURL := getEnvOrDefault("DEEPSEEK_BASE_URL", defaultBaseURL)
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return UpstreamConfig{}, fmt.Errorf("invalid DEEPSEEK_BASE_URL value %q: scheme must be http or https", baseURL)
	}

	return UpstreamConfig{
		APIKey:  strings.TrimSpace(os.Getenv("DEEPSEEK_API_KEY")),
		BaseURL: baseURL,
		Model:   getEnvOrDefault("DEEPSEEK_MODEL", defaultModel),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseListEnv(key string, defaultValue []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
