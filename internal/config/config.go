package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Persons PersonsConfig
	Watch   WatchConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	watch, err := loadWatchConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Persons: loadPersonsConfig(), Watch: watch}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr          string
	Greeting      string
	AllowedOrigin string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	host := getEnvOrDefault("HOST", "0.0.0.0")
	port := getEnvOrDefault("PORT", "8080")

	cfg := ServerConfig{
		Greeting:      getEnvOrDefault("GREETING_TEXT", "Hi!"),
		AllowedOrigin: getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		cfg.Addr = port
		return cfg, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}

	cfg.Addr = net.JoinHostPort(host, port)
	return cfg, nil
}

// PersonsConfig 描述人员数据的初始来源。
type PersonsConfig struct {
	SeedFile string
}

func loadPersonsConfig() PersonsConfig {
	return PersonsConfig{SeedFile: strings.TrimSpace(os.Getenv("PERSONS_SEED_FILE"))}
}

// WatchConfig 描述变更订阅配置。
type WatchConfig struct {
	Enabled bool
	Buffer  int
}

func loadWatchConfig() (WatchConfig, error) {
	enabled, err := parseBoolEnv("WATCH_ENABLED", true)
	if err != nil {
		return WatchConfig{}, err
	}

	buffer := 16
	if override, err := parseOptionalIntEnv("WATCH_BUFFER"); err != nil {
		return WatchConfig{}, err
	} else if override != nil {
		if *override < 1 {
			buffer = 1
		} else {
			buffer = *override
		}
	}

	return WatchConfig{Enabled: enabled, Buffer: buffer}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
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
