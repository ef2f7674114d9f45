package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	AI        AIConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	Catalog   CatalogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	rateLimit, err := loadRateLimitConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:    server,
		Log:       loadLogConfig(),
		AI:        ai,
		Session:   SessionConfig{DefaultLanguage: getEnvOrDefault("DEFAULT_LANGUAGE", "en")},
		RateLimit: rateLimit,
		Catalog:   CatalogConfig{OffersFile: strings.TrimSpace(os.Getenv("OFFERS_FILE"))},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// LogConfig 控制日志输出格式与级别。
type LogConfig struct {
	Env   string
	Level string
}

// Production 表示是否使用 JSON 生产日志。
func (c LogConfig) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Env:   getEnvOrDefault("APP_ENV", "development"),
		Level: getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// Provider 标识生成服务的后端实现。
type Provider string

const (
	ProviderGemini    Provider = "gemini"
	ProviderGeminiSDK Provider = "gemini-sdk"
	ProviderArk       Provider = "ark"
	ProviderOllama    Provider = "ollama"
)

const (
	// Temperature 与 MaxOutputTokens 对所有请求固定。
	Temperature     = 0.7
	MaxOutputTokens = 800

	DefaultGeminiModel   = "gemini-2.0-flash"
	DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider Provider
	Timeout  time.Duration

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	OllamaHost  string
	OllamaModel string
}

// CredentialPresent 表示当前 provider 所需的凭证是否已提供。
func (c AIConfig) CredentialPresent() bool {
	switch c.Provider {
	case ProviderArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	case ProviderOllama:
		return true
	default:
		return c.GeminiAPIKey != ""
	}
}

// ProviderName 用于面向用户的错误信息。
func (c AIConfig) ProviderName() string {
	switch c.Provider {
	case ProviderArk:
		return "Ark"
	case ProviderOllama:
		return "Ollama"
	default:
		return "Gemini"
	}
}

// ModelName 返回当前 provider 使用的模型标识。
func (c AIConfig) ModelName() string {
	switch c.Provider {
	case ProviderArk:
		return c.ArkModel
	case ProviderOllama:
		return c.OllamaModel
	default:
		return c.GeminiModel
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := Provider(strings.ToLower(getEnvOrDefault("AI_PROVIDER", string(ProviderGemini))))
	switch provider {
	case ProviderGemini, ProviderGeminiSDK, ProviderArk, ProviderOllama:
	default:
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value %q", provider)
	}

	timeout, err := parseDurationEnv("AI_TIMEOUT", 30*time.Second)
	if err != nil {
		return AIConfig{}, err
	}

	return AIConfig{
		Provider:      provider,
		Timeout:       timeout,
		GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:   getEnvOrDefault("GEMINI_MODEL", DefaultGeminiModel),
		GeminiBaseURL: strings.TrimRight(getEnvOrDefault("GEMINI_BASE_URL", DefaultGeminiBaseURL), "/"),
		ArkAPIKey:     strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey:  strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey:  strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		ArkModel:      strings.TrimSpace(os.Getenv("ARK_MODEL")),
		ArkBaseURL:    getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:     getEnvOrDefault("ARK_REGION", "cn-beijing"),
		OllamaHost:    getEnvOrDefault("OLLAMA_HOST", "http://127.0.0.1:11434"),
		OllamaModel:   getEnvOrDefault("OLLAMA_MODEL", "llama3.2"),
	}, nil
}

// SessionConfig 描述会话默认值。
type SessionConfig struct {
	DefaultLanguage string
}

// RateLimitConfig 描述按 IP 的限流参数，PerMinute 为 0 表示关闭。
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// Enabled 表示是否开启限流。
func (c RateLimitConfig) Enabled() bool {
	return c.PerMinute > 0
}

func loadRateLimitConfig() (RateLimitConfig, error) {
	cfg := RateLimitConfig{PerMinute: 60, Burst: 10}

	perMinute, err := parseOptionalIntEnv("RATE_LIMIT_PER_MINUTE")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if perMinute != nil {
		cfg.PerMinute = max(*perMinute, 0)
	}

	burst, err := parseOptionalIntEnv("RATE_LIMIT_BURST")
	if err != nil {
		return RateLimitConfig{}, err
	}
	if burst != nil {
		cfg.Burst = max(*burst, 1)
	}

	return cfg, nil
}

// CatalogConfig 描述报价目录来源。
type CatalogConfig struct {
	OffersFile string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	// 纯数字按秒处理。
	if seconds, err := strconv.Atoi(raw); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
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
