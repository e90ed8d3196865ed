package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/medassist/backend/internal/analysis/triage"
	"github.com/zhouzirui/medassist/backend/internal/service/geocode"
	"github.com/zhouzirui/medassist/backend/internal/service/location"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Geocode GeocodeConfig
	Triage  TriageConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	geo, err := loadGeocodeConfig()
	if err != nil {
		return nil, err
	}

	tri, err := loadTriageConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Geocode: geo, Triage: tri}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr          string
	AllowedOrigin string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	origin := getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*")

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigin: origin}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigin: origin}, nil
}

// GeocodeConfig describes the geocoding collaborators and the placeholder
// coordinates used when a city cannot be found.
type GeocodeConfig struct {
	ReverseURL  string
	ForwardURL  string
	APIKey      string
	Timeout     time.Duration
	RateLimit   float64
	Burst       int
	FallbackLat float64
	FallbackLon float64
}

// Client converts the configuration into geocode client settings.
func (c GeocodeConfig) Client() geocode.Config {
	return geocode.Config{
		ReverseURL: c.ReverseURL,
		ForwardURL: c.ForwardURL,
		APIKey:     c.APIKey,
		Timeout:    c.Timeout,
		RateLimit:  c.RateLimit,
		Burst:      c.Burst,
	}
}

func loadGeocodeConfig() (GeocodeConfig, error) {
	timeout, err := parseOptionalIntEnv("GEOCODE_TIMEOUT")
	if err != nil {
		return GeocodeConfig{}, err
	}
	timeoutSeconds := 10
	if timeout != nil {
		if *timeout < 1 {
			return GeocodeConfig{}, fmt.Errorf("invalid GEOCODE_TIMEOUT value %d: must be positive", *timeout)
		}
		timeoutSeconds = *timeout
	}

	rateLimit := 5.0
	if override, err := parseOptionalFloatEnv("GEOCODE_RATE_LIMIT"); err != nil {
		return GeocodeConfig{}, err
	} else if override != nil {
		rateLimit = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("GEOCODE_BURST"); err != nil {
		return GeocodeConfig{}, err
	} else if override != nil {
		if *override < 1 {
			burst = 1
		} else {
			burst = *override
		}
	}

	lat, err := parseOptionalFloatEnv("FALLBACK_LATITUDE")
	if err != nil {
		return GeocodeConfig{}, err
	}
	lon, err := parseOptionalFloatEnv("FALLBACK_LONGITUDE")
	if err != nil {
		return GeocodeConfig{}, err
	}
	fallbackLat, fallbackLon := location.DefaultFallbackLat, location.DefaultFallbackLon
	if lat != nil {
		if *lat < -90 || *lat > 90 {
			return GeocodeConfig{}, fmt.Errorf("invalid FALLBACK_LATITUDE value %v: out of range", *lat)
		}
		fallbackLat = *lat
	}
	if lon != nil {
		if *lon < -180 || *lon > 180 {
			return GeocodeConfig{}, fmt.Errorf("invalid FALLBACK_LONGITUDE value %v: out of range", *lon)
		}
		fallbackLon = *lon
	}

	return GeocodeConfig{
		ReverseURL:  getEnvOrDefault("GEOCODE_REVERSE_URL", geocode.DefaultReverseURL),
		ForwardURL:  getEnvOrDefault("GEOCODE_FORWARD_URL", geocode.DefaultForwardURL),
		APIKey:      strings.TrimSpace(os.Getenv("GEOCODE_API_KEY")),
		Timeout:     time.Duration(timeoutSeconds) * time.Second,
		RateLimit:   rateLimit,
		Burst:       burst,
		FallbackLat: fallbackLat,
		FallbackLon: fallbackLon,
	}, nil
}

// TriageConfig 描述分诊回复的节奏与地图链接。
type TriageConfig struct {
	ThinkingDelay time.Duration
	MapsSearchURL string
}

func loadTriageConfig() (TriageConfig, error) {
	delayMs := 1500
	if override, err := parseOptionalIntEnv("TRIAGE_THINKING_DELAY_MS"); err != nil {
		return TriageConfig{}, err
	} else if override != nil {
		if *override < 0 {
			return TriageConfig{}, fmt.Errorf("invalid TRIAGE_THINKING_DELAY_MS value %d: must not be negative", *override)
		}
		delayMs = *override
	}

	return TriageConfig{
		ThinkingDelay: time.Duration(delayMs) * time.Millisecond,
		MapsSearchURL: getEnvOrDefault("MAPS_SEARCH_URL", triage.DefaultMapsSearchURL),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
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
