package config

import (
	"fmt"
	"sync/atomic"
	"time"
)

var configValue atomic.Value

func GetConfig() *Config {
	cfg, ok := configValue.Load().(*Config)
	if !ok {
		return NewDefaultConfig()
	}
	return cfg
}

func SetConfig(cfg *Config) {
	configValue.Store(cfg)
}

type Config struct {
	Version     string          `mapstructure:"version"`
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	Weather     WeatherConfig   `mapstructure:"weather"`
	Redis       RedisConfig     `mapstructure:"redis"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Telemetry   TelemetryConfig `mapstructure:"telemetry"`
}

type ServerConfig struct {
	Port         int    `mapstructure:"port"`
	Host         string `mapstructure:"host"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
}

// WeatherConfig configures the one-call provider and the refresh loop.
// Durations are in seconds.
type WeatherConfig struct {
	BaseURL         string  `mapstructure:"base_url"`
	APIKey          string  `mapstructure:"api_key"`
	Timeout         int     `mapstructure:"timeout"`
	CacheTTL        int     `mapstructure:"cache_ttl"`
	RefreshInterval int     `mapstructure:"refresh_interval"`
	RateLimit       float64 `mapstructure:"rate_limit"`
	RateBurst       int     `mapstructure:"rate_burst"`
	Language        string  `mapstructure:"language"`
	Timezone        string  `mapstructure:"timezone"`
	DefaultLat      float64 `mapstructure:"default_lat"`
	DefaultLon      float64 `mapstructure:"default_lon"`
}

// Location resolves the zone used for local times. An empty name selects
// the process-local zone.
func (w WeatherConfig) Location() (*time.Location, error) {
	if w.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(w.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid weather.timezone %q: %w", w.Timezone, err)
	}
	return loc, nil
}

func (w WeatherConfig) TimeoutDuration() time.Duration {
	return time.Duration(w.Timeout) * time.Second
}

func (w WeatherConfig) CacheTTLDuration() time.Duration {
	return time.Duration(w.CacheTTL) * time.Second
}

func (w WeatherConfig) RefreshIntervalDuration() time.Duration {
	return time.Duration(w.RefreshInterval) * time.Second
}

type RedisConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

func NewDefaultConfig() *Config {
	return &Config{
		Version:     "1.0.0",
		Environment: "development",
		Server: ServerConfig{
			Port:         8080,
			Host:         "0.0.0.0",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Weather: WeatherConfig{
			BaseURL:         "https://api.openweathermap.org",
			APIKey:          "",
			Timeout:         10,
			CacheTTL:        600,
			RefreshInterval: 900,
			RateLimit:       1,
			RateBurst:       3,
			Language:        "en",
			Timezone:        "",
			DefaultLat:      49.8061,
			DefaultLon:      24.8964,
		},
		Redis: RedisConfig{
			Enabled:   false,
			Addr:      "localhost:6379",
			DB:        0,
			KeyPrefix: "onecall:",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "",
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			Endpoint:    "tempo:4317",
			ServiceName: "weather-snapshot",
		},
	}
}
