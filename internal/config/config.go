// Package config 提供配置管理
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置
type Config struct {
	App       AppConfig       `yaml:"app"`
	Database  DatabaseConfig  `yaml:"database"`
	API       APIConfig       `yaml:"api"`
	Excursion ExcursionConfig `yaml:"excursion"`
	Ticket    TicketConfig    `yaml:"ticket"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name     string `yaml:"name"`
	Env      string `yaml:"env"`
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// DSN 返回数据库连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// APIConfig API配置
type APIConfig struct {
	RateLimit   int           `yaml:"rate_limit"`
	Timeout     time.Duration `yaml:"timeout"`
	CORS        CORSConfig    `yaml:"cors"`
	AuthEnabled bool          `yaml:"auth_enabled"`
	AdminAPIKey string        `yaml:"admin_api_key"` // 预置管理密钥，空则仅接受动态生成的密钥
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enabled bool     `yaml:"enabled"`
	Origins []string `yaml:"origins"`
}

// ExcursionConfig 参观调度引擎配置
type ExcursionConfig struct {
	DefaultVisitMinutes int  `yaml:"default_visit_minutes"` // 默认参观时长
	MinVisitMinutes     int  `yaml:"min_visit_minutes"`     // 站点最短时长
	MaxVisitMinutes     int  `yaml:"max_visit_minutes"`     // 站点最长时长
	MaxRouteHours       int  `yaml:"max_route_hours"`       // 整条路线最长时数
	CountDraft          bool `yaml:"count_draft"`           // DRAFT 是否占用时间
}

// TicketConfig 金券配置
type TicketConfig struct {
	DeactivateInterval time.Duration `yaml:"deactivate_interval"` // 已开始参观的金券回收周期
	ExpireInterval     time.Duration `yaml:"expire_interval"`     // 过期金券回收周期
	StatusInterval     time.Duration `yaml:"status_interval"`     // 参观团状态推进周期
}

// MetricsConfig 监控配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load 从环境变量加载配置（存在 .env 文件时先读入）
func Load() (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:     getEnv("APP_NAME", "wonka-factory"),
			Env:      getEnv("APP_ENV", "development"),
			Port:     getEnvInt("APP_PORT", 8080),
			LogLevel: getEnv("APP_LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "wonka"),
			User:            getEnv("DB_USER", "wonka"),
			Password:        getEnv("DB_PASSWORD", "wonka123"),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		API: APIConfig{
			RateLimit: getEnvInt("API_RATE_LIMIT", 100),
			Timeout:   getEnvDuration("API_TIMEOUT", 30*time.Second),
			CORS: CORSConfig{
				Enabled: getEnvBool("API_CORS_ENABLED", true),
				Origins: strings.Split(getEnv("API_CORS_ORIGINS", "*"), ","),
			},
			AuthEnabled: getEnvBool("API_AUTH_ENABLED", false),
			AdminAPIKey: getEnv("API_ADMIN_KEY", ""),
		},
		Excursion: ExcursionConfig{
			DefaultVisitMinutes: getEnvInt("EXCURSION_DEFAULT_VISIT_MINUTES", 15),
			MinVisitMinutes:     getEnvInt("EXCURSION_MIN_VISIT_MINUTES", 5),
			MaxVisitMinutes:     getEnvInt("EXCURSION_MAX_VISIT_MINUTES", 120),
			MaxRouteHours:       getEnvInt("EXCURSION_MAX_ROUTE_HOURS", 8),
			CountDraft:          getEnvBool("EXCURSION_COUNT_DRAFT", true),
		},
		Ticket: TicketConfig{
			DeactivateInterval: getEnvDuration("TICKET_DEACTIVATE_INTERVAL", 5*time.Minute),
			ExpireInterval:     getEnvDuration("TICKET_EXPIRE_INTERVAL", time.Hour),
			StatusInterval:     getEnvDuration("EXCURSION_STATUS_INTERVAL", time.Minute),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnv("METRICS_PATH", "/metrics"),
		},
	}

	return cfg, nil
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// 辅助函数
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
