package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config — корневая структура конфигурации всех сервисов платформы.
type Config struct {
	Portal    PortalConfig    `mapstructure:"portal"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Tokend    TokendConfig    `mapstructure:"tokend"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Audit     AuditConfig     `mapstructure:"audit"`
	Logger    LoggerConfig    `mapstructure:"logger"`
}

// PortalConfig описывает настройки портала входа.
type PortalConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// Куда редиректим пользователя после выпуска кастомного токена
	DashboardURL string `mapstructure:"dashboard_url"`
	// Адрес сервиса выпуска кастомных токенов
	TokendURL string `mapstructure:"tokend_url"`
	// Таймаут на один запрос к tokend (ретраев в auth-флоу нет)
	TokenTimeout time.Duration `mapstructure:"token_timeout"`
}

// DashboardConfig описывает настройки мониторинговой консоли.
type DashboardConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TokendConfig — настройки сервиса выпуска токенов.
type TokendConfig struct {
	Addr string `mapstructure:"addr"`

	// Строго два разрешенных origin (портал и дашборд), credentials allowed
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// Защита эндпоинта от перебора
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// DatabaseConfig описывает подключение к PostgreSQL (users + audit trail).
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

// RedisConfig описывает подключение к Redis (Document Store + Pub/Sub).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig содержит пути к RSA ключам и настройки JWT.
type AuthConfig struct {
	PublicKeyPath  string        `mapstructure:"public_key_path"`
	PrivateKeyPath string        `mapstructure:"private_key_path"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`      // сессионные токены портала
	CustomTokenTTL time.Duration `mapstructure:"custom_token_ttl"` // токены tokend для дашборда
	BcryptCost     int           `mapstructure:"bcrypt_cost"`
	PublicKey      []byte
	PrivateKey     []byte
}

// AuditConfig настраивает батчер журнала аудита.
type AuditConfig struct {
	BufferSize    int           `mapstructure:"buffer_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

// LoggerConfig настраивает поведение zap логгера.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
}

// LoadConfig инициализирует конфигурацию, объединяя значения из файла и ENV.
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. Настройка поиска файла
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	// 2. ENV перекрывает файл: PORTAL_ADDR=:9000 перекроет portal.addr
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 3. Дефолты
	setDefaults(v)

	// 4. Чтение файла
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Если файла нет — работаем на ENV и дефолтах
	}

	// 5. Маппинг в структуру
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	// 6. Загрузка ключей из файла ИЛИ из ENV (для Docker/K8s)
	cfg.Auth.PublicKey = loadKeyResource(cfg.Auth.PublicKeyPath, "AUTH_PUBLIC_KEY_DATA")
	cfg.Auth.PrivateKey = loadKeyResource(cfg.Auth.PrivateKeyPath, "AUTH_PRIVATE_KEY_DATA")

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Порты повторяют раскладку исходной системы: портал 8080, дашборд 8082, tokend 5000
	v.SetDefault("portal.addr", ":8080")
	v.SetDefault("portal.read_timeout", 5*time.Second)
	v.SetDefault("portal.write_timeout", 10*time.Second)
	v.SetDefault("portal.dashboard_url", "http://localhost:8082")
	v.SetDefault("portal.tokend_url", "http://localhost:5000")
	v.SetDefault("portal.token_timeout", 5*time.Second)

	v.SetDefault("dashboard.addr", ":8082")
	v.SetDefault("dashboard.read_timeout", 5*time.Second)
	v.SetDefault("dashboard.write_timeout", 10*time.Second)

	v.SetDefault("tokend.addr", ":5000")
	v.SetDefault("tokend.allowed_origins", []string{"http://localhost:8080", "http://localhost:8082"})
	v.SetDefault("tokend.rate_limit_rps", 20.0)
	v.SetDefault("tokend.rate_limit_burst", 10)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("database.max_conns", 15)
	v.SetDefault("database.min_conns", 5)

	v.SetDefault("auth.session_ttl", 15*time.Minute)
	v.SetDefault("auth.custom_token_ttl", 5*time.Minute)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("audit.buffer_size", 10000)
	v.SetDefault("audit.flush_interval", 500*time.Millisecond)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// loadKeyResource — универсальный хелпер загрузки ключевого материала
func loadKeyResource(path string, envDataKey string) []byte {
	// Если ключ прилетел напрямую в ENV (PEM)
	if data := os.Getenv(envDataKey); data != "" {
		return []byte(data)
	}
	// Иначе читаем файл по пути из конфига
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			return data
		}
	}
	return nil
}
