package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config конфигурация приложения из TOML-файла и переменных окружения.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	Database   DatabaseConfig   `toml:"database"`
	Storage    StorageConfig    `toml:"storage"`
	Search     SearchConfig     `toml:"search"`
	Geocode    GeocodeConfig    `toml:"geocode"`
	Generative GenerativeConfig `toml:"generative"`
	Auth       AuthConfig       `toml:"auth"`
	OTP        OTPConfig        `toml:"otp"`
	Mail       MailConfig       `toml:"mail"`
	Bot        BotConfig        `toml:"bot"`
	Log        LogConfig        `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	Mode string `toml:"mode"` // режим gin: debug, release, test
}

// Addr адрес для http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Driver       string `toml:"driver"` // postgres, pgx или sqlite3
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

type StorageConfig struct {
	BadgerPath string `toml:"badger_path"`
}

type SearchConfig struct {
	CorpusPath          string  `toml:"corpus_path"`
	ThesaurusPath       string  `toml:"thesaurus_path"`
	MaxFeatures         int     `toml:"max_features"`
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	FallbackLimit       int     `toml:"fallback_limit"`
	Workers             int     `toml:"workers"`
}

type GeocodeConfig struct {
	BaseURL         string   `toml:"base_url"`
	UserAgent       string   `toml:"user_agent"`
	Timeout         Duration `toml:"timeout"`
	Retries         int      `toml:"retries"`
	RatePerSecond   float64  `toml:"rate_per_second"`
	CacheBackend    string   `toml:"cache_backend"` // memory или badger
	CacheTTL        Duration `toml:"cache_ttl"`
	CacheMaxEntries int64    `toml:"cache_max_entries"`
}

type GenerativeConfig struct {
	Enabled bool     `toml:"enabled"`
	APIKey  string   `toml:"api_key"`
	Model   string   `toml:"model"`
	Timeout Duration `toml:"timeout"`
}

type AuthConfig struct {
	JWTSecret  string   `toml:"jwt_secret"`
	AccessTTL  Duration `toml:"access_ttl"`
	RefreshTTL Duration `toml:"refresh_ttl"`
	BcryptCost int      `toml:"bcrypt_cost"`
}

type OTPConfig struct {
	TTL         Duration `toml:"ttl"`
	Secret      string   `toml:"secret"`
	MaxAttempts int      `toml:"max_attempts"`
}

type MailConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

type BotConfig struct {
	Token string `toml:"token"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Duration обертка над time.Duration для строк вида "5s" в TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("некорректная длительность %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig возвращает конфигурацию по умолчанию из встроенного примера.
func DefaultConfig() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("не удалось разобрать встроенную конфигурацию: %v", err))
	}
	return &cfg
}

// LoadConfig читает TOML-файл поверх значений по умолчанию.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// Load загружает файл, если он существует, и применяет переменные окружения.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv переопределяет секреты и пути значениями окружения.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"TRAVEL_CORPUS_PATH": &c.Search.CorpusPath,
		"TRAVEL_THESAURUS":   &c.Search.ThesaurusPath,
		"GEOCODE_USER_AGENT": &c.Geocode.UserAgent,
		"GEMINI_API_KEY":     &c.Generative.APIKey,
		"DATABASE_DRIVER":    &c.Database.Driver,
		"DATABASE_DSN":       &c.Database.DSN,
		"BADGER_PATH":        &c.Storage.BadgerPath,
		"JWT_SECRET":         &c.Auth.JWTSecret,
		"OTP_SECRET":         &c.OTP.Secret,
		"SMTP_HOST":          &c.Mail.Host,
		"SMTP_USERNAME":      &c.Mail.Username,
		"SMTP_PASSWORD":      &c.Mail.Password,
		"SMTP_FROM":          &c.Mail.From,
		"BOT_TOKEN":          &c.Bot.Token,
		"LOG_LEVEL":          &c.Log.Level,
	}
	for key, dst := range str {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"API_PORT":  &c.Server.Port,
		"SMTP_PORT": &c.Mail.Port,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, key, v)
		}
		*dst = n
	}

	if _, ok := lookup("GEMINI_API_KEY"); ok && c.Generative.APIKey != "" {
		c.Generative.Enabled = true
	}
	return nil
}

// placeholderSecrets значения-заглушки из примеров конфигурации.
var placeholderSecrets = map[string]struct{}{
	"change-me": {}, "changeme": {}, "secret": {}, "your-secret-key": {},
}

func usableSecret(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	_, placeholder := placeholderSecrets[strings.ToLower(s)]
	return !placeholder
}

// Validate проверяет значения, без которых сервис не может работать.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "pgx", "sqlite3":
	default:
		return fmt.Errorf("%w: неизвестный драйвер базы %q", ErrInvalidConfig, c.Database.Driver)
	}
	switch c.Geocode.CacheBackend {
	case "memory", "badger":
	default:
		return fmt.Errorf("%w: неизвестный кэш геокодера %q", ErrInvalidConfig, c.Geocode.CacheBackend)
	}
	if !usableSecret(c.Auth.JWTSecret) {
		return fmt.Errorf("%w: не задан auth.jwt_secret (JWT_SECRET)", ErrMissingCredentials)
	}
	if !usableSecret(c.OTP.Secret) {
		return fmt.Errorf("%w: не задан otp.secret (OTP_SECRET)", ErrMissingCredentials)
	}
	if c.Search.MaxFeatures <= 0 {
		return fmt.Errorf("%w: max_features должен быть положительным", ErrInvalidConfig)
	}
	if c.Search.FallbackLimit < 0 {
		return fmt.Errorf("%w: fallback_limit не может быть отрицательным", ErrInvalidConfig)
	}
	if c.Search.SimilarityThreshold < 0 {
		return fmt.Errorf("%w: similarity_threshold не может быть отрицательным", ErrInvalidConfig)
	}
	if c.OTP.MaxAttempts <= 0 {
		return fmt.Errorf("%w: otp.max_attempts должен быть положительным", ErrInvalidConfig)
	}
	if c.Generative.Enabled && c.Generative.APIKey == "" {
		return fmt.Errorf("%w: генерация описаний включена без api_key", ErrMissingCredentials)
	}
	return nil
}
