package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Database drivers understood by the store bootstrap.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort      string
	JWTSecret    string
	JWTExpiresIn time.Duration
	BcryptCost   int
	// Database
	DBDriver      string
	DatabaseURI   string
	DBHost        string
	DBPort        string
	DBUser        string
	DBPassword    string
	DBName        string
	MongoDatabase string
	// Redis backs token revocation when enabled
	RedisEnabled  bool
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string
	// HTTP surface
	RateLimitPerMinute int
	AllowedOrigins     []string
	GinMode            string
	GinPath            string
	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool
}

// ErrMissingSecret is returned when no token signing secret is configured.
var ErrMissingSecret = errors.New("JWT_SECRET must be set in environment variables")

var cfg AppConfig
var loaded bool

// Load loads the application configuration from config/config.json and the environment.
// It should be called once during boot.
func Load() AppConfig {
	if loaded {
		return cfg
	}
	c, err := Parse(filepath.Join("config", "config.json"), os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	cfg = c
	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Parse builds a configuration with precedence config file -> defaults -> environment.
// A missing file is not an error; malformed JSON or values are.
func Parse(path string, getenv func(string) string) (AppConfig, error) {
	var c AppConfig
	if err := loadJSONConfig(path, &c); err != nil {
		return AppConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}

	applyDefaults(&c)

	if err := applyEnvOverrides(&c, getenv); err != nil {
		return AppConfig{}, err
	}

	if c.JWTSecret == "" {
		return AppConfig{}, ErrMissingSecret
	}
	switch c.DBDriver {
	case DriverMySQL, DriverSQLite, DriverMongo, DriverMemory:
	default:
		return AppConfig{}, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	return c, nil
}

// MySQLDSN returns DatabaseURI or a DSN assembled from the discrete DB settings.
func (c AppConfig) MySQLDSN() string {
	if c.DatabaseURI != "" {
		return c.DatabaseURI
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// loadJSONConfig reads grouped JSON sections into out if the file is present.
func loadJSONConfig(path string, out *AppConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return nil // silently ignore missing file
	}
	defer f.Close()

	var raw map[string]any
	if err := json.NewDecoder(f).Decode(&raw); err != nil {
		return err
	}

	getString := func(m map[string]any, key string) string {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
		return ""
	}
	getInt := func(m map[string]any, key string) int {
		if v, ok := m[key]; ok {
			if f, ok := v.(float64); ok {
				return int(f)
			}
		}
		return 0
	}
	getBool := func(m map[string]any, key string) bool {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
		return false
	}
	getStringSlice := func(m map[string]any, key string) []string {
		arr, ok := m[key].([]any)
		if !ok {
			return nil
		}
		res := make([]string, 0, len(arr))
		for _, it := range arr {
			if s, ok := it.(string); ok {
				res = append(res, s)
			}
		}
		return res
	}

	if app, ok := raw["app"].(map[string]any); ok {
		out.AppPort = getString(app, "AppPort")
		out.JWTSecret = getString(app, "JWTSecret")
		if v := getString(app, "JWTExpiresIn"); v != "" {
			d, err := ParseExpiry(v)
			if err != nil {
				return err
			}
			out.JWTExpiresIn = d
		}
		out.BcryptCost = getInt(app, "BcryptCost")
		out.RateLimitPerMinute = getInt(app, "RateLimitPerMinute")
		if list := getStringSlice(app, "AllowedOrigins"); len(list) > 0 {
			out.AllowedOrigins = list
		}
	}

	if g, ok := raw["gin"].(map[string]any); ok {
		out.GinMode = getString(g, "Mode")
		out.GinPath = getString(g, "LogPath")
	}

	if dbs, ok := raw["database"].(map[string]any); ok {
		out.DBDriver = getString(dbs, "Driver")
		out.DatabaseURI = getString(dbs, "DatabaseURI")
		out.DBHost = getString(dbs, "DBHost")
		out.DBPort = getString(dbs, "DBPort")
		out.DBUser = getString(dbs, "DBUser")
		out.DBPassword = getString(dbs, "DBPassword")
		out.DBName = getString(dbs, "DBName")
		out.MongoDatabase = getString(dbs, "MongoDatabase")
	}

	if rds, ok := raw["redis"].(map[string]any); ok {
		out.RedisEnabled = getBool(rds, "Enabled")
		out.RedisHost = getString(rds, "RedisHost")
		out.RedisPort = getInt(rds, "RedisPort")
		out.RedisDB = getInt(rds, "RedisDB")
		out.RedisPassword = getString(rds, "RedisPassword")
	}

	if lg, ok := raw["log"].(map[string]any); ok {
		out.LogLevel = getString(lg, "Level")
		out.LogPath = getString(lg, "Path")
		out.LogMaxSizeMB = getInt(lg, "MaxSizeMB")
		out.LogMaxBackups = getInt(lg, "MaxBackups")
		out.LogMaxAgeDays = getInt(lg, "MaxAgeDays")
		out.LogCompress = getBool(lg, "Compress")
	}
	return nil
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "5000"
	}
	if c.JWTExpiresIn == 0 {
		c.JWTExpiresIn = time.Hour
	}
	if c.DBDriver == "" {
		c.DBDriver = DriverMySQL
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "blog"
	}
	if c.MongoDatabase == "" {
		c.MongoDatabase = "blog"
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.RateLimitPerMinute == 0 {
		c.RateLimitPerMinute = 60
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	var err error
	num := func(key string, dst *int) {
		v := strings.TrimSpace(getenv(key))
		if v == "" || err != nil {
			return
		}
		n, convErr := strconv.Atoi(v)
		if convErr != nil {
			err = fmt.Errorf("invalid integer value %s=%q: %w", key, v, convErr)
			return
		}
		*dst = n
	}
	flag := func(key string, dst *bool) {
		v := strings.TrimSpace(getenv(key))
		if v == "" || err != nil {
			return
		}
		b, convErr := strconv.ParseBool(v)
		if convErr != nil {
			err = fmt.Errorf("invalid boolean value %s=%q: %w", key, v, convErr)
			return
		}
		*dst = b
	}

	str("PORT", &c.AppPort)
	str("APP_PORT", &c.AppPort)
	str("JWT_SECRET", &c.JWTSecret)
	if v := strings.TrimSpace(getenv("JWT_EXPIRES_IN")); v != "" {
		d, parseErr := ParseExpiry(v)
		if parseErr != nil {
			return fmt.Errorf("invalid JWT_EXPIRES_IN: %w", parseErr)
		}
		c.JWTExpiresIn = d
	}
	num("BCRYPT_COST", &c.BcryptCost)

	str("DB_DRIVER", &c.DBDriver)
	c.DBDriver = strings.ToLower(c.DBDriver)
	str("MONGODB_URI", &c.DatabaseURI)
	str("DATABASE_URI", &c.DatabaseURI)
	str("DB_HOST", &c.DBHost)
	str("DB_PORT", &c.DBPort)
	str("DB_USER", &c.DBUser)
	str("DB_PASSWORD", &c.DBPassword)
	str("DB_NAME", &c.DBName)
	str("MONGO_DATABASE", &c.MongoDatabase)

	flag("REDIS_ENABLED", &c.RedisEnabled)
	str("REDIS_HOST", &c.RedisHost)
	num("REDIS_PORT", &c.RedisPort)
	num("REDIS_DB", &c.RedisDB)
	str("REDIS_PASSWORD", &c.RedisPassword)

	num("RATE_LIMIT_PER_MINUTE", &c.RateLimitPerMinute)
	if v := getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	str("GIN_MODE", &c.GinMode)
	str("GIN_PATH", &c.GinPath)

	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_PATH", &c.LogPath)
	num("LOG_MAX_SIZE_MB", &c.LogMaxSizeMB)
	num("LOG_MAX_BACKUPS", &c.LogMaxBackups)
	num("LOG_MAX_AGE_DAYS", &c.LogMaxAgeDays)
	flag("LOG_COMPRESS", &c.LogCompress)
	return err
}

// ParseExpiry understands Go durations ("90m", "1h"), bare seconds ("3600") and whole days ("7d").
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("empty expiry")
	}
	var d time.Duration
	if n, err := strconv.Atoi(s); err == nil {
		d = time.Duration(n) * time.Second
	} else if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q", s)
		}
		d = time.Duration(days) * 24 * time.Hour
	} else {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid expiry %q", s)
		}
		d = parsed
	}
	if d <= 0 {
		return 0, fmt.Errorf("expiry must be positive, got %q", s)
	}
	return d, nil
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
