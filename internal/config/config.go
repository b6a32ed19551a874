package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileEnv names the environment variable holding an optional YAML config file.
// Environment variables take precedence over values read from the file.
const FileEnv = "NUTRILOG_CONFIG"

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Session  SessionConfig
	Storage  StorageConfig
	Archive  ArchiveConfig
}

// ServerConfig configures the HTTP server runtime behavior. AllowedOrigins
// enables CORS for the listed origins; empty disables it.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	UseMock         bool
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string
}

// SessionConfig configures the cookie session holding the recipe draft.
type SessionConfig struct {
	Lifetime     time.Duration
	CookieName   string
	CookieDomain string
	CookieSecure bool
}

// StorageConfig bounds calls made to the database.
type StorageConfig struct {
	Timeout time.Duration
}

// ArchiveConfig points snapshot archiving at an S3 bucket. An empty Bucket
// disables archiving.
type ArchiveConfig struct {
	Bucket string
	Region string
	Prefix string
}

// Load inspects the environment, and the file named by NUTRILOG_CONFIG when
// set, and builds a Config value.
func Load() (Config, error) {
	file, err := readFile(os.Getenv(FileEnv))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{}

	cfg.Server = ServerConfig{
		Addr: firstNonEmpty(
			os.Getenv("SERVER_ADDR"),
			os.Getenv("ADDR"),
			file.GetString("server.addr"),
			":8080",
		),
		AllowedOrigins: parseList(firstNonEmpty(os.Getenv("SERVER_CORS_ORIGINS"), strings.Join(file.GetStringSlice("server.cors_origins"), ","))),
	}

	cfg.Database = DatabaseConfig{
		URL: firstNonEmpty(
			os.Getenv("DATABASE_URL"),
			os.Getenv("DB_URL"),
			file.GetString("database.url"),
			"",
		),
		MaxIdleConns:    parseIntWithDefault(firstNonEmpty(os.Getenv("DATABASE_MAX_IDLE_CONNS"), file.GetString("database.max_idle_conns")), 5),
		MaxOpenConns:    parseIntWithDefault(firstNonEmpty(os.Getenv("DATABASE_MAX_OPEN_CONNS"), file.GetString("database.max_open_conns")), 20),
		ConnMaxLifetime: parseDurationWithDefault(firstNonEmpty(os.Getenv("DATABASE_CONN_MAX_LIFETIME"), file.GetString("database.conn_max_lifetime")), 30*time.Minute),
		ConnMaxIdleTime: parseDurationWithDefault(firstNonEmpty(os.Getenv("DATABASE_CONN_MAX_IDLE_TIME"), file.GetString("database.conn_max_idle_time")), 5*time.Minute),
		UseMock:         parseBoolWithDefault(firstNonEmpty(os.Getenv("DATABASE_USE_MOCK"), file.GetString("database.use_mock")), false),
	}

	cfg.Logging = LoggingConfig{
		Level: strings.ToLower(firstNonEmpty(os.Getenv("LOG_LEVEL"), file.GetString("logging.level"), "info")),
	}

	cfg.Session = SessionConfig{
		Lifetime:     parseDurationWithDefault(firstNonEmpty(os.Getenv("SESSION_LIFETIME"), file.GetString("session.lifetime")), 12*time.Hour),
		CookieName:   firstNonEmpty(os.Getenv("SESSION_COOKIE_NAME"), file.GetString("session.cookie_name"), "nutrilog_session"),
		CookieDomain: firstNonEmpty(os.Getenv("SESSION_COOKIE_DOMAIN"), file.GetString("session.cookie_domain")),
		CookieSecure: parseBoolWithDefault(firstNonEmpty(os.Getenv("SESSION_COOKIE_SECURE"), file.GetString("session.cookie_secure")), false),
	}

	cfg.Storage = StorageConfig{
		Timeout: parseDurationWithDefault(firstNonEmpty(os.Getenv("STORAGE_TIMEOUT"), file.GetString("storage.timeout")), 10*time.Second),
	}

	cfg.Archive = ArchiveConfig{
		Bucket: firstNonEmpty(os.Getenv("ARCHIVE_S3_BUCKET"), file.GetString("archive.bucket")),
		Region: firstNonEmpty(os.Getenv("ARCHIVE_S3_REGION"), os.Getenv("AWS_REGION"), file.GetString("archive.region")),
		Prefix: strings.Trim(firstNonEmpty(os.Getenv("ARCHIVE_S3_PREFIX"), file.GetString("archive.prefix"), "snapshots"), "/"),
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}
	if !cfg.Database.UseMock && strings.TrimSpace(cfg.Database.URL) == "" {
		return Config{}, fmt.Errorf("database URL must be set unless the mock database is enabled")
	}

	return cfg, nil
}

// readFile loads the YAML file at path. A blank path yields an empty viper so
// every lookup falls through to the defaults.
func readFile(path string) (*viper.Viper, error) {
	v := viper.New()
	if strings.TrimSpace(path) == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func parseIntWithDefault(value string, def int) int {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseDurationWithDefault(value string, def time.Duration) time.Duration {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseBoolWithDefault(value string, def bool) bool {
	if strings.TrimSpace(value) == "" {
		return def
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return def
	}
	return parsed
}

func parseList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
