package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultAppEnv     = "local"
	defaultHost       = "0.0.0.0"
	defaultPort       = 8080
	defaultProcessors = 950
	defaultTimeout    = 60
	defaultRedisAddr  = "localhost:6379"
	defaultRateLimit  = 0
	defaultRateWindow = time.Minute
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges config/app.json (or config/app.yaml) and .env over the
// built-in defaults. It runs once per process; every getter calls it.
func Load() error {
	loadOnce.Do(func() {
		path := "config/app.json"
		if _, err := os.Stat(path); os.IsNotExist(err) {
			path = "config/app.yaml"
		}
		loadErr = loadFromFiles(path, ".env")
	})
	return loadErr
}

// LoadFiles replaces the loaded values with defaults merged with the given
// files. Missing files are skipped.
func LoadFiles(configPath, envPath string) error {
	loadOnce.Do(func() {})
	return loadFromFiles(configPath, envPath)
}

// Set overrides a single key for the rest of the process lifetime.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":           defaultAppEnv,
		"SERVER_HOST":       defaultHost,
		"SERVER_PORT":       strconv.Itoa(defaultPort),
		"SERVER_PROCESSORS": strconv.Itoa(defaultProcessors),
		"SERVER_THROTTLE":   "0",
		"SERVER_TIMEOUT":    strconv.Itoa(defaultTimeout),
		"MAP_HOST":          "",
		"METRICS_PATH":      "/metrics",
		"REDIS_ADDR":        defaultRedisAddr,
		"REDIS_PASSWORD":    "",
		"RATE_LIMIT":        strconv.Itoa(defaultRateLimit),
		"RATE_WINDOW":       defaultRateWindow.String(),
		"RATE_STORE":        "memory",
		"RECOVER_PANICS":    "false",
	}
}

func AppEnv() string {
	_ = Load()
	return get("APP_ENV", defaultAppEnv)
}

// ── Server ───────────────────────────────────────────────────────────────────

func ServerHost() string {
	_ = Load()
	return get("SERVER_HOST", defaultHost)
}

func ServerPort() int {
	_ = Load()
	return getInt("SERVER_PORT", defaultPort)
}

// ServerProcessors is the cap on concurrently open connections.
func ServerProcessors() int {
	_ = Load()
	return getInt("SERVER_PROCESSORS", defaultProcessors)
}

// ServerThrottle is the pause after each accepted connection, in
// hundredths of a second.
func ServerThrottle() int {
	_ = Load()
	return getInt("SERVER_THROTTLE", 0)
}

// ServerTimeout is the request read timeout in seconds.
func ServerTimeout() int {
	_ = Load()
	return getInt("SERVER_TIMEOUT", defaultTimeout)
}

// MapHost restricts host-qualified routing table entries to one host.
func MapHost() string {
	_ = Load()
	return get("MAP_HOST", "")
}

// MetricsPath is where the Prometheus handler is mounted; "off" disables it.
func MetricsPath() string {
	_ = Load()
	p := get("METRICS_PATH", "/metrics")
	if strings.EqualFold(p, "off") {
		return ""
	}
	return p
}

// ── Rate limiting ────────────────────────────────────────────────────────────

// RateLimit is the number of requests allowed per client per RateWindow;
// zero disables the limiter.
// RecoverPanics turns on the Recovery middleware. Off, a panic reaches the
// engine, which answers 500 and logs it with the stack.
func RecoverPanics() bool {
	_ = Load()
	v, err := strconv.ParseBool(get("RECOVER_PANICS", "false"))
	return err == nil && v
}

func RateLimit() int {
	_ = Load()
	return getInt("RATE_LIMIT", defaultRateLimit)
}

func RateWindow() time.Duration {
	_ = Load()
	d, err := time.ParseDuration(get("RATE_WINDOW", defaultRateWindow.String()))
	if err != nil || d <= 0 {
		return defaultRateWindow
	}
	return d
}

// RateStore selects the limiter backend: "memory" or "redis".
func RateStore() string {
	_ = Load()
	store := strings.ToLower(get("RATE_STORE", "memory"))
	switch store {
	case "memory", "redis":
		return store
	default:
		return "memory"
	}
}

// ── Redis ────────────────────────────────────────────────────────────────────

func RedisAddr() string {
	_ = Load()
	return get("REDIS_ADDR", defaultRedisAddr)
}

func RedisPassword() string {
	_ = Load()
	return get("REDIS_PASSWORD", "")
}

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string {
	_ = Load()
	return get("STORAGE_DISK", "local")
}

func StorageLocalRoot() string {
	_ = Load()
	return get("STORAGE_LOCAL_ROOT", "public")
}

// StaticPath is the mount point of the static file application; empty
// disables it.
func StaticPath() string {
	_ = Load()
	return get("STATIC_PATH", "/static")
}

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }

// ── Log sink ─────────────────────────────────────────────────────────────────

func LogMongoURI() string        { _ = Load(); return get("LOG_MONGO_URI", "") }
func LogMongoDB() string         { _ = Load(); return get("LOG_MONGO_DB", "envhttp") }
func LogMongoCollection() string { _ = Load(); return get("LOG_MONGO_COLLECTION", "logs") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeConfigFile(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeConfigFile(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.NewDecoder(file).Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	default:
		if err := json.NewDecoder(file).Decode(&raw); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
	}

	for key, val := range raw {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		switch v := val.(type) {
		case string:
			out[k] = strings.TrimSpace(v)
		case int:
			out[k] = strconv.Itoa(v)
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(v)
		}
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	env, err := godotenv.Read(path)
	if err != nil {
		if os.IsNotExist(err) {
			return err
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func getInt(key string, fallback int) int {
	n, err := strconv.Atoi(get(key, ""))
	if err != nil {
		return fallback
	}
	return n
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// GetInt reads an integer key; unparsable or missing values yield fallback.
func GetInt(key string, fallback int) int {
	_ = Load()
	return getInt(key, fallback)
}
