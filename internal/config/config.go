package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/evidence-portal/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	LogLevel                   logging.Level
	CORSAllowedOrigins         []string
	SwaggerEnabled             bool
	DBEnabled                  bool
	DBURL                      string
	WorkerToken                string
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	Steam                      SteamConfig
	PriceFeedURL               string
	PriceFeedTimeout           time.Duration
	Inventory                  InventoryConfig
	Pricing                    PricingConfig
	Demo                       DemoConfig
	R2                         R2Config
}

type SteamConfig struct {
	WebAPIKey             string
	CommunityBaseURL      string
	APIBaseURL            string
	Timeout               time.Duration
	MaxRetries            int
	UserAgent             string
	CircuitEnabled        bool
	CircuitFailureCount   int
	CircuitOpenTimeout    time.Duration
	CircuitHalfOpenMaxReq int
}

type InventoryConfig struct {
	PageSize          int
	MaxPages          int
	InterPageDelay    time.Duration
	BadRequestBackoff time.Duration
	ValuationTTL      time.Duration
	LookupCacheTTL    time.Duration
}

type PricingConfig struct {
	CacheTTL            time.Duration
	BulkSnapshotTTL     time.Duration
	FallbackMaxRequests int
	InterRequestDelay   time.Duration
	UpsertChunkSize     int
	WriteBackWorkers    int
}

type DemoConfig struct {
	ParseTimeout   time.Duration
	MaxBytes       int64
	DecodeCacheTTL time.Duration
	TempDir        string
}

type R2Config struct {
	AccountID       string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}
	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	readTimeout, err := parsePositiveDuration("APP_READ_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	// Worker uploads carry whole recordings, so writes get a wide default.
	writeTimeout, err := parsePositiveDuration("APP_WRITE_TIMEOUT", "180s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "evidence-portal-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           getEnv("APP_HTTP_ADDR", ":8080"),
		ReadTimeout:        readTimeout,
		WriteTimeout:       writeTimeout,
		LogLevel:           parseLogLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		SwaggerEnabled:     swaggerEnabled,
		DBURL:              strings.TrimSpace(getEnv("DB_URL", "")),
		WorkerToken:        strings.TrimSpace(getEnv("WORKER_TOKEN", "")),
		PriceFeedURL:       strings.TrimSpace(getEnv("PRICE_FEED_URL", "")),
	}

	if err := loadDatabase(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Steam, err = loadSteam(); err != nil {
		return Config{}, err
	}
	if cfg.PriceFeedTimeout, err = parsePositiveDuration("PRICE_FEED_TIMEOUT", "60s"); err != nil {
		return Config{}, err
	}
	if cfg.Inventory, err = loadInventory(); err != nil {
		return Config{}, err
	}
	if cfg.Pricing, err = loadPricing(); err != nil {
		return Config{}, err
	}
	if cfg.Demo, err = loadDemo(); err != nil {
		return Config{}, err
	}
	cfg.R2 = R2Config{
		AccountID:       strings.TrimSpace(getEnv("R2_ACCOUNT_ID", "")),
		Endpoint:        strings.TrimSpace(getEnv("R2_ENDPOINT", "")),
		AccessKeyID:     strings.TrimSpace(getEnv("R2_ACCESS_KEY_ID", "")),
		SecretAccessKey: strings.TrimSpace(getEnv("R2_SECRET_ACCESS_KEY", "")),
		Bucket:          strings.TrimSpace(getEnv("R2_BUCKET", "")),
	}

	return cfg, nil
}

func loadDatabase(cfg *Config) error {
	dbEnabled, err := strconv.ParseBool(getEnv("DB_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse DB_ENABLED: %w", err)
	}
	if dbEnabled && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when DB_ENABLED=true")
	}
	cfg.DBEnabled = dbEnabled
	return nil
}

func loadObservability(cfg *Config) error {
	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofEnabled = pprofEnabled
	cfg.PprofAddr = getEnv("PPROF_ADDR", "127.0.0.1:6060")

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	cfg.UptraceEnabled = uptraceEnabled
	cfg.UptraceDSN = uptraceDSN
	cfg.UptraceLogsEnabled = uptraceLogsEnabled

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := parsePositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return err
	}
	cfg.PyroscopeEnabled = pyroscopeEnabled
	cfg.PyroscopeServerAddress = pyroscopeServerAddress
	cfg.PyroscopeAppName = getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName)
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	cfg.PyroscopeUploadRate = pyroscopeUploadRate
	return nil
}

func loadSteam() (SteamConfig, error) {
	timeout, err := parsePositiveDuration("STEAM_TIMEOUT", "20s")
	if err != nil {
		return SteamConfig{}, err
	}
	maxRetries, err := getEnvAsInt("STEAM_MAX_RETRIES", 1)
	if err != nil {
		return SteamConfig{}, fmt.Errorf("parse STEAM_MAX_RETRIES: %w", err)
	}
	if maxRetries < 0 {
		return SteamConfig{}, fmt.Errorf("STEAM_MAX_RETRIES must be >= 0")
	}

	circuitEnabled, err := strconv.ParseBool(getEnv("STEAM_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return SteamConfig{}, fmt.Errorf("parse STEAM_CIRCUIT_ENABLED: %w", err)
	}
	circuitFailureCount, err := getEnvAsInt("STEAM_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return SteamConfig{}, fmt.Errorf("parse STEAM_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuitFailureCount < 1 {
		return SteamConfig{}, fmt.Errorf("STEAM_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	circuitOpenTimeout, err := parsePositiveDuration("STEAM_CIRCUIT_OPEN_TIMEOUT", "60s")
	if err != nil {
		return SteamConfig{}, err
	}
	circuitHalfOpenMaxReq, err := getEnvAsInt("STEAM_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return SteamConfig{}, fmt.Errorf("parse STEAM_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuitHalfOpenMaxReq < 1 {
		return SteamConfig{}, fmt.Errorf("STEAM_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	return SteamConfig{
		WebAPIKey:             strings.TrimSpace(getEnv("STEAM_WEB_API_KEY", "")),
		CommunityBaseURL:      strings.TrimSpace(getEnv("STEAM_COMMUNITY_BASE_URL", "https://steamcommunity.com")),
		APIBaseURL:            strings.TrimSpace(getEnv("STEAM_API_BASE_URL", "https://api.steampowered.com")),
		Timeout:               timeout,
		MaxRetries:            maxRetries,
		UserAgent:             strings.TrimSpace(getEnv("STEAM_USER_AGENT", "")),
		CircuitEnabled:        circuitEnabled,
		CircuitFailureCount:   circuitFailureCount,
		CircuitOpenTimeout:    circuitOpenTimeout,
		CircuitHalfOpenMaxReq: circuitHalfOpenMaxReq,
	}, nil
}

func loadInventory() (InventoryConfig, error) {
	pageSize, err := getEnvAsInt("INVENTORY_PAGE_SIZE", 75)
	if err != nil {
		return InventoryConfig{}, fmt.Errorf("parse INVENTORY_PAGE_SIZE: %w", err)
	}
	if pageSize <= 0 {
		return InventoryConfig{}, fmt.Errorf("INVENTORY_PAGE_SIZE must be > 0")
	}
	maxPages, err := getEnvAsInt("INVENTORY_MAX_PAGES", 100)
	if err != nil {
		return InventoryConfig{}, fmt.Errorf("parse INVENTORY_MAX_PAGES: %w", err)
	}
	if maxPages <= 0 {
		return InventoryConfig{}, fmt.Errorf("INVENTORY_MAX_PAGES must be > 0")
	}
	interPageDelay, err := parseNonNegativeDuration("INVENTORY_INTER_PAGE_DELAY", "200ms")
	if err != nil {
		return InventoryConfig{}, err
	}
	badRequestBackoff, err := parseNonNegativeDuration("INVENTORY_BAD_REQUEST_BACKOFF", "2s")
	if err != nil {
		return InventoryConfig{}, err
	}
	valuationTTL, err := parsePositiveDuration("INVENTORY_VALUATION_TTL", "24h")
	if err != nil {
		return InventoryConfig{}, err
	}
	lookupCacheTTL, err := parseNonNegativeDuration("INVENTORY_LOOKUP_CACHE_TTL", "1m")
	if err != nil {
		return InventoryConfig{}, err
	}

	return InventoryConfig{
		PageSize:          pageSize,
		MaxPages:          maxPages,
		InterPageDelay:    interPageDelay,
		BadRequestBackoff: badRequestBackoff,
		ValuationTTL:      valuationTTL,
		LookupCacheTTL:    lookupCacheTTL,
	}, nil
}

func loadPricing() (PricingConfig, error) {
	cacheTTL, err := parsePositiveDuration("PRICE_CACHE_TTL", "24h")
	if err != nil {
		return PricingConfig{}, err
	}
	bulkSnapshotTTL, err := parsePositiveDuration("PRICE_BULK_SNAPSHOT_TTL", "30m")
	if err != nil {
		return PricingConfig{}, err
	}
	fallbackMaxRequests, err := getEnvAsInt("PRICE_FALLBACK_MAX_REQUESTS", 15)
	if err != nil {
		return PricingConfig{}, fmt.Errorf("parse PRICE_FALLBACK_MAX_REQUESTS: %w", err)
	}
	if fallbackMaxRequests < 0 {
		return PricingConfig{}, fmt.Errorf("PRICE_FALLBACK_MAX_REQUESTS must be >= 0")
	}
	interRequestDelay, err := parseNonNegativeDuration("PRICE_INTER_REQUEST_DELAY", "3s")
	if err != nil {
		return PricingConfig{}, err
	}
	upsertChunkSize, err := getEnvAsInt("PRICE_UPSERT_CHUNK_SIZE", 100)
	if err != nil {
		return PricingConfig{}, fmt.Errorf("parse PRICE_UPSERT_CHUNK_SIZE: %w", err)
	}
	if upsertChunkSize <= 0 {
		return PricingConfig{}, fmt.Errorf("PRICE_UPSERT_CHUNK_SIZE must be > 0")
	}
	writeBackWorkers, err := getEnvAsInt("PRICE_WRITEBACK_WORKERS", 4)
	if err != nil {
		return PricingConfig{}, fmt.Errorf("parse PRICE_WRITEBACK_WORKERS: %w", err)
	}
	if writeBackWorkers <= 0 {
		return PricingConfig{}, fmt.Errorf("PRICE_WRITEBACK_WORKERS must be > 0")
	}

	return PricingConfig{
		CacheTTL:            cacheTTL,
		BulkSnapshotTTL:     bulkSnapshotTTL,
		FallbackMaxRequests: fallbackMaxRequests,
		InterRequestDelay:   interRequestDelay,
		UpsertChunkSize:     upsertChunkSize,
		WriteBackWorkers:    writeBackWorkers,
	}, nil
}

func loadDemo() (DemoConfig, error) {
	parseTimeout, err := parsePositiveDuration("DEMO_PARSE_TIMEOUT", "60s")
	if err != nil {
		return DemoConfig{}, err
	}
	maxBytes, err := strconv.ParseInt(getEnv("DEMO_MAX_BYTES", strconv.Itoa(500<<20)), 10, 64)
	if err != nil {
		return DemoConfig{}, fmt.Errorf("parse DEMO_MAX_BYTES: %w", err)
	}
	if maxBytes <= 0 {
		return DemoConfig{}, fmt.Errorf("DEMO_MAX_BYTES must be > 0")
	}
	decodeCacheTTL, err := parsePositiveDuration("DEMO_DECODE_CACHE_TTL", "2m")
	if err != nil {
		return DemoConfig{}, err
	}

	return DemoConfig{
		ParseTimeout:   parseTimeout,
		MaxBytes:       maxBytes,
		DecodeCacheTTL: decodeCacheTTL,
		TempDir:        strings.TrimSpace(getEnv("DEMO_TEMP_DIR", os.TempDir())),
	}, nil
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func parseNonNegativeDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("%s must be >= 0", key)
	}
	return value, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
