package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "peerrank"

type Config struct {
	LogMode         string        `envconfig:"LOG_MODE" default:"development"`
	Address         string        `envconfig:"ADDRESS" default:":8080"`
	ServiceName     string        `envconfig:"SERVICE_NAME" default:"peerrank"`
	Environment     string        `envconfig:"ENVIRONMENT" default:"development"`
	Version         string        `envconfig:"VERSION" default:"dev"`
	MetricsEnabled  bool          `envconfig:"METRICS_ENABLED" default:"true"`
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`

	DB    DBConfig    `envconfig:"DB"`
	JWT   JWTConfig   `envconfig:"JWT"`
	Redis RedisConfig `envconfig:"REDIS"`
	Otel  OtelConfig  `envconfig:"OTEL"`

	LedgerWindow time.Duration `envconfig:"LEDGER_WINDOW" default:"60s"`
	// Empty defers to the policy file, then to reject.
	LedgerReadOnlyPolicy string        `envconfig:"LEDGER_READ_ONLY_POLICY"`
	NotifyTimeout        time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"5s"`
	NotifyParallel       int           `envconfig:"NOTIFY_PARALLEL" default:"8"`

	PolicyFile string        `envconfig:"POLICY_FILE"`
	Policy     RankingPolicy `ignored:"true"`
}

type DBConfig struct {
	Driver       string `envconfig:"DRIVER" default:"postgres"`
	DSN          string `envconfig:"DSN"`
	Host         string `envconfig:"HOST"`
	Port         string `envconfig:"PORT"`
	User         string `envconfig:"USER"`
	Password     string `envconfig:"PASSWORD"`
	Name         string `envconfig:"NAME"`
	SQLitePath   string `envconfig:"SQLITE_PATH"`
	MaxOpenConns int    `envconfig:"MAX_OPEN_CONNS"`
	Tracing      bool   `envconfig:"TRACING"`
}

type JWTConfig struct {
	SecretKey string `envconfig:"SECRET_KEY"`
	Issuer    string `envconfig:"ISSUER"`
	Audience  string `envconfig:"AUDIENCE"`
}

type RedisConfig struct {
	Addr     string `envconfig:"ADDR"`
	Password string `envconfig:"PASSWORD"`
	DB       int    `envconfig:"DB"`
	Channel  string `envconfig:"CHANNEL"`
}

// OtelConfig configures tracing. Headers use envconfig map syntax:
// "key1:value1,key2:value2".
type OtelConfig struct {
	Enabled     bool              `envconfig:"ENABLED"`
	SampleRatio float64           `envconfig:"SAMPLE_RATIO" default:"0.1"`
	Endpoint    string            `envconfig:"ENDPOINT"`
	Headers     map[string]string `envconfig:"HEADERS"`
	Insecure    bool              `envconfig:"INSECURE"`
}

// LoadConfig reads PEERRANK_* environment variables and the optional ranking
// policy file.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}
	if strings.TrimSpace(cfg.PolicyFile) != "" {
		policy, err := LoadRankingPolicy(cfg.PolicyFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = policy
	}
	return cfg, nil
}

// ReadOnlyPolicy resolves the ledger read-only policy: env, then policy file.
func (c Config) ReadOnlyPolicy() aggregates.ReadOnlyPolicy {
	if v := strings.TrimSpace(c.LedgerReadOnlyPolicy); v != "" {
		return aggregates.ParseReadOnlyPolicy(v)
	}
	return aggregates.ParseReadOnlyPolicy(c.Policy.Ledger.ReadOnlyPolicy)
}

// ValidateServe checks the settings only the HTTP server needs.
func (c Config) ValidateServe() error {
	if strings.TrimSpace(c.JWT.SecretKey) == "" {
		return fmt.Errorf("PEERRANK_JWT_SECRET_KEY is required")
	}
	return nil
}
