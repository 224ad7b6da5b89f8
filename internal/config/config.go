package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/2beens/repcoach/internal/evaluator"
	"github.com/2beens/repcoach/internal/faceauth"
	"github.com/2beens/repcoach/internal/pose"
	"github.com/2beens/repcoach/internal/session"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// storage
	RedisHost    string `toml:"redis_host"`
	RedisPort    string `toml:"redis_port"`
	PostgresHost string `toml:"postgres_host"`
	PostgresPort string `toml:"postgres_port"`
	PostgresDB   string `toml:"postgres_db"`
	PostgresUser string `toml:"postgres_user"`
	// 0 leaves pool sizing to pgxpool
	PostgresMaxConns int32 `toml:"postgres_max_conns"`
	// telemetry
	TracingEnabled        bool   `toml:"tracing_enabled"`
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// session tuning
	InitialCountdown    int     `toml:"initial_countdown"`
	RestPeriod          int     `toml:"rest_period"`
	RepSlack            float64 `toml:"rep_slack"`
	HoldUpSlack         float64 `toml:"hold_up_slack"`
	HoldDownSlack       float64 `toml:"hold_down_slack"`
	VisibilityThreshold float64 `toml:"visibility_threshold"`
	RefreshRateHz       int     `toml:"refresh_rate_hz"`
	// PoseEngineURL is the pose estimation service used with a live webcam.
	PoseEngineURL     string        `toml:"pose_engine_url"`
	PoseEngineTimeout time.Duration `toml:"pose_engine_timeout"`
	// login
	FaceAcceptConfidence float64       `toml:"face_accept_confidence"`
	FaceCompareURL       string        `toml:"face_compare_url"`
	FaceCompareTimeout   time.Duration `toml:"face_compare_timeout"`
	LoginAttemptsPerMin  int           `toml:"login_attempts_per_min"`
	LoginSessionTTL      time.Duration `toml:"login_session_ttl"`
	AllowedOrigins       []string      `toml:"allowed_origins"`
	// CatalogPath overrides the embedded exercise catalog when set.
	CatalogPath string `toml:"catalog_path"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func (c *Config) IsProduction() bool {
	return c.Environment == "prod" || c.Environment == "production"
}

// Load reads the TOML file at path and returns the section for env with
// defaults filled in.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for config already in memory.
func Parse(env, data string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(data, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config section for env: %s", env)
	}
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	cfg.ApplyDefaults()
	return cfg, cfg.Validate()
}

// ApplyDefaults fills every zero tuning value with its default.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = "6379"
	}
	if c.PostgresHost == "" {
		c.PostgresHost = "localhost"
	}
	if c.PostgresPort == "" {
		c.PostgresPort = "5432"
	}
	if c.PostgresDB == "" {
		c.PostgresDB = "repcoach"
	}
	if c.PostgresUser == "" {
		c.PostgresUser = "postgres"
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.InitialCountdown == 0 {
		c.InitialCountdown = session.DefaultInitialCountdown
	}
	if c.RestPeriod == 0 {
		c.RestPeriod = session.DefaultRestPeriod
	}
	if c.RepSlack == 0 {
		c.RepSlack = evaluator.DefaultRepSlack
	}
	if c.HoldUpSlack == 0 {
		c.HoldUpSlack = evaluator.DefaultHoldUpSlack
	}
	if c.HoldDownSlack == 0 {
		c.HoldDownSlack = evaluator.DefaultHoldDownSlack
	}
	if c.VisibilityThreshold == 0 {
		c.VisibilityThreshold = pose.DefaultVisibilityThreshold
	}
	if c.RefreshRateHz == 0 {
		c.RefreshRateHz = pose.DefaultRefreshRate
	}
	if c.PoseEngineURL == "" {
		c.PoseEngineURL = "http://localhost:9200"
	}
	if c.PoseEngineTimeout == 0 {
		c.PoseEngineTimeout = 2 * time.Second
	}
	if c.FaceAcceptConfidence == 0 {
		c.FaceAcceptConfidence = faceauth.DefaultAcceptConfidence
	}
	if c.FaceCompareTimeout == 0 {
		c.FaceCompareTimeout = 10 * time.Second
	}
	if c.LoginAttemptsPerMin == 0 {
		c.LoginAttemptsPerMin = 5
	}
	if c.LoginSessionTTL == 0 {
		c.LoginSessionTTL = 7 * 24 * time.Hour
	}
}

func (c *Config) Validate() error {
	switch {
	case c.Port < 0 || c.Port > 65535:
		return fmt.Errorf("invalid port: %d", c.Port)
	case c.InitialCountdown < 0:
		return fmt.Errorf("initial_countdown must not be negative: %d", c.InitialCountdown)
	case c.RestPeriod < 0:
		return fmt.Errorf("rest_period must not be negative: %d", c.RestPeriod)
	case c.RepSlack < 0 || c.HoldUpSlack < 0 || c.HoldDownSlack < 0:
		return fmt.Errorf("slack values must not be negative")
	case c.VisibilityThreshold > 1:
		return fmt.Errorf("visibility_threshold must be within (0, 1]: %v", c.VisibilityThreshold)
	case c.FaceAcceptConfidence > 1:
		return fmt.Errorf("face_accept_confidence must be within (0, 1]: %v", c.FaceAcceptConfidence)
	}
	return nil
}

func (c *Config) SessionConfig(bmr float64) session.Config {
	return session.Config{
		InitialCountdown: c.InitialCountdown,
		RestPeriod:       c.RestPeriod,
		BMR:              bmr,
	}
}

func (c *Config) EvaluatorConfig() evaluator.Config {
	return evaluator.Config{
		RepSlack:      c.RepSlack,
		HoldUpSlack:   c.HoldUpSlack,
		HoldDownSlack: c.HoldDownSlack,
	}
}

func (c *Config) AdapterConfig() pose.AdapterConfig {
	return pose.AdapterConfig{
		VisibilityThreshold: c.VisibilityThreshold,
		RefreshRateHz:       c.RefreshRateHz,
	}
}
