package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"mockinterview/internal/ai"
	"mockinterview/internal/common/cache"
	"mockinterview/internal/common/db"
	"mockinterview/internal/common/http/middleware"
	"mockinterview/internal/common/mq"
	"mockinterview/internal/common/storage"
	"mockinterview/internal/compiler/client"
	"mockinterview/pkg/utils/logger"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPAddr        = "0.0.0.0:8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 90 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second

	defaultRequestTimeout = 60 * time.Second
	defaultBatchTimeout   = 80 * time.Second
	// responseHeadroom is left between the relay deadlines and the write timeout so the
	// JSON result still reaches the client.
	responseHeadroom = 5 * time.Second

	providerCodapi = "codapi"
	providerJudge0 = "judge0"
)

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr         string        `yaml:"addr"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
}

// KafkaConfig holds Kafka settings. No brokers means jobs go through an
// in-process queue.
type KafkaConfig struct {
	mq.KafkaConfig `yaml:",inline"`
	ConsumerGroup  string `yaml:"consumerGroup"`
	MemoryBuffer   int    `yaml:"memoryBuffer"`
}

// AuthConfig holds token and login-throttle settings.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwtSecret"`
	JWTIssuer      string        `yaml:"jwtIssuer"`
	AccessTokenTTL time.Duration `yaml:"accessTokenTTL"`
	LoginFailTTL   time.Duration `yaml:"loginFailTTL"`
	LoginFailLimit int           `yaml:"loginFailLimit"`
	UserCacheTTL   time.Duration `yaml:"userCacheTTL"`
	BlacklistLRU   int           `yaml:"blacklistLRU"`
}

// CompilerConfig selects and configures the remote execution backend.
type CompilerConfig struct {
	Provider       string              `yaml:"provider"`
	MaxAttempts    int                 `yaml:"maxAttempts"`
	Backoff        time.Duration       `yaml:"backoff"`
	RequestTimeout time.Duration       `yaml:"requestTimeout"`
	BatchTimeout   time.Duration       `yaml:"batchTimeout"`
	Codapi         client.CodapiConfig `yaml:"codapi"`
	Judge0         client.Judge0Config `yaml:"judge0"`
}

// ResumeConfig holds upload and analysis settings.
type ResumeConfig struct {
	MaxFileSize       int64    `yaml:"maxFileSize"`
	AllowedExtensions []string `yaml:"allowedExtensions"`
	KeyPrefix         string   `yaml:"keyPrefix"`
	Compress          bool     `yaml:"compress"`
	AsyncAnalysis     bool     `yaml:"asyncAnalysis"`
	AnalysisTopic     string   `yaml:"analysisTopic"`
	HistoryLimit      int      `yaml:"historyLimit"`
}

// InterviewConfig holds report settings.
type InterviewConfig struct {
	ReportPrefix   string `yaml:"reportPrefix"`
	ArchiveReports bool   `yaml:"archiveReports"`
}

// RateLimitConfig holds per-route limits for code execution.
type RateLimitConfig struct {
	RedisTimeout time.Duration              `yaml:"redisTimeout"`
	Execute      middleware.RateLimitPolicy `yaml:"execute"`
}

// AppConfig holds interview-service config.
type AppConfig struct {
	Server    ServerConfig          `yaml:"server"`
	Logger    logger.Config         `yaml:"logger"`
	Database  db.MySQLConfig        `yaml:"database"`
	Redis     cache.RedisConfig     `yaml:"redis"`
	MinIO     storage.MinIOConfig   `yaml:"minio"`
	Kafka     KafkaConfig           `yaml:"kafka"`
	Auth      AuthConfig            `yaml:"auth"`
	Compiler  CompilerConfig        `yaml:"compiler"`
	AI        ai.Config             `yaml:"ai"`
	Resume    ResumeConfig          `yaml:"resume"`
	Interview InterviewConfig       `yaml:"interview"`
	RateLimit RateLimitConfig       `yaml:"rateLimit"`
	CORS      middleware.CORSConfig `yaml:"cors"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file failed: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse config file failed: %w", err)
	}
	return nil
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfg := AppConfig{CORS: middleware.DefaultCORSConfig()}
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		cfg.AI.APIKey = key
	}
	if err := validateAppConfig(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func validateAppConfig(cfg *AppConfig) error {
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Redis.Addr == "" {
		return fmt.Errorf("redis addr is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret is required")
	}
	switch strings.ToLower(cfg.Compiler.Provider) {
	case "", providerCodapi:
		if cfg.Compiler.Codapi.URL == "" {
			return fmt.Errorf("compiler.codapi.url is required")
		}
	case providerJudge0:
		if cfg.Compiler.Judge0.URL == "" || cfg.Compiler.Judge0.APIKey == "" {
			return fmt.Errorf("compiler.judge0.url and apiKey are required")
		}
	default:
		return fmt.Errorf("unknown compiler provider %q", cfg.Compiler.Provider)
	}
	return nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultHTTPAddr
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = defaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = defaultWriteTimeout
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = defaultIdleTimeout
	}
	cfg.Redis = cfg.Redis.WithDefaults()
	if cfg.Compiler.Provider == "" {
		cfg.Compiler.Provider = providerCodapi
	}
	cfg.Compiler.Provider = strings.ToLower(cfg.Compiler.Provider)
	applyCompilerDeadlines(&cfg.Compiler, cfg.Server.WriteTimeout)
	if cfg.Kafka.ConsumerGroup == "" {
		cfg.Kafka.ConsumerGroup = "interview-service"
	}
	if cfg.Kafka.MemoryBuffer <= 0 {
		cfg.Kafka.MemoryBuffer = 256
	}
	if cfg.Auth.BlacklistLRU <= 0 {
		cfg.Auth.BlacklistLRU = 4096
	}
	if cfg.RateLimit.Execute.Window == 0 {
		cfg.RateLimit.Execute.Window = time.Minute
	}
}

// applyCompilerDeadlines keeps single runs and test batches inside the server write timeout.
func applyCompilerDeadlines(cfg *CompilerConfig, writeTimeout time.Duration) {
	limit := writeTimeout - responseHeadroom
	if limit <= 0 {
		limit = writeTimeout
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = defaultBatchTimeout
	}
	if cfg.RequestTimeout > limit {
		cfg.RequestTimeout = limit
	}
	if cfg.BatchTimeout > limit {
		cfg.BatchTimeout = limit
	}
}
