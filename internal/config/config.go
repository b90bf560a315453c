package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Corpus backends
const (
	BackendDir = "dir"
	BackendS3  = "s3"
)

type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	CorpusBackend string `envconfig:"CORPUS_BACKEND" default:"dir"`
	CorpusDir     string `envconfig:"CORPUS_DIR" default:"content/chapters"`
	CorpusPrefix  string `envconfig:"CORPUS_PREFIX" default:"chapters/"`
	RulesFile     string `envconfig:"RULES_FILE"`

	// Optional: the run log is disabled without a database.
	DatabaseURL string `envconfig:"DATABASE_URL"`

	S3Endpoint     string `envconfig:"S3_ENDPOINT"`
	S3AccessKey    string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey    string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket       string `envconfig:"S3_BUCKET" default:"chapterkit-corpus"`
	S3Region       string `envconfig:"S3_REGION" default:"us-east-1"`
	S3UsePathStyle bool   `envconfig:"S3_USE_PATH_STYLE" default:"true"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	// Zero disables the scheduler.
	ScheduleInterval time.Duration `envconfig:"SCHEDULE_INTERVAL" default:"0s"`
	SchedulePasses   []string      `envconfig:"SCHEDULE_PASSES" default:"long-answers,qa-cards"`

	APIToken string `envconfig:"API_TOKEN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("CHAPTERKIT", &cfg); err != nil {
		return nil, eris.Wrap(err, "config: process env")
	}

	cfg.CorpusBackend = strings.ToLower(strings.TrimSpace(cfg.CorpusBackend))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		zap.L().Fatal("failed to load config", zap.Error(err))
	}
	return cfg
}

// Validate checks values envconfig cannot express.
func (c *Config) Validate() error {
	switch c.CorpusBackend {
	case BackendDir:
		if c.CorpusDir == "" {
			return eris.New("config: CORPUS_DIR is required for the dir backend")
		}
	case BackendS3:
		if !c.HasS3() {
			return eris.New("config: S3_BUCKET, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are required for the s3 backend")
		}
	default:
		return eris.Errorf("config: unknown CORPUS_BACKEND %q", c.CorpusBackend)
	}

	if c.ScheduleInterval < 0 {
		return eris.New("config: SCHEDULE_INTERVAL cannot be negative")
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Bucket != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

func (c *Config) HasSchedule() bool {
	return c.ScheduleInterval > 0 && len(c.SchedulePasses) > 0
}
