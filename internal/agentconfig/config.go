package agentconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/lisanmuaddib/triage-agent/pkg/agent"
	"github.com/lisanmuaddib/triage-agent/pkg/db"
	"github.com/lisanmuaddib/triage-agent/pkg/db/models"
	"github.com/lisanmuaddib/triage-agent/pkg/pipeline"
)

// Feed providers
const (
	FeedTwitter = "twitter"
	FeedMasa    = "masa"
)

// Config is the agent's file configuration, overlaid by environment variables.
type Config struct {
	LogLevel    string `yaml:"logLevel"`
	LogFormat   string `yaml:"logFormat"` // "color" or "json"
	MetricsAddr string `yaml:"metricsAddr"`
	RedisURL    string `yaml:"redisURL"`
	// FeedProvider selects the feed backend: "twitter" (API v2) or "masa".
	FeedProvider string        `yaml:"feedProvider"`
	Database     db.Config     `yaml:"database"`
	Poll         PollConfig    `yaml:"poll"`
	Scoring      ScoringConfig `yaml:"scoring"`
	Accounts     []AccountSeed `yaml:"accounts"`
}

// PollConfig controls the cycle cadence and its bounds.
type PollConfig struct {
	Schedule       string        `yaml:"schedule"`
	RunTimeout     time.Duration `yaml:"runTimeout"`
	Window         time.Duration `yaml:"window"`
	ChunkSize      int           `yaml:"chunkSize"`
	AccountTimeout time.Duration `yaml:"accountTimeout"`
	Concurrency    int           `yaml:"concurrency"`
	StaleCycles    int           `yaml:"staleCycles"`
	MaxStaleCycles int           `yaml:"maxStaleCycles"`
	MaxBuffered    int           `yaml:"maxBuffered"`
	MaxScoreBatch  int           `yaml:"maxScoreBatch"`
	LockTTL        time.Duration `yaml:"lockTTL"`
}

// ScoringConfig describes what operators care about.
type ScoringConfig struct {
	Criteria []string `yaml:"criteria"`
}

// AccountSeed is an account to watch at startup. PlatformUserID is resolved from the
// handle when empty.
type AccountSeed struct {
	Handle         string                `yaml:"handle"`
	PlatformUserID string                `yaml:"platformUserID"`
	OperatorID     string                `yaml:"operatorID"`
	Config         *models.AccountConfig `yaml:"config"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		LogLevel:     "info",
		LogFormat:    "color",
		MetricsAddr:  ":9090",
		FeedProvider: FeedTwitter,
		Database:     db.Config{Driver: db.DriverPostgres, Port: "5432"},
		Poll: PollConfig{
			Schedule:       agent.DefaultPollSchedule,
			RunTimeout:     agent.DefaultPollTimeout,
			Window:         pipeline.DefaultWindow,
			ChunkSize:      pipeline.DefaultChunkSize,
			AccountTimeout: pipeline.DefaultAccountTimeout,
			Concurrency:    pipeline.DefaultConcurrency,
			StaleCycles:    pipeline.DefaultStaleCycles,
			MaxStaleCycles: pipeline.DefaultMaxStaleCycles,
			MaxBuffered:    pipeline.DefaultMaxBuffered,
			MaxScoreBatch:  pipeline.DefaultMaxScoreBatch,
			LockTTL:        15 * time.Minute,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies the environment.
// An empty path skips the file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.ResolveEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ResolveEnv overrides fields from environment variables when they are set.
func (c *Config) ResolveEnv() {
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.MetricsAddr, "METRICS_ADDR")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.FeedProvider, "FEED_PROVIDER")
	setString(&c.Poll.Schedule, "POLL_SCHEDULE")
	setDuration(&c.Poll.Window, "POLL_WINDOW")
	setDuration(&c.Poll.AccountTimeout, "POLL_ACCOUNT_TIMEOUT")
	setInt(&c.Poll.ChunkSize, "POLL_CHUNK_SIZE")
	setInt(&c.Poll.Concurrency, "POLL_CONCURRENCY")
	setInt(&c.Poll.MaxScoreBatch, "POLL_MAX_SCORE_BATCH")
	c.Database = db.ConfigFromEnv(c.Database)
}

func (c Config) Validate() error {
	var errs []error
	if _, err := agent.ParseSchedule(c.Poll.Schedule); err != nil {
		errs = append(errs, err)
	}
	if c.Poll.Window <= 0 {
		errs = append(errs, errors.New("poll window must be positive"))
	}
	if c.Poll.ChunkSize < 1 {
		errs = append(errs, errors.New("chunk size must be at least 1"))
	}
	if c.Poll.StaleCycles > 0 && c.Poll.MaxStaleCycles > 0 && c.Poll.MaxStaleCycles < c.Poll.StaleCycles {
		errs = append(errs, errors.New("max stale cycles must not be below stale cycles"))
	}
	if c.FeedProvider != FeedTwitter && c.FeedProvider != FeedMasa {
		errs = append(errs, fmt.Errorf("unknown feed provider %q", c.FeedProvider))
	}
	if c.LogFormat != "color" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}
	if err := c.Database.Validate(); err != nil {
		errs = append(errs, err)
	}
	for i, seed := range c.Accounts {
		if seed.OperatorID == "" || (seed.Handle == "" && seed.PlatformUserID == "") {
			errs = append(errs, fmt.Errorf("account %d needs an operator and a handle or user id", i))
		}
		if seed.Config != nil {
			if err := seed.Config.Validate(); err != nil {
				errs = append(errs, fmt.Errorf("account %d: %w", i, err))
			}
		}
	}
	return errors.Join(errs...)
}

// ThreadConfig maps the poll settings onto the thread reconstructor.
func (p PollConfig) ThreadConfig() pipeline.ThreadConfig {
	return pipeline.ThreadConfig{
		StaleCycles:    p.StaleCycles,
		MaxStaleCycles: p.MaxStaleCycles,
		MaxBuffered:    p.MaxBuffered,
	}
}

// TaskConfigs builds the agent task table from the poll settings.
func (p PollConfig) TaskConfigs() map[agent.TaskType]agent.TaskConfig {
	poll := agent.DefaultTaskConfigs[agent.TaskPoll]
	poll.Schedule = p.Schedule
	if p.RunTimeout > 0 {
		poll.Timeout = p.RunTimeout
	}
	return map[agent.TaskType]agent.TaskConfig{agent.TaskPoll: poll}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = n
	}
}

func setDuration(dst *time.Duration, key string) {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = d
	}
}
