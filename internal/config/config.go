package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Ledger   LedgerConfig   `mapstructure:"ledger"`
	Outbox   OutboxConfig   `mapstructure:"outbox"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig selects one of mysql, postgres or sqlite.
// Path is only used by sqlite.
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Path         string `mapstructure:"path"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	LogMode      bool   `mapstructure:"log_mode"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	LedgerEvents string `mapstructure:"ledger_events"`
}

// LedgerConfig holds budgeting policy knobs.
type LedgerConfig struct {
	// AllowNegativeReadyToAssign turns the Ready-to-Assign check of assign
	// into a warning for every caller.
	AllowNegativeReadyToAssign bool `mapstructure:"allow_negative_ready_to_assign"`
	SweepLockSeconds           int  `mapstructure:"sweep_lock_seconds"`
	// RecurringMaxFailures 模板连续生成失败达到该次数后自动停用
	RecurringMaxFailures       int  `mapstructure:"recurring_max_failures"`
}

type OutboxConfig struct {
	BatchSize     int `mapstructure:"batch_size"`
	MaxRetryCount int `mapstructure:"max_retry_count"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// EnvPrefix 环境变量前缀，例如 LEDGER_SERVER_PORT=9000
const EnvPrefix = "LEDGER"

// Default returns a configuration usable without any file: sqlite on disk,
// no Redis, no Kafka.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, Mode: "release"},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			Path:         "data/ledger.db",
			MaxOpenConns: 10,
			MaxIdleConns: 5,
		},
		Kafka:  KafkaConfig{Topic: KafkaTopicConfig{LedgerEvents: "ledger-events"}},
		Ledger: LedgerConfig{SweepLockSeconds: 60, RecurringMaxFailures: 3},
		Outbox: OutboxConfig{BatchSize: 100, MaxRetryCount: 5},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig 加载配置文件，环境变量优先于文件
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	} else {
		v.SetConfigFile(configPath)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 未指定文件且默认路径不存在时，仅使用默认值和环境变量
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults 注册所有键，AutomaticEnv 只会覆盖已知的键
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 0)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.database", "")
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.log_mode", false)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic.ledger_events", d.Kafka.Topic.LedgerEvents)
	v.SetDefault("ledger.allow_negative_ready_to_assign", false)
	v.SetDefault("ledger.sweep_lock_seconds", d.Ledger.SweepLockSeconds)
	v.SetDefault("ledger.recurring_max_failures", d.Ledger.RecurringMaxFailures)
	v.SetDefault("outbox.batch_size", d.Outbox.BatchSize)
	v.SetDefault("outbox.max_retry_count", d.Outbox.MaxRetryCount)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate 校验配置
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return fmt.Errorf("database %s requires host and database", c.Database.Driver)
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database sqlite requires path")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka enabled without brokers")
	}
	switch c.Server.Mode {
	case "", "debug", "release", "test":
	default:
		return fmt.Errorf("unsupported server mode %q", c.Server.Mode)
	}
	if c.Ledger.RecurringMaxFailures <= 0 {
		return fmt.Errorf("ledger.recurring_max_failures must be positive")
	}
	if c.Outbox.MaxRetryCount <= 0 {
		return fmt.Errorf("outbox.max_retry_count must be positive")
	}
	return nil
}
