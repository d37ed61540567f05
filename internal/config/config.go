package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Queue    QueueConfig    `mapstructure:"queue"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	Referral ReferralConfig `mapstructure:"referral"`
}

// AppConfig 服务基础配置
type AppConfig struct {
	Name string `mapstructure:"name"`
	Mode string `mapstructure:"mode"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 HTTP 监听地址
func (c AppConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DatabaseConfig 数据库配置，driver 支持 sqlite / postgres / mysql
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	DSN             string `mapstructure:"dsn"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis 缓存配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	RedisAddr   string `mapstructure:"redis_addr"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	Concurrency int    `mapstructure:"concurrency"`
}

// JWTConfig 登录态配置
type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	ExpireHour int    `mapstructure:"expire_hour"`
	Issuer     string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ReferralConfig 分销佣金配置
type ReferralConfig struct {
	// Rates 各层级佣金比例，键为层级（1 起）
	Rates map[int]float64 `mapstructure:"rates"`
	// HopCap 链路遍历的总跳数上限（含被跳过的非师傅节点）
	HopCap int `mapstructure:"hop_cap"`
	// SummaryTTLSeconds 看板摘要缓存时长
	SummaryTTLSeconds int `mapstructure:"summary_ttl_seconds"`
}

// RateTable 返回 decimal 形式的层级比例表
func (c ReferralConfig) RateTable() map[int]decimal.Decimal {
	table := make(map[int]decimal.Decimal, len(c.Rates))
	for level, rate := range c.Rates {
		table[level] = decimal.NewFromFloat(rate)
	}
	return table
}

// Load 加载配置：可选配置文件 + 环境变量覆盖 + 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("XIUDA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s failed: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config failed: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	normalize(&cfg)
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "xiuda-next")
	v.SetDefault("app.mode", "release")
	v.SetDefault("app.host", "0.0.0.0")
	v.SetDefault("app.port", 8080)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "data/xiuda.db")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 3600)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "xiuda:")

	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.redis_addr", "127.0.0.1:6379")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 10)

	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.expire_hour", 72)
	v.SetDefault("jwt.issuer", "xiuda-next")

	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "xiuda.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)

	v.SetDefault("referral.rates", map[string]float64{
		"1": 0.10,
		"2": 0.05,
		"3": 0.03,
	})
	v.SetDefault("referral.hop_cap", 10)
	v.SetDefault("referral.summary_ttl_seconds", 60)
}

func normalize(cfg *Config) {
	if len(cfg.Referral.Rates) == 0 {
		cfg.Referral.Rates = map[int]float64{1: 0.10, 2: 0.05, 3: 0.03}
	}
	if cfg.Referral.HopCap <= 0 {
		cfg.Referral.HopCap = 10
	}
	if cfg.Referral.SummaryTTLSeconds <= 0 {
		cfg.Referral.SummaryTTLSeconds = 60
	}
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = 10
	}
}
