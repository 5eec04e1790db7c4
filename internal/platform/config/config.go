package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Cfg 是一个全局变量，用于存储所有应用程序的配置
var Cfg *Config

// Config mirrors the structure of config.yaml.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	LotteryAPI LotteryAPIConfig `mapstructure:"lotteryApi"`
	Sync       SyncConfig       `mapstructure:"sync"`
	Lottery    LotteryConfig    `mapstructure:"lottery"`
	Fill       FillConfig       `mapstructure:"fill"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Mode    string     `mapstructure:"mode"`
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
	// AdminKey guards /api/admin. Empty disables the admin routes.
	AdminKey string `mapstructure:"adminKey"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig covers the mirror store and the session cache.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string      `mapstructure:"driver"`
	DSN    string      `mapstructure:"dsn"`
	Redis  RedisConfig `mapstructure:"redis"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LotteryAPIConfig points at the external customer/draw/ticket system.
type LotteryAPIConfig struct {
	BaseURL string        `mapstructure:"baseUrl"`
	APIKey  string        `mapstructure:"apiKey"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// SyncConfig holds the intervals of the background loops.
type SyncConfig struct {
	DrawInterval       time.Duration `mapstructure:"drawInterval"`
	RedisCheckInterval time.Duration `mapstructure:"redisCheckInterval"`
}

// LotteryConfig is the game format used to validate user input when no
// draw has been mirrored yet.
type LotteryConfig struct {
	Pick int `mapstructure:"pick"`
	Pool int `mapstructure:"pool"`
}

// FillConfig configures interactive fill sessions.
type FillConfig struct {
	SessionTTL time.Duration `mapstructure:"sessionTTL"`
	// SessionSecret signs session tokens. Empty means a random key per process.
	SessionSecret string `mapstructure:"sessionSecret"`
	// MaxSubmits per chat within SubmitWindow. Zero disables the limit.
	MaxSubmits   int           `mapstructure:"maxSubmits"`
	SubmitWindow time.Duration `mapstructure:"submitWindow"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.cors.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.adminKey", "")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "lotto.db")
	v.SetDefault("database.redis.address", "localhost:6379")
	v.SetDefault("database.redis.db", 0)

	// keys without a default are invisible to AutomaticEnv during Unmarshal
	v.SetDefault("lotteryApi.baseUrl", "")
	v.SetDefault("lotteryApi.apiKey", "")
	v.SetDefault("lotteryApi.timeout", 10*time.Second)
	v.SetDefault("fill.sessionSecret", "")
	v.SetDefault("database.redis.password", "")

	v.SetDefault("sync.drawInterval", 5*time.Minute)
	v.SetDefault("sync.redisCheckInterval", 5*time.Second)

	v.SetDefault("lottery.pick", 6)
	v.SetDefault("lottery.pool", 45)

	v.SetDefault("fill.sessionTTL", 15*time.Minute)
	v.SetDefault("fill.maxSubmits", 20)
	v.SetDefault("fill.submitWindow", time.Hour)
}

// LoadConfig 函数负责查找、加载和解析配置文件
// An optional .env file is applied to the process environment first, so
// variables such as LOTTERYAPI_APIKEY can live outside config.yaml.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	Cfg = &cfg
	return Cfg, nil
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return errors.New("config: database.driver must be sqlite or postgres")
	}
	if c.LotteryAPI.BaseURL == "" {
		return errors.New("config: lotteryApi.baseUrl is required")
	}
	if c.LotteryAPI.Timeout <= 0 {
		return errors.New("config: lotteryApi.timeout must be positive")
	}
	if c.Sync.DrawInterval <= 0 {
		return errors.New("config: sync.drawInterval must be positive")
	}
	if c.Fill.MaxSubmits > 0 && c.Fill.SubmitWindow <= 0 {
		return errors.New("config: fill.submitWindow must be positive when fill.maxSubmits is set")
	}
	if c.Lottery.Pick <= 0 || c.Lottery.Pool < c.Lottery.Pick {
		return errors.New("config: lottery.pick must be positive and not exceed lottery.pool")
	}
	return nil
}
