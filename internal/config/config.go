package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyRedisURL     = "redis_url"
	KeyChannel      = "channel"
	KeyPublishKey   = "publish_key"
	KeySubscribeKey = "subscribe_key"
	KeyHistoryLimit = "history_limit"
	KeyAnnounceMax  = "announce_max"
	KeyPresenceTTL  = "presence_ttl"
	KeyLogLevel     = "log_level"
	KeyLogFile      = "log_file"
	KeyMetricsAddr  = "metrics_addr"

	DefaultRedisURL     = "redis://localhost:6379/0"
	DefaultChannel      = "group_chat"
	DefaultHistoryLimit = 8
	DefaultAnnounceMax  = 20
	DefaultPresenceTTL  = 30 * time.Second
	DefaultLogLevel     = "info"

	envPrefix  = "GCHAT"
	configName = "config"
	configType = "toml"
	configDir  = ".gchat"
	logName    = "gchat.log"
)

var validate = validator.New()

type Config struct {
	RedisURL     string        `validate:"required,url"`
	Channel      string        `validate:"required,max=92"`
	PublishKey   string
	SubscribeKey string
	HistoryLimit int           `validate:"min=1,max=100"`
	AnnounceMax  int           `validate:"min=1"`
	PresenceTTL  time.Duration `validate:"min=3s"`
	LogLevel     string        `validate:"required"`
	LogFile      string
	MetricsAddr  string        `validate:"omitempty,hostname_port"`
}

// MissingKeys reports whether the messaging credentials are incomplete.
func (c Config) MissingKeys() bool {
	return c.PublishKey == "" || c.SubscribeKey == ""
}

func SetDefaults(v *viper.Viper, homeDir string) {
	v.SetDefault(KeyRedisURL, DefaultRedisURL)
	v.SetDefault(KeyChannel, DefaultChannel)
	v.SetDefault(KeyHistoryLimit, DefaultHistoryLimit)
	v.SetDefault(KeyAnnounceMax, DefaultAnnounceMax)
	v.SetDefault(KeyPresenceTTL, DefaultPresenceTTL)
	v.SetDefault(KeyLogLevel, DefaultLogLevel)
	v.SetDefault(KeyLogFile, filepath.Join(homeDir, configDir, logName))
}

// Load reads .env files, ~/.gchat/config.toml and GCHAT_* variables into v,
// in increasing order of precedence, then validates the result.
func Load(v *viper.Viper, envFiles ...string) (Config, error) {
	if v == nil {
		v = viper.New()
	}

	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf("resolve home directory: %w", err)
	}

	SetDefaults(v, homeDir)
	v.SetConfigName(configName)
	v.SetConfigType(configType)
	v.AddConfigPath(filepath.Join(homeDir, configDir))
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := Config{
		RedisURL:     strings.TrimSpace(v.GetString(KeyRedisURL)),
		Channel:      strings.TrimSpace(v.GetString(KeyChannel)),
		PublishKey:   strings.TrimSpace(v.GetString(KeyPublishKey)),
		SubscribeKey: strings.TrimSpace(v.GetString(KeySubscribeKey)),
		HistoryLimit: v.GetInt(KeyHistoryLimit),
		AnnounceMax:  v.GetInt(KeyAnnounceMax),
		PresenceTTL:  v.GetDuration(KeyPresenceTTL),
		LogLevel:     strings.TrimSpace(v.GetString(KeyLogLevel)),
		LogFile:      strings.TrimSpace(v.GetString(KeyLogFile)),
		MetricsAddr:  strings.TrimSpace(v.GetString(KeyMetricsAddr)),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if strings.ContainsAny(c.Channel, " \t\r\n:") {
		return fmt.Errorf("invalid config: channel %q must not contain whitespace or ':'", c.Channel)
	}

	return nil
}
