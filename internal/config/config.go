package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure returned by Load.
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	Log   LogConfig   `mapstructure:"log"`
	Store StoreConfig `mapstructure:"store"`
	Chat  ChatConfig  `mapstructure:"chat"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File  string `mapstructure:"file" validate:"required"`
}

// StoreConfig selects and locates the message store backend
type StoreConfig struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite badger memory"`
	Path   string `mapstructure:"path" validate:"required_unless=Driver memory"`
}

// ChatConfig holds the conversation settings
type ChatConfig struct {
	PeerName       string        `mapstructure:"peer_name" validate:"required"`
	Seed           bool          `mapstructure:"seed"`
	AnimationDelay time.Duration `mapstructure:"animation_delay" validate:"gte=0s"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "duochat.log")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "duochat.db")
	v.SetDefault("chat.peer_name", "Alisha")
	v.SetDefault("chat.seed", true)
	v.SetDefault("chat.animation_delay", 500*time.Millisecond)
}

// Load reads the configuration. A .env file in the working directory is
// loaded into the environment first, then the YAML file at path (or
// $CONFIG_PATH, or ./config.yaml) is merged over the defaults, and finally
// DUOCHAT_* variables override individual keys (DUOCHAT_STORE_DRIVER, ...).
// A missing ./config.yaml is not an error; an explicit path must exist.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DUOCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	return &config, nil
}
