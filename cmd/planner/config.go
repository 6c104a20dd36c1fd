package main

import (
	"fmt"
	"strings"

	"github.com/lomoval/otus-golang/event_planner/internal/logger"
	"github.com/lomoval/otus-golang/event_planner/internal/rabbit"
	internalhttp "github.com/lomoval/otus-golang/event_planner/internal/server/http"
	"github.com/lomoval/otus-golang/event_planner/internal/storagebuilder"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

const (
	notifierLog    = "log"
	notifierRabbit = "rabbit"
)

type NotifierConfig struct {
	Type string
}

type Config struct {
	HTTPServer internalhttp.Config
	Logger     logger.Config
	Storage    storagebuilder.Config
	Notifier   NotifierConfig
	Rabbit     rabbit.Config
}

// NewConfig reads configuration from defaults, the optional config file and environment.
// PORT overrides httpServer.port.
func NewConfig(configFile string) (Config, error) {
	config := Config{}
	v := viper.New()

	v.SetDefault("httpServer.host", "")
	v.SetDefault("httpServer.port", 3000)
	v.SetDefault("logger.level", "INFO")
	v.SetDefault("logger.format", "text")
	v.SetDefault("storage.storageType", storagebuilder.StorageTypeMemory)
	v.SetDefault("notifier.type", notifierLog)
	v.SetDefault("rabbit.host", "127.0.0.1")
	v.SetDefault("rabbit.port", 5672)
	v.SetDefault("rabbit.user", "user")
	v.SetDefault("rabbit.password", "pass")
	v.SetDefault("rabbit.queue", "planner.reminders")

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
		}
	}
	for _, key := range v.AllKeys() {
		env := v.GetString(key)
		if strings.HasPrefix(env, envConfigPrefix) {
			if err := v.BindEnv(key, env[len(envConfigPrefix):]); err != nil {
				return Config{}, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}
	if err := v.BindEnv("httpServer.port", "PORT"); err != nil {
		return Config{}, fmt.Errorf("failed to prepare config: %w", err)
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	switch config.Notifier.Type {
	case notifierLog, notifierRabbit:
	default:
		return config, fmt.Errorf("unknown notifier type %q", config.Notifier.Type)
	}
	return config, nil
}
