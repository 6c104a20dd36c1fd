package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lomoval/otus-golang/event_planner/internal/logger"
	"github.com/lomoval/otus-golang/event_planner/internal/rabbit"
	"github.com/lomoval/otus-golang/event_planner/internal/reminder"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

var errEmptyNotification = errors.New("notification has no event id")

type Config struct {
	Logger logger.Config
	Rabbit rabbit.Config
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	v := viper.New()

	v.SetDefault("rabbit.host", "127.0.0.1")
	v.SetDefault("rabbit.port", 5672)
	v.SetDefault("rabbit.user", "user")
	v.SetDefault("rabbit.password", "pass")
	v.SetDefault("rabbit.queue", "planner.reminders")
	v.SetDefault("logger.level", "INFO")
	v.SetDefault("logger.format", "text")

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
				return config, fmt.Errorf("failed to prepare config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	return config, nil
}

func decodeNotification(body []byte) (reminder.Notification, error) {
	n := reminder.Notification{}
	if err := json.Unmarshal(body, &n); err != nil {
		return n, fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	if n.EventID == "" {
		return n, errEmptyNotification
	}
	return n, nil
}
