package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/lomoval/otus-golang/event_planner/internal/logger"
	"github.com/lomoval/otus-golang/event_planner/internal/rabbit"
	"github.com/lomoval/otus-golang/event_planner/internal/reminder"
	log "github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "", "Path to configuration file")
	log.SetFormatter(&log.TextFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.WarnLevel)
}

func main() {
	flag.Parse()

	config, err := NewConfig(configFile)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	err = logger.PrepareLogger(config.Logger)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	r := rabbit.New(config.Rabbit)
	if err := r.Connect(); err != nil {
		log.Errorf("failed to start %v", err)
		return
	}
	defer r.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	notifier := reminder.LogNotifier{}
	log.Info("sender is running...")
	err = r.Consume(ctx, func(msg amqp.Delivery) {
		n, err := decodeNotification(msg.Body)
		if err != nil {
			log.Errorf("failed to parse notification: %v", err)
			return
		}
		if err := notifier.Notify(ctx, n); err != nil {
			log.Errorf("failed to send notification for event %q: %v", n.EventID, err)
		}
	})
	if err != nil {
		log.Errorf("failed to consume notifications: %v", err)
	}
}
