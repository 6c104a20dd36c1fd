package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/lomoval/otus-golang/event_planner/internal/app"
	"github.com/lomoval/otus-golang/event_planner/internal/logger"
	"github.com/lomoval/otus-golang/event_planner/internal/metrics"
	"github.com/lomoval/otus-golang/event_planner/internal/rabbit"
	"github.com/lomoval/otus-golang/event_planner/internal/reminder"
	internalhttp "github.com/lomoval/otus-golang/event_planner/internal/server/http"
	"github.com/lomoval/otus-golang/event_planner/internal/storagebuilder"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
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

	if flag.Arg(0) == "version" {
		printVersion()
		return
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Errorf("failed to load .env: %v", err)
		return
	}
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
	stor, err := storagebuilder.New(config.Storage)
	if err != nil {
		log.Errorf("failed to start %v", err)
		return
	}

	var notifier reminder.Notifier = reminder.LogNotifier{}
	if config.Notifier.Type == notifierRabbit {
		r := rabbit.New(config.Rabbit)
		if err := r.Connect(); err != nil {
			log.Errorf("failed to start %v", err)
			return
		}
		defer r.Close()
		notifier = reminder.NewQueueNotifier(r)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	clock := clockwork.NewRealClock()
	scheduler := reminder.NewScheduler(clock, notifier, m)
	planner := app.New(stor, scheduler, clock, m)
	server := internalhttp.NewServer(config.HTTPServer, planner, reg)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		if err := server.Stop(ctx); err != nil {
			log.Error("failed to stop http server: " + err.Error())
		}
	}()

	log.Info("planner is running...")

	if err := server.Start(ctx); err != nil {
		log.Error("failed to start http server: " + err.Error())
		cancel()
	}

	if n := scheduler.Stop(); n > 0 {
		log.Warnf("%d pending reminders cancelled", n)
	}
	ctx, cancel = context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := stor.Close(ctx); err != nil {
		log.Errorf("failed to close storage: %v", err)
	}
}
