package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/redis/go-redis/v9"

	httpadapter "alexa-smarthome-bridge/internal/adapters/input/http"
	mqttin "alexa-smarthome-bridge/internal/adapters/input/mqtt"
	"alexa-smarthome-bridge/internal/adapters/input/schedule"
	alexaout "alexa-smarthome-bridge/internal/adapters/output/alexa"
	"alexa-smarthome-bridge/internal/adapters/output/hue"
	"alexa-smarthome-bridge/internal/adapters/output/lwa"
	mqttout "alexa-smarthome-bridge/internal/adapters/output/mqtt"
	"alexa-smarthome-bridge/internal/adapters/output/persistence"
	"alexa-smarthome-bridge/internal/config"
	"alexa-smarthome-bridge/internal/domain/alexa"
	"alexa-smarthome-bridge/internal/domain/controller"
	"alexa-smarthome-bridge/internal/domain/service"
	"alexa-smarthome-bridge/internal/observability"
	"alexa-smarthome-bridge/internal/ports"
)

func main() {
	fs := flag.NewFlagSet("bridge", flag.ExitOnError)
	configPath := fs.String("config", "", "path to the YAML configuration file")
	seedPath := fs.String("seed", "", "YAML file of devices imported at start-up")
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("BRIDGE")); err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	logger, closer := observability.NewLogger(observability.LogConfig{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Compress:   cfg.Log.Compress,
	})
	defer closer.Close()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *seedPath, logger); err != nil {
		logger.Error("bridge stopped", "error", err)
		closer.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seedPath string, log *slog.Logger) error {
	shutdownTracing, metrics, tracer, err := observability.Setup(ctx)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	repo, err := openRepository(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	log.Info("storage ready", "driver", cfg.Storage.Driver)

	factory := controller.NewFactory(nil)
	builder := alexa.NewBuilder()

	var (
		hub    ports.HubPublisher
		broker *mqttout.Client
	)
	switch cfg.Hub.Transport {
	case "hue":
		hub = hue.New(cfg.Hub.HueHost, cfg.Hub.HueUser, log)
	default:
		broker, err = mqttout.Connect(mqttout.Options{
			Broker:       cfg.Hub.Broker,
			ClientID:     cfg.Hub.ClientID,
			Username:     cfg.Hub.Username,
			Password:     cfg.Hub.Password,
			CommandTopic: cfg.Hub.CommandTopic,
			QoS:          byte(cfg.Hub.QoS),
			Timeout:      cfg.Hub.Timeout,
		}, log)
		if err != nil {
			return err
		}
		defer broker.Close()
		hub = broker
	}

	var (
		tokens   ports.TokenProvider
		reporter *service.Reporter
	)
	if cfg.Alexa.ProactiveEnabled() {
		store, err := openTokenStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("token store: %w", err)
		}
		tokens = lwa.NewTokenManager(lwa.Options{
			ClientID:     cfg.Alexa.ClientID,
			ClientSecret: cfg.Alexa.ClientSecret,
			TokenURL:     cfg.Alexa.TokenURL,
			Timeout:      cfg.Alexa.Timeout,
		}, store, log)
		gateway := alexaout.NewClient(cfg.Alexa.EventsURL, cfg.Alexa.Timeout)
		reporter = service.NewReporter(gateway, tokens, builder, log)
	} else {
		log.Warn("alexa client credentials not set, proactive reporting disabled")
	}

	smartHome := service.NewSmartHomeService(service.SmartHomeConfig{
		Repository:   repo,
		Hub:          hub,
		Tokens:       tokens,
		Factory:      factory,
		Builder:      builder,
		Manufacturer: cfg.Alexa.Manufacturer,
		Logger:       log,
	})
	devices := service.NewDeviceService(repo, factory, reporter, log)
	updates := service.NewUpdateTranslator(repo, factory, reporter, log)

	if seedPath != "" {
		recs, err := persistence.LoadSeed(seedPath)
		if err != nil {
			return err
		}
		if err := devices.ImportDevices(ctx, recs); err != nil {
			log.Warn("some seed devices were not imported", "error", err)
		}
	}

	if broker != nil {
		if err := mqttin.NewSubscriber(broker, cfg.Hub.StateTopic, updates, log).Start(); err != nil {
			return err
		}
	} else {
		log.Info("hub updates disabled for transport", "transport", cfg.Hub.Transport)
	}

	if spec := cfg.Alexa.ReportSchedule; spec != "" && reporter != nil {
		sched, err := schedule.New(spec, devices, cfg.Alexa.Timeout*10, log)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		log.Info("periodic reports scheduled", "spec", spec)
	}

	opts := httpadapter.Options{
		CORSOrigins: cfg.HTTP.CORSOrigins,
		JWTSecret:   cfg.HTTP.JWTSecret,
		Metrics:     metrics,
		Tracer:      tracer,
	}
	if broker != nil {
		opts.Ready = broker.IsConnected
	}
	srv := httpadapter.NewServer(smartHome, devices, opts, log)
	return srv.ListenAndServe(ctx, cfg.HTTP.ListenAddr)
}

func openRepository(cfg config.StorageConfig) (ports.DeviceRepository, error) {
	if cfg.Driver == "file" {
		return persistence.NewJSONFileRepository(cfg.Path), nil
	}
	db, err := persistence.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return persistence.NewGormRepository(db)
}

func openTokenStore(ctx context.Context, cfg *config.Config) (lwa.TokenStore, error) {
	if cfg.Alexa.TokenStore != "redis" {
		return lwa.NewMemoryStore(), nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		return nil, errors.Join(fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err), rdb.Close())
	}
	return lwa.NewRedisTokenStore(rdb, cfg.Redis.Key), nil
}
