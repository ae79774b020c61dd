// Command notifier consumes application-lifecycle events and logs the
// notifications that would go out to applicants and companies. It is the
// downstream half of the event stream the jobboard service produces.
package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gartstein/jobboard/internal/jobboard/events"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	KafkaBrokers []string `yaml:"KAFKA_BROKERS"`
	Topic        string   `yaml:"TOPIC"`
}

func main() {
	logger, _ := zap.NewProduction()
	defer func() {
		_ = logger.Sync()
	}()

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	consumer := events.NewConsumer(cfg.KafkaBrokers, "jobboard-notifier", cfg.Topic, logger)
	defer consumer.Close()

	consumer.RegisterHandler(func(_ context.Context, event events.Event) error {
		switch event.Type {
		case events.ApplicationSubmitted:
			logger.Info("notify company: new application",
				zap.String("entity_id", event.EntityID.String()))
		case events.ApplicationStatusChanged:
			logger.Info("notify applicant: status changed",
				zap.String("entity_id", event.EntityID.String()))
		case events.ApplicationWithdrawn:
			logger.Info("notify company: application withdrawn",
				zap.String("entity_id", event.EntityID.String()))
		default:
			logger.Debug("ignoring event", zap.String("event_type", string(event.Type)))
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	consumer.Start(ctx)
	logger.Info("notifier started", zap.String("topic", cfg.Topic))

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	cancel()
	logger.Info("notifier stopped")
}

func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "jobboard", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(file, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
