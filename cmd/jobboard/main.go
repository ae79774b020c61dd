package main

import (
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gartstein/jobboard/internal/jobboard/controller"
	"github.com/gartstein/jobboard/internal/jobboard/db"
	"github.com/gartstein/jobboard/internal/jobboard/eligibility"
	"github.com/gartstein/jobboard/internal/jobboard/events"
	"github.com/gartstein/jobboard/internal/jobboard/handlers"
	"github.com/gartstein/jobboard/internal/jobboard/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort       int      `yaml:"HTTP_PORT"`
	DBHost         string   `yaml:"DB_HOST"`
	DBPort         int      `yaml:"DB_PORT"`
	DBUser         string   `yaml:"DB_USER"`
	DBPassword     string   `yaml:"DB_PASSWORD"`
	DBName         string   `yaml:"DB_NAME"`
	DBSSLMode      string   `yaml:"DB_SSLMODE"`
	KafkaBrokers   []string `yaml:"KAFKA_BROKERS"`
	JWTSecret      string   `yaml:"JWT_SECRET"`
	Topic          string   `yaml:"TOPIC"`
	UploadDir      string   `yaml:"UPLOAD_DIR"`
	MaxUploadBytes int64    `yaml:"MAX_UPLOAD_BYTES"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}
	defer repo.Close()

	if err := events.EnsureTopic(cfg.KafkaBrokers, cfg.Topic, logger); err != nil {
		logger.Warn("failed to reach Kafka for topic creation", zap.Error(err))
	}
	producer := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	defer producer.Close()

	files, err := storage.NewDiskStore(cfg.UploadDir, cfg.MaxUploadBytes, storage.DefaultResumeTypes, logger)
	if err != nil {
		logger.Fatal("failed to initialize file storage", zap.Error(err))
	}

	evaluator := eligibility.NewEvaluator(repo)
	applicationSvc := controller.NewApplicationService(repo, evaluator, files, producer, logger)
	jobSvc := controller.NewJobService(repo, files, producer, logger)
	accountSvc := controller.NewAccountService(repo, cfg.JWTSecret, logger)

	handler := handlers.NewHandler(
		applicationSvc,
		jobSvc,
		accountSvc,
		evaluator,
		files,
		cfg.JWTSecret,
		cfg.MaxUploadBytes,
		logger,
	)

	server := handlers.NewServer(cfg.HTTPPort, handler.Routes(), cfg.JWTSecret, logger)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration. Use real config tooling (e.g. Viper) in production.
func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "jobboard", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// initDatabase initializes the database connection settings.
func initDatabase(cfg *Config) *db.Config {
	return &db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}
