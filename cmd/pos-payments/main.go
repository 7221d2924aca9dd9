package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pos-payments/internal/app/engine"
	"pos-payments/internal/authorizer"
	"pos-payments/internal/change"
	"pos-payments/internal/config"
	"pos-payments/internal/domain"
	payments_http "pos-payments/internal/handler/http/payments"
	"pos-payments/internal/idempotency"
	"pos-payments/internal/infrastructure/database"
	kafka_infra "pos-payments/internal/infrastructure/kafka"
	"pos-payments/internal/outbox"
	outbox_postgres "pos-payments/internal/repository/outbox_repo/postgres"
	"pos-payments/internal/repository/store"
	tx_postgres "pos-payments/internal/repository/transactions_repo/postgres"
	"pos-payments/internal/validator"
)

// openingDrawer is the float a register starts the day with. Real
// deployments will load this from the cash-office system; until then the
// counts below match the standard opening float.
var openingDrawer = map[domain.Money]int{
	domain.Colones(20000): 2,
	domain.Colones(10000): 5,
	domain.Colones(5000):  10,
	domain.Colones(2000):  20,
	domain.Colones(1000):  30,
	domain.Colones(500):   40,
	domain.Colones(100):   50,
	domain.Colones(50):    50,
	domain.Colones(25):    40,
	domain.Colones(10):    40,
	domain.Colones(5):     40,
}

func ensureKafkaTopics(ctx context.Context, brokerURLs []string, topics []string, logger *zap.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", brokerURLs[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker for admin operations: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get kafka controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	err = controllerConn.CreateTopics(topicConfigs...)
	if err != nil {
		if err == kafka.TopicAlreadyExists {
			logger.Info("One or more Kafka topics already exist, skipping creation.")
		} else {
			return fmt.Errorf("failed to create Kafka topics: %w", err)
		}
	} else {
		logger.Info("Kafka topics ensured successfully.", zap.Strings("topics", topics))
	}

	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("POS Payments Service starting...")

	appLogger.Info("Waiting for database to be available...")
	dbConfig := database.DBConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.Name,
		SSLMode:  cfg.DBConfig.SSLMode,
	}

	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(dbConfig)
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	appLogger.Info("Running database migrations...")
	m, err := migrate.New(
		cfg.MigrationsPath,
		cfg.GetDBMigrationConnectionString(),
	)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	kafkaBrokers := cfg.GetKafkaBrokers()
	requiredTopics := []string{cfg.KafkaCompletedTopic}

	topicCtx, topicCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ensureKafkaTopics(topicCtx, kafkaBrokers, requiredTopics, appLogger)
	topicCancel()
	if err != nil {
		appLogger.Fatal("Failed to ensure Kafka topics", zap.Error(err))
	}

	transactionRepository := tx_postgres.NewTransactionRepository(db)
	outboxRepository := outbox_postgres.NewOutboxRepository(db)

	txStore := store.NewPostgresStore(
		db,
		transactionRepository,
		outboxRepository,
		appLogger.With(zap.String("component", "PostgresStore")),
	)

	till, err := change.NewTill(openingDrawer)
	if err != nil {
		appLogger.Fatal("Invalid opening drawer configuration", zap.Error(err))
	}

	cardDecider := authorizer.NewSimulatedCardDecider(cfg.CardApproveRate)
	lineAuthorizer := authorizer.New(
		cardDecider,
		nil,
		cfg.CardFeeBasisPoints,
		appLogger.With(zap.String("component", "LineAuthorizer")),
	)

	paymentEngine := engine.NewPaymentEngine(
		validator.New(),
		lineAuthorizer,
		txStore,
		cfg.ReversalAttempts,
		cfg.ReversalBackoff,
		appLogger.With(zap.String("component", "PaymentEngine")),
	)
	appLogger.Info("Payment Engine initialized.")

	idemStore := idempotency.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() {
		if err := idemStore.Close(); err != nil {
			appLogger.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	paymentHandler := payments_http.NewPaymentHandler(
		paymentEngine,
		txStore,
		idemStore,
		till,
		appLogger.With(zap.String("component", "HTTPHandler")),
	)
	router := payments_http.NewRouter(paymentHandler)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}
	appLogger.Info("HTTP server configured.")

	kafkaProducer := kafka_infra.NewProducer(
		kafkaBrokers,
		cfg.KafkaCompletedTopic,
		appLogger.With(zap.String("component", "KafkaProducer")),
	)
	defer func() {
		if err := kafkaProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		} else {
			appLogger.Info("Kafka producer closed.")
		}
	}()
	appLogger.Info("Kafka producer created successfully.")

	outboxProcessor := outbox.NewProcessor(
		outboxRepository,
		kafkaProducer,
		cfg.OutboxPollInterval,
		cfg.OutboxPollTimeout,
		appLogger.With(zap.String("component", "OutboxProcessor")),
	)
	appLogger.Info("Outbox Processor initialized.")

	ctxMain, cancelMain := context.WithCancel(context.Background())
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	go func() {
		appLogger.Info("Starting Outbox Processor...")
		outboxProcessor.Start(ctxMain)
		appLogger.Info("Outbox Processor stopped.")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	appLogger.Info("Shutting down application...")

	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}

	select {
	case <-time.After(2 * time.Second):
	case <-ctxMain.Done():
	}

	appLogger.Info("Application gracefully shut down.")
}
