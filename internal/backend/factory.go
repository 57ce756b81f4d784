package backend

import (
	"context"
	"errors"
	"fmt"

	"spesetracker/internal/amqp"
	"spesetracker/internal/ledger"
	"spesetracker/internal/log"
	"spesetracker/internal/services"
	"spesetracker/internal/storage"
	"spesetracker/internal/storage/memory"
	"spesetracker/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend opens the configured store and wires it into a LedgerService,
// with change events when AMQP is configured.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}

	opts := []services.Option{
		services.WithStrictAmount(config.StrictAmount),
		services.WithLogger(f.logger),
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(ctx, config.AMQPURL, config.AMQPExchange, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(amqpClient))
			f.logger.Info("Initialized AMQP client", "exchange", config.AMQPExchange)
		}
	}

	svc := services.NewLedgerService(store, config.Variant, opts...)

	f.logger.Info("Initialized backend",
		log.FieldBackend, config.Type.String(),
		log.FieldVariant, string(config.Variant),
		"strict_amount", config.StrictAmount,
		"amqp_enabled", amqpClient != nil)

	result := &BackendResult{
		Service: svc,
		Cleanup: func() error {
			var errs []error
			if err := svc.Close(); err != nil {
				errs = append(errs, fmt.Errorf("ledger: %w", err))
			}
			if amqpClient != nil {
				if err := amqpClient.Close(); err != nil {
					errs = append(errs, fmt.Errorf("amqp: %w", err))
				}
			}
			return errors.Join(errs...)
		},
	}
	if p, ok := store.(Pinger); ok {
		result.Ready = p.Ping
	}
	return result, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (ledger.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Opened SQLite store", "db_path", config.SQLiteDBPath)
		return repo, nil
	case PostgresBackend:
		store, err := postgres.Open(ctx, config.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres store: %w", err)
		}
		f.logger.Info("Opened Postgres store")
		return store, nil
	case MemoryBackend:
		f.logger.Info("Using in-memory store; rows are lost on exit")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
