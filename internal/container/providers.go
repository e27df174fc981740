// Package container provides dependency injection and lifecycle management
// for the MMG procurement engine.
package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/dispatcher"
	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/application/workflow"
	"github.com/garyjia/mmg-procurement/internal/config"
	"github.com/garyjia/mmg-procurement/internal/domain/event"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/repository"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
	"github.com/garyjia/mmg-procurement/pkg/logger"
)

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Procurement   port.ProcurementRepository
	Item          port.ItemRepository
	Bid           port.BidRepository
	PurchaseOrder port.PurchaseOrderRepository
	History       port.LedgerRepository
	Directory     port.DirectoryLookup
}

// ProvideDatabase opens the configured pool and applies pending migrations when auto_migrate is set.
func ProvideDatabase(ctx context.Context, cfg *config.Config, log *zap.Logger) (*sqldb.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := sqldb.Open(ctx, cfg.SQLConfig(), log)
	if err != nil {
		return nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := sqldb.NewMigrator(db, log).Up(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

// ProvideRepositories creates all repositories over one pool.
func ProvideRepositories(db *sqldb.DB, log *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Procurement:   repository.NewProcurementRepository(db, log),
		Item:          repository.NewItemRepository(db, log),
		Bid:           repository.NewBidRepository(db, log),
		PurchaseOrder: repository.NewPurchaseOrderRepository(db, log),
		History:       repository.NewHistoryRepository(db, log),
		Directory:     repository.NewDirectoryRepository(db, log),
	}, nil
}

// ProvideDispatcher creates the event dispatcher with an audit log subscriber on every event type.
func ProvideDispatcher(log *zap.Logger) (dispatcher.Dispatcher, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(
		dispatcher.WithLogger(logger.NewAdapter(log)),
	)

	d.SubscribeAll("audit_log", createEventLogHandler(log))

	return d, nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos      *RepositoryBundle
	TxManager  port.TransactionManager
	Dispatcher dispatcher.Dispatcher
	Settings   config.WorkflowConfig
	Logger     *zap.Logger
}

// ProvideWorkflowEngine creates the procurement workflow engine.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.WorkflowEngine, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	repos := workflow.Repositories{
		Procurements:   deps.Repos.Procurement,
		Items:          deps.Repos.Item,
		Bids:           deps.Repos.Bid,
		PurchaseOrders: deps.Repos.PurchaseOrder,
		Ledger:         deps.Repos.History,
	}

	return workflow.NewEngine(repos, deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithIdentityProvider(workflow.ContextIdentity{}),
		workflow.WithDirectory(deps.Repos.Directory),
		workflow.WithLogger(logger.NewAdapter(deps.Logger)),
		workflow.WithPageSizes(deps.Settings.DefaultPageSize, deps.Settings.MaxPageSize),
	), nil
}

// createEventLogHandler writes every committed procurement event to the structured log
func createEventLogHandler(log *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt == nil {
			return fmt.Errorf("event cannot be nil")
		}

		fields := []zap.Field{
			zap.String("event_id", evt.ID),
			zap.String("event_type", evt.Type.String()),
			zap.Int64("procurement_id", evt.ProcurementID),
			zap.String("indent_number", evt.IndentNumber),
			zap.String("correlation_id", evt.CorrelationID),
		}
		if status := evt.GetPayloadString("new_status"); status != "" {
			fields = append(fields, zap.String("new_status", status))
		}

		log.Info("Procurement event", fields...)
		return nil
	}
}
