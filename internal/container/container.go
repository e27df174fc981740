package container

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/dispatcher"
	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/application/workflow"
	"github.com/garyjia/mmg-procurement/internal/config"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

// Container manages all application dependencies and lifecycle.
// Components start in dependency order and close in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure
	db           *sqldb.DB
	repositories *RepositoryBundle

	// Application
	dispatcher dispatcher.Dispatcher
	workflow   workflow.WorkflowEngine

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components:
// 1. Database, migrations and repositories
// 2. Event dispatcher
// 3. Workflow engine
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.logger.Info("Starting container initialization")

	if err := c.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("driver", c.config.Database.Driver))

	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.dispatcher = disp

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:      c.repositories,
		TxManager:  c.db,
		Dispatcher: c.dispatcher,
		Settings:   c.config.Workflow,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize workflow engine: %w", err)
	}
	c.workflow = engine
	c.logger.Info("Dispatcher and workflow engine initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	check := func(name string, ok bool, message string) {
		status.Components[name] = ComponentHealth{Healthy: ok, Message: message}
		if !ok {
			status.Overall = false
		}
	}

	switch {
	case c.db == nil:
		check("database", false, "not initialized")
	default:
		if err := c.db.Health(ctx); err != nil {
			check("database", false, fmt.Sprintf("ping failed: %v", err))
		} else {
			check("database", true, "")
		}
	}

	check("dispatcher", c.dispatcher != nil, notInitialized(c.dispatcher != nil))
	check("workflow", c.workflow != nil, notInitialized(c.workflow != nil))

	return status
}

func notInitialized(ok bool) string {
	if ok {
		return ""
	}
	return "not initialized"
}

// initDatabase opens the pool and builds the repositories.
func (c *Container) initDatabase(ctx context.Context) error {
	db, err := ProvideDatabase(ctx, c.config, c.logger)
	if err != nil {
		return err
	}

	repos, err := ProvideRepositories(db, c.logger)
	if err != nil {
		_ = db.Close()
		return err
	}

	c.db = db
	c.repositories = repos
	return nil
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// WorkflowEngine returns the workflow engine.
func (c *Container) WorkflowEngine() workflow.WorkflowEngine {
	return c.workflow
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
