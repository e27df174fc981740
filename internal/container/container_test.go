package container

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/mmg-procurement/internal/application/workflow"
	"github.com/garyjia/mmg-procurement/internal/config"
	domainwf "github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DatabaseConfig{
			Driver:       "sqlite3",
			Path:         filepath.Join(t.TempDir(), "procurement.db"),
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			AutoMigrate:  true,
		},
		Logger:   config.LoggerConfig{Level: "info", Format: "json"},
		Workflow: config.WorkflowConfig{DefaultPageSize: 10, MaxPageSize: 20},
	}
}

func TestNewContainer_RequiresConfigAndLogger(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	bad := testConfig(t)
	bad.Database.Driver = "mysql"
	_, err = NewContainer(bad, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Lifecycle(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	c, err := NewContainer(testConfig(t), zap.New(core))
	require.NoError(t, err)

	health := c.Health(context.Background())
	assert.False(t, health.Overall)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()), "second start is rejected")

	health = c.Health(context.Background())
	assert.True(t, health.Overall, "%+v", health.Components)

	// master data referenced by the indent
	ctx := context.Background()
	for _, stmt := range []string{
		"INSERT INTO master_projects (id, name) VALUES (1, 'Radar Upgrade')",
		"INSERT INTO master_groups (id, name) VALUES (1, 'Signal Processing')",
		"INSERT INTO master_employees (id, name) VALUES (1, 'A. Sharma')",
	} {
		_, err := c.db.Conn(ctx).ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	view, err := c.WorkflowEngine().CreateProcurement(ctx, workflow.CreateProcurementRequest{
		IndentNumber:  "IND-100",
		Title:         "Signal generator",
		ProjectID:     1,
		GroupID:       1,
		IndentorID:    1,
		EstimatedCost: decimal.NewFromInt(1000),
		Items:         []workflow.ItemInput{{Name: "Signal generator", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Radar Upgrade", view.ProjectName)
	assert.Equal(t, domainwf.StatusIndentReceived, view.Procurement.Status)

	assert.NotZero(t, logs.FilterMessage("Procurement event").Len(), "audit log subscriber receives committed events")

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close(), "second close is rejected")
	assert.Error(t, c.Start(context.Background()), "closed container cannot restart")
}

func TestProvideWorkflowEngine_Validation(t *testing.T) {
	_, err := ProvideWorkflowEngine(nil)
	assert.Error(t, err)

	_, err = ProvideWorkflowEngine(&WorkflowDeps{Logger: zap.NewNop()})
	assert.Error(t, err)
}
