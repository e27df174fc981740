package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/repository"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb/sqldbtest"
)

func TestItemRepository_CreateBatchAndList(t *testing.T) {
	db := sqldbtest.Open(t)
	p := createProcurement(t, db, "IND-001")
	repo := repository.NewItemRepository(db, zap.NewNop())
	ctx := context.Background()

	items := []*entity.Item{
		{Name: "Oscilloscope", Quantity: 1, Specification: "4 channel"},
		{Name: "Probe", Quantity: 4},
	}
	require.NoError(t, repo.CreateBatch(ctx, p.ID, items))
	assert.NotZero(t, items[0].ID)
	assert.Equal(t, p.ID, items[1].ProcurementID)

	got, err := repo.ListByProcurement(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Oscilloscope", got[0].Name)
	assert.Equal(t, "4 channel", got[0].Specification)
	assert.Equal(t, 4, got[1].Quantity)
}

func TestItemRepository_RejectsNonPositiveQuantity(t *testing.T) {
	db := sqldbtest.Open(t)
	p := createProcurement(t, db, "IND-001")
	repo := repository.NewItemRepository(db, zap.NewNop())

	err := repo.CreateBatch(context.Background(), p.ID, []*entity.Item{{Name: "Nothing", Quantity: 0}})
	assert.ErrorIs(t, err, workflow.ErrStorage)
}

func TestBidRepository(t *testing.T) {
	db := sqldbtest.Open(t)
	p := createProcurement(t, db, "IND-001")
	other := createProcurement(t, db, "IND-002")
	repo := repository.NewBidRepository(db, zap.NewNop())
	ctx := context.Background()

	_, err := repo.Latest(ctx, p.ID)
	assert.ErrorIs(t, err, workflow.ErrNotFound)

	first := &entity.Bid{ProcurementID: p.ID, VendorName: "Acme", Amount: decimal.RequireFromString("9000"), BidCount: 3, CreatedAt: baseTime}
	second := &entity.Bid{ProcurementID: p.ID, VendorName: "Globex", Amount: decimal.RequireFromString("8750.25"), BidCount: 3, Notes: "lowest", CreatedAt: baseTime.Add(time.Minute)}
	foreign := &entity.Bid{ProcurementID: other.ID, VendorName: "Initech", Amount: decimal.NewFromInt(1), CreatedAt: baseTime.Add(time.Hour)}
	for _, b := range []*entity.Bid{first, second, foreign} {
		require.NoError(t, repo.Create(ctx, b))
	}

	latest, err := repo.Latest(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)
	assert.True(t, latest.Amount.Equal(decimal.RequireFromString("8750.25")))
	assert.Equal(t, "lowest", latest.Notes)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.VendorName)

	list, err := repo.ListByProcurement(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)

	_, err = repo.GetByID(ctx, 12345)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}

func TestPurchaseOrderRepository(t *testing.T) {
	db := sqldbtest.Open(t)
	p := createProcurement(t, db, "IND-001")
	repo := repository.NewPurchaseOrderRepository(db, zap.NewNop())
	ctx := context.Background()

	po := &entity.PurchaseOrder{
		ProcurementID: p.ID,
		PONumber:      "PO-1",
		PODate:        baseTime,
		VendorName:    "Acme",
		POValue:       decimal.RequireFromString("8750.25"),
		Status:        workflow.POStatusPending,
		CreatedAt:     baseTime,
		UpdatedAt:     baseTime,
	}
	require.NoError(t, repo.Create(ctx, po))
	assert.NotZero(t, po.ID)

	paid := baseTime.Add(72 * time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, po.ID, workflow.POStatusPaymentProcessed, &paid, paid))

	got, err := repo.GetByID(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.POStatusPaymentProcessed, got.Status)
	require.NotNil(t, got.PaymentCompletionDate)
	assert.True(t, got.PaymentCompletionDate.Equal(paid))
	assert.True(t, got.POValue.Equal(po.POValue))

	list, err := repo.ListByProcurement(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, 999, workflow.POStatusPending, nil, paid), workflow.ErrNotFound)
}

func TestHistoryRepository_AppendAndOrder(t *testing.T) {
	db := sqldbtest.Open(t)
	p := createProcurement(t, db, "IND-001")
	repo := repository.NewHistoryRepository(db, zap.NewNop())
	ctx := context.Background()

	received := workflow.StatusIndentReceived
	approved := workflow.ApprovedBy(workflow.RoleGroupHead)
	entries := []*entity.HistoryEntry{
		{ProcurementID: p.ID, NewStatus: received, Remarks: "Indent created", Timestamp: baseTime},
		{ProcurementID: p.ID, OldStatus: &received, NewStatus: approved, ChangedBy: "u-1", Timestamp: baseTime.Add(time.Second)},
		// same timestamp as the previous entry: id breaks the tie
		{ProcurementID: p.ID, OldStatus: &approved, NewStatus: workflow.StatusAcceptedByMMG, Timestamp: baseTime.Add(time.Second)},
	}
	for _, e := range entries {
		id, err := repo.Append(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, e.ID, id)
	}

	got, err := repo.ListByProcurement(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Nil(t, got[0].OldStatus)
	assert.Equal(t, workflow.StatusIndentReceived, got[0].NewStatus)
	require.NotNil(t, got[1].OldStatus)
	assert.Equal(t, workflow.StatusIndentReceived, *got[1].OldStatus)
	assert.Equal(t, approved, got[1].NewStatus)
	assert.Equal(t, "u-1", got[1].ChangedBy)
	assert.Equal(t, workflow.StatusAcceptedByMMG, got[2].NewStatus)
}

func TestDirectoryRepository(t *testing.T) {
	db := sqldbtest.Open(t)
	sqldbtest.SeedDirectory(t, db,
		map[int64]string{10: "Radar Upgrade"},
		map[int64]string{20: "RF Systems"},
		map[int64]string{30: "A. Kumar"},
	)
	dir := repository.NewDirectoryRepository(db, zap.NewNop())
	ctx := context.Background()

	name, err := dir.ProjectName(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "Radar Upgrade", name)

	name, err = dir.GroupName(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, "RF Systems", name)

	name, err = dir.EmployeeName(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, "A. Kumar", name)

	_, err = dir.ProjectName(ctx, 11)
	assert.ErrorIs(t, err, workflow.ErrNotFound)
}
