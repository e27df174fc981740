package repository

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

const bidColumns = `id, procurement_id, vendor_name, amount, bid_count, notes, created_at`

// BidRepository implements port.BidRepository
type BidRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewBidRepository creates a new bid repository
func NewBidRepository(db *sqldb.DB, logger *zap.Logger) port.BidRepository {
	return &BidRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a bid and sets its ID
func (r *BidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	query := `
		INSERT INTO bids (procurement_id, vendor_name, amount, bid_count, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		bid.ProcurementID,
		bid.VendorName,
		bid.Amount,
		bid.BidCount,
		bid.Notes,
		bid.CreatedAt.UTC(),
	).Scan(&bid.ID)
	if err != nil {
		r.logger.Error("Failed to create bid", zap.Int64("procurement_id", bid.ProcurementID), zap.Error(err))
		return workflow.Storage("failed to create bid", err)
	}

	return nil
}

// GetByID retrieves a bid by ID
func (r *BidRepository) GetByID(ctx context.Context, id int64) (*entity.Bid, error) {
	query := "SELECT " + bidColumns + " FROM bids WHERE id = ?"

	bid, err := scanBid(r.db.Conn(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.NotFound("bid %d not found", id)
	}
	if err != nil {
		r.logger.Error("Failed to get bid", zap.Int64("bid_id", id), zap.Error(err))
		return nil, workflow.Storage("failed to get bid", err)
	}
	return bid, nil
}

// Latest retrieves the most recently created bid of a procurement
func (r *BidRepository) Latest(ctx context.Context, procurementID int64) (*entity.Bid, error) {
	query := "SELECT " + bidColumns + ` FROM bids
		WHERE procurement_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	bid, err := scanBid(r.db.Conn(ctx).QueryRowContext(ctx, query, procurementID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.NotFound("no bid recorded for procurement %d", procurementID)
	}
	if err != nil {
		r.logger.Error("Failed to get latest bid", zap.Int64("procurement_id", procurementID), zap.Error(err))
		return nil, workflow.Storage("failed to get latest bid", err)
	}
	return bid, nil
}

// ListByProcurement retrieves the bids of a procurement, oldest first
func (r *BidRepository) ListByProcurement(ctx context.Context, procurementID int64) ([]*entity.Bid, error) {
	query := "SELECT " + bidColumns + ` FROM bids
		WHERE procurement_id = ?
		ORDER BY created_at ASC, id ASC`

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, procurementID)
	if err != nil {
		r.logger.Error("Failed to list bids", zap.Int64("procurement_id", procurementID), zap.Error(err))
		return nil, workflow.Storage("failed to list bids", err)
	}
	defer rows.Close()

	var bids []*entity.Bid
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, workflow.Storage("failed to scan bid", err)
		}
		bids = append(bids, bid)
	}
	if err := rows.Err(); err != nil {
		return nil, workflow.Storage("failed to iterate bids", err)
	}

	return bids, nil
}

func scanBid(row rowScanner) (*entity.Bid, error) {
	var bid entity.Bid
	if err := row.Scan(
		&bid.ID,
		&bid.ProcurementID,
		&bid.VendorName,
		&bid.Amount,
		&bid.BidCount,
		&bid.Notes,
		&bid.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &bid, nil
}
