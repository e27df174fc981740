package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
	"github.com/garyjia/mmg-procurement/internal/infrastructure/persistence/sqldb"
)

const procurementColumns = `
	id, indent_number, title, project_id, group_id, indentor_id,
	purchase_type, delivery_place, estimated_cost, status, sourcing_method,
	indent_date, acceptance_date, finalized_bid_id, vendor_finalization_date,
	created_at, updated_at`

// ProcurementRepository implements port.ProcurementRepository
type ProcurementRepository struct {
	db     *sqldb.DB
	logger *zap.Logger
}

// NewProcurementRepository creates a new procurement repository
func NewProcurementRepository(db *sqldb.DB, logger *zap.Logger) port.ProcurementRepository {
	return &ProcurementRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the procurement and sets its ID
func (r *ProcurementRepository) Create(ctx context.Context, p *entity.Procurement) error {
	query := `
		INSERT INTO procurements (
			indent_number, title, project_id, group_id, indentor_id,
			purchase_type, delivery_place, estimated_cost, status, sourcing_method,
			indent_date, acceptance_date, finalized_bid_id, vendor_finalization_date,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	var sourcing interface{}
	if p.SourcingMethod != nil {
		sourcing = string(*p.SourcingMethod)
	}

	err := r.db.Conn(ctx).QueryRowContext(ctx, query,
		p.IndentNumber,
		p.Title,
		p.ProjectID,
		p.GroupID,
		p.IndentorID,
		p.PurchaseType,
		p.DeliveryPlace,
		p.EstimatedCost,
		p.Status,
		sourcing,
		p.IndentDate.UTC(),
		nullableTime(p.AcceptanceDate),
		nullableInt64(p.FinalizedBidID),
		nullableTime(p.VendorFinalizationDate),
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	).Scan(&p.ID)
	if err != nil {
		if sqldb.IsUniqueViolation(err) {
			return workflow.DuplicateIndentNumber(p.IndentNumber, err)
		}
		r.logger.Error("Failed to create procurement", zap.String("indent_number", p.IndentNumber), zap.Error(err))
		return workflow.Storage("failed to create procurement", err)
	}

	return nil
}

// GetByID retrieves a procurement by ID
func (r *ProcurementRepository) GetByID(ctx context.Context, id int64) (*entity.Procurement, error) {
	return r.getOne(ctx, "id = ?", "", id)
}

// GetByIDForUpdate retrieves a procurement by ID holding a write lock for the rest of the transaction
func (r *ProcurementRepository) GetByIDForUpdate(ctx context.Context, id int64) (*entity.Procurement, error) {
	if !sqldb.InTransaction(ctx) {
		return nil, workflow.Storage("GetByIDForUpdate requires a transaction", nil)
	}
	return r.getOne(ctx, "id = ?", r.db.Dialect().ForUpdate(), id)
}

// GetByIndentNumber retrieves a procurement by its indent number
func (r *ProcurementRepository) GetByIndentNumber(ctx context.Context, indentNumber string) (*entity.Procurement, error) {
	return r.getOne(ctx, "indent_number = ?", "", indentNumber)
}

func (r *ProcurementRepository) getOne(ctx context.Context, where, suffix string, arg interface{}) (*entity.Procurement, error) {
	query := "SELECT " + procurementColumns + " FROM procurements WHERE " + where + suffix

	p, err := scanProcurement(r.db.Conn(ctx).QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, workflow.NotFound("procurement %v not found", arg)
	}
	if err != nil {
		r.logger.Error("Failed to get procurement", zap.Any("key", arg), zap.Error(err))
		return nil, workflow.Storage("failed to get procurement", err)
	}
	return p, nil
}

// UpdateStatus writes the status column and any optional fields carried by update
func (r *ProcurementRepository) UpdateStatus(ctx context.Context, id int64, update port.StatusUpdate) error {
	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{update.Status, update.UpdatedAt.UTC()}

	if update.SourcingMethod != nil {
		sets = append(sets, "sourcing_method = ?")
		args = append(args, string(*update.SourcingMethod))
	}
	if update.AcceptanceDate != nil {
		sets = append(sets, "acceptance_date = ?")
		args = append(args, update.AcceptanceDate.UTC())
	}
	if update.FinalizedBidID != nil {
		sets = append(sets, "finalized_bid_id = ?")
		args = append(args, *update.FinalizedBidID)
	}
	if update.VendorFinalizationDate != nil {
		sets = append(sets, "vendor_finalization_date = ?")
		args = append(args, update.VendorFinalizationDate.UTC())
	}

	query := "UPDATE procurements SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args = append(args, id)

	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update procurement status",
			zap.Int64("procurement_id", id),
			zap.String("status", update.Status.String()),
			zap.Error(err),
		)
		return workflow.Storage("failed to update procurement status", err)
	}

	return requireAffected(result, "procurement", id)
}

// Delete removes the procurement; children cascade
func (r *ProcurementRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Conn(ctx).ExecContext(ctx, "DELETE FROM procurements WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete procurement", zap.Int64("procurement_id", id), zap.Error(err))
		return workflow.Storage("failed to delete procurement", err)
	}
	return requireAffected(result, "procurement", id)
}

// List returns procurements matching filter, newest first
func (r *ProcurementRepository) List(ctx context.Context, filter port.ListFilter) ([]*entity.Procurement, error) {
	var (
		where []string
		args  []interface{}
	)

	if filter.StatusKind != "" {
		cond, kindArgs := statusKindCondition(filter.StatusKind)
		where = append(where, cond)
		args = append(args, kindArgs...)
	}
	if filter.ProjectID != 0 {
		where = append(where, "project_id = ?")
		args = append(args, filter.ProjectID)
	}
	if filter.GroupID != 0 {
		where = append(where, "group_id = ?")
		args = append(args, filter.GroupID)
	}

	query := "SELECT " + procurementColumns + " FROM procurements"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.db.Conn(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list procurements", zap.Error(err))
		return nil, workflow.Storage("failed to list procurements", err)
	}
	defer rows.Close()

	var result []*entity.Procurement
	for rows.Next() {
		p, err := scanProcurement(rows)
		if err != nil {
			return nil, workflow.Storage("failed to scan procurement", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, workflow.Storage("failed to iterate procurements", err)
	}

	return result, nil
}

// statusKindCondition matches every stored display string of a kind, including all roles of Approved by / Rejected by
func statusKindCondition(kind workflow.StatusKind) (string, []interface{}) {
	var values []interface{}
	for _, s := range workflow.AllStatuses() {
		if s.Kind == kind {
			values = append(values, s.String())
		}
	}
	if len(values) == 0 {
		return "1 = 0", nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
	return "status IN (" + placeholders + ")", values
}

func scanProcurement(row rowScanner) (*entity.Procurement, error) {
	var (
		p                      entity.Procurement
		sourcing               sql.NullString
		acceptanceDate         sql.NullTime
		finalizedBidID         sql.NullInt64
		vendorFinalizationDate sql.NullTime
	)

	err := row.Scan(
		&p.ID,
		&p.IndentNumber,
		&p.Title,
		&p.ProjectID,
		&p.GroupID,
		&p.IndentorID,
		&p.PurchaseType,
		&p.DeliveryPlace,
		&p.EstimatedCost,
		&p.Status,
		&sourcing,
		&p.IndentDate,
		&acceptanceDate,
		&finalizedBidID,
		&vendorFinalizationDate,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if sourcing.Valid {
		m := workflow.SourcingMethod(sourcing.String)
		p.SourcingMethod = &m
	}
	p.AcceptanceDate = timePtr(acceptanceDate)
	p.FinalizedBidID = int64Ptr(finalizedBidID)
	p.VendorFinalizationDate = timePtr(vendorFinalizationDate)

	return &p, nil
}

// requireAffected turns a zero-row write into NotFound
func requireAffected(result sql.Result, what string, id int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return workflow.Storage(fmt.Sprintf("failed to read affected rows for %s", what), err)
	}
	if n == 0 {
		return workflow.NotFound("%s %d not found", what, id)
	}
	return nil
}
