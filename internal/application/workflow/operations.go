package workflow

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/event"
	domainwf "github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

// CreateProcurement stores a new indent with its items in status Indent Received
func (e *engineImpl) CreateProcurement(ctx context.Context, req CreateProcurementRequest) (*ProcurementView, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	caller, err := e.resolveCaller(ctx, domainwf.OpCreate)
	if err != nil {
		e.logFailure(domainwf.OpCreate, 0, err)
		return nil, err
	}

	var view *ProcurementView
	p := &entity.Procurement{
		IndentNumber:  strings.TrimSpace(req.IndentNumber),
		Title:         strings.TrimSpace(req.Title),
		ProjectID:     req.ProjectID,
		GroupID:       req.GroupID,
		IndentorID:    req.IndentorID,
		PurchaseType:  req.PurchaseType,
		DeliveryPlace: req.DeliveryPlace,
		EstimatedCost: req.EstimatedCost,
		Status:        domainwf.StatusIndentReceived,
	}

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.checkReferences(txCtx, req); err != nil {
			return err
		}

		now := e.now()
		p.IndentDate = dateOr(req.IndentDate, now)
		p.CreatedAt = now
		p.UpdatedAt = now

		if err := e.repos.Procurements.Create(txCtx, p); err != nil {
			return err
		}

		items := make([]*entity.Item, 0, len(req.Items))
		for _, in := range req.Items {
			items = append(items, &entity.Item{
				Name:          strings.TrimSpace(in.Name),
				Quantity:      in.Quantity,
				Specification: in.Specification,
			})
		}
		if err := e.repos.Items.CreateBatch(txCtx, p.ID, items); err != nil {
			return err
		}

		if _, err := e.repos.Ledger.Append(txCtx, &entity.HistoryEntry{
			ProcurementID: p.ID,
			NewStatus:     p.Status,
			Remarks:       orDefault(req.Remarks, entity.RemarksIndentCreated),
			ChangedBy:     caller.ID,
			Timestamp:     now,
		}); err != nil {
			return err
		}

		var err error
		view, err = e.buildView(txCtx, p.ID)
		return err
	})
	if err != nil {
		err = storageIfUntyped(err)
		e.logFailure(domainwf.OpCreate, p.ID, err)
		return nil, err
	}

	e.logger.Info("Procurement created",
		"procurement_id", p.ID,
		"indent_number", p.IndentNumber,
		"items", len(req.Items),
	)
	e.publish(ctx, p.ID, p.IndentNumber, []pendingEvent{{
		typ: event.TypeProcurementCreated,
		payload: map[string]interface{}{
			"status":     p.Status.String(),
			"project_id": p.ProjectID,
			"group_id":   p.GroupID,
			"changed_by":      caller.ID,
			"changed_by_role": caller.Role,
		},
	}})

	return view, nil
}

func validateCreate(req CreateProcurementRequest) error {
	op := domainwf.OpCreate
	switch {
	case strings.TrimSpace(req.IndentNumber) == "":
		return domainwf.Validation(op, "indent number is required")
	case strings.TrimSpace(req.Title) == "":
		return domainwf.Validation(op, "title is required")
	case req.ProjectID <= 0:
		return domainwf.Validation(op, "project is required")
	case req.GroupID <= 0:
		return domainwf.Validation(op, "group is required")
	case req.IndentorID <= 0:
		return domainwf.Validation(op, "indentor is required")
	case req.EstimatedCost.IsNegative():
		return domainwf.Validation(op, "estimated cost cannot be negative")
	case len(req.Items) == 0:
		return domainwf.Validation(op, "at least one item is required")
	}

	for i, item := range req.Items {
		if strings.TrimSpace(item.Name) == "" {
			return domainwf.Validation(op, "item %d: name is required", i+1)
		}
		if item.Quantity <= 0 {
			return domainwf.Validation(op, "item %d: quantity must be positive", i+1)
		}
	}
	return nil
}

// checkReferences verifies project, group and indentor exist when a directory is wired
func (e *engineImpl) checkReferences(ctx context.Context, req CreateProcurementRequest) error {
	if e.directory == nil {
		return nil
	}

	refs := []struct {
		what   string
		id     int64
		lookup func(context.Context, int64) (string, error)
	}{
		{"project", req.ProjectID, e.directory.ProjectName},
		{"group", req.GroupID, e.directory.GroupName},
		{"indentor", req.IndentorID, e.directory.EmployeeName},
	}

	for _, ref := range refs {
		if _, err := ref.lookup(ctx, ref.id); err != nil {
			if errors.Is(err, domainwf.ErrNotFound) {
				return domainwf.Validation(domainwf.OpCreate, "%s %d does not exist", ref.what, ref.id)
			}
			return err
		}
	}
	return nil
}

// Approve records an approval or rejection by role
func (e *engineImpl) Approve(ctx context.Context, procurementID int64, req ApproveRequest) (*ProcurementView, error) {
	return e.execute(ctx, procurementID, domainwf.OpApprove, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		next, err := e.machine.Approve(p.Status, req.Role, req.Decision)
		if err != nil {
			return nil, err
		}
		return &change{next: next, remarks: req.Remarks}, nil
	})
}

// SelectSourcing sets the sourcing method; repeating it corrects an earlier choice
func (e *engineImpl) SelectSourcing(ctx context.Context, procurementID int64, req SelectSourcingRequest) (*ProcurementView, error) {
	return e.execute(ctx, procurementID, domainwf.OpSelectSourcing, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		next, err := e.machine.SelectSourcing(p.Status, req.Method)
		if err != nil {
			return nil, err
		}
		method := req.Method
		return &change{
			next:    next,
			remarks: orDefault(req.Remarks, entity.RemarksSourcingSelected),
			fields:  port.StatusUpdate{SourcingMethod: &method},
		}, nil
	})
}

// AddBid records a vendor quote; the procurement status is unchanged
func (e *engineImpl) AddBid(ctx context.Context, procurementID int64, req AddBidRequest) (*ProcurementView, error) {
	return e.execute(ctx, procurementID, domainwf.OpAddBid, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		if err := e.machine.AddBid(p.Status); err != nil {
			return nil, err
		}
		switch {
		case strings.TrimSpace(req.VendorName) == "":
			return nil, domainwf.Validation(domainwf.OpAddBid, "vendor name is required")
		case !req.Amount.IsPositive():
			return nil, domainwf.Validation(domainwf.OpAddBid, "bid amount must be positive")
		case req.BidCount < 0:
			return nil, domainwf.Validation(domainwf.OpAddBid, "bid count cannot be negative")
		}

		bid := &entity.Bid{
			ProcurementID: p.ID,
			VendorName:    strings.TrimSpace(req.VendorName),
			Amount:        req.Amount,
			BidCount:      req.BidCount,
			Notes:         req.Notes,
			CreatedAt:     now,
		}
		if err := e.repos.Bids.Create(ctx, bid); err != nil {
			return nil, err
		}

		ch := &change{}
		ch.emit(event.TypeBidAdded, map[string]interface{}{
			"bid_id":      bid.ID,
			"vendor_name": bid.VendorName,
			"amount":      bid.Amount.String(),
		})
		return ch, nil
	})
}

// FinalizeVendor selects one of the procurement's bids
func (e *engineImpl) FinalizeVendor(ctx context.Context, procurementID int64, req FinalizeVendorRequest) (*ProcurementView, error) {
	return e.execute(ctx, procurementID, domainwf.OpFinalizeVendor, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		next, err := e.machine.FinalizeVendor(p.Status)
		if err != nil {
			return nil, err
		}

		bid, err := e.repos.Bids.GetByID(ctx, req.BidID)
		if err != nil {
			return nil, err
		}
		if bid.ProcurementID != p.ID {
			return nil, domainwf.NotFound("bid %d does not belong to procurement %d", req.BidID, p.ID)
		}

		bidID := bid.ID
		finalized := dateOr(req.FinalizationDate, now)
		return &change{
			next:    next,
			remarks: orDefault(req.Remarks, entity.RemarksVendorFinalized),
			fields: port.StatusUpdate{
				FinalizedBidID:         &bidID,
				VendorFinalizationDate: &finalized,
			},
		}, nil
	})
}

// CreatePurchaseOrder issues a Pending purchase order to the finalized vendor,
// or to the latest bidder when no vendor was finalized
func (e *engineImpl) CreatePurchaseOrder(ctx context.Context, procurementID int64, req CreatePurchaseOrderRequest) (*ProcurementView, error) {
	return e.execute(ctx, procurementID, domainwf.OpCreatePurchaseOrder, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		bid, err := e.selectedBid(ctx, p)
		if err != nil {
			return nil, err
		}

		next, err := e.machine.CreatePurchaseOrder(p.Status, bid != nil)
		if err != nil {
			return nil, err
		}

		switch {
		case strings.TrimSpace(req.PONumber) == "":
			return nil, domainwf.Validation(domainwf.OpCreatePurchaseOrder, "PO number is required")
		case !req.POValue.IsPositive():
			return nil, domainwf.Validation(domainwf.OpCreatePurchaseOrder, "PO value must be positive")
		}

		created := dateOr(req.CreationDate, now)
		po := &entity.PurchaseOrder{
			ProcurementID: p.ID,
			PONumber:      strings.TrimSpace(req.PONumber),
			PODate:        dateOr(req.PODate, created),
			VendorName:    bid.VendorName,
			POValue:       req.POValue,
			Status:        domainwf.POStatusPending,
			CreatedAt:     created,
			UpdatedAt:     created,
		}
		if err := e.repos.PurchaseOrders.Create(ctx, po); err != nil {
			return nil, err
		}

		ch := &change{next: next, remarks: orDefault(req.Remarks, entity.RemarksPurchaseOrderIssued)}
		ch.emit(event.TypePurchaseOrderCreated, map[string]interface{}{
			"po_id":       po.ID,
			"po_number":   po.PONumber,
			"vendor_name": po.VendorName,
			"po_value":    po.POValue.String(),
		})
		return ch, nil
	})
}

// selectedBid returns the finalized bid, else the latest bid, else nil
func (e *engineImpl) selectedBid(ctx context.Context, p *entity.Procurement) (*entity.Bid, error) {
	if p.FinalizedBidID != nil {
		bid, err := e.repos.Bids.GetByID(ctx, *p.FinalizedBidID)
		if err == nil {
			return bid, nil
		}
		if !errors.Is(err, domainwf.ErrNotFound) {
			return nil, err
		}
	}

	bid, err := e.repos.Bids.Latest(ctx, p.ID)
	if errors.Is(err, domainwf.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bid, nil
}

// UpdatePOStatus records payment progress on a purchase order of this procurement.
// The procurement status and ledger are untouched.
func (e *engineImpl) UpdatePOStatus(ctx context.Context, procurementID, poID int64, req UpdatePOStatusRequest) (*ProcurementView, error) {
	return e.execute(ctx, procurementID, domainwf.OpUpdatePOStatus, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		if err := e.machine.Check(domainwf.OpUpdatePOStatus, p.Status); err != nil {
			return nil, err
		}
		if err := e.machine.UpdatePOStatus(req.Status, req.PaymentDate != nil); err != nil {
			return nil, err
		}

		po, err := e.repos.PurchaseOrders.GetByID(ctx, poID)
		if err != nil {
			return nil, err
		}
		if po.ProcurementID != p.ID {
			return nil, domainwf.NotFound("purchase order %d does not belong to procurement %d", poID, p.ID)
		}

		var paymentDate *time.Time
		if req.Status == domainwf.POStatusPaymentProcessed {
			paymentDate = req.PaymentDate
		}
		if err := e.repos.PurchaseOrders.UpdateStatus(ctx, po.ID, req.Status, paymentDate, dateOr(req.UpdateDate, now)); err != nil {
			return nil, err
		}

		ch := &change{}
		ch.emit(event.TypePurchaseOrderStatus, map[string]interface{}{
			"po_id":      po.ID,
			"old_status": string(po.Status),
			"new_status": string(req.Status),
		})
		return ch, nil
	})
}

// SetStatus moves the procurement to any status; entering Accepted by MMG stamps the acceptance date once
func (e *engineImpl) SetStatus(ctx context.Context, procurementID int64, req SetStatusRequest) (*ProcurementView, error) {
	return e.execute(ctx, procurementID, domainwf.OpSetStatus, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		next, changed, err := e.machine.SetStatus(p.Status, req.Status)
		if err != nil {
			return nil, err
		}
		if !changed {
			return &change{}, nil
		}

		ch := &change{next: next, remarks: req.Remarks}
		if next == domainwf.StatusAcceptedByMMG && p.AcceptanceDate == nil {
			accepted := dateOr(req.Date, now)
			ch.fields.AcceptanceDate = &accepted
		}
		return ch, nil
	})
}

// DeleteProcurement removes the aggregate and its children
func (e *engineImpl) DeleteProcurement(ctx context.Context, procurementID int64) error {
	_, err := e.execute(ctx, procurementID, domainwf.OpDelete, func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error) {
		if err := e.machine.Delete(p.Status); err != nil {
			return nil, err
		}
		if err := e.repos.Procurements.Delete(ctx, p.ID); err != nil {
			return nil, err
		}

		ch := &change{deleted: true}
		ch.emit(event.TypeProcurementDeleted, map[string]interface{}{
			"status": p.Status.String(),
		})
		return ch, nil
	})
	return err
}

// GetProcurement returns the aggregate view
func (e *engineImpl) GetProcurement(ctx context.Context, procurementID int64) (*ProcurementView, error) {
	return e.buildView(ctx, procurementID)
}

// ListProcurements returns one page of procurements, newest first
func (e *engineImpl) ListProcurements(ctx context.Context, filter port.ListFilter) ([]*entity.Procurement, error) {
	if filter.StatusKind != "" && !filter.StatusKind.IsValid() {
		return nil, domainwf.Validation("", "unknown status kind %q", filter.StatusKind)
	}
	if filter.Offset < 0 {
		return nil, domainwf.Validation("", "offset cannot be negative")
	}
	if filter.Limit <= 0 {
		filter.Limit = e.defaultPageSize
	}
	if filter.Limit > e.maxPageSize {
		filter.Limit = e.maxPageSize
	}
	return e.repos.Procurements.List(ctx, filter)
}

// History returns the ledger of an existing procurement
func (e *engineImpl) History(ctx context.Context, procurementID int64) ([]*entity.HistoryEntry, error) {
	if _, err := e.repos.Procurements.GetByID(ctx, procurementID); err != nil {
		return nil, err
	}
	return e.repos.Ledger.ListByProcurement(ctx, procurementID)
}
