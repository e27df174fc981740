package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/mmg-procurement/internal/application/dispatcher"
	"github.com/garyjia/mmg-procurement/internal/application/port"
	"github.com/garyjia/mmg-procurement/internal/domain/entity"
	"github.com/garyjia/mmg-procurement/internal/domain/event"
	domainwf "github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Repositories groups the persistence ports the engine writes through
type Repositories struct {
	Procurements   port.ProcurementRepository
	Items          port.ItemRepository
	Bids           port.BidRepository
	PurchaseOrders port.PurchaseOrderRepository
	Ledger         port.LedgerRepository
}

// engineImpl is the concrete implementation of WorkflowEngine
type engineImpl struct {
	repos      Repositories
	txManager  port.TransactionManager
	machine    domainwf.Machine
	dispatcher dispatcher.Dispatcher
	identity   port.IdentityProvider
	directory  port.DirectoryLookup
	logger     Logger
	now        func() time.Time

	defaultPageSize int
	maxPageSize     int
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the dispatcher that receives events after commit
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithIdentityProvider sets the source of HistoryEntry.ChangedBy
func WithIdentityProvider(p port.IdentityProvider) EngineOption {
	return func(e *engineImpl) {
		e.identity = p
	}
}

// WithDirectory enables master data checks on create and display names in views
func WithDirectory(d port.DirectoryLookup) EngineOption {
	return func(e *engineImpl) {
		e.directory = d
	}
}

// WithLogger sets the engine logger
func WithLogger(l Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = l
	}
}

// WithMachine replaces the default procurement state machine
func WithMachine(m domainwf.Machine) EngineOption {
	return func(e *engineImpl) {
		e.machine = m
	}
}

// WithClock sets the time source for ledger timestamps
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// WithPageSizes sets the default and maximum ListProcurements page sizes
func WithPageSizes(defaultSize, maxSize int) EngineOption {
	return func(e *engineImpl) {
		if defaultSize > 0 {
			e.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			e.maxPageSize = maxSize
		}
	}
}

// NewEngine creates a new workflow engine
func NewEngine(repos Repositories, txManager port.TransactionManager, opts ...EngineOption) WorkflowEngine {
	e := &engineImpl{
		repos:           repos,
		txManager:       txManager,
		machine:         BuildProcurementMachine(),
		logger:          nopLogger{},
		now:             func() time.Time { return time.Now().UTC() },
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// pendingEvent is an event to publish once the transaction commits
type pendingEvent struct {
	typ     event.Type
	payload map[string]interface{}
}

// change is what an operation asks execute to persist
type change struct {
	// next is the requested status; the zero value keeps the current one
	next    domainwf.Status
	remarks string

	// fields are written with the status; Status and UpdatedAt are filled by execute
	fields port.StatusUpdate

	deleted bool
	events  []pendingEvent
}

func (c *change) emit(typ event.Type, payload map[string]interface{}) {
	c.events = append(c.events, pendingEvent{typ: typ, payload: payload})
}

func (c *change) hasFields() bool {
	f := c.fields
	return f.SourcingMethod != nil || f.AcceptanceDate != nil || f.FinalizedBidID != nil || f.VendorFinalizationDate != nil
}

// mutateFunc validates an operation against the locked procurement and performs its child writes
type mutateFunc func(ctx context.Context, p *entity.Procurement, now time.Time) (*change, error)

// execute runs one operation as a single transaction: lock and re-read the procurement,
// let mutate check and write, update status and ledger together, build the committed view,
// then publish events after commit.
func (e *engineImpl) execute(ctx context.Context, procurementID int64, op domainwf.Operation, mutate mutateFunc) (*ProcurementView, error) {
	caller, err := e.resolveCaller(ctx, op)
	if err != nil {
		e.logFailure(op, procurementID, err)
		return nil, err
	}

	var (
		view        *ProcurementView
		indent      string
		pending     []pendingEvent
		finalStatus domainwf.Status
	)

	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := e.repos.Procurements.GetByIDForUpdate(txCtx, procurementID)
		if err != nil {
			return err
		}
		indent = p.IndentNumber

		now := e.now()
		ch, err := mutate(txCtx, p, now)
		if err != nil {
			return err
		}

		if ch.deleted {
			pending = ch.events
			return nil
		}

		statusEvent, err := e.apply(txCtx, p, ch, op, caller, now)
		if err != nil {
			return err
		}
		pending = ch.events
		if statusEvent != nil {
			pending = append(pending, *statusEvent)
		}
		finalStatus = p.Status

		view, err = e.buildView(txCtx, p.ID)
		return err
	})
	if err != nil {
		err = storageIfUntyped(err)
		e.logFailure(op, procurementID, err)
		return nil, err
	}

	e.logger.Info("Procurement operation committed",
		"operation", op,
		"procurement_id", procurementID,
		"status", finalStatus.String(),
		"caller", caller.ID,
		"caller_role", caller.Role,
	)
	e.publish(ctx, procurementID, indent, pending)

	return view, nil
}

// apply writes the status column, the optional fields and the ledger entry as one unit.
// The ledger is appended only when the status actually changes.
func (e *engineImpl) apply(ctx context.Context, p *entity.Procurement, ch *change, op domainwf.Operation, caller port.Caller, now time.Time) (*pendingEvent, error) {
	old := p.Status
	statusChanged := !ch.next.IsZero() && ch.next != old

	if !statusChanged && !ch.hasFields() {
		return nil, nil
	}

	update := ch.fields
	update.Status = old
	if statusChanged {
		update.Status = ch.next
	}
	update.UpdatedAt = now

	if err := e.repos.Procurements.UpdateStatus(ctx, p.ID, update); err != nil {
		return nil, err
	}

	if !statusChanged {
		return nil, nil
	}

	entry := &entity.HistoryEntry{
		ProcurementID: p.ID,
		OldStatus:     &old,
		NewStatus:     ch.next,
		Remarks:       ch.remarks,
		ChangedBy:     caller.ID,
		Timestamp:     now,
	}
	if _, err := e.repos.Ledger.Append(ctx, entry); err != nil {
		return nil, err
	}
	p.Status = ch.next

	return &pendingEvent{
		typ: event.TypeProcurementStatusChanged,
		payload: map[string]interface{}{
			"old_status": old.String(),
			"new_status": ch.next.String(),
			"operation":  op.String(),
			"changed_by":      caller.ID,
			"changed_by_role": caller.Role,
			"remarks":         ch.remarks,
		},
	}, nil
}

// buildView reads the aggregate through ctx so a view built inside a transaction sees its writes
func (e *engineImpl) buildView(ctx context.Context, procurementID int64) (*ProcurementView, error) {
	p, err := e.repos.Procurements.GetByID(ctx, procurementID)
	if err != nil {
		return nil, err
	}

	view := &ProcurementView{
		Procurement:         p,
		PermittedOperations: e.machine.PermittedOperations(p.Status),
	}

	if view.Items, err = e.repos.Items.ListByProcurement(ctx, p.ID); err != nil {
		return nil, err
	}
	if view.Bids, err = e.repos.Bids.ListByProcurement(ctx, p.ID); err != nil {
		return nil, err
	}
	if view.PurchaseOrders, err = e.repos.PurchaseOrders.ListByProcurement(ctx, p.ID); err != nil {
		return nil, err
	}
	if view.History, err = e.repos.Ledger.ListByProcurement(ctx, p.ID); err != nil {
		return nil, err
	}

	if e.directory != nil {
		if view.ProjectName, err = displayName(ctx, e.directory.ProjectName, p.ProjectID); err != nil {
			return nil, err
		}
		if view.GroupName, err = displayName(ctx, e.directory.GroupName, p.GroupID); err != nil {
			return nil, err
		}
		if view.IndentorName, err = displayName(ctx, e.directory.EmployeeName, p.IndentorID); err != nil {
			return nil, err
		}
	}

	return view, nil
}

// displayName treats missing master data as an empty name
func displayName(ctx context.Context, lookup func(context.Context, int64) (string, error), id int64) (string, error) {
	name, err := lookup(ctx, id)
	if errors.Is(err, domainwf.ErrNotFound) {
		return "", nil
	}
	return name, err
}

// publish dispatches committed events; handler failures are logged and never surface to the caller
func (e *engineImpl) publish(ctx context.Context, procurementID int64, indent string, pending []pendingEvent) {
	if e.dispatcher == nil || len(pending) == 0 {
		return
	}

	correlationID := uuid.NewString()
	for _, pe := range pending {
		evt := event.NewEventWithCorrelation(pe.typ, procurementID, indent, pe.payload, correlationID)
		if err := e.dispatcher.Dispatch(ctx, evt); err != nil {
			e.logger.Error("Post-commit event handling failed",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"procurement_id", procurementID,
				"error", err,
			)
		}
	}
}

// resolveCaller asks the identity provider who is acting; no provider means an anonymous caller
func (e *engineImpl) resolveCaller(ctx context.Context, op domainwf.Operation) (port.Caller, error) {
	if e.identity == nil {
		return port.Caller{}, nil
	}
	caller, err := e.identity.Caller(ctx)
	if err != nil {
		return port.Caller{}, domainwf.CallerUnresolved(op, err)
	}
	return caller, nil
}

func (e *engineImpl) logFailure(op domainwf.Operation, procurementID int64, err error) {
	if domainwf.CodeOf(err) == domainwf.CodeStorage {
		e.logger.Error("Procurement operation failed",
			"operation", op,
			"procurement_id", procurementID,
			"error", err,
		)
		return
	}
	e.logger.Info("Procurement operation rejected",
		"operation", op,
		"procurement_id", procurementID,
		"code", domainwf.CodeOf(err),
		"reason", err.Error(),
	)
}

// storageIfUntyped classifies begin/commit failures, which carry no workflow code, as storage errors
func storageIfUntyped(err error) error {
	if domainwf.CodeOf(err) == "" {
		return domainwf.Storage("procurement transaction failed", err)
	}
	return err
}

// orDefault returns s unless it is empty
func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// dateOr returns t unless it is zero
func dateOr(t, fallback time.Time) time.Time {
	if t.IsZero() {
		return fallback
	}
	return t
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
