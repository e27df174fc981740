package entity

import (
	"time"

	"github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

// HistoryEntry is one immutable ledger record of a procurement status change.
// OldStatus is nil only for the entry written at creation.
type HistoryEntry struct {
	ID            int64            `json:"id"`
	ProcurementID int64            `json:"procurement_id"`
	OldStatus     *workflow.Status `json:"old_status,omitempty"`
	NewStatus     workflow.Status  `json:"new_status"`
	Remarks       string           `json:"remarks,omitempty"`
	ChangedBy     string           `json:"changed_by,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Project, Group and Employee are master data owned outside this engine
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Group struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Employee struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
