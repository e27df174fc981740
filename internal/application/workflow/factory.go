package workflow

import (
	domainwf "github.com/garyjia/mmg-procurement/internal/domain/workflow"
)

// BuildProcurementMachine creates the state machine for the MMG procurement lifecycle.
// Operations without a guard row are legal from every status.
func BuildProcurementMachine() domainwf.Machine {
	builder := domainwf.NewBuilder()

	builder.Unguarded(domainwf.OpApprove, domainwf.OpSelectSourcing)

	builder.Guard(domainwf.OpAddBid).
		PermitFrom(domainwf.KindOrderPlacedInGeM, domainwf.KindTenderCalled, domainwf.KindBidsReceived)

	builder.Guard(domainwf.OpFinalizeVendor).
		PermitFrom(domainwf.KindBidsReceived, domainwf.KindTenderCalled)

	// Accepted by MMG is the shortcut path straight to a purchase order
	builder.Guard(domainwf.OpCreatePurchaseOrder).
		PermitFrom(domainwf.KindVendorFinalized, domainwf.KindAcceptedByMMG)

	builder.Unguarded(domainwf.OpUpdatePOStatus, domainwf.OpSetStatus)

	builder.Guard(domainwf.OpDelete).
		PermitFrom(domainwf.KindIndentReceived, domainwf.KindRejectedBy)

	return builder.Build()
}
