package http

import (
	"github.com/jhoicas/retail-stock/internal/application/dto"
	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

func toStockResponse(r *entity.StockRecord) dto.StockResponse {
	return dto.StockResponse{
		StoreID:   r.StoreID,
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		UpdatedAt: r.UpdatedAt,
	}
}

func toAvailabilityResponse(a *inventory.Availability) dto.AvailabilityResponse {
	return dto.AvailabilityResponse{
		StoreID:   a.StoreID,
		ProductID: a.ProductID,
		Current:   a.Current,
		Required:  a.Required,
		Available: a.Available,
	}
}

func toAdjustmentResponse(a *entity.AdjustmentRecord) dto.AdjustmentResponse {
	return dto.AdjustmentResponse{
		ID:               a.ID,
		Sequence:         a.Sequence,
		Type:             string(a.Type),
		PreviousQuantity: a.PreviousQuantity,
		NewQuantity:      a.NewQuantity,
		Delta:            a.Delta,
		Reason:           a.Reason,
		ReferenceID:      a.ReferenceID,
		ReferenceType:    a.ReferenceType,
		ActorID:          a.ActorID,
		CreatedAt:        a.CreatedAt,
	}
}

func toAdjustmentResponses(list []*entity.AdjustmentRecord) []dto.AdjustmentResponse {
	items := make([]dto.AdjustmentResponse, 0, len(list))
	for _, a := range list {
		items = append(items, toAdjustmentResponse(a))
	}
	return items
}

func toLedgerCheckResponse(l *inventory.LedgerCheck) dto.LedgerCheckResponse {
	return dto.LedgerCheckResponse{
		StoreID:    l.StoreID,
		ProductID:  l.ProductID,
		Quantity:   l.Quantity,
		LedgerSum:  l.LedgerSum,
		Entries:    l.Entries,
		Consistent: l.Consistent,
	}
}

func toTransferResponse(t *entity.Transfer) dto.TransferResponse {
	return dto.TransferResponse{
		ID:                 t.ID,
		SourceStoreID:      t.SourceStoreID,
		DestinationStoreID: t.DestinationStoreID,
		ProductID:          t.ProductID,
		Quantity:           t.Quantity,
		ReceivedQuantity:   t.ReceivedQuantity,
		Status:             string(t.Status),
		Notes:              t.Notes,
		RequestedBy:        t.RequestedBy,
		ReceivedBy:         t.ReceivedBy,
		CancelledBy:        t.CancelledBy,
		CancelReason:       t.CancelReason,
		CreatedAt:          t.CreatedAt,
		DispatchedAt:       t.DispatchedAt,
		ReceivedAt:         t.ReceivedAt,
		CancelledAt:        t.CancelledAt,
	}
}

func toPurchaseOrderResponse(p *entity.PurchaseOrder) dto.PurchaseOrderResponse {
	return dto.PurchaseOrderResponse{
		ID:                p.ID,
		StoreID:           p.StoreID,
		SupplierID:        p.SupplierID,
		ProductID:         p.ProductID,
		OrderedQuantity:   p.OrderedQuantity,
		UnitPrice:         p.UnitPrice,
		Total:             p.Total(),
		IsValidated:       p.IsValidated,
		CreatedBy:         p.CreatedBy,
		ValidatedBy:       p.ValidatedBy,
		ValidatedAt:       p.ValidatedAt,
		ValidatedQuantity: p.ValidatedQuantity,
		CreatedAt:         p.CreatedAt,
	}
}

func toArrivalResponse(a *entity.Arrival) dto.ArrivalResponse {
	return dto.ArrivalResponse{
		ID:               a.ID,
		PurchaseID:       a.PurchaseID,
		ReceivedQuantity: a.ReceivedQuantity,
		ValidatedBy:      a.ValidatedBy,
		Notes:            a.Notes,
		Accepted:         a.Accepted,
		CreatedAt:        a.CreatedAt,
	}
}
