package pdf

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

func TestSlipGenerator_RenderTransferSlip(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	tr, err := entity.NewTransfer("t-1", "s1", "s2", "p1", 5, "vitrina", "manager-1", now)
	require.NoError(t, err)
	require.NoError(t, tr.MarkDispatched(now))

	doc, err := NewSlipGenerator().RenderTransferSlip(context.Background(), inventory.TransferSlip{
		Transfer:    tr,
		Source:      &entity.Store{ID: "s1", Name: "Centro", Address: "Calle 1"},
		Destination: &entity.Store{ID: "s2", Name: "Norte"},
		Product:     &entity.Product{ID: "p1", SKU: "SKU-1", Name: "Camiseta"},
	})

	require.NoError(t, err)
	assert.True(t, len(doc) > 4)
	assert.Equal(t, "%PDF", string(doc[:4]))
}

func TestSlipGenerator_IncompleteSlip(t *testing.T) {
	_, err := NewSlipGenerator().RenderTransferSlip(context.Background(), inventory.TransferSlip{})
	assert.Error(t, err)
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "EN TRÁNSITO", statusLabel(entity.TransferInTransit))
	assert.Equal(t, "unknown", statusLabel(entity.TransferStatus("unknown")))
}
