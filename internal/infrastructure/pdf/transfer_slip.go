// Package pdf genera la guía de despacho que acompaña la mercancía de un traslado.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Guía de traslado + ID  │  Estado + Fecha           │
//	│  ─────────────────────────────────────────────────────────  │
//	│  ORIGEN: tienda + dirección  │  DESTINO: tienda + dirección │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: SKU | Producto | Enviado | Recibido                 │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR con el ID + firmas de despacho y recepción      │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strconv"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/retail-stock/internal/application/inventory"
	"github.com/jhoicas/retail-stock/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

var statusLabels = map[entity.TransferStatus]string{
	entity.TransferPending:   "PENDIENTE",
	entity.TransferInTransit: "EN TRÁNSITO",
	entity.TransferReceived:  "RECIBIDO",
	entity.TransferCancelled: "CANCELADO",
}

var _ inventory.SlipRenderer = (*SlipGenerator)(nil)

// SlipGenerator implementa inventory.SlipRenderer usando Maroto v2.
type SlipGenerator struct{}

// NewSlipGenerator construye el generador.
func NewSlipGenerator() *SlipGenerator { return &SlipGenerator{} }

// RenderTransferSlip genera el PDF y devuelve sus bytes.
func (g *SlipGenerator) RenderTransferSlip(_ context.Context, slip inventory.TransferSlip) ([]byte, error) {
	if slip.Transfer == nil || slip.Source == nil || slip.Destination == nil || slip.Product == nil {
		return nil, fmt.Errorf("pdf: guía incompleta")
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Guía de traslado "+slip.Transfer.ID, true).
		WithAuthor(slip.Source.Name, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(slip.Transfer))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(storesRow(slip.Source, slip.Destination))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(productRow(slip.Transfer, slip.Product))

	if slip.Transfer.Notes != "" || slip.Transfer.CancelReason != "" {
		m.AddRows(notesRow(slip.Transfer))
	}

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(footerRow(slip.Transfer))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(t *entity.Transfer) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("GUÍA DE TRASLADO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("ID: "+t.ID, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New(statusLabel(t.Status), props.Text{
				Style: fontstyle.Bold, Size: 10, Align: align.Right,
				Color: colorPrimary, Top: 1,
			}),
			text.New("Creado: "+t.CreatedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Top: 8, Color: colorGray,
			}),
			text.New("Solicitado por: "+t.RequestedBy, props.Text{
				Size: 8, Align: align.Right, Top: 13, Color: colorGray,
			}),
		),
	)
}

func storesRow(source, destination *entity.Store) core.Row {
	block := func(title string, s *entity.Store) core.Col {
		return col.New(6).Add(
			text.New(title, props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(s.Name, props.Text{
				Style: fontstyle.Bold, Size: 10, Top: 6,
			}),
			text.New(nonEmpty(s.Address, "—"), props.Text{
				Size: 8, Top: 12, Color: colorGray,
			}),
		)
	}
	return row.New(18).Add(
		block("ORIGEN", source),
		block("DESTINO", destination),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("SKU", 2, align.Left),
		h("Producto", 6, align.Left),
		h("Enviado", 2, align.Right),
		h("Recibido", 2, align.Right),
	)
}

func productRow(t *entity.Transfer, p *entity.Product) core.Row {
	received := "—"
	if t.ReceivedQuantity != nil {
		received = strconv.FormatInt(*t.ReceivedQuantity, 10)
	}
	return row.New(7).Add(
		col.New(2).Add(text.New(p.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
		col.New(6).Add(text.New(p.Name, props.Text{Size: 8, Top: 1, Left: 1})),
		col.New(2).Add(text.New(strconv.FormatInt(t.Quantity, 10), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		col.New(2).Add(text.New(received, props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
	)
}

func notesRow(t *entity.Transfer) core.Row {
	body := t.Notes
	if t.CancelReason != "" {
		body = "Motivo de cancelación: " + t.CancelReason
	}
	return row.New(10).Add(col.New(12).Add(
		text.New("Observaciones: "+body, props.Text{Size: 8, Top: 3, Color: colorGray}),
	))
}

// footerRow QR con el ID del traslado para confirmar la recepción desde el destino.
func footerRow(t *entity.Transfer) core.Row {
	return row.New(40).Add(
		col.New(4).Add(code.NewQr(t.ID, props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(4).Add(
			text.New("Despacha", props.Text{Style: fontstyle.Bold, Size: 8, Top: 26, Align: align.Center}),
			text.New("_______________________", props.Text{Size: 8, Top: 20, Align: align.Center}),
		),
		col.New(4).Add(
			text.New("Recibe", props.Text{Style: fontstyle.Bold, Size: 8, Top: 26, Align: align.Center}),
			text.New("_______________________", props.Text{Size: 8, Top: 20, Align: align.Center}),
		),
	)
}

// ── helpers ───────────────────────────────────────────────────────────────────

func statusLabel(s entity.TransferStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
