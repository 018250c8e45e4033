// Package pdf genera el PDF de demostración de un complemento de pago cuando
// Facturama no puede entregar la representación impresa.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Complemento de Pago - Demo  │  Fecha de generación  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  IDENTIFICADOR (UUID / Id Facturama, partido en líneas)      │
//	│  AVISO: documento sin validez fiscal                         │
//	│  ─────────────────────────────────────────────────────────  │
//	│  QR del identificador + leyenda                              │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"time"

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
	"github.com/rs/zerolog"
)

// PlaceholderTitle título del documento de demostración.
const PlaceholderTitle = "Complemento de Pago - Demo"

const placeholderWarning = "Documento de demostración generado porque el complemento no está disponible en Facturama. No tiene validez fiscal."

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWarning = &props.Color{Red: 180, Green: 90, Blue: 0}
)

// MarotoPlaceholderGenerator genera el PDF de demostración con Maroto v2.
type MarotoPlaceholderGenerator struct {
	log zerolog.Logger
	now func() time.Time
}

// NewMarotoPlaceholderGenerator construye el generador.
func NewMarotoPlaceholderGenerator(log zerolog.Logger) *MarotoPlaceholderGenerator {
	return &MarotoPlaceholderGenerator{log: log, now: time.Now}
}

// PlaceholderPDF nunca falla: si Maroto devuelve error (o entra en pánico) se
// usa un PDF 1.4 mínimo con el mismo título e identificador.
func (g *MarotoPlaceholderGenerator) PlaceholderPDF(_ context.Context, identifier string) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.log.Error().Interface("panic", r).Str("identifier", identifier).Msg("maroto falló, usando PDF estático")
			out, err = StaticPlaceholderPDF(identifier), nil
		}
	}()

	data, genErr := g.generate(identifier)
	if genErr != nil {
		g.log.Warn().Err(genErr).Str("identifier", identifier).Msg("maroto falló, usando PDF estático")
		return StaticPlaceholderPDF(identifier), nil
	}
	return data, nil
}

func (g *MarotoPlaceholderGenerator) generate(identifier string) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).WithRightMargin(15).
		WithTopMargin(15).WithBottomMargin(15).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 10}).
		WithTitle(PlaceholderTitle, true).
		WithSubject(identifier, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.now()))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(identifierRows(identifier)...)
	m.AddRows(warningRow())
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(qrRow(identifier))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(now time.Time) core.Row {
	return row.New(16).Add(
		col.New(8).Add(
			text.New(PlaceholderTitle, props.Text{
				Style: fontstyle.Bold, Size: 15, Color: colorPrimary, Top: 2,
			}),
		),
		col.New(4).Add(
			text.New("CFDI 4.0 - Pagos 2.0", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 2,
			}),
			text.New("Generado: "+now.Format("02/01/2006 15:04"), props.Text{
				Size: 8, Align: align.Right, Color: colorGray, Top: 8,
			}),
		),
	)
}

// identifierRows: el identificador partido en trozos de 60 caracteres.
func identifierRows(identifier string) []core.Row {
	rows := []core.Row{
		row.New(8).Add(col.New(12).Add(
			text.New("IDENTIFICADOR DEL COMPLEMENTO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 3,
			}),
		)),
	}
	for _, chunk := range splitEvery(identifier, 60) {
		rows = append(rows, row.New(6).Add(col.New(12).Add(
			text.New(chunk, props.Text{Style: fontstyle.Bold, Size: 11, Top: 1}),
		)))
	}
	return rows
}

func warningRow() core.Row {
	return row.New(14).Add(col.New(12).Add(
		text.New(placeholderWarning, props.Text{
			Size: 9, Color: colorWarning, Top: 4,
		}),
	))
}

func qrRow(identifier string) core.Row {
	return row.New(50).Add(
		col.New(4).Add(code.NewQr(identifier, props.Rect{
			Percent: 95,
			Center:  true,
		})),
		col.New(8).Add(
			text.New("El código QR contiene el identificador con el que\nse solicitó el complemento.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Descargue nuevamente el documento cuando\nFacturama lo tenga disponible.", props.Text{
				Style: fontstyle.Bold, Size: 9, Top: 22, Left: 3, Color: colorPrimary,
			}),
		),
	)
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}
