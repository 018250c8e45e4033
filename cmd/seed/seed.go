package main

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/domain"
	"github.com/jhoicas/complementos-api/internal/domain/cfdi"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
	"github.com/jhoicas/complementos-api/internal/domain/repository"
)

// artifactSource lo implementa artifacts.FileStore.
type artifactSource interface {
	IDs(kind entity.ArtifactKind) ([]string, error)
	Get(ctx context.Context, kind entity.ArtifactKind, id string) ([]byte, bool, error)
}

type seedResult struct {
	Created    int
	Duplicated int
	WithoutPDF int
	Failed     int
}

// importInvoices crea una factura por cada XML con PDF. Un XML inválido se
// registra y se continúa con el siguiente.
func importInvoices(ctx context.Context, src artifactSource, repo repository.InvoiceRepository, log zerolog.Logger) (seedResult, error) {
	var res seedResult

	xmlIDs, err := src.IDs(entity.ArtifactXML)
	if err != nil {
		return res, err
	}
	pdfIDs, err := src.IDs(entity.ArtifactPDF)
	if err != nil {
		return res, err
	}
	hasPDF := make(map[string]bool, len(pdfIDs))
	for _, id := range pdfIDs {
		hasPDF[id] = true
	}

	for _, fileUUID := range xmlIDs {
		l := log.With().Str("uuid", fileUUID).Logger()
		if !hasPDF[fileUUID] {
			l.Warn().Msg("PDF no encontrado")
			res.WithoutPDF++
			continue
		}

		data, ok, err := src.Get(ctx, entity.ArtifactXML, fileUUID)
		if err != nil || !ok {
			l.Error().Err(err).Msg("no se pudo leer el XML")
			res.Failed++
			continue
		}
		fields, err := cfdi.Extract(data)
		if err != nil {
			l.Error().Err(err).Msg("XML inválido")
			res.Failed++
			continue
		}

		inv := &entity.Invoice{
			ID:           uuid.New().String(),
			ClientName:   fields.ClientName,
			ReceiverRFC:  fields.ReceiverRFC,
			EmissionDate: fields.EmissionDate,
			UUID:         fileUUID,
			Subtotal:     fields.Subtotal,
			Total:        fields.Total,
			XMLContent:   fields.XMLContent,
		}
		if err := repo.Create(ctx, inv); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				l.Info().Msg("factura ya existente")
				res.Duplicated++
				continue
			}
			return res, err
		}
		l.Info().Str("client", inv.ClientName).Msg("factura creada")
		res.Created++
	}
	return res, nil
}
