package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/application/complement"
	"github.com/jhoicas/complementos-api/internal/application/dto"
	"github.com/jhoicas/complementos-api/internal/domain"
)

// writeError traduce errores de dominio a respuestas HTTP. Los 5xx no exponen el
// detalle interno; se registra en el log.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var (
		verr   *domain.ValidationError
		xmlErr *domain.InvalidXMLFormatError
		dup    *domain.DuplicateUUIDError
	)
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos", Fields: verr.Fields})
	case errors.As(err, &xmlErr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "INVALID_XML", Message: xmlErr.Error()})
	case errors.As(err, &dup):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_UUID", Message: dup.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "factura no encontrada"})
	case errors.Is(err, domain.ErrComplementAlreadyGenerated):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "COMPLEMENT_ALREADY_GENERATED", Message: "la factura ya tiene complemento de pago"})
	case errors.Is(err, domain.ErrJobInProgress):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "JOB_IN_PROGRESS", Message: "el complemento ya se está generando"})
	case errors.Is(err, complement.ErrQueueFull), errors.Is(err, complement.ErrQueueStopped):
		log.Warn().Err(err).Msg("cola de complementos no disponible")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "QUEUE_UNAVAILABLE", Message: "intente más tarde"})
	case errors.Is(err, domain.ErrTimeout):
		log.Error().Err(err).Msg("timeout de servicio externo")
		return c.Status(fiber.StatusGatewayTimeout).JSON(dto.ErrorResponse{Code: "TIMEOUT", Message: "el servicio externo no respondió"})
	case errors.Is(err, domain.ErrExternalService):
		log.Error().Err(err).Msg("error de servicio externo")
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "EXTERNAL_SERVICE", Message: "error del servicio externo"})
	}
	log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}
