package http

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/application/billing"
	"github.com/jhoicas/complementos-api/internal/application/dto"
	"github.com/jhoicas/complementos-api/internal/domain/entity"
)

// InvoiceHandler maneja las peticiones HTTP de facturas y complementos.
type InvoiceHandler struct {
	uc  *billing.InvoiceUseCase
	log zerolog.Logger
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase, log zerolog.Logger) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, log: log}
}

// List godoc
// @Summary Listar facturas
// @Tags invoices
// @Produce json
// @Success 200 {array} dto.InvoiceResponse
// @Router /api/v1/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary Detalle de factura
// @Tags invoices
// @Produce json
// @Param id path string true "ID de la factura"
// @Success 200 {object} dto.InvoiceResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Create godoc
// @Summary Crear factura con datos explícitos
// @Tags invoices
// @Accept json
// @Produce json
// @Param body body dto.CreateInvoiceRequest true "Factura"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	out, err := h.uc.Create(c.UserContext(), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UploadXML godoc
// @Summary Cargar factura desde un CFDI XML
// @Tags invoices
// @Accept multipart/form-data
// @Produce json
// @Param xml_file formData file true "CFDI timbrado"
// @Success 201 {object} dto.InvoiceResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /api/v1/invoices/upload_xml [post]
func (h *InvoiceHandler) UploadXML(c *fiber.Ctx) error {
	fh, err := c.FormFile("xml_file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_FILE", Message: "No XML file provided"})
	}
	f, err := fh.Open()
	if err != nil {
		return writeError(c, h.log, err)
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		return writeError(c, h.log, err)
	}

	out, err := h.uc.UploadXML(c.UserContext(), content)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GeneratePaymentComplement godoc
// @Summary Solicitar complemento de pago (asíncrono)
// @Tags invoices
// @Produce json
// @Param id path string true "ID de la factura"
// @Success 200 {object} dto.ComplementRequestedResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/invoices/{id}/generate_payment_complement [post]
func (h *InvoiceHandler) GeneratePaymentComplement(c *fiber.Ctx) error {
	out, err := h.uc.RequestComplement(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary Descargar PDF del complemento
// @Tags invoices
// @Produce application/pdf
// @Param id path string true "ID de la factura"
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/invoices/{id}/download_pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	data, filename, err := h.uc.DownloadPDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return sendAttachment(c, entity.ArtifactPDF, filename, data)
}

// DownloadXML godoc
// @Summary Descargar XML del complemento
// @Tags invoices
// @Produce application/xml
// @Param id path string true "ID de la factura"
// @Success 200 {file} binary
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/invoices/{id}/download_xml [get]
func (h *InvoiceHandler) DownloadXML(c *fiber.Ctx) error {
	data, filename, err := h.uc.DownloadXML(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return sendAttachment(c, entity.ArtifactXML, filename, data)
}

func sendAttachment(c *fiber.Ctx, kind entity.ArtifactKind, filename string, data []byte) error {
	c.Attachment(filename)
	c.Set(fiber.HeaderContentType, kind.ContentType())
	return c.Send(data)
}
