package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/jhoicas/complementos-api/internal/application/billing"
	"github.com/jhoicas/complementos-api/pkg/config"
)

// APIPrefix prefijo versionado; las mismas rutas se montan también sin prefijo.
const APIPrefix = "/api/v1"

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC *billing.InvoiceUseCase
	Auth      config.AuthConfig
	Gatherer  prometheus.Gatherer // nil → prometheus.DefaultGatherer
	AppName   string
	Log       zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	h := NewInvoiceHandler(deps.InvoiceUC, deps.Log)
	registerInvoiceRoutes(app.Group(APIPrefix), h, deps.Auth)
	registerInvoiceRoutes(app, h, deps.Auth)
}

func registerInvoiceRoutes(r fiber.Router, h *InvoiceHandler, auth config.AuthConfig) {
	invoices := r.Group("/invoices")

	// Sin AUTH_JWT_SECRET la API queda abierta.
	read, write := []fiber.Handler{}, []fiber.Handler{}
	if auth.Enabled() {
		authMW := AuthMiddleware(auth.Secret, auth.Issuer)
		read = []fiber.Handler{authMW, RequireScope(ScopeRead, ScopeWrite)}
		write = []fiber.Handler{authMW, RequireScope(ScopeWrite)}
	}

	invoices.Get("/", with(read, h.List)...)
	invoices.Post("/", with(write, h.Create)...)
	invoices.Post("/upload_xml", with(write, h.UploadXML)...)
	invoices.Get("/:id", with(read, h.GetByID)...)
	invoices.Post("/:id/generate_payment_complement", with(write, h.GeneratePaymentComplement)...)
	invoices.Get("/:id/download_pdf", with(read, h.DownloadPDF)...)
	invoices.Get("/:id/download_xml", with(read, h.DownloadXML)...)
}

func with(mw []fiber.Handler, h fiber.Handler) []fiber.Handler {
	out := make([]fiber.Handler, 0, len(mw)+1)
	out = append(out, mw...)
	return append(out, h)
}
