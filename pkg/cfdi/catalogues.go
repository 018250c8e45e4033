// Package cfdi contiene catálogos SAT (CFDI 4.0 / Pagos 2.0) y utilidades
// para construir documentos de complemento de pago.
package cfdi

// =============================================================================
// Valores por defecto al extraer datos de un CFDI.
// =============================================================================

const (
	PlaceholderClientName = "Unknown Client" // Receptor sin Nombre
	GenericRFC            = "XEXX010101000"  // RFC genérico extranjero
	DefaultPostalCode     = "76343"          // Receptor sin domicilio fiscal
)

// =============================================================================
// c_TipoDeComprobante / Serie del complemento.
// =============================================================================

const (
	CfdiTypePayment   = "P"  // Pago
	SeriesComplement  = "CP" // Serie interna de complementos
	CfdiVersion       = "4.0"
	PaymentsVersion   = "2.0"
	NamespaceCfdi     = "http://www.sat.gob.mx/cfd/4"
	NamespacePagos20  = "http://www.sat.gob.mx/Pagos20"
	PaymentConceptKey = "84111506" // Servicios de facturación
	PaymentUnitKey    = "ACT"      // Actividad
)

// =============================================================================
// c_FormaPago / c_MetodoPago / c_Moneda / c_UsoCFDI
// =============================================================================

const (
	PaymentFormTransfer   = "03"   // Transferencia electrónica de fondos
	PaymentMethodPartial  = "PPD"  // Pago en parcialidades o diferido
	CurrencyMXN           = "MXN"  // Peso mexicano
	CfdiUsePayments       = "CP01" // Pagos
	FiscalRegimeGeneral   = "601"  // General de Ley Personas Morales
	TaxObjectSubject      = "02"   // Sí objeto de impuesto
	TaxObjectNotSubject   = "01"   // No objeto de impuesto
	TaxNameIVA            = "IVA"
	TaxRateIVA            = "0.16" // Tasa general de IVA
	FirstPartialityNumber = 1
)
