package cfdi

import (
	"fmt"
	"time"

	"github.com/beevik/etree"
)

// PlaceholderNotice texto de la Addenda de los documentos de demostración.
const PlaceholderNotice = "Este es un archivo de demostración generado porque el complemento no está disponible en Facturama Sandbox"

// PlaceholderIssuer datos del emisor que aparecen en el XML de demostración.
type PlaceholderIssuer struct {
	RFC          string
	Name         string
	FiscalRegime string
	PostalCode   string
}

// DefaultPlaceholderIssuer emisor de sandbox.
var DefaultPlaceholderIssuer = PlaceholderIssuer{
	RFC:          "XIA190128J61",
	Name:         "XENON INDUSTRIAL ARTICLES",
	FiscalRegime: FiscalRegimeGeneral,
	PostalCode:   DefaultPostalCode,
}

// BuildPlaceholderXML genera un CFDI 4.0 tipo "P" sintético, bien formado, que
// referencia identifier en DoctoRelacionado/@IdDocumento. Se usa como último
// recurso cuando el XML real no puede obtenerse.
func BuildPlaceholderXML(identifier string, now time.Time) ([]byte, error) {
	return BuildPlaceholderXMLFor(DefaultPlaceholderIssuer, identifier, now)
}

// BuildPlaceholderXMLFor igual que BuildPlaceholderXML con un emisor explícito.
func BuildPlaceholderXMLFor(issuer PlaceholderIssuer, identifier string, now time.Time) ([]byte, error) {
	if identifier == "" {
		return nil, fmt.Errorf("cfdi: identificador vacío")
	}
	stamp := now.Format(time.RFC3339)

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("cfdi:Comprobante")
	root.CreateAttr("xmlns:cfdi", NamespaceCfdi)
	root.CreateAttr("xmlns:pago20", NamespacePagos20)
	root.CreateAttr("Version", CfdiVersion)
	root.CreateAttr("TipoDeComprobante", CfdiTypePayment)
	root.CreateAttr("Folio", "DEMO")
	root.CreateAttr("Fecha", stamp)
	root.CreateAttr("LugarExpedicion", issuer.PostalCode)

	emisor := root.CreateElement("cfdi:Emisor")
	emisor.CreateAttr("Rfc", issuer.RFC)
	emisor.CreateAttr("Nombre", issuer.Name)
	emisor.CreateAttr("RegimenFiscal", issuer.FiscalRegime)

	receptor := root.CreateElement("cfdi:Receptor")
	receptor.CreateAttr("Rfc", "XAXX010101000")
	receptor.CreateAttr("Nombre", "DEMO RECEPTOR")
	receptor.CreateAttr("UsoCFDI", CfdiUsePayments)
	receptor.CreateAttr("DomicilioFiscalReceptor", issuer.PostalCode)
	receptor.CreateAttr("RegimenFiscalReceptor", issuer.FiscalRegime)

	concepto := root.CreateElement("cfdi:Conceptos").CreateElement("cfdi:Concepto")
	concepto.CreateAttr("ClaveProdServ", PaymentConceptKey)
	concepto.CreateAttr("Cantidad", "1")
	concepto.CreateAttr("ClaveUnidad", PaymentUnitKey)
	concepto.CreateAttr("Descripcion", "Pago")
	concepto.CreateAttr("ValorUnitario", "0")
	concepto.CreateAttr("Importe", "0")
	concepto.CreateAttr("ObjetoImp", TaxObjectNotSubject)

	pagos := root.CreateElement("cfdi:Complemento").CreateElement("pago20:Pagos")
	pagos.CreateAttr("Version", PaymentsVersion)
	pagos.CreateElement("pago20:Totales")

	pago := pagos.CreateElement("pago20:Pago")
	pago.CreateAttr("FechaPago", stamp)
	pago.CreateAttr("FormaDePagoP", PaymentFormTransfer)
	pago.CreateAttr("MonedaP", CurrencyMXN)
	pago.CreateAttr("Monto", "1000.00")

	docto := pago.CreateElement("pago20:DoctoRelacionado")
	docto.CreateAttr("IdDocumento", identifier)
	docto.CreateAttr("MonedaDR", CurrencyMXN)
	docto.CreateAttr("NumParcialidad", "1")
	docto.CreateAttr("ImpSaldoAnt", "1000.00")
	docto.CreateAttr("ImpPagado", "1000.00")
	docto.CreateAttr("ImpSaldoInsoluto", "0.00")
	docto.CreateAttr("ObjetoImpDR", TaxObjectSubject)

	root.CreateElement("cfdi:Addenda").CreateElement("demo").SetText(PlaceholderNotice)

	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("cfdi: serializar XML de demostración: %w", err)
	}
	return out, nil
}
