// Package cfdi extrae los datos de negocio de un CFDI (SAT, México) sin depender
// de los prefijos de namespace del documento. Usa los catálogos de pkg/cfdi.
package cfdi

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/complementos-api/internal/domain"
	catalog "github.com/jhoicas/complementos-api/pkg/cfdi"
)

// Fields datos extraídos de un CFDI.
type Fields struct {
	ClientName   string
	ReceiverRFC  string
	EmissionDate time.Time // solo fecha, UTC
	UUID         string
	Subtotal     decimal.Decimal
	Total        decimal.Decimal
	XMLContent   string
}

var dateLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// Extract parsea el XML y devuelve sus campos. Cualquier fallo se reporta como
// *domain.InvalidXMLFormatError.
func Extract(xmlContent []byte) (*Fields, error) {
	doc, err := parseDocument(xmlContent)
	if err != nil {
		return nil, invalid(err)
	}
	root := doc.Root()
	stored, err := utf8Content(doc, xmlContent)
	if err != nil {
		return nil, invalid(err)
	}

	comprobante := findLocal(root, "Comprobante")
	if comprobante == nil {
		return nil, invalid(errors.New("no se encontró el nodo Comprobante"))
	}

	f := &Fields{
		ClientName:  catalog.PlaceholderClientName,
		ReceiverRFC: catalog.GenericRFC,
		XMLContent:  stored,
	}
	if receptor := findLocal(root, "Receptor"); receptor != nil {
		if v, ok := attrLocal(receptor, "Nombre"); ok {
			f.ClientName = v
		}
		if v, ok := attrLocal(receptor, "Rfc"); ok {
			f.ReceiverRFC = v
		}
	}

	fecha, ok := attrLocal(comprobante, "Fecha")
	if !ok {
		return nil, invalid(errors.New("atributo Fecha ausente en Comprobante"))
	}
	f.EmissionDate, err = parseDate(fecha)
	if err != nil {
		return nil, invalid(err)
	}

	timbre := findLocal(root, "TimbreFiscalDigital")
	if timbre == nil {
		return nil, invalid(errors.New("no se encontró el nodo TimbreFiscalDigital"))
	}
	uuid, ok := attrLocal(timbre, "UUID")
	if !ok || strings.TrimSpace(uuid) == "" {
		return nil, invalid(errors.New("atributo UUID ausente en TimbreFiscalDigital"))
	}
	f.UUID = strings.TrimSpace(uuid)

	f.Subtotal = decimalAttr(comprobante, "SubTotal")
	f.Total = decimalAttr(comprobante, "Total")
	return f, nil
}

// ExtractPostalCode devuelve el código postal del receptor
// (DomicilioFiscalReceptor, si no CodigoPostal). Nunca entra en pánico.
func ExtractPostalCode(xmlContent string) (string, bool) {
	if strings.TrimSpace(xmlContent) == "" {
		return "", false
	}
	root, err := parse([]byte(xmlContent))
	if err != nil {
		return "", false
	}
	receptor := findLocal(root, "Receptor")
	if receptor == nil {
		return "", false
	}
	for _, key := range []string{"DomicilioFiscalReceptor", "CodigoPostal"} {
		if v, ok := attrLocal(receptor, key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func parse(data []byte) (*etree.Element, error) {
	doc, err := parseDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.Root(), nil
}

func parseDocument(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("documento sin raíz")
	}
	return doc, nil
}

// utf8Content texto a persistir. Los documentos UTF-8 se guardan tal cual; los
// declarados en otra codificación se reescriben en UTF-8 con la declaración
// actualizada para que un nuevo parseo no vuelva a decodificarlos.
func utf8Content(doc *etree.Document, raw []byte) (string, error) {
	decl := xmlDeclaration(doc)
	if decl == nil || isUTF8Label(declaredEncoding(decl.Inst)) {
		return string(raw), nil
	}
	decl.Inst = `version="1.0" encoding="UTF-8"`
	out, err := doc.WriteToString()
	if err != nil {
		return "", err
	}
	if !utf8.ValidString(out) {
		return "", errors.New("contenido no convertible a UTF-8")
	}
	return out, nil
}

// declaredEncoding valor del pseudo-atributo encoding de <?xml ...?>.
func declaredEncoding(inst string) string {
	i := strings.Index(inst, "encoding=")
	if i < 0 {
		return ""
	}
	rest := inst[i+len("encoding="):]
	if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
		return ""
	}
	end := strings.IndexByte(rest[1:], rest[0])
	if end < 0 {
		return ""
	}
	return rest[1 : end+1]
}

func xmlDeclaration(doc *etree.Document) *etree.ProcInst {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return pi
		}
	}
	return nil
}

// charsetReader decodifica los CFDI declarados en ISO-8859-1 / windows-1252.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	}
	if isUTF8Label(label) {
		return input, nil
	}
	return nil, fmt.Errorf("codificación no soportada: %s", label)
}

func isUTF8Label(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "":
		return true
	}
	return false
}

// findLocal busca en profundidad (incluida la raíz) el primer elemento cuyo
// nombre local coincide; etree guarda el prefijo en Space y el nombre en Tag.
func findLocal(e *etree.Element, local string) *etree.Element {
	if e.Tag == local {
		return e
	}
	for _, child := range e.ChildElements() {
		if found := findLocal(child, local); found != nil {
			return found
		}
	}
	return nil
}

func attrLocal(e *etree.Element, key string) (string, bool) {
	for _, a := range e.Attr {
		if a.Key == key && a.Space != "xmlns" {
			return a.Value, true
		}
	}
	return "", false
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("fecha inválida: %q", raw)
}

// decimalAttr 0 si el atributo falta o no es numérico.
func decimalAttr(e *etree.Element, key string) decimal.Decimal {
	v, ok := attrLocal(e, key)
	if !ok {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func invalid(err error) error {
	return &domain.InvalidXMLFormatError{Detail: err.Error()}
}
