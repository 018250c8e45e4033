package facturama

import (
	"github.com/shopspring/decimal"
)

// Amount importe serializado como número JSON con dos decimales (Facturama
// rechaza importes como string).
type Amount struct {
	decimal.Decimal
}

// NewAmount envuelve d.
func NewAmount(d decimal.Decimal) Amount { return Amount{d} }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	return a.Decimal.UnmarshalJSON(b)
}

// ComplementRequest cuerpo de POST /api-lite/3/cfdis para un CFDI tipo "P".
type ComplementRequest struct {
	Folio           string      `json:"Folio"`
	Serie           string      `json:"Serie"`
	ExpeditionPlace string      `json:"ExpeditionPlace"`
	CfdiType        string      `json:"CfdiType"`
	Issuer          Issuer      `json:"Issuer"`
	Receiver        Receiver    `json:"Receiver"`
	Complemento     Complemento `json:"Complemento"`
}

type Issuer struct {
	FiscalRegime string `json:"FiscalRegime"`
	Rfc          string `json:"Rfc"`
	Name         string `json:"Name"`
}

type Receiver struct {
	Rfc          string `json:"Rfc"`
	Name         string `json:"Name"`
	FiscalRegime string `json:"FiscalRegime"`
	TaxZipCode   string `json:"TaxZipCode"`
	CfdiUse      string `json:"CfdiUse"`
}

type Complemento struct {
	Payments []Payment `json:"Payments"`
}

type Payment struct {
	Date             string            `json:"Date"` // ISO-8601
	PaymentForm      string            `json:"PaymentForm"`
	Currency         string            `json:"Currency"`
	Amount           Amount            `json:"Amount"`
	RelatedDocuments []RelatedDocument `json:"RelatedDocuments"`
}

type RelatedDocument struct {
	Uuid                  string `json:"Uuid"`
	Currency              string `json:"Currency"`
	PaymentMethod         string `json:"PaymentMethod"`
	PartialityNumber      int    `json:"PartialityNumber"`
	PreviousBalanceAmount Amount `json:"PreviousBalanceAmount"`
	AmountPaid            Amount `json:"AmountPaid"`
	ImpSaldoInsoluto      Amount `json:"ImpSaldoInsoluto"`
	TaxObject             string `json:"TaxObject"`
	Taxes                 []Tax  `json:"Taxes"`
}

type Tax struct {
	Total       Amount `json:"Total"`
	Name        string `json:"Name"`
	Base        Amount `json:"Base"`
	Rate        Amount `json:"Rate"`
	IsRetention bool   `json:"IsRetention"`
}

// ComplementResponse respuesta de creación. Todos los nodos son opcionales:
// usar los accesores en lugar de desreferenciar.
type ComplementResponse struct {
	ID         *string         `json:"Id"`
	Complement *complementNode `json:"Complement"`
}

type complementNode struct {
	TaxStamp *taxStampNode `json:"TaxStamp"`
}

type taxStampNode struct {
	UUID *string `json:"Uuid"`
}

// DocumentID Id del CFDI generado en Facturama.
func (r *ComplementResponse) DocumentID() (string, bool) {
	if r == nil || r.ID == nil || *r.ID == "" {
		return "", false
	}
	return *r.ID, true
}

// ComplementUUID Complement.TaxStamp.Uuid, si viene.
func (r *ComplementResponse) ComplementUUID() (string, bool) {
	if r == nil || r.Complement == nil || r.Complement.TaxStamp == nil || r.Complement.TaxStamp.UUID == nil {
		return "", false
	}
	if *r.Complement.TaxStamp.UUID == "" {
		return "", false
	}
	return *r.Complement.TaxStamp.UUID, true
}

// errorBody cuerpo de error de la API.
type errorBody struct {
	Message    string              `json:"Message"`
	ModelState map[string][]string `json:"ModelState"`
}

// fileBody descarga en formato JSON (algunos planes devuelven el archivo en base64).
type fileBody struct {
	ContentEncoding string `json:"ContentEncoding"`
	ContentType     string `json:"ContentType"`
	Content         string `json:"Content"`
}

// FetchResult resultado de una descarga exitosa.
type FetchResult struct {
	Body       []byte
	StatusCode int
	Endpoint   string
}
