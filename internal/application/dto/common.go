package dto

// ErrorResponse cuerpo de error HTTP. Fields solo viene en errores de validación.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// MessageResponse respuesta simple con mensaje.
type MessageResponse struct {
	Message string `json:"message"`
}
