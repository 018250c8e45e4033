package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound                   = errors.New("recurso no encontrado")
	ErrInvalidInput               = errors.New("entrada inválida")
	ErrDuplicate                  = errors.New("recurso duplicado")
	ErrInvalidXML                 = errors.New("formato XML inválido")
	ErrExternalService            = errors.New("error del servicio de facturación")
	ErrTimeout                    = errors.New("tiempo de espera agotado")
	ErrStorage                    = errors.New("error de almacenamiento local")
	ErrComplementAlreadyGenerated = errors.New("el complemento de pago ya fue generado")
	ErrJobInProgress              = errors.New("generación de complemento en curso")
)

// ValidationError restricciones de campos violadas; Fields: campo -> mensaje.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError construye el error con un único campo.
func NewValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "entrada inválida: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// DuplicateUUIDError ya existe una factura con el mismo UUID fiscal.
type DuplicateUUIDError struct {
	UUID string
}

func (e *DuplicateUUIDError) Error() string {
	return fmt.Sprintf("ya existe una factura con UUID %s", e.UUID)
}

func (e *DuplicateUUIDError) Unwrap() error { return ErrDuplicate }

// InvalidXMLFormatError XML CFDI ilegible; Detail conserva el mensaje del parser.
type InvalidXMLFormatError struct {
	Detail string
}

func (e *InvalidXMLFormatError) Error() string {
	return "formato XML inválido: " + e.Detail
}

func (e *InvalidXMLFormatError) Unwrap() error { return ErrInvalidXML }

// ExternalServiceError respuesta no exitosa (o timeout) del servicio de facturación.
// Con Timeout=true también satisface errors.Is(err, ErrTimeout).
type ExternalServiceError struct {
	Message    string
	StatusCode int
	Timeout    bool
}

func (e *ExternalServiceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("servicio de facturación (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "servicio de facturación: " + e.Message
}

func (e *ExternalServiceError) Is(target error) bool {
	if target == ErrExternalService {
		return true
	}
	return e.Timeout && target == ErrTimeout
}

// StorageError fallo al leer/escribir en el almacén local de artefactos.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("almacenamiento %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() []error { return []error{ErrStorage, e.Err} }
