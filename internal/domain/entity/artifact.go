package entity

// ArtifactKind tipo de representación descargable de un CFDI.
type ArtifactKind string

const (
	ArtifactPDF ArtifactKind = "pdf"
	ArtifactXML ArtifactKind = "xml"
)

// Valid indica si el tipo es pdf o xml.
func (k ArtifactKind) Valid() bool {
	return k == ArtifactPDF || k == ArtifactXML
}

// Extension extensión de archivo con punto.
func (k ArtifactKind) Extension() string {
	return "." + string(k)
}

// ContentType MIME para la descarga HTTP.
func (k ArtifactKind) ContentType() string {
	if k == ArtifactPDF {
		return "application/pdf"
	}
	return "application/xml"
}
