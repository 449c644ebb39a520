package certificate

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"campusevents/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// templateRenderer implements domain.CertificateRenderer using an embedded
// template file. The output bytes are opaque to callers; swapping in a PDF
// renderer only requires another implementation of the interface.
type templateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer returns a CertificateRenderer that renders the
// embedded certificate template.
func NewTemplateRenderer() (domain.CertificateRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/certificate.txt")
	if err != nil {
		return nil, fmt.Errorf("parse certificate template: %w", err)
	}
	return &templateRenderer{tmpl: tmpl}, nil
}

type certificateData struct {
	StudentName string
	EventTitle  string
	EventDate   string
}

func (r *templateRenderer) Render(studentName, eventTitle, formattedDate string) ([]byte, error) {
	var buf bytes.Buffer
	data := certificateData{
		StudentName: studentName,
		EventTitle:  eventTitle,
		EventDate:   formattedDate,
	}
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
