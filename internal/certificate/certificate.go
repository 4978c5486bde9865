// Package certificate renders downloadable documents for single credits.
package certificate

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"go-carbon-registry-ui/internal/registry"
)

// Formats accepted by Generate.
const (
	FormatHTML = "html"
	FormatPDF  = "pdf"
)

// Certificate is a generated document for one credit: the credit fields
// plus a unique certificate ID and the generation timestamp.
type Certificate struct {
	ID          string
	Credit      registry.Credit
	Format      string
	GeneratedAt time.Time
}

// Document is the rendered payload ready to be served as a download.
type Document struct {
	Certificate Certificate
	Body        []byte
	ContentType string
	Filename    string
}

// ValidFormat reports whether raw names a supported certificate format.
func ValidFormat(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case FormatHTML, FormatPDF:
		return true
	default:
		return false
	}
}

// Generate renders a certificate for the credit in the requested format.
func Generate(credit registry.Credit, format string, now time.Time) (*Document, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	cert := Certificate{
		ID:          uuid.NewString(),
		Credit:      credit,
		Format:      format,
		GeneratedAt: now.UTC(),
	}

	switch format {
	case FormatHTML:
		body, err := renderHTML(cert)
		if err != nil {
			return nil, err
		}
		return &Document{
			Certificate: cert,
			Body:        body,
			ContentType: "text/html; charset=utf-8",
			Filename:    Filename(credit.UnicID, FormatHTML),
		}, nil
	case FormatPDF:
		body, err := renderPDF(cert)
		if err != nil {
			return nil, err
		}
		return &Document{
			Certificate: cert,
			Body:        body,
			ContentType: "application/pdf",
			Filename:    Filename(credit.UnicID, FormatPDF),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported certificate format: %s", format)
	}
}

// Filename builds a stable download name from the credit identifier.
func Filename(unicID, format string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, strings.TrimSpace(unicID))
	if safe == "" {
		safe = "credit"
	}
	return fmt.Sprintf("certificate_%s.%s", safe, format)
}

var htmlTemplate = template.Must(template.New("certificate").Parse(`<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Carbon Credit Certificate — {{.Credit.UnicID}}</title>
  <style>
    body { font-family: Georgia, "Times New Roman", serif; background: #f4f1ea; margin: 0; padding: 40px; }
    .sheet { max-width: 720px; margin: 0 auto; background: #fff; border: 3px double #2d5d3f; padding: 48px 56px; }
    h1 { color: #2d5d3f; font-size: 26px; letter-spacing: 1px; text-align: center; margin: 0 0 4px; }
    .subtitle { text-align: center; color: #777; font-size: 13px; margin-bottom: 32px; text-transform: uppercase; letter-spacing: 2px; }
    table { width: 100%; border-collapse: collapse; font-size: 15px; }
    th { text-align: left; color: #555; font-weight: normal; padding: 10px 12px; width: 180px; border-bottom: 1px solid #e5e0d5; }
    td { padding: 10px 12px; border-bottom: 1px solid #e5e0d5; font-weight: bold; color: #222; }
    .status-Active { color: #1a7f37; }
    .status-Retired { color: #a94442; }
    .footer { margin-top: 36px; font-size: 12px; color: #999; display: flex; justify-content: space-between; }
  </style>
</head>
<body>
  <div class="sheet">
    <h1>Carbon Credit Certificate</h1>
    <div class="subtitle">Registry Record Extract</div>
    <table>
      <tr><th>Credit ID</th><td>{{.Credit.UnicID}}</td></tr>
      <tr><th>Project</th><td>{{.Credit.ProjectName}}</td></tr>
      <tr><th>Vintage</th><td>{{.Credit.Vintage}}</td></tr>
      <tr><th>Status</th><td class="status-{{.Credit.Status}}">{{.Credit.Status}}</td></tr>
    </table>
    <div class="footer">
      <span>Certificate {{.ID}}</span>
      <span>Generated {{.GeneratedAt.Format "2006-01-02 15:04:05 UTC"}}</span>
    </div>
  </div>
</body>
</html>
`))

func renderHTML(cert Certificate) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, cert); err != nil {
		return nil, fmt.Errorf("render certificate html: %w", err)
	}
	return buf.Bytes(), nil
}

func renderPDF(cert Certificate) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Carbon Credit Certificate %s", cert.Credit.UnicID), false)
	pdf.AddPage()

	pdf.SetFont("Times", "B", 22)
	pdf.SetTextColor(45, 93, 63)
	pdf.CellFormat(0, 14, "Carbon Credit Certificate", "", 1, "C", false, 0, "")

	pdf.SetFont("Times", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, "Registry Record Extract", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	rows := [][2]string{
		{"Credit ID", cert.Credit.UnicID},
		{"Project", cert.Credit.ProjectName},
		{"Vintage", fmt.Sprintf("%d", cert.Credit.Vintage)},
		{"Status", cert.Credit.Status},
	}
	for _, row := range rows {
		pdf.SetFont("Times", "", 12)
		pdf.SetTextColor(90, 90, 90)
		pdf.CellFormat(50, 10, row[0], "B", 0, "L", false, 0, "")
		pdf.SetFont("Times", "B", 12)
		pdf.SetTextColor(30, 30, 30)
		pdf.CellFormat(0, 10, row[1], "B", 1, "L", false, 0, "")
	}

	pdf.Ln(14)
	pdf.SetFont("Times", "", 9)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 5, fmt.Sprintf("Certificate %s", cert.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", cert.GeneratedAt.Format("2006-01-02 15:04:05 UTC")), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
