// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/your-org/uniform-sales-backend/internal/config"
	"github.com/your-org/uniform-sales-backend/internal/domain/composition"
)

// Service handles PDF generation
type Service struct {
	config *config.Config
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
	}
}

// GenerateReceipt generates the printable consolidated summary of a
// completed submission: one block per school sale plus the grand total
func (s *Service) GenerateReceipt(session *composition.Session) (*bytes.Buffer, error) {
	var grandTotal int64
	lines := make([]ReceiptLine, 0, len(session.Committed))
	for _, result := range session.Committed {
		lines = append(lines, ReceiptLine{
			SchoolName: result.SchoolName,
			SaleCode:   result.SaleCode,
			Subtotal:   formatAmount(result.Subtotal),
		})
		grandTotal += result.Subtotal
	}

	data := ReceiptData{
		ReceiptDate: time.Now().Format("January 2, 2006"),
		SessionID:   session.ID,
		Historical:  session.Historical,
		Lines:       lines,
		GrandTotal:  formatAmount(grandTotal),
		Company: CompanyInfo{
			Name:    s.config.App.CompanyName,
			Address: s.config.App.CompanyAddress,
			Phone:   s.config.App.CompanyPhone,
			Email:   s.config.App.CompanyEmail,
		},
	}

	// Generate HTML from template
	htmlContent, err := s.generateHTML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	// Convert HTML to PDF
	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	// Set PDF options
	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.Grayscale.Set(false)

	// Add page from HTML content
	page := wkhtmltopdf.NewPageReader(bytes.NewReader([]byte(htmlContent)))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	// Create PDF
	err = pdfg.Create()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

// generateHTML generates HTML content from template
func (s *Service) generateHTML(data ReceiptData) (string, error) {
	tmpl := template.Must(template.New("receipt").Parse(receiptTemplate))

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, data)
	if err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

func formatAmount(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

// ReceiptData represents the data passed to the receipt template
type ReceiptData struct {
	ReceiptDate string
	SessionID   string
	Historical  bool
	Lines       []ReceiptLine
	GrandTotal  string
	Company     CompanyInfo
}

// ReceiptLine is one per-school sale block on the receipt
type ReceiptLine struct {
	SchoolName string
	SaleCode   string
	Subtotal   string
}

// CompanyInfo represents company information
type CompanyInfo struct {
	Name    string
	Address string
	Phone   string
	Email   string
}

const receiptTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Arial, sans-serif; color: #222; margin: 40px; }
  h1 { font-size: 22px; margin-bottom: 0; }
  .company { margin-bottom: 30px; font-size: 12px; color: #555; }
  .meta { font-size: 12px; margin-bottom: 20px; }
  table { width: 100%; border-collapse: collapse; }
  th, td { text-align: left; padding: 8px; border-bottom: 1px solid #ddd; font-size: 13px; }
  th { background: #f5f5f5; }
  .total { font-weight: bold; font-size: 15px; text-align: right; padding-top: 16px; }
  .historical { color: #a05a00; font-size: 12px; }
</style>
</head>
<body>
  <h1>{{.Company.Name}}</h1>
  <div class="company">
    {{.Company.Address}}<br>
    {{.Company.Phone}} | {{.Company.Email}}
  </div>
  <div class="meta">
    Sale summary | {{.ReceiptDate}}<br>
    Reference: {{.SessionID}}
    {{if .Historical}}<div class="historical">Back-dated (historical) sale</div>{{end}}
  </div>
  <table>
    <tr><th>School</th><th>Sale code</th><th>Subtotal</th></tr>
    {{range .Lines}}
    <tr><td>{{.SchoolName}}</td><td>{{.SaleCode}}</td><td>{{.Subtotal}}</td></tr>
    {{end}}
  </table>
  <div class="total">Total: {{.GrandTotal}}</div>
</body>
</html>`
