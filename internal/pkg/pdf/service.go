// internal/pkg/pdf/service.go
package pdf

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/SebastiaanKlippert/go-wkhtmltopdf"
	"github.com/shopspring/decimal"
	"github.com/your-org/storefront-cart/internal/config"
	"github.com/your-org/storefront-cart/internal/domain/cart"
)

// Service handles PDF generation
type Service struct {
	company config.CompanyConfig
	tmpl    *template.Template
}

// NewService creates a new PDF service
func NewService(cfg *config.Config) *Service {
	return &Service{
		company: cfg.Company,
		tmpl:    template.Must(template.New("quote").Funcs(templateFuncs).Parse(quoteTemplate)),
	}
}

var templateFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

// QuoteData is passed to the quote template
type QuoteData struct {
	QuoteNumber string
	QuoteDate   string
	Company     config.CompanyConfig
	Cart        *cart.Detail
}

// QuoteNumber derives a printable reference from the session id and date
func QuoteNumber(sessionID string, now time.Time) string {
	ref := strings.ReplaceAll(sessionID, "-", "")
	if len(ref) > 8 {
		ref = ref[:8]
	}
	return fmt.Sprintf("Q-%s-%s", now.Format("20060102"), strings.ToUpper(ref))
}

// GenerateQuote renders a cart detail as a PDF quote. The wkhtmltopdf binary
// must be on PATH.
func (s *Service) GenerateQuote(detail *cart.Detail, now time.Time) (*bytes.Buffer, error) {
	htmlContent, err := s.generateHTML(QuoteData{
		QuoteNumber: QuoteNumber(detail.SessionID, now),
		QuoteDate:   now.Format("January 2, 2006"),
		Company:     s.company,
		Cart:        detail,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate HTML: %w", err)
	}

	pdfg, err := wkhtmltopdf.NewPDFGenerator()
	if err != nil {
		return nil, fmt.Errorf("failed to create PDF generator: %w", err)
	}

	pdfg.Dpi.Set(300)
	pdfg.Orientation.Set(wkhtmltopdf.OrientationPortrait)
	pdfg.PageSize.Set(wkhtmltopdf.PageSizeA4)
	pdfg.Grayscale.Set(false)

	page := wkhtmltopdf.NewPageReader(strings.NewReader(htmlContent))
	page.FooterRight.Set("[page]")
	page.FooterFontSize.Set(9)
	page.Zoom.Set(0.95)

	pdfg.AddPage(page)

	if err := pdfg.Create(); err != nil {
		return nil, fmt.Errorf("failed to create PDF: %w", err)
	}

	return bytes.NewBuffer(pdfg.Bytes()), nil
}

func (s *Service) generateHTML(data QuoteData) (string, error) {
	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

const quoteTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Quote {{.QuoteNumber}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 0; padding: 20px; color: #333; }
        .header { margin-bottom: 30px; border-bottom: 2px solid #eee; padding-bottom: 20px; }
        .title { font-size: 28px; font-weight: bold; color: #2563eb; }
        table { width: 100%; border-collapse: collapse; margin-top: 20px; }
        th, td { padding: 8px; border-bottom: 1px solid #eee; text-align: left; }
        td.num, th.num { text-align: right; }
        .totals { margin-top: 20px; width: 40%; margin-left: auto; }
        .grand { font-weight: bold; font-size: 16px; }
        .missing { color: #b91c1c; }
    </style>
</head>
<body>
    <div class="header">
        <div class="title">Quote</div>
        <div>{{.QuoteNumber}} &middot; {{.QuoteDate}}</div>
        <div>{{.Company.Name}}</div>
        {{if .Company.Address}}<div>{{.Company.Address}}</div>{{end}}
        {{if .Company.Email}}<div>{{.Company.Email}}</div>{{end}}
        {{if .Company.Website}}<div>{{.Company.Website}}</div>{{end}}
    </div>

    <table>
        <thead>
            <tr><th>Product</th><th class="num">Qty</th><th class="num">Unit price</th><th class="num">Total</th></tr>
        </thead>
        <tbody>
        {{range .Cart.Lines}}
            <tr>
                <td>{{if .Product}}{{.Product.Name}}{{else}}<span class="missing">Product #{{.ProductID}} (unavailable)</span>{{end}}</td>
                <td class="num">{{.Quantity}}</td>
                <td class="num">{{money .Price}}</td>
                <td class="num">{{money .TotalPrice}}</td>
            </tr>
        {{else}}
            <tr><td colspan="4">Your cart is empty.</td></tr>
        {{end}}
        </tbody>
    </table>

    <table class="totals">
        <tr><td>Subtotal</td><td class="num">{{money .Cart.Totals.SubTotal}}</td></tr>
        {{if .Cart.Coupon}}
        <tr><td>Coupon {{.Cart.Coupon.Code}} ({{.Cart.Totals.DiscountPercent}}%)</td><td class="num">-{{money .Cart.Totals.DiscountAmount}}</td></tr>
        {{end}}
        <tr class="grand"><td>Total</td><td class="num">{{money .Cart.Totals.TotalAmount}}</td></tr>
    </table>
</body>
</html>
`
