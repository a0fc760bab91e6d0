package templates

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upbilling/models"
)

func sampleQuote() *models.Quote {
	return &models.Quote{
		ID:    4,
		Title: "2026-3-5-0",
		State: models.QuoteAccepted,
		Sections: []models.Section{{Title: "Design", Items: []models.Item{
			{Label: "Mockups", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500)},
		}}},
	}
}

func TestLoadParsesEveryPage(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)
	for _, name := range []string{"quote_index", "quote_form", "quote_show", "invoice_index", "invoice_form", "invoice_show"} {
		assert.Contains(t, s.pages, name)
	}
}

func TestPageUsesLayout(t *testing.T) {
	s := MustLoad()
	var buf bytes.Buffer
	err := s.Page(&buf, "quote_index", map[string]any{"Quotes": []*models.Quote{sampleQuote()}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "<title>Quotes</title>")
	assert.Contains(t, out, `href="/quote/4"`)
	assert.Contains(t, out, "1000.00")

	assert.Error(t, s.Page(&buf, "missing", nil))
}

func TestDocuments(t *testing.T) {
	s := MustLoad()
	q := sampleQuote()
	inv := &models.Invoice{ID: 1, Title: "2026-3-5-0-001", Percentage: decimal.NewFromInt(30), Amount: decimal.NewFromInt(300)}
	issuer := &models.Issuer{CompanyName: "Acme", Footnote: "Thanks", Contacts: []models.ContactEntry{{Number: "0102", Label: "office"}}}

	var buf bytes.Buffer
	require.NoError(t, s.Document(&buf, "invoice.html", models.InvoicePDFData{
		Issuer: issuer, Invoice: inv, Quote: q, CustomerName: "Jane Doe", ProjectName: "Website",
		BillingDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).Format("02/01/2006"), AmountWords: "Three Hundred Euros",
	}))
	assert.Contains(t, buf.String(), "Invoice 2026-3-5-0-001")
	assert.Contains(t, buf.String(), "300.00")

	buf.Reset()
	require.NoError(t, s.Document(&buf, "footer.html", models.PDFFrameData{Issuer: issuer, Title: inv.Title}))
	assert.Contains(t, buf.String(), "0102 (office)")
	assert.Contains(t, buf.String(), "pageNumber")

	buf.Reset()
	require.NoError(t, s.Document(&buf, "header.html", models.PDFFrameData{Title: q.Title}))
	assert.Contains(t, buf.String(), q.Title)
}
