package models

// InvoicePDFData feeds the invoice PDF body template.
type InvoicePDFData struct {
	Issuer       *Issuer
	Invoice      *Invoice
	Quote        *Quote
	CustomerName string
	ProjectName  string
	BillingDate  string // formatted date
	AmountWords  string
}

// QuotePDFData feeds the quote PDF body template.
type QuotePDFData struct {
	Issuer       *Issuer
	Quote        *Quote
	CustomerName string
	ProjectName  string
	Date         string
	TotalWords   string
}

// PDFFrameData feeds the header and footer templates.
type PDFFrameData struct {
	Issuer *Issuer
	Title  string
	Footer bool
}
