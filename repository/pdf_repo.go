package repository

import (
	"context"

	"upbilling/models"
)

// PDFRepository gathers everything a rendered quote or invoice needs.
type PDFRepository struct {
	QuoteRepo   QuoteRepository
	InvoiceRepo InvoiceRepository
	IssuerRepo  IssuerRepository
}

func NewPDFRepository(quoteRepo QuoteRepository, invoiceRepo InvoiceRepository, issuerRepo IssuerRepository) *PDFRepository {
	return &PDFRepository{
		QuoteRepo:   quoteRepo,
		InvoiceRepo: invoiceRepo,
		IssuerRepo:  issuerRepo,
	}
}

// GetQuoteForPDF loads a quote with its invoices attached.
func (r *PDFRepository) GetQuoteForPDF(ctx context.Context, id int64) (*models.Quote, error) {
	q, err := r.QuoteRepo.GetQuote(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Invoices, err = r.InvoiceRepo.ListInvoicesByQuote(ctx, id); err != nil {
		return nil, err
	}
	return q, nil
}

// GetInvoiceForPDF loads an invoice with its quote.
func (r *PDFRepository) GetInvoiceForPDF(ctx context.Context, id int64) (*models.Invoice, error) {
	return r.InvoiceRepo.GetInvoice(ctx, id)
}

// GetIssuerForPDF returns the issuer printed in the page frame; nil when none is configured.
func (r *PDFRepository) GetIssuerForPDF(ctx context.Context) (*models.Issuer, error) {
	return r.IssuerRepo.GetIssuer(ctx)
}
