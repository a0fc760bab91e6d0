package repository

import (
	"context"

	"upbilling/models"
)

// Deriver computes invoice fields that depend on the identifier assigned at insert.
type Deriver func(inv *models.Invoice) error

// InvoiceRepository persists invoices and answers the reporting queries.
type InvoiceRepository interface {
	// CreateInvoice inserts inv, runs derive once the id is known and stores the result,
	// all in one unit of work.
	CreateInvoice(ctx context.Context, inv *models.Invoice, derive Deriver) error
	UpdateInvoice(ctx context.Context, inv *models.Invoice) error
	// GetInvoice loads the invoice with its quote.
	GetInvoice(ctx context.Context, id int64) (*models.Invoice, error)
	// ListInvoices returns every invoice with its quote, newest billing date first.
	ListInvoices(ctx context.Context) ([]*models.Invoice, error)
	ListInvoicesByQuote(ctx context.Context, quoteID int64) ([]models.Invoice, error)
	// AmountByState sums amounts per state and kind; absent pairs are zero.
	AmountByState(ctx context.Context) (models.AmountByState, error)
	UpdateInvoiceState(ctx context.Context, id int64, state models.InvoiceState) error
	DeleteInvoice(ctx context.Context, id int64) error
}

// insertDeriveUpdate runs the two-phase create used for identifier-dependent fields.
// A nil derive is refused before anything is written.
func insertDeriveUpdate(inv *models.Invoice, insert func() error, derive Deriver, update func() error) error {
	if derive == nil {
		return ErrNoDeriver
	}
	if err := insert(); err != nil {
		return err
	}
	if inv.ID == 0 {
		return models.ErrMissingID
	}
	if err := derive(inv); err != nil {
		return err
	}
	return update()
}
