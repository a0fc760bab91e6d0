package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingID is returned when a derived field needs an identifier the store has not assigned yet.
var ErrMissingID = errors.New("entity has no identifier yet")

// FullPercentage is the share of a quote that is fully invoiced.
var FullPercentage = decimal.NewFromInt(100)

type Invoice struct {
	ID          int64           `json:"id" db:"id"`
	QuoteID     int64           `json:"quote_id" db:"quote_id"`
	Title       string          `json:"title" db:"title"`
	BillingDate time.Time       `json:"billing_date" db:"billing_date"`
	State       InvoiceState    `json:"state" db:"state"`
	Percentage  decimal.Decimal `json:"percentage" db:"percentage"`
	IsOptional  bool            `json:"is_optional" db:"is_optional"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`

	Quote *Quote `json:"quote,omitempty"`
}

// UpdateTitle derives the invoice title from its identifier and the quote title.
func (inv *Invoice) UpdateTitle(quoteTitle string) error {
	if inv.ID == 0 {
		return ErrMissingID
	}
	inv.Title = fmt.Sprintf("%s-%03d", quoteTitle, inv.ID)
	return nil
}

// ComputeAmount sets Amount to the invoiced share of the quote total.
func (inv *Invoice) ComputeAmount(q *Quote) {
	inv.Amount = q.Total().Mul(inv.Percentage).Div(FullPercentage).Round(2)
}

// PDFFilename is the attachment name of the invoice PDF.
func (inv *Invoice) PDFFilename() string {
	return fmt.Sprintf("F%s.pdf", inv.Title)
}
