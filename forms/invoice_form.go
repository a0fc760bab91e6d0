package forms

import (
	"net/url"
	"strconv"
	"strings"

	"upbilling/models"
)

// InvoiceForm is the create/edit form of an invoice. Quotes lists the quotes
// that may be selected: the available ones on create, every quote on edit.
type InvoiceForm struct {
	Quotes []*models.Quote `form:"-" validate:"-"`

	QuoteID    string `form:"quote_id" validate:"required,number"`
	Percentage string `form:"percentage" validate:"required,numeric"`
	IsOptional bool   `form:"is_optional"`
	State      string `form:"state" validate:"required,invoice_state"`
}

func NewInvoiceForm(quotes []*models.Quote) *InvoiceForm {
	return &InvoiceForm{Quotes: quotes, State: string(models.InvoiceDraft)}
}

func InvoiceFormFrom(inv *models.Invoice, quotes []*models.Quote) *InvoiceForm {
	return &InvoiceForm{
		Quotes:     quotes,
		QuoteID:    strconv.FormatInt(inv.QuoteID, 10),
		Percentage: inv.Percentage.String(),
		IsOptional: inv.IsOptional,
		State:      string(inv.State),
	}
}

func BindInvoiceForm(values url.Values, quotes []*models.Quote) *InvoiceForm {
	f := &InvoiceForm{
		Quotes:     quotes,
		QuoteID:    strings.TrimSpace(values.Get("quote_id")),
		Percentage: strings.TrimSpace(values.Get("percentage")),
		State:      strings.TrimSpace(values.Get("state")),
	}
	switch strings.ToLower(values.Get("is_optional")) {
	case "1", "on", "true", "yes":
		f.IsOptional = true
	}
	if f.State == "" {
		f.State = string(models.InvoiceDraft)
	}
	return f
}

// Selected reports whether id is the currently chosen quote.
func (f *InvoiceForm) Selected(id int64) bool {
	return f.QuoteID == strconv.FormatInt(id, 10)
}

// Validate returns the invoice fields and the selected quote when the submission is valid.
func (f *InvoiceForm) Validate() (*models.Invoice, *models.Quote, Violations, error) {
	v := Violations{}
	if err := check(f, v); err != nil {
		return nil, nil, nil, err
	}

	var quote *models.Quote
	if _, failed := v["quote_id"]; !failed {
		id, err := strconv.ParseInt(f.QuoteID, 10, 64)
		if err != nil {
			v.Add("quote_id", CodeInvalidNumber)
		}
		for _, q := range f.Quotes {
			if q.ID == id {
				quote = q
				break
			}
		}
		if quote == nil {
			v.Add("quote_id", CodeInvalidChoice)
		}
	}

	pct := parseAmount("percentage", f.Percentage, percentageBounds, v)

	if !v.Empty() {
		return nil, nil, v, nil
	}
	inv := &models.Invoice{
		QuoteID:    quote.ID,
		State:      models.InvoiceState(f.State),
		Percentage: pct,
		IsOptional: f.IsOptional,
	}
	return inv, quote, v, nil
}
