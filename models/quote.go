package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PdfPathPending marks a quote whose PDF has not been archived yet.
const PdfPathPending = "TODO"

// titleSequence stands in for a per customer/project counter that does not exist yet.
const titleSequence = 0

type Quote struct {
	ID           int64      `json:"id" db:"id"`
	CustomerID   int64      `json:"customer_id" db:"customer_id"`
	ProjectID    int64      `json:"project_id" db:"project_id"`
	Title        string     `json:"title" db:"title"`
	Description  string     `json:"description" db:"description"`
	DateCreation time.Time  `json:"date_creation" db:"date_creation"`
	DateEdition  time.Time  `json:"date_edition" db:"date_edition"`
	PdfPath      string     `json:"pdf_path" db:"pdf_path"`
	State        QuoteState `json:"state" db:"state"`

	Sections []Section `json:"sections"`
	// Invoices is only populated when a quote is loaded for display.
	Invoices []Invoice `json:"invoices,omitempty"`
}

type Section struct {
	Position int    `json:"position" db:"position"`
	Title    string `json:"title" db:"title"`
	Items    []Item `json:"items"`
}

type Item struct {
	Position  int             `json:"position" db:"position"`
	Label     string          `json:"label" db:"label"`
	Quantity  decimal.Decimal `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price" db:"unit_price"`
}

// QuoteTitle builds the display title of a new quote.
func QuoteTitle(year int, customerID, projectID int64) string {
	return fmt.Sprintf("%d-%d-%d-%d", year, customerID, projectID, titleSequence)
}

func (i Item) Total() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

func (s Section) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Total())
	}
	return total
}

func (q *Quote) Total() decimal.Decimal {
	total := decimal.Zero
	for _, s := range q.Sections {
		total = total.Add(s.Total())
	}
	return total
}

// Renumber assigns section and item positions from slice order.
func (q *Quote) Renumber() {
	for i := range q.Sections {
		q.Sections[i].Position = i
		for j := range q.Sections[i].Items {
			q.Sections[i].Items[j].Position = j
		}
	}
}

// InvoicedPercentage sums the percentages of the loaded invoices.
func (q *Quote) InvoicedPercentage() decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range q.Invoices {
		sum = sum.Add(inv.Percentage)
	}
	return sum
}

// IsAvailable reports whether the quote can still be invoiced, given all its invoices.
func (q *Quote) IsAvailable(invoices []Invoice) bool {
	if q.State != QuoteAccepted {
		return false
	}
	sum := decimal.Zero
	for _, inv := range invoices {
		if inv.QuoteID == q.ID {
			sum = sum.Add(inv.Percentage)
		}
	}
	return sum.LessThan(FullPercentage)
}
