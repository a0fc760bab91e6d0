package models

import "time"

type ContactEntry struct {
	Number string `json:"number" bson:"number" db:"number"`
	Label  string `json:"label" bson:"label" db:"label"`
}

// Issuer holds the billing company details printed on quote and invoice PDFs.
type Issuer struct {
	ID          int64          `json:"id" bson:"_id,omitempty" db:"id"`
	CompanyName string         `json:"company_name" bson:"company_name" db:"company_name"`
	Address     string         `json:"address" bson:"address" db:"address"`
	City        string         `json:"city" bson:"city" db:"city"`
	PostalCode  string         `json:"postal_code" bson:"postal_code" db:"postal_code"`
	VATNumber   string         `json:"vat_number" bson:"vat_number" db:"vat_number"`
	Footnote    string         `json:"footnote" bson:"footnote" db:"footnote"`
	Contacts    []ContactEntry `json:"contacts" bson:"contacts" db:"contacts"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at" db:"created_at"`
}

// ContactLine formats contacts as "number (label), number (label)".
func (i *Issuer) ContactLine() string {
	if i == nil {
		return ""
	}
	out := ""
	for n, c := range i.Contacts {
		if n > 0 {
			out += ", "
		}
		out += c.Number
		if c.Label != "" {
			out += " (" + c.Label + ")"
		}
	}
	return out
}
