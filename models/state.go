package models

import (
	"errors"
	"fmt"
)

// ErrInvalidState is returned when a value is not a member of a state enumeration.
var ErrInvalidState = errors.New("invalid state")

type QuoteState string

const (
	QuoteDraft    QuoteState = "draft"
	QuoteSent     QuoteState = "sent"
	QuoteAccepted QuoteState = "accepted"
	QuoteRejected QuoteState = "rejected"
)

// QuoteStates lists every quote state in display order.
var QuoteStates = []QuoteState{QuoteDraft, QuoteSent, QuoteAccepted, QuoteRejected}

// QuoteStateExists reports whether candidate names a quote state. Matching is exact.
func QuoteStateExists(candidate string) bool {
	for _, s := range QuoteStates {
		if string(s) == candidate {
			return true
		}
	}
	return false
}

func ParseQuoteState(v string) (QuoteState, error) {
	if !QuoteStateExists(v) {
		return "", fmt.Errorf("quote state %q: %w", v, ErrInvalidState)
	}
	return QuoteState(v), nil
}

type InvoiceState string

const (
	InvoiceDraft     InvoiceState = "draft"
	InvoiceSent      InvoiceState = "sent"
	InvoicePaid      InvoiceState = "paid"
	InvoiceCancelled InvoiceState = "cancelled"
)

// InvoiceStates lists every invoice state in display order.
var InvoiceStates = []InvoiceState{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceCancelled}

// InvoiceStateExists reports whether candidate names an invoice state. Matching is exact.
func InvoiceStateExists(candidate string) bool {
	for _, s := range InvoiceStates {
		if string(s) == candidate {
			return true
		}
	}
	return false
}

func ParseInvoiceState(v string) (InvoiceState, error) {
	if !InvoiceStateExists(v) {
		return "", fmt.Errorf("invoice state %q: %w", v, ErrInvalidState)
	}
	return InvoiceState(v), nil
}
