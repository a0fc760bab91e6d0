package models

import "github.com/shopspring/decimal"

// Kind separates base invoices from optional (upsell) ones in reports.
type Kind string

const (
	KindBase     Kind = "base"
	KindOptional Kind = "optional"
)

func KindOf(optional bool) Kind {
	if optional {
		return KindOptional
	}
	return KindBase
}

// AmountByState holds summed invoice amounts per state and kind.
type AmountByState map[InvoiceState]map[Kind]decimal.Decimal

// NewAmountByState returns a table with every state and kind set to zero.
func NewAmountByState() AmountByState {
	out := make(AmountByState, len(InvoiceStates))
	for _, s := range InvoiceStates {
		out[s] = map[Kind]decimal.Decimal{
			KindBase:     decimal.Zero,
			KindOptional: decimal.Zero,
		}
	}
	return out
}

// Add accumulates amount into the cell for state and kind, creating it if needed.
func (a AmountByState) Add(state InvoiceState, kind Kind, amount decimal.Decimal) {
	row, ok := a[state]
	if !ok {
		row = map[Kind]decimal.Decimal{KindBase: decimal.Zero, KindOptional: decimal.Zero}
		a[state] = row
	}
	row[kind] = row[kind].Add(amount)
}

// Get reads one cell; missing cells are zero.
func (a AmountByState) Get(state InvoiceState, kind Kind) decimal.Decimal {
	if row, ok := a[state]; ok {
		if v, ok := row[kind]; ok {
			return v
		}
	}
	return decimal.Zero
}

// SumByState aggregates invoices the way the stores do in their queries.
func SumByState(invoices []Invoice) AmountByState {
	out := NewAmountByState()
	for _, inv := range invoices {
		out.Add(inv.State, KindOf(inv.IsOptional), inv.Amount)
	}
	return out
}

type InvoiceTotals struct {
	TotalPaid           decimal.Decimal
	TotalPaidOption     decimal.Decimal
	TotalPending        decimal.Decimal
	TotalPendingOption  decimal.Decimal
	TotalInvoiced       decimal.Decimal
	TotalInvoicedOption decimal.Decimal
}

// Totals derives the invoice list summary: paid invoices, sent (pending) invoices and both together.
func (a AmountByState) Totals() InvoiceTotals {
	var t InvoiceTotals
	t.TotalPaidOption = a.Get(InvoicePaid, KindOptional)
	t.TotalPaid = t.TotalPaidOption.Add(a.Get(InvoicePaid, KindBase))
	t.TotalPendingOption = a.Get(InvoiceSent, KindOptional)
	t.TotalPending = t.TotalPendingOption.Add(a.Get(InvoiceSent, KindBase))
	t.TotalInvoiced = t.TotalPaid.Add(t.TotalPending)
	t.TotalInvoicedOption = t.TotalPaidOption.Add(t.TotalPendingOption)
	return t
}
