package repository

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrQuoteHasInvoices = errors.New("quote still has invoices")
	ErrEmailTaken       = errors.New("email already exists")
	ErrNoDeriver        = errors.New("invoice create needs a deriver")
)
