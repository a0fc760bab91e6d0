package repository

import (
	"context"

	"upbilling/models"
)

// QuoteRepository persists quotes together with their sections and items.
type QuoteRepository interface {
	CreateQuote(ctx context.Context, q *models.Quote) error
	// UpdateQuote rewrites the quote row and replaces its sections and items.
	UpdateQuote(ctx context.Context, q *models.Quote) error
	GetQuote(ctx context.Context, id int64) (*models.Quote, error)
	// ListQuotes returns every quote, newest first.
	ListQuotes(ctx context.Context) ([]*models.Quote, error)
	// FindAvailableQuotes returns accepted quotes whose invoice percentages sum below 100.
	FindAvailableQuotes(ctx context.Context) ([]*models.Quote, error)
	UpdateQuoteState(ctx context.Context, id int64, state models.QuoteState) error
	UpdatePDFPath(ctx context.Context, id int64, path string) error
	DeleteQuote(ctx context.Context, id int64) error
}
