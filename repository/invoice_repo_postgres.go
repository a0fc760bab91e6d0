package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"upbilling/models"
)

type PostgresInvoiceRepo struct {
	DB *sql.DB
}

func NewPostgresInvoiceRepo(db *sql.DB) *PostgresInvoiceRepo {
	return &PostgresInvoiceRepo{DB: db}
}

const invoiceWithQuoteQuery = `
	SELECT
		i.id, i.quote_id, i.title, i.billing_date, i.state, i.percentage, i.is_optional, i.amount,
		` + quoteColumns + `
	FROM invoice i
	JOIN quote q ON q.id = i.quote_id
`

func scanInvoiceWithQuote(row rowScanner) (*models.Invoice, error) {
	var inv models.Invoice
	var q models.Quote
	err := row.Scan(
		&inv.ID, &inv.QuoteID, &inv.Title, &inv.BillingDate, &inv.State, &inv.Percentage, &inv.IsOptional, &inv.Amount,
		&q.ID, &q.CustomerID, &q.ProjectID, &q.Title, &q.Description,
		&q.DateCreation, &q.DateEdition, &q.PdfPath, &q.State,
	)
	if err != nil {
		return nil, err
	}
	inv.Quote = &q
	return &inv, nil
}

// ------------------------ Create / Update Invoice ------------------------

func (r *PostgresInvoiceRepo) CreateInvoice(ctx context.Context, inv *models.Invoice, derive Deriver) error {
	if !models.InvoiceStateExists(string(inv.State)) {
		return models.ErrInvalidState
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var quoteID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM quote WHERE id=$1 FOR SHARE`, inv.QuoteID).Scan(&quoteID)
	if isNoRows(err) {
		return fmt.Errorf("quote %d: %w", inv.QuoteID, ErrNotFound)
	}
	if err != nil {
		return err
	}

	insert := func() error {
		return tx.QueryRowContext(ctx, `
			INSERT INTO invoice(quote_id, title, billing_date, state, percentage, is_optional, amount)
			VALUES($1,$2,$3,$4,$5,$6,$7)
			RETURNING id
		`, inv.QuoteID, inv.Title, inv.BillingDate, inv.State, inv.Percentage, inv.IsOptional, inv.Amount).Scan(&inv.ID)
	}
	update := func() error {
		_, err := tx.ExecContext(ctx, `UPDATE invoice SET title=$1 WHERE id=$2`, inv.Title, inv.ID)
		return err
	}
	if err := insertDeriveUpdate(inv, insert, derive, update); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresInvoiceRepo) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	if !models.InvoiceStateExists(string(inv.State)) {
		return models.ErrInvalidState
	}
	res, err := r.DB.ExecContext(ctx, `
		UPDATE invoice SET
			quote_id=$1,
			title=$2,
			state=$3,
			percentage=$4,
			is_optional=$5,
			amount=$6
		WHERE id=$7
	`, inv.QuoteID, inv.Title, inv.State, inv.Percentage, inv.IsOptional, inv.Amount, inv.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// ------------------------ Queries ------------------------

func (r *PostgresInvoiceRepo) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	inv, err := scanInvoiceWithQuote(r.DB.QueryRowContext(ctx, invoiceWithQuoteQuery+` WHERE i.id = $1`, id))
	if isNoRows(err) {
		return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	quotes := &PostgresQuoteRepo{DB: r.DB}
	if err := quotes.loadSections(ctx, []*models.Quote{inv.Quote}); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *PostgresInvoiceRepo) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx, invoiceWithQuoteQuery+` ORDER BY i.billing_date DESC, i.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Invoice
	for rows.Next() {
		inv, err := scanInvoiceWithQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *PostgresInvoiceRepo) ListInvoicesByQuote(ctx context.Context, quoteID int64) ([]models.Invoice, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, quote_id, title, billing_date, state, percentage, is_optional, amount
		FROM invoice
		WHERE quote_id = $1
		ORDER BY billing_date, id
	`, quoteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.QuoteID, &inv.Title, &inv.BillingDate, &inv.State,
			&inv.Percentage, &inv.IsOptional, &inv.Amount); err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (r *PostgresInvoiceRepo) AmountByState(ctx context.Context) (models.AmountByState, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT state, is_optional, COALESCE(SUM(amount), 0)
		FROM invoice
		GROUP BY state, is_optional
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := models.NewAmountByState()
	for rows.Next() {
		var state models.InvoiceState
		var optional bool
		var sum decimal.Decimal
		if err := rows.Scan(&state, &optional, &sum); err != nil {
			return nil, err
		}
		out.Add(state, models.KindOf(optional), sum)
	}
	return out, rows.Err()
}

// ------------------------ State / Delete ------------------------

func (r *PostgresInvoiceRepo) UpdateInvoiceState(ctx context.Context, id int64, state models.InvoiceState) error {
	if !models.InvoiceStateExists(string(state)) {
		return fmt.Errorf("invoice %d: %w", id, models.ErrInvalidState)
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE invoice SET state=$1 WHERE id=$2`, state, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PostgresInvoiceRepo) DeleteInvoice(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM invoice WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}
