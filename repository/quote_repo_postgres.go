package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"upbilling/models"
)

type PostgresQuoteRepo struct {
	DB *sql.DB
}

func NewPostgresQuoteRepo(db *sql.DB) *PostgresQuoteRepo {
	return &PostgresQuoteRepo{DB: db}
}

const quoteColumns = `q.id, q.customer_id, q.project_id, q.title, q.description,
	q.date_creation, q.date_edition, q.pdf_path, q.state`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*models.Quote, error) {
	var q models.Quote
	err := row.Scan(&q.ID, &q.CustomerID, &q.ProjectID, &q.Title, &q.Description,
		&q.DateCreation, &q.DateEdition, &q.PdfPath, &q.State)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// ------------------------ Helper Functions ------------------------

func (r *PostgresQuoteRepo) insertSections(ctx context.Context, tx *sql.Tx, q *models.Quote) error {
	q.Renumber()
	for _, s := range q.Sections {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO quote_section(quote_id, position, title)
			VALUES($1,$2,$3)
		`, q.ID, s.Position, s.Title); err != nil {
			return err
		}
		for _, it := range s.Items {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO quote_item(quote_id, section_position, position, label, quantity, unit_price)
				VALUES($1,$2,$3,$4,$5,$6)
			`, q.ID, s.Position, it.Position, it.Label, it.Quantity, it.UnitPrice); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadSections fills sections and items for all quotes in two queries.
func (r *PostgresQuoteRepo) loadSections(ctx context.Context, quotes []*models.Quote) error {
	if len(quotes) == 0 {
		return nil
	}
	ids := make([]any, len(quotes))
	placeholders := make([]string, len(quotes))
	byID := make(map[int64]*models.Quote, len(quotes))
	for i, q := range quotes {
		ids[i] = q.ID
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		q.Sections = nil
		byID[q.ID] = q
	}
	in := strings.Join(placeholders, ",")

	rows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT quote_id, position, title FROM quote_section
		WHERE quote_id IN (%s)
		ORDER BY quote_id, position
	`, in), ids...)
	if err != nil {
		return err
	}
	defer rows.Close()

	sectionIndex := make(map[[2]int64]int)
	for rows.Next() {
		var quoteID int64
		var s models.Section
		if err := rows.Scan(&quoteID, &s.Position, &s.Title); err != nil {
			return err
		}
		q := byID[quoteID]
		sectionIndex[[2]int64{quoteID, int64(s.Position)}] = len(q.Sections)
		q.Sections = append(q.Sections, s)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	itemRows, err := r.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT quote_id, section_position, position, label, quantity, unit_price FROM quote_item
		WHERE quote_id IN (%s)
		ORDER BY quote_id, section_position, position
	`, in), ids...)
	if err != nil {
		return err
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var quoteID int64
		var sectionPos int
		var it models.Item
		if err := itemRows.Scan(&quoteID, &sectionPos, &it.Position, &it.Label, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		idx, ok := sectionIndex[[2]int64{quoteID, int64(sectionPos)}]
		if !ok {
			continue
		}
		s := &byID[quoteID].Sections[idx]
		s.Items = append(s.Items, it)
	}
	return itemRows.Err()
}

func (r *PostgresQuoteRepo) queryQuotes(ctx context.Context, query string, args ...any) ([]*models.Quote, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadSections(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// ------------------------ Create / Update Quote ------------------------

func (r *PostgresQuoteRepo) CreateQuote(ctx context.Context, q *models.Quote) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO quote(customer_id, project_id, title, description, date_creation, date_edition, pdf_path, state)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, q.CustomerID, q.ProjectID, q.Title, q.Description, q.DateCreation, q.DateEdition, q.PdfPath, q.State).Scan(&q.ID)
	if err != nil {
		return err
	}
	if err := r.insertSections(ctx, tx, q); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *PostgresQuoteRepo) UpdateQuote(ctx context.Context, q *models.Quote) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE quote SET
			customer_id=$1,
			project_id=$2,
			title=$3,
			description=$4,
			date_edition=$5,
			pdf_path=$6,
			state=$7
		WHERE id=$8
	`, q.CustomerID, q.ProjectID, q.Title, q.Description, q.DateEdition, q.PdfPath, q.State, q.ID)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return err
	}

	// Refresh sections; items cascade
	if _, err := tx.ExecContext(ctx, `DELETE FROM quote_section WHERE quote_id=$1`, q.ID); err != nil {
		return err
	}
	if err := r.insertSections(ctx, tx, q); err != nil {
		return err
	}
	return tx.Commit()
}

// ------------------------ Queries ------------------------

func (r *PostgresQuoteRepo) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	quotes, err := r.queryQuotes(ctx, `SELECT `+quoteColumns+` FROM quote q WHERE q.id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	return quotes[0], nil
}

func (r *PostgresQuoteRepo) ListQuotes(ctx context.Context) ([]*models.Quote, error) {
	return r.queryQuotes(ctx, `SELECT `+quoteColumns+` FROM quote q ORDER BY q.date_creation DESC, q.id DESC`)
}

func (r *PostgresQuoteRepo) FindAvailableQuotes(ctx context.Context) ([]*models.Quote, error) {
	return r.queryQuotes(ctx, `
		SELECT `+quoteColumns+`
		FROM quote q
		LEFT JOIN invoice i ON i.quote_id = q.id
		WHERE q.state = $1
		GROUP BY q.id
		HAVING COALESCE(SUM(i.percentage), 0) < 100
		ORDER BY q.date_creation DESC, q.id DESC
	`, models.QuoteAccepted)
}

// ------------------------ Single-field Updates ------------------------

func (r *PostgresQuoteRepo) UpdateQuoteState(ctx context.Context, id int64, state models.QuoteState) error {
	if !models.QuoteStateExists(string(state)) {
		return fmt.Errorf("quote %d: %w", id, models.ErrInvalidState)
	}
	res, err := r.DB.ExecContext(ctx, `UPDATE quote SET state=$1, date_edition=$2 WHERE id=$3`, state, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *PostgresQuoteRepo) UpdatePDFPath(ctx context.Context, id int64, path string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE quote SET pdf_path=$1 WHERE id=$2`, path, id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// ------------------------ Delete Quote ------------------------

func (r *PostgresQuoteRepo) DeleteQuote(ctx context.Context, id int64) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM invoice WHERE quote_id=$1`, id).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("quote %d: %w", id, ErrQuoteHasInvoices)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM quote WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if err := expectOneRow(res); err != nil {
		return err
	}
	return tx.Commit()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
