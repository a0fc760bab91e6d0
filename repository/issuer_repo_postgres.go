package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"upbilling/models"
)

type PostgresIssuerRepo struct {
	DB *sql.DB
}

func NewPostgresIssuerRepo(db *sql.DB) *PostgresIssuerRepo {
	return &PostgresIssuerRepo{DB: db}
}

// SaveIssuer inserts or updates the issuer details
func (r *PostgresIssuerRepo) SaveIssuer(ctx context.Context, issuer *models.Issuer) error {
	if issuer.CreatedAt.IsZero() {
		issuer.CreatedAt = time.Now().UTC()
	}
	if issuer.Contacts == nil {
		issuer.Contacts = []models.ContactEntry{}
	}

	contactsJSON, err := json.Marshal(issuer.Contacts)
	if err != nil {
		return err
	}

	// If ID is passed → UPDATE, else INSERT
	if issuer.ID > 0 {
		res, err := r.DB.ExecContext(ctx, `
			UPDATE issuer
			SET company_name=$1, address=$2, city=$3, postal_code=$4, vat_number=$5,
				footnote=$6, contacts=$7
			WHERE id=$8
		`, issuer.CompanyName, issuer.Address, issuer.City, issuer.PostalCode, issuer.VATNumber,
			issuer.Footnote, contactsJSON, issuer.ID)
		if err != nil {
			return err
		}
		return expectOneRow(res)
	}

	return r.DB.QueryRowContext(ctx, `
		INSERT INTO issuer
		(company_name, address, city, postal_code, vat_number, footnote, contacts, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`, issuer.CompanyName, issuer.Address, issuer.City, issuer.PostalCode, issuer.VATNumber,
		issuer.Footnote, contactsJSON, issuer.CreatedAt).Scan(&issuer.ID)
}

// GetIssuer fetches the latest issuer details
func (r *PostgresIssuerRepo) GetIssuer(ctx context.Context) (*models.Issuer, error) {
	issuer := &models.Issuer{}
	var contactsJSON []byte

	err := r.DB.QueryRowContext(ctx, `
		SELECT id, company_name, address, city, postal_code, vat_number, footnote, contacts, created_at
		FROM issuer
		ORDER BY id DESC LIMIT 1
	`).Scan(&issuer.ID, &issuer.CompanyName, &issuer.Address, &issuer.City, &issuer.PostalCode,
		&issuer.VATNumber, &issuer.Footnote, &contactsJSON, &issuer.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}

	if len(contactsJSON) > 0 {
		if err := json.Unmarshal(contactsJSON, &issuer.Contacts); err != nil {
			return nil, err
		}
	}
	return issuer, nil
}
