package repository

import (
	"context"

	"upbilling/models"
)

type IssuerRepository interface {
	SaveIssuer(ctx context.Context, issuer *models.Issuer) error
	// GetIssuer returns the latest issuer record, or nil when none was saved.
	GetIssuer(ctx context.Context) (*models.Issuer, error)
}
