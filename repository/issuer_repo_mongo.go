package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"upbilling/models"
)

type MongoIssuerRepo struct {
	DB *mongo.Database
}

func NewMongoIssuerRepo(db *mongo.Database) *MongoIssuerRepo {
	return &MongoIssuerRepo{DB: db}
}

func (r *MongoIssuerRepo) SaveIssuer(ctx context.Context, issuer *models.Issuer) error {
	if issuer.CreatedAt.IsZero() {
		issuer.CreatedAt = time.Now().UTC()
	}
	if issuer.ID == 0 {
		id, err := nextID(ctx, r.DB, issuerCollection)
		if err != nil {
			return err
		}
		issuer.ID = id
	}

	_, err := r.DB.Collection(issuerCollection).ReplaceOne(ctx,
		bson.M{"_id": issuer.ID}, issuer, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoIssuerRepo) GetIssuer(ctx context.Context) (*models.Issuer, error) {
	var issuer models.Issuer
	err := r.DB.Collection(issuerCollection).
		FindOne(ctx, bson.M{}, options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}})).
		Decode(&issuer)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &issuer, nil
}
