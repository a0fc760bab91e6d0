package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"upbilling/models"
)

type MongoQuoteRepo struct {
	DB *mongo.Database
}

func NewMongoQuoteRepo(db *mongo.Database) *MongoQuoteRepo {
	return &MongoQuoteRepo{DB: db}
}

var newestFirst = bson.D{{Key: "date_creation", Value: -1}, {Key: "_id", Value: -1}}

// CreateQuote stores the quote with its sections embedded in one document
func (r *MongoQuoteRepo) CreateQuote(ctx context.Context, q *models.Quote) error {
	id, err := nextID(ctx, r.DB, quoteCollection)
	if err != nil {
		return err
	}
	q.ID = id
	_, err = r.DB.Collection(quoteCollection).InsertOne(ctx, newQuoteDoc(q))
	return err
}

func (r *MongoQuoteRepo) UpdateQuote(ctx context.Context, q *models.Quote) error {
	doc := newQuoteDoc(q)
	res, err := r.DB.Collection(quoteCollection).UpdateOne(ctx,
		bson.M{"_id": q.ID},
		bson.M{"$set": bson.M{
			"customer_id":  doc.CustomerID,
			"project_id":   doc.ProjectID,
			"title":        doc.Title,
			"description":  doc.Description,
			"date_edition": doc.DateEdition,
			"pdf_path":     doc.PdfPath,
			"state":        doc.State,
			"sections":     doc.Sections,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("quote %d: %w", q.ID, ErrNotFound)
	}
	return nil
}

func (r *MongoQuoteRepo) GetQuote(ctx context.Context, id int64) (*models.Quote, error) {
	var doc quoteDoc
	err := r.DB.Collection(quoteCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("quote %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return doc.model(), nil
}

func (r *MongoQuoteRepo) ListQuotes(ctx context.Context) ([]*models.Quote, error) {
	cur, err := r.DB.Collection(quoteCollection).Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	return decodeQuotes(ctx, cur)
}

// FindAvailableQuotes joins invoices onto accepted quotes and keeps those below 100%.
// A quote without invoices sums to zero.
func (r *MongoQuoteRepo) FindAvailableQuotes(ctx context.Context) ([]*models.Quote, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"state": string(models.QuoteAccepted)}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         invoiceCollection,
			"localField":   "_id",
			"foreignField": "quote_id",
			"as":           "invoices",
		}}},
		{{Key: "$addFields", Value: bson.M{"invoiced": bson.M{"$sum": "$invoices.percentage"}}}},
		{{Key: "$match", Value: bson.M{"invoiced": bson.M{"$lt": 100}}}},
		{{Key: "$project", Value: bson.M{"invoices": 0, "invoiced": 0}}},
		{{Key: "$sort", Value: newestFirst}},
	}
	cur, err := r.DB.Collection(quoteCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	return decodeQuotes(ctx, cur)
}

func decodeQuotes(ctx context.Context, cur *mongo.Cursor) ([]*models.Quote, error) {
	defer cur.Close(ctx)

	var out []*models.Quote
	for cur.Next(ctx) {
		var doc quoteDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cur.Err()
}

func (r *MongoQuoteRepo) UpdateQuoteState(ctx context.Context, id int64, state models.QuoteState) error {
	if !models.QuoteStateExists(string(state)) {
		return fmt.Errorf("quote %d: %w", id, models.ErrInvalidState)
	}
	return r.set(ctx, id, bson.M{"state": string(state), "date_edition": time.Now().UTC()})
}

func (r *MongoQuoteRepo) UpdatePDFPath(ctx context.Context, id int64, path string) error {
	return r.set(ctx, id, bson.M{"pdf_path": path})
}

func (r *MongoQuoteRepo) set(ctx context.Context, id int64, fields bson.M) error {
	res, err := r.DB.Collection(quoteCollection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MongoQuoteRepo) DeleteQuote(ctx context.Context, id int64) error {
	count, err := r.DB.Collection(invoiceCollection).CountDocuments(ctx, bson.M{"quote_id": id})
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("quote %d: %w", id, ErrQuoteHasInvoices)
	}

	res, err := r.DB.Collection(quoteCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	return nil
}
