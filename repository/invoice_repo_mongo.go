package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"upbilling/models"
)

type MongoInvoiceRepo struct {
	DB *mongo.Database
}

func NewMongoInvoiceRepo(db *mongo.Database) *MongoInvoiceRepo {
	return &MongoInvoiceRepo{DB: db}
}

// CreateInvoice inserts the invoice, derives its title and writes it back.
// The insert is undone if the second write fails. Mongo has no foreign keys,
// so the quote is looked up first.
func (r *MongoInvoiceRepo) CreateInvoice(ctx context.Context, inv *models.Invoice, derive Deriver) error {
	if !models.InvoiceStateExists(string(inv.State)) {
		return models.ErrInvalidState
	}
	n, err := r.DB.Collection(quoteCollection).CountDocuments(ctx, bson.M{"_id": inv.QuoteID})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("quote %d: %w", inv.QuoteID, ErrNotFound)
	}
	coll := r.DB.Collection(invoiceCollection)

	insert := func() error {
		id, err := nextID(ctx, r.DB, invoiceCollection)
		if err != nil {
			return err
		}
		inv.ID = id
		_, err = coll.InsertOne(ctx, newInvoiceDoc(inv))
		return err
	}
	update := func() error {
		_, err := coll.UpdateOne(ctx, bson.M{"_id": inv.ID}, bson.M{"$set": bson.M{"title": inv.Title}})
		return err
	}

	if err := insertDeriveUpdate(inv, insert, derive, update); err != nil {
		if inv.ID != 0 {
			_, _ = coll.DeleteOne(ctx, bson.M{"_id": inv.ID})
			inv.ID = 0
		}
		return err
	}
	return nil
}

func (r *MongoInvoiceRepo) UpdateInvoice(ctx context.Context, inv *models.Invoice) error {
	if !models.InvoiceStateExists(string(inv.State)) {
		return models.ErrInvalidState
	}
	doc := newInvoiceDoc(inv)
	res, err := r.DB.Collection(invoiceCollection).UpdateOne(ctx,
		bson.M{"_id": inv.ID},
		bson.M{"$set": bson.M{
			"quote_id":    doc.QuoteID,
			"title":       doc.Title,
			"state":       doc.State,
			"percentage":  doc.Percentage,
			"is_optional": doc.IsOptional,
			"amount":      doc.Amount,
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("invoice %d: %w", inv.ID, ErrNotFound)
	}
	return nil
}

func (r *MongoInvoiceRepo) GetInvoice(ctx context.Context, id int64) (*models.Invoice, error) {
	var doc invoiceDoc
	err := r.DB.Collection(invoiceCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	inv := doc.model()
	if err := r.attachQuotes(ctx, []*models.Invoice{&inv}); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *MongoInvoiceRepo) ListInvoices(ctx context.Context) ([]*models.Invoice, error) {
	cur, err := r.DB.Collection(invoiceCollection).Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "billing_date", Value: -1}, {Key: "_id", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*models.Invoice
	for cur.Next(ctx) {
		var doc invoiceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		inv := doc.model()
		out = append(out, &inv)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if err := r.attachQuotes(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachQuotes loads the referenced quotes in one query.
func (r *MongoInvoiceRepo) attachQuotes(ctx context.Context, invoices []*models.Invoice) error {
	if len(invoices) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(invoices))
	for _, inv := range invoices {
		ids = append(ids, inv.QuoteID)
	}
	cur, err := r.DB.Collection(quoteCollection).Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return err
	}
	quotes, err := decodeQuotes(ctx, cur)
	if err != nil {
		return err
	}
	byID := make(map[int64]*models.Quote, len(quotes))
	for _, q := range quotes {
		byID[q.ID] = q
	}
	for _, inv := range invoices {
		inv.Quote = byID[inv.QuoteID]
	}
	return nil
}

func (r *MongoInvoiceRepo) ListInvoicesByQuote(ctx context.Context, quoteID int64) ([]models.Invoice, error) {
	cur, err := r.DB.Collection(invoiceCollection).Find(ctx, bson.M{"quote_id": quoteID},
		options.Find().SetSort(bson.D{{Key: "billing_date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Invoice
	for cur.Next(ctx) {
		var doc invoiceDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.model())
	}
	return out, cur.Err()
}

func (r *MongoInvoiceRepo) AmountByState(ctx context.Context) (models.AmountByState, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"state": "$state", "optional": "$is_optional"},
			"total": bson.M{"$sum": "$amount"},
		}}},
	}
	cur, err := r.DB.Collection(invoiceCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := models.NewAmountByState()
	for cur.Next(ctx) {
		var row struct {
			ID struct {
				State    string `bson:"state"`
				Optional bool   `bson:"optional"`
			} `bson:"_id"`
			Total primitive.Decimal128 `bson:"total"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out.Add(models.InvoiceState(row.ID.State), models.KindOf(row.ID.Optional), fromDecimal128(row.Total))
	}
	return out, cur.Err()
}

func (r *MongoInvoiceRepo) UpdateInvoiceState(ctx context.Context, id int64, state models.InvoiceState) error {
	if !models.InvoiceStateExists(string(state)) {
		return fmt.Errorf("invoice %d: %w", id, models.ErrInvalidState)
	}
	res, err := r.DB.Collection(invoiceCollection).UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"state": string(state)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *MongoInvoiceRepo) DeleteInvoice(ctx context.Context, id int64) error {
	res, err := r.DB.Collection(invoiceCollection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	return nil
}
