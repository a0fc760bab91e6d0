package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"upbilling/models"
)

const (
	quoteCollection   = "quote"
	invoiceCollection = "invoice"
	issuerCollection  = "issuer"
	userCollection    = "app_user"
	counterCollection = "counters"
)

// nextID hands out sequential identifiers per collection, like a Postgres sequence.
func nextID(ctx context.Context, db *mongo.Database, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection(counterCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	return counter.Seq, err
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

type itemDoc struct {
	Position  int                  `bson:"position"`
	Label     string               `bson:"label"`
	Quantity  primitive.Decimal128 `bson:"quantity"`
	UnitPrice primitive.Decimal128 `bson:"unit_price"`
}

type sectionDoc struct {
	Position int       `bson:"position"`
	Title    string    `bson:"title"`
	Items    []itemDoc `bson:"items"`
}

type quoteDoc struct {
	ID           int64        `bson:"_id"`
	CustomerID   int64        `bson:"customer_id"`
	ProjectID    int64        `bson:"project_id"`
	Title        string       `bson:"title"`
	Description  string       `bson:"description"`
	DateCreation time.Time    `bson:"date_creation"`
	DateEdition  time.Time    `bson:"date_edition"`
	PdfPath      string       `bson:"pdf_path"`
	State        string       `bson:"state"`
	Sections     []sectionDoc `bson:"sections"`
}

func newQuoteDoc(q *models.Quote) quoteDoc {
	q.Renumber()
	doc := quoteDoc{
		ID:           q.ID,
		CustomerID:   q.CustomerID,
		ProjectID:    q.ProjectID,
		Title:        q.Title,
		Description:  q.Description,
		DateCreation: q.DateCreation,
		DateEdition:  q.DateEdition,
		PdfPath:      q.PdfPath,
		State:        string(q.State),
		Sections:     make([]sectionDoc, 0, len(q.Sections)),
	}
	for _, s := range q.Sections {
		sd := sectionDoc{Position: s.Position, Title: s.Title, Items: make([]itemDoc, 0, len(s.Items))}
		for _, it := range s.Items {
			sd.Items = append(sd.Items, itemDoc{
				Position:  it.Position,
				Label:     it.Label,
				Quantity:  toDecimal128(it.Quantity),
				UnitPrice: toDecimal128(it.UnitPrice),
			})
		}
		doc.Sections = append(doc.Sections, sd)
	}
	return doc
}

func (d quoteDoc) model() *models.Quote {
	q := &models.Quote{
		ID:           d.ID,
		CustomerID:   d.CustomerID,
		ProjectID:    d.ProjectID,
		Title:        d.Title,
		Description:  d.Description,
		DateCreation: d.DateCreation,
		DateEdition:  d.DateEdition,
		PdfPath:      d.PdfPath,
		State:        models.QuoteState(d.State),
	}
	for _, sd := range d.Sections {
		s := models.Section{Position: sd.Position, Title: sd.Title}
		for _, it := range sd.Items {
			s.Items = append(s.Items, models.Item{
				Position:  it.Position,
				Label:     it.Label,
				Quantity:  fromDecimal128(it.Quantity),
				UnitPrice: fromDecimal128(it.UnitPrice),
			})
		}
		q.Sections = append(q.Sections, s)
	}
	return q
}

type invoiceDoc struct {
	ID          int64                `bson:"_id"`
	QuoteID     int64                `bson:"quote_id"`
	Title       string               `bson:"title"`
	BillingDate time.Time            `bson:"billing_date"`
	State       string               `bson:"state"`
	Percentage  primitive.Decimal128 `bson:"percentage"`
	IsOptional  bool                 `bson:"is_optional"`
	Amount      primitive.Decimal128 `bson:"amount"`
}

func newInvoiceDoc(inv *models.Invoice) invoiceDoc {
	return invoiceDoc{
		ID:          inv.ID,
		QuoteID:     inv.QuoteID,
		Title:       inv.Title,
		BillingDate: inv.BillingDate,
		State:       string(inv.State),
		Percentage:  toDecimal128(inv.Percentage),
		IsOptional:  inv.IsOptional,
		Amount:      toDecimal128(inv.Amount),
	}
}

func (d invoiceDoc) model() models.Invoice {
	return models.Invoice{
		ID:          d.ID,
		QuoteID:     d.QuoteID,
		Title:       d.Title,
		BillingDate: d.BillingDate,
		State:       models.InvoiceState(d.State),
		Percentage:  fromDecimal128(d.Percentage),
		IsOptional:  d.IsOptional,
		Amount:      fromDecimal128(d.Amount),
	}
}
