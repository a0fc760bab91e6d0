package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"upbilling/db"
)

// storeFactory opens an empty store for one test.
type storeFactory func(t *testing.T) (QuoteRepository, InvoiceRepository)

var contracts = map[string]func(*testing.T, storeFactory){
	"CreateInvoiceDerivesTitle":          contractCreateInvoiceDerivesTitle,
	"CreateInvoiceRollsBackOnDeriveFail": contractCreateInvoiceRollsBackOnDeriveFailure,
	"CreateInvoiceRejectsInvalidState":   contractCreateInvoiceRejectsInvalidState,
	"CreateInvoiceRequiresQuote":         contractCreateInvoiceRequiresQuote,
	"CreateInvoiceRequiresDeriver":       contractCreateInvoiceRequiresDeriver,
	"AvailableQuotes":                    contractAvailableQuotes,
	"AmountByState":                      contractAmountByState,
	"UpdateQuoteIsIdempotent":            contractUpdateQuoteIsIdempotent,
	"DeleteQuote":                        contractDeleteQuote,
	"UpdateStates":                       contractUpdateStates,
}

func runContracts(t *testing.T, open storeFactory) {
	for name, fn := range contracts {
		t.Run(name, func(t *testing.T) { fn(t, open) })
	}
}

func TestMemoryStore(t *testing.T) {
	runContracts(t, func(t *testing.T) (QuoteRepository, InvoiceRepository) {
		store := NewMemoryStore()
		return NewMemoryQuoteRepo(store), NewMemoryInvoiceRepo(store)
	})
}

func TestPostgresStore(t *testing.T) {
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	require.NoError(t, db.RunMigrations(url, "file://../db/migrations", zap.NewNop()))

	conn, err := sql.Open("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	runContracts(t, func(t *testing.T) (QuoteRepository, InvoiceRepository) {
		_, err := conn.Exec(`TRUNCATE invoice, quote_item, quote_section, quote RESTART IDENTITY CASCADE`)
		require.NoError(t, err)
		return NewPostgresQuoteRepo(conn), NewPostgresInvoiceRepo(conn)
	})
}

func TestMongoStore(t *testing.T) {
	url := os.Getenv("TEST_MONGO_URL")
	if url == "" {
		t.Skip("TEST_MONGO_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	database := client.Database("upbilling_test")
	runContracts(t, func(t *testing.T) (QuoteRepository, InvoiceRepository) {
		require.NoError(t, database.Drop(context.Background()))
		return NewMongoQuoteRepo(database), NewMongoInvoiceRepo(database)
	})
}
