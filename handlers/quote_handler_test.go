package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upbilling/models"
	"upbilling/repository"
)

func TestQuoteNewFormListsProjects(t *testing.T) {
	e := newTestEnv(t)

	rec := e.get("/quote/new")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<select name="project_id">`)
	assert.Contains(t, body, "Website")
	assert.Contains(t, body, `name="customer_id"`)
	assert.NotContains(t, body, "unreachable")
}

func TestQuoteNewFormFallsBackWhenDirectoryFails(t *testing.T) {
	e := newTestEnv(t)
	e.directory.err = errDirectoryDown

	rec := e.get("/quote/new")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<input type="text" name="project_id"`)
	assert.Contains(t, rec.Body.String(), "unreachable")

	values := quoteValues()
	values.Set("project_id", "42")
	rec = e.post("/quote/new", values)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	q, err := e.quotes.GetQuote(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), q.ProjectID)
}

func TestQuoteCreateAndShow(t *testing.T) {
	e := newTestEnv(t)

	rec := e.post("/quote/new", quoteValues())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/quote/1", rec.Header().Get("Location"))

	q, err := e.quotes.GetQuote(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "2026-3-5-0", q.Title)
	assert.Equal(t, models.QuoteDraft, q.State)
	assert.Equal(t, models.PdfPathPending, q.PdfPath)
	assert.Equal(t, fixedNow, q.DateCreation)
	assert.True(t, decimal.NewFromInt(1000).Equal(q.Total()))

	rec = e.get("/quote/1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Quote 2026-3-5-0")
	assert.Contains(t, body, "Jane Doe")
	assert.Contains(t, body, "Website")
	assert.Contains(t, body, "1000.00")
	assert.Contains(t, body, "No invoices.")
}

func TestQuoteShowWithoutDirectoryUsesIdentifiers(t *testing.T) {
	e := newTestEnv(t).withoutDirectory()
	e.seedQuote(t, models.QuoteDraft)

	rec := e.get("/quote/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "#3")
	assert.Contains(t, rec.Body.String(), "#5")
}

func TestQuoteCreateRejectsInvalidInput(t *testing.T) {
	e := newTestEnv(t)
	values := quoteValues()
	values.Set("sections[0][items][0][quantity]", "two")
	values.Set("project_id", "99")

	rec := e.post("/quote/new", values)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_number")
	assert.Contains(t, rec.Body.String(), "invalid_choice")
	// the submitted text is kept for correction
	assert.Contains(t, rec.Body.String(), `value="two"`)

	quotes, err := e.quotes.ListQuotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestQuoteCreateRejectsUnstorableAmounts(t *testing.T) {
	e := newTestEnv(t)
	values := quoteValues()
	values.Set("sections[0][items][0][unit_price]", "99999999999999")
	values.Set("sections[0][items][0][quantity]", "0.0004")

	rec := e.post("/quote/new", values)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "out_of_range")
	assert.Contains(t, rec.Body.String(), "invalid_number")

	quotes, err := e.quotes.ListQuotes(context.Background())
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestQuoteIndexNewestFirst(t *testing.T) {
	e := newTestEnv(t)
	e.seedQuote(t, models.QuoteDraft)
	e.seedQuote(t, models.QuoteSent)

	rec := e.get("/quote/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Less(t, strings.Index(body, `href="/quote/2"`), strings.Index(body, `href="/quote/1"`))
}

func TestQuoteEditIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	seeded := e.seedQuote(t, models.QuoteAccepted)

	rec := e.get("/quote/1/edit")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Edit 2026-3-5-0")
	assert.Contains(t, rec.Body.String(), `value="Mockups"`)

	rec = e.post("/quote/1/edit", quoteValues())
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/quote/1/edit", rec.Header().Get("Location"))

	stored, err := e.quotes.GetQuote(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, seeded.Title, stored.Title)
	assert.Equal(t, seeded.State, stored.State)
	assert.Equal(t, seeded.PdfPath, stored.PdfPath)
	assert.Equal(t, seeded.Description, stored.Description)
	require.Len(t, stored.Sections, 1)
	assert.True(t, seeded.Total().Equal(stored.Total()))
}

func TestQuoteEditUnknown(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, e.get("/quote/7/edit").Code)
	assert.Equal(t, http.StatusNotFound, e.get("/quote/7").Code)
}

func TestQuoteMark(t *testing.T) {
	e := newTestEnv(t)
	e.seedQuote(t, models.QuoteDraft)

	rec := e.get("/quote/1/mark/accepted")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	q, err := e.quotes.GetQuote(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteAccepted, q.State)

	for _, bad := range []string{"Accepted", "paid", "archived"} {
		assert.Equal(t, http.StatusNotFound, e.get("/quote/1/mark/"+bad).Code, bad)
	}
	q, err = e.quotes.GetQuote(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteAccepted, q.State)

	assert.Equal(t, http.StatusNotFound, e.get("/quote/9/mark/sent").Code)
}

func TestQuoteDelete(t *testing.T) {
	e := newTestEnv(t)
	billed := e.seedQuote(t, models.QuoteAccepted)
	e.seedInvoice(t, billed, 30, models.InvoiceDraft)
	e.seedQuote(t, models.QuoteDraft)

	rec := e.do(http.MethodPost, "/quote/1/delete", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = e.do(http.MethodDelete, "/quote/2", "")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	_, err := e.quotes.GetQuote(context.Background(), 2)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPost, "/quote/2/delete", "").Code)
}
