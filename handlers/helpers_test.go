package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"upbilling/forms"
	"upbilling/models"
	"upbilling/redmine"
	"upbilling/repository"
	"upbilling/templates"
	"upbilling/utils"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type fakeDirectory struct {
	projects    []redmine.Project
	users       map[int64]*redmine.User
	memberships []redmine.Membership
	err         error
}

func (d *fakeDirectory) ListProjects(context.Context) ([]redmine.Project, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.projects, nil
}

func (d *fakeDirectory) GetProject(_ context.Context, id string) (*redmine.Project, error) {
	if d.err != nil {
		return nil, d.err
	}
	for i := range d.projects {
		if fmt.Sprint(d.projects[i].ID) == id || d.projects[i].Identifier == id {
			return &d.projects[i], nil
		}
	}
	return nil, &redmine.APIError{Status: http.StatusNotFound, Path: "/projects/" + id + ".json"}
}

func (d *fakeDirectory) GetUser(_ context.Context, id int64) (*redmine.User, error) {
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, &redmine.APIError{Status: http.StatusNotFound, Path: fmt.Sprintf("/users/%d.json", id)}
}

func (d *fakeDirectory) ListMemberships(context.Context, string) ([]redmine.Membership, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.memberships, nil
}

func sampleDirectory() *fakeDirectory {
	return &fakeDirectory{
		projects: []redmine.Project{{ID: 5, Name: "Website", Identifier: "website"}},
		users:    map[int64]*redmine.User{3: {ID: 3, Firstname: "Jane", Lastname: "Doe"}},
		memberships: []redmine.Membership{
			{ID: 1, Project: redmine.NamedRef{ID: 5, Name: "Website"}, User: &redmine.NamedRef{ID: 3, Name: "Jane Doe"}},
			{ID: 2, Project: redmine.NamedRef{ID: 5, Name: "Website"}, Group: &redmine.NamedRef{ID: 9, Name: "Staff"}},
		},
	}
}

type fakeRenderer struct {
	docs []utils.Document
	err  error
}

func (f *fakeRenderer) Render(_ context.Context, doc utils.Document) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, doc)
	return []byte("%PDF-1.4 fake"), nil
}

type fakeArchiver struct {
	uploaded map[string][]byte
	err      error
}

func (f *fakeArchiver) Upload(_ context.Context, filename string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.uploaded == nil {
		f.uploaded = map[string][]byte{}
	}
	f.uploaded[filename] = data
	return "https://files.example.com/" + filename, nil
}

type testEnv struct {
	quotes    repository.QuoteRepository
	invoices  repository.InvoiceRepository
	issuer    repository.IssuerRepository
	users     repository.UserRepository
	directory *fakeDirectory
	renderer  *fakeRenderer
	archiver  *fakeArchiver
	router    *mux.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repository.NewMemoryStore()
	e := &testEnv{
		quotes:    repository.NewMemoryQuoteRepo(store),
		invoices:  repository.NewMemoryInvoiceRepo(store),
		issuer:    repository.NewMemoryIssuerRepo(store),
		users:     repository.NewMemoryUserRepo(store),
		directory: sampleDirectory(),
		renderer:  &fakeRenderer{},
		archiver:  &fakeArchiver{},
	}
	e.router = e.buildRouter(e.directory)
	return e
}

// withoutDirectory rebuilds the router as if no directory were configured.
func (e *testEnv) withoutDirectory() *testEnv {
	e.router = e.buildRouter(nil)
	return e
}

func (e *testEnv) buildRouter(dir *fakeDirectory) *mux.Router {
	var directory Directory
	if dir != nil {
		directory = dir
	}
	log := zap.NewNop()
	view := View{Templates: templates.MustLoad(), Log: log}
	now := func() time.Time { return fixedNow }

	quote := &QuoteHandler{View: view, Quotes: e.quotes, Invoices: e.invoices, Directory: directory, Now: now}
	invoice := &InvoiceHandler{View: view, Quotes: e.quotes, Invoices: e.invoices, Now: now}
	pdf := &PDFHandler{
		View:      view,
		Repo:      repository.NewPDFRepository(e.quotes, e.invoices, e.issuer),
		Directory: directory,
		Renderer:  e.renderer,
		Archiver:  e.archiver,
	}
	dirHandler := &DirectoryHandler{Directory: directory, Log: log}
	issuer := &IssuerHandler{Repo: e.issuer, Log: log}
	user := &UserHandler{Repo: e.users, Log: log}

	r := mux.NewRouter()
	r.HandleFunc("/quote/", quote.Index).Methods(http.MethodGet)
	r.HandleFunc("/quote/new", quote.New).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/quote/customer-info/{userId:[0-9]+}", dirHandler.CustomerInfo).Methods(http.MethodGet)
	r.HandleFunc("/quote/customer-list/{projectId}", dirHandler.CustomerList).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}", quote.Show).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}", quote.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/quote/{id:[0-9]+}/edit", quote.Edit).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/quote/{id:[0-9]+}/mark/{state}", quote.Mark).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}/pdf", pdf.QuotePDF).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}/delete", quote.Delete).Methods(http.MethodPost)
	r.HandleFunc("/invoice/", invoice.Index).Methods(http.MethodGet)
	r.HandleFunc("/invoice/new", invoice.New).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/invoice/{id:[0-9]+}", invoice.Show).Methods(http.MethodGet)
	r.HandleFunc("/invoice/{id:[0-9]+}/edit", invoice.Edit).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/invoice/{id:[0-9]+}/mark/{state}", invoice.Mark).Methods(http.MethodGet)
	r.HandleFunc("/invoice/{id:[0-9]+}/pdf", pdf.InvoicePDF).Methods(http.MethodGet)
	r.HandleFunc("/invoice/{id:[0-9]+}/delete", invoice.Delete).Methods(http.MethodPost)
	r.HandleFunc("/issuer", issuer.GetIssuer).Methods(http.MethodGet)
	r.HandleFunc("/issuer", issuer.SaveIssuer).Methods(http.MethodPost)
	r.HandleFunc("/signup", user.Signup).Methods(http.MethodPost)
	r.HandleFunc("/login", user.Login).Methods(http.MethodPost)
	return r
}

func (e *testEnv) do(method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	switch {
	case strings.HasPrefix(body, "{"):
		req.Header.Set("Content-Type", "application/json")
	case body != "":
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	return e.do(http.MethodGet, target, "")
}

func (e *testEnv) post(target string, values url.Values) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, target, values.Encode())
}

// seedQuote stores a quote for customer 3 and project 5 worth 1000.
func (e *testEnv) seedQuote(t *testing.T, state models.QuoteState) *models.Quote {
	t.Helper()
	q := &models.Quote{
		CustomerID:  3,
		ProjectID:   5,
		Description: "Website redesign",
		Sections: []models.Section{{Title: "Design", Items: []models.Item{
			{Label: "Mockups", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(500)},
		}}},
	}
	forms.ApplyNew(q, fixedNow)
	q.State = state
	require.NoError(t, e.quotes.CreateQuote(context.Background(), q))
	return q
}

// seedInvoice bills pct percent of q through the same two-phase create the handler uses.
func (e *testEnv) seedInvoice(t *testing.T, q *models.Quote, pct int64, state models.InvoiceState) *models.Invoice {
	t.Helper()
	inv := &models.Invoice{QuoteID: q.ID, State: state, Percentage: decimal.NewFromInt(pct), BillingDate: fixedNow}
	inv.ComputeAmount(q)
	derive := func(inv *models.Invoice) error { return inv.UpdateTitle(q.Title) }
	require.NoError(t, e.invoices.CreateInvoice(context.Background(), inv, derive))
	return inv
}

func quoteValues() url.Values {
	return url.Values{
		"customer_id":                       {"3"},
		"project_id":                        {"5"},
		"description":                       {"Website redesign"},
		"sections[0][title]":                {"Design"},
		"sections[0][items][0][label]":      {"Mockups"},
		"sections[0][items][0][quantity]":   {"2"},
		"sections[0][items][0][unit_price]": {"500"},
	}
}

var errDirectoryDown = errors.New("connection refused")
