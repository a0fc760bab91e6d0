package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"upbilling/models"
)

// MemoryStore keeps every aggregate in process memory. It backs DB_TYPE=memory and the tests.
// Values are copied on the way in and out so callers never share state with the store.
type MemoryStore struct {
	mu       sync.RWMutex
	quotes   map[int64]*models.Quote
	invoices map[int64]*models.Invoice
	users    map[int64]*models.AppUser
	issuer   *models.Issuer
	seq      map[string]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotes:   make(map[int64]*models.Quote),
		invoices: make(map[int64]*models.Invoice),
		users:    make(map[int64]*models.AppUser),
		seq:      make(map[string]int64),
	}
}

func (s *MemoryStore) next(name string) int64 {
	s.seq[name]++
	return s.seq[name]
}

func cloneQuote(q *models.Quote) *models.Quote {
	out := *q
	out.Invoices = nil
	out.Sections = make([]models.Section, len(q.Sections))
	for i, sec := range q.Sections {
		out.Sections[i] = sec
		out.Sections[i].Items = append([]models.Item(nil), sec.Items...)
	}
	return &out
}

func cloneInvoice(inv *models.Invoice) *models.Invoice {
	out := *inv
	out.Quote = nil
	return &out
}

// ------------------------ Quotes ------------------------

type MemoryQuoteRepo struct {
	Store *MemoryStore
}

func NewMemoryQuoteRepo(store *MemoryStore) *MemoryQuoteRepo {
	return &MemoryQuoteRepo{Store: store}
}

func (r *MemoryQuoteRepo) CreateQuote(_ context.Context, q *models.Quote) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	q.ID = r.Store.next(quoteCollection)
	q.Renumber()
	r.Store.quotes[q.ID] = cloneQuote(q)
	return nil
}

func (r *MemoryQuoteRepo) UpdateQuote(_ context.Context, q *models.Quote) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	existing, ok := r.Store.quotes[q.ID]
	if !ok {
		return fmt.Errorf("quote %d: %w", q.ID, ErrNotFound)
	}
	q.Renumber()
	stored := cloneQuote(q)
	stored.DateCreation = existing.DateCreation
	r.Store.quotes[q.ID] = stored
	return nil
}

func (r *MemoryQuoteRepo) GetQuote(_ context.Context, id int64) (*models.Quote, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	q, ok := r.Store.quotes[id]
	if !ok {
		return nil, fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	return cloneQuote(q), nil
}

func (r *MemoryQuoteRepo) ListQuotes(_ context.Context) ([]*models.Quote, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	return r.Store.sortedQuotes(func(*models.Quote) bool { return true }), nil
}

func (r *MemoryQuoteRepo) FindAvailableQuotes(_ context.Context) ([]*models.Quote, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	invoices := make([]models.Invoice, 0, len(r.Store.invoices))
	for _, inv := range r.Store.invoices {
		invoices = append(invoices, *inv)
	}
	return r.Store.sortedQuotes(func(q *models.Quote) bool { return q.IsAvailable(invoices) }), nil
}

func (s *MemoryStore) sortedQuotes(keep func(*models.Quote) bool) []*models.Quote {
	var out []*models.Quote
	for _, q := range s.quotes {
		if keep(q) {
			out = append(out, cloneQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateCreation.Equal(out[j].DateCreation) {
			return out[i].DateCreation.After(out[j].DateCreation)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (r *MemoryQuoteRepo) UpdateQuoteState(_ context.Context, id int64, state models.QuoteState) error {
	if !models.QuoteStateExists(string(state)) {
		return fmt.Errorf("quote %d: %w", id, models.ErrInvalidState)
	}
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	q, ok := r.Store.quotes[id]
	if !ok {
		return fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	q.State = state
	q.DateEdition = time.Now().UTC()
	return nil
}

func (r *MemoryQuoteRepo) UpdatePDFPath(_ context.Context, id int64, path string) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	q, ok := r.Store.quotes[id]
	if !ok {
		return fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	q.PdfPath = path
	return nil
}

func (r *MemoryQuoteRepo) DeleteQuote(_ context.Context, id int64) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	if _, ok := r.Store.quotes[id]; !ok {
		return fmt.Errorf("quote %d: %w", id, ErrNotFound)
	}
	for _, inv := range r.Store.invoices {
		if inv.QuoteID == id {
			return fmt.Errorf("quote %d: %w", id, ErrQuoteHasInvoices)
		}
	}
	delete(r.Store.quotes, id)
	return nil
}

// ------------------------ Invoices ------------------------

type MemoryInvoiceRepo struct {
	Store *MemoryStore
}

func NewMemoryInvoiceRepo(store *MemoryStore) *MemoryInvoiceRepo {
	return &MemoryInvoiceRepo{Store: store}
}

func (r *MemoryInvoiceRepo) CreateInvoice(_ context.Context, inv *models.Invoice, derive Deriver) error {
	if !models.InvoiceStateExists(string(inv.State)) {
		return models.ErrInvalidState
	}
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	if _, ok := r.Store.quotes[inv.QuoteID]; !ok {
		return fmt.Errorf("quote %d: %w", inv.QuoteID, ErrNotFound)
	}

	insert := func() error {
		inv.ID = r.Store.next(invoiceCollection)
		r.Store.invoices[inv.ID] = cloneInvoice(inv)
		return nil
	}
	update := func() error {
		r.Store.invoices[inv.ID].Title = inv.Title
		return nil
	}
	if err := insertDeriveUpdate(inv, insert, derive, update); err != nil {
		delete(r.Store.invoices, inv.ID)
		inv.ID = 0
		return err
	}
	return nil
}

func (r *MemoryInvoiceRepo) UpdateInvoice(_ context.Context, inv *models.Invoice) error {
	if !models.InvoiceStateExists(string(inv.State)) {
		return models.ErrInvalidState
	}
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	existing, ok := r.Store.invoices[inv.ID]
	if !ok {
		return fmt.Errorf("invoice %d: %w", inv.ID, ErrNotFound)
	}
	stored := cloneInvoice(inv)
	stored.BillingDate = existing.BillingDate
	r.Store.invoices[inv.ID] = stored
	return nil
}

func (r *MemoryInvoiceRepo) withQuote(inv *models.Invoice) *models.Invoice {
	out := cloneInvoice(inv)
	if q, ok := r.Store.quotes[inv.QuoteID]; ok {
		out.Quote = cloneQuote(q)
	}
	return out
}

func (r *MemoryInvoiceRepo) GetInvoice(_ context.Context, id int64) (*models.Invoice, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	inv, ok := r.Store.invoices[id]
	if !ok {
		return nil, fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	return r.withQuote(inv), nil
}

func (r *MemoryInvoiceRepo) ListInvoices(_ context.Context) ([]*models.Invoice, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	out := make([]*models.Invoice, 0, len(r.Store.invoices))
	for _, inv := range r.Store.invoices {
		out = append(out, r.withQuote(inv))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].BillingDate.Equal(out[j].BillingDate) {
			return out[i].BillingDate.After(out[j].BillingDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *MemoryInvoiceRepo) ListInvoicesByQuote(_ context.Context, quoteID int64) ([]models.Invoice, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	var out []models.Invoice
	for _, inv := range r.Store.invoices {
		if inv.QuoteID == quoteID {
			out = append(out, *cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryInvoiceRepo) AmountByState(_ context.Context) (models.AmountByState, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	invoices := make([]models.Invoice, 0, len(r.Store.invoices))
	for _, inv := range r.Store.invoices {
		invoices = append(invoices, *inv)
	}
	return models.SumByState(invoices), nil
}

func (r *MemoryInvoiceRepo) UpdateInvoiceState(_ context.Context, id int64, state models.InvoiceState) error {
	if !models.InvoiceStateExists(string(state)) {
		return fmt.Errorf("invoice %d: %w", id, models.ErrInvalidState)
	}
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	inv, ok := r.Store.invoices[id]
	if !ok {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	inv.State = state
	return nil
}

func (r *MemoryInvoiceRepo) DeleteInvoice(_ context.Context, id int64) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	if _, ok := r.Store.invoices[id]; !ok {
		return fmt.Errorf("invoice %d: %w", id, ErrNotFound)
	}
	delete(r.Store.invoices, id)
	return nil
}

// ------------------------ Issuer ------------------------

type MemoryIssuerRepo struct {
	Store *MemoryStore
}

func NewMemoryIssuerRepo(store *MemoryStore) *MemoryIssuerRepo {
	return &MemoryIssuerRepo{Store: store}
}

func (r *MemoryIssuerRepo) SaveIssuer(_ context.Context, issuer *models.Issuer) error {
	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()

	if issuer.CreatedAt.IsZero() {
		issuer.CreatedAt = time.Now().UTC()
	}
	if issuer.ID == 0 {
		issuer.ID = r.Store.next(issuerCollection)
	}
	stored := *issuer
	stored.Contacts = append([]models.ContactEntry(nil), issuer.Contacts...)
	r.Store.issuer = &stored
	return nil
}

func (r *MemoryIssuerRepo) GetIssuer(_ context.Context) (*models.Issuer, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	if r.Store.issuer == nil {
		return nil, nil
	}
	out := *r.Store.issuer
	out.Contacts = append([]models.ContactEntry(nil), r.Store.issuer.Contacts...)
	return &out, nil
}

// ------------------------ Users ------------------------

type MemoryUserRepo struct {
	Store *MemoryStore
}

func NewMemoryUserRepo(store *MemoryStore) *MemoryUserRepo {
	return &MemoryUserRepo{Store: store}
}

// CreateUser hashes outside the lock, then checks the email and inserts under one write lock.
func (r *MemoryUserRepo) CreateUser(_ context.Context, user *models.AppUser) error {
	if err := prepareUser(user); err != nil {
		return err
	}

	r.Store.mu.Lock()
	defer r.Store.mu.Unlock()
	if r.byEmail(user.Email) != nil {
		return ErrEmailTaken
	}
	user.ID = r.Store.next(userCollection)
	stored := *user
	r.Store.users[user.ID] = &stored
	return nil
}

func (r *MemoryUserRepo) GetUserByEmail(_ context.Context, email string) (*models.AppUser, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()

	u := r.byEmail(strings.ToLower(strings.TrimSpace(email)))
	if u == nil {
		return nil, nil
	}
	out := *u
	return &out, nil
}

// byEmail expects the store lock to be held.
func (r *MemoryUserRepo) byEmail(email string) *models.AppUser {
	for _, u := range r.Store.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *MemoryUserRepo) CountUsers(_ context.Context) (int64, error) {
	r.Store.mu.RLock()
	defer r.Store.mu.RUnlock()
	return int64(len(r.Store.users)), nil
}
