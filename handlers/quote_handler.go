package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"upbilling/forms"
	"upbilling/models"
	"upbilling/repository"
)

type QuoteHandler struct {
	View
	Quotes    repository.QuoteRepository
	Invoices  repository.InvoiceRepository
	Directory Directory
	Now       func() time.Time
}

type quoteFormPage struct {
	Form          *forms.QuoteForm
	Violations    forms.Violations
	Quote         *models.Quote
	Action        string
	DirectoryDown bool
}

type quoteShowPage struct {
	Quote        *models.Quote
	CustomerName string
	ProjectName  string
}

func (h *QuoteHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// Index lists every quote, newest first.
func (h *QuoteHandler) Index(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.Quotes.ListQuotes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "quote_index", map[string]any{"Quotes": quotes})
}

// New shows and handles the creation form. Project choices come from the directory
// when it answers; otherwise the form asks for raw identifiers.
func (h *QuoteHandler) New(w http.ResponseWriter, r *http.Request) {
	choices := projectChoices(r.Context(), h.Directory, h.Log)
	schema := forms.NewQuoteFormSchema(choices, nil)
	page := quoteFormPage{Action: "/quote/new", DirectoryDown: choices == nil && h.Directory != nil}

	if r.Method != http.MethodPost {
		page.Form = forms.NewQuoteForm(schema).WithBlankRows()
		h.render(w, r, http.StatusOK, "quote_form", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := forms.BindQuoteForm(r.PostForm, schema)
	q, violations, err := form.Validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !violations.Empty() {
		page.Form, page.Violations = form.WithBlankRows(), violations
		h.render(w, r, http.StatusUnprocessableEntity, "quote_form", page)
		return
	}

	forms.ApplyNew(q, h.now())
	if err := h.Quotes.CreateQuote(r.Context(), q); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Log.Info("quote created", zap.Int64("quote_id", q.ID), zap.String("title", q.Title))
	seeOther(w, r, fmt.Sprintf("/quote/%d", q.ID))
}

// Show displays a quote with its invoices.
func (h *QuoteHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q, err := h.Quotes.GetQuote(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if q.Invoices, err = h.Invoices.ListInvoicesByQuote(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	customer, project := partyNames(r.Context(), h.Directory, h.Log, q)
	h.render(w, r, http.StatusOK, "quote_show", quoteShowPage{Quote: q, CustomerName: customer, ProjectName: project})
}

// Edit shows and handles the edit form. Title, creation date, PDF path and state are kept.
func (h *QuoteHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stored, err := h.Quotes.GetQuote(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	schema := forms.IdentifierSchema()
	page := quoteFormPage{Quote: stored, Action: fmt.Sprintf("/quote/%d/edit", id)}

	if r.Method != http.MethodPost {
		page.Form = forms.QuoteFormFrom(stored, schema).WithBlankRows()
		h.render(w, r, http.StatusOK, "quote_form", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := forms.BindQuoteForm(r.PostForm, schema)
	edited, violations, err := form.Validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !violations.Empty() {
		page.Form, page.Violations = form.WithBlankRows(), violations
		h.render(w, r, http.StatusUnprocessableEntity, "quote_form", page)
		return
	}

	forms.ApplyEdit(stored, edited, h.now())
	if err := h.Quotes.UpdateQuote(r.Context(), stored); err != nil {
		h.fail(w, r, err)
		return
	}
	seeOther(w, r, fmt.Sprintf("/quote/%d/edit", id))
}

// Mark moves a quote to another state. Unknown states answer 404.
func (h *QuoteHandler) Mark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	state, err := models.ParseQuoteState(mux.Vars(r)["state"])
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.Quotes.UpdateQuoteState(r.Context(), id, state); err != nil {
		h.fail(w, r, err)
		return
	}
	seeOther(w, r, fmt.Sprintf("/quote/%d", id))
}

// Delete removes a quote and its sections. Quotes that still have invoices are refused.
func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Quotes.DeleteQuote(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	seeOther(w, r, "/quote/")
}
