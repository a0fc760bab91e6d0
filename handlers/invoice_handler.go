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

type InvoiceHandler struct {
	View
	Quotes   repository.QuoteRepository
	Invoices repository.InvoiceRepository
	Now      func() time.Time
}

type invoiceFormPage struct {
	Form       *forms.InvoiceForm
	Violations forms.Violations
	Invoice    *models.Invoice
	Action     string
}

type invoiceIndexPage struct {
	Invoices []*models.Invoice
	Totals   models.InvoiceTotals
}

func (h *InvoiceHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

// Index lists invoices with paid, pending and invoiced totals.
func (h *InvoiceHandler) Index(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Invoices.ListInvoices(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	sums, err := h.Invoices.AmountByState(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "invoice_index", invoiceIndexPage{Invoices: invoices, Totals: sums.Totals()})
}

// New creates an invoice against a quote that is not fully invoiced yet.
// The title depends on the assigned id, so the store inserts, derives and updates in one unit.
func (h *InvoiceHandler) New(w http.ResponseWriter, r *http.Request) {
	available, err := h.Quotes.FindAvailableQuotes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := invoiceFormPage{Action: "/invoice/new"}

	if r.Method != http.MethodPost {
		page.Form = forms.NewInvoiceForm(available)
		page.Form.QuoteID = r.URL.Query().Get("quote")
		h.render(w, r, http.StatusOK, "invoice_form", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := forms.BindInvoiceForm(r.PostForm, available)
	inv, quote, violations, err := form.Validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !violations.Empty() {
		page.Form, page.Violations = form, violations
		h.render(w, r, http.StatusUnprocessableEntity, "invoice_form", page)
		return
	}

	inv.BillingDate = h.now()
	inv.Title = ""
	inv.ComputeAmount(quote)
	derive := func(inv *models.Invoice) error { return inv.UpdateTitle(quote.Title) }
	if err := h.Invoices.CreateInvoice(r.Context(), inv, derive); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Log.Info("invoice created",
		zap.Int64("invoice_id", inv.ID),
		zap.String("title", inv.Title),
		zap.Int64("quote_id", quote.ID),
	)
	seeOther(w, r, fmt.Sprintf("/invoice/%d", inv.ID))
}

func (h *InvoiceHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	inv, err := h.Invoices.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "invoice_show", map[string]any{"Invoice": inv})
}

// Edit lets any quote be selected; the amount and title follow the selected quote.
func (h *InvoiceHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	stored, err := h.Invoices.GetInvoice(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quotes, err := h.Quotes.ListQuotes(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page := invoiceFormPage{Invoice: stored, Action: fmt.Sprintf("/invoice/%d/edit", id)}

	if r.Method != http.MethodPost {
		page.Form = forms.InvoiceFormFrom(stored, quotes)
		h.render(w, r, http.StatusOK, "invoice_form", page)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	form := forms.BindInvoiceForm(r.PostForm, quotes)
	edited, quote, violations, err := form.Validate()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !violations.Empty() {
		page.Form, page.Violations = form, violations
		h.render(w, r, http.StatusUnprocessableEntity, "invoice_form", page)
		return
	}

	stored.QuoteID = quote.ID
	stored.State = edited.State
	stored.Percentage = edited.Percentage
	stored.IsOptional = edited.IsOptional
	stored.ComputeAmount(quote)
	if err := stored.UpdateTitle(quote.Title); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.Invoices.UpdateInvoice(r.Context(), stored); err != nil {
		h.fail(w, r, err)
		return
	}
	seeOther(w, r, fmt.Sprintf("/invoice/%d", id))
}

// Mark moves an invoice to another state. Unknown states answer 404 and nothing is written.
func (h *InvoiceHandler) Mark(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	raw := mux.Vars(r)["state"]
	if !models.InvoiceStateExists(raw) {
		http.NotFound(w, r)
		return
	}
	if err := h.Invoices.UpdateInvoiceState(r.Context(), id, models.InvoiceState(raw)); err != nil {
		h.fail(w, r, err)
		return
	}
	seeOther(w, r, fmt.Sprintf("/invoice/%d", id))
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Invoices.DeleteInvoice(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	seeOther(w, r, "/invoice/")
}
