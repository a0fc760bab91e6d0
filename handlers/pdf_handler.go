package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"upbilling/models"
	"upbilling/repository"
	"upbilling/utils"
)

// PDFRenderer turns an HTML document into PDF bytes.
type PDFRenderer interface {
	Render(ctx context.Context, doc utils.Document) ([]byte, error)
}

// Archiver stores a generated PDF and returns its public location.
type Archiver interface {
	Upload(ctx context.Context, filename string, data []byte) (string, error)
}

type PDFHandler struct {
	View
	Repo      *repository.PDFRepository
	Directory Directory
	Renderer  PDFRenderer
	// Archiver is optional; when nil quote PDFs are only streamed back.
	Archiver Archiver
}

// InvoicePDF streams the PDF of an invoice as an attachment named F<title>.pdf.
func (h *PDFHandler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	inv, err := h.Repo.GetInvoiceForPDF(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if inv.Quote == nil {
		h.fail(w, r, fmt.Errorf("invoice %d has no quote loaded", id))
		return
	}
	issuer, err := h.Repo.GetIssuerForPDF(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	customer, project := partyNames(ctx, h.Directory, h.Log, inv.Quote)

	body := models.InvoicePDFData{
		Issuer:       issuer,
		Invoice:      inv,
		Quote:        inv.Quote,
		CustomerName: customer,
		ProjectName:  project,
		BillingDate:  inv.BillingDate.Format("02/01/2006"),
		AmountWords:  utils.AmountToWords(inv.Amount),
	}
	pdf, err := h.renderDocument(ctx, "invoice.html", body, models.PDFFrameData{Issuer: issuer, Title: inv.Title})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePDF(w, inv.PDFFilename(), pdf)
}

// QuotePDF streams the PDF of a quote. When an archiver is configured the file
// is uploaded first and its URL recorded as the quote's PDF path.
func (h *PDFHandler) QuotePDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	ctx := r.Context()

	q, err := h.Repo.GetQuoteForPDF(ctx, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	issuer, err := h.Repo.GetIssuerForPDF(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	customer, project := partyNames(ctx, h.Directory, h.Log, q)

	body := models.QuotePDFData{
		Issuer:       issuer,
		Quote:        q,
		CustomerName: customer,
		ProjectName:  project,
		Date:         q.DateCreation.Format("02/01/2006"),
		TotalWords:   utils.AmountToWords(q.Total()),
	}
	pdf, err := h.renderDocument(ctx, "quote.html", body, models.PDFFrameData{Issuer: issuer, Title: q.Title})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filename := q.Title + ".pdf"
	if h.Archiver != nil {
		url, err := h.Archiver.Upload(ctx, filename, pdf)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		if err := h.Repo.QuoteRepo.UpdatePDFPath(ctx, q.ID, url); err != nil {
			h.fail(w, r, err)
			return
		}
		h.Log.Info("quote pdf archived", zap.Int64("quote_id", q.ID), zap.String("url", url))
	}
	writePDF(w, filename, pdf)
}

func (h *PDFHandler) renderDocument(ctx context.Context, page string, body any, frame models.PDFFrameData) ([]byte, error) {
	var doc, header, footer bytes.Buffer
	if err := h.Templates.Document(&doc, page, body); err != nil {
		return nil, err
	}
	if err := h.Templates.Document(&header, "header.html", frame); err != nil {
		return nil, err
	}
	frame.Footer = true
	if err := h.Templates.Document(&footer, "footer.html", frame); err != nil {
		return nil, err
	}
	return h.Renderer.Render(ctx, utils.Document{
		Body:   doc.String(),
		Header: header.String(),
		Footer: footer.String(),
	})
}

func writePDF(w http.ResponseWriter, filename string, pdf []byte) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
