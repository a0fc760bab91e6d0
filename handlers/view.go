package handlers

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"upbilling/models"
	"upbilling/repository"
	"upbilling/templates"
)

// View renders HTML pages and turns errors into responses.
type View struct {
	Templates *templates.Set
	Log       *zap.Logger
}

func (v View) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	var buf bytes.Buffer
	if err := v.Templates.Page(&buf, page, data); err != nil {
		v.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// fail maps domain errors to status codes; anything unexpected is logged and answered with 500.
func (v View) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, models.ErrInvalidState):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, repository.ErrQuoteHasInvoices):
		http.Error(w, "quote still has invoices", http.StatusConflict)
	default:
		v.Log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func seeOther(w http.ResponseWriter, r *http.Request, url string) {
	http.Redirect(w, r, url, http.StatusSeeOther)
}

// pathID reads a numeric route variable and answers 404 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}
