package routes

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"upbilling/handlers"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Quote     *handlers.QuoteHandler
	Invoice   *handlers.InvoiceHandler
	PDF       *handlers.PDFHandler
	Directory *handlers.DirectoryHandler
	Issuer    *handlers.IssuerHandler
	User      *handlers.UserHandler
}

// CORS middleware
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		// Handle preflight request
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withRequestLog tags every request with an id and logs its outcome.
func withRequestLog(log *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r)
			log.Info("request",
				zap.String("request_id", id),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}

// NewRouter wires every route. auth may be nil, in which case no credentials are required.
func NewRouter(h Handlers, log *zap.Logger, auth func(http.Handler) http.Handler) http.Handler {
	r := mux.NewRouter()
	r.StrictSlash(true)

	r.Handle("/", http.RedirectHandler("/quote/", http.StatusFound)).Methods(http.MethodGet)

	// Quotes
	r.HandleFunc("/quote/", h.Quote.Index).Methods(http.MethodGet)
	r.HandleFunc("/quote/new", h.Quote.New).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/quote/customer-info/{userId:[0-9]+}", h.Directory.CustomerInfo).Methods(http.MethodGet)
	r.HandleFunc("/quote/customer-list/{projectId}", h.Directory.CustomerList).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}", h.Quote.Show).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}", h.Quote.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/quote/{id:[0-9]+}/edit", h.Quote.Edit).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/quote/{id:[0-9]+}/mark/{state}", h.Quote.Mark).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}/pdf", h.PDF.QuotePDF).Methods(http.MethodGet)
	r.HandleFunc("/quote/{id:[0-9]+}/delete", h.Quote.Delete).Methods(http.MethodPost)

	// Invoices
	r.HandleFunc("/invoice/", h.Invoice.Index).Methods(http.MethodGet)
	r.HandleFunc("/invoice/new", h.Invoice.New).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/invoice/{id:[0-9]+}", h.Invoice.Show).Methods(http.MethodGet)
	r.HandleFunc("/invoice/{id:[0-9]+}", h.Invoice.Delete).Methods(http.MethodDelete)
	r.HandleFunc("/invoice/{id:[0-9]+}/edit", h.Invoice.Edit).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc("/invoice/{id:[0-9]+}/mark/{state}", h.Invoice.Mark).Methods(http.MethodGet)
	r.HandleFunc("/invoice/{id:[0-9]+}/pdf", h.PDF.InvoicePDF).Methods(http.MethodGet)
	r.HandleFunc("/invoice/{id:[0-9]+}/delete", h.Invoice.Delete).Methods(http.MethodPost)

	// Settings and accounts
	r.HandleFunc("/issuer", h.Issuer.GetIssuer).Methods(http.MethodGet)
	r.HandleFunc("/issuer", h.Issuer.SaveIssuer).Methods(http.MethodPost)
	r.HandleFunc("/signup", h.User.Signup).Methods(http.MethodPost)
	r.HandleFunc("/login", h.User.Login).Methods(http.MethodPost)

	var handler http.Handler = r
	if auth != nil {
		handler = auth(handler)
	}
	handler = withCORS(handler)
	handler = handlers.RecoverWrapper(log, handler)
	return withRequestLog(log)(handler)
}
