package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"upbilling/models"
	"upbilling/repository"
)

type userKey struct{}

// CurrentUser returns the authenticated user stored on the request context, if any.
func CurrentUser(ctx context.Context) *models.AppUser {
	u, _ := ctx.Value(userKey{}).(*models.AppUser)
	return u
}

// BasicAuth checks HTTP basic credentials against the user store.
// Paths listed in open are served without credentials.
func BasicAuth(users repository.UserRepository, log *zap.Logger, open ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(open))
	for _, p := range open {
		skip[p] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			email, password, ok := r.BasicAuth()
			if !ok {
				challenge(w)
				return
			}
			user, err := users.GetUserByEmail(r.Context(), email)
			if err != nil {
				log.Error("auth lookup failed", zap.Error(err))
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil || !repository.CheckPassword(user, password) {
				log.Warn("rejected credentials", zap.String("email", email), zap.String("path", r.URL.Path))
				challenge(w)
				return
			}
			user.Password = ""
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey{}, user)))
		})
	}
}

func challenge(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="upbilling", charset="UTF-8"`)
	http.Error(w, "unauthorized", http.StatusUnauthorized)
}
