package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"upbilling/models"
)

const signupBody = `{"name":"Ada","email":"Ada@Example.com","role":"admin","password":"s3cret-pass"}`

func TestSignup(t *testing.T) {
	e := newTestEnv(t)

	rec := e.do(http.MethodPost, "/signup", signupBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Success bool           `json:"success"`
		Data    models.AppUser `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ada@example.com", resp.Data.Email)
	assert.Empty(t, resp.Data.Password)

	assert.Equal(t, http.StatusConflict, e.do(http.MethodPost, "/signup", signupBody).Code)

	rec = e.do(http.MethodPost, "/signup", `{"name":"Bob","email":"not-an-email","role":"owner","password":"x"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"invalid_email"`)
	assert.Contains(t, rec.Body.String(), `"role":"invalid_choice"`)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodPost, "/signup", "{").Code)
}

func TestLogin(t *testing.T) {
	e := newTestEnv(t)
	require.Equal(t, http.StatusCreated, e.do(http.MethodPost, "/signup", signupBody).Code)

	rec := e.do(http.MethodPost, "/login", `{"email":"ada@example.com","password":"s3cret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = e.do(http.MethodPost, "/login", `{"email":"ada@example.com","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = e.do(http.MethodPost, "/login", `{"email":"nobody@example.com","password":"s3cret-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBasicAuth(t *testing.T) {
	e := newTestEnv(t)
	require.NoError(t, e.users.CreateUser(context.Background(), &models.AppUser{
		Name: "Ada", Email: "ada@example.com", Role: "admin", Password: "s3cret-pass",
	}))

	var seen *models.AppUser
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = CurrentUser(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	h := BasicAuth(e.users, zap.NewNop(), "/login")(next)

	serve := func(path, user, pass string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if user != "" {
			req.SetBasicAuth(user, pass)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("/quote/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")

	assert.Equal(t, http.StatusUnauthorized, serve("/quote/", "ada@example.com", "nope").Code)

	rec = serve("/quote/", "ada@example.com", "s3cret-pass")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "ada@example.com", seen.Email)
	assert.Empty(t, seen.Password)

	seen = nil
	assert.Equal(t, http.StatusNoContent, serve("/login", "", "").Code)
	assert.Nil(t, seen)
}

func TestIssuerSettings(t *testing.T) {
	e := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, e.get("/issuer").Code)

	body := `{"company_name":"Acme Studio","address":"1 rue de la Paix","city":"Paris","postal_code":"75002",` +
		`"contacts":[{"number":"0102030405","label":"office"}]}`
	rec := e.do(http.MethodPost, "/issuer", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = e.get("/issuer")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Data models.Issuer `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Acme Studio", resp.Data.CompanyName)
	require.Len(t, resp.Data.Contacts, 1)
	assert.Equal(t, "0102030405 (office)", resp.Data.ContactLine())

	rec = e.do(http.MethodPost, "/issuer", `{"company_name":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"company_name":"required"`)
}
