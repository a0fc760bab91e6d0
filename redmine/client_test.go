package redmine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/projects.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"projects":[{"id":5,"name":"Website","identifier":"website"}],"total_count":1}`))
	})
	mux.HandleFunc("/projects/5.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"project":{"id":5,"name":"Website","identifier":"website"}}`))
	})
	mux.HandleFunc("/projects/5/memberships.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"memberships":[
			{"id":1,"project":{"id":5,"name":"Website"},"user":{"id":3,"name":"Jane Doe"},"roles":[{"id":4,"name":"Customer"}]},
			{"id":2,"project":{"id":5,"name":"Website"},"group":{"id":9,"name":"Staff"},"roles":[]}
		]}`))
	})
	mux.HandleFunc("/users/3.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "custom_fields", r.URL.Query().Get("include"))
		w.Write([]byte(`{"user":{"id":3,"login":"jdoe","firstname":"Jane","lastname":"Doe","mail":"jane@example.com",
			"custom_fields":[{"id":1,"name":"Company","value":"Acme"}]}}`))
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Redmine-API-Key") != "secret" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL+"/", "secret")
	ctx := context.Background()

	projects, err := c.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "Website", projects[0].Name)

	p, err := c.GetProject(ctx, "5")
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)

	u, err := c.GetUser(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", u.Name())
	require.Len(t, u.CustomFields, 1)
	assert.JSONEq(t, `"Acme"`, string(u.CustomFields[0].Value))

	members, err := c.ListMemberships(ctx, "5")
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, []NamedRef{{ID: 3, Name: "Jane Doe"}}, Customers(members))
}

func TestClientErrors(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	_, err := NewClient(srv.URL, "wrong").ListProjects(ctx)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)

	_, err = NewClient(srv.URL, "secret").GetUser(ctx, 404)
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	assert.False(t, NewClient("", "").Configured())
	assert.True(t, NewClient(srv.URL, "").Configured())
}
