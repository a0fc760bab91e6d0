package redmine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const listLimit = 1000

// Client talks to the Redmine REST API that holds customers and projects.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether a base URL was provided.
func (c *Client) Configured() bool {
	return c != nil && c.BaseURL != ""
}

// APIError is returned for any non-2xx answer.
type APIError struct {
	Status int
	Path   string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("redmine %s: status %d: %s", e.Path, e.Status, e.Body)
}

type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Identifier  string    `json:"identifier"`
	Description string    `json:"description,omitempty"`
	Status      int       `json:"status,omitempty"`
	Parent      *NamedRef `json:"parent,omitempty"`
}

type CustomField struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}

type User struct {
	ID           int64         `json:"id"`
	Login        string        `json:"login"`
	Firstname    string        `json:"firstname"`
	Lastname     string        `json:"lastname"`
	Mail         string        `json:"mail"`
	CustomFields []CustomField `json:"custom_fields,omitempty"`
}

// Name is the display name Redmine shows for the user.
func (u *User) Name() string {
	return strings.TrimSpace(u.Firstname + " " + u.Lastname)
}

type Membership struct {
	ID      int64      `json:"id"`
	Project NamedRef   `json:"project"`
	User    *NamedRef  `json:"user,omitempty"`
	Group   *NamedRef  `json:"group,omitempty"`
	Roles   []NamedRef `json:"roles"`
}

// Customers returns the users among the memberships; groups are skipped.
func Customers(memberships []Membership) []NamedRef {
	var out []NamedRef
	for _, m := range memberships {
		if m.User != nil {
			out = append(out, *m.User)
		}
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("X-Redmine-API-Key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("redmine %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, Path: path, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("redmine %s: decode: %w", path, err)
	}
	return nil
}

func limitQuery() url.Values {
	return url.Values{"limit": {strconv.Itoa(listLimit)}}
}

func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var body struct {
		Projects []Project `json:"projects"`
	}
	if err := c.get(ctx, "/projects.json", limitQuery(), &body); err != nil {
		return nil, err
	}
	return body.Projects, nil
}

// GetProject accepts a numeric id or a project identifier.
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var body struct {
		Project Project `json:"project"`
	}
	if err := c.get(ctx, "/projects/"+url.PathEscape(id)+".json", nil, &body); err != nil {
		return nil, err
	}
	return &body.Project, nil
}

func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	var body struct {
		User User `json:"user"`
	}
	q := url.Values{"include": {"custom_fields"}}
	if err := c.get(ctx, "/users/"+strconv.FormatInt(id, 10)+".json", q, &body); err != nil {
		return nil, err
	}
	return &body.User, nil
}

func (c *Client) ListMemberships(ctx context.Context, projectID string) ([]Membership, error) {
	var body struct {
		Memberships []Membership `json:"memberships"`
	}
	path := "/projects/" + url.PathEscape(projectID) + "/memberships.json"
	if err := c.get(ctx, path, limitQuery(), &body); err != nil {
		return nil, err
	}
	return body.Memberships, nil
}
