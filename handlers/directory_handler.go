package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"upbilling/forms"
	"upbilling/models"
	"upbilling/redmine"
)

// Directory looks up customers and projects in the project tracker.
type Directory interface {
	ListProjects(ctx context.Context) ([]redmine.Project, error)
	GetProject(ctx context.Context, id string) (*redmine.Project, error)
	GetUser(ctx context.Context, id int64) (*redmine.User, error)
	ListMemberships(ctx context.Context, projectID string) ([]redmine.Membership, error)
}

var errNoDirectory = errors.New("directory service not configured")

// projectChoices returns nil when the directory is unavailable so the form falls back to identifiers.
func projectChoices(ctx context.Context, dir Directory, log *zap.Logger) []forms.Choice {
	if dir == nil {
		return nil
	}
	projects, err := dir.ListProjects(ctx)
	if err != nil {
		log.Warn("project listing unavailable, using identifier fields", zap.Error(err))
		return nil
	}
	choices := make([]forms.Choice, 0, len(projects))
	for _, p := range projects {
		choices = append(choices, forms.Choice{Value: p.ID, Label: p.Name})
	}
	return choices
}

// partyNames resolves display names for a quote, falling back to identifiers.
func partyNames(ctx context.Context, dir Directory, log *zap.Logger, q *models.Quote) (customer, project string) {
	customer = "#" + strconv.FormatInt(q.CustomerID, 10)
	project = "#" + strconv.FormatInt(q.ProjectID, 10)
	if dir == nil {
		return customer, project
	}
	if u, err := dir.GetUser(ctx, q.CustomerID); err != nil {
		log.Warn("customer lookup failed", zap.Int64("customer_id", q.CustomerID), zap.Error(err))
	} else if name := u.Name(); name != "" {
		customer = name
	}
	if p, err := dir.GetProject(ctx, strconv.FormatInt(q.ProjectID, 10)); err != nil {
		log.Warn("project lookup failed", zap.Int64("project_id", q.ProjectID), zap.Error(err))
	} else if p.Name != "" {
		project = p.Name
	}
	return customer, project
}

type DirectoryHandler struct {
	Directory Directory
	Log       *zap.Logger
}

func (h *DirectoryHandler) upstreamError(w http.ResponseWriter, err error) {
	var apiErr *redmine.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		writeJSON(w, http.StatusNotFound, ApiResponse{Success: false, Message: "not found in directory"})
		return
	}
	h.Log.Warn("directory request failed", zap.Error(err))
	writeJSON(w, http.StatusBadGateway, ApiResponse{Success: false, Message: "directory service unavailable"})
}

// CustomerInfo returns a directory user with its custom fields.
func (h *DirectoryHandler) CustomerInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	if h.Directory == nil {
		h.upstreamError(w, errNoDirectory)
		return
	}
	user, err := h.Directory.GetUser(r.Context(), id)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// CustomerList returns the memberships of a project merged with the project itself.
func (h *DirectoryHandler) CustomerList(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]
	if h.Directory == nil {
		h.upstreamError(w, errNoDirectory)
		return
	}
	memberships, err := h.Directory.ListMemberships(r.Context(), projectID)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	project, err := h.Directory.GetProject(r.Context(), projectID)
	if err != nil {
		h.upstreamError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"memberships": memberships,
		"total_count": len(memberships),
		"project":     project,
		"customers":   redmine.Customers(memberships),
	})
}
