package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"upbilling/forms"
	"upbilling/repository"
)

// IssuerHandler manages the company details printed on generated documents.
type IssuerHandler struct {
	Repo repository.IssuerRepository
	Log  *zap.Logger
}

func (h *IssuerHandler) SaveIssuer(w http.ResponseWriter, r *http.Request) {
	var form forms.IssuerForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: "Invalid request payload: " + err.Error()})
		return
	}
	violations, err := forms.Check(&form)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: err.Error()})
		return
	}
	if !violations.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, ApiResponse{Success: false, Message: "Invalid issuer", Data: violations})
		return
	}

	issuer := form.Issuer()
	if err := h.Repo.SaveIssuer(r.Context(), issuer); err != nil {
		h.Log.Error("save issuer", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ApiResponse{Success: false, Message: "Failed to save issuer"})
		return
	}
	writeJSON(w, http.StatusCreated, ApiResponse{Success: true, Message: "Issuer saved", Data: issuer})
}

func (h *IssuerHandler) GetIssuer(w http.ResponseWriter, r *http.Request) {
	issuer, err := h.Repo.GetIssuer(r.Context())
	if err != nil {
		h.Log.Error("load issuer", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ApiResponse{Success: false, Message: "Failed to load issuer"})
		return
	}
	if issuer == nil {
		writeJSON(w, http.StatusNotFound, ApiResponse{Success: false, Message: "Issuer details not found"})
		return
	}
	writeJSON(w, http.StatusOK, ApiResponse{Success: true, Data: issuer})
}
