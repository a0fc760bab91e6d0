package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"upbilling/forms"
	"upbilling/repository"
)

type UserHandler struct {
	Repo repository.UserRepository
	Log  *zap.Logger
}

// Signup handler
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var form forms.SignupForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Invalid request payload: " + err.Error(),
		})
		return
	}
	violations, err := forms.Check(&form)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{Success: false, Message: err.Error()})
		return
	}
	if !violations.Empty() {
		writeJSON(w, http.StatusUnprocessableEntity, ApiResponse{
			Success: false,
			Message: "Invalid signup",
			Data:    violations,
		})
		return
	}

	user := form.User()
	if err := h.Repo.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			writeJSON(w, http.StatusConflict, ApiResponse{
				Success: false,
				Message: "Email already registered",
			})
			return
		}
		h.Log.Error("create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ApiResponse{
			Success: false,
			Message: "Failed to create user",
		})
		return
	}

	user.Password = "" // hide password hash

	writeJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "User signed up successfully",
		Data:    user,
	})
}

// Login handler
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var form forms.LoginForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSON(w, http.StatusBadRequest, ApiResponse{
			Success: false,
			Message: "Invalid request payload: " + err.Error(),
		})
		return
	}
	if violations, err := forms.Check(&form); err != nil || !violations.Empty() {
		writeJSON(w, http.StatusUnauthorized, ApiResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	}

	user, err := h.Repo.GetUserByEmail(r.Context(), form.Email)
	if err != nil {
		h.Log.Error("load user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, ApiResponse{Success: false, Message: "Login failed"})
		return
	}
	if user == nil || !repository.CheckPassword(user, form.Password) {
		writeJSON(w, http.StatusUnauthorized, ApiResponse{
			Success: false,
			Message: "Invalid email or password",
		})
		return
	}

	user.Password = "" // hide password hash

	writeJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "Login successful",
		Data:    user,
	})
}
