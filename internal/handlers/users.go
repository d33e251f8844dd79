// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"featherpress/internal/middleware"
	"featherpress/internal/models"
	"featherpress/internal/store"
)

// Users groups the admin user-management HTTP handlers. The whole group
// is admin-gated in the router.
type Users struct {
	users *store.UserStore
}

// NewUsers creates a new Users handler group.
func NewUsers(users *store.UserStore) *Users {
	return &Users{users: users}
}

// List handles GET /users.
func (h *Users) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List()
	if err != nil {
		slog.Error("user list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load users.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": users})
}

type createUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

// Create handles POST /users.
func (h *Users) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if msg := validateNewUser(req.Username, req.Email, req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	role := models.Role(req.Role)
	if req.Role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) {
		writeError(w, http.StatusBadRequest, "Unknown role.")
		return
	}

	if existing, err := h.users.FindByUsername(req.Username); err != nil {
		slog.Error("user lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "That username is taken.")
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	user, err := h.users.Create(req.Username, req.Email, req.Password, displayName, role)
	if err != nil {
		slog.Error("user create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not create the user.")
		return
	}

	slog.Info("user created", "user", user.Username, "role", user.Role)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// UpdateRole handles PUT /users/{id}/role. Admins cannot demote
// themselves, which keeps at least one admin reachable.
func (h *Users) UpdateRole(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}
	if id == sess.UserID {
		writeError(w, http.StatusBadRequest, "You cannot change your own role.")
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	role := models.Role(req.Role)
	if !models.ValidRole(role) {
		writeError(w, http.StatusBadRequest, "Unknown role.")
		return
	}

	if err := h.users.UpdateRole(id, role); err != nil {
		slog.Error("role update failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not update the role.")
		return
	}

	slog.Info("role updated", "id", id, "role", role)
	writeJSON(w, http.StatusOK, map[string]string{"role": string(role)})
}

// ResetTwoFA handles POST /users/{id}/2fa/reset: clears a user's TOTP
// enrollment so a locked-out user can log in with their password again.
func (h *Users) ResetTwoFA(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}

	user, err := h.users.FindByID(id)
	if err != nil {
		slog.Error("user lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not load the user.")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found.")
		return
	}

	if err := h.users.ResetTOTP(id); err != nil {
		slog.Error("totp reset failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not reset two-factor auth.")
		return
	}

	slog.Info("two-factor auth reset", "user", user.Username)
	writeJSON(w, http.StatusOK, map[string]bool{"totp_enabled": false})
}

// Delete handles DELETE /users/{id}.
func (h *Users) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID.")
		return
	}
	if id == sess.UserID {
		writeError(w, http.StatusBadRequest, "You cannot delete your own account.")
		return
	}

	user, err := h.users.FindByID(id)
	if err != nil {
		slog.Error("user lookup failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not load the user.")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found.")
		return
	}

	if err := h.users.Delete(id); err != nil {
		slog.Error("user delete failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not delete the user.")
		return
	}

	slog.Info("user deleted", "user", user.Username)
	w.WriteHeader(http.StatusNoContent)
}
