// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"featherpress/internal/middleware"
	"featherpress/internal/models"
	"featherpress/internal/site"
	"featherpress/internal/store"
)

// Site groups the site-info and settings HTTP handlers.
type Site struct {
	site  *site.Service
	users *store.UserStore
}

// NewSite creates a new Site handler group.
func NewSite(siteSvc *site.Service, users *store.UserStore) *Site {
	return &Site{site: siteSvc, users: users}
}

// Info handles GET /site/info: blog title, enabled extensions, settings,
// and the current user (null when unauthenticated). Clients call this
// once at boot.
func (h *Site) Info(w http.ResponseWriter, r *http.Request) {
	var user *models.User
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		u, err := h.users.FindByID(sess.UserID)
		if err != nil {
			slog.Error("site info user lookup failed", "error", err)
		} else {
			user = u
		}
	}
	writeJSON(w, http.StatusOK, h.site.Info(user))
}

// SetExtension handles PUT /site/extension/{name}: toggles one of the
// known extensions (comments, likes, views, tags) on or off.
func (h *Site) SetExtension(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if !models.KnownExtension(name) {
		writeError(w, http.StatusNotFound, "Unknown extension.")
		return
	}

	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.site.SetExtension(name, req.Enabled); err != nil {
		slog.Error("extension toggle failed", "extension", name, "error", err)
		writeError(w, http.StatusInternalServerError, "Could not update the extension.")
		return
	}

	slog.Info("extension toggled", "extension", name, "enabled", req.Enabled)
	writeJSON(w, http.StatusOK, h.site.Info(nil))
}

// UpdateSettings handles PATCH /site/settings: partial update of the
// toggleable settings; absent fields stay untouched.
func (h *Site) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update site.SettingsUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if err := h.site.UpdateSettings(update); err != nil {
		slog.Error("settings update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not update settings.")
		return
	}

	writeJSON(w, http.StatusOK, h.site.Info(nil))
}
