// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"featherpress/internal/middleware"
	"featherpress/internal/models"
	"featherpress/internal/site"
	"featherpress/internal/store"
)

const (
	maxCommentLen   = 10_000
	maxGuestNameLen = 100

	defaultCommentPage = 50
	maxCommentPage     = 100
)

// Comments groups the comment HTTP handlers. Every route 404s while the
// comments extension is disabled.
type Comments struct {
	comments *store.CommentStore
	posts    *store.PostStore
	site     *site.Service
}

// NewComments creates a new Comments handler group.
func NewComments(comments *store.CommentStore, posts *store.PostStore, siteSvc *site.Service) *Comments {
	return &Comments{comments: comments, posts: posts, site: siteSvc}
}

// visiblePost resolves the {id} post for a comment route, applying the
// extension gate and the viewer's visibility. Writes the error response
// and returns nil when the route should not proceed.
func (h *Comments) visiblePost(w http.ResponseWriter, r *http.Request) *models.Post {
	if !h.site.ExtensionEnabled("comments") {
		writeError(w, http.StatusNotFound, "Comments are not enabled on this site.")
		return nil
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID.")
		return nil
	}

	p, err := h.posts.FindByID(id)
	if err != nil {
		slog.Error("post fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load the post.")
		return nil
	}

	viewerID := uuid.Nil
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		viewerID = sess.UserID
	}
	if p == nil || !p.VisibleTo(viewerID) {
		writeError(w, http.StatusNotFound, "Post not found.")
		return nil
	}
	return p
}

// List handles GET /posts/{id}/comments?limit=&offset=.
func (h *Comments) List(w http.ResponseWriter, r *http.Request) {
	p := h.visiblePost(w, r)
	if p == nil {
		return
	}

	limit := defaultCommentPage
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxCommentPage)
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	comments, err := h.comments.ListByPost(p.ID, limit, offset)
	if err != nil {
		slog.Error("comment list failed", "error", err, "post", p.ID)
		writeError(w, http.StatusInternalServerError, "Could not load comments.")
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

type commentRequest struct {
	Body       string `json:"body"`
	AuthorName string `json:"author_name"` // guests only
}

// Create handles POST /posts/{id}/comments. Registered users comment
// under their account; guests must supply a display name.
func (h *Comments) Create(w http.ResponseWriter, r *http.Request) {
	p := h.visiblePost(w, r)
	if p == nil {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "Comment text is required.")
		return
	}
	if utf8.RuneCountInString(body) > maxCommentLen {
		writeError(w, http.StatusBadRequest, "Comment is too long (max 10,000 characters).")
		return
	}

	var authorID *uuid.UUID
	guestName := strings.TrimSpace(req.AuthorName)
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		authorID = &sess.UserID
	} else {
		if guestName == "" {
			writeError(w, http.StatusBadRequest, "Guest comments need a name.")
			return
		}
		if utf8.RuneCountInString(guestName) > maxGuestNameLen {
			writeError(w, http.StatusBadRequest, "Name is too long (max 100 characters).")
			return
		}
	}

	c, err := h.comments.Create(p.ID, authorID, guestName, body)
	if err != nil {
		slog.Error("comment create failed", "error", err, "post", p.ID)
		writeError(w, http.StatusInternalServerError, "Could not save the comment.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"comment": c})
}

// resolveComment loads the {commentID} comment and checks the caller may
// manage it. Writes the error response and returns nil when not.
func (h *Comments) resolveComment(w http.ResponseWriter, r *http.Request) *models.Comment {
	if !h.site.ExtensionEnabled("comments") {
		writeError(w, http.StatusNotFound, "Comments are not enabled on this site.")
		return nil
	}

	id, err := uuid.Parse(chi.URLParam(r, "commentID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid comment ID.")
		return nil
	}

	c, err := h.comments.FindByID(id)
	if err != nil {
		slog.Error("comment fetch failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "Could not load the comment.")
		return nil
	}
	if c == nil {
		writeError(w, http.StatusNotFound, "Comment not found.")
		return nil
	}

	sess := middleware.SessionFromCtx(r.Context())
	if !c.EditableBy(sess.UserID, models.Role(sess.Role)) {
		writeError(w, http.StatusForbidden, "You may only manage your own comments.")
		return nil
	}
	return c
}

// Update handles PUT /comments/{commentID}. Author or admin only.
func (h *Comments) Update(w http.ResponseWriter, r *http.Request) {
	c := h.resolveComment(w, r)
	if c == nil {
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	body := strings.TrimSpace(req.Body)
	if body == "" {
		writeError(w, http.StatusBadRequest, "Comment text is required.")
		return
	}
	if utf8.RuneCountInString(body) > maxCommentLen {
		writeError(w, http.StatusBadRequest, "Comment is too long (max 10,000 characters).")
		return
	}

	updated, err := h.comments.UpdateBody(c.ID, body)
	if err != nil {
		slog.Error("comment update failed", "error", err, "id", c.ID)
		writeError(w, http.StatusInternalServerError, "Could not update the comment.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"comment": updated})
}

// Delete handles DELETE /comments/{commentID}. Author or admin only.
func (h *Comments) Delete(w http.ResponseWriter, r *http.Request) {
	c := h.resolveComment(w, r)
	if c == nil {
		return
	}

	if err := h.comments.Delete(c.ID); err != nil {
		slog.Error("comment delete failed", "error", err, "id", c.ID)
		writeError(w, http.StatusInternalServerError, "Could not delete the comment.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
