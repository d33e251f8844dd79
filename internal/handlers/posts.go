// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"featherpress/internal/cache"
	"featherpress/internal/editor"
	"featherpress/internal/feather"
	"featherpress/internal/feed"
	"featherpress/internal/markdown"
	"featherpress/internal/middleware"
	"featherpress/internal/models"
	"featherpress/internal/site"
	"featherpress/internal/slug"
	"featherpress/internal/store"
)

// postService implements editor.PostService over the Postgres stores.
// Tag names carried on the post are persisted alongside the record.
type postService struct {
	posts *store.PostStore
	tags  *store.TagStore
}

// NewPostService builds the editor's post collaborator from the stores.
func NewPostService(posts *store.PostStore, tags *store.TagStore) editor.PostService {
	return &postService{posts: posts, tags: tags}
}

func (s *postService) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	created, err := s.posts.Create(p)
	if err != nil {
		return nil, err
	}
	return s.saveTags(created, p.Tags)
}

func (s *postService) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	updated, err := s.posts.Update(p)
	if err != nil {
		return nil, err
	}
	return s.saveTags(updated, p.Tags)
}

func (s *postService) saveTags(p *models.Post, tags []models.Tag) (*models.Post, error) {
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	if err := s.tags.SetPostTags(p.ID, names); err != nil {
		return nil, err
	}
	return s.posts.FindByID(p.ID)
}

// postView is a post as served to clients, with the optionally rendered
// HTML body when markdown is enabled.
type postView struct {
	models.Post
	ContentHTML *string `json:"content_html,omitempty"`
}

// Posts groups the post HTTP handlers and their dependencies.
type Posts struct {
	posts     *store.PostStore
	editor    *editor.Editor
	feedCache *cache.FeedCache
	site      *site.Service
}

// NewPosts creates a new Posts handler group. The editor must be wired
// with a postService and an upload collaborator.
func NewPosts(posts *store.PostStore, ed *editor.Editor, feedCache *cache.FeedCache, siteSvc *site.Service) *Posts {
	return &Posts{posts: posts, editor: ed, feedCache: feedCache, site: siteSvc}
}

// view renders a post for output, attaching HTML when markdown is on.
func (h *Posts) view(p models.Post) postView {
	v := postView{Post: p}
	if h.site.MarkdownEnabled() && p.Content != nil && p.Feather != feather.Quote {
		if htmlBody, err := markdown.ToHTML(*p.Content); err == nil {
			v.ContentHTML = &htmlBody
		} else {
			slog.Warn("markdown render failed", "post", p.ID, "error", err)
		}
	}
	return v
}

func (h *Posts) views(posts []models.Post) []postView {
	out := make([]postView, 0, len(posts))
	for _, p := range posts {
		out = append(out, h.view(p))
	}
	return out
}

// List handles GET /posts?search=. Anonymous viewers get the published
// feed (cached when unfiltered); authenticated viewers additionally see
// their own drafts and private posts. Search is an in-memory substring
// filter over title, content, author, and tags.
func (h *Posts) List(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	search := r.URL.Query().Get("search")

	// Fast path: anonymous, unfiltered, cache hit.
	if sess == nil && search == "" {
		if payload, ok := h.feedCache.Get(r.Context()); ok {
			w.Header().Set("Content-Type", "application/json")
			w.Write(payload)
			return
		}
	}

	var posts []models.Post
	var err error
	if sess == nil {
		posts, err = h.posts.ListPublished()
	} else {
		posts, err = h.posts.List()
	}
	if err != nil {
		slog.Error("post list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load posts.")
		return
	}

	if sess != nil {
		visible := posts[:0]
		for _, p := range posts {
			if p.VisibleTo(sess.UserID) {
				visible = append(visible, p)
			}
		}
		posts = visible
	}

	posts = feed.Filter(posts, search)
	body := map[string]any{"posts": h.views(posts)}

	if sess == nil && search == "" {
		if payload, err := json.Marshal(body); err == nil {
			h.feedCache.Set(r.Context(), payload)
			w.Header().Set("Content-Type", "application/json")
			w.Write(payload)
			return
		}
	}
	writeJSON(w, http.StatusOK, body)
}

// Get handles GET /posts/{slug}. Non-published posts 404 for anyone but
// their author. The view counter increments when the views extension is
// enabled.
func (h *Posts) Get(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	p, err := h.posts.FindBySlug(chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("post fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load the post.")
		return
	}

	viewerID := uuid.Nil
	if sess != nil {
		viewerID = sess.UserID
	}
	if p == nil || !p.VisibleTo(viewerID) {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}

	if h.site.ExtensionEnabled("views") && p.Status == models.PostStatusPublished {
		if err := h.posts.IncrementViews(p.ID); err != nil {
			slog.Warn("view increment failed", "post", p.ID, "error", err)
		} else {
			p.ViewCount++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"post": h.view(*p)})
}

// Create handles POST /posts: a multipart submission carrying the draft
// fields plus any files for asset-bearing feathers.
func (h *Posts) Create(w http.ResponseWriter, r *http.Request) {
	h.save(w, r, uuid.Nil)
}

// Update handles PUT /posts/{id}.
func (h *Posts) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID.")
		return
	}
	h.save(w, r, id)
}

// save runs the shared create/update path: parse, validate, then hand
// the draft to the editor's save sequence. Validation happens before any
// upload or write side effect.
func (h *Posts) save(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess := middleware.SessionFromCtx(r.Context())

	if !models.Role(sess.Role).CanPublish() {
		writeError(w, http.StatusForbidden, "Your account cannot publish posts.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "Could not parse the submission.")
		return
	}

	kind := feather.Kind(r.FormValue("feather"))
	title := r.FormValue("title")
	fields := feather.Fields{
		Body:        r.FormValue("body"),
		LinkURL:     r.FormValue("link_url"),
		Quote:       r.FormValue("quote"),
		QuoteSource: r.FormValue("quote_source"),
		Caption:     r.FormValue("caption"),
	}
	tags := splitTags(r.FormValue("tags"))

	if msg := validateDraft(kind, title, fields, tags); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	status := models.PostStatus(r.FormValue("status"))
	if status == "" {
		status = models.PostStatusPublished
	}
	if !models.ValidPostStatus(status) {
		writeError(w, http.StatusBadRequest, "Unknown post status.")
		return
	}

	draft := &editor.Draft{
		ID:       id,
		AuthorID: sess.UserID,
		Feather:  kind,
		Title:    title,
		Slug:     r.FormValue("slug"),
		Status:   status,
		Fields:   fields,
		Tags:     tags,
	}

	if id == uuid.Nil {
		// The client carries the session slug token so the derived slug is
		// stable while typing; a missing token gets a fresh one.
		if token, err := strconv.Atoi(r.FormValue("slug_token")); err == nil {
			draft.SlugToken = token
		} else {
			draft.SlugToken = slug.NewToken()
		}
	} else {
		existing, err := h.posts.FindByID(id)
		if err != nil {
			slog.Error("post fetch failed", "error", err)
			writeError(w, http.StatusInternalServerError, "Could not load the post.")
			return
		}
		if existing == nil {
			writeError(w, http.StatusNotFound, "Post not found.")
			return
		}
		if existing.AuthorID != sess.UserID && sess.Role != "admin" {
			writeError(w, http.StatusForbidden, "You may only edit your own posts.")
			return
		}
		// Edit mode never re-derives the slug and keeps existing media when
		// no new file is chosen.
		if draft.Slug == "" {
			draft.Slug = existing.Slug
		}
		if existing.MediaURL != nil {
			draft.MediaURL = *existing.MediaURL
		}
	}

	files, err := multipartFiles(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read an uploaded file.")
		return
	}

	ctx := WithUploaderID(r.Context(), sess.UserID)
	saved, err := h.editor.Save(ctx, draft, files)
	switch {
	case errors.Is(err, editor.ErrSaveInFlight):
		writeError(w, http.StatusConflict, "A save for this post is already in progress.")
		return
	case errors.Is(err, editor.ErrUploadFailed):
		slog.Error("save aborted: upload failed", "error", err)
		writeError(w, http.StatusBadGateway, "File upload failed. The post was not saved.")
		return
	case err != nil:
		slog.Error("post save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not save the post.")
		return
	}

	h.feedCache.Invalidate(r.Context())

	status2 := http.StatusOK
	if id == uuid.Nil {
		status2 = http.StatusCreated
	}
	writeJSON(w, status2, map[string]any{"post": h.view(*saved)})
}

// Delete handles DELETE /posts/{id}.
func (h *Posts) Delete(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID.")
		return
	}

	p, err := h.posts.FindByID(id)
	if err != nil {
		slog.Error("post fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load the post.")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}
	if p.AuthorID != sess.UserID && sess.Role != "admin" {
		writeError(w, http.StatusForbidden, "You may only delete your own posts.")
		return
	}

	if err := h.posts.Delete(id); err != nil {
		slog.Error("post delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not delete the post.")
		return
	}

	h.feedCache.Invalidate(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Like handles POST /posts/{id}/like. Available only while the likes
// extension is enabled; anonymous likes are counted without a user.
func (h *Posts) Like(w http.ResponseWriter, r *http.Request) {
	if !h.site.ExtensionEnabled("likes") {
		writeError(w, http.StatusNotFound, "Likes are not enabled on this site.")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid post ID.")
		return
	}

	p, err := h.posts.FindByID(id)
	if err != nil {
		slog.Error("post fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not load the post.")
		return
	}
	if p == nil || p.Status != models.PostStatusPublished {
		writeError(w, http.StatusNotFound, "Post not found.")
		return
	}

	userID := uuid.Nil
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		userID = sess.UserID
	}
	if err := h.posts.Like(id, userID); err != nil {
		slog.Error("like failed", "error", err, "post", id)
		writeError(w, http.StatusInternalServerError, "Could not record the like.")
		return
	}

	updated, err := h.posts.FindByID(id)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "Could not load the post.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"likes_count": updated.LikeCount})
}

// multipartFiles collects the "files" parts of a multipart submission.
func multipartFiles(r *http.Request) ([]editor.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File["files"]
	files := make([]editor.File, 0, len(headers))
	for _, h := range headers {
		src, err := h.Open()
		if err != nil {
			return nil, err
		}
		files = append(files, editor.File{
			Name:        h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        src,
			Size:        h.Size,
		})
	}
	return files, nil
}
