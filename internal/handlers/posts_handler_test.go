// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"featherpress/internal/models"
)

// postResponse is the envelope returned by create/get.
type postResponse struct {
	Post models.Post `json:"post"`
}

func createTextPost(t *testing.T, env *testEnv, author *models.User, title, body, status string) models.Post {
	t.Helper()

	form, contentType := multipartForm(t, map[string]string{
		"feather": "text",
		"title":   title,
		"body":    body,
		"status":  status,
		"tags":    "go, testing",
	})

	req := httptest.NewRequest(http.MethodPost, "/posts", form)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(author)))

	rec := httptest.NewRecorder()
	env.Posts.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create post: status %d, body %s", rec.Code, rec.Body.String())
	}

	var resp postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	t.Cleanup(func() { cleanPosts(t, env.DB, resp.Post.Slug) })
	return resp.Post
}

func TestCreateTextPost(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)

	p := createTextPost(t, env, author, "Handler Test Post", "Some **markdown** body.", "published")

	if !strings.HasPrefix(p.Slug, "handler-test-post-") {
		t.Errorf("slug = %q, want handler-test-post-<token>", p.Slug)
	}
	if p.AuthorName != author.DisplayName {
		t.Errorf("author_name = %q, want %q", p.AuthorName, author.DisplayName)
	}
	if p.Status != models.PostStatusPublished {
		t.Errorf("status = %q, want published", p.Status)
	}
	if p.PublishedAt == nil {
		t.Error("published post missing published_at")
	}
	if len(p.Tags) != 2 {
		t.Errorf("tags = %v, want 2 entries", p.Tags)
	}
}

func TestCreatePostValidation(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)

	cases := []struct {
		name   string
		fields map[string]string
	}{
		{"missing title", map[string]string{"feather": "text", "body": "hi"}},
		{"unknown feather", map[string]string{"feather": "hologram", "title": "x"}},
		{"link without url", map[string]string{"feather": "link", "title": "x"}},
		{"quote without quotation", map[string]string{"feather": "quote", "title": "x"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			form, contentType := multipartForm(t, tc.fields)
			req := httptest.NewRequest(http.MethodPost, "/posts", form)
			req.Header.Set("Content-Type", contentType)
			req = req.WithContext(ctxWithSession(req.Context(), sessionFor(author)))

			rec := httptest.NewRecorder()
			env.Posts.Create(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMemberCannotPublish(t *testing.T) {
	env := newTestEnv(t)
	member := env.testUser(t, models.RoleMember)

	form, contentType := multipartForm(t, map[string]string{
		"feather": "text",
		"title":   "Member Manifesto",
		"body":    "I should not be able to post this.",
		"status":  "published",
	})
	req := httptest.NewRequest(http.MethodPost, "/posts", form)
	req.Header.Set("Content-Type", contentType)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(member)))

	rec := httptest.NewRecorder()
	env.Posts.Create(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("member create: status = %d, want 403 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestGetPostVisibility(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)

	draft := createTextPost(t, env, author, "Hidden Draft", "not public", "draft")

	// Anonymous viewers must not see the draft.
	req := httptest.NewRequest(http.MethodGet, "/posts/"+draft.Slug, nil)
	req = withChiURLParam(req, "slug", draft.Slug)
	rec := httptest.NewRecorder()
	env.Posts.Get(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("anonymous draft fetch: status = %d, want 404", rec.Code)
	}

	// The author sees their own draft.
	req = httptest.NewRequest(http.MethodGet, "/posts/"+draft.Slug, nil)
	req = withChiURLParam(req, "slug", draft.Slug)
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(author)))
	rec = httptest.NewRecorder()
	env.Posts.Get(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("author draft fetch: status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
}

func TestUpdatePostOwnership(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)
	other := env.testUser(t, models.RoleEditor)

	p := createTextPost(t, env, author, "Ownership Test", "original", "published")

	form, contentType := multipartForm(t, map[string]string{
		"feather": "text",
		"title":   "Ownership Test",
		"body":    "edited by someone else",
		"status":  "published",
	})
	req := httptest.NewRequest(http.MethodPut, "/posts/"+p.ID.String(), form)
	req.Header.Set("Content-Type", contentType)
	req = withChiURLParam(req, "id", p.ID.String())
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(other)))

	rec := httptest.NewRecorder()
	env.Posts.Update(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-author edit: status = %d, want 403", rec.Code)
	}

	// The slug survives an author edit unchanged.
	form, contentType = multipartForm(t, map[string]string{
		"feather": "text",
		"title":   "Ownership Test Renamed",
		"body":    "edited by the author",
		"status":  "published",
	})
	req = httptest.NewRequest(http.MethodPut, "/posts/"+p.ID.String(), form)
	req.Header.Set("Content-Type", contentType)
	req = withChiURLParam(req, "id", p.ID.String())
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(author)))

	rec = httptest.NewRecorder()
	env.Posts.Update(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("author edit: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp postResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode update response: %v", err)
	}
	if resp.Post.Slug != p.Slug {
		t.Errorf("slug changed on edit: %q -> %q", p.Slug, resp.Post.Slug)
	}
	if resp.Post.Title != "Ownership Test Renamed" {
		t.Errorf("title = %q after edit", resp.Post.Title)
	}
}

func TestListAnonymousSeesPublishedOnly(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)

	published := createTextPost(t, env, author, "Public List Entry", "visible", "published")
	draft := createTextPost(t, env, author, "Draft List Entry", "invisible", "draft")

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	rec := httptest.NewRecorder()
	env.Posts.List(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, published.Slug) {
		t.Errorf("published post %q missing from anonymous feed", published.Slug)
	}
	if strings.Contains(body, draft.Slug) {
		t.Errorf("draft %q leaked into anonymous feed", draft.Slug)
	}
}

func TestListSearchFilter(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)

	match := createTextPost(t, env, author, "Xylophone Lessons", "music", "published")
	miss := createTextPost(t, env, author, "Gardening Notes", "plants", "published")

	req := httptest.NewRequest(http.MethodGet, "/posts?search=xylophone", nil)
	rec := httptest.NewRecorder()
	env.Posts.List(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, match.Slug) {
		t.Errorf("matching post %q missing from filtered feed", match.Slug)
	}
	if strings.Contains(body, miss.Slug) {
		t.Errorf("non-matching post %q present in filtered feed", miss.Slug)
	}
}

func TestLikeExtension(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)
	p := createTextPost(t, env, author, "Likeable Post", "like me", "published")

	// Likes are off until the extension is enabled.
	env.setExtension(t, "likes", false)
	req := httptest.NewRequest(http.MethodPost, "/posts/"+p.ID.String()+"/like", nil)
	req = withChiURLParam(req, "id", p.ID.String())
	rec := httptest.NewRecorder()
	env.Posts.Like(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("like with extension off: status = %d, want 404", rec.Code)
	}

	env.setExtension(t, "likes", true)

	req = httptest.NewRequest(http.MethodPost, "/posts/"+p.ID.String()+"/like", nil)
	req = withChiURLParam(req, "id", p.ID.String())
	rec = httptest.NewRecorder()
	env.Posts.Like(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("anonymous like: status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		LikesCount int `json:"likes_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode like response: %v", err)
	}
	if resp.LikesCount != 1 {
		t.Errorf("likes_count = %d, want 1", resp.LikesCount)
	}
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	author := env.testUser(t, models.RoleEditor)
	p := createTextPost(t, env, author, "Doomed Post", "goodbye", "published")

	req := httptest.NewRequest(http.MethodDelete, "/posts/"+p.ID.String(), nil)
	req = withChiURLParam(req, "id", p.ID.String())
	req = req.WithContext(ctxWithSession(req.Context(), sessionFor(author)))
	rec := httptest.NewRecorder()
	env.Posts.Delete(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}

	gone, err := env.PostStore.FindByID(p.ID)
	if err != nil {
		t.Fatalf("find after delete: %v", err)
	}
	if gone != nil {
		t.Error("post still present after delete")
	}
}
