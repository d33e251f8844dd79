// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler
// integration tests. PostgreSQL is required (tests skip when it is
// unreachable); Redis is stood in by miniredis.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"mime/multipart"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"featherpress/internal/cache"
	"featherpress/internal/database"
	"featherpress/internal/editor"
	"featherpress/internal/middleware"
	"featherpress/internal/models"
	"featherpress/internal/session"
	"featherpress/internal/site"
	"featherpress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "featherpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "featherpress")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB           *sql.DB
	Redis        *redis.Client
	Sessions     *session.Store
	PostStore    *store.PostStore
	UserStore    *store.UserStore
	TagStore     *store.TagStore
	CommentStore *store.CommentStore
	UploadStore  *store.UploadStore
	SettingStore *store.SettingStore
	SiteSvc      *site.Service
	FeedCache    *cache.FeedCache
	Posts        *Posts
	Comments     *Comments
	Auth         *Auth
	Site         *Site
	Users        *Users
}

// newTestEnv creates a complete test environment. Object storage is left
// unconfigured, so tests cover the text-side feathers.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	sessions := session.NewStore(client, false)
	postStore := store.NewPostStore(db)
	userStore := store.NewUserStore(db)
	tagStore := store.NewTagStore(db)
	commentStore := store.NewCommentStore(db)
	uploadStore := store.NewUploadStore(db)
	settingStore := store.NewSettingStore(db)

	siteSvc := site.NewService(settingStore)
	if err := siteSvc.Load(); err != nil {
		t.Fatalf("site load: %v", err)
	}

	uploads := NewUploads(uploadStore, nil)
	ed := editor.New(NewPostService(postStore, tagStore), uploads)
	feedCache := cache.NewFeedCache(client, time.Minute)

	return &testEnv{
		DB:           db,
		Redis:        client,
		Sessions:     sessions,
		PostStore:    postStore,
		UserStore:    userStore,
		TagStore:     tagStore,
		CommentStore: commentStore,
		UploadStore:  uploadStore,
		SettingStore: settingStore,
		SiteSvc:      siteSvc,
		FeedCache:    feedCache,
		Posts:        NewPosts(postStore, ed, feedCache, siteSvc),
		Comments:     NewComments(commentStore, postStore, siteSvc),
		Auth:         NewAuth(sessions, userStore, siteSvc, "FeatherPress"),
		Site:         NewSite(siteSvc, userStore),
		Users:        NewUsers(userStore),
	}
}

// setExtension flips an extension for the test and restores the prior
// state afterwards.
func (e *testEnv) setExtension(t *testing.T, name string, enabled bool) {
	t.Helper()
	was := e.SiteSvc.ExtensionEnabled(name)
	if err := e.SiteSvc.SetExtension(name, enabled); err != nil {
		t.Fatalf("set extension %s: %v", name, err)
	}
	t.Cleanup(func() {
		e.SiteSvc.SetExtension(name, was)
	})
}

// testUser creates a throwaway user and registers its cleanup.
func (e *testEnv) testUser(t *testing.T, role models.Role) *models.User {
	t.Helper()

	username := "test-" + uuid.NewString()[:8]
	u, err := e.UserStore.Create(username, username+"@example.com", "hunter2!pass", "Test User", role)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	t.Cleanup(func() { e.DB.Exec("DELETE FROM users WHERE id = $1", u.ID) })
	return u
}

// sessionFor builds session data matching what login would store.
func sessionFor(u *models.User) *session.Data {
	return &session.Data{
		UserID:      u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
	}
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartForm builds a multipart body from plain form fields.
func multipartForm(t *testing.T, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, value := range fields {
		if err := w.WriteField(key, value); err != nil {
			t.Fatalf("write form field %s: %v", key, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

// cleanPosts removes test posts by slug. Call in t.Cleanup().
func cleanPosts(t *testing.T, db *sql.DB, slugs ...string) {
	t.Helper()
	for _, s := range slugs {
		db.Exec("DELETE FROM posts WHERE slug = $1", s)
	}
}
