package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"

	"featherpress/internal/slug"
)

// defaultSettings is written once on first boot; later edits go through
// the settings API.
var defaultSettings = map[string]string{
	"blog_title":          "My Awesome Blog",
	"show_search":         "true",
	"show_markdown":       "true",
	"show_registration":   "false",
	"extension_comments":  "true",
	"extension_likes":     "true",
	"extension_views":     "true",
	"extension_tags":      "true",
}

// Seed populates the database with initial data: a default admin user
// and the default site settings. In development mode it also generates
// a handful of fake posts so the feed has content to show.
func Seed(db *sql.DB, dev bool) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return fmt.Errorf("seed check users: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("seed bcrypt: %w", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (username, email, password_hash, display_name, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, "admin", "admin@featherpress.local", string(hash), "Admin", "admin").Scan(&adminID)
	if err != nil {
		return fmt.Errorf("seed insert admin: %w", err)
	}

	for key, value := range defaultSettings {
		if _, err := db.Exec(`
			INSERT INTO site_settings (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING
		`, key, value); err != nil {
			return fmt.Errorf("seed setting %q: %w", key, err)
		}
	}

	slog.Info("database seeded with default admin user",
		"username", "admin",
		"password", "admin",
	)

	if dev {
		if err := seedFakePosts(db, adminID); err != nil {
			return err
		}
	}

	return nil
}

// seedFakePosts generates development content across the text feathers.
func seedFakePosts(db *sql.DB, authorID string) error {
	gofakeit.Seed(0)

	for i := 0; i < 8; i++ {
		title := gofakeit.Sentence(4)
		title = strings.TrimSuffix(title, ".")
		body := gofakeit.Paragraph(3, 4, 12, "\n\n")
		postSlug := slug.WithToken(slug.Generate(title), gofakeit.Number(0, 999))

		if _, err := db.Exec(`
			INSERT INTO posts (author_id, feather, slug, title, status, content, published_at)
			VALUES ($1, 'text', $2, $3, 'published', $4, NOW() - ($5 || ' hours')::interval)
		`, authorID, postSlug, title, body, i*7); err != nil {
			return fmt.Errorf("seed fake post: %w", err)
		}
	}

	quote := gofakeit.Quote()
	if _, err := db.Exec(`
		INSERT INTO posts (author_id, feather, slug, title, status, content, quote_source, published_at)
		VALUES ($1, 'quote', $2, 'Words to live by', 'published', $3, $4, NOW())
	`, authorID, fmt.Sprintf("words-to-live-by-%d", gofakeit.Number(0, 999)),
		quote, gofakeit.Name()); err != nil {
		return fmt.Errorf("seed fake quote: %w", err)
	}

	slog.Info("development posts seeded")
	return nil
}
