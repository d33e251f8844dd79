// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"featherpress/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

// postColumns lists the post columns selected in every query, joined with
// the author's display name and the like counter.
const postColumns = `p.id, p.author_id, u.display_name, p.feather, p.slug, p.title,
	p.status, p.content, p.media_url, p.media_type, p.quote_source, p.link_url,
	p.view_count,
	(SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id) AS like_count,
	p.published_at, p.created_at, p.updated_at`

// scanPost scans one joined post row.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.AuthorID, &p.AuthorName, &p.Feather, &p.Slug, &p.Title,
		&p.Status, &p.Content, &p.MediaURL, &p.MediaType, &p.QuoteSource, &p.LinkURL,
		&p.ViewCount, &p.LikeCount, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every post ordered by creation date descending, tags attached.
func (s *PostStore) List() ([]models.Post, error) {
	return s.list(`
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC
	`)
}

// ListPublished returns published posts ordered by publish date descending.
// Used for the public feed.
func (s *PostStore) ListPublished() ([]models.Post, error) {
	return s.list(`
		SELECT ` + postColumns + `
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.status = 'published'
		ORDER BY p.published_at DESC NULLS LAST
	`)
}

func (s *PostStore) list(query string) ([]models.Post, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var items []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.attachTags(items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindBySlug retrieves a post by its slug, any status. Returns nil if not
// found; visibility filtering is the caller's concern.
func (s *PostStore) FindBySlug(slug string) (*models.Post, error) {
	row := s.db.QueryRow(`
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.slug = $1
	`, slug)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	if err := s.attachTagsOne(p); err != nil {
		return nil, err
	}
	return p, nil
}

// FindByID retrieves a post by its UUID. Returns nil if not found.
func (s *PostStore) FindByID(id uuid.UUID) (*models.Post, error) {
	row := s.db.QueryRow(`
		SELECT `+postColumns+`
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.id = $1
	`, id)
	p, err := scanPost(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	if err := s.attachTagsOne(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new post and returns it with server-assigned fields.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	if p.Status == models.PostStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO posts (author_id, feather, slug, title, status, content,
			media_url, media_type, quote_source, link_url, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, p.AuthorID, p.Feather, p.Slug, p.Title, p.Status, p.Content,
		p.MediaURL, p.MediaType, p.QuoteSource, p.LinkURL, p.PublishedAt,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return s.FindByID(id)
}

// Update modifies an existing post and returns the stored record.
// The slug is written as given; the store never derives slugs.
func (s *PostStore) Update(p *models.Post) (*models.Post, error) {
	if p.Status == models.PostStatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}

	res, err := s.db.Exec(`
		UPDATE posts SET
			feather = $1, slug = $2, title = $3, status = $4, content = $5,
			media_url = $6, media_type = $7, quote_source = $8, link_url = $9,
			published_at = $10, updated_at = NOW()
		WHERE id = $11
	`, p.Feather, p.Slug, p.Title, p.Status, p.Content,
		p.MediaURL, p.MediaType, p.QuoteSource, p.LinkURL,
		p.PublishedAt, p.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update post: no post with id %s", p.ID)
	}
	return s.FindByID(p.ID)
}

// Delete removes a post by ID. Tag links and likes go with it via
// ON DELETE CASCADE.
func (s *PostStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// Like records a like for a post. Anonymous likes pass uuid.Nil and are
// stored without a user reference; a user liking twice is a no-op.
func (s *PostStore) Like(postID, userID uuid.UUID) error {
	var err error
	if userID == uuid.Nil {
		_, err = s.db.Exec(`INSERT INTO likes (post_id) VALUES ($1)`, postID)
	} else {
		_, err = s.db.Exec(`
			INSERT INTO likes (post_id, user_id) VALUES ($1, $2)
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, postID, userID)
	}
	if err != nil {
		return fmt.Errorf("like post: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter. Called on detail fetches when
// the views extension is enabled.
func (s *PostStore) IncrementViews(id uuid.UUID) error {
	_, err := s.db.Exec(`UPDATE posts SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// attachTagsOne loads the tags for a single post.
func (s *PostStore) attachTagsOne(p *models.Post) error {
	rows, err := s.db.Query(`
		SELECT t.id, t.name, t.slug
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = $1
		ORDER BY t.name
	`, p.ID)
	if err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		p.Tags = append(p.Tags, t)
	}
	return rows.Err()
}

// attachTags loads tags for a post slice in one query. Post counts on a
// single blog are small enough to fetch the whole link table.
func (s *PostStore) attachTags(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	rows, err := s.db.Query(`
		SELECT pt.post_id, t.id, t.name, t.slug
		FROM post_tags pt
		JOIN tags t ON t.id = pt.tag_id
		ORDER BY t.name
	`)
	if err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	defer rows.Close()

	byPost := make(map[uuid.UUID][]models.Tag)
	for rows.Next() {
		var postID uuid.UUID
		var t models.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return fmt.Errorf("scan tag link: %w", err)
		}
		byPost[postID] = append(byPost[postID], t)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range posts {
		posts[i].Tags = byPost[posts[i].ID]
	}
	return nil
}
