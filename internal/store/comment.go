// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"featherpress/internal/models"
)

// CommentStore handles comment rows. Registered commenters are joined
// for their current display name; guest comments keep the name they
// were left with.
type CommentStore struct {
	db *sql.DB
}

// NewCommentStore creates a new CommentStore with the given database connection.
func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

const commentColumns = `c.id, c.post_id, c.author_id,
	COALESCE(u.display_name, c.author_name, 'Anonymous'),
	c.body, c.created_at, c.updated_at`

func scanComment(scanner interface{ Scan(...any) error }) (*models.Comment, error) {
	var c models.Comment
	err := scanner.Scan(
		&c.ID, &c.PostID, &c.AuthorID, &c.DisplayName,
		&c.Body, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByPost returns a page of comments for a post, oldest first.
func (s *CommentStore) ListByPost(postID uuid.UUID, limit, offset int) ([]models.Comment, error) {
	rows, err := s.db.Query(`
		SELECT `+commentColumns+`
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.post_id = $1
		ORDER BY c.created_at
		LIMIT $2 OFFSET $3
	`, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// FindByID retrieves a comment by ID. Returns nil if not found.
func (s *CommentStore) FindByID(id uuid.UUID) (*models.Comment, error) {
	row := s.db.QueryRow(`
		SELECT `+commentColumns+`
		FROM comments c
		LEFT JOIN users u ON u.id = c.author_id
		WHERE c.id = $1
	`, id)
	c, err := scanComment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	return c, nil
}

// Create inserts a comment. authorID is nil for guest comments, in which
// case guestName is stored as the display name.
func (s *CommentStore) Create(postID uuid.UUID, authorID *uuid.UUID, guestName, body string) (*models.Comment, error) {
	var name *string
	if authorID == nil {
		name = &guestName
	}

	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO comments (post_id, author_id, author_name, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, postID, authorID, name, body).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return s.FindByID(id)
}

// UpdateBody replaces a comment's text and returns the stored record.
func (s *CommentStore) UpdateBody(id uuid.UUID, body string) (*models.Comment, error) {
	res, err := s.db.Exec(`
		UPDATE comments SET body = $1, updated_at = NOW() WHERE id = $2
	`, body, id)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("update comment: no comment with id %s", id)
	}
	return s.FindByID(id)
}

// Delete removes a comment by ID.
func (s *CommentStore) Delete(id uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}
