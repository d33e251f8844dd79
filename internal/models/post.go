// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"featherpress/internal/feather"
)

// PostStatus represents the publication state of a post.
type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
	PostStatusPrivate   PostStatus = "private"
	PostStatusDraft     PostStatus = "draft"
)

// ValidPostStatus reports whether s is a known status.
func ValidPostStatus(s PostStatus) bool {
	switch s {
	case PostStatusPublished, PostStatusPrivate, PostStatusDraft:
		return true
	}
	return false
}

// Tag is a label attached to posts. Tags are shared across posts and
// created on demand when a post first uses them.
type Tag struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Post is a blog entry. Exactly one feather kind describes which of the
// optional content fields are meaningful; the rest stay NULL.
type Post struct {
	ID          uuid.UUID    `json:"id"`
	AuthorID    uuid.UUID    `json:"author_id"`
	AuthorName  string       `json:"author_name"`
	Feather     feather.Kind `json:"feather_type"`
	Slug        string       `json:"slug"`
	Title       string       `json:"title"`
	Status      PostStatus   `json:"status"`
	Content     *string      `json:"content,omitempty"`
	MediaURL    *string      `json:"media_url,omitempty"`
	MediaType   *string      `json:"media_type,omitempty"`
	QuoteSource *string      `json:"quote_source,omitempty"`
	LinkURL     *string      `json:"link_url,omitempty"`
	Tags        []Tag        `json:"tags"`
	ViewCount   int          `json:"views_count"`
	LikeCount   int          `json:"likes_count"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// VisibleTo reports whether the viewer may see this post. Published
// posts are public; private posts and drafts are visible to their
// author only.
func (p *Post) VisibleTo(viewerID uuid.UUID) bool {
	if p.Status == PostStatusPublished {
		return true
	}
	return viewerID != uuid.Nil && viewerID == p.AuthorID
}

// Matches reports whether the post matches a lowercase search needle.
// Title, content, author name, and tag names are all searched as plain
// substrings.
func (p *Post) Matches(lowerNeedle string) bool {
	if strings.Contains(strings.ToLower(p.Title), lowerNeedle) {
		return true
	}
	if p.Content != nil && strings.Contains(strings.ToLower(*p.Content), lowerNeedle) {
		return true
	}
	if strings.Contains(strings.ToLower(p.AuthorName), lowerNeedle) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t.Name), lowerNeedle) {
			return true
		}
	}
	return false
}
