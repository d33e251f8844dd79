// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package feed provides in-memory search filtering over a fetched post
// list. Matching is deliberately substring-based: post counts on a
// personal blog are small, and a search index would be overkill.
package feed

import (
	"strings"

	"featherpress/internal/models"
)

// Filter returns the posts whose title, content, author display name, or
// any tag name contains the search text, case-insensitively. Empty search
// text matches everything; order is preserved.
func Filter(posts []models.Post, search string) []models.Post {
	if search == "" {
		return posts
	}

	needle := strings.ToLower(search)
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if p.Matches(needle) {
			out = append(out, p)
		}
	}
	return out
}
