package handlers

import (
	"strings"
	"unicode/utf8"

	"featherpress/internal/feather"
)

// Validation limits for post fields.
const (
	maxTitleLen    = 300
	maxBodyLen     = 100_000
	maxURLLen      = 2_000
	maxTagLen      = 100
	maxTagsPerPost = 25
)

// validateDraft checks post form inputs and returns the first error found.
// Runs before any upload or write side effect.
func validateDraft(kind feather.Kind, title string, fields feather.Fields, tags []string) string {
	if !kind.Valid() {
		return "Unknown post type."
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "Title is required."
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "Title is too long (max 300 characters)."
	}
	if utf8.RuneCountInString(fields.Body) > maxBodyLen {
		return "Body is too long (max 100,000 characters)."
	}
	if utf8.RuneCountInString(fields.Quote) > maxBodyLen {
		return "Quote is too long (max 100,000 characters)."
	}
	if utf8.RuneCountInString(fields.LinkURL) > maxURLLen {
		return "Link URL is too long (max 2,000 characters)."
	}
	if kind == feather.Link && strings.TrimSpace(fields.LinkURL) == "" {
		return "Link posts need a URL."
	}
	if kind == feather.Quote && strings.TrimSpace(fields.Quote) == "" {
		return "Quote posts need a quotation."
	}
	if len(tags) > maxTagsPerPost {
		return "Too many tags (max 25)."
	}
	for _, t := range tags {
		if utf8.RuneCountInString(t) > maxTagLen {
			return "Tag is too long (max 100 characters)."
		}
	}
	return ""
}

// splitTags parses a comma-separated tag list into trimmed, non-empty names.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
