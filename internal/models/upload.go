// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostFile represents a file uploaded to S3-compatible object storage.
// Metadata is stored in PostgreSQL; the file itself lives in the bucket.
// Posts reference uploads through a server-resolvable download path rather
// than a raw bucket URL, so storage can move without rewriting posts.
type PostFile struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	ContentType  string    `json:"content_type"`
	SizeBytes    int64     `json:"size_bytes"`
	Bucket       string    `json:"-"`
	S3Key        string    `json:"-"`
	ThumbS3Key   *string   `json:"-"`
	UploaderID   uuid.UUID `json:"uploader_id"`
	CreatedAt    time.Time `json:"uploaded_at"`
}

// DownloadPath returns the stable server route for this file. This is the
// value embedded into a post's media URL field.
func (f *PostFile) DownloadPath() string {
	return fmt.Sprintf("/upload/%s/download", f.ID)
}

// IsImage returns true if the uploaded file is an image type.
func (f *PostFile) IsImage() bool {
	return strings.HasPrefix(f.ContentType, "image/")
}

// HumanSize returns a human-readable file size string.
func (f *PostFile) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case f.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(f.SizeBytes)/float64(mb))
	case f.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(f.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", f.SizeBytes)
	}
}
