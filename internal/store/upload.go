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

// UploadStore handles post file metadata. The bytes themselves live in
// S3-compatible storage; these rows map public download IDs to keys.
type UploadStore struct {
	db *sql.DB
}

// NewUploadStore creates a new UploadStore with the given database connection.
func NewUploadStore(db *sql.DB) *UploadStore {
	return &UploadStore{db: db}
}

const uploadColumns = `id, filename, original_name, content_type, size_bytes,
	bucket, s3_key, thumb_s3_key, uploader_id, created_at`

func scanUpload(scanner interface{ Scan(...any) error }) (*models.PostFile, error) {
	var f models.PostFile
	err := scanner.Scan(
		&f.ID, &f.Filename, &f.OriginalName, &f.ContentType, &f.SizeBytes,
		&f.Bucket, &f.S3Key, &f.ThumbS3Key, &f.UploaderID, &f.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts an upload record and returns it with its assigned ID.
func (s *UploadStore) Create(f *models.PostFile) (*models.PostFile, error) {
	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO post_files (filename, original_name, content_type, size_bytes,
			bucket, s3_key, thumb_s3_key, uploader_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, f.Filename, f.OriginalName, f.ContentType, f.SizeBytes,
		f.Bucket, f.S3Key, f.ThumbS3Key, f.UploaderID,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	return s.FindByID(id)
}

// FindByID retrieves an upload by ID. Returns nil if not found.
func (s *UploadStore) FindByID(id uuid.UUID) (*models.PostFile, error) {
	row := s.db.QueryRow(`SELECT `+uploadColumns+` FROM post_files WHERE id = $1`, id)
	f, err := scanUpload(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find upload: %w", err)
	}
	return f, nil
}

// List returns uploads newest first, for the admin media screen.
func (s *UploadStore) List(limit, offset int) ([]models.PostFile, error) {
	rows, err := s.db.Query(`
		SELECT `+uploadColumns+`
		FROM post_files
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	var files []models.PostFile
	for rows.Next() {
		f, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		files = append(files, *f)
	}
	return files, rows.Err()
}

// Delete removes an upload record and returns it so the caller can
// delete the underlying objects from storage.
func (s *UploadStore) Delete(id uuid.UUID) (*models.PostFile, error) {
	f, err := s.FindByID(id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, nil
	}
	if _, err := s.db.Exec(`DELETE FROM post_files WHERE id = $1`, id); err != nil {
		return nil, fmt.Errorf("delete upload: %w", err)
	}
	return f, nil
}
