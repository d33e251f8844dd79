// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package editor orchestrates post saves: it turns a draft into a
// submission payload for the active feather, runs the upload-then-write
// sequence for asset-bearing feathers, and hands the result back to the
// caller. The caller decides whether and when to refresh dependent reads;
// nothing here mutates shared state as a side effect.
package editor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"featherpress/internal/feather"
	"featherpress/internal/models"
	"featherpress/internal/slug"
)

// ErrSaveInFlight is returned when a save is requested for a post that
// already has a save sequence running. Overlapping saves for the same post
// are rejected rather than raced.
var ErrSaveInFlight = errors.New("a save for this post is already in flight")

// ErrUploadFailed is returned when the upload collaborator reports an
// error or an empty result; the post write is never attempted in that case.
var ErrUploadFailed = errors.New("file upload failed")

// PostService is the post collaborator. Create and Update return the
// stored record so the caller can use server-assigned fields.
type PostService interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) (*models.Post, error)
}

// Uploader is the upload collaborator. Files are uploaded as a single
// batch and treated as all-or-nothing; each ref carries an identifier
// usable to construct a download path.
type Uploader interface {
	Upload(ctx context.Context, files []File) ([]FileRef, error)
}

// File is one file selected for upload.
type File struct {
	Name        string
	ContentType string
	Data        io.Reader
	Size        int64
}

// FileRef is the upload collaborator's handle for a stored file.
type FileRef struct {
	ID uuid.UUID
}

// DownloadPath returns the server-resolvable media URL for this ref.
func (r FileRef) DownloadPath() string {
	return fmt.Sprintf("/upload/%s/download", r.ID)
}

// Draft is the complete editing state for one post. All feather fields are
// kept regardless of the active feather — switching feathers never loses
// work — and only the active feather's fields reach the payload.
type Draft struct {
	ID       uuid.UUID // uuid.Nil for a new post
	AuthorID uuid.UUID
	Feather  feather.Kind
	Title    string
	Slug     string // explicit override; derived from title when empty on create
	Status   models.PostStatus
	Fields   feather.Fields
	Tags     []string

	// MediaURL carries the pre-existing media reference in edit mode. It is
	// used as-is when no new file is selected for an asset-bearing feather.
	MediaURL string

	// SlugToken is the per-session uniqueness token appended to derived
	// slugs. Zero is a valid token; it stays fixed for one create session.
	SlugToken int
}

// IsNew reports whether the draft has no post identity yet.
func (d *Draft) IsNew() bool {
	return d.ID == uuid.Nil
}

// DerivedSlug returns the slug to submit: the explicit slug when set,
// otherwise (create mode only) the title-derived slug with the session
// token. Existing posts never have their slug recomputed.
func (d *Draft) DerivedSlug() string {
	if d.Slug != "" {
		return d.Slug
	}
	if !d.IsNew() {
		return d.Slug
	}
	return slug.WithToken(slug.Generate(d.Title), d.SlugToken)
}

// Editor runs save sequences against the two collaborators. It is safe for
// concurrent use; overlapping saves for the same post are rejected.
type Editor struct {
	posts    PostService
	uploader Uploader

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

// New creates an Editor over the given collaborators.
func New(posts PostService, uploader Uploader) *Editor {
	return &Editor{
		posts:    posts,
		uploader: uploader,
		inFlight: make(map[uuid.UUID]struct{}),
	}
}

// Save runs the full save sequence for a draft:
//
//  1. Validate the draft.
//  2. For asset-bearing feathers with files selected, upload the batch and
//     capture the first ref's download path as the media URL. An error or
//     empty result aborts the save before the post collaborator is touched.
//  3. For asset-bearing feathers without files, keep the pre-existing
//     media URL (edit mode).
//  4. Create or update the post record depending on draft identity.
//
// Failures are terminal: no retry, no rollback. Nothing durable is touched
// before the upload succeeds, so an aborted save leaves no partial post.
func (e *Editor) Save(ctx context.Context, d *Draft, files []File) (*models.Post, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	// Reject overlapping saves for the same post. Creates have no identity
	// to contend on, so only updates are guarded.
	if !d.IsNew() {
		if !e.begin(d.ID) {
			return nil, ErrSaveInFlight
		}
		defer e.end(d.ID)
	}

	payload, err := feather.Build(d.Feather, d.Fields)
	if err != nil {
		return nil, err
	}

	mediaURL := d.MediaURL
	if d.Feather.AssetBearing() && len(files) > 0 {
		refs, err := e.uploader.Upload(ctx, files)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
		if len(refs) == 0 {
			return nil, ErrUploadFailed
		}
		mediaURL = refs[0].DownloadPath()
	}

	post := &models.Post{
		ID:          d.ID,
		AuthorID:    d.AuthorID,
		Feather:     d.Feather,
		Slug:        d.DerivedSlug(),
		Title:       d.Title,
		Status:      d.Status,
		Content:     payload.Content,
		MediaType:   payload.MediaType,
		QuoteSource: payload.QuoteSource,
		LinkURL:     payload.LinkURL,
	}
	if d.Feather.AssetBearing() && mediaURL != "" {
		post.MediaURL = &mediaURL
	}
	for _, name := range d.Tags {
		post.Tags = append(post.Tags, models.Tag{Name: name})
	}

	if d.IsNew() {
		return e.posts.Create(ctx, post)
	}
	return e.posts.Update(ctx, post)
}

// validate rejects drafts that cannot be submitted, before any network or
// storage side effect.
func (d *Draft) validate() error {
	if !d.Feather.Valid() {
		return fmt.Errorf("unknown feather %q", d.Feather)
	}
	switch d.Status {
	case models.PostStatusPublished, models.PostStatusPrivate, models.PostStatusDraft:
	default:
		return fmt.Errorf("unknown status %q", d.Status)
	}
	if d.AuthorID == uuid.Nil {
		return errors.New("draft has no author")
	}
	return nil
}

// begin marks a post ID as having a save in flight. Returns false if one
// is already running.
func (e *Editor) begin(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, busy := e.inFlight[id]; busy {
		return false
	}
	e.inFlight[id] = struct{}{}
	return true
}

// end clears the in-flight mark for a post ID.
func (e *Editor) end(id uuid.UUID) {
	e.mu.Lock()
	delete(e.inFlight, id)
	e.mu.Unlock()
}
