// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"featherpress/internal/feather"
	"featherpress/internal/models"
)

// stubPosts records create/update calls and returns canned results.
type stubPosts struct {
	mu      sync.Mutex
	creates int
	updates int
	last    *models.Post
	err     error
	block   chan struct{} // when set, Update blocks until closed
}

func (s *stubPosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	s.mu.Lock()
	s.creates++
	s.last = p
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := *p
	out.ID = uuid.New()
	return &out, nil
}

func (s *stubPosts) Update(_ context.Context, p *models.Post) (*models.Post, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	s.updates++
	s.last = p
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	out := *p
	return &out, nil
}

// stubUploader records upload calls and returns canned refs.
type stubUploader struct {
	calls int
	refs  []FileRef
	err   error
}

func (s *stubUploader) Upload(_ context.Context, files []File) ([]FileRef, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.refs, nil
}

func textDraft(authorID uuid.UUID) *Draft {
	return &Draft{
		AuthorID: authorID,
		Feather:  feather.Text,
		Title:    "Hello, World!",
		Status:   models.PostStatusPublished,
		Fields:   feather.Fields{Body: "first post"},
	}
}

func TestSaveTextCreatesPost(t *testing.T) {
	posts := &stubPosts{}
	up := &stubUploader{}
	ed := New(posts, up)

	saved, err := ed.Save(context.Background(), textDraft(uuid.New()), nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if posts.creates != 1 || posts.updates != 0 {
		t.Errorf("creates=%d updates=%d, want 1/0", posts.creates, posts.updates)
	}
	if up.calls != 0 {
		t.Errorf("uploader called %d times for text feather", up.calls)
	}
	if saved.Content == nil || *saved.Content != "first post" {
		t.Errorf("content not carried into payload: %+v", saved.Content)
	}
}

// TestSavePayloadIsolation verifies that stray fields from inactive
// feathers never reach the submitted record.
func TestSavePayloadIsolation(t *testing.T) {
	posts := &stubPosts{}
	ed := New(posts, &stubUploader{})

	d := textDraft(uuid.New())
	d.Feather = feather.Quote
	d.Fields = feather.Fields{
		Body:        "leftover description",
		LinkURL:     "https://example.com/stray",
		Quote:       "Simplicity is prerequisite for reliability.",
		QuoteSource: "Dijkstra",
		Caption:     "stray caption",
	}

	saved, err := ed.Save(context.Background(), d, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	if saved.Content == nil || *saved.Content != d.Fields.Quote {
		t.Errorf("quote content missing: %+v", saved.Content)
	}
	if saved.QuoteSource == nil || *saved.QuoteSource != "Dijkstra" {
		t.Errorf("quote source missing: %+v", saved.QuoteSource)
	}
	if saved.LinkURL != nil {
		t.Errorf("stray link_url submitted: %q", *saved.LinkURL)
	}
	if saved.MediaType != nil {
		t.Errorf("stray media_type submitted: %q", *saved.MediaType)
	}
}

// TestSaveUploadAbort verifies the upload-abort invariant: an upload error
// or empty result means the post collaborator is never invoked.
func TestSaveUploadAbort(t *testing.T) {
	cases := []struct {
		name string
		up   *stubUploader
	}{
		{"upload error", &stubUploader{err: errors.New("bucket unreachable")}},
		{"empty result", &stubUploader{refs: nil}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			posts := &stubPosts{}
			ed := New(posts, tc.up)

			d := textDraft(uuid.New())
			d.Feather = feather.Photo
			files := []File{{Name: "cat.jpg", ContentType: "image/jpeg", Data: strings.NewReader("xx"), Size: 2}}

			_, err := ed.Save(context.Background(), d, files)
			if !errors.Is(err, ErrUploadFailed) {
				t.Fatalf("err = %v, want ErrUploadFailed", err)
			}
			if posts.creates != 0 || posts.updates != 0 {
				t.Errorf("post collaborator invoked after failed upload: creates=%d updates=%d",
					posts.creates, posts.updates)
			}
		})
	}
}

// TestSaveUploadSetsMediaURL verifies the media URL is the download path
// of the first uploaded ref.
func TestSaveUploadSetsMediaURL(t *testing.T) {
	refID := uuid.New()
	posts := &stubPosts{}
	up := &stubUploader{refs: []FileRef{{ID: refID}}}
	ed := New(posts, up)

	d := textDraft(uuid.New())
	d.Feather = feather.Photo
	files := []File{{Name: "cat.jpg", ContentType: "image/jpeg", Data: strings.NewReader("xx"), Size: 2}}

	saved, err := ed.Save(context.Background(), d, files)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if up.calls != 1 {
		t.Errorf("upload calls = %d, want 1", up.calls)
	}
	want := "/upload/" + refID.String() + "/download"
	if saved.MediaURL == nil || *saved.MediaURL != want {
		t.Errorf("media_url = %v, want %q", saved.MediaURL, want)
	}
}

// TestSaveEditKeepsExistingMedia verifies that editing an asset-bearing
// post without selecting a new file skips upload and reuses the old URL.
func TestSaveEditKeepsExistingMedia(t *testing.T) {
	posts := &stubPosts{}
	up := &stubUploader{}
	ed := New(posts, up)

	d := textDraft(uuid.New())
	d.ID = uuid.New()
	d.Slug = "existing-photo-7"
	d.Feather = feather.Photo
	d.MediaURL = "/upload/11111111-2222-3333-4444-555555555555/download"

	saved, err := ed.Save(context.Background(), d, nil)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if up.calls != 0 {
		t.Errorf("uploader called %d times with no file selected", up.calls)
	}
	if posts.updates != 1 {
		t.Errorf("updates = %d, want 1", posts.updates)
	}
	if saved.MediaURL == nil || *saved.MediaURL != d.MediaURL {
		t.Errorf("media_url = %v, want existing %q", saved.MediaURL, d.MediaURL)
	}
}

// TestSaveRejectsOverlapping verifies the double-submit guard: a second
// save for the same post while one is in flight returns ErrSaveInFlight.
func TestSaveRejectsOverlapping(t *testing.T) {
	block := make(chan struct{})
	posts := &stubPosts{block: block}
	ed := New(posts, &stubUploader{})

	d := textDraft(uuid.New())
	d.ID = uuid.New()
	d.Slug = "busy-post-1"

	done := make(chan error, 1)
	go func() {
		_, err := ed.Save(context.Background(), d, nil)
		done <- err
	}()

	// Wait for the first save to take the in-flight slot.
	for {
		ed.mu.Lock()
		_, busy := ed.inFlight[d.ID]
		ed.mu.Unlock()
		if busy {
			break
		}
	}

	_, err := ed.Save(context.Background(), d, nil)
	if !errors.Is(err, ErrSaveInFlight) {
		t.Errorf("overlapping save err = %v, want ErrSaveInFlight", err)
	}

	close(block)
	if err := <-done; err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	// The slot is released; a subsequent save succeeds.
	if _, err := ed.Save(context.Background(), d, nil); err != nil {
		t.Errorf("save after release: %v", err)
	}
}

// TestDerivedSlug covers create-mode derivation and edit-mode stability.
func TestDerivedSlug(t *testing.T) {
	d := &Draft{Title: "Hello, World!", SlugToken: 42}
	if got := d.DerivedSlug(); got != "hello-world-42" {
		t.Errorf("create slug = %q, want %q", got, "hello-world-42")
	}

	// Explicit override wins in both modes.
	d.Slug = "my-own-slug"
	if got := d.DerivedSlug(); got != "my-own-slug" {
		t.Errorf("override slug = %q, want %q", got, "my-own-slug")
	}

	// Edit mode: the loaded slug stays verbatim while the title changes.
	d = &Draft{ID: uuid.New(), Title: "New Title Entirely", Slug: "original-slug-3"}
	if got := d.DerivedSlug(); got != "original-slug-3" {
		t.Errorf("edit slug = %q, want %q", got, "original-slug-3")
	}
}

func TestSaveValidation(t *testing.T) {
	posts := &stubPosts{}
	ed := New(posts, &stubUploader{})

	d := textDraft(uuid.New())
	d.Feather = "sculpture"
	if _, err := ed.Save(context.Background(), d, nil); err == nil {
		t.Error("expected error for unknown feather")
	}

	d = textDraft(uuid.Nil)
	if _, err := ed.Save(context.Background(), d, nil); err == nil {
		t.Error("expected error for missing author")
	}

	if posts.creates != 0 {
		t.Errorf("post collaborator invoked %d times on invalid drafts", posts.creates)
	}
}
