// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package feather defines the content-kind model for posts. Each post is
// authored as exactly one "feather" (text, photo, uploader, link, quote,
// audio, video), and the feather decides which draft fields end up in the
// submission payload. Field state for inactive feathers is preserved but
// never submitted.
package feather

import "fmt"

// Kind is the content-kind tag of a post.
type Kind string

const (
	Text     Kind = "text"
	Photo    Kind = "photo"
	Uploader Kind = "uploader"
	Link     Kind = "link"
	Quote    Kind = "quote"
	Audio    Kind = "audio"
	Video    Kind = "video"
)

// Kinds lists every feather in display order.
var Kinds = []Kind{Text, Photo, Uploader, Link, Quote, Audio, Video}

// Valid reports whether k names a known feather.
func (k Kind) Valid() bool {
	switch k {
	case Text, Photo, Uploader, Link, Quote, Audio, Video:
		return true
	}
	return false
}

// AssetBearing reports whether this feather carries a binary asset that
// must be uploaded before the post record is written.
func (k Kind) AssetBearing() bool {
	switch k {
	case Photo, Uploader, Audio, Video:
		return true
	}
	return false
}

// MediaType returns the media-kind marker stored on posts of this feather,
// or "" for feathers without one.
func (k Kind) MediaType() string {
	switch k {
	case Photo:
		return "photo"
	case Uploader:
		return "file"
	case Audio:
		return "audio"
	case Video:
		return "video"
	}
	return ""
}

// Fields holds every authorable field of a draft, regardless of which
// feather is active. Switching feathers while authoring keeps all of this
// intact; only Payload decides what is submitted.
type Fields struct {
	Body        string // free-text body (text, link/audio/video description)
	LinkURL     string // link feather only
	Quote       string // quote feather body
	QuoteSource string // quote feather attribution
	Caption     string // uploader feather caption (distinct from Body)
}

// Payload is the feather-dependent slice of a draft that is actually
// submitted. Nil fields are absent from the submission; consumers must not
// read fields the active feather does not populate.
type Payload struct {
	Content     *string
	MediaType   *string
	QuoteSource *string
	LinkURL     *string
}

// Build computes the submission payload for the active feather. It is a
// total function over Kind: every feather is handled explicitly, and an
// unknown kind is an error rather than a silent empty payload.
func Build(k Kind, f Fields) (Payload, error) {
	switch k {
	case Text:
		return Payload{Content: ptr(f.Body)}, nil
	case Photo:
		// The media URL is attached by the save sequence after upload.
		return Payload{MediaType: ptr("photo")}, nil
	case Uploader:
		return Payload{MediaType: ptr("file"), Content: ptr(f.Caption)}, nil
	case Link:
		return Payload{LinkURL: ptr(f.LinkURL), Content: ptr(f.Body)}, nil
	case Quote:
		return Payload{Content: ptr(f.Quote), QuoteSource: ptr(f.QuoteSource)}, nil
	case Audio:
		return Payload{MediaType: ptr("audio"), Content: ptr(f.Body)}, nil
	case Video:
		return Payload{MediaType: ptr("video"), Content: ptr(f.Body)}, nil
	}
	return Payload{}, fmt.Errorf("unknown feather %q", k)
}

func ptr(s string) *string { return &s }
