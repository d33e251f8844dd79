// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package site holds the process-wide site context: blog title, enabled
// extensions, site settings, and the shape of the site-info response. It
// replaces ambient global state with an injected service that has a fixed
// initialization point (Load at startup) and a small set of named mutation
// entry points. The settings snapshot is replaced wholesale on every
// mutation, never patched incrementally.
package site

import (
	"fmt"
	"sync"

	"featherpress/internal/models"
)

// SettingSource is the persistence boundary for site settings.
type SettingSource interface {
	All() (models.SiteSettings, error)
	SetMany(settings map[string]string) error
}

// Settings is the typed view of the toggleable site settings.
type Settings struct {
	ShowSearch       bool `json:"show_search"`
	ShowMarkdown     bool `json:"show_markdown"`
	ShowRegistration bool `json:"show_registration"`
}

// Info is the site-info response: everything a client needs to boot.
// User is nil when the request is unauthenticated.
type Info struct {
	BlogTitle  string       `json:"blog_title"`
	Extensions []string     `json:"extensions"`
	Settings   Settings     `json:"settings"`
	User       *models.User `json:"user"`
}

// Service owns the in-memory settings snapshot. Reads are concurrent;
// writes happen only through UpdateSettings and SetExtension, which
// persist first and then replace the snapshot from the source of truth.
type Service struct {
	source SettingSource

	mu       sync.RWMutex
	snapshot models.SiteSettings
}

// NewService creates a site service over the given setting source.
// Call Load before serving requests.
func NewService(source SettingSource) *Service {
	return &Service{source: source, snapshot: models.SiteSettings{}}
}

// Load fetches the settings snapshot from the source. Called once at
// startup and again internally after every mutation.
func (s *Service) Load() error {
	settings, err := s.source.All()
	if err != nil {
		return fmt.Errorf("load site settings: %w", err)
	}
	s.mu.Lock()
	s.snapshot = settings
	s.mu.Unlock()
	return nil
}

// Info assembles the site-info response for the given viewer.
func (s *Service) Info(user *models.User) Info {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	info := Info{
		BlogTitle:  snap.Get(models.SettingBlogTitle, "My Awesome Blog"),
		Extensions: []string{},
		Settings: Settings{
			ShowSearch:       snap.Bool(models.SettingShowSearch, true),
			ShowMarkdown:     snap.Bool(models.SettingShowMarkdown, true),
			ShowRegistration: snap.Bool(models.SettingShowRegistration, false),
		},
		User: user,
	}
	for _, name := range models.ExtensionNames {
		if snap.ExtensionEnabled(name) {
			info.Extensions = append(info.Extensions, name)
		}
	}
	return info
}

// ExtensionEnabled reports whether a named extension is currently on.
func (s *Service) ExtensionEnabled(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.ExtensionEnabled(name)
}

// MarkdownEnabled reports whether markdown rendering is turned on.
func (s *Service) MarkdownEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Bool(models.SettingShowMarkdown, true)
}

// SettingsUpdate carries a settings mutation. Nil fields are left alone.
type SettingsUpdate struct {
	BlogTitle        *string `json:"blog_title"`
	ShowSearch       *bool   `json:"show_search"`
	ShowMarkdown     *bool   `json:"show_markdown"`
	ShowRegistration *bool   `json:"show_registration"`
}

// UpdateSettings persists the changed settings and reloads the snapshot.
func (s *Service) UpdateSettings(u SettingsUpdate) error {
	changes := map[string]string{}
	if u.BlogTitle != nil {
		changes[models.SettingBlogTitle] = *u.BlogTitle
	}
	if u.ShowSearch != nil {
		changes[models.SettingShowSearch] = boolString(*u.ShowSearch)
	}
	if u.ShowMarkdown != nil {
		changes[models.SettingShowMarkdown] = boolString(*u.ShowMarkdown)
	}
	if u.ShowRegistration != nil {
		changes[models.SettingShowRegistration] = boolString(*u.ShowRegistration)
	}
	if len(changes) == 0 {
		return nil
	}
	if err := s.source.SetMany(changes); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return s.Load()
}

// SetExtension toggles a named extension and reloads the snapshot.
func (s *Service) SetExtension(name string, enabled bool) error {
	if !models.KnownExtension(name) {
		return fmt.Errorf("unknown extension %q", name)
	}
	if err := s.source.SetMany(map[string]string{
		models.ExtensionKey(name): boolString(enabled),
	}); err != nil {
		return fmt.Errorf("set extension %s: %w", name, err)
	}
	return s.Load()
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
