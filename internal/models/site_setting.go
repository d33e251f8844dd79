// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import "time"

// Site setting keys. Extensions are stored alongside ordinary settings,
// namespaced with the "extension_" prefix.
const (
	SettingBlogTitle        = "blog_title"
	SettingShowSearch       = "show_search"
	SettingShowMarkdown     = "show_markdown"
	SettingShowRegistration = "show_registration"

	extensionPrefix = "extension_"
)

// ExtensionNames lists the independently toggleable platform features.
var ExtensionNames = []string{"comments", "likes", "views", "tags"}

// KnownExtension reports whether name is a recognized extension.
func KnownExtension(name string) bool {
	for _, n := range ExtensionNames {
		if n == name {
			return true
		}
	}
	return false
}

// ExtensionKey returns the settings key under which an extension toggle
// is stored.
func ExtensionKey(name string) string {
	return extensionPrefix + name
}

// SiteSetting represents a single configuration key-value pair.
type SiteSetting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SiteSettings is a convenience map for accessing settings by key.
type SiteSettings map[string]string

// Get returns the value for a key, or the fallback if the key doesn't exist.
func (s SiteSettings) Get(key, fallback string) string {
	if v, ok := s[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Bool returns the boolean value for a key, or the fallback if the key is
// absent or not a recognized boolean string.
func (s SiteSettings) Bool(key string, fallback bool) bool {
	switch s[key] {
	case "true", "1", "on":
		return true
	case "false", "0", "off":
		return false
	}
	return fallback
}

// ExtensionEnabled reports whether a named extension is toggled on.
func (s SiteSettings) ExtensionEnabled(name string) bool {
	return s.Bool(ExtensionKey(name), false)
}
