// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation from post titles.
package slug

import (
	"math/rand"
	"regexp"
	"strconv"
	"strings"
)

// maxBaseLen caps the base slug before the uniqueness token is appended.
const maxBaseLen = 50

// nonAlphanumeric matches every maximal run of characters outside [a-z0-9].
var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly base slug from the given title.
// Example: "Hello, World! 2026" → "hello-world-2026". The output contains
// only lowercase letters, digits, and single hyphens between runs, with no
// leading or trailing hyphens, truncated to 50 characters. An empty or
// fully non-alphanumeric title yields "".
func Generate(title string) string {
	result := strings.ToLower(title)
	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > maxBaseLen {
		result = result[:maxBaseLen]
		// Truncation may leave a trailing hyphen behind.
		result = strings.TrimRight(result, "-")
	}
	return result
}

// WithToken appends a uniqueness token to a base slug. The result is still
// a legal slug even when the base is empty.
func WithToken(base string, token int) string {
	suffix := strconv.Itoa(token)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

// NewToken returns a small random uniqueness token. Callers pick one token
// per editing session and keep it stable until the session ends, so the
// slug is a pure function of the title for the duration of one create.
func NewToken() int {
	return rand.Intn(1000)
}
