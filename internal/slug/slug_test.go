package slug

import (
	"strings"
	"testing"
)

// TestGenerate exercises the slug generator with typical titles, special
// characters, whitespace, and edge cases.
func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		// --- Normal titles ---
		{
			name:  "simple two words",
			input: "Hello World",
			want:  "hello-world",
		},
		{
			name:  "punctuation collapsed",
			input: "Hello, World!",
			want:  "hello-world",
		},
		{
			name:  "already lowercase",
			input: "already lowercase",
			want:  "already-lowercase",
		},
		{
			name:  "title with year",
			input: "Hello World 2026",
			want:  "hello-world-2026",
		},
		{
			name:  "mixed case sentence",
			input: "The Quick Brown Fox Jumps Over the Lazy Dog",
			want:  "the-quick-brown-fox-jumps-over-the-lazy-dog",
		},

		// --- Runs of separators ---
		{
			name:  "decorated title",
			input: "  ***Already--Clean***  ",
			want:  "already-clean",
		},
		{
			name:  "ampersand and at sign",
			input: "Rock & Roll @ the Arena",
			want:  "rock-roll-the-arena",
		},
		{
			name:  "multiple consecutive spaces",
			input: "hello    world",
			want:  "hello-world",
		},
		{
			name:  "tabs and newlines",
			input: "hello\t\nworld",
			want:  "hello-world",
		},
		{
			name:  "apostrophe splits run",
			input: "How's it going?",
			want:  "how-s-it-going",
		},

		// --- Edge cases ---
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only special characters",
			input: "!@#$%^&*()",
			want:  "",
		},
		{
			name:  "only spaces",
			input: "     ",
			want:  "",
		},
		{
			name:  "single character",
			input: "A",
			want:  "a",
		},
		{
			name:  "unicode stripped",
			input: "café déjà vu",
			want:  "caf-d-j-vu",
		},

		// --- Length cap ---
		{
			name:  "truncated to fifty characters",
			input: strings.Repeat("abcde ", 20),
			want:  "abcde-abcde-abcde-abcde-abcde-abcde-abcde-abcde-ab",
		},
		{
			name:  "truncation strips trailing hyphen",
			input: strings.Repeat("abcd ", 20),
			want:  "abcd-abcd-abcd-abcd-abcd-abcd-abcd-abcd-abcd-abcd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Generate(tt.input)
			if got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestGenerateCharset verifies the slug charset invariant: lowercase
// alphanumerics with single interior hyphens, no leading/trailing hyphens,
// capped at 50 characters.
func TestGenerateCharset(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"  ***Already--Clean***  ",
		"1 + 1 = 2",
		strings.Repeat("Go! ", 40),
		"--- --- ---",
	}

	for _, input := range inputs {
		got := Generate(input)
		if len(got) > maxBaseLen {
			t.Errorf("Generate(%q) = %q exceeds %d chars", input, got, maxBaseLen)
		}
		if strings.HasPrefix(got, "-") || strings.HasSuffix(got, "-") {
			t.Errorf("Generate(%q) = %q has leading/trailing hyphen", input, got)
		}
		if strings.Contains(got, "--") {
			t.Errorf("Generate(%q) = %q contains consecutive hyphens", input, got)
		}
		for _, r := range got {
			if !(r == '-' || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
				t.Errorf("Generate(%q) = %q contains illegal rune %q", input, got, r)
			}
		}
	}
}

// TestGenerateDeterministic verifies that for a fixed token the full slug
// is a pure function of the title.
func TestGenerateDeterministic(t *testing.T) {
	const token = 42

	a := WithToken(Generate("Hello, World!"), token)
	b := WithToken(Generate("Hello, World!"), token)

	if a != b {
		t.Errorf("same title and token produced %q and %q", a, b)
	}
	if a != "hello-world-42" {
		t.Errorf("got %q, want %q", a, "hello-world-42")
	}
}

// TestWithTokenEmptyBase verifies that a title with no alphanumeric
// characters still produces a legal identifier.
func TestWithTokenEmptyBase(t *testing.T) {
	got := WithToken(Generate("***"), 7)
	if got != "7" {
		t.Errorf("got %q, want %q", got, "7")
	}
}

// TestNewTokenRange verifies tokens stay small enough to read in a URL.
func TestNewTokenRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok := NewToken()
		if tok < 0 || tok >= 1000 {
			t.Fatalf("token %d out of range [0,1000)", tok)
		}
	}
}

// TestGenerateIdempotent verifies that generating a slug from an already
// valid slug produces the same result.
func TestGenerateIdempotent(t *testing.T) {
	slugs := []string{
		"hello-world",
		"my-blog-post-2026",
		"a",
		"123",
	}

	for _, s := range slugs {
		t.Run(s, func(t *testing.T) {
			got := Generate(s)
			if got != s {
				t.Errorf("Generate(%q) = %q, want idempotent result %q", s, got, s)
			}
		})
	}
}
