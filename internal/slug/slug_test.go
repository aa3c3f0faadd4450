package slug

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var asciiSlugRegex = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

func TestMake(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"punctuation and year", "Hello, World! 2024", "hello-world-2024"},
		{"empty", "", ""},
		{"only symbols", "!!! ??? ***", ""},
		{"surrounding separators", "  --Go_is__fun--  ", "go-is-fun"},
		{"mixed whitespace", "tabs\tand\nnewlines", "tabs-and-newlines"},
		{"unicode letters kept", "Café Crème", "café-crème"},
		{"hyphen runs collapse", "a - - b", "a-b"},
		{"digits only", "2024", "2024"},
		{"apostrophes dropped", "Don't Stop", "dont-stop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.in))
		})
	}
}

func TestMake_OutputShape(t *testing.T) {
	inputs := []string{
		"Hello, World! 2024",
		"__leading and trailing__",
		"Multiple   spaces\tand_underscores-and-hyphens",
		"#hashtag @mention $money 100%",
		"UPPER lower MiXeD",
		"---",
		"   ",
	}

	for _, in := range inputs {
		got := Make(in)
		if got == "" {
			continue
		}
		assert.Truef(t, asciiSlugRegex.MatchString(got), "Make(%q) = %q is not a clean slug", in, got)
		assert.False(t, strings.HasPrefix(got, "-"))
		assert.False(t, strings.HasSuffix(got, "-"))
		assert.NotContains(t, got, "--")
	}
}

func TestMake_Deterministic(t *testing.T) {
	in := "The Same Title, Twice"
	assert.Equal(t, Make(in), Make(in))
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, "post", WithSuffix("post", 0))
	assert.Equal(t, "post-1", WithSuffix("post", 1))
	assert.Equal(t, "post-12", WithSuffix("post", 12))
}

func TestStripTags(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "just words", "just words"},
		{"inline markup", "<p>Hello <strong>there</strong></p>", "Hello there"},
		{"entities decoded", "Fish &amp; Chips", "Fish & Chips"},
		{"script dropped", "before<script>alert(1)</script>after", "beforeafter"},
		{"paragraphs separate words", "<p>one</p><p>two</p>", "one  two"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripTags(tt.in))
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t"))
	assert.Equal(t, 3, WordCount("one two  three"))
	assert.Equal(t, 2, WordCount(StripTags("<p>one</p><p>two</p>")))
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "short text", Excerpt("<p>short text</p>", 180))

	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	got := Excerpt(long, 20)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "word word word word…", got)
}

func TestMake_Idempotent(t *testing.T) {
	for _, in := range []string{"Café Olé", "My Custom_Slug", "Ñandú día 2", "  --Already--Slugged--  "} {
		once := Make(in)
		assert.Equal(t, once, Make(once), in)
	}
	assert.Equal(t, "café-olé", Make("café-olé"))
}
