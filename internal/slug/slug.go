// Package slug turns free text into URL-safe identifiers and provides the small
// text helpers the article pipeline derives fields with.
package slug

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Make converts text into a slug. It lowercases, drops every rune that is not a
// letter, digit, whitespace, underscore or hyphen, collapses runs of
// whitespace/underscore/hyphen into one hyphen and trims hyphens from both ends.
// The result may be empty.
func Make(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsSpace(r) || r == '_' || r == '-':
			pendingSep = true
		}
	}
	return b.String()
}

// WithSuffix returns base with a numeric collision suffix appended
func WithSuffix(base string, n int) string {
	if n <= 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// block-level elements whose boundaries separate words
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Tr: true, atom.Td: true, atom.Th: true,
	atom.Section: true, atom.Article: true, atom.Figure: true, atom.Figcaption: true, atom.Hr: true,
}

// StripTags returns the text content of an HTML fragment with entities decoded.
// Script and style contents are dropped.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom == atom.Script || tok.DataAtom == atom.Style {
				if tok.Type == html.StartTagToken {
					skip++
				}
				continue
			}
			if blockAtoms[tok.DataAtom] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			tok := z.Token()
			if (tok.DataAtom == atom.Script || tok.DataAtom == atom.Style) && skip > 0 {
				skip--
				continue
			}
			if blockAtoms[tok.DataAtom] {
				b.WriteByte(' ')
			}
		}
	}
}

// WordCount counts whitespace-separated words in plain text
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Excerpt returns the first n runes of the fragment's text, cut on the rune
// boundary and suffixed with an ellipsis when truncated.
func Excerpt(fragment string, n int) string {
	text := strings.Join(strings.Fields(StripTags(fragment)), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimRightFunc(string(runes[:n]), unicode.IsSpace) + "…"
}
