// Package content turns user-authored Markdown into safe HTML and plain text.
package content

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

type Renderer struct {
	md     goldmark.Markdown
	ugc    *bluemonday.Policy
	strict *bluemonday.Policy
}

func NewRenderer() *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		ugc:    bluemonday.UGCPolicy(),
		strict: bluemonday.StrictPolicy(),
	}
}

// HTML renders Markdown and strips anything the UGC policy does not allow,
// including raw <script> and <iframe> blocks.
func (r *Renderer) HTML(src string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return r.ugc.Sanitize(html.EscapeString(src))
	}
	return r.ugc.Sanitize(buf.String())
}

const maxStripPasses = 5

// Sanitize strips markup from user input before it is stored. Text is kept
// unescaped so Markdown and plain punctuation survive.
func (r *Renderer) Sanitize(s string) string {
	return strings.TrimSpace(r.strip(s))
}

// strip removes tags until unescaping the result exposes no new markup, so
// entity-encoded tags cannot come back to life. Input that keeps changing is
// returned still escaped.
func (r *Renderer) strip(s string) string {
	out := s
	for i := 0; i < maxStripPasses; i++ {
		next := html.UnescapeString(r.strict.Sanitize(out))
		if next == out {
			return next
		}
		out = next
	}
	return r.strict.Sanitize(out)
}

// PlainText reduces content to whitespace-normalised text for indexing.
func (r *Renderer) PlainText(s string) string {
	s = strings.ReplaceAll(s, "</p>", " ")
	s = strings.ReplaceAll(s, "<br>", " ")
	s = strings.ReplaceAll(s, "</div>", " ")

	return strings.Join(strings.Fields(r.strip(s)), " ")
}
