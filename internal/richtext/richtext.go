// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package richtext renders Prismic structured text (the "rich text" field
// type) to plain text and to HTML. HTML output is built as an
// x/net/html node tree and serialized with html.Render, so every text
// fragment and attribute coming from the CMS is escaped on the way out.
package richtext

import (
	"sort"
	"strings"
	"unicode/utf16"
)

// Block types emitted by the Prismic rich text field.
const (
	TypeHeading1     = "heading1"
	TypeHeading2     = "heading2"
	TypeHeading3     = "heading3"
	TypeHeading4     = "heading4"
	TypeHeading5     = "heading5"
	TypeHeading6     = "heading6"
	TypeParagraph    = "paragraph"
	TypePreformatted = "preformatted"
	TypeListItem     = "list-item"
	TypeOListItem    = "o-list-item"
	TypeImage        = "image"
	TypeEmbed        = "embed"
)

// Span types.
const (
	SpanStrong    = "strong"
	SpanEm        = "em"
	SpanHyperlink = "hyperlink"
	SpanLabel     = "label"
)

// Link types carried by hyperlink spans.
const (
	LinkWeb      = "Web"
	LinkDocument = "Document"
	LinkMedia    = "Media"
)

// RichText is an ordered sequence of blocks as returned by the API.
type RichText []Block

// Block is one paragraph-level element. Only the fields relevant to its
// Type are populated.
type Block struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Spans  []Span `json:"spans"`
	URL    string `json:"url,omitempty"`
	Alt    string `json:"alt,omitempty"`
	OEmbed *Embed `json:"oembed,omitempty"`
}

// Span is an inline mark over Text. Start and End are offsets in UTF-16
// code units, which is how the API counts them.
type Span struct {
	Start int       `json:"start"`
	End   int       `json:"end"`
	Type  string    `json:"type"`
	Data  *SpanData `json:"data,omitempty"`
}

// SpanData holds hyperlink targets and label names.
type SpanData struct {
	LinkType string `json:"link_type,omitempty"`
	URL      string `json:"url,omitempty"`
	Target   string `json:"target,omitempty"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	UID      string `json:"uid,omitempty"`
	Label    string `json:"label,omitempty"`
}

// Embed is the oEmbed payload of an embed block.
type Embed struct {
	Type     string `json:"type"`
	EmbedURL string `json:"embed_url"`
	HTML     string `json:"html"`
}

// LinkResolver maps a document link to a site path.
type LinkResolver func(link *SpanData) string

// AsText concatenates the text of every block, separated by sep.
func AsText(rt RichText, sep string) string {
	parts := make([]string, 0, len(rt))
	for _, b := range rt {
		parts = append(parts, b.Text)
	}
	return strings.Join(parts, sep)
}

// WordCount counts whitespace-separated words across all blocks.
func WordCount(rt RichText) int {
	return len(strings.Fields(AsText(rt, " ")))
}

// normalizedSpans returns a copy of spans that fall inside a text of
// length n, ordered by start ascending and, for equal starts, by end
// descending so that the widest span becomes the outer element.
func normalizedSpans(spans []Span, n int) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		if sp.Start < 0 {
			sp.Start = 0
		}
		if sp.End > n {
			sp.End = n
		}
		if sp.Start >= sp.End {
			continue
		}
		out = append(out, sp)
	}
	sortSpans(out)
	return out
}

func sortSpans(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End > spans[j].End
	})
}

// utf16Text pairs a block's text with its UTF-16 encoding so span offsets
// can be applied exactly.
type utf16Text []uint16

func encode(s string) utf16Text { return utf16.Encode([]rune(s)) }

func (t utf16Text) slice(start, end int) string {
	return string(utf16.Decode(t[start:end]))
}
