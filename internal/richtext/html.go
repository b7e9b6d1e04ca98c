// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package richtext

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"spacetraveling/internal/slug"
)

// headingAtoms maps heading block types to their element.
var headingAtoms = map[string]atom.Atom{
	TypeHeading1: atom.H1,
	TypeHeading2: atom.H2,
	TypeHeading3: atom.H3,
	TypeHeading4: atom.H4,
	TypeHeading5: atom.H5,
	TypeHeading6: atom.H6,
}

// AsHTML renders rich text to an HTML fragment. Consecutive list items are
// grouped into a single <ul> or <ol>. Headings receive an id derived from
// their text. Unknown block types are skipped.
func AsHTML(rt RichText, resolve LinkResolver) (string, error) {
	root := &html.Node{Type: html.DocumentNode}

	var list *html.Node
	var listType string
	for _, b := range rt {
		if b.Type != TypeListItem && b.Type != TypeOListItem {
			list, listType = nil, ""
		}

		switch b.Type {
		case TypeParagraph:
			root.AppendChild(textElement(atom.P, b, resolve))
		case TypePreformatted:
			root.AppendChild(textElement(atom.Pre, b, resolve))
		case TypeHeading1, TypeHeading2, TypeHeading3, TypeHeading4, TypeHeading5, TypeHeading6:
			h := textElement(headingAtoms[b.Type], b, resolve)
			if id := slug.Generate(b.Text); id != "" {
				h.Attr = append(h.Attr, html.Attribute{Key: "id", Val: id})
			}
			root.AppendChild(h)
		case TypeListItem, TypeOListItem:
			if list == nil || listType != b.Type {
				a := atom.Ul
				if b.Type == TypeOListItem {
					a = atom.Ol
				}
				list, listType = element(a), b.Type
				root.AppendChild(list)
			}
			list.AppendChild(textElement(atom.Li, b, resolve))
		case TypeImage:
			if b.URL == "" {
				continue
			}
			p := element(atom.P, html.Attribute{Key: "class", Val: "block-img"})
			p.AppendChild(element(atom.Img,
				html.Attribute{Key: "src", Val: b.URL},
				html.Attribute{Key: "alt", Val: b.Alt},
			))
			root.AppendChild(p)
		case TypeEmbed:
			if b.OEmbed == nil {
				continue
			}
			div := element(atom.Div,
				html.Attribute{Key: "data-oembed", Val: b.OEmbed.EmbedURL},
				html.Attribute{Key: "data-oembed-type", Val: b.OEmbed.Type},
			)
			// oEmbed markup is produced by the provider and must not be escaped.
			div.AppendChild(&html.Node{Type: html.RawNode, Data: b.OEmbed.HTML})
			root.AppendChild(div)
		}
	}

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return "", fmt.Errorf("render rich text: %w", err)
		}
	}
	return buf.String(), nil
}

// element creates an element node with the given attributes.
func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

// textElement creates an element holding the block's text with its spans.
func textElement(a atom.Atom, b Block, resolve LinkResolver) *html.Node {
	el := element(a)
	text := encode(b.Text)
	appendSpans(el, text, 0, len(text), normalizedSpans(b.Spans, len(text)), resolve)
	return el
}

// appendSpans renders text[start:end] into parent, wrapping the ranges
// covered by spans. Spans that overlap without nesting are split at the
// outer span's end so the result stays well-formed.
func appendSpans(parent *html.Node, text utf16Text, start, end int, spans []Span, resolve LinkResolver) {
	pos := start
	for len(spans) > 0 {
		sp := spans[0]
		spans = spans[1:]

		if sp.Start < pos {
			sp.Start = pos
		}
		if sp.End > end {
			sp.End = end
		}
		if sp.Start >= sp.End {
			continue
		}
		if sp.Start > pos {
			appendText(parent, text.slice(pos, sp.Start))
		}

		var inner, rest []Span
		for _, c := range spans {
			if c.Start >= sp.End {
				rest = append(rest, c)
				continue
			}
			inner = append(inner, c)
			if c.End > sp.End {
				tail := c
				tail.Start = sp.End
				rest = append(rest, tail)
			}
		}
		sortSpans(rest)

		el := spanElement(sp, resolve)
		parent.AppendChild(el)
		appendSpans(el, text, sp.Start, sp.End, inner, resolve)

		pos = sp.End
		spans = rest
	}
	if pos < end {
		appendText(parent, text.slice(pos, end))
	}
}

// appendText adds s to parent, turning line breaks into <br> elements.
func appendText(parent *html.Node, s string) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			parent.AppendChild(element(atom.Br))
		}
		if line != "" {
			parent.AppendChild(&html.Node{Type: html.TextNode, Data: line})
		}
	}
}

// spanElement builds the wrapper element for an inline span.
func spanElement(sp Span, resolve LinkResolver) *html.Node {
	switch sp.Type {
	case SpanStrong:
		return element(atom.Strong)
	case SpanEm:
		return element(atom.Em)
	case SpanHyperlink:
		a := element(atom.A, html.Attribute{Key: "href", Val: linkURL(sp.Data, resolve)})
		if sp.Data != nil && sp.Data.Target != "" {
			a.Attr = append(a.Attr,
				html.Attribute{Key: "target", Val: sp.Data.Target},
				html.Attribute{Key: "rel", Val: "noopener"},
			)
		}
		return a
	case SpanLabel:
		el := element(atom.Span)
		if sp.Data != nil && sp.Data.Label != "" {
			el.Attr = append(el.Attr, html.Attribute{Key: "class", Val: sp.Data.Label})
		}
		return el
	default:
		return element(atom.Span)
	}
}

// linkURL returns the href for a hyperlink span.
func linkURL(d *SpanData, resolve LinkResolver) string {
	if d == nil {
		return ""
	}
	if d.LinkType == LinkDocument {
		if resolve == nil {
			return "/"
		}
		return resolve(d)
	}
	return d.URL
}
