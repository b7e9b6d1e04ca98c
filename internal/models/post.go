// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package models defines the view models handed to the page templates.
// They mirror the shape of the content API's publications documents after
// projection by the format package.
package models

import "spacetraveling/internal/richtext"

// PublicationsType is the custom type id of blog posts in the content repository.
const PublicationsType = "publications"

// Post is the list-view projection of a publication.
type Post struct {
	UID                  string   `json:"uid"`
	FirstPublicationDate *string  `json:"first_publication_date"`
	Data                 PostData `json:"data"`
}

// PostData is the list-view payload.
type PostData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
}

// PostsPagination is one page of posts plus the opaque cursor to the next
// page. A nil NextPage means there are no further pages.
type PostsPagination struct {
	NextPage *string `json:"next_page"`
	Results  []Post  `json:"results"`
}

// PostDetail is the full projection used by the post page.
type PostDetail struct {
	UID                  string         `json:"uid"`
	FirstPublicationDate *string        `json:"first_publication_date"`
	Data                 PostDetailData `json:"data"`
}

// PostDetailData extends PostData with the banner and the body sections.
type PostDetailData struct {
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	Author   string         `json:"author"`
	Banner   Banner         `json:"banner"`
	Content  []ContentBlock `json:"content"`
}

// Banner is the post's header image.
type Banner struct {
	URL string `json:"url"`
	Alt string `json:"alt,omitempty"`
}

// ContentBlock is one section of a post: an optional heading followed by
// rich text.
type ContentBlock struct {
	Heading string            `json:"heading"`
	Body    richtext.RichText `json:"body"`
}
