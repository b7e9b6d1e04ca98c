// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package format projects raw content API documents into the view models
// used by the templates and formats publication dates for display.
package format

import (
	"fmt"
	"time"

	"spacetraveling/internal/models"
	"spacetraveling/internal/prismic"
	"spacetraveling/internal/richtext"
)

// publicationData is the data payload of a publications document.
type publicationData struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Author   string `json:"author"`
	Banner   struct {
		URL string `json:"url"`
		Alt string `json:"alt"`
	} `json:"banner"`
	Content []struct {
		Heading string            `json:"heading"`
		Body    richtext.RichText `json:"body"`
	} `json:"content"`
}

// PostsResponse projects every result of a search to the list view. The
// output has the same length and order as resp.Results.
func PostsResponse(resp *prismic.SearchResponse) ([]models.Post, error) {
	posts := make([]models.Post, 0, len(resp.Results))
	for i := range resp.Results {
		p, err := Post(&resp.Results[i])
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// Post projects a single document to the list view.
func Post(doc *prismic.Document) (models.Post, error) {
	var data publicationData
	if err := doc.DecodeData(&data); err != nil {
		return models.Post{}, fmt.Errorf("format post %s: %w", doc.ID, err)
	}
	return models.Post{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		Data: models.PostData{
			Title:    data.Title,
			Subtitle: data.Subtitle,
			Author:   data.Author,
		},
	}, nil
}

// PostDetail projects a document to the full post view.
func PostDetail(doc *prismic.Document) (*models.PostDetail, error) {
	var data publicationData
	if err := doc.DecodeData(&data); err != nil {
		return nil, fmt.Errorf("format post detail %s: %w", doc.ID, err)
	}

	content := make([]models.ContentBlock, 0, len(data.Content))
	for _, c := range data.Content {
		content = append(content, models.ContentBlock{Heading: c.Heading, Body: c.Body})
	}

	return &models.PostDetail{
		UID:                  doc.UID,
		FirstPublicationDate: doc.FirstPublicationDate,
		Data: models.PostDetailData{
			Title:    data.Title,
			Subtitle: data.Subtitle,
			Author:   data.Author,
			Banner:   models.Banner{URL: data.Banner.URL, Alt: data.Banner.Alt},
			Content:  content,
		},
	}, nil
}

// shortMonths are the pt-BR month abbreviations, capitalized for display.
var shortMonths = [...]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun",
	"Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// timestampLayouts are the layouts accepted by CreatedAtInfo. The API
// writes offsets without a colon ("+0000").
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02",
}

// CreatedAtInfo renders an ISO-8601 timestamp as "dd MMM yyyy" with the
// Portuguese month abbreviation, e.g. "15 Mar 2021". The calendar date is
// taken in the timestamp's own offset.
func CreatedAtInfo(dateString string) (string, error) {
	t, err := parseTimestamp(dateString)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d %s %d", t.Day(), shortMonths[t.Month()-1], t.Year()), nil
}

// DisplayDate formats a nullable publication date. A nil date (an
// unpublished document seen in preview) renders as an empty string.
func DisplayDate(date *string) (string, error) {
	if date == nil {
		return "", nil
	}
	return CreatedAtInfo(*date)
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("format date: cannot parse %q as a timestamp", s)
}
