// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package prismic

import (
	"encoding/json"
	"fmt"
)

// Document is a single document as returned by the search endpoint. Data
// is kept raw and decoded by the caller into its own typed struct via
// DecodeData.
type Document struct {
	ID                   string          `json:"id"`
	UID                  string          `json:"uid"`
	Type                 string          `json:"type"`
	Href                 string          `json:"href"`
	Tags                 []string        `json:"tags"`
	Lang                 string          `json:"lang"`
	FirstPublicationDate *string         `json:"first_publication_date"`
	LastPublicationDate  *string         `json:"last_publication_date"`
	Data                 json.RawMessage `json:"data"`
}

// validate checks the fields every document must carry.
func (d *Document) validate() error {
	if d.ID == "" {
		return &SchemaError{Field: "id", Reason: "missing"}
	}
	if d.Type == "" {
		return &SchemaError{Field: "type", Reason: "missing"}
	}
	return nil
}

// DecodeData unmarshals the document's data payload into v. A missing or
// malformed payload is reported as a SchemaError.
func (d *Document) DecodeData(v any) error {
	if len(d.Data) == 0 || string(d.Data) == "null" {
		return &SchemaError{Field: "data", Reason: fmt.Sprintf("missing on document %s", d.ID)}
	}
	if err := json.Unmarshal(d.Data, v); err != nil {
		return &SchemaError{Field: "data", Reason: err.Error()}
	}
	return nil
}

// SearchResponse is one page of a search. NextPage is the opaque cursor to
// the following page, nil on the last one.
type SearchResponse struct {
	Page             int        `json:"page"`
	ResultsPerPage   int        `json:"results_per_page"`
	ResultsSize      int        `json:"results_size"`
	TotalResultsSize int        `json:"total_results_size"`
	TotalPages       int        `json:"total_pages"`
	NextPage         *string    `json:"next_page"`
	PrevPage         *string    `json:"prev_page"`
	Results          []Document `json:"results"`
}

// decodeSearch parses and validates a search response body.
func decodeSearch(body []byte) (*SearchResponse, error) {
	var envelope struct {
		SearchResponse
		Results *[]Document `json:"results"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &SchemaError{Field: "results", Reason: "invalid JSON: " + err.Error()}
	}
	if envelope.Results == nil {
		return nil, &SchemaError{Field: "results", Reason: "missing"}
	}

	resp := envelope.SearchResponse
	resp.Results = *envelope.Results
	for i := range resp.Results {
		if err := resp.Results[i].validate(); err != nil {
			return nil, fmt.Errorf("result %d: %w", i, err)
		}
	}
	return &resp, nil
}

// apiRoot is the subset of the API root document the client needs.
type apiRoot struct {
	Refs []struct {
		ID          string `json:"id"`
		Ref         string `json:"ref"`
		Label       string `json:"label"`
		IsMasterRef bool   `json:"isMasterRef"`
	} `json:"refs"`
}

// errorBody covers both error shapes the API uses.
type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   string `json:"error"`
}
