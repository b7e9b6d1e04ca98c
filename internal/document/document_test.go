// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package document

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"spacetraveling/internal/models"
	"spacetraveling/internal/prismic"
	"spacetraveling/internal/richtext"
)

// fakeClient models a repository of publications in publication order.
type fakeClient struct {
	mu          sync.Mutex
	ordered     []string // uids, oldest first
	err         error
	masterErr   error
	masterCalls int
	queries     []prismic.QueryOptions
	uidRefs     []string
}

const masterRef = "master~7"

func (f *fakeClient) MasterRef(context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.masterCalls++
	if f.masterErr != nil {
		return "", f.masterErr
	}
	return masterRef, nil
}

func doc(uid string) prismic.Document {
	return prismic.Document{
		ID:   "id-" + uid,
		UID:  uid,
		Type: models.PublicationsType,
		Data: []byte(fmt.Sprintf(`{"title":"Post %s","author":"autor","banner":{"url":"https://img/%s.png"},"content":[{"heading":"Seção","body":[{"type":"paragraph","text":"um dois três","spans":[]}]}]}`, uid, uid)),
	}
}

func (f *fakeClient) GetByUID(_ context.Context, docType, uid string, opts prismic.QueryOptions) (*prismic.Document, error) {
	f.mu.Lock()
	f.uidRefs = append(f.uidRefs, opts.Ref)
	f.mu.Unlock()
	if docType != models.PublicationsType {
		return nil, fmt.Errorf("unexpected type %q", docType)
	}
	for _, u := range f.ordered {
		if u == uid {
			d := doc(u)
			return &d, nil
		}
	}
	return nil, prismic.ErrNotFound
}

func (f *fakeClient) Query(_ context.Context, _ []prismic.Predicate, opts prismic.QueryOptions) (*prismic.SearchResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, opts)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	order := append([]string(nil), f.ordered...)
	if opts.Orderings == prismic.OrderByFirstPublicationDesc {
		for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
			order[i], order[j] = order[j], order[i]
		}
	}
	if opts.After != "" {
		for i, u := range order {
			if "id-"+u == opts.After {
				order = order[i+1:]
				break
			}
		}
	}
	if opts.PageSize > 0 && len(order) > opts.PageSize {
		order = order[:opts.PageSize]
	}

	resp := &prismic.SearchResponse{}
	for _, u := range order {
		resp.Results = append(resp.Results, doc(u))
	}
	return resp, nil
}

func TestStaticPaths_FirstPageOnly(t *testing.T) {
	c := &fakeClient{ordered: []string{"a", "b", "c", "d"}}

	paths, err := New(c).StaticPaths(context.Background())
	if err != nil {
		t.Fatalf("StaticPaths: %v", err)
	}
	if !slices.Equal(paths, []string{"a", "b"}) {
		t.Errorf("paths = %v, want [a b]", paths)
	}
	if len(c.queries) != 1 {
		t.Fatalf("got %d queries, want 1", len(c.queries))
	}
	if c.queries[0].PageSize != 2 || c.queries[0].Ref != "" {
		t.Errorf("query opts = %+v", c.queries[0])
	}
}

func neighbourUID(p *models.Post) string {
	if p == nil {
		return ""
	}
	return p.UID
}

func TestLoad_Neighbours(t *testing.T) {
	c := &fakeClient{ordered: []string{"first", "middle", "last"}}
	wf := New(c)

	tests := []struct {
		uid      string
		wantPrev string
		wantNext string
	}{
		{uid: "first", wantPrev: "", wantNext: "middle"},
		{uid: "middle", wantPrev: "first", wantNext: "last"},
		{uid: "last", wantPrev: "middle", wantNext: ""},
	}
	for _, tt := range tests {
		t.Run(tt.uid, func(t *testing.T) {
			props, err := wf.Load(context.Background(), tt.uid, "")
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if props.Post.UID != tt.uid {
				t.Errorf("post uid = %q", props.Post.UID)
			}
			if props.Preview {
				t.Error("published load marked as preview")
			}
			if got := neighbourUID(props.PrevPost); got != tt.wantPrev {
				t.Errorf("prev = %q, want %q", got, tt.wantPrev)
			}
			if got := neighbourUID(props.NextPost); got != tt.wantNext {
				t.Errorf("next = %q, want %q", got, tt.wantNext)
			}
		})
	}
}

func TestLoad_NeighbourQueries(t *testing.T) {
	c := &fakeClient{ordered: []string{"a", "b"}}
	props, err := New(c).Load(context.Background(), "a", "preview-ref")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !props.Preview {
		t.Error("preview ref not marked as preview")
	}
	if c.masterCalls != 0 {
		t.Errorf("preview load resolved the master ref %d times", c.masterCalls)
	}
	if !slices.Equal(c.uidRefs, []string{"preview-ref"}) {
		t.Errorf("uid refs = %v", c.uidRefs)
	}

	if len(c.queries) != 2 {
		t.Fatalf("got %d neighbour queries, want 2", len(c.queries))
	}
	orderings := map[string]bool{}
	for _, q := range c.queries {
		if q.After != "id-a" || q.Ref != "preview-ref" {
			t.Errorf("neighbour query = %+v", q)
		}
		orderings[q.Orderings] = true
	}
	if !orderings[prismic.OrderByFirstPublicationAsc] || !orderings[prismic.OrderByFirstPublicationDesc] {
		t.Errorf("orderings = %v, want both directions", orderings)
	}
}

func TestLoad_PublishedReadsOneRelease(t *testing.T) {
	c := &fakeClient{ordered: []string{"a", "b", "c"}}
	props, err := New(c).Load(context.Background(), "b", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if props.Preview {
		t.Error("resolved master ref must not mark the page as a preview")
	}
	if c.masterCalls != 1 {
		t.Errorf("master ref resolved %d times, want 1", c.masterCalls)
	}
	if !slices.Equal(c.uidRefs, []string{masterRef}) {
		t.Errorf("uid refs = %v, want [%s]", c.uidRefs, masterRef)
	}
	for _, q := range c.queries {
		if q.Ref != masterRef {
			t.Errorf("neighbour ref = %q, want %q", q.Ref, masterRef)
		}
	}
}

func TestLoad_MasterRefError(t *testing.T) {
	c := &fakeClient{ordered: []string{"a"}, masterErr: prismic.ErrNoMasterRef}
	if _, err := New(c).Load(context.Background(), "a", ""); !errors.Is(err, prismic.ErrNoMasterRef) {
		t.Fatalf("err = %v, want ErrNoMasterRef", err)
	}
	if len(c.uidRefs) != 0 || len(c.queries) != 0 {
		t.Error("no document query should run without a ref")
	}
}

// TestLoad_OneAPIRootRoundTrip runs Load against the real client and
// counts requests to the API root.
func TestLoad_OneAPIRootRoundTrip(t *testing.T) {
	var roots atomic.Int32
	var refs sync.Map
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2", func(w http.ResponseWriter, r *http.Request) {
		roots.Add(1)
		fmt.Fprint(w, `{"refs":[{"id":"master","ref":"master~9","isMasterRef":true}]}`)
	})
	mux.HandleFunc("/api/v2/documents/search", func(w http.ResponseWriter, r *http.Request) {
		refs.Store(r.URL.Query().Get("ref"), true)
		d := doc("a")
		fmt.Fprintf(w, `{"results":[{"id":%q,"uid":%q,"type":%q,"data":%s}]}`, d.ID, d.UID, d.Type, d.Data)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := prismic.New(srv.URL+"/api/v2", prismic.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("prismic.New: %v", err)
	}
	if _, err := New(client).Load(context.Background(), "a", ""); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if n := roots.Load(); n != 1 {
		t.Errorf("API root fetched %d times, want 1", n)
	}
	var seen []string
	refs.Range(func(k, _ any) bool {
		seen = append(seen, k.(string))
		return true
	})
	if !slices.Equal(seen, []string{"master~9"}) {
		t.Errorf("search refs = %v, want only master~9", seen)
	}
}

func TestLoad_NotFound(t *testing.T) {
	c := &fakeClient{ordered: []string{"a"}}
	if _, err := New(c).Load(context.Background(), "missing", ""); !errors.Is(err, prismic.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(c.queries) != 0 {
		t.Error("neighbours are not queried for a missing post")
	}
}

func TestLoad_NeighbourErrorPropagates(t *testing.T) {
	boom := errors.New("api down")
	c := &fakeClient{ordered: []string{"a"}, err: boom}
	if _, err := New(c).Load(context.Background(), "a", ""); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestLoad_ReadingTime(t *testing.T) {
	c := &fakeClient{ordered: []string{"a"}}
	props, err := New(c).Load(context.Background(), "a", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	// "Seção" + "um dois três" = 4 words.
	if props.ReadingTime != 1 {
		t.Errorf("reading time = %d, want 1", props.ReadingTime)
	}
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("palavra ", n))
}

func body(text string) richtext.RichText {
	return richtext.RichText{{Type: richtext.TypeParagraph, Text: text}}
}

func TestReadingTime(t *testing.T) {
	tests := []struct {
		name    string
		content []models.ContentBlock
		want    int
	}{
		{"no content", nil, 0},
		{"empty sections", []models.ContentBlock{{}, {Heading: ""}}, 0},
		{"one word", []models.ContentBlock{{Body: body("olá")}}, 1},
		{"200 body words", []models.ContentBlock{{Body: body(words(200))}}, 1},
		{"201 body words", []models.ContentBlock{{Body: body(words(201))}}, 2},
		{
			"198 body words plus 2 heading words",
			[]models.ContentBlock{{Heading: "Dois títulos", Body: body(words(198))}},
			1,
		},
		{
			"198 body words plus 3 heading words",
			[]models.ContentBlock{{Heading: "Três palavras aqui", Body: body(words(198))}},
			2,
		},
		{
			"headingless sections add only body words",
			[]models.ContentBlock{{Body: body(words(150))}, {Body: body(words(50))}},
			1,
		},
		{
			"body split over blocks",
			[]models.ContentBlock{{Body: richtext.RichText{
				{Type: richtext.TypeParagraph, Text: words(100)},
				{Type: richtext.TypeParagraph, Text: words(101)},
			}}},
			2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadingTime(tt.content); got != tt.want {
				t.Errorf("ReadingTime() = %d, want %d", got, tt.want)
			}
		})
	}
}
