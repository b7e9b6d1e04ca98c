// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"spacetraveling/internal/document"
	"spacetraveling/internal/models"
	"spacetraveling/internal/richtext"
)

func strPtr(s string) *string { return &s }

func homeData(next *string) *PageData {
	return &PageData{
		Title: "Home",
		Data: &models.PostsPagination{
			NextPage: next,
			Results: []models.Post{
				{
					UID:                  "como-utilizar-hooks",
					FirstPublicationDate: strPtr("2021-03-15T19:25:28+0000"),
					Data: models.PostData{
						Title:    "Como utilizar Hooks",
						Subtitle: "Pensando em sincronização em vez de ciclos de vida.",
						Author:   "Joseph Oliveira",
					},
				},
				{
					UID: "rascunho",
					Data: models.PostData{
						Title:  "Rascunho",
						Author: "Danilo Vieira",
					},
				},
			},
		},
	}
}

func postData(preview bool) *PageData {
	return &PageData{
		Title:   "Criando um app CRA do zero",
		Preview: preview,
		Data: &document.Props{
			Post: &models.PostDetail{
				UID:                  "criando-um-app-cra-do-zero",
				FirstPublicationDate: strPtr("2021-03-25T19:27:35+0000"),
				Data: models.PostDetailData{
					Title:  "Criando um app CRA do zero",
					Author: "Danilo Vieira",
					Banner: models.Banner{URL: "https://images.prismic.io/banner.png"},
					Content: []models.ContentBlock{
						{
							Heading: "Proin et varius",
							Body: richtext.RichText{
								{Type: richtext.TypeParagraph, Text: "Nullam dolor sapien", Spans: []richtext.Span{
									{Start: 0, End: 6, Type: richtext.SpanStrong},
								}},
							},
						},
						{
							Body: richtext.RichText{{Type: richtext.TypeParagraph, Text: "Sem título"}},
						},
					},
				},
			},
			PrevPost:    &models.Post{UID: "como-utilizar-hooks", Data: models.PostData{Title: "Como utilizar Hooks"}},
			Preview:     preview,
			ReadingTime: 4,
		},
	}
}

func parse(t *testing.T, body []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatalf("parse html: %v", err)
	}
	return doc
}

func mustNew(t *testing.T, devMode bool) *Renderer {
	t.Helper()
	rn, err := New(devMode)
	if err != nil {
		t.Fatalf("New(devMode=%v) returned error: %v", devMode, err)
	}
	return rn
}

// --------------------------------------------------------------------------
// TestNew verifies renderer creation in dev mode and prod mode
// --------------------------------------------------------------------------

func TestNew(t *testing.T) {
	for _, devMode := range []bool{true, false} {
		rn := mustNew(t, devMode)
		for _, name := range []string{"home", "post", "more", "fallback", "notfound", "redirect", "error"} {
			if _, ok := rn.templates[name]; !ok {
				t.Errorf("expected template %q to be parsed", name)
			}
		}
		for _, name := range []string{"base", "partials"} {
			if _, ok := rn.templates[name]; ok {
				t.Errorf("%s.html should not be registered as a separate template", name)
			}
		}
	}
}

func TestDevModeNoindex(t *testing.T) {
	tests := []struct {
		devMode bool
		want    int
	}{
		{true, 1},
		{false, 0},
	}
	for _, tt := range tests {
		body, err := mustNew(t, tt.devMode).Bytes("home", homeData(nil))
		if err != nil {
			t.Fatalf("Bytes: %v", err)
		}
		if got := parse(t, body).Find(`meta[name="robots"]`).Length(); got != tt.want {
			t.Errorf("devMode=%v: robots meta count = %d, want %d", tt.devMode, got, tt.want)
		}
	}
}

// --------------------------------------------------------------------------
// Home
// --------------------------------------------------------------------------

func TestHome(t *testing.T) {
	body, err := mustNew(t, false).Bytes("home", homeData(strPtr("https://repo.cdn.prismic.io/api/v2/documents/search?page=2")))
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	doc := parse(t, body)

	if got := doc.Find("title").Text(); got != "Home | spacetraveling" {
		t.Errorf("title: got %q", got)
	}

	cards := doc.Find("a.post-card")
	if cards.Length() != 2 {
		t.Fatalf("expected 2 post cards, got %d", cards.Length())
	}
	first := cards.First()
	if href, _ := first.Attr("href"); href != "/post/como-utilizar-hooks" {
		t.Errorf("card href: got %q", href)
	}
	if got := first.Find("strong").Text(); got != "Como utilizar Hooks" {
		t.Errorf("card title: got %q", got)
	}
	if got := first.Find("time").Text(); got != "15 Mar 2021" {
		t.Errorf("card date: got %q", got)
	}
	if got := first.Find(".author").Text(); got != "Joseph Oliveira" {
		t.Errorf("card author: got %q", got)
	}
	if got := cards.Eq(1).Find("time").Text(); got != "" {
		t.Errorf("unpublished card date: got %q, want empty", got)
	}

	btn := doc.Find("button.load-more")
	if btn.Length() != 1 {
		t.Fatal("expected the load more button")
	}
	if got := strings.TrimSpace(btn.Text()); got != "Carregar mais posts" {
		t.Errorf("button text: got %q", got)
	}
	if cursor, _ := btn.Attr("data-cursor"); cursor != "https://repo.cdn.prismic.io/api/v2/documents/search?page=2" {
		t.Errorf("cursor: got %q", cursor)
	}
	if doc.Find("aside.exit-preview").Length() != 0 {
		t.Error("exit preview link must only show in preview")
	}
}

func TestHomeLastPageHasNoButton(t *testing.T) {
	body, err := mustNew(t, false).Bytes("home", homeData(nil))
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if parse(t, body).Find("button.load-more").Length() != 0 {
		t.Error("expected no load more button without a next page")
	}
}

func TestMalformedDateFailsRender(t *testing.T) {
	data := homeData(nil)
	data.Data.(*models.PostsPagination).Results[0].FirstPublicationDate = strPtr("yesterday")

	if _, err := mustNew(t, false).Bytes("home", data); err == nil {
		t.Error("expected an error for a malformed date")
	}
}

func TestMoreFragment(t *testing.T) {
	body, err := mustNew(t, false).Bytes("more", homeData(strPtr("url3")))
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if strings.Contains(string(body), "<html") {
		t.Error("fragment must not contain the layout")
	}
	doc := parse(t, body)
	if doc.Find("a.post-card").Length() != 2 {
		t.Error("expected 2 post cards in fragment")
	}
	if cursor, _ := doc.Find("button.load-more").Attr("data-cursor"); cursor != "url3" {
		t.Errorf("cursor: got %q", cursor)
	}
}

// --------------------------------------------------------------------------
// Post
// --------------------------------------------------------------------------

func TestPost(t *testing.T) {
	body, err := mustNew(t, false).Bytes("post", postData(false))
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	doc := parse(t, body)

	if src, _ := doc.Find(".banner img").Attr("src"); src != "https://images.prismic.io/banner.png" {
		t.Errorf("banner: got %q", src)
	}
	if got := doc.Find("article h1").Text(); got != "Criando um app CRA do zero" {
		t.Errorf("h1: got %q", got)
	}
	if got := doc.Find(".post-info time").Text(); got != "25 Mar 2021" {
		t.Errorf("date: got %q", got)
	}
	if got := doc.Find(".reading-time").Text(); got != "4 min" {
		t.Errorf("reading time: got %q", got)
	}

	sections := doc.Find(".post-content section")
	if sections.Length() != 2 {
		t.Fatalf("expected 2 sections, got %d", sections.Length())
	}
	if got := sections.First().Find("h2").Text(); got != "Proin et varius" {
		t.Errorf("heading: got %q", got)
	}
	if sections.Eq(1).Find("h2").Length() != 0 {
		t.Error("a section without heading must not render an h2")
	}
	if got := sections.First().Find(".post-section p strong").Text(); got != "Nullam" {
		t.Errorf("rich text: got %q", got)
	}

	prev := doc.Find(".post-navigation .prev a")
	if href, _ := prev.Attr("href"); href != "/post/como-utilizar-hooks" {
		t.Errorf("prev href: got %q", href)
	}
	if got := prev.Find("span").Text(); got != "Post anterior" {
		t.Errorf("prev label: got %q", got)
	}
	if doc.Find(".post-navigation .next a").Length() != 0 {
		t.Error("expected no next link without a next post")
	}
}

func TestPostPreviewShowsExit(t *testing.T) {
	body, err := mustNew(t, false).Bytes("post", postData(true))
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	link := parse(t, body).Find("aside.exit-preview a")
	if href, _ := link.Attr("href"); href != "/api/exit-preview" {
		t.Errorf("exit href: got %q", href)
	}
	if got := link.Text(); got != "Sair do modo Preview" {
		t.Errorf("exit text: got %q", got)
	}
}

// --------------------------------------------------------------------------
// Standalone pages
// --------------------------------------------------------------------------

func TestFallback(t *testing.T) {
	body, err := mustNew(t, false).Bytes("fallback", &PageData{Title: "Carregando"})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	doc := parse(t, body)
	if got := doc.Find(".loading").Text(); got != "Carregando..." {
		t.Errorf("placeholder: got %q", got)
	}
	if content, _ := doc.Find(`meta[http-equiv="refresh"]`).Attr("content"); content != "2" {
		t.Errorf("refresh: got %q", content)
	}
}

func TestRedirectEscapesDestination(t *testing.T) {
	rn := mustNew(t, false)

	body, err := rn.Bytes("redirect", &PageData{Data: "/post/xyz"})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	doc := parse(t, body)
	if content, _ := doc.Find("meta").Attr("content"); content != "0; url=/post/xyz" {
		t.Errorf("refresh: got %q", content)
	}
	if !strings.Contains(doc.Find("script").Text(), `"\/post\/xyz"`) {
		t.Errorf("script must carry the destination as a JS string: %s", body)
	}

	body, err = rn.Bytes("redirect", &PageData{Data: `/post/x'</script><script>alert(1)</script>`})
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if strings.Contains(string(body), "<script>alert(1)") {
		t.Errorf("destination was not escaped: %s", body)
	}
}

// --------------------------------------------------------------------------
// Page
// --------------------------------------------------------------------------

func TestPageFullAndHTMX(t *testing.T) {
	rn := mustNew(t, false)

	w := httptest.NewRecorder()
	rn.Page(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "home", homeData(nil))
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type: got %q", ct)
	}
	if !strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("full page should include the layout")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	rn.Page(w, req, http.StatusOK, "home", homeData(nil))
	if strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX request should only get the content block")
	}
	if !strings.Contains(w.Body.String(), "post-card") {
		t.Error("HTMX response should include the posts")
	}
}

func TestPageStatusAndErrors(t *testing.T) {
	rn := mustNew(t, false)

	w := httptest.NewRecorder()
	rn.Page(w, httptest.NewRequest(http.MethodGet, "/post/nope", nil), http.StatusNotFound, "notfound", &PageData{Title: "Não encontrado"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", w.Code)
	}

	w = httptest.NewRecorder()
	rn.Page(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "missing", &PageData{})
	if w.Code != http.StatusInternalServerError {
		t.Errorf("unknown template: got %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Algo deu errado") {
		t.Errorf("a failed render should fall back to the error page, got %q", w.Body.String())
	}

	data := homeData(nil)
	data.Data.(*models.PostsPagination).Results[0].FirstPublicationDate = strPtr("not a date")
	w = httptest.NewRecorder()
	rn.Page(w, httptest.NewRequest(http.MethodGet, "/", nil), http.StatusOK, "home", data)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("bad date: got %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "post-card") {
		t.Error("a failed render must not leak partial output")
	}
}

func TestError(t *testing.T) {
	rn := mustNew(t, false)

	tests := []struct {
		status int
		want   string
	}{
		{http.StatusInternalServerError, "Algo deu errado. Tente novamente mais tarde."},
		{http.StatusBadGateway, "Não foi possível carregar os posts. Tente novamente."},
		{http.StatusTooManyRequests, "Muitas requisições. Tente novamente em instantes."},
		{http.StatusServiceUnavailable, "Service Unavailable"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			w := httptest.NewRecorder()
			rn.Error(w, httptest.NewRequest(http.MethodGet, "/post/x", nil), tt.status)

			if w.Code != tt.status {
				t.Errorf("status: got %d, want %d", w.Code, tt.status)
			}
			if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
				t.Errorf("Cache-Control: got %q", cc)
			}
			doc := parse(t, w.Body.Bytes())
			if got := strings.TrimSpace(doc.Find(".site-error h1").Text()); got != tt.want {
				t.Errorf("message: got %q, want %q", got, tt.want)
			}
			if doc.Find(`.site-error a[href="/"]`).Length() != 1 {
				t.Error("error page should link home")
			}
			if !strings.Contains(doc.Find("title").Text(), tt.want) {
				t.Errorf("title: got %q", doc.Find("title").Text())
			}
		})
	}
}

func TestErrorJSON(t *testing.T) {
	rn := mustNew(t, false)
	req := httptest.NewRequest(http.MethodGet, "/posts/more", nil)
	req.Header.Set("Accept", "application/json")

	w := httptest.NewRecorder()
	rn.Error(w, req, http.StatusBadGateway)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type: got %q", ct)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"message":"Não foi possível carregar os posts. Tente novamente."}` {
		t.Errorf("body: got %s", got)
	}
}

func TestErrorHTMXFragment(t *testing.T) {
	rn := mustNew(t, false)
	req := httptest.NewRequest(http.MethodGet, "/posts/more", nil)
	req.Header.Set("HX-Request", "true")

	w := httptest.NewRecorder()
	rn.Error(w, req, http.StatusTooManyRequests)

	if strings.Contains(w.Body.String(), "<!DOCTYPE html>") {
		t.Error("HTMX requests should get the error fragment only")
	}
	if !strings.Contains(w.Body.String(), "site-error") {
		t.Errorf("fragment: got %q", w.Body.String())
	}
}

func TestDocumentLink(t *testing.T) {
	tests := []struct {
		in   richtext.SpanData
		want string
	}{
		{richtext.SpanData{LinkType: richtext.LinkDocument, Type: models.PublicationsType, UID: "xyz"}, "/post/xyz"},
		{richtext.SpanData{LinkType: richtext.LinkDocument, Type: "page", UID: "about"}, "/"},
	}
	for _, tt := range tests {
		if got := DocumentLink(&tt.in); got != tt.want {
			t.Errorf("DocumentLink(%+v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
