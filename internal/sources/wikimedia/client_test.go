package wikimedia

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"slidecraft/internal/imagery"
)

func TestSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua == "" || ua == "Go-http-client/1.1" {
			t.Errorf("expected a descriptive user agent, got %q", ua)
		}
		switch r.URL.Query().Get("list") {
		case "search":
			w.Write([]byte(`{"query":{"search":[{"title":"File:Ocean.jpg"}]}}`))
		default:
			w.Write([]byte(`{"query":{"pages":{"123":{"imageinfo":[
				{"thumburl":"https://upload.wikimedia.org/ocean-1200.jpg",
				 "thumbwidth":1200,"thumbheight":800,
				 "user":"Alice",
				 "descriptionurl":"https://commons.wikimedia.org/wiki/File:Ocean.jpg"}]}}}}`))
		}
	}))
	defer server.Close()

	client := NewClient(Config{})
	client.baseURL = server.URL

	candidates, err := client.Search(context.Background(), "ocean waves", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].URL != "https://upload.wikimedia.org/ocean-1200.jpg" {
		t.Errorf("unexpected URL %q", candidates[0].URL)
	}
	if candidates[0].Attribution != "Photo by Alice (Wikimedia Commons)" {
		t.Errorf("unexpected attribution %q", candidates[0].Attribution)
	}
}

func TestSearchNoResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"search":[]}}`))
	}))
	defer server.Close()

	client := NewClient(Config{})
	client.baseURL = server.URL

	candidates, err := client.Search(context.Background(), "xyzzy", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(candidates))
	}
}

func TestSearchRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{})
	client.baseURL = server.URL

	_, err := client.Search(context.Background(), "ocean", 3)
	var soft *imagery.SoftError
	if !errors.As(err, &soft) {
		t.Fatalf("expected SoftError, got %v", err)
	}
	if soft.Cooldown != imagery.CooldownShort {
		t.Errorf("Cooldown = %v, want %v", soft.Cooldown, imagery.CooldownShort)
	}
}

func TestSearchSkipsBrokenImageInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("list") {
		case "search":
			w.Write([]byte(`{"query":{"search":[{"title":"File:Broken.jpg"},{"title":"File:Good.jpg"}]}}`))
		default:
			if r.URL.Query().Get("titles") == "File:Broken.jpg" {
				w.Write([]byte(`{"query":{"pages":{"1":{"imageinfo":[]}}}}`))
				return
			}
			w.Write([]byte(`{"query":{"pages":{"2":{"imageinfo":[
				{"thumburl":"https://upload.wikimedia.org/good.jpg","user":"Bob"}]}}}}`))
		}
	}))
	defer server.Close()

	client := NewClient(Config{})
	client.baseURL = server.URL

	candidates, err := client.Search(context.Background(), "bridge", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].URL != "https://upload.wikimedia.org/good.jpg" {
		t.Errorf("unexpected URL %q", candidates[0].URL)
	}
}
