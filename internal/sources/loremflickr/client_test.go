package loremflickr

import (
	"context"
	"strings"
	"testing"
)

func TestSearchBuildsURL(t *testing.T) {
	client := NewClient(Config{Width: 640, Height: 480})
	client.lock = func() int { return 7 }

	candidates, err := client.Search(context.Background(), "Ocean Waves Sunset Beach", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}

	want := "https://loremflickr.com/640/480/ocean,waves,sunset?lock=7"
	if candidates[0].URL != want {
		t.Errorf("URL = %q, want %q", candidates[0].URL, want)
	}
}

func TestKeywordPath(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"mountain", "mountain"},
		{"Solar Panels", "solar,panels"},
		{"one two three four five", "one,two,three"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := keywordPath(tt.query); got != tt.want {
			t.Errorf("keywordPath(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.Search(context.Background(), "  ", 3); err == nil {
		t.Fatal("expected error for blank query")
	}
}

func TestSearchLockVaries(t *testing.T) {
	client := NewClient(Config{})
	first, err := client.Search(context.Background(), "forest", 1)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !strings.Contains(first[0].URL, "lock=") {
		t.Errorf("URL missing lock parameter: %q", first[0].URL)
	}
}
