package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deusflow/albumfeed/internal/storage"
)

var now = time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

type fixtureItem struct {
	title   string
	pubDate string
}

func writeFeed(t *testing.T, items []fixtureItem) string {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Daily Album Picks</title>
    <link>https://music.apple.com/</link>
    <description>Curated daily Apple Music album highlights.</description>
`)
	for _, it := range items {
		fmt.Fprintf(&b, "    <item><title>%s</title><link>https://music.apple.com/x</link><pubDate>%s</pubDate></item>\n", it.title, it.pubDate)
	}
	b.WriteString("  </channel>\n</rss>\n")

	path := filepath.Join(t.TempDir(), "index.xml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func daysAgo(d float64) string {
	return storage.FormatPubDate(now.Add(-time.Duration(d*24*float64(time.Hour))), time.UTC)
}

func TestRecentTitles_MissingStore(t *testing.T) {
	titles, err := RecentTitles(filepath.Join(t.TempDir(), "nope.xml"), 30*24*time.Hour, now, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(titles) != 0 {
		t.Errorf("got %d titles, want 0", len(titles))
	}
}

func TestRecentTitles_Window(t *testing.T) {
	path := writeFeed(t, []fixtureItem{
		{"Today - Fresh", daysAgo(0)},
		{"Week - Old", daysAgo(7)},
		{"Edge - Inside", daysAgo(29.9)},
		{"Edge - Outside", daysAgo(30.1)},
		{"Year - Ancient", daysAgo(365)},
		{"Garbled - Date", "sometime last spring"},
		{"Empty - Date", ""},
		{"Iso - Stamp", "2024-06-02T10:00:00Z"},
	})

	titles, err := RecentTitles(path, 30*24*time.Hour, now, time.UTC)
	if err != nil {
		t.Fatalf("RecentTitles: %v", err)
	}

	want := map[string]bool{
		"Today - Fresh":  true,
		"Week - Old":     true,
		"Edge - Inside":  true,
		"Edge - Outside": false,
		"Year - Ancient": false,
		"Garbled - Date": true,
		"Empty - Date":   true,
		"Iso - Stamp":    true,
	}
	for title, included := range want {
		if titles.Contains(title) != included {
			t.Errorf("%q included = %v, want %v", title, titles.Contains(title), included)
		}
	}
	if len(titles) != 6 {
		t.Errorf("got %d titles (%v), want 6", len(titles), titles.Sorted())
	}
}

func TestRecentTitles_ZoneAbbreviation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	path := writeFeed(t, []fixtureItem{
		{"Recent - EST", "Mon, 23 Jun 2025 09:00:00 EDT"},
		{"Stale - EST", "Wed, 15 Jan 2025 09:00:00 EST"},
	})

	titles, err := RecentTitles(path, 30*24*time.Hour, now, ny)
	if err != nil {
		t.Fatalf("RecentTitles: %v", err)
	}
	if !titles.Contains("Recent - EST") {
		t.Error("recent EDT entry missing")
	}
	if titles.Contains("Stale - EST") {
		t.Error("stale EST entry should be excluded")
	}
}

func TestRecentTitles_InvalidStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.xml")
	if err := os.WriteFile(path, []byte("this is not a feed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := RecentTitles(path, time.Hour, now, time.UTC); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRecentTitles_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.xml")
	store := storage.NewFeedStore(path, storage.Channel{Title: "Picks", Link: "https://music.apple.com/", Description: "d"})

	e := storage.Entry{
		Title:       "Tinariwen - Aman Iman",
		Link:        "https://music.apple.com/album/aman-iman",
		GUID:        "https://music.apple.com/album/aman-iman",
		Description: "Release Date: March 5, 2007\nWhy it’s exceptional: desert blues.",
		PubDate:     storage.FormatPubDate(now.Add(-time.Hour), time.UTC),
	}
	if err := store.Prepend(e); err != nil {
		t.Fatalf("Prepend: %v", err)
	}

	titles, err := RecentTitles(path, 30*24*time.Hour, now, time.UTC)
	if err != nil {
		t.Fatalf("RecentTitles: %v", err)
	}
	if !titles.Contains(e.Title) {
		t.Errorf("round trip lost title %q, got %v", e.Title, titles.Sorted())
	}
}

func TestTitleSet_Sorted(t *testing.T) {
	s := NewTitleSet("b - 2", "a - 1", "c - 3")
	got := strings.Join(s.Sorted(), "|")
	if got != "a - 1|b - 2|c - 3" {
		t.Errorf("Sorted = %q", got)
	}
}
