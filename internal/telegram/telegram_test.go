package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestAnnounceAlbum(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/botTOKEN/sendMessage" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("TOKEN", "@picks").WithBaseURL(srv.URL)
	if err := c.AnnounceAlbum(context.Background(), "Simon & Garfunkel - Bookends", "https://music.apple.com/x", "Folk <3"); err != nil {
		t.Fatalf("AnnounceAlbum: %v", err)
	}

	if got["chat_id"] != "@picks" || got["parse_mode"] != "HTML" {
		t.Errorf("payload = %v", got)
	}
	text, _ := got["text"].(string)
	if !strings.Contains(text, "Simon &amp; Garfunkel - Bookends") || !strings.Contains(text, "Folk &lt;3") {
		t.Errorf("text not escaped: %q", text)
	}
}

func TestSendMessage_RetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient("TOKEN", "1").WithBaseURL(srv.URL)
	c.RetryDelay = 0

	if err := c.SendMessage(context.Background(), "hi"); err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestAnnounceAlbum_LongDescription(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient("TOKEN", "1").WithBaseURL(srv.URL)
	description := strings.Repeat("R&B ", 2000)
	if err := c.AnnounceAlbum(context.Background(), "D'Angelo - Voodoo", "https://music.apple.com/voodoo", description); err != nil {
		t.Fatalf("AnnounceAlbum: %v", err)
	}

	text, _ := got["text"].(string)
	if n := utf8.RuneCountInString(text); n > maxMessageRunes {
		t.Errorf("message has %d runes, limit %d", n, maxMessageRunes)
	}
	if !strings.Contains(text, `<a href="https://music.apple.com/voodoo">D&#39;Angelo - Voodoo</a>`) {
		t.Errorf("link markup damaged: %q", text[:120])
	}
	if !strings.HasSuffix(text, "…") {
		t.Errorf("truncated text should end with an ellipsis: %q", text[len(text)-20:])
	}
}

func TestEscapeTruncated(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		limit int
		want  string
	}{
		{"fits", "Tom & Jerry", 20, "Tom &amp; Jerry"},
		{"cut before entity", "ab&cd", 6, "ab…"},
		{"entity kept whole", "ab&cd", 8, "ab&amp;…"},
		{"multibyte", "ééééé", 3, "éé…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := escapeTruncated(tt.in, tt.limit); got != tt.want {
				t.Errorf("escapeTruncated(%q, %d) = %q, want %q", tt.in, tt.limit, got, tt.want)
			}
		})
	}
}
