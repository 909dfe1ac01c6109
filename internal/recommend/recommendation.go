package recommend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// Recommendation is a single album pick parsed from a model reply.
type Recommendation struct {
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	Link        string `json:"link"`
	Description string `json:"description"`
}

// Title is the feed entry title, "artist - album".
func (r *Recommendation) Title() string {
	return r.Artist + " - " + r.Album
}

// NormalizeReply trims whitespace and a surrounding Markdown code fence
// (``` or ```json). It is a heuristic for the usual ways models wrap JSON.
func NormalizeReply(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimLeftFunc(s, unicode.IsLetter)
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseRecommendation converts a model reply into a validated
// Recommendation. Any problem is reported as *MalformedError.
func ParseRecommendation(reply string) (*Recommendation, error) {
	text := NormalizeReply(reply)
	if text == "" {
		return nil, &MalformedError{Reason: "empty reply"}
	}

	var rec Recommendation
	dec := json.NewDecoder(bytes.NewReader([]byte(text)))
	if err := dec.Decode(&rec); err != nil {
		return nil, &MalformedError{Reason: "invalid JSON", Err: err}
	}
	if dec.More() {
		return nil, &MalformedError{Reason: "trailing data after JSON object"}
	}

	rec.Artist = strings.TrimSpace(rec.Artist)
	rec.Album = strings.TrimSpace(rec.Album)
	rec.ReleaseDate = strings.TrimSpace(rec.ReleaseDate)
	rec.Link = strings.TrimSpace(rec.Link)
	rec.Description = plainText(rec.Description)

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"artist", rec.Artist},
		{"album", rec.Album},
		{"release_date", rec.ReleaseDate},
		{"link", rec.Link},
		{"description", rec.Description},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &MalformedError{Reason: "missing required fields", Missing: missing}
	}

	if u, err := url.Parse(rec.Link); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &MalformedError{Reason: fmt.Sprintf("link %q is not an absolute http(s) URL", rec.Link)}
	}

	return &rec, nil
}

// plainText drops any HTML markup the model put into the description and
// collapses whitespace.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
