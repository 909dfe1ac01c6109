// Package history extracts the titles published to the feed within a trailing
// window. The result seeds the duplicate check of a run.
package history

import (
	"errors"
	"os"
	"sort"
	"time"

	"github.com/deusflow/albumfeed/internal/storage"
)

// TitleSet is the set of recently published entry titles.
type TitleSet map[string]struct{}

func NewTitleSet(titles ...string) TitleSet {
	s := make(TitleSet, len(titles))
	for _, t := range titles {
		s[t] = struct{}{}
	}
	return s
}

// Contains reports an exact match.
func (s TitleSet) Contains(title string) bool {
	_, ok := s[title]
	return ok
}

// Sorted returns the titles in a stable order, for prompts and logs.
func (s TitleSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// RecentTitles reads the feed at path and returns the titles of items whose
// pubDate is within [now-window, now], plus every item whose pubDate cannot
// be parsed. A missing feed yields an empty set.
func RecentTitles(path string, window time.Duration, now time.Time, loc *time.Location) (TitleSet, error) {
	entries, err := storage.NewFeedStore(path, storage.Channel{}).Entries()
	if errors.Is(err, os.ErrNotExist) {
		return NewTitleSet(), nil
	}
	if err != nil {
		return nil, err
	}

	if loc == nil {
		loc = time.UTC
	}
	cutoff := now.Add(-window)
	titles := NewTitleSet()

	for _, e := range entries {
		if e.Title == "" {
			continue
		}

		published, err := time.ParseInLocation(storage.PubDateLayout, e.PubDate, loc)
		if err != nil || !published.Before(cutoff) {
			titles[e.Title] = struct{}{}
		}
	}

	return titles, nil
}
