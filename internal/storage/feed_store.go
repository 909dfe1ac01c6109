package storage

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/mmcdole/gofeed"
)

// PubDateLayout is the fixed pubDate format used for every entry written to
// the feed and expected when reading history back.
const PubDateLayout = "Mon, 02 Jan 2006 15:04:05 MST"

// Entry is one <item> of the feed. Entries are never modified once written.
type Entry struct {
	Title       string
	Link        string
	GUID        string
	Description string
	PubDate     string
}

// FormatPubDate renders t in loc using PubDateLayout.
func FormatPubDate(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(PubDateLayout)
}

// Channel is the metadata used when the feed file has to be created.
type Channel struct {
	Title       string
	Link        string
	Description string
}

// FeedStore manages the RSS 2.0 file the recommendations are published to.
type FeedStore struct {
	path    string
	channel Channel
}

// NewFeedStore creates a store for the file at path.
func NewFeedStore(path string, channel Channel) *FeedStore {
	return &FeedStore{path: path, channel: channel}
}

func (fs *FeedStore) Path() string {
	return fs.path
}

// Prepend inserts e as the first item of the channel. Existing items are
// left byte-for-byte untouched. The file is created with an empty channel
// when it does not exist yet.
func (fs *FeedStore) Prepend(e Entry) error {
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		data, err = fs.skeleton()
	}
	if err != nil {
		return fmt.Errorf("failed to read feed store: %w", err)
	}

	data = expandEmptyChannel(data)

	off, beforeItem, err := insertionPoint(data)
	if err != nil {
		return fmt.Errorf("invalid feed store %s: %w", fs.path, err)
	}

	indent := lineIndent(data, off)
	childIndent := indent
	if !beforeItem {
		childIndent = indent + "  "
	}

	item, err := renderItem(e, childIndent)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	buf.Grow(len(data) + len(item) + 16)
	buf.Write(data[:off])
	if !beforeItem {
		buf.WriteString("  ")
	}
	buf.WriteString(item)
	buf.WriteString("\n")
	buf.WriteString(indent)
	buf.Write(data[off:])

	return writeFileAtomic(fs.path, buf.Bytes())
}

// Entries returns the items of the feed in document order, newest first.
// A missing file is reported with an error wrapping os.ErrNotExist.
func (fs *FeedStore) Entries() ([]Entry, error) {
	f, err := os.Open(fs.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open feed store: %w", err)
	}
	defer f.Close()

	feed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed store %s: %w", fs.path, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		entries = append(entries, Entry{
			Title:       strings.TrimSpace(item.Title),
			Link:        strings.TrimSpace(item.Link),
			GUID:        strings.TrimSpace(item.GUID),
			Description: item.Description,
			PubDate:     strings.TrimSpace(item.Published),
		})
	}
	return entries, nil
}

// skeleton renders an empty RSS 2.0 document for the configured channel.
func (fs *FeedStore) skeleton() ([]byte, error) {
	feed := &feeds.Feed{
		Title:       fs.channel.Title,
		Link:        &feeds.Link{Href: fs.channel.Link},
		Description: fs.channel.Description,
	}
	rss, err := feed.ToRss()
	if err != nil {
		return nil, fmt.Errorf("failed to render feed skeleton: %w", err)
	}
	return []byte(rss + "\n"), nil
}

type rssItem struct {
	XMLName     xml.Name `xml:"item"`
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	GUID        string   `xml:"guid,omitempty"`
	Description string   `xml:"description"`
	PubDate     string   `xml:"pubDate"`
}

func renderItem(e Entry, indent string) (string, error) {
	out, err := xml.MarshalIndent(rssItem{
		Title:       e.Title,
		Link:        e.Link,
		GUID:        e.GUID,
		Description: e.Description,
		PubDate:     e.PubDate,
	}, indent, "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode feed item: %w", err)
	}
	return strings.TrimPrefix(string(out), indent), nil
}

// insertionPoint walks the document and returns the byte offset of the first
// <item> directly under <channel>, or of </channel> when there is none.
func insertionPoint(data []byte) (int, bool, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0
	inChannel := false

	for {
		off := int(dec.InputOffset())
		tok, err := dec.Token()
		if err == io.EOF {
			return 0, false, errors.New("no <channel> element")
		}
		if err != nil {
			return 0, false, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch {
			case depth == 1 && t.Name.Local != "rss":
				return 0, false, fmt.Errorf("root element is <%s>, want <rss>", t.Name.Local)
			case depth == 2 && t.Name.Local == "channel":
				inChannel = true
			case depth == 3 && inChannel && t.Name.Local == "item":
				return off, true, nil
			}
		case xml.EndElement:
			if depth == 2 && inChannel {
				return off, false, nil
			}
			depth--
		}
	}
}

// expandEmptyChannel rewrites a self-closing <channel/> as an open/close
// pair so items can be placed inside it. Other documents are returned as is.
func expandEmptyChannel(data []byte) []byte {
	dec := xml.NewDecoder(bytes.NewReader(data))
	depth := 0

	for {
		tok, err := dec.Token()
		if err != nil {
			return data
		}

		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth != 2 || t.Name.Local != "channel" {
				continue
			}
			end := int(dec.InputOffset())
			if end < 2 || !bytes.Equal(data[end-2:end], []byte("/>")) {
				return data
			}
			out := make([]byte, 0, len(data)+len("></channel>"))
			out = append(out, data[:end-2]...)
			out = append(out, "></channel>"...)
			return append(out, data[end:]...)
		case xml.EndElement:
			depth--
		}
	}
}

func lineIndent(data []byte, off int) string {
	start := off
	for start > 0 && (data[start-1] == ' ' || data[start-1] == '\t') {
		start--
	}
	if start > 0 && data[start-1] != '\n' {
		return ""
	}
	return string(data[start:off])
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".feed-*.xml")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write feed store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write feed store: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to write feed store: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace feed store: %w", err)
	}
	return nil
}
