package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/deusflow/albumfeed/internal/retry"
)

const defaultBaseURL = "https://api.telegram.org"

// Client posts messages to one Telegram chat/channel.
type Client struct {
	token   string
	chatID  string
	baseURL string
	http    *http.Client

	MaxRetries int
	RetryDelay time.Duration
}

func NewClient(token, chatID string) *Client {
	return &Client{
		token:      token,
		chatID:     chatID,
		baseURL:    defaultBaseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// WithBaseURL points the client at another Bot API host.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// Telegram limit is 4096 chars
const maxMessageRunes = 4000

// AnnounceAlbum posts a short HTML message about a freshly published pick.
// A long description is cut before escaping so entities and tags stay intact.
func (c *Client) AnnounceAlbum(ctx context.Context, title, link, description string) error {
	head := fmt.Sprintf("🎧 <b>Album of the day</b>\n<a href=\"%s\">%s</a>\n\n",
		html.EscapeString(link), html.EscapeString(title))
	budget := maxMessageRunes - utf8.RuneCountInString(head)
	return c.SendMessage(ctx, head+escapeTruncated(description, budget))
}

// escapeTruncated HTML-escapes the longest prefix of s whose escaped form
// fits in limit runes, marking a cut with an ellipsis.
func escapeTruncated(s string, limit int) string {
	escaped := html.EscapeString(s)
	if utf8.RuneCountInString(escaped) <= limit {
		return escaped
	}

	var b strings.Builder
	used := 0
	for _, r := range s {
		part := html.EscapeString(string(r))
		n := utf8.RuneCountInString(part)
		if used+n > limit-1 {
			break
		}
		b.WriteString(part)
		used += n
	}
	b.WriteString("…")
	return b.String()
}

// SendMessage sends text message to Telegram chat/channel with retry logic
func (c *Client) SendMessage(ctx context.Context, text string) error {
	return retry.WithRetry(ctx, retry.RetryConfig{
		MaxAttempts: c.MaxRetries,
		Delay:       c.RetryDelay,
		Backoff:     true,
		OnFailure: func(attempt int, err error) {
			slog.Warn("telegram send failed", "attempt", attempt, "of", c.MaxRetries, "error", err)
		},
	}, func(attempt int) error {
		if err := c.sendMessageOnce(ctx, text); err != nil {
			return err
		}
		slog.Debug("message sent to Telegram", "attempt", attempt)
		return nil
	})
}

// sendMessageOnce does one try to send message
func (c *Client) sendMessageOnce(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)

	payload := map[string]interface{}{
		"chat_id":                  c.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": false,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error make JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("error HTTP request: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}

	return nil
}
