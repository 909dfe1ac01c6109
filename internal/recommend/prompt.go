package recommend

import (
	"strings"

	"github.com/deusflow/albumfeed/internal/history"
	"github.com/deusflow/albumfeed/internal/llm"
)

const systemPrompt = `You are a music expert. Provide ONE daily Apple Music album recommendation.

Rules:
- Do NOT repeat any artist or album from the list of albums already recommended.
- Favor diversity in genre, decade, and geography.
- Highlight something exceptional, overlooked, or legendary.
- Answer with the JSON object only, no Markdown and no commentary.

Use this strict JSON format:
{
  "artist": "Artist Name",
  "album": "Album Title",
  "release_date": "Month DD, YYYY",
  "link": "https://music.apple.com/...",
  "description": "A short paragraph explaining why this album is exceptional."
}`

// buildMessages returns the system rules and the user turn listing the
// recent titles that must not be repeated.
func buildMessages(recent history.TitleSet) []llm.Message {
	var user strings.Builder
	titles := recent.Sorted()
	if len(titles) == 0 {
		user.WriteString("Albums already recommended: none yet.\n")
	} else {
		user.WriteString("Albums already recommended: ")
		user.WriteString(strings.Join(titles, ", "))
		user.WriteString("\n")
	}
	user.WriteString("Recommend one album that is not in this list.")

	return []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: user.String()},
	}
}
