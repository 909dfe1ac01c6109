package recommend

import (
	"errors"
	"reflect"
	"testing"
)

func TestNormalizeReply(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `  {"a":1}  `, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```\n", `{"a":1}`},
		{"single line fence", "```json{\"a\":1}```", `{"a":1}`},
		{"unterminated fence", "```json\n{\"a\":1}", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeReply(tt.in); got != tt.want {
				t.Errorf("NormalizeReply(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRecommendation(t *testing.T) {
	rec, err := ParseRecommendation(goodReply)
	if err != nil {
		t.Fatalf("ParseRecommendation: %v", err)
	}
	want := &Recommendation{
		Artist:      "Milton Nascimento",
		Album:       "Clube da Esquina",
		ReleaseDate: "March 1, 1972",
		Link:        "https://music.apple.com/us/album/clube-da-esquina/1",
		Description: "A landmark of Brazilian popular music.",
	}
	if !reflect.DeepEqual(rec, want) {
		t.Errorf("got %+v, want %+v", rec, want)
	}
}

func TestParseRecommendation_HTMLDescription(t *testing.T) {
	reply := `{"artist":"Can","album":"Tago Mago","release_date":"February 1971","link":"https://music.apple.com/album/tago-mago",
"description":"<p>Krautrock at its <b>most</b> adventurous &amp; hypnotic.</p>\n<p>Essential.</p>"}`

	rec, err := ParseRecommendation(reply)
	if err != nil {
		t.Fatalf("ParseRecommendation: %v", err)
	}
	if rec.Description != "Krautrock at its most adventurous & hypnotic.Essential." &&
		rec.Description != "Krautrock at its most adventurous & hypnotic. Essential." {
		t.Errorf("description = %q", rec.Description)
	}
}

func TestParseRecommendation_Malformed(t *testing.T) {
	tests := []struct {
		name        string
		reply       string
		wantMissing []string
	}{
		{name: "empty", reply: "   "},
		{name: "prose", reply: "Here is my pick: Kind of Blue"},
		{name: "truncated", reply: `{"artist": "Miles Davis", "album": "Kind of`},
		{name: "array", reply: `[{"artist": "Miles Davis"}]`},
		{name: "wrong type", reply: `{"artist": 42, "album": "x", "release_date": "y", "link": "https://a.b", "description": "d"}`},
		{name: "trailing object", reply: `{"artist":"a","album":"b","release_date":"c","link":"https://x.y","description":"d"} {"artist":"e"}`},
		{
			name:        "missing fields",
			reply:       `{"artist": "Miles Davis", "album": "Kind of Blue", "release_date": " ", "link": "https://music.apple.com/x"}`,
			wantMissing: []string{"release_date", "description"},
		},
		{
			name:  "relative link",
			reply: `{"artist":"a","album":"b","release_date":"c","link":"music.apple.com/x","description":"d"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecommendation(tt.reply)
			var malformed *MalformedError
			if !errors.As(err, &malformed) {
				t.Fatalf("err = %v, want *MalformedError", err)
			}
			if tt.wantMissing != nil && !reflect.DeepEqual(malformed.Missing, tt.wantMissing) {
				t.Errorf("missing = %v, want %v", malformed.Missing, tt.wantMissing)
			}
		})
	}
}

func TestRecommendation_Title(t *testing.T) {
	r := Recommendation{Artist: "Fela Kuti", Album: "Zombie"}
	if r.Title() != "Fela Kuti - Zombie" {
		t.Errorf("Title = %q", r.Title())
	}
}
