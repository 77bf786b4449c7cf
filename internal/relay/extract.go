package relay

import (
	"strings"

	"github.com/tidwall/gjson"
)

// ExtractText pulls the generated text out of a generateContent response.
// Every non-empty part text of the first candidate is joined with newlines,
// so a single-part answer comes back as that part's text. A lone first part
// whose text is not a string still counts. Anything unexpected yields "".
func ExtractText(body string) string {
	if !gjson.Valid(body) {
		return ""
	}

	parts := gjson.Get(body, "candidates.0.content.parts")
	if !parts.IsArray() {
		return ""
	}
	var texts []string
	parts.ForEach(func(_, part gjson.Result) bool {
		if t := part.Get("text"); t.Type == gjson.String && t.String() != "" {
			texts = append(texts, t.String())
		}
		return true
	})
	if len(texts) == 0 {
		if first := parts.Get("0.text"); first.Exists() && first.Type != gjson.Null && first.Type != gjson.String {
			return first.String()
		}
	}
	return strings.Join(texts, "\n")
}
