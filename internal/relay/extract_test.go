package relay

import "testing"

func TestExtractText(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"single part", `{"candidates":[{"content":{"parts":[{"text":"a"}]}}]}`, "a"},
		{"parts joined", `{"candidates":[{"content":{"parts":[{"text":"a"},{"text":"b"}]}}]}`, "a\nb"},
		{"empty and missing texts skipped", `{"candidates":[{"content":{"parts":[{"inlineData":{}},{"text":"a"},{"text":""},{"text":"b"}]}}]}`, "a\nb"},
		{"null text skipped", `{"candidates":[{"content":{"parts":[{"text":null},{"text":"b"}]}}]}`, "b"},
		{"non string first text", `{"candidates":[{"content":{"parts":[{"text":12}]}}]}`, "12"},
		{"only later candidates ignored", `{"candidates":[{"content":{"parts":[{"text":"a"}]}},{"content":{"parts":[{"text":"z"}]}}]}`, "a"},
		{"parts not array", `{"candidates":[{"content":{"parts":{"text":"a"}}}]}`, ""},
		{"no candidates", `{"promptFeedback":{"blockReason":"SAFETY"}}`, ""},
		{"empty object", `{}`, ""},
		{"not json", `<html>`, ""},
		{"empty", ``, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractText(tc.body); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}
