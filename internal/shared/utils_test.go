package shared

import (
	"reflect"
	"testing"
)

func TestTruncate(t *testing.T) {
	cases := []struct {
		in      string
		max     int
		want    string
		wantCut bool
	}{
		{"hello", 10, "hello", false},
		{"hello", 5, "hello", false},
		{"hello", 3, "hel", true},
		{"héllo", 2, "hé", true},
		{"anything", 0, "anything", false},
	}
	for _, tc := range cases {
		got, cut := Truncate(tc.in, tc.max)
		if got != tc.want || cut != tc.wantCut {
			t.Fatalf("Truncate(%q, %d) = %q, %v", tc.in, tc.max, got, cut)
		}
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" a, b ,,c ")
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := SplitList(""); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestRequestErrorMessage(t *testing.T) {
	err := NewRequestError(500, "Server missing %s", "GEMINI_API_KEY")
	if err.Message() != "Server missing GEMINI_API_KEY" {
		t.Fatalf("message = %q", err.Message())
	}
	if err.Error() != "status 500: err Server missing GEMINI_API_KEY" {
		t.Fatalf("error = %q", err.Error())
	}
}
