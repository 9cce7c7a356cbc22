package attachment

import (
	"reflect"
	"testing"
)

func TestFormat_noURLs(t *testing.T) {
	if got := Format("hello", nil); got != "hello" {
		t.Fatalf("Format with no urls: got %q", got)
	}
	if got := Format("  hello \n", []string{}); got != "hello" {
		t.Fatalf("Format should trim text: got %q", got)
	}
}

func TestFormat_withURLs(t *testing.T) {
	got := Format("hello", []string{"http://a", "http://b"})
	want := "hello\n\n【添付画像】\n1. http://a\n2. http://b"
	if got != want {
		t.Fatalf("Format: got %q, want %q", got, want)
	}
}

func TestParse_noBlock(t *testing.T) {
	clean, urls := Parse("just some text\nwith lines")
	if clean != "just some text\nwith lines" {
		t.Fatalf("clean: got %q", clean)
	}
	if len(urls) != 0 {
		t.Fatalf("urls: got %v", urls)
	}
}

func TestParse_ignoresNonHTTPLines(t *testing.T) {
	desc := "memo\n\n【添付画像】\n1. http://a\n2. not-a-url\n3. https://b"
	clean, urls := Parse(desc)
	if clean != "memo" {
		t.Fatalf("clean: got %q", clean)
	}
	if !reflect.DeepEqual(urls, []string{"http://a", "https://b"}) {
		t.Fatalf("urls: got %v", urls)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		text string
		urls []string
	}{
		{"hello", []string{"http://a", "http://b"}},
		{"multi\nline\ntext", []string{"https://example.com/x.png"}},
		{"no images", nil},
	}

	for _, tc := range cases {
		clean, urls := Parse(Format(tc.text, tc.urls))
		if clean != tc.text {
			t.Errorf("round trip clean: got %q, want %q", clean, tc.text)
		}
		if !reflect.DeepEqual(urls, tc.urls) {
			t.Errorf("round trip urls: got %v, want %v", urls, tc.urls)
		}
	}
}
