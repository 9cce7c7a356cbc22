// Package attachment encodes and decodes the image-reference block that a
// task description may carry. The block is appended verbatim after the
// free text:
//
//	<free text>
//
//	【添付画像】
//	1. <url1>
//	2. <url2>
//
// The marker line is literal and recognized only when preceded by a blank
// line. Format and Parse round-trip for any text that does not itself
// contain the marker.
package attachment

import (
	"fmt"
	"regexp"
	"strings"
)

// Marker is the literal line that introduces the image block.
const Marker = "【添付画像】"

var (
	blockRe   = regexp.MustCompile(`\n\n` + Marker + `\n(?s)(.*)$`)
	ordinalRe = regexp.MustCompile(`^\d+\.\s*`)
)

// Format appends the image block for urls to text. An empty url list
// returns the trimmed text unchanged, with no block.
func Format(text string, urls []string) string {
	result := strings.TrimSpace(text)

	if len(urls) == 0 {
		return result
	}

	var b strings.Builder
	b.WriteString(result)
	b.WriteString("\n\n")
	b.WriteString(Marker)
	for i, url := range urls {
		b.WriteString(fmt.Sprintf("\n%d. %s", i+1, url))
	}
	return b.String()
}

// Parse splits a description into its clean text and the ordered list of
// image URLs. Lines in the block that do not start with "http" after
// ordinal stripping are ignored. A description without the marker parses
// to itself with no URLs.
func Parse(description string) (cleanDescription string, imageURLs []string) {
	loc := blockRe.FindStringSubmatchIndex(description)
	if loc == nil {
		return description, nil
	}

	body := description[loc[2]:loc[3]]
	for _, line := range strings.Split(body, "\n") {
		url := strings.TrimSpace(ordinalRe.ReplaceAllString(line, ""))
		if strings.HasPrefix(url, "http") {
			imageURLs = append(imageURLs, url)
		}
	}

	return description[:loc[0]], imageURLs
}
