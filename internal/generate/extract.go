package generate

import "strings"

// ExtractHTML pulls the HTML document out of a model response. It
// prefers a ```html fenced block, falls back to any fenced block, and
// finally returns the trimmed response as-is for models that skip the
// fence entirely.
func ExtractHTML(raw string) string {
	if block, ok := fencedBlock(raw, "```html"); ok {
		return block
	}
	if block, ok := fencedBlock(raw, "```"); ok {
		return block
	}
	return strings.TrimSpace(raw)
}

// fencedBlock returns the contents of the first fence opened by marker.
// An unterminated fence runs to the end of the response.
func fencedBlock(raw, marker string) (string, bool) {
	start := strings.Index(raw, marker)
	if start < 0 {
		return "", false
	}
	rest := raw[start+len(marker):]
	// Discard the remainder of the fence line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest), true
}
