package generate

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for generation requests.
var (
	// ErrEmptyPrompt indicates a generation request with no prompt text.
	ErrEmptyPrompt = errors.New("empty prompt")

	// ErrNoCode indicates an audit request with no artifact to review.
	ErrNoCode = errors.New("no code to audit")

	// ErrBadImage indicates an attachment that is not a decodable image
	// data URL.
	ErrBadImage = errors.New("malformed image data URL")
)

// Image is an optional attachment to a generation request, decoded
// from a data URL.
type Image struct {
	MIMEType string
	Data     []byte
}

// Request is one app-generation request. CurrentCode carries the
// artifact being iterated on; empty means a fresh app.
type Request struct {
	Prompt      string
	CurrentCode string
	Image       *Image
}

// Generator turns prompts into single-file web apps and reviews
// existing ones.
type Generator interface {
	// GenerateApp returns the complete HTML source for the requested
	// app. When the request carries current code the model modifies it
	// rather than starting over.
	GenerateApp(ctx context.Context, req Request) (string, error)

	// AuditEthics returns a short plain-text review of the app's dark
	// patterns, accessibility issues and manipulative design, if any.
	AuditEthics(ctx context.Context, code string) (string, error)
}

// ParseImageDataURL decodes a "data:image/...;base64," URL into an
// Image. Non-image or non-base64 URLs are rejected.
func ParseImageDataURL(dataURL string) (*Image, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, fmt.Errorf("%w: missing data: scheme", ErrBadImage)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrBadImage)
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return nil, fmt.Errorf("%w: not base64 encoded", ErrBadImage)
	}
	if !strings.HasPrefix(mime, "image/") {
		return nil, fmt.Errorf("%w: unsupported media type %q", ErrBadImage, mime)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadImage, err)
	}
	return &Image{MIMEType: mime, Data: data}, nil
}
