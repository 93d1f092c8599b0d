// Package extract turns uploaded files into raw text. Each Extractor declares the
// content types it handles; a Chain picks the first that does.
package extract

import (
	"context"
	"io"
	"mime"
	"path/filepath"
	"strings"
)

// Extractor produces raw text from a file.
type Extractor interface {
	Supports(contentType string) bool
	Extract(ctx context.Context, fileName, contentType string, r io.Reader) (string, error)
}

// MaxFileSize bounds how much of an upload is read.
const MaxFileSize = 20 << 20

// Extensions the host mime table may not know.
var textExtensions = map[string]string{
	".txt":  "text/plain",
	".text": "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
}

// ResolveContentType returns the media type of contentType without parameters, or
// guesses it from the file extension when contentType is empty or generic.
func ResolveContentType(fileName, contentType string) string {
	mediaType := ""
	if contentType != "" {
		if mt, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = mt
		}
	}
	if mediaType != "" && mediaType != "application/octet-stream" {
		return mediaType
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	if mt, ok := textExtensions[ext]; ok {
		return mt
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		if mt, _, err := mime.ParseMediaType(byExt); err == nil {
			return mt
		}
	}
	if mediaType != "" {
		return mediaType
	}
	return "application/octet-stream"
}

// Chain delegates to the first extractor that supports the content type.
type Chain struct {
	extractors []Extractor
}

func NewChain(extractors ...Extractor) *Chain {
	return &Chain{extractors: extractors}
}

func (c *Chain) Supports(contentType string) bool {
	for _, e := range c.extractors {
		if e.Supports(contentType) {
			return true
		}
	}
	return false
}

func (c *Chain) Extract(ctx context.Context, fileName, contentType string, r io.Reader) (string, error) {
	ct := ResolveContentType(fileName, contentType)
	for _, e := range c.extractors {
		if e.Supports(ct) {
			return e.Extract(ctx, fileName, ct, r)
		}
	}
	return "", NewUnsupportedError(fileName, ct)
}
