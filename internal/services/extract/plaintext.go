package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// PlainText passes text files through unchanged.
type PlainText struct{}

func NewPlainText() *PlainText {
	return &PlainText{}
}

func (p *PlainText) Supports(contentType string) bool {
	return strings.HasPrefix(contentType, "text/") || contentType == "application/json"
}

func (p *PlainText) Extract(_ context.Context, fileName, _ string, r io.Reader) (string, error) {
	data, err := readLimited(r)
	if err != nil {
		return "", NewReadError(fileName, err)
	}
	if !utf8.Valid(data) {
		return "", &ExtractionError{Type: ErrTypeEncoding, FileName: fileName, Message: "file is not valid UTF-8"}
	}
	text := strings.TrimPrefix(string(data), "\ufeff")
	if strings.TrimSpace(text) == "" {
		return "", NewEmptyError(fileName)
	}
	return text, nil
}

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("file exceeds %d bytes", MaxFileSize)
	}
	return data, nil
}
