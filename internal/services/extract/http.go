package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultRemoteTypes are the content types sent to the OCR service.
var DefaultRemoteTypes = []string{
	"application/pdf",
	"image/png",
	"image/jpeg",
	"image/tiff",
}

// HTTPExtractor sends the file body to a Tika-style text extraction endpoint with
// PUT and reads plain text back.
type HTTPExtractor struct {
	endpoint string
	types    map[string]bool
	client   *http.Client
}

func NewHTTPExtractor(endpoint string, timeout time.Duration, contentTypes ...string) *HTTPExtractor {
	if len(contentTypes) == 0 {
		contentTypes = DefaultRemoteTypes
	}
	types := make(map[string]bool, len(contentTypes))
	for _, ct := range contentTypes {
		types[ct] = true
	}
	return &HTTPExtractor{
		endpoint: strings.TrimRight(endpoint, "/"),
		types:    types,
		client:   &http.Client{Timeout: timeout},
	}
}

func (h *HTTPExtractor) Supports(contentType string) bool {
	return h.types[contentType]
}

func (h *HTTPExtractor) Extract(ctx context.Context, fileName, contentType string, r io.Reader) (string, error) {
	data, err := readLimited(r)
	if err != nil {
		return "", NewReadError(fileName, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, h.endpoint, bytes.NewReader(data))
	if err != nil {
		return "", NewServiceError(fileName, "failed to build request", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "text/plain")
	req.Header.Set("X-File-Name", fileName)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", NewServiceError(fileName, "text extraction request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileSize))
	if err != nil {
		return "", NewServiceError(fileName, "failed to read extraction response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", NewServiceError(fileName, fmt.Sprintf("HTTP %d", resp.StatusCode), fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	text := string(body)
	if strings.TrimSpace(text) == "" {
		return "", NewEmptyError(fileName)
	}
	return text, nil
}
