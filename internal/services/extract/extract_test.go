package extract

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveContentType(t *testing.T) {
	tests := []struct {
		file, ct, want string
	}{
		{"report.txt", "text/plain; charset=utf-8", "text/plain"},
		{"report.pdf", "", "application/pdf"},
		{"report.pdf", "application/octet-stream", "application/pdf"},
		{"scan.PNG", "", "image/png"},
		{"notes.TXT", "", "text/plain"},
		{"notes.txt", "application/octet-stream", "text/plain"},
		{"blob", "", "application/octet-stream"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolveContentType(tt.file, tt.ct), tt.file)
	}
}

func TestPlainText(t *testing.T) {
	p := NewPlainText()
	assert.True(t, p.Supports("text/plain"))
	assert.False(t, p.Supports("application/pdf"))

	text, err := p.Extract(context.Background(), "r.txt", "text/plain", strings.NewReader("\ufeffCholesterol 210 mg/dL"))
	require.NoError(t, err)
	assert.Equal(t, "Cholesterol 210 mg/dL", text)
}

func TestPlainText_Failures(t *testing.T) {
	p := NewPlainText()
	var ee *ExtractionError

	_, err := p.Extract(context.Background(), "bad.txt", "text/plain", strings.NewReader("\xff\xfe\xfd"))
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrTypeEncoding, ee.Type)

	_, err = p.Extract(context.Background(), "blank.txt", "text/plain", strings.NewReader(" \n "))
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrTypeEmpty, ee.Type)
}

func TestHTTPExtractor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "application/pdf", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "%PDF-1.4", string(body))
		_, _ = w.Write([]byte("HbA1c 5.4 %"))
	}))
	defer srv.Close()

	h := NewHTTPExtractor(srv.URL, time.Second)
	assert.True(t, h.Supports("application/pdf"))

	text, err := h.Extract(context.Background(), "lab.pdf", "application/pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "HbA1c 5.4 %", text)
}

func TestHTTPExtractor_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unprocessable", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := NewHTTPExtractor(srv.URL, time.Second).Extract(context.Background(), "lab.pdf", "application/pdf", strings.NewReader("x"))
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, ErrTypeService, ee.Type)
	assert.Contains(t, ee.Error(), "422")
}

func TestChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("from ocr"))
	}))
	defer srv.Close()

	chain := NewChain(NewPlainText(), NewHTTPExtractor(srv.URL, time.Second))

	text, err := chain.Extract(context.Background(), "notes.txt", "text/plain; charset=utf-8", strings.NewReader("plain"))
	require.NoError(t, err)
	assert.Equal(t, "plain", text)

	text, err = chain.Extract(context.Background(), "scan.pdf", "", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "from ocr", text)

	_, err = chain.Extract(context.Background(), "sheet.xlsx", "", strings.NewReader("x"))
	var ee *ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ErrTypeUnsupported, ee.Type)
}
