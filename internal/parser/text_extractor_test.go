package parser

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"job-agent-go/internal/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupportedMimeType(t *testing.T) {
	assert.True(t, SupportedMimeType(constants.MimePDF))
	assert.True(t, SupportedMimeType(constants.MimeDocx))
	assert.True(t, SupportedMimeType(constants.MimeDocLegacy))
	assert.False(t, SupportedMimeType("text/plain"))
	assert.False(t, SupportedMimeType(""))
}

func TestTikaDocumentExtractor_ExtractText(t *testing.T) {
	var gotContentType, gotAccept, gotResourceName string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tika":
			gotContentType = r.Header.Get("Content-Type")
			gotAccept = r.Header.Get("Accept")
			gotResourceName = r.Header.Get("X-Tika-Resource-Name")
			_, _ = w.Write([]byte("extracted resume text"))
		case "/meta":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"xmpTPg:NPages": "2", "unimportant": "x"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	extractor := NewTikaDocumentExtractor(server.URL, WithTikaLogger(silentLogger()))

	text, metadata, err := extractor.ExtractText(context.Background(), []byte("%PDF-1.4"), "resume.pdf", constants.MimePDF)
	require.NoError(t, err)
	assert.Equal(t, "extracted resume text", text)

	assert.Equal(t, constants.MimePDF, gotContentType)
	assert.Equal(t, "text/plain", gotAccept)
	assert.Equal(t, "resume.pdf", gotResourceName)

	assert.Equal(t, "2", metadata["xmpTPg:NPages"], "重要元数据应该保留")
	assert.NotContains(t, metadata, "unimportant", "无关元数据应该过滤")
	assert.Equal(t, "resume.pdf", metadata["source_file_name"])
}

func TestTikaDocumentExtractor_UnsupportedFormat(t *testing.T) {
	extractor := NewTikaDocumentExtractor("http://localhost:9998", WithTikaLogger(silentLogger()))

	_, _, err := extractor.ExtractText(context.Background(), []byte("hello"), "notes.txt", "text/plain")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestTikaDocumentExtractor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	extractor := NewTikaDocumentExtractor(server.URL, WithTikaLogger(silentLogger()))

	_, _, err := extractor.ExtractText(context.Background(), []byte("%PDF-1.4"), "resume.pdf", constants.MimePDF)
	assert.Error(t, err, "服务器错误应该透传")
}
