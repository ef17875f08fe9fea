package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/netiramawat02/DNE-OPUS-POC/service"
)

// fakeEmbedder returns a fixed non-zero vector for any text.
type fakeEmbedder struct{}

func (fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{1, 0.5, 0.25}, nil
}

// fakeChat returns a canned reply.
type fakeChat struct {
	reply string
}

func (f fakeChat) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.reply, nil
}

// fakeExtractor returns fixed text regardless of path.
type fakeExtractor struct {
	text string
}

func (f fakeExtractor) Extract(path string) string { return f.text }

// newContractFixture wires a handler around real services with fake
// providers. The returned ingestor lets tests wait for background work.
func newContractFixture(extracted string) (*ContractHandler, *service.Registry, *service.Ingestor) {
	registry := service.NewRegistry()
	index := service.NewMemoryIndex(fakeEmbedder{})
	metadata := service.NewMetadataExtractor(fakeChat{reply: `{"title":null,"vendor":null,"client":null,"start_date":null,"end_date":null,"renewal_terms":null,"contract_id":null}`}, 10000)
	ingestor := service.NewIngestor(fakeExtractor{text: extracted}, index, metadata, registry, 1000, 200)
	return NewContractHandler(registry, ingestor, nil), registry, ingestor
}

func pdfUpload(t *testing.T, filename string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte("%PDF-1.4 test content"))
	writer.Close()
	return &body, writer.FormDataContentType()
}

func doUpload(t *testing.T, handler *ContractHandler, filename string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST("/upload", func(c *gin.Context) {
		c.Set("tenant", "it")
		handler.Upload(c)
	})

	body, contentType := pdfUpload(t, filename)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
