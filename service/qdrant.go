package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/netiramawat02/DNE-OPUS-POC/config"
)

// QdrantIndex is a VectorIndex backed by a Qdrant instance over its REST
// API. The collection is created lazily on the first successful insert, with
// the dimension taken from the first embedded chunk.
type QdrantIndex struct {
	embedder   Embedder
	url        string
	apiKey     string
	collection string
	client     *http.Client

	mu        sync.RWMutex
	populated bool
	created   bool
}

func NewQdrantIndex(embedder Embedder, cfg *config.QdrantConfig) *QdrantIndex {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &QdrantIndex{
		embedder:   embedder,
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func (q *QdrantIndex) Index(ctx context.Context, chunks []Chunk) (bool, error) {
	if len(chunks) == 0 {
		return false, nil
	}

	vectors := make([][]float64, len(chunks))
	for i, chunk := range chunks {
		vec, err := q.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return false, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		vectors[i] = vec
	}

	if err := q.ensureCollection(ctx, len(vectors[0])); err != nil {
		return false, err
	}

	points := make([]map[string]any, len(chunks))
	for i, chunk := range chunks {
		payload := map[string]any{"text": chunk.Text}
		for k, v := range chunk.Metadata {
			payload[k] = v
		}
		points[i] = map[string]any{
			"id":      uuid.New().String(),
			"vector":  vectors[i],
			"payload": payload,
		}
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", q.url, q.collection)
	if err := q.doJSON(ctx, http.MethodPut, url, map[string]any{"points": points}, nil); err != nil {
		return false, err
	}

	q.mu.Lock()
	q.populated = true
	q.mu.Unlock()
	return true, nil
}

func (q *QdrantIndex) Search(ctx context.Context, query string, k int, filter map[string]string) ([]Chunk, error) {
	if q.IsEmpty() || k <= 0 {
		return nil, nil
	}

	queryVec, err := q.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	req := map[string]any{
		"vector":       queryVec,
		"limit":        k,
		"with_payload": true,
	}
	if len(filter) > 0 {
		var must []map[string]any
		for key, value := range filter {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		req["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", q.url, q.collection)
	if err := q.doJSON(ctx, http.MethodPost, url, req, &resp); err != nil {
		return nil, err
	}

	results := make([]Chunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := Chunk{Metadata: make(map[string]string)}
		for key, value := range r.Payload {
			s, ok := value.(string)
			if !ok {
				continue
			}
			if key == "text" {
				chunk.Text = s
			} else {
				chunk.Metadata[key] = s
			}
		}
		results = append(results, chunk)
	}
	return results, nil
}

// IsEmpty tracks population in-process, matching the memory index semantics:
// the index counts as empty until this process has inserted chunks.
func (q *QdrantIndex) IsEmpty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return !q.populated
}

func (q *QdrantIndex) Clear(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", q.url, q.collection)
	err := q.doJSON(ctx, http.MethodDelete, url, nil, nil)

	q.mu.Lock()
	q.populated = false
	q.created = false
	q.mu.Unlock()
	return err
}

func (q *QdrantIndex) ensureCollection(ctx context.Context, dimension int) error {
	q.mu.RLock()
	created := q.created
	q.mu.RUnlock()
	if created {
		return nil
	}

	// Qdrant returns 200 when the collection already exists with the same
	// schema, so an unconditional PUT is safe here.
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	url := fmt.Sprintf("%s/collections/%s", q.url, q.collection)
	if err := q.doJSON(ctx, http.MethodPut, url, body, nil); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}

	q.mu.Lock()
	q.created = true
	q.mu.Unlock()
	return nil
}

func (q *QdrantIndex) doJSON(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if q.apiKey != "" {
		req.Header.Set("api-key", q.apiKey)
	}

	resp, err := q.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
