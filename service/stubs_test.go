package service

import (
	"context"
	"errors"
	"sync"
)

// stubEmbedder produces deterministic letter-frequency vectors so cosine
// similarity tracks rough textual overlap without a real backend.
type stubEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	vec := make([]float64, 26)
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z':
			vec[r-'a']++
		case r >= 'A' && r <= 'Z':
			vec[r-'A']++
		}
	}
	return vec, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubChat returns a canned reply and records the prompts it was given.
type stubChat struct {
	mu      sync.Mutex
	calls   int
	reply   string
	err     error
	lastSys string
	lastUsr string
}

func (s *stubChat) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.lastSys = systemPrompt
	s.lastUsr = userPrompt
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func (s *stubChat) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubExtractor returns fixed text for any path.
type stubExtractor struct {
	text string
}

func (s *stubExtractor) Extract(path string) string { return s.text }

// panicExtractor simulates an unexpected crash inside the pipeline.
type panicExtractor struct{}

func (panicExtractor) Extract(path string) string { panic("extractor blew up") }

// stubIndex is a canned VectorIndex for chat engine tests.
type stubIndex struct {
	empty     bool
	results   []Chunk
	searchErr error
}

func (s *stubIndex) Index(ctx context.Context, chunks []Chunk) (bool, error) {
	return len(chunks) > 0, nil
}

func (s *stubIndex) Search(ctx context.Context, query string, k int, filter map[string]string) ([]Chunk, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.results, nil
}

func (s *stubIndex) IsEmpty() bool                      { return s.empty }
func (s *stubIndex) Clear(ctx context.Context) error    { return nil }

var errProviderDown = errors.New("provider unreachable")
