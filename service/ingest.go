package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/netiramawat02/DNE-OPUS-POC/pkg/logger"
)

// Ingestion failure reasons surfaced on the contract record. The empty-text
// reason names the OCR tooling because image-only PDFs without it are the
// dominant failure mode.
const (
	reasonNoText = "no text could be extracted from the document; " +
		"if this is a scanned PDF, OCR tooling (poppler-utils, tesseract-ocr) may not be installed"
	reasonNoChunks = "no indexable text remained after cleaning"
)

// Ingestor runs the per-document pipeline: extract, normalize, chunk, index,
// extract metadata, finalize. Each document is processed independently; a
// failure is recorded on its registry entry and never affects other
// in-flight documents.
type Ingestor struct {
	extractor    TextExtractor
	index        VectorIndex
	metadata     *MetadataExtractor
	registry     *Registry
	chunkSize    int
	chunkOverlap int

	wg sync.WaitGroup
}

func NewIngestor(extractor TextExtractor, index VectorIndex, metadata *MetadataExtractor, registry *Registry, chunkSize, chunkOverlap int) *Ingestor {
	return &Ingestor{
		extractor:    extractor,
		index:        index,
		metadata:     metadata,
		registry:     registry,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Enqueue schedules background processing for one accepted upload. The
// temporary file at path is removed when processing finishes, on every exit
// path.
func (g *Ingestor) Enqueue(path, filename, contractID string) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		g.Process(context.Background(), path, filename, contractID)
	}()
}

// Wait blocks until all enqueued documents have finished processing. Used
// during shutdown and by tests that need deterministic completion.
func (g *Ingestor) Wait() {
	g.wg.Wait()
}

// Process runs the pipeline for a single document synchronously. The
// registry entry for contractID must already exist in processing state; it
// reaches exactly one terminal state before Process returns.
func (g *Ingestor) Process(ctx context.Context, path, filename, contractID string) {
	ctx = context.WithValue(ctx, logger.ContractIDKey, contractID)

	if path != "" {
		defer os.Remove(path)
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "ingestion panicked", "error", r)
			g.registry.FinalizeFailure(contractID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	logger.Info(ctx, "processing upload", "filename", filename)

	text := g.extractor.Extract(path)
	if strings.TrimSpace(text) == "" {
		logger.Warn(ctx, "ingestion failed: no extractable text", "filename", filename)
		g.registry.FinalizeFailure(contractID, reasonNoText)
		return
	}

	segments, err := SplitText(NormalizeText(text), g.chunkSize, g.chunkOverlap)
	if err != nil {
		logger.Error(ctx, "ingestion failed: chunking error", "error", err)
		g.registry.FinalizeFailure(contractID, err.Error())
		return
	}
	if len(segments) == 0 {
		logger.Warn(ctx, "ingestion failed: nothing to index", "filename", filename)
		g.registry.FinalizeFailure(contractID, reasonNoChunks)
		return
	}

	chunks := make([]Chunk, len(segments))
	for i, segment := range segments {
		chunks[i] = Chunk{
			Text: segment,
			Metadata: map[string]string{
				MetaSource:     filename,
				MetaContractID: contractID,
			},
		}
	}

	if _, err := g.index.Index(ctx, chunks); err != nil {
		logger.Error(ctx, "ingestion failed: indexing error", "error", err)
		g.registry.FinalizeFailure(contractID, err.Error())
		return
	}

	// Metadata failure is not terminal: the document stays searchable with
	// an all-null metadata record.
	meta, err := g.metadata.Extract(ctx, text)
	if err != nil {
		logger.Warn(ctx, "metadata extraction failed, keeping document", "error", err)
	}

	g.registry.FinalizeSuccess(contractID, meta)
	logger.Info(ctx, "document processed", "filename", filename, "chunks", len(chunks))
}
