package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/netiramawat02/DNE-OPUS-POC/pkg/logger"
)

// Fallback answers for queries that retrieval cannot ground.
const (
	answerNoContracts = "No contracts have been indexed. Please upload a readable PDF contract first."
	answerNoMatchAll  = "I couldn't find any relevant information in the uploaded contracts to answer your question."
	answerNoMatchOne  = "I couldn't find any relevant information in the selected contract to answer your question."
)

const chatSystemPrompt = `You are an AI assistant for IT Admin Teams specializing in contract analysis.
Answer the user's question based strictly on the provided context.
If the answer is not in the context, say "I cannot find this information in the contracts provided."

When answering:
1. Be precise with dates, names, and clauses.
2. Cite the contract name if multiple are present in context.
3. Quote the relevant clause if applicable.`

// ChatEngine answers natural-language questions against the indexed corpus
// with source attribution. It reads the vector index only; provider failures
// are returned as answer text, never as transport errors.
type ChatEngine struct {
	index VectorIndex
	llm   ChatModel
	topK  int
}

func NewChatEngine(index VectorIndex, llm ChatModel, topK int) *ChatEngine {
	if topK <= 0 {
		topK = 3
	}
	return &ChatEngine{index: index, llm: llm, topK: topK}
}

// Answer retrieves the chunks most relevant to query, optionally scoped to
// one contract id, and asks the language model for a grounded reply. The
// returned sources are the deduplicated filenames of the retrieved chunks.
// An empty index yields a fixed refusal without touching either provider.
func (e *ChatEngine) Answer(ctx context.Context, query, contractID string) (string, []string) {
	if e.index.IsEmpty() {
		return answerNoContracts, []string{}
	}

	var filter map[string]string
	if contractID != "" {
		filter = map[string]string{MetaContractID: contractID}
	}

	chunks, err := e.index.Search(ctx, query, e.topK, filter)
	if err != nil {
		logger.Error(ctx, "retrieval failed", "error", err)
		return fmt.Sprintf("Error generating answer: %v", err), []string{}
	}

	if len(chunks) == 0 {
		if contractID != "" {
			return answerNoMatchOne, []string{}
		}
		return answerNoMatchAll, []string{}
	}

	var grounding strings.Builder
	for i, chunk := range chunks {
		source := chunk.Metadata[MetaSource]
		if source == "" {
			source = "Unknown"
		}
		fmt.Fprintf(&grounding, "--- Segment %d from %s ---\n%s\n\n", i+1, source, chunk.Text)
	}

	userPrompt := fmt.Sprintf("Context:\n%s\nQuestion:\n%s", grounding.String(), query)

	answer, err := e.llm.Complete(ctx, chatSystemPrompt, userPrompt)
	if err != nil {
		logger.Error(ctx, "completion failed", "error", err)
		answer = fmt.Sprintf("Error generating answer: %v", err)
	}

	return answer, sourceNames(chunks)
}

// sourceNames deduplicates the source filenames of the given chunks. The
// result is sorted so responses are stable regardless of retrieval order.
func sourceNames(chunks []Chunk) []string {
	seen := make(map[string]bool)
	var sources []string
	for _, chunk := range chunks {
		source := chunk.Metadata[MetaSource]
		if source == "" || seen[source] {
			continue
		}
		seen[source] = true
		sources = append(sources, source)
	}
	sort.Strings(sources)
	return sources
}
