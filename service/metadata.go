package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/netiramawat02/DNE-OPUS-POC/model"
)

const metadataSystemPrompt = "You extract metadata from contracts in JSON format."

const metadataInstructions = `You are an expert legal contract analyzer.
Extract the following metadata from the contract text provided below.
Return ONLY a valid JSON object with the following keys:
title, vendor, client, start_date, end_date, renewal_terms, contract_id.

Format dates as YYYY-MM-DD if possible.
If a field is not found, set it to null.

Contract Text:
`

// MetadataExtractor asks the language model for a fixed-schema JSON object
// describing a contract. Input is truncated to a bounded prefix to respect
// model context limits, so metadata beyond the prefix will not be found.
type MetadataExtractor struct {
	llm      ChatModel
	maxChars int
}

func NewMetadataExtractor(llm ChatModel, maxChars int) *MetadataExtractor {
	if maxChars <= 0 {
		maxChars = 10000
	}
	return &MetadataExtractor{llm: llm, maxChars: maxChars}
}

// Extract returns the parsed metadata, or an all-null record plus the error
// when the model call or parsing fails. Callers treat the error as
// non-fatal: a document is still processed when its metadata is missing.
func (e *MetadataExtractor) Extract(ctx context.Context, text string) (*model.ContractMetadata, error) {
	truncated := truncateRunes(text, e.maxChars)

	reply, err := e.llm.Complete(ctx, metadataSystemPrompt, metadataInstructions+"\n\n"+truncated)
	if err != nil {
		return &model.ContractMetadata{}, fmt.Errorf("metadata completion failed: %w", err)
	}

	content := stripCodeFence(strings.TrimSpace(reply))

	var meta model.ContractMetadata
	dec := json.NewDecoder(bytes.NewReader([]byte(content)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&meta); err != nil {
		return &model.ContractMetadata{}, fmt.Errorf("metadata parse failed: %w", err)
	}
	return &meta, nil
}

// stripCodeFence removes Markdown code-fence wrapping that models often add
// around JSON replies.
func stripCodeFence(content string) string {
	if strings.HasPrefix(content, "```json") {
		content = content[len("```json"):]
	} else if strings.HasPrefix(content, "```") {
		content = content[len("```"):]
	}
	if strings.HasSuffix(content, "```") {
		content = content[:len(content)-len("```")]
	}
	return strings.TrimSpace(content)
}

func truncateRunes(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max])
}
