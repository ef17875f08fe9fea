package service

import (
	"context"
	"strings"
	"testing"
)

func TestMetadataExtractSuccess(t *testing.T) {
	chat := &stubChat{reply: `{"title":"MSA","vendor":"Acme Corp","client":null,"start_date":"2024-01-01","end_date":null,"renewal_terms":null,"contract_id":"C-42"}`}
	extractor := NewMetadataExtractor(chat, 10000)

	meta, err := extractor.Extract(context.Background(), "some contract text")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if meta.Title == nil || *meta.Title != "MSA" {
		t.Errorf("Expected title MSA, got %v", meta.Title)
	}
	if meta.Vendor == nil || *meta.Vendor != "Acme Corp" {
		t.Errorf("Expected vendor Acme Corp, got %v", meta.Vendor)
	}
	if meta.Client != nil {
		t.Errorf("Expected null client, got %q", *meta.Client)
	}
	if meta.StartDate == nil || *meta.StartDate != "2024-01-01" {
		t.Errorf("Expected start date 2024-01-01, got %v", meta.StartDate)
	}
	if meta.ContractID == nil || *meta.ContractID != "C-42" {
		t.Errorf("Expected contract id C-42, got %v", meta.ContractID)
	}
}

func TestMetadataExtractCodeFence(t *testing.T) {
	chat := &stubChat{reply: "```json\n{\"title\":\"NDA\",\"vendor\":null,\"client\":null,\"start_date\":null,\"end_date\":null,\"renewal_terms\":null,\"contract_id\":null}\n```"}
	extractor := NewMetadataExtractor(chat, 10000)

	meta, err := extractor.Extract(context.Background(), "text")
	if err != nil {
		t.Fatalf("Extract failed on fenced reply: %v", err)
	}
	if meta.Title == nil || *meta.Title != "NDA" {
		t.Errorf("Expected title NDA, got %v", meta.Title)
	}
}

func TestMetadataExtractUnparsable(t *testing.T) {
	chat := &stubChat{reply: "Sorry, I cannot help with that."}
	extractor := NewMetadataExtractor(chat, 10000)

	meta, err := extractor.Extract(context.Background(), "text")
	if err == nil {
		t.Fatal("Expected parse error for non-JSON reply")
	}
	if meta == nil {
		t.Fatal("Expected non-nil metadata record on failure")
	}
	if meta.Title != nil || meta.Vendor != nil || meta.ContractID != nil {
		t.Error("Expected all-null metadata on failure")
	}
}

func TestMetadataExtractProviderError(t *testing.T) {
	chat := &stubChat{err: errProviderDown}
	extractor := NewMetadataExtractor(chat, 10000)

	meta, err := extractor.Extract(context.Background(), "text")
	if err == nil {
		t.Fatal("Expected error when the model call fails")
	}
	if meta == nil || meta.Title != nil {
		t.Error("Expected all-null metadata on provider failure")
	}
}

func TestMetadataExtractTruncatesInput(t *testing.T) {
	chat := &stubChat{reply: `{"title":null,"vendor":null,"client":null,"start_date":null,"end_date":null,"renewal_terms":null,"contract_id":null}`}
	extractor := NewMetadataExtractor(chat, 50)

	long := strings.Repeat("x", 500)
	if _, err := extractor.Extract(context.Background(), long); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if !strings.HasSuffix(chat.lastUsr, strings.Repeat("x", 50)) {
		t.Error("Expected prompt to end with the truncated prefix")
	}
	if strings.Contains(chat.lastUsr, strings.Repeat("x", 51)) {
		t.Error("Expected contract text to be truncated to the configured limit")
	}
}

func TestStripCodeFence(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"{\"a\":1}", "{\"a\":1}"},
		{"```json\n{\"a\":1}\n```", "{\"a\":1}"},
		{"```\n{\"a\":1}\n```", "{\"a\":1}"},
	}
	for _, c := range cases {
		if got := stripCodeFence(c.in); got != c.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
