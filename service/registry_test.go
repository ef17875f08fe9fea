package service

import (
	"testing"

	"github.com/netiramawat02/DNE-OPUS-POC/model"
)

func TestRegistryBeginNewUpload(t *testing.T) {
	registry := NewRegistry()

	record, created := beginUpload(t, registry, "contract.pdf")
	if !created {
		t.Fatal("Expected a new record to be created")
	}
	if record.Status != model.StatusProcessing {
		t.Errorf("Expected processing status, got %s", record.Status)
	}
	if record.ID == "" {
		t.Error("Expected a generated contract id")
	}
}

func beginUpload(t *testing.T, r *Registry, filename string) (*model.Contract, bool) {
	t.Helper()
	record, created := r.Begin(filename, "it")
	if record == nil {
		t.Fatal("Begin returned nil record")
	}
	return record, created
}

func TestRegistryDuplicateInFlight(t *testing.T) {
	registry := NewRegistry()

	first, created := beginUpload(t, registry, "contract.pdf")
	if !created {
		t.Fatal("First upload should create a record")
	}

	second, created := beginUpload(t, registry, "contract.pdf")
	if created {
		t.Error("Duplicate in-flight upload must not create a new record")
	}
	if second.ID != first.ID {
		t.Errorf("Expected same id for duplicate upload: %s vs %s", first.ID, second.ID)
	}
	if second.Status != model.StatusProcessing {
		t.Errorf("Expected processing status, got %s", second.Status)
	}
	if registry.Count() != 1 {
		t.Errorf("Expected exactly one record, got %d", registry.Count())
	}
}

func TestRegistryDuplicateProcessed(t *testing.T) {
	registry := NewRegistry()

	first, _ := beginUpload(t, registry, "contract.pdf")
	registry.FinalizeSuccess(first.ID, &model.ContractMetadata{})

	second, created := beginUpload(t, registry, "contract.pdf")
	if created {
		t.Error("Upload of a processed filename must not create a new record")
	}
	if second.Status != model.StatusProcessed {
		t.Errorf("Expected processed status, got %s", second.Status)
	}
	if second.ID != first.ID {
		t.Errorf("Expected the processed record's id, got %s", second.ID)
	}
	if registry.Count() != 1 {
		t.Errorf("Expected exactly one record, got %d", registry.Count())
	}
}

func TestRegistryFailedFilenameEligibleAgain(t *testing.T) {
	registry := NewRegistry()

	first, _ := beginUpload(t, registry, "contract.pdf")
	registry.FinalizeFailure(first.ID, "no text could be extracted")

	second, created := beginUpload(t, registry, "contract.pdf")
	if !created {
		t.Error("A failed filename should be eligible for re-upload")
	}
	if second.ID == first.ID {
		t.Error("Re-upload should allocate a fresh id")
	}
}

func TestRegistryFinalizeSuccessMovesRecord(t *testing.T) {
	registry := NewRegistry()

	record, _ := beginUpload(t, registry, "contract.pdf")
	title := "MSA"
	registry.FinalizeSuccess(record.ID, &model.ContractMetadata{Title: &title})

	stored := registry.Get(record.ID)
	if stored == nil {
		t.Fatal("Expected record after finalize")
	}
	if stored.Status != model.StatusProcessed {
		t.Errorf("Expected processed, got %s", stored.Status)
	}
	if stored.Metadata == nil || stored.Metadata.Title == nil || *stored.Metadata.Title != "MSA" {
		t.Error("Expected metadata to be attached")
	}
}

func TestRegistryFinalizeFailureKeepsRecordVisible(t *testing.T) {
	registry := NewRegistry()

	record, _ := beginUpload(t, registry, "contract.pdf")
	registry.FinalizeFailure(record.ID, "boom")

	stored := registry.Get(record.ID)
	if stored == nil {
		t.Fatal("Expected failed record to stay visible")
	}
	if stored.Status != model.StatusFailed {
		t.Errorf("Expected failed, got %s", stored.Status)
	}
	if stored.ErrorMsg != "boom" {
		t.Errorf("Expected error message, got %q", stored.ErrorMsg)
	}
}

func TestRegistryTerminalStatesAreFinal(t *testing.T) {
	registry := NewRegistry()

	record, _ := beginUpload(t, registry, "contract.pdf")
	registry.FinalizeFailure(record.ID, "first failure")

	// Neither a second failure nor a late success may change a terminal state.
	registry.FinalizeFailure(record.ID, "second failure")
	if stored := registry.Get(record.ID); stored.ErrorMsg != "first failure" {
		t.Errorf("Terminal record was mutated: %q", stored.ErrorMsg)
	}

	registry.FinalizeSuccess(record.ID, &model.ContractMetadata{})
	if stored := registry.Get(record.ID); stored.Status != model.StatusFailed {
		t.Errorf("Failed record moved backward to %s", stored.Status)
	}
}

func TestRegistryFinalizeUnknownID(t *testing.T) {
	registry := NewRegistry()
	// Must not panic.
	registry.FinalizeSuccess("nope", &model.ContractMetadata{})
	registry.FinalizeFailure("nope", "err")
}

func TestRegistryListAll(t *testing.T) {
	registry := NewRegistry()

	done, _ := beginUpload(t, registry, "done.pdf")
	registry.FinalizeSuccess(done.ID, &model.ContractMetadata{})

	pending, _ := beginUpload(t, registry, "pending.pdf")

	failed, _ := beginUpload(t, registry, "failed.pdf")
	registry.FinalizeFailure(failed.ID, "unreadable")

	records := registry.ListAll()
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}

	byID := make(map[string]string)
	for _, r := range records {
		byID[r.ID] = r.Status
	}
	if byID[done.ID] != model.StatusProcessed {
		t.Errorf("Expected done.pdf processed, got %s", byID[done.ID])
	}
	if byID[pending.ID] != model.StatusProcessing {
		t.Errorf("Expected pending.pdf processing, got %s", byID[pending.ID])
	}
	if byID[failed.ID] != model.StatusFailed {
		t.Errorf("Expected failed.pdf failed, got %s", byID[failed.ID])
	}
}

func TestRegistryGetUnknown(t *testing.T) {
	registry := NewRegistry()
	if registry.Get("missing") != nil {
		t.Error("Expected nil for unknown id")
	}
}

func TestRegistryCloneIsolation(t *testing.T) {
	registry := NewRegistry()

	record, _ := beginUpload(t, registry, "contract.pdf")
	record.Status = model.StatusFailed // mutate the returned copy

	if stored := registry.Get(record.ID); stored.Status != model.StatusProcessing {
		t.Error("Mutating a returned record must not affect the registry")
	}
}
