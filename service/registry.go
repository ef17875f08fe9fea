package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/netiramawat02/DNE-OPUS-POC/model"
)

// Registry tracks per-document lifecycle state. In-flight records (status
// processing or failed) live in a map keyed by contract id; successfully
// processed records move to an append-only history. Records are never
// persisted across restarts; the whole system is memory-resident.
type Registry struct {
	mu              sync.RWMutex
	inflight        map[string]*model.Contract
	processed       []*model.Contract
	processedByName map[string]*model.Contract
}

func NewRegistry() *Registry {
	return &Registry{
		inflight:        make(map[string]*model.Contract),
		processedByName: make(map[string]*model.Contract),
	}
}

// Begin accepts an upload or short-circuits a duplicate. The second return
// value is false when an existing record is returned instead: a filename
// already processed, or one still processing, never schedules a second job.
// A previously failed filename is eligible for re-upload.
func (r *Registry) Begin(filename, tenant string) (*model.Contract, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.processedByName[filename]; ok {
		return existing.Clone(), false
	}

	for _, record := range r.inflight {
		if record.Filename == filename && record.Status == model.StatusProcessing {
			return record.Clone(), false
		}
	}

	now := time.Now()
	record := &model.Contract{
		ID:        uuid.New().String(),
		Filename:  filename,
		Tenant:    tenant,
		Status:    model.StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.inflight[record.ID] = record
	return record.Clone(), true
}

// FinalizeSuccess transitions a record to processed, attaches its metadata
// and moves it into the processed history, making the filename ineligible
// for re-upload. Terminal records are left untouched.
func (r *Registry) FinalizeSuccess(id string, meta *model.ContractMetadata) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.inflight[id]
	if !ok || record.Terminal() {
		slog.Warn("ignoring finalize for unknown or terminal record", "contract_id", id)
		return
	}

	record.Status = model.StatusProcessed
	record.Metadata = meta
	record.ErrorMsg = ""
	record.UpdatedAt = time.Now()

	delete(r.inflight, id)
	r.processed = append(r.processed, record)
	r.processedByName[record.Filename] = record
}

// FinalizeFailure transitions a record to failed with a diagnostic message.
// Failed records stay visible in the in-flight map; they are never pruned or
// retried automatically, but their filename may be uploaded again.
func (r *Registry) FinalizeFailure(id, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.inflight[id]
	if !ok || record.Terminal() {
		slog.Warn("ignoring finalize for unknown or terminal record", "contract_id", id)
		return
	}

	record.Status = model.StatusFailed
	record.ErrorMsg = errMsg
	record.UpdatedAt = time.Now()
}

// Get returns the record for an id, from either the processed history or the
// in-flight map, or nil when unknown.
func (r *Registry) Get(id string) *model.Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, record := range r.processed {
		if record.ID == id {
			return record.Clone()
		}
	}
	if record, ok := r.inflight[id]; ok {
		return record.Clone()
	}
	return nil
}

// ListAll returns the union of processed and in-flight records. Processed
// entries take precedence when an id appears in both during a finalize race.
func (r *Registry) ListAll() []*model.Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(r.processed))
	result := make([]*model.Contract, 0, len(r.processed)+len(r.inflight))
	for _, record := range r.processed {
		seen[record.ID] = true
		result = append(result, record.Clone())
	}
	for _, record := range r.inflight {
		if !seen[record.ID] {
			result = append(result, record.Clone())
		}
	}
	return result
}

// Count returns the total number of known records.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.processed) + len(r.inflight)
}
