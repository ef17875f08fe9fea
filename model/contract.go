package model

import (
	"time"
)

// Contract represents one uploaded contract document and its processing
// lifecycle. A record is created when the upload is accepted and reaches
// exactly one terminal status afterwards.
type Contract struct {
	ID        string            `json:"id"`
	Filename  string            `json:"filename"`
	Tenant    string            `json:"tenant,omitempty"`
	Status    string            `json:"status"` // processing, processed, failed
	Metadata  *ContractMetadata `json:"metadata"`
	ErrorMsg  string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Contract status constants. Processed and failed are terminal.
const (
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusFailed     = "failed"
)

// ContractMetadata is the structured extraction result for a contract. All
// fields are optional; a failed extraction yields a fully-null record rather
// than a missing one. ContractID here is the id stated in the document text,
// not the system-assigned contract id.
type ContractMetadata struct {
	Title        *string `json:"title"`
	Vendor       *string `json:"vendor"`
	Client       *string `json:"client"`
	StartDate    *string `json:"start_date"`
	EndDate      *string `json:"end_date"`
	RenewalTerms *string `json:"renewal_terms"`
	ContractID   *string `json:"contract_id"`
}

// Clone returns a shallow copy so callers can hand records across goroutine
// boundaries without sharing the mutable struct.
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	copied := *c
	return &copied
}

// Terminal reports whether the contract has reached a final status.
func (c *Contract) Terminal() bool {
	return c.Status == StatusProcessed || c.Status == StatusFailed
}
