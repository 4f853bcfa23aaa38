// Package record persists breakdowns onto caller-owned salary records.
package record

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iwvelando/take-home-pay/internal/tax"
)

// ErrNotFound is returned when no record has the requested ID.
var ErrNotFound = errors.New("record not found")

// Record is a job application carrying a salary and its stored breakdown.
type Record struct {
	ID                string    `json:"id"`
	Name              string    `json:"name,omitempty"`
	Salary            float64   `json:"salary"`
	FederalTax        float64   `json:"federalTax"`
	SocialSecurityTax float64   `json:"socialSecurityTax"`
	MedicareTax       float64   `json:"medicareTax"`
	TakeHomeYearly    float64   `json:"takeHomeYearly"`
	TakeHomeMonthly   float64   `json:"takeHomeMonthly"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// NeedsBreakdown reports whether the record has a salary but no take-home figure.
func (r Record) NeedsBreakdown() bool {
	return r.Salary > 0 && r.TakeHomeYearly == 0
}

// Apply copies the breakdown's fields onto the record.
func (r Record) Apply(b tax.Breakdown) Record {
	r.Salary = b.Salary
	r.FederalTax = b.FederalTax
	r.SocialSecurityTax = b.SocialSecurityTax
	r.MedicareTax = b.MedicareTax
	r.TakeHomeYearly = b.TakeHomeYearly
	r.TakeHomeMonthly = b.TakeHomeMonthly
	return r
}

// Breakdown rebuilds the stored part of a breakdown from the record.
func (r Record) Breakdown() tax.Breakdown {
	b := tax.Breakdown{
		Salary:            r.Salary,
		FederalTax:        r.FederalTax,
		SocialSecurityTax: r.SocialSecurityTax,
		MedicareTax:       r.MedicareTax,
		TotalTax:          r.FederalTax + r.SocialSecurityTax + r.MedicareTax,
		TakeHomeYearly:    r.TakeHomeYearly,
	}
	return b.WithPeriods()
}

// Store reads and writes records. Save returns the record as stored, with
// UpdatedAt stamped.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)
	Save(ctx context.Context, r Record) (Record, error)
}

// MemoryStore keeps records in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record), now: time.Now}
}

// Get returns the record with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return r, nil
}

// Save inserts or replaces the record.
func (s *MemoryStore) Save(ctx context.Context, r Record) (Record, error) {
	if r.ID == "" {
		return Record{}, errors.New("record ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r.UpdatedAt = s.now()
	s.records[r.ID] = r
	return r, nil
}
