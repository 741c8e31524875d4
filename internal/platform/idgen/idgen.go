// Package idgen issues the human-readable identifiers used across the ward
// backend: daily patient serials, per-patient document sequences, and nurse
// staff numbers. Serials come from named counters that advance atomically,
// so concurrent allocation never produces duplicates.
package idgen

import (
	"context"
	"fmt"
	"time"
)

// CounterStore advances a named counter and returns the new value. The first
// call for a scope returns 1. Implementations must be atomic: two concurrent
// calls for the same scope see distinct values.
type CounterStore interface {
	Next(ctx context.Context, scope string) (int64, error)
}

// Kind selects a document sequence family.
type Kind string

const (
	KindPrescription Kind = "P"
	KindLabReport    Kind = "L"
)

// FileNamePrefix returns the filename prefix used for rendered documents of
// this kind.
func (k Kind) FileNamePrefix() string {
	switch k {
	case KindLabReport:
		return "LABREP"
	default:
		return "PRXN"
	}
}

// Generator allocates identifiers on top of a CounterStore.
type Generator struct {
	counters CounterStore
	now      func() time.Time
}

// New returns a Generator using the wall clock.
func New(counters CounterStore) *Generator {
	return NewWithClock(counters, time.Now)
}

// NewWithClock returns a Generator with an injectable clock, for tests.
func NewWithClock(counters CounterStore, now func() time.Time) *Generator {
	return &Generator{counters: counters, now: now}
}

// PatientID allocates the next patient identifier for today: the calendar
// date followed by a three-digit daily serial, e.g. 20240301001. The serial
// resets each day because each day gets its own counter scope.
func (g *Generator) PatientID(ctx context.Context) (string, error) {
	day := g.now().Format("20060102")
	n, err := g.counters.Next(ctx, "patient:"+day)
	if err != nil {
		return "", fmt.Errorf("next patient serial: %w", err)
	}
	return fmt.Sprintf("%s%03d", day, n), nil
}

// NurseID allocates the next nurse staff number, e.g. N0001.
func (g *Generator) NurseID(ctx context.Context) (string, error) {
	n, err := g.counters.Next(ctx, "nurse")
	if err != nil {
		return "", fmt.Errorf("next nurse serial: %w", err)
	}
	return fmt.Sprintf("N%04d", n), nil
}

// DocumentSequence allocates the next display sequence for a patient's
// rendered documents of the given kind, e.g. P001 or L001. The sequence is
// display-only; filename uniqueness comes from the timestamp in
// DocumentFileName.
func (g *Generator) DocumentSequence(ctx context.Context, patientID string, kind Kind) (string, error) {
	n, err := g.counters.Next(ctx, fmt.Sprintf("doc:%s:%s", patientID, kind))
	if err != nil {
		return "", fmt.Errorf("next document serial: %w", err)
	}
	return fmt.Sprintf("%s%03d", kind, n), nil
}

// DocumentFileName builds the stored filename for a rendered document:
// <PREFIX>-<patientID>-<seq>-<YYYYMMDD>-<millis>.pdf
func (g *Generator) DocumentFileName(kind Kind, patientID, seq string) string {
	now := g.now()
	return fmt.Sprintf("%s-%s-%s-%s-%d.pdf",
		kind.FileNamePrefix(), patientID, seq, now.Format("20060102"), now.UnixMilli())
}
