// Package checkpoint persists snapshots of an in-progress translation job so
// an interrupted run can pick up where it stopped.
package checkpoint

import (
	"context"
	"errors"
	"fmt"

	"github.com/valpere/csvtran/internal/table"
)

// Stats counts the outcome of a job so far.
type Stats struct {
	// Translated is the number of cells written.
	Translated int
	// Skipped is the number of target cells that already held a value.
	Skipped int
	// Failed is the number of cells left untouched after an error.
	Failed int
	// SkippedGroups is the number of column groups without a source column.
	SkippedGroups int
}

func (s Stats) String() string {
	return fmt.Sprintf("translated=%d skipped=%d failed=%d skipped_groups=%d",
		s.Translated, s.Skipped, s.Failed, s.SkippedGroups)
}

// Snapshot is the state handed to a Sink. Sinks must not modify Table.
type Snapshot struct {
	Table *table.Table
	Stats Stats
	// Final is set on the snapshot taken when the job ends.
	Final bool
}

// Sink persists snapshots.
type Sink interface {
	Persist(ctx context.Context, snap Snapshot) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, snap Snapshot) error

func (f SinkFunc) Persist(ctx context.Context, snap Snapshot) error {
	return f(ctx, snap)
}

// FileSink writes the table to a CSV file, replacing it atomically.
type FileSink struct {
	Path string
}

func (s FileSink) Persist(ctx context.Context, snap Snapshot) error {
	if err := snap.Table.WriteFile(s.Path); err != nil {
		return fmt.Errorf("checkpoint %s: %w", s.Path, err)
	}
	return nil
}

// Sinks persists to every sink in order and joins their errors.
type Sinks []Sink

func (s Sinks) Persist(ctx context.Context, snap Snapshot) error {
	var errs []error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Persist(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Progress counts written cells and reports when a checkpoint is due.
type Progress struct {
	interval int
	pending  int
	total    int
}

// NewProgress returns a tracker that fires every interval ticks. An interval
// of zero or less never fires.
func NewProgress(interval int) *Progress {
	return &Progress{interval: interval}
}

// Tick records one written cell and reports whether a checkpoint is due.
func (p *Progress) Tick() bool {
	p.total++
	if p.interval <= 0 {
		return false
	}
	p.pending++
	return p.pending >= p.interval
}

// Reset marks the pending ticks as persisted.
func (p *Progress) Reset() {
	p.pending = 0
}

// Pending returns the ticks since the last Reset.
func (p *Progress) Pending() int {
	return p.pending
}

// Total returns all ticks so far.
func (p *Progress) Total() int {
	return p.total
}
