package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/valpere/csvtran/internal/checkpoint"
)

// Job statuses.
const (
	JobRunning     = "running"
	JobCompleted   = "completed"
	JobInterrupted = "interrupted"
)

// Job is the record of one CSV translation run.
type Job struct {
	ID         string
	InputFile  string
	OutputFile string
	SourceLang string
	Status     string
	Translated int
	Skipped    int
	Failed     int
	// Options holds the column options of the run as a YAML job document.
	Options    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CreateJob records a new running job and returns its ID. options is kept
// verbatim for a later resume.
func (s *Store) CreateJob(ctx context.Context, inputFile, outputFile, sourceLang, options string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, input_file, output_file, source_lang, status, options, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, inputFile, outputFile, sourceLang, JobRunning, options, time.Now(), time.Now())
	return id, err
}

// GetJob retrieves a job by ID.
func (s *Store) GetJob(ctx context.Context, id string) (*Job, error) {
	var j Job
	err := s.db.QueryRowContext(ctx,
		`SELECT id, input_file, output_file, source_lang, status, translated, skipped, failed, options, created_at, updated_at FROM jobs WHERE id = ?`,
		id).Scan(&j.ID, &j.InputFile, &j.OutputFile, &j.SourceLang, &j.Status, &j.Translated, &j.Skipped, &j.Failed, &j.Options, &j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// ListJobs returns all jobs, most recent first.
func (s *Store) ListJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, input_file, output_file, source_lang, status, translated, skipped, failed, options, created_at, updated_at FROM jobs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.InputFile, &j.OutputFile, &j.SourceLang, &j.Status, &j.Translated, &j.Skipped, &j.Failed, &j.Options, &j.CreatedAt, &j.UpdatedAt); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// UpdateJob stores the status and counters of a job.
func (s *Store) UpdateJob(ctx context.Context, id, status string, stats checkpoint.Stats) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, translated = ?, skipped = ?, failed = ?, updated_at = ? WHERE id = ?`,
		status, stats.Translated, stats.Skipped, stats.Failed, time.Now(), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// JobSink returns a checkpoint sink that keeps the job's counters current.
// The final snapshot marks the job completed.
func (s *Store) JobSink(id string) checkpoint.Sink {
	return checkpoint.SinkFunc(func(ctx context.Context, snap checkpoint.Snapshot) error {
		status := JobRunning
		if snap.Final {
			status = JobCompleted
		}
		return s.UpdateJob(ctx, id, status, snap.Stats)
	})
}
