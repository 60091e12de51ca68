// Package translator turns lists of text units into equal-length lists of
// translations through a remote engine. The Client splits work into batches,
// enforces line alignment, retries failed batches with exponential backoff
// and pauses between batches.
package translator

import (
	"context"
	"fmt"
	"strings"
)

// BatchRequest is one request to an Engine.
type BatchRequest struct {
	Lines      []string
	SourceLang string
	TargetLang string
}

// Engine translates one batch. An engine returns one translation per line of
// the request; the Client treats any other count as an AlignmentError.
type Engine interface {
	Name() string
	TranslateBatch(ctx context.Context, req BatchRequest) ([]string, error)
}

// AlignmentError reports a response whose line count differs from the
// request's.
type AlignmentError struct {
	Want int
	Got  int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("expected %d translations, got %d", e.Want, e.Got)
}

// BatchError reports a batch that failed on every attempt. Translations of
// the batches before it are returned alongside the error.
type BatchError struct {
	// Batch is the zero-based index of the failed batch within the call.
	Batch int
	// Offset is the index of the batch's first text within the call.
	Offset   int
	Attempts int
	Err      error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("batch %d failed after %d attempt(s): %v", e.Batch, e.Attempts, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

// lineBreak stands in for a line break inside one unit, so the line-per-unit
// protocol keeps one line per unit.
const lineBreak = "[[NL]]"

func encodeLineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", lineBreak)
}

func decodeLineBreaks(s string) string {
	return strings.ReplaceAll(s, lineBreak, "\n")
}
