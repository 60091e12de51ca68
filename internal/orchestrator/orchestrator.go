// Package orchestrator fills the empty language columns of a table with
// translations of the source-language column of the same field.
//
// Columns are grouped by base field name (name.en-US, name.fr-FR → name).
// For every group holding the source language, each other language column
// gets the translation of every source cell whose target is still blank, so a
// run over its own output makes no translator calls.
package orchestrator

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/valpere/csvtran/internal/checkpoint"
	"github.com/valpere/csvtran/internal/placeholder"
	"github.com/valpere/csvtran/internal/table"
)

// DefaultWindowSize is the number of units per translator call when Config
// leaves it unset.
const DefaultWindowSize = 50

// Translator translates an ordered list of texts. On failure it may return
// the translations of a prefix of texts along with the error.
type Translator interface {
	TranslateTexts(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Config holds the naming conventions and pacing of a run.
type Config struct {
	// SourceLang is the source language tag as written in column names.
	SourceLang string
	// FieldLangSep separates the base field from the language tag in column
	// names.
	FieldLangSep string
	// SetSep joins the elements of set cells.
	SetSep string
	// LanguageTag maps a column language tag to the tag sent to the
	// translator. Nil sends tags unchanged.
	LanguageTag func(string) string
	// SaveInterval is the number of written cells between checkpoints; zero
	// disables intermediate checkpoints.
	SaveInterval int
	// WindowSize bounds the units sent in one translator call.
	WindowSize int
}

// Job selects how individual fields are treated. Fields are named by base
// field name.
type Job struct {
	SetColumns     []string
	ExcludeColumns []string
	// JSONFields sets which parts of embedded JSON are translated per field;
	// other fields use placeholder.DefaultJSONOptions.
	JSONFields map[string]placeholder.JSONOptions
}

// Result is the outcome of TranslateTable.
type Result struct {
	Table *table.Table
	Stats checkpoint.Stats
}

type Orchestrator struct {
	tr     Translator
	cfg    Config
	logger *zap.Logger
}

// New returns an orchestrator translating through tr.
func New(tr Translator, cfg Config, logger *zap.Logger) *Orchestrator {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = DefaultWindowSize
	}
	if cfg.LanguageTag == nil {
		cfg.LanguageTag = func(s string) string { return s }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{tr: tr, cfg: cfg, logger: logger}
}

// TranslateTable translates t in place. Errors on individual values are
// logged and counted, never returned; the only error is ctx's, in which case
// the partially translated table is returned too. sink, when not nil,
// receives a snapshot every Config.SaveInterval written cells.
func (o *Orchestrator) TranslateTable(ctx context.Context, t *table.Table, job Job, sink checkpoint.Sink) (*Result, error) {
	r := &run{
		o:        o,
		t:        t,
		sink:     sink,
		progress: checkpoint.NewProgress(o.cfg.SaveInterval),
	}
	sel := o.selectColumns(t, job)
	for _, field := range sel.excluded {
		o.logger.Debug("field excluded", zap.String("field", field))
	}
	for _, field := range sel.missing {
		o.logger.Warn("source language column missing, skipping field",
			zap.String("field", field),
			zap.String("source_lang", o.cfg.SourceLang))
	}
	r.stats.SkippedGroups = len(sel.missing)

	for _, col := range sel.columns {
		if err := r.translateColumn(ctx, col); err != nil {
			return r.result(), err
		}
	}

	return r.result(), nil
}

// selection is the outcome of matching a table's columns against a job.
type selection struct {
	columns  []column
	excluded []string
	missing  []string
}

func (o *Orchestrator) selectColumns(t *table.Table, job Job) selection {
	var sel selection
	setFields := toSet(job.SetColumns)
	excluded := toSet(job.ExcludeColumns)

	for _, g := range table.Groups(t.Columns(), o.cfg.FieldLangSep) {
		if excluded[g.Base] {
			sel.excluded = append(sel.excluded, g.Base)
			continue
		}
		source, ok := g.Column(o.cfg.SourceLang)
		if !ok {
			sel.missing = append(sel.missing, g.Base)
			continue
		}

		opts, ok := job.JSONFields[g.Base]
		if !ok {
			opts = placeholder.DefaultJSONOptions
		}

		for _, lang := range g.Languages {
			if lang == o.cfg.SourceLang {
				continue
			}
			target, _ := g.Column(lang)
			sel.columns = append(sel.columns, column{
				field:  g.Base,
				source: source,
				target: target,
				lang:   lang,
				set:    setFields[g.Base],
				json:   opts,
			})
		}
	}
	return sel
}

// column is one source → target pair.
type column struct {
	field  string
	source string
	target string
	lang   string
	set    bool
	json   placeholder.JSONOptions
}

// pending is a value awaiting translation.
type pending struct {
	value     string
	protected *placeholder.Protected
	units     []string
}

// outcome is the resolved translation of a value.
type outcome struct {
	text string
	ok   bool
}

// rowWork is an eligible row and the values its cell is built from.
type rowWork struct {
	row  int
	keys []string
}

type run struct {
	o        *Orchestrator
	t        *table.Table
	sink     checkpoint.Sink
	progress *checkpoint.Progress
	stats    checkpoint.Stats
}

func (r *run) result() *Result {
	return &Result{Table: r.t, Stats: r.stats}
}

func (r *run) translateColumn(ctx context.Context, col column) error {
	logger := r.o.logger.With(zap.String("source", col.source), zap.String("target", col.target))

	rows, filled := eligibleRows(r.t, col, r.o.cfg.SetSep)
	r.stats.Skipped += filled
	if len(rows) == 0 {
		return nil
	}

	resolved := make(map[string]outcome)
	var queue []*pending
	for _, key := range distinctKeys(rows) {
		if strings.TrimSpace(key) == "" {
			resolved[key] = outcome{text: key, ok: true}
			continue
		}
		p := placeholder.Protect(key, col.json)
		units := p.Units()
		if len(units) == 0 {
			// nothing to translate: numbers, URLs, markup only
			text, err := p.Restore(nil)
			resolved[key] = outcome{text: text, ok: err == nil}
			continue
		}
		queue = append(queue, &pending{value: key, protected: p, units: units})
	}

	logger.Info("translating column",
		zap.Int("rows", len(rows)),
		zap.Int("values", len(queue)))

	sourceTag := r.o.cfg.LanguageTag(r.o.cfg.SourceLang)
	targetTag := r.o.cfg.LanguageTag(col.lang)

	next := 0
	for len(queue) > 0 {
		window := nextWindow(queue, r.o.cfg.WindowSize)
		queue = queue[len(window):]

		var texts []string
		for _, p := range window {
			texts = append(texts, p.units...)
		}

		got, err := r.o.tr.TranslateTexts(ctx, texts, sourceTag, targetTag)
		canceled := ctx.Err() != nil
		if err != nil && !canceled {
			logger.Warn("translation incomplete",
				zap.Int("units", len(texts)),
				zap.Int("translated", len(got)),
				zap.Error(err))
		}

		offset := 0
		for _, p := range window {
			end := offset + len(p.units)
			switch {
			case end <= len(got):
				text, restoreErr := p.protected.Restore(got[offset:end])
				if restoreErr != nil {
					logger.Warn("failed to restore translation",
						zap.String("value", p.value),
						zap.Error(restoreErr))
					resolved[p.value] = outcome{}
				} else {
					resolved[p.value] = outcome{text: text, ok: true}
				}
			case !canceled:
				resolved[p.value] = outcome{}
			}
			offset = end
		}

		next = r.writeRows(ctx, col, rows, next, resolved, logger)
		if canceled {
			return ctx.Err()
		}
	}

	r.writeRows(ctx, col, rows, next, resolved, logger)
	return nil
}

// writeRows writes the cells of rows[next:] whose values are all resolved,
// in row order, and returns the index of the first row still waiting.
func (r *run) writeRows(ctx context.Context, col column, rows []rowWork, next int, resolved map[string]outcome, logger *zap.Logger) int {
	for ; next < len(rows); next++ {
		rw := rows[next]

		parts := make([]string, len(rw.keys))
		ok := true
		for i, key := range rw.keys {
			res, done := resolved[key]
			if !done {
				return next
			}
			if !res.ok {
				ok = false
			}
			parts[i] = res.text
		}
		if !ok {
			r.stats.Failed++
			continue
		}

		value := parts[0]
		if col.set {
			value = strings.Join(parts, r.o.cfg.SetSep)
		} else if kind := r.t.Kind(col.source); kind != table.KindString {
			coerced, err := table.Coerce(value, kind)
			if err != nil {
				logger.Warn("translated value does not match source type, keeping text",
					zap.Int("row", rw.row),
					zap.String("kind", kind.String()),
					zap.String("value", value))
			}
			value = coerced
		}

		if err := r.t.Set(rw.row, col.target, value); err != nil {
			logger.Error("failed to write cell", zap.Int("row", rw.row), zap.Error(err))
			r.stats.Failed++
			continue
		}
		r.stats.Translated++

		if r.progress.Tick() {
			r.checkpoint(ctx, logger)
		}
	}
	return next
}

func (r *run) checkpoint(ctx context.Context, logger *zap.Logger) {
	fresh := r.progress.Pending()
	r.progress.Reset()
	if r.sink == nil {
		return
	}
	snap := checkpoint.Snapshot{Table: r.t, Stats: r.stats}
	if err := r.sink.Persist(ctx, snap); err != nil {
		logger.Warn("checkpoint failed", zap.Int("unsaved_cells", fresh), zap.Error(err))
		return
	}
	logger.Debug("checkpoint saved",
		zap.Int("new_cells", fresh),
		zap.Int("cells_written", r.progress.Total()),
		zap.Stringer("stats", r.stats))
}

// nextWindow takes values from the head of queue until their units reach
// size. A window always holds at least one value.
func nextWindow(queue []*pending, size int) []*pending {
	n, units := 0, 0
	for n < len(queue) {
		if n > 0 && units+len(queue[n].units) > size {
			break
		}
		units += len(queue[n].units)
		n++
	}
	return queue[:n]
}

// eligibleRows returns the rows whose target cell is blank and whose source
// cell is not, and the number of target cells already holding a value.
func eligibleRows(t *table.Table, col column, setSep string) ([]rowWork, int) {
	var rows []rowWork
	filled := 0
	for i := 0; i < t.Len(); i++ {
		if !table.IsBlank(t.Get(i, col.target)) {
			filled++
			continue
		}
		value := t.Get(i, col.source)
		if table.IsBlank(value) {
			continue
		}
		keys := []string{value}
		if col.set {
			keys = splitSet(value, setSep)
		}
		rows = append(rows, rowWork{row: i, keys: keys})
	}
	return rows, filled
}

// distinctKeys lists the values of rows in order of first appearance.
func distinctKeys(rows []rowWork) []string {
	var keys []string
	seen := make(map[string]bool)
	for _, rw := range rows {
		for _, key := range rw.keys {
			if !seen[key] {
				seen[key] = true
				keys = append(keys, key)
			}
		}
	}
	return keys
}

// splitSet splits a set cell into trimmed elements.
func splitSet(value, sep string) []string {
	elems := strings.Split(value, sep)
	for i, e := range elems {
		elems[i] = strings.TrimSpace(e)
	}
	return elems
}

func toSet(names []string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}
