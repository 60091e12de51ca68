package orchestrator

import (
	"github.com/valpere/csvtran/internal/table"
)

// ColumnPlan is the work TranslateTable would do for one target column.
type ColumnPlan struct {
	Field  string
	Source string
	Target string
	Lang   string
	// Pending counts blank target cells with a source value.
	Pending int
	// Filled counts target cells that already hold a value.
	Filled int
	// Values counts the distinct source values of the pending cells; set
	// elements count individually.
	Values int
}

// Plan describes a TranslateTable run without performing it.
type Plan struct {
	Columns []ColumnPlan
	// Excluded lists the fields left out by the job.
	Excluded []string
	// MissingSource lists the fields without a source language column.
	MissingSource []string
}

// Pending returns the total number of cells the run would write.
func (p Plan) Pending() int {
	n := 0
	for _, c := range p.Columns {
		n += c.Pending
	}
	return n
}

// Plan reports what TranslateTable would translate in t for job. It makes no
// translator calls and does not modify t.
func (o *Orchestrator) Plan(t *table.Table, job Job) Plan {
	sel := o.selectColumns(t, job)
	plan := Plan{Excluded: sel.excluded, MissingSource: sel.missing}
	for _, col := range sel.columns {
		rows, filled := eligibleRows(t, col, o.cfg.SetSep)
		plan.Columns = append(plan.Columns, ColumnPlan{
			Field:   col.field,
			Source:  col.source,
			Target:  col.target,
			Lang:    col.lang,
			Pending: len(rows),
			Filled:  filled,
			Values:  len(distinctKeys(rows)),
		})
	}
	return plan
}

// SourceColumns returns the source column of every selected field, in table
// order.
func (p Plan) SourceColumns() []string {
	var cols []string
	seen := make(map[string]bool)
	for _, c := range p.Columns {
		if !seen[c.Source] {
			seen[c.Source] = true
			cols = append(cols, c.Source)
		}
	}
	return cols
}
