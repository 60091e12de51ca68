package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPlan(t *testing.T) {
	tbl := newTable(t, []string{"id", "title.en-US", "title.fr-FR", "title.de-DE", "tags.en-US", "tags.fr-FR", "sku.en-US", "sku.fr-FR", "note.fr-FR"},
		[]string{"1", "Chair", "", "Stuhl", "red, blue", "", "C-1", "", "x"},
		[]string{"2", "Chair", "", "", "blue", "bleu", "C-2", "", ""},
		[]string{"3", "", "", "", "", "", "", "", ""},
	)
	tr := &fakeTranslator{fn: prefixFR}
	o := New(tr, testConfig(), zaptest.NewLogger(t))

	plan := o.Plan(tbl, Job{SetColumns: []string{"tags"}, ExcludeColumns: []string{"sku"}})

	require.Empty(t, tr.calls)
	require.Equal(t, []string{"sku"}, plan.Excluded)
	require.Equal(t, []string{"note"}, plan.MissingSource)
	require.Equal(t, []ColumnPlan{
		{Field: "title", Source: "title.en-US", Target: "title.fr-FR", Lang: "fr-FR", Pending: 2, Filled: 0, Values: 1},
		{Field: "title", Source: "title.en-US", Target: "title.de-DE", Lang: "de-DE", Pending: 1, Filled: 1, Values: 1},
		{Field: "tags", Source: "tags.en-US", Target: "tags.fr-FR", Lang: "fr-FR", Pending: 1, Filled: 1, Values: 2},
	}, plan.Columns)
	require.Equal(t, 4, plan.Pending())
	require.Equal(t, []string{"title.en-US", "tags.en-US"}, plan.SourceColumns())
	require.Equal(t, "", tbl.Get(0, "title.fr-FR"))
}
