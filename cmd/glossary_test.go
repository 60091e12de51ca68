package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/valpere/csvtran/internal/config"
	"github.com/valpere/csvtran/internal/store"
	"github.com/valpere/csvtran/internal/table"
)

func TestImportGlossary(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "glossary.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	tbl, err := table.New(
		[]string{"id", "term.en_US", "term.fr_FR", "term.de_DE", "note.fr_FR"},
		[][]string{
			{"1", "cart", "panier", "Warenkorb", "x"},
			{"2", "checkout", "", "Kasse", "y"},
			{"3", "", "vide", "leer", "z"},
		},
	)
	require.NoError(t, err)

	layout := &config.Config{LanguageSeparator: "_", FieldLanguageSeparator: ".", SourceLanguage: "en_US"}
	n, err := importGlossary(ctx, db, tbl, layout)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	terms, err := db.GetGlossaryTerms(ctx, "en-US", "fr-FR")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"cart": "panier"}, terms)

	terms, err = db.GetGlossaryTerms(ctx, "en-US", "de-DE")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"cart": "Warenkorb", "checkout": "Kasse"}, terms)
}

func TestImportGlossary_NoSourceColumn(t *testing.T) {
	db, err := store.New(filepath.Join(t.TempDir(), "glossary.db"))
	require.NoError(t, err)
	defer db.Close()

	tbl, err := table.New([]string{"term.fr-FR", "term.de-DE"}, [][]string{{"panier", "Warenkorb"}})
	require.NoError(t, err)

	layout := &config.Config{LanguageSeparator: "-", FieldLanguageSeparator: ".", SourceLanguage: "en-US"}
	n, err := importGlossary(context.Background(), db, tbl, layout)
	require.NoError(t, err)
	require.Zero(t, n)
}
