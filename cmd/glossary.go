/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/csvtran/internal/config"
	"github.com/valpere/csvtran/internal/store"
	"github.com/valpere/csvtran/internal/table"
)

var (
	glossaryDBPath string
	glossarySource string
	glossaryTarget string
)

var glossaryCmd = &cobra.Command{
	Use:   "glossary",
	Short: "Manage the terminology glossary",
	Long: `Add, import, list and delete glossary terms.

Glossary terms are added to the prompt of LLM providers so a source term is
always rendered as the same target term. Language tags may be written as in
column names (LANGUAGE_SEPARATOR is honoured) and are stored in canonical
BCP 47 form. Terms recorded for base languages (en → fr) apply to every
regional pair (en-US → fr-CA) unless that pair has its own entry.`,
}

var glossaryAddCmd = &cobra.Command{
	Use:   "add <source-term> <target-term>",
	Short: "Add or replace a glossary term",
	Example: `  csvtran glossary add "cart" "panier" --source en --target fr
  csvtran glossary add "cart" "chariot" --source en_US --target fr_CA`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if glossarySource == "" || glossaryTarget == "" {
			return fmt.Errorf("--source and --target are required")
		}
		layout := glossaryLayout()
		source := layout.LanguageTag(glossarySource)
		target := layout.LanguageTag(glossaryTarget)

		db, err := openStore(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.AddGlossaryTerm(context.Background(), source, target, args[0], args[1]); err != nil {
			return fmt.Errorf("failed to add glossary term: %w", err)
		}
		fmt.Printf("%s → %s: %q = %q\n", source, target, args[0], args[1])
		return nil
	},
}

var glossaryImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import glossary terms from a CSV file with language columns",
	Long: `Import terms from a CSV file laid out like the files csvtran translates:
columns named <field><FIELD_LANGUAGE_SEPARATOR><language>. For every field,
the cell of the source language column is the term and the other language
cells of the same row are its renderings. Blank cells are skipped.

  term.en-US,term.fr-FR,term.de-DE
  cart,panier,Warenkorb`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		layout, err := config.LoadLayout(envFile)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if glossarySource != "" {
			layout.SourceLanguage = glossarySource
		}

		tbl, err := table.ReadFile(args[0])
		if err != nil {
			return err
		}

		db, err := openStore(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := importGlossary(context.Background(), db, tbl, layout)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d glossary terms from %s\n", n, args[0])
		return nil
	},
}

var glossaryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary terms",
	RunE: func(cmd *cobra.Command, args []string) error {
		layout := glossaryLayout()
		var source, target string
		if glossarySource != "" {
			source = layout.LanguageTag(glossarySource)
		}
		if glossaryTarget != "" {
			target = layout.LanguageTag(glossaryTarget)
		}

		db, err := openStore(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListGlossaryTerms(context.Background(), source, target)
		if err != nil {
			return fmt.Errorf("failed to list glossary: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No glossary terms.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tPAIR\tSOURCE TERM\tTARGET TERM")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s→%s\t%s\t%s\n", e.ID, e.SourceLang, e.TargetLang, e.SourceTerm, e.TargetTerm)
		}
		return w.Flush()
	},
}

var glossaryDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete glossary terms by ID",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(glossaryDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		for _, id := range args {
			if err := db.DeleteGlossaryTerm(context.Background(), id); err != nil {
				return fmt.Errorf("failed to delete glossary term %s: %w", id, err)
			}
		}
		fmt.Printf("Deleted %d glossary term(s)\n", len(args))
		return nil
	},
}

// glossaryLayout returns the configured separators, or the defaults when no
// configuration is available; tags then only need BCP 47 or "_" form.
func glossaryLayout() *config.Config {
	layout, err := config.LoadLayout(envFile)
	if err != nil {
		logger.Debug("no layout configuration, using \"-\" as language separator", zap.Error(err))
		return &config.Config{LanguageSeparator: "-"}
	}
	return layout
}

// importGlossary adds a term for every non-blank pair of source and target
// cells in tbl and returns how many were added.
func importGlossary(ctx context.Context, db *store.Store, tbl *table.Table, layout *config.Config) (int, error) {
	source := layout.LanguageTag(layout.SourceLanguage)
	added := 0
	for _, g := range table.Groups(tbl.Columns(), layout.FieldLanguageSeparator) {
		sourceCol, ok := g.Column(layout.SourceLanguage)
		if !ok {
			logger.Warn("no source language column, skipping field",
				zap.String("field", g.Base),
				zap.String("source_lang", layout.SourceLanguage))
			continue
		}
		for _, lang := range g.Languages {
			col := g.Columns[lang]
			if col == sourceCol {
				continue
			}
			target := layout.LanguageTag(lang)
			for row := 0; row < tbl.Len(); row++ {
				term, rendering := tbl.Get(row, sourceCol), tbl.Get(row, col)
				if table.IsBlank(term) || table.IsBlank(rendering) {
					continue
				}
				if err := db.AddGlossaryTerm(ctx, source, target, term, rendering); err != nil {
					return added, fmt.Errorf("failed to add %q (%s): %w", term, target, err)
				}
				added++
			}
		}
	}
	return added, nil
}

func init() {
	rootCmd.AddCommand(glossaryCmd)

	glossaryCmd.PersistentFlags().StringVar(&glossaryDBPath, "db", defaultDBPath, "Database path")

	glossaryAddCmd.Flags().StringVarP(&glossarySource, "source", "s", "", "Source language tag (required)")
	glossaryAddCmd.Flags().StringVarP(&glossaryTarget, "target", "t", "", "Target language tag (required)")
	glossaryListCmd.Flags().StringVarP(&glossarySource, "source", "s", "", "Only terms of this source language")
	glossaryListCmd.Flags().StringVarP(&glossaryTarget, "target", "t", "", "Only terms of this target language")
	glossaryImportCmd.Flags().StringVarP(&glossarySource, "source", "s", "", "Source language tag as written in column names (default: SOURCE_LANGUAGE)")

	glossaryCmd.AddCommand(glossaryAddCmd, glossaryImportCmd, glossaryListCmd, glossaryDeleteCmd)
}
