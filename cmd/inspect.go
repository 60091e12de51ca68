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
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/valpere/csvtran/internal/config"
	"github.com/valpere/csvtran/internal/detector"
	"github.com/valpere/csvtran/internal/orchestrator"
	"github.com/valpere/csvtran/internal/table"
)

var (
	inspectInput    string
	inspectLanguage bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show what translate would do, without translating",
	Long: `Report, for every target language column, how many cells translate would
fill and how many already hold a value. Fields without a source language
column and excluded fields are listed too.

With --check-language the text of every populated language column is run
through a language detector and compared with the column's tag, which
catches swapped or mislabeled columns before any text is sent out.

Example:
  csvtran inspect -i products.csv --set-column tags --check-language`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadLayout(envFile)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if sourceLang != "" {
			cfg.SourceLanguage = sourceLang
		}
		job, err := buildJob()
		if err != nil {
			return err
		}

		tbl, err := table.ReadFile(inspectInput)
		if err != nil {
			return err
		}

		orch := orchestrator.New(nil, orchestrator.Config{
			SourceLang:   cfg.SourceLanguage,
			FieldLangSep: cfg.FieldLanguageSeparator,
			SetSep:       cfg.SetSeparator,
			LanguageTag:  cfg.LanguageTag,
		}, logger)
		plan := orch.Plan(tbl, orchestratorJob(job))

		fmt.Printf("%s: %d rows, %d columns\n\n", inspectInput, tbl.Len(), len(tbl.Columns()))

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "FIELD\tSOURCE\tTARGET\tKIND\tTO TRANSLATE\tFILLED\tDISTINCT VALUES")
		for _, c := range plan.Columns {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
				c.Field, c.Source, c.Target, tbl.Kind(c.Source), c.Pending, c.Filled, c.Values)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("\nCells to translate: %d\n", plan.Pending())
		if len(plan.Excluded) > 0 {
			fmt.Printf("Excluded fields: %v\n", plan.Excluded)
		}
		if len(plan.MissingSource) > 0 {
			fmt.Printf("Fields without a %s column: %v\n", cfg.SourceLanguage, plan.MissingSource)
		}

		if !inspectLanguage {
			return nil
		}
		return checkLanguages(tbl, plan, cfg)
	},
}

// checkLanguages compares the detected language of every populated column of
// the plan with its tag.
func checkLanguages(tbl *table.Table, plan orchestrator.Plan, cfg *config.Config) error {
	det := detector.New()

	type check struct {
		column string
		lang   string
	}
	var checks []check
	seen := make(map[string]bool)
	for _, col := range plan.SourceColumns() {
		seen[col] = true
		checks = append(checks, check{col, cfg.SourceLanguage})
	}
	for _, c := range plan.Columns {
		if c.Filled > 0 && !seen[c.Target] {
			seen[c.Target] = true
			checks = append(checks, check{c.Target, c.Lang})
		}
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tEXPECTED\tDETECTED\tSTATUS")
	mismatches := 0
	for _, c := range checks {
		if tbl.Kind(c.column) != table.KindString {
			continue
		}
		res := det.CheckColumn(columnValues(tbl, c.column), cfg.LanguageTag(c.lang))
		status := "ok"
		switch {
		case res.Detected == "":
			status = "undetermined"
		case !res.Match:
			status = "MISMATCH"
			mismatches++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.column, res.Expected, res.Detected, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if mismatches > 0 {
		return fmt.Errorf("%d column(s) do not match their language tag", mismatches)
	}
	return nil
}

func columnValues(tbl *table.Table, column string) []string {
	values := make([]string, tbl.Len())
	for i := range values {
		values[i] = tbl.Get(i, column)
	}
	return values
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "Input CSV file (required)")
	inspectCmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Source language tag as written in column names (default: SOURCE_LANGUAGE)")
	inspectCmd.Flags().StringSliceVar(&setColumns, "set-column", nil, "Field whose cells hold SET_SEPARATOR-joined values (repeatable)")
	inspectCmd.Flags().StringSliceVar(&excludeColumns, "exclude", nil, "Field to leave untranslated (repeatable)")
	inspectCmd.Flags().StringVar(&jobFile, "job", "", "YAML job file with set_columns, exclude_columns and json_fields")
	inspectCmd.Flags().BoolVar(&inspectLanguage, "check-language", false, "Detect the language of populated columns and compare it with their tags")

	inspectCmd.MarkFlagRequired("input")
}
