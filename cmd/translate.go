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
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/valpere/csvtran/internal/checkpoint"
	"github.com/valpere/csvtran/internal/config"
	"github.com/valpere/csvtran/internal/orchestrator"
	"github.com/valpere/csvtran/internal/placeholder"
	"github.com/valpere/csvtran/internal/store"
	"github.com/valpere/csvtran/internal/table"
	"github.com/valpere/csvtran/internal/translator"
)

var (
	inputFile  string
	outputFile string
	sourceLang string

	setColumns     []string
	excludeColumns []string
	jsonFields     []string
	jobFile        string

	saveInterval int
	dbPath       string
	noCache      bool
	resumeJob    string
)

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Fill the empty language columns of a CSV file",
	Long: `Translate every empty language column of a CSV file from the source
language column of the same field.

Column names carry the language after FIELD_LANGUAGE_SEPARATOR, e.g.
title.en-US. Cells that already hold a value are never sent for translation,
so running the command on its own output only fills what is still missing.

Set columns hold several values joined by SET_SEPARATOR; each value is
translated separately. JSON objects inside cells keep their structure and
only their string values are translated, unless --json-field or the job
file says otherwise.

When a database is configured (DB_PATH or --db), translations are cached in
it and the run is recorded as a job. An interrupted job continues with
--resume <job-id>.

Example:
  csvtran translate -i products.csv
  csvtran translate -i products.csv -o out.csv --set-column tags --json-field attributes=keys,values
  csvtran translate --resume 5f0c8a4e-...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(envFile)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if cmd.Flags().Changed("save-interval") {
			cfg.SaveInterval = saveInterval
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath = dbPath
		}
		if sourceLang != "" {
			cfg.SourceLanguage = sourceLang
		}

		job, err := buildJob()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var db *store.Store
		if !noCache && cfg.DBPath != "" {
			db, err = openStore(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()
		}

		input, output, jobID, err := resolvePaths(ctx, cfg, db, job)
		if err != nil {
			return err
		}

		tbl, err := table.ReadFile(input)
		if err != nil {
			return err
		}
		logger.Info("table loaded",
			zap.String("input", input),
			zap.Int("rows", tbl.Len()),
			zap.Int("columns", len(tbl.Columns())))

		engine, closeEngine, err := buildEngine(ctx, cfg, db, logger)
		if err != nil {
			return err
		}
		defer closeEngine()

		client := translator.NewClient(engine, translator.Options{
			BatchSize:   cfg.BatchSize,
			MaxRetries:  cfg.MaxRetries,
			BackoffBase: cfg.BackoffBase,
			BatchDelay:  cfg.BatchDelay,
		}, translator.WithLogger(logger))

		var tr orchestrator.Translator = client
		if db != nil {
			tr = translator.NewCached(client, db, logger)
		}

		sinks := checkpoint.Sinks{checkpoint.FileSink{Path: output}}
		if jobID != "" {
			sinks = append(sinks, db.JobSink(jobID))
		}

		orch := orchestrator.New(tr, orchestrator.Config{
			SourceLang:   cfg.SourceLanguage,
			FieldLangSep: cfg.FieldLanguageSeparator,
			SetSep:       cfg.SetSeparator,
			LanguageTag:  cfg.LanguageTag,
			SaveInterval: cfg.SaveInterval,
			WindowSize:   max(cfg.BatchSize, orchestrator.DefaultWindowSize),
		}, logger)

		res, runErr := orch.TranslateTable(ctx, tbl, orchestratorJob(job), sinks)

		// ctx may be canceled by now; the output is written regardless.
		final := checkpoint.Snapshot{Table: res.Table, Stats: res.Stats, Final: runErr == nil}
		if err := sinks.Persist(context.Background(), final); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}

		fmt.Printf("Translated: %d  Skipped: %d  Failed: %d  Fields without source column: %d\n",
			res.Stats.Translated, res.Stats.Skipped, res.Stats.Failed, res.Stats.SkippedGroups)
		fmt.Printf("Output written to %s\n", output)

		if runErr != nil {
			if jobID != "" {
				if err := db.UpdateJob(context.Background(), jobID, store.JobInterrupted, res.Stats); err != nil {
					logger.Warn("failed to mark job interrupted", zap.Error(err))
				}
				fmt.Fprintf(os.Stderr, "Interrupted. Continue with: csvtran translate --resume %s\n", jobID)
			}
			if errors.Is(runErr, context.Canceled) {
				return fmt.Errorf("translation interrupted: %w", runErr)
			}
			return runErr
		}
		return nil
	},
}

// buildJob merges the job file with the column flags; flags win.
func buildJob() (*config.Job, error) {
	job := &config.Job{}
	if jobFile != "" {
		loaded, err := config.LoadJob(jobFile)
		if err != nil {
			return nil, err
		}
		job = loaded
	}

	flags := &config.Job{
		SetColumns:     setColumns,
		ExcludeColumns: excludeColumns,
	}
	for _, f := range jsonFields {
		col, opts, err := config.ParseJSONField(f)
		if err != nil {
			return nil, err
		}
		if flags.JSONFields == nil {
			flags.JSONFields = make(map[string]placeholder.JSONOptions)
		}
		flags.JSONFields[col] = opts
	}
	job.Merge(flags)
	return job, nil
}

func orchestratorJob(job *config.Job) orchestrator.Job {
	return orchestrator.Job{
		SetColumns:     job.SetColumns,
		ExcludeColumns: job.ExcludeColumns,
		JSONFields:     job.JSONFields,
	}
}

// resolvePaths picks the input and output files and the job record. A
// resumed job reads its own partial output so finished cells are kept, and
// runs with the source language and column options it was started with.
func resolvePaths(ctx context.Context, cfg *config.Config, db *store.Store, job *config.Job) (input, output, jobID string, err error) {
	if resumeJob != "" {
		if db == nil {
			return "", "", "", fmt.Errorf("--resume requires a database (DB_PATH or --db) and no --no-cache")
		}
		j, err := db.GetJob(ctx, resumeJob)
		if err != nil {
			return "", "", "", fmt.Errorf("failed to load job: %w", err)
		}
		if err := restoreJob(cfg, job, j, sourceLang); err != nil {
			return "", "", "", err
		}
		if j.Status == store.JobCompleted {
			fmt.Fprintf(os.Stderr, "Job %s already completed; checking for empty cells\n", j.ID)
		}
		input = j.InputFile
		if _, statErr := os.Stat(j.OutputFile); statErr == nil {
			input = j.OutputFile
		}
		fmt.Fprintf(os.Stderr, "Resuming job %s from %s\n", j.ID, input)
		return input, j.OutputFile, j.ID, nil
	}

	if inputFile == "" {
		return "", "", "", fmt.Errorf("--input is required")
	}
	input = inputFile
	output = outputFile
	if output == "" {
		output = cfg.OutputPath(input)
	}
	if input == output {
		return "", "", "", fmt.Errorf("input file and output file cannot be the same")
	}

	if db != nil {
		options, err := job.Marshal()
		if err != nil {
			return "", "", "", err
		}
		jobID, err = db.CreateJob(ctx, input, output, cfg.SourceLanguage, options)
		if err != nil {
			logger.Warn("failed to record job", zap.Error(err))
			return input, output, "", nil
		}
		fmt.Fprintf(os.Stderr, "Job ID: %s (use --resume %s to continue if interrupted)\n", jobID, jobID)
	}
	return input, output, jobID, nil
}

// restoreJob applies the source language and column options recorded for j.
// source is the --source flag: when given it must name the same language.
// Column flags of this run are added to the recorded options.
func restoreJob(cfg *config.Config, job *config.Job, j *store.Job, source string) error {
	if source != "" && cfg.LanguageTag(source) != cfg.LanguageTag(j.SourceLang) {
		return fmt.Errorf("job %s translates from %s; --source %s does not match", j.ID, j.SourceLang, source)
	}
	cfg.SourceLanguage = j.SourceLang

	recorded, err := config.ParseJob([]byte(j.Options))
	if err != nil {
		return fmt.Errorf("job %s: %w", j.ID, err)
	}
	recorded.Merge(job)
	*job = *recorded
	return nil
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().StringVarP(&inputFile, "input", "i", "", "Input CSV file")
	translateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output CSV file (default: input name with OUTPUT_SUFFIX)")
	translateCmd.Flags().StringVarP(&sourceLang, "source", "s", "", "Source language tag as written in column names (default: SOURCE_LANGUAGE)")

	translateCmd.Flags().StringSliceVar(&setColumns, "set-column", nil, "Field whose cells hold SET_SEPARATOR-joined values (repeatable)")
	translateCmd.Flags().StringSliceVar(&excludeColumns, "exclude", nil, "Field to leave untranslated (repeatable)")
	translateCmd.Flags().StringArrayVar(&jsonFields, "json-field", nil, "JSON field options: field[=keys,values] (repeatable)")
	translateCmd.Flags().StringVar(&jobFile, "job", "", "YAML job file with set_columns, exclude_columns and json_fields")

	translateCmd.Flags().IntVar(&saveInterval, "save-interval", 0, "Write the output every N translated cells (default: SAVE_INTERVAL)")
	translateCmd.Flags().StringVar(&dbPath, "db", "", "Database path for translation memory and jobs (default: DB_PATH)")
	translateCmd.Flags().BoolVar(&noCache, "no-cache", false, "Disable translation memory and job records")
	translateCmd.Flags().StringVar(&resumeJob, "resume", "", "Resume the job with this ID")
}
