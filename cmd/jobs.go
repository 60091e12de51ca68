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
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var jobsDBPath string

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Inspect recorded translation jobs",
	Long: `Every translate run with a database is recorded as a job with its
input and output files, status and counters. An interrupted job continues
with "csvtran translate --resume <id>".`,
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(jobsDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		jobs, err := db.ListJobs(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list jobs: %w", err)
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs recorded.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tTRANSLATED\tSKIPPED\tFAILED\tUPDATED\tINPUT\tOUTPUT")
		for _, j := range jobs {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\t%s\n",
				j.ID, j.Status, j.Translated, j.Skipped, j.Failed,
				j.UpdatedAt.Format("2006-01-02 15:04"), j.InputFile, j.OutputFile)
		}
		return w.Flush()
	},
}

var jobsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(jobsDBPath)
		if err != nil {
			return err
		}
		defer db.Close()

		j, err := db.GetJob(context.Background(), args[0])
		if err != nil {
			return err
		}

		fmt.Printf("ID:          %s\n", j.ID)
		fmt.Printf("Status:      %s\n", j.Status)
		fmt.Printf("Input:       %s\n", j.InputFile)
		fmt.Printf("Output:      %s\n", j.OutputFile)
		fmt.Printf("Source lang: %s\n", j.SourceLang)
		fmt.Printf("Translated:  %d\n", j.Translated)
		fmt.Printf("Skipped:     %d\n", j.Skipped)
		fmt.Printf("Failed:      %d\n", j.Failed)
		fmt.Printf("Created:     %s\n", j.CreatedAt.Format("2006-01-02 15:04:05"))
		fmt.Printf("Updated:     %s\n", j.UpdatedAt.Format("2006-01-02 15:04:05"))
		if strings.TrimSpace(j.Options) != "" && strings.TrimSpace(j.Options) != "{}" {
			fmt.Printf("Options:\n%s", j.Options)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)

	jobsCmd.PersistentFlags().StringVar(&jobsDBPath, "db", defaultDBPath, "Database path")

	jobsCmd.AddCommand(jobsListCmd)
	jobsCmd.AddCommand(jobsShowCmd)
}
