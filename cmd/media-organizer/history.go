package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quidome/media-ledger/pkg/journal"
)

func newHistoryCmd(opts *options) *cobra.Command {
	flags := &settingFlags{}
	var (
		runID string
		list  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show what a previous organize run did",
		Long:  "Render the journal of the latest organize run, of a given run, or list recent runs.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd, opts, flags)
			if err != nil {
				return err
			}
			if cfg.JournalPath == "" {
				return errors.New("no journal path configured")
			}
			j, err := journal.Open(cfg.JournalPath)
			if err != nil {
				return err
			}
			defer j.Close()

			ctx := cmd.Context()
			if list > 0 {
				runs, err := j.Runs(ctx, list)
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(runs))
				for _, r := range runs {
					rows = append(rows, runRow(r))
				}
				cmd.Println(renderTable([]string{"Run", "Started", "Root", "Dry run", "Placed", "Skipped", "Failed"}, rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight}))
				return nil
			}

			var run journal.Run
			if runID == "" {
				run, err = j.LatestRun(ctx)
				if errors.Is(err, journal.ErrNoRuns) {
					cmd.Println("No runs recorded.")
					return nil
				}
				if err != nil {
					return err
				}
			} else {
				run.ID = runID
			}

			entries, err := j.Entries(ctx, run.ID)
			if err != nil {
				return err
			}
			if len(entries) == 0 && runID != "" {
				return fmt.Errorf("no entries for run %s", runID)
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				created := ""
				if !e.CreatedAt.IsZero() {
					created = e.CreatedAt.Format("2006-01-02 15:04:05")
				}
				rows = append(rows, []string{filepath.Base(e.Source), string(e.Action), created, e.DateSource, e.Target, e.Reason})
			}
			cmd.Printf("Run %s\n", run.ID)
			cmd.Println(renderTable([]string{"File", "Action", "Created", "Source", "Target", "Reason"}, rows, nil))
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&runID, "run", "", "show this run instead of the latest")
	cmd.Flags().IntVar(&list, "list", 0, "list the most recent N runs")
	return cmd
}

func runRow(r journal.Run) []string {
	return []string{
		r.ID,
		r.StartedAt.Local().Format("2006-01-02 15:04:05"),
		r.Root,
		strconv.FormatBool(r.DryRun),
		strconv.Itoa(r.Placed),
		strconv.Itoa(r.Skipped),
		strconv.Itoa(r.Failed),
	}
}
