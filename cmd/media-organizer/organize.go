package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/quidome/media-ledger/pkg/interact"
	"github.com/quidome/media-ledger/pkg/journal"
	"github.com/quidome/media-ledger/pkg/logging"
	"github.com/quidome/media-ledger/pkg/metadata"
	"github.com/quidome/media-ledger/pkg/organize"
	"github.com/quidome/media-ledger/pkg/scan"
)

func newOrganizeCmd(opts *options) *cobra.Command {
	flags := &settingFlags{}

	cmd := &cobra.Command{
		Use:   "organize [source]",
		Short: "Organize media files from source into the dated tree",
		Long: "Resolve the creation date of every media file under source and copy it into " +
			"<root>/Organized/<YYYY>/<YYYY-MM>/ and the categorization buffer.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd, opts, flags)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			if cfg.BufferDir == "" {
				cfg.BufferDir = filepath.Join(cfg.Root, "Buffer")
			}

			runID := organize.UUIDGenerator{}.New()
			logger, closer, err := logging.Open(cmd.ErrOrStderr(), cfg.LogFile, runID, opts.verbose)
			if err != nil {
				return err
			}
			defer closer.Close()

			gateway, err := metadata.New(cfg.Gateway, cfg.ExiftoolPath)
			if err != nil {
				return err
			}
			policy, err := interact.FromName(cfg.Policy, interact.Options{
				In:         os.Stdin,
				Out:        cmd.ErrOrStderr(),
				ScriptPath: cfg.ScriptPath,
				Location:   loc,
			})
			if err != nil {
				return err
			}

			deps := organize.Deps{Gateway: gateway, Policy: policy, Logger: logger}
			if cfg.JournalPath != "" {
				j, err := journal.Open(cfg.JournalPath)
				if err != nil {
					logger.Warn("journal unavailable", "path", cfg.JournalPath, "error", err)
				} else {
					defer j.Close()
					deps.Journal = j
				}
			}

			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = cfg.MaxDepth

			summary, err := organize.New(deps).Run(cmd.Context(), args[0], organize.Options{
				Root:      cfg.Root,
				BufferDir: cfg.BufferDir,
				DryRun:    opts.dryRun,
				Location:  loc,
				RunID:     runID,
				Scan:      scanOpts,
			})
			if err != nil {
				return err
			}

			printSummary(cmd, summary, opts.verbose)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

// printSummary lists every file that was not simply placed, or every file
// when verbose, followed by the totals.
func printSummary(cmd *cobra.Command, s organize.Summary, verbose bool) {
	var rows [][]string
	for _, e := range s.Entries {
		if !verbose && e.Action == journal.ActionPlaced && !e.Bypassed && !e.LowConfidence {
			continue
		}
		note := e.Reason
		switch {
		case e.Bypassed:
			note = joinNote(note, "out of order")
		case e.LowConfidence:
			note = joinNote(note, "modification time")
		}
		rows = append(rows, []string{filepath.Base(e.Source), string(e.Action), e.Target, note})
	}
	if len(rows) > 0 {
		cmd.Println(renderTable([]string{"File", "Action", "Target", "Note"}, rows, nil))
	}

	totals := [][]string{
		{"placed", strconv.Itoa(s.Placed)},
		{"unchanged", strconv.Itoa(s.Unchanged)},
		{"skipped", strconv.Itoa(s.Skipped)},
		{"failed", strconv.Itoa(s.Failed)},
	}
	cmd.Println(renderTable([]string{"Run " + s.RunID, "Files"}, totals, []columnAlignment{alignLeft, alignRight}))
}

func joinNote(a, b string) string {
	if a == "" {
		return b
	}
	return a + "; " + b
}
