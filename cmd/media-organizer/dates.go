package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/quidome/media-ledger/pkg/createdat"
	"github.com/quidome/media-ledger/pkg/metadata"
	"github.com/quidome/media-ledger/pkg/organize"
	"github.com/quidome/media-ledger/pkg/scan"
)

func newDatesCmd(opts *options) *cobra.Command {
	flags := &settingFlags{}

	cmd := &cobra.Command{
		Use:   "dates [path]",
		Short: "List the resolved creation date of media files",
		Long:  "Resolve the creation date of a file, or of every file in a directory, and show which field it came from.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadSettings(cmd, opts, flags)
			if err != nil {
				return err
			}
			loc, err := cfg.Location()
			if err != nil {
				return err
			}
			gateway, err := metadata.New(cfg.Gateway, cfg.ExiftoolPath)
			if err != nil {
				return err
			}

			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = cfg.MaxDepth
			dated, err := organize.ResolveDates(cmd.Context(), gateway, args[0], loc, scanOpts)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(dated))
			for _, d := range dated {
				rows = append(rows, datesRow(d))
			}
			cmd.Println(renderTable([]string{"File", "Created", "Source", "Field", "Note"}, rows, nil))
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func datesRow(d organize.Dated) []string {
	if d.Err != nil {
		var unsupported *createdat.UnsupportedTypeError
		if errors.As(d.Err, &unsupported) {
			return []string{d.Path, "", "", "", "unsupported type"}
		}
		return []string{d.Path, "", "", "", d.Err.Error()}
	}

	r := d.Result
	note := ""
	switch {
	case r.Malformed != "":
		note = "unparseable field " + r.Malformed
	case r.LowConfidence:
		note = "low confidence"
	}
	if d.Comment != "" {
		note = joinNote(note, "comment: "+d.Comment)
	}
	return []string{d.Path, r.CreatedAt.Format("2006-01-02 15:04:05 -0700"), string(r.Source), r.Field, note}
}
