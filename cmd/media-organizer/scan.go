package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/quidome/media-ledger/pkg/scan"
)

func newScanCmd(opts *options) *cobra.Command {
	var (
		maxDepth int
		asJSON   bool
	)

	scanCmd := &cobra.Command{
		Use:   "scan [directory]",
		Short: "Scan a directory for media files",
		Long:  "Scan a directory and print all media files found (relative to the scan root), in the order organize would handle them.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := args[0]

			scanOpts := scan.DefaultOptions()
			scanOpts.MaxDepth = maxDepth

			records, err := scan.ScanRecords(os.DirFS(directory), ".", scanOpts)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if records == nil {
					records = []scan.Record{}
				}
				return enc.Encode(records)
			}

			for _, r := range records {
				cmd.Println(r.Path)
			}
			if opts.verbose {
				cmd.PrintErrf("found %d media files\n", len(records))
			}
			return nil
		},
	}

	scanCmd.Flags().IntVar(&maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
	scanCmd.Flags().BoolVar(&asJSON, "json", false, "print records as JSON")

	return scanCmd
}
