package main

import (
	"github.com/spf13/cobra"

	"github.com/quidome/media-ledger/pkg/config"
)

// settingFlags are the config values that can be set on the command line.
type settingFlags struct {
	root         string
	bufferDir    string
	gateway      string
	exiftoolPath string
	policy       string
	scriptPath   string
	timezone     string
	journalPath  string
	logFile      string
	maxDepth     int
}

func (f *settingFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.root, "root", "", "directory containing the Organized tree")
	fl.StringVar(&f.bufferDir, "buffer", "", "categorization buffer directory (default <root>/Buffer)")
	fl.StringVar(&f.gateway, "gateway", "", "metadata reader: native or exiftool")
	fl.StringVar(&f.exiftoolPath, "exiftool", "", "path to the exiftool binary")
	fl.StringVar(&f.policy, "policy", "", "how out-of-order files are confirmed: auto, prompt, trust, reject or script")
	fl.StringVar(&f.scriptPath, "script", "", "answers file for --policy script")
	fl.StringVar(&f.timezone, "timezone", "", "zone for timestamps without one (default Local)")
	fl.StringVar(&f.journalPath, "journal", "", "run journal database")
	fl.StringVar(&f.logFile, "log-file", "", "append log lines to this file")
	fl.IntVar(&f.maxDepth, "max-depth", -1, "maximum recursion depth (0 = no recursion)")
}

// loadSettings reads the config file and applies the flags that were set.
func loadSettings(cmd *cobra.Command, opts *options, f *settingFlags) (*config.Config, error) {
	cfg, _, err := config.LoadPrefer(opts.configPath)
	if err != nil {
		return nil, err
	}

	fl := cmd.Flags()
	override := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	override("root", &cfg.Root, f.root)
	override("buffer", &cfg.BufferDir, f.bufferDir)
	override("gateway", &cfg.Gateway, f.gateway)
	override("exiftool", &cfg.ExiftoolPath, f.exiftoolPath)
	override("policy", &cfg.Policy, f.policy)
	override("script", &cfg.ScriptPath, f.scriptPath)
	override("timezone", &cfg.Timezone, f.timezone)
	override("journal", &cfg.JournalPath, f.journalPath)
	override("log-file", &cfg.LogFile, f.logFile)
	if fl.Changed("max-depth") {
		cfg.MaxDepth = f.maxDepth
	}

	cfg.ApplyDefaults()
	return cfg, nil
}
