package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of an organize run. Flags override these.
type Config struct {
	Root         string `yaml:"root" toml:"root"`
	BufferDir    string `yaml:"buffer_dir" toml:"buffer_dir"`
	Gateway      string `yaml:"gateway" toml:"gateway"`             // "native" or "exiftool"
	ExiftoolPath string `yaml:"exiftool_path" toml:"exiftool_path"` // only used for gateway=exiftool
	Policy       string `yaml:"policy" toml:"policy"`
	ScriptPath   string `yaml:"script_path" toml:"script_path"` // only used for policy=script
	Timezone     string `yaml:"timezone" toml:"timezone"`
	JournalPath  string `yaml:"journal_path" toml:"journal_path"`
	LogFile      string `yaml:"log_file" toml:"log_file"`
	MaxDepth     int    `yaml:"max_depth" toml:"max_depth"`
}

// FileName is the base name looked up in the working directory.
const FileName = "media-organizer.yaml"

var (
	gateways = []string{"native", "exiftool"}
	policies = []string{"auto", "prompt", "trust", "reject", "script"}
)

// Default returns a config with every optional field filled in.
func Default() *Config {
	cfg := empty()
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Gateway == "" {
		c.Gateway = "native"
	}
	if c.Policy == "" {
		c.Policy = "auto"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.JournalPath == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			c.JournalPath = filepath.Join(dir, "media-organizer", "journal.db")
		}
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root is required")
	}
	if !contains(gateways, c.Gateway) {
		return fmt.Errorf("gateway %q: must be one of %s", c.Gateway, strings.Join(gateways, ", "))
	}
	if !contains(policies, c.Policy) {
		return fmt.Errorf("policy %q: must be one of %s", c.Policy, strings.Join(policies, ", "))
	}
	if c.Policy == "script" && c.ScriptPath == "" {
		return errors.New("policy script requires script_path")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.MaxDepth < -1 {
		return fmt.Errorf("max_depth %d: must be -1 or more", c.MaxDepth)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads a config file. Files ending in .toml are decoded as TOML,
// everything else as YAML.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg := empty()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.NewDecoder(f).Decode(cfg); err != nil {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	} else {
		dec := yaml.NewDecoder(f)
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading config from %s: %w", path, err)
		}
	}
	return cfg, nil
}

// LoadPrefer loads the first config file found in this order:
//  1. the provided path if non-empty,
//  2. ./media-organizer.yaml,
//  3. media-organizer/config.yaml then config.toml under os.UserConfigDir().
//
// An explicit path that does not exist is an error. Without one, finding
// nothing yields an empty config.
func LoadPrefer(preferred string) (*Config, string, error) {
	if preferred != "" {
		cfg, err := Load(preferred)
		return cfg, preferred, err
	}

	candidates := []string{FileName}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates,
			filepath.Join(dir, "media-organizer", "config.yaml"),
			filepath.Join(dir, "media-organizer", "config.toml"))
	}
	for _, p := range candidates {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return empty(), "", nil
}

// empty returns a config whose max_depth means "unlimited" unless a file
// sets it.
func empty() *Config {
	return &Config{MaxDepth: -1}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
