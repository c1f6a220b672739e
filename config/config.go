// Package config handles rpeg.toml matcher configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/chazu/rpeg/pkg/buf"
	"github.com/chazu/rpeg/pkg/bytecode"
	"github.com/chazu/rpeg/vm"
	"github.com/tliron/commonlog"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "rpeg.toml"

var log = commonlog.GetLogger("rpeg.config")

// Config represents an rpeg.toml configuration.
type Config struct {
	VM     VMConfig     `toml:"vm" yaml:"vm"`
	File   FileConfig   `toml:"file" yaml:"file"`
	Output OutputConfig `toml:"output" yaml:"output"`
	Log    LogConfig    `toml:"log" yaml:"log"`

	// Path is the file the configuration was loaded from (set at load time).
	Path string `toml:"-" yaml:"-"`
}

// VMConfig sets the matching VM's storage limits.
type VMConfig struct {
	InitialBacktrack int `toml:"initial-backtrack" yaml:"initial-backtrack"`
	MaxBacktrack     int `toml:"max-backtrack" yaml:"max-backtrack"`
	InitialCaptures  int `toml:"initial-captures" yaml:"initial-captures"`
	MaxCaptures      int `toml:"max-captures" yaml:"max-captures"`
	InitialCapDepth  int `toml:"initial-capture-depth" yaml:"initial-capture-depth"`
	MaxCapDepth      int `toml:"max-capture-depth" yaml:"max-capture-depth"`
}

// FileConfig sets the limits applied when reading and writing .rplx files.
type FileConfig struct {
	MaxKtableLen   int `toml:"max-ktable-entries" yaml:"max-ktable-entries"`
	MaxKtableBlock int `toml:"max-ktable-block" yaml:"max-ktable-block"`
	MaxInstBytes   int `toml:"max-instruction-bytes" yaml:"max-instruction-bytes"`
}

// OutputConfig configures match output.
type OutputConfig struct {
	Encoder    string `toml:"encoder" yaml:"encoder"`
	BufferSize int    `toml:"buffer-size" yaml:"buffer-size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int    `toml:"verbosity" yaml:"verbosity"`
	File      string `toml:"file" yaml:"file"`
}

// Default returns the configuration used when no file is found.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	d := vm.DefaultConfig()
	l := bytecode.DefaultLimits()
	fill := func(v *int, def int) {
		if *v == 0 {
			*v = def
		}
	}
	fill(&c.VM.InitialBacktrack, d.InitialBacktrack)
	fill(&c.VM.MaxBacktrack, d.MaxBacktrack)
	fill(&c.VM.InitialCaptures, d.InitialCaptures)
	fill(&c.VM.MaxCaptures, d.MaxCaptures)
	fill(&c.VM.InitialCapDepth, d.InitialCapDepth)
	fill(&c.VM.MaxCapDepth, d.MaxCapDepth)
	fill(&c.File.MaxKtableLen, l.MaxKtableLen)
	fill(&c.File.MaxKtableBlock, l.MaxKtableBlock)
	fill(&c.File.MaxInstBytes, l.MaxInstBytes)
	fill(&c.Output.BufferSize, buf.InitialSize)
	if c.Output.Encoder == "" {
		c.Output.Encoder = string(vm.EncodeJSON)
	}
}

// Load parses rpeg.toml from the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile parses a configuration file. Files ending in .yaml or .yml are
// read as YAML, anything else as TOML. Missing settings take their
// defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		err = toml.Unmarshal(data, &c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("loaded configuration from %s", c.Path)
	return &c, nil
}

// FindAndLoad walks up from startDir to find an rpeg.toml file, then loads
// and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// Validate checks that the limits are consistent and the encoder exists.
func (c *Config) Validate() error {
	v := c.VMConfig()
	if err := v.Validate(); err != nil {
		return err
	}
	for name, n := range map[string]int{
		"max-ktable-entries":    c.File.MaxKtableLen,
		"max-ktable-block":      c.File.MaxKtableBlock,
		"max-instruction-bytes": c.File.MaxInstBytes,
		"buffer-size":           c.Output.BufferSize,
	} {
		if n < 0 {
			return fmt.Errorf("%s must not be negative (got %d)", name, n)
		}
	}
	if _, err := vm.ParseEncoding(c.Output.Encoder); err != nil {
		return err
	}
	return nil
}

// VMConfig returns the VM limits.
func (c *Config) VMConfig() vm.Config {
	return vm.Config{
		InitialBacktrack: c.VM.InitialBacktrack,
		MaxBacktrack:     c.VM.MaxBacktrack,
		InitialCaptures:  c.VM.InitialCaptures,
		MaxCaptures:      c.VM.MaxCaptures,
		InitialCapDepth:  c.VM.InitialCapDepth,
		MaxCapDepth:      c.VM.MaxCapDepth,
		OutputSize:       c.Output.BufferSize,
	}
}

// Limits returns the file codec limits.
func (c *Config) Limits() bytecode.Limits {
	return bytecode.Limits{
		MaxKtableLen:   c.File.MaxKtableLen,
		MaxKtableBlock: c.File.MaxKtableBlock,
		MaxInstBytes:   c.File.MaxInstBytes,
	}
}

// Encoding returns the default output encoding.
func (c *Config) Encoding() vm.Encoding {
	return vm.Encoding(c.Output.Encoder)
}
