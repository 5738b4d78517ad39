package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colorfulnotion/fvm/common"
	"github.com/colorfulnotion/fvm/fvm/gas"
	"github.com/colorfulnotion/fvm/log"
	"github.com/colorfulnotion/fvm/runtime"
	"gopkg.in/yaml.v2"
)

//go:embed profiles/*.yaml
var profileFS embed.FS

var profileFile = map[string]string{
	"dev":   "profiles/dev.yaml",
	"bench": "profiles/bench.yaml",
}

// Config holds node and CLI settings. Fields absent from a file keep
// their defaults.
type Config struct {
	LogLevel     string `yaml:"log_level"`
	LogJSON      bool   `yaml:"log_json"`
	DebugModules string `yaml:"debug_modules"`

	// DataDir holds the LevelDB database; empty keeps state in memory.
	DataDir string `yaml:"data_dir"`

	GasLimit          uint64 `yaml:"gas_limit"`
	MaxSteps          uint64 `yaml:"max_steps"`
	MaxMemory         uint64 `yaml:"max_memory"`
	WitnessCacheSize  int    `yaml:"witness_cache_size"`
	ProgramCacheSize  int    `yaml:"program_cache_size"`
	MaxWitnessRetries int    `yaml:"max_witness_retries"`
	Parallelism       int    `yaml:"parallelism"`
	Strict            bool   `yaml:"strict"`
	Address           string `yaml:"address"`
}

func Default() *Config {
	return &Config{
		LogLevel:          "info",
		GasLimit:          30_000_000,
		MaxSteps:          runtime.DefaultMaxSteps,
		WitnessCacheSize:  4096,
		ProgramCacheSize:  runtime.DefaultProgramCacheSize,
		MaxWitnessRetries: runtime.DefaultMaxWitnessRetries,
		Parallelism:       4,
		Address:           common.GetDevAccount(0).Hex(),
	}
}

// Load reads a named profile ("dev", "bench") or a YAML file path on top
// of the defaults. An empty id returns the defaults.
func Load(id string) (*Config, error) {
	cfg := Default()
	if id == "" {
		return cfg, nil
	}
	var data []byte
	var err error
	if path, ok := profileFile[id]; ok {
		data, err = profileFS.ReadFile(path)
	} else {
		data, err = os.ReadFile(filepath.Clean(id))
	}
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", id, err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", id, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", id, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Address != "" && !common.IsHexAddress(c.Address) {
		return fmt.Errorf("invalid address %q", c.Address)
	}
	if c.MaxMemory != 0 && c.MaxMemory < 32 {
		return fmt.Errorf("max_memory %d is below one word", c.MaxMemory)
	}
	if c.MaxMemory > gas.MaxMemorySize {
		return fmt.Errorf("max_memory %d exceeds %d", c.MaxMemory, gas.MaxMemorySize)
	}
	if c.WitnessCacheSize < 0 || c.ProgramCacheSize < 0 || c.MaxWitnessRetries < 0 || c.Parallelism < 0 {
		return fmt.Errorf("negative cache size, retry count or parallelism")
	}
	return nil
}

// Apply installs the logger described by c.
func (c *Config) Apply() error {
	if err := log.Setup(c.LogLevel, c.LogJSON); err != nil {
		return err
	}
	if c.DebugModules != "" {
		log.EnableModules(c.DebugModules)
	}
	return nil
}

// Runtime returns the per-call limits of c.
func (c *Config) Runtime() runtime.Config {
	return runtime.Config{
		GasLimit:          c.GasLimit,
		MaxSteps:          c.MaxSteps,
		MaxMemory:         c.MaxMemory,
		MaxWitnessRetries: c.MaxWitnessRetries,
		Strict:            c.Strict,
	}
}

// ContractAddress parses Address; ok is false when it is unset.
func (c *Config) ContractAddress() (common.Address, bool) {
	if c.Address == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(c.Address), true
}

func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(out)
}
