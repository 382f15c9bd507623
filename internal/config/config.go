// Package config loads simhash command-line configuration from defaults, an
// optional TOML file, SIMHASH_* environment variables and flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/tamirms/streamsim"
)

// EnvPrefix prefixes every environment override, e.g. SIMHASH_BLOCK_SIZE=1M.
const EnvPrefix = "SIMHASH"

// Config is the full simhash CLI configuration.
type Config struct {
	Mode      string `mapstructure:"mode" toml:"mode" comment:"feature mode: bytes, text or bits"`
	BitLen    int    `mapstructure:"bitlen" toml:"bitlen" comment:"fingerprint width in bits, a multiple of 8"`
	NGram     int    `mapstructure:"ngram" toml:"ngram" comment:"token (text) or byte (bytes) n-gram size"`
	Step      int    `mapstructure:"step" toml:"step" comment:"bytes mode: keep every step-th window"`
	NBits     int    `mapstructure:"nbits" toml:"nbits" comment:"bits mode: window length in bits"`
	StepBits  int    `mapstructure:"step_bits" toml:"step_bits" comment:"bits mode: window slide in bits"`
	BlockSize string `mapstructure:"block_size" toml:"block_size" comment:"per-block fingerprints, e.g. 64K or 1MiB; empty for whole files"`
	ChunkSize string `mapstructure:"chunk_size" toml:"chunk_size" comment:"read size; never changes output"`
	Hash      string `mapstructure:"hash" toml:"hash" comment:"feature hash: blake2b, xxh3, murmur3 or xxhash"`
	Mmap      bool   `mapstructure:"mmap" toml:"mmap" comment:"read files through a memory mapping"`
	Recursive bool   `mapstructure:"recursive" toml:"recursive" comment:"descend into subdirectories"`
	JSON      bool   `mapstructure:"json" toml:"json" comment:"emit JSON lines instead of TSV"`
	Jobs      int    `mapstructure:"jobs" toml:"jobs" comment:"files fingerprinted in parallel"`
	FailFast  bool   `mapstructure:"fail_fast" toml:"fail_fast" comment:"stop at the first unreadable input"`
	Log       Log    `mapstructure:"log" toml:"log"`
}

// Log configures diagnostics on stderr.
type Log struct {
	Level  string `mapstructure:"level" toml:"level" comment:"debug, info, warn or error"`
	Format string `mapstructure:"format" toml:"format" comment:"console, json or auto"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Mode:      streamsim.ModeBytes.String(),
		BitLen:    streamsim.DefaultBitLen,
		NGram:     streamsim.DefaultNGram,
		Step:      1,
		NBits:     streamsim.DefaultBitWindow,
		StepBits:  1,
		ChunkSize: "1MiB",
		Hash:      streamsim.HashBLAKE2b.String(),
		Jobs:      1,
		Log:       Log{Level: "info", Format: "auto"},
	}
}

// NewViper returns a viper instance carrying the defaults and environment
// bindings. Callers bind flags to it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("mode", d.Mode)
	v.SetDefault("bitlen", d.BitLen)
	v.SetDefault("ngram", d.NGram)
	v.SetDefault("step", d.Step)
	v.SetDefault("nbits", d.NBits)
	v.SetDefault("step_bits", d.StepBits)
	v.SetDefault("block_size", d.BlockSize)
	v.SetDefault("chunk_size", d.ChunkSize)
	v.SetDefault("hash", d.Hash)
	v.SetDefault("mmap", d.Mmap)
	v.SetDefault("recursive", d.Recursive)
	v.SetDefault("json", d.JSON)
	v.SetDefault("jobs", d.Jobs)
	v.SetDefault("fail_fast", d.FailFast)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	return v
}

// Load reads the optional TOML file at path into v and decodes the merged
// configuration.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Options converts the configuration to engine options. Every value is
// validated here or by streamsim.New.
func (c *Config) Options() ([]streamsim.Option, error) {
	mode, err := streamsim.ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	hash, err := streamsim.ParseHashAlgorithm(c.Hash)
	if err != nil {
		return nil, err
	}
	opts := []streamsim.Option{
		streamsim.WithMode(mode),
		streamsim.WithBitLen(c.BitLen),
		streamsim.WithNGram(c.NGram),
		streamsim.WithStep(c.Step),
		streamsim.WithBitWindow(c.NBits, c.StepBits),
		streamsim.WithHashAlgorithm(hash),
	}
	if strings.TrimSpace(c.BlockSize) != "" {
		n, err := streamsim.ParseSize(c.BlockSize)
		if err != nil {
			return nil, fmt.Errorf("block size: %w", err)
		}
		opts = append(opts, streamsim.WithBlockSize(n))
	}
	if strings.TrimSpace(c.ChunkSize) != "" {
		n, err := streamsim.ParseSize(c.ChunkSize)
		if err != nil {
			return nil, fmt.Errorf("chunk size: %w", err)
		}
		opts = append(opts, streamsim.WithChunkSize(int(n)))
	}
	return opts, nil
}

// Sample renders the default configuration as a commented TOML document.
func Sample() ([]byte, error) {
	data, err := toml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("encode sample config: %w", err)
	}
	return data, nil
}
