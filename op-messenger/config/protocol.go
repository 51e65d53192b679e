package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/mantlenetworkio/mantle-messaging/op-messenger/messaging"
)

// ProtocolFile is the TOML form of the protocol parameters. Omitted keys keep their defaults.
type ProtocolFile struct {
	MaxCalldataSize  *uint64 `toml:"max-calldata-size"`
	MaxLeavesPerTree *uint64 `toml:"max-leaves-per-tree"`
	TreeCacheSize    *int    `toml:"tree-cache-size"`
}

// Apply overrides the parameters of cfg that are set in the file.
func (f *ProtocolFile) Apply(cfg *messaging.Config) {
	if f.MaxCalldataSize != nil {
		cfg.Log.MaxCalldataSize = *f.MaxCalldataSize
	}
	if f.MaxLeavesPerTree != nil {
		cfg.Batcher.MaxLeavesPerTree = *f.MaxLeavesPerTree
	}
	if f.TreeCacheSize != nil {
		cfg.Batcher.TreeCacheSize = *f.TreeCacheSize
	}
}

// DecodeProtocol reads protocol parameters from TOML on top of the defaults. Unknown keys are rejected.
func DecodeProtocol(data string) (messaging.Config, error) {
	cfg := messaging.DefaultConfig()
	var f ProtocolFile
	md, err := toml.Decode(data, &f)
	if err != nil {
		return messaging.Config{}, fmt.Errorf("failed to decode protocol config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return messaging.Config{}, fmt.Errorf("unknown protocol config keys: %s", strings.Join(keys, ", "))
	}
	f.Apply(&cfg)
	return cfg, nil
}

// LoadProtocol reads the protocol parameters file at path. An empty path returns the defaults.
func LoadProtocol(path string) (messaging.Config, error) {
	if path == "" {
		return messaging.DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return messaging.Config{}, fmt.Errorf("failed to read protocol config %q: %w", path, err)
	}
	return DecodeProtocol(string(data))
}
