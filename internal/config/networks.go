package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Network describes one chain Caesar can submit to.
type Network struct {
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	RPCURL       string   `yaml:"rpc_url"`
	ChainID      int64    `yaml:"chain_id"`
	Symbol       string   `yaml:"symbol"`
	Decimals     int32    `yaml:"decimals"`
	Contract     string   `yaml:"contract"`
	Method       string   `yaml:"method"`
	ExplorerURL  string   `yaml:"explorer_url"`
	NameSuffixes []string `yaml:"name_suffixes"`
}

type networksFile struct {
	Networks []Network `yaml:"networks"`
}

func builtinNetworks() map[string]Network {
	return map[string]Network{
		"base": {
			Name:         "base",
			Kind:         "evm",
			RPCURL:       "https://mainnet.base.org",
			ChainID:      8453,
			Symbol:       "ETH",
			Decimals:     18,
			ExplorerURL:  "https://basescan.org/tx/",
			NameSuffixes: []string{".eth"},
		},
		"base-sepolia": {
			Name:         "base-sepolia",
			Kind:         "evm",
			RPCURL:       "https://sepolia.base.org",
			ChainID:      84532,
			Symbol:       "ETH",
			Decimals:     18,
			ExplorerURL:  "https://sepolia.basescan.org/tx/",
			NameSuffixes: []string{".eth"},
		},
		"ethereum": {
			Name:         "ethereum",
			Kind:         "evm",
			RPCURL:       "https://ethereum-rpc.publicnode.com",
			ChainID:      1,
			Symbol:       "ETH",
			Decimals:     18,
			ExplorerURL:  "https://etherscan.io/tx/",
			NameSuffixes: []string{".eth"},
		},
		"vechain": {
			Name:        "vechain",
			Kind:        "thor",
			RPCURL:      "https://mainnet.veblocks.net",
			Symbol:      "VET",
			Decimals:    18,
			ExplorerURL: "https://explore.vechain.org/transactions/",
		},
		"vechain-testnet": {
			Name:        "vechain-testnet",
			Kind:        "thor",
			RPCURL:      "https://testnet.veblocks.net",
			Symbol:      "VET",
			Decimals:    18,
			ExplorerURL: "https://explore-testnet.vechain.org/transactions/",
		},
	}
}

// LoadNetworks reads network definitions from a YAML file.
func LoadNetworks(path string) ([]Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read networks file %s: %w", path, err)
	}

	var file networksFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse networks file %s: %w", path, err)
	}

	for i, n := range file.Networks {
		if n.Name == "" {
			return nil, fmt.Errorf("network #%d in %s has no name", i+1, path)
		}
	}
	return file.Networks, nil
}

// mergeNetwork overlays the set fields of override onto base.
func mergeNetwork(base, override Network) Network {
	if override.Kind != "" {
		base.Kind = override.Kind
	}
	if override.RPCURL != "" {
		base.RPCURL = override.RPCURL
	}
	if override.ChainID != 0 {
		base.ChainID = override.ChainID
	}
	if override.Symbol != "" {
		base.Symbol = override.Symbol
	}
	if override.Decimals != 0 {
		base.Decimals = override.Decimals
	}
	if override.Contract != "" {
		base.Contract = override.Contract
	}
	if override.Method != "" {
		base.Method = override.Method
	}
	if override.ExplorerURL != "" {
		base.ExplorerURL = override.ExplorerURL
	}
	if len(override.NameSuffixes) > 0 {
		base.NameSuffixes = override.NameSuffixes
	}
	base.Name = override.Name
	return base
}

func networkNames(networks map[string]Network) []string {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
