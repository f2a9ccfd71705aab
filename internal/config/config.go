// Package config loads Caesar's settings from the environment and an
// optional YAML networks file.
package config

import (
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/blockchain"
	"github.com/gikenye/givecaesar/internal/recipients"
)

const envPrefix = "CAESAR_"

type Config struct {
	Network Network

	ENSRPCURL   string
	ENSRegistry string
	LookupRate  float64
	NameTTL     time.Duration

	ResolveTimeout time.Duration
	ReceiptPoll    time.Duration
	ReceiptTimeout time.Duration
	Timeout        time.Duration
	RetryCount     int

	Keystore       string
	SessionTimeout time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int

	MetricsAddr string
}

// Load builds the configuration: built-in networks, then the networks file
// named by CAESAR_CONFIG, then per-field environment overrides.
func Load() (*Config, error) {
	networks := builtinNetworks()
	if path := os.Getenv(envPrefix + "CONFIG"); path != "" {
		fromFile, err := LoadNetworks(path)
		if err != nil {
			return nil, err
		}
		for _, n := range fromFile {
			networks[n.Name] = mergeNetwork(networks[n.Name], n)
		}
	}

	name := getEnvOrDefault(envPrefix+"NETWORK", "base")
	network, ok := networks[name]
	if !ok {
		return nil, fmt.Errorf("unknown network %q (known: %s)", name, strings.Join(networkNames(networks), ", "))
	}

	network.RPCURL = getEnvOrDefault(envPrefix+"RPC_URL", network.RPCURL)
	network.Contract = getEnvOrDefault(envPrefix+"CONTRACT", network.Contract)
	network.Method = getEnvOrDefault(envPrefix+"METHOD", network.Method)
	network.Symbol = getEnvOrDefault(envPrefix+"SYMBOL", network.Symbol)
	network.Decimals = int32(parseIntOrDefault(envPrefix+"DECIMALS", int(network.Decimals)))
	if network.Method == "" {
		network.Method = "disperseEther"
	}
	if network.Decimals == 0 {
		network.Decimals = 18
	}

	config := &Config{
		Network: network,

		ENSRPCURL:   getEnvOrDefault(envPrefix+"ENS_RPC_URL", defaultENSRPC(network)),
		ENSRegistry: getEnvOrDefault(envPrefix+"ENS_REGISTRY", "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e"),
		LookupRate:  parseFloatOrDefault(envPrefix+"LOOKUP_RATE", 5),
		NameTTL:     parseDurationOrDefault(envPrefix+"NAME_TTL", 5*time.Minute),

		ResolveTimeout: parseDurationOrDefault(envPrefix+"RESOLVE_TIMEOUT", 15*time.Second),
		ReceiptPoll:    parseDurationOrDefault(envPrefix+"RECEIPT_POLL", 2*time.Second),
		ReceiptTimeout: parseDurationOrDefault(envPrefix+"RECEIPT_TIMEOUT", 10*time.Minute),
		Timeout:        parseDurationOrDefault(envPrefix+"TIMEOUT", 30*time.Second),
		RetryCount:     parseIntOrDefault(envPrefix+"RETRY_COUNT", 3),

		Keystore:       getEnvOrDefault(envPrefix+"KEYSTORE", ""),
		SessionTimeout: parseDurationOrDefault(envPrefix+"SESSION_TIMEOUT", 5*time.Minute),

		LogLevel:      getEnvOrDefault(envPrefix+"LOG_LEVEL", "info"),
		LogFile:       getEnvOrDefault(envPrefix+"LOG_FILE", ""),
		LogMaxSizeMB:  parseIntOrDefault(envPrefix+"LOG_MAX_SIZE_MB", 10),
		LogMaxBackups: parseIntOrDefault(envPrefix+"LOG_MAX_BACKUPS", 3),
		LogMaxAgeDays: parseIntOrDefault(envPrefix+"LOG_MAX_AGE_DAYS", 28),

		MetricsAddr: getEnvOrDefault(envPrefix+"METRICS_ADDR", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// defaultENSRPC picks where names are looked up: the network itself when it
// is Ethereum, otherwise a public mainnet endpoint, and nowhere on Thor.
func defaultENSRPC(n Network) string {
	switch {
	case n.Kind == "thor":
		return ""
	case n.ChainID == 1:
		return n.RPCURL
	default:
		return "https://ethereum-rpc.publicnode.com"
	}
}

func (c *Config) Validate() error {
	switch c.Network.Kind {
	case "evm", "thor":
	default:
		return fmt.Errorf("invalid network kind: %s (must be 'evm' or 'thor')", c.Network.Kind)
	}

	if c.Network.RPCURL == "" {
		return fmt.Errorf("network %s has no RPC URL; set CAESAR_RPC_URL", c.Network.Name)
	}

	if c.Network.Contract == "" {
		return fmt.Errorf("no distributor contract configured for %s; set CAESAR_CONTRACT", c.Network.Name)
	}
	if !common.IsHexAddress(c.Network.Contract) {
		return fmt.Errorf("invalid contract address: %s", c.Network.Contract)
	}

	if c.ENSRegistry != "" && !common.IsHexAddress(c.ENSRegistry) {
		return fmt.Errorf("invalid ENS registry address: %s", c.ENSRegistry)
	}

	if c.Network.Decimals < 0 || c.Network.Decimals > 36 {
		return fmt.Errorf("decimals must be between 0 and 36, got: %d", c.Network.Decimals)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", c.Timeout)
	}

	if c.ResolveTimeout <= 0 {
		return fmt.Errorf("resolve timeout must be positive, got: %v", c.ResolveTimeout)
	}

	if c.ReceiptPoll <= 0 {
		return fmt.Errorf("receipt poll interval must be positive, got: %v", c.ReceiptPoll)
	}

	if c.RetryCount < 0 {
		return fmt.Errorf("retry count must be non-negative, got: %d", c.RetryCount)
	}

	if c.LookupRate < 0 {
		return fmt.Errorf("lookup rate must be non-negative, got: %v", c.LookupRate)
	}

	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got: %v", c.SessionTimeout)
	}

	return nil
}

func (c *Config) ToBlockchainConfig() blockchain.Config {
	var chainID *big.Int
	if c.Network.ChainID != 0 {
		chainID = big.NewInt(c.Network.ChainID)
	}

	return blockchain.Config{
		Kind:         blockchain.Kind(c.Network.Kind),
		Name:         c.Network.Name,
		NodeURL:      c.Network.RPCURL,
		ChainID:      chainID,
		Timeout:      c.Timeout,
		RetryCount:   c.RetryCount,
		RetryDelay:   2 * time.Second,
		PollInterval: c.ReceiptPoll,
	}
}

func (c *Config) Unit() recipients.Unit {
	return recipients.Unit{Symbol: c.Network.Symbol, Decimals: c.Network.Decimals}
}

func (c *Config) ContractAddress() common.Address {
	return common.HexToAddress(c.Network.Contract)
}

// TxURL links a transaction on the network's explorer, if one is known.
func (c *Config) TxURL(txID string) string {
	if c.Network.ExplorerURL == "" {
		return ""
	}
	return c.Network.ExplorerURL + txID
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func IsDebugEnabled() bool {
	return os.Getenv(envPrefix+"DEBUG") == "true" || os.Getenv(envPrefix+"DEBUG") == "1"
}
