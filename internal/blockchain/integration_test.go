//go:build integration
// +build integration

package blockchain

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// These tests require network connectivity and should be run with:
// go test -tags=integration ./internal/blockchain

func TestIntegrationThorTestnet(t *testing.T) {
	config := Config{
		Kind:       KindThor,
		Name:       "vechain-testnet",
		Timeout:    10 * time.Second,
		RetryCount: 1,
		RetryDelay: 1 * time.Second,
	}

	client, err := NewThorClient(config, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	status := client.GetStatus()
	if !status.Connected {
		t.Error("Expected client to be connected")
	}
	if status.BlockHeight == 0 {
		t.Error("Expected block height to be greater than 0")
	}

	balance, err := client.Balance(context.Background(), common.Address{})
	if err != nil {
		t.Fatalf("Failed to get balance: %v", err)
	}
	if balance == nil {
		t.Fatal("Balance is nil")
	}
}

func TestIntegrationBaseSepolia(t *testing.T) {
	config := Config{
		Kind:    KindEVM,
		Name:    "base-sepolia",
		NodeURL: "https://sepolia.base.org",
		Timeout: 10 * time.Second,
	}

	client, err := NewEVMClient(context.Background(), config, nil)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	defer client.Close()

	if client.ChainID().Int64() != 84532 {
		t.Errorf("Expected chain id 84532, got %s", client.ChainID())
	}
}
