package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/darrenvechain/thorgo/crypto/hdwallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/tyler-smith/go-bip39"
)

const (
	EVMPath  = "m/44'/60'/0'/0/0"
	ThorPath = "m/44'/818'/0'/0/0"
)

// Account is a key derived from a mnemonic at one derivation path.
type Account struct {
	Address    common.Address
	Path       string
	PrivateKey *ecdsa.PrivateKey
}

// NewMnemonic returns a fresh 12-word mnemonic.
func NewMnemonic() (string, error) {
	return hdwallet.NewMnemonic(128)
}

func ValidateMnemonic(mnemonic string) error {
	words := strings.Fields(mnemonic)
	if len(words) != 12 && len(words) != 24 {
		return fmt.Errorf("mnemonic must have 12 or 24 words, got %d", len(words))
	}
	if !bip39.IsMnemonicValid(strings.Join(words, " ")) {
		return fmt.Errorf("mnemonic checksum is invalid")
	}
	return nil
}

func DeriveAccount(mnemonic, path string) (*Account, error) {
	mnemonic = strings.Join(strings.Fields(mnemonic), " ")
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}

	derivationPath, err := hdwallet.ParseDerivationPath(path)
	if err != nil {
		return nil, err
	}

	hdWallet, err := hdwallet.FromMnemonicAt(mnemonic, derivationPath)
	if err != nil {
		return nil, err
	}

	privateKey, err := hdWallet.PrivateKey()
	if err != nil {
		return nil, err
	}

	return &Account{
		Address:    hdWallet.Address(),
		Path:       path,
		PrivateKey: privateKey,
	}, nil
}

// Wipe zeroes the secret scalar.
func (a *Account) Wipe() {
	if a == nil || a.PrivateKey == nil {
		return
	}
	if a.PrivateKey.D != nil {
		a.PrivateKey.D.SetInt64(0)
	}
	a.PrivateKey = nil
}
