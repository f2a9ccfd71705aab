package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/crypto/pbkdf2"
)

const (
	keyLength   = 32
	nonceLength = 12
	saltLength  = 32
	iterations  = 100000

	keystoreVersion = 1
)

var ErrBadPassword = errors.New("invalid password or corrupted data")

type EncryptedData struct {
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Keystore is the on-disk wallet: an encrypted mnemonic plus the public
// details needed to show the account while it is locked.
type Keystore struct {
	Version   int            `json:"version"`
	Address   common.Address `json:"address"`
	Path      string         `json:"path"`
	CreatedAt time.Time      `json:"created_at"`
	Crypto    *EncryptedData `json:"crypto"`
}

func Encrypt(data []byte, password string) (*EncryptedData, error) {
	salt := make([]byte, saltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	aesGCM, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, nonceLength)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return &EncryptedData{
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: aesGCM.Seal(nil, nonce, data, nil),
	}, nil
}

func Decrypt(encData *EncryptedData, password string) ([]byte, error) {
	if encData == nil {
		return nil, errors.New("encrypted data is nil")
	}

	aesGCM, err := newGCM(password, encData.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesGCM.Open(nil, encData.Nonce, encData.Ciphertext, nil)
	if err != nil {
		return nil, ErrBadPassword
	}

	return plaintext, nil
}

func newGCM(password string, salt []byte) (cipher.AEAD, error) {
	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// NewKeystore encrypts mnemonic under password after checking that it
// derives an account at path.
func NewKeystore(mnemonic, path, password string) (*Keystore, error) {
	if password == "" {
		return nil, errors.New("password is required")
	}

	account, err := DeriveAccount(mnemonic, path)
	if err != nil {
		return nil, err
	}
	defer account.Wipe()

	enc, err := Encrypt([]byte(mnemonic), password)
	if err != nil {
		return nil, fmt.Errorf("encrypt mnemonic: %w", err)
	}

	return &Keystore{
		Version:   keystoreVersion,
		Address:   account.Address,
		Path:      path,
		CreatedAt: time.Now().UTC(),
		Crypto:    enc,
	}, nil
}

// Unlock decrypts the mnemonic and derives the account.
func (k *Keystore) Unlock(password string) (*Account, error) {
	mnemonic, err := Decrypt(k.Crypto, password)
	if err != nil {
		return nil, err
	}
	defer clear(mnemonic)

	account, err := DeriveAccount(string(mnemonic), k.Path)
	if err != nil {
		return nil, err
	}
	if account.Address != k.Address {
		account.Wipe()
		return nil, fmt.Errorf("keystore address %s does not match derived %s", k.Address.Hex(), account.Address.Hex())
	}
	return account, nil
}

func (k *Keystore) Save(file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(k, "", "  ")
	if err != nil {
		return err
	}

	tmp := file + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, file)
}

func LoadKeystore(file string) (*Keystore, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}

	var k Keystore
	if err := json.Unmarshal(data, &k); err != nil {
		return nil, fmt.Errorf("parse keystore %s: %w", file, err)
	}
	if k.Version != keystoreVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", k.Version)
	}
	if k.Crypto == nil {
		return nil, fmt.Errorf("keystore %s has no encrypted payload", file)
	}
	return &k, nil
}

// DefaultKeystorePath is ~/.caesar/keystore.json.
func DefaultKeystorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".caesar", "keystore.json")
	}
	return filepath.Join(home, ".caesar", "keystore.json")
}
