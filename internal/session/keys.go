package session

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

var keySalt = []byte("resybook/session/v1")

// DeriveKeys expands a passphrase into a 64-byte hash key and a 32-byte
// AES-256 block key for FileStore. The same passphrase always yields the
// same keys, so a saved session survives restarts.
func DeriveKeys(passphrase string) (hashKey, blockKey []byte, err error) {
	if passphrase == "" {
		return nil, nil, errors.New("empty session passphrase")
	}
	hashKey = make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), keySalt, []byte("hash")), hashKey); err != nil {
		return nil, nil, fmt.Errorf("derive hash key: %w", err)
	}
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(passphrase), keySalt, []byte("block")), blockKey); err != nil {
		return nil, nil, fmt.Errorf("derive block key: %w", err)
	}
	return hashKey, blockKey, nil
}
