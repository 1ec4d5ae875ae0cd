package common

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

var (
	ErrInvalidPublicKey  = errors.New("invalid public key")
	ErrInvalidPrivateKey = errors.New("invalid private key")
)

// Account is an ed25519 keypair where the private key is optional. Accounts
// referencing on-chain state generally only carry the public key. The
// operator's account additionally carries the private key so transactions
// can be partially signed before being handed back to the caller.
type Account struct {
	publicKey  *Key
	privateKey *Key
}

func NewAccountFromPublicKey(publicKey *Key) (*Account, error) {
	if err := publicKey.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid public key")
	}

	if !publicKey.IsPublic() {
		return nil, ErrInvalidPublicKey
	}

	return &Account{
		publicKey: publicKey,
	}, nil
}

func NewAccountFromPublicKeyBytes(publicKey []byte) (*Account, error) {
	key, err := NewKeyFromBytes(publicKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid public key")
	}
	return NewAccountFromPublicKey(key)
}

func NewAccountFromPublicKeyString(publicKey string) (*Account, error) {
	key, err := NewKeyFromString(publicKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid public key")
	}
	return NewAccountFromPublicKey(key)
}

func NewAccountFromPrivateKey(privateKey *Key) (*Account, error) {
	if err := privateKey.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	if privateKey.IsPublic() {
		return nil, ErrInvalidPrivateKey
	}

	publicKey, err := NewKeyFromBytes(ed25519.PrivateKey(privateKey.ToBytes()).Public().(ed25519.PublicKey))
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	return &Account{
		publicKey:  publicKey,
		privateKey: privateKey,
	}, nil
}

func NewAccountFromPrivateKeyBytes(privateKey []byte) (*Account, error) {
	key, err := NewKeyFromBytes(privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return NewAccountFromPrivateKey(key)
}

func NewRandomAccount() (*Account, error) {
	key, err := NewRandomKey()
	if err != nil {
		return nil, errors.Wrap(err, "error generating random key")
	}
	return NewAccountFromPrivateKey(key)
}

func (a *Account) PublicKey() *Key {
	return a.publicKey
}

func (a *Account) PrivateKey() *Key {
	return a.privateKey
}

func (a *Account) Validate() error {
	if a == nil {
		return errors.New("account is nil")
	}

	if err := a.publicKey.Validate(); err != nil {
		return errors.Wrap(err, "error validating public key")
	}

	if !a.publicKey.IsPublic() {
		return errors.Wrap(ErrInvalidPublicKey, "public key isn't a public key")
	}

	if a.privateKey != nil {
		if err := a.privateKey.Validate(); err != nil {
			return errors.Wrap(err, "error validating private key")
		}

		if a.privateKey.IsPublic() {
			return errors.Wrap(ErrInvalidPrivateKey, "private key isn't a private key")
		}

		expectedPublicKey := ed25519.PrivateKey(a.privateKey.ToBytes()).Public().(ed25519.PublicKey)
		if !bytes.Equal(a.publicKey.ToBytes(), expectedPublicKey) {
			return errors.New("private key doesn't map to public key")
		}
	}

	return nil
}
