package common

import (
	"crypto/ed25519"
	"encoding/json"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// The operator keypair funds charity subsidies and receives the treasury
// remainder of every settlement. It's configured as either a base58-encoded
// 64-byte secret key or a JSON byte array, matching the formats solana-keygen
// and wallet exports produce.
func NewOperatorFromSecret(secret string) (*Account, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) == 0 {
		return nil, errors.New("operator secret key is empty")
	}

	var keyBytes []byte
	if strings.HasPrefix(secret, "[") {
		// encoding/json decodes []byte from a base64 string, so take the
		// array as ints and narrow each element ourselves
		var intValues []int
		if err := json.Unmarshal([]byte(secret), &intValues); err != nil {
			return nil, errors.Wrap(err, "error decoding secret key as json byte array")
		}
		keyBytes = make([]byte, len(intValues))
		for i, v := range intValues {
			if v < 0 || v > 255 {
				return nil, errors.Errorf("secret key byte %d out of range", i)
			}
			keyBytes[i] = byte(v)
		}
	} else {
		decoded, err := base58.Decode(secret)
		if err != nil {
			return nil, errors.Wrap(err, "error decoding secret key as base58")
		}
		keyBytes = decoded
	}

	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("secret key must be %d bytes, got %d", ed25519.PrivateKeySize, len(keyBytes))
	}

	return NewAccountFromPrivateKeyBytes(keyBytes)
}
