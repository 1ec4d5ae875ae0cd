package referral

import (
	"crypto/rand"
	"encoding/base64"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const codeLength = 8

// Record is an affiliated wallet: a wallet address with a referral code that
// earns a share of settlements composed with that code.
type Record struct {
	Id uint64

	WalletAddress string
	Code          string

	// Cumulative SOL earned through referrals
	SolReceived float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.WalletAddress) == 0 {
		return errors.New("wallet address is required")
	}

	if len(r.Code) != codeLength {
		return errors.Errorf("referral code must be %d characters", codeLength)
	}

	if r.SolReceived < 0 {
		return errors.New("sol received cannot be negative")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		WalletAddress: r.WalletAddress,
		Code:          r.Code,
		SolReceived:   r.SolReceived,

		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.WalletAddress = r.WalletAddress
	dst.Code = r.Code
	dst.SolReceived = r.SolReceived

	dst.CreatedAt = r.CreatedAt
	dst.UpdatedAt = r.UpdatedAt
}

// GenerateCode returns a new random referral code. The base64 symbols that
// aren't URL friendly are substituted so codes can travel in query strings.
func GenerateCode() (string, error) {
	randomBytes := make([]byte, 6)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", errors.Wrap(err, "error generating random bytes")
	}

	code := base64.StdEncoding.EncodeToString(randomBytes)
	code = strings.ReplaceAll(code, "+", "0")
	code = strings.ReplaceAll(code, "/", "1")
	return code[:codeLength], nil
}
