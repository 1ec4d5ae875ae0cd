package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"math/rand"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"
)

const (
	invalidParamCode = -32602
)

type Commitment struct {
	Commitment string `json:"commitment"`
}

var (
	CommitmentProcessed = Commitment{Commitment: "processed"}
	CommitmentConfirmed = Commitment{Commitment: "confirmed"}
	CommitmentFinalized = Commitment{Commitment: "finalized"}
)

var (
	ErrNoAccountInfo = errors.New("no account info")
	ErrNoBalance     = errors.New("no balance")
)

// AccountInfo contains the Solana account information (not to be confused with a TokenAccount)
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// TokenAccountInfo is a token account returned by getTokenAccountsByOwner.
type TokenAccountInfo struct {
	PublicKey ed25519.PublicKey
	AccountInfo
}

// Client provides an interaction with the Solana JSON RPC API.
//
// Reference: https://docs.solana.com/apps/jsonrpc-api
type Client interface {
	GetAccountInfo(ed25519.PublicKey, Commitment) (AccountInfo, error)
	GetBalance(ed25519.PublicKey) (uint64, error)
	GetLatestBlockhash() (Blockhash, error)
	GetTokenAccountsByOwner(owner, program ed25519.PublicKey) ([]TokenAccountInfo, error)
}

type rpcResponse struct {
	Context struct {
		Slot int64 `json:"slot"`
	} `json:"context"`
	Value interface{} `json:"value"`
}

type client struct {
	log    *logrus.Entry
	client jsonrpc.RPCClient

	blockMu   sync.RWMutex
	blockhash Blockhash
	lastWrite time.Time
}

// New returns a client using the specified endpoint.
func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

// NewWithRPCOptions returns a client configured with the specified RPC options.
func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log:    logrus.StandardLogger().WithField("type", "solana/client"),
		client: jsonrpc.NewClientWithOpts(endpoint, opts),
	}
}

func (c *client) call(out interface{}, method string, params ...interface{}) error {
	err := c.client.CallFor(out, method, params...)
	if err != nil {
		c.log.WithField("method", method).WithError(err).Debug("rpc call failed")
	}
	return err
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (accountInfo AccountInfo, err error) {
	type rpcResponse struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	rpcConfig := struct {
		Commitment Commitment `json:"commitment"`
		Encoding   string     `json:"encoding"`
	}{
		Commitment: commitment,
		Encoding:   "base64",
	}

	var resp rpcResponse
	if err := c.call(&resp, "getAccountInfo", base58.Encode(account[:]), rpcConfig); err != nil {
		return accountInfo, errors.Wrap(err, "getAccountInfo() failed to send request")
	}

	if resp.Value == nil {
		return accountInfo, ErrNoAccountInfo
	}

	accountInfo.Owner, err = base58.Decode(resp.Value.Owner)
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base58 encoded owner")
	}

	accountInfo.Data, err = base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return accountInfo, errors.Wrap(err, "invalid base64 encoded data")
	}

	accountInfo.Lamports = resp.Value.Lamports
	accountInfo.Executable = resp.Value.Executable

	return accountInfo, nil
}

func (c *client) GetBalance(account ed25519.PublicKey) (uint64, error) {
	var resp rpcResponse
	if err := c.call(&resp, "getBalance", base58.Encode(account[:]), CommitmentProcessed); err != nil {
		jsonRPCErr, ok := err.(*jsonrpc.RPCError)
		if !ok {
			return 0, errors.Wrapf(err, "getBalance() failed to send request")
		}

		if jsonRPCErr.Code == invalidParamCode {
			return 0, ErrNoBalance
		}

		return 0, errors.Wrapf(err, "getBalance() failed to send request")
	}

	if balance, ok := resp.Value.(float64); ok {
		return uint64(balance), nil
	}

	return 0, errors.Errorf("invalid value in response")
}

func (c *client) GetLatestBlockhash() (hash Blockhash, err error) {
	// To avoid having thrashing around a similar periodic interval, we
	// randomize when we refresh our block hash.
	window := time.Duration(float64(2*time.Second) * (0.8 + rand.Float64()))

	c.blockMu.RLock()
	if time.Since(c.lastWrite) < window {
		hash = c.blockhash
	}
	c.blockMu.RUnlock()

	if hash != (Blockhash{}) {
		return hash, nil
	}

	type response struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}

	var resp response
	if err := c.call(&resp, "getLatestBlockhash", CommitmentFinalized); err != nil {
		return hash, errors.Wrap(err, "getLatestBlockhash() failed to send request")
	}

	hashBytes, err := base58.Decode(resp.Value.Blockhash)
	if err != nil {
		return hash, errors.Wrap(err, "invalid base58 encoded hash in response")
	}
	copy(hash[:], hashBytes)

	c.blockMu.Lock()
	c.blockhash = hash
	c.lastWrite = time.Now()
	c.blockMu.Unlock()

	return hash, nil
}

func (c *client) GetTokenAccountsByOwner(owner, program ed25519.PublicKey) ([]TokenAccountInfo, error) {
	programObject := struct {
		ProgramId string `json:"programId"`
	}{
		ProgramId: base58.Encode(program),
	}
	config := struct {
		Encoding   string     `json:"encoding"`
		Commitment Commitment `json:"commitment"`
	}{
		Encoding:   "base64",
		Commitment: CommitmentConfirmed,
	}

	var resp struct {
		Value []struct {
			PubKey  string `json:"pubkey"`
			Account struct {
				Lamports   uint64   `json:"lamports"`
				Owner      string   `json:"owner"`
				Data       []string `json:"data"`
				Executable bool     `json:"executable"`
			} `json:"account"`
		} `json:"value"`
	}
	if err := c.call(&resp, "getTokenAccountsByOwner", base58.Encode(owner), programObject, config); err != nil {
		return nil, err
	}

	accounts := make([]TokenAccountInfo, len(resp.Value))
	for i := range resp.Value {
		key, err := base58.Decode(resp.Value[i].PubKey)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode token account public key")
		}

		programOwner, err := base58.Decode(resp.Value[i].Account.Owner)
		if err != nil {
			return nil, errors.Wrap(err, "invalid base58 encoded owner")
		}

		var data []byte
		if len(resp.Value[i].Account.Data) > 0 {
			data, err = base64.StdEncoding.DecodeString(resp.Value[i].Account.Data[0])
			if err != nil {
				return nil, errors.Wrap(err, "invalid base64 encoded data")
			}
		}

		accounts[i] = TokenAccountInfo{
			PublicKey: key,
			AccountInfo: AccountInfo{
				Data:       data,
				Owner:      programOwner,
				Lamports:   resp.Value[i].Account.Lamports,
				Executable: resp.Value[i].Account.Executable,
			},
		}
	}

	return accounts, nil
}
