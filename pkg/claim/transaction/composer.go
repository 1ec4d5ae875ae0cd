package transaction

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/common"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/claim/split"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana/system"
)

const lamportsPerSol = 1_000_000_000

// ErrReferralNotFound is returned by ReferralDirectory implementations when
// no wallet is registered for a code.
var ErrReferralNotFound = errors.New("referral code not found")

// ReferralDirectory resolves referral codes to wallet addresses.
type ReferralDirectory interface {
	ResolveReferral(ctx context.Context, code string) (walletAddress string, err error)
}

// AccountError records why one account in a batch couldn't be processed.
type AccountError struct {
	Account string `json:"accountPublicKey"`
	Message string `json:"error"`
}

// Settlement is a composed settlement transaction along with the revenue
// split it encodes. The transaction still requires the owner's signature
// before it can be broadcast.
type Settlement struct {
	Transaction solana.Transaction
	Split       split.RevenueSplit

	// OperatorSigned is set when the operator is the fee payer and has
	// already partially signed.
	OperatorSigned bool

	ProcessedAccounts []string
	Errors            []AccountError
}

// SolReceived is the owner's share expressed in SOL.
func (s *Settlement) SolReceived() float64 {
	return float64(s.Split.OwnerShare) / lamportsPerSol
}

// Composer builds settlement transactions that close token accounts and
// divide the reclaimed rent among the owner, the operator treasury and an
// optional referral.
type Composer struct {
	log       *logrus.Entry
	ledger    Ledger
	directory ReferralDirectory
	operator  *common.Account
	params    split.Params
}

func NewComposer(ledger Ledger, directory ReferralDirectory, operator *common.Account, params split.Params) *Composer {
	return &Composer{
		log:       logrus.StandardLogger().WithField("type", "claim/transaction/composer"),
		ledger:    ledger,
		directory: directory,
		operator:  operator,
		params:    params,
	}
}

// composition accumulates state while a settlement is being built. The
// owner's native balance is read exactly once, before any instruction is
// applied; every later decision (subsidy recovery, fee payer selection,
// authorization) references that pre-transaction snapshot rather than a live
// balance, since the subsidy transfer itself would otherwise perturb it.
type composition struct {
	owner          ed25519.PublicKey
	ownerBalance   uint64
	subsidized     bool
	instructions   []solana.Instruction
	totalReclaimed uint64
	processed      []string
	accountErrors  []AccountError
}

// CloseAccount composes a settlement closing a single empty token account.
// Referral resolution is all-or-nothing here: a code that doesn't resolve
// fails the whole operation with ErrReferralResolutionFailed.
func (c *Composer) CloseAccount(ctx context.Context, ownerID, accountID, referralCode string) (*Settlement, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":  "CloseAccount",
		"account": accountID,
	})

	owner, err := validatePublicKey(ownerID)
	if err != nil {
		return nil, err
	}
	account, err := validatePublicKey(accountID)
	if err != nil {
		return nil, err
	}

	state, err := c.begin(owner)
	if err != nil {
		return nil, err
	}

	rent, closeInstruction, err := c.buildCloseInstruction(owner, account)
	if err != nil {
		log.WithError(err).Warn("failed to build close instruction")
		return nil, err
	}

	state.instructions = append(state.instructions, closeInstruction)
	state.totalReclaimed = rent
	state.processed = append(state.processed, accountID)

	return c.finish(ctx, state, referralCode, true)
}

// CloseAccountWithBalance composes a settlement that burns the account's
// remaining token balance in place and then closes it. Referral resolution
// is best-effort: an unresolved code skips the referral transfer instead of
// failing.
func (c *Composer) CloseAccountWithBalance(ctx context.Context, ownerID, accountID, referralCode string) (*Settlement, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":  "CloseAccountWithBalance",
		"account": accountID,
	})

	owner, err := validatePublicKey(ownerID)
	if err != nil {
		return nil, err
	}
	account, err := validatePublicKey(accountID)
	if err != nil {
		return nil, err
	}

	state, err := c.begin(owner)
	if err != nil {
		return nil, err
	}

	burnInstruction, err := c.buildBurnInstruction(owner, account)
	if err != nil {
		log.WithError(err).Warn("failed to build burn instruction")
		return nil, err
	}
	if burnInstruction != nil {
		state.instructions = append(state.instructions, *burnInstruction)
	}

	rent, closeInstruction, err := c.buildCloseInstruction(owner, account)
	if err != nil {
		log.WithError(err).Warn("failed to build close instruction")
		return nil, err
	}

	state.instructions = append(state.instructions, closeInstruction)
	state.totalReclaimed = rent
	state.processed = append(state.processed, accountID)

	return c.finish(ctx, state, referralCode, false)
}

// CloseAccountBatch composes one settlement closing many accounts. An
// account that can't be processed is recorded and skipped rather than
// aborting the batch; the split is computed over the accounts that
// succeeded. Fails with ErrNoValidAccounts only when every account failed.
func (c *Composer) CloseAccountBatch(ctx context.Context, ownerID string, accountIDs []string, referralCode string) (*Settlement, error) {
	log := c.log.WithField("method", "CloseAccountBatch")

	owner, err := validatePublicKey(ownerID)
	if err != nil {
		return nil, err
	}

	state, err := c.begin(owner)
	if err != nil {
		return nil, err
	}

	// Accounts are processed strictly sequentially and the split is computed
	// once over the fully-summed total, so rounding never depends on
	// per-account partials.
	for _, accountID := range accountIDs {
		account, err := validatePublicKey(accountID)
		if err != nil {
			state.accountErrors = append(state.accountErrors, AccountError{Account: accountID, Message: err.Error()})
			continue
		}

		rent, closeInstruction, err := c.buildCloseInstruction(owner, account)
		if err != nil {
			log.WithField("account", accountID).WithError(err).Warn("failed to process account")
			state.accountErrors = append(state.accountErrors, AccountError{Account: accountID, Message: err.Error()})
			continue
		}

		state.instructions = append(state.instructions, closeInstruction)
		state.totalReclaimed += rent
		state.processed = append(state.processed, accountID)
	}

	if len(state.processed) == 0 {
		return nil, ErrNoValidAccounts
	}

	return c.finish(ctx, state, referralCode, false)
}

// begin reads the owner's native balance and starts the instruction list.
// A zero balance engages the charity subsidy: the operator fronts a fixed
// amount so the owner can co-sign a fee-bearing transaction, and becomes
// the fee payer.
func (c *Composer) begin(owner ed25519.PublicKey) (*composition, error) {
	balance, err := c.ledger.GetOwnerNativeBalance(owner)
	if err != nil {
		return nil, errors.Wrap(err, "error getting owner balance")
	}

	state := &composition{
		owner:        owner,
		ownerBalance: balance,
		instructions: baseInstructions(),
	}

	if balance == 0 {
		state.subsidized = true
		state.instructions = append(state.instructions, system.Transfer(
			c.operator.PublicKey().ToBytes(),
			owner,
			c.params.CharitySubsidyLamports,
		))
	}

	return state, nil
}

// finish runs the revenue split over the accumulated total, appends the
// referral and treasury transfers, binds a recent blockhash, selects the fee
// payer, and partially signs as the operator when the subsidy path is
// engaged.
func (c *Composer) finish(ctx context.Context, state *composition, referralCode string, strictReferral bool) (*Settlement, error) {
	referralWallet, referralFunded, err := c.resolveReferral(ctx, referralCode, strictReferral)
	if err != nil {
		return nil, err
	}

	result, err := split.Compute(c.params, state.totalReclaimed, state.ownerBalance, referralFunded)
	if err != nil {
		return nil, err
	}

	if referralFunded {
		state.instructions = append(state.instructions, system.Transfer(state.owner, referralWallet, result.ReferralShare))
	}

	state.instructions = append(state.instructions, system.Transfer(
		state.owner,
		c.operator.PublicKey().ToBytes(),
		result.TreasuryRemainder,
	))

	blockhash, err := c.ledger.GetRecentBlockhash()
	if err != nil {
		return nil, errors.Wrap(err, "error getting recent blockhash")
	}

	payer := state.owner
	if state.subsidized {
		payer = c.operator.PublicKey().ToBytes()
	}

	txn := solana.NewTransaction(payer, state.instructions...)
	txn.SetBlockhash(blockhash)

	if state.subsidized {
		if err := txn.Sign(ed25519.PrivateKey(c.operator.PrivateKey().ToBytes())); err != nil {
			return nil, errors.Wrap(err, "error partially signing transaction")
		}
	}

	c.log.WithFields(logrus.Fields{
		"owner":           base58.Encode(state.owner),
		"total_reclaimed": state.totalReclaimed,
		"owner_share":     result.OwnerShare,
		"subsidized":      state.subsidized,
		"referral":        referralFunded,
		"accounts":        len(state.processed),
	}).Info("settlement transaction composed")

	return &Settlement{
		Transaction:       txn,
		Split:             result,
		OperatorSigned:    state.subsidized,
		ProcessedAccounts: state.processed,
		Errors:            state.accountErrors,
	}, nil
}

// resolveReferral maps a referral code to a funded wallet. A code that
// doesn't resolve is fatal only when strict is set; a wallet that resolves
// but doesn't exist or holds no lamports can't receive a transfer and yields
// no referral in either mode.
func (c *Composer) resolveReferral(ctx context.Context, code string, strict bool) (ed25519.PublicKey, bool, error) {
	if code == "" {
		return nil, false, nil
	}

	log := c.log.WithField("referral_code", code)

	walletAddress, err := c.directory.ResolveReferral(ctx, code)
	if errors.Is(err, ErrReferralNotFound) {
		if strict {
			return nil, false, errors.Wrap(ErrReferralResolutionFailed, code)
		}

		log.Info("no affiliated wallet for referral code, skipping referral transfer")
		return nil, false, nil
	} else if err != nil {
		return nil, false, errors.Wrap(err, "error resolving referral code")
	}

	wallet, err := validatePublicKey(walletAddress)
	if err != nil {
		return nil, false, errors.Wrap(err, "invalid affiliated wallet address")
	}

	exists, lamports, err := c.ledger.AccountExists(wallet)
	if err != nil {
		return nil, false, errors.Wrap(err, "error checking affiliated wallet")
	}
	if !exists || lamports == 0 {
		log.WithField("wallet", walletAddress).Info("affiliated wallet isn't funded, skipping referral transfer")
		return nil, false, nil
	}

	return wallet, true, nil
}

func validatePublicKey(value string) (ed25519.PublicKey, error) {
	account, err := common.NewAccountFromPublicKeyString(value)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidIdentifier, value)
	}
	return account.PublicKey().ToBytes(), nil
}
