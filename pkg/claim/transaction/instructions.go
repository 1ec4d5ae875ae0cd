package transaction

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana"
	compute_budget "github.com/awais-3/BetterClaimSQL-Backend/pkg/solana/computebudget"
	"github.com/awais-3/BetterClaimSQL-Backend/pkg/solana/token"
)

const (
	// Settlement transactions are small and predictable, so the compute
	// budget is pinned well below the default to keep priority fees cheap.
	computeUnitLimit              = 10_000
	computeUnitPriceMicroLamports = 150_000
)

// baseInstructions starts every settlement with the compute budget
// directives. They must come before anything that executes.
func baseInstructions() []solana.Instruction {
	return []solana.Instruction{
		compute_budget.SetComputeUnitLimit(computeUnitLimit),
		compute_budget.SetComputeUnitPrice(computeUnitPriceMicroLamports),
	}
}

// buildCloseInstruction returns the account's full lamport balance (the rent
// being reclaimed) and an instruction closing the account. Both the lamport
// destination and the close authority are the owner: reclaimed funds always
// land with the owner first, and downstream transfers redistribute from
// there.
func (c *Composer) buildCloseInstruction(owner, account ed25519.PublicKey) (uint64, solana.Instruction, error) {
	rent, err := c.ledger.GetAccountRent(account)
	if err != nil {
		return 0, solana.Instruction{}, errors.Wrapf(err, "account %s", base58.Encode(account))
	}

	return rent, token.CloseAccount(account, owner, owner), nil
}

// buildBurnInstruction returns an instruction destroying the account's
// entire token balance, or nil if the balance is already zero (an account
// with nothing to burn must still be closeable).
func (c *Composer) buildBurnInstruction(owner, account ed25519.PublicKey) (*solana.Instruction, error) {
	tokenAccount, err := c.ledger.GetTokenAccount(account)
	if err != nil {
		return nil, errors.Wrapf(err, "token account %s", base58.Encode(account))
	}

	if tokenAccount.Amount == 0 {
		return nil, nil
	}

	if !bytes.Equal(tokenAccount.Owner, owner) {
		return nil, errors.Wrapf(ErrOwnershipMismatch, "%s isn't the owner of token account %s", base58.Encode(owner), base58.Encode(account))
	}

	associatedAccount, err := token.GetAssociatedAccount(owner, tokenAccount.Mint)
	if err != nil {
		return nil, errors.Wrap(err, "error deriving associated token account")
	}

	exists, _, err := c.ledger.AccountExists(associatedAccount)
	if err != nil {
		return nil, errors.Wrap(err, "error checking associated token account")
	}
	if !exists {
		return nil, errors.Wrapf(ErrMissingAssociatedAccount, "associated token account %s", base58.Encode(associatedAccount))
	}

	instruction := token.Burn(account, tokenAccount.Mint, owner, tokenAccount.Amount)
	return &instruction, nil
}
