package contracts

import (
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

func verifyIssueCash(tx *models.Transaction) error {
	if len(tx.Inputs) != 0 {
		return violation(CodeCashShape, "no input should be consumed when issuing cash")
	}
	if len(tx.Outputs) == 0 {
		return violation(CodeCashShape, "at least one cash state should be issued")
	}
	if len(tx.Signers) != 1 {
		return violation(CodeSingleSigner, "cash issuance requires exactly one signer")
	}
	issuer := tx.Signers[0]

	for _, out := range tx.Outputs {
		cash, ok := out.(*models.CashState)
		if !ok {
			return violation(CodeCashShape, "all outputs should be cash states")
		}
		if cash.Amount.Quantity <= 0 {
			return violation(CodeCashNonPositive, "issued cash amounts must be strictly positive")
		}
		if !cash.Owner.Equal(issuer) {
			return violation(CodeCashNotOwned, "issued cash must be owned by the issuing signer")
		}
	}
	return nil
}

func verifyTransferCash(tx *models.Transaction) error {
	if len(tx.Inputs) == 0 {
		return violation(CodeCashShape, "at least one cash input should be consumed")
	}
	if len(tx.Outputs) == 0 {
		return violation(CodeCashShape, "at least one cash output should be produced")
	}
	if len(tx.Signers) != 1 {
		return violation(CodeSingleSigner, "cash transfer requires exactly one signer")
	}
	payer := tx.Signers[0]

	// Per-currency conservation: inputs and outputs must carry the same total.
	inSums := make(map[string]int64)
	for _, in := range tx.Inputs {
		cash, ok := in.State.(*models.CashState)
		if !ok {
			return violation(CodeCashShape, "only cash states should be consumed as inputs")
		}
		if !cash.Owner.Equal(payer) {
			return violation(CodeCashNotOwned, "consumed cash must be owned by the transferring signer")
		}
		inSums[cash.Amount.Currency] += cash.Amount.Quantity
	}

	outSums := make(map[string]int64)
	for _, out := range tx.Outputs {
		cash, ok := out.(*models.CashState)
		if !ok {
			return violation(CodeCashShape, "all outputs should be cash states")
		}
		if cash.Amount.Quantity <= 0 {
			return violation(CodeCashNonPositive, "transferred cash amounts must be strictly positive")
		}
		outSums[cash.Amount.Currency] += cash.Amount.Quantity
	}

	if len(inSums) != len(outSums) {
		return violation(CodeCashImbalanced, "input and output cash totals must balance per currency")
	}
	for currency, sum := range inSums {
		if outSums[currency] != sum {
			return violation(CodeCashImbalanced, "input and output cash totals must balance per currency")
		}
	}
	return nil
}
