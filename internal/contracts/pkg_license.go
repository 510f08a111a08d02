package contracts

import (
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

func verifyBuyPkg(tx *models.Transaction) error {
	if v := cashOnlyInputs(tx); v != nil {
		return v
	}

	var license *models.PkgLicenseState
	for _, out := range tx.Outputs {
		switch s := out.(type) {
		case *models.CashState:
		case *models.PkgLicenseState:
			if license != nil {
				return violation(CodeBuyLicenseShape, "there should be one output state of type PkgLicenseState")
			}
			license = s
		default:
			return violation(CodeBuyOutputsUnexpected, "outputs should be cash states and one license state")
		}
	}
	if license == nil {
		return violation(CodeBuyLicenseShape, "there should be one output state of type PkgLicenseState")
	}
	offer := license.Licensed()
	if offer == nil {
		return violation(CodeBuyLicenseShape, "the license must reference a PkgOfferState")
	}
	if v := hasCashOutput(tx); v != nil {
		return v
	}

	price := offer.Price()
	paid := models.SumCashBy(tx.Outputs, offer.RepositoryNode, price.Currency)
	if !paid.Equal(price) {
		return violation(CodeBuyAmountMismatch,
			"the amount of cash paid to the repository node must match the package price")
	}

	if license.Buyer.IsZero() {
		return violation(CodeBuyerMissing, "the <buyer> parameter cannot be null")
	}
	if license.Buyer.Equal(offer.RepositoryNode) {
		return violation(CodeBuyerIsRepository,
			"the <buyer> parameter and the <repositoryNode> parameter cannot be the same entity")
	}
	if license.Buyer.Equal(offer.Author) {
		return violation(CodeBuyerIsAuthor,
			"the <buyer> parameter and the <author> parameter cannot be the same entity")
	}

	if v := buyCashConserved(tx, license.Buyer); v != nil {
		return v
	}

	if v := requireTwoSigners(tx, license.Buyer, offer.RepositoryNode, "<buyer> and <repositoryNode>"); v != nil {
		return v
	}
	return nil
}

// buyCashConserved confirms the buyer funds the purchase: every consumed
// cash state belongs to the buyer and cash totals balance per currency
// across the transition, so a purchase can move money but never create it.
func buyCashConserved(tx *models.Transaction, buyer models.Party) *Violation {
	inSums := make(map[string]int64)
	for _, in := range tx.Inputs {
		cash, ok := in.State.(*models.CashState)
		if !ok {
			return violation(CodeBuyInputsNotCash, "only cash states should be consumed as inputs")
		}
		if !cash.Owner.Equal(buyer) {
			return violation(CodeCashNotOwned, "consumed cash must be owned by the buyer")
		}
		inSums[cash.Amount.Currency] += cash.Amount.Quantity
	}

	outSums := make(map[string]int64)
	for _, out := range tx.Outputs {
		cash, ok := out.(*models.CashState)
		if !ok {
			continue
		}
		if cash.Amount.Quantity <= 0 {
			return violation(CodeCashNonPositive, "cash output amounts must be strictly positive")
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

// cashOnlyInputs enforces the purchase input shape shared by both license
// commands: at least one input, all of them cash.
func cashOnlyInputs(tx *models.Transaction) *Violation {
	if len(tx.Inputs) == 0 {
		return violation(CodeBuyInputsEmpty, "at least one cash input should be consumed")
	}
	for _, in := range tx.Inputs {
		if _, ok := in.State.(*models.CashState); !ok {
			return violation(CodeBuyInputsNotCash, "only cash states should be consumed as inputs")
		}
	}
	return nil
}

func hasCashOutput(tx *models.Transaction) *Violation {
	for _, out := range tx.Outputs {
		if _, ok := out.(*models.CashState); ok {
			return nil
		}
	}
	return violation(CodeBuyOutputsNoCash, "at least one cash output should pay the repository node")
}
