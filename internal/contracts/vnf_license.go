package contracts

import (
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

func verifyBuyVnf(tx *models.Transaction) error {
	if v := cashOnlyInputs(tx); v != nil {
		return v
	}

	var license *models.VnfLicenseState
	for _, out := range tx.Outputs {
		switch s := out.(type) {
		case *models.CashState:
		case *models.VnfLicenseState:
			if license != nil {
				return violation(CodeBuyLicenseShape, "there should be one output state of type VnfLicenseState")
			}
			license = s
		default:
			return violation(CodeBuyOutputsUnexpected, "outputs should be cash states and one license state")
		}
	}
	if license == nil {
		return violation(CodeBuyLicenseShape, "there should be one output state of type VnfLicenseState")
	}
	vnf := license.Licensed()
	if vnf == nil {
		return violation(CodeBuyLicenseShape, "the license must reference a VnfState")
	}
	if v := hasCashOutput(tx); v != nil {
		return v
	}

	paid := models.SumCashBy(tx.Outputs, vnf.RepositoryNode, vnf.Price.Currency)
	if !paid.Equal(vnf.Price) {
		return violation(CodeBuyAmountMismatch,
			"the amount of cash paid to the repository node must match the VNF price")
	}

	if license.RepositoryLink != vnf.RepositoryLink || license.RepositoryHash != vnf.RepositoryHash {
		return violation(CodeLicenseLinkMismatch,
			"the license repository link and hash must match the licensed VNF")
	}
	if !license.RepositoryNode.Equal(vnf.RepositoryNode) {
		return violation(CodeLicenseCustodianDrift,
			"the license repository node must match the licensed VNF repository node")
	}

	if license.Buyer.IsZero() {
		return violation(CodeBuyerMissing, "the <buyer> parameter cannot be null")
	}
	if license.Buyer.Equal(vnf.RepositoryNode) {
		return violation(CodeBuyerIsRepository,
			"the <buyer> parameter and the <repositoryNode> parameter cannot be the same entity")
	}
	if license.Buyer.Equal(vnf.Author) {
		return violation(CodeBuyerIsAuthor,
			"the <buyer> parameter and the <author> parameter cannot be the same entity")
	}

	if v := buyCashConserved(tx, license.Buyer); v != nil {
		return v
	}

	if v := requireTwoSigners(tx, license.Buyer, vnf.RepositoryNode, "<buyer> and <repositoryNode>"); v != nil {
		return v
	}
	return nil
}
