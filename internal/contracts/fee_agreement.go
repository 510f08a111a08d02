package contracts

import (
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

func verifyEstablishFeeAgreement(tx *models.Transaction) error {
	if len(tx.Inputs) != 0 {
		return violation(CodeFeeInputsNotEmpty, "no input should be consumed when establishing a fee agreement")
	}
	if len(tx.Outputs) != 1 {
		return violation(CodeFeeOutputShape, "there should be one output state of type FeeAgreementState")
	}
	fee, ok := tx.Outputs[0].(*models.FeeAgreementState)
	if !ok {
		return violation(CodeFeeOutputShape, "there should be one output state of type FeeAgreementState")
	}

	if fee.FeePercent < 0 || fee.FeePercent > 100 {
		return violation(CodeFeePercentRange, "the <feePercent> parameter must be between 0 and 100")
	}

	if fee.Developer.IsZero() {
		return violation(CodeDeveloperMissing, "the <developer> parameter cannot be null")
	}
	if fee.RepositoryNode.IsZero() {
		return violation(CodePartyMissing, "the <repositoryNode> parameter cannot be null")
	}
	if fee.Developer.Equal(fee.RepositoryNode) {
		return violation(CodeDeveloperIsRepo,
			"the <developer> parameter and the <repositoryNode> parameter cannot be the same entity")
	}

	if v := requireTwoSigners(tx, fee.Developer, fee.RepositoryNode, "<developer> and <repositoryNode>"); v != nil {
		return v
	}
	return nil
}
