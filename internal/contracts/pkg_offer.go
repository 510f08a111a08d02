package contracts

import (
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

func verifyRegisterPkg(tx *models.Transaction) error {
	if len(tx.Inputs) != 0 {
		return violation(CodeRegisterInputsNotEmpty, "no input should be consumed when registering a package")
	}
	if len(tx.Outputs) != 1 {
		return violation(CodeRegisterOutputShape, "there should be one output state of type PkgOfferState")
	}
	offer, ok := tx.Outputs[0].(*models.PkgOfferState)
	if !ok {
		return violation(CodeRegisterOutputShape, "there should be one output state of type PkgOfferState")
	}

	if v := wellFormedPkgFields(offer); v != nil {
		return v
	}

	if offer.Author.IsZero() {
		return violation(CodePartyMissing, "the <author> parameter cannot be null")
	}
	if offer.RepositoryNode.IsZero() {
		return violation(CodePartyMissing, "the <repositoryNode> parameter cannot be null")
	}
	if offer.Author.Equal(offer.RepositoryNode) {
		return violation(CodeAuthorIsRepository,
			"the <author> parameter and the <repositoryNode> parameter cannot be the same entity")
	}

	if v := requireTwoSigners(tx, offer.Author, offer.RepositoryNode, "<author> and <repositoryNode>"); v != nil {
		return v
	}
	return nil
}

func verifyUpdatePkg(tx *models.Transaction) error {
	if len(tx.Inputs) != 1 {
		return violation(CodeUpdateInputShape, "there should be only one input of type PkgOfferState")
	}
	input, ok := tx.Inputs[0].State.(*models.PkgOfferState)
	if !ok {
		return violation(CodeUpdateInputShape, "there should be only one input of type PkgOfferState")
	}
	if len(tx.Outputs) != 1 {
		return violation(CodeUpdateOutputShape, "there should be only one output of type PkgOfferState")
	}
	output, ok := tx.Outputs[0].(*models.PkgOfferState)
	if !ok {
		return violation(CodeUpdateOutputShape, "there should be only one output of type PkgOfferState")
	}

	if input.LinearID != output.LinearID {
		return violation(CodeUpdateLinearIDChange, "the <linearId> parameter must not change")
	}

	if v := wellFormedPkgFields(output); v != nil {
		return v
	}

	// The updatable surface is name/description/version/imageLink/price.
	// Everything identifying the offer stays fixed.
	if input.PkgInfoID != output.PkgInfoID {
		return violation(CodeUpdateImmutableField, "the <pkgInfoId> parameter must not change")
	}
	if input.PkgType != output.PkgType {
		return violation(CodeUpdateImmutableField, "the <pkgType> parameter must not change")
	}
	if !input.Author.Equal(output.Author) {
		return violation(CodeUpdateImmutableField, "the <author> parameter must not change")
	}
	if !input.RepositoryNode.Equal(output.RepositoryNode) {
		return violation(CodeUpdateImmutableField, "the <repositoryNode> parameter must not change")
	}

	if v := requireTwoSigners(tx, output.Author, output.RepositoryNode, "<author> and <repositoryNode>"); v != nil {
		return v
	}
	return nil
}

func verifyDeletePkg(tx *models.Transaction) error {
	if len(tx.Inputs) != 1 {
		return violation(CodeDeleteInputShape, "there should be only one input of type PkgOfferState")
	}
	input, ok := tx.Inputs[0].State.(*models.PkgOfferState)
	if !ok {
		return violation(CodeDeleteInputShape, "there should be only one input of type PkgOfferState")
	}
	if len(tx.Outputs) != 0 {
		return violation(CodeDeleteOutputShape, "there should not be outputs when deleting a package")
	}

	if v := requireTwoSigners(tx, input.Author, input.RepositoryNode, "<author> and <repositoryNode>"); v != nil {
		return v
	}
	return nil
}
