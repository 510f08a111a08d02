package contracts

import (
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

func verifyCreateVnf(tx *models.Transaction) error {
	if len(tx.Inputs) != 0 {
		return violation(CodeRegisterInputsNotEmpty, "no input should be consumed when onboarding a VNF")
	}
	if len(tx.Outputs) != 1 {
		return violation(CodeRegisterOutputShape, "there should be one output state of type VnfState")
	}
	vnf, ok := tx.Outputs[0].(*models.VnfState)
	if !ok {
		return violation(CodeRegisterOutputShape, "there should be one output state of type VnfState")
	}

	fields := []struct {
		name  string
		value string
	}{
		{"name", vnf.Name},
		{"description", vnf.Description},
		{"serviceType", vnf.ServiceType},
		{"version", vnf.Version},
		{"requirements", vnf.Requirements},
		{"resources", vnf.Resources},
	}
	for _, f := range fields {
		if !isWellFormatted(f.value) {
			return violation(CodeFieldMalformed,
				"the <%s> parameter cannot be null, empty or only composed by whitespace", f.name)
		}
	}
	if !isValidURL(vnf.ImageLink) {
		return violation(CodeFieldNotURL, "the <imageLink> parameter does not represent a valid URL")
	}
	if !isValidURL(vnf.RepositoryLink) {
		return violation(CodeFieldNotURL, "the <repositoryLink> parameter does not represent a valid URL")
	}
	if vnf.RepositoryHash != models.RepositoryDigest(vnf.RepositoryLink) {
		return violation(CodeRepositoryHashMismatch,
			"the <repositoryHash> parameter does not match the digest of <repositoryLink>")
	}
	if !isWellFormatted(vnf.Price.Currency) {
		return violation(CodePriceMissing, "the <price> parameter cannot be null")
	}
	if vnf.Price.Quantity < 0 {
		return violation(CodePriceNegative, "the <price> parameter cannot be negative")
	}

	if vnf.Author.IsZero() {
		return violation(CodePartyMissing, "the <author> parameter cannot be null")
	}
	if vnf.RepositoryNode.IsZero() {
		return violation(CodePartyMissing, "the <repositoryNode> parameter cannot be null")
	}
	if vnf.Author.Equal(vnf.RepositoryNode) {
		return violation(CodeAuthorIsRepository,
			"the <author> parameter and the <repositoryNode> parameter cannot be the same entity")
	}

	if v := requireTwoSigners(tx, vnf.Author, vnf.RepositoryNode, "<author> and <repositoryNode>"); v != nil {
		return v
	}
	return nil
}
