// Package contracts holds the validation rules for every marketplace
// transition. Validators are pure functions of the transaction: no I/O, no
// clock, no randomness, so every participant reaches the identical verdict.
package contracts

import (
	"net/url"
	"strings"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// Verify checks a proposed transition against the rules of its command.
// It returns nil when the transition is legal and a *Violation describing
// the first broken predicate otherwise.
func Verify(tx *models.Transaction) error {
	switch tx.Command.(type) {
	case models.RegisterPkg:
		return verifyRegisterPkg(tx)
	case models.UpdatePkg:
		return verifyUpdatePkg(tx)
	case models.DeletePkg:
		return verifyDeletePkg(tx)
	case models.CreateVnf:
		return verifyCreateVnf(tx)
	case models.BuyPkg:
		return verifyBuyPkg(tx)
	case models.BuyVnf:
		return verifyBuyVnf(tx)
	case models.EstablishFeeAgreement:
		return verifyEstablishFeeAgreement(tx)
	case models.IssueCash:
		return verifyIssueCash(tx)
	case models.TransferCash:
		return verifyTransferCash(tx)
	default:
		return violation(CodeUnknownCommand, "unknown command")
	}
}

func isWellFormatted(s string) bool {
	return s != "" && strings.TrimSpace(s) != ""
}

func isValidURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// requireTwoSigners enforces the authorization rule shared by every
// bilateral command: the count check is a cheap pre-filter, the containment
// check is the actual guarantee.
func requireTwoSigners(tx *models.Transaction, first, second models.Party, role string) *Violation {
	if len(tx.Signers) != 2 {
		return violation(CodeTwoSigners, "there must be two signers")
	}
	if !tx.HasSigner(first) || !tx.HasSigner(second) {
		return violation(CodeMustBeSigners, "%s must be signers", role)
	}
	return nil
}

func wellFormedPkgFields(offer *models.PkgOfferState) *Violation {
	fields := []struct {
		name  string
		value string
	}{
		{"name", offer.Name},
		{"description", offer.Description},
		{"version", offer.Version},
		{"pkgInfoId", offer.PkgInfoID},
	}
	for _, f := range fields {
		if !isWellFormatted(f.value) {
			return violation(CodeFieldMalformed,
				"the <%s> parameter cannot be null, empty or only composed by whitespace", f.name)
		}
	}
	if !isValidURL(offer.ImageLink) {
		return violation(CodeFieldNotURL, "the <imageLink> parameter does not represent a valid URL")
	}
	if offer.PkgType != models.PkgTypeVNF && offer.PkgType != models.PkgTypePNF {
		return violation(CodePkgTypeMissing, "the <pkgType> parameter must be VNF or PNF")
	}
	if offer.PoPrice == nil {
		return violation(CodePriceMissing, "the <poPrice> parameter cannot be null")
	}
	price := offer.Price()
	if !isWellFormatted(price.Currency) {
		return violation(CodePriceMissing, "the <poPrice> parameter must carry a currency")
	}
	if price.Quantity < 0 {
		return violation(CodePriceNegative, "the <poPrice> parameter cannot be negative")
	}
	return nil
}
