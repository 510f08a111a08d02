package flows

import (
	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

// MarketplaceFilter narrows marketplace listings. Zero-valued fields are
// ignored.
type MarketplaceFilter struct {
	NameContains        string
	DescriptionContains string
	Version             string
	MaxPrice            *int64
	Currency            string
}

func (f MarketplaceFilter) vaultFilter() vault.Filter {
	return vault.Filter{
		NameContains:        f.NameContains,
		DescriptionContains: f.DescriptionContains,
		Version:             f.Version,
		MaxPrice:            f.MaxPrice,
		Currency:            f.Currency,
	}
}

// Pkgs lists the unconsumed package offers in this node's vault, optionally
// filtered.
func (n *Node) Pkgs(filter MarketplaceFilter) ([]*models.PkgOfferState, error) {
	states, err := n.vault.QueryUnconsumed(models.KindPkgOffer, filter.vaultFilter())
	if err != nil {
		return nil, err
	}
	offers := make([]*models.PkgOfferState, 0, len(states))
	for _, sr := range states {
		offers = append(offers, sr.State.(*models.PkgOfferState))
	}
	return offers, nil
}

// Pkg resolves a single package offer by linear id.
func (n *Node) Pkg(linearID uuid.UUID) (*models.PkgOfferState, error) {
	sr, err := n.vault.ResolveByID(models.KindPkgOffer, linearID)
	if err != nil {
		if err == vault.ErrNotFound {
			return nil, &NotFoundError{Kind: models.KindPkgOffer, LinearID: linearID}
		}
		return nil, err
	}
	return sr.State.(*models.PkgOfferState), nil
}

// Vnfs lists the unconsumed VNF descriptors in this node's vault.
func (n *Node) Vnfs(filter MarketplaceFilter) ([]*models.VnfState, error) {
	states, err := n.vault.QueryUnconsumed(models.KindVnf, filter.vaultFilter())
	if err != nil {
		return nil, err
	}
	vnfs := make([]*models.VnfState, 0, len(states))
	for _, sr := range states {
		vnfs = append(vnfs, sr.State.(*models.VnfState))
	}
	return vnfs, nil
}

// Vnf resolves a single VNF descriptor by linear id.
func (n *Node) Vnf(linearID uuid.UUID) (*models.VnfState, error) {
	sr, err := n.vault.ResolveByID(models.KindVnf, linearID)
	if err != nil {
		if err == vault.ErrNotFound {
			return nil, &NotFoundError{Kind: models.KindVnf, LinearID: linearID}
		}
		return nil, err
	}
	return sr.State.(*models.VnfState), nil
}

// PkgLicenses lists the package licenses stored in this node's vault.
func (n *Node) PkgLicenses() ([]*models.PkgLicenseState, error) {
	states, err := n.vault.QueryUnconsumed(models.KindPkgLicense, vault.Filter{})
	if err != nil {
		return nil, err
	}
	licenses := make([]*models.PkgLicenseState, 0, len(states))
	for _, sr := range states {
		licenses = append(licenses, sr.State.(*models.PkgLicenseState))
	}
	return licenses, nil
}

// VnfLicenses lists the VNF licenses stored in this node's vault.
func (n *Node) VnfLicenses() ([]*models.VnfLicenseState, error) {
	states, err := n.vault.QueryUnconsumed(models.KindVnfLicense, vault.Filter{})
	if err != nil {
		return nil, err
	}
	licenses := make([]*models.VnfLicenseState, 0, len(states))
	for _, sr := range states {
		licenses = append(licenses, sr.State.(*models.VnfLicenseState))
	}
	return licenses, nil
}

// FeeAgreements lists the fee agreements this node is party to.
func (n *Node) FeeAgreements() ([]*models.FeeAgreementState, error) {
	states, err := n.vault.QueryUnconsumed(models.KindFeeAgreement, vault.Filter{})
	if err != nil {
		return nil, err
	}
	agreements := make([]*models.FeeAgreementState, 0, len(states))
	for _, sr := range states {
		agreements = append(agreements, sr.State.(*models.FeeAgreementState))
	}
	return agreements, nil
}

// CashBalance sums this node's unconsumed cash in the given currency.
func (n *Node) CashBalance(currency string) (models.Amount, error) {
	return n.cash.Balance(n.Party(), currency)
}

// IssuedRefs returns the issuer references carried by this node's
// unconsumed cash, one entry per distinct non-empty reference.
func (n *Node) IssuedRefs() ([]string, error) {
	self := n.Party()
	states, err := n.vault.QueryUnconsumed(models.KindCash, vault.Filter{Owner: &self})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	refs := make([]string, 0, len(states))
	for _, sr := range states {
		c := sr.State.(*models.CashState)
		if c.IssuerRef == "" || seen[c.IssuerRef] {
			continue
		}
		seen[c.IssuerRef] = true
		refs = append(refs, c.IssuerRef)
	}
	return refs, nil
}
