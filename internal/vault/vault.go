// Package vault stores each node's view of the ledger: every finalized
// transaction the node took part in, plus an unconsumed-state index the
// query and spend paths run against.
package vault

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

var (
	ErrNotFound   = errors.New("vault: state not found")
	ErrTxNotFound = errors.New("vault: transaction not found")
)

// Filter narrows an unconsumed-state query. Zero-valued fields are ignored.
// Substring matches are case-insensitive.
type Filter struct {
	LinearID            *uuid.UUID
	NameContains        string
	DescriptionContains string
	Version             string
	MaxPrice            *int64
	Currency            string
	Owner               *models.Party
	Participant         *models.Party
}

// Vault is a single node's ledger store. Persist is idempotent on the
// transaction id, so the notary may deliver the same finalized transaction
// more than once without duplicating states.
type Vault interface {
	Persist(stx *models.SignedTransaction) error
	ResolveByID(kind string, linearID uuid.UUID) (models.StateAndRef, error)
	QueryUnconsumed(kind string, filter Filter) ([]models.StateAndRef, error)
	Transaction(id uuid.UUID) (*models.SignedTransaction, error)
}

// attributes are the queryable fields shared across state kinds. Each kind
// fills the subset that makes sense for it; the rest stays zero.
type attributes struct {
	LinearID    uuid.UUID
	HasLinearID bool
	Name        string
	Description string
	Version     string
	Price       int64
	HasPrice    bool
	Currency    string
	Owner       models.Party
	HasOwner    bool
}

func attributesOf(s models.State) attributes {
	switch st := s.(type) {
	case *models.PkgOfferState:
		price := st.Price()
		return attributes{
			LinearID:    st.LinearID,
			HasLinearID: true,
			Name:        st.Name,
			Description: st.Description,
			Version:     st.Version,
			Price:       price.Quantity,
			HasPrice:    true,
			Currency:    price.Currency,
		}
	case *models.VnfState:
		return attributes{
			LinearID:    st.LinearID,
			HasLinearID: true,
			Name:        st.Name,
			Description: st.Description,
			Version:     st.Version,
			Price:       st.Price.Quantity,
			HasPrice:    true,
			Currency:    st.Price.Currency,
		}
	case *models.PkgLicenseState:
		return attributes{Owner: st.Buyer, HasOwner: true}
	case *models.VnfLicenseState:
		return attributes{Owner: st.Buyer, HasOwner: true}
	case *models.FeeAgreementState:
		return attributes{Owner: st.Developer, HasOwner: true}
	case *models.CashState:
		return attributes{
			Price:    st.Amount.Quantity,
			HasPrice: true,
			Currency: st.Amount.Currency,
			Owner:    st.Owner,
			HasOwner: true,
		}
	default:
		return attributes{}
	}
}

func (f Filter) matches(s models.State) bool {
	attrs := attributesOf(s)
	if f.LinearID != nil && (!attrs.HasLinearID || attrs.LinearID != *f.LinearID) {
		return false
	}
	if f.NameContains != "" && !containsFold(attrs.Name, f.NameContains) {
		return false
	}
	if f.DescriptionContains != "" && !containsFold(attrs.Description, f.DescriptionContains) {
		return false
	}
	if f.Version != "" && attrs.Version != f.Version {
		return false
	}
	if f.MaxPrice != nil && (!attrs.HasPrice || attrs.Price > *f.MaxPrice) {
		return false
	}
	if f.Currency != "" && attrs.Currency != f.Currency {
		return false
	}
	if f.Owner != nil && (!attrs.HasOwner || !attrs.Owner.Equal(*f.Owner)) {
		return false
	}
	if !f.matchesParticipant(s) {
		return false
	}
	return true
}

func (f Filter) matchesParticipant(s models.State) bool {
	if f.Participant != nil {
		found := false
		for _, p := range s.Participants() {
			if p.Equal(*f.Participant) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
