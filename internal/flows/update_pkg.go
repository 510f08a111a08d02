package flows

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

// UpdatePkgParams carry the new values for the mutable fields of an offer.
// Identity fields (pkg info id, type, parties) cannot be changed.
type UpdatePkgParams struct {
	LinearID    uuid.UUID
	Name        string
	Description string
	Version     string
	ImageLink   string
	PoPrice     *models.ProductOfferingPrice
}

// UpdatePkg replaces the current version of an offer with an updated one
// under the same linear id.
func (n *Node) UpdatePkg(ctx context.Context, params UpdatePkgParams) (*models.SignedTransaction, error) {
	repo, err := n.repository()
	if err != nil {
		return nil, err
	}

	n.progress(FlowUpdatePkg, stepGenerating)
	current, err := n.vault.ResolveByID(models.KindPkgOffer, params.LinearID)
	if err != nil {
		if err == vault.ErrNotFound {
			return nil, &NotFoundError{Kind: models.KindPkgOffer, LinearID: params.LinearID}
		}
		return nil, err
	}
	prior := current.State.(*models.PkgOfferState)

	updated := *prior
	updated.Name = params.Name
	updated.Description = params.Description
	updated.Version = params.Version
	updated.ImageLink = params.ImageLink
	updated.PoPrice = params.PoPrice

	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.UpdatePkg{},
		Signers: []models.Party{n.Party(), repo},
		Inputs:  []models.StateAndRef{current},
		Outputs: []models.State{&updated},
	}
	return n.runBilateral(ctx, FlowUpdatePkg, repo, tx)
}

func (n *Node) respondUpdatePkg(ctx context.Context, session transport.Session) error {
	_, err := n.countersign(ctx, session, FlowUpdatePkg, func(tx *models.Transaction) error {
		prior := tx.Inputs[0].State.(*models.PkgOfferState)
		if !prior.Author.Equal(session.Counterparty()) {
			return fmt.Errorf("only the offer author may update it")
		}
		return n.checkCurrentVersion(models.KindPkgOffer, prior.LinearID, tx.Inputs[0].Ref)
	})
	return err
}

// checkCurrentVersion confirms the consumed input is this node's latest
// unconsumed version of the linear state, refusing stale proposals.
func (n *Node) checkCurrentVersion(kind string, linearID uuid.UUID, ref models.StateRef) error {
	_, err := n.resolveCurrent(kind, linearID, ref)
	return err
}

// resolveCurrent returns this node's latest unconsumed version of the
// linear state, refusing references that no longer point at it.
func (n *Node) resolveCurrent(kind string, linearID uuid.UUID, ref models.StateRef) (models.StateAndRef, error) {
	current, err := n.vault.ResolveByID(kind, linearID)
	if err != nil {
		if err == vault.ErrNotFound {
			return models.StateAndRef{}, &NotFoundError{Kind: kind, LinearID: linearID}
		}
		return models.StateAndRef{}, err
	}
	if !current.Ref.Equal(ref) {
		return models.StateAndRef{}, fmt.Errorf("proposal consumes a stale version of %s", linearID)
	}
	return current, nil
}
