package flows

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

// DeletePkg withdraws an offer from the marketplace by consuming its
// current version without producing a replacement. Licenses already sold
// against prior versions stay valid.
func (n *Node) DeletePkg(ctx context.Context, linearID uuid.UUID) (*models.SignedTransaction, error) {
	repo, err := n.repository()
	if err != nil {
		return nil, err
	}

	n.progress(FlowDeletePkg, stepGenerating)
	current, err := n.vault.ResolveByID(models.KindPkgOffer, linearID)
	if err != nil {
		if err == vault.ErrNotFound {
			return nil, &NotFoundError{Kind: models.KindPkgOffer, LinearID: linearID}
		}
		return nil, err
	}

	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.DeletePkg{},
		Signers: []models.Party{n.Party(), repo},
		Inputs:  []models.StateAndRef{current},
	}
	return n.runBilateral(ctx, FlowDeletePkg, repo, tx)
}

func (n *Node) respondDeletePkg(ctx context.Context, session transport.Session) error {
	_, err := n.countersign(ctx, session, FlowDeletePkg, func(tx *models.Transaction) error {
		prior := tx.Inputs[0].State.(*models.PkgOfferState)
		if !prior.Author.Equal(session.Counterparty()) {
			return fmt.Errorf("only the offer author may delete it")
		}
		return n.checkCurrentVersion(models.KindPkgOffer, prior.LinearID, tx.Inputs[0].Ref)
	})
	return err
}
