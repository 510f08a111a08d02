package flows

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
)

// RegisterPkgParams describe the package offer a developer wants listed.
type RegisterPkgParams struct {
	Name        string
	Description string
	Version     string
	PkgInfoID   string
	ImageLink   string
	PkgType     models.PkgType
	PoPrice     *models.ProductOfferingPrice
}

// RegisterPkg lists a new package offer on the repository node. The
// repository refuses developers that have not established a fee agreement
// first.
func (n *Node) RegisterPkg(ctx context.Context, params RegisterPkgParams) (*models.SignedTransaction, error) {
	repo, err := n.repository()
	if err != nil {
		return nil, err
	}

	n.progress(FlowRegisterPkg, stepGenerating)
	offer := &models.PkgOfferState{
		LinearID:       uuid.New(),
		Name:           params.Name,
		Description:    params.Description,
		Version:        params.Version,
		PkgInfoID:      params.PkgInfoID,
		ImageLink:      params.ImageLink,
		PkgType:        params.PkgType,
		PoPrice:        params.PoPrice,
		Author:         n.Party(),
		RepositoryNode: repo,
	}
	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.RegisterPkg{},
		Signers: []models.Party{n.Party(), repo},
		Outputs: []models.State{offer},
	}
	return n.runBilateral(ctx, FlowRegisterPkg, repo, tx)
}

func (n *Node) respondRegisterPkg(ctx context.Context, session transport.Session) error {
	_, err := n.countersign(ctx, session, FlowRegisterPkg, func(tx *models.Transaction) error {
		offer, ok := tx.Outputs[0].(*models.PkgOfferState)
		if !ok {
			return fmt.Errorf("expected a package offer output")
		}
		if !offer.RepositoryNode.Equal(n.Party()) {
			return fmt.Errorf("offer names a different repository node")
		}
		if !offer.Author.Equal(session.Counterparty()) {
			return fmt.Errorf("offer author must be the initiating party")
		}
		agreement, err := n.FeeAgreementWith(offer.Author)
		if err != nil {
			return err
		}
		if agreement == nil {
			return fmt.Errorf("no fee agreement established with %s", offer.Author.Name)
		}
		return nil
	})
	return err
}
