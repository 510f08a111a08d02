package flows

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
)

// CreateVnfParams describe the VNF descriptor a developer wants onboarded.
// The repository hash is computed from the repository link, never supplied
// by the caller.
type CreateVnfParams struct {
	Name           string
	Description    string
	ServiceType    string
	Version        string
	Requirements   string
	Resources      string
	ImageLink      string
	RepositoryLink string
	Price          models.Amount
}

// CreateVnf onboards a VNF descriptor on the repository node.
func (n *Node) CreateVnf(ctx context.Context, params CreateVnfParams) (*models.SignedTransaction, error) {
	repo, err := n.repository()
	if err != nil {
		return nil, err
	}

	n.progress(FlowCreateVnf, stepGenerating)
	vnf := &models.VnfState{
		LinearID:       uuid.New(),
		Name:           params.Name,
		Description:    params.Description,
		ServiceType:    params.ServiceType,
		Version:        params.Version,
		Requirements:   params.Requirements,
		Resources:      params.Resources,
		ImageLink:      params.ImageLink,
		RepositoryLink: params.RepositoryLink,
		RepositoryHash: models.RepositoryDigest(params.RepositoryLink),
		Price:          params.Price,
		Author:         n.Party(),
		RepositoryNode: repo,
	}
	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.CreateVnf{},
		Signers: []models.Party{n.Party(), repo},
		Outputs: []models.State{vnf},
	}
	return n.runBilateral(ctx, FlowCreateVnf, repo, tx)
}

func (n *Node) respondCreateVnf(ctx context.Context, session transport.Session) error {
	_, err := n.countersign(ctx, session, FlowCreateVnf, func(tx *models.Transaction) error {
		vnf, ok := tx.Outputs[0].(*models.VnfState)
		if !ok {
			return fmt.Errorf("expected a VNF output")
		}
		if !vnf.RepositoryNode.Equal(n.Party()) {
			return fmt.Errorf("VNF names a different repository node")
		}
		if !vnf.Author.Equal(session.Counterparty()) {
			return fmt.Errorf("VNF author must be the initiating party")
		}
		agreement, err := n.FeeAgreementWith(vnf.Author)
		if err != nil {
			return err
		}
		if agreement == nil {
			return fmt.Errorf("no fee agreement established with %s", vnf.Author.Name)
		}
		return nil
	})
	return err
}
