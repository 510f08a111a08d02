package flows

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/contracts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

// BuyVnfParams identify the VNF to buy, with the same optional price guard
// as package purchases.
type BuyVnfParams struct {
	LinearID      uuid.UUID
	ExpectedPrice *models.Amount
}

// BuyVnf purchases a license for a VNF descriptor. The issued license
// carries its own copy of the repository link and digest so the buyer can
// fetch and verify the archive from the license alone.
func (n *Node) BuyVnf(ctx context.Context, params BuyVnfParams) (*models.SignedTransaction, error) {
	repo, err := n.repository()
	if err != nil {
		return nil, err
	}

	session, sctx, cancel, err := n.dial(ctx, repo, FlowBuyVnf)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer session.Close()

	n.progress(FlowBuyVnf, stepGenerating)
	if err := session.Send(sctx, msgOfferRequest, offerRequest{LinearID: params.LinearID}); err != nil {
		return nil, err
	}
	var snapshot models.StateAndRef
	if err := session.Receive(sctx, msgOfferSnapshot, &snapshot); err != nil {
		return nil, err
	}
	vnf, ok := snapshot.State.(*models.VnfState)
	if !ok {
		return nil, fmt.Errorf("repository returned a %s state, expected a VNF", snapshot.State.Kind())
	}
	if vnf.LinearID != params.LinearID {
		return nil, fmt.Errorf("repository returned VNF %s, requested %s", vnf.LinearID, params.LinearID)
	}
	if !vnf.RepositoryNode.Equal(repo) {
		return nil, fmt.Errorf("VNF snapshot names a different repository node")
	}

	if params.ExpectedPrice != nil && !vnf.Price.Equal(*params.ExpectedPrice) {
		mismatch := &PriceMismatchError{Expected: *params.ExpectedPrice, Actual: vnf.Price}
		_ = session.Reject(sctx, mismatch.Error())
		return nil, mismatch
	}

	spend, err := n.cash.GenerateSpend(n.Party(), repo, vnf.Price)
	if err != nil {
		_ = session.Reject(sctx, err.Error())
		return nil, err
	}

	license := &models.VnfLicenseState{
		VnfLicensed:    snapshot,
		RepositoryLink: vnf.RepositoryLink,
		RepositoryHash: vnf.RepositoryHash,
		Buyer:          n.Party(),
		RepositoryNode: vnf.RepositoryNode,
	}
	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.BuyVnf{},
		Signers: []models.Party{n.Party(), repo},
		Inputs:  spend.Inputs,
		Outputs: append(spend.Outputs, license),
	}

	n.progress(FlowBuyVnf, stepVerifying)
	if err := contracts.Verify(&tx); err != nil {
		return nil, err
	}

	n.progress(FlowBuyVnf, stepSigning)
	stx := &models.SignedTransaction{Tx: tx}
	if err := n.identity.Sign(stx); err != nil {
		return nil, err
	}

	n.progress(FlowBuyVnf, stepCollecting)
	if err := session.Send(sctx, msgProposal, stx); err != nil {
		return nil, err
	}
	var countersigned models.SignedTransaction
	if err := session.Receive(sctx, msgCountersigned, &countersigned); err != nil {
		return nil, err
	}
	if countersigned.Tx.ID != stx.Tx.ID {
		return nil, fmt.Errorf("counterparty returned a different transaction")
	}
	if err := signing.VerifySignatures(&countersigned); err != nil {
		return nil, err
	}

	n.progress(FlowBuyVnf, stepFinalizing)
	if err := n.notary.Submit(sctx, &countersigned); err != nil {
		return nil, err
	}
	return &countersigned, nil
}

func (n *Node) respondBuyVnf(ctx context.Context, session transport.Session) error {
	var req offerRequest
	if err := session.Receive(ctx, msgOfferRequest, &req); err != nil {
		return err
	}
	current, err := n.vault.ResolveByID(models.KindVnf, req.LinearID)
	if err != nil {
		if err == vault.ErrNotFound {
			notFound := &NotFoundError{Kind: models.KindVnf, LinearID: req.LinearID}
			_ = session.Reject(ctx, notFound.Error())
			return notFound
		}
		return err
	}
	if err := session.Send(ctx, msgOfferSnapshot, current); err != nil {
		return err
	}

	stx, err := n.countersign(ctx, session, FlowBuyVnf, func(tx *models.Transaction) error {
		license, err := vnfLicenseOf(tx)
		if err != nil {
			return err
		}
		if !license.Buyer.Equal(session.Counterparty()) {
			return fmt.Errorf("license buyer must be the initiating party")
		}
		trusted, err := n.resolveCurrent(models.KindVnf, license.Licensed().LinearID, license.VnfLicensed.Ref)
		if err != nil {
			return err
		}
		if err := sameStateContent(license.Licensed(), trusted.State); err != nil {
			return err
		}
		price := trusted.State.(*models.VnfState).Price
		paid := models.SumCashBy(tx.Outputs, n.Party(), price.Currency)
		if !paid.Equal(price) {
			n.logger.WithFields(logrus.Fields{
				"node":     n.Party().Name,
				"vnf":      license.Licensed().LinearID,
				"expected": price,
				"paid":     paid,
			}).Error("purchase pays a different amount than the listed price")
			return &PriceMismatchError{Expected: price, Actual: paid}
		}
		return nil
	})
	if err != nil {
		return err
	}

	license, err := vnfLicenseOf(&stx.Tx)
	if err != nil {
		return err
	}
	vnf := license.Licensed()
	n.settleProceedsWhenFinal(stx.Tx.ID, vnf.Author, vnf.Price)
	return nil
}

func vnfLicenseOf(tx *models.Transaction) (*models.VnfLicenseState, error) {
	for _, out := range tx.Outputs {
		if license, ok := out.(*models.VnfLicenseState); ok {
			return license, nil
		}
	}
	return nil, fmt.Errorf("no VNF license output in transaction %s", tx.ID)
}
