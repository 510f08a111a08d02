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

type offerRequest struct {
	LinearID uuid.UUID `json:"linear_id"`
}

// BuyPkgParams identify the offer to buy. ExpectedPrice, when set, guards
// against the offer being repriced between browsing and buying.
type BuyPkgParams struct {
	LinearID      uuid.UUID
	ExpectedPrice *models.Amount
}

// BuyPkg purchases a license for a package offer. The buyer fetches the
// repository node's live snapshot of the offer, pays the listed price in
// on-ledger cash and receives a license pinned to that exact offer
// version. The offer itself stays on sale.
func (n *Node) BuyPkg(ctx context.Context, params BuyPkgParams) (*models.SignedTransaction, error) {
	repo, err := n.repository()
	if err != nil {
		return nil, err
	}

	session, sctx, cancel, err := n.dial(ctx, repo, FlowBuyPkg)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer session.Close()

	n.progress(FlowBuyPkg, stepGenerating)
	if err := session.Send(sctx, msgOfferRequest, offerRequest{LinearID: params.LinearID}); err != nil {
		return nil, err
	}
	var snapshot models.StateAndRef
	if err := session.Receive(sctx, msgOfferSnapshot, &snapshot); err != nil {
		return nil, err
	}
	offer, ok := snapshot.State.(*models.PkgOfferState)
	if !ok {
		return nil, fmt.Errorf("repository returned a %s state, expected a package offer", snapshot.State.Kind())
	}
	if offer.LinearID != params.LinearID {
		return nil, fmt.Errorf("repository returned offer %s, requested %s", offer.LinearID, params.LinearID)
	}
	if !offer.RepositoryNode.Equal(repo) {
		return nil, fmt.Errorf("offer snapshot names a different repository node")
	}

	price := offer.Price()
	if params.ExpectedPrice != nil && !price.Equal(*params.ExpectedPrice) {
		mismatch := &PriceMismatchError{Expected: *params.ExpectedPrice, Actual: price}
		_ = session.Reject(sctx, mismatch.Error())
		return nil, mismatch
	}

	spend, err := n.cash.GenerateSpend(n.Party(), repo, price)
	if err != nil {
		_ = session.Reject(sctx, err.Error())
		return nil, err
	}

	license := &models.PkgLicenseState{PkgLicensed: snapshot, Buyer: n.Party()}
	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.BuyPkg{},
		Signers: []models.Party{n.Party(), repo},
		Inputs:  spend.Inputs,
		Outputs: append(spend.Outputs, license),
	}

	n.progress(FlowBuyPkg, stepVerifying)
	if err := contracts.Verify(&tx); err != nil {
		return nil, err
	}

	n.progress(FlowBuyPkg, stepSigning)
	stx := &models.SignedTransaction{Tx: tx}
	if err := n.identity.Sign(stx); err != nil {
		return nil, err
	}

	n.progress(FlowBuyPkg, stepCollecting)
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

	n.progress(FlowBuyPkg, stepFinalizing)
	if err := n.notary.Submit(sctx, &countersigned); err != nil {
		return nil, err
	}
	return &countersigned, nil
}

func (n *Node) respondBuyPkg(ctx context.Context, session transport.Session) error {
	var req offerRequest
	if err := session.Receive(ctx, msgOfferRequest, &req); err != nil {
		return err
	}
	current, err := n.vault.ResolveByID(models.KindPkgOffer, req.LinearID)
	if err != nil {
		if err == vault.ErrNotFound {
			notFound := &NotFoundError{Kind: models.KindPkgOffer, LinearID: req.LinearID}
			_ = session.Reject(ctx, notFound.Error())
			return notFound
		}
		return err
	}
	if err := session.Send(ctx, msgOfferSnapshot, current); err != nil {
		return err
	}

	stx, err := n.countersign(ctx, session, FlowBuyPkg, func(tx *models.Transaction) error {
		license, err := pkgLicenseOf(tx)
		if err != nil {
			return err
		}
		if !license.Buyer.Equal(session.Counterparty()) {
			return fmt.Errorf("license buyer must be the initiating party")
		}
		// Re-resolve before countersigning: the offer may have been
		// updated or withdrawn since the snapshot was sent, and the
		// proposal embeds the buyer's copy of it. Only the vault's
		// version is trusted for pricing.
		trusted, err := n.resolveCurrent(models.KindPkgOffer, license.Licensed().LinearID, license.PkgLicensed.Ref)
		if err != nil {
			return err
		}
		if err := sameStateContent(license.Licensed(), trusted.State); err != nil {
			return err
		}
		price := trusted.State.(*models.PkgOfferState).Price()
		paid := models.SumCashBy(tx.Outputs, n.Party(), price.Currency)
		if !paid.Equal(price) {
			n.logger.WithFields(logrus.Fields{
				"node":     n.Party().Name,
				"offer":    license.Licensed().LinearID,
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

	license, err := pkgLicenseOf(&stx.Tx)
	if err != nil {
		return err
	}
	offer := license.Licensed()
	n.settleProceedsWhenFinal(stx.Tx.ID, offer.Author, offer.Price())
	return nil
}

func pkgLicenseOf(tx *models.Transaction) (*models.PkgLicenseState, error) {
	for _, out := range tx.Outputs {
		if license, ok := out.(*models.PkgLicenseState); ok {
			return license, nil
		}
	}
	return nil, fmt.Errorf("no package license output in transaction %s", tx.ID)
}
