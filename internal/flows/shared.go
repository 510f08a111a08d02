package flows

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/contracts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
)

const (
	msgProposal      = "proposal"
	msgCountersigned = "countersigned"
	msgFinalized     = "finalized"
	msgOfferRequest  = "offer-request"
	msgOfferSnapshot = "offer-snapshot"
	msgFeeRequest    = "fee-request"
)

// runBilateral drives the initiator half of a two-signer exchange: verify
// the transaction locally, sign it, collect the counterparty's signature
// and finalize through the notary.
func (n *Node) runBilateral(ctx context.Context, flow string, counterparty models.Party, tx models.Transaction) (*models.SignedTransaction, error) {
	n.progress(flow, stepVerifying)
	if err := contracts.Verify(&tx); err != nil {
		return nil, err
	}

	n.progress(flow, stepSigning)
	stx := &models.SignedTransaction{Tx: tx}
	if err := n.identity.Sign(stx); err != nil {
		return nil, err
	}

	session, sctx, cancel, err := n.dial(ctx, counterparty, flow)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer session.Close()

	n.progress(flow, stepCollecting)
	if err := session.Send(sctx, msgProposal, stx); err != nil {
		return nil, err
	}
	var countersigned models.SignedTransaction
	if err := session.Receive(sctx, msgCountersigned, &countersigned); err != nil {
		return nil, err
	}
	if countersigned.Tx.ID != stx.Tx.ID {
		return nil, fmt.Errorf("counterparty returned a different transaction: got %s want %s",
			countersigned.Tx.ID, stx.Tx.ID)
	}
	if err := signing.VerifySignatures(&countersigned); err != nil {
		return nil, err
	}

	n.progress(flow, stepFinalizing)
	if err := n.notary.Submit(sctx, &countersigned); err != nil {
		return nil, err
	}
	return &countersigned, nil
}

// countersign drives the responder half: receive the proposal, run the
// contract rules plus the flow-specific check, and return the proposal
// with this node's signature added. A failed check rejects the session
// with the reason.
func (n *Node) countersign(ctx context.Context, session transport.Session, flow string, check func(*models.Transaction) error) (*models.SignedTransaction, error) {
	var stx models.SignedTransaction
	if err := session.Receive(ctx, msgProposal, &stx); err != nil {
		return nil, err
	}

	n.progress(flow, stepVerifying)
	if err := n.checkProposal(&stx, check); err != nil {
		_ = session.Reject(ctx, err.Error())
		return nil, err
	}

	n.progress(flow, stepSigning)
	if err := n.identity.Sign(&stx); err != nil {
		return nil, err
	}
	if err := session.Send(ctx, msgCountersigned, &stx); err != nil {
		return nil, err
	}
	return &stx, nil
}

// sameStateContent compares a state embedded in a proposal against the
// vault's own record of it, byte for byte over the wire encoding.
func sameStateContent(embedded, stored models.State) error {
	embeddedBytes, err := models.MarshalState(embedded)
	if err != nil {
		return err
	}
	storedBytes, err := models.MarshalState(stored)
	if err != nil {
		return err
	}
	if !bytes.Equal(embeddedBytes, storedBytes) {
		return fmt.Errorf("proposal embeds an altered copy of a %s state", stored.Kind())
	}
	return nil
}

func (n *Node) checkProposal(stx *models.SignedTransaction, check func(*models.Transaction) error) error {
	if err := contracts.Verify(&stx.Tx); err != nil {
		return err
	}
	if !stx.Tx.HasSigner(n.Party()) {
		return fmt.Errorf("this node is not a declared signer of transaction %s", stx.Tx.ID)
	}
	// Every signature already attached must be valid before this node
	// adds its own.
	for _, sig := range stx.Signatures {
		if err := signing.VerifySignatureOf(stx, sig.Party); err != nil {
			return err
		}
	}
	if len(stx.Signatures) == 0 {
		return fmt.Errorf("proposal for transaction %s carries no signatures", stx.Tx.ID)
	}
	if check != nil {
		return check(&stx.Tx)
	}
	return nil
}
