package flows

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/contracts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

type feeRequest struct{}

// EstablishFeeAgreement asks the repository node for its sale fee and, when
// the proposed percentage does not exceed maxAcceptableFee, finalizes the
// agreement. The repository node builds and prices the agreement; the
// developer only accepts or walks away.
func (n *Node) EstablishFeeAgreement(ctx context.Context, maxAcceptableFee int) (*models.SignedTransaction, error) {
	repo, err := n.repository()
	if err != nil {
		return nil, err
	}

	session, sctx, cancel, err := n.dial(ctx, repo, FlowEstablishFeeAgreement)
	if err != nil {
		return nil, err
	}
	defer cancel()
	defer session.Close()

	n.progress(FlowEstablishFeeAgreement, stepGenerating)
	if err := session.Send(sctx, msgFeeRequest, feeRequest{}); err != nil {
		return nil, err
	}

	var stx models.SignedTransaction
	if err := session.Receive(sctx, msgProposal, &stx); err != nil {
		return nil, err
	}

	n.progress(FlowEstablishFeeAgreement, stepVerifying)
	fee, err := feeAgreementOf(&stx.Tx)
	if err != nil {
		return nil, err
	}
	if !fee.Developer.Equal(n.Party()) || !fee.RepositoryNode.Equal(repo) {
		return nil, fmt.Errorf("fee agreement proposal names the wrong parties")
	}
	if fee.FeePercent > maxAcceptableFee {
		reason := (&FeeTooHighError{Proposed: fee.FeePercent, MaxAcceptable: maxAcceptableFee}).Error()
		_ = session.Reject(sctx, reason)
		return nil, &FeeTooHighError{Proposed: fee.FeePercent, MaxAcceptable: maxAcceptableFee}
	}
	if err := contracts.Verify(&stx.Tx); err != nil {
		return nil, err
	}
	if err := signing.VerifySignatureOf(&stx, repo); err != nil {
		return nil, err
	}

	n.progress(FlowEstablishFeeAgreement, stepSigning)
	if err := n.identity.Sign(&stx); err != nil {
		return nil, err
	}
	if err := session.Send(sctx, msgCountersigned, &stx); err != nil {
		return nil, err
	}

	// The repository node keeps custody of fee agreements and submits
	// finality itself, so two racing sessions cannot both land one.
	n.progress(FlowEstablishFeeAgreement, stepFinalizing)
	var final models.SignedTransaction
	if err := session.Receive(sctx, msgFinalized, &final); err != nil {
		return nil, err
	}
	if final.Tx.ID != stx.Tx.ID {
		return nil, fmt.Errorf("finalized transaction %s does not match the agreement %s", final.Tx.ID, stx.Tx.ID)
	}
	if err := signing.VerifySignatures(&final); err != nil {
		return nil, err
	}
	return &final, nil
}

func (n *Node) respondEstablishFeeAgreement(ctx context.Context, session transport.Session) error {
	var req feeRequest
	if err := session.Receive(ctx, msgFeeRequest, &req); err != nil {
		return err
	}
	developer := session.Counterparty()

	existing, err := n.FeeAgreementWith(developer)
	if err != nil {
		return err
	}
	if existing != nil {
		conflict := &ConflictingAgreementError{
			Developer:      developer.Name,
			RepositoryNode: n.Party().Name,
		}
		_ = session.Reject(ctx, conflict.Error())
		return conflict
	}

	n.progress(FlowEstablishFeeAgreement, stepGenerating)
	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.EstablishFeeAgreement{},
		Signers: []models.Party{developer, n.Party()},
		Outputs: []models.State{&models.FeeAgreementState{
			FeePercent:     n.feePercent,
			Developer:      developer,
			RepositoryNode: n.Party(),
		}},
	}
	if err := contracts.Verify(&tx); err != nil {
		return err
	}

	n.progress(FlowEstablishFeeAgreement, stepSigning)
	stx := &models.SignedTransaction{Tx: tx}
	if err := n.identity.Sign(stx); err != nil {
		return err
	}
	if err := session.Send(ctx, msgProposal, stx); err != nil {
		return err
	}

	var countersigned models.SignedTransaction
	if err := session.Receive(ctx, msgCountersigned, &countersigned); err != nil {
		return err
	}
	if countersigned.Tx.ID != tx.ID {
		return fmt.Errorf("countersigned transaction %s does not match the proposal %s", countersigned.Tx.ID, tx.ID)
	}
	if err := signing.VerifySignatures(&countersigned); err != nil {
		return err
	}

	// Another developer session may have finalized an agreement while this
	// one was out for countersigning. Re-check right before submission.
	again, err := n.FeeAgreementWith(developer)
	if err != nil {
		return err
	}
	if again != nil {
		conflict := &ConflictingAgreementError{
			Developer:      developer.Name,
			RepositoryNode: n.Party().Name,
		}
		_ = session.Reject(ctx, conflict.Error())
		return conflict
	}

	n.progress(FlowEstablishFeeAgreement, stepFinalizing)
	if err := n.notary.Submit(ctx, &countersigned); err != nil {
		return err
	}
	return session.Send(ctx, msgFinalized, &countersigned)
}

// FeeAgreementWith returns the unconsumed fee agreement between this node
// and the given developer, or nil when none exists.
func (n *Node) FeeAgreementWith(developer models.Party) (*models.FeeAgreementState, error) {
	states, err := n.vault.QueryUnconsumed(models.KindFeeAgreement, vault.Filter{Owner: &developer})
	if err != nil {
		return nil, err
	}
	for _, sr := range states {
		fee := sr.State.(*models.FeeAgreementState)
		if fee.RepositoryNode.Equal(n.Party()) || fee.Developer.Equal(n.Party()) {
			return fee, nil
		}
	}
	return nil, nil
}

func feeAgreementOf(tx *models.Transaction) (*models.FeeAgreementState, error) {
	if _, ok := tx.Command.(models.EstablishFeeAgreement); !ok {
		return nil, fmt.Errorf("expected an EstablishFeeAgreement transaction, got %s", tx.Command.CommandName())
	}
	if len(tx.Outputs) != 1 {
		return nil, fmt.Errorf("expected a single fee agreement output, got %d outputs", len(tx.Outputs))
	}
	fee, ok := tx.Outputs[0].(*models.FeeAgreementState)
	if !ok {
		return nil, fmt.Errorf("expected a fee agreement output")
	}
	return fee, nil
}
