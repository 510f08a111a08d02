package flows

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/cash"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/contracts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// SelfIssueCash mints cash owned by this node. Issuance is a single-signer
// transition used to fund test networks and to settle fiat payments
// received off ledger.
func (n *Node) SelfIssueCash(ctx context.Context, amount models.Amount, issuerRef string) (*models.SignedTransaction, error) {
	outputs, err := cash.IssueOutputs(n.Party(), amount, issuerRef)
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.IssueCash{},
		Signers: []models.Party{n.Party()},
		Outputs: outputs,
	}
	if err := contracts.Verify(&tx); err != nil {
		return nil, err
	}
	stx := &models.SignedTransaction{Tx: tx}
	if err := n.identity.Sign(stx); err != nil {
		return nil, err
	}
	if err := n.notary.Submit(ctx, stx); err != nil {
		return nil, err
	}
	return stx, nil
}
