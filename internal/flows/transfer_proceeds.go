package flows

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/contracts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// TransferProceeds pays the author their share of a completed sale: the
// sale price minus the fee percentage agreed with the author. Run by the
// repository node only, with its own signature alone.
func (n *Node) TransferProceeds(ctx context.Context, author models.Party, salePrice models.Amount) (*models.SignedTransaction, error) {
	agreement, err := n.FeeAgreementWith(author)
	if err != nil {
		return nil, err
	}
	feePercent := n.feePercent
	if agreement != nil {
		feePercent = agreement.FeePercent
	}

	share := salePrice.Quantity * int64(100-feePercent) / 100
	if share <= 0 {
		n.logger.WithFields(logrus.Fields{
			"author": author.Name,
			"fee":    feePercent,
		}).Info("author share is zero, nothing to transfer")
		return nil, nil
	}

	spend, err := n.cash.GenerateSpend(n.Party(), author, models.Amount{
		Quantity: share,
		Currency: salePrice.Currency,
	})
	if err != nil {
		return nil, err
	}

	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.TransferCash{},
		Signers: []models.Party{n.Party()},
		Inputs:  spend.Inputs,
		Outputs: spend.Outputs,
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

// settleProceedsWhenFinal waits for the sale transaction to reach this
// node's vault and then pays out the author's share. A sale the buyer
// never finalizes pays out nothing.
func (n *Node) settleProceedsWhenFinal(saleTxID uuid.UUID, author models.Party, salePrice models.Amount) {
	go func() {
		deadline := time.Now().Add(n.sessionTimeout)
		for time.Now().Before(deadline) {
			if _, err := n.vault.Transaction(saleTxID); err == nil {
				ctx, cancel := context.WithTimeout(context.Background(), n.sessionTimeout)
				defer cancel()
				if _, err := n.TransferProceeds(ctx, author, salePrice); err != nil {
					n.logger.WithError(err).WithField("sale_tx", saleTxID).
						Warn("failed to transfer sale proceeds")
				}
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		n.logger.WithField("sale_tx", saleTxID).Warn("sale was never finalized, proceeds withheld")
	}()
}
