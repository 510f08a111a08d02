// Package notary finalizes transactions. The local notary is the
// uniqueness and validity authority of the single-binary network: it
// re-checks signatures and contract rules, consumes inputs exactly once
// and distributes the finalized transaction to every participant's vault.
package notary

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/contracts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

// DoubleSpendError reports an input already consumed by an earlier
// finalized transaction.
type DoubleSpendError struct {
	Ref        models.StateRef
	ConsumedBy uuid.UUID
}

func (e *DoubleSpendError) Error() string {
	return fmt.Sprintf("input %s already consumed by transaction %s", e.Ref, e.ConsumedBy)
}

// Service finalizes fully signed transactions.
type Service interface {
	Submit(ctx context.Context, stx *models.SignedTransaction) error
}

// Local is the in-process notary.
type Local struct {
	mu       sync.Mutex
	consumed map[models.StateRef]uuid.UUID
	vaults   map[string]vault.Vault
	logger   *logrus.Logger
}

func NewLocal(logger *logrus.Logger) *Local {
	return &Local{
		consumed: make(map[models.StateRef]uuid.UUID),
		vaults:   make(map[string]vault.Vault),
		logger:   logger,
	}
}

// RegisterVault subscribes a party's vault to finalized transactions it
// participates in.
func (l *Local) RegisterVault(party models.Party, v vault.Vault) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vaults[party.Name] = v
}

func (l *Local) Submit(ctx context.Context, stx *models.SignedTransaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := signing.VerifySignatures(stx); err != nil {
		return fmt.Errorf("signature check failed: %w", err)
	}
	if err := contracts.Verify(&stx.Tx); err != nil {
		return fmt.Errorf("contract check failed: %w", err)
	}

	l.mu.Lock()
	// Idempotent on replays of the same transaction, conflict on any
	// other transaction claiming one of the inputs.
	for _, in := range stx.Tx.Inputs {
		if by, taken := l.consumed[in.Ref]; taken && by != stx.Tx.ID {
			l.mu.Unlock()
			return &DoubleSpendError{Ref: in.Ref, ConsumedBy: by}
		}
	}
	for _, in := range stx.Tx.Inputs {
		l.consumed[in.Ref] = stx.Tx.ID
	}

	recipients := make([]vault.Vault, 0, len(l.vaults))
	for _, p := range stx.Tx.Participants() {
		if v, ok := l.vaults[p.Name]; ok {
			recipients = append(recipients, v)
		}
	}
	l.mu.Unlock()

	for _, v := range recipients {
		if err := v.Persist(stx); err != nil {
			return fmt.Errorf("failed to distribute transaction %s: %w", stx.Tx.ID, err)
		}
	}

	l.logger.WithFields(logrus.Fields{
		"tx_id":   stx.Tx.ID,
		"command": stx.Tx.Command.CommandName(),
		"inputs":  len(stx.Tx.Inputs),
		"outputs": len(stx.Tx.Outputs),
	}).Info("transaction finalized")
	return nil
}
