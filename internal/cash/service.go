// Package cash selects and shapes payment states. It owns coin selection
// for spends and the output shape of issuance; the validity of the result
// is still checked by the contract rules like any other transition.
package cash

import (
	"fmt"
	"sort"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

// InsufficientFundsError reports a spend that the payer's unconsumed cash
// cannot cover.
type InsufficientFundsError struct {
	Requested models.Amount
	Available models.Amount
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %s, available %s", e.Requested, e.Available)
}

// Spend is the cash side of a payment transaction: the consumed inputs, the
// output paying the payee and an optional change output back to the payer.
type Spend struct {
	Inputs  []models.StateAndRef
	Outputs []models.State
}

type Service struct {
	vault vault.Vault
}

func NewService(v vault.Vault) *Service {
	return &Service{vault: v}
}

// Balance sums the owner's unconsumed cash in the given currency.
func (s *Service) Balance(owner models.Party, currency string) (models.Amount, error) {
	states, err := s.vault.QueryUnconsumed(models.KindCash, vault.Filter{
		Owner:    &owner,
		Currency: currency,
	})
	if err != nil {
		return models.Amount{}, fmt.Errorf("failed to query cash states: %w", err)
	}
	total := models.Amount{Currency: currency}
	for _, sr := range states {
		total.Quantity += sr.State.(*models.CashState).Amount.Quantity
	}
	return total, nil
}

// GenerateSpend picks unconsumed cash states of the payer covering the
// requested amount, largest first, and builds the payment and change
// outputs. It fails fast with InsufficientFundsError when the payer's
// balance cannot cover the amount.
func (s *Service) GenerateSpend(payer, payee models.Party, amount models.Amount) (*Spend, error) {
	if amount.Quantity <= 0 {
		return nil, fmt.Errorf("spend amount must be strictly positive, got %s", amount)
	}

	states, err := s.vault.QueryUnconsumed(models.KindCash, vault.Filter{
		Owner:    &payer,
		Currency: amount.Currency,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query cash states: %w", err)
	}

	// Largest first keeps the input set small.
	sort.Slice(states, func(i, j int) bool {
		return states[i].State.(*models.CashState).Amount.Quantity >
			states[j].State.(*models.CashState).Amount.Quantity
	})

	var inputs []models.StateAndRef
	var gathered int64
	for _, sr := range states {
		inputs = append(inputs, sr)
		gathered += sr.State.(*models.CashState).Amount.Quantity
		if gathered >= amount.Quantity {
			break
		}
	}
	if gathered < amount.Quantity {
		return nil, &InsufficientFundsError{
			Requested: amount,
			Available: models.Amount{Quantity: gathered, Currency: amount.Currency},
		}
	}

	outputs := []models.State{
		&models.CashState{Owner: payee, Amount: amount},
	}
	if change := gathered - amount.Quantity; change > 0 {
		outputs = append(outputs, &models.CashState{
			Owner:  payer,
			Amount: models.Amount{Quantity: change, Currency: amount.Currency},
		})
	}
	return &Spend{Inputs: inputs, Outputs: outputs}, nil
}

// IssueOutputs shapes a self-issuance: one fresh cash state owned by the
// issuer, tagged with the issuance reference.
func IssueOutputs(issuer models.Party, amount models.Amount, issuerRef string) ([]models.State, error) {
	if amount.Quantity <= 0 {
		return nil, fmt.Errorf("issued amount must be strictly positive, got %s", amount)
	}
	return []models.State{
		&models.CashState{Owner: issuer, Amount: amount, IssuerRef: issuerRef},
	}, nil
}
