package cash

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

var (
	payer = models.Party{Name: "O=BuyerTest,L=Milan,C=IT", PublicKey: []byte("buyer-key")}
	payee = models.Party{Name: "O=RepositoryNode,L=Pisa,C=IT", PublicKey: []byte("repo-key")}
)

func eur(quantity int64) models.Amount {
	return models.Amount{Quantity: quantity, Currency: "EUR"}
}

func fundedVault(t *testing.T, owner models.Party, quantities ...int64) vault.Vault {
	t.Helper()
	v := vault.NewMemory()
	outputs := make([]models.State, 0, len(quantities))
	for _, q := range quantities {
		outputs = append(outputs, &models.CashState{Owner: owner, Amount: eur(q)})
	}
	stx := &models.SignedTransaction{Tx: models.Transaction{
		ID:      uuid.New(),
		Command: models.IssueCash{},
		Outputs: outputs,
	}}
	require.NoError(t, v.Persist(stx))
	return v
}

func TestBalance(t *testing.T) {
	svc := NewService(fundedVault(t, payer, 100, 250))

	balance, err := svc.Balance(payer, "EUR")
	require.NoError(t, err)
	assert.Equal(t, eur(350), balance)

	empty, err := svc.Balance(payee, "EUR")
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty.Quantity)
}

func TestGenerateSpendExact(t *testing.T) {
	svc := NewService(fundedVault(t, payer, 100))

	spend, err := svc.GenerateSpend(payer, payee, eur(100))
	require.NoError(t, err)
	require.Len(t, spend.Inputs, 1)
	require.Len(t, spend.Outputs, 1)

	paid := spend.Outputs[0].(*models.CashState)
	assert.True(t, paid.Owner.Equal(payee))
	assert.Equal(t, eur(100), paid.Amount)
}

func TestGenerateSpendWithChange(t *testing.T) {
	svc := NewService(fundedVault(t, payer, 300, 50))

	spend, err := svc.GenerateSpend(payer, payee, eur(120))
	require.NoError(t, err)
	require.Len(t, spend.Inputs, 1)
	require.Len(t, spend.Outputs, 2)

	change := spend.Outputs[1].(*models.CashState)
	assert.True(t, change.Owner.Equal(payer))
	assert.Equal(t, eur(180), change.Amount)
}

func TestGenerateSpendGathersMultipleInputs(t *testing.T) {
	svc := NewService(fundedVault(t, payer, 60, 50, 10))

	spend, err := svc.GenerateSpend(payer, payee, eur(100))
	require.NoError(t, err)
	require.Len(t, spend.Inputs, 2)
	require.Len(t, spend.Outputs, 2)

	change := spend.Outputs[1].(*models.CashState)
	assert.Equal(t, eur(10), change.Amount)
}

func TestGenerateSpendInsufficientFunds(t *testing.T) {
	svc := NewService(fundedVault(t, payer, 40))

	_, err := svc.GenerateSpend(payer, payee, eur(100))
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, eur(100), insufficient.Requested)
	assert.Equal(t, eur(40), insufficient.Available)
}

func TestGenerateSpendRejectsNonPositive(t *testing.T) {
	svc := NewService(fundedVault(t, payer, 100))

	_, err := svc.GenerateSpend(payer, payee, eur(0))
	assert.Error(t, err)
}
