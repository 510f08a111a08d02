package models

// CashState is an on-ledger payment token: an amount of a currency owned
// by a party. IssuerRef records the issuance lineage and is ignored when
// amounts are compared or summed.
type CashState struct {
	Owner     Party  `json:"owner"`
	Amount    Amount `json:"amount"`
	IssuerRef string `json:"issuer_ref"`
}

func (s *CashState) Kind() string { return KindCash }

func (s *CashState) Participants() []Party {
	return []Party{s.Owner}
}

// SumCashBy sums the cash outputs addressed to the given owner in the given
// currency, ignoring issuance metadata. Outputs of other kinds or other
// currencies do not contribute.
func SumCashBy(outputs []State, owner Party, currency string) Amount {
	total := Amount{Currency: currency}
	for _, out := range outputs {
		cash, ok := out.(*CashState)
		if !ok {
			continue
		}
		if !cash.Owner.Equal(owner) || cash.Amount.Currency != currency {
			continue
		}
		total.Quantity += cash.Amount.Quantity
	}
	return total
}
