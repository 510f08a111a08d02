// Package onramp turns fiat payments into on-ledger cash. A client pays
// through Stripe; once the payment intent succeeds, the node self-issues
// the matching cash amount tagged with the payment intent id.
package onramp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

type Service struct {
	node   *flows.Node
	config *config.Config

	mu     sync.Mutex
	issued map[string]bool
}

type CreatePaymentIntentRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Currency string  `json:"currency,omitempty"`
}

type PaymentIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

func NewService(node *flows.Node, cfg *config.Config) *Service {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &Service{
		node:   node,
		config: cfg,
		issued: make(map[string]bool),
	}
}

// CreatePaymentIntent opens a Stripe payment for the given fiat amount.
func (s *Service) CreatePaymentIntent(req *CreatePaymentIntentRequest) (*PaymentIntentResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.config.Payment.DefaultCurrency
	}

	amountInCents := int64(req.Amount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(strings.ToLower(currency)),
	}
	params.AddMetadata("node", s.node.Party().Name)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
	}, nil
}

// ConfirmPayment checks the payment intent with Stripe and, when it has
// succeeded, issues the matching cash on the ledger. The issuance is keyed
// to the payment intent id so a double confirmation never mints twice.
func (s *Service) ConfirmPayment(ctx context.Context, req *ConfirmPaymentRequest) (*models.SignedTransaction, error) {
	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve payment intent: %w", err)
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusSucceeded:
		// continue below
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		return nil, fmt.Errorf("payment %s still requires confirmation", pi.ID)
	default:
		return nil, fmt.Errorf("payment %s is in state %s, not succeeded", pi.ID, pi.Status)
	}

	issuerRef := "stripe:" + pi.ID
	if !s.claim(issuerRef) {
		return nil, fmt.Errorf("payment %s was already converted to cash", pi.ID)
	}

	amount := models.Amount{
		Quantity: pi.Amount,
		Currency: strings.ToUpper(string(pi.Currency)),
	}
	stx, err := s.node.SelfIssueCash(ctx, amount, issuerRef)
	if err != nil {
		s.release(issuerRef)
		return nil, err
	}
	return stx, nil
}

// claim marks the issuer ref as used, returning false when it was already
// claimed here or an issuance with that ref sits in the vault.
func (s *Service) claim(issuerRef string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.issued[issuerRef] {
		return false
	}
	existing, err := s.node.IssuedRefs()
	if err == nil {
		for _, ref := range existing {
			if ref == issuerRef {
				s.issued[issuerRef] = true
				return false
			}
		}
	}
	s.issued[issuerRef] = true
	return true
}

func (s *Service) release(issuerRef string) {
	s.mu.Lock()
	delete(s.issued, issuerRef)
	s.mu.Unlock()
}
