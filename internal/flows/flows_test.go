package flows_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/cash"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/notary"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

const (
	repoName  = "O=RepositoryNode,L=Pisa,C=IT"
	devName   = "O=DevTest,L=Turin,C=IT"
	buyerName = "O=BuyerTest,L=Milan,C=IT"
)

type testNet struct {
	repo  *flows.Node
	dev   *flows.Node
	buyer *flows.Node

	bus  *transport.Bus
	keys map[string]*signing.Identity
}

func newTestNet(t *testing.T) *testNet {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	bus := transport.NewBus(2*time.Second, logger)
	not := notary.NewLocal(logger)
	keys := make(map[string]*signing.Identity)

	newNode := func(name string, feePercent int) *flows.Node {
		identity, err := signing.NewIdentity(name)
		require.NoError(t, err)
		keys[name] = identity
		v := vault.NewMemory()
		cfg := &config.Config{
			Node: config.NodeConfig{
				Name:           name,
				RepositoryNode: repoName,
				SessionTimeout: 2 * time.Second,
			},
			Fee: config.FeeConfig{Percent: feePercent},
		}
		node := flows.NewNode(cfg, identity, v, bus.DialerFor(identity.Party()), not, logger)
		not.RegisterVault(identity.Party(), v)
		for flow, handler := range node.Handlers() {
			bus.Register(identity.Party(), flow, handler)
		}
		return node
	}

	net := &testNet{
		repo:  newNode(repoName, 10),
		dev:   newNode(devName, 10),
		buyer: newNode(buyerName, 10),
		bus:   bus,
		keys:  keys,
	}
	for _, a := range []*flows.Node{net.repo, net.dev, net.buyer} {
		for _, b := range []*flows.Node{net.repo, net.dev, net.buyer} {
			if a != b {
				a.AddPeer(b.Party())
			}
		}
	}
	return net
}

func eur(quantity int64) models.Amount {
	return models.Amount{Quantity: quantity, Currency: "EUR"}
}

func testPoPrice(value float64) *models.ProductOfferingPrice {
	return &models.ProductOfferingPrice{
		PoID:   "poId",
		PoName: "poName",
		Price:  models.Money{Unit: "EUR", Value: value},
	}
}

func registerTestPkg(t *testing.T, net *testNet, price float64) *models.PkgOfferState {
	t.Helper()
	ctx := context.Background()

	_, err := net.dev.EstablishFeeAgreement(ctx, 50)
	require.NoError(t, err)

	stx, err := net.dev.RegisterPkg(ctx, flows.RegisterPkgParams{
		Name:        "testPkg",
		Description: "testDescription",
		Version:     "1.0",
		PkgInfoID:   "testPkgInfoId",
		ImageLink:   "https://www.nextworks.it/",
		PkgType:     models.PkgTypeVNF,
		PoPrice:     testPoPrice(price),
	})
	require.NoError(t, err)
	return stx.Tx.Outputs[0].(*models.PkgOfferState)
}

func TestEstablishFeeAgreement(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	stx, err := net.dev.EstablishFeeAgreement(ctx, 50)
	require.NoError(t, err)

	fee := stx.Tx.Outputs[0].(*models.FeeAgreementState)
	assert.Equal(t, 10, fee.FeePercent)
	assert.True(t, fee.Developer.Equal(net.dev.Party()))
	assert.True(t, fee.RepositoryNode.Equal(net.repo.Party()))

	// both vaults hold the agreement
	devAgreements, err := net.dev.FeeAgreements()
	require.NoError(t, err)
	assert.Len(t, devAgreements, 1)
	repoAgreements, err := net.repo.FeeAgreements()
	require.NoError(t, err)
	assert.Len(t, repoAgreements, 1)
}

func TestEstablishFeeAgreementConflict(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	_, err := net.dev.EstablishFeeAgreement(ctx, 50)
	require.NoError(t, err)

	_, err = net.dev.EstablishFeeAgreement(ctx, 50)
	var rejected *transport.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "already exists")
}

func TestEstablishFeeAgreementSingleWinner(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	devID := net.keys[devName]
	dialer := net.bus.DialerFor(devID.Party())

	// Drive the wire protocol by hand so two sessions can both pass the
	// initial conflict check before either one finalizes.
	openToCountersign := func() (transport.Session, *models.SignedTransaction) {
		session, err := dialer.Dial(ctx, net.repo.Party(), flows.FlowEstablishFeeAgreement)
		require.NoError(t, err)
		require.NoError(t, session.Send(ctx, "fee-request", struct{}{}))
		var stx models.SignedTransaction
		require.NoError(t, session.Receive(ctx, "proposal", &stx))
		require.NoError(t, devID.Sign(&stx))
		return session, &stx
	}

	first, firstStx := openToCountersign()
	defer first.Close()
	second, secondStx := openToCountersign()
	defer second.Close()

	require.NoError(t, first.Send(ctx, "countersigned", firstStx))
	var finalized models.SignedTransaction
	require.NoError(t, first.Receive(ctx, "finalized", &finalized))
	assert.Equal(t, firstStx.Tx.ID, finalized.Tx.ID)

	// The repository node re-checks for a live agreement right before
	// submission, so the slower session loses.
	require.NoError(t, second.Send(ctx, "countersigned", secondStx))
	var lost models.SignedTransaction
	err := second.Receive(ctx, "finalized", &lost)
	var rejected *transport.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "already exists")

	repoAgreements, err := net.repo.FeeAgreements()
	require.NoError(t, err)
	assert.Len(t, repoAgreements, 1)
}

func TestEstablishFeeAgreementTooHigh(t *testing.T) {
	net := newTestNet(t)

	_, err := net.dev.EstablishFeeAgreement(context.Background(), 5)
	var tooHigh *flows.FeeTooHighError
	require.ErrorAs(t, err, &tooHigh)
	assert.Equal(t, 10, tooHigh.Proposed)
	assert.Equal(t, 5, tooHigh.MaxAcceptable)
}

func TestRegisterPkgRequiresFeeAgreement(t *testing.T) {
	net := newTestNet(t)

	_, err := net.dev.RegisterPkg(context.Background(), flows.RegisterPkgParams{
		Name:        "testPkg",
		Description: "testDescription",
		Version:     "1.0",
		PkgInfoID:   "testPkgInfoId",
		ImageLink:   "https://www.nextworks.it/",
		PkgType:     models.PkgTypeVNF,
		PoPrice:     testPoPrice(1.0),
	})
	var rejected *transport.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "no fee agreement")
}

func TestRegisterPkg(t *testing.T) {
	net := newTestNet(t)

	offer := registerTestPkg(t, net, 1.0)
	assert.Equal(t, eur(100), offer.Price())

	// the offer is visible on both the developer and the repository node
	devOffers, err := net.dev.Pkgs(flows.MarketplaceFilter{})
	require.NoError(t, err)
	assert.Len(t, devOffers, 1)
	repoOffers, err := net.repo.Pkgs(flows.MarketplaceFilter{})
	require.NoError(t, err)
	assert.Len(t, repoOffers, 1)
}

func TestUpdatePkgRoundTrip(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	offer := registerTestPkg(t, net, 1.0)

	_, err := net.dev.UpdatePkg(ctx, flows.UpdatePkgParams{
		LinearID:    offer.LinearID,
		Name:        "testPkg",
		Description: "updated description",
		Version:     "2.0",
		ImageLink:   "https://www.nextworks.it/",
		PoPrice:     testPoPrice(2.0),
	})
	require.NoError(t, err)

	updated, err := net.repo.Pkg(offer.LinearID)
	require.NoError(t, err)
	assert.Equal(t, "2.0", updated.Version)
	assert.Equal(t, eur(200), updated.Price())

	// a single unconsumed version remains
	offers, err := net.repo.Pkgs(flows.MarketplaceFilter{})
	require.NoError(t, err)
	assert.Len(t, offers, 1)
}

func TestDeletePkg(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	offer := registerTestPkg(t, net, 1.0)

	_, err := net.dev.DeletePkg(ctx, offer.LinearID)
	require.NoError(t, err)

	_, err = net.repo.Pkg(offer.LinearID)
	var notFound *flows.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeletePkgNotFound(t *testing.T) {
	net := newTestNet(t)

	offer := registerTestPkg(t, net, 1.0)
	_, err := net.dev.DeletePkg(context.Background(), offer.LinearID)
	require.NoError(t, err)

	_, err = net.dev.DeletePkg(context.Background(), offer.LinearID)
	var notFound *flows.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestCreateVnf(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	_, err := net.dev.EstablishFeeAgreement(ctx, 50)
	require.NoError(t, err)

	stx, err := net.dev.CreateVnf(ctx, flows.CreateVnfParams{
		Name:           "testVNF",
		Description:    "testDescription",
		ServiceType:    "testServiceType",
		Version:        "1.0",
		Requirements:   "testRequirements",
		Resources:      "testResources",
		ImageLink:      "https://www.nextworks.it/",
		RepositoryLink: "https://www.nextworks.it/",
		Price:          eur(100),
	})
	require.NoError(t, err)

	vnf := stx.Tx.Outputs[0].(*models.VnfState)
	assert.Equal(t, models.RepositoryDigest("https://www.nextworks.it/"), vnf.RepositoryHash)

	vnfs, err := net.repo.Vnfs(flows.MarketplaceFilter{})
	require.NoError(t, err)
	assert.Len(t, vnfs, 1)
}

func TestBuyPkg(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	offer := registerTestPkg(t, net, 1.0)

	_, err := net.buyer.SelfIssueCash(ctx, eur(500), "test-funding")
	require.NoError(t, err)

	expected := eur(100)
	_, err = net.buyer.BuyPkg(ctx, flows.BuyPkgParams{
		LinearID:      offer.LinearID,
		ExpectedPrice: &expected,
	})
	require.NoError(t, err)

	// the buyer holds a license pinned to the purchased version
	licenses, err := net.buyer.PkgLicenses()
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.Equal(t, offer.LinearID, licenses[0].Licensed().LinearID)

	// buyer paid and got change
	buyerBalance, err := net.buyer.CashBalance("EUR")
	require.NoError(t, err)
	assert.Equal(t, eur(400), buyerBalance)

	// the offer stays on sale
	offers, err := net.repo.Pkgs(flows.MarketplaceFilter{})
	require.NoError(t, err)
	assert.Len(t, offers, 1)

	// the author eventually receives the sale price minus the 10% fee
	assert.Eventually(t, func() bool {
		balance, err := net.dev.CashBalance("EUR")
		return err == nil && balance.Quantity == 90
	}, 2*time.Second, 20*time.Millisecond)

	// the repository node keeps the fee
	assert.Eventually(t, func() bool {
		balance, err := net.repo.CashBalance("EUR")
		return err == nil && balance.Quantity == 10
	}, 2*time.Second, 20*time.Millisecond)
}

func TestBuyPkgInsufficientFunds(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	offer := registerTestPkg(t, net, 1.0)

	_, err := net.buyer.SelfIssueCash(ctx, eur(40), "test-funding")
	require.NoError(t, err)

	_, err = net.buyer.BuyPkg(ctx, flows.BuyPkgParams{LinearID: offer.LinearID})
	var insufficient *cash.InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, eur(100), insufficient.Requested)
	assert.Equal(t, eur(40), insufficient.Available)
}

func TestBuyPkgNotFound(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	_, err := net.buyer.SelfIssueCash(ctx, eur(500), "test-funding")
	require.NoError(t, err)

	_, err = net.buyer.BuyPkg(ctx, flows.BuyPkgParams{LinearID: uuid.New()})
	var rejected *transport.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "no unconsumed")
}

func TestBuyPkgPriceGuard(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	offer := registerTestPkg(t, net, 2.0)

	_, err := net.buyer.SelfIssueCash(ctx, eur(500), "test-funding")
	require.NoError(t, err)

	stale := eur(100) // the buyer browsed an older, cheaper version
	_, err = net.buyer.BuyPkg(ctx, flows.BuyPkgParams{
		LinearID:      offer.LinearID,
		ExpectedPrice: &stale,
	})
	var mismatch *flows.PriceMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, eur(200), mismatch.Actual)
}

func TestBuyPkgRejectsAlteredOfferCopy(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	offer := registerTestPkg(t, net, 2.0)

	buyerID := net.keys[buyerName]
	buyer := buyerID.Party()
	dialer := net.bus.DialerFor(buyer)

	session, err := dialer.Dial(ctx, net.repo.Party(), flows.FlowBuyPkg)
	require.NoError(t, err)
	defer session.Close()

	require.NoError(t, session.Send(ctx, "offer-request", struct {
		LinearID uuid.UUID `json:"linear_id"`
	}{offer.LinearID}))
	var snapshot models.StateAndRef
	require.NoError(t, session.Receive(ctx, "offer-snapshot", &snapshot))

	// Halve the price on the local copy while keeping the genuine ref,
	// then propose a purchase that pays the lowered amount.
	snapshot.State.(*models.PkgOfferState).PoPrice.Price.Value = 1.0

	funding := models.StateAndRef{
		Ref:   models.StateRef{TxID: uuid.New(), Index: 0},
		State: &models.CashState{Owner: buyer, Amount: eur(100)},
	}
	tx := models.Transaction{
		ID:      uuid.New(),
		Command: models.BuyPkg{},
		Signers: []models.Party{buyer, net.repo.Party()},
		Inputs:  []models.StateAndRef{funding},
		Outputs: []models.State{
			&models.CashState{Owner: net.repo.Party(), Amount: eur(100)},
			&models.PkgLicenseState{PkgLicensed: snapshot, Buyer: buyer},
		},
	}
	stx := &models.SignedTransaction{Tx: tx}
	require.NoError(t, buyerID.Sign(stx))
	require.NoError(t, session.Send(ctx, "proposal", stx))

	var countersigned models.SignedTransaction
	err = session.Receive(ctx, "countersigned", &countersigned)
	var rejected *transport.RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Contains(t, rejected.Reason, "altered copy")

	licenses, err := net.buyer.PkgLicenses()
	require.NoError(t, err)
	assert.Empty(t, licenses)
}

func TestBuyVnf(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()

	_, err := net.dev.EstablishFeeAgreement(ctx, 50)
	require.NoError(t, err)

	created, err := net.dev.CreateVnf(ctx, flows.CreateVnfParams{
		Name:           "testVNF",
		Description:    "testDescription",
		ServiceType:    "testServiceType",
		Version:        "1.0",
		Requirements:   "testRequirements",
		Resources:      "testResources",
		ImageLink:      "https://www.nextworks.it/",
		RepositoryLink: "https://www.nextworks.it/",
		Price:          eur(100),
	})
	require.NoError(t, err)
	vnf := created.Tx.Outputs[0].(*models.VnfState)

	_, err = net.buyer.SelfIssueCash(ctx, eur(100), "test-funding")
	require.NoError(t, err)

	_, err = net.buyer.BuyVnf(ctx, flows.BuyVnfParams{LinearID: vnf.LinearID})
	require.NoError(t, err)

	licenses, err := net.buyer.VnfLicenses()
	require.NoError(t, err)
	require.Len(t, licenses, 1)
	assert.Equal(t, vnf.RepositoryHash, licenses[0].RepositoryHash)
	assert.Equal(t, vnf.RepositoryLink, licenses[0].RepositoryLink)

	assert.Eventually(t, func() bool {
		balance, err := net.dev.CashBalance("EUR")
		return err == nil && balance.Quantity == 90
	}, 2*time.Second, 20*time.Millisecond)
}

func TestSelfIssueCash(t *testing.T) {
	net := newTestNet(t)

	_, err := net.buyer.SelfIssueCash(context.Background(), eur(1000), "stripe:pi_123")
	require.NoError(t, err)

	balance, err := net.buyer.CashBalance("EUR")
	require.NoError(t, err)
	assert.Equal(t, eur(1000), balance)
}

func TestMarketplaceQuery(t *testing.T) {
	net := newTestNet(t)
	ctx := context.Background()
	offer := registerTestPkg(t, net, 1.0)

	// The buyer holds nothing locally; the listing comes back over a
	// query session with the repository node.
	local, err := net.buyer.Pkgs(flows.MarketplaceFilter{})
	require.NoError(t, err)
	assert.Empty(t, local)

	offers, err := net.buyer.MarketplacePkgs(ctx, flows.MarketplaceFilter{})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, offer.LinearID, offers[0].LinearID)

	offers, err = net.buyer.MarketplacePkgs(ctx, flows.MarketplaceFilter{NameContains: "nomatch"})
	require.NoError(t, err)
	assert.Empty(t, offers)

	got, err := net.buyer.MarketplacePkg(ctx, offer.LinearID)
	require.NoError(t, err)
	assert.Equal(t, offer.Name, got.Name)

	_, err = net.buyer.MarketplacePkg(ctx, uuid.New())
	var notFound *flows.NotFoundError
	require.ErrorAs(t, err, &notFound)
}
