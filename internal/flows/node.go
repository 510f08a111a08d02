// Package flows implements the multi-party exchanges of the marketplace.
// Each use case pairs an initiator method on Node with the responder
// handler the counterparty serves; both sides validate independently and
// nothing reaches a vault until the notary finalizes the transaction.
package flows

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/cash"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/notary"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/signing"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/vault"
)

// Flow names a dialer resolves responder handlers by.
const (
	FlowEstablishFeeAgreement = "establish-fee-agreement"
	FlowRegisterPkg           = "register-pkg"
	FlowUpdatePkg             = "update-pkg"
	FlowDeletePkg             = "delete-pkg"
	FlowCreateVnf             = "create-vnf"
	FlowBuyPkg                = "buy-pkg"
	FlowBuyVnf                = "buy-vnf"
	FlowQueryPkgs             = "query-pkgs"
	FlowQueryVnfs             = "query-vnfs"
)

// Progress steps logged as a flow advances.
const (
	stepGenerating = "generating-transaction"
	stepVerifying  = "verifying-transaction"
	stepSigning    = "signing-transaction"
	stepCollecting = "collecting-signatures"
	stepFinalizing = "finalizing-transaction"
)

// Node is one marketplace participant: its identity, its vault, and the
// flows it can initiate or respond to.
type Node struct {
	identity       *signing.Identity
	vault          vault.Vault
	cash           *cash.Service
	dialer         transport.Dialer
	notary         notary.Service
	logger         *logrus.Logger
	feePercent     int
	repositoryName string
	sessionTimeout time.Duration

	mu    sync.RWMutex
	peers map[string]models.Party
}

func NewNode(
	cfg *config.Config,
	identity *signing.Identity,
	v vault.Vault,
	dialer transport.Dialer,
	n notary.Service,
	logger *logrus.Logger,
) *Node {
	return &Node{
		identity:       identity,
		vault:          v,
		cash:           cash.NewService(v),
		dialer:         dialer,
		notary:         n,
		logger:         logger,
		feePercent:     cfg.Fee.Percent,
		repositoryName: cfg.Node.RepositoryNode,
		sessionTimeout: cfg.Node.SessionTimeout,
		peers:          make(map[string]models.Party),
	}
}

func (n *Node) Party() models.Party {
	return n.identity.Party()
}

func (n *Node) Vault() vault.Vault {
	return n.vault
}

// AddPeer makes another participant reachable by name.
func (n *Node) AddPeer(p models.Party) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers[p.Name] = p
}

func (n *Node) Peer(name string) (models.Party, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	p, ok := n.peers[name]
	if !ok {
		return models.Party{}, fmt.Errorf("unknown peer %q", name)
	}
	return p, nil
}

// Peers lists every known participant, the node itself excluded.
func (n *Node) Peers() []models.Party {
	n.mu.RLock()
	defer n.mu.RUnlock()
	peers := make([]models.Party, 0, len(n.peers))
	for _, p := range n.peers {
		peers = append(peers, p)
	}
	return peers
}

// IsRepository reports whether this node is the marketplace custodian.
func (n *Node) IsRepository() bool {
	return n.Party().Name == n.repositoryName
}

func (n *Node) repository() (models.Party, error) {
	if n.IsRepository() {
		return models.Party{}, fmt.Errorf("the repository node cannot initiate this flow against itself")
	}
	return n.Peer(n.repositoryName)
}

// Handlers returns the responder handlers this node serves, keyed by flow
// name. The transport registers them at boot.
func (n *Node) Handlers() map[string]transport.Handler {
	return map[string]transport.Handler{
		FlowEstablishFeeAgreement: n.respondEstablishFeeAgreement,
		FlowRegisterPkg:           n.respondRegisterPkg,
		FlowUpdatePkg:             n.respondUpdatePkg,
		FlowDeletePkg:             n.respondDeletePkg,
		FlowCreateVnf:             n.respondCreateVnf,
		FlowBuyPkg:                n.respondBuyPkg,
		FlowBuyVnf:                n.respondBuyVnf,
		FlowQueryPkgs:             n.respondQueryPkgs,
		FlowQueryVnfs:             n.respondQueryVnfs,
	}
}

func (n *Node) progress(flow, step string) {
	n.logger.WithFields(logrus.Fields{
		"node": n.Party().Name,
		"flow": flow,
		"step": step,
	}).Debug("flow progress")
}

// dial opens a session bounded by the configured session timeout. The
// returned context governs every exchange on the session.
func (n *Node) dial(ctx context.Context, counterparty models.Party, flow string) (transport.Session, context.Context, context.CancelFunc, error) {
	sctx, cancel := context.WithTimeout(ctx, n.sessionTimeout)
	session, err := n.dialer.Dial(sctx, counterparty, flow)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}
	return session, sctx, cancel, nil
}
