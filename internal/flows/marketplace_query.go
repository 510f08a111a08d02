package flows

import (
	"context"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
)

const (
	msgQueryFilter = "query-filter"
	msgQueryResult = "query-result"
)

// marketplaceQuery is the wire form of a catalog lookup. A set LinearID
// asks for exactly that listing; otherwise Filter narrows the full scan.
type marketplaceQuery struct {
	LinearID *uuid.UUID        `json:"linear_id,omitempty"`
	Filter   MarketplaceFilter `json:"filter"`
}

// MarketplacePkgs lists the package offers on sale at the repository node.
// The repository answers from its own vault; everyone else asks over a
// session.
func (n *Node) MarketplacePkgs(ctx context.Context, filter MarketplaceFilter) ([]*models.PkgOfferState, error) {
	if n.IsRepository() {
		return n.Pkgs(filter)
	}
	var offers []*models.PkgOfferState
	if err := n.queryRepository(ctx, FlowQueryPkgs, marketplaceQuery{Filter: filter}, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// MarketplacePkg fetches a single listing by linear id from the repository
// node.
func (n *Node) MarketplacePkg(ctx context.Context, linearID uuid.UUID) (*models.PkgOfferState, error) {
	if n.IsRepository() {
		return n.Pkg(linearID)
	}
	var offers []*models.PkgOfferState
	if err := n.queryRepository(ctx, FlowQueryPkgs, marketplaceQuery{LinearID: &linearID}, &offers); err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, &NotFoundError{Kind: models.KindPkgOffer, LinearID: linearID}
	}
	return offers[0], nil
}

// MarketplaceVnfs lists the VNF descriptors on sale at the repository node.
func (n *Node) MarketplaceVnfs(ctx context.Context, filter MarketplaceFilter) ([]*models.VnfState, error) {
	if n.IsRepository() {
		return n.Vnfs(filter)
	}
	var vnfs []*models.VnfState
	if err := n.queryRepository(ctx, FlowQueryVnfs, marketplaceQuery{Filter: filter}, &vnfs); err != nil {
		return nil, err
	}
	return vnfs, nil
}

// MarketplaceVnf fetches a single VNF descriptor by linear id from the
// repository node.
func (n *Node) MarketplaceVnf(ctx context.Context, linearID uuid.UUID) (*models.VnfState, error) {
	if n.IsRepository() {
		return n.Vnf(linearID)
	}
	var vnfs []*models.VnfState
	if err := n.queryRepository(ctx, FlowQueryVnfs, marketplaceQuery{LinearID: &linearID}, &vnfs); err != nil {
		return nil, err
	}
	if len(vnfs) == 0 {
		return nil, &NotFoundError{Kind: models.KindVnf, LinearID: linearID}
	}
	return vnfs[0], nil
}

func (n *Node) queryRepository(ctx context.Context, flow string, query marketplaceQuery, into interface{}) error {
	repo, err := n.repository()
	if err != nil {
		return err
	}

	session, sctx, cancel, err := n.dial(ctx, repo, flow)
	if err != nil {
		return err
	}
	defer cancel()
	defer session.Close()

	if err := session.Send(sctx, msgQueryFilter, query); err != nil {
		return err
	}
	return session.Receive(sctx, msgQueryResult, into)
}

func (n *Node) respondQueryPkgs(ctx context.Context, session transport.Session) error {
	var query marketplaceQuery
	if err := session.Receive(ctx, msgQueryFilter, &query); err != nil {
		return err
	}

	var offers []*models.PkgOfferState
	if query.LinearID != nil {
		offer, err := n.Pkg(*query.LinearID)
		if err != nil {
			if _, notFound := err.(*NotFoundError); notFound {
				return session.Send(ctx, msgQueryResult, []*models.PkgOfferState{})
			}
			session.Reject(ctx, "query failed")
			return err
		}
		offers = []*models.PkgOfferState{offer}
	} else {
		var err error
		offers, err = n.Pkgs(query.Filter)
		if err != nil {
			session.Reject(ctx, "query failed")
			return err
		}
	}
	return session.Send(ctx, msgQueryResult, offers)
}

func (n *Node) respondQueryVnfs(ctx context.Context, session transport.Session) error {
	var query marketplaceQuery
	if err := session.Receive(ctx, msgQueryFilter, &query); err != nil {
		return err
	}

	var vnfs []*models.VnfState
	if query.LinearID != nil {
		vnf, err := n.Vnf(*query.LinearID)
		if err != nil {
			if _, notFound := err.(*NotFoundError); notFound {
				return session.Send(ctx, msgQueryResult, []*models.VnfState{})
			}
			session.Reject(ctx, "query failed")
			return err
		}
		vnfs = []*models.VnfState{vnf}
	} else {
		var err error
		vnfs, err = n.Vnfs(query.Filter)
		if err != nil {
			session.Reject(ctx, "query failed")
			return err
		}
	}
	return session.Send(ctx, msgQueryResult, vnfs)
}
