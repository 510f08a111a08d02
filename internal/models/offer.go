package models

import (
	"math"

	"github.com/google/uuid"
)

type PkgType string

const (
	PkgTypeVNF PkgType = "VNF"
	PkgTypePNF PkgType = "PNF"
)

// Money is a TMF-style monetary value: a float amount in a currency unit.
type Money struct {
	Unit  string  `json:"unit"`
	Value float64 `json:"value"`
}

type Quantity struct {
	Amount float64 `json:"amount"`
	Units  string  `json:"units"`
}

type TimePeriod struct {
	StartDateTime string `json:"start_date_time"`
	EndDateTime   string `json:"end_date_time"`
}

// ProductOfferingPrice describes how a package offer is priced, following
// the TMF620 product offering price shape used by the marketplace catalog.
type ProductOfferingPrice struct {
	PoID                        string     `json:"po_id"`
	IsBundle                    bool       `json:"is_bundle"`
	LastUpdate                  string     `json:"last_update"`
	LifecycleStatus             string     `json:"lifecycle_status"`
	PoName                      string     `json:"po_name"`
	Percentage                  float64    `json:"percentage"`
	PriceType                   string     `json:"price_type"`
	RecurringChargePeriodLength int        `json:"recurring_charge_period_length"`
	RecurringChargePeriodType   string     `json:"recurring_charge_period_type"`
	Price                       Money      `json:"price"`
	UnitOfMeasure               Quantity   `json:"unit_of_measure"`
	ValidFor                    TimePeriod `json:"valid_for"`
}

// Amount converts the offering price to minor units, rounding half to even
// on the cent boundary.
func (p *ProductOfferingPrice) Amount() Amount {
	return Amount{
		Quantity: toMinorUnits(p.Price.Value),
		Currency: p.Price.Unit,
	}
}

func toMinorUnits(value float64) int64 {
	scaled := value * 100
	floor := math.Floor(scaled)
	diff := scaled - floor
	switch {
	case diff > 0.5:
		return int64(floor) + 1
	case diff < 0.5:
		return int64(floor)
	default:
		if int64(floor)%2 == 0 {
			return int64(floor)
		}
		return int64(floor) + 1
	}
}

// PkgOfferState is a purchasable package descriptor registered by an author
// and hosted by the repository node. The linear id stays stable across
// updates; each update consumes the prior version and produces a new one.
type PkgOfferState struct {
	LinearID       uuid.UUID             `json:"linear_id"`
	Name           string                `json:"name"`
	Description    string                `json:"description"`
	Version        string                `json:"version"`
	PkgInfoID      string                `json:"pkg_info_id"`
	ImageLink      string                `json:"image_link"`
	PkgType        PkgType               `json:"pkg_type"`
	PoPrice        *ProductOfferingPrice `json:"po_price"`
	Author         Party                 `json:"author"`
	RepositoryNode Party                 `json:"repository_node"`
}

func (s *PkgOfferState) Kind() string { return KindPkgOffer }

func (s *PkgOfferState) Participants() []Party {
	return []Party{s.Author, s.RepositoryNode}
}

// Price is the package price in minor units.
func (s *PkgOfferState) Price() Amount {
	if s.PoPrice == nil {
		return Amount{}
	}
	return s.PoPrice.Amount()
}
