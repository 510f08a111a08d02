package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Party identifies a marketplace participant by name and signing key.
type Party struct {
	Name      string `json:"name"`
	PublicKey []byte `json:"public_key"`
}

func (p Party) Equal(other Party) bool {
	return p.Name == other.Name && bytes.Equal(p.PublicKey, other.PublicKey)
}

func (p Party) IsZero() bool {
	return p.Name == "" && len(p.PublicKey) == 0
}

func (p Party) String() string {
	return p.Name
}

// Amount is a monetary value in minor units (cents) of a currency.
type Amount struct {
	Quantity int64  `json:"quantity"`
	Currency string `json:"currency"`
}

func (a Amount) Equal(other Amount) bool {
	return a.Quantity == other.Quantity && a.Currency == other.Currency
}

func (a Amount) IsZero() bool {
	return a.Quantity == 0 && a.Currency == ""
}

func (a Amount) String() string {
	return fmt.Sprintf("%d.%02d %s", a.Quantity/100, a.Quantity%100, a.Currency)
}

// State is a single immutable fact on the ledger. Every state lists the
// participants that receive and store a copy once it is finalized.
type State interface {
	Kind() string
	Participants() []Party
}

// State kinds, used for vault queries and wire envelopes.
const (
	KindPkgOffer     = "pkg-offer"
	KindVnf          = "vnf"
	KindPkgLicense   = "pkg-license"
	KindVnfLicense   = "vnf-license"
	KindFeeAgreement = "fee-agreement"
	KindCash         = "cash"
)

type stateEnvelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalState wraps a state in a typed envelope so it can cross the wire
// or live in the vault without losing its concrete type.
func MarshalState(s State) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s state: %w", s.Kind(), err)
	}
	return json.Marshal(stateEnvelope{Kind: s.Kind(), Data: data})
}

// UnmarshalState is the inverse of MarshalState.
func UnmarshalState(b []byte) (State, error) {
	var env stateEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state envelope: %w", err)
	}

	var s State
	switch env.Kind {
	case KindPkgOffer:
		s = &PkgOfferState{}
	case KindVnf:
		s = &VnfState{}
	case KindPkgLicense:
		s = &PkgLicenseState{}
	case KindVnfLicense:
		s = &VnfLicenseState{}
	case KindFeeAgreement:
		s = &FeeAgreementState{}
	case KindCash:
		s = &CashState{}
	default:
		return nil, fmt.Errorf("unknown state kind: %q", env.Kind)
	}

	if err := json.Unmarshal(env.Data, s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s state: %w", env.Kind, err)
	}
	return s, nil
}

// StateRef points at one output of a finalized transaction.
type StateRef struct {
	TxID  uuid.UUID `json:"tx_id"`
	Index int       `json:"index"`
}

func (r StateRef) Equal(other StateRef) bool {
	return r.TxID == other.TxID && r.Index == other.Index
}

func (r StateRef) String() string {
	return fmt.Sprintf("%s[%d]", r.TxID, r.Index)
}

// StateAndRef pairs a state with the ledger position it was produced at.
// Consuming a state means consuming it by this exact prior version.
type StateAndRef struct {
	Ref   StateRef
	State State
}

type stateAndRefWire struct {
	Ref   StateRef        `json:"ref"`
	State json.RawMessage `json:"state"`
}

func (sr StateAndRef) MarshalJSON() ([]byte, error) {
	stateBytes, err := MarshalState(sr.State)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stateAndRefWire{Ref: sr.Ref, State: stateBytes})
}

func (sr *StateAndRef) UnmarshalJSON(b []byte) error {
	var wire stateAndRefWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	state, err := UnmarshalState(wire.State)
	if err != nil {
		return err
	}
	sr.Ref = wire.Ref
	sr.State = state
	return nil
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}
