package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Command declares the intent of a transaction. The set of commands is
// closed: validators switch over the concrete types and anything else is
// rejected before reaching them.
type Command interface {
	CommandName() string
}

type RegisterPkg struct{}
type UpdatePkg struct{}
type DeletePkg struct{}
type CreateVnf struct{}
type BuyPkg struct{}
type BuyVnf struct{}
type EstablishFeeAgreement struct{}
type IssueCash struct{}
type TransferCash struct{}

func (RegisterPkg) CommandName() string           { return "RegisterPkg" }
func (UpdatePkg) CommandName() string             { return "UpdatePkg" }
func (DeletePkg) CommandName() string             { return "DeletePkg" }
func (CreateVnf) CommandName() string             { return "CreateVnf" }
func (BuyPkg) CommandName() string                { return "BuyPkg" }
func (BuyVnf) CommandName() string                { return "BuyVnf" }
func (EstablishFeeAgreement) CommandName() string { return "EstablishFeeAgreement" }
func (IssueCash) CommandName() string             { return "IssueCash" }
func (TransferCash) CommandName() string          { return "TransferCash" }

func commandByName(name string) (Command, error) {
	switch name {
	case "RegisterPkg":
		return RegisterPkg{}, nil
	case "UpdatePkg":
		return UpdatePkg{}, nil
	case "DeletePkg":
		return DeletePkg{}, nil
	case "CreateVnf":
		return CreateVnf{}, nil
	case "BuyPkg":
		return BuyPkg{}, nil
	case "BuyVnf":
		return BuyVnf{}, nil
	case "EstablishFeeAgreement":
		return EstablishFeeAgreement{}, nil
	case "IssueCash":
		return IssueCash{}, nil
	case "TransferCash":
		return TransferCash{}, nil
	default:
		return nil, fmt.Errorf("unknown command: %q", name)
	}
}

// Transaction is a proposed state transition: consumed prior states,
// produced states and the parties that must sign for the command.
type Transaction struct {
	ID      uuid.UUID
	Command Command
	Signers []Party
	Inputs  []StateAndRef
	Outputs []State
}

type transactionWire struct {
	ID      uuid.UUID         `json:"id"`
	Command string            `json:"command"`
	Signers []Party           `json:"signers"`
	Inputs  []StateAndRef     `json:"inputs"`
	Outputs []json.RawMessage `json:"outputs"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	outputs := make([]json.RawMessage, 0, len(t.Outputs))
	for _, out := range t.Outputs {
		b, err := MarshalState(out)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, b)
	}
	return json.Marshal(transactionWire{
		ID:      t.ID,
		Command: t.Command.CommandName(),
		Signers: t.Signers,
		Inputs:  t.Inputs,
		Outputs: outputs,
	})
}

func (t *Transaction) UnmarshalJSON(b []byte) error {
	var wire transactionWire
	if err := json.Unmarshal(b, &wire); err != nil {
		return err
	}
	command, err := commandByName(wire.Command)
	if err != nil {
		return err
	}
	outputs := make([]State, 0, len(wire.Outputs))
	for _, raw := range wire.Outputs {
		state, err := UnmarshalState(raw)
		if err != nil {
			return err
		}
		outputs = append(outputs, state)
	}
	t.ID = wire.ID
	t.Command = command
	t.Signers = wire.Signers
	t.Inputs = wire.Inputs
	t.Outputs = outputs
	return nil
}

// OutputRef returns the ledger reference of the i-th output.
func (t *Transaction) OutputRef(i int) StateRef {
	return StateRef{TxID: t.ID, Index: i}
}

// Participants returns the union of participants across every output and
// consumed input, without duplicates. The finalized transaction is
// distributed to each of them.
func (t *Transaction) Participants() []Party {
	var participants []Party
	add := func(p Party) {
		for _, existing := range participants {
			if existing.Equal(p) {
				return
			}
		}
		participants = append(participants, p)
	}
	for _, out := range t.Outputs {
		for _, p := range out.Participants() {
			add(p)
		}
	}
	for _, in := range t.Inputs {
		for _, p := range in.State.Participants() {
			add(p)
		}
	}
	return participants
}

// HasSigner reports whether the given party is declared as a signer.
func (t *Transaction) HasSigner(p Party) bool {
	for _, signer := range t.Signers {
		if signer.Equal(p) {
			return true
		}
	}
	return false
}

// Signature is one party's ed25519 signature over the transaction's
// canonical bytes.
type Signature struct {
	Party Party  `json:"party"`
	Bytes []byte `json:"bytes"`
}

// SignedTransaction carries a transaction together with the signatures
// collected so far.
type SignedTransaction struct {
	Tx         Transaction `json:"tx"`
	Signatures []Signature `json:"signatures"`
}

// AddSignature appends a signature, replacing any previous one by the
// same party.
func (stx *SignedTransaction) AddSignature(sig Signature) {
	for i, existing := range stx.Signatures {
		if existing.Party.Equal(sig.Party) {
			stx.Signatures[i] = sig
			return
		}
	}
	stx.Signatures = append(stx.Signatures, sig)
}

// SignatureOf returns the signature of the given party, if present.
func (stx *SignedTransaction) SignatureOf(p Party) (Signature, bool) {
	for _, sig := range stx.Signatures {
		if sig.Party.Equal(p) {
			return sig, true
		}
	}
	return Signature{}, false
}
