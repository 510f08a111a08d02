package vault

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// Memory is an in-process vault used by tests and the single-binary local
// network. All reads see a point-in-time snapshot taken under the lock.
type Memory struct {
	mu         sync.RWMutex
	txs        map[uuid.UUID]*models.SignedTransaction
	unconsumed map[models.StateRef]models.StateAndRef
	consumed   map[models.StateRef]bool
}

func NewMemory() *Memory {
	return &Memory{
		txs:        make(map[uuid.UUID]*models.SignedTransaction),
		unconsumed: make(map[models.StateRef]models.StateAndRef),
		consumed:   make(map[models.StateRef]bool),
	}
}

func (m *Memory) Persist(stx *models.SignedTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, seen := m.txs[stx.Tx.ID]; seen {
		return nil
	}
	stored, err := cloneSignedTx(stx)
	if err != nil {
		return fmt.Errorf("failed to store transaction %s: %w", stx.Tx.ID, err)
	}
	m.txs[stored.Tx.ID] = stored

	for _, in := range stored.Tx.Inputs {
		delete(m.unconsumed, in.Ref)
		m.consumed[in.Ref] = true
	}
	for i, out := range stored.Tx.Outputs {
		ref := stored.Tx.OutputRef(i)
		if m.consumed[ref] {
			continue
		}
		m.unconsumed[ref] = models.StateAndRef{Ref: ref, State: out}
	}
	return nil
}

func (m *Memory) ResolveByID(kind string, linearID uuid.UUID) (models.StateAndRef, error) {
	results, err := m.QueryUnconsumed(kind, Filter{LinearID: &linearID})
	if err != nil {
		return models.StateAndRef{}, err
	}
	if len(results) == 0 {
		return models.StateAndRef{}, ErrNotFound
	}
	return results[0], nil
}

func (m *Memory) QueryUnconsumed(kind string, filter Filter) ([]models.StateAndRef, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var results []models.StateAndRef
	for _, sr := range m.unconsumed {
		if sr.State.Kind() != kind {
			continue
		}
		if !filter.matches(sr.State) {
			continue
		}
		copied, err := cloneStateAndRef(sr)
		if err != nil {
			return nil, err
		}
		results = append(results, copied)
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Ref.String() < results[j].Ref.String()
	})
	return results, nil
}

func (m *Memory) Transaction(id uuid.UUID) (*models.SignedTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stx, ok := m.txs[id]
	if !ok {
		return nil, ErrTxNotFound
	}
	return cloneSignedTx(stx)
}

// cloneStateAndRef deep-copies a single state on the read path, keeping
// resolved states isolated from the vault's index.
func cloneStateAndRef(sr models.StateAndRef) (models.StateAndRef, error) {
	b, err := models.MarshalState(sr.State)
	if err != nil {
		return models.StateAndRef{}, err
	}
	state, err := models.UnmarshalState(b)
	if err != nil {
		return models.StateAndRef{}, err
	}
	return models.StateAndRef{Ref: sr.Ref, State: state}, nil
}

// cloneSignedTx deep-copies through the wire encoding so callers can never
// mutate stored state through shared pointers.
func cloneSignedTx(stx *models.SignedTransaction) (*models.SignedTransaction, error) {
	b, err := json.Marshal(stx)
	if err != nil {
		return nil, err
	}
	var out models.SignedTransaction
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
