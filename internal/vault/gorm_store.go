package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// StateRecord is one ledger state with its query attributes denormalized
// into columns. The full state travels in the payload envelope; the columns
// exist only so filters run in SQL instead of in Go.
type StateRecord struct {
	ID           uint      `gorm:"primaryKey"`
	TxID         string    `gorm:"size:36;uniqueIndex:idx_state_ref"`
	OutputIndex  int       `gorm:"uniqueIndex:idx_state_ref"`
	Kind         string    `gorm:"size:32;index"`
	LinearID     string    `gorm:"size:36;index"`
	Name         string    `gorm:"size:255"`
	Description  string    `gorm:"type:text"`
	Version      string    `gorm:"size:64"`
	Price        int64     `gorm:""`
	Currency     string    `gorm:"size:8"`
	Owner        string    `gorm:"size:255;index"`
	Participants string    `gorm:"type:text"`
	Consumed     bool      `gorm:"index"`
	Payload      []byte    `gorm:"type:bytea"`
	CreatedAt    time.Time `gorm:""`
}

// TransactionRecord stores a finalized signed transaction verbatim.
type TransactionRecord struct {
	TxID      string    `gorm:"primaryKey;size:36"`
	Payload   []byte    `gorm:"type:bytea"`
	CreatedAt time.Time `gorm:""`
}

// GormStore is the postgres-backed vault.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&TransactionRecord{}, &StateRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate vault schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (g *GormStore) Persist(stx *models.SignedTransaction) error {
	txPayload, err := encodeSignedTx(stx)
	if err != nil {
		return fmt.Errorf("failed to encode transaction %s: %w", stx.Tx.ID, err)
	}

	return g.db.Transaction(func(dbtx *gorm.DB) error {
		var existing TransactionRecord
		err := dbtx.Where("tx_id = ?", stx.Tx.ID.String()).First(&existing).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		record := TransactionRecord{TxID: stx.Tx.ID.String(), Payload: txPayload}
		if err := dbtx.Create(&record).Error; err != nil {
			return err
		}

		for _, in := range stx.Tx.Inputs {
			res := dbtx.Model(&StateRecord{}).
				Where("tx_id = ? AND output_index = ?", in.Ref.TxID.String(), in.Ref.Index).
				Update("consumed", true)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				// The producing transaction has not been persisted here yet.
				// Leave a consumed marker so the output arrives already spent
				// instead of resurrecting as unconsumed.
				tombstone := StateRecord{
					TxID:        in.Ref.TxID.String(),
					OutputIndex: in.Ref.Index,
					Consumed:    true,
				}
				if err := dbtx.Create(&tombstone).Error; err != nil {
					return err
				}
			}
		}

		for i, out := range stx.Tx.Outputs {
			ref := stx.Tx.OutputRef(i)
			var marked int64
			err := dbtx.Model(&StateRecord{}).
				Where("tx_id = ? AND output_index = ?", ref.TxID.String(), ref.Index).
				Count(&marked).Error
			if err != nil {
				return err
			}
			if marked > 0 {
				continue
			}
			stateRecord, err := newStateRecord(ref, out)
			if err != nil {
				return err
			}
			if err := dbtx.Create(stateRecord).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *GormStore) ResolveByID(kind string, linearID uuid.UUID) (models.StateAndRef, error) {
	results, err := g.QueryUnconsumed(kind, Filter{LinearID: &linearID})
	if err != nil {
		return models.StateAndRef{}, err
	}
	if len(results) == 0 {
		return models.StateAndRef{}, ErrNotFound
	}
	return results[0], nil
}

const queryPageSize = 200

func (g *GormStore) QueryUnconsumed(kind string, filter Filter) ([]models.StateAndRef, error) {
	query := g.db.Model(&StateRecord{}).Where("kind = ? AND consumed = ?", kind, false)

	if filter.LinearID != nil {
		query = query.Where("linear_id = ?", filter.LinearID.String())
	}
	if filter.NameContains != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(filter.NameContains)+"%")
	}
	if filter.DescriptionContains != "" {
		query = query.Where("LOWER(description) LIKE ?", "%"+strings.ToLower(filter.DescriptionContains)+"%")
	}
	if filter.Version != "" {
		query = query.Where("version = ?", filter.Version)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Currency != "" {
		query = query.Where("currency = ?", filter.Currency)
	}
	if filter.Owner != nil {
		query = query.Where("owner = ?", filter.Owner.Name)
	}
	if filter.Participant != nil {
		query = query.Where("participants LIKE ?", "%|"+filter.Participant.Name+"|%")
	}

	// Page through to exhaustion so callers always get the complete result
	// set regardless of its size.
	var results []models.StateAndRef
	for offset := 0; ; offset += queryPageSize {
		var records []StateRecord
		err := query.Session(&gorm.Session{}).
			Order("tx_id, output_index").
			Limit(queryPageSize).
			Offset(offset).
			Find(&records).Error
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			sr, err := record.stateAndRef()
			if err != nil {
				return nil, err
			}
			// The name columns match on the party name alone, so
			// re-check key equality on the decoded state.
			if (filter.Owner != nil || filter.Participant != nil) && !filter.matches(sr.State) {
				continue
			}
			results = append(results, sr)
		}
		if len(records) < queryPageSize {
			break
		}
	}
	return results, nil
}

func (g *GormStore) Transaction(id uuid.UUID) (*models.SignedTransaction, error) {
	var record TransactionRecord
	err := g.db.Where("tx_id = ?", id.String()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTxNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeSignedTx(record.Payload)
}

func encodeSignedTx(stx *models.SignedTransaction) ([]byte, error) {
	return json.Marshal(stx)
}

func decodeSignedTx(payload []byte) (*models.SignedTransaction, error) {
	var stx models.SignedTransaction
	if err := json.Unmarshal(payload, &stx); err != nil {
		return nil, err
	}
	return &stx, nil
}

func newStateRecord(ref models.StateRef, state models.State) (*StateRecord, error) {
	payload, err := models.MarshalState(state)
	if err != nil {
		return nil, err
	}
	attrs := attributesOf(state)

	names := make([]string, 0, 2)
	for _, p := range state.Participants() {
		names = append(names, p.Name)
	}

	record := &StateRecord{
		TxID:         ref.TxID.String(),
		OutputIndex:  ref.Index,
		Kind:         state.Kind(),
		Name:         attrs.Name,
		Description:  attrs.Description,
		Version:      attrs.Version,
		Price:        attrs.Price,
		Currency:     attrs.Currency,
		Participants: "|" + strings.Join(names, "|") + "|",
		Payload:      payload,
	}
	if attrs.HasLinearID {
		record.LinearID = attrs.LinearID.String()
	}
	if attrs.HasOwner {
		record.Owner = attrs.Owner.Name
	}
	return record, nil
}

func (r *StateRecord) stateAndRef() (models.StateAndRef, error) {
	txID, err := uuid.Parse(r.TxID)
	if err != nil {
		return models.StateAndRef{}, fmt.Errorf("corrupt state record %d: %w", r.ID, err)
	}
	state, err := models.UnmarshalState(r.Payload)
	if err != nil {
		return models.StateAndRef{}, fmt.Errorf("corrupt state record %d: %w", r.ID, err)
	}
	return models.StateAndRef{
		Ref:   models.StateRef{TxID: txID, Index: r.OutputIndex},
		State: state,
	}, nil
}
