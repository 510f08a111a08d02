package flows

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
)

// NotFoundError reports a linear id that resolves to no unconsumed state.
type NotFoundError struct {
	Kind     string
	LinearID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no unconsumed %s state with linear id %s", e.Kind, e.LinearID)
}

// ConflictingAgreementError reports an attempt to establish a second fee
// agreement between the same developer and repository node.
type ConflictingAgreementError struct {
	Developer      string
	RepositoryNode string
}

func (e *ConflictingAgreementError) Error() string {
	return fmt.Sprintf("a fee agreement between %s and %s already exists", e.Developer, e.RepositoryNode)
}

// FeeTooHighError reports a proposed fee above what the developer declared
// acceptable.
type FeeTooHighError struct {
	Proposed      int
	MaxAcceptable int
}

func (e *FeeTooHighError) Error() string {
	return fmt.Sprintf("proposed fee of %d%% exceeds the acceptable maximum of %d%%", e.Proposed, e.MaxAcceptable)
}

// PriceMismatchError reports a live offer price diverging from the price
// the buyer agreed to pay.
type PriceMismatchError struct {
	Expected models.Amount
	Actual   models.Amount
}

func (e *PriceMismatchError) Error() string {
	return fmt.Sprintf("offer price is %s, expected %s", e.Actual, e.Expected)
}
