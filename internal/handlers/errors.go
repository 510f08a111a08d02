// internal/handlers/errors.go
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/cash"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/contracts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/notary"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/transport"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

// flowErrorResponse maps the error types surfaced by ledger flows onto HTTP
// status codes. Anything unrecognized is treated as an internal failure.
func flowErrorResponse(c *gin.Context, err error) {
	var (
		notFound      *flows.NotFoundError
		conflicting   *flows.ConflictingAgreementError
		feeTooHigh    *flows.FeeTooHighError
		priceMismatch *flows.PriceMismatchError
		insufficient  *cash.InsufficientFundsError
		rejected      *transport.RejectedError
		violation     *contracts.Violation
		doubleSpend   *notary.DoubleSpendError
	)

	switch {
	case errors.As(err, &notFound):
		utils.NotFoundResponse(c, err.Error())
	case errors.As(err, &insufficient):
		utils.PaymentRequiredResponse(c, err.Error())
	case errors.As(err, &conflicting), errors.As(err, &priceMismatch), errors.As(err, &doubleSpend):
		utils.ConflictResponse(c, err.Error())
	case errors.As(err, &feeTooHigh):
		utils.ConflictResponse(c, err.Error())
	case errors.As(err, &violation):
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.As(err, &rejected):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, transport.ErrSessionClosed):
		utils.ErrorResponse(c, http.StatusGatewayTimeout, "FLOW_TIMEOUT", "The counterparty did not answer in time", nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}
