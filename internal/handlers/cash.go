// internal/handlers/cash.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/onramp"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

// CashHandler covers the money side of the node: balances, fee agreements,
// the Stripe onramp and a development-only faucet.
type CashHandler struct {
	node   *flows.Node
	onramp *onramp.Service
	config *config.Config
}

func NewCashHandler(node *flows.Node, onrampService *onramp.Service, cfg *config.Config) *CashHandler {
	return &CashHandler{
		node:   node,
		onramp: onrampService,
		config: cfg,
	}
}

type selfIssueRequest struct {
	Quantity int64  `json:"quantity" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,len=3"`
}

// GET /cash/balance
func (h *CashHandler) GetBalance(c *gin.Context) {
	currency := c.Query("currency")
	if currency == "" {
		currency = h.config.Payment.DefaultCurrency
	}

	balance, err := h.node.CashBalance(currency)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, balance)
}

// POST /cash/self-issue
//
// Only available outside production; real deployments fund wallets through
// the Stripe onramp.
func (h *CashHandler) SelfIssue(c *gin.Context) {
	if h.config.Environment == "production" {
		utils.NotFoundResponse(c, "Not available in production")
		return
	}

	var req selfIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	amount := models.Amount{Quantity: req.Quantity, Currency: req.Currency}
	stx, err := h.node.SelfIssueCash(c.Request.Context(), amount, "faucet")
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, txView(stx))
}

// GET /fee-agreements
func (h *CashHandler) GetFeeAgreements(c *gin.Context) {
	agreements, err := h.node.FeeAgreements()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{"fee_agreements": agreements})
}

// POST /payments/intent
func (h *CashHandler) CreatePaymentIntent(c *gin.Context) {
	var req onramp.CreatePaymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	response, err := h.onramp.CreatePaymentIntent(&req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.SuccessResponse(c, response)
}

// POST /payments/confirm
func (h *CashHandler) ConfirmPayment(c *gin.Context) {
	var req onramp.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	stx, err := h.onramp.ConfirmPayment(c.Request.Context(), &req)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, txView(stx))
}
