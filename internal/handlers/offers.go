// internal/handlers/offers.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

// OfferHandler exposes the developer-side ledger flows: fee agreements,
// package offer lifecycle and VNF onboarding.
type OfferHandler struct {
	node *flows.Node
}

func NewOfferHandler(node *flows.Node) *OfferHandler {
	return &OfferHandler{
		node: node,
	}
}

type establishFeeAgreementRequest struct {
	MaxAcceptableFee int `json:"max_acceptable_fee" validate:"min=0,max=100"`
}

type registerPkgRequest struct {
	Name        string                       `json:"name" validate:"required,not_blank"`
	Description string                       `json:"description" validate:"required,not_blank"`
	Version     string                       `json:"version" validate:"required,not_blank"`
	PkgInfoID   string                       `json:"pkg_info_id" validate:"required,not_blank"`
	ImageLink   string                       `json:"image_link" validate:"required,url"`
	PkgType     models.PkgType               `json:"pkg_type" validate:"required,pkg_type"`
	PoPrice     *models.ProductOfferingPrice `json:"po_price" validate:"required"`
}

type updatePkgRequest struct {
	Name        string                       `json:"name" validate:"required,not_blank"`
	Description string                       `json:"description" validate:"required,not_blank"`
	Version     string                       `json:"version" validate:"required,not_blank"`
	ImageLink   string                       `json:"image_link" validate:"required,url"`
	PoPrice     *models.ProductOfferingPrice `json:"po_price" validate:"required"`
}

type createVnfRequest struct {
	Name           string        `json:"name" validate:"required,not_blank"`
	Description    string        `json:"description" validate:"required,not_blank"`
	ServiceType    string        `json:"service_type" validate:"required,not_blank"`
	Version        string        `json:"version" validate:"required,not_blank"`
	Requirements   string        `json:"requirements" validate:"required,not_blank"`
	Resources      string        `json:"resources" validate:"required,not_blank"`
	ImageLink      string        `json:"image_link" validate:"required,url"`
	RepositoryLink string        `json:"repository_link" validate:"required,url"`
	Price          models.Amount `json:"price" validate:"required"`
}

// POST /fee-agreements
func (h *OfferHandler) EstablishFeeAgreement(c *gin.Context) {
	var req establishFeeAgreementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	stx, err := h.node.EstablishFeeAgreement(c.Request.Context(), req.MaxAcceptableFee)
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, txView(stx))
}

// POST /pkgs
func (h *OfferHandler) RegisterPkg(c *gin.Context) {
	var req registerPkgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	stx, err := h.node.RegisterPkg(c.Request.Context(), flows.RegisterPkgParams{
		Name:        req.Name,
		Description: req.Description,
		Version:     req.Version,
		PkgInfoID:   req.PkgInfoID,
		ImageLink:   req.ImageLink,
		PkgType:     req.PkgType,
		PoPrice:     req.PoPrice,
	})
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, txView(stx))
}

// PUT /pkgs/:id
func (h *OfferHandler) UpdatePkg(c *gin.Context) {
	linearID, ok := parseLinearID(c)
	if !ok {
		return
	}

	var req updatePkgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	stx, err := h.node.UpdatePkg(c.Request.Context(), flows.UpdatePkgParams{
		LinearID:    linearID,
		Name:        req.Name,
		Description: req.Description,
		Version:     req.Version,
		ImageLink:   req.ImageLink,
		PoPrice:     req.PoPrice,
	})
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, txView(stx))
}

// DELETE /pkgs/:id
func (h *OfferHandler) DeletePkg(c *gin.Context) {
	linearID, ok := parseLinearID(c)
	if !ok {
		return
	}

	stx, err := h.node.DeletePkg(c.Request.Context(), linearID)
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, txView(stx))
}

// POST /vnfs
func (h *OfferHandler) CreateVnf(c *gin.Context) {
	var req createVnfRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	stx, err := h.node.CreateVnf(c.Request.Context(), flows.CreateVnfParams{
		Name:           req.Name,
		Description:    req.Description,
		ServiceType:    req.ServiceType,
		Version:        req.Version,
		Requirements:   req.Requirements,
		Resources:      req.Resources,
		ImageLink:      req.ImageLink,
		RepositoryLink: req.RepositoryLink,
		Price:          req.Price,
	})
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, txView(stx))
}

func parseLinearID(c *gin.Context) (uuid.UUID, bool) {
	linearID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid linear ID", nil)
		return uuid.Nil, false
	}
	return linearID, true
}

func txView(stx *models.SignedTransaction) gin.H {
	return gin.H{
		"tx_id":   stx.Tx.ID,
		"command": stx.Tx.Command.CommandName(),
		"outputs": stx.Tx.Outputs,
	}
}
