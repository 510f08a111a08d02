// internal/handlers/marketplace.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

// MarketplaceHandler serves the catalog queries and the two purchase flows.
type MarketplaceHandler struct {
	node *flows.Node
}

func NewMarketplaceHandler(node *flows.Node) *MarketplaceHandler {
	return &MarketplaceHandler{
		node: node,
	}
}

type buyRequest struct {
	ExpectedPrice *models.Amount `json:"expected_price,omitempty"`
}

// GET /marketplace/pkgs
func (h *MarketplaceHandler) GetPkgs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := marketplaceFilter(c)

	offers, err := h.node.MarketplacePkgs(c.Request.Context(), filter)
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.PaginateSlice(offers, params))
}

// GET /marketplace/pkgs/:id
func (h *MarketplaceHandler) GetPkg(c *gin.Context) {
	linearID, ok := parseLinearID(c)
	if !ok {
		return
	}

	offer, err := h.node.MarketplacePkg(c.Request.Context(), linearID)
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, offer)
}

// GET /marketplace/vnfs
func (h *MarketplaceHandler) GetVnfs(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := marketplaceFilter(c)

	vnfs, err := h.node.MarketplaceVnfs(c.Request.Context(), filter)
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.PaginatedResponse(c, utils.PaginateSlice(vnfs, params))
}

// GET /marketplace/vnfs/:id
func (h *MarketplaceHandler) GetVnf(c *gin.Context) {
	linearID, ok := parseLinearID(c)
	if !ok {
		return
	}

	vnf, err := h.node.MarketplaceVnf(c.Request.Context(), linearID)
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.SuccessResponse(c, vnf)
}

// POST /marketplace/pkgs/:id/buy
func (h *MarketplaceHandler) BuyPkg(c *gin.Context) {
	linearID, ok := parseLinearID(c)
	if !ok {
		return
	}

	var req buyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid input", err.Error())
			return
		}
	}

	stx, err := h.node.BuyPkg(c.Request.Context(), flows.BuyPkgParams{
		LinearID:      linearID,
		ExpectedPrice: req.ExpectedPrice,
	})
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, txView(stx))
}

// POST /marketplace/vnfs/:id/buy
func (h *MarketplaceHandler) BuyVnf(c *gin.Context) {
	linearID, ok := parseLinearID(c)
	if !ok {
		return
	}

	var req buyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequestResponse(c, "Invalid input", err.Error())
			return
		}
	}

	stx, err := h.node.BuyVnf(c.Request.Context(), flows.BuyVnfParams{
		LinearID:      linearID,
		ExpectedPrice: req.ExpectedPrice,
	})
	if err != nil {
		flowErrorResponse(c, err)
		return
	}

	utils.CreatedResponse(c, txView(stx))
}

// GET /licenses/pkgs
func (h *MarketplaceHandler) GetPkgLicenses(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	licenses, err := h.node.PkgLicenses()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.PaginateSlice(licenses, params))
}

// GET /licenses/vnfs
func (h *MarketplaceHandler) GetVnfLicenses(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	licenses, err := h.node.VnfLicenses()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.PaginatedResponse(c, utils.PaginateSlice(licenses, params))
}

func marketplaceFilter(c *gin.Context) flows.MarketplaceFilter {
	filter := flows.MarketplaceFilter{
		NameContains:        c.Query("name"),
		DescriptionContains: c.Query("description"),
		Version:             c.Query("version"),
		Currency:            c.Query("currency"),
	}

	if maxPriceStr := c.Query("max_price"); maxPriceStr != "" {
		if maxPrice, err := strconv.ParseInt(maxPriceStr, 10, 64); err == nil {
			filter.MaxPrice = &maxPrice
		}
	}

	return filter
}
