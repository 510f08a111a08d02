// internal/handlers/auth.go
package handlers

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/config"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

type AuthHandler struct {
	config *config.Config
}

func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		config: cfg,
	}
}

type loginRequest struct {
	Operator string `json:"operator" validate:"required,not_blank"`
	Password string `json:"password" validate:"required"`
}

// POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	if h.config.JWT.OperatorPassword == "" {
		utils.UnauthorizedResponse(c, "Operator login is not configured on this node")
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.Password), []byte(h.config.JWT.OperatorPassword)) != 1 {
		utils.UnauthorizedResponse(c, "Invalid credentials")
		return
	}

	token, err := utils.GenerateJWT(req.Operator, h.config.Node.Name, h.config.JWT.AccessTokenTTL)
	if err != nil {
		utils.InternalErrorResponse(c, "Failed to generate token")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"token":      token,
		"token_type": "Bearer",
		"expires_in": h.config.JWT.AccessTokenTTL * 3600,
		"operator":   req.Operator,
	})
}
