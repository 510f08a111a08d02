// internal/handlers/node.go
package handlers

import (
	"encoding/hex"

	"github.com/gin-gonic/gin"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/flows"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

type NodeHandler struct {
	node *flows.Node
}

func NewNodeHandler(node *flows.Node) *NodeHandler {
	return &NodeHandler{
		node: node,
	}
}

// GET /health
func (h *NodeHandler) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status": "healthy",
		"node":   h.node.Party().Name,
	})
}

// GET /node/me
func (h *NodeHandler) Me(c *gin.Context) {
	utils.SuccessResponse(c, partyView(h.node.Party(), h.node.IsRepository()))
}

// GET /node/peers
func (h *NodeHandler) Peers(c *gin.Context) {
	peers := h.node.Peers()
	views := make([]gin.H, 0, len(peers))
	for _, p := range peers {
		views = append(views, partyView(p, false))
	}
	utils.SuccessResponse(c, gin.H{"peers": views})
}

func partyView(p models.Party, repository bool) gin.H {
	view := gin.H{
		"name":       p.Name,
		"public_key": hex.EncodeToString(p.PublicKey),
	}
	if repository {
		view["repository_node"] = true
	}
	return view
}
