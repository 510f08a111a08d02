// internal/handlers/artifacts.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/artifacts"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/models"
	"github.com/Mike-no/Trusted-VNF-Repository-sub000/internal/utils"
)

// ArtifactHandler uploads archives and images backing marketplace listings.
// The returned URL is what goes into an offer's repository or image link;
// the ledger pins archives by digest, not by bytes.
type ArtifactHandler struct {
	store *artifacts.Store
}

func NewArtifactHandler(store *artifacts.Store) *ArtifactHandler {
	return &ArtifactHandler{
		store: store,
	}
}

// POST /artifacts/archives
func (h *ArtifactHandler) UploadArchive(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", err.Error())
		return
	}
	defer file.Close()

	result, err := h.store.Upload(file, header, artifacts.ArchiveUploadOptions())
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"upload":          result,
		"repository_hash": models.RepositoryDigest(result.URL),
	})
}

// POST /artifacts/images
func (h *ArtifactHandler) UploadImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "No file provided", err.Error())
		return
	}
	defer file.Close()

	result, err := h.store.Upload(file, header, artifacts.ImageUploadOptions())
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /artifacts/download-url
func (h *ArtifactHandler) GetDownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		utils.BadRequestResponse(c, "Missing key parameter", nil)
		return
	}

	url, err := h.store.PresignedURL(key, 15*time.Minute)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"download_url": url,
		"expires_in":   int(15 * time.Minute / time.Second),
	})
}
