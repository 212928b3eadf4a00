package http

import (
	"image"
	"net/http"

	"github.com/gin-gonic/gin"

	apihttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/service"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

type previewTraitReq struct {
	ImageData string `json:"imageData"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
}

type previewReq struct {
	BaseImage string            `json:"baseImage"`
	Traits    []previewTraitReq `json:"traits"`
}

// preview composites inline images and answers with a PNG data URL.
// Nothing is persisted.
func (h *Handler) preview(c *gin.Context) {
	var req previewReq
	if err := c.ShouldBindJSON(&req); err != nil || req.BaseImage == "" || req.Traits == nil {
		apihttp.BadRequest(c, "baseImage and traits are required")
		return
	}

	traits := make([]service.PreviewTrait, len(req.Traits))
	for i, t := range req.Traits {
		traits[i] = service.PreviewTrait{Image: t.ImageData, At: image.Pt(t.X, t.Y)}
	}

	data, err := service.ComposePreview(req.BaseImage, traits)
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn().Err(err).Int("traits", len(traits)).Msg("preview composite failed")
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "image": imaging.PNGDataURL(data)})
}
