package http

import (
	"slices"

	"github.com/gin-gonic/gin"
)

// RegisterProjectRoutes attaches the per-project NFT routes to the
// projects group. generate wraps the endpoints that composite images.
func (h *Handler) RegisterProjectRoutes(rg *gin.RouterGroup, generate ...gin.HandlerFunc) {
	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clip(generate), handler)
	}

	rg.POST("/:id/nfts/generate", limited(h.generateCollection)...)
	rg.POST("/:id/nfts/variant", limited(h.generateVariant)...)
	rg.POST("/:id/nfts", limited(h.createFromAttributes)...)
	rg.PUT("/:id/nfts/:nft", limited(h.regenerate)...)
	rg.GET("/:id/nfts", h.list)
	rg.GET("/:id/rarity-report", h.rarityReport)
	if h.runs != nil {
		rg.GET("/:id/batches", h.listBatches)
	}
}

// RegisterRoutes attaches the NFT, preview and batch routes that need a
// user. generate wraps the preview compositor.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, generate ...gin.HandlerFunc) {
	rg.POST("/preview", append(slices.Clip(generate), h.preview)...)
	rg.GET("/nfts/:id", h.get)
	rg.PATCH("/nfts/:id/mint-status", h.updateMintStatus)
	if h.runs != nil {
		rg.GET("/batches/:id", h.getBatch)
		rg.GET("/batches/:id/events", h.streamBatch)
	}
}

// RegisterPublicRoutes attaches routes that image tags load without
// credentials.
func (h *Handler) RegisterPublicRoutes(rg *gin.RouterGroup) {
	rg.GET("/nfts/:id/image", h.image)
}
