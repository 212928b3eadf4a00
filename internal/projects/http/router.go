package http

import (
	"slices"

	"github.com/gin-gonic/gin"
)

// Register attaches project routes to the given router group. generate
// wraps the endpoints that call the image generator, typically with a rate
// limiter.
func (h *Handler) Register(rg *gin.RouterGroup, generate ...gin.HandlerFunc) {
	limited := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(slices.Clip(generate), handler)
	}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:id", h.get)
	rg.PATCH("/:id", h.rename)
	rg.DELETE("/:id", h.delete)
	rg.POST("/:id/publish", h.publish)

	rg.POST("/:id/analyze", limited(h.analyze)...)
	rg.POST("/:id/base", limited(h.generateBase)...)
	rg.POST("/:id/traits/generate", limited(h.generateTraits)...)

	rg.POST("/:id/layers", h.addLayer)
	rg.PATCH("/:id/layers/:layer", h.updateLayer)
	rg.DELETE("/:id/layers/:layer", h.deleteLayer)
	rg.POST("/:id/layers/:layer/traits", h.addTrait)
	rg.DELETE("/:id/layers/:layer/traits/:trait", h.removeTrait)
	rg.PUT("/:id/layers/:layer/rarities", h.setRarities)
	rg.POST("/:id/layers/:layer/normalize", h.normalizeLayer)
	rg.POST("/:id/layers/:layer/extract", h.registerExtracted)
}

// RegisterExtract attaches the stateless sprite sheet endpoint.
func (h *Handler) RegisterExtract(rg *gin.RouterGroup) {
	rg.POST("/extract-traits", h.extract)
}
