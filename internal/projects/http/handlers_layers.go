package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apihttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/service"
)

func (h *Handler) respondProject(c *gin.Context, status int, p *domain.Project, err error) {
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(status, gin.H{"ok": true, "project": p})
}

func (h *Handler) addLayer(c *gin.Context) {
	var l domain.Layer
	if err := c.ShouldBindJSON(&l); err != nil {
		apihttp.BadRequest(c, "invalid body")
		return
	}
	p, err := h.svc.AddLayer(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), l)
	h.respondProject(c, http.StatusCreated, p, err)
}

type layerPatchReq struct {
	Name        *string          `json:"name"`
	ParentLayer *string          `json:"parentLayer"`
	Position    *domain.Position `json:"position"`
}

func (h *Handler) updateLayer(c *gin.Context) {
	var req layerPatchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihttp.BadRequest(c, "invalid body")
		return
	}
	p, err := h.svc.UpdateLayer(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("layer"), service.LayerPatch{
		Name:        req.Name,
		ParentLayer: req.ParentLayer,
		Position:    req.Position,
	})
	h.respondProject(c, http.StatusOK, p, err)
}

func (h *Handler) deleteLayer(c *gin.Context) {
	cascade, _ := strconv.ParseBool(c.DefaultQuery("cascade", "false"))
	p, err := h.svc.DeleteLayer(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("layer"), cascade)
	h.respondProject(c, http.StatusOK, p, err)
}

type traitReq struct {
	domain.Trait
	// Image is an inline image (data URL or base64) stored on upload.
	Image          string `json:"image"`
	ExplicitWeight bool   `json:"explicitWeight"`
}

func (h *Handler) addTrait(c *gin.Context) {
	var req traitReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihttp.BadRequest(c, "invalid body")
		return
	}
	if req.Image != "" {
		req.Trait.ImageURL = req.Image
	}
	p, err := h.svc.AddTrait(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("layer"), service.TraitInput{
		Trait:          req.Trait,
		ExplicitWeight: req.ExplicitWeight,
	})
	h.respondProject(c, http.StatusCreated, p, err)
}

func (h *Handler) removeTrait(c *gin.Context) {
	p, err := h.svc.RemoveTrait(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("layer"), c.Param("trait"))
	h.respondProject(c, http.StatusOK, p, err)
}

type raritiesReq struct {
	Rarities map[string]float64 `json:"rarities"`
}

func (h *Handler) setRarities(c *gin.Context) {
	var req raritiesReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Rarities) == 0 {
		apihttp.BadRequest(c, "rarities are required")
		return
	}
	p, err := h.svc.SetRarities(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("layer"), req.Rarities)
	h.respondProject(c, http.StatusOK, p, err)
}

func (h *Handler) normalizeLayer(c *gin.Context) {
	p, err := h.svc.NormalizeLayer(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("layer"))
	h.respondProject(c, http.StatusOK, p, err)
}
