package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apihttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/domain"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/nfts/service"
)

type collectionReq struct {
	Count int     `json:"count"`
	Seed  *uint64 `json:"seed"`
	Async bool    `json:"async"`
}

func (h *Handler) generateCollection(c *gin.Context) {
	var req collectionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihttp.BadRequest(c, "invalid body")
		return
	}
	in := service.CollectionRequest{Count: req.Count, Seed: req.Seed}
	uid := auth.UserFirebaseUID(c)

	if req.Async {
		id, err := h.svc.LaunchCollection(c.Request.Context(), uid, c.Param("id"), in)
		if err != nil {
			apihttp.WriteError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"ok": true, "batchId": id})
		return
	}

	run, err := h.svc.GenerateCollection(c.Request.Context(), uid, c.Param("id"), in)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "batch": run})
}

type variantReq struct {
	VariantIndex int `json:"variantIndex"`
}

func (h *Handler) generateVariant(c *gin.Context) {
	var req variantReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apihttp.BadRequest(c, "invalid body")
			return
		}
	}

	n, err := h.svc.GenerateVariant(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.VariantIndex)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "nft": n})
}

type attributesReq struct {
	Attributes []domain.Attribute `json:"attributes"`
}

func (h *Handler) createFromAttributes(c *gin.Context) {
	var req attributesReq
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Attributes) == 0 {
		apihttp.BadRequest(c, "attributes are required")
		return
	}

	n, err := h.svc.CreateFromAttributes(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Attributes)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "nft": n})
}

func (h *Handler) regenerate(c *gin.Context) {
	var req attributesReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apihttp.BadRequest(c, "invalid body")
			return
		}
	}

	uid := auth.UserFirebaseUID(c)
	n, err := h.svc.Get(c.Request.Context(), uid, c.Param("nft"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	if n.ProjectID != c.Param("id") {
		apihttp.WriteError(c, domain.ErrNFTNotFound)
		return
	}

	n, err = h.svc.Regenerate(c.Request.Context(), uid, n.ID, req.Attributes)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "nft": n})
}

func (h *Handler) list(c *gin.Context) {
	f := domain.Filter{ProjectID: c.Param("id")}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			s, err := domain.ParseMintStatus(strings.TrimSpace(part))
			if err != nil {
				apihttp.BadRequest(c, err.Error())
				return
			}
			f.Statuses = append(f.Statuses, s)
		}
	}

	items, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c), f)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	for i := range items {
		items[i].Image = h.imageURL(items[i].ID)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "nfts": items})
}

func (h *Handler) imageURL(id string) string {
	return strings.TrimRight(h.imageBase, "/") + "/nfts/" + id + "/image"
}

func (h *Handler) get(c *gin.Context) {
	n, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "nft": n})
}

type mintStatusReq struct {
	Status string `json:"status"`
}

func (h *Handler) updateMintStatus(c *gin.Context) {
	var req mintStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		apihttp.BadRequest(c, "invalid body")
		return
	}
	to, err := domain.ParseMintStatus(req.Status)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}

	n, err := h.svc.UpdateMintStatus(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), to)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "nft": n})
}

func (h *Handler) image(c *gin.Context) {
	data, contentType, err := h.svc.ImageBytes(c.Request.Context(), c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, contentType, data)
}

func (h *Handler) rarityReport(c *gin.Context) {
	report, err := h.svc.RarityReport(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "report": report})
}
