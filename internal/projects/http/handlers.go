package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apihttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/service"
)

type createReq struct {
	Prompt string `json:"prompt"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Prompt) == "" {
		apihttp.BadRequest(c, "prompt is required")
		return
	}

	p, err := h.svc.Initialize(c.Request.Context(), auth.UserFirebaseUID(c), req.Prompt)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), auth.UserFirebaseUID(c))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	p, err := h.svc.Get(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type renameReq struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		apihttp.BadRequest(c, "name is required")
		return
	}

	p, err := h.svc.Rename(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Name)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id")); err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) analyze(c *gin.Context) {
	p, err := h.svc.Analyze(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) publish(c *gin.Context) {
	p, err := h.svc.Publish(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type baseReq struct {
	Seed *int64 `json:"seed"`
}

func (h *Handler) generateBase(c *gin.Context) {
	var req baseReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			apihttp.BadRequest(c, "invalid body")
			return
		}
	}

	p, err := h.svc.GenerateBase(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), req.Seed)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type traitsReq struct {
	Category         string `json:"category"`
	Count            int    `json:"count"`
	Policy           string `json:"policy"`
	RemoveBackground bool   `json:"removeBackground"`
	Seed             *int64 `json:"seed"`
}

func (h *Handler) generateTraits(c *gin.Context) {
	var req traitsReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Category) == "" {
		apihttp.BadRequest(c, "category is required")
		return
	}
	if req.Count == 0 {
		req.Count = 1
	}

	var policy service.BatchPolicy
	if req.Policy != "" {
		var err error
		if policy, err = service.ParseBatchPolicy(req.Policy); err != nil {
			apihttp.BadRequest(c, err.Error())
			return
		}
	}

	report, err := h.svc.GenerateTraits(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), service.TraitBatchRequest{
		Category:         req.Category,
		Count:            req.Count,
		Policy:           policy,
		RemoveBackground: req.RemoveBackground,
		Seed:             req.Seed,
	})
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "partial": len(report.Failed) > 0, "report": report})
}
