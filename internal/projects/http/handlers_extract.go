package http

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apihttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/imaging"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/projects/service"
)

type extractReq struct {
	Image            string `json:"image"`
	Background       string `json:"backgroundColor"`
	DetectBackground bool   `json:"detectBackground"`
	Tolerance        *int   `json:"tolerance"`
	MinRegionPixels  *int   `json:"minRegionPixels"`
	Padding          *int   `json:"padding"`
}

// bindExtract accepts either a multipart upload with a "sheet" file and
// form options, or a JSON body carrying the sheet as a data URL or base64.
func (h *Handler) bindExtract(c *gin.Context) (service.ExtractRequest, error) {
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("sheet")
		if err != nil {
			return service.ExtractRequest{}, fmt.Errorf("sheet file is required")
		}
		if fh.Size > h.maxUpload {
			return service.ExtractRequest{}, fmt.Errorf("sheet exceeds %d bytes", h.maxUpload)
		}
		f, err := fh.Open()
		if err != nil {
			return service.ExtractRequest{}, err
		}
		defer f.Close()
		data, err := io.ReadAll(io.LimitReader(f, h.maxUpload))
		if err != nil {
			return service.ExtractRequest{}, err
		}
		return service.ExtractRequest{
			Sheet:            data,
			Background:       c.PostForm("backgroundColor"),
			DetectBackground: c.PostForm("detectBackground") == "true",
		}, nil
	}

	var req extractReq
	if err := c.ShouldBindJSON(&req); err != nil || req.Image == "" {
		return service.ExtractRequest{}, fmt.Errorf("image is required")
	}
	data, err := imaging.DecodeImageString(req.Image)
	if err != nil {
		return service.ExtractRequest{}, err
	}
	return service.ExtractRequest{
		Sheet:            data,
		Background:       req.Background,
		DetectBackground: req.DetectBackground,
		Tolerance:        req.Tolerance,
		MinRegionPixels:  req.MinRegionPixels,
		Padding:          req.Padding,
	}, nil
}

func (h *Handler) extract(c *gin.Context) {
	req, err := h.bindExtract(c)
	if err != nil {
		apihttp.BadRequest(c, err.Error())
		return
	}

	res, err := h.svc.ExtractTraits(c.Request.Context(), req)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "background": res.Background, "traits": res.Regions})
}

func (h *Handler) registerExtracted(c *gin.Context) {
	req, err := h.bindExtract(c)
	if err != nil {
		apihttp.BadRequest(c, err.Error())
		return
	}

	p, err := h.svc.RegisterExtracted(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"), c.Param("layer"), req)
	h.respondProject(c, http.StatusCreated, p, err)
}
